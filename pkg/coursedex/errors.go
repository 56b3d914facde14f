package coursedex

import "github.com/kailas-cloud/coursedex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidQuery           = domain.ErrInvalidQuery
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
	ErrStore                  = domain.ErrStore
	ErrEmbeddingQuotaExceeded = domain.ErrEmbeddingQuotaExceeded
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
)
