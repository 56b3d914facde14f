package domain

import "errors"

var (
	// ErrInvalidQuery signals a malformed retrieval request or retrieval settings.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrVectorDimMismatch signals a query vector whose length differs from the configured dimension.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrStore signals a failure of the similarity or metadata store (connection, query, auth).
	ErrStore = errors.New("store error")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrNotImplemented signals an unimplemented feature.
	ErrNotImplemented = errors.New("not implemented")
)
