package retrieval

import (
	"context"

	"github.com/kailas-cloud/coursedex/internal/domain"
	domret "github.com/kailas-cloud/coursedex/internal/domain/retrieval"
)

// Repository opens a storage session scoped to one retrieval call.
type Repository interface {
	Open(ctx context.Context) (domret.Session, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
