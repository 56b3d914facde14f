// Package retrieval defines the per-call storage scope shared by the retrieval
// use case and its repositories.
package retrieval

import (
	"context"

	"github.com/kailas-cloud/coursedex/internal/domain/retrieval/query"
	"github.com/kailas-cloud/coursedex/internal/domain/retrieval/row"
)

// Session is a storage scope opened for exactly one retrieval call.
// Close must be called on every path, including failures.
type Session interface {
	// Reconcile ranks embeddings against q and left-joins the matches onto
	// every known content record.
	Reconcile(ctx context.Context, q query.Query) ([]row.Row, error)
	Close()
}
