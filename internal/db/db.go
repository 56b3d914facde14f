package db

import (
	"context"
	"time"

	"github.com/kailas-cloud/coursedex/internal/domain/content"
	"github.com/kailas-cloud/coursedex/internal/domain/retrieval/match"
	"github.com/kailas-cloud/coursedex/internal/domain/retrieval/query"
	"github.com/kailas-cloud/coursedex/internal/domain/retrieval/row"
)

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Readiness is implemented by stores that can block until the backend answers.
type Readiness interface {
	Pinger
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Session is a single-call connection scope. Callers must Release it on every path.
type Session interface {
	Release()
}

// JoinSession runs the similarity ranking and the metadata left join as one statement.
type JoinSession interface {
	Session
	ReconcileMatches(ctx context.Context, q query.Query) ([]row.Row, error)
}

// MetadataSession lists every known content record.
type MetadataSession interface {
	Session
	ListContents(ctx context.Context) ([]content.Record, error)
}

// VectorIndex ranks embeddings by cosine similarity to a query vector.
type VectorIndex interface {
	Match(ctx context.Context, q query.Query) ([]match.Ranked, error)
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}
