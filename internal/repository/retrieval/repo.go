package retrieval

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/coursedex/internal/db"
	domret "github.com/kailas-cloud/coursedex/internal/domain/retrieval"
	"github.com/kailas-cloud/coursedex/internal/domain/retrieval/query"
	"github.com/kailas-cloud/coursedex/internal/domain/retrieval/row"
)

// joinOpener is the consumer interface for stores that rank and join in one statement (ISP).
type joinOpener interface {
	OpenJoinSession(ctx context.Context) (db.JoinSession, error)
}

// metadataOpener is the consumer interface for content metadata stores.
type metadataOpener interface {
	OpenMetadataSession(ctx context.Context) (db.MetadataSession, error)
}

// Joined implements usecase/retrieval.Repository over a store that owns both
// embeddings and metadata.
type Joined struct {
	store joinOpener
}

// NewJoined creates a repository that delegates ranking and reconciliation to one query.
func NewJoined(s joinOpener) *Joined {
	return &Joined{store: s}
}

// Open acquires a store session for one retrieval call.
func (r *Joined) Open(ctx context.Context) (domret.Session, error) {
	sess, err := r.store.OpenJoinSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	return &joinedSession{sess: sess}, nil
}

type joinedSession struct {
	sess db.JoinSession
}

func (s *joinedSession) Reconcile(ctx context.Context, q query.Query) ([]row.Row, error) {
	rows, err := s.sess.ReconcileMatches(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("reconcile matches: %w", err)
	}
	return rows, nil
}

func (s *joinedSession) Close() { s.sess.Release() }

// Split implements usecase/retrieval.Repository over a vector index and a separate
// metadata store. Matches are reconciled in process.
type Split struct {
	index db.VectorIndex
	meta  metadataOpener
}

// NewSplit creates a repository that ranks in index and reads records from meta.
func NewSplit(index db.VectorIndex, meta metadataOpener) *Split {
	return &Split{index: index, meta: meta}
}

// Open acquires a metadata session for one retrieval call.
func (r *Split) Open(ctx context.Context) (domret.Session, error) {
	sess, err := r.meta.OpenMetadataSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	return &splitSession{index: r.index, sess: sess}, nil
}

type splitSession struct {
	index db.VectorIndex
	sess  db.MetadataSession
}

// Reconcile skips the metadata read when nothing ranks above the threshold:
// every row would carry null content and be dropped anyway.
func (s *splitSession) Reconcile(ctx context.Context, q query.Query) ([]row.Row, error) {
	matches, err := s.index.Match(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("match embeddings: %w", err)
	}
	if len(matches) == 0 {
		return nil, nil
	}

	records, err := s.sess.ListContents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contents: %w", err)
	}
	return row.Reconcile(records, matches), nil
}

func (s *splitSession) Close() { s.sess.Release() }
