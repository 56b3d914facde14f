// Package memory is an in-process content store for local runs and tests.
// Ranking is an exact linear scan over every stored embedding.
package memory

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/coursedex/internal/db"
	"github.com/kailas-cloud/coursedex/internal/domain"
	"github.com/kailas-cloud/coursedex/internal/domain/content"
	"github.com/kailas-cloud/coursedex/internal/domain/retrieval/match"
	"github.com/kailas-cloud/coursedex/internal/domain/retrieval/query"
)

var (
	_ db.VectorIndex     = (*Store)(nil)
	_ db.Pinger          = (*Store)(nil)
	_ db.MetadataSession = (*session)(nil)
)

// Seed is the on-disk layout of a seed file.
type Seed struct {
	Contents   []content.Record    `yaml:"contents"`
	Embeddings []content.Embedding `yaml:"embeddings"`
}

// Store keeps content records and embeddings in memory.
type Store struct {
	mu         sync.RWMutex
	records    []content.Record
	embeddings []content.Embedding
	closed     bool
}

// NewStore creates a store holding copies of the given records and embeddings.
func NewStore(records []content.Record, embeddings []content.Embedding) *Store {
	return &Store{
		records:    append([]content.Record(nil), records...),
		embeddings: append([]content.Embedding(nil), embeddings...),
	}
}

// LoadSeed reads a YAML seed file into a new store.
func LoadSeed(path string) (*Store, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path from trusted config
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return NewStore(seed.Contents, seed.Embeddings), nil
}

// Match ranks every stored embedding against the query.
func (s *Store) Match(_ context.Context, q query.Query) ([]match.Ranked, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, &db.Error{Op: db.OpMatch, Err: fmt.Errorf("%w: %w", domain.ErrStore, db.ErrClosed)}
	}
	ranked, err := match.Rank(s.embeddings, q)
	if err != nil {
		return nil, &db.Error{Op: db.OpMatch, Err: err}
	}
	return ranked, nil
}

// Embeddings returns a copy of the stored embeddings.
func (s *Store) Embeddings() []content.Embedding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]content.Embedding(nil), s.embeddings...)
}

// OpenMetadataSession returns a session over the current records.
func (s *Store) OpenMetadataSession(_ context.Context) (db.MetadataSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, &db.Error{Op: db.OpAcquire, Err: fmt.Errorf("%w: %w", domain.ErrStore, db.ErrClosed)}
	}
	return &session{store: s}, nil
}

// Ping reports whether the store is still open.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return &db.Error{Op: db.OpPing, Err: fmt.Errorf("%w: %w", domain.ErrStore, db.ErrClosed)}
	}
	return nil
}

// Close marks the store closed. Later calls fail with db.ErrClosed.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

type session struct {
	store    *Store
	released bool
}

func (s *session) Release() { s.released = true }

func (s *session) ListContents(_ context.Context) ([]content.Record, error) {
	if s.released {
		return nil, &db.Error{Op: db.OpListContents, Err: fmt.Errorf("%w: %w", domain.ErrStore, db.ErrClosed)}
	}
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	return append([]content.Record(nil), s.store.records...), nil
}
