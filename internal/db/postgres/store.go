package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/kailas-cloud/coursedex/internal/db"
	"github.com/kailas-cloud/coursedex/internal/domain"
)

// Compile-time check: Store answers readiness probes.
var _ db.Readiness = (*Store)(nil)

// Config holds connection parameters for the Postgres store.
type Config struct {
	DSN             string
	MaxConns        int32
	ContentsTable   string
	EmbeddingsTable string
}

// Store is a pgvector-backed content store.
type Store struct {
	pool       *pgxpool.Pool
	contents   string
	embeddings string
}

// NewStore opens a connection pool. Connections register pgvector types on connect.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn is required")
	}
	if cfg.ContentsTable == "" || cfg.EmbeddingsTable == "" {
		return nil, fmt.Errorf("contents and embeddings tables are required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	return &Store{
		pool:       pool,
		contents:   quoteTable(cfg.ContentsTable),
		embeddings: quoteTable(cfg.EmbeddingsTable),
	}, nil
}

// OpenJoinSession acquires a pooled connection for the duration of one retrieval call.
func (s *Store) OpenJoinSession(ctx context.Context) (db.JoinSession, error) {
	sess, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// OpenMetadataSession acquires a pooled connection for reading content records.
func (s *Store) OpenMetadataSession(ctx context.Context) (db.MetadataSession, error) {
	sess, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Store) acquire(ctx context.Context) (*Session, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, storeError(db.OpAcquire, err)
	}
	return &Session{conn: conn, contents: s.contents, embeddings: s.embeddings}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return storeError(db.OpPing, err)
	}
	return nil
}

// WaitForReady polls Ping until the database responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for postgres: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

func quoteTable(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}

func storeError(op string, err error) error {
	return &db.Error{Op: op, Err: fmt.Errorf("%w: %w", domain.ErrStore, err)}
}
