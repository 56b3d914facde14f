package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kailas-cloud/coursedex/internal/db"
	"github.com/kailas-cloud/coursedex/internal/domain/content"
	"github.com/kailas-cloud/coursedex/internal/domain/retrieval/query"
	"github.com/kailas-cloud/coursedex/internal/domain/retrieval/row"
)

var (
	_ db.JoinSession     = (*Session)(nil)
	_ db.MetadataSession = (*Session)(nil)
)

// Session wraps one acquired connection.
type Session struct {
	conn       *pgxpool.Conn
	contents   string
	embeddings string
}

// Release returns the connection to the pool. Safe to call more than once.
func (s *Session) Release() {
	if s.conn == nil {
		return
	}
	s.conn.Release()
	s.conn = nil
}

// ReconcileMatches runs the ranking and the metadata join in one statement.
func (s *Session) ReconcileMatches(ctx context.Context, q query.Query) ([]row.Row, error) {
	if s.conn == nil {
		return nil, storeError(db.OpReconcile, db.ErrClosed)
	}
	sql, args, err := buildReconcileQuery(s.contents, s.embeddings, q)
	if err != nil {
		return nil, fmt.Errorf("build reconcile query: %w", err)
	}

	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, storeError(db.OpReconcile, err)
	}
	defer rows.Close()

	var out []row.Row
	for rows.Next() {
		var (
			id         int64
			title      *string
			text       *string
			similarity *float64
		)
		if err := rows.Scan(&id, &title, &text, &similarity); err != nil {
			return nil, storeError(db.OpReconcile, err)
		}
		out = append(out, row.New(id, deref(title), text, similarity))
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(db.OpReconcile, err)
	}
	return out, nil
}

// ListContents returns every content record ordered by id.
func (s *Session) ListContents(ctx context.Context) ([]content.Record, error) {
	if s.conn == nil {
		return nil, storeError(db.OpListContents, db.ErrClosed)
	}
	sql, args, err := buildListContentsQuery(s.contents)
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, storeError(db.OpListContents, err)
	}
	defer rows.Close()

	var out []content.Record
	for rows.Next() {
		var (
			id    int64
			title *string
		)
		if err := rows.Scan(&id, &title); err != nil {
			return nil, storeError(db.OpListContents, err)
		}
		out = append(out, content.Record{ID: id, Title: deref(title)})
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(db.OpListContents, err)
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
