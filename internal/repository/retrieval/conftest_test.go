package retrieval

import (
	"context"

	"github.com/kailas-cloud/coursedex/internal/db"
	"github.com/kailas-cloud/coursedex/internal/domain/content"
	"github.com/kailas-cloud/coursedex/internal/domain/retrieval/match"
	"github.com/kailas-cloud/coursedex/internal/domain/retrieval/query"
	"github.com/kailas-cloud/coursedex/internal/domain/retrieval/row"
)

// mockJoinSession implements db.JoinSession for tests.
type mockJoinSession struct {
	reconcileFn func(ctx context.Context, q query.Query) ([]row.Row, error)
	released    int
}

func (m *mockJoinSession) ReconcileMatches(ctx context.Context, q query.Query) ([]row.Row, error) {
	if m.reconcileFn != nil {
		return m.reconcileFn(ctx, q)
	}
	return nil, nil
}

func (m *mockJoinSession) Release() { m.released++ }

type mockJoinStore struct {
	sess    *mockJoinSession
	openErr error
}

func (m *mockJoinStore) OpenJoinSession(_ context.Context) (db.JoinSession, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	return m.sess, nil
}

// mockMetaSession implements db.MetadataSession for tests.
type mockMetaSession struct {
	listFn   func(ctx context.Context) ([]content.Record, error)
	calls    int
	released int
}

func (m *mockMetaSession) ListContents(ctx context.Context) ([]content.Record, error) {
	m.calls++
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockMetaSession) Release() { m.released++ }

type mockMetaStore struct {
	sess    *mockMetaSession
	openErr error
}

func (m *mockMetaStore) OpenMetadataSession(_ context.Context) (db.MetadataSession, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	return m.sess, nil
}

// mockIndex implements db.VectorIndex for tests.
type mockIndex struct {
	matchFn func(ctx context.Context, q query.Query) ([]match.Ranked, error)
}

func (m *mockIndex) Match(ctx context.Context, q query.Query) ([]match.Ranked, error) {
	if m.matchFn != nil {
		return m.matchFn(ctx, q)
	}
	return nil, nil
}

func testQuery() query.Query {
	q, err := query.New([]float32{0.1, 0.2, 0.3, 0.4}, 0.5, 5)
	if err != nil {
		panic(err)
	}
	return q
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }
