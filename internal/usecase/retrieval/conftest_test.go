package retrieval

import (
	"context"

	"github.com/kailas-cloud/coursedex/internal/domain"
	domret "github.com/kailas-cloud/coursedex/internal/domain/retrieval"
	"github.com/kailas-cloud/coursedex/internal/domain/retrieval/query"
	"github.com/kailas-cloud/coursedex/internal/domain/retrieval/row"
)

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.result, m.err
}

type mockSession struct {
	reconcileFn func(ctx context.Context, q query.Query) ([]row.Row, error)
	closed      int
}

func (m *mockSession) Reconcile(ctx context.Context, q query.Query) ([]row.Row, error) {
	if m.reconcileFn != nil {
		return m.reconcileFn(ctx, q)
	}
	return nil, nil
}

func (m *mockSession) Close() { m.closed++ }

type mockRepo struct {
	sess    *mockSession
	openErr error
	opened  int
}

func (m *mockRepo) Open(_ context.Context) (domret.Session, error) {
	m.opened++
	if m.openErr != nil {
		return nil, m.openErr
	}
	return m.sess, nil
}

func vectorResult(v ...float32) domain.EmbeddingResult {
	return domain.EmbeddingResult{Embedding: v, PromptTokens: 4, TotalTokens: 4}
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }
