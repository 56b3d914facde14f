package embedding

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/coursedex/internal/domain"
	"github.com/kailas-cloud/coursedex/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterEmbeddingMetrics()
	os.Exit(m.Run())
}

type mockEmbedder struct {
	result    domain.EmbeddingResult
	err       error
	healthErr error
	calls     int
	lastText  string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	m.lastText = text
	return m.result, m.err
}

func (m *mockEmbedder) HealthCheck(_ context.Context) error { return m.healthErr }

// plainEmbedder has no health check.
type plainEmbedder struct{}

func (plainEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: []float32{1}}, nil
}

func TestInstrumentedEmbedder_Success(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 7,
		TotalTokens:  7,
	}}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", nil, zap.NewNop())

	result, err := p.Embed(context.Background(), "what are goroutines")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.TotalTokens != 7 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if inner.lastText != "what are goroutines" {
		t.Errorf("inner received %q", inner.lastText)
	}
}

func TestInstrumentedEmbedder_Error(t *testing.T) {
	inner := &mockEmbedder{err: domain.ErrEmbeddingProviderError}
	p := NewInstrumentedEmbedder(inner, "test-err", "test-model-e", nil, zap.NewNop())

	_, err := p.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestInstrumentedEmbedder_BudgetRejection(t *testing.T) {
	budget := NewBudgetTracker("test-budget", 100, 0, BudgetActionReject, zap.NewNop())
	budget.Record(100)

	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}}}
	p := NewInstrumentedEmbedder(inner, "test-budget", "test-model-b", budget, zap.NewNop())

	_, err := p.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
		t.Fatalf("expected ErrEmbeddingQuotaExceeded, got %v", err)
	}
	if inner.calls != 0 {
		t.Errorf("provider called %d times after rejection", inner.calls)
	}
}

func TestInstrumentedEmbedder_RecordsBudgetAndGauge(t *testing.T) {
	budget := NewBudgetTracker("test-record", 1000000, 10000000, BudgetActionReject, zap.NewNop())
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 500,
		TotalTokens:  500,
	}}
	p := NewInstrumentedEmbedder(inner, "test-record", "test-model-r", budget, zap.NewNop())

	before := budget.Usage()
	if _, err := p.Embed(context.Background(), "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after := budget.Usage()

	if before.DailyRemaining-after.DailyRemaining != 500 {
		t.Errorf("daily remaining %d -> %d, want -500", before.DailyRemaining, after.DailyRemaining)
	}
	if before.MonthlyRemaining-after.MonthlyRemaining != 500 {
		t.Errorf("monthly remaining %d -> %d, want -500", before.MonthlyRemaining, after.MonthlyRemaining)
	}

	gauge := testutil.ToFloat64(metrics.EmbeddingBudgetTokensRemaining.WithLabelValues("test-record", "daily"))
	if int64(gauge) != after.DailyRemaining {
		t.Errorf("gauge = %v, want %d", gauge, after.DailyRemaining)
	}
}

func TestInstrumentedEmbedder_ZeroTokensNotCharged(t *testing.T) {
	budget := NewBudgetTracker("test-cached", 1000, 0, BudgetActionReject, zap.NewNop())
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}}
	p := NewInstrumentedEmbedder(inner, "test-cached", "test-model-c", budget, zap.NewNop())

	if _, err := p.Embed(context.Background(), "cached question"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u := budget.Usage(); u.DailyUsed != 0 {
		t.Errorf("daily used = %d, want 0 for a zero-token result", u.DailyUsed)
	}
}

func TestInstrumentedEmbedder_HealthCheck(t *testing.T) {
	failing := &mockEmbedder{healthErr: errors.New("down")}
	if err := NewInstrumentedEmbedder(failing, "p", "m", nil, zap.NewNop()).HealthCheck(context.Background()); err == nil {
		t.Error("expected forwarded health error")
	}

	if err := NewInstrumentedEmbedder(plainEmbedder{}, "p", "m", nil, zap.NewNop()).HealthCheck(context.Background()); err != nil {
		t.Errorf("expected nil for embedder without health check, got %v", err)
	}
}
