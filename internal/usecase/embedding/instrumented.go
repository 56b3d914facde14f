package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/coursedex/internal/domain"
	"github.com/kailas-cloud/coursedex/internal/metrics"
)

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	Usage() Usage
}

// InstrumentedEmbedder wraps a provider embedder with budget enforcement and logging.
// Request, duration and token metrics are recorded by the transport embedders;
// this layer owns the budget and its remaining-tokens gauge.
type InstrumentedEmbedder struct {
	inner    domain.Embedder
	provider string
	model    string
	budget   BudgetChecker
	logger   *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder. budget may be nil.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string,
	budget BudgetChecker, logger *zap.Logger,
) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:    inner,
		provider: provider,
		model:    model,
		budget:   budget,
		logger:   logger,
	}
}

// Embed enforces the budget, delegates to the inner embedder and charges the tokens it reports.
// A result with zero tokens (a cache hit) is not charged.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := p.checkBudget(ctx); err != nil {
		return domain.EmbeddingResult{}, err
	}

	start := time.Now()
	result, err := p.inner.Embed(ctx, text)
	elapsed := time.Since(start)

	if err != nil {
		p.logger.Error("Query embedding failed", p.fields(zap.Duration("duration", elapsed), zap.Error(err))...)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	p.charge(result.TotalTokens)
	p.logger.Debug("Query embedded", p.fields(
		zap.Duration("duration", elapsed),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
		zap.Bool("charged", result.TotalTokens > 0),
	)...)
	return result, nil
}

func (p *InstrumentedEmbedder) checkBudget(ctx context.Context) error {
	if p.budget == nil {
		return nil
	}
	if err := p.budget.Check(ctx); err != nil {
		p.logger.Error("Embedding budget exhausted", p.fields(zap.Error(err))...)
		return fmt.Errorf("budget check: %w", err)
	}
	return nil
}

// charge records tokens and refreshes the remaining-budget gauges.
func (p *InstrumentedEmbedder) charge(tokens int) {
	if p.budget == nil || tokens <= 0 {
		return
	}
	p.budget.Record(int64(tokens))
	u := p.budget.Usage()
	metrics.EmbeddingBudgetTokensRemaining.WithLabelValues(p.provider, "daily").Set(float64(u.DailyRemaining))
	metrics.EmbeddingBudgetTokensRemaining.WithLabelValues(p.provider, "monthly").Set(float64(u.MonthlyRemaining))
}

func (p *InstrumentedEmbedder) fields(extra ...zap.Field) []zap.Field {
	return append([]zap.Field{zap.String("provider", p.provider), zap.String("model", p.model)}, extra...)
}

// HealthCheck forwards to the inner embedder when it supports health checks.
func (p *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := p.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}
