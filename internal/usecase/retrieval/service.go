package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/coursedex/internal/domain"
	"github.com/kailas-cloud/coursedex/internal/domain/retrieval/document"
	"github.com/kailas-cloud/coursedex/internal/domain/retrieval/query"
	"github.com/kailas-cloud/coursedex/internal/metrics"
)

// Service answers a query with the course content chunks most similar to it.
// It holds no mutable state and is safe for concurrent use.
type Service struct {
	repo       Repository
	embed      Embedder
	threshold  float64
	numMatches int
	dimensions int
	logger     *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithDimensions rejects query vectors whose length differs from n. Zero disables the check.
func WithDimensions(n int) Option {
	return func(s *Service) { s.dimensions = n }
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a retrieval service. threshold must be in [-1, 1] and numMatches at least 1.
func New(repo Repository, embed Embedder, threshold float64, numMatches int, opts ...Option) (*Service, error) {
	if err := query.ValidateSettings(threshold, numMatches); err != nil {
		return nil, err
	}
	s := &Service{
		repo:       repo,
		embed:      embed,
		threshold:  threshold,
		numMatches: numMatches,
		logger:     zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Retrieve embeds text, ranks stored embeddings above the similarity threshold,
// reconciles the matches with content metadata and returns the documents with content.
// No match is not an error: the result is an empty, non-nil slice.
func (s *Service) Retrieve(ctx context.Context, text string) ([]document.Document, error) {
	start := time.Now()
	docs, err := s.retrieve(ctx, text)

	outcome := outcomeOf(len(docs), err)
	metrics.RetrievalRequestsTotal.WithLabelValues(outcome).Inc()
	metrics.RetrievalDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	metrics.RetrievalDocumentsReturned.Observe(float64(len(docs)))
	return docs, nil
}

func (s *Service) retrieve(ctx context.Context, text string) ([]document.Document, error) {
	emb, err := s.embed.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	domain.UsageFromContext(ctx).AddTokens(emb.TotalTokens)

	if s.dimensions > 0 && len(emb.Embedding) != s.dimensions {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, expected %d",
			domain.ErrVectorDimMismatch, len(emb.Embedding), s.dimensions)
	}

	q, err := query.New(emb.Embedding, s.threshold, s.numMatches)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	sess, err := s.repo.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	defer sess.Close()

	rows, err := sess.Reconcile(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	metrics.RetrievalReconciledRows.Observe(float64(len(rows)))

	docs := document.Assemble(rows)

	s.logger.Debug("Retrieval completed",
		zap.Int("reconciled_rows", len(rows)),
		zap.Int("documents", len(docs)),
		zap.Int("query_tokens", emb.TotalTokens),
	)
	return docs, nil
}

func outcomeOf(n int, err error) string {
	switch {
	case err == nil && n == 0:
		return metrics.OutcomeEmpty
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, domain.ErrStore):
		return metrics.OutcomeStoreError
	case errors.Is(err, domain.ErrEmbeddingProviderError), errors.Is(err, domain.ErrEmbeddingQuotaExceeded):
		return metrics.OutcomeEmbeddingError
	default:
		return metrics.OutcomeInvalid
	}
}
