package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "coursedex"

// Query embedding Prometheus metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_requests_total",
			Help:      "Total number of query embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embedding_request_duration_seconds",
			Help:      "Query embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	EmbeddingErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_errors_total",
			Help:      "Total embedding errors",
		},
		[]string{"provider", "model", "error_type"},
	)

	EmbeddingBudgetTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "embedding_budget_tokens_remaining",
			Help:      "Remaining token budget, -1 when unlimited",
		},
		[]string{"provider", "period"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_total",
			Help:      "Query embedding cache lookups by result",
		},
		[]string{"provider", "result"},
	)
)

var registerEmbedding sync.Once

// RegisterEmbeddingMetrics registers embedding metrics with the default registry. Safe to call repeatedly.
func RegisterEmbeddingMetrics() {
	registerEmbedding.Do(func() {
		prometheus.MustRegister(
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingTokensTotal,
			EmbeddingErrorsTotal,
			EmbeddingBudgetTokensRemaining,
			EmbeddingCacheTotal,
		)
	})
}

// ObserveEmbedding records a successful provider call.
func ObserveEmbedding(provider, model string, seconds float64, promptTokens, totalTokens int) {
	EmbeddingRequestsTotal.WithLabelValues(provider, model, "success").Inc()
	EmbeddingRequestDuration.WithLabelValues(provider, model).Observe(seconds)
	if totalTokens > 0 {
		EmbeddingTokensTotal.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
		EmbeddingTokensTotal.WithLabelValues(provider, model, "total").Add(float64(totalTokens))
	}
}

// EmbeddingFailed records a failed provider call. errorType is a short label such as "api_error".
func EmbeddingFailed(provider, model, errorType string) {
	EmbeddingRequestsTotal.WithLabelValues(provider, model, "error").Inc()
	EmbeddingErrorsTotal.WithLabelValues(provider, model, errorType).Inc()
}
