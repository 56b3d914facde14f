package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Retrieval outcome label values.
const (
	OutcomeOK             = "ok"
	OutcomeEmpty          = "empty"
	OutcomeEmbeddingError = "embedding_error"
	OutcomeStoreError     = "store_error"
	OutcomeInvalid        = "invalid"
)

// Retrieval Prometheus metrics.
var (
	RetrievalRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_requests_total",
			Help:      "Total retrieval calls by outcome",
		},
		[]string{"outcome"},
	)

	RetrievalDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "Retrieval duration in seconds, embedding included",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"outcome"},
	)

	RetrievalDocumentsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_documents_returned",
			Help:      "Documents returned per retrieval",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20, 50},
		},
	)

	// RetrievalReconciledRows tracks how many metadata rows each call walks.
	// The join is rooted at the full metadata table, so this grows with it.
	RetrievalReconciledRows = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_reconciled_rows",
			Help:      "Rows produced by metadata reconciliation per retrieval",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		},
	)
)

var registerRetrieval sync.Once

// RegisterRetrievalMetrics registers retrieval metrics with the default registry. Safe to call repeatedly.
func RegisterRetrievalMetrics() {
	registerRetrieval.Do(func() {
		prometheus.MustRegister(
			RetrievalRequestsTotal,
			RetrievalDuration,
			RetrievalDocumentsReturned,
			RetrievalReconciledRows,
		)
	})
}
