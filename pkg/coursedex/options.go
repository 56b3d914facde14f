package coursedex

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

const (
	driverPostgres = "postgres"
	driverMemory   = "memory"
)

type clientConfig struct {
	driver          string // "postgres" or "memory"
	dsn             string
	maxConns        int32
	contentsTable   string
	embeddingsTable string

	records    []Record
	embeddings []Embedding
	seedFile   string

	qdrantURL        string
	qdrantAPIKey     string
	qdrantCollection string

	embedder Embedder

	threshold  float64
	numMatches int
	dimensions int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithPostgres stores content metadata and embeddings in Postgres with pgvector.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverPostgres
		c.dsn = dsn
	})
}

// WithMaxConns caps the Postgres connection pool.
func WithMaxConns(n int32) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxConns = n
	})
}

// WithTables overrides the Postgres table names.
// Defaults: course_contents and course_content_embeddings.
func WithTables(contents, embeddings string) Option {
	return optionFunc(func(c *clientConfig) {
		c.contentsTable = contents
		c.embeddingsTable = embeddings
	})
}

// WithMemory keeps the given records and embeddings in process memory.
func WithMemory(records []Record, embeddings []Embedding) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverMemory
		c.records = records
		c.embeddings = embeddings
	})
}

// WithSeedFile loads the in-memory backend from a YAML seed file.
func WithSeedFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverMemory
		c.seedFile = path
	})
}

// WithQdrant ranks against a Qdrant collection instead of the content store.
// Content metadata is still read from the content store.
func WithQdrant(url, apiKey, collection string) Option {
	return optionFunc(func(c *clientConfig) {
		c.qdrantURL = url
		c.qdrantAPIKey = apiKey
		c.qdrantCollection = collection
	})
}

// WithEmbedder sets the query embedding provider. Required.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithSimilarityThreshold sets the exclusive lower bound on cosine similarity.
// Default: 0.5.
func WithSimilarityThreshold(t float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.threshold = t
	})
}

// WithNumMatches sets the maximum number of documents returned. Default: 5.
func WithNumMatches(k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.numMatches = k
	})
}

// WithDimensions rejects query vectors of any other length. Zero disables the check.
func WithDimensions(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.dimensions = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
