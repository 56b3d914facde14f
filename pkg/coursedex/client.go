package coursedex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/coursedex/internal/db"
	"github.com/kailas-cloud/coursedex/internal/db/memory"
	"github.com/kailas-cloud/coursedex/internal/db/postgres"
	"github.com/kailas-cloud/coursedex/internal/db/qdrant"
	"github.com/kailas-cloud/coursedex/internal/domain"
	"github.com/kailas-cloud/coursedex/internal/domain/content"
	"github.com/kailas-cloud/coursedex/internal/domain/retrieval/document"
	reporet "github.com/kailas-cloud/coursedex/internal/repository/retrieval"
	healthuc "github.com/kailas-cloud/coursedex/internal/usecase/health"
	retrievaluc "github.com/kailas-cloud/coursedex/internal/usecase/retrieval"
)

const defaultReadinessTimeout = 10 * time.Second

type retrievalUseCase interface {
	Retrieve(ctx context.Context, query string) ([]document.Document, error)
}

type metadataOpener interface {
	OpenMetadataSession(ctx context.Context) (db.MetadataSession, error)
}

// Client is the coursedex SDK entry point.
type Client struct {
	retrievalSvc retrievalUseCase
	healthSvc    healthUseCase
	pinger       healthuc.Pinger
	closers      []func()
	obs          *observer
}

// New creates a Client and connects to the configured backends.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	defs := domain.DefaultRetrievalConfig()
	cfg := &clientConfig{
		contentsTable:   defs.ContentsTable,
		embeddingsTable: defs.EmbeddingsTable,
		threshold:       defs.SimilarityThreshold,
		numMatches:      defs.NumMatches,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("coursedex: content store required (use WithPostgres, WithMemory or WithSeedFile)")
	}
	if cfg.embedder == nil {
		return nil, errors.New("coursedex: embedder required (use WithEmbedder)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	c := &Client{obs: obs}
	if err := c.wire(ctx, cfg); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) wire(ctx context.Context, cfg *clientConfig) error {
	var (
		repo  retrievaluc.Repository
		meta  metadataOpener
		local db.VectorIndex
	)

	switch cfg.driver {
	case driverPostgres:
		store, err := postgres.NewStore(ctx, postgres.Config{
			DSN:             cfg.dsn,
			MaxConns:        cfg.maxConns,
			ContentsTable:   cfg.contentsTable,
			EmbeddingsTable: cfg.embeddingsTable,
		})
		if err != nil {
			return fmt.Errorf("coursedex: create postgres store: %w", err)
		}
		c.closers = append(c.closers, store.Close)
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			return fmt.Errorf("coursedex: database not ready: %w", err)
		}
		c.pinger = store
		meta = store
		if cfg.qdrantURL == "" {
			repo = reporet.NewJoined(store)
		}
	case driverMemory:
		store, err := newMemoryStore(cfg)
		if err != nil {
			return err
		}
		c.closers = append(c.closers, store.Close)
		c.pinger = store
		meta = store
		local = store
	default:
		return fmt.Errorf("coursedex: unknown driver %q", cfg.driver)
	}

	var healthOpts []healthuc.Option
	if repo == nil {
		if cfg.qdrantURL != "" {
			idx, err := qdrant.New(qdrant.Config{
				URL:        cfg.qdrantURL,
				APIKey:     cfg.qdrantAPIKey,
				Collection: cfg.qdrantCollection,
			})
			if err != nil {
				return fmt.Errorf("coursedex: create qdrant index: %w", err)
			}
			c.closers = append(c.closers, func() { _ = idx.Close() })
			healthOpts = append(healthOpts, healthuc.WithVectorIndex(idx))
			local = idx
		}
		repo = reporet.NewSplit(local, meta)
	}

	svc, err := retrievaluc.New(
		repo, &embedderAdapter{inner: cfg.embedder},
		cfg.threshold, cfg.numMatches,
		retrievaluc.WithDimensions(cfg.dimensions),
	)
	if err != nil {
		return fmt.Errorf("coursedex: %w", err)
	}

	c.retrievalSvc = svc
	c.healthSvc = healthuc.New(c.pinger, healthOpts...)
	return nil
}

func newMemoryStore(cfg *clientConfig) (*memory.Store, error) {
	if cfg.seedFile != "" {
		s, err := memory.LoadSeed(cfg.seedFile)
		if err != nil {
			return nil, fmt.Errorf("coursedex: load seed: %w", err)
		}
		return s, nil
	}

	records := make([]content.Record, len(cfg.records))
	for i, r := range cfg.records {
		records[i] = content.Record{ID: r.ID, Title: r.Title}
	}
	embeddings := make([]content.Embedding, len(cfg.embeddings))
	for i, e := range cfg.embeddings {
		embeddings[i] = content.Embedding{ID: e.ID, Content: e.Content, Vector: e.Vector}
	}
	return memory.NewStore(records, embeddings), nil
}

// Close releases all resources.
func (c *Client) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Ping checks content store connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.pinger.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Retrieve returns the course content chunks most similar to query, best first.
// The result is empty, never nil, when nothing clears the similarity threshold.
func (c *Client) Retrieve(ctx context.Context, query string) (docs []Document, err error) {
	start := time.Now()
	defer func() { c.obs.observe("retrieve", start, err) }()

	found, err := c.retrievalSvc.Retrieve(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	docs = make([]Document, 0, len(found))
	for i := range found {
		md := found[i].Metadata()
		docs = append(docs, Document{
			Content:    found[i].Content(),
			ID:         md.ID,
			Title:      md.Title,
			Similarity: md.Similarity,
		})
	}
	c.obs.observeDocuments(len(docs))
	return docs, nil
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingQuotaExceeded) || errors.Is(err, domain.ErrEmbeddingProviderError) {
			return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
		}
		return domain.EmbeddingResult{}, fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}
