package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/coursedex/internal/config"
	"github.com/kailas-cloud/coursedex/internal/db"
	"github.com/kailas-cloud/coursedex/internal/db/memory"
	"github.com/kailas-cloud/coursedex/internal/db/postgres"
	"github.com/kailas-cloud/coursedex/internal/db/qdrant"
	dbRedis "github.com/kailas-cloud/coursedex/internal/db/redis"
	"github.com/kailas-cloud/coursedex/internal/db/valkey"
	"github.com/kailas-cloud/coursedex/internal/domain"
	"github.com/kailas-cloud/coursedex/internal/metrics"
	budgetrepo "github.com/kailas-cloud/coursedex/internal/repository/budget"
	"github.com/kailas-cloud/coursedex/internal/repository/embcache"
	reporet "github.com/kailas-cloud/coursedex/internal/repository/retrieval"
	geminiEmb "github.com/kailas-cloud/coursedex/internal/transport/gemini"
	openaiEmb "github.com/kailas-cloud/coursedex/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/coursedex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/coursedex/internal/usecase/health"
	retrievaluc "github.com/kailas-cloud/coursedex/internal/usecase/retrieval"
)

// backend is the storage side of the composition root.
type backend struct {
	repo    retrievaluc.Repository
	db      healthuc.Pinger
	index   healthuc.Pinger // nil when ranking happens inside the database
	closers []func()
}

func (b *backend) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// buildBackend picks the joined (single query) or split (index + metadata) retrieval path.
func buildBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (*backend, error) {
	be := &backend{}

	var (
		meta interface {
			OpenMetadataSession(ctx context.Context) (db.MetadataSession, error)
		}
		local  db.VectorIndex
		seeded *memory.Store
	)

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		store, err := postgres.NewStore(ctx, postgres.Config{
			DSN:             cfg.Database.DSN,
			MaxConns:        cfg.Database.MaxConns,
			ContentsTable:   cfg.Database.ContentsTable,
			EmbeddingsTable: cfg.Database.EmbeddingsTable,
		})
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		be.closers = append(be.closers, store.Close)
		timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			be.close()
			return nil, fmt.Errorf("postgres not ready: %w", err)
		}
		be.db = store
		meta = store
		if cfg.VectorIndex.Driver == config.IndexDatabase {
			be.repo = reporet.NewJoined(store)
		}
	case config.DriverMemory:
		store := memory.NewStore(nil, nil)
		if cfg.Database.SeedFile != "" {
			var err error
			if store, err = memory.LoadSeed(cfg.Database.SeedFile); err != nil {
				return nil, fmt.Errorf("memory seed: %w", err)
			}
		}
		be.closers = append(be.closers, store.Close)
		be.db = store
		meta = store
		local = store
		seeded = store
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	if be.repo != nil {
		return be, nil
	}

	switch cfg.VectorIndex.Driver {
	case config.IndexQdrant:
		idx, err := qdrant.New(qdrant.Config{
			URL:        cfg.VectorIndex.Qdrant.URL,
			APIKey:     cfg.VectorIndex.Qdrant.APIKey,
			Collection: cfg.VectorIndex.Qdrant.Collection,
		})
		if err != nil {
			be.close()
			return nil, fmt.Errorf("qdrant: %w", err)
		}
		be.closers = append(be.closers, func() {
			if err := idx.Close(); err != nil {
				logger.Warn("qdrant close failed", zap.Error(err))
			}
		})
		be.index = idx
		be.repo = reporet.NewSplit(idx, meta)
	case config.IndexValkey:
		idx, err := buildValkeyIndex(ctx, cfg, seeded)
		if err != nil {
			be.close()
			return nil, err
		}
		be.closers = append(be.closers, idx.Close)
		be.index = idx
		be.repo = reporet.NewSplit(idx, meta)
	default:
		be.repo = reporet.NewSplit(local, meta)
	}
	return be, nil
}

// buildValkeyIndex connects to Valkey Search, creates the index and optionally copies seed embeddings into it.
func buildValkeyIndex(ctx context.Context, cfg config.Config, seeded *memory.Store) (*valkey.Index, error) {
	vk := cfg.VectorIndex.Valkey
	idx, err := valkey.New(valkey.Config{
		Addrs:     vk.Addrs,
		Username:  vk.Username,
		Password:  vk.Password,
		IndexName: vk.IndexName,
		KeyPrefix: vk.KeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("valkey: %w", err)
	}
	if err := idx.EnsureIndex(ctx, cfg.Embedding.Vectorizer.Dimensions); err != nil {
		idx.Close()
		return nil, fmt.Errorf("valkey index: %w", err)
	}
	if vk.SyncSeed && seeded != nil {
		for _, e := range seeded.Embeddings() {
			if err := idx.Put(ctx, e.ID, e.Content, e.Vector); err != nil {
				idx.Close()
				return nil, fmt.Errorf("valkey seed sync: %w", err)
			}
		}
	}
	return idx, nil
}

// embedding is the embedder chain plus its budget tracker and optional Redis store.
type embedding struct {
	embedder    domain.Embedder
	budget      *embeddinguc.BudgetTracker
	budgetStore healthuc.Pinger // nil when counters stay in memory
	closers     []func()
}

func (e *embedding) close() {
	for _, c := range e.closers {
		c()
	}
}

func buildEmbedding(ctx context.Context, cfg config.Config, logger *zap.Logger) (*embedding, error) {
	vecCfg := cfg.Embedding.Vectorizer
	if vecCfg.Provider == "" {
		return nil, fmt.Errorf("embedding.vectorizer.provider is required")
	}
	provName := vecCfg.Provider
	provCfg := cfg.Embedding.Providers[provName]
	out := &embedding{}

	// The tracker always counts usage for /v1/usage; zero limits never reject.
	budgetCfg := provCfg.Budget
	action := embeddinguc.BudgetActionWarn
	if budgetCfg.Action == "reject" {
		action = embeddinguc.BudgetActionReject
	}
	out.budget = embeddinguc.NewBudgetTracker(
		provName, budgetCfg.DailyTokenLimit, budgetCfg.MonthlyTokenLimit, action, logger,
	)

	var kv *dbRedis.Store
	if cfg.BudgetStore.Enabled() {
		var err error
		kv, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.BudgetStore.Addrs,
			Username: cfg.BudgetStore.Username,
			Password: cfg.BudgetStore.Password,
			DB:       cfg.BudgetStore.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("budget store: %w", err)
		}
		out.closers = append(out.closers, kv.Close)
		out.budgetStore = kv
		// Connect persistence store, loads current counters.
		out.budget.WithStore(ctx, budgetrepo.New(kv, budgetrepo.DefaultDailyTTL, budgetrepo.DefaultMonthlyTTL))
	}

	base, err := newProvider(ctx, provName, provCfg, vecCfg, logger)
	if err != nil {
		out.close()
		return nil, err
	}

	// Embedding cache (between provider and budget accounting)
	if ttl := cfg.Embedding.CacheTTLSec; ttl > 0 && kv != nil {
		base = embcache.New(base, kv, embcache.Config{
			Provider:   provName,
			Model:      vecCfg.Model,
			Dimensions: vecCfg.Dimensions,
			TTL:        time.Duration(ttl) * time.Second,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	// Instrumented (budget + metrics)
	var embedder domain.Embedder = embeddinguc.NewInstrumentedEmbedder(
		base, provName, vecCfg.Model, out.budget, logger,
	)

	// Instruction prefix (outermost)
	if vecCfg.QueryInstruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, vecCfg.QueryInstruction)
	}
	out.embedder = embedder
	return out, nil
}

func newProvider(
	ctx context.Context, name string,
	provCfg config.ProviderConfig, vecCfg config.VectorizerConfig,
	logger *zap.Logger,
) (domain.Embedder, error) {
	switch provCfg.Type {
	case config.ProviderGemini:
		e, err := geminiEmb.NewEmbedder(ctx, geminiEmb.Config{
			APIKey:     provCfg.APIKey,
			BaseURL:    provCfg.BaseURL,
			Project:    provCfg.Project,
			Location:   provCfg.Location,
			Model:      vecCfg.Model,
			Dimensions: vecCfg.Dimensions,
			Provider:   name,
			Logger:     logger,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		return e, nil
	default:
		return openaiEmb.NewEmbedder(openaiEmb.Config{
			APIKey:     provCfg.APIKey,
			BaseURL:    provCfg.BaseURL,
			Model:      vecCfg.Model,
			Dimensions: vecCfg.Dimensions,
			Provider:   name,
			Logger:     logger,
		}), nil
	}
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}
