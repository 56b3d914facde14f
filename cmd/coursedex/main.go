package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/coursedex/internal/config"
	logpkg "github.com/kailas-cloud/coursedex/internal/logger"
	"github.com/kailas-cloud/coursedex/internal/metrics"
	chiTransport "github.com/kailas-cloud/coursedex/internal/transport/chi"
	healthuc "github.com/kailas-cloud/coursedex/internal/usecase/health"
	retrievaluc "github.com/kailas-cloud/coursedex/internal/usecase/retrieval"
	usageuc "github.com/kailas-cloud/coursedex/internal/usecase/usage"
	"github.com/kailas-cloud/coursedex/internal/version"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic("failed to load .env: " + err.Error())
	}

	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting coursedex API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("vector_index", cfg.VectorIndex.Driver),
	)

	ctx := context.Background()

	be, err := buildBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create content store", zap.Error(err))
	}
	defer be.close()
	logger.Info("Connected to content store")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRetrievalMetrics()
	metrics.RegisterHTTPMetrics()

	emb, err := buildEmbedding(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create embedder", zap.Error(err))
	}
	defer emb.close()
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Vectorizer.Provider),
		zap.String("model", cfg.Embedding.Vectorizer.Model),
		zap.Int("dimensions", cfg.Embedding.Vectorizer.Dimensions),
		zap.Bool("budget_store", emb.budgetStore != nil),
		zap.Int("cache_ttl_sec", cfg.Embedding.CacheTTLSec),
	)

	retrievalSvc, err := retrievaluc.New(
		be.repo, emb.embedder,
		cfg.Retrieval.Threshold(), cfg.Retrieval.NumMatches,
		retrievaluc.WithDimensions(cfg.Embedding.Vectorizer.Dimensions),
		retrievaluc.WithLogger(logger),
	)
	if err != nil {
		logger.Fatal("Invalid retrieval settings", zap.Error(err))
	}

	healthOpts := []healthuc.Option{healthuc.WithEmbedding(newEmbeddingHealthChecker(emb.embedder))}
	if be.index != nil {
		healthOpts = append(healthOpts, healthuc.WithVectorIndex(be.index))
	}
	if emb.budgetStore != nil {
		healthOpts = append(healthOpts, healthuc.WithBudgetStore(emb.budgetStore))
	}
	healthSvc := healthuc.New(be.db, healthOpts...)

	server := chiTransport.NewServer(retrievalSvc, healthSvc, cfg.Retrieval.MaxQueryLength, logger).
		WithUsage(usageuc.New(emb.budget))

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
