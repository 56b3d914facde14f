package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/coursedex/internal/domain"
	"github.com/kailas-cloud/coursedex/internal/metrics"
)

// queryTaskType asks the model for an embedding tuned for search queries.
const queryTaskType = "RETRIEVAL_QUERY"

// Embedder embeds query text with a Gemini embedding model, through either the
// Gemini API (API key) or Vertex AI (project + location).
type Embedder struct {
	client     *genai.Client
	model      string
	dimensions int
	provider   string
	logger     *zap.Logger
}

// Config holds the Gemini provider settings. Project and Location select Vertex AI.
type Config struct {
	APIKey     string
	BaseURL    string
	Project    string
	Location   string
	Model      string
	Dimensions int
	Provider   string
	Logger     *zap.Logger
}

// NewEmbedder creates a Gemini embedding provider.
func NewEmbedder(ctx context.Context, cfg Config) (*Embedder, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("gemini model is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Project != "" {
		clientCfg = &genai.ClientConfig{
			Project:  cfg.Project,
			Location: cfg.Location,
			Backend:  genai.BackendVertexAI,
		}
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	provider := cfg.Provider
	if provider == "" {
		provider = "gemini"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Embedder{
		client:     client,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		provider:   provider,
		logger:     logger,
	}, nil
}

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	embCfg := &genai.EmbedContentConfig{TaskType: queryTaskType}
	if e.dimensions > 0 {
		dims := int32(e.dimensions) //nolint:gosec // validated by config
		embCfg.OutputDimensionality = &dims
	}

	start := time.Now()
	resp, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), embCfg)
	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingFailed(e.provider, e.model, "api_error")
		return domain.EmbeddingResult{}, parseAPIError(err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		metrics.EmbeddingFailed(e.provider, e.model, "empty_response")
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrEmbeddingProviderError)
	}

	// Only Vertex AI reports token statistics.
	var tokens int
	if st := resp.Embeddings[0].Statistics; st != nil {
		tokens = int(st.TokenCount)
	}

	metrics.ObserveEmbedding(e.provider, e.model, duration.Seconds(), tokens, tokens)
	e.logger.Debug("Query embedded",
		zap.String("provider", e.provider),
		zap.String("model", e.model),
		zap.Duration("duration", duration),
		zap.Int("total_tokens", tokens),
	)

	return domain.EmbeddingResult{
		Embedding:    resp.Embeddings[0].Values,
		PromptTokens: tokens,
		TotalTokens:  tokens,
	}, nil
}

// HealthCheck fetches the model metadata.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.Models.Get(ctx, e.model, nil); err != nil {
		return fmt.Errorf("get model %s: %w", e.model, err)
	}
	return nil
}

func parseAPIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("embedding API error %d %s: %s: %w",
			apiErr.Code, apiErr.Status, apiErr.Message, domain.ErrEmbeddingProviderError)
	}
	return fmt.Errorf("embedding request failed: %w: %w", domain.ErrEmbeddingProviderError, err)
}
