package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/coursedex/internal/domain"
	"github.com/kailas-cloud/coursedex/internal/domain/retrieval/document"
	domusage "github.com/kailas-cloud/coursedex/internal/domain/usage"
	logpkg "github.com/kailas-cloud/coursedex/internal/logger"
	healthuc "github.com/kailas-cloud/coursedex/internal/usecase/health"
)

// maxBodyBytes caps the POST /v1/retrieve body.
const maxBodyBytes = 64 << 10

// Retriever answers a query with ranked documents.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]document.Document, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// UsageReporter reports query embedding token usage.
type UsageReporter interface {
	GetReport(ctx context.Context, period domusage.Period) domusage.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes retrieval over HTTP.
type Server struct {
	retrieval      Retriever
	health         HealthChecker
	usage          UsageReporter
	maxQueryLength int
	logger         *zap.Logger
	errorHandlers  []errorHandler
}

// NewServer creates an HTTP API server. maxQueryLength is in characters; zero disables the limit.
func NewServer(retrieval Retriever, health HealthChecker, maxQueryLength int, logger *zap.Logger) *Server {
	s := &Server{
		retrieval:      retrieval,
		health:         health,
		maxQueryLength: maxQueryLength,
		logger:         logger,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, ErrorCodeInvalidQuery),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, ErrorCodeVectorDimMismatch),
		sentinelHandler(domain.ErrEmbeddingQuotaExceeded, http.StatusPaymentRequired, ErrorCodeEmbeddingQuotaExceeded),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, ErrorCodeEmbeddingProviderError),
		sentinelHandler(domain.ErrStore, http.StatusServiceUnavailable, ErrorCodeStoreUnavailable),
		sentinelHandler(domain.ErrNotImplemented, http.StatusNotImplemented, ErrorCodeNotImplemented),
	}
	return s
}

// WithUsage enables GET /v1/usage. Without it the endpoint answers 501.
func (s *Server) WithUsage(u UsageReporter) *Server {
	s.usage = u
	return s
}

// Routes mounts the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/v1/retrieve", s.Retrieve)
	r.Get("/v1/retrieve", s.RetrieveQuery)
	r.Get("/v1/usage", s.GetUsage)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Retrieve handles POST /v1/retrieve.
func (s *Server) Retrieve(w http.ResponseWriter, r *http.Request) {
	var req RetrieveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	s.retrieve(w, r, req.Query)
}

// RetrieveQuery handles GET /v1/retrieve?query=...
func (s *Server) RetrieveQuery(w http.ResponseWriter, r *http.Request) {
	var q string
	if err := runtime.BindQueryParameter("form", true, true, "query", r.URL.Query(), &q); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, fmt.Sprintf("Invalid query parameter: %s", err))
		return
	}
	s.retrieve(w, r, q)
}

func (s *Server) retrieve(w http.ResponseWriter, r *http.Request, query string) {
	if err := s.validateQuery(query); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	docs, err := s.retrieval.Retrieve(ctx, query)
	setEmbeddingHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := RetrieveResponse{Documents: make([]DocumentResponse, 0, len(docs))}
	for i := range docs {
		resp.Documents = append(resp.Documents, documentToResponse(&docs[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) validateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: query is required", domain.ErrInvalidQuery)
	}
	if n := utf8.RuneCountInString(query); s.maxQueryLength > 0 && n > s.maxQueryLength {
		return fmt.Errorf("%w: query has %d characters, limit is %d", domain.ErrInvalidQuery, n, s.maxQueryLength)
	}
	return nil
}

// GetUsage handles GET /v1/usage?period=day|month.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	if s.usage == nil {
		s.handleDomainError(w, r, fmt.Errorf("%w: usage reporting is disabled", domain.ErrNotImplemented))
		return
	}

	var raw string
	if err := runtime.BindQueryParameter("form", true, false, "period", r.URL.Query(), &raw); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, fmt.Sprintf("Invalid query parameter: %s", err))
		return
	}
	period, err := domusage.ParsePeriod(raw)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	report := s.usage.GetReport(r.Context(), period)
	writeJSON(w, http.StatusOK, usageToResponse(&report))
}

// HealthCheck handles GET /health. Only an unhealthy report answers 503.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func documentToResponse(d *document.Document) DocumentResponse {
	md := d.Metadata()
	return DocumentResponse{
		Content: d.Content(),
		Metadata: DocumentMetadata{
			ID:         md.ID,
			Title:      md.Title,
			Similarity: md.Similarity,
		},
	}
}

func usageToResponse(r *domusage.Report) UsageResponse {
	b := r.Budget()
	return UsageResponse{
		Period:      string(r.Period()),
		PeriodStart: time.UnixMilli(r.PeriodStart()).UTC().Format(time.RFC3339),
		PeriodEnd:   time.UnixMilli(r.PeriodEnd()).UTC().Format(time.RFC3339),
		Provider:    r.Provider(),
		TokensUsed:  r.TokensUsed(),
		Budget: BudgetResponse{
			TokensLimit:     b.TokensLimit(),
			TokensRemaining: b.TokensRemaining(),
			IsExhausted:     b.IsExhausted(),
			ResetsAt:        time.UnixMilli(b.ResetsAt()).UTC().Format(time.RFC3339),
		},
	}
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a client-safe message. Invalid query details are the
// caller's own input and are returned verbatim; everything else is reduced to its sentinel.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidQuery) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrVectorDimMismatch,
		domain.ErrEmbeddingQuotaExceeded,
		domain.ErrEmbeddingProviderError,
		domain.ErrStore,
		domain.ErrNotImplemented,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContextOr(r.Context(), s.logger)
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
