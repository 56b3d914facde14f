package chi

// ErrorCode is a machine-readable error identifier in API error responses.
type ErrorCode string

// API error codes.
const (
	ErrorCodeBadRequest             ErrorCode = "bad_request"
	ErrorCodeUnauthorized           ErrorCode = "unauthorized"
	ErrorCodeInvalidQuery           ErrorCode = "invalid_query"
	ErrorCodeVectorDimMismatch      ErrorCode = "vector_dim_mismatch"
	ErrorCodeEmbeddingQuotaExceeded ErrorCode = "embedding_quota_exceeded"
	ErrorCodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	ErrorCodeStoreUnavailable       ErrorCode = "store_unavailable"
	ErrorCodeNotImplemented         ErrorCode = "not_implemented"
	ErrorCodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// RetrieveRequest is the body of POST /v1/retrieve.
type RetrieveRequest struct {
	Query string `json:"query"`
}

// DocumentMetadata identifies a returned chunk and its similarity to the query.
type DocumentMetadata struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	Similarity float64 `json:"similarity"`
}

// DocumentResponse is one retrieved chunk.
type DocumentResponse struct {
	Content  string           `json:"content"`
	Metadata DocumentMetadata `json:"metadata"`
}

// RetrieveResponse lists documents in ranking order. Documents is never null.
type RetrieveResponse struct {
	Documents []DocumentResponse `json:"documents"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// BudgetResponse is the token budget of a usage period. -1 means unlimited.
type BudgetResponse struct {
	TokensLimit     int64  `json:"tokens_limit"`
	TokensRemaining int64  `json:"tokens_remaining"`
	IsExhausted     bool   `json:"is_exhausted"`
	ResetsAt        string `json:"resets_at"`
}

// UsageResponse is the body of GET /v1/usage.
type UsageResponse struct {
	Period      string         `json:"period"`
	PeriodStart string         `json:"period_start"`
	PeriodEnd   string         `json:"period_end"`
	Provider    string         `json:"provider"`
	TokensUsed  int64          `json:"tokens_used"`
	Budget      BudgetResponse `json:"budget"`
}
