package coursedex

import "context"

// Embedder converts query text to a vector embedding.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Document is one retrieved chunk of course content.
type Document struct {
	Content    string
	ID         int64
	Title      string
	Similarity float64
}

// Record is course content metadata for the in-memory backend.
type Record struct {
	ID    int64
	Title string
}

// Embedding is an embedded chunk of course content for the in-memory backend.
type Embedding struct {
	ID      int64
	Content string
	Vector  []float32
}
