package domain

// KeyPrefix namespaces every key coursedex writes to a key-value store.
const KeyPrefix = "coursedex:"

// RetrievalConfig holds the retrieval engine defaults.
type RetrievalConfig struct {
	SimilarityThreshold float64
	NumMatches          int
	MaxQueryLength      int
	ContentsTable       string
	EmbeddingsTable     string
}

// DefaultRetrievalConfig returns the settings used when configuration leaves a field empty.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		SimilarityThreshold: 0.5,
		NumMatches:          5,
		MaxQueryLength:      4096,
		ContentsTable:       "course_contents",
		EmbeddingsTable:     "course_content_embeddings",
	}
}
