// Package content holds the read-only course content entities the retrieval engine works on.
package content

// Record is the canonical metadata entity of a piece of course content.
type Record struct {
	ID    int64  `yaml:"id"`
	Title string `yaml:"title"`
}

// Embedding is the similarity-searchable entity. Conceptually one-to-one with a Record,
// but may be missing for a Record or point at an ID unknown to the metadata store.
type Embedding struct {
	ID      int64     `yaml:"id"`
	Content string    `yaml:"content"`
	Vector  []float32 `yaml:"embedding"`
}
