// Package document holds the final retrieval output.
package document

import "github.com/kailas-cloud/coursedex/internal/domain/retrieval/row"

// Metadata describes where a document came from and how well it matched.
type Metadata struct {
	ID         int64
	Title      string
	Similarity float64
}

// Document is a single retrieval result.
type Document struct {
	content  string
	metadata Metadata
}

// New creates a document.
func New(content string, metadata Metadata) Document {
	return Document{content: content, metadata: metadata}
}

// Content returns the matched text chunk.
func (d *Document) Content() string { return d.content }

// Metadata returns the id, title and similarity of the document.
func (d *Document) Metadata() Metadata { return d.metadata }

// Assemble drops rows without content and maps the rest to documents, keeping row order.
// An id is emitted at most once. The result is never nil.
func Assemble(rows []row.Row) []Document {
	docs := make([]Document, 0, len(rows))
	if len(rows) == 0 {
		return docs
	}

	seen := make(map[int64]struct{}, len(rows))
	for i := range rows {
		r := &rows[i]
		c := r.Content()
		if c == nil || *c == "" {
			continue
		}
		if _, dup := seen[r.ID()]; dup {
			continue
		}
		seen[r.ID()] = struct{}{}

		var sim float64
		if s := r.Similarity(); s != nil {
			sim = *s
		}
		docs = append(docs, New(*c, Metadata{ID: r.ID(), Title: r.Title(), Similarity: sim}))
	}
	return docs
}
