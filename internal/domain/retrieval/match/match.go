// Package match holds ranked similarity matches and the exact cosine ranker.
package match

import (
	"fmt"
	"math"
	"sort"

	"github.com/kailas-cloud/coursedex/internal/domain"
	"github.com/kailas-cloud/coursedex/internal/domain/content"
	"github.com/kailas-cloud/coursedex/internal/domain/retrieval/query"
)

// Ranked is one entry of the similarity ranking.
type Ranked struct {
	id         int64
	content    string
	similarity float64
}

// New creates a ranked match.
func New(id int64, content string, similarity float64) Ranked {
	return Ranked{id: id, content: content, similarity: similarity}
}

// ID returns the content identifier.
func (r *Ranked) ID() int64 { return r.id }

// Content returns the matched text chunk.
func (r *Ranked) Content() string { return r.content }

// Similarity returns the cosine similarity to the query vector.
func (r *Ranked) Similarity() float64 { return r.similarity }

// CosineSimilarity returns dot(a, b) / (|a| * |b|). Zero-norm vectors score 0.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", domain.ErrVectorDimMismatch, len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

// Rank scores every embedding against the query with an exact linear scan and
// returns the top NumMatches strictly above Threshold.
func Rank(embeddings []content.Embedding, q query.Query) ([]Ranked, error) {
	scored := make([]Ranked, 0, len(embeddings))
	for _, e := range embeddings {
		sim, err := CosineSimilarity(q.Vector(), e.Vector)
		if err != nil {
			return nil, fmt.Errorf("rank embedding %d: %w", e.ID, err)
		}
		scored = append(scored, New(e.ID, e.Content, sim))
	}
	return Normalize(scored, q), nil
}

// Normalize enforces the ranking contract on candidates from any index:
// strict threshold, similarity descending with ascending id on ties, cap.
// The input slice is reordered in place.
func Normalize(candidates []Ranked, q query.Query) []Ranked {
	kept := candidates[:0]
	for _, c := range candidates {
		if c.similarity > q.Threshold() {
			kept = append(kept, c)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].similarity != kept[j].similarity {
			return kept[i].similarity > kept[j].similarity
		}
		return kept[i].id < kept[j].id
	})

	if len(kept) > q.NumMatches() {
		kept = kept[:q.NumMatches()]
	}
	return kept
}
