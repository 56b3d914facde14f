package query

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/coursedex/internal/domain"
)

// Similarity bounds for cosine similarity.
const (
	MinThreshold = -1.0
	MaxThreshold = 1.0
)

// Query is a validated similarity query: rank by cosine similarity to Vector,
// keep matches strictly above Threshold, return at most NumMatches.
type Query struct {
	vector     []float32
	threshold  float64
	numMatches int
}

// New validates the ranking parameters.
func New(vector []float32, threshold float64, numMatches int) (Query, error) {
	if len(vector) == 0 {
		return Query{}, fmt.Errorf("%w: query vector is empty", domain.ErrInvalidQuery)
	}
	if err := ValidateSettings(threshold, numMatches); err != nil {
		return Query{}, err
	}
	return Query{vector: vector, threshold: threshold, numMatches: numMatches}, nil
}

// ValidateSettings checks the threshold and cap used to build queries.
func ValidateSettings(threshold float64, numMatches int) error {
	if math.IsNaN(threshold) || threshold < MinThreshold || threshold > MaxThreshold {
		return fmt.Errorf("%w: similarity threshold must be between %v and %v, got %v",
			domain.ErrInvalidQuery, MinThreshold, MaxThreshold, threshold)
	}
	if numMatches < 1 {
		return fmt.Errorf("%w: num matches must be at least 1, got %d", domain.ErrInvalidQuery, numMatches)
	}
	return nil
}

// Vector returns the query embedding.
func (q *Query) Vector() []float32 { return q.vector }

// Threshold returns the exclusive minimum similarity.
func (q *Query) Threshold() float64 { return q.threshold }

// NumMatches returns the maximum number of ranked matches.
func (q *Query) NumMatches() int { return q.numMatches }
