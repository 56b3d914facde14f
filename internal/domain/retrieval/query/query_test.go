package query

import (
	"errors"
	"math"
	"testing"

	"github.com/kailas-cloud/coursedex/internal/domain"
)

func TestNew_Valid(t *testing.T) {
	q, err := New([]float32{1, 0}, 0.5, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Threshold() != 0.5 {
		t.Errorf("threshold = %v, want 0.5", q.Threshold())
	}
	if q.NumMatches() != 3 {
		t.Errorf("num matches = %d, want 3", q.NumMatches())
	}
	if len(q.Vector()) != 2 {
		t.Errorf("vector len = %d, want 2", len(q.Vector()))
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name       string
		vector     []float32
		threshold  float64
		numMatches int
	}{
		{"empty vector", nil, 0.5, 1},
		{"threshold above one", []float32{1}, 1.01, 1},
		{"threshold below minus one", []float32{1}, -1.5, 1},
		{"threshold NaN", []float32{1}, math.NaN(), 1},
		{"zero matches", []float32{1}, 0.5, 0},
		{"negative matches", []float32{1}, 0.5, -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.vector, tt.threshold, tt.numMatches)
			if !errors.Is(err, domain.ErrInvalidQuery) {
				t.Fatalf("expected ErrInvalidQuery, got %v", err)
			}
		})
	}
}

func TestNew_BoundaryThresholds(t *testing.T) {
	for _, th := range []float64{-1, 0, 1} {
		if _, err := New([]float32{1}, th, 1); err != nil {
			t.Errorf("threshold %v: unexpected error %v", th, err)
		}
	}
}
