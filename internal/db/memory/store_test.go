package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kailas-cloud/coursedex/internal/db"
	"github.com/kailas-cloud/coursedex/internal/domain"
	"github.com/kailas-cloud/coursedex/internal/domain/content"
	"github.com/kailas-cloud/coursedex/internal/domain/retrieval/query"
)

const seedYAML = `
contents:
  - id: 1
    title: Goroutines
  - id: 2
    title: Channels
embeddings:
  - id: 1
    content: goroutines are cheap
    embedding: [1, 0]
  - id: 2
    content: channels connect goroutines
    embedding: [0, 1]
`

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSeed(t *testing.T) {
	s, err := LoadSeed(writeSeed(t, seedYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sess, err := s.OpenMetadataSession(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer sess.Release()

	records, err := sess.ListContents(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 || records[1].Title != "Channels" {
		t.Errorf("unexpected records: %+v", records)
	}

	q, _ := query.New([]float32{1, 0.1}, 0.5, 5)
	matches, err := s.Match(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 || matches[0].ID() != 1 {
		t.Fatalf("expected only id 1, got %+v", matches)
	}
}

func TestLoadSeed_Errors(t *testing.T) {
	if _, err := LoadSeed(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadSeed(writeSeed(t, "contents: [oops")); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestMatch_DimensionMismatch(t *testing.T) {
	s := NewStore(nil, []content.Embedding{{ID: 1, Content: "x", Vector: []float32{1, 0, 0}}})
	q, _ := query.New([]float32{1, 0}, 0, 5)
	_, err := s.Match(context.Background(), q)
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestClosed(t *testing.T) {
	s := NewStore(nil, nil)
	s.Close()

	if err := s.Ping(context.Background()); !errors.Is(err, domain.ErrStore) {
		t.Errorf("Ping: expected ErrStore, got %v", err)
	}
	if _, err := s.OpenMetadataSession(context.Background()); !errors.Is(err, db.ErrClosed) {
		t.Errorf("OpenMetadataSession: expected ErrClosed, got %v", err)
	}
	q, _ := query.New([]float32{1}, 0, 1)
	if _, err := s.Match(context.Background(), q); !errors.Is(err, domain.ErrStore) {
		t.Errorf("Match: expected ErrStore, got %v", err)
	}
}

func TestSession_ReleasedFails(t *testing.T) {
	s := NewStore([]content.Record{{ID: 1}}, nil)
	sess, _ := s.OpenMetadataSession(context.Background())
	sess.Release()
	if _, err := sess.ListContents(context.Background()); !errors.Is(err, db.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestNewStore_CopiesInput(t *testing.T) {
	records := []content.Record{{ID: 1, Title: "a"}}
	s := NewStore(records, nil)
	records[0].Title = "mutated"

	sess, _ := s.OpenMetadataSession(context.Background())
	defer sess.Release()
	got, _ := sess.ListContents(context.Background())
	if got[0].Title != "a" {
		t.Errorf("store shares caller slice: %q", got[0].Title)
	}
}

func TestEmbeddings_ReturnsCopy(t *testing.T) {
	s := NewStore(nil, []content.Embedding{{ID: 1, Content: "c", Vector: []float32{1, 0}}})
	got := s.Embeddings()
	got[0].ID = 99
	if again := s.Embeddings(); again[0].ID != 1 {
		t.Errorf("store shares internal slice: %d", again[0].ID)
	}
}
