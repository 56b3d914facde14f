package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/coursedex/internal/domain"
	"github.com/kailas-cloud/coursedex/internal/domain/retrieval/query"
	"github.com/kailas-cloud/coursedex/internal/domain/retrieval/row"
)

func TestNew_ValidatesSettings(t *testing.T) {
	tests := []struct {
		name       string
		threshold  float64
		numMatches int
		wantErr    bool
	}{
		{"defaults", 0.5, 5, false},
		{"bounds", -1, 1, false},
		{"threshold too high", 1.5, 5, true},
		{"threshold too low", -1.1, 5, true},
		{"zero matches", 0.5, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(&mockRepo{}, &mockEmbedder{}, tt.threshold, tt.numMatches)
			if tt.wantErr && !errors.Is(err, domain.ErrInvalidQuery) {
				t.Fatalf("expected ErrInvalidQuery, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRetrieve_AssemblesRows(t *testing.T) {
	sess := &mockSession{reconcileFn: func(_ context.Context, q query.Query) ([]row.Row, error) {
		if q.Threshold() != 0.5 || q.NumMatches() != 3 {
			t.Errorf("query = (%v, %d)", q.Threshold(), q.NumMatches())
		}
		return []row.Row{
			row.New(4, "Select", strPtr("select waits on channels"), floatPtr(0.91)),
			row.New(2, "Mutexes", strPtr(""), floatPtr(0.7)),
			row.New(1, "Goroutines", nil, nil),
			row.New(3, "Channels", nil, nil),
		}, nil
	}}
	repo := &mockRepo{sess: sess}
	svc, err := New(repo, &mockEmbedder{result: vectorResult(1, 0)}, 0.5, 3)
	if err != nil {
		t.Fatal(err)
	}

	docs, err := svc.Retrieve(context.Background(), "how does select work")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	md := docs[0].Metadata()
	if md.ID != 4 || md.Title != "Select" || md.Similarity != 0.91 {
		t.Errorf("metadata = %+v", md)
	}
	if sess.closed != 1 {
		t.Errorf("session closed %d times, want 1", sess.closed)
	}
}

func TestRetrieve_EmptyIsNotError(t *testing.T) {
	sess := &mockSession{}
	svc, _ := New(&mockRepo{sess: sess}, &mockEmbedder{result: vectorResult(1)}, 0.99, 5)

	docs, err := svc.Retrieve(context.Background(), "nothing relevant")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if docs == nil || len(docs) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", docs)
	}
	if sess.closed != 1 {
		t.Errorf("session closed %d times, want 1", sess.closed)
	}
}

func TestRetrieve_RecordsUsage(t *testing.T) {
	svc, _ := New(&mockRepo{sess: &mockSession{}}, &mockEmbedder{result: vectorResult(1)}, 0.5, 5)

	ctx, usage := domain.NewContextWithUsage(context.Background())
	if _, err := svc.Retrieve(ctx, "q"); err != nil {
		t.Fatal(err)
	}
	if !usage.Used || usage.TotalTokens != 4 {
		t.Errorf("usage = %+v", usage)
	}
}

func TestRetrieve_EmbeddingErrors(t *testing.T) {
	for _, sentinel := range []error{domain.ErrEmbeddingProviderError, domain.ErrEmbeddingQuotaExceeded} {
		t.Run(sentinel.Error(), func(t *testing.T) {
			repo := &mockRepo{sess: &mockSession{}}
			svc, _ := New(repo, &mockEmbedder{err: sentinel}, 0.5, 5)

			_, err := svc.Retrieve(context.Background(), "q")
			if !errors.Is(err, sentinel) {
				t.Fatalf("expected %v, got %v", sentinel, err)
			}
			if repo.opened != 0 {
				t.Errorf("session opened %d times after embedding failure", repo.opened)
			}
		})
	}
}

func TestRetrieve_DimensionMismatch(t *testing.T) {
	repo := &mockRepo{sess: &mockSession{}}
	svc, _ := New(repo, &mockEmbedder{result: vectorResult(1, 0, 0)}, 0.5, 5, WithDimensions(4))

	_, err := svc.Retrieve(context.Background(), "q")
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
	if repo.opened != 0 {
		t.Errorf("session opened %d times", repo.opened)
	}
}

func TestRetrieve_EmptyVector(t *testing.T) {
	svc, _ := New(&mockRepo{sess: &mockSession{}}, &mockEmbedder{result: vectorResult()}, 0.5, 5)
	if _, err := svc.Retrieve(context.Background(), "q"); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestRetrieve_StoreErrors(t *testing.T) {
	t.Run("open", func(t *testing.T) {
		svc, _ := New(&mockRepo{openErr: domain.ErrStore}, &mockEmbedder{result: vectorResult(1)}, 0.5, 5)
		if _, err := svc.Retrieve(context.Background(), "q"); !errors.Is(err, domain.ErrStore) {
			t.Fatalf("expected ErrStore, got %v", err)
		}
	})

	t.Run("reconcile releases session", func(t *testing.T) {
		sess := &mockSession{reconcileFn: func(context.Context, query.Query) ([]row.Row, error) {
			return nil, domain.ErrStore
		}}
		svc, _ := New(&mockRepo{sess: sess}, &mockEmbedder{result: vectorResult(1)}, 0.5, 5)

		docs, err := svc.Retrieve(context.Background(), "q")
		if !errors.Is(err, domain.ErrStore) {
			t.Fatalf("expected ErrStore, got %v", err)
		}
		if docs != nil {
			t.Errorf("expected nil documents on error, got %v", docs)
		}
		if sess.closed != 1 {
			t.Errorf("session closed %d times, want 1", sess.closed)
		}
	})
}

func TestOutcomeOf(t *testing.T) {
	tests := []struct {
		n    int
		err  error
		want string
	}{
		{3, nil, "ok"},
		{0, nil, "empty"},
		{0, domain.ErrStore, "store_error"},
		{0, domain.ErrEmbeddingQuotaExceeded, "embedding_error"},
		{0, domain.ErrVectorDimMismatch, "invalid"},
	}
	for _, tt := range tests {
		if got := outcomeOf(tt.n, tt.err); got != tt.want {
			t.Errorf("outcomeOf(%d, %v) = %s, want %s", tt.n, tt.err, got, tt.want)
		}
	}
}
