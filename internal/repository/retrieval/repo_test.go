package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/coursedex/internal/domain"
	"github.com/kailas-cloud/coursedex/internal/domain/content"
	"github.com/kailas-cloud/coursedex/internal/domain/retrieval/match"
	"github.com/kailas-cloud/coursedex/internal/domain/retrieval/query"
	"github.com/kailas-cloud/coursedex/internal/domain/retrieval/row"
)

func TestJoined_Reconcile(t *testing.T) {
	want := []row.Row{row.New(1, "Goroutines", strPtr("goroutines are cheap"), floatPtr(0.9))}
	sess := &mockJoinSession{reconcileFn: func(_ context.Context, q query.Query) ([]row.Row, error) {
		if q.NumMatches() != 5 {
			t.Errorf("num matches = %d, want 5", q.NumMatches())
		}
		return want, nil
	}}
	repo := NewJoined(&mockJoinStore{sess: sess})

	s, err := repo.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	rows, err := s.Reconcile(context.Background(), testQuery())
	s.Close()
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(rows) != 1 || rows[0].ID() != 1 {
		t.Errorf("unexpected rows: %+v", rows)
	}
	if sess.released != 1 {
		t.Errorf("released %d times, want 1", sess.released)
	}
}

func TestJoined_OpenError(t *testing.T) {
	repo := NewJoined(&mockJoinStore{openErr: domain.ErrStore})
	if _, err := repo.Open(context.Background()); !errors.Is(err, domain.ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
}

func TestJoined_ReconcileError(t *testing.T) {
	sess := &mockJoinSession{reconcileFn: func(context.Context, query.Query) ([]row.Row, error) {
		return nil, domain.ErrStore
	}}
	s, _ := NewJoined(&mockJoinStore{sess: sess}).Open(context.Background())
	defer s.Close()
	if _, err := s.Reconcile(context.Background(), testQuery()); !errors.Is(err, domain.ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
}

func TestSplit_ReconcilesInProcess(t *testing.T) {
	index := &mockIndex{matchFn: func(context.Context, query.Query) ([]match.Ranked, error) {
		return []match.Ranked{
			match.New(3, "select statements", 0.92),
			match.New(7, "orphan chunk", 0.85),
			match.New(1, "goroutines are cheap", 0.71),
		}, nil
	}}
	meta := &mockMetaSession{listFn: func(context.Context) ([]content.Record, error) {
		return []content.Record{{ID: 1, Title: "Goroutines"}, {ID: 2, Title: "Channels"}, {ID: 3, Title: "Select"}}, nil
	}}
	repo := NewSplit(index, &mockMetaStore{sess: meta})

	s, err := repo.Open(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	rows, err := s.Reconcile(context.Background(), testQuery())
	s.Close()
	if err != nil {
		t.Fatal(err)
	}

	if len(rows) != 3 {
		t.Fatalf("expected one row per record, got %d", len(rows))
	}
	wantIDs := []int64{3, 1, 2}
	for i, id := range wantIDs {
		if rows[i].ID() != id {
			t.Errorf("rows[%d].ID = %d, want %d", i, rows[i].ID(), id)
		}
	}
	if rows[2].Matched() {
		t.Error("record 2 has no embedding and must be unmatched")
	}
	if meta.released != 1 {
		t.Errorf("released %d times, want 1", meta.released)
	}
}

func TestSplit_NoMatchesSkipsMetadata(t *testing.T) {
	meta := &mockMetaSession{}
	s, _ := NewSplit(&mockIndex{}, &mockMetaStore{sess: meta}).Open(context.Background())
	defer s.Close()

	rows, err := s.Reconcile(context.Background(), testQuery())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
	if meta.calls != 0 {
		t.Errorf("metadata read %d times, want 0", meta.calls)
	}
}

func TestSplit_Errors(t *testing.T) {
	t.Run("open", func(t *testing.T) {
		repo := NewSplit(&mockIndex{}, &mockMetaStore{openErr: domain.ErrStore})
		if _, err := repo.Open(context.Background()); !errors.Is(err, domain.ErrStore) {
			t.Fatalf("expected ErrStore, got %v", err)
		}
	})

	t.Run("match", func(t *testing.T) {
		index := &mockIndex{matchFn: func(context.Context, query.Query) ([]match.Ranked, error) {
			return nil, domain.ErrStore
		}}
		s, _ := NewSplit(index, &mockMetaStore{sess: &mockMetaSession{}}).Open(context.Background())
		defer s.Close()
		if _, err := s.Reconcile(context.Background(), testQuery()); !errors.Is(err, domain.ErrStore) {
			t.Fatalf("expected ErrStore, got %v", err)
		}
	})

	t.Run("list", func(t *testing.T) {
		index := &mockIndex{matchFn: func(context.Context, query.Query) ([]match.Ranked, error) {
			return []match.Ranked{match.New(1, "x", 0.9)}, nil
		}}
		meta := &mockMetaSession{listFn: func(context.Context) ([]content.Record, error) {
			return nil, domain.ErrStore
		}}
		s, _ := NewSplit(index, &mockMetaStore{sess: meta}).Open(context.Background())
		defer s.Close()
		if _, err := s.Reconcile(context.Background(), testQuery()); !errors.Is(err, domain.ErrStore) {
			t.Fatalf("expected ErrStore, got %v", err)
		}
	})
}
