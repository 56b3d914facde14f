package row

import (
	"testing"

	"github.com/kailas-cloud/coursedex/internal/domain/content"
	"github.com/kailas-cloud/coursedex/internal/domain/retrieval/match"
)

func TestReconcile_RootedAtMetadata(t *testing.T) {
	records := []content.Record{
		{ID: 7, Title: "No embedding"},
		{ID: 2, Title: "Second"},
		{ID: 1, Title: "First"},
	}
	matches := []match.Ranked{
		match.New(1, "intro to xss", 0.95),
		match.New(2, "csrf tokens", 0.80),
	}

	rows := Reconcile(records, matches)
	if len(rows) != 3 {
		t.Fatalf("expected one row per record, got %d", len(rows))
	}

	if rows[0].ID() != 1 || rows[1].ID() != 2 {
		t.Errorf("expected matched rows in rank order [1 2], got [%d %d]", rows[0].ID(), rows[1].ID())
	}
	if rows[2].ID() != 7 || rows[2].Matched() {
		t.Errorf("expected trailing unmatched row 7, got id=%d matched=%v", rows[2].ID(), rows[2].Matched())
	}
	if rows[2].Content() != nil || rows[2].Similarity() != nil {
		t.Error("unmatched row must carry null content and similarity")
	}
	if *rows[0].Content() != "intro to xss" || *rows[0].Similarity() != 0.95 {
		t.Errorf("unexpected match columns: %q %v", *rows[0].Content(), *rows[0].Similarity())
	}
	if rows[0].Title() != "First" {
		t.Errorf("expected title First, got %q", rows[0].Title())
	}
}

func TestReconcile_MatchWithoutRecordIsDropped(t *testing.T) {
	records := []content.Record{{ID: 1, Title: "Known"}}
	matches := []match.Ranked{
		match.New(42, "orphan", 0.99),
		match.New(1, "known", 0.70),
	}

	rows := Reconcile(records, matches)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].ID() != 1 || !rows[0].Matched() {
		t.Errorf("expected matched row 1, got %+v", rows[0])
	}
}

func TestReconcile_NoMatches(t *testing.T) {
	records := []content.Record{{ID: 3, Title: "c"}, {ID: 1, Title: "a"}}

	rows := Reconcile(records, nil)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	for _, r := range rows {
		if r.Matched() {
			t.Errorf("row %d should be unmatched", r.ID())
		}
	}
	if rows[0].ID() != 1 {
		t.Errorf("expected unmatched rows by ascending id, got first %d", rows[0].ID())
	}
}

func TestReconcile_EmptyMetadata(t *testing.T) {
	rows := Reconcile(nil, []match.Ranked{match.New(1, "a", 0.9)})
	if len(rows) != 0 {
		t.Fatalf("expected no rows without metadata, got %d", len(rows))
	}
}
