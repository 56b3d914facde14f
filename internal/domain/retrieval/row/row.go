// Package row models the output of the metadata reconciliation: one row per known
// content record, with the ranked match columns left null when no match exists.
package row

import (
	"sort"

	"github.com/kailas-cloud/coursedex/internal/domain/content"
	"github.com/kailas-cloud/coursedex/internal/domain/retrieval/match"
)

// Row is a reconciled (left-joined) row.
type Row struct {
	id         int64
	title      string
	content    *string
	similarity *float64
}

// New creates a reconciled row. content and similarity are nil when the record had no match.
func New(id int64, title string, content *string, similarity *float64) Row {
	return Row{id: id, title: title, content: content, similarity: similarity}
}

// ID returns the content identifier.
func (r *Row) ID() int64 { return r.id }

// Title returns the content title.
func (r *Row) Title() string { return r.title }

// Content returns the matched text, or nil when the row has no match.
func (r *Row) Content() *string { return r.content }

// Similarity returns the match similarity, or nil when the row has no match.
func (r *Row) Similarity() *float64 { return r.similarity }

// Matched reports whether the row carries match columns.
func (r *Row) Matched() bool { return r.content != nil }

// Reconcile left-joins matches onto the full metadata set. Every record yields a row;
// matches whose id is not a known record yield none. Matched rows come first in
// ranking order, unmatched rows follow by ascending id.
func Reconcile(records []content.Record, matches []match.Ranked) []Row {
	rank := make(map[int64]int, len(matches))
	for i := range matches {
		if _, dup := rank[matches[i].ID()]; !dup {
			rank[matches[i].ID()] = i
		}
	}

	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		i, ok := rank[rec.ID]
		if !ok {
			rows = append(rows, New(rec.ID, rec.Title, nil, nil))
			continue
		}
		text := matches[i].Content()
		sim := matches[i].Similarity()
		rows = append(rows, New(rec.ID, rec.Title, &text, &sim))
	}

	unmatched := len(matches)
	position := func(r Row) int {
		if i, ok := rank[r.id]; ok {
			return i
		}
		return unmatched
	}
	sort.SliceStable(rows, func(i, j int) bool {
		pi, pj := position(rows[i]), position(rows[j])
		if pi != pj {
			return pi < pj
		}
		return rows[i].id < rows[j].id
	})
	return rows
}
