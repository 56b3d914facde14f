package postgres

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/pgvector/pgvector-go"

	"github.com/kailas-cloud/coursedex/internal/domain/retrieval/query"
)

// buildReconcileQuery ranks embeddings above the threshold in a CTE and left joins
// them onto every content record. Matched rows come first in rank order.
func buildReconcileQuery(contents, embeddings string, q query.Query) (string, []any, error) {
	vec := pgvector.NewVector(q.Vector())

	matches := sq.Select("id", "content").
		Column(sq.Alias(sq.Expr("1 - (embedding <=> ?)", vec), "similarity")).
		From(embeddings).
		Where(sq.Expr("1 - (embedding <=> ?) > ?", vec, q.Threshold())).
		OrderBy("similarity DESC", "id ASC").
		Limit(uint64(q.NumMatches()))

	return sq.Select("cc.id", "cc.title", "vm.content", "vm.similarity").
		PrefixExpr(sq.Expr("WITH vector_matches AS (?)", matches)).
		From(contents+" cc").
		LeftJoin("vector_matches vm ON cc.id = vm.id").
		OrderBy("vm.similarity DESC NULLS LAST", "cc.id ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
}

func buildListContentsQuery(contents string) (string, []any, error) {
	return sq.Select("id", "title").
		From(contents).
		OrderBy("id ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
}
