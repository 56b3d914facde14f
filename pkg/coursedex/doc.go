// Package coursedex provides a Go client for retrieving the course content chunks
// most similar to a natural-language query.
//
// Content metadata and embeddings live in Postgres with pgvector, or in memory
// for tests and demos. Ranking can optionally be delegated to a Qdrant collection.
//
//	client, _ := coursedex.New(ctx,
//	    coursedex.WithPostgres("postgres://localhost/lms"),
//	    coursedex.WithEmbedder(myEmbedder),
//	    coursedex.WithSimilarityThreshold(0.6),
//	    coursedex.WithNumMatches(5),
//	)
//	defer client.Close()
//
//	docs, _ := client.Retrieve(ctx, "how do channels work?")
//	for _, d := range docs {
//	    fmt.Println(d.Title, d.Similarity, d.Content)
//	}
package coursedex
