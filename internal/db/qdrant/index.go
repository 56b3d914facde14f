package qdrant

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"

	"github.com/kailas-cloud/coursedex/internal/db"
	"github.com/kailas-cloud/coursedex/internal/domain"
	"github.com/kailas-cloud/coursedex/internal/domain/retrieval/match"
	"github.com/kailas-cloud/coursedex/internal/domain/retrieval/query"
)

// Compile-time checks.
var (
	_ db.VectorIndex = (*Index)(nil)
	_ db.Pinger      = (*Index)(nil)
)

const (
	defaultPort    = 6334
	contentPayload = "content"
)

// Config holds Qdrant connection configuration.
type Config struct {
	// URL is the gRPC endpoint, e.g. "https://example.qdrant.io:6334".
	URL        string
	APIKey     string
	Collection string
}

// Index ranks course content embeddings stored as Qdrant points.
// Point ids are the numeric content ids; the chunk text lives in the "content" payload key.
type Index struct {
	client     *qdrant.Client
	collection string
}

// New creates a Qdrant-backed vector index.
func New(cfg Config) (*Index, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant url is required")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant collection is required")
	}

	host, port, useTLS, err := parseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &Index{client: client, collection: cfg.Collection}, nil
}

// Match queries the collection and re-applies the strict threshold, since Qdrant's
// score_threshold keeps scores equal to it. Scores are float32, so the cut is made
// against the same float32 threshold the server saw.
func (i *Index) Match(ctx context.Context, q query.Query) ([]match.Ranked, error) {
	limit := uint64(q.NumMatches())
	threshold := float32(q.Threshold())

	points, err := i.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: i.collection,
		Query:          qdrant.NewQuery(q.Vector()...),
		Limit:          &limit,
		ScoreThreshold: &threshold,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpMatch, Err: fmt.Errorf("%w: %w", domain.ErrStore, err)}
	}

	return match.Normalize(toRanked(points, threshold), q), nil
}

// Ping checks that the Qdrant server answers.
func (i *Index) Ping(ctx context.Context) error {
	if _, err := i.client.HealthCheck(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: fmt.Errorf("%w: %w", domain.ErrStore, err)}
	}
	return nil
}

// Close shuts down the gRPC connection.
func (i *Index) Close() error {
	return i.client.Close() //nolint:wrapcheck // passthrough
}

// toRanked converts scored points strictly above threshold, skipping points without a numeric id.
func toRanked(points []*qdrant.ScoredPoint, threshold float32) []match.Ranked {
	out := make([]match.Ranked, 0, len(points))
	for _, p := range points {
		if p == nil || p.GetId() == nil {
			continue
		}
		if _, ok := p.GetId().GetPointIdOptions().(*qdrant.PointId_Num); !ok {
			continue
		}
		if p.GetScore() <= threshold {
			continue
		}
		var text string
		if v, ok := p.GetPayload()[contentPayload]; ok {
			text = v.GetStringValue()
		}
		out = append(out, match.New(int64(p.GetId().GetNum()), text, float64(p.GetScore())))
	}
	return out
}

func parseURL(raw string) (host string, port int, useTLS bool, err error) {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, false, fmt.Errorf("failed to parse qdrant url: %w", err)
	}

	port = defaultPort
	if u.Port() != "" {
		port, err = strconv.Atoi(u.Port())
		if err != nil {
			return "", 0, false, fmt.Errorf("invalid port: %w", err)
		}
	}
	return u.Hostname(), port, u.Scheme == "https", nil
}
