// Package valkey ranks course content embeddings with Valkey Search (FT.SEARCH KNN).
package valkey

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

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

// Hash fields of an indexed content entry.
const (
	FieldID        = "id"
	FieldContent   = "content"
	FieldEmbedding = "embedding"
	// Valkey Search names the KNN distance "__<vector field>_score".
	scoreField = "__" + FieldEmbedding + "_score"
)

// Defaults for the index name and key prefix.
const (
	DefaultIndexName = domain.KeyPrefix + "contents:idx"
	DefaultKeyPrefix = domain.KeyPrefix + "content:"
)

// Config holds Valkey connection and index configuration.
type Config struct {
	Addrs     []string
	Username  string
	Password  string
	IndexName string
	KeyPrefix string
}

// Index runs KNN queries over HASH entries {id, content, embedding}.
type Index struct {
	client    rueidis.Client
	name      string
	keyPrefix string
}

// New creates a Valkey-backed vector index.
func New(cfg Config) (*Index, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return newIndex(client, cfg), nil
}

func newIndex(c rueidis.Client, cfg Config) *Index {
	if cfg.IndexName == "" {
		cfg.IndexName = DefaultIndexName
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	return &Index{client: c, name: cfg.IndexName, keyPrefix: cfg.KeyPrefix}
}

// EnsureIndex creates the FT index when it does not exist yet.
func (i *Index) EnsureIndex(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}
	cmd := i.client.B().Arbitrary("FT.CREATE").Args(
		i.name, "ON", "HASH", "PREFIX", "1", i.keyPrefix,
		"SCHEMA",
		FieldID, "NUMERIC",
		FieldEmbedding, "VECTOR", "HNSW", "6",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(dimensions),
		"DISTANCE_METRIC", "COSINE",
	).Build()
	if err := i.client.Do(ctx, cmd).Error(); err != nil {
		if containsIgnoreCase(err.Error(), "index already exists") {
			return nil
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// Put writes one content entry under the index key prefix.
func (i *Index) Put(ctx context.Context, id int64, content string, vector []float32) error {
	cmd := i.client.B().Hset().Key(i.keyPrefix+strconv.FormatInt(id, 10)).FieldValue().
		FieldValue(FieldID, strconv.FormatInt(id, 10)).
		FieldValue(FieldContent, content).
		FieldValue(FieldEmbedding, vectorToBytes(vector)).
		Build()
	if err := i.client.Do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpPut, Err: err}
	}
	return nil
}

// Match runs a KNN search for the top NumMatches entries and keeps those above the threshold.
// Valkey reports cosine distance; similarity is 1 - distance.
func (i *Index) Match(ctx context.Context, q query.Query) ([]match.Ranked, error) {
	knn := fmt.Sprintf("*=>[KNN %d @%s $BLOB]", q.NumMatches(), FieldEmbedding)
	cmd := i.client.B().Arbitrary("FT.SEARCH").Args(
		i.name, knn,
		"RETURN", "3", FieldID, FieldContent, scoreField,
		"PARAMS", "2", "BLOB", vectorToBytes(q.Vector()),
		"LIMIT", "0", strconv.Itoa(q.NumMatches()),
		"DIALECT", "2",
	).Build()

	raw, err := i.client.Do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpMatch, Err: fmt.Errorf("%w: %w", domain.ErrStore, err)}
	}

	ranked, err := parseKNNResult(raw)
	if err != nil {
		return nil, &db.Error{Op: db.OpMatch, Err: fmt.Errorf("%w: %w", domain.ErrStore, err)}
	}
	return match.Normalize(ranked, q), nil
}

// Ping checks connectivity.
func (i *Index) Ping(ctx context.Context) error {
	if err := i.client.Do(ctx, i.client.B().Ping().Build()).Error(); err != nil {
		return &db.Error{Op: db.OpPing, Err: fmt.Errorf("%w: %w", domain.ErrStore, err)}
	}
	return nil
}

// Close shuts down the client.
func (i *Index) Close() {
	i.client.Close()
}

// parseKNNResult reads the 2-stride reply [total, key1, fields1, key2, fields2, ...].
// Entries without a numeric id are skipped.
func parseKNNResult(raw []rueidis.RedisMessage) ([]match.Ranked, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	out := make([]match.Ranked, 0, total)
	for j := 1; j+1 < len(raw); j += 2 {
		pairs, err := raw[j+1].ToArray()
		if err != nil {
			continue
		}
		fields := parseFieldPairs(pairs)

		id, err := strconv.ParseInt(fields[FieldID], 10, 64)
		if err != nil {
			continue
		}
		distance, err := strconv.ParseFloat(fields[scoreField], 64)
		if err != nil {
			continue
		}
		out = append(out, match.New(id, fields[FieldContent], 1.0-distance))
	}
	return out, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

func containsIgnoreCase(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
