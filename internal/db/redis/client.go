// Package redis is the rueidis-backed key-value store behind token budget counters
// and the query embedding cache.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/coursedex/internal/db"
)

var (
	_ db.KVStore   = (*Store)(nil)
	_ db.Readiness = (*Store)(nil)
)

const (
	clientName = "coursedex"
	// readinessPoll is the interval between pings in WaitForReady.
	readinessPoll = 100 * time.Millisecond
)

// Config holds connection parameters for a Redis store.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
}

// Store wraps one rueidis client. Client-side caching is off: counters change on every embedding.
type Store struct {
	client rueidis.Client
}

// NewStore connects to Redis. The client identifies itself as clientName in CLIENT LIST.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		ClientName:   clientName,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis %v: %w", cfg.Addrs, err)
	}
	return &Store{client: client}, nil
}

// Ping sends PING.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.do(ctx, s.b().Ping().Build()).Error(); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() { s.client.Close() }

// WaitForReady pings immediately and then every readinessPoll until Redis answers
// or timeout elapses.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(readinessPoll)
	defer ticker.Stop()

	for {
		err := s.Ping(ctx)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("redis not ready after %s: %w", timeout, err)
		case <-ticker.C:
		}
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder { return s.client.B() }
