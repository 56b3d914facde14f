package budget

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/coursedex/internal/db"
)

// Default counter lifetimes: long enough to outlive the period they count.
const (
	DefaultDailyTTL   = 48 * time.Hour
	DefaultMonthlyTTL = 62 * 24 * time.Hour
)

// kv is the consumer interface for counter persistence (ISP).
type kv interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Store implements usecase/embedding.BudgetStore on a key-value backend (INCRBY + EXPIRE NX).
type Store struct {
	kv         kv
	dailyTTL   time.Duration
	monthlyTTL time.Duration
}

// New creates a budget store. Zero TTLs fall back to the defaults.
func New(s kv, dailyTTL, monthlyTTL time.Duration) *Store {
	if dailyTTL <= 0 {
		dailyTTL = DefaultDailyTTL
	}
	if monthlyTTL <= 0 {
		monthlyTTL = DefaultMonthlyTTL
	}
	return &Store{kv: s, dailyTTL: dailyTTL, monthlyTTL: monthlyTTL}
}

// IncrBy increments the counter and sets its TTL the first time it is written.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) error {
	if err := s.kv.IncrBy(ctx, key, val); err != nil {
		return fmt.Errorf("budget INCRBY %s: %w", key, err)
	}
	if err := s.kv.Expire(ctx, key, s.ttlFor(key), true); err != nil {
		return fmt.Errorf("budget EXPIRE %s: %w", key, err)
	}
	return nil
}

// Get returns the counter value, 0 when the key does not exist.
func (s *Store) Get(ctx context.Context, key string) (int64, error) {
	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, db.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("budget GET %s: %w", key, err)
	}

	val, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("budget GET %s parse: %w", key, err)
	}
	return val, nil
}

// ttlFor picks the TTL from the period segment of coursedex:budget:{provider}:{period}:{date}.
func (s *Store) ttlFor(key string) time.Duration {
	if strings.Contains(key, ":daily:") {
		return s.dailyTTL
	}
	return s.monthlyTTL
}
