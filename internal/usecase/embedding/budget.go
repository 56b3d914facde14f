package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/coursedex/internal/domain"
)

// BudgetAction defines behavior when the query token budget is exhausted.
type BudgetAction string

const (
	// BudgetActionWarn logs a warning and lets the query through.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject fails the query with domain.ErrEmbeddingQuotaExceeded.
	BudgetActionReject BudgetAction = "reject"
)

// Unlimited is reported as remaining budget when no limit is configured.
const Unlimited int64 = -1

// persistTimeout bounds each write-behind to the budget store.
const persistTimeout = 2 * time.Second

// BudgetStore persists budget counters across restarts and replicas.
type BudgetStore interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// Usage is a point-in-time view of one provider's budget.
type Usage struct {
	Provider         string
	DailyLimit       int64 // 0 = unlimited
	MonthlyLimit     int64 // 0 = unlimited
	DailyUsed        int64
	MonthlyUsed      int64
	DailyRemaining   int64
	MonthlyRemaining int64
}

// BudgetTracker counts query embedding tokens per UTC day and month.
// Check reads memory only. Record updates memory, then writes behind to the store.
type BudgetTracker struct {
	mu           sync.Mutex
	provider     string
	dailyLimit   int64
	monthlyLimit int64
	action       BudgetAction
	dailyUsed    int64
	monthlyUsed  int64
	day          time.Time
	month        time.Time
	store        BudgetStore
	now          func() time.Time
	logger       *zap.Logger
}

// NewBudgetTracker creates a tracker. A zero limit disables that period.
func NewBudgetTracker(
	provider string, dailyLimit, monthlyLimit int64,
	action BudgetAction, logger *zap.Logger,
) *BudgetTracker {
	b := &BudgetTracker{
		provider:     provider,
		dailyLimit:   dailyLimit,
		monthlyLimit: monthlyLimit,
		action:       action,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       logger,
	}
	b.day, b.month = periodStarts(b.now())
	return b
}

// WithStore attaches persistence and seeds the in-memory counters from it.
func (b *BudgetTracker) WithStore(ctx context.Context, store BudgetStore) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = store
	b.rollover()

	if val, err := store.Get(ctx, b.key("daily", b.day)); err == nil {
		b.dailyUsed = val
	} else {
		b.logger.Warn("Failed to load daily budget from store", zap.String("provider", b.provider), zap.Error(err))
	}
	if val, err := store.Get(ctx, b.key("monthly", b.month)); err == nil {
		b.monthlyUsed = val
	} else {
		b.logger.Warn("Failed to load monthly budget from store", zap.String("provider", b.provider), zap.Error(err))
	}

	b.logger.Info("Budget loaded from store",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.dailyUsed),
		zap.Int64("monthly_used", b.monthlyUsed),
	)
	return b
}

// Check reports whether another query may be embedded.
func (b *BudgetTracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()

	dailyExceeded := b.dailyLimit > 0 && b.dailyUsed >= b.dailyLimit
	monthlyExceeded := b.monthlyLimit > 0 && b.monthlyUsed >= b.monthlyLimit
	if !dailyExceeded && !monthlyExceeded {
		return nil
	}

	if b.action == BudgetActionReject {
		return fmt.Errorf("%w: provider %s", domain.ErrEmbeddingQuotaExceeded, b.provider)
	}

	b.logger.Warn("Token budget exceeded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.dailyUsed),
		zap.Int64("daily_limit", b.dailyLimit),
		zap.Int64("monthly_used", b.monthlyUsed),
		zap.Int64("monthly_limit", b.monthlyLimit),
	)
	return nil
}

// Record adds consumed tokens.
func (b *BudgetTracker) Record(tokens int64) {
	if tokens <= 0 {
		return
	}

	b.mu.Lock()
	b.rollover()
	b.dailyUsed += tokens
	b.monthlyUsed += tokens
	store := b.store
	dailyKey := b.key("daily", b.day)
	monthlyKey := b.key("monthly", b.month)
	b.mu.Unlock()

	if store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := store.IncrBy(ctx, dailyKey, tokens); err != nil {
		b.logger.Warn("Failed to persist daily budget", zap.String("key", dailyKey), zap.Error(err))
	}
	if err := store.IncrBy(ctx, monthlyKey, tokens); err != nil {
		b.logger.Warn("Failed to persist monthly budget", zap.String("key", monthlyKey), zap.Error(err))
	}
}

// Usage returns counters and remaining tokens. Remaining is Unlimited for disabled periods.
func (b *BudgetTracker) Usage() Usage {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()

	return Usage{
		Provider:         b.provider,
		DailyLimit:       b.dailyLimit,
		MonthlyLimit:     b.monthlyLimit,
		DailyUsed:        b.dailyUsed,
		MonthlyUsed:      b.monthlyUsed,
		DailyRemaining:   remaining(b.dailyLimit, b.dailyUsed),
		MonthlyRemaining: remaining(b.monthlyLimit, b.monthlyUsed),
	}
}

// rollover zeroes counters when the UTC day or month changes. Caller holds mu.
func (b *BudgetTracker) rollover() {
	day, month := periodStarts(b.now())
	if day.After(b.day) {
		b.dailyUsed = 0
		b.day = day
	}
	if month.After(b.month) {
		b.monthlyUsed = 0
		b.month = month
	}
}

// key builds coursedex:budget:{provider}:{period}:{date}.
func (b *BudgetTracker) key(period string, start time.Time) string {
	layout := "2006-01-02"
	if period == "monthly" {
		layout = "2006-01"
	}
	return fmt.Sprintf("%sbudget:%s:%s:%s", domain.KeyPrefix, b.provider, period, start.Format(layout))
}

func remaining(limit, used int64) int64 {
	if limit == 0 {
		return Unlimited
	}
	return max(limit-used, 0)
}

func periodStarts(t time.Time) (day, month time.Time) {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
		time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
