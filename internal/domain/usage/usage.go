// Package usage describes query embedding token consumption over a budget period.
package usage

import (
	"fmt"

	"github.com/kailas-cloud/coursedex/internal/domain"
	"github.com/kailas-cloud/coursedex/internal/domain/usage/budget"
)

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod validates a period name. Empty selects PeriodDay.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodDay:
		return PeriodDay, nil
	case PeriodMonth:
		return PeriodMonth, nil
	default:
		return "", fmt.Errorf("%w: period must be %q or %q, got %q", domain.ErrInvalidQuery, PeriodDay, PeriodMonth, s)
	}
}

// Report is the query embedding usage of one provider for a period.
type Report struct {
	period      Period
	periodStart int64
	periodEnd   int64
	provider    string
	tokensUsed  int64
	budget      budget.Budget
}

// NewReport creates a usage report. Timestamps are unix millis.
func NewReport(period Period, start, end int64, provider string, tokensUsed int64, b budget.Budget) Report {
	return Report{
		period:      period,
		periodStart: start,
		periodEnd:   end,
		provider:    provider,
		tokensUsed:  tokensUsed,
		budget:      b,
	}
}

// Period returns the aggregation granularity.
func (r *Report) Period() Period { return r.period }

// PeriodStart returns the period start timestamp (unix millis).
func (r *Report) PeriodStart() int64 { return r.periodStart }

// PeriodEnd returns the period end timestamp (unix millis).
func (r *Report) PeriodEnd() int64 { return r.periodEnd }

// Provider returns the embedding provider name.
func (r *Report) Provider() string { return r.provider }

// TokensUsed returns the tokens consumed in the period.
func (r *Report) TokensUsed() int64 { return r.tokensUsed }

// Budget returns the budget status.
func (r *Report) Budget() budget.Budget { return r.budget }
