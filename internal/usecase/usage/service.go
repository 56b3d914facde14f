package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/coursedex/internal/domain/usage"
	"github.com/kailas-cloud/coursedex/internal/domain/usage/budget"
)

// Service handles usage reporting.
type Service struct {
	br  BudgetReader
	now func() time.Time
}

// New creates a Service.
func New(br BudgetReader) *Service {
	return &Service{br: br, now: time.Now}
}

// GetReport builds a usage report for the current UTC day or month.
func (s *Service) GetReport(_ context.Context, period domusage.Period) domusage.Report {
	now := s.now().UTC()
	u := s.br.Usage()

	var start, end time.Time
	var limit, used int64

	switch period {
	case domusage.PeriodMonth:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
		limit, used = u.MonthlyLimit, u.MonthlyUsed
	default:
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 0, 1)
		limit, used = u.DailyLimit, u.DailyUsed
		period = domusage.PeriodDay
	}

	b := budget.New(limit, used, end.UnixMilli())
	return domusage.NewReport(period, start.UnixMilli(), end.UnixMilli(), u.Provider, used, b)
}
