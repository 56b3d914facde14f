package usage

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/coursedex/internal/domain"
	"github.com/kailas-cloud/coursedex/internal/domain/usage/budget"
)

func TestNewReport(t *testing.T) {
	b := budget.New(1000000, 384200, 1700000000000)

	r := NewReport(PeriodMonth, 1700000000, 1702600000, "openai", 384200, b)

	if r.Period() != PeriodMonth {
		t.Errorf("Period() = %q", r.Period())
	}
	if r.PeriodStart() != 1700000000 {
		t.Errorf("PeriodStart() = %d", r.PeriodStart())
	}
	if r.PeriodEnd() != 1702600000 {
		t.Errorf("PeriodEnd() = %d", r.PeriodEnd())
	}
	if r.Provider() != "openai" {
		t.Errorf("Provider() = %q", r.Provider())
	}
	if r.TokensUsed() != 384200 {
		t.Errorf("TokensUsed() = %d", r.TokensUsed())
	}
	if r.Budget().TokensRemaining() != 615800 {
		t.Errorf("Budget().TokensRemaining() = %d", r.Budget().TokensRemaining())
	}
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{"", PeriodDay, false},
		{"day", PeriodDay, false},
		{"month", PeriodMonth, false},
		{"total", "", true},
		{"DAY", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePeriod(tt.in)
		if tt.wantErr {
			if !errors.Is(err, domain.ErrInvalidQuery) {
				t.Errorf("ParsePeriod(%q): expected ErrInvalidQuery, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParsePeriod(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}
