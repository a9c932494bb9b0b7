package usage

import (
	"context"
	"testing"
	"time"

	domusage "github.com/promptsgo/promptsgo/internal/domain/usage"
)

// --- Mock ---

type mockWindows struct {
	day, month domusage.Window
	periods    []domusage.Period
}

func (m *mockWindows) Window(p domusage.Period) domusage.Window {
	m.periods = append(m.periods, p)
	if p == domusage.PeriodDay {
		return m.day
	}
	return m.month
}

var testNow = time.Date(2025, 6, 15, 12, 30, 0, 0, time.UTC)

func newTestService(wr WindowReader) *Service {
	return New(wr, "openai").WithClock(func() time.Time { return testNow })
}

func testReader() *mockWindows {
	return &mockWindows{
		day:   domusage.Window{Limit: 10000, Used: 3000, Remaining: 7000},
		month: domusage.Window{Limit: 100000, Used: 50000, Remaining: 50000},
	}
}

// --- Tests ---

func TestGetReport_DailyPeriod(t *testing.T) {
	r := newTestService(testReader()).GetReport(context.Background(), domusage.PeriodDay)

	if r.Period() != domusage.PeriodDay {
		t.Errorf("expected period %q, got %q", domusage.PeriodDay, r.Period())
	}
	dayStart := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	if !r.PeriodStart().Equal(dayStart) {
		t.Errorf("period start = %v", r.PeriodStart())
	}
	if !r.PeriodEnd().Equal(dayStart.AddDate(0, 0, 1)) {
		t.Errorf("period end = %v", r.PeriodEnd())
	}
	if r.Budget().TokensLimit() != 10000 || r.Budget().TokensRemaining() != 7000 {
		t.Errorf("budget = %d/%d", r.Budget().TokensLimit(), r.Budget().TokensRemaining())
	}
	if !r.Budget().ResetsAt().Equal(r.PeriodEnd()) {
		t.Errorf("resets at %v, want period end", r.Budget().ResetsAt())
	}
	if r.Tokens() != 3000 || r.Provider() != "openai" {
		t.Errorf("tokens/provider = %d/%q", r.Tokens(), r.Provider())
	}
}

func TestGetReport_MonthlyPeriod(t *testing.T) {
	r := newTestService(testReader()).GetReport(context.Background(), domusage.PeriodMonth)

	if !r.PeriodStart().Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("period start = %v", r.PeriodStart())
	}
	if !r.PeriodEnd().Equal(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("period end = %v", r.PeriodEnd())
	}
	if r.Tokens() != 50000 || r.Budget().TokensLimit() != 100000 {
		t.Errorf("tokens/limit = %d/%d", r.Tokens(), r.Budget().TokensLimit())
	}
}

func TestGetReport_TotalPeriod(t *testing.T) {
	wr := testReader()
	r := newTestService(wr).GetReport(context.Background(), domusage.PeriodTotal)

	if r.Period() != domusage.PeriodTotal {
		t.Errorf("period = %q", r.Period())
	}
	if !r.PeriodStart().IsZero() || !r.PeriodEnd().IsZero() {
		t.Error("total period has no boundaries")
	}
	if r.Tokens() != 50000 {
		t.Errorf("tokens = %d", r.Tokens())
	}
	if len(wr.periods) != 1 || wr.periods[0] != domusage.PeriodTotal {
		t.Errorf("windows read = %v", wr.periods)
	}
}

func TestGetReport_NoBudget(t *testing.T) {
	r := newTestService(nil).GetReport(context.Background(), domusage.PeriodDay)

	if !r.Budget().IsUnlimited() || r.Budget().TokensRemaining() != -1 {
		t.Errorf("expected unlimited budget, got %+v", r.Budget())
	}
	if r.Budget().IsExhausted() || r.Tokens() != 0 {
		t.Error("nil reader must report an unused, unlimited budget")
	}
}

func TestGetReport_Exhausted(t *testing.T) {
	wr := &mockWindows{day: domusage.Window{Limit: 1000, Used: 1200, Remaining: 0}}
	r := newTestService(wr).GetReport(context.Background(), domusage.PeriodDay)

	if !r.Budget().IsExhausted() {
		t.Error("budget should be exhausted")
	}
}
