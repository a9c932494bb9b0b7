// Package usage describes playground token usage reports.
package usage

import (
	"fmt"
	"strings"
	"time"
)

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
	PeriodTotal Period = "total"
)

// ParsePeriod validates a period name. An empty name means day.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PeriodDay, nil
	case PeriodDay, PeriodMonth, PeriodTotal:
		return p, nil
	}
	return "", fmt.Errorf("invalid period: %q (want day, month or total)", s)
}

// Window holds the token counters of one budget window. Remaining is -1 when Limit is zero.
type Window struct {
	Limit     int64
	Used      int64
	Remaining int64
}

// Unlimited is the window reported when no budget is tracked.
var Unlimited = Window{Remaining: -1}

// Budget is a token budget snapshot. A zero limit means unlimited and reports -1 remaining.
type Budget struct {
	limit     int64
	remaining int64
	resetsAt  time.Time
}

// NewBudget creates a budget snapshot.
func NewBudget(limit, remaining int64, resetsAt time.Time) Budget {
	return Budget{limit: limit, remaining: remaining, resetsAt: resetsAt}
}

// TokensLimit returns the token cap.
func (b Budget) TokensLimit() int64 { return b.limit }

// TokensRemaining returns tokens left, or -1 when unlimited.
func (b Budget) TokensRemaining() int64 { return b.remaining }

// IsUnlimited reports whether no cap applies.
func (b Budget) IsUnlimited() bool { return b.limit <= 0 }

// IsExhausted reports whether the budget is spent.
func (b Budget) IsExhausted() bool { return b.limit > 0 && b.remaining <= 0 }

// ResetsAt returns when the counter rolls over. Zero for the total period.
func (b Budget) ResetsAt() time.Time { return b.resetsAt }

// Report is the playground token usage of one provider for a period.
type Report struct {
	period   Period
	start    time.Time
	end      time.Time
	provider string
	tokens   int64
	budget   Budget
}

// NewReport creates a usage report.
func NewReport(period Period, start, end time.Time, provider string, tokens int64, b Budget) Report {
	return Report{
		period:   period,
		start:    start,
		end:      end,
		provider: provider,
		tokens:   tokens,
		budget:   b,
	}
}

// Period returns the aggregation granularity.
func (r *Report) Period() Period { return r.period }

// PeriodStart returns the period start. Zero for the total period.
func (r *Report) PeriodStart() time.Time { return r.start }

// PeriodEnd returns the exclusive period end. Zero for the total period.
func (r *Report) PeriodEnd() time.Time { return r.end }

// Provider returns the completion provider name.
func (r *Report) Provider() string { return r.provider }

// Tokens returns the tokens consumed in the period.
func (r *Report) Tokens() int64 { return r.tokens }

// Budget returns the budget status.
func (r *Report) Budget() Budget { return r.budget }
