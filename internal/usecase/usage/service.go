package usage

import (
	"context"
	"time"

	domusage "github.com/promptsgo/promptsgo/internal/domain/usage"
)

// Service handles playground usage reporting.
type Service struct {
	wr       WindowReader
	provider string
	clock    func() time.Time
}

// New creates a Service. wr can be nil when no budget is tracked.
func New(wr WindowReader, provider string) *Service {
	return &Service{wr: wr, provider: provider, clock: time.Now}
}

// WithClock overrides the time source used for period boundaries.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// GetReport builds a usage report for the given period.
// The total period reports the monthly counters without boundaries.
func (s *Service) GetReport(_ context.Context, period domusage.Period) domusage.Report {
	now := s.clock().UTC()
	var start, end time.Time

	switch period {
	case domusage.PeriodDay:
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 0, 1)
	case domusage.PeriodMonth:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
	default:
		period = domusage.PeriodTotal
	}

	w := domusage.Unlimited
	if s.wr != nil {
		w = s.wr.Window(period)
	}
	return domusage.NewReport(period, start, end, s.provider, w.Used, domusage.NewBudget(w.Limit, w.Remaining, end))
}
