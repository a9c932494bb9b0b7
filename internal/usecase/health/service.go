package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/promptsgo/promptsgo/internal/logger"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component is failing.
	Degraded Status = "degraded"
	// Unhealthy indicates the database is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// DatabaseCheck is the name of the mandatory database check.
const DatabaseCheck = "database"

// DefaultCheckTimeout bounds each component check.
const DefaultCheckTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db      Pinger
	checks  map[string]Probe
	timeout time.Duration
}

// New creates a Service with the mandatory database check.
func New(db Pinger) *Service {
	return &Service{db: db, checks: map[string]Probe{}, timeout: DefaultCheckTimeout}
}

// WithCheck adds an optional component check. A nil probe is ignored.
func (s *Service) WithCheck(name string, c Probe) *Service {
	if c != nil {
		s.checks[name] = c
	}
	return s
}

// WithTimeout overrides the per-check timeout.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Check runs all component checks concurrently.
// A failing database makes the service unhealthy; any other failure degrades it.
func (s *Service) Check(ctx context.Context) Report {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		checks = make(map[string]CheckResult, len(s.checks)+1)
	)
	run := func(name string, fn func(context.Context) error) {
		defer wg.Done()
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		res := CheckOK
		if err := fn(cctx); err != nil {
			logger.FromContext(ctx).Warn("Health check failed", zap.String("check", name), zap.Error(err))
			res = CheckError
		}
		mu.Lock()
		checks[name] = res
		mu.Unlock()
	}

	wg.Add(1 + len(s.checks))
	go run(DatabaseCheck, s.db.Ping)
	for name, c := range s.checks {
		go run(name, c.HealthCheck)
	}
	wg.Wait()

	status := Healthy
	for name, v := range checks {
		if v != CheckError {
			continue
		}
		if name == DatabaseCheck {
			status = Unhealthy
			break
		}
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}
