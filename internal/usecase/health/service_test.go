package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockProbe struct {
	err   error
	block bool
}

func (m *mockProbe) HealthCheck(ctx context.Context) error {
	if m.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return m.err
}

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockPinger{}).WithCheck("completion", &mockProbe{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks[DatabaseCheck] != CheckOK || r.Checks["completion"] != CheckOK {
		t.Errorf("checks = %v", r.Checks)
	}
}

func TestCheck_DBError(t *testing.T) {
	svc := New(&mockPinger{err: errors.New("conn refused")}).WithCheck("completion", &mockProbe{})
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Checks[DatabaseCheck] != CheckError || r.Checks["completion"] != CheckOK {
		t.Errorf("checks = %v", r.Checks)
	}
}

func TestCheck_CompletionError(t *testing.T) {
	svc := New(&mockPinger{}).WithCheck("completion", &mockProbe{err: errors.New("timeout")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["completion"] != CheckError {
		t.Errorf("checks = %v", r.Checks)
	}
}

func TestCheck_BothFail(t *testing.T) {
	svc := New(&mockPinger{err: errors.New("db down")}).
		WithCheck("completion", &mockProbe{err: errors.New("llm down")})
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
}

func TestCheck_NilProbeIgnored(t *testing.T) {
	svc := New(&mockPinger{}).WithCheck("completion", nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks["completion"]; ok {
		t.Error("completion check should be absent when the probe is nil")
	}
}

func TestCheck_Timeout(t *testing.T) {
	svc := New(&mockPinger{}).
		WithCheck("completion", &mockProbe{block: true}).
		WithTimeout(20 * time.Millisecond)

	start := time.Now()
	r := svc.Check(context.Background())

	if time.Since(start) > 2*time.Second {
		t.Fatal("check did not honor the timeout")
	}
	if r.Checks["completion"] != CheckError || r.Status != Degraded {
		t.Errorf("report = %+v", r)
	}
}
