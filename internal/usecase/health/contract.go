package health

import "context"

// Pinger reports whether the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Probe checks an optional dependency. A failing probe degrades the report
// but never marks the service unhealthy.
type Probe interface {
	HealthCheck(ctx context.Context) error
}
