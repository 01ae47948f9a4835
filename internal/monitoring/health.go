package monitoring

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const defaultProbeTimeout = 2 * time.Second

// ProbeStatus encodes the outcome of a health probe.
type ProbeStatus string

const (
	StatusUp       ProbeStatus = "up"
	StatusDown     ProbeStatus = "down"
	StatusDegraded ProbeStatus = "degraded"
)

// ProbeResult captures a single dependency check outcome.
type ProbeResult struct {
	Component  string      `json:"component"`
	Status     ProbeStatus `json:"status"`
	Details    string      `json:"details,omitempty"`
	DurationMS int64       `json:"duration_ms"`
}

// HealthReport aggregates probe results.
type HealthReport struct {
	Success   bool          `json:"success"`
	Status    ProbeStatus   `json:"status"`
	Checks    []ProbeResult `json:"checks"`
	CheckedAt time.Time     `json:"checked_at"`
}

// Probe checks one dependency. A nil error means the dependency is usable.
type Probe func(ctx context.Context) error

type namedProbe struct {
	name  string
	probe Probe
}

// HealthManager runs the registered readiness probes.
type HealthManager struct {
	probes  []namedProbe
	timeout time.Duration
	now     func() time.Time
}

// NewHealthManager constructs a manager whose probes are bounded by timeout.
func NewHealthManager(timeout time.Duration) *HealthManager {
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	return &HealthManager{timeout: timeout, now: time.Now}
}

// Register appends a readiness probe. Unnamed or nil probes are ignored.
func (m *HealthManager) Register(name string, probe Probe) {
	if name == "" || probe == nil {
		return
	}
	m.probes = append(m.probes, namedProbe{name: name, probe: probe})
}

// Evaluate executes every probe in registration order.
func (m *HealthManager) Evaluate(ctx context.Context) HealthReport {
	if ctx == nil {
		ctx = context.Background()
	}

	report := HealthReport{
		Success: true,
		Status:  StatusUp,
		Checks:  make([]ProbeResult, 0, len(m.probes)),
	}

	for _, p := range m.probes {
		result := m.run(ctx, p)
		report.Checks = append(report.Checks, result)
		report.Status = worst(report.Status, result.Status)
	}
	report.Success = report.Status == StatusUp
	report.CheckedAt = m.now().UTC()
	return report
}

func (m *HealthManager) run(ctx context.Context, p namedProbe) (result ProbeResult) {
	start := time.Now()
	probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			result = resultFromError(p.name, fmt.Errorf("panic: %v", rec), time.Since(start))
		}
	}()

	return resultFromError(p.name, p.probe(probeCtx), time.Since(start))
}

// resultFromError maps a probe error to a status. Timeouts degrade rather than fail.
func resultFromError(component string, err error, duration time.Duration) ProbeResult {
	result := ProbeResult{Component: component, Status: StatusUp, DurationMS: duration.Milliseconds()}
	if err == nil {
		return result
	}

	result.Status = StatusDown
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		result.Status = StatusDegraded
	}
	result.Details = err.Error()
	return result
}

func worst(current, candidate ProbeStatus) ProbeStatus {
	if current == StatusDown || candidate == StatusDown {
		return StatusDown
	}
	if current == StatusDegraded || candidate == StatusDegraded {
		return StatusDegraded
	}
	return StatusUp
}
