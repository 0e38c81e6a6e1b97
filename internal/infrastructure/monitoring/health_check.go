package monitoring

import (
	"context"
	"sync"
	"time"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

// HealthChecker aggregates named liveness checks. The daemon registers one
// per subsystem (session, transport, capture) and the status API serves the
// combined result.
type HealthChecker struct {
	mu     sync.RWMutex
	checks []HealthCheck
}

type HealthCheck struct {
	Name    string
	Check   func(ctx context.Context) (bool, error)
	Timeout time.Duration
}

type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{}
}

func (h *HealthChecker) AddCheck(name string, check func(ctx context.Context) (bool, error), timeout time.Duration) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	h.mu.Lock()
	h.checks = append(h.checks, HealthCheck{Name: name, Check: check, Timeout: timeout})
	h.mu.Unlock()
}

// CheckAll runs every registered check and reports the aggregate. Any
// failing check makes the whole status unhealthy.
func (h *HealthChecker) CheckAll(ctx context.Context) HealthStatus {
	h.mu.RLock()
	checks := make([]HealthCheck, len(h.checks))
	copy(checks, h.checks)
	h.mu.RUnlock()

	status := HealthStatus{
		Status:    statusHealthy,
		Timestamp: time.Now(),
		Checks:    make(map[string]string, len(checks)),
	}

	for _, check := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, check.Timeout)
		healthy, err := check.Check(checkCtx)
		cancel()

		switch {
		case err != nil:
			status.Status = statusUnhealthy
			status.Checks[check.Name] = err.Error()
		case !healthy:
			status.Status = statusUnhealthy
			status.Checks[check.Name] = "check failed"
		default:
			status.Checks[check.Name] = statusHealthy
		}
	}
	return status
}
