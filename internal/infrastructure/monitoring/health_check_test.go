package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHealthChecker_AllHealthy(t *testing.T) {
	h := NewHealthChecker()
	h.AddCheck("session", func(ctx context.Context) (bool, error) { return true, nil }, time.Second)
	h.AddCheck("transport", func(ctx context.Context) (bool, error) { return true, nil }, time.Second)

	status := h.CheckAll(context.Background())
	assert.Equal(t, statusHealthy, status.Status)
	assert.Equal(t, statusHealthy, status.Checks["session"])
	assert.Equal(t, statusHealthy, status.Checks["transport"])
}

func TestHealthChecker_OneFailureMakesUnhealthy(t *testing.T) {
	h := NewHealthChecker()
	h.AddCheck("session", func(ctx context.Context) (bool, error) { return true, nil }, time.Second)
	h.AddCheck("transport", func(ctx context.Context) (bool, error) {
		return false, errors.New("listener down")
	}, time.Second)

	status := h.CheckAll(context.Background())
	assert.Equal(t, statusUnhealthy, status.Status)
	assert.Equal(t, "listener down", status.Checks["transport"])
	assert.Equal(t, statusHealthy, status.Checks["session"])
}

func TestHealthChecker_FailedWithoutError(t *testing.T) {
	h := NewHealthChecker()
	h.AddCheck("capture", func(ctx context.Context) (bool, error) { return false, nil }, time.Second)

	status := h.CheckAll(context.Background())
	assert.Equal(t, statusUnhealthy, status.Status)
	assert.Equal(t, "check failed", status.Checks["capture"])
}

func TestHealthChecker_NoChecks(t *testing.T) {
	h := NewHealthChecker()
	status := h.CheckAll(context.Background())
	assert.Equal(t, statusHealthy, status.Status)
	assert.Empty(t, status.Checks)
}
