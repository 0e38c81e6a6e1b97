package capture

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirrornet/internal/core/domain"
)

func TestPatternSourceDeliversFrames(t *testing.T) {
	src := NewPatternSource(16, 16, 100)

	var count atomic.Int32
	var lastW, lastH atomic.Int32
	err := src.Start(context.Background(), func(frame domain.RawFrame) {
		count.Add(1)
		lastW.Store(int32(frame.Image.Bounds().Dx()))
		lastH.Store(int32(frame.Image.Bounds().Dy()))
		assert.True(t, frame.Orientation.Valid())
		assert.False(t, frame.CapturedAt.IsZero())
	})
	require.NoError(t, err)
	defer src.Stop()

	require.Eventually(t, func() bool { return count.Load() >= 3 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(16), lastW.Load())
	assert.Equal(t, int32(16), lastH.Load())
}

func TestPatternSourceDoubleStartRejected(t *testing.T) {
	src := NewPatternSource(8, 8, 100)

	require.NoError(t, src.Start(context.Background(), func(domain.RawFrame) {}))
	defer src.Stop()

	err := src.Start(context.Background(), func(domain.RawFrame) {})
	assert.Error(t, err)
}

func TestPatternSourceStopHaltsDelivery(t *testing.T) {
	src := NewPatternSource(8, 8, 200)

	var count atomic.Int32
	require.NoError(t, src.Start(context.Background(), func(domain.RawFrame) {
		count.Add(1)
	}))

	require.Eventually(t, func() bool { return count.Load() >= 1 }, 2*time.Second, 5*time.Millisecond)
	src.Stop()

	settled := count.Load()
	time.Sleep(50 * time.Millisecond)
	// Allow at most one in-flight frame after Stop.
	assert.LessOrEqual(t, count.Load(), settled+1)
}
