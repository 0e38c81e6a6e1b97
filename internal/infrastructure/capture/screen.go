package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mirrornet/internal/core/domain"

	"github.com/kbinani/screenshot"
	"go.uber.org/zap"
)

// ScreenSource captures the local display at a fixed rate. The rate is the
// capture ceiling; the frame throttle downstream decides what actually goes
// out per tier.
type ScreenSource struct {
	display   int
	frameRate float64
	logger    *zap.SugaredLogger

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewScreenSource(display int, frameRate float64, logger *zap.SugaredLogger) *ScreenSource {
	if frameRate <= 0 {
		frameRate = 60
	}
	return &ScreenSource{
		display:   display,
		frameRate: frameRate,
		logger:    logger,
	}
}

// Start begins the capture loop, invoking deliver once per captured frame.
func (s *ScreenSource) Start(ctx context.Context, deliver func(domain.RawFrame)) error {
	if n := screenshot.NumActiveDisplays(); s.display < 0 || s.display >= n {
		return fmt.Errorf("display %d out of range, have %d displays", s.display, n)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		cancel()
		return fmt.Errorf("capture already running")
	}
	s.cancel = cancel
	s.mu.Unlock()

	go s.loop(loopCtx, deliver)
	s.logger.Infow("screen capture started", "display", s.display, "frame_rate", s.frameRate)
	return nil
}

// Stop ends the capture loop.
func (s *ScreenSource) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
}

func (s *ScreenSource) loop(ctx context.Context, deliver func(domain.RawFrame)) {
	interval := time.Duration(float64(time.Second) / s.frameRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Infow("screen capture stopped")
			return
		case <-ticker.C:
			bounds := screenshot.GetDisplayBounds(s.display)
			img, err := screenshot.CaptureRect(bounds)
			if err != nil {
				s.logger.Warnw("screen capture failed", "error", err)
				continue
			}
			deliver(domain.RawFrame{
				Image:       img,
				CapturedAt:  time.Now(),
				Orientation: domain.OrientationUp,
			})
		}
	}
}
