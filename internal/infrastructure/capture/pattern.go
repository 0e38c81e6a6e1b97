package capture

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"mirrornet/internal/core/domain"
)

// PatternSource generates a moving gradient instead of grabbing a real
// display. It drives the pipeline in tests and in the loopback example
// without any display access.
type PatternSource struct {
	width, height int
	frameRate     float64

	mu     sync.Mutex
	cancel context.CancelFunc
	frame  int
}

func NewPatternSource(width, height int, frameRate float64) *PatternSource {
	if width <= 0 {
		width = 320
	}
	if height <= 0 {
		height = 240
	}
	if frameRate <= 0 {
		frameRate = 30
	}
	return &PatternSource{width: width, height: height, frameRate: frameRate}
}

func (s *PatternSource) Start(ctx context.Context, deliver func(domain.RawFrame)) error {
	loopCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		cancel()
		return fmt.Errorf("capture already running")
	}
	s.cancel = cancel
	s.mu.Unlock()

	go func() {
		interval := time.Duration(float64(time.Second) / s.frameRate)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				deliver(domain.RawFrame{
					Image:       s.nextImage(),
					CapturedAt:  time.Now(),
					Orientation: domain.OrientationUp,
				})
			}
		}
	}()
	return nil
}

func (s *PatternSource) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
}

func (s *PatternSource) nextImage() image.Image {
	s.mu.Lock()
	n := s.frame
	s.frame++
	s.mu.Unlock()

	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x + n) % 256),
				G: uint8((y + n) % 256),
				B: uint8(n % 256),
				A: 255,
			})
		}
	}
	return img
}
