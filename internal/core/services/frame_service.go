package services

import (
	"sync"
	"time"

	"mirrornet/internal/core/domain"
	"mirrornet/internal/core/ports"
	"mirrornet/internal/core/wire"
	"mirrornet/pkg/utils"

	"go.uber.org/zap"
)

// Frame drop reasons, used as metric labels.
const (
	DropDisabled     = "stream_disabled"
	DropNotConnected = "not_connected"
	DropNoPeers      = "no_peers"
	DropThrottled    = "throttled"
	DropEncodeFailed = "encode_failed"
	DropOversized    = "oversized"
	DropSendFailed   = "send_failed"
)

// FrameService is the throttle and encoder in front of the send path. It is
// the single point enforcing the contract "never exceed the tier's declared
// frame rate or payload budget". It owns the streaming-enabled flag, the
// active tier and lastSent under one mutex, so a tier switch is atomic: no
// frame ever goes out under a mixed old/new policy.
//
// A dropped frame is a normal backpressure outcome, never an error; Offer
// has no error return.
type FrameService struct {
	session ports.SessionSender
	quality *QualityService
	encoder ports.FrameEncoder
	metrics ports.Metrics
	logger  *zap.SugaredLogger
	now     func() time.Time

	mu       sync.Mutex
	enabled  bool
	tier     domain.QualityTier
	lastSent time.Time
}

// NewFrameService builds the throttle with the given initial tier. The tier
// must exist in the quality table.
func NewFrameService(
	session ports.SessionSender,
	quality *QualityService,
	encoder ports.FrameEncoder,
	tier domain.QualityTier,
	metrics ports.Metrics,
	logger *zap.SugaredLogger,
) *FrameService {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &FrameService{
		session: session,
		quality: quality,
		encoder: encoder,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
		enabled: true,
		tier:    tier,
	}
}

// SetStreamEnabled toggles local streaming.
func (s *FrameService) SetStreamEnabled(enabled bool) {
	s.mu.Lock()
	s.enabled = enabled
	s.mu.Unlock()
}

// StreamEnabled reports whether local streaming is on.
func (s *FrameService) StreamEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// SetTier switches the active tier and resets the throttle timer so the new
// tier's frame rate applies immediately instead of waiting out the old
// interval.
func (s *FrameService) SetTier(tier domain.QualityTier) error {
	if !s.quality.Has(tier) {
		return domain.ErrUnknownTier
	}
	s.mu.Lock()
	if s.tier != tier {
		s.tier = tier
		s.lastSent = time.Time{}
	}
	s.mu.Unlock()
	return nil
}

// Tier returns the active tier.
func (s *FrameService) Tier() domain.QualityTier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tier
}

// Offer consumes one raw capture frame: either nothing happens (the frame is
// intentionally dropped) or an envelope is handed to the session send path.
// Encoding and the drop decision are synchronous and bounded; the actual
// send is fire-and-forget.
func (s *FrameService) Offer(frame domain.RawFrame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled {
		s.drop(DropDisabled)
		return
	}

	snap := s.session.Snapshot()
	if snap.State != domain.StateConnected {
		s.drop(DropNotConnected)
		return
	}
	if len(snap.Peers) == 0 {
		s.drop(DropNoPeers)
		return
	}

	params, err := s.quality.Params(s.tier)
	if err != nil {
		s.logger.Errorw("active tier missing from quality table", "tier", s.tier)
		s.drop(DropEncodeFailed)
		return
	}

	minInterval := time.Duration(float64(time.Second) / params.FrameRate)
	now := s.now()
	if !s.lastSent.IsZero() && now.Sub(s.lastSent) < minInterval {
		s.drop(DropThrottled)
		return
	}

	image, err := s.encoder.Encode(frame.Image, params.Encoding)
	if err != nil {
		s.logger.Warnw("frame encode failed", "tier", s.tier, "error", err)
		s.drop(DropEncodeFailed)
		return
	}

	bounds := frame.Image.Bounds()
	meta := domain.FrameMetadata{
		Orientation:      frame.Orientation,
		TimestampSeconds: utils.TimestampSeconds(frame.CapturedAt),
		Width:            float64(bounds.Dx()),
		Height:           float64(bounds.Dy()),
		QualityTierID:    string(s.tier),
	}

	payload, err := wire.EncodeFrame(meta, image)
	if err != nil {
		s.logger.Warnw("frame envelope encode failed", "error", err)
		s.drop(DropEncodeFailed)
		return
	}

	if len(payload) > params.MaxPayloadBytes {
		s.logger.Debugw("frame exceeds tier payload budget",
			"tier", s.tier,
			"payload_bytes", len(payload),
			"max_payload_bytes", params.MaxPayloadBytes,
		)
		s.drop(DropOversized)
		return
	}

	if err := s.session.Send(payload, params.Reliability); err != nil {
		s.logger.Debugw("frame send rejected", "error", err)
		s.drop(DropSendFailed)
		return
	}

	s.lastSent = now
	s.metrics.RecordFrameSent(s.tier, len(payload))
}

func (s *FrameService) drop(reason string) {
	s.metrics.RecordFrameDropped(reason)
}
