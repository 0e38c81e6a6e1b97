package services

import (
	"context"
	"sync"
	"time"

	"mirrornet/internal/core/domain"
	"mirrornet/internal/core/ports"
	"mirrornet/internal/core/wire"

	"go.uber.org/zap"
)

const (
	directionInbound  = "inbound"
	directionOutbound = "outbound"
)

// ControlService interprets and produces non-image traffic. Local toggles
// become reliable control messages; inbound payloads are classified and
// applied to mirrored state. Control messages always use reliable delivery:
// unlike frames they must not be silently dropped.
type ControlService struct {
	session ports.SessionSender
	frames  *FrameService
	quality *QualityService
	sink    ports.MediaSink
	metrics ports.Metrics
	logger  *zap.SugaredLogger

	device           domain.DeviceInfo
	announceInterval time.Duration

	mu            sync.Mutex
	remoteEnabled bool
	remoteTier    domain.QualityTier
	lastFrame     domain.FrameEnvelope
	hasFrame      bool
	devices       map[domain.PeerID]domain.DeviceInfo
}

// NewControlService builds the control channel. sink may be nil when the
// receive side is not displaying frames.
func NewControlService(
	session ports.SessionSender,
	frames *FrameService,
	quality *QualityService,
	sink ports.MediaSink,
	device domain.DeviceInfo,
	announceInterval time.Duration,
	metrics ports.Metrics,
	logger *zap.SugaredLogger,
) *ControlService {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if announceInterval <= 0 {
		announceInterval = 10 * time.Second
	}
	return &ControlService{
		session:          session,
		frames:           frames,
		quality:          quality,
		sink:             sink,
		metrics:          metrics,
		logger:           logger,
		device:           device,
		announceInterval: announceInterval,
		remoteEnabled:    true,
		remoteTier:       frames.Tier(),
		devices:          make(map[domain.PeerID]domain.DeviceInfo),
	}
}

// Start runs the periodic device-info re-announcement until ctx is done.
func (s *ControlService) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.announceInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.announce()
			}
		}
	}()
}

// SetStreamEnabled toggles local streaming and notifies connected peers.
func (s *ControlService) SetStreamEnabled(ctx context.Context, enabled bool) error {
	s.sendControl(wire.StreamState(enabled))
	s.frames.SetStreamEnabled(enabled)
	s.logger.Infow("stream state changed", "enabled", enabled)
	return nil
}

// SetQualityTier notifies all connected peers of the tier change, then
// applies it locally. The notification goes out first so the receiver's
// declared tier stays consistent with the payloads that follow; applying
// locally resets the throttle timer.
func (s *ControlService) SetQualityTier(ctx context.Context, tier domain.QualityTier) error {
	if !s.quality.Has(tier) {
		return domain.ErrUnknownTier
	}
	s.sendControl(wire.QualityChange(tier))
	if err := s.frames.SetTier(tier); err != nil {
		return err
	}
	s.logger.Infow("quality tier changed", "tier", tier)
	return nil
}

// RemoteStreamEnabled reports the mirrored remote stream toggle.
func (s *ControlService) RemoteStreamEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remoteEnabled
}

// RemoteTier reports the tier the remote sender declared last.
func (s *ControlService) RemoteTier() domain.QualityTier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remoteTier
}

// LastFrame returns the most recently received frame, if any.
func (s *ControlService) LastFrame() (domain.FrameEnvelope, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFrame, s.hasFrame
}

// Device returns the announced device info for a peer, if seen.
func (s *ControlService) Device(peer domain.PeerID) (domain.DeviceInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.devices[peer]
	return info, ok
}

// HandleData classifies one inbound payload and applies it. Malformed or
// unrecognized input is discarded without error propagation; a peer can
// never crash or desynchronize the session from here.
func (s *ControlService) HandleData(data []byte, from domain.PeerID) {
	msg := wire.Classify(data)
	switch msg.Kind {
	case wire.KindControl:
		s.applyControl(msg.Control, from)
	case wire.KindFrame:
		s.applyFrame(msg.Frame, from)
	default:
		s.metrics.RecordMessageDiscarded()
		s.logger.Debugw("discarded unrecognized payload", "from", from, "bytes", len(data))
	}
}

func (s *ControlService) applyControl(msg wire.ControlMessage, from domain.PeerID) {
	s.metrics.RecordControlMessage(directionInbound, msg.Type)

	switch msg.Type {
	case wire.TypeStreamState:
		enabled := msg.StreamEnabled()
		s.mu.Lock()
		s.remoteEnabled = enabled
		if !enabled {
			// Remote stopped streaming; drop the buffered frame so stale
			// imagery is never displayed.
			s.lastFrame = domain.FrameEnvelope{}
			s.hasFrame = false
		}
		s.mu.Unlock()
		s.logger.Infow("remote stream state changed", "from", from, "enabled", enabled)

	case wire.TypeQualityChange:
		tier := msg.Tier()
		if !s.quality.Has(tier) {
			s.logger.Debugw("ignoring unknown remote tier", "from", from, "tier", tier)
			return
		}
		s.mu.Lock()
		s.remoteTier = tier
		s.mu.Unlock()
		s.logger.Infow("remote quality tier changed", "from", from, "tier", tier)

	case wire.TypeDeviceInfo:
		s.mu.Lock()
		s.devices[from] = msg.DeviceInfo()
		s.mu.Unlock()
	}
}

func (s *ControlService) applyFrame(env domain.FrameEnvelope, from domain.PeerID) {
	s.mu.Lock()
	s.lastFrame = env
	s.hasFrame = true
	s.mu.Unlock()

	if s.sink != nil {
		s.sink.Deliver(env, func(err error) {
			if err != nil {
				s.logger.Warnw("media sink delivery failed", "from", from, "error", err)
			}
		})
	}
}

// HandleSessionChange reacts to session transitions. On connect the device
// info goes out immediately so a fresh peer never waits out the announce
// interval to learn who it is talking to.
func (s *ControlService) HandleSessionChange(snap domain.SessionSnapshot) {
	if snap.State == domain.StateConnected {
		s.sendControl(wire.DeviceAnnounce(s.device))
	}
}

func (s *ControlService) announce() {
	snap := s.session.Snapshot()
	if snap.State != domain.StateConnected {
		return
	}
	s.sendControl(wire.DeviceAnnounce(s.device))
}

// sendControl serializes and sends one control message reliably. Send
// failures are logged, never raised: a disconnected session just means
// nobody is listening.
func (s *ControlService) sendControl(msg wire.ControlMessage) {
	data, err := wire.EncodeControl(msg)
	if err != nil {
		s.logger.Errorw("control message encode failed", "type", msg.Type, "error", err)
		return
	}
	s.metrics.RecordControlMessage(directionOutbound, msg.Type)
	if err := s.session.Send(data, domain.Reliable); err != nil {
		s.logger.Debugw("control message not delivered", "type", msg.Type, "error", err)
	}
}
