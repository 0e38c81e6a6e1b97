package services

import (
	"context"
	"sync"
	"time"

	"mirrornet/internal/core/domain"
	"mirrornet/internal/core/ports"
	"mirrornet/pkg/retry"
	"mirrornet/pkg/tracing"

	"go.uber.org/zap"
)

// SessionConfig tunes the session state machine.
type SessionConfig struct {
	ServiceID     string
	MaxRetries    int
	InviteTimeout time.Duration
	Reinit        retry.Config
}

// SessionService owns the connection lifecycle: discovery, invite, retry and
// teardown. It is the single owner of the connection state and the peer
// roster; every mutation is applied under one mutex, so concurrent transport
// callbacks can never interleave into an inconsistent state.
type SessionService struct {
	cfg       SessionConfig
	transport ports.Transport
	metrics   ports.Metrics
	logger    *zap.SugaredLogger

	mu           sync.Mutex
	state        domain.ConnectionState
	peers        map[domain.PeerID]struct{}
	discovered   map[domain.PeerID]struct{}
	selectedPeer domain.PeerID
	retries      int

	ctx      context.Context
	onData   func(data []byte, from domain.PeerID)
	onChange chan domain.SessionSnapshot
}

// NewSessionService wires the state machine to a transport. The service
// installs itself as the transport handler.
func NewSessionService(cfg SessionConfig, transport ports.Transport, metrics ports.Metrics, logger *zap.SugaredLogger) *SessionService {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InviteTimeout <= 0 {
		cfg.InviteTimeout = 30 * time.Second
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	s := &SessionService{
		cfg:        cfg,
		transport:  transport,
		metrics:    metrics,
		logger:     logger,
		state:      domain.StateDisconnected,
		peers:      make(map[domain.PeerID]struct{}),
		discovered: make(map[domain.PeerID]struct{}),
		ctx:        context.Background(),
	}
	transport.SetHandler(s)
	return s
}

// SetDataHandler installs the receiver for inbound payloads, normally the
// control service. Must be set before Start.
func (s *SessionService) SetDataHandler(h func(data []byte, from domain.PeerID)) {
	s.onData = h
}

// SetChangeListener installs an observer notified with a snapshot after
// every applied transition. Snapshots arrive on a single goroutine in
// transition order; a lagging observer skips intermediate snapshots rather
// than blocking the state machine. Must be set before Start.
func (s *SessionService) SetChangeListener(fn func(domain.SessionSnapshot)) {
	ch := make(chan domain.SessionSnapshot, 16)
	s.onChange = ch
	go func() {
		for snap := range ch {
			fn(snap)
		}
	}()
}

// Start begins advertising and browsing. The context bounds all later
// reinit attempts as well.
func (s *SessionService) Start(ctx context.Context) error {
	s.ctx = ctx
	if err := s.transport.Advertise(ctx, s.cfg.ServiceID); err != nil {
		return err
	}
	if err := s.transport.Browse(ctx, s.cfg.ServiceID); err != nil {
		s.transport.StopAdvertise()
		return err
	}
	s.logger.Infow("session started", "service_id", s.cfg.ServiceID)
	return nil
}

// Invite starts dialing the given peer. Only one dial may be in flight:
// while the session is connecting, further invites are rejected.
func (s *SessionService) Invite(ctx context.Context, peer domain.PeerID) error {
	s.mu.Lock()
	if s.state == domain.StateConnecting {
		s.mu.Unlock()
		return domain.ErrInviteInProgress
	}
	s.selectedPeer = peer
	s.retries = 0
	s.setStateLocked(domain.StateConnecting)
	s.mu.Unlock()

	spanCtx, span := tracing.TraceSessionOperation(ctx, "invite", string(peer))
	defer span.End()

	if err := s.transport.Invite(peer, s.cfg.InviteTimeout); err != nil {
		s.logger.Warnw("invite failed at transport level", "peer_id", peer, "error", err)
		tracing.RecordError(spanCtx, err)
		s.failConnecting()
	}
	return nil
}

// Disconnect clears the selected peer and flips the session to disconnected.
// The flip is synchronous; underlying transport teardown may finish later.
func (s *SessionService) Disconnect() {
	s.mu.Lock()
	s.selectedPeer = ""
	s.retries = 0
	s.peers = make(map[domain.PeerID]struct{})
	s.setStateLocked(domain.StateDisconnected)
	s.mu.Unlock()
	s.logger.Infow("session disconnected by caller")
}

// Snapshot returns a consistent view of the session.
func (s *SessionService) Snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Discovered lists peers currently visible through browsing.
func (s *SessionService) Discovered() []domain.PeerID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.PeerID, 0, len(s.discovered))
	for p := range s.discovered {
		out = append(out, p)
	}
	return out
}

// Send pushes data to all connected peers. Callers treat failures as
// backpressure, not faults; the session never retries a send.
func (s *SessionService) Send(data []byte, mode domain.Reliability) error {
	s.mu.Lock()
	if s.state != domain.StateConnected {
		s.mu.Unlock()
		return domain.ErrNotConnected
	}
	peers := make([]domain.PeerID, 0, len(s.peers))
	for p := range s.peers {
		peers = append(peers, p)
	}
	s.mu.Unlock()

	if len(peers) == 0 {
		return domain.ErrNoConnectedPeers
	}
	return s.transport.Send(data, peers, mode)
}

// HandleData forwards inbound payloads to the installed receiver.
func (s *SessionService) HandleData(data []byte, from domain.PeerID) {
	if s.onData != nil {
		s.onData(data, from)
	}
}

// HandleTransportEvent is the single reducer for everything the transport
// reports. Events are applied one at a time.
func (s *SessionService) HandleTransportEvent(evt domain.TransportEvent) {
	switch evt.Type {
	case domain.EventPeerStateChanged:
		s.applyPeerState(evt.Peer, evt.PeerState)
	case domain.EventInvitationReceived:
		// Advertiser side: accept unconditionally.
		s.mu.Lock()
		s.setStateLocked(domain.StateConnecting)
		s.mu.Unlock()
		s.logger.Infow("invitation accepted", "peer_id", evt.Peer)
	case domain.EventPeerFound:
		s.mu.Lock()
		s.discovered[evt.Peer] = struct{}{}
		s.mu.Unlock()
		s.logger.Debugw("peer found", "peer_id", evt.Peer)
	case domain.EventPeerLost:
		s.mu.Lock()
		delete(s.discovered, evt.Peer)
		s.mu.Unlock()
		s.logger.Debugw("peer lost", "peer_id", evt.Peer)
	case domain.EventAdvertiseFailed, domain.EventBrowseFailed:
		s.logger.Warnw("discovery failure reported", "event", evt.Type, "error", evt.Err)
		s.reinitTransport()
	}
}

func (s *SessionService) applyPeerState(peer domain.PeerID, state domain.PeerConnectionState) {
	switch state {
	case domain.PeerStateConnected:
		s.mu.Lock()
		s.peers[peer] = struct{}{}
		s.retries = 0
		s.setStateLocked(domain.StateConnected)
		s.mu.Unlock()
		s.logger.Infow("peer connected", "peer_id", peer)

	case domain.PeerStateConnecting:
		s.mu.Lock()
		s.setStateLocked(domain.StateConnecting)
		s.mu.Unlock()

	case domain.PeerStateNotConnected:
		s.mu.Lock()
		delete(s.peers, peer)
		retryPeer := domain.PeerID("")
		if s.state == domain.StateConnecting {
			s.retries++
			if s.retries < s.cfg.MaxRetries {
				retryPeer = s.selectedPeer
			}
		}
		s.mu.Unlock()

		if retryPeer != "" {
			s.metrics.RecordInviteRetry()
			s.logger.Infow("re-inviting peer", "peer_id", retryPeer)
			if err := s.transport.Invite(retryPeer, s.cfg.InviteTimeout); err != nil {
				s.logger.Warnw("re-invite failed", "peer_id", retryPeer, "error", err)
				s.failConnecting()
			}
			return
		}
		s.logger.Infow("peer disconnected", "peer_id", peer)
		s.failConnecting()
	}
}

// failConnecting resolves the session after exhausted retries or a transport
// level invite failure, then performs the full teardown-and-reinit of the
// discovery primitives. This is the principal failure-recovery mechanism.
func (s *SessionService) failConnecting() {
	s.mu.Lock()
	if len(s.peers) > 0 {
		s.setStateLocked(domain.StateConnected)
	} else {
		s.setStateLocked(domain.StateDisconnected)
	}
	s.selectedPeer = ""
	s.retries = 0
	s.mu.Unlock()

	s.reinitTransport()
}

// reinitTransport stops and restarts advertising and browsing to recover
// from any stuck internal transport state.
func (s *SessionService) reinitTransport() {
	s.metrics.RecordTransportReinit()

	_, span := tracing.TraceTransportOperation(s.ctx, "reinit")
	defer span.End()

	s.transport.StopAdvertise()
	s.transport.StopBrowse()

	err := retry.Retry(s.ctx, s.cfg.Reinit, func() error {
		return s.transport.Advertise(s.ctx, s.cfg.ServiceID)
	})
	if err == nil {
		err = retry.Retry(s.ctx, s.cfg.Reinit, func() error {
			return s.transport.Browse(s.ctx, s.cfg.ServiceID)
		})
	}
	if err != nil {
		s.logger.Errorw("transport reinit failed", "error", err)
		s.mu.Lock()
		s.setStateLocked(domain.StateFailed)
		s.mu.Unlock()
		return
	}
	s.logger.Infow("transport reinitialized")
}

func (s *SessionService) snapshotLocked() domain.SessionSnapshot {
	peers := make([]domain.PeerID, 0, len(s.peers))
	for p := range s.peers {
		peers = append(peers, p)
	}
	return domain.SessionSnapshot{
		State:        s.state,
		Peers:        peers,
		SelectedPeer: s.selectedPeer,
		Retries:      s.retries,
	}
}

// setStateLocked records a state transition. Callers hold s.mu.
func (s *SessionService) setStateLocked(state domain.ConnectionState) {
	if s.state != state {
		s.logger.Infow("connection state changed", "from", s.state, "to", state)
		s.state = state
		s.metrics.RecordStateChange(state)
	}
	s.metrics.RecordPeerCount(len(s.peers))
	if s.onChange != nil {
		select {
		case s.onChange <- s.snapshotLocked():
		default:
			// Observer is lagging; it sees the next snapshot instead.
		}
	}
}
