package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mirrornet/internal/core/domain"
	"mirrornet/internal/core/ports"

	"github.com/pion/webrtc/v3"
	"go.uber.org/zap"
)

const (
	channelControl = "control"
	channelFrames  = "frames"
)

// Config holds everything the WebRTC transport needs.
type Config struct {
	InstanceName string
	Domain       string
	Port         int
	Signaling    SignalingConfig
	// ICEServers is empty for LAN-only operation.
	ICEServers []string
}

// WebRTCTransport implements ports.Transport over mDNS discovery, a
// websocket offer/answer exchange and pion data channels. Each peer gets
// two channels: an ordered reliable one and an unordered lossy one; Send
// picks by the requested reliability mode.
type WebRTCTransport struct {
	cfg     Config
	logger  *zap.SugaredLogger
	handler ports.TransportHandler

	discovery *Discovery
	signaling *SignalingServer

	mu     sync.Mutex
	links  map[domain.PeerID]*peerLink
	closed bool
}

// peerLink is one established peer session.
type peerLink struct {
	pc *webrtc.PeerConnection

	mu      sync.Mutex
	control *webrtc.DataChannel
	frames  *webrtc.DataChannel
}

func (l *peerLink) channel(mode domain.Reliability) *webrtc.DataChannel {
	l.mu.Lock()
	defer l.mu.Unlock()
	if mode == domain.Reliable {
		return l.control
	}
	return l.frames
}

func NewWebRTCTransport(cfg Config, logger *zap.SugaredLogger) *WebRTCTransport {
	t := &WebRTCTransport{
		cfg:    cfg,
		logger: logger,
		links:  make(map[domain.PeerID]*peerLink),
	}
	t.discovery = NewDiscovery(DiscoveryConfig{
		InstanceName: cfg.InstanceName,
		Domain:       cfg.Domain,
		Port:         cfg.Port,
	}, logger)
	t.signaling = NewSignalingServer(cfg.Signaling, t.answerOffer, logger)
	return t
}

// SetHandler installs the event and data receiver.
func (t *WebRTCTransport) SetHandler(h ports.TransportHandler) {
	t.handler = h
}

// Advertise starts the signaling listener and publishes the mDNS record.
func (t *WebRTCTransport) Advertise(ctx context.Context, serviceID string) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return domain.ErrTransportClosed
	}
	t.mu.Unlock()

	if err := t.signaling.Start(); err != nil {
		return err
	}
	return t.discovery.Advertise(ctx, serviceID)
}

func (t *WebRTCTransport) StopAdvertise() {
	t.discovery.StopAdvertise()
}

// Browse starts mDNS browsing; found and lost peers surface as events.
func (t *WebRTCTransport) Browse(ctx context.Context, serviceID string) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return domain.ErrTransportClosed
	}
	t.mu.Unlock()

	return t.discovery.Browse(ctx, serviceID, func(peer domain.PeerID, lost bool) {
		evtType := domain.EventPeerFound
		if lost {
			evtType = domain.EventPeerLost
		}
		t.emit(domain.TransportEvent{Type: evtType, Peer: peer})
	})
}

func (t *WebRTCTransport) StopBrowse() {
	t.discovery.StopBrowse()
}

// Invite dials the peer: builds the connection, exchanges a non-trickle
// offer/answer over the peer's signaling endpoint and waits for the data
// channels asynchronously. The outcome arrives as peer state events.
func (t *WebRTCTransport) Invite(peer domain.PeerID, timeout time.Duration) error {
	addr, ok := t.discovery.Lookup(peer)
	if !ok {
		return domain.ErrPeerNotFound
	}

	pc, err := t.newPeerConnection(peer)
	if err != nil {
		return err
	}

	link := &peerLink{pc: pc}
	if err := t.createChannels(peer, link); err != nil {
		pc.Close()
		return err
	}
	t.storeLink(peer, link)

	t.emit(domain.PeerStateChanged(peer, domain.PeerStateConnecting))

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		t.dropLink(peer)
		return fmt.Errorf("create offer failed: %w", err)
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		t.dropLink(peer)
		return fmt.Errorf("set local description failed: %w", err)
	}

	// Wait for ICE gathering so the offer carries all candidates.
	select {
	case <-webrtc.GatheringCompletePromise(pc):
	case <-time.After(timeout):
		t.dropLink(peer)
		return fmt.Errorf("ice gathering timed out after %s", timeout)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	answerSDP, err := exchangeOffer(ctx, addr, t.cfg.InstanceName, pc.LocalDescription().SDP, timeout)
	if err != nil {
		t.dropLink(peer)
		return err
	}

	answer := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: answerSDP}
	if err := pc.SetRemoteDescription(answer); err != nil {
		t.dropLink(peer)
		return fmt.Errorf("set remote description failed: %w", err)
	}
	return nil
}

// Send delivers data to the given peers over the channel matching the
// requested reliability. Peers without an open channel are skipped; send
// fails only when nobody received the payload.
func (t *WebRTCTransport) Send(data []byte, peers []domain.PeerID, mode domain.Reliability) error {
	delivered := 0
	var lastErr error
	for _, peer := range peers {
		t.mu.Lock()
		link, ok := t.links[peer]
		t.mu.Unlock()
		if !ok {
			continue
		}
		dc := link.channel(mode)
		if dc == nil || dc.ReadyState() != webrtc.DataChannelStateOpen {
			continue
		}
		if err := dc.Send(data); err != nil {
			lastErr = err
			continue
		}
		delivered++
	}
	if delivered == 0 {
		if lastErr != nil {
			return lastErr
		}
		return domain.ErrNoConnectedPeers
	}
	return nil
}

// Closed reports whether the transport has been shut down.
func (t *WebRTCTransport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Close tears down all sessions, the signaling listener and discovery.
func (t *WebRTCTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	links := t.links
	t.links = make(map[domain.PeerID]*peerLink)
	t.mu.Unlock()

	for _, link := range links {
		link.pc.Close()
	}
	t.discovery.StopBrowse()
	t.discovery.StopAdvertise()
	return t.signaling.Close()
}

// answerOffer is invoked by the signaling listener when a peer invites us.
func (t *WebRTCTransport) answerOffer(peerID, offerSDP string) (string, error) {
	peer := domain.PeerID(peerID)
	t.emit(domain.InvitationReceived(peer))

	pc, err := t.newPeerConnection(peer)
	if err != nil {
		return "", err
	}

	link := &peerLink{pc: pc}
	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		link.mu.Lock()
		switch dc.Label() {
		case channelControl:
			link.control = dc
		case channelFrames:
			link.frames = dc
		}
		link.mu.Unlock()
		t.setupChannel(peer, dc)
	})
	t.storeLink(peer, link)

	t.emit(domain.PeerStateChanged(peer, domain.PeerStateConnecting))

	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: offerSDP}
	if err := pc.SetRemoteDescription(offer); err != nil {
		t.dropLink(peer)
		return "", fmt.Errorf("set remote description failed: %w", err)
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		t.dropLink(peer)
		return "", fmt.Errorf("create answer failed: %w", err)
	}
	if err := pc.SetLocalDescription(answer); err != nil {
		t.dropLink(peer)
		return "", fmt.Errorf("set local description failed: %w", err)
	}

	select {
	case <-webrtc.GatheringCompletePromise(pc):
	case <-time.After(t.cfg.Signaling.HandshakeTimeout):
		t.dropLink(peer)
		return "", fmt.Errorf("ice gathering timed out")
	}

	return pc.LocalDescription().SDP, nil
}

func (t *WebRTCTransport) newPeerConnection(peer domain.PeerID) (*webrtc.PeerConnection, error) {
	config := webrtc.Configuration{}
	if len(t.cfg.ICEServers) > 0 {
		config.ICEServers = []webrtc.ICEServer{{URLs: t.cfg.ICEServers}}
	}

	pc, err := webrtc.NewPeerConnection(config)
	if err != nil {
		return nil, fmt.Errorf("create peer connection failed: %w", err)
	}

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		t.logger.Debugw("peer connection state", "peer_id", peer, "state", state.String())
		switch state {
		case webrtc.PeerConnectionStateConnected:
			t.emit(domain.PeerStateChanged(peer, domain.PeerStateConnected))
		case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateDisconnected, webrtc.PeerConnectionStateClosed:
			// Only report the drop if this connection is still the active
			// link; a replaced link closing must not tear down its successor.
			if t.removeLinkFor(peer, pc) {
				t.emit(domain.PeerStateChanged(peer, domain.PeerStateNotConnected))
			}
		}
	})
	return pc, nil
}

// createChannels opens the dialer-side channels: one ordered reliable, one
// unordered with retransmits disabled.
func (t *WebRTCTransport) createChannels(peer domain.PeerID, link *peerLink) error {
	ordered := true
	control, err := link.pc.CreateDataChannel(channelControl, &webrtc.DataChannelInit{
		Ordered: &ordered,
	})
	if err != nil {
		return fmt.Errorf("create control channel failed: %w", err)
	}

	unordered := false
	var noRetransmits uint16
	frames, err := link.pc.CreateDataChannel(channelFrames, &webrtc.DataChannelInit{
		Ordered:        &unordered,
		MaxRetransmits: &noRetransmits,
	})
	if err != nil {
		return fmt.Errorf("create frames channel failed: %w", err)
	}

	link.mu.Lock()
	link.control = control
	link.frames = frames
	link.mu.Unlock()

	t.setupChannel(peer, control)
	t.setupChannel(peer, frames)
	return nil
}

func (t *WebRTCTransport) setupChannel(peer domain.PeerID, dc *webrtc.DataChannel) {
	dc.OnOpen(func() {
		t.logger.Debugw("data channel open", "peer_id", peer, "label", dc.Label())
	})
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		if t.handler != nil {
			t.handler.HandleData(msg.Data, peer)
		}
	})
}

func (t *WebRTCTransport) storeLink(peer domain.PeerID, link *peerLink) {
	t.mu.Lock()
	if old, ok := t.links[peer]; ok && old != link {
		old.pc.Close()
	}
	t.links[peer] = link
	t.mu.Unlock()
}

func (t *WebRTCTransport) dropLink(peer domain.PeerID) {
	t.mu.Lock()
	link, ok := t.links[peer]
	delete(t.links, peer)
	t.mu.Unlock()
	if ok {
		link.pc.Close()
	}
}

// removeLinkFor removes the link only when pc is still the active connection
// for the peer. Reports whether a removal happened.
func (t *WebRTCTransport) removeLinkFor(peer domain.PeerID, pc *webrtc.PeerConnection) bool {
	t.mu.Lock()
	link, ok := t.links[peer]
	if !ok || link.pc != pc {
		t.mu.Unlock()
		return false
	}
	delete(t.links, peer)
	t.mu.Unlock()
	link.pc.Close()
	return true
}

func (t *WebRTCTransport) emit(evt domain.TransportEvent) {
	if t.handler != nil {
		t.handler.HandleTransportEvent(evt)
	}
}
