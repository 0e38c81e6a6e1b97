package transport

import (
	"context"
	"sync"
	"time"

	"mirrornet/internal/core/domain"
	"mirrornet/internal/core/ports"
)

// MemoryTransport is an in-process loopback transport. Two linked instances
// behave like a pair of devices on the same network: advertising makes one
// side discoverable to the other, invites connect both sides, sends arrive
// on the peer's handler. Used by tests and the loopback example; no network
// I/O and no real timing.
type MemoryTransport struct {
	id      domain.PeerID
	handler ports.TransportHandler

	mu          sync.Mutex
	peer        *MemoryTransport
	advertising bool
	browsing    bool
	connected   bool
	closed      bool
}

// NewMemoryPair returns two linked loopback transports.
func NewMemoryPair(idA, idB domain.PeerID) (*MemoryTransport, *MemoryTransport) {
	a := &MemoryTransport{id: idA}
	b := &MemoryTransport{id: idB}
	a.peer = b
	b.peer = a
	return a, b
}

// ID returns this endpoint's peer identity.
func (t *MemoryTransport) ID() domain.PeerID { return t.id }

func (t *MemoryTransport) SetHandler(h ports.TransportHandler) {
	t.handler = h
}

func (t *MemoryTransport) Advertise(ctx context.Context, serviceID string) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return domain.ErrTransportClosed
	}
	t.advertising = true
	t.mu.Unlock()

	// The other side discovers us if it is already browsing.
	t.peer.mu.Lock()
	browsing := t.peer.browsing
	t.peer.mu.Unlock()
	if browsing {
		t.peer.emit(domain.TransportEvent{Type: domain.EventPeerFound, Peer: t.id})
	}
	return nil
}

func (t *MemoryTransport) StopAdvertise() {
	t.mu.Lock()
	wasAdvertising := t.advertising
	t.advertising = false
	t.mu.Unlock()

	if wasAdvertising {
		t.peer.mu.Lock()
		browsing := t.peer.browsing
		t.peer.mu.Unlock()
		if browsing {
			t.peer.emit(domain.TransportEvent{Type: domain.EventPeerLost, Peer: t.id})
		}
	}
}

func (t *MemoryTransport) Browse(ctx context.Context, serviceID string) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return domain.ErrTransportClosed
	}
	t.browsing = true
	t.mu.Unlock()

	t.peer.mu.Lock()
	advertising := t.peer.advertising
	t.peer.mu.Unlock()
	if advertising {
		t.emit(domain.TransportEvent{Type: domain.EventPeerFound, Peer: t.peer.id})
	}
	return nil
}

func (t *MemoryTransport) StopBrowse() {
	t.mu.Lock()
	t.browsing = false
	t.mu.Unlock()
}

// Invite connects both sides immediately: the remote receives the
// invitation, then both observe the connected peer state.
func (t *MemoryTransport) Invite(peer domain.PeerID, timeout time.Duration) error {
	if peer != t.peer.id {
		return domain.ErrPeerNotFound
	}
	t.peer.mu.Lock()
	reachable := t.peer.advertising && !t.peer.closed
	t.peer.mu.Unlock()
	if !reachable {
		return domain.ErrPeerNotFound
	}

	t.peer.emit(domain.InvitationReceived(t.id))

	t.setConnected(true)
	t.peer.setConnected(true)

	t.emit(domain.PeerStateChanged(t.peer.id, domain.PeerStateConnected))
	t.peer.emit(domain.PeerStateChanged(t.id, domain.PeerStateConnected))
	return nil
}

func (t *MemoryTransport) Send(data []byte, peers []domain.PeerID, mode domain.Reliability) error {
	t.mu.Lock()
	connected := t.connected && !t.closed
	t.mu.Unlock()
	if !connected {
		return domain.ErrNoConnectedPeers
	}

	for _, p := range peers {
		if p != t.peer.id {
			continue
		}
		// Hand the peer its own copy; the handler owns the slice.
		buf := make([]byte, len(data))
		copy(buf, data)
		if t.peer.handler != nil {
			t.peer.handler.HandleData(buf, t.id)
		}
		return nil
	}
	return domain.ErrPeerNotFound
}

func (t *MemoryTransport) Close() error {
	t.mu.Lock()
	wasConnected := t.connected
	t.closed = true
	t.connected = false
	t.advertising = false
	t.browsing = false
	t.mu.Unlock()

	if wasConnected {
		t.peer.setConnected(false)
		t.peer.emit(domain.PeerStateChanged(t.id, domain.PeerStateNotConnected))
	}
	return nil
}

func (t *MemoryTransport) setConnected(connected bool) {
	t.mu.Lock()
	t.connected = connected
	t.mu.Unlock()
}

func (t *MemoryTransport) emit(evt domain.TransportEvent) {
	if t.handler != nil {
		t.handler.HandleTransportEvent(evt)
	}
}
