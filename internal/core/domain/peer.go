package domain

// PeerID identifies a discoverable/connectable endpoint. It is opaque to the
// core; the transport decides what the string actually contains.
type PeerID string

// ConnectionState is the session-level connection state. Exactly one value is
// current per session and only the session service may change it.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateFailed       ConnectionState = "failed"
)

// PeerConnectionState is the per-peer state reported by the transport.
type PeerConnectionState string

const (
	PeerStateNotConnected PeerConnectionState = "not_connected"
	PeerStateConnecting   PeerConnectionState = "connecting"
	PeerStateConnected    PeerConnectionState = "connected"
)

// SessionSnapshot is a consistent read-only view of the session. The peer
// slice is a copy; callers may keep it without racing the state machine.
type SessionSnapshot struct {
	State        ConnectionState
	Peers        []PeerID
	SelectedPeer PeerID
	Retries      int
}

// HasPeer reports whether the snapshot contains the given peer.
func (s SessionSnapshot) HasPeer(id PeerID) bool {
	for _, p := range s.Peers {
		if p == id {
			return true
		}
	}
	return false
}
