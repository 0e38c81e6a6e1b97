package domain

// TransportEventType enumerates everything the transport can report. The
// session state machine consumes these through a single reducer instead of
// scattered callbacks, so transitions stay unit-testable without a real
// transport.
type TransportEventType string

const (
	EventPeerStateChanged   TransportEventType = "peer_state_changed"
	EventInvitationReceived TransportEventType = "invitation_received"
	EventPeerFound          TransportEventType = "peer_found"
	EventPeerLost           TransportEventType = "peer_lost"
	EventAdvertiseFailed    TransportEventType = "advertise_failed"
	EventBrowseFailed       TransportEventType = "browse_failed"
)

// TransportEvent is the tagged union delivered to the session reducer.
// Peer is set for peer-scoped events, PeerState only for
// EventPeerStateChanged, Err only for the failure events.
type TransportEvent struct {
	Type      TransportEventType
	Peer      PeerID
	PeerState PeerConnectionState
	Err       error
}

// PeerStateChanged builds the event for a per-peer transport state change.
func PeerStateChanged(peer PeerID, state PeerConnectionState) TransportEvent {
	return TransportEvent{Type: EventPeerStateChanged, Peer: peer, PeerState: state}
}

// InvitationReceived builds the event for an incoming invitation on the
// advertiser side.
func InvitationReceived(peer PeerID) TransportEvent {
	return TransportEvent{Type: EventInvitationReceived, Peer: peer}
}

// AdvertiseFailed builds the event for an advertise-side transport failure.
func AdvertiseFailed(err error) TransportEvent {
	return TransportEvent{Type: EventAdvertiseFailed, Err: err}
}

// BrowseFailed builds the event for a browse-side transport failure.
func BrowseFailed(err error) TransportEvent {
	return TransportEvent{Type: EventBrowseFailed, Err: err}
}
