package ports

import (
	"context"
	"time"

	"mirrornet/internal/core/domain"
)

// TransportHandler receives everything the transport reports. Events are
// delivered one at a time; the session service serializes them internally.
type TransportHandler interface {
	// HandleTransportEvent is invoked for peer state changes, incoming
	// invitations, peer discovery and advertise/browse failures.
	HandleTransportEvent(evt domain.TransportEvent)
	// HandleData is invoked once per payload received from a peer. The
	// slice is owned by the handler after the call.
	HandleData(data []byte, from domain.PeerID)
}

// Transport is the underlying peer discovery/session primitive. All calls
// return promptly; connection outcomes are observed through the handler.
type Transport interface {
	// SetHandler must be called before Advertise or Browse.
	SetHandler(h TransportHandler)

	// Advertise makes this endpoint discoverable under serviceID.
	Advertise(ctx context.Context, serviceID string) error
	StopAdvertise()

	// Browse starts discovering peers advertising serviceID, emitting
	// peer-found/peer-lost events.
	Browse(ctx context.Context, serviceID string) error
	StopBrowse()

	// Invite asks the given peer to open a session. The outcome arrives
	// asynchronously as peer state change events.
	Invite(peer domain.PeerID, timeout time.Duration) error

	// Send delivers data to the given peers using the requested
	// reliability mode.
	Send(data []byte, peers []domain.PeerID, mode domain.Reliability) error

	Close() error
}
