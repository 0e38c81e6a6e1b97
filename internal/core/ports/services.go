package ports

import (
	"context"

	"mirrornet/internal/core/domain"
)

// SessionService owns the connection lifecycle and the peer roster.
type SessionService interface {
	// Invite starts dialing the given peer. Returns
	// domain.ErrInviteInProgress while a previous invite is still
	// connecting.
	Invite(ctx context.Context, peer domain.PeerID) error
	// Disconnect clears the selected peer and flips the session to
	// disconnected synchronously.
	Disconnect()
	// Snapshot returns a consistent view of state and roster.
	Snapshot() domain.SessionSnapshot
	// Send pushes data to all connected peers through the transport.
	Send(data []byte, mode domain.Reliability) error
	// Discovered lists peers currently visible through browsing.
	Discovered() []domain.PeerID
}

// SessionSender is the narrow send path handed to the frame and control
// services; they may read state and submit sends, never mutate the roster.
type SessionSender interface {
	Snapshot() domain.SessionSnapshot
	Send(data []byte, mode domain.Reliability) error
}

// ControlService translates local state changes into control messages and
// applies the remote side's messages to mirrored state.
type ControlService interface {
	SetStreamEnabled(ctx context.Context, enabled bool) error
	SetQualityTier(ctx context.Context, tier domain.QualityTier) error
	RemoteStreamEnabled() bool
	RemoteTier() domain.QualityTier
	// LastFrame returns the most recently received frame, if any.
	LastFrame() (domain.FrameEnvelope, bool)
	// Device returns the announced device info for a peer, if seen.
	Device(peer domain.PeerID) (domain.DeviceInfo, bool)
}

// FrameSink consumes raw capture frames; the throttle decides per frame
// whether anything goes out.
type FrameSink interface {
	Offer(frame domain.RawFrame)
}
