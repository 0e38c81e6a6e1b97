package domain

import "errors"

var (
	ErrInviteInProgress = errors.New("invite already in progress")
	ErrPeerNotFound     = errors.New("peer not found")
	ErrNotConnected     = errors.New("session not connected")
	ErrNoConnectedPeers = errors.New("no connected peers")
	ErrUnknownTier      = errors.New("unknown quality tier")
	ErrTransportClosed  = errors.New("transport closed")
)
