package transport

import (
	"context"
	"fmt"
	"net"
	"sync"

	"mirrornet/internal/core/domain"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"
)

// DiscoveryConfig holds mDNS discovery parameters.
type DiscoveryConfig struct {
	// InstanceName is the DNS-SD instance name, also used as this
	// endpoint's peer identity on the network.
	InstanceName string
	// Domain is the mDNS domain, normally "local."
	Domain string
	// Port is the signaling port published in the service record.
	Port int
}

// mdnsEntry is one resolved peer with its signaling endpoint.
type mdnsEntry struct {
	addr string
}

// Discovery publishes and browses DNS-SD service records over mDNS. Found
// and lost peers are reported through the callback installed at Browse time;
// resolved signaling addresses are kept for later lookup by Invite.
type Discovery struct {
	cfg    DiscoveryConfig
	logger *zap.SugaredLogger

	mu           sync.Mutex
	server       *zeroconf.Server
	browseCancel context.CancelFunc
	resolved     map[domain.PeerID]mdnsEntry
}

func NewDiscovery(cfg DiscoveryConfig, logger *zap.SugaredLogger) *Discovery {
	if cfg.Domain == "" {
		cfg.Domain = "local."
	}
	return &Discovery{
		cfg:      cfg,
		logger:   logger,
		resolved: make(map[domain.PeerID]mdnsEntry),
	}
}

// Advertise registers the service record. Registration stays active until
// StopAdvertise or Close.
func (d *Discovery) Advertise(ctx context.Context, serviceID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.server != nil {
		return nil
	}

	txt := []string{"id=" + d.cfg.InstanceName}
	server, err := zeroconf.Register(d.cfg.InstanceName, serviceID, d.cfg.Domain, d.cfg.Port, txt, nil)
	if err != nil {
		return fmt.Errorf("mdns register failed: %w", err)
	}
	d.server = server
	d.logger.Infow("advertising service", "instance", d.cfg.InstanceName, "service", serviceID, "port", d.cfg.Port)
	return nil
}

// StopAdvertise withdraws the service record.
func (d *Discovery) StopAdvertise() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.server != nil {
		d.server.Shutdown()
		d.server = nil
	}
}

// Browse starts a continuous browse for serviceID. onEntry is invoked for
// every found or lost peer until StopBrowse or ctx cancellation.
func (d *Discovery) Browse(ctx context.Context, serviceID string, onEntry func(peer domain.PeerID, lost bool)) error {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("mdns resolver failed: %w", err)
	}

	browseCtx, cancel := context.WithCancel(ctx)

	d.mu.Lock()
	if d.browseCancel != nil {
		d.browseCancel()
	}
	d.browseCancel = cancel
	d.mu.Unlock()

	entries := make(chan *zeroconf.ServiceEntry, 16)
	go func() {
		for entry := range entries {
			d.handleEntry(entry, onEntry)
		}
	}()

	if err := resolver.Browse(browseCtx, serviceID, d.cfg.Domain, entries); err != nil {
		cancel()
		return fmt.Errorf("mdns browse failed: %w", err)
	}
	d.logger.Infow("browsing for peers", "service", serviceID)
	return nil
}

// StopBrowse stops a running browse.
func (d *Discovery) StopBrowse() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.browseCancel != nil {
		d.browseCancel()
		d.browseCancel = nil
	}
}

// Lookup returns the signaling address resolved for a peer.
func (d *Discovery) Lookup(peer domain.PeerID) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	entry, ok := d.resolved[peer]
	return entry.addr, ok
}

func (d *Discovery) handleEntry(entry *zeroconf.ServiceEntry, onEntry func(peer domain.PeerID, lost bool)) {
	peer := domain.PeerID(entry.Instance)
	if peer == "" || peer == domain.PeerID(d.cfg.InstanceName) {
		return
	}

	// A TTL of zero is the mDNS goodbye packet.
	if entry.TTL == 0 {
		d.mu.Lock()
		delete(d.resolved, peer)
		d.mu.Unlock()
		onEntry(peer, true)
		return
	}

	ip := preferredIP(entry)
	if ip == nil {
		d.logger.Debugw("discovered peer without addresses", "peer_id", peer)
		return
	}

	addr := net.JoinHostPort(ip.String(), fmt.Sprint(entry.Port))
	d.mu.Lock()
	d.resolved[peer] = mdnsEntry{addr: addr}
	d.mu.Unlock()
	onEntry(peer, false)
}

func preferredIP(entry *zeroconf.ServiceEntry) net.IP {
	if len(entry.AddrIPv4) > 0 {
		return entry.AddrIPv4[0]
	}
	if len(entry.AddrIPv6) > 0 {
		return entry.AddrIPv6[0]
	}
	return nil
}
