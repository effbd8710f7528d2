package node

import (
	"context"
	"net/netip"
	"rossip/swarm/protocol"
	"rossip/telemetry"

	log "github.com/sirupsen/logrus"
)

// Announce broadcasts our Discovery to every destination.
// This is run via the RunWithTicker() helper and never fails.
func (n *Node) Announce(ctx context.Context) error {
	n.Broadcast(protocol.NewDiscovery(n.cfg.Name, n.self))
	return nil
}

// seedFromCache greets the peers we knew at last shutdown directly, which
// reaches them even when broadcasts are filtered.
func (n *Node) seedFromCache() {
	if n.cache == nil {
		return
	}

	cached, err := n.cache.Enumerate()
	if err != nil {
		log.Warnf("Failed to read peer cache: %v", err)
		return
	}

	msg := protocol.NewDiscovery(n.cfg.Name, n.self)
	for _, md := range cached {
		addr, err := netip.ParseAddrPort(md.Address)
		if err != nil || addr == n.cfg.Self {
			continue
		}
		n.send(msg, addr)
	}

	log.Debugf("Seeded discovery to %d cached peers", len(cached))
}

func (n *Node) HandleDiscovery(msg *protocol.Discovery) {
	addr, err := netip.ParseAddrPort(msg.SenderAddr)
	if err != nil {
		log.Debugf("Discovery from %q with bad address %q: %v", msg.SenderName, msg.SenderAddr, err)
		return
	}
	if addr == n.cfg.Self {
		return
	}

	n.Registry.AddOrUpdatePeer(addr, msg.SenderName)
	telemetry.PeersKnown.Set(float64(n.Registry.Len()))

	if !n.shouldReply(addr) {
		log.Debugf("Discovery from %s (%s): replied recently", msg.SenderName, addr)
		return
	}

	n.send(protocol.NewDiscovery(n.cfg.Name, n.self), addr)

	peers := n.Registry.Peers()
	if len(peers) == 0 {
		return
	}

	addrs := make([]string, 0, len(peers))
	for _, p := range peers {
		addrs = append(addrs, p.Addr.String())
	}
	n.send(protocol.NewPeerList(n.cfg.Name, addrs, n.self), addr)
}

func (n *Node) HandlePeerList(msg *protocol.PeerList) {
	var learned []netip.AddrPort

	for _, s := range msg.Addrs() {
		if s == "" {
			continue
		}
		addr, err := netip.ParseAddrPort(s)
		if err != nil {
			continue
		}
		if addr == n.cfg.Self {
			continue
		}
		if n.Registry.LearnPeer(addr, addr.String()) {
			learned = append(learned, addr)
		}
	}

	if len(learned) == 0 {
		return
	}

	telemetry.PeersDiscovered.Add(float64(len(learned)))
	telemetry.PeersKnown.Set(float64(n.Registry.Len()))
	log.Infof("Discovered new peers from %s: %v", msg.SenderName, learned)

	// The placeholder names are replaced once they answer.
	greeting := protocol.NewDiscovery(n.cfg.Name, n.self)
	for _, addr := range learned {
		n.send(greeting, addr)
	}
}

// shouldReply records a reply to addr unless one went out within the hold-off.
// This deliberately departs from answering every Discovery: the reply is itself a
// Discovery, so always answering would keep two nodes replying to each other
// forever. Suppressed Discoveries still refresh the registry.
func (n *Node) shouldReply(addr netip.AddrPort) bool {
	n.repliedMu.Lock()
	defer n.repliedMu.Unlock()

	now := n.cfg.Now()
	if last, ok := n.replied[addr]; ok && now.Sub(last) < n.cfg.ReplyHoldoff {
		return false
	}
	n.replied[addr] = now
	return true
}

func (n *Node) forgetReply(addr netip.AddrPort) {
	n.repliedMu.Lock()
	delete(n.replied, addr)
	n.repliedMu.Unlock()
}
