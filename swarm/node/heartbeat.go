package node

import (
	"context"
	"net/netip"
	"rossip/datamodel/peer"
	"rossip/swarm/protocol"
	"rossip/telemetry"

	log "github.com/sirupsen/logrus"
)

// Beat broadcasts our Heartbeat. Run via RunWithTicker().
func (n *Node) Beat(ctx context.Context) error {
	n.Broadcast(protocol.NewHeartbeat(n.cfg.Name, n.self))
	return nil
}

// HandleHeartbeat refreshes the sender. It never answers, so heartbeats cannot start a gossip round.
func (n *Node) HandleHeartbeat(msg *protocol.Heartbeat) {
	addr, err := netip.ParseAddrPort(msg.SenderAddr)
	if err != nil {
		log.Debugf("Heartbeat from %q with bad address %q: %v", msg.SenderName, msg.SenderAddr, err)
		return
	}
	if addr == n.cfg.Self {
		return
	}

	n.Registry.AddOrUpdatePeer(addr, msg.SenderName)
	telemetry.PeersKnown.Set(float64(n.Registry.Len()))
}

// Prune evicts peers that missed heartbeats for longer than the TTL and
// writes the surviving registry to the peer cache.
func (n *Node) Prune(ctx context.Context) error {
	evicted := n.Registry.PruneStale(n.cfg.TTL)
	for _, p := range evicted {
		log.Infof("Peer %s (%s) timed out, last seen %s", p.Name, p.Addr, p.LastSeen.Format("15:04:05"))
		n.forgetReply(p.Addr)
	}

	telemetry.PeersPruned.Add(float64(len(evicted)))
	telemetry.PeersKnown.Set(float64(n.Registry.Len()))

	n.persist(evicted)
	return nil
}

// persist is best effort; a broken cache only costs us the seed on next start.
func (n *Node) persist(evicted []Peer) {
	if n.cache == nil {
		return
	}

	for _, p := range evicted {
		if err := n.cache.Delete(p.Addr.String()); err != nil {
			log.Warnf("Failed to drop %s from peer cache: %v", p.Addr, err)
		}
	}

	for _, p := range n.Registry.Peers() {
		_, err := n.cache.Put(&peer.Metadata{
			Address:  p.Addr.String(),
			Name:     p.Name,
			LastSeen: p.LastSeen,
		})
		if err != nil {
			log.Warnf("Failed to store %s in peer cache: %v", p.Addr, err)
		}
	}
}
