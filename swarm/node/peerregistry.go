package node

import (
	"net/netip"
	"slices"
	"sync"
	"time"
)

type Peer struct {
	Addr     netip.AddrPort
	Name     string
	LastSeen time.Time
}

// PeerRegistry is the table of known peers keyed by address. Every method
// holds the mutex for its whole read-modify-write and never does I/O.
type PeerRegistry struct {
	mu    sync.Mutex
	peers map[netip.AddrPort]*Peer
	now   func() time.Time
}

func NewPeerRegistry() *PeerRegistry {
	return NewPeerRegistryWithClock(time.Now)
}

func NewPeerRegistryWithClock(now func() time.Time) *PeerRegistry {
	return &PeerRegistry{
		peers: make(map[netip.AddrPort]*Peer),
		now:   now,
	}
}

// AddOrUpdatePeer inserts the peer, or renames and refreshes it if known.
func (r *PeerRegistry) AddOrUpdatePeer(addr netip.AddrPort, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addOrUpdate(addr, name)
}

// UpdateLastSeen refreshes a known peer and reports whether it was known.
// Unknown addresses are not inserted.
func (r *PeerRegistry) UpdateLastSeen(addr netip.AddrPort) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.touch(addr)
}

// LearnPeer refreshes addr if known, otherwise registers it under
// placeholder. It returns true when the peer was new.
func (r *PeerRegistry) LearnPeer(addr netip.AddrPort, placeholder string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.touch(addr) {
		return false
	}
	r.addOrUpdate(addr, placeholder)
	return true
}

// Peers returns a copy of the table ordered by address.
func (r *PeerRegistry) Peers() []Peer {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Peer, 0, len(r.peers))
	for _, p := range r.peers {
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b Peer) int {
		return a.Addr.Compare(b.Addr)
	})
	return out
}

func (r *PeerRegistry) Get(addr netip.AddrPort) (Peer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.peers[addr]
	if !ok {
		return Peer{}, false
	}
	return *p, true
}

func (r *PeerRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.peers)
}

// PruneStale drops every peer not seen for longer than ttl and returns them.
func (r *PeerRegistry) PruneStale(ttl time.Duration) []Peer {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var removed []Peer
	for addr, p := range r.peers {
		if now.Sub(p.LastSeen) > ttl {
			removed = append(removed, *p)
			delete(r.peers, addr)
		}
	}
	return removed
}

func (r *PeerRegistry) addOrUpdate(addr netip.AddrPort, name string) {
	if p, ok := r.peers[addr]; ok {
		p.Name = name
		p.LastSeen = r.later(p.LastSeen)
		return
	}
	r.peers[addr] = &Peer{Addr: addr, Name: name, LastSeen: r.now()}
}

func (r *PeerRegistry) touch(addr netip.AddrPort) bool {
	p, ok := r.peers[addr]
	if !ok {
		return false
	}
	p.LastSeen = r.later(p.LastSeen)
	return true
}

// later keeps LastSeen monotonic when the wall clock steps backwards.
func (r *PeerRegistry) later(prev time.Time) time.Time {
	if now := r.now(); now.After(prev) {
		return now
	}
	return prev
}
