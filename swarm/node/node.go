package node

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"rossip/datamodel/peer"
	"rossip/helper/timer"
	"rossip/swarm/protocol"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	log "github.com/sirupsen/logrus"
)

// DefaultReplyHoldoff bounds how often we answer Discovery from one peer.
// Without it two nodes would answer each other's replies forever.
const DefaultReplyHoldoff = time.Second

type Sender interface {
	Send(msg protocol.Message, dst netip.AddrPort) error
}

type Receiver interface {
	Receive() ([]byte, netip.AddrPort, error)
}

type Transport interface {
	Sender
	Receiver
	Close() error
}

// ChatSink displays chat lines. It is called on the dispatch goroutine.
type ChatSink interface {
	Chat(from netip.AddrPort, msg *protocol.Chat)
}

type Config struct {
	Name string
	// Address we advertise in every message and the one PeerList entries are compared against.
	Self netip.AddrPort
	// Broadcast destinations, one per probed port.
	Destinations []netip.AddrPort

	Discovery     timer.Interval
	Heartbeat     timer.Interval
	PruneInterval time.Duration
	TTL           time.Duration
	ReplyHoldoff  time.Duration

	// Clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

type Node struct {
	cfg  Config
	self string

	Registry  *PeerRegistry
	transport Transport
	chat      ChatSink
	cache     peer.PeerCache // optional

	repliedMu sync.Mutex
	replied   map[netip.AddrPort]time.Time
}

// New creates a node. chat and cache may be nil.
func New(cfg Config, transport Transport, chat ChatSink, cache peer.PeerCache) (*Node, error) {
	if cfg.Name == "" {
		return nil, errors.New("node name is empty")
	}
	if !cfg.Self.IsValid() {
		return nil, errors.New("no advertised address")
	}
	if err := validateInterval("discovery", cfg.Discovery); err != nil {
		return nil, err
	}
	if err := validateInterval("heartbeat", cfg.Heartbeat); err != nil {
		return nil, err
	}
	if cfg.PruneInterval < 0 {
		return nil, fmt.Errorf("negative prune interval %v", cfg.PruneInterval)
	}
	if cfg.TTL <= cfg.Heartbeat.Duration {
		return nil, fmt.Errorf("peer ttl %v must exceed heartbeat interval %v", cfg.TTL, cfg.Heartbeat.Duration)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.ReplyHoldoff == 0 {
		cfg.ReplyHoldoff = DefaultReplyHoldoff
	}
	if cfg.PruneInterval == 0 {
		cfg.PruneInterval = cfg.Heartbeat.Duration
	}

	n := &Node{
		cfg:       cfg,
		self:      cfg.Self.String(),
		Registry:  NewPeerRegistryWithClock(cfg.Now),
		transport: transport,
		chat:      chat,
		cache:     cache,
		replied:   make(map[netip.AddrPort]time.Time),
	}

	log.Infof("I am %s, advertising %s to %v", cfg.Name, n.self, cfg.Destinations)

	return n, nil
}

// Broadcast sends msg to every destination. Failures are logged and counted; the round goes on.
func (n *Node) Broadcast(msg protocol.Message) {
	for _, dst := range n.cfg.Destinations {
		n.send(msg, dst)
	}
}

// SendChat broadcasts one chat line.
func (n *Node) SendChat(text string) {
	n.Broadcast(protocol.NewChat(n.cfg.Name, text, n.self))
}

// Run serves until ctx is done or a member fails. The transport is closed on return.
func (n *Node) Run(ctx context.Context) error {
	wg, cctx := errgroup.WithContext(ctx)

	wg.Go(func() error {
		return n.Dispatch(cctx)
	})

	// Receive does not watch the context, closing the socket is what unblocks dispatch.
	wg.Go(func() error {
		<-cctx.Done()
		n.transport.Close()
		return nil
	})

	wg.Go(func() error {
		n.seedFromCache()

		interval := n.cfg.Discovery
		interval.Immediate = true
		return timer.RunWithTicker(cctx, "discovery", &interval, n.Announce)
	})

	wg.Go(func() error {
		interval := n.cfg.Heartbeat
		return timer.RunWithTicker(cctx, "heartbeat", &interval, n.Beat)
	})

	wg.Go(func() error {
		interval := &timer.Interval{Duration: n.cfg.PruneInterval}
		return timer.RunWithTicker(cctx, "prune", interval, n.Prune)
	})

	err := wg.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

func validateInterval(name string, iv timer.Interval) error {
	if iv.Duration <= 0 {
		return fmt.Errorf("%s interval %v must be positive", name, iv.Duration)
	}
	if iv.Jitter < 0 || iv.Jitter >= iv.Duration {
		return fmt.Errorf("%s jitter %v must be in [0, %v)", name, iv.Jitter, iv.Duration)
	}
	return nil
}
