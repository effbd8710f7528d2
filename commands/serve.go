package commands

import (
	"bufio"
	"context"
	"io"
	"net"
	"rossip/config"
	"rossip/datamodel/peer"
	"rossip/datastore/leveldb"
	"rossip/helper/timer"
	"rossip/net/udpcast"
	"rossip/swarm/node"
	"rossip/telemetry"
	"strings"

	"golang.org/x/sync/errgroup"

	log "github.com/sirupsen/logrus"
)

type ServeOptions struct {
	// Only broadcast chat; do not discover, heartbeat or receive.
	SenderOnly bool

	Input  io.Reader
	Output io.Writer
}

func RunServe(ctx context.Context, cfg *config.Config, opts ServeOptions) {
	listenAddr := cfg.Network.ListenAddress
	if opts.SenderOnly {
		// Any port will do, we never read from it.
		listenAddr = "0.0.0.0:0"
	}

	tr, err := udpcast.Listen(ctx, listenAddr)
	if err != nil {
		log.Fatalf("Failed to create UDP listener: %v", err)
	}
	defer tr.Close()

	bound := tr.LocalAddr().(*net.UDPAddr).AddrPort()
	self, err := node.AdvertisedAddr(cfg.Node.AdvertiseAddress, bound)
	if err != nil {
		log.Fatalf("Failed to determine advertised address: %v", err)
	}

	dsts, err := cfg.BroadcastDestinations()
	if err != nil {
		log.Fatalf("Invalid broadcast destinations: %v", err)
	}

	var cache peer.PeerCache
	if cfg.DataStore.PeerCachePath != "" && !opts.SenderOnly {
		pc, err := leveldb.NewPeerCache(cfg.DataStore.PeerCachePath)
		if err != nil {
			log.Fatalf("Failed to open peer cache: %v", err)
		}
		defer pc.Close()
		cache = pc
	}

	n, err := node.New(node.Config{
		Name:         cfg.Node.Name,
		Self:         self,
		Destinations: dsts,
		Discovery: timer.Interval{
			Duration: cfg.Discovery.Interval.Duration,
			Jitter:   cfg.Discovery.Jitter.Duration,
		},
		Heartbeat: timer.Interval{
			Duration: cfg.Heartbeat.Interval.Duration,
			Jitter:   cfg.Heartbeat.Jitter.Duration,
		},
		PruneInterval: cfg.Heartbeat.PruneInterval.Duration,
		TTL:           cfg.Heartbeat.TTL.Duration,
	}, tr, NewConsole(opts.Output), cache)
	if err != nil {
		log.Fatalf("Failed to create node: %v", err)
	}

	if opts.SenderOnly {
		log.Infof("Sender-only mode, type messages to broadcast")

		// The scanner cannot be interrupted, so we do not wait for it on shutdown.
		done := make(chan error, 1)
		go func() { done <- readChat(ctx, opts.Input, n.SendChat) }()

		select {
		case err := <-done:
			if err != nil {
				log.Errorf("Failed to read input: %v", err)
			}
		case <-ctx.Done():
		}
		return
	}

	wg, cctx := errgroup.WithContext(ctx)

	wg.Go(func() error {
		return n.Run(cctx)
	})

	// stdin closing must not stop the node.
	go readChat(cctx, opts.Input, n.SendChat)

	if cfg.Metrics.ListenAddress != "" {
		wg.Go(func() error {
			return telemetry.Serve(cctx, cfg.Metrics.ListenAddress)
		})
	}

	if err := wg.Wait(); err != nil {
		log.Fatalf("Failed to run node: %v", err)
	}

	log.Infof("Shut down")
}

// readChat passes every non-blank line of in to send until EOF or ctx is done.
func readChat(ctx context.Context, in io.Reader, send func(string)) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		send(line)
	}
	return sc.Err()
}
