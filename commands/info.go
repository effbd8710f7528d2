package commands

import (
	"context"
	"fmt"
	"io"
	"rossip/config"
	"rossip/datamodel/peer"
	"rossip/datastore/leveldb"
	"sort"
	"time"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
)

// RunInfo lists the peers saved by the last run.
func RunInfo(ctx context.Context, cfg *config.Config, out io.Writer) error {
	if cfg.DataStore.PeerCachePath == "" {
		return fmt.Errorf("peer cache is disabled")
	}

	cache, err := leveldb.NewPeerCache(cfg.DataStore.PeerCachePath)
	if err != nil {
		return fmt.Errorf("failed to open peer cache: %w", err)
	}
	defer cache.Close()

	peers, err := cache.Enumerate()
	if err != nil {
		return fmt.Errorf("failed to enumerate peer cache: %w", err)
	}

	log.Debugf("Peer cache %s: %d entries", cfg.DataStore.PeerCachePath, len(peers))
	printPeers(out, peers, time.Now())
	return nil
}

func printPeers(out io.Writer, peers []*peer.Metadata, now time.Time) {
	if len(peers) == 0 {
		fmt.Fprintln(out, "No known peers")
		return
	}

	sort.Slice(peers, func(i, j int) bool {
		return peers[i].LastSeen.After(peers[j].LastSeen)
	})

	bold := color.New(color.Bold)
	fmt.Fprintf(out, "%s\n", bold.Sprintf("%d known peers", len(peers)))
	for _, p := range peers {
		fmt.Fprintf(out, "  %-21s  %-16s  %s ago\n",
			p.Address, p.Name, now.Sub(p.LastSeen).Truncate(time.Second))
	}
}
