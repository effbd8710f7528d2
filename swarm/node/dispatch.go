package node

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"rossip/swarm/protocol"
	"rossip/telemetry"
	"time"

	log "github.com/sirupsen/logrus"
)

// Pause after a failed receive so a persistent socket error cannot spin the loop.
var receiveRetryDelay = 100 * time.Millisecond

// Dispatch receives datagrams and routes them to the handlers until ctx is
// done. Handlers run inline. A bad datagram never stops the loop.
func (n *Node) Dispatch(ctx context.Context) error {
	for {
		data, src, err := n.transport.Receive()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("dispatch: %w", err)
			}
			log.Warnf("Receive failed: %v", err)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(receiveRetryDelay):
			}
			continue
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			telemetry.DecodeErrors.Inc()
			log.Warnf("Dropping %d bytes from %s: %v", len(data), src, err)
			continue
		}

		n.handle(src, msg)
	}
}

func (n *Node) handle(src netip.AddrPort, msg protocol.Message) {
	// Broadcasts loop back to us.
	if msg.From() == n.self {
		return
	}

	telemetry.MessagesReceived.WithLabelValues(msg.Kind().String()).Inc()
	log.Tracef("%s from %s (%s) via %s", msg.Kind(), msg.Sender(), msg.From(), src)

	switch m := msg.(type) {
	case *protocol.Chat:
		if n.chat != nil {
			n.chat.Chat(src, m)
		} else {
			log.Infof("%s: %s", m.SenderName, m.Text)
		}
	case *protocol.Discovery:
		n.HandleDiscovery(m)
	case *protocol.PeerList:
		n.HandlePeerList(m)
	case *protocol.Heartbeat:
		n.HandleHeartbeat(m)
	default:
		log.Warnf("No handler for %T", msg)
	}
}

func (n *Node) send(msg protocol.Message, dst netip.AddrPort) {
	err := n.transport.Send(msg, dst)
	telemetry.ObserveSend(msg.Kind().String(), err)
	if err != nil {
		log.Errorf("Failed to send %s to %s: %v", msg.Kind(), dst, err)
	}
}
