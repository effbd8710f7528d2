// Package udpcast sends and receives protocol messages as single UDP datagrams.
// One encoded message is one datagram; there is no framing, fragmentation or retry.
package udpcast

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"rossip/swarm/protocol"

	log "github.com/sirupsen/logrus"
)

// MaxDatagramSize is the largest UDP payload over IPv4.
const MaxDatagramSize = 65507

var ErrMessageTooLarge = errors.New("udpcast: message does not fit in one datagram")

type Transport struct {
	conn net.PacketConn
	rbuf []byte
}

func New(conn net.PacketConn) *Transport {
	return &Transport{
		conn: conn,
		rbuf: make([]byte, MaxDatagramSize),
	}
}

// Listen binds a broadcast-capable UDP socket on addr. The socket is closed
// when ctx is done, which unblocks a pending Receive.
func Listen(ctx context.Context, addr string) (*Transport, error) {
	lc := net.ListenConfig{Control: enableBroadcast}
	conn, err := lc.ListenPacket(ctx, "udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	log.Infof("udpcast: listening on %s", conn.LocalAddr())

	return New(conn), nil
}

// Send encodes msg and writes it to dst in one datagram.
func (t *Transport) Send(msg protocol.Message, dst netip.AddrPort) error {
	raw, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	if len(raw) > MaxDatagramSize {
		return fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(raw))
	}

	if _, err := t.conn.WriteTo(raw, net.UDPAddrFromAddrPort(dst)); err != nil {
		return fmt.Errorf("send %s to %s: %w", msg.Kind(), dst, err)
	}

	return nil
}

// Receive blocks until one datagram arrives and returns a copy of its payload
// together with the source address. It must not be called concurrently.
func (t *Transport) Receive() ([]byte, netip.AddrPort, error) {
	n, from, err := t.conn.ReadFrom(t.rbuf)
	if err != nil {
		return nil, netip.AddrPort{}, err
	}

	var src netip.AddrPort
	if ua, ok := from.(*net.UDPAddr); ok {
		ap := ua.AddrPort()
		src = netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())
	}

	return append([]byte(nil), t.rbuf[:n]...), src, nil
}

func (t *Transport) LocalAddr() net.Addr {
	return t.conn.LocalAddr()
}

func (t *Transport) Close() error {
	return t.conn.Close()
}
