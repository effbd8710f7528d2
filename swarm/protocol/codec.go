package protocol

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

const Version = 1

var (
	ErrEmpty       = errors.New("protocol: empty datagram")
	ErrMalformed   = errors.New("protocol: malformed datagram")
	ErrUnknownKind = errors.New("protocol: unknown message kind")
)

// MessageHeader precedes the body of every datagram. The two are encoded as
// consecutive CBOR items.
type MessageHeader struct {
	Version uint8 `cbor:"1,keyasint,omitempty"`
	Kind    Kind  `cbor:"2,keyasint,omitempty"`
}

// Encode serializes m as header followed by body.
func Encode(m Message) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil message", ErrMalformed)
	}

	hdr, err := cbor.Marshal(MessageHeader{Version: Version, Kind: m.Kind()})
	if err != nil {
		return nil, err
	}

	body, err := cbor.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.Kind(), err)
	}

	return append(hdr, body...), nil
}

// Decode parses one datagram. Any input that is not exactly a valid header
// followed by a valid body yields an error.
func Decode(data []byte) (Message, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}

	var hdr MessageHeader
	rest, err := cbor.UnmarshalFirst(data, &hdr)
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformed, err)
	}
	if hdr.Version != Version {
		return nil, fmt.Errorf("%w: version %d", ErrUnknownKind, hdr.Version)
	}

	msg := newMessage(hdr.Kind)
	if msg == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, hdr.Kind)
	}
	if len(rest) == 0 {
		return nil, fmt.Errorf("%w: missing %s body", ErrMalformed, hdr.Kind)
	}

	rest, err = cbor.UnmarshalFirst(rest, msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s body: %v", ErrMalformed, hdr.Kind, err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(rest))
	}

	return msg, nil
}

func newMessage(k Kind) Message {
	switch k {
	case KindChat:
		return &Chat{}
	case KindDiscovery:
		return &Discovery{}
	case KindPeerList:
		return &PeerList{}
	case KindHeartbeat:
		return &Heartbeat{}
	default:
		return nil
	}
}
