package protocol

import "strings"

// Kind tags the body that follows the header in a datagram.
type Kind uint8

const (
	KindChat Kind = iota + 1
	KindDiscovery
	KindPeerList
	KindHeartbeat
)

func (k Kind) String() string {
	switch k {
	case KindChat:
		return "chat"
	case KindDiscovery:
		return "discovery"
	case KindPeerList:
		return "peerlist"
	case KindHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}

// Message is one of *Chat, *Discovery, *PeerList or *Heartbeat.
// The set is closed; dispatch code switches over it exhaustively.
type Message interface {
	Kind() Kind
	Sender() string // display name declared by the sender
	From() string   // address declared by the sender, "ip:port"
	isMessage()
}

type Chat struct {
	SenderName string `cbor:"1,keyasint,omitempty"` // Display name of the author
	Text       string `cbor:"2,keyasint,omitempty"` // Chat line
	SenderAddr string `cbor:"3,keyasint,omitempty"` // Author's advertised address
}

type Discovery struct {
	SenderName string `cbor:"1,keyasint,omitempty"` // Display name of the announcing node
	SenderAddr string `cbor:"2,keyasint,omitempty"` // Where replies should be sent
}

// PeerList carries the comma-separated addresses of every peer the sender knows.
// Names are never gossiped, only addresses.
type PeerList struct {
	SenderName string `cbor:"1,keyasint,omitempty"`
	Content    string `cbor:"2,keyasint,omitempty"` // "ip:port,ip:port,..."
	SenderAddr string `cbor:"3,keyasint,omitempty"`
}

type Heartbeat struct {
	SenderName string `cbor:"1,keyasint,omitempty"`
	SenderAddr string `cbor:"2,keyasint,omitempty"`
}

func NewChat(name, text, from string) *Chat {
	return &Chat{SenderName: name, Text: text, SenderAddr: from}
}

func NewDiscovery(name, from string) *Discovery {
	return &Discovery{SenderName: name, SenderAddr: from}
}

func NewPeerList(name string, addrs []string, from string) *PeerList {
	return &PeerList{SenderName: name, Content: strings.Join(addrs, ","), SenderAddr: from}
}

func NewHeartbeat(name, from string) *Heartbeat {
	return &Heartbeat{SenderName: name, SenderAddr: from}
}

// Addrs splits Content into its entries. Empty entries are kept so callers
// can decide how to treat them.
func (p *PeerList) Addrs() []string {
	if p.Content == "" {
		return nil
	}
	return strings.Split(p.Content, ",")
}

func (*Chat) Kind() Kind      { return KindChat }
func (*Discovery) Kind() Kind { return KindDiscovery }
func (*PeerList) Kind() Kind  { return KindPeerList }
func (*Heartbeat) Kind() Kind { return KindHeartbeat }

func (m *Chat) Sender() string      { return m.SenderName }
func (m *Discovery) Sender() string { return m.SenderName }
func (m *PeerList) Sender() string  { return m.SenderName }
func (m *Heartbeat) Sender() string { return m.SenderName }

func (m *Chat) From() string      { return m.SenderAddr }
func (m *Discovery) From() string { return m.SenderAddr }
func (m *PeerList) From() string  { return m.SenderAddr }
func (m *Heartbeat) From() string { return m.SenderAddr }

func (*Chat) isMessage()      {}
func (*Discovery) isMessage() {}
func (*PeerList) isMessage()  {}
func (*Heartbeat) isMessage() {}
