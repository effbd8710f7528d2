package peer

import "time"

type Metadata struct {
	Address  string    `cbor:"1,keyasint,omitempty"` // Advertised "ip:port" of the peer
	Name     string    `cbor:"2,keyasint,omitempty"` // Last known display name
	LastSeen time.Time `cbor:"3,keyasint,omitempty"` // Last time we heard from this peer
}

// PeerCache persists peers across restarts so a node can re-contact them
// directly instead of waiting for the next broadcast round.
type PeerCache interface {
	// Get retrieves the metadata stored for an address.
	Get(address string) (*Metadata, error)

	// Put stores or replaces the metadata for md.Address.
	Put(md *Metadata) (*Metadata, error)

	// Delete removes an address. Deleting an unknown address is not an error.
	Delete(address string) error

	// Enumerate returns every stored peer.
	Enumerate() ([]*Metadata, error)
}
