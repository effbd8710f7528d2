package leveldb

import (
	"rossip/datamodel/peer"

	"github.com/fxamacker/cbor/v2"
	lerrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/util"

	log "github.com/sirupsen/logrus"
)

const (
	keyPrefixPeer = "PEER" // Peer metadata indexed by address. Followed by "ip:port"
)

var _ peer.PeerCache = (*PeerCache)(nil)

var ErrNotFound = lerrors.ErrNotFound

type PeerCache struct {
	LevelDB
}

func NewPeerCache(path string) (*PeerCache, error) {
	// Init the underlying LevelDB object
	ldb, err := initLevelDb(path)
	if err != nil {
		return nil, err
	}

	return &PeerCache{
		LevelDB: LevelDB{
			path: path,
			db:   ldb,
		},
	}, nil
}

func keyFromAddress(address string) []byte {
	return append([]byte(keyPrefixPeer), []byte(address)...)
}

func (l *PeerCache) Get(address string) (*peer.Metadata, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	raw, err := l.db.Get(keyFromAddress(address), nil)
	if err != nil {
		return nil, err
	}

	md := &peer.Metadata{}
	if err := cbor.Unmarshal(raw, md); err != nil {
		return nil, err
	}

	// Compare the address just in case
	if md.Address != address {
		log.Errorf("Get: address mismatch: %s != %s", address, md.Address)
		return nil, ErrCorrupted
	}

	return md, nil
}

func (l *PeerCache) Put(metadata *peer.Metadata) (*peer.Metadata, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	raw, err := cbor.Marshal(metadata)
	if err != nil {
		return nil, err
	}

	if err := l.db.Put(keyFromAddress(metadata.Address), raw, nil); err != nil {
		return nil, err
	}

	return metadata, nil
}

func (l *PeerCache) Delete(address string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.db.Delete(keyFromAddress(address), nil)
}

func (l *PeerCache) Enumerate() ([]*peer.Metadata, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var results []*peer.Metadata

	iter := l.db.NewIterator(util.BytesPrefix([]byte(keyPrefixPeer)), nil)
	defer iter.Release()

	for iter.Next() {
		md := &peer.Metadata{}
		if err := cbor.Unmarshal(iter.Value(), md); err != nil {
			return nil, err
		}
		results = append(results, md)
	}

	if err := iter.Error(); err != nil {
		return nil, err
	}

	return results, nil
}
