package leveldb

import (
	"rossip/datamodel/peer"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *PeerCache {
	t.Helper()
	c, err := NewPeerCache(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPeerCachePutGet(t *testing.T) {
	c := newTestCache(t)

	md := &peer.Metadata{
		Address:  "10.0.0.2:9487",
		Name:     "alice",
		LastSeen: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	_, err := c.Put(md)
	require.NoError(t, err)

	got, err := c.Get("10.0.0.2:9487")
	require.NoError(t, err)
	assert.Equal(t, md.Address, got.Address)
	assert.Equal(t, md.Name, got.Name)
	assert.True(t, md.LastSeen.Equal(got.LastSeen))

	_, err = c.Get("10.0.0.9:9487")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPeerCacheEnumerateAndDelete(t *testing.T) {
	c := newTestCache(t)

	for _, a := range []string{"10.0.0.2:9487", "10.0.0.3:9487", "10.0.0.4:9487"} {
		_, err := c.Put(&peer.Metadata{Address: a, Name: a})
		require.NoError(t, err)
	}

	all, err := c.Enumerate()
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, c.Delete("10.0.0.3:9487"))
	require.NoError(t, c.Delete("10.0.0.3:9487"), "deleting twice is fine")

	all, err = c.Enumerate()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "10.0.0.2:9487", all[0].Address)
	assert.Equal(t, "10.0.0.4:9487", all[1].Address)
}

func TestPeerCacheReopen(t *testing.T) {
	dir := t.TempDir()

	c, err := NewPeerCache(dir)
	require.NoError(t, err)
	_, err = c.Put(&peer.Metadata{Address: "10.0.0.2:9487", Name: "alice"})
	require.NoError(t, err)
	require.NoError(t, c.Close())

	c, err = NewPeerCache(dir)
	require.NoError(t, err)
	defer c.Close()

	got, err := c.Get("10.0.0.2:9487")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Name)
}
