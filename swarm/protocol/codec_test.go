package protocol

import (
	"errors"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
	}{
		{"chat", NewChat("alice", "hello, world", "10.0.0.2:9487")},
		{"chat empty text", NewChat("alice", "", "10.0.0.2:9487")},
		{"discovery", NewDiscovery("bob", "10.0.0.3:9487")},
		{"peerlist", NewPeerList("carol", []string{"10.0.0.2:9487", "10.0.0.3:9487"}, "10.0.0.4:9487")},
		{"peerlist empty", NewPeerList("carol", nil, "10.0.0.4:9487")},
		{"heartbeat", NewHeartbeat("dave", "[fe80::1]:9487")},
		{"zero discovery", &Discovery{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := Encode(tt.msg)
			require.NoError(t, err)

			got, err := Decode(raw)
			require.NoError(t, err)
			assert.Equal(t, tt.msg, got)
			assert.Equal(t, tt.msg.Kind(), got.Kind())
		})
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	valid, err := Encode(NewDiscovery("bob", "10.0.0.3:9487"))
	require.NoError(t, err)

	unknownKind, err := cbor.Marshal(MessageHeader{Version: Version, Kind: 42})
	require.NoError(t, err)
	unknownKind = append(unknownKind, 0xa0)

	badVersion, err := cbor.Marshal(MessageHeader{Version: 9, Kind: KindChat})
	require.NoError(t, err)
	badVersion = append(badVersion, 0xa0)

	headerOnly, err := cbor.Marshal(MessageHeader{Version: Version, Kind: KindHeartbeat})
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrEmpty},
		{"random bytes", []byte{0xff, 0x00, 0x13, 0x37}, ErrMalformed},
		{"plain text", []byte("hello there"), ErrMalformed},
		{"unknown kind", unknownKind, ErrUnknownKind},
		{"unknown version", badVersion, ErrUnknownKind},
		{"missing body", headerOnly, ErrMalformed},
		{"truncated body", valid[:len(valid)-3], ErrMalformed},
		{"trailing bytes", append(append([]byte{}, valid...), 0x01), ErrMalformed},
		{"body is not a map", append(append([]byte{}, headerOnly...), 0x05), ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode(tt.data)
			assert.Nil(t, msg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
}

func TestPeerListAddrs(t *testing.T) {
	pl := NewPeerList("x", []string{"10.0.0.2:9487", "", "10.0.0.3:9487"}, "10.0.0.1:9487")
	assert.Equal(t, "10.0.0.2:9487,,10.0.0.3:9487", pl.Content)
	assert.Equal(t, []string{"10.0.0.2:9487", "", "10.0.0.3:9487"}, pl.Addrs())

	assert.Empty(t, (&PeerList{}).Addrs())
}

func TestEncodeNil(t *testing.T) {
	_, err := Encode(nil)
	assert.ErrorIs(t, err, ErrMalformed)
}
