package config

import (
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := NewEmptyConfig("")
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "0.0.0.0:9487", cfg.Network.ListenAddress)
	assert.Equal(t, []uint16{9487}, cfg.Network.BroadcastPorts)
	assert.Equal(t, 30*time.Second, cfg.Discovery.Interval.Duration)
	assert.Equal(t, 3*cfg.Heartbeat.Interval.Duration, cfg.Heartbeat.TTL.Duration)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rossip.json")

	cfg := NewEmptyConfig(path)
	cfg.Node.Name = "alice"
	cfg.Network.BroadcastPorts = []uint16{9487, 9488}
	cfg.Heartbeat.Interval = Duration{2 * time.Second}
	cfg.Heartbeat.TTL = Duration{7 * time.Second}
	require.NoError(t, cfg.Save())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"interval": "2s"`)

	loaded, err := NewConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "alice", loaded.Node.Name)
	assert.Equal(t, []uint16{9487, 9488}, loaded.Network.BroadcastPorts)
	assert.Equal(t, 2*time.Second, loaded.Heartbeat.Interval.Duration)
	assert.Equal(t, 7*time.Second, loaded.Heartbeat.TTL.Duration)
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rossip.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"node": {"name": "bob"}}`), 0644))

	cfg, err := NewConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "bob", cfg.Node.Name)
	assert.Equal(t, 30*time.Second, cfg.Discovery.Interval.Duration)
	assert.Equal(t, []uint16{9487}, cfg.Network.BroadcastPorts)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rossip.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"node": {"name": "bob"}}`), 0644))

	t.Setenv("ROSSIP_NAME", "carol")
	t.Setenv("ROSSIP_HEARTBEAT_INTERVAL", "1s")
	t.Setenv("ROSSIP_PEER_TTL", "4s")

	cfg, err := NewConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "carol", cfg.Node.Name)
	assert.Equal(t, time.Second, cfg.Heartbeat.Interval.Duration)
	assert.Equal(t, 4*time.Second, cfg.Heartbeat.TTL.Duration)
}

func TestMissingFile(t *testing.T) {
	_, err := NewConfigFromFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty name", func(c *Config) { c.Node.Name = "" }},
		{"bad advertise", func(c *Config) { c.Node.AdvertiseAddress = "nope" }},
		{"bad broadcast", func(c *Config) { c.Network.BroadcastAddress = "255.255.255" }},
		{"no ports", func(c *Config) { c.Network.BroadcastPorts = nil }},
		{"zero port", func(c *Config) { c.Network.BroadcastPorts = []uint16{0} }},
		{"zero discovery", func(c *Config) { c.Discovery.Interval = Duration{} }},
		{"discovery jitter too large", func(c *Config) { c.Discovery.Jitter = c.Discovery.Interval }},
		{"ttl not above heartbeat", func(c *Config) { c.Heartbeat.TTL = c.Heartbeat.Interval }},
		{"zero prune", func(c *Config) { c.Heartbeat.PruneInterval = Duration{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewEmptyConfig("")
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestBroadcastDestinations(t *testing.T) {
	cfg := NewEmptyConfig("")
	cfg.Network.BroadcastAddress = "192.168.1.255"
	cfg.Network.BroadcastPorts = []uint16{9487, 9500}

	dsts, err := cfg.BroadcastDestinations()
	require.NoError(t, err)
	assert.Equal(t, []netip.AddrPort{
		netip.MustParseAddrPort("192.168.1.255:9487"),
		netip.MustParseAddrPort("192.168.1.255:9500"),
	}, dsts)
}
