package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/netip"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultPort             = 9487
	DefaultBroadcastAddress = "255.255.255.255"
)

// Duration reads and writes as a Go duration string ("30s") in JSON and env.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Config represents the configuration of a rossip node
type Config struct {
	// Default config file location
	configFile string

	Node struct {
		Name             string `json:"name" env:"ROSSIP_NAME"`
		AdvertiseAddress string `json:"advertise_address,omitempty" env:"ROSSIP_ADVERTISE_ADDRESS"` // "ip:port" peers should reply to. Derived from interfaces when empty
	} `json:"node"`

	Network struct {
		ListenAddress    string   `json:"listen_address" env:"ROSSIP_LISTEN_ADDRESS"`
		BroadcastAddress string   `json:"broadcast_address" env:"ROSSIP_BROADCAST_ADDRESS"`
		BroadcastPorts   []uint16 `json:"broadcast_ports" env:"ROSSIP_BROADCAST_PORTS" env-separator:","` // Every port is probed on BroadcastAddress
	} `json:"network"`

	Discovery struct {
		Interval Duration `json:"interval" env:"ROSSIP_DISCOVERY_INTERVAL"`
		Jitter   Duration `json:"jitter" env:"ROSSIP_DISCOVERY_JITTER"`
	} `json:"discovery"`

	Heartbeat struct {
		Interval      Duration `json:"interval" env:"ROSSIP_HEARTBEAT_INTERVAL"`
		Jitter        Duration `json:"jitter" env:"ROSSIP_HEARTBEAT_JITTER"`
		TTL           Duration `json:"ttl" env:"ROSSIP_PEER_TTL"`
		PruneInterval Duration `json:"prune_interval" env:"ROSSIP_PRUNE_INTERVAL"`
	} `json:"heartbeat"`

	DataStore struct {
		PeerCachePath string `json:"peer_cache_path" env:"ROSSIP_PEER_CACHE"` // Empty disables the peer cache
	} `json:"datastore"`

	Metrics struct {
		ListenAddress string `json:"listen_address,omitempty" env:"ROSSIP_METRICS_ADDRESS"` // Empty disables /metrics
	} `json:"metrics"`
}

// NewEmptyConfig generates a new configuration with default settings
func NewEmptyConfig(configFile string) *Config {
	cfg := &Config{}

	cfg.configFile = configFile

	cfg.Node.Name = "user"

	cfg.Network.ListenAddress = fmt.Sprintf("0.0.0.0:%d", DefaultPort)
	cfg.Network.BroadcastAddress = DefaultBroadcastAddress
	cfg.Network.BroadcastPorts = []uint16{DefaultPort}

	cfg.Discovery.Interval = Duration{30 * time.Second}

	cfg.Heartbeat.Interval = Duration{5 * time.Second}
	cfg.Heartbeat.TTL = Duration{15 * time.Second}
	cfg.Heartbeat.PruneInterval = Duration{5 * time.Second}

	cfg.DataStore.PeerCachePath = "/tmp/rossip/peers"

	return cfg
}

// NewConfigFromFile loads defaults, then the file, then environment overrides.
// An empty path skips the file.
func NewConfigFromFile(configFile string) (*Config, error) {
	cfg := NewEmptyConfig(configFile)
	if err := cfg.Load(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves the configuration to a file
func (c *Config) Save() error {
	log.Infof("Saving config to %s", c.configFile)

	// We'll marshall our structure to JSON and write it into a file
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.configFile, data, 0644)
}

func (c *Config) Load() error {
	if c.configFile == "" {
		return cleanenv.ReadEnv(c)
	}

	log.Infof("Loading config from %s", c.configFile)
	return cleanenv.ReadConfig(c.configFile, c)
}

func (c *Config) Validate() error {
	var errs []error

	if c.Node.Name == "" {
		errs = append(errs, errors.New("node.name is empty"))
	}
	if c.Node.AdvertiseAddress != "" {
		if _, err := netip.ParseAddrPort(c.Node.AdvertiseAddress); err != nil {
			errs = append(errs, fmt.Errorf("node.advertise_address: %w", err))
		}
	}
	if _, err := netip.ParseAddr(c.Network.BroadcastAddress); err != nil {
		errs = append(errs, fmt.Errorf("network.broadcast_address: %w", err))
	}
	if len(c.Network.BroadcastPorts) == 0 {
		errs = append(errs, errors.New("network.broadcast_ports is empty"))
	}
	for _, p := range c.Network.BroadcastPorts {
		if p == 0 {
			errs = append(errs, errors.New("network.broadcast_ports contains port 0"))
		}
	}
	if c.Discovery.Interval.Duration <= 0 {
		errs = append(errs, errors.New("discovery.interval must be positive"))
	}
	if c.Discovery.Jitter.Duration < 0 || c.Discovery.Jitter.Duration >= c.Discovery.Interval.Duration {
		errs = append(errs, errors.New("discovery.jitter must be in [0, interval)"))
	}
	if c.Heartbeat.Interval.Duration <= 0 {
		errs = append(errs, errors.New("heartbeat.interval must be positive"))
	}
	if c.Heartbeat.Jitter.Duration < 0 || c.Heartbeat.Jitter.Duration >= c.Heartbeat.Interval.Duration {
		errs = append(errs, errors.New("heartbeat.jitter must be in [0, interval)"))
	}
	if c.Heartbeat.PruneInterval.Duration <= 0 {
		errs = append(errs, errors.New("heartbeat.prune_interval must be positive"))
	}
	// A peer has to miss more than one heartbeat before it is evicted.
	if c.Heartbeat.TTL.Duration <= c.Heartbeat.Interval.Duration {
		errs = append(errs, fmt.Errorf("heartbeat.ttl (%v) must exceed heartbeat.interval (%v)",
			c.Heartbeat.TTL.Duration, c.Heartbeat.Interval.Duration))
	}

	return errors.Join(errs...)
}

// BroadcastDestinations returns one address per configured broadcast port.
func (c *Config) BroadcastDestinations() ([]netip.AddrPort, error) {
	ip, err := netip.ParseAddr(c.Network.BroadcastAddress)
	if err != nil {
		return nil, err
	}

	dsts := make([]netip.AddrPort, 0, len(c.Network.BroadcastPorts))
	for _, p := range c.Network.BroadcastPorts {
		dsts = append(dsts, netip.AddrPortFrom(ip, p))
	}
	return dsts, nil
}

func (c *Config) ConfigFile() string {
	return c.configFile
}
