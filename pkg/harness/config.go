package harness

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// PortRange bounds the port chosen for a session. The default covers the
// IANA dynamic/private range.
type PortRange struct {
	Min int `toml:"min"`
	Max int `toml:"max"`
}

// pick chooses one port from the range.
func (p PortRange) pick() int {
	return p.Min + rand.IntN(p.Max-p.Min+1)
}

func (p PortRange) validate() error {
	if p.Min <= 0 || p.Max > 65535 || p.Min > p.Max {
		return fmt.Errorf("invalid port range %d-%d", p.Min, p.Max)
	}
	return nil
}

// ServerConfig describes the server binary under test.
type ServerConfig struct {
	// Binary is the server executable. Empty means the current process's
	// own executable (the re-exec pattern used by test binaries).
	Binary string `toml:"binary"`
	// Prefix is the HTTP context path the server is asked to mount under.
	Prefix string `toml:"prefix"`
	// ListenAddress is passed to the server; tests stay on loopback.
	ListenAddress string `toml:"listen_address"`
}

// Config carries harness defaults, loadable from harness.toml under the
// data dir. Every field has a working default so the file is optional.
type Config struct {
	Server ServerConfig `toml:"server"`
	Ports  PortRange    `toml:"ports"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Prefix:        "/app",
			ListenAddress: "127.0.0.1",
		},
		Ports: PortRange{Min: 49152, Max: 65535},
	}
}

// LoadConfig reads the config file at path, layering it over the
// defaults. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Ports.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}
