package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	want := DefaultConfig()
	if cfg != want {
		t.Errorf("LoadConfig() = %+v, want %+v", cfg, want)
	}
	if cfg.Ports.Min != 49152 || cfg.Ports.Max != 65535 {
		t.Errorf("default port range = %d-%d, want 49152-65535", cfg.Ports.Min, cfg.Ports.Max)
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "harness.toml")
	content := `
[server]
binary = "/opt/server/bin/server"
prefix = "/jenkins"

[ports]
min = 50000
max = 51000
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Server.Binary != "/opt/server/bin/server" {
		t.Errorf("Binary = %q, want %q", cfg.Server.Binary, "/opt/server/bin/server")
	}
	if cfg.Server.Prefix != "/jenkins" {
		t.Errorf("Prefix = %q, want %q", cfg.Server.Prefix, "/jenkins")
	}
	// Unset fields keep defaults.
	if cfg.Server.ListenAddress != "127.0.0.1" {
		t.Errorf("ListenAddress = %q, want %q", cfg.Server.ListenAddress, "127.0.0.1")
	}
	if cfg.Ports.Min != 50000 || cfg.Ports.Max != 51000 {
		t.Errorf("port range = %d-%d, want 50000-51000", cfg.Ports.Min, cfg.Ports.Max)
	}
}

func TestLoadConfig_InvalidPortRange(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "harness.toml")
	if err := os.WriteFile(path, []byte("[ports]\nmin = 6000\nmax = 5000\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "invalid port range") {
		t.Errorf("LoadConfig() error = %v, want invalid port range", err)
	}
}

func TestPortRangePick(t *testing.T) {
	t.Parallel()

	r := PortRange{Min: 49152, Max: 65535}
	for range 100 {
		p := r.pick()
		if p < r.Min || p > r.Max {
			t.Fatalf("pick() = %d, outside %d-%d", p, r.Min, r.Max)
		}
	}

	single := PortRange{Min: 50123, Max: 50123}
	if p := single.pick(); p != 50123 {
		t.Errorf("pick() = %d, want 50123", p)
	}
}
