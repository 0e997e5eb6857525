package harness

import (
	"fmt"
	"os"
	"path/filepath"
)

// dataDirName is the default controller-side state directory under $HOME.
const dataDirName = ".jth"

// Paths holds all resolved harness state file paths.
// Use ResolvePaths() to populate this struct with defaults + env overrides.
type Paths struct {
	DataDir     string // ~/.jth or JTH_DATA_DIR
	SessionsDir string // sessions/ under DataDir
	JournalPath string // journal.db or JTH_JOURNAL_PATH
	ConfigPath  string // harness.toml or JTH_CONFIG_PATH
}

// ResolvePaths returns all harness paths, respecting env var overrides.
// Environment variables:
//   - JTH_DATA_DIR: base directory for controller state (default: ~/.jth)
//   - JTH_JOURNAL_PATH: launch journal database (default: $JTH_DATA_DIR/journal.db)
//   - JTH_CONFIG_PATH: harness config file (default: $JTH_DATA_DIR/harness.toml)
//
// If JTH_DATA_DIR is set, it becomes the base for all default paths.
// Specific env vars override both the default and the data-dir base.
func ResolvePaths() (*Paths, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, err
	}

	return &Paths{
		DataDir:     dataDir,
		SessionsDir: filepath.Join(dataDir, "sessions"),
		JournalPath: resolvePathWithEnv("JTH_JOURNAL_PATH", dataDir, "journal.db"),
		ConfigPath:  resolvePathWithEnv("JTH_CONFIG_PATH", dataDir, "harness.toml"),
	}, nil
}

// resolveDataDir returns the harness data directory from JTH_DATA_DIR or ~/.jth.
func resolveDataDir() (string, error) {
	if v := os.Getenv("JTH_DATA_DIR"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, dataDirName), nil
}

// resolvePathWithEnv returns the path from envKey if set, otherwise joins base + suffix.
func resolvePathWithEnv(envKey, base, suffix string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return filepath.Join(base, suffix)
}
