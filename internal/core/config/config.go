// Package config handles configuration loading and validation for casa.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Recent list backends.
const (
	BackendPrefs  = "prefs"
	BackendSQLite = "sqlite"
	BackendMemory = "memory" // kept for the life of the process only
)

// Config holds the application configuration.
type Config struct {
	Recent  RecentConfig `yaml:"recent"`
	Push    PushConfig   `yaml:"push"`
	DataDir string       `yaml:"-"` // set by caller, not from config file
}

// RecentConfig configures the recent-search ledger.
type RecentConfig struct {
	// Capacity is the maximum number of searches kept.
	Capacity int `yaml:"capacity"`
	// FoldCase treats searches differing only in case as duplicates.
	FoldCase bool `yaml:"fold_case"`
	// Backend selects where the list is persisted (prefs, sqlite, memory).
	Backend string `yaml:"backend"`
	// Key is the preference key or SQLite list name.
	Key string `yaml:"key"`
	// Async persists writes on a background worker.
	Async bool `yaml:"async"`
	// SeedFrom names a second backend to hydrate from when the primary is empty.
	SeedFrom string `yaml:"seed_from"`
}

// PushConfig configures push token registration.
type PushConfig struct {
	Endpoint string        `yaml:"endpoint"` // backend base URL; empty caches tokens only
	Platform string        `yaml:"platform"`
	Timeout  time.Duration `yaml:"timeout"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Recent: RecentConfig{
			Capacity: 10,
			Backend:  BackendPrefs,
			Key:      "recent_searches",
		},
		Push: PushConfig{
			Platform: "android",
			Timeout:  10 * time.Second,
		},
	}
}

// Load reads and validates configuration. See Read.
func Load(configPath, dataDir string) (*Config, error) {
	cfg, err := Read(configPath, dataDir)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Read parses configuration from the given path, sets the data directory and
// fills defaults without validating. If configPath is empty or doesn't exist,
// returns defaults with the provided dataDir.
func Read(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.DataDir = dataDir
	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults fills zero values left by a partial config file.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Recent.Capacity == 0 {
		c.Recent.Capacity = defaults.Recent.Capacity
	}
	if c.Recent.Backend == "" {
		c.Recent.Backend = defaults.Recent.Backend
	}
	if c.Recent.Key == "" {
		c.Recent.Key = defaults.Recent.Key
	}
	if c.Push.Platform == "" {
		c.Push.Platform = defaults.Push.Platform
	}
	if c.Push.Timeout == 0 {
		c.Push.Timeout = defaults.Push.Timeout
	}
}

// PrefsFile returns the path to the preferences JSON file.
func (c *Config) PrefsFile() string {
	return filepath.Join(c.DataDir, "prefs.json")
}

// DatabaseFile returns the path to the SQLite database.
func (c *Config) DatabaseFile() string {
	return filepath.Join(c.DataDir, "casa.db")
}
