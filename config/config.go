// Package config holds the client settings shared by all subcommands.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const configFileName = "bitclient.json"

// Config is the client configuration. Zero values are filled from defaults,
// so a partial config file only needs the settings it changes.
type Config struct {
	// RepositoryURL is the base URL of the repository coordination service.
	RepositoryURL string `json:"repository_url"`

	// ExchangeURL is the base URL of the file exchange where transfer
	// artifacts are staged. The scheme selects the exchange backend.
	ExchangeURL string `json:"exchange_url"`

	// CollectionID is the default collection operated on.
	CollectionID string `json:"collection_id"`

	// MaxAttempts is the total number of submissions per file, including the
	// first one.
	MaxAttempts int `json:"max_attempts"`

	// Parallelism bounds the number of in-flight transfer operations.
	Parallelism int `json:"parallelism"`

	// PageSize caps checksum records per listing query.
	PageSize int `json:"page_size"`

	// StateDir holds the transfer journal.
	StateDir string `json:"state_dir"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `json:"log_level"`

	// GCSCredentials is a service account key file for gs:// exchanges.
	// Empty means application default credentials.
	GCSCredentials string `json:"gcs_credentials,omitempty"`
}

// NewConfig creates a config with default values.
func NewConfig() *Config {
	return &Config{
		RepositoryURL: "http://localhost:8080",
		ExchangeURL:   "http://localhost:8081/dav",
		CollectionID:  "books",
		MaxAttempts:   3,
		Parallelism:   4,
		PageSize:      10000,
		StateDir:      defaultStateDir(),
		LogLevel:      "info",
	}
}

func defaultStateDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(configDir, "bitclient")
}

// Load reads the config at path on top of the defaults. An empty path means
// defaults only; a missing file is an error, the caller asked for it
// explicitly.
func Load(path string) (*Config, error) {
	cfg := NewConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %q: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %q: %w", path, err)
	}
	return cfg, cfg.validate()
}

// Save writes the config to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// DefaultPath is where the config lives when no path is given on the command
// line.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return configFileName
	}
	return filepath.Join(configDir, "bitclient", configFileName)
}

func (c *Config) validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.Parallelism < 1 {
		return fmt.Errorf("parallelism must be at least 1, got %d", c.Parallelism)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("page_size must be at least 1, got %d", c.PageSize)
	}
	return nil
}
