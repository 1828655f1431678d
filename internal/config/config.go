// ABOUTME: Feelink configuration management: server URL, data directory, log level.
// ABOUTME: JSON file at the XDG config path with ~ expansion.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harperreed/feelink/internal/storage"
)

// DefaultServer is the remote API base URL used when none is configured.
const DefaultServer = "http://localhost:8000"

// Config stores feelink tool configuration.
type Config struct {
	// Server is the remote API base URL.
	Server string `json:"server,omitempty"`

	// DataDir is the root directory for the local cache database.
	// Supports ~ expansion. Defaults to ~/.local/share/feelink.
	DataDir string `json:"data_dir,omitempty"`

	// LogLevel sets diagnostic verbosity: debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`
}

// GetServer returns the configured server URL, defaulting to DefaultServer.
func (c *Config) GetServer() string {
	if c.Server == "" {
		return DefaultServer
	}
	return strings.TrimRight(c.Server, "/")
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return storage.DataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetLogLevel returns the configured log level, defaulting to "warn".
func (c *Config) GetLogLevel() string {
	if c.LogLevel == "" {
		return "warn"
	}
	return c.LogLevel
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStorage opens the local cache database under the configured data
// directory.
func (c *Config) OpenStorage() (*storage.DB, error) {
	return storage.Open(filepath.Join(c.GetDataDir(), "feelink.db"))
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "feelink", "config.json")
}

// Load reads config from disk. A missing file yields defaults.
func Load() (*Config, error) {
	path := GetConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
