// ABOUTME: Tests for configuration loading, defaults, and path expansion.
// ABOUTME: Uses XDG_CONFIG_HOME overrides to isolate the filesystem.
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetServerDefaults(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, DefaultServer, cfg.GetServer())

	cfg.Server = "https://feelink.example.com/"
	assert.Equal(t, "https://feelink.example.com", cfg.GetServer())
}

func TestGetLogLevelDefaults(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, "warn", cfg.GetLogLevel())

	cfg.LogLevel = "debug"
	assert.Equal(t, "debug", cfg.GetLogLevel())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "data"), ExpandPath("~/data"))
	assert.Equal(t, "/absolute/path", ExpandPath("/absolute/path"))
	assert.Equal(t, "", ExpandPath(""))
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultServer, cfg.GetServer())
	assert.Equal(t, "warn", cfg.GetLogLevel())
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := &Config{
		Server:   "https://feelink.example.com",
		LogLevel: "debug",
	}
	require.NoError(t, cfg.Save())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://feelink.example.com", loaded.Server)
	assert.Equal(t, "debug", loaded.LogLevel)
}

func TestLoadRejectsMalformedConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "feelink"), 0750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "feelink", "config.json"), []byte("not json"), 0600))

	_, err := Load()
	assert.Error(t, err)
}

func TestOpenStorageUsesDataDir(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{DataDir: dir}

	db, err := cfg.OpenStorage()
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(filepath.Join(dir, "feelink.db"))
	require.NoError(t, err)
}
