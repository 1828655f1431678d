// ABOUTME: Credential storage: access and refresh token slots persisted to disk.
// ABOUTME: Written at login/refresh, cleared at logout or irrecoverable refresh failure.
package api

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Credentials holds the two token slots the remote API issues.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// CredentialStore persists credentials as a JSON file. Safe for concurrent
// use from multiple goroutines.
type CredentialStore struct {
	mu    sync.Mutex
	path  string
	creds Credentials
}

// DefaultCredentialsPath returns the credential file path under XDG config.
func DefaultCredentialsPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "feelink", "credentials.json")
}

// OpenCredentialStore loads any existing credentials from disk. A missing
// file means logged out, not an error.
func OpenCredentialStore(path string) (*CredentialStore, error) {
	s := &CredentialStore{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	if err := json.Unmarshal(data, &s.creds); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return s, nil
}

// Get returns the current credentials.
func (s *CredentialStore) Get() Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds
}

// Set persists new credentials to disk.
func (s *CredentialStore) Set(creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	if err := os.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(s.creds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

// Clear wipes both slots and removes the file.
func (s *CredentialStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = Credentials{}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}
