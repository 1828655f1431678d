// ABOUTME: User profile model and local user settings.
// ABOUTME: Settings are local-only preferences, last-write-wins, never synced.
package models

import (
	"encoding/json"
	"time"
)

// User is the remote account profile.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name,omitempty"`
	Language  string    `json:"language"`
	Timezone  string    `json:"timezone"`
	CreatedAt time.Time `json:"created_at"`
}

// Setting is a local key/value preference (e.g. theme). Last write wins.
type Setting struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt int64           `json:"updated_at"`
}
