// ABOUTME: Local user settings: flat key/value preferences with LWW semantics.
// ABOUTME: Settings never enter the sync queue.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harperreed/feelink/internal/models"
)

// SetSetting upserts a preference value. Last write wins.
func (d *DB) SetSetting(key string, value json.RawMessage) error {
	_, err := d.db.Exec(`
		INSERT INTO user_settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		key, string(value), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	return nil
}

// GetSetting retrieves a preference. Returns ErrNotFound if absent.
func (d *DB) GetSetting(key string) (*models.Setting, error) {
	var s models.Setting
	var value string
	err := d.db.QueryRow(`
		SELECT key, value, updated_at FROM user_settings WHERE key = ?`, key).
		Scan(&s.Key, &value, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get setting: %w", err)
	}
	s.Value = json.RawMessage(value)
	return &s, nil
}

// AllSettings returns every stored preference.
func (d *DB) AllSettings() ([]*models.Setting, error) {
	rows, err := d.db.Query(`SELECT key, value, updated_at FROM user_settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []*models.Setting
	for rows.Next() {
		var s models.Setting
		var value string
		if err := rows.Scan(&s.Key, &value, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		s.Value = json.RawMessage(value)
		settings = append(settings, &s)
	}
	return settings, rows.Err()
}

// DeleteSetting removes a preference.
func (d *DB) DeleteSetting(key string) error {
	_, err := d.db.Exec(`DELETE FROM user_settings WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete setting: %w", err)
	}
	return nil
}
