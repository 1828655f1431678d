// ABOUTME: JSON snapshot export/import of the local cache.
// ABOUTME: Captures metrics, entries, queue, and settings for backup or inspection.
package storage

import (
	"encoding/json"
	"fmt"

	"github.com/harperreed/feelink/internal/models"
)

// Snapshot is a full JSON image of the local cache.
type Snapshot struct {
	Metrics  []*models.Metric        `json:"metrics"`
	Entries  []*models.Entry         `json:"entries"`
	Queue    []*models.SyncOperation `json:"sync_queue"`
	Settings []*models.Setting       `json:"settings"`
}

// ExportAll reads the entire cache into a snapshot.
func (d *DB) ExportAll() (*Snapshot, error) {
	metrics, err := d.AllMetrics()
	if err != nil {
		return nil, fmt.Errorf("export metrics: %w", err)
	}
	entries, err := d.AllEntries()
	if err != nil {
		return nil, fmt.Errorf("export entries: %w", err)
	}
	queue, err := d.AllOps()
	if err != nil {
		return nil, fmt.Errorf("export queue: %w", err)
	}
	settings, err := d.AllSettings()
	if err != nil {
		return nil, fmt.Errorf("export settings: %w", err)
	}
	return &Snapshot{Metrics: metrics, Entries: entries, Queue: queue, Settings: settings}, nil
}

// ExportJSON renders the snapshot as indented JSON.
func (d *DB) ExportJSON() ([]byte, error) {
	snap, err := d.ExportAll()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(snap, "", "  ")
}

// ImportAll upserts a snapshot's metrics, entries, and settings into the
// cache. Queue contents are not imported; replaying another device's
// mutation intents is never safe.
func (d *DB) ImportAll(snap *Snapshot) error {
	if err := d.PutMetrics(snap.Metrics); err != nil {
		return fmt.Errorf("import metrics: %w", err)
	}
	if err := d.PutEntries(snap.Entries); err != nil {
		return fmt.Errorf("import entries: %w", err)
	}
	for _, s := range snap.Settings {
		if err := d.SetSetting(s.Key, s.Value); err != nil {
			return fmt.Errorf("import settings: %w", err)
		}
	}
	return nil
}
