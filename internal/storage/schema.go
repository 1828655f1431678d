// ABOUTME: SQLite schema definition and initialization for the local cache.
// ABOUTME: Defines tables for metrics, entries, entry values, sync queue, and settings.
package storage

// initSchema creates or updates the database schema.
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS metrics (
		id INTEGER PRIMARY KEY,
		user_id INTEGER NOT NULL,
		name_key TEXT NOT NULL,
		category TEXT NOT NULL,
		value_type TEXT NOT NULL,
		min_value REAL,
		max_value REAL,
		description TEXT,
		color TEXT,
		icon TEXT,
		display_order INTEGER NOT NULL DEFAULT 0,
		archived INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY,
		user_id INTEGER NOT NULL,
		entry_date TEXT NOT NULL,
		notes TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS entry_values (
		id INTEGER PRIMARY KEY,
		entry_id INTEGER NOT NULL,
		metric_id INTEGER NOT NULL,
		value_numeric REAL,
		value_boolean INTEGER,
		value_text TEXT,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (entry_id) REFERENCES entries(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS sync_queue (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		operation TEXT NOT NULL,
		entity TEXT NOT NULL,
		entity_id INTEGER,
		data TEXT NOT NULL,
		idempotency_key TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		retry_count INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'pending',
		error TEXT
	);

	CREATE TABLE IF NOT EXISTS user_settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_metrics_display ON metrics(display_order);
	CREATE INDEX IF NOT EXISTS idx_entries_date ON entries(entry_date);
	CREATE INDEX IF NOT EXISTS idx_entry_values_entry ON entry_values(entry_id);
	CREATE INDEX IF NOT EXISTS idx_queue_status_ts ON sync_queue(status, timestamp);
	`

	_, err := d.db.Exec(schema)
	return err
}
