// ABOUTME: Entry cache operations: upsert with child values, date lookups, range queries.
// ABOUTME: Range queries are inclusive on both endpoints.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/harperreed/feelink/internal/models"
)

// PutEntry upserts an entry and its values by primary key. The entry's value
// rows are replaced wholesale inside one transaction, so re-applying the
// same record yields the same stored state.
func (d *DB) PutEntry(e *models.Entry) error {
	return d.inTx(func(tx *sql.Tx) error {
		return putEntryTx(tx, e)
	})
}

// PutEntries upserts a batch of entries in one transaction.
func (d *DB) PutEntries(entries []*models.Entry) error {
	return d.inTx(func(tx *sql.Tx) error {
		for _, e := range entries {
			if err := putEntryTx(tx, e); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceEntries clears the entry cache and writes the fresh set in one
// transaction. Used when an online load mirrors server truth.
func (d *DB) ReplaceEntries(entries []*models.Entry) error {
	return d.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM entries"); err != nil {
			return fmt.Errorf("clear entries: %w", err)
		}
		for _, e := range entries {
			if err := putEntryTx(tx, e); err != nil {
				return err
			}
		}
		return nil
	})
}

func putEntryTx(tx *sql.Tx, e *models.Entry) error {
	_, err := tx.Exec(`
		INSERT INTO entries (id, user_id, entry_date, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			entry_date = excluded.entry_date,
			notes = excluded.notes,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`,
		e.ID, e.UserID, e.EntryDate, e.Notes,
		e.CreatedAt.Format(time.RFC3339), e.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("put entry: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM entry_values WHERE entry_id = ?", e.ID); err != nil {
		return fmt.Errorf("replace entry values: %w", err)
	}
	for _, v := range e.Values {
		var boolVal any
		if v.ValueBoolean != nil {
			boolVal = boolToInt(*v.ValueBoolean)
		}
		_, err := tx.Exec(`
			INSERT INTO entry_values (id, entry_id, metric_id, value_numeric, value_boolean, value_text, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			v.ID, e.ID, v.MetricID, v.ValueNumeric, boolVal, v.ValueText,
			v.CreatedAt.Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("put entry value: %w", err)
		}
	}
	return nil
}

// GetEntry retrieves an entry with its values by ID. Returns ErrNotFound
// if absent.
func (d *DB) GetEntry(id int64) (*models.Entry, error) {
	row := d.db.QueryRow(`
		SELECT id, user_id, entry_date, notes, created_at, updated_at
		FROM entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := d.loadValues(e); err != nil {
		return nil, err
	}
	return e, nil
}

// GetEntryByDate retrieves the entry for a calendar date. One entry per date
// is an invariant enforced here on the read path: the first match wins.
func (d *DB) GetEntryByDate(date string) (*models.Entry, error) {
	row := d.db.QueryRow(`
		SELECT id, user_id, entry_date, notes, created_at, updated_at
		FROM entries WHERE entry_date = ? ORDER BY id LIMIT 1`, date)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := d.loadValues(e); err != nil {
		return nil, err
	}
	return e, nil
}

// AllEntries returns every cached entry, most recent date first.
func (d *DB) AllEntries() ([]*models.Entry, error) {
	rows, err := d.db.Query(`
		SELECT id, user_id, entry_date, notes, created_at, updated_at
		FROM entries ORDER BY entry_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()
	return d.scanEntriesWithValues(rows)
}

// EntriesInRange returns entries with entry_date in [from, to], both
// endpoints inclusive, most recent first. Dates use models.DateFormat so
// lexical comparison matches calendar order.
func (d *DB) EntriesInRange(from, to string) ([]*models.Entry, error) {
	rows, err := d.db.Query(`
		SELECT id, user_id, entry_date, notes, created_at, updated_at
		FROM entries WHERE entry_date >= ? AND entry_date <= ?
		ORDER BY entry_date DESC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("entries in range: %w", err)
	}
	defer rows.Close()
	return d.scanEntriesWithValues(rows)
}

// DeleteEntry removes an entry and its values from the cache.
func (d *DB) DeleteEntry(id int64) error {
	return d.inTx(func(tx *sql.Tx) error {
		// Cascade covers entry_values, but delete explicitly in case
		// foreign_keys is off on a foreign connection.
		if _, err := tx.Exec("DELETE FROM entry_values WHERE entry_id = ?", id); err != nil {
			return fmt.Errorf("delete entry values: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM entries WHERE id = ?", id); err != nil {
			return fmt.Errorf("delete entry: %w", err)
		}
		return nil
	})
}

// ClearEntries wipes the entry cache. Irreversible.
func (d *DB) ClearEntries() error {
	return d.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM entry_values"); err != nil {
			return fmt.Errorf("clear entry values: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM entries"); err != nil {
			return fmt.Errorf("clear entries: %w", err)
		}
		return nil
	})
}

func (d *DB) scanEntriesWithValues(rows *sql.Rows) ([]*models.Entry, error) {
	var entries []*models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, e := range entries {
		if err := d.loadValues(e); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (d *DB) loadValues(e *models.Entry) error {
	rows, err := d.db.Query(`
		SELECT id, entry_id, metric_id, value_numeric, value_boolean, value_text, created_at
		FROM entry_values WHERE entry_id = ? ORDER BY id`, e.ID)
	if err != nil {
		return fmt.Errorf("load entry values: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v models.EntryValue
		var boolVal sql.NullInt64
		var createdAt string
		if err := rows.Scan(&v.ID, &v.EntryID, &v.MetricID, &v.ValueNumeric,
			&boolVal, &v.ValueText, &createdAt); err != nil {
			return fmt.Errorf("scan entry value: %w", err)
		}
		if boolVal.Valid {
			b := boolVal.Int64 != 0
			v.ValueBoolean = &b
		}
		v.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		e.Values = append(e.Values, v)
	}
	return rows.Err()
}

func scanEntry(row rowScanner) (*models.Entry, error) {
	var e models.Entry
	var createdAt, updatedAt string
	err := row.Scan(&e.ID, &e.UserID, &e.EntryDate, &e.Notes, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &e, nil
}
