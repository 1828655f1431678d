// ABOUTME: Metric cache operations: upsert, reads, and archived filtering.
// ABOUTME: Upserts are idempotent; applying the same record twice yields the same state.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/harperreed/feelink/internal/models"
)

const metricColumns = `id, user_id, name_key, category, value_type, min_value, max_value,
	description, color, icon, display_order, archived, created_at, updated_at`

// PutMetric upserts a metric by primary key.
func (d *DB) PutMetric(m *models.Metric) error {
	return d.inTx(func(tx *sql.Tx) error {
		return putMetricTx(tx, m)
	})
}

// PutMetrics upserts a batch of metrics in one transaction.
func (d *DB) PutMetrics(metrics []*models.Metric) error {
	return d.inTx(func(tx *sql.Tx) error {
		for _, m := range metrics {
			if err := putMetricTx(tx, m); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceMetrics clears the metric cache and writes the fresh set in one
// transaction. Used when an online load mirrors server truth.
func (d *DB) ReplaceMetrics(metrics []*models.Metric) error {
	return d.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM metrics"); err != nil {
			return fmt.Errorf("clear metrics: %w", err)
		}
		for _, m := range metrics {
			if err := putMetricTx(tx, m); err != nil {
				return err
			}
		}
		return nil
	})
}

func putMetricTx(tx *sql.Tx, m *models.Metric) error {
	_, err := tx.Exec(`
		INSERT INTO metrics (`+metricColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			name_key = excluded.name_key,
			category = excluded.category,
			value_type = excluded.value_type,
			min_value = excluded.min_value,
			max_value = excluded.max_value,
			description = excluded.description,
			color = excluded.color,
			icon = excluded.icon,
			display_order = excluded.display_order,
			archived = excluded.archived,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`,
		m.ID, m.UserID, m.NameKey, string(m.Category), string(m.ValueType),
		m.MinValue, m.MaxValue, m.Description, m.Color, m.Icon,
		m.DisplayOrder, boolToInt(m.Archived),
		m.CreatedAt.Format(time.RFC3339), m.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("put metric: %w", err)
	}
	return nil
}

// GetMetric retrieves a metric by ID. Returns ErrNotFound if absent.
func (d *DB) GetMetric(id int64) (*models.Metric, error) {
	row := d.db.QueryRow(`SELECT `+metricColumns+` FROM metrics WHERE id = ?`, id)
	m, err := scanMetric(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return m, err
}

// AllMetrics returns every cached metric ordered by display order.
func (d *DB) AllMetrics() ([]*models.Metric, error) {
	rows, err := d.db.Query(`SELECT ` + metricColumns + ` FROM metrics ORDER BY display_order, id`)
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	defer rows.Close()
	return scanMetrics(rows)
}

// ActiveMetrics returns the non-archived subset. The filter is a value scan
// over all rows rather than an indexed boolean predicate so the outcome
// does not depend on how the engine indexes booleans.
func (d *DB) ActiveMetrics() ([]*models.Metric, error) {
	all, err := d.AllMetrics()
	if err != nil {
		return nil, err
	}
	active := make([]*models.Metric, 0, len(all))
	for _, m := range all {
		if !m.Archived {
			active = append(active, m)
		}
	}
	return active, nil
}

// DeleteMetric removes a metric from the cache.
func (d *DB) DeleteMetric(id int64) error {
	_, err := d.db.Exec("DELETE FROM metrics WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete metric: %w", err)
	}
	return nil
}

// ClearMetrics wipes the metric cache. Irreversible.
func (d *DB) ClearMetrics() error {
	_, err := d.db.Exec("DELETE FROM metrics")
	if err != nil {
		return fmt.Errorf("clear metrics: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMetric(row rowScanner) (*models.Metric, error) {
	var m models.Metric
	var category, valueType, createdAt, updatedAt string
	var archived int
	err := row.Scan(&m.ID, &m.UserID, &m.NameKey, &category, &valueType,
		&m.MinValue, &m.MaxValue, &m.Description, &m.Color, &m.Icon,
		&m.DisplayOrder, &archived, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	m.Category = models.Category(category)
	m.ValueType = models.ValueType(valueType)
	m.Archived = archived != 0
	m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	m.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &m, nil
}

func scanMetrics(rows *sql.Rows) ([]*models.Metric, error) {
	var metrics []*models.Metric
	for rows.Next() {
		m, err := scanMetric(rows)
		if err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
