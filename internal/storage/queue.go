// ABOUTME: Durable sync queue operations: enqueue, FIFO reads, retry bookkeeping.
// ABOUTME: Pending operations are returned in ascending timestamp order for replay.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/harperreed/feelink/internal/models"
)

const queueColumns = `id, operation, entity, entity_id, data, idempotency_key,
	timestamp, retry_count, status, error`

// EnqueueOp appends a sync operation to the durable queue and fills in its
// assigned ID.
func (d *DB) EnqueueOp(op *models.SyncOperation) error {
	res, err := d.db.Exec(`
		INSERT INTO sync_queue (operation, entity, entity_id, data, idempotency_key,
			timestamp, retry_count, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(op.Operation), string(op.Entity), op.EntityID, string(op.Data),
		op.IdempotencyKey, op.Timestamp, op.RetryCount, string(op.Status), op.Error,
	)
	if err != nil {
		return fmt.Errorf("enqueue operation: %w", err)
	}
	op.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("enqueue operation: %w", err)
	}
	return nil
}

// PendingOps returns pending operations in ascending timestamp order, the
// FIFO replay order for a drain pass.
func (d *DB) PendingOps() ([]*models.SyncOperation, error) {
	return d.opsByStatus(models.SyncPending)
}

// FailedOps returns quarantined operations, oldest first. They are retained
// for inspection and never drained again automatically.
func (d *DB) FailedOps() ([]*models.SyncOperation, error) {
	return d.opsByStatus(models.SyncFailed)
}

func (d *DB) opsByStatus(status models.SyncStatus) ([]*models.SyncOperation, error) {
	rows, err := d.db.Query(`
		SELECT `+queueColumns+` FROM sync_queue
		WHERE status = ? ORDER BY timestamp ASC, id ASC`, string(status))
	if err != nil {
		return nil, fmt.Errorf("query sync queue: %w", err)
	}
	defer rows.Close()
	return scanOps(rows)
}

// AllOps returns the entire queue in replay order regardless of status.
func (d *DB) AllOps() ([]*models.SyncOperation, error) {
	rows, err := d.db.Query(`SELECT ` + queueColumns + ` FROM sync_queue ORDER BY timestamp ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query sync queue: %w", err)
	}
	defer rows.Close()
	return scanOps(rows)
}

// CountPending returns the number of pending operations.
func (d *DB) CountPending() (int, error) {
	var n int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM sync_queue WHERE status = ?`,
		string(models.SyncPending)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending: %w", err)
	}
	return n, nil
}

// SetOpStatus updates an operation's lifecycle state.
func (d *DB) SetOpStatus(id int64, status models.SyncStatus) error {
	_, err := d.db.Exec(`UPDATE sync_queue SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("set operation status: %w", err)
	}
	return nil
}

// RecordOpFailure writes retry bookkeeping after a failed replay: the new
// retry count, the resulting status, and the error message.
func (d *DB) RecordOpFailure(id int64, retryCount int, status models.SyncStatus, errMsg string) error {
	_, err := d.db.Exec(`
		UPDATE sync_queue SET retry_count = ?, status = ?, error = ? WHERE id = ?`,
		retryCount, string(status), errMsg, id)
	if err != nil {
		return fmt.Errorf("record operation failure: %w", err)
	}
	return nil
}

// RequeueProcessing returns operations stuck at processing to pending. A
// crash between bookkeeping writes can strand rows there, invisible to both
// the pending and failed queries.
func (d *DB) RequeueProcessing() error {
	_, err := d.db.Exec(`UPDATE sync_queue SET status = ? WHERE status = ?`,
		string(models.SyncPending), string(models.SyncProcessing))
	if err != nil {
		return fmt.Errorf("requeue processing: %w", err)
	}
	return nil
}

// DeleteOp removes a confirmed operation from the queue.
func (d *DB) DeleteOp(id int64) error {
	_, err := d.db.Exec(`DELETE FROM sync_queue WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete operation: %w", err)
	}
	return nil
}

// ClearQueue destructively removes all queued operations regardless of
// status. An escape hatch, not part of normal operation.
func (d *DB) ClearQueue() error {
	_, err := d.db.Exec(`DELETE FROM sync_queue`)
	if err != nil {
		return fmt.Errorf("clear queue: %w", err)
	}
	return nil
}

func scanOps(rows *sql.Rows) ([]*models.SyncOperation, error) {
	var ops []*models.SyncOperation
	for rows.Next() {
		var op models.SyncOperation
		var operation, entity, status, data string
		if err := rows.Scan(&op.ID, &operation, &entity, &op.EntityID, &data,
			&op.IdempotencyKey, &op.Timestamp, &op.RetryCount, &status, &op.Error); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		op.Operation = models.Op(operation)
		op.Entity = models.EntityType(entity)
		op.Status = models.SyncStatus(status)
		op.Data = json.RawMessage(data)
		ops = append(ops, &op)
	}
	return ops, rows.Err()
}
