// ABOUTME: SyncOperation model for the durable offline mutation queue.
// ABOUTME: Queued intents are replayed in enqueue order and quarantined after repeated failure.
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Op is the kind of remote mutation a queued operation represents.
type Op string

const (
	OpCreate Op = "CREATE"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

// EntityType names the remote resource a queued operation targets.
type EntityType string

const (
	EntityMetric EntityType = "metric"
	EntityEntry  EntityType = "entry"
	EntityUser   EntityType = "user"
)

// SyncStatus is the lifecycle state of a queued operation.
type SyncStatus string

const (
	SyncPending    SyncStatus = "pending"
	SyncProcessing SyncStatus = "processing"
	SyncFailed     SyncStatus = "failed"
)

// MaxRetries is the retry ceiling: an operation failing this many times is
// frozen as failed and excluded from further drains. It is never deleted
// automatically so it stays inspectable.
const MaxRetries = 5

// SyncOperation is a durable record of an intended remote mutation awaiting
// confirmation. Timestamp is the enqueue time and the replay order key.
// EntityID is absent for CREATE (the server has not issued an ID yet).
type SyncOperation struct {
	ID             int64           `json:"id"`
	Operation      Op              `json:"operation"`
	Entity         EntityType      `json:"entity"`
	EntityID       *int64          `json:"entity_id,omitempty"`
	Data           json.RawMessage `json:"data"`
	IdempotencyKey string          `json:"idempotency_key"`
	Timestamp      int64           `json:"timestamp"`
	RetryCount     int             `json:"retry_count"`
	Status         SyncStatus      `json:"status"`
	Error          *string         `json:"error,omitempty"`
}

// NewSyncOperation builds a pending operation with a fresh idempotency key
// and the current time as its replay order key.
func NewSyncOperation(op Op, entity EntityType, data json.RawMessage, entityID *int64) *SyncOperation {
	return &SyncOperation{
		Operation:      op,
		Entity:         entity,
		EntityID:       entityID,
		Data:           data,
		IdempotencyKey: uuid.NewString(),
		Timestamp:      time.Now().UnixMilli(),
		RetryCount:     0,
		Status:         SyncPending,
	}
}
