// ABOUTME: Sync engine: drains the durable mutation queue against the remote API.
// ABOUTME: Single-drain discipline, retry ceiling with failure quarantine, 30s online poll.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/feelink/internal/api"
	"github.com/harperreed/feelink/internal/models"
	"github.com/harperreed/feelink/internal/observe"
	"github.com/harperreed/feelink/internal/storage"
)

// DefaultInterval is the fixed auto-drain cadence while online. Retry
// pacing rides on this poll; there is no per-operation backoff.
const DefaultInterval = 30 * time.Second

// enqueueDrainDelay is how long after an online enqueue the engine waits
// before attempting a drain, so bursts of mutations coalesce into one pass.
const enqueueDrainDelay = 100 * time.Millisecond

// Remote is the subset of the API client the engine replays queued
// operations against. Narrowed to an interface so tests can count calls.
type Remote interface {
	CreateMetric(ctx context.Context, payload any, opts ...api.RequestOption) (*models.Metric, error)
	UpdateMetric(ctx context.Context, id int64, payload any, opts ...api.RequestOption) (*models.Metric, error)
	ArchiveMetric(ctx context.Context, id int64, opts ...api.RequestOption) error
	CreateEntry(ctx context.Context, payload any, opts ...api.RequestOption) (*models.Entry, error)
	UpdateEntry(ctx context.Context, id int64, payload any, opts ...api.RequestOption) (*models.Entry, error)
	DeleteEntry(ctx context.Context, id int64, opts ...api.RequestOption) error
	UpdateMe(ctx context.Context, payload any, opts ...api.RequestOption) (*models.User, error)
	DeleteMe(ctx context.Context, opts ...api.RequestOption) error
}

// Status is the engine's published snapshot.
type Status struct {
	Online       bool
	Syncing      bool
	PendingCount int
	LastSyncTime *time.Time
	Error        *string
}

// Engine owns the mutation queue: it appends operations, drains them in
// enqueue order when online, applies the retry/quarantine policy, and
// publishes status through an observable container.
type Engine struct {
	store  *storage.DB
	remote Remote
	log    *log.Logger

	interval time.Duration
	status   *observe.Value[Status]

	online   atomic.Bool
	draining atomic.Bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithInterval overrides the auto-drain cadence, mainly for tests.
func WithInterval(d time.Duration) EngineOption {
	return func(e *Engine) { e.interval = d }
}

// WithLogger sets the engine's logger.
func WithLogger(l *log.Logger) EngineOption {
	return func(e *Engine) { e.log = l }
}

// NewEngine builds an engine over the local store and remote client.
func NewEngine(store *storage.DB, remote Remote, opts ...EngineOption) *Engine {
	e := &Engine{
		store:    store,
		remote:   remote,
		log:      log.Default(),
		interval: DefaultInterval,
		status:   observe.New(Status{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.refreshPendingCount()
	return e
}

// StatusValue returns the observable status container for subscription.
func (e *Engine) StatusValue() *observe.Value[Status] {
	return e.status
}

// Status returns the current status snapshot.
func (e *Engine) Status() Status {
	return e.status.Get()
}

// SetOnline records a connectivity transition. Going from offline to online
// triggers an async drain attempt.
func (e *Engine) SetOnline(online bool) {
	was := e.online.Swap(online)
	e.status.Update(func(s Status) Status {
		s.Online = online
		if !online {
			s.Syncing = false
		}
		return s
	})
	if online && !was {
		e.log.Info("connectivity restored, draining queue")
		go func() { _ = e.DrainQueue(context.Background()) }()
	}
}

// Online reports the last recorded connectivity state.
func (e *Engine) Online() bool {
	return e.online.Load()
}

// Enqueue appends a pending operation to the durable queue. If currently
// online, a drain attempt is scheduled shortly afterward.
func (e *Engine) Enqueue(op models.Op, entity models.EntityType, data json.RawMessage, entityID *int64) (*models.SyncOperation, error) {
	syncOp := models.NewSyncOperation(op, entity, data, entityID)
	if err := e.store.EnqueueOp(syncOp); err != nil {
		return nil, fmt.Errorf("enqueue %s %s: %w", op, entity, err)
	}
	e.refreshPendingCount()
	e.log.Debug("enqueued operation", "op", op, "entity", entity, "id", syncOp.ID)

	if e.online.Load() {
		go func() {
			time.Sleep(enqueueDrainDelay)
			_ = e.DrainQueue(context.Background())
		}()
	}
	return syncOp, nil
}

// DrainQueue sweeps currently-pending operations in enqueue order. It is a
// no-op when offline or when a drain is already in progress; overlapping
// drains would duplicate remote calls for the same operation. Operations
// enqueued while a pass runs wait for the next trigger. A failure on one
// operation does not block the rest of the pass.
func (e *Engine) DrainQueue(ctx context.Context) error {
	if !e.online.Load() {
		return nil
	}
	if !e.draining.CompareAndSwap(false, true) {
		return nil
	}
	// Guard must be released on every exit path or the queue wedges.
	defer func() {
		e.draining.Store(false)
		e.status.Update(func(s Status) Status {
			s.Syncing = false
			return s
		})
		e.refreshPendingCount()
	}()

	e.status.Update(func(s Status) Status {
		s.Syncing = true
		s.Error = nil
		return s
	})

	// Recover rows stranded at processing by an earlier pass that died
	// mid-bookkeeping; left alone they would never drain or quarantine.
	if err := e.store.RequeueProcessing(); err != nil {
		msg := err.Error()
		e.status.Update(func(s Status) Status {
			s.Error = &msg
			return s
		})
		return fmt.Errorf("requeue stranded operations: %w", err)
	}

	ops, err := e.store.PendingOps()
	if err != nil {
		msg := err.Error()
		e.status.Update(func(s Status) Status {
			s.Error = &msg
			return s
		})
		return fmt.Errorf("load pending operations: %w", err)
	}

	for _, op := range ops {
		if err := e.store.SetOpStatus(op.ID, models.SyncProcessing); err != nil {
			e.recordFailure(op, fmt.Errorf("mark processing: %w", err))
			continue
		}

		if err := e.execute(ctx, op); err != nil {
			e.recordFailure(op, err)
			continue
		}

		if err := e.store.DeleteOp(op.ID); err != nil {
			// The remote call succeeded; returning the op to pending replays
			// it, which the idempotency key makes safe.
			e.recordFailure(op, fmt.Errorf("remove confirmed operation: %w", err))
			continue
		}
		e.log.Debug("operation confirmed", "op", op.Operation, "entity", op.Entity, "id", op.ID)
	}

	now := time.Now()
	e.status.Update(func(s Status) Status {
		s.LastSyncTime = &now
		return s
	})
	return nil
}

// ForceSyncNow triggers an immediate drain if online; otherwise a no-op.
func (e *Engine) ForceSyncNow(ctx context.Context) error {
	if !e.online.Load() {
		return nil
	}
	return e.DrainQueue(ctx)
}

// ClearQueue destructively removes all queued operations regardless of
// status. An escape hatch, not part of normal operation.
func (e *Engine) ClearQueue() error {
	if err := e.store.ClearQueue(); err != nil {
		return err
	}
	e.refreshPendingCount()
	return nil
}

// Start runs the fixed-interval auto-drain until ctx is cancelled.
func (e *Engine) Start(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if e.online.Load() {
				_ = e.DrainQueue(ctx)
			}
		}
	}
}

// execute translates a queued operation into the corresponding remote call.
func (e *Engine) execute(ctx context.Context, op *models.SyncOperation) error {
	idem := api.WithIdempotencyKey(op.IdempotencyKey)

	switch op.Entity {
	case models.EntityMetric:
		switch {
		case op.Operation == models.OpCreate:
			_, err := e.remote.CreateMetric(ctx, op.Data, idem)
			return err
		case op.Operation == models.OpUpdate && op.EntityID != nil:
			_, err := e.remote.UpdateMetric(ctx, *op.EntityID, op.Data, idem)
			return err
		case op.Operation == models.OpDelete && op.EntityID != nil:
			return e.remote.ArchiveMetric(ctx, *op.EntityID, idem)
		}
	case models.EntityEntry:
		switch {
		case op.Operation == models.OpCreate:
			_, err := e.remote.CreateEntry(ctx, op.Data, idem)
			return err
		case op.Operation == models.OpUpdate && op.EntityID != nil:
			_, err := e.remote.UpdateEntry(ctx, *op.EntityID, op.Data, idem)
			return err
		case op.Operation == models.OpDelete && op.EntityID != nil:
			return e.remote.DeleteEntry(ctx, *op.EntityID, idem)
		}
	case models.EntityUser:
		switch op.Operation {
		case models.OpUpdate:
			_, err := e.remote.UpdateMe(ctx, op.Data, idem)
			return err
		case models.OpDelete:
			return e.remote.DeleteMe(ctx, idem)
		}
	default:
		return fmt.Errorf("unknown entity type: %s", op.Entity)
	}

	// UPDATE/DELETE with no entity id has nothing to target; drop it.
	return nil
}

// recordFailure applies the retry policy after a failed replay: below the
// ceiling the operation returns to pending for the next pass; at the
// ceiling it is frozen as failed with the error message, retained for
// inspection and excluded from further drains.
func (e *Engine) recordFailure(op *models.SyncOperation, cause error) {
	retries := op.RetryCount + 1
	status := models.SyncPending
	if retries >= models.MaxRetries {
		status = models.SyncFailed
		e.log.Warn("operation quarantined", "op", op.Operation, "entity", op.Entity,
			"id", op.ID, "retries", retries, "err", cause)
	} else {
		e.log.Debug("operation failed, will retry", "op", op.Operation, "entity", op.Entity,
			"id", op.ID, "retries", retries, "err", cause)
	}

	if err := e.store.RecordOpFailure(op.ID, retries, status, cause.Error()); err != nil {
		e.log.Error("record failure bookkeeping", "id", op.ID, "err", err)
	}

	msg := cause.Error()
	e.status.Update(func(s Status) Status {
		s.Error = &msg
		return s
	})
}

// refreshPendingCount recomputes the published pending count from the
// durable queue.
func (e *Engine) refreshPendingCount() {
	n, err := e.store.CountPending()
	if err != nil {
		e.log.Error("count pending operations", "err", err)
		return
	}
	e.status.Update(func(s Status) Status {
		s.PendingCount = n
		return s
	})
}
