// ABOUTME: Offline-first metrics store: local cache first, server truth when online.
// ABOUTME: Offline writes are optimistic and enqueue sync operations.
package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harperreed/feelink/internal/api"
	"github.com/harperreed/feelink/internal/models"
	"github.com/harperreed/feelink/internal/observe"
	"github.com/harperreed/feelink/internal/storage"
)

// MetricsRemote is the slice of the API client the metrics store uses.
type MetricsRemote interface {
	ListMetrics(ctx context.Context, includeArchived bool) ([]*models.Metric, error)
	CreateMetric(ctx context.Context, payload any, opts ...api.RequestOption) (*models.Metric, error)
	UpdateMetric(ctx context.Context, id int64, payload any, opts ...api.RequestOption) (*models.Metric, error)
	ArchiveMetric(ctx context.Context, id int64, opts ...api.RequestOption) error
	UnarchiveMetric(ctx context.Context, id int64) (*models.Metric, error)
}

// Enqueuer is the slice of the sync engine the entity stores use: the
// online flag for path selection and the queue for offline mutations.
type Enqueuer interface {
	Online() bool
	Enqueue(op models.Op, entity models.EntityType, data json.RawMessage, entityID *int64) (*models.SyncOperation, error)
}

// MetricsState is the in-memory projection rendered by the UI. It is
// rebuilt from the local store and remote on load, never the source of
// truth.
type MetricsState struct {
	Metrics []*models.Metric
	Loading bool
	Error   *string
}

// MetricsStore is the offline-first read/write facade for metrics.
type MetricsStore struct {
	local  *storage.DB
	remote MetricsRemote
	queue  Enqueuer
	temp   *TempIDs
	state  *observe.Value[MetricsState]
}

// NewMetricsStore builds a metrics store over the local cache, remote
// client, and sync engine.
func NewMetricsStore(local *storage.DB, remote MetricsRemote, queue Enqueuer, temp *TempIDs) *MetricsStore {
	return &MetricsStore{
		local:  local,
		remote: remote,
		queue:  queue,
		temp:   temp,
		state:  observe.New(MetricsState{}),
	}
}

// State returns the observable projection for subscription.
func (s *MetricsStore) State() *observe.Value[MetricsState] {
	return s.state
}

// Active returns the non-archived metrics from the current projection.
func (s *MetricsStore) Active() []*models.Metric {
	all := s.state.Get().Metrics
	active := make([]*models.Metric, 0, len(all))
	for _, m := range all {
		if !m.Archived {
			active = append(active, m)
		}
	}
	return active
}

// Load populates the projection: cached metrics first for an immediate
// response, then, if online, the fresh server set replaces both the cache
// and the projection (full-replace mirror, not a merge).
func (s *MetricsStore) Load(ctx context.Context, includeArchived bool) error {
	s.state.Update(func(st MetricsState) MetricsState {
		st.Loading = true
		st.Error = nil
		return st
	})

	cached, err := s.local.AllMetrics()
	if err != nil {
		s.fail(err)
		return err
	}
	s.publish(cached)

	if !s.queue.Online() {
		if len(cached) == 0 {
			s.fail(ErrOfflineNoCache)
			return ErrOfflineNoCache
		}
		return nil
	}

	fresh, err := s.remote.ListMetrics(ctx, includeArchived)
	if err != nil {
		s.fail(err)
		return err
	}
	if err := s.local.ReplaceMetrics(fresh); err != nil {
		s.fail(err)
		return err
	}
	s.publish(fresh)
	return nil
}

// Create adds a metric. Online it calls the server and mirrors the result;
// offline it persists a tentative record under a temporary negative ID and
// enqueues a CREATE carrying the original payload (not the temp ID).
func (s *MetricsStore) Create(ctx context.Context, req api.MetricCreate) (*models.Metric, error) {
	if s.queue.Online() {
		created, err := s.remote.CreateMetric(ctx, req)
		if err != nil {
			s.fail(err)
			return nil, err
		}
		if err := s.local.PutMetric(created); err != nil {
			return nil, err
		}
		s.mirror(created)
		return created, nil
	}

	now := time.Now()
	local := &models.Metric{
		ID:           s.temp.Next(),
		NameKey:      req.NameKey,
		Category:     req.Category,
		ValueType:    req.ValueType,
		MinValue:     req.MinValue,
		MaxValue:     req.MaxValue,
		Description:  req.Description,
		Color:        req.Color,
		Icon:         req.Icon,
		DisplayOrder: len(s.state.Get().Metrics),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.local.PutMetric(local); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal create payload: %w", err)
	}
	if _, err := s.queue.Enqueue(models.OpCreate, models.EntityMetric, payload, nil); err != nil {
		return nil, err
	}
	s.mirror(local)
	return local, nil
}

// Update edits a metric. Offline the patch is merged into the cached record
// and an UPDATE referencing the real entity ID is enqueued.
func (s *MetricsStore) Update(ctx context.Context, id int64, req api.MetricUpdate) (*models.Metric, error) {
	if s.queue.Online() {
		updated, err := s.remote.UpdateMetric(ctx, id, req)
		if err != nil {
			s.fail(err)
			return nil, err
		}
		if err := s.local.PutMetric(updated); err != nil {
			return nil, err
		}
		s.mirror(updated)
		return updated, nil
	}

	cached, err := s.local.GetMetric(id)
	if err != nil {
		return nil, err
	}
	applyMetricUpdate(cached, req)
	cached.UpdatedAt = time.Now()
	if err := s.local.PutMetric(cached); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal update payload: %w", err)
	}
	if _, err := s.queue.Enqueue(models.OpUpdate, models.EntityMetric, payload, &id); err != nil {
		return nil, err
	}
	s.mirror(cached)
	return cached, nil
}

// Archive soft-deletes a metric. Offline the cached record is marked
// archived and a DELETE is enqueued (the server archives on DELETE).
func (s *MetricsStore) Archive(ctx context.Context, id int64) error {
	if s.queue.Online() {
		if err := s.remote.ArchiveMetric(ctx, id); err != nil {
			s.fail(err)
			return err
		}
		return s.markArchived(id, true)
	}

	if err := s.markArchived(id, true); err != nil {
		return err
	}
	_, err := s.queue.Enqueue(models.OpDelete, models.EntityMetric, json.RawMessage(`{}`), &id)
	return err
}

// Unarchive restores an archived metric. Offline it enqueues an UPDATE
// clearing the archived flag.
func (s *MetricsStore) Unarchive(ctx context.Context, id int64) error {
	if s.queue.Online() {
		restored, err := s.remote.UnarchiveMetric(ctx, id)
		if err != nil {
			s.fail(err)
			return err
		}
		if err := s.local.PutMetric(restored); err != nil {
			return err
		}
		s.mirror(restored)
		return nil
	}

	if err := s.markArchived(id, false); err != nil {
		return err
	}
	archived := false
	payload, err := json.Marshal(api.MetricUpdate{Archived: &archived})
	if err != nil {
		return fmt.Errorf("marshal unarchive payload: %w", err)
	}
	_, err = s.queue.Enqueue(models.OpUpdate, models.EntityMetric, payload, &id)
	return err
}

func (s *MetricsStore) markArchived(id int64, archived bool) error {
	cached, err := s.local.GetMetric(id)
	if err != nil {
		return err
	}
	cached.Archived = archived
	cached.UpdatedAt = time.Now()
	if err := s.local.PutMetric(cached); err != nil {
		return err
	}
	s.mirror(cached)
	return nil
}

// mirror upserts one metric into the projection.
func (s *MetricsStore) mirror(m *models.Metric) {
	s.state.Update(func(st MetricsState) MetricsState {
		st.Loading = false
		st.Error = nil
		replaced := false
		metrics := make([]*models.Metric, len(st.Metrics))
		copy(metrics, st.Metrics)
		for i, existing := range metrics {
			if existing.ID == m.ID {
				metrics[i] = m
				replaced = true
				break
			}
		}
		if !replaced {
			metrics = append(metrics, m)
		}
		st.Metrics = metrics
		return st
	})
}

func (s *MetricsStore) publish(metrics []*models.Metric) {
	s.state.Update(func(st MetricsState) MetricsState {
		st.Metrics = metrics
		st.Loading = false
		st.Error = nil
		return st
	})
}

func (s *MetricsStore) fail(err error) {
	s.state.Update(func(st MetricsState) MetricsState {
		st.Loading = false
		st.Error = errMessage(err)
		return st
	})
}

func applyMetricUpdate(m *models.Metric, req api.MetricUpdate) {
	if req.NameKey != nil {
		m.NameKey = *req.NameKey
	}
	if req.Category != nil {
		m.Category = *req.Category
	}
	if req.Description != nil {
		m.Description = req.Description
	}
	if req.Color != nil {
		m.Color = req.Color
	}
	if req.Icon != nil {
		m.Icon = req.Icon
	}
	if req.DisplayOrder != nil {
		m.DisplayOrder = *req.DisplayOrder
	}
	if req.Archived != nil {
		m.Archived = *req.Archived
	}
}
