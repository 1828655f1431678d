// ABOUTME: Offline-first entries store: local cache first, server truth when online.
// ABOUTME: Offline creates synthesize negative temp IDs and enqueue the original payload.
package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/feelink/internal/api"
	"github.com/harperreed/feelink/internal/models"
	"github.com/harperreed/feelink/internal/observe"
	"github.com/harperreed/feelink/internal/storage"
)

// EntriesRemote is the slice of the API client the entries store uses.
type EntriesRemote interface {
	ListEntries(ctx context.Context, params api.EntryListParams) (*api.EntryList, error)
	CreateEntry(ctx context.Context, payload any, opts ...api.RequestOption) (*models.Entry, error)
	UpdateEntry(ctx context.Context, id int64, payload any, opts ...api.RequestOption) (*models.Entry, error)
	DeleteEntry(ctx context.Context, id int64, opts ...api.RequestOption) error
	GetEntryByDate(ctx context.Context, date string) (*models.Entry, error)
}

// EntriesState is the in-memory projection rendered by the UI.
type EntriesState struct {
	Entries []*models.Entry
	Total   int
	Loading bool
	Error   *string
}

// EntriesStore is the offline-first read/write facade for daily entries.
type EntriesStore struct {
	local  *storage.DB
	remote EntriesRemote
	queue  Enqueuer
	temp   *TempIDs
	state  *observe.Value[EntriesState]
}

// NewEntriesStore builds an entries store over the local cache, remote
// client, and sync engine.
func NewEntriesStore(local *storage.DB, remote EntriesRemote, queue Enqueuer, temp *TempIDs) *EntriesStore {
	return &EntriesStore{
		local:  local,
		remote: remote,
		queue:  queue,
		temp:   temp,
		state:  observe.New(EntriesState{}),
	}
}

// State returns the observable projection for subscription.
func (s *EntriesStore) State() *observe.Value[EntriesState] {
	return s.state
}

// Today returns the projection's entry for today's date, or nil.
func (s *EntriesStore) Today() *models.Entry {
	today := time.Now().Format(models.DateFormat)
	for _, e := range s.state.Get().Entries {
		if e.EntryDate == today {
			return e
		}
	}
	return nil
}

// Load populates the projection: cached entries first, then, if online,
// the fresh server set replaces both the cache and the projection.
func (s *EntriesStore) Load(ctx context.Context, params api.EntryListParams) error {
	s.state.Update(func(st EntriesState) EntriesState {
		st.Loading = true
		st.Error = nil
		return st
	})

	var cached []*models.Entry
	var err error
	if params.DateFrom != "" || params.DateTo != "" {
		from, to := params.DateFrom, params.DateTo
		if from == "" {
			from = "0000-01-01"
		}
		if to == "" {
			to = "9999-12-31"
		}
		cached, err = s.local.EntriesInRange(from, to)
	} else {
		cached, err = s.local.AllEntries()
	}
	if err != nil {
		s.fail(err)
		return err
	}
	s.publish(cached, len(cached))

	if !s.queue.Online() {
		if len(cached) == 0 {
			s.fail(ErrOfflineNoCache)
			return ErrOfflineNoCache
		}
		return nil
	}

	fresh, err := s.remote.ListEntries(ctx, params)
	if err != nil {
		s.fail(err)
		return err
	}
	if err := s.local.ReplaceEntries(fresh.Entries); err != nil {
		s.fail(err)
		return err
	}
	s.publish(fresh.Entries, fresh.Total)
	return nil
}

// GetByDate returns the entry for a date, preferring the local cache. If
// online and the cache misses, the server is consulted. A nil entry with a
// nil error means no entry exists for that date.
func (s *EntriesStore) GetByDate(ctx context.Context, date string) (*models.Entry, error) {
	cached, err := s.local.GetEntryByDate(date)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if !s.queue.Online() {
		return nil, nil
	}
	remote, err := s.remote.GetEntryByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if remote != nil {
		if err := s.local.PutEntry(remote); err != nil {
			return nil, err
		}
	}
	return remote, nil
}

// Create adds an entry. Online it calls the server and mirrors the result;
// offline it persists a tentative record under a temporary negative ID with
// client-generated timestamps, then enqueues a CREATE carrying the original
// payload (not the temp ID).
func (s *EntriesStore) Create(ctx context.Context, req api.EntryCreate) (*models.Entry, error) {
	if s.queue.Online() {
		created, err := s.remote.CreateEntry(ctx, req)
		if err != nil {
			s.fail(err)
			return nil, err
		}
		if err := s.local.PutEntry(created); err != nil {
			return nil, err
		}
		s.mirror(created, 1)
		return created, nil
	}

	now := time.Now()
	entryID := s.temp.Next()
	local := &models.Entry{
		ID:        entryID,
		EntryDate: req.EntryDate,
		Notes:     req.Notes,
		Values:    s.buildValues(entryID, req.Values, now),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.local.PutEntry(local); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal create payload: %w", err)
	}
	if _, err := s.queue.Enqueue(models.OpCreate, models.EntityEntry, payload, nil); err != nil {
		return nil, err
	}
	s.mirror(local, 1)
	return local, nil
}

// Update edits an entry. Offline the patch is merged into the cached record
// and an UPDATE referencing the real entity ID is enqueued.
func (s *EntriesStore) Update(ctx context.Context, id int64, req api.EntryUpdate) (*models.Entry, error) {
	if s.queue.Online() {
		updated, err := s.remote.UpdateEntry(ctx, id, req)
		if err != nil {
			s.fail(err)
			return nil, err
		}
		if err := s.local.PutEntry(updated); err != nil {
			return nil, err
		}
		s.mirror(updated, 0)
		return updated, nil
	}

	cached, err := s.local.GetEntry(id)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if req.Notes != nil {
		cached.Notes = req.Notes
	}
	if req.Values != nil {
		cached.Values = s.buildValues(cached.ID, req.Values, now)
	}
	cached.UpdatedAt = now
	if err := s.local.PutEntry(cached); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal update payload: %w", err)
	}
	if _, err := s.queue.Enqueue(models.OpUpdate, models.EntityEntry, payload, &id); err != nil {
		return nil, err
	}
	s.mirror(cached, 0)
	return cached, nil
}

// Delete removes an entry. Offline the cached record is removed and a
// DELETE referencing the real entity ID is enqueued.
func (s *EntriesStore) Delete(ctx context.Context, id int64) error {
	if s.queue.Online() {
		if err := s.remote.DeleteEntry(ctx, id); err != nil {
			s.fail(err)
			return err
		}
	} else {
		if _, err := s.queue.Enqueue(models.OpDelete, models.EntityEntry, json.RawMessage(`{}`), &id); err != nil {
			return err
		}
	}

	if err := s.local.DeleteEntry(id); err != nil {
		return err
	}
	s.state.Update(func(st EntriesState) EntriesState {
		entries := make([]*models.Entry, 0, len(st.Entries))
		for _, e := range st.Entries {
			if e.ID != id {
				entries = append(entries, e)
			}
		}
		removed := len(st.Entries) - len(entries)
		st.Entries = entries
		st.Total -= removed
		return st
	})
	return nil
}

// buildValues turns create payload values into tentative local EntryValues.
// The slot is chosen by the payload value's dynamic type, which tracks the
// referenced metric's value type.
func (s *EntriesStore) buildValues(entryID int64, values []api.EntryValueCreate, now time.Time) []models.EntryValue {
	out := make([]models.EntryValue, 0, len(values))
	for _, v := range values {
		ev := models.EntryValue{
			ID:        s.temp.Next(),
			EntryID:   entryID,
			MetricID:  v.MetricID,
			CreatedAt: now,
		}
		switch val := v.Value.(type) {
		case float64:
			f := val
			ev.ValueNumeric = &f
		case int:
			f := float64(val)
			ev.ValueNumeric = &f
		case int64:
			f := float64(val)
			ev.ValueNumeric = &f
		case bool:
			b := val
			ev.ValueBoolean = &b
		case string:
			t := val
			ev.ValueText = &t
		}
		out = append(out, ev)
	}
	return out
}

// mirror upserts one entry into the projection, adjusting the total by
// delta for creates.
func (s *EntriesStore) mirror(e *models.Entry, delta int) {
	s.state.Update(func(st EntriesState) EntriesState {
		st.Loading = false
		st.Error = nil
		replaced := false
		entries := make([]*models.Entry, len(st.Entries))
		copy(entries, st.Entries)
		for i, existing := range entries {
			if existing.ID == e.ID {
				entries[i] = e
				replaced = true
				break
			}
		}
		if !replaced {
			entries = append([]*models.Entry{e}, entries...)
			st.Total += delta
		}
		st.Entries = entries
		return st
	})
}

func (s *EntriesStore) publish(entries []*models.Entry, total int) {
	s.state.Update(func(st EntriesState) EntriesState {
		st.Entries = entries
		st.Total = total
		st.Loading = false
		st.Error = nil
		return st
	})
}

func (s *EntriesStore) fail(err error) {
	s.state.Update(func(st EntriesState) EntriesState {
		st.Loading = false
		st.Error = errMessage(err)
		return st
	})
}
