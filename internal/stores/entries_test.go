// ABOUTME: Tests for the offline-first entries store.
// ABOUTME: Covers temp-ID creates, by-date lookup, and cache mirroring.
package stores

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/feelink/internal/api"
	"github.com/harperreed/feelink/internal/models"
	"github.com/harperreed/feelink/internal/storage"
)

type fakeEntriesRemote struct {
	listResult *api.EntryList
	listErr    error
	listCalls  int

	createResult *models.Entry
	updateResult *models.Entry

	byDateResult *models.Entry
	byDateCalls  int

	deleteCalls int
}

func (f *fakeEntriesRemote) ListEntries(ctx context.Context, params api.EntryListParams) (*api.EntryList, error) {
	f.listCalls++
	return f.listResult, f.listErr
}

func (f *fakeEntriesRemote) CreateEntry(ctx context.Context, payload any, opts ...api.RequestOption) (*models.Entry, error) {
	if f.createResult == nil {
		return nil, fmt.Errorf("unexpected CreateEntry call")
	}
	return f.createResult, nil
}

func (f *fakeEntriesRemote) UpdateEntry(ctx context.Context, id int64, payload any, opts ...api.RequestOption) (*models.Entry, error) {
	if f.updateResult == nil {
		return nil, fmt.Errorf("unexpected UpdateEntry call")
	}
	return f.updateResult, nil
}

func (f *fakeEntriesRemote) DeleteEntry(ctx context.Context, id int64, opts ...api.RequestOption) error {
	f.deleteCalls++
	return nil
}

func (f *fakeEntriesRemote) GetEntryByDate(ctx context.Context, date string) (*models.Entry, error) {
	f.byDateCalls++
	return f.byDateResult, nil
}

func newEntriesStore(t *testing.T, online bool) (*EntriesStore, *fakeEntriesRemote, *fakeEnqueuer, *storage.DB) {
	t.Helper()
	db := newTestDB(t)
	remote := &fakeEntriesRemote{}
	queue := &fakeEnqueuer{online: online}
	store := NewEntriesStore(db, remote, queue, &TempIDs{})
	return store, remote, queue, db
}

func TestEntriesCreateOffline(t *testing.T) {
	store, _, queue, db := newEntriesStore(t, false)

	notes := "slept well"
	req := api.EntryCreate{
		EntryDate: "2024-06-01",
		Notes:     &notes,
		Values: []api.EntryValueCreate{
			{MetricID: 1, Value: 7.5},
			{MetricID: 2, Value: true},
			{MetricID: 3, Value: "vivid dreams"},
		},
	}
	created, err := store.Create(context.Background(), req)
	require.NoError(t, err)

	assert.Negative(t, created.ID)
	assert.Equal(t, "2024-06-01", created.EntryDate)
	require.Len(t, created.Values, 3)

	// Each payload value landed in the slot matching its type.
	v := created.ValueFor(1)
	require.NotNil(t, v)
	require.NotNil(t, v.ValueNumeric)
	assert.Equal(t, 7.5, *v.ValueNumeric)

	v = created.ValueFor(2)
	require.NotNil(t, v)
	require.NotNil(t, v.ValueBoolean)
	assert.True(t, *v.ValueBoolean)

	v = created.ValueFor(3)
	require.NotNil(t, v)
	require.NotNil(t, v.ValueText)
	assert.Equal(t, "vivid dreams", *v.ValueText)

	// Persisted locally under the temp ID.
	cached, err := db.GetEntry(created.ID)
	require.NoError(t, err)
	assert.Len(t, cached.Values, 3)

	// Exactly one queued CREATE carrying the original payload.
	require.Len(t, queue.ops, 1)
	op := queue.ops[0]
	assert.Equal(t, models.OpCreate, op.Operation)
	assert.Equal(t, models.EntityEntry, op.Entity)
	assert.Nil(t, op.EntityID)
	assert.JSONEq(t, `{
		"entry_date":"2024-06-01","notes":"slept well",
		"values":[
			{"metric_id":1,"value":7.5},
			{"metric_id":2,"value":true},
			{"metric_id":3,"value":"vivid dreams"}
		]
	}`, string(op.Data))

	// Projection prepends the new entry and counts it.
	st := store.State().Get()
	require.Len(t, st.Entries, 1)
	assert.Equal(t, created.ID, st.Entries[0].ID)
	assert.Equal(t, 1, st.Total)
}

func TestEntriesCreateOnline(t *testing.T) {
	store, remote, queue, db := newEntriesStore(t, true)
	remote.createResult = &models.Entry{ID: 42, EntryDate: "2024-06-01"}

	created, err := store.Create(context.Background(), api.EntryCreate{EntryDate: "2024-06-01"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), created.ID)

	assert.Empty(t, queue.ops)
	_, err = db.GetEntry(42)
	require.NoError(t, err)
}

func TestEntriesGetByDatePrefersCache(t *testing.T) {
	store, remote, _, db := newEntriesStore(t, true)
	seedEntry(t, db, 1, "2024-06-01")

	got, err := store.GetByDate(context.Background(), "2024-06-01")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(1), got.ID)
	assert.Zero(t, remote.byDateCalls)
}

func TestEntriesGetByDateOfflineMiss(t *testing.T) {
	store, remote, _, _ := newEntriesStore(t, false)

	got, err := store.GetByDate(context.Background(), "2024-06-01")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Zero(t, remote.byDateCalls)
}

func TestEntriesGetByDateOnlineMissConsultsServer(t *testing.T) {
	store, remote, _, db := newEntriesStore(t, true)
	remote.byDateResult = &models.Entry{ID: 9, EntryDate: "2024-06-01"}

	got, err := store.GetByDate(context.Background(), "2024-06-01")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(9), got.ID)
	assert.Equal(t, 1, remote.byDateCalls)

	// Server hit is cached for next time.
	cached, err := db.GetEntry(9)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", cached.EntryDate)
}

func TestEntriesLoadOnlineMirrorsServer(t *testing.T) {
	store, remote, _, db := newEntriesStore(t, true)
	seedEntry(t, db, 99, "2024-05-01")

	remote.listResult = &api.EntryList{
		Entries: []*models.Entry{
			{ID: 2, EntryDate: "2024-06-02"},
			{ID: 1, EntryDate: "2024-06-01"},
		},
		Total: 40,
	}

	require.NoError(t, store.Load(context.Background(), api.EntryListParams{Limit: 2}))

	st := store.State().Get()
	require.Len(t, st.Entries, 2)
	assert.Equal(t, 40, st.Total)

	// Full replace: the stale cached entry is gone.
	_, err := db.GetEntry(99)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEntriesLoadOfflineEmptyCache(t *testing.T) {
	store, _, _, _ := newEntriesStore(t, false)

	err := store.Load(context.Background(), api.EntryListParams{})
	assert.ErrorIs(t, err, ErrOfflineNoCache)
}

func TestEntriesLoadOfflineRangeFromCache(t *testing.T) {
	store, remote, _, db := newEntriesStore(t, false)
	seedEntry(t, db, 1, "2024-06-01")
	seedEntry(t, db, 2, "2024-06-10")
	seedEntry(t, db, 3, "2024-06-20")

	err := store.Load(context.Background(), api.EntryListParams{
		DateFrom: "2024-06-05",
		DateTo:   "2024-06-15",
	})
	require.NoError(t, err)

	st := store.State().Get()
	require.Len(t, st.Entries, 1)
	assert.Equal(t, "2024-06-10", st.Entries[0].EntryDate)
	assert.Zero(t, remote.listCalls)
}

func TestEntriesUpdateOffline(t *testing.T) {
	store, _, queue, db := newEntriesStore(t, false)
	seedEntry(t, db, 5, "2024-06-01")

	notes := "updated notes"
	updated, err := store.Update(context.Background(), 5, api.EntryUpdate{Notes: &notes})
	require.NoError(t, err)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, "updated notes", *updated.Notes)

	cached, err := db.GetEntry(5)
	require.NoError(t, err)
	require.NotNil(t, cached.Notes)
	assert.Equal(t, "updated notes", *cached.Notes)

	require.Len(t, queue.ops, 1)
	op := queue.ops[0]
	assert.Equal(t, models.OpUpdate, op.Operation)
	require.NotNil(t, op.EntityID)
	assert.Equal(t, int64(5), *op.EntityID)
}

func TestEntriesDeleteOffline(t *testing.T) {
	store, _, queue, db := newEntriesStore(t, false)
	seedEntry(t, db, 5, "2024-06-01")
	require.NoError(t, store.Load(context.Background(), api.EntryListParams{}))

	require.NoError(t, store.Delete(context.Background(), 5))

	_, err := db.GetEntry(5)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.Len(t, queue.ops, 1)
	op := queue.ops[0]
	assert.Equal(t, models.OpDelete, op.Operation)
	require.NotNil(t, op.EntityID)
	assert.Equal(t, int64(5), *op.EntityID)

	st := store.State().Get()
	assert.Empty(t, st.Entries)
	assert.Zero(t, st.Total)
}

func TestEntriesDeleteOnline(t *testing.T) {
	store, remote, queue, db := newEntriesStore(t, true)
	seedEntry(t, db, 5, "2024-06-01")

	require.NoError(t, store.Delete(context.Background(), 5))

	assert.Equal(t, 1, remote.deleteCalls)
	assert.Empty(t, queue.ops)
}
