// ABOUTME: Tests for JSON snapshot export and import.
// ABOUTME: Import restores cached records but never the sync queue.
package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/feelink/internal/models"
)

func TestExportImportRoundTrip(t *testing.T) {
	src := newTestDB(t)

	require.NoError(t, src.PutMetric(testMetric(1, "sleep")))
	require.NoError(t, src.PutEntry(testEntry(1, "2024-06-01")))
	require.NoError(t, src.SetSetting("theme", []byte(`"dark"`)))
	require.NoError(t, src.EnqueueOp(models.NewSyncOperation(models.OpCreate, models.EntityMetric, []byte(`{}`), nil)))

	snap, err := src.ExportAll()
	require.NoError(t, err)
	assert.Len(t, snap.Metrics, 1)
	assert.Len(t, snap.Entries, 1)
	assert.Len(t, snap.Settings, 1)
	assert.Len(t, snap.Queue, 1)

	dst, err := Open(filepath.Join(t.TempDir(), "dst.db"))
	require.NoError(t, err)
	defer dst.Close()

	require.NoError(t, dst.ImportAll(snap))

	metrics, err := dst.AllMetrics()
	require.NoError(t, err)
	assert.Len(t, metrics, 1)

	entries, err := dst.AllEntries()
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	s, err := dst.GetSetting("theme")
	require.NoError(t, err)
	assert.JSONEq(t, `"dark"`, string(s.Value))

	// Another device's queued intents must not be replayed here.
	ops, err := dst.AllOps()
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestExportJSONIsValid(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.PutMetric(testMetric(1, "sleep")))

	data, err := db.ExportJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"metrics"`)
	assert.Contains(t, string(data), `"sleep"`)
}
