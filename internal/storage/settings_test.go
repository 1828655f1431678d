// ABOUTME: Tests for local user settings.
// ABOUTME: Covers last-write-wins upserts and lookups.
package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetSettingLastWriteWins(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.SetSetting("theme", []byte(`"light"`)))
	require.NoError(t, db.SetSetting("theme", []byte(`"dark"`)))

	s, err := db.GetSetting("theme")
	require.NoError(t, err)
	assert.JSONEq(t, `"dark"`, string(s.Value))

	all, err := db.AllSettings()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetSettingNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetSetting("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteSetting(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.SetSetting("language", []byte(`"en"`)))
	require.NoError(t, db.DeleteSetting("language"))

	_, err := db.GetSetting("language")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSettingStoresStructuredValue(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.SetSetting("profile", []byte(`{"id":1,"email":"a@b.c"}`)))

	s, err := db.GetSetting("profile")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"email":"a@b.c"}`, string(s.Value))
	assert.Positive(t, s.UpdatedAt)
}
