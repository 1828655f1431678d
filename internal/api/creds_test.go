// ABOUTME: Tests for the on-disk credential store.
// ABOUTME: Missing files mean logged out; Clear removes the file.
package api

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")

	store, err := OpenCredentialStore(path)
	require.NoError(t, err)
	assert.Equal(t, Credentials{}, store.Get())

	want := Credentials{AccessToken: "tok", RefreshToken: "ref"}
	require.NoError(t, store.Set(want))
	assert.Equal(t, want, store.Get())

	// A fresh store reads what the first one persisted.
	reopened, err := OpenCredentialStore(path)
	require.NoError(t, err)
	assert.Equal(t, want, reopened.Get())
}

func TestCredentialStoreClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")

	store, err := OpenCredentialStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(Credentials{AccessToken: "tok"}))

	require.NoError(t, store.Clear())
	assert.Equal(t, Credentials{}, store.Get())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Clearing an already-clear store is fine.
	require.NoError(t, store.Clear())
}

func TestCredentialStoreCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")

	store, err := OpenCredentialStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(Credentials{AccessToken: "tok"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
