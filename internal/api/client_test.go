// ABOUTME: Tests for the API client's refresh protocol and request plumbing.
// ABOUTME: A 401 triggers exactly one refresh and one replay, never a loop.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCreds(t *testing.T, creds Credentials) *CredentialStore {
	t.Helper()
	store, err := OpenCredentialStore(filepath.Join(t.TempDir(), "credentials.json"))
	require.NoError(t, err)
	if creds != (Credentials{}) {
		require.NoError(t, store.Set(creds))
	}
	return store
}

func TestUnauthorizedTriggersOneRefreshAndReplay(t *testing.T) {
	var meCalls, refreshCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/users/me", func(w http.ResponseWriter, r *http.Request) {
		meCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"token expired"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":1,"email":"a@b.c","language":"en","timezone":"UTC"}`))
	})
	mux.HandleFunc("/api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "refresh-1", body["refresh_token"])
		_, _ = w.Write([]byte(`{"access_token":"fresh","refresh_token":"refresh-2"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	creds := newTestCreds(t, Credentials{AccessToken: "stale", RefreshToken: "refresh-1"})
	client := NewClient(srv.URL, creds)

	user, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", user.Email)

	assert.Equal(t, int32(2), meCalls.Load())
	assert.Equal(t, int32(1), refreshCalls.Load())

	// New token pair is persisted for subsequent requests.
	assert.Equal(t, "fresh", creds.Get().AccessToken)
	assert.Equal(t, "refresh-2", creds.Get().RefreshToken)
}

func TestRefreshFailureInvalidatesSession(t *testing.T) {
	var meCalls atomic.Int32
	var invalidated atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/users/me", func(w http.ResponseWriter, r *http.Request) {
		meCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"token expired"}`))
	})
	mux.HandleFunc("/api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"invalid refresh token"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	creds := newTestCreds(t, Credentials{AccessToken: "stale", RefreshToken: "dead"})
	client := NewClient(srv.URL, creds, WithSessionInvalidHandler(func() {
		invalidated.Add(1)
	}))

	_, err := client.Me(context.Background())
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "token expired", apiErr.Detail)

	// No replay after a failed refresh, and the session is torn down.
	assert.Equal(t, int32(1), meCalls.Load())
	assert.Equal(t, int32(1), invalidated.Load())
	assert.Equal(t, Credentials{}, creds.Get())
	assert.False(t, client.LoggedIn())
}

func TestSecondUnauthorizedDoesNotLoop(t *testing.T) {
	var meCalls, refreshCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/users/me", func(w http.ResponseWriter, r *http.Request) {
		meCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"still no"}`))
	})
	mux.HandleFunc("/api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		_, _ = w.Write([]byte(`{"access_token":"fresh","refresh_token":"refresh-2"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	creds := newTestCreds(t, Credentials{AccessToken: "stale", RefreshToken: "refresh-1"})
	client := NewClient(srv.URL, creds)

	_, err := client.Me(context.Background())
	require.Error(t, err)

	// Exactly one replay: original request, refresh, replayed request, stop.
	assert.Equal(t, int32(2), meCalls.Load())
	assert.Equal(t, int32(1), refreshCalls.Load())
}

func TestConcurrentUnauthorizedSharesOneRefresh(t *testing.T) {
	const callers = 4

	var refreshCalls, staleSeen atomic.Int32
	allStale := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/users/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			// Hold the 401s until every caller has arrived so their refresh
			// attempts overlap.
			if staleSeen.Add(1) == callers {
				close(allStale)
			}
			<-allStale
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"token expired"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":1,"email":"a@b.c","language":"en","timezone":"UTC"}`))
	})
	mux.HandleFunc("/api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		// Stay in flight long enough for the released callers to join.
		time.Sleep(250 * time.Millisecond)
		_, _ = w.Write([]byte(`{"access_token":"fresh","refresh_token":"refresh-2"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	creds := newTestCreds(t, Credentials{AccessToken: "stale", RefreshToken: "refresh-1"})
	client := NewClient(srv.URL, creds)

	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func() {
			_, err := client.Me(context.Background())
			errs <- err
		}()
	}
	for i := 0; i < callers; i++ {
		require.NoError(t, <-errs)
	}

	assert.Equal(t, int32(1), refreshCalls.Load())
	assert.Equal(t, "fresh", creds.Get().AccessToken)
}

func TestSkipAuthNeverRefreshes(t *testing.T) {
	var refreshCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"bad password"}`))
	})
	mux.HandleFunc("/api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.URL, newTestCreds(t, Credentials{}))

	err := client.Login(context.Background(), "a@b.c", "wrong")
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "bad password", apiErr.Detail)
	assert.Zero(t, refreshCalls.Load())
}

func TestLoginPersistsCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.c", body["email"])
		_, _ = w.Write([]byte(`{"access_token":"tok","refresh_token":"ref"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	creds := newTestCreds(t, Credentials{})
	client := NewClient(srv.URL, creds)

	require.NoError(t, client.Login(context.Background(), "a@b.c", "hunter2"))
	assert.True(t, client.LoggedIn())
	assert.Equal(t, "tok", creds.Get().AccessToken)

	require.NoError(t, client.Logout())
	assert.False(t, client.LoggedIn())
}

func TestIdempotencyKeyHeader(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/metrics", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-123", r.Header.Get("Idempotency-Key"))
		_, _ = w.Write([]byte(`{"id":1,"name_key":"sleep"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.URL, newTestCreds(t, Credentials{AccessToken: "tok"}))

	m, err := client.CreateMetric(context.Background(), MetricCreate{NameKey: "sleep"}, WithIdempotencyKey("key-123"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.ID)
}

func TestGetEntryByDateNotFoundReturnsNil(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/entries/date/2024-06-01", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"no entry for date"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.URL, newTestCreds(t, Credentials{AccessToken: "tok"}))

	e, err := client.GetEntryByDate(context.Background(), "2024-06-01")
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestHealth(t *testing.T) {
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	client := NewClient(srv.URL, newTestCreds(t, Credentials{}))
	assert.True(t, client.Health(context.Background()))

	status = http.StatusServiceUnavailable
	assert.False(t, client.Health(context.Background()))

	srv.Close()
	assert.False(t, client.Health(context.Background()))
}
