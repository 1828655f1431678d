// ABOUTME: Authenticated HTTP client for the remote API with transparent token refresh.
// ABOUTME: A 401 triggers at most one refresh-and-replay; refresh failure invalidates the session.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"
)

const apiPrefix = "/api/v1"

// Client wraps outbound calls to the remote API. Every request carries the
// stored bearer credential if present. On a 401 the client attempts exactly
// one token refresh and replays the original request with the new
// credential; a failed refresh clears stored credentials and signals
// session invalidation.
type Client struct {
	baseURL string
	http    *http.Client
	creds   *CredentialStore

	// onSessionInvalid is called once per irrecoverable auth failure so the
	// authentication layer can clear its own state and redirect to login.
	onSessionInvalid func()

	// refresh coalescing: concurrent 401s share one in-flight refresh.
	refreshGroup singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying transport, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithSessionInvalidHandler sets the session-invalidation callback.
func WithSessionInvalidHandler(fn func()) Option {
	return func(c *Client) { c.onSessionInvalid = fn }
}

// NewClient builds a client for the given server base URL.
func NewClient(baseURL string, creds *CredentialStore, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		creds:   creds,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// requestOptions carries per-request extras.
type requestOptions struct {
	idempotencyKey string
	skipAuth       bool
}

// RequestOption configures a single request.
type RequestOption func(*requestOptions)

// WithIdempotencyKey attaches an Idempotency-Key header so replays of the
// same queued mutation cannot duplicate server state.
func WithIdempotencyKey(key string) RequestOption {
	return func(o *requestOptions) { o.idempotencyKey = key }
}

// do performs a request against the API, decoding a JSON response into out
// when out is non-nil. It implements the refresh protocol: a 401 on a
// not-yet-retried request triggers one refresh attempt and one replay.
func (c *Client) do(ctx context.Context, method, path string, body any, out any, opts ...RequestOption) error {
	var reqOpts requestOptions
	for _, opt := range opts {
		opt(&reqOpts)
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	retried := false
	token := ""
	if !reqOpts.skipAuth {
		token = c.creds.Get().AccessToken
	}

	for {
		resp, respBody, err := c.send(ctx, method, path, payload, token, reqOpts)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusUnauthorized && !retried && !reqOpts.skipAuth {
			// Mark as retried before attempting refresh so a second 401
			// cannot loop.
			retried = true
			newToken, refreshErr := c.refreshToken(ctx)
			if refreshErr != nil {
				return parseError(resp.StatusCode, respBody)
			}
			token = newToken
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return parseError(resp.StatusCode, respBody)
		}

		if out != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}
}

// send issues a single HTTP round trip and reads the full body.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, token string, opts requestOptions) (*http.Response, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if opts.idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", opts.idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}
	return resp, respBody, nil
}

// refreshToken exchanges the stored refresh credential for a new token
// pair, persisting it on success. Concurrent callers share one in-flight
// refresh. On failure the stored credentials are cleared and the
// session-invalidation callback fires; refresh itself is never retried.
func (c *Client) refreshToken(ctx context.Context) (string, error) {
	token, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		refresh := c.creds.Get().RefreshToken
		if refresh == "" {
			c.invalidateSession()
			return "", fmt.Errorf("no refresh token stored")
		}

		body, err := json.Marshal(map[string]string{"refresh_token": refresh})
		if err != nil {
			return "", fmt.Errorf("marshal refresh request: %w", err)
		}

		resp, respBody, err := c.send(ctx, http.MethodPost, apiPrefix+"/auth/refresh", body, "", requestOptions{})
		if err != nil {
			// Network failure: the session may still be valid, do not
			// clear credentials.
			return "", err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			c.invalidateSession()
			return "", parseError(resp.StatusCode, respBody)
		}

		var tokens Credentials
		if err := json.Unmarshal(respBody, &tokens); err != nil {
			return "", fmt.Errorf("decode refresh response: %w", err)
		}
		if err := c.creds.Set(tokens); err != nil {
			return "", fmt.Errorf("persist refreshed credentials: %w", err)
		}
		return tokens.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

func (c *Client) invalidateSession() {
	_ = c.creds.Clear()
	if c.onSessionInvalid != nil {
		c.onSessionInvalid()
	}
}

// Health probes server reachability. Used as the connectivity signal.
func (c *Client) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode < 500
}
