// ABOUTME: Auth endpoints: register, login, logout.
// ABOUTME: Login and register persist the issued token pair to credential storage.
package api

import (
	"context"
	"fmt"
	"net/http"
)

// RegisterRequest is the payload for account creation.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Language string `json:"language,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// skipAuth marks a request as unauthenticated so a 401 can never trigger
// the refresh protocol.
func skipAuth() RequestOption {
	return func(o *requestOptions) { o.skipAuth = true }
}

// Register creates an account and stores the issued credentials.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	var tokens Credentials
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/auth/register", req, &tokens, skipAuth()); err != nil {
		return err
	}
	if err := c.creds.Set(tokens); err != nil {
		return fmt.Errorf("persist credentials: %w", err)
	}
	return nil
}

// Login authenticates and stores the issued credentials.
func (c *Client) Login(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	var tokens Credentials
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/auth/login", body, &tokens, skipAuth()); err != nil {
		return err
	}
	if err := c.creds.Set(tokens); err != nil {
		return fmt.Errorf("persist credentials: %w", err)
	}
	return nil
}

// Logout clears stored credentials. Purely local; the server keeps no
// session state beyond token expiry.
func (c *Client) Logout() error {
	return c.creds.Clear()
}

// LoggedIn reports whether an access credential is stored.
func (c *Client) LoggedIn() bool {
	return c.creds.Get().AccessToken != ""
}
