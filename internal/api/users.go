// ABOUTME: User profile endpoints: fetch, update, delete account.
// ABOUTME: All operate on the authenticated user (/users/me).
package api

import (
	"context"
	"net/http"

	"github.com/harperreed/feelink/internal/models"
)

// UserUpdate is the payload for a partial profile update.
type UserUpdate struct {
	Name     *string `json:"name,omitempty"`
	Language *string `json:"language,omitempty"`
	Timezone *string `json:"timezone,omitempty"`
}

// Me fetches the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/users/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMe applies a partial profile update and returns the updated profile.
// The payload may be a UserUpdate or a raw queued payload.
func (c *Client) UpdateMe(ctx context.Context, payload any, opts ...RequestOption) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodPatch, apiPrefix+"/users/me", payload, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteMe permanently deletes the account and all server-side data.
func (c *Client) DeleteMe(ctx context.Context, opts ...RequestOption) error {
	return c.do(ctx, http.MethodDelete, apiPrefix+"/users/me", nil, nil, opts...)
}
