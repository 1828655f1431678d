// ABOUTME: Entry endpoints: list with date filters, create, update, delete, by-date lookup.
// ABOUTME: List responses carry a total for pagination.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/harperreed/feelink/internal/models"
)

// EntryValueCreate is one metric value within an entry payload. Value is
// numeric, boolean, or text depending on the metric's value type; the
// server routes it to the right slot.
type EntryValueCreate struct {
	MetricID int64 `json:"metric_id"`
	Value    any   `json:"value"`
}

// EntryCreate is the payload for creating an entry.
type EntryCreate struct {
	EntryDate string             `json:"entry_date"`
	Notes     *string            `json:"notes,omitempty"`
	Values    []EntryValueCreate `json:"values"`
}

// EntryUpdate is the payload for a partial entry update.
type EntryUpdate struct {
	Notes  *string            `json:"notes,omitempty"`
	Values []EntryValueCreate `json:"values,omitempty"`
}

// EntryListParams filters and paginates entry listings.
type EntryListParams struct {
	DateFrom string
	DateTo   string
	Limit    int
	Offset   int
}

// EntryList is a paginated entry listing.
type EntryList struct {
	Entries []*models.Entry `json:"entries"`
	Total   int             `json:"total"`
	HasMore bool            `json:"has_more"`
}

// ListEntries fetches entries with optional date range and pagination.
func (c *Client) ListEntries(ctx context.Context, params EntryListParams) (*EntryList, error) {
	q := url.Values{}
	if params.DateFrom != "" {
		q.Set("date_from", params.DateFrom)
	}
	if params.DateTo != "" {
		q.Set("date_to", params.DateTo)
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Offset > 0 {
		q.Set("offset", strconv.Itoa(params.Offset))
	}
	path := apiPrefix + "/entries"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out EntryList
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateEntry creates an entry and returns the server's canonical record.
// The payload may be an EntryCreate or a raw queued payload.
func (c *Client) CreateEntry(ctx context.Context, payload any, opts ...RequestOption) (*models.Entry, error) {
	var out models.Entry
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/entries", payload, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetEntry fetches a single entry by ID.
func (c *Client) GetEntry(ctx context.Context, id int64) (*models.Entry, error) {
	var out models.Entry
	path := fmt.Sprintf("%s/entries/%d", apiPrefix, id)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetEntryByDate fetches the entry for a calendar date, nil if none exists.
func (c *Client) GetEntryByDate(ctx context.Context, date string) (*models.Entry, error) {
	var out models.Entry
	path := apiPrefix + "/entries/date/" + url.PathEscape(date)
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

// UpdateEntry applies a partial update and returns the updated record.
func (c *Client) UpdateEntry(ctx context.Context, id int64, payload any, opts ...RequestOption) (*models.Entry, error) {
	var out models.Entry
	path := fmt.Sprintf("%s/entries/%d", apiPrefix, id)
	if err := c.do(ctx, http.MethodPatch, path, payload, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteEntry removes an entry.
func (c *Client) DeleteEntry(ctx context.Context, id int64, opts ...RequestOption) error {
	path := fmt.Sprintf("%s/entries/%d", apiPrefix, id)
	return c.do(ctx, http.MethodDelete, path, nil, nil, opts...)
}
