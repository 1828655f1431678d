// ABOUTME: Metric endpoints: list, create, update, archive, unarchive.
// ABOUTME: Mutation methods accept typed payloads or raw queued payloads.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/harperreed/feelink/internal/models"
)

// MetricCreate is the payload for creating a metric.
type MetricCreate struct {
	NameKey     string           `json:"name_key"`
	Category    models.Category  `json:"category"`
	ValueType   models.ValueType `json:"value_type"`
	MinValue    *float64         `json:"min_value,omitempty"`
	MaxValue    *float64         `json:"max_value,omitempty"`
	Description *string          `json:"description,omitempty"`
	Color       *string          `json:"color,omitempty"`
	Icon        *string          `json:"icon,omitempty"`
}

// MetricUpdate is the payload for a partial metric update.
type MetricUpdate struct {
	NameKey      *string          `json:"name_key,omitempty"`
	Category     *models.Category `json:"category,omitempty"`
	Description  *string          `json:"description,omitempty"`
	Color        *string          `json:"color,omitempty"`
	Icon         *string          `json:"icon,omitempty"`
	DisplayOrder *int             `json:"display_order,omitempty"`
	Archived     *bool            `json:"archived,omitempty"`
}

type metricList struct {
	Metrics []*models.Metric `json:"metrics"`
}

// ListMetrics fetches the user's metrics, optionally including archived ones.
func (c *Client) ListMetrics(ctx context.Context, includeArchived bool) ([]*models.Metric, error) {
	path := apiPrefix + "/metrics"
	if includeArchived {
		path += "?include_archived=true"
	}
	var out metricList
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Metrics, nil
}

// CreateMetric creates a metric and returns the server's canonical record.
// The payload may be a MetricCreate or a raw queued payload.
func (c *Client) CreateMetric(ctx context.Context, payload any, opts ...RequestOption) (*models.Metric, error) {
	var out models.Metric
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/metrics", payload, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMetric applies a partial update and returns the updated record.
func (c *Client) UpdateMetric(ctx context.Context, id int64, payload any, opts ...RequestOption) (*models.Metric, error) {
	var out models.Metric
	path := fmt.Sprintf("%s/metrics/%d", apiPrefix, id)
	if err := c.do(ctx, http.MethodPatch, path, payload, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}

// ArchiveMetric soft-deletes a metric.
func (c *Client) ArchiveMetric(ctx context.Context, id int64, opts ...RequestOption) error {
	path := fmt.Sprintf("%s/metrics/%d", apiPrefix, id)
	return c.do(ctx, http.MethodDelete, path, nil, nil, opts...)
}

// UnarchiveMetric restores an archived metric and returns the record.
func (c *Client) UnarchiveMetric(ctx context.Context, id int64) (*models.Metric, error) {
	var out models.Metric
	path := fmt.Sprintf("%s/metrics/%d/unarchive", apiPrefix, id)
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
