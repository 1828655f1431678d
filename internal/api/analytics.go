// ABOUTME: Analytics endpoints: metric correlations and summary statistics.
// ABOUTME: Read-only; results are never cached locally.
package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// CorrelationParams scopes a correlation computation.
type CorrelationParams struct {
	MetricIDs       []int64  `json:"metric_ids,omitempty"`
	DateFrom        string   `json:"date_from,omitempty"`
	DateTo          string   `json:"date_to,omitempty"`
	Algorithm       string   `json:"algorithm,omitempty"`
	MaxLag          *int     `json:"max_lag,omitempty"`
	MinSignificance *float64 `json:"min_significance,omitempty"`
	OnlySignificant bool     `json:"only_significant,omitempty"`
}

// Correlation is one metric-pair correlation result.
type Correlation struct {
	MetricAID   int64   `json:"metric_a_id"`
	MetricBID   int64   `json:"metric_b_id"`
	Coefficient float64 `json:"coefficient"`
	PValue      float64 `json:"p_value"`
	Lag         int     `json:"lag"`
	SampleSize  int     `json:"sample_size"`
	Significant bool    `json:"significant"`
}

type correlationList struct {
	Correlations []Correlation `json:"correlations"`
}

// Correlations computes pairwise correlations between the user's metrics.
func (c *Client) Correlations(ctx context.Context, params CorrelationParams) ([]Correlation, error) {
	var out correlationList
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/analytics/correlations", params, &out); err != nil {
		return nil, err
	}
	return out.Correlations, nil
}

// MetricStatistics is a per-metric summary.
type MetricStatistics struct {
	MetricID int64    `json:"metric_id"`
	Count    int      `json:"count"`
	Mean     *float64 `json:"mean,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	StdDev   *float64 `json:"std_dev,omitempty"`
}

type statisticsList struct {
	Statistics []MetricStatistics `json:"statistics"`
}

// Statistics fetches summary statistics, optionally scoped by metric IDs
// (comma-separated) and date range.
func (c *Client) Statistics(ctx context.Context, metricIDs []string, dateFrom, dateTo string) ([]MetricStatistics, error) {
	q := url.Values{}
	if len(metricIDs) > 0 {
		q.Set("metric_ids", strings.Join(metricIDs, ","))
	}
	if dateFrom != "" {
		q.Set("date_from", dateFrom)
	}
	if dateTo != "" {
		q.Set("date_to", dateTo)
	}
	path := apiPrefix + "/analytics/statistics"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out statisticsList
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Statistics, nil
}
