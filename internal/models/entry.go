// ABOUTME: Entry and EntryValue models for daily log records.
// ABOUTME: One entry per user per calendar date; values reference metrics.
package models

import "time"

// DateFormat is the calendar-date layout used for entry dates everywhere
// (storage keys, range queries, API paths). Lexical order equals date order.
const DateFormat = "2006-01-02"

// EntryValue is a single recorded value within an entry. Exactly one of the
// three value slots is populated, determined by the referenced metric's
// value type.
type EntryValue struct {
	ID           int64     `json:"id"`
	EntryID      int64     `json:"entry_id"`
	MetricID     int64     `json:"metric_id"`
	ValueNumeric *float64  `json:"value_numeric,omitempty"`
	ValueBoolean *bool     `json:"value_boolean,omitempty"`
	ValueText    *string   `json:"value_text,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Entry is a per-date record bundling values for one or more metrics.
type Entry struct {
	ID        int64        `json:"id"`
	UserID    int64        `json:"user_id"`
	EntryDate string       `json:"entry_date"`
	Notes     *string      `json:"notes,omitempty"`
	Values    []EntryValue `json:"values"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// ValueFor returns the entry's value for the given metric, or nil.
func (e *Entry) ValueFor(metricID int64) *EntryValue {
	for i := range e.Values {
		if e.Values[i].MetricID == metricID {
			return &e.Values[i]
		}
	}
	return nil
}
