// ABOUTME: Typed errors for remote API failures with detail extraction.
// ABOUTME: Validation error arrays are joined into a single readable string.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error is a structured failure from the remote API.
type Error struct {
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("api: %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// IsRetryable reports whether a failure is transient: network errors and
// server-side (5xx) failures are retryable; client-side (4xx) failures,
// including validation errors, are not.
func IsRetryable(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	// Anything that never reached the server (DNS, refused, timeout).
	return true
}

// errorBody mirrors the server's error envelope. Detail is either a plain
// string or an array of validation errors with per-field messages.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type validationError struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// parseError builds an *Error from a non-2xx response body.
func parseError(statusCode int, body []byte) *Error {
	apiErr := &Error{StatusCode: statusCode}
	var envelope errorBody
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		apiErr.Detail = strings.TrimSpace(string(body))
		return apiErr
	}

	var plain string
	if err := json.Unmarshal(envelope.Detail, &plain); err == nil {
		apiErr.Detail = plain
		return apiErr
	}

	var validation []validationError
	if err := json.Unmarshal(envelope.Detail, &validation); err == nil {
		msgs := make([]string, 0, len(validation))
		for _, v := range validation {
			if len(v.Loc) > 0 {
				msgs = append(msgs, fmt.Sprintf("%v: %s", v.Loc[len(v.Loc)-1], v.Msg))
			} else {
				msgs = append(msgs, v.Msg)
			}
		}
		apiErr.Detail = strings.Join(msgs, "; ")
		return apiErr
	}

	apiErr.Detail = strings.TrimSpace(string(envelope.Detail))
	return apiErr
}
