// ABOUTME: Tests for API error parsing and retryability classification.
// ABOUTME: Validation detail arrays collapse into one readable message.
package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseErrorPlainDetail(t *testing.T) {
	err := parseError(http.StatusNotFound, []byte(`{"detail":"metric not found"}`))
	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, "metric not found", err.Detail)
	assert.Equal(t, "api: 404: metric not found", err.Error())
}

func TestParseErrorValidationArray(t *testing.T) {
	body := `{"detail":[
		{"loc":["body","name_key"],"msg":"field required"},
		{"loc":["body","category"],"msg":"invalid category"}
	]}`
	err := parseError(http.StatusUnprocessableEntity, []byte(body))
	assert.Equal(t, "name_key: field required; category: invalid category", err.Detail)
}

func TestParseErrorNonJSONBody(t *testing.T) {
	err := parseError(http.StatusBadGateway, []byte("upstream timeout\n"))
	assert.Equal(t, "upstream timeout", err.Detail)
}

func TestParseErrorEmptyBody(t *testing.T) {
	err := parseError(http.StatusInternalServerError, nil)
	assert.Equal(t, "api: 500: Internal Server Error", err.Error())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&Error{StatusCode: http.StatusInternalServerError}))
	assert.True(t, IsRetryable(&Error{StatusCode: http.StatusBadGateway}))
	assert.False(t, IsRetryable(&Error{StatusCode: http.StatusBadRequest}))
	assert.False(t, IsRetryable(&Error{StatusCode: http.StatusUnprocessableEntity}))

	// Anything that never reached the server counts as transient.
	assert.True(t, IsRetryable(errors.New("dial tcp: connection refused")))
}
