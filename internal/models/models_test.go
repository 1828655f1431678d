// ABOUTME: Tests for the core domain models.
// ABOUTME: Value-type classification and sync operation construction.
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueTypeIsNumeric(t *testing.T) {
	assert.True(t, ValueRange.IsNumeric())
	assert.True(t, ValueNumber.IsNumeric())
	assert.True(t, ValueCount.IsNumeric())
	assert.False(t, ValueBoolean.IsNumeric())
	assert.False(t, ValueText.IsNumeric())
}

func TestIsValidValueType(t *testing.T) {
	for _, vt := range AllValueTypes {
		assert.True(t, IsValidValueType(string(vt)))
	}
	assert.False(t, IsValidValueType("percentage"))
	assert.False(t, IsValidValueType(""))
}

func TestNewSyncOperation(t *testing.T) {
	id := int64(7)
	op := NewSyncOperation(OpUpdate, EntityEntry, []byte(`{"notes":"x"}`), &id)

	assert.Equal(t, OpUpdate, op.Operation)
	assert.Equal(t, EntityEntry, op.Entity)
	require.NotNil(t, op.EntityID)
	assert.Equal(t, int64(7), *op.EntityID)
	assert.Equal(t, SyncPending, op.Status)
	assert.Zero(t, op.RetryCount)
	assert.NotEmpty(t, op.IdempotencyKey)
	assert.Positive(t, op.Timestamp)

	// Each operation gets its own idempotency key.
	other := NewSyncOperation(OpUpdate, EntityEntry, []byte(`{}`), &id)
	assert.NotEqual(t, op.IdempotencyKey, other.IdempotencyKey)
}

func TestEntryValueFor(t *testing.T) {
	seven := 7.0
	e := &Entry{
		Values: []EntryValue{
			{MetricID: 1, ValueNumeric: &seven},
		},
	}

	v := e.ValueFor(1)
	require.NotNil(t, v)
	assert.Equal(t, 7.0, *v.ValueNumeric)
	assert.Nil(t, e.ValueFor(2))
}
