// ABOUTME: Metric model, category and value-type enums for tracked metrics.
// ABOUTME: Metrics are user-defined trackable quantities, archived rather than deleted.
package models

import "time"

// Category groups metrics in the UI. The server validates against the same set.
type Category string

const (
	CategoryPhysical      Category = "physical"
	CategoryPsychological Category = "psychological"
	CategoryTriggers      Category = "triggers"
	CategoryMedications   Category = "medications"
	CategorySelfcare      Category = "selfcare"
	CategoryWellness      Category = "wellness"
	CategoryNotes         Category = "notes"
)

// AllCategories returns all valid metric categories.
var AllCategories = []Category{
	CategoryPhysical, CategoryPsychological, CategoryTriggers,
	CategoryMedications, CategorySelfcare, CategoryWellness, CategoryNotes,
}

// ValueType determines which EntryValue slot a metric's values occupy.
type ValueType string

const (
	ValueRange   ValueType = "range"
	ValueNumber  ValueType = "number"
	ValueBoolean ValueType = "boolean"
	ValueCount   ValueType = "count"
	ValueText    ValueType = "text"
)

// AllValueTypes returns all valid metric value types.
var AllValueTypes = []ValueType{
	ValueRange, ValueNumber, ValueBoolean, ValueCount, ValueText,
}

// IsValidValueType checks if a string is a valid value type.
func IsValidValueType(s string) bool {
	for _, vt := range AllValueTypes {
		if string(vt) == s {
			return true
		}
	}
	return false
}

// IsNumeric reports whether values of this type live in the numeric slot.
func (v ValueType) IsNumeric() bool {
	return v == ValueRange || v == ValueNumber || v == ValueCount
}

// Metric is a user-defined trackable quantity (e.g. sleep hours, mood).
// IDs are server-issued positive integers; records created offline carry a
// temporary negative ID until the next full refresh from the server.
type Metric struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	NameKey      string    `json:"name_key"`
	Category     Category  `json:"category"`
	ValueType    ValueType `json:"value_type"`
	MinValue     *float64  `json:"min_value,omitempty"`
	MaxValue     *float64  `json:"max_value,omitempty"`
	Description  *string   `json:"description,omitempty"`
	Color        *string   `json:"color,omitempty"`
	Icon         *string   `json:"icon,omitempty"`
	DisplayOrder int       `json:"display_order"`
	Archived     bool      `json:"archived"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
