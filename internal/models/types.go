package models

import (
	"time"
)

// Common constants
const (
	// ActivityLogTable is the logical table holding activity log entries
	ActivityLogTable = "activity_log"

	// Identity and bookkeeping columns of an activity log entry
	ColumnID         = "id"
	ColumnWeekNumber = "week_number"
	ColumnDayOfWeek  = "day_of_week"
	ColumnCreatedAt  = "created_at"
)

// ReservedColumns are managed by the store or form the entry identity.
// None of them can be changed through a column update.
var ReservedColumns = map[string]struct{}{
	ColumnID:         {},
	ColumnWeekNumber: {},
	ColumnDayOfWeek:  {},
	ColumnCreatedAt:  {},
}

// DefaultUpdatableColumns is the column allow-list used when none is configured
var DefaultUpdatableColumns = []string{
	"steps",
	"workout",
	"workout_done",
	"duration_minutes",
	"calories",
	"distance_km",
	"sleep_hours",
	"water_liters",
	"weight_kg",
	"mood",
	"notes",
	"completed",
}

// StatusResponse is the body returned by successful write actions
type StatusResponse struct {
	Status string `json:"status"`
}

// SuccessStatus is the canonical write acknowledgement
var SuccessStatus = StatusResponse{Status: "success"}

// ErrorBody is the JSON error envelope used by the dispatcher
type ErrorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// ValidationError represents a validation error with field-specific details
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Error implements the error interface
func (ve *ValidationError) Error() string {
	return ve.Message
}

// HealthCheck represents system health status
type HealthCheck struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Services  map[string]string `json:"services"`
}
