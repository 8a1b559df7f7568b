package services

import (
	"context"
	"encoding/json"

	"activity-log-api/internal/generation"
	"activity-log-api/internal/models"
)

// ActivityService defines the activity log operations behind the data actions
type ActivityService interface {
	// GetData returns every entry ordered ascending by week_number
	GetData(ctx context.Context) ([]*models.ActivityLogEntry, error)

	// UpdateDay sets one column on the entry matching week_number and day_of_week
	UpdateDay(ctx context.Context, req *UpdateDayRequest) error

	// AddWeek copies a plan of day-objects into a new week and inserts them
	AddWeek(ctx context.Context, req *AddWeekRequest) error
}

// InsightService forwards insight prompts to the text generator
type InsightService interface {
	// GetInsights returns the generation result. The error is only set for
	// invalid requests; provider failures are carried inside the Result.
	GetInsights(ctx context.Context, req *InsightRequest) (generation.Result, error)
}

// TextGenerator produces text for a prompt and a system instruction
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt, systemPrompt string) generation.Result
}

// Request types

// UpdateDayRequest represents the updateDay action body
type UpdateDayRequest struct {
	WeekNumber *int              `json:"week_number" validate:"required"`
	DayOfWeek  *models.DayOfWeek `json:"day_of_week" validate:"required"`
	Column     string            `json:"column" validate:"required"`
	Value      json.RawMessage   `json:"value" validate:"required"`
}

// AddWeekRequest represents the addWeek action body
type AddWeekRequest struct {
	NewWeekNumber *int                         `json:"new_week_number" validate:"required"`
	InitialPlan   []map[string]json.RawMessage `json:"initialPlan" validate:"required,min=1"`
}

// InsightRequest represents the getWeeklyInsights and getMonthlyInsights bodies
type InsightRequest struct {
	Prompt       *string `json:"prompt" validate:"required"`
	SystemPrompt *string `json:"systemPrompt" validate:"required"`
}
