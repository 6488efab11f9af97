package dto

import (
	"time"

	"github.com/noah-isme/smart-planner-api/internal/models"
)

// DateLayout is the calendar date format accepted by planner endpoints.
const DateLayout = "2006-01-02"

// SuggestRequest narrows the optimization window. Empty dates default to
// today and today plus the configured window in the user's timezone.
type SuggestRequest struct {
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Timezone  string `json:"timezone" validate:"omitempty,timezone"`
	Refresh   bool   `json:"refresh"`
}

// SuggestResponse is the outcome of one optimization run.
type SuggestResponse struct {
	RunID         string                    `json:"run_id"`
	Status        models.OptimizationStatus `json:"status"`
	Message       string                    `json:"message"`
	StartDate     string                    `json:"start_date"`
	EndDate       string                    `json:"end_date"`
	Timezone      string                    `json:"timezone"`
	PendingEvents int                       `json:"pending_events"`
	Suggestions   []models.Suggestion       `json:"suggestions"`
	Rejected      []string                  `json:"rejected_event_ids,omitempty"`
	ModelVersion  string                    `json:"model_version,omitempty"`
	GeneratedAt   time.Time                 `json:"generated_at"`
	Cached        bool                      `json:"cached"`
}

// PredictRequest asks for the best start hour of a prospective event.
type PredictRequest struct {
	EventID       string  `json:"event_id"`
	EventType     string  `json:"event_type" validate:"required"`
	Priority      string  `json:"priority" validate:"required"`
	DurationHours float64 `json:"duration_hours" validate:"required,gt=0,lte=24"`
	Date          string  `json:"date" validate:"required,datetime=2006-01-02"`
	DueDate       string  `json:"due_date"`
	Timezone      string  `json:"timezone" validate:"omitempty,timezone"`
}

// PredictResponse carries the scored candidate hours for one date.
type PredictResponse struct {
	Date           string                `json:"date"`
	Timezone       string                `json:"timezone"`
	DaysToDeadline int                   `json:"days_to_deadline"`
	ModelVersion   string                `json:"model_version"`
	Prediction     models.SlotPrediction `json:"prediction"`
}

// ReloadResponse reports the model state after a reload attempt.
type ReloadResponse struct {
	Reloaded bool               `json:"reloaded"`
	Status   models.ModelStatus `json:"status"`
}
