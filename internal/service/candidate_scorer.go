package service

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/noah-isme/smart-planner-api/internal/ml"
	"github.com/noah-isme/smart-planner-api/internal/models"
	appErrors "github.com/noah-isme/smart-planner-api/pkg/errors"
)

// NoDeadline is the days-to-deadline sentinel for absent or unreadable due dates.
const NoDeadline = 999

var dueDateLayouts = []string{"2006-01-02", "2006-01-02T15:04:05"}

// SlotModel predicts the probability that a start hour is a good fit.
type SlotModel interface {
	Predict(f ml.Features) (float64, error)
	Version() string
}

// EventFeatures is the validated model input for one event.
type EventFeatures struct {
	EventType      models.EventType `json:"event_type"`
	Priority       models.Priority  `json:"priority"`
	Duration       float64          `json:"duration"`
	Weekday        int              `json:"weekday"`
	DaysToDeadline int              `json:"days_to_deadline"`
}

// Validate rejects features the classifier cannot score.
func (f EventFeatures) Validate() error {
	if !f.EventType.Valid() {
		return appErrors.InvalidField("event_type", fmt.Sprintf("unsupported value %q", f.EventType))
	}
	if !f.Priority.Valid() {
		return appErrors.InvalidField("priority", fmt.Sprintf("unsupported value %q", f.Priority))
	}
	if f.Duration <= 0 {
		return appErrors.InvalidField("duration", "must be positive")
	}
	if f.Weekday < 0 || f.Weekday > 6 {
		return appErrors.InvalidField("weekday", "must be between 0 (Monday) and 6 (Sunday)")
	}
	if f.DaysToDeadline < 0 {
		return appErrors.InvalidField("days_to_deadline", "must not be negative")
	}
	return nil
}

// FeaturesFor derives model features from an event, measuring deadline
// pressure from reference.
func FeaturesFor(e models.Event, reference time.Time) EventFeatures {
	return EventFeatures{
		EventType:      e.EventType,
		Priority:       e.Priority,
		Duration:       RoundDuration(e.Duration().Hours()),
		Weekday:        Weekday(e.Start),
		DaysToDeadline: DaysToDeadline(e.DueDate, reference),
	}
}

// RoundDuration rounds hours to the tenth of an hour the classifier was
// trained on. Positive durations never round down to zero.
func RoundDuration(hours float64) float64 {
	rounded := math.Round(hours*10) / 10
	if hours > 0 && rounded == 0 {
		return 0.1
	}
	return rounded
}

// Weekday returns the Monday-based weekday index of t.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// DaysToDeadline counts calendar days from reference to due, never negative.
func DaysToDeadline(due *time.Time, reference time.Time) int {
	if due == nil || due.IsZero() {
		return NoDeadline
	}
	days := int(civilDate(*due).Sub(civilDate(reference)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// DaysToDeadlineFromString parses a date or date-time string. Unparsable
// values yield NoDeadline instead of an error.
func DaysToDeadlineFromString(raw string, reference time.Time) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NoDeadline
	}
	for _, layout := range dueDateLayouts {
		if due, err := time.Parse(layout, raw); err == nil {
			return DaysToDeadline(&due, reference)
		}
	}
	return NoDeadline
}

// CandidateScorer queries the classifier for one candidate hour at a time.
type CandidateScorer struct {
	model SlotModel
}

// NewCandidateScorer binds a scorer to a loaded model.
func NewCandidateScorer(model SlotModel) (*CandidateScorer, error) {
	if model == nil {
		return nil, appErrors.Clone(appErrors.ErrModelNotReady, "optimizer unavailable: no model loaded")
	}
	return &CandidateScorer{model: model}, nil
}

// ScoreHour returns the classifier probability of hour being a good start.
func (s *CandidateScorer) ScoreHour(f EventFeatures, hour int) (float64, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}
	if hour < 0 || hour > 23 {
		return 0, appErrors.InvalidField("hour", "must be between 0 and 23")
	}
	p, err := s.model.Predict(ml.Features{
		EventType:      string(f.EventType),
		Priority:       string(f.Priority),
		StartHour:      float64(hour),
		Duration:       f.Duration,
		Weekday:        f.Weekday,
		DaysToDeadline: f.DaysToDeadline,
	})
	if err != nil {
		var fieldErr *ml.FieldError
		if errors.As(err, &fieldErr) {
			return 0, appErrors.InvalidField(fieldErr.Field, fieldErr.Err.Error())
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to score candidate hour")
	}
	return p, nil
}
