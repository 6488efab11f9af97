package service

import (
	"time"

	"github.com/noah-isme/smart-planner-api/internal/models"
	appErrors "github.com/noah-isme/smart-planner-api/pkg/errors"
)

// IsAvailable reports whether [start, start+duration) is free of every event in
// others. Intervals are half-open, so touching boundaries never conflict.
// Floating and zoned timestamps cannot be compared with each other.
func IsAvailable(start time.Time, duration time.Duration, others []models.Event) (bool, error) {
	if duration <= 0 {
		return false, appErrors.InvalidField("duration", "must be positive")
	}
	floating := models.IsFloating(start)
	end := start.Add(duration)
	for _, other := range others {
		if models.IsFloating(other.Start) != floating || models.IsFloating(other.End) != floating {
			return false, appErrors.InvalidField("start", "cannot compare floating and zoned timestamps")
		}
		if overlaps(start, end, other.Start, other.End) {
			return false, nil
		}
	}
	return true, nil
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// sameAwareness rejects batches that mix floating and zoned timestamps.
func sameAwareness(events []models.Event) error {
	if len(events) == 0 {
		return nil
	}
	floating := models.IsFloating(events[0].Start)
	for _, e := range events {
		if models.IsFloating(e.Start) != floating || models.IsFloating(e.End) != floating {
			return appErrors.InvalidField("start", "cannot compare floating and zoned timestamps")
		}
	}
	return nil
}

// civilDate truncates t to its calendar date in its own location.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameDate(a, b time.Time) bool {
	return civilDate(a).Equal(civilDate(b))
}
