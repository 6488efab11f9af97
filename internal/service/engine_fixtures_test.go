package service

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smart-planner-api/internal/ml"
	"github.com/noah-isme/smart-planner-api/internal/models"
)

type stubSlotModel struct {
	probability func(f ml.Features) float64
	err         error
	calls       int
}

func constantModel(p float64) *stubSlotModel {
	return &stubSlotModel{probability: func(ml.Features) float64 { return p }}
}

func (s *stubSlotModel) Predict(f ml.Features) (float64, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return s.probability(f), nil
}

func (s *stubSlotModel) Version() string { return "stub-1" }

// 2025-06-25 is a Wednesday.
func at(day, hour, minute int) time.Time {
	return time.Date(2025, time.June, day, hour, minute, 0, 0, time.UTC)
}

func dayOf(day int) *time.Time {
	t := time.Date(2025, time.June, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func event(id string, eventType models.EventType, priority models.Priority, start time.Time, duration time.Duration) models.Event {
	return models.Event{
		ID:        id,
		UserID:    "user-1",
		Title:     "Event " + id,
		EventType: eventType,
		Priority:  priority,
		Start:     start,
		End:       start.Add(duration),
	}
}

const (
	fixtureClassifier = `{"type": "gradient_boosting", "model": {"n_features": 6, "init_score": 0.1, "learning_rate": 0.3,
		"trees": [{"children_left": [1, -1, -1], "children_right": [2, -1, -1], "feature": [0, -2, -2], "threshold": [0.0, -2, -2], "value": [0.0, 1.0, -1.0]}]}}`
	fixtureEncoders = `{"event_type": ["break", "class", "other", "personal", "task"], "priority": ["high", "low", "medium"]}`
	fixtureScaler   = `{"features": ["start_hour", "duration", "weekday", "days_to_deadline"], "mean": [14, 1.5, 3, 10], "scale": [4, 0.5, 2, 100]}`
)

func writeModelBundle(t *testing.T, dir string, withMetadata bool) {
	t.Helper()
	files := map[string]string{
		ml.ClassifierFile: fixtureClassifier,
		ml.EncodersFile:   fixtureEncoders,
		ml.ScalerFile:     fixtureScaler,
	}
	if withMetadata {
		files[ml.MetadataFile] = `{"version": "2025.06", "trained_date": "2025-06-01"}`
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
}

func loadFixtureBundle(t *testing.T) *ml.Bundle {
	t.Helper()
	dir := t.TempDir()
	writeModelBundle(t, dir, true)
	bundle, err := ml.Load(dir)
	require.NoError(t, err)
	return bundle
}
