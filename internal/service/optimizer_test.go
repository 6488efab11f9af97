package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/smart-planner-api/internal/ml"
	"github.com/noah-isme/smart-planner-api/internal/models"
	appErrors "github.com/noah-isme/smart-planner-api/pkg/errors"
)

func newTestOptimizer(t *testing.T, model SlotModel) *ScheduleOptimizer {
	t.Helper()
	optimizer, err := NewScheduleOptimizer(model, DefaultRankingPolicy(), zap.NewNop())
	require.NoError(t, err)
	return optimizer
}

func TestPredictBestSlotFavoursPeakHoursForUrgentTask(t *testing.T) {
	optimizer := newTestOptimizer(t, constantModel(0.6))
	f := EventFeatures{EventType: models.EventTypeTask, Priority: models.PriorityHigh, Duration: 1, Weekday: 2, DaysToDeadline: 1}

	prediction, err := optimizer.PredictBestSlot(f, at(25, 0, 0), nil)
	require.NoError(t, err)

	assert.Equal(t, 9, prediction.BestHour, "earliest of the tied peak hours wins")
	assert.Equal(t, "09:00", prediction.BestLabel)
	assert.True(t, prediction.Available)
	assert.Len(t, prediction.Options, 17)

	var late models.CandidateSlot
	for _, option := range prediction.Options {
		if option.Hour == 22 {
			late = option
		}
	}
	assert.Less(t, late.Score, prediction.Score)
	assert.Greater(t, prediction.Confidence, 0.0)
	assert.LessOrEqual(t, prediction.Confidence, 1.0)
}

func TestPredictBestSlotBreaksScoreTiesByProbability(t *testing.T) {
	model := &stubSlotModel{probability: func(f ml.Features) float64 {
		switch f.StartHour {
		case 9:
			return 0.5
		case 12:
			return 0.65
		default:
			return 0.1
		}
	}}
	optimizer := newTestOptimizer(t, model)
	f := EventFeatures{EventType: models.EventTypeTask, Priority: models.PriorityMedium, Duration: 1, DaysToDeadline: NoDeadline}

	prediction, err := optimizer.PredictBestSlot(f, at(25, 0, 0), nil)
	require.NoError(t, err)
	assert.Equal(t, 12, prediction.BestHour)
	assert.Equal(t, 0.65, prediction.Probability)
}

func TestOptimizeSuggestsPeakHourForUrgentTask(t *testing.T) {
	optimizer := newTestOptimizer(t, constantModel(0.6))

	urgent := event("urgent", models.EventTypeTask, models.PriorityHigh, at(25, 22, 0), time.Hour)
	urgent.DueDate = dayOf(26)
	events := []models.Event{
		urgent,
		event("b", models.EventTypeTask, models.PriorityMedium, at(26, 9, 0), time.Hour),
		event("c", models.EventTypeTask, models.PriorityMedium, at(27, 9, 0), time.Hour),
		event("d", models.EventTypeTask, models.PriorityMedium, at(28, 9, 0), time.Hour),
	}

	result, err := optimizer.Optimize(events, at(25, 0, 0), at(30, 0, 0))
	require.NoError(t, err)

	require.Equal(t, models.OptimizationStatusOK, result.Status)
	require.Len(t, result.Suggestions, 1)
	s := result.Suggestions[0]
	assert.Equal(t, "urgent", s.EventID)
	assert.Equal(t, at(25, 9, 0), s.SuggestedStart)
	assert.Equal(t, at(25, 10, 0), s.SuggestedEnd)
	assert.Equal(t, at(25, 22, 0), s.CurrentStart)
	assert.InDelta(t, 92.0, s.ImprovementScore, 0.05)
	assert.Contains(t, s.Reason, "priority")
	assert.Contains(t, s.Reason, "urgency")
	assert.Equal(t, []string{
		"Peak morning concentration window",
		"High priority calls for a premium slot",
		"Deadline urgency: due in 1 day(s)",
		"Slot is free of conflicts",
	}, s.Reasons)
	assert.Equal(t, "stub-1", result.ModelVersion)
}

func TestOptimizeDropsSuggestionCollidingWithAcceptedOne(t *testing.T) {
	optimizer := newTestOptimizer(t, constantModel(0.6))
	events := []models.Event{
		event("first", models.EventTypeTask, models.PriorityMedium, at(25, 13, 0), time.Hour),
		event("second", models.EventTypeTask, models.PriorityMedium, at(26, 13, 0), time.Hour),
		event("third", models.EventTypeTask, models.PriorityMedium, at(25, 19, 0), time.Hour),
		event("fourth", models.EventTypeTask, models.PriorityMedium, at(27, 13, 0), time.Hour),
		event("fifth", models.EventTypeTask, models.PriorityMedium, at(28, 13, 0), time.Hour),
	}

	result, err := optimizer.Optimize(events, at(25, 0, 0), at(30, 0, 0))
	require.NoError(t, err)

	ids := make([]string, 0, len(result.Suggestions))
	for _, s := range result.Suggestions {
		ids = append(ids, s.EventID)
		assert.Equal(t, 9, s.SuggestedStart.Hour())
	}
	assert.Equal(t, []string{"first", "second", "fourth", "fifth"}, ids)
	assert.Equal(t, []string{"third"}, result.Rejected, "the third event is not re-ranked to its next best hour")
}

func TestOptimizeWithTooFewPendingEventsReportsInsufficientData(t *testing.T) {
	optimizer := newTestOptimizer(t, constantModel(0.6))
	done := event("done", models.EventTypeTask, models.PriorityHigh, at(25, 20, 0), time.Hour)
	done.Completed = true
	events := []models.Event{
		event("a", models.EventTypeTask, models.PriorityHigh, at(25, 20, 0), time.Hour),
		event("b", models.EventTypeTask, models.PriorityHigh, at(26, 20, 0), time.Hour),
		event("c", models.EventTypeTask, models.PriorityHigh, at(27, 20, 0), time.Hour),
		done,
		event("outside", models.EventTypeTask, models.PriorityHigh, at(10, 20, 0), time.Hour),
	}

	result, err := optimizer.Optimize(events, at(25, 0, 0), at(30, 0, 0))
	require.NoError(t, err)

	assert.Equal(t, models.OptimizationStatusInsufficientData, result.Status)
	assert.Equal(t, 3, result.PendingEvents)
	assert.Empty(t, result.Suggestions)
}

func TestOptimizeReportsAlreadyOptimal(t *testing.T) {
	model := constantModel(0.6)
	optimizer := newTestOptimizer(t, model)
	events := []models.Event{
		event("a", models.EventTypeTask, models.PriorityMedium, at(25, 9, 0), time.Hour),
		event("b", models.EventTypeTask, models.PriorityMedium, at(26, 9, 0), time.Hour),
		event("c", models.EventTypeTask, models.PriorityMedium, at(27, 9, 0), time.Hour),
		event("d", models.EventTypeTask, models.PriorityMedium, at(28, 9, 0), time.Hour),
	}

	result, err := optimizer.Optimize(events, at(25, 0, 0), at(30, 0, 0))
	require.NoError(t, err)

	assert.Equal(t, models.OptimizationStatusAlreadyOptimal, result.Status)
	assert.Empty(t, result.Suggestions)
	assert.Equal(t, 4*17, model.calls)
}

func TestOptimizeDropsUnavailableBestSlot(t *testing.T) {
	optimizer := newTestOptimizer(t, constantModel(0.6))
	allDay := event("all-day", models.EventTypeClass, models.PriorityMedium, at(25, 6, 0), 17*time.Hour)
	allDay.Completed = true
	events := []models.Event{
		event("blocked", models.EventTypeTask, models.PriorityMedium, at(25, 13, 0), time.Hour),
		event("b", models.EventTypeTask, models.PriorityMedium, at(26, 9, 0), time.Hour),
		event("c", models.EventTypeTask, models.PriorityMedium, at(27, 9, 0), time.Hour),
		event("d", models.EventTypeTask, models.PriorityMedium, at(28, 9, 0), time.Hour),
		allDay,
	}

	result, err := optimizer.Optimize(events, at(25, 0, 0), at(30, 0, 0))
	require.NoError(t, err)

	assert.Equal(t, models.OptimizationStatusAlreadyOptimal, result.Status)
	assert.Equal(t, []string{"blocked"}, result.Rejected)
}

func TestOptimizeValidatesEveryPendingEventFirst(t *testing.T) {
	model := constantModel(0.6)
	optimizer := newTestOptimizer(t, model)
	bad := event("bad", models.EventTypeTask, "urgent", at(28, 9, 0), time.Hour)
	events := []models.Event{
		event("a", models.EventTypeTask, models.PriorityMedium, at(25, 13, 0), time.Hour),
		event("b", models.EventTypeTask, models.PriorityMedium, at(26, 13, 0), time.Hour),
		event("c", models.EventTypeTask, models.PriorityMedium, at(27, 13, 0), time.Hour),
		bad,
	}

	result, err := optimizer.Optimize(events, at(25, 0, 0), at(30, 0, 0))
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, "priority", appErrors.FromError(err).Field)
	assert.Zero(t, model.calls, "no event is scored when validation fails")
}

func TestOptimizeRejectsMixedTimestampAwareness(t *testing.T) {
	optimizer := newTestOptimizer(t, constantModel(0.6))
	floating := time.Date(2025, time.June, 26, 9, 0, 0, 0, models.Floating)
	events := []models.Event{
		event("a", models.EventTypeTask, models.PriorityMedium, at(25, 13, 0), time.Hour),
		event("b", models.EventTypeTask, models.PriorityMedium, floating, time.Hour),
	}

	_, err := optimizer.Optimize(events, at(25, 0, 0), at(30, 0, 0))
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestOptimizePreservesOriginalDuration(t *testing.T) {
	optimizer := newTestOptimizer(t, constantModel(0.6))
	events := []models.Event{
		event("a", models.EventTypeTask, models.PriorityMedium, at(25, 13, 0), 97*time.Minute),
		event("b", models.EventTypeTask, models.PriorityMedium, at(26, 9, 0), time.Hour),
		event("c", models.EventTypeTask, models.PriorityMedium, at(27, 9, 0), time.Hour),
		event("d", models.EventTypeTask, models.PriorityMedium, at(28, 9, 0), time.Hour),
	}

	result, err := optimizer.Optimize(events, at(25, 0, 0), at(30, 0, 0))
	require.NoError(t, err)
	require.Len(t, result.Suggestions, 1)
	s := result.Suggestions[0]
	assert.Equal(t, 97*time.Minute, s.SuggestedEnd.Sub(s.SuggestedStart))
}

func TestNewScheduleOptimizerWithoutModel(t *testing.T) {
	_, err := NewScheduleOptimizer(nil, nil, nil)
	assert.ErrorIs(t, err, appErrors.ErrModelNotReady)
}

func TestOptimizeIsRepeatableWithRealBundle(t *testing.T) {
	optimizer := newTestOptimizer(t, loadFixtureBundle(t))
	events := []models.Event{
		event("a", models.EventTypeTask, models.PriorityHigh, at(25, 21, 0), time.Hour),
		event("b", models.EventTypeClass, models.PriorityMedium, at(26, 19, 0), 2*time.Hour),
		event("c", models.EventTypePersonal, models.PriorityLow, at(27, 12, 0), time.Hour),
		event("d", models.EventTypeTask, models.PriorityLow, at(28, 7, 0), 90*time.Minute),
	}

	first, err := optimizer.Optimize(events, at(25, 0, 0), at(30, 0, 0))
	require.NoError(t, err)
	second, err := optimizer.Optimize(events, at(25, 0, 0), at(30, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, "2025.06", first.ModelVersion)
	for _, s := range first.Suggestions {
		assert.NotEmpty(t, s.Reason)
		assert.GreaterOrEqual(t, s.Confidence, 0.0)
		assert.LessOrEqual(t, s.Confidence, 1.0)
	}
}
