package service

import (
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/smart-planner-api/internal/models"
	appErrors "github.com/noah-isme/smart-planner-api/pkg/errors"
)

const (
	reasonHighConfidence = "High prediction confidence"
	reasonHighPriority   = "High priority calls for a premium slot"
	reasonAvailable      = "Slot is free of conflicts"
	reasonFallback       = "Optimization based on productivity patterns"
	reasonSeparator      = ". "
)

// ScheduleOptimizer picks better start hours for a batch of events.
type ScheduleOptimizer struct {
	scorer  *CandidateScorer
	policy  *RankingPolicy
	version string
	logger  *zap.Logger
}

// NewScheduleOptimizer wires a model and ranking policy into an optimizer.
func NewScheduleOptimizer(model SlotModel, policy *RankingPolicy, logger *zap.Logger) (*ScheduleOptimizer, error) {
	scorer, err := NewCandidateScorer(model)
	if err != nil {
		return nil, err
	}
	if policy == nil {
		policy = DefaultRankingPolicy()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleOptimizer{scorer: scorer, policy: policy, version: model.Version(), logger: logger}, nil
}

// PredictBestSlot scores every candidate hour of date for one event.
func (o *ScheduleOptimizer) PredictBestSlot(f EventFeatures, date time.Time, others []models.Event) (*models.SlotPrediction, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	duration := time.Duration(f.Duration * float64(time.Hour))
	return o.predict(f, duration, date, others)
}

func (o *ScheduleOptimizer) predict(f EventFeatures, duration time.Duration, date time.Time, others []models.Event) (*models.SlotPrediction, error) {
	y, m, d := date.Date()
	options := make([]models.CandidateSlot, 0, o.policy.HourEnd-o.policy.HourStart+1)
	scores := make([]float64, 0, cap(options))
	best := -1
	for hour := o.policy.HourStart; hour <= o.policy.HourEnd; hour++ {
		start := time.Date(y, m, d, hour, 0, 0, 0, date.Location())
		available, err := IsAvailable(start, duration, others)
		if err != nil {
			return nil, err
		}
		probability, err := o.scorer.ScoreHour(f, hour)
		if err != nil {
			return nil, err
		}
		slot := models.CandidateSlot{
			Hour:        hour,
			Label:       fmt.Sprintf("%02d:00", hour),
			Probability: probability,
			Score:       o.policy.Rank(probability, hour, f, available),
			Available:   available,
		}
		options = append(options, slot)
		scores = append(scores, slot.Score)
		if best < 0 || better(slot, options[best]) {
			best = len(options) - 1
		}
	}
	winner := options[best]
	return &models.SlotPrediction{
		BestHour:    winner.Hour,
		BestLabel:   winner.Label,
		Probability: winner.Probability,
		Score:       winner.Score,
		Confidence:  Confidence(scores),
		Available:   winner.Available,
		Options:     options,
	}, nil
}

// better orders by score, then probability; earlier hours win remaining ties.
func better(candidate, incumbent models.CandidateSlot) bool {
	if candidate.Score != incumbent.Score {
		return candidate.Score > incumbent.Score
	}
	return candidate.Probability > incumbent.Probability
}

// Optimize proposes new start hours for the pending events between startDate
// and endDate. Conflicts between proposals are resolved in input order: a
// proposal overlapping one accepted earlier on the same date is dropped.
func (o *ScheduleOptimizer) Optimize(events []models.Event, startDate, endDate time.Time) (*models.OptimizationResult, error) {
	if endDate.Before(startDate) {
		return nil, appErrors.InvalidField("end_date", "must not be before start_date")
	}
	if err := sameAwareness(events); err != nil {
		return nil, err
	}

	from, to := civilDate(startDate), civilDate(endDate)
	pending := make([]int, 0, len(events))
	for i, e := range events {
		if e.Completed {
			continue
		}
		day := civilDate(e.Start)
		if day.Before(from) || day.After(to) {
			continue
		}
		if err := e.Validate(); err != nil {
			return nil, err
		}
		pending = append(pending, i)
	}

	result := &models.OptimizationResult{
		PendingEvents: len(pending),
		Suggestions:   []models.Suggestion{},
		ModelVersion:  o.version,
	}
	if len(pending) < o.policy.MinPendingEvents {
		result.Status = models.OptimizationStatusInsufficientData
		return result, nil
	}

	for _, idx := range pending {
		event := events[idx]
		f := FeaturesFor(event, startDate)
		prediction, err := o.predict(f, event.Duration(), event.Start, excluding(events, idx))
		if err != nil {
			return nil, err
		}
		if prediction.BestHour == event.Start.Hour() {
			continue
		}

		y, m, d := event.Start.Date()
		start := time.Date(y, m, d, prediction.BestHour, 0, 0, 0, event.Start.Location())
		suggestion := models.Suggestion{
			EventID:          event.ID,
			Title:            event.Title,
			CurrentStart:     event.Start,
			SuggestedStart:   start,
			SuggestedEnd:     start.Add(event.Duration()),
			BestHour:         prediction.BestHour,
			ImprovementScore: math.Round((prediction.Score-0.5)*1000) / 10,
			Confidence:       prediction.Confidence,
			Options:          prediction.Options,
		}
		if !prediction.Available || collides(suggestion, result.Suggestions) {
			o.logger.Debug("suggestion dropped",
				zap.String("event_id", event.ID),
				zap.Int("best_hour", prediction.BestHour),
				zap.Bool("available", prediction.Available))
			result.Rejected = append(result.Rejected, event.ID)
			continue
		}
		suggestion.Reasons = o.reasons(f, prediction)
		suggestion.Reason = strings.Join(suggestion.Reasons, reasonSeparator)
		result.Suggestions = append(result.Suggestions, suggestion)
	}

	if len(result.Suggestions) == 0 {
		result.Status = models.OptimizationStatusAlreadyOptimal
	} else {
		result.Status = models.OptimizationStatusOK
	}
	return result, nil
}

func excluding(events []models.Event, skip int) []models.Event {
	others := make([]models.Event, 0, len(events)-1)
	others = append(others, events[:skip]...)
	return append(others, events[skip+1:]...)
}

func collides(candidate models.Suggestion, accepted []models.Suggestion) bool {
	for _, s := range accepted {
		if !sameDate(s.SuggestedStart, candidate.SuggestedStart) {
			continue
		}
		if overlaps(candidate.SuggestedStart, candidate.SuggestedEnd, s.SuggestedStart, s.SuggestedEnd) {
			return true
		}
	}
	return false
}

// reasons lists the heuristics that favoured the chosen hour.
func (o *ScheduleOptimizer) reasons(f EventFeatures, prediction *models.SlotPrediction) []string {
	var out []string
	if prediction.Confidence > o.policy.HighConfidence {
		out = append(out, reasonHighConfidence)
	}
	if rule, ok := o.policy.timeOfDayRule(f.EventType, prediction.BestHour); ok && rule.Reason != "" {
		out = append(out, rule.Reason)
	}
	if f.Priority == models.PriorityHigh {
		out = append(out, reasonHighPriority)
	}
	if f.DaysToDeadline <= o.policy.urgencyWindow() {
		out = append(out, fmt.Sprintf("Deadline urgency: due in %d day(s)", f.DaysToDeadline))
	}
	if prediction.Available {
		out = append(out, reasonAvailable)
	}
	if len(out) == 0 {
		out = append(out, reasonFallback)
	}
	return out
}
