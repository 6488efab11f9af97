package service

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/smart-planner-api/internal/models"
)

// TimeOfDayRule boosts or penalises a window of hours for some event types.
type TimeOfDayRule struct {
	Types  []models.EventType `yaml:"types"`
	From   int                `yaml:"from"`
	To     int                `yaml:"to"`
	Factor float64            `yaml:"factor"`
	Reason string             `yaml:"reason,omitempty"`
}

func (r TimeOfDayRule) matches(eventType models.EventType, hour int) bool {
	if hour < r.From || hour > r.To {
		return false
	}
	for _, t := range r.Types {
		if t == eventType {
			return true
		}
	}
	return false
}

// UrgencyRule applies Factor when a deadline is at most MaxDays away.
type UrgencyRule struct {
	MaxDays int     `yaml:"max_days"`
	Factor  float64 `yaml:"factor"`
}

// RankingPolicy holds every heuristic multiplier applied on top of the
// classifier probability.
type RankingPolicy struct {
	Name               string                      `yaml:"name"`
	Version            string                      `yaml:"version"`
	HourStart          int                         `yaml:"hour_start"`
	HourEnd            int                         `yaml:"hour_end"`
	MinPendingEvents   int                         `yaml:"min_pending_events"`
	PriorityFactors    map[models.Priority]float64 `yaml:"priority_factors"`
	TimeOfDay          []TimeOfDayRule             `yaml:"time_of_day"`
	Urgency            []UrgencyRule               `yaml:"urgency"`
	UnavailablePenalty float64                     `yaml:"unavailable_penalty"`
	HighConfidence     float64                     `yaml:"high_confidence"`
}

// DefaultRankingPolicy returns the built-in productivity heuristics.
func DefaultRankingPolicy() *RankingPolicy {
	study := []models.EventType{models.EventTypeTask}
	leisure := []models.EventType{models.EventTypeBreak, models.EventTypePersonal}
	return &RankingPolicy{
		Name:             "productivity-heuristics",
		Version:          "1",
		HourStart:        6,
		HourEnd:          22,
		MinPendingEvents: 4,
		PriorityFactors: map[models.Priority]float64{
			models.PriorityHigh:   1.3,
			models.PriorityMedium: 1.0,
			models.PriorityLow:    0.8,
		},
		TimeOfDay: []TimeOfDayRule{
			{Types: study, From: 9, To: 11, Factor: 1.3, Reason: "Peak morning concentration window"},
			{Types: study, From: 15, To: 17, Factor: 1.3, Reason: "Strong afternoon productivity window"},
			{Types: study, From: 20, To: 23, Factor: 0.7},
			{Types: []models.EventType{models.EventTypeClass}, From: 8, To: 18, Factor: 1.1},
			{Types: leisure, From: 18, To: 23, Factor: 1.2},
			{Types: leisure, From: 0, To: 8, Factor: 1.2},
		},
		Urgency: []UrgencyRule{
			{MaxDays: 1, Factor: 1.4},
			{MaxDays: 3, Factor: 1.2},
		},
		UnavailablePenalty: 0.1,
		HighConfidence:     0.8,
	}
}

// LoadRankingPolicy reads a YAML policy file on top of the defaults.
func LoadRankingPolicy(path string) (*RankingPolicy, error) {
	policy := DefaultRankingPolicy()
	if path == "" {
		return policy, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ranking policy: %w", err)
	}
	if err := yaml.Unmarshal(data, policy); err != nil {
		return nil, fmt.Errorf("decode ranking policy: %w", err)
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("ranking policy %s: %w", path, err)
	}
	return policy, nil
}

// Validate checks the policy for values that would break ranking.
func (p *RankingPolicy) Validate() error {
	if p.HourStart < 0 || p.HourEnd > 23 || p.HourStart > p.HourEnd {
		return fmt.Errorf("candidate hours %d-%d are outside 0-23", p.HourStart, p.HourEnd)
	}
	if p.MinPendingEvents < 1 {
		return errors.New("min_pending_events must be at least 1")
	}
	for _, priority := range models.Priorities {
		if f, ok := p.PriorityFactors[priority]; !ok || f < 0 {
			return fmt.Errorf("priority factor for %s must be set and non-negative", priority)
		}
	}
	for i, rule := range p.TimeOfDay {
		if rule.Factor < 0 || rule.From > rule.To {
			return fmt.Errorf("time_of_day rule %d is invalid", i)
		}
	}
	for i, rule := range p.Urgency {
		if rule.Factor < 0 {
			return fmt.Errorf("urgency rule %d has a negative factor", i)
		}
		if i > 0 && rule.MaxDays <= p.Urgency[i-1].MaxDays {
			return errors.New("urgency rules must be ordered by ascending max_days")
		}
	}
	if p.UnavailablePenalty <= 0 || p.UnavailablePenalty > 1 {
		return errors.New("unavailable_penalty must be in (0, 1]")
	}
	return nil
}

// Rank applies priority, time-of-day, urgency and availability factors to
// probability, in that order.
func (p *RankingPolicy) Rank(probability float64, hour int, f EventFeatures, available bool) float64 {
	score := probability
	if factor, ok := p.PriorityFactors[f.Priority]; ok {
		score *= factor
	}
	if rule, ok := p.timeOfDayRule(f.EventType, hour); ok {
		score *= rule.Factor
	}
	if rule, ok := p.urgencyRule(f.DaysToDeadline); ok {
		score *= rule.Factor
	}
	if !available {
		score *= p.UnavailablePenalty
	}
	return score
}

// first match wins
func (p *RankingPolicy) timeOfDayRule(eventType models.EventType, hour int) (TimeOfDayRule, bool) {
	for _, rule := range p.TimeOfDay {
		if rule.matches(eventType, hour) {
			return rule, true
		}
	}
	return TimeOfDayRule{}, false
}

func (p *RankingPolicy) urgencyRule(days int) (UrgencyRule, bool) {
	for _, rule := range p.Urgency {
		if days <= rule.MaxDays {
			return rule, true
		}
	}
	return UrgencyRule{}, false
}

func (p *RankingPolicy) urgencyWindow() int {
	if len(p.Urgency) == 0 {
		return -1
	}
	return p.Urgency[len(p.Urgency)-1].MaxDays
}

// Confidence measures how sharply the best score stands out from the mean.
// Empty or all-zero distributions have zero confidence.
func Confidence(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	max, sum := scores[0], 0.0
	for _, s := range scores {
		sum += s
		if s > max {
			max = s
		}
	}
	mean := sum / float64(len(scores))
	if mean <= 0 {
		return 0
	}
	confidence := (max-mean)/mean + 0.5
	if confidence > 1 {
		return 1
	}
	return confidence
}
