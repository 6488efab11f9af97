package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smart-planner-api/internal/models"
)

func TestRankAppliesFactorsInOrder(t *testing.T) {
	policy := DefaultRankingPolicy()
	urgentTask := EventFeatures{EventType: models.EventTypeTask, Priority: models.PriorityHigh, Duration: 1, DaysToDeadline: 1}

	assert.InDelta(t, 0.6*1.3*1.3*1.4, policy.Rank(0.6, 10, urgentTask, true), 1e-9)
	assert.InDelta(t, 0.6*1.3*0.7*1.4, policy.Rank(0.6, 22, urgentTask, true), 1e-9)
	assert.InDelta(t, 0.6*1.3*1.3*1.4*0.1, policy.Rank(0.6, 10, urgentTask, false), 1e-9)

	class := EventFeatures{EventType: models.EventTypeClass, Priority: models.PriorityLow, Duration: 1, DaysToDeadline: 3}
	assert.InDelta(t, 0.5*0.8*1.1*1.2, policy.Rank(0.5, 18, class, true), 1e-9)
	assert.InDelta(t, 0.5*0.8*1.2, policy.Rank(0.5, 19, class, true), 1e-9)

	personal := EventFeatures{EventType: models.EventTypePersonal, Priority: models.PriorityMedium, Duration: 1, DaysToDeadline: NoDeadline}
	assert.InDelta(t, 0.5*1.2, policy.Rank(0.5, 8, personal, true), 1e-9)
	assert.InDelta(t, 0.5, policy.Rank(0.5, 12, personal, true), 1e-9)
	assert.InDelta(t, 0.5*1.2, policy.Rank(0.5, 18, personal, true), 1e-9)

	other := EventFeatures{EventType: models.EventTypeOther, Priority: models.PriorityMedium, Duration: 1, DaysToDeadline: NoDeadline}
	assert.InDelta(t, 0.5, policy.Rank(0.5, 10, other, true), 1e-9)
}

func TestConfidence(t *testing.T) {
	assert.Equal(t, 0.0, Confidence(nil))
	assert.Equal(t, 0.0, Confidence([]float64{0, 0, 0}))
	assert.InDelta(t, 0.5, Confidence([]float64{0.4, 0.4, 0.4}), 1e-9, "flat distributions sit at the baseline")
	assert.InDelta(t, 1.0, Confidence([]float64{0.01, 0.01, 0.01, 0.9}), 1e-9, "confidence is capped at one")
	assert.InDelta(t, (0.6-0.4)/0.4+0.5, Confidence([]float64{0.2, 0.6, 0.4}), 1e-9)
}

func TestLoadRankingPolicyOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: night-owl
version: "2"
hour_end: 23
min_pending_events: 2
priority_factors:
  high: 1.5
urgency:
  - max_days: 2
    factor: 2
`), 0o600))

	policy, err := LoadRankingPolicy(path)
	require.NoError(t, err)

	assert.Equal(t, "night-owl", policy.Name)
	assert.Equal(t, 6, policy.HourStart, "unspecified fields keep their defaults")
	assert.Equal(t, 23, policy.HourEnd)
	assert.Equal(t, 2, policy.MinPendingEvents)
	assert.Equal(t, 1.5, policy.PriorityFactors[models.PriorityHigh])
	assert.Equal(t, 0.8, policy.PriorityFactors[models.PriorityLow])
	assert.Equal(t, []UrgencyRule{{MaxDays: 2, Factor: 2}}, policy.Urgency)
	assert.Len(t, policy.TimeOfDay, len(DefaultRankingPolicy().TimeOfDay))
}

func TestLoadRankingPolicyRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hour_start: 20\nhour_end: 8\n"), 0o600))

	_, err := LoadRankingPolicy(path)
	assert.Error(t, err)

	_, err = LoadRankingPolicy(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadRankingPolicyWithoutPathUsesDefaults(t *testing.T) {
	policy, err := LoadRankingPolicy("")
	require.NoError(t, err)
	assert.Equal(t, DefaultRankingPolicy(), policy)
	assert.NoError(t, policy.Validate())
}
