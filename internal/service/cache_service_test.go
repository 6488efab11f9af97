package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/smart-planner-api/internal/dto"
	"github.com/noah-isme/smart-planner-api/internal/models"
)

type failingCache struct{ mapCache }

func (f *failingCache) Get(ctx context.Context, key string, dest interface{}) error {
	return errors.New("connection reset")
}

func weekKey(user, version string) SuggestionKey {
	return SuggestionKey{UserID: user, Start: "2025-06-25", End: "2025-07-02", Timezone: "UTC", ModelVersion: version}
}

func TestSuggestionKeyLayout(t *testing.T) {
	assert.Equal(t, "optimizer:user-1:2025-06-25:2025-07-02:UTC:2025.06", weekKey("user-1", "2025.06").String())
}

func TestCacheServiceStoresSuggestionRuns(t *testing.T) {
	metrics := NewMetricsService()
	repo := newMapCache()
	svc := NewCacheService(repo, metrics, time.Minute, zap.NewNop(), true)
	ctx := context.Background()
	key := weekKey("user-1", "2025.06")

	_, hit := svc.Suggestions(ctx, key)
	assert.False(t, hit)

	run := &dto.SuggestResponse{RunID: "run-1", Status: models.OptimizationStatusOK, Message: "1 suggestions found"}
	require.NoError(t, svc.StoreSuggestions(ctx, key, run))
	assert.False(t, run.Cached, "the caller's response is left untouched")

	cached, hit := svc.Suggestions(ctx, key)
	require.True(t, hit)
	assert.Equal(t, "run-1", cached.RunID)
	assert.True(t, cached.Cached)
	assert.InDelta(t, 0.5, testutil.ToFloat64(metrics.cacheHitRatio), 1e-9)

	_, hit = svc.Suggestions(ctx, weekKey("user-1", "2025.07"))
	assert.False(t, hit, "runs from another model version are not reused")

	require.NoError(t, svc.StoreSuggestions(ctx, weekKey("user-2", "2025.06"), run))
	require.NoError(t, svc.InvalidateSuggestions(ctx))
	assert.Empty(t, repo.entries)
}

func TestCacheServiceDisabledIsNoop(t *testing.T) {
	repo := newMapCache()
	svc := NewCacheService(repo, nil, 0, zap.NewNop(), false)

	require.NoError(t, svc.StoreSuggestions(context.Background(), weekKey("user-1", "v1"), &dto.SuggestResponse{RunID: "run-1"}))
	assert.Empty(t, repo.entries)
	assert.False(t, svc.Enabled())

	var nilSvc *CacheService
	_, hit := nilSvc.Suggestions(context.Background(), weekKey("user-1", "v1"))
	assert.False(t, hit)
	assert.NoError(t, nilSvc.InvalidateSuggestions(context.Background()))
}

func TestCacheServiceTreatsBackendErrorsAsMiss(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewCacheService(&failingCache{mapCache: *newMapCache()}, metrics, time.Minute, nil, true)

	cached, hit := svc.Suggestions(context.Background(), weekKey("user-1", "v1"))
	assert.False(t, hit)
	assert.Nil(t, cached)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.cacheHitRatio))
}

func TestMetricsRecordOptimizerActivity(t *testing.T) {
	metrics := NewMetricsService()
	metrics.RecordOptimization("ok", 3, 1, 20*time.Millisecond)
	metrics.RecordOptimization("already_optimal", 0, 2, 10*time.Millisecond)
	metrics.SetModelReady(true)
	metrics.RecordModelReload(false)
	metrics.RecordFocusBlocks("focus", 4)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.optimizerRuns.WithLabelValues("ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.suggestions))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.rejected))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.modelReady))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.modelReloads.WithLabelValues("failure")))
	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.focusBlocks.WithLabelValues("focus")))

	var nilMetrics *MetricsService
	assert.NotPanics(t, func() { nilMetrics.RecordOptimization("ok", 1, 0, time.Millisecond) })
}
