package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/smart-planner-api/internal/dto"
	appErrors "github.com/noah-isme/smart-planner-api/pkg/errors"
)

const suggestionKeyPrefix = "optimizer:"

// CacheRepository abstracts persistence for cached suggestion runs.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// SuggestionKey identifies one suggestion run. Runs are only reusable for the
// same user, window, timezone and model version.
type SuggestionKey struct {
	UserID       string
	Start        string
	End          string
	Timezone     string
	ModelVersion string
}

func (k SuggestionKey) String() string {
	return fmt.Sprintf("%s%s:%s:%s:%s:%s", suggestionKeyPrefix, k.UserID, k.Start, k.End, k.Timezone, k.ModelVersion)
}

// CacheService keeps finished suggestion runs and records hit ratio metrics.
type CacheService struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Suggestions returns the cached run for key, marked as cached. Backend
// failures are logged and reported as a miss so a run is computed instead.
func (s *CacheService) Suggestions(ctx context.Context, key SuggestionKey) (*dto.SuggestResponse, bool) {
	if !s.Enabled() {
		return nil, false
	}
	start := time.Now()
	var resp dto.SuggestResponse
	err := s.repo.Get(ctx, key.String(), &resp)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("suggestion cache read failed", zap.String("key", key.String()), zap.Error(err))
		}
		return nil, false
	}
	resp.Cached = true
	return &resp, true
}

// StoreSuggestions caches a freshly computed run.
func (s *CacheService) StoreSuggestions(ctx context.Context, key SuggestionKey, resp *dto.SuggestResponse) error {
	if !s.Enabled() || resp == nil {
		return nil
	}
	stored := *resp
	stored.Cached = false
	start := time.Now()
	err := s.repo.Set(ctx, key.String(), &stored, s.ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("suggestion cache write failed", zap.String("key", key.String()), zap.Error(err))
	}
	return err
}

// InvalidateSuggestions drops every cached run. Runs computed by a previous
// model version must not be served after a reload.
func (s *CacheService) InvalidateSuggestions(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	pattern := suggestionKeyPrefix + "*"
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("suggestion cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		return err
	}
	return nil
}
