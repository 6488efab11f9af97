package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/maypok86/otter/v2"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/smart-planner-api/pkg/errors"
)

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryCacheRepository keeps cached payloads in process when Redis is not
// configured. Entries are stored as JSON so callers see the same semantics as
// the Redis repository.
type MemoryCacheRepository struct {
	cache  *otter.Cache[string, memoryEntry]
	logger *zap.Logger
	now    func() time.Time
}

// NewMemoryCacheRepository builds an in-process cache bounded to maxEntries.
// maxTTL caps how long any entry may live.
func NewMemoryCacheRepository(maxEntries int, maxTTL time.Duration, logger *zap.Logger) *MemoryCacheRepository {
	if maxEntries <= 0 {
		maxEntries = 10_000
	}
	if maxTTL <= 0 {
		maxTTL = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cache := otter.Must(&otter.Options[string, memoryEntry]{
		MaximumSize:      maxEntries,
		ExpiryCalculator: otter.ExpiryWriting[string, memoryEntry](maxTTL),
	})
	return &MemoryCacheRepository{cache: cache, logger: logger, now: time.Now}
}

// Get unmarshals the cached value for key into dest.
func (r *MemoryCacheRepository) Get(_ context.Context, key string, dest interface{}) error {
	entry, ok := r.cache.GetIfPresent(key)
	if !ok {
		return appErrors.ErrCacheMiss
	}
	if !r.now().Before(entry.expiresAt) {
		r.cache.Invalidate(key)
		return appErrors.ErrCacheMiss
	}
	if err := json.Unmarshal(entry.payload, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

// Set stores value under key for ttl.
func (r *MemoryCacheRepository) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	r.cache.Set(key, memoryEntry{payload: payload, expiresAt: r.now().Add(ttl)})
	return nil
}

// DeleteByPattern removes keys matching a glob pattern.
func (r *MemoryCacheRepository) DeleteByPattern(_ context.Context, pattern string) error {
	if _, err := path.Match(pattern, ""); err != nil {
		return fmt.Errorf("invalid cache pattern %s: %w", pattern, err)
	}
	var keys []string
	for key := range r.cache.All() {
		if ok, _ := path.Match(pattern, key); ok {
			keys = append(keys, key)
		}
	}
	for _, key := range keys {
		r.cache.Invalidate(key)
	}
	r.logger.Debug("cache entries evicted", zap.String("pattern", pattern), zap.Int("count", len(keys)))
	return nil
}
