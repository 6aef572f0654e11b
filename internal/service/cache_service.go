package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/courseflow-api/pkg/config"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
)

type cacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService fronts the Redis-backed seat cache. A nil receiver or a
// disabled config makes every operation a no-op, so callers never branch
// on whether caching is configured.
type CacheService struct {
	store  cacheStore
	cfg    config.CacheConfig
	logger *zap.Logger
}

// NewCacheService constructs CacheService.
func NewCacheService(store cacheStore, cfg config.CacheConfig, logger *zap.Logger) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{store: store, cfg: cfg, logger: logger}
}

// Enabled reports whether cache reads and writes should happen at all.
func (s *CacheService) Enabled() bool {
	return s != nil && s.store != nil && s.cfg.Enabled
}

// Get loads a cached payload into dest. The boolean reports a hit; a miss
// is not an error.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	if err := s.store.Get(ctx, key, dest); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Set stores a payload. A non-positive ttl falls back to the availability
// TTL.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.cfg.AvailabilityTTL
	}
	return s.store.Set(ctx, key, value, ttl)
}

// DeleteByPattern drops every cached entry matching the pattern.
func (s *CacheService) DeleteByPattern(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	return s.store.DeleteByPattern(ctx, pattern)
}

// AvailabilityTTL returns the configured TTL for availability payloads.
func (s *CacheService) AvailabilityTTL() time.Duration {
	if s == nil {
		return 0
	}
	return s.cfg.AvailabilityTTL
}

// StatsTTL returns the configured TTL for occupancy report payloads.
func (s *CacheService) StatsTTL() time.Duration {
	if s == nil {
		return 0
	}
	return s.cfg.StatsTTL
}
