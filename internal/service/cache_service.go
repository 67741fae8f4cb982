package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/dept-attendance-api/pkg/errors"
)

// CacheRepository persists cached values grouped into buckets.
type CacheRepository interface {
	Get(ctx context.Context, bucket, field string, dest interface{}) error
	Set(ctx context.Context, bucket, field string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, bucket string, fields ...string) error
}

// CacheService is a best-effort read-through cache. Failures are logged and
// counted, never surfaced as lookup errors.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Lookup fills dest from bucket[field] and reports a hit.
func (s *CacheService) Lookup(ctx context.Context, bucket, field string, dest interface{}) bool {
	if !s.Enabled() {
		return false
	}
	start := time.Now()
	err := s.repo.Get(ctx, bucket, field, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("cache read failed", zap.String("bucket", bucket), zap.String("field", field), zap.Error(err))
	}
	return err == nil
}

// Store writes bucket[field]. A non-positive ttl uses the default.
func (s *CacheService) Store(ctx context.Context, bucket, field string, value interface{}, ttl time.Duration) {
	if !s.Enabled() {
		return
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, bucket, field, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache write failed", zap.String("bucket", bucket), zap.String("field", field), zap.Error(err))
	}
}

// Forget drops fields from bucket, or the whole bucket.
func (s *CacheService) Forget(ctx context.Context, bucket string, fields ...string) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.Delete(ctx, bucket, fields...); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("bucket", bucket), zap.Error(err))
	}
}
