package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/uni-timetable-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) (int, error)
}

// CacheService fronts the timetable query cache and records hit/miss metrics.
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

// Get attempts to retrieve a cached entry. It returns true when the cache was hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	return true, nil
}

// Set stores the value in cache.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// InvalidateSemester drops every cached view of the semester's timetable.
func (s *CacheService) InvalidateSemester(ctx context.Context, semesterID string) error {
	if !s.Enabled() {
		return nil
	}
	pattern := semesterCachePrefix(semesterID) + "*"
	removed, err := s.repo.DeleteByPattern(ctx, pattern)
	if err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		return err
	}
	s.logger.Debug("semester cache invalidated", zap.String("semester_id", semesterID), zap.Int("keys", removed))
	return nil
}

func semesterCachePrefix(semesterID string) string {
	return fmt.Sprintf("timetable:%s:", semesterID)
}

// Views are keyed by the active timetable id they were read against. A write that races a commit
// lands under the superseded id, which no later reader looks up.
func versionCachePrefix(semesterID, timetableID string) string {
	if timetableID == "" {
		timetableID = "none"
	}
	return semesterCachePrefix(semesterID) + timetableID + ":"
}

func scheduleCacheKey(semesterID, timetableID, studentGroupID string) string {
	if studentGroupID == "" {
		studentGroupID = "all"
	}
	return versionCachePrefix(semesterID, timetableID) + "schedule:" + studentGroupID
}

func teacherCacheKey(semesterID, timetableID, instructorID string) string {
	return versionCachePrefix(semesterID, timetableID) + "teacher:" + instructorID
}

func freeRoomsCacheKey(semesterID, timetableID string, day, slot int) string {
	return fmt.Sprintf("%sfree:%d:%d", versionCachePrefix(semesterID, timetableID), day, slot)
}
