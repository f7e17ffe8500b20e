package jobs

import (
	"context"

	"github.com/wonny/pennyscan/pkg/logger"
)

// StaleCleaner drops expired entries
type StaleCleaner interface {
	CleanStale() int
}

// CacheCleanupJob sweeps expired profiles from the in-process cache
type CacheCleanupJob struct {
	cache  StaleCleaner
	logger *logger.Logger
}

// NewCacheCleanupJob creates a new cache cleanup job
func NewCacheCleanupJob(cache StaleCleaner, log *logger.Logger) *CacheCleanupJob {
	return &CacheCleanupJob{
		cache:  cache,
		logger: log.Component("cache_cleanup_job"),
	}
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string {
	return "cache_cleanup"
}

// Schedule returns the cron schedule (hourly)
func (j *CacheCleanupJob) Schedule() string {
	return "@hourly"
}

// Run executes the cache cleanup
func (j *CacheCleanupJob) Run(ctx context.Context) error {
	count := j.cache.CleanStale()

	if count > 0 {
		j.logger.WithField("removed", count).Info("Cache cleanup completed")
	}

	return nil
}
