package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/service/cache"
)

type CacheJobs struct {
	cache    *cache.Service
	interval time.Duration
}

func NewCacheJobs(cacheService *cache.Service, interval time.Duration) *CacheJobs {
	return &CacheJobs{cache: cacheService, interval: interval}
}

func (j *CacheJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("cache_sweep", j.interval, j.Sweep)
}

// Sweep evicts expired cache entries.
func (j *CacheJobs) Sweep(ctx context.Context) error {
	res := j.cache.Sweep()
	if res.Total() > 0 {
		slog.Debug("Cron: Expired cache entries evicted",
			"statuses", res.Statuses,
			"leaves", res.Leaves,
			"settings", res.Settings,
		)
	}
	return nil
}
