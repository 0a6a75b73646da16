package store

import (
	"context"
	"errors"
	"time"

	"github.com/wonny/marketsim/internal/simulation"
	"github.com/wonny/marketsim/pkg/logger"
	"github.com/wonny/marketsim/pkg/redis"
)

// Cached fronts a RunStore with the Redis cache. Results are immutable once
// saved, so Get entries only expire by TTL; Save drops cached list pages.
type Cached struct {
	next  RunStore
	cache *redis.Cache
	ttl   time.Duration
	log   *logger.Logger
}

// NewCached wraps next. A disabled Redis client turns every cache call into a no-op.
func NewCached(next RunStore, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *Cached {
	if ttl <= 0 {
		ttl = redis.TTLMedium
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Cached{next: next, cache: cache, ttl: ttl, log: log}
}

// Save writes through and invalidates list pages
func (c *Cached) Save(ctx context.Context, res *simulation.Result) error {
	if err := c.next.Save(ctx, res); err != nil {
		return err
	}
	if err := c.cache.Set(ctx, redis.RunKey(res.RunID), res, c.ttl); err != nil {
		c.log.WithError(err).WithField("run_id", res.RunID).Warn("Failed to cache run")
	}
	if err := c.cache.DeletePattern(ctx, "runs:list:*"); err != nil {
		c.log.WithError(err).Warn("Failed to invalidate run list cache")
	}
	return nil
}

// Get reads through the cache. A Redis outage degrades to reading next directly.
func (c *Cached) Get(ctx context.Context, runID string) (*simulation.Result, error) {
	var res simulation.Result
	err := c.cache.GetOrSet(ctx, redis.RunKey(runID), &res, c.ttl, func() (interface{}, error) {
		return c.next.Get(ctx, runID)
	})
	if errors.Is(err, redis.ErrCache) {
		c.log.WithError(err).WithField("run_id", runID).Warn("Run cache unavailable, served from store")
		err = nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// List reads through the cache with a short TTL
func (c *Cached) List(ctx context.Context, limit int) ([]RunSummary, error) {
	limit = NormalizeLimit(limit)

	var out []RunSummary
	err := c.cache.GetOrSet(ctx, redis.RunListKey(limit), &out, redis.TTLShort, func() (interface{}, error) {
		return c.next.List(ctx, limit)
	})
	if errors.Is(err, redis.ErrCache) {
		c.log.WithError(err).WithField("limit", limit).Warn("Run list cache unavailable, served from store")
		err = nil
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}
