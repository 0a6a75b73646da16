package api

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/wonny/marketsim/pkg/redis"
)

// Limiter decides whether one more request from client is allowed
type Limiter interface {
	Allow(ctx context.Context, client string) (bool, error)
}

// LocalLimiter keeps one token bucket per client in process memory
type LocalLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients map[string]*rate.Limiter
}

// NewLocalLimiter creates a per-client token bucket limiter
func NewLocalLimiter(perSecond float64, burst int) *LocalLimiter {
	if burst < 1 {
		burst = 1
	}
	return &LocalLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		clients: make(map[string]*rate.Limiter),
	}
}

// Allow takes one token from the client's bucket
func (l *LocalLimiter) Allow(_ context.Context, client string) (bool, error) {
	l.mu.Lock()
	lim, ok := l.clients[client]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.clients[client] = lim
	}
	l.mu.Unlock()

	return lim.Allow(), nil
}

// RedisLimiter shares a sliding window across API instances through Redis
type RedisLimiter struct {
	limiter   *redis.RateLimiter
	perSecond float64
	burst     int
}

// NewRedisLimiter wraps a Redis rate limiter with the API limits
func NewRedisLimiter(limiter *redis.RateLimiter, perSecond float64, burst int) *RedisLimiter {
	return &RedisLimiter{
		limiter:   limiter,
		perSecond: perSecond,
		burst:     burst,
	}
}

// Allow records the request in the client's window
func (l *RedisLimiter) Allow(ctx context.Context, client string) (bool, error) {
	allowed, _, err := l.limiter.Allow(ctx, redis.APIRateLimit(client, l.perSecond, l.burst))
	return allowed, err
}

// NewLimiter picks the Redis limiter when Redis is enabled, the local one otherwise.
// Returns nil when perSecond is 0.
func NewLimiter(client *redis.Client, perSecond float64, burst int) Limiter {
	if perSecond <= 0 {
		return nil
	}
	if client != nil && client.Enabled() {
		return NewRedisLimiter(redis.NewRateLimiter(client, "marketsim"), perSecond, burst)
	}
	return NewLocalLimiter(perSecond, burst)
}
