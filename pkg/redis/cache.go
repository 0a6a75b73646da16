package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCache marks a Redis failure that GetOrSet worked around
var ErrCache = errors.New("cache unavailable")

// Cache provides typed caching utilities
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

// Get retrieves a cached value
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	fullKey := fmt.Sprintf("%s:cache:%s", c.prefix, key)
	data, err := c.client.Redis().Get(ctx, fullKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get failed: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}
	return c.setRaw(ctx, key, data, ttl)
}

func (c *Cache) setRaw(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	fullKey := fmt.Sprintf("%s:cache:%s", c.prefix, key)
	return c.client.Redis().Set(ctx, fullKey, data, ttl).Err()
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}

	fullKey := fmt.Sprintf("%s:cache:%s", c.prefix, key)
	return c.client.Redis().Del(ctx, fullKey).Err()
}

// DeletePattern removes every cached key matching pattern (glob, without prefix)
func (c *Cache) DeletePattern(ctx context.Context, pattern string) error {
	if !c.client.Enabled() {
		return nil
	}

	rdb := c.client.Redis()
	iter := rdb.Scan(ctx, 0, fmt.Sprintf("%s:cache:%s", c.prefix, pattern), 100).Iterator()
	for iter.Next(ctx) {
		if err := rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// GetOrSet retrieves from cache or calls fn to populate it.
// Errors from fn are returned as is. When Redis itself fails, dest is still
// filled from fn and the returned error wraps ErrCache.
func (c *Cache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, fn func() (interface{}, error)) error {
	// Try cache first
	found, getErr := c.Get(ctx, key, dest)
	if getErr == nil && found {
		return nil
	}

	// Cache miss or cache down - call function
	value, err := fn()
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("cache unmarshal failed: %w", err)
	}

	if getErr != nil {
		return fmt.Errorf("%w: %w", ErrCache, getErr)
	}
	if !c.client.Enabled() {
		return nil
	}
	if err := c.setRaw(ctx, key, data, ttl); err != nil {
		return fmt.Errorf("%w: cache set failed: %w", ErrCache, err)
	}
	return nil
}

// Predefined TTLs
const (
	TTLShort  = 1 * time.Minute  // 실행 목록
	TTLMedium = 10 * time.Minute // 실행 결과
)

// RunKey is the cache key of one stored result
func RunKey(runID string) string {
	return fmt.Sprintf("run:%s", runID)
}

// RunListKey is the cache key of a list page
func RunListKey(limit int) string {
	return fmt.Sprintf("runs:list:%d", limit)
}
