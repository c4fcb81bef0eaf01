package patterns

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const popularCacheKey = "patterns:popular"

// Cache keeps the popular-pattern listing in Redis. Concurrent misses
// collapse into a single rebuild via singleflight.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewCache constructs a Cache.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Popular returns the cached listing, rebuilding through fn on a miss.
func (c *Cache) Popular(ctx context.Context, fn func(context.Context) ([]Pattern, error)) ([]Pattern, error) {
	if c == nil || c.client == nil {
		return fn(ctx)
	}

	data, err := c.client.Get(ctx, popularCacheKey).Bytes()
	if err == nil {
		var cached []Pattern
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		// Redis trouble degrades to a direct read, never an outage.
		return fn(ctx)
	}

	result := c.group.DoChan(popularCacheKey, func() (any, error) {
		patterns, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(patterns); err == nil {
			_ = c.client.Set(ctx, popularCacheKey, data, c.ttl).Err()
		}
		return patterns, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-result:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]Pattern), nil
	}
}

// Invalidate drops the cached listing after a write.
func (c *Cache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, popularCacheKey).Err()
}
