package options

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"helpcrunch-live-chat/internal/logger"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "option:"

// RedisCache is a read-through cache in front of another Store. Writes go to
// the backing store first and then drop the cached copy. Redis failures are
// logged and never fail a request.
type RedisCache struct {
	rdb  redis.Cmdable
	next Store
	ttl  time.Duration
}

func NewRedisCache(rdb redis.Cmdable, next Store, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCache{rdb: rdb, next: next, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, name string, dst interface{}) error {
	key := cacheKeyPrefix + name

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(raw, dst); jsonErr == nil {
			return nil
		}
		logger.Warn("dropping undecodable cached option", "option", name)
		c.rdb.Del(ctx, key)
	case !errors.Is(err, redis.Nil):
		logger.Warn("option cache read failed", "option", name, "error", err)
	}

	if err := c.next.Get(ctx, name, dst); err != nil {
		return err
	}

	if encoded, err := json.Marshal(dst); err == nil {
		if err := c.rdb.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
			logger.Warn("option cache write failed", "option", name, "error", err)
		}
	}
	return nil
}

func (c *RedisCache) Set(ctx context.Context, name string, value interface{}) error {
	if err := c.next.Set(ctx, name, value); err != nil {
		return err
	}
	c.Invalidate(ctx, name)
	return nil
}

func (c *RedisCache) Add(ctx context.Context, name string, value interface{}) (bool, error) {
	added, err := c.next.Add(ctx, name, value)
	if err != nil {
		return false, err
	}
	if added {
		c.Invalidate(ctx, name)
	}
	return added, nil
}

// Invalidate drops the cached copy of name.
func (c *RedisCache) Invalidate(ctx context.Context, name string) {
	if err := c.rdb.Del(ctx, cacheKeyPrefix+name).Err(); err != nil {
		logger.Warn("option cache invalidate failed", "option", name, "error", err)
	}
}
