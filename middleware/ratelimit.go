package middleware

import (
	"context"
	"strconv"
	"sync"
	"time"

	"helpcrunch-live-chat/internal/logger"
	"helpcrunch-live-chat/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const maxLocalLimiters = 10000

// RateLimiter counts requests per client IP and route in Redis. When Redis is
// not configured or unreachable it falls back to an in-process token bucket.
type RateLimiter struct {
	rdb    redis.Cmdable
	limit  int
	window time.Duration

	mu    sync.Mutex
	local map[string]*rate.Limiter
}

func NewRateLimiter(rdb redis.Cmdable, limit, windowSeconds int) *RateLimiter {
	if limit <= 0 {
		limit = 1
	}
	if windowSeconds <= 0 {
		windowSeconds = 60
	}
	return &RateLimiter{
		rdb:    rdb,
		limit:  limit,
		window: time.Duration(windowSeconds) * time.Second,
		local:  make(map[string]*rate.Limiter),
	}
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ratelimit:" + c.ClientIP() + ":" + c.FullPath()

		remaining, allowed := rl.take(c.Request.Context(), key)

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(rl.window).Unix(), 10))
			utils.RespondWithTooManyRequests(c, int(rl.window.Seconds()))
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) take(ctx context.Context, key string) (int, bool) {
	if rl.rdb != nil {
		count, err := rl.incrWindow(ctx, key)
		if err == nil {
			remaining := rl.limit - int(count)
			if remaining < 0 {
				remaining = 0
			}
			return remaining, count <= int64(rl.limit)
		}
		logger.Warn("rate limit store unavailable, using local limiter", "error", err)
	}
	return rl.takeLocal(key)
}

// incrWindow creates the counter with its TTL and increments it in one
// MULTI/EXEC, so a counter can never exist without an expiry.
func (rl *RateLimiter) incrWindow(ctx context.Context, key string) (int64, error) {
	pipe := rl.rdb.TxPipeline()
	pipe.SetNX(ctx, key, 0, rl.window)
	incr := pipe.Incr(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (rl *RateLimiter) takeLocal(key string) (int, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	lim, ok := rl.local[key]
	if !ok {
		if len(rl.local) >= maxLocalLimiters {
			rl.local = make(map[string]*rate.Limiter)
		}
		lim = rate.NewLimiter(rate.Every(rl.window/time.Duration(rl.limit)), rl.limit)
		rl.local[key] = lim
	}

	allowed := lim.Allow()
	remaining := int(lim.Tokens())
	if remaining < 0 {
		remaining = 0
	}
	return remaining, allowed
}
