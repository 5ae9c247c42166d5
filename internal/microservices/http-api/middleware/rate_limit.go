package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimiterConfig defines per-IP request limits.
type RateLimiterConfig struct {
	MaxRequests int
	Window      time.Duration
}

// RateLimiter throttles by client IP. Counters live in Redis so the limit
// holds across replicas; without a Redis client it falls back to an
// in-process token bucket per IP.
type RateLimiter struct {
	redis  *redis.Client
	config RateLimiterConfig

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

func NewRateLimiter(redisClient *redis.Client, config RateLimiterConfig) *RateLimiter {
	return &RateLimiter{
		redis:   redisClient,
		config:  config,
		buckets: make(map[string]*rate.Limiter),
	}
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		allowed, retryAfter, err := rl.allow(c.Request.Context(), clientIP)
		if err != nil {
			// limiter backend down: fail open, do not take the API with it
			c.Next()
			return
		}

		if !allowed {
			c.Header("Retry-After", fmt.Sprintf("%d", int(retryAfter.Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			c.Abort()
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) allow(ctx context.Context, clientIP string) (bool, time.Duration, error) {
	if rl.redis == nil {
		return rl.allowLocal(clientIP), rl.config.Window, nil
	}

	key := fmt.Sprintf("ratelimit:%s", clientIP)
	count, err := rl.redis.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if count == 1 {
		if err := rl.redis.Expire(ctx, key, rl.config.Window).Err(); err != nil {
			return false, 0, err
		}
	}
	if count > int64(rl.config.MaxRequests) {
		ttl, err := rl.redis.TTL(ctx, key).Result()
		if err != nil {
			ttl = rl.config.Window
		}
		return false, ttl, nil
	}
	return true, 0, nil
}

func (rl *RateLimiter) allowLocal(clientIP string) bool {
	rl.mu.Lock()
	limiter, ok := rl.buckets[clientIP]
	if !ok {
		limit := rate.Every(rl.config.Window / time.Duration(rl.config.MaxRequests))
		limiter = rate.NewLimiter(limit, rl.config.MaxRequests)
		rl.buckets[clientIP] = limiter
	}
	rl.mu.Unlock()
	return limiter.Allow()
}
