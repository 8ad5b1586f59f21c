package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// Window is the time window for rate limiting
	Window time.Duration
	// Limit is the maximum number of requests allowed in the window.
	// Zero disables limiting.
	Limit int
	// Key prefix for Redis keys
	KeyPrefix string
}

// RateLimiter enforces a per-client fixed window in Redis. Without Redis,
// or while Redis is failing, an in-process token bucket with the same
// average rate is used instead.
type RateLimiter struct {
	redis  *redis.Client
	config RateLimitConfig
	memory *memoryLimiter
	logger zerolog.Logger
}

// NewRateLimiter creates a new rate limiter instance. redisClient may be nil.
func NewRateLimiter(redisClient *redis.Client, config RateLimitConfig, logger zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		config: config,
		memory: newMemoryLimiter(config),
		logger: logger.With().Str("component", "rate_limit").Logger(),
	}
}

// NewModelRateLimiter limits the routes that call the model provider
func NewModelRateLimiter(redisClient *redis.Client, perHour int, logger zerolog.Logger) *RateLimiter {
	return NewRateLimiter(redisClient, RateLimitConfig{
		Window:    time.Hour,
		Limit:     perHour,
		KeyPrefix: "rate_limit:model",
	}, logger)
}

// Middleware returns a Gin middleware keyed by client IP
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.config.Limit <= 0 {
			c.Next()
			return
		}

		allowed, remaining, resetTime := rl.Allow(c.Request.Context(), c.ClientIP())

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			retryAfter := int(time.Until(resetTime).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"message":     fmt.Sprintf("You have exceeded the rate limit of %d requests per %v", rl.config.Limit, rl.config.Window),
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}

// Allow counts one request for key and reports whether it may proceed
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, int, time.Time) {
	if rl.redis != nil {
		allowed, remaining, resetTime, err := rl.IsAllowed(ctx, key)
		if err == nil {
			return allowed, remaining, resetTime
		}
		rl.logger.Warn().Err(err).Msg("redis rate limit check failed, using in-process limiter")
	}
	return rl.memory.allow(key, time.Now())
}

// IsAllowed checks the Redis fixed window for key.
// Returns: allowed, remaining requests, reset time, error
func (rl *RateLimiter) IsAllowed(ctx context.Context, key string) (bool, int, time.Time, error) {
	now := time.Now()
	windowStart := now.Truncate(rl.config.Window)
	redisKey := fmt.Sprintf("%s:%s:%d", rl.config.KeyPrefix, key, windowStart.Unix())

	pipe := rl.redis.Pipeline()
	incrCmd := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.config.Window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, err
	}

	count := int(incrCmd.Val())
	remaining := rl.config.Limit - count
	if remaining < 0 {
		remaining = 0
	}

	return count <= rl.config.Limit, remaining, windowStart.Add(rl.config.Window), nil
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// memoryLimiter keeps one token bucket per client with burst equal to the
// window limit and a refill rate of limit per window.
type memoryLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
}

func newMemoryLimiter(config RateLimitConfig) *memoryLimiter {
	m := &memoryLimiter{
		visitors: make(map[string]*visitor),
		burst:    config.Limit,
		idleTTL:  config.Window,
	}
	if config.Limit > 0 && config.Window > 0 {
		m.limit = rate.Limit(float64(config.Limit) / config.Window.Seconds())
	}
	return m
}

func (m *memoryLimiter) allow(key string, now time.Time) (bool, int, time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.visitors) > 10000 {
		m.pruneLocked(now)
	}

	v, ok := m.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.visitors[key] = v
	}
	v.lastSeen = now

	allowed := v.limiter.AllowN(now, 1)
	tokens := v.limiter.TokensAt(now)
	remaining := int(tokens)
	if remaining < 0 {
		remaining = 0
	}

	var wait time.Duration
	if m.limit > 0 {
		missing := float64(m.burst) - tokens
		wait = time.Duration(missing / float64(m.limit) * float64(time.Second))
	}
	return allowed, remaining, now.Add(wait)
}

// pruneLocked drops buckets idle for longer than a full window, which are
// back at full capacity anyway.
func (m *memoryLimiter) pruneLocked(now time.Time) {
	for key, v := range m.visitors {
		if now.Sub(v.lastSeen) > m.idleTTL {
			delete(m.visitors, key)
		}
	}
}
