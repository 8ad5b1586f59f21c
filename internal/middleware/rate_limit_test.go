package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/fridge2fork/backend/internal/testhelpers"
)

func limitedRouter(rl *RateLimiter) *gin.Engine {
	router := gin.New()
	router.POST("/api/clean-ingredients", rl.Middleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ingredients": []string{}})
	})
	return router
}

func post(router *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/clean-ingredients", nil)
	req.RemoteAddr = ip + ":1234"
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestRateLimiter_InMemory(t *testing.T) {
	router := limitedRouter(NewModelRateLimiter(nil, 2, zerolog.Nop()))

	first := post(router, "10.0.0.1")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, post(router, "10.0.0.1").Code)

	blocked := post(router, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))
	assert.Contains(t, blocked.Body.String(), "rate limit exceeded")

	assert.Equal(t, http.StatusOK, post(router, "10.0.0.2").Code, "other clients have their own bucket")
}

func TestRateLimiter_Disabled(t *testing.T) {
	router := limitedRouter(NewModelRateLimiter(nil, 0, zerolog.Nop()))
	for i := 0; i < 5; i++ {
		rr := post(router, "10.0.0.1")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, rr.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimiter_FallsBackWhenRedisFails(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	router := limitedRouter(NewModelRateLimiter(client, 1, zerolog.Nop()))

	assert.Equal(t, http.StatusOK, post(router, "10.0.0.3").Code)
	assert.Equal(t, http.StatusTooManyRequests, post(router, "10.0.0.3").Code)
}

func TestMemoryLimiter_Refills(t *testing.T) {
	m := newMemoryLimiter(RateLimitConfig{Window: time.Hour, Limit: 60})
	now := time.Now()

	for i := 0; i < 60; i++ {
		allowed, _, _ := m.allow("k", now)
		require.True(t, allowed)
	}
	allowed, remaining, reset := m.allow("k", now)
	assert.False(t, allowed)
	assert.Zero(t, remaining)
	assert.True(t, reset.After(now))

	allowed, _, _ = m.allow("k", now.Add(time.Minute+time.Second))
	assert.True(t, allowed, "one token per minute")
}

func TestRateLimiter_Redis(t *testing.T) {
	addr := testhelpers.StartRedis(t)
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	rl := NewRateLimiter(client, RateLimitConfig{Window: time.Hour, Limit: 2, KeyPrefix: "test"}, zerolog.Nop())
	ctx := context.Background()

	allowed, remaining, reset, err := rl.IsAllowed(ctx, "10.0.0.9")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 1, remaining)
	assert.True(t, reset.After(time.Now()))

	_, _, _, err = rl.IsAllowed(ctx, "10.0.0.9")
	require.NoError(t, err)
	allowed, remaining, _, err = rl.IsAllowed(ctx, "10.0.0.9")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Zero(t, remaining)

	router := limitedRouter(rl)
	assert.Equal(t, http.StatusTooManyRequests, post(router, "10.0.0.9").Code)
}
