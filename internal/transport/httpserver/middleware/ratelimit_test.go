package middleware

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lehrmarkt-service/internal/transport/httpserver/dto"
)

func newRateLimitedApp(t *testing.T, cfg RateLimitConfig) (*fiber.App, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	app := fiber.New()
	app.Use(RateLimit(client, cfg, zap.NewNop()))
	app.Get("/api/materials", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	return app, mr
}

func TestRateLimit_AllowsUnderLimit(t *testing.T) {
	app, _ := newRateLimitedApp(t, RateLimitConfig{Max: 3, Window: time.Minute})

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/materials", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "3", resp.Header.Get("X-RateLimit-Limit"))
	}
}

func TestRateLimit_BlocksOverLimit(t *testing.T) {
	app, _ := newRateLimitedApp(t, RateLimitConfig{Max: 2, Window: time.Minute})

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/materials", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/api/materials", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "RATE_LIMITED", payload.Code)
	assert.Greater(t, payload.RetryAfter, 0)
}

func TestRateLimit_WindowResets(t *testing.T) {
	app, mr := newRateLimitedApp(t, RateLimitConfig{Max: 1, Window: time.Minute})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/materials", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/materials", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	// Drop the window key as if it expired.
	for _, key := range mr.Keys() {
		mr.Del(key)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/api/materials", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRateLimit_FailsOpenWhenRedisDown(t *testing.T) {
	app, mr := newRateLimitedApp(t, RateLimitConfig{Max: 1, Window: time.Minute})
	mr.Close()

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/materials", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}
