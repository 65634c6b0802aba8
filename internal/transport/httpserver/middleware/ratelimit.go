package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"lehrmarkt-service/internal/transport/httpserver/dto"
)

// RateLimitConfig holds rate limiter configuration.
type RateLimitConfig struct {
	// Max requests per window per client IP.
	Max    int
	Window time.Duration
}

// RateLimit returns a fixed-window rate limiter backed by Redis, so the
// limit holds across replicas. It runs before any listing logic; a limited
// client gets the 429 body and headers and nothing else executes.
//
// Redis errors fail open: throttling is protection, not a feature, and a
// cache outage must not take the listing down with it.
func RateLimit(client *redis.Client, cfg RateLimitConfig, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		window := time.Now().Unix() / int64(cfg.Window.Seconds())
		key := fmt.Sprintf("ratelimit:%s:%d", c.IP(), window)

		ctx := c.Context()
		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("rate limiter unavailable, allowing request", zap.Error(err))

			return c.Next()
		}
		if count == 1 {
			// First hit in this window owns the expiry.
			if err := client.Expire(ctx, key, cfg.Window).Err(); err != nil {
				logger.Warn("rate limit expiry not set", zap.String("key", key), zap.Error(err))
			}
		}

		remaining := int64(cfg.Max) - count
		if remaining < 0 {
			remaining = 0
		}
		reset := (window + 1) * int64(cfg.Window.Seconds())
		retryAfter := int(time.Until(time.Unix(reset, 0)).Seconds()) + 1

		c.Set("X-RateLimit-Limit", fmt.Sprint(cfg.Max))
		c.Set("X-RateLimit-Remaining", fmt.Sprint(remaining))
		c.Set("X-RateLimit-Reset", fmt.Sprint(reset))

		if count > int64(cfg.Max) {
			c.Set("Retry-After", fmt.Sprint(retryAfter))

			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
				Error:      "too many requests",
				Code:       "RATE_LIMITED",
				RetryAfter: retryAfter,
			})
		}

		return c.Next()
	}
}
