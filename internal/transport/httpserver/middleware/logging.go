package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

// Logger returns a middleware that logs HTTP requests with the request id
// assigned by the requestid middleware.
func Logger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		fields := []zap.Field{
			zap.String("request_id", requestIDFrom(c)),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("ip", c.IP()),
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}

		switch {
		case status >= 500:
			logger.Error("request failed", fields...)
		case status >= 400:
			logger.Warn("request error", fields...)
		default:
			logger.Debug("request completed", fields...)
		}

		return err
	}
}

func requestIDFrom(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok {
		return id
	}

	return ""
}
