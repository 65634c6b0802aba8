// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"gorm.io/gorm"
)

// NewHealthCheck creates a Fiber healthcheck middleware with Kubernetes-style
// endpoints. Readiness gates on Postgres only: the listing cannot serve
// without it, while Redis outages degrade gracefully (cache misses, rate
// limiter fails open).
//
// Endpoints:
//   - GET /livez  - Liveness probe (app is running)
//   - GET /readyz - Readiness probe (DB reachable)
//
// This middleware must be registered before other routes.
func NewHealthCheck(db *gorm.DB) fiber.Handler {
	return healthcheck.New(healthcheck.Config{
		LivenessEndpoint: "/livez",
		LivenessProbe: func(_ *fiber.Ctx) bool {
			return true
		},

		ReadinessEndpoint: "/readyz",
		ReadinessProbe: func(_ *fiber.Ctx) bool {
			if db == nil {
				return false
			}
			sqlDB, err := db.DB()
			if err != nil {
				return false
			}

			return sqlDB.Ping() == nil
		},
	})
}
