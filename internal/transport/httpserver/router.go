// Package httpserver provides HTTP server and routing.
package httpserver

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/template/html/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lehrmarkt-service/internal/app/service"
	"lehrmarkt-service/internal/transport/httpserver/handler"
	"lehrmarkt-service/internal/transport/httpserver/middleware"
	"lehrmarkt-service/internal/validator"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port      int
	BodyLimit int
	Debug     bool
	RateLimit middleware.RateLimitConfig
}

// Server wraps the Fiber app with its handlers.
type Server struct {
	App    *fiber.App
	Logger *zap.Logger
}

// NewServer creates an HTTP server with all routes configured.
func NewServer(
	cfg ServerConfig,
	materialSvc *service.MaterialService,
	syncSvc *service.CatalogSyncService,
	db *gorm.DB,
	redisClient *redis.Client,
	v *validator.Validator,
	logger *zap.Logger,
) *Server {
	// Template engine for the dashboard
	engine := html.New("./web/templates", ".html")
	if cfg.Debug {
		engine.Reload(true)
	}

	app := fiber.New(fiber.Config{
		AppName:      "lehrmarkt-service",
		BodyLimit:    cfg.BodyLimit,
		ErrorHandler: errorHandler(logger),
		Views:        engine,
	})

	// Health check middleware MUST be registered BEFORE other middleware
	// for Kubernetes probes to work even during high load
	app.Use(middleware.NewHealthCheck(db))

	// Global middleware
	app.Use(requestid.New())
	app.Use(middleware.Recover(logger))
	app.Use(middleware.Logger(logger))
	app.Use(cors.New())
	app.Use(compress.New())

	// Static files
	app.Static("/static", "./web/static")

	materialsHandler := handler.NewMaterialsHandler(materialSvc, logger)
	adminHandler := handler.NewAdminHandler(materialSvc, syncSvc, v, logger)
	dashboardHandler := handler.NewDashboardHandler(materialSvc, logger)

	// Dashboard (HTML)
	app.Get("/dashboard", dashboardHandler.Render)
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/dashboard")
	})

	api := app.Group("/api")

	// Public listing. The rate limiter runs before any listing logic so a
	// limited client never reaches the database.
	materials := api.Group("/materials",
		middleware.RateLimit(redisClient, cfg.RateLimit, logger))
	materials.Get("/", materialsHandler.List)
	materials.Get("/:id", materialsHandler.GetByID)

	// Admin routes
	admin := api.Group("/admin")
	admin.Post("/materials/:id/publish", adminHandler.Publish)
	admin.Post("/materials/:id/unpublish", adminHandler.Unpublish)
	admin.Post("/catalog/sync", adminHandler.SyncCatalog)

	return &Server{
		App:    app,
		Logger: logger,
	}
}

// errorHandler returns a custom error handler that logs based on HTTP status
// code. 404s log at DEBUG (expected client behavior), 4xx at WARN, 5xx at
// ERROR. Bodies stay generic; internal detail goes to the log only.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		switch {
		case code == fiber.StatusNotFound:
			logger.Debug("resource not found",
				zap.String("path", c.Path()),
				zap.String("method", c.Method()),
			)
		case code >= 500:
			logger.Error("server error",
				zap.Error(err),
				zap.Int("status", code),
				zap.String("path", c.Path()),
			)
		default:
			logger.Warn("client error",
				zap.Error(err),
				zap.Int("status", code),
				zap.String("path", c.Path()),
			)
		}

		if code >= 500 {
			return c.Status(code).JSON(fiber.Map{
				"error": "internal server error",
				"code":  "INTERNAL_ERROR",
			})
		}

		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
			"code":  "UNHANDLED_ERROR",
		})
	}
}

// Start starts the HTTP server.
func (s *Server) Start(port int) error {
	s.Logger.Info("starting HTTP server", zap.Int("port", port))

	return s.App.Listen(fmt.Sprintf(":%d", port))
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.Logger.Info("shutting down HTTP server")

	return s.App.Shutdown()
}
