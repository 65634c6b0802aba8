// Package main is the entry point for the lehrmarkt-service API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"lehrmarkt-service/internal/app/service"
	"lehrmarkt-service/internal/config"
	"lehrmarkt-service/internal/domain"
	"lehrmarkt-service/internal/infra/catalog"
	"lehrmarkt-service/internal/infra/catalog/lmvz"
	"lehrmarkt-service/internal/infra/postgres"
	"lehrmarkt-service/internal/infra/postgres/migrations"
	rediscache "lehrmarkt-service/internal/infra/redis"
	"lehrmarkt-service/internal/job"
	"lehrmarkt-service/internal/logger"
	"lehrmarkt-service/internal/transport/httpserver"
	"lehrmarkt-service/internal/transport/httpserver/middleware"
	"lehrmarkt-service/internal/validator"
	"lehrmarkt-service/pkg/locker"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(
		logger.Config{
			Level:   cfg.Logger.Level,
			Format:  cfg.Logger.Format,
			Output:  cfg.Logger.Output,
			Service: cfg.App.Name,
			Env:     cfg.App.Env,
		},
		logger.SentryConfig{
			Enabled:     cfg.Sentry.Enabled,
			DSN:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			SampleRate:  cfg.Sentry.SampleRate,
		},
	)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting lehrmarkt-service",
		zap.String("env", cfg.App.Env),
		zap.Int("port", cfg.App.Port),
	)

	// Database
	db, err := postgres.NewConnection(
		postgres.Config{
			Host:         cfg.Database.Host,
			Port:         cfg.Database.Port,
			Name:         cfg.Database.Name,
			User:         cfg.Database.User,
			Password:     cfg.Database.Password,
			SSLMode:      cfg.Database.SSLMode,
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
			MaxLifetime:  cfg.Database.MaxLifetime,
			Debug:        cfg.App.Debug,
		},
		log.Logger,
	)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() { _ = postgres.Close(db) }()

	if err := migrations.Run(db); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	log.Info("database migrations completed")

	materialRepo := postgres.NewRepository(db)
	lehrmittelRepo := postgres.NewLehrmittelRepository(db)

	// Publisher catalog clients
	lmvzClient := lmvz.New(
		catalog.ClientConfig{
			BaseURL: cfg.Catalog.LMVZ.BaseURL,
			Timeout: cfg.Catalog.LMVZ.Timeout,
			Retry: catalog.RetryConfig{
				MaxAttempts: cfg.Catalog.LMVZ.Retry.MaxAttempts,
				WaitTime:    cfg.Catalog.LMVZ.Retry.WaitTime,
				MaxWaitTime: cfg.Catalog.LMVZ.Retry.MaxWaitTime,
			},
			CB: catalog.CBConfig{
				MaxRequests:  cfg.Catalog.LMVZ.CB.MaxRequests,
				Interval:     cfg.Catalog.LMVZ.CB.Interval,
				Timeout:      cfg.Catalog.LMVZ.CB.Timeout,
				FailureRatio: cfg.Catalog.LMVZ.CB.FailureRatio,
			},
		},
		log.Logger,
	)
	publishers := []domain.CatalogProvider{lmvzClient}

	// Redis (cache, rate limiter, distributed locks)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()
	log.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr()))

	var cache domain.Cache
	if cfg.Cache.Enabled {
		cache = rediscache.NewCache(redisClient, log.Logger, cfg.Cache.KeyPrefix)
		log.Info("search cache enabled",
			zap.Duration("search_ttl", cfg.Cache.SearchTTL),
			zap.String("key_prefix", cfg.Cache.KeyPrefix),
		)
	} else {
		log.Info("search cache disabled")
	}

	materialSvc := service.NewMaterialService(materialRepo, cache, cfg.Cache.SearchTTL, log.Logger)
	syncSvc := service.NewCatalogSyncService(lehrmittelRepo, publishers, log.Logger)

	distLocker := locker.NewRedisLocker(redisClient, log.Logger)
	v := validator.New()

	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Port:      cfg.App.Port,
			BodyLimit: cfg.App.BodyLimit,
			Debug:     cfg.App.Debug,
			RateLimit: middleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			},
		},
		materialSvc,
		syncSvc,
		db,
		redisClient,
		v,
		log.Logger,
	)

	scheduler := job.NewSyncScheduler(
		syncSvc,
		job.SyncConfig{
			Interval:  cfg.Sync.Interval,
			Timeout:   cfg.Sync.Timeout,
			OnStartup: cfg.Sync.OnStartup,
		},
		log.Logger,
		distLocker,
	)
	scheduler.Start(cfg.Sync.OnStartup)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutdown signal received")

		scheduler.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.App.ShutdownWithContext(ctx); err != nil {
			log.Error("server shutdown error", zap.Error(err))
		}
	}()

	if err := server.Start(cfg.App.Port); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
