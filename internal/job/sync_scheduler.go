// Package job provides background job schedulers.
package job

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"lehrmarkt-service/internal/app/service"
	"lehrmarkt-service/pkg/locker"
)

// SyncScheduler runs the periodic Lehrmittel catalog sync with distributed
// locking so only one instance syncs at a time.
type SyncScheduler struct {
	syncService *service.CatalogSyncService
	interval    time.Duration
	timeout     time.Duration
	logger      *zap.Logger
	locker      locker.DistributedLocker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// SyncConfig holds sync scheduler configuration.
type SyncConfig struct {
	Interval  time.Duration
	Timeout   time.Duration
	OnStartup bool
}

// NewSyncScheduler creates a SyncScheduler with distributed locking support.
func NewSyncScheduler(
	syncSvc *service.CatalogSyncService,
	cfg SyncConfig,
	logger *zap.Logger,
	locker locker.DistributedLocker,
) *SyncScheduler {
	return &SyncScheduler{
		syncService: syncSvc,
		interval:    cfg.Interval,
		timeout:     cfg.Timeout,
		logger:      logger,
		locker:      locker,
	}
}

// Start begins the background sync job.
func (s *SyncScheduler) Start(runOnStartup bool) {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.logger.Info("starting catalog sync scheduler",
		zap.Duration("interval", s.interval),
		zap.Bool("run_on_startup", runOnStartup),
	)

	s.wg.Add(1)
	go s.run(runOnStartup)
}

// Stop gracefully stops the scheduler.
func (s *SyncScheduler) Stop() {
	s.logger.Info("stopping catalog sync scheduler")
	s.cancel()
	s.wg.Wait()
	s.logger.Info("catalog sync scheduler stopped")
}

func (s *SyncScheduler) run(runOnStartup bool) {
	defer s.wg.Done()

	if runOnStartup {
		s.executeSync()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.executeSync()
		}
	}
}

// executeSync performs a catalog sync under the distributed lock.
//
// Locking behavior:
//   - Lock TTL = interval duration (cooldown model, not timeout)
//   - Success: lock held for the full interval to prevent duplicate syncs
//   - Failure: lock released immediately so another instance may retry
func (s *SyncScheduler) executeSync() {
	const lockKey = "catalog:sync:lock"

	acquired, err := s.locker.Acquire(s.ctx, lockKey, s.interval)
	if err != nil {
		s.logger.Error("failed to acquire distributed lock", zap.Error(err))

		return
	}
	if !acquired {
		s.logger.Debug("another instance is running the catalog sync, skipping")

		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	results := s.syncService.SyncAll(ctx)

	totalSynced := 0
	totalErrors := 0

	for _, r := range results {
		if r.Error != nil {
			totalErrors++
			s.logger.Warn("publisher sync failed",
				zap.String("publisher", r.Publisher),
				zap.Error(r.Error),
			)
		} else {
			totalSynced += r.Count
		}
	}

	if totalErrors > 0 {
		// Release the lock on error so another instance can retry right away.
		if err := s.locker.Release(s.ctx, lockKey); err != nil {
			s.logger.Error("failed to release lock after sync error", zap.Error(err))
		}
		s.logger.Info("catalog sync completed with errors, lock released for retry",
			zap.Int("total_synced", totalSynced),
			zap.Int("publishers_failed", totalErrors),
		)

		return
	}

	s.logger.Info("catalog sync completed, lock held for cooldown",
		zap.Int("total_synced", totalSynced),
		zap.Duration("cooldown", s.interval),
	)
}
