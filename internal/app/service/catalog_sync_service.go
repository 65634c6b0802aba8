package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"lehrmarkt-service/internal/domain"
)

// CatalogSyncService imports Lehrmittel references from publisher catalogs.
type CatalogSyncService struct {
	repo       domain.LehrmittelRepository
	publishers []domain.CatalogProvider
	logger     *zap.Logger
}

// NewCatalogSyncService creates a new CatalogSyncService.
func NewCatalogSyncService(repo domain.LehrmittelRepository, publishers []domain.CatalogProvider, logger *zap.Logger) *CatalogSyncService {
	return &CatalogSyncService{
		repo:       repo,
		publishers: publishers,
		logger:     logger,
	}
}

// SyncResult holds the result of one publisher sync.
type SyncResult struct {
	Publisher string
	Count     int
	Duration  time.Duration
	Error     error
}

// SyncAll imports from all publishers concurrently. Partial failures are
// allowed; each publisher reports its own result.
func (s *CatalogSyncService) SyncAll(ctx context.Context) []SyncResult {
	results := make([]SyncResult, len(s.publishers))
	var wg sync.WaitGroup

	s.logger.Info("starting catalog sync",
		zap.Int("publisher_count", len(s.publishers)),
	)

	for i, publisher := range s.publishers {
		wg.Add(1)
		go func(idx int, p domain.CatalogProvider) {
			defer wg.Done()
			results[idx] = s.syncPublisher(ctx, p)
		}(i, publisher)
	}

	wg.Wait()

	synced, failed := 0, 0
	for _, r := range results {
		if r.Error != nil {
			failed++
			continue
		}
		synced += r.Count
	}
	s.logger.Info("catalog sync finished",
		zap.Int("total_synced", synced),
		zap.Int("publishers_failed", failed),
	)

	return results
}

// SyncPublisher imports from a single publisher by name.
// Returns nil, nil when the publisher is unknown.
func (s *CatalogSyncService) SyncPublisher(ctx context.Context, name string) (*SyncResult, error) {
	for _, p := range s.publishers {
		if p.Name() == name {
			result := s.syncPublisher(ctx, p)
			if result.Error != nil {
				return nil, result.Error
			}
			return &result, nil
		}
	}
	return nil, nil
}

func (s *CatalogSyncService) syncPublisher(ctx context.Context, p domain.CatalogProvider) SyncResult {
	start := time.Now()
	result := SyncResult{Publisher: p.Name()}

	items, err := p.Fetch(ctx)
	if err != nil {
		result.Error = fmt.Errorf("fetching catalog from %s: %w", p.Name(), err)
		result.Duration = time.Since(start)
		s.logger.Error("catalog fetch failed",
			zap.String("publisher", p.Name()),
			zap.Error(err),
		)
		return result
	}

	if err := s.repo.BulkUpsert(ctx, items); err != nil {
		result.Error = fmt.Errorf("storing catalog from %s: %w", p.Name(), err)
		result.Duration = time.Since(start)
		s.logger.Error("catalog upsert failed",
			zap.String("publisher", p.Name()),
			zap.Error(err),
		)
		return result
	}

	result.Count = len(items)
	result.Duration = time.Since(start)
	s.logger.Info("publisher sync completed",
		zap.String("publisher", p.Name()),
		zap.Int("count", result.Count),
		zap.Duration("duration", result.Duration),
	)

	return result
}
