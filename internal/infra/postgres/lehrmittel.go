package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lehrmarkt-service/internal/domain"
)

// LehrmittelRepository implements domain.LehrmittelRepository.
type LehrmittelRepository struct {
	db *gorm.DB
}

// NewLehrmittelRepository creates a new Lehrmittel repository.
func NewLehrmittelRepository(db *gorm.DB) *LehrmittelRepository {
	return &LehrmittelRepository{db: db}
}

// BulkUpsert creates or updates catalog entries in batches of 100,
// keyed on publisher + external_id.
func (r *LehrmittelRepository) BulkUpsert(ctx context.Context, items []*domain.Lehrmittel) error {
	if len(items) == 0 {
		return nil
	}

	now := time.Now().UTC()
	models := make([]*LehrmittelModel, len(items))
	for i, l := range items {
		models[i] = LehrmittelFromDomain(l)
		models[i].UpdatedAt = now
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "publisher"}, {Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "subjects", "updated_at",
		}),
	}).CreateInBatches(models, 100).Error
	if err != nil {
		return fmt.Errorf("bulk upserting lehrmittel: %w", err)
	}

	for i, m := range models {
		items[i].ID = m.ID
		items[i].CreatedAt = m.CreatedAt
		items[i].UpdatedAt = m.UpdatedAt
	}

	return nil
}

// Count returns the total number of catalog entries.
func (r *LehrmittelRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&LehrmittelModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting lehrmittel: %w", err)
	}

	return count, nil
}
