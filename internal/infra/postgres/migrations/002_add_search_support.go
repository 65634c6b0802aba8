package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// addSearchSupport equips the materials table for text search.
//
// 1. Adds `search_vector` column (tsvector) maintained by trigger
// 2. Creates a GIN index for full-text queries
// 3. Attempts to install pg_trgm and trigram indexes for the fuzzy
//    fallback; failure is tolerated, the repository then reports
//    similarity search as unavailable at query time
//
// Search vector weights: title 'A', description 'B', both through the
// german configuration so stemming matches how teachers phrase queries.
func addSearchSupport() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "002_add_search_support",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.Exec(`
				ALTER TABLE materials
				ADD COLUMN IF NOT EXISTS search_vector tsvector
			`).Error; err != nil {
				return err
			}

			if err := tx.Exec(`
				CREATE INDEX IF NOT EXISTS idx_materials_search_vector
				ON materials USING GIN (search_vector)
			`).Error; err != nil {
				return err
			}

			if err := tx.Exec(`
				CREATE OR REPLACE FUNCTION materials_search_vector_update()
				RETURNS trigger AS $$
				BEGIN
					NEW.search_vector :=
						setweight(to_tsvector('german', coalesce(NEW.title, '')), 'A') ||
						setweight(to_tsvector('german', coalesce(NEW.description, '')), 'B');
					RETURN NEW;
				END
				$$ LANGUAGE plpgsql
			`).Error; err != nil {
				return err
			}

			if err := tx.Exec(`
				DROP TRIGGER IF EXISTS trg_materials_search_vector ON materials
			`).Error; err != nil {
				return err
			}

			if err := tx.Exec(`
				CREATE TRIGGER trg_materials_search_vector
				BEFORE INSERT OR UPDATE OF title, description
				ON materials
				FOR EACH ROW
				EXECUTE FUNCTION materials_search_vector_update()
			`).Error; err != nil {
				return err
			}

			if err := tx.Exec(`
				UPDATE materials SET search_vector =
					setweight(to_tsvector('german', coalesce(title, '')), 'A') ||
					setweight(to_tsvector('german', coalesce(description, '')), 'B')
				WHERE search_vector IS NULL
			`).Error; err != nil {
				return err
			}

			// pg_trgm needs superuser or the extension preinstalled.
			// Ignore errors: the trigram fallback degrades gracefully.
			_ = tx.Exec(`CREATE EXTENSION IF NOT EXISTS pg_trgm`).Error
			_ = tx.Exec(`
				CREATE INDEX IF NOT EXISTS idx_materials_title_trgm
				ON materials USING GIN (title gin_trgm_ops)
			`).Error
			_ = tx.Exec(`
				CREATE INDEX IF NOT EXISTS idx_materials_description_trgm
				ON materials USING GIN (description gin_trgm_ops)
			`).Error

			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			_ = tx.Exec(`DROP TRIGGER IF EXISTS trg_materials_search_vector ON materials`).Error
			_ = tx.Exec(`DROP FUNCTION IF EXISTS materials_search_vector_update()`).Error
			_ = tx.Exec(`DROP INDEX IF EXISTS idx_materials_search_vector`).Error
			_ = tx.Exec(`DROP INDEX IF EXISTS idx_materials_title_trgm`).Error
			_ = tx.Exec(`DROP INDEX IF EXISTS idx_materials_description_trgm`).Error
			_ = tx.Exec(`ALTER TABLE materials DROP COLUMN IF EXISTS search_vector`).Error
			return nil
		},
	}
}
