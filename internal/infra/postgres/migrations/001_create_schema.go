package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createSchema creates the marketplace tables with all indexes.
func createSchema() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "001_create_schema",
		Migrate: func(tx *gorm.DB) error {
			stmts := []string{
				`CREATE TABLE IF NOT EXISTS users (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					display_name VARCHAR(200) NOT NULL,
					verified BOOLEAN NOT NULL DEFAULT FALSE,
					cantons TEXT[],
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
				);`,

				`CREATE TABLE IF NOT EXISTS materials (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					title VARCHAR(500) NOT NULL,
					description TEXT,

					-- Price in centimes
					price INTEGER NOT NULL DEFAULT 0,

					subjects TEXT[],
					cycles TEXT[],
					dialect VARCHAR(10) NOT NULL DEFAULT 'BOTH',
					mi_integrated BOOLEAN NOT NULL DEFAULT FALSE,

					file_url VARCHAR(1000) NOT NULL,
					preview_url VARCHAR(1000),

					is_published BOOLEAN NOT NULL DEFAULT FALSE,
					is_public BOOLEAN NOT NULL DEFAULT TRUE,

					seller_id UUID NOT NULL REFERENCES users(id),

					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
				);`,

				`CREATE TABLE IF NOT EXISTS reviews (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					material_id UUID NOT NULL REFERENCES materials(id) ON DELETE CASCADE,
					rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
					comment TEXT,
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
				);`,

				`CREATE TABLE IF NOT EXISTS curriculum_competencies (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					code VARCHAR(50) NOT NULL UNIQUE,
					title VARCHAR(500)
				);`,

				`CREATE TABLE IF NOT EXISTS transversal_competencies (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					code VARCHAR(50) NOT NULL UNIQUE,
					title VARCHAR(500)
				);`,

				`CREATE TABLE IF NOT EXISTS bne_themes (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					code VARCHAR(50) NOT NULL UNIQUE,
					title VARCHAR(500)
				);`,

				`CREATE TABLE IF NOT EXISTS lehrmittel (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					publisher VARCHAR(50) NOT NULL,
					external_id VARCHAR(100) NOT NULL,
					title VARCHAR(500) NOT NULL,
					subjects TEXT[],
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,

					-- Unique constraint for upsert
					CONSTRAINT uq_publisher_external UNIQUE (publisher, external_id)
				);`,

				`CREATE TABLE IF NOT EXISTS material_competencies (
					material_id UUID NOT NULL REFERENCES materials(id) ON DELETE CASCADE,
					competency_id UUID NOT NULL REFERENCES curriculum_competencies(id) ON DELETE CASCADE,
					PRIMARY KEY (material_id, competency_id)
				);`,

				`CREATE TABLE IF NOT EXISTS material_transversals (
					material_id UUID NOT NULL REFERENCES materials(id) ON DELETE CASCADE,
					transversal_id UUID NOT NULL REFERENCES transversal_competencies(id) ON DELETE CASCADE,
					PRIMARY KEY (material_id, transversal_id)
				);`,

				`CREATE TABLE IF NOT EXISTS material_bne_themes (
					material_id UUID NOT NULL REFERENCES materials(id) ON DELETE CASCADE,
					bne_theme_id UUID NOT NULL REFERENCES bne_themes(id) ON DELETE CASCADE,
					PRIMARY KEY (material_id, bne_theme_id)
				);`,

				`CREATE TABLE IF NOT EXISTS material_lehrmittel (
					material_id UUID NOT NULL REFERENCES materials(id) ON DELETE CASCADE,
					lehrmittel_id UUID NOT NULL REFERENCES lehrmittel(id) ON DELETE CASCADE,
					PRIMARY KEY (material_id, lehrmittel_id)
				);`,
			}

			for _, stmt := range stmts {
				if err := tx.Exec(stmt).Error; err != nil {
					return err
				}
			}

			indexes := []string{
				"CREATE INDEX IF NOT EXISTS idx_materials_visible ON materials(is_published, is_public);",
				"CREATE INDEX IF NOT EXISTS idx_materials_price ON materials(price);",
				"CREATE INDEX IF NOT EXISTS idx_materials_created_at ON materials(created_at DESC);",
				"CREATE INDEX IF NOT EXISTS idx_materials_seller_id ON materials(seller_id);",
				"CREATE INDEX IF NOT EXISTS idx_materials_subjects ON materials USING GIN (subjects);",
				"CREATE INDEX IF NOT EXISTS idx_materials_cycles ON materials USING GIN (cycles);",
				"CREATE INDEX IF NOT EXISTS idx_users_cantons ON users USING GIN (cantons);",
				"CREATE INDEX IF NOT EXISTS idx_reviews_material_id ON reviews(material_id);",
			}

			for _, idx := range indexes {
				if err := tx.Exec(idx).Error; err != nil {
					return err
				}
			}

			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			tables := []string{
				"material_lehrmittel", "material_bne_themes",
				"material_transversals", "material_competencies",
				"reviews", "materials", "lehrmittel",
				"bne_themes", "transversal_competencies",
				"curriculum_competencies", "users",
			}
			for _, table := range tables {
				if err := tx.Exec("DROP TABLE IF EXISTS " + table + ";").Error; err != nil {
					return err
				}
			}
			return nil
		},
	}
}
