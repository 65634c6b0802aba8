package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"lehrmarkt-service/internal/domain"
)

// Repository implements domain.MaterialRepository using PostgreSQL.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// taxonomy maps a taxonomy kind to its table and join table.
type taxonomy struct {
	table     string
	joinTable string
	joinCol   string
}

var taxonomies = map[domain.TaxonomyKind]taxonomy{
	domain.TaxonomyCompetency:  {table: "curriculum_competencies", joinTable: "material_competencies", joinCol: "competency_id"},
	domain.TaxonomyTransversal: {table: "transversal_competencies", joinTable: "material_transversals", joinCol: "transversal_id"},
	domain.TaxonomyBne:         {table: "bne_themes", joinTable: "material_bne_themes", joinCol: "bne_theme_id"},
}

// MaterialIDsByTaxonomy resolves a taxonomy code to linked material IDs.
// First pass is an exact substring match on the stored code; when it matches
// nothing the code is normalized (spaces/dots stripped, uppercased) and
// compared against equally normalized stored codes. Zero IDs is a valid
// outcome and means the whole request short-circuits to empty upstream.
func (r *Repository) MaterialIDsByTaxonomy(ctx context.Context, kind domain.TaxonomyKind, code string) ([]string, error) {
	tax, ok := taxonomies[kind]
	if !ok {
		return nil, fmt.Errorf("unknown taxonomy kind %q", kind)
	}

	var taxIDs []string
	err := r.db.WithContext(ctx).
		Table(tax.table).
		Where("code LIKE ?", "%"+code+"%").
		Pluck("id", &taxIDs).Error
	if err != nil {
		return nil, fmt.Errorf("looking up %s codes: %w", kind, err)
	}

	if len(taxIDs) == 0 {
		normalized := domain.NormalizeTaxonomyCode(code)
		if normalized == "" {
			return nil, nil
		}
		err = r.db.WithContext(ctx).
			Table(tax.table).
			Where("REPLACE(REPLACE(UPPER(code), ' ', ''), '.', '') LIKE ?", "%"+normalized+"%").
			Pluck("id", &taxIDs).Error
		if err != nil {
			return nil, fmt.Errorf("looking up normalized %s codes: %w", kind, err)
		}
	}

	if len(taxIDs) == 0 {
		return nil, nil
	}

	var materialIDs []string
	err = r.db.WithContext(ctx).
		Table(tax.joinTable).
		Where(tax.joinCol+" IN ?", taxIDs).
		Distinct().
		Pluck("material_id", &materialIDs).Error
	if err != nil {
		return nil, fmt.Errorf("resolving %s material ids: %w", kind, err)
	}

	return materialIDs, nil
}

// SellerIDsByCantons finds sellers whose cantons array overlaps the given
// canton codes.
func (r *Repository) SellerIDsByCantons(ctx context.Context, cantons []string) ([]string, error) {
	if len(cantons) == 0 {
		return nil, nil
	}

	var ids []string
	err := r.db.WithContext(ctx).
		Model(&UserModel{}).
		Where("cantons && ?", pq.Array(cantons)).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("looking up sellers by canton: %w", err)
	}

	return ids, nil
}

type rankedRow struct {
	ID   string
	Rank float64
}

// SearchFullText runs ranked full-text search against the precomputed
// search vector, scoped to published+public materials.
// websearch_to_tsquery supports user-friendly syntax:
//   - "wort1 wort2" → wort1 AND wort2
//   - "wort1 OR wort2" → wort1 OR wort2
//   - "-wort" → NOT wort
func (r *Repository) SearchFullText(ctx context.Context, query string) ([]domain.RankedID, error) {
	var rows []rankedRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, ts_rank(search_vector, websearch_to_tsquery('german', ?)) AS rank
		FROM materials
		WHERE is_published AND is_public
		  AND search_vector @@ websearch_to_tsquery('german', ?)
		ORDER BY rank DESC`,
		query, query,
	).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("full-text search: %w", err)
	}

	return toRankedIDs(rows), nil
}

// SearchSimilar runs trigram similarity matching against title and
// description. Returns domain.ErrSimilarityUnavailable when pg_trgm is not
// installed, which callers treat as an empty result.
func (r *Repository) SearchSimilar(ctx context.Context, query string, threshold float64, limit int) ([]domain.RankedID, error) {
	var rows []rankedRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, GREATEST(similarity(title, ?), similarity(coalesce(description, ''), ?)) AS rank
		FROM materials
		WHERE is_published AND is_public
		  AND (similarity(title, ?) > ? OR similarity(coalesce(description, ''), ?) > ?)
		ORDER BY rank DESC
		LIMIT ?`,
		query, query, query, threshold, query, threshold, limit,
	).Scan(&rows).Error
	if err != nil {
		if isSimilarityUnavailable(err) {
			return nil, domain.ErrSimilarityUnavailable
		}
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	return toRankedIDs(rows), nil
}

// isSimilarityUnavailable detects the "undefined function" error Postgres
// raises when pg_trgm is missing (SQLSTATE 42883).
func isSimilarityUnavailable(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "42883") ||
		strings.Contains(msg, "function similarity")
}

func toRankedIDs(rows []rankedRow) []domain.RankedID {
	out := make([]domain.RankedID, len(rows))
	for i, r := range rows {
		out[i] = domain.RankedID{ID: r.ID, Rank: r.Rank}
	}
	return out
}

// FetchPage executes the final filtered fetch with seller, review and
// curriculum relations, and a COUNT under the same WHERE clause. The count
// is a separate query, never derived from the fetched page.
func (r *Repository) FetchPage(ctx context.Context, q domain.MaterialQuery) ([]*domain.Material, int64, error) {
	var total int64
	if err := r.buildQuery(ctx, q).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting materials: %w", err)
	}

	var models []MaterialModel
	err := r.buildQuery(ctx, q).
		Preload("Seller").
		Preload("Reviews").
		Preload("Competencies").
		Preload("Transversals").
		Preload("BneThemes").
		Offset(q.Offset).
		Limit(q.Limit).
		Order(orderClause(q.Sort)).
		Find(&models).Error
	if err != nil {
		return nil, 0, fmt.Errorf("fetching materials: %w", err)
	}

	materials := make([]*domain.Material, len(models))
	for i := range models {
		materials[i] = models[i].ToDomain()
	}

	return materials, total, nil
}

// buildQuery translates the query spec into a GORM query. Every filter
// variant narrows the published+public base predicate; all parameters are
// bound, never interpolated.
func (r *Repository) buildQuery(ctx context.Context, q domain.MaterialQuery) *gorm.DB {
	query := r.db.WithContext(ctx).
		Model(&MaterialModel{}).
		Where("is_published = ? AND is_public = ?", true, true)

	if q.IDs != nil {
		query = query.Where("id IN ?", q.IDs)
	}
	if len(q.SellerIDs) > 0 {
		query = query.Where("seller_id IN ?", q.SellerIDs)
	}
	if q.Substring != "" {
		pattern := "%" + q.Substring + "%"
		query = query.Where("(title ILIKE ? OR description ILIKE ?)", pattern, pattern)
	}

	for _, f := range q.Filters {
		query = applyFilter(query, f)
	}

	return query
}

func applyFilter(query *gorm.DB, f domain.Filter) *gorm.DB {
	switch v := f.(type) {
	case domain.SubjectFilter:
		return query.Where("? = ANY(subjects)", v.Code)
	case domain.CycleFilter:
		return query.Where("? = ANY(cycles)", v.Label)
	case domain.DialectFilter:
		return query.Where("(dialect = ? OR dialect = ?)", string(v.Dialect), string(domain.DialectBoth))
	case domain.MIIntegratedFilter:
		return query.Where("mi_integrated = ?", true)
	case domain.PriceRangeFilter:
		if v.Min != nil {
			query = query.Where("price >= ?", *v.Min)
		}
		if v.Max != nil {
			query = query.Where("price <= ?", *v.Max)
		}
		return query
	case domain.FormatFilter:
		return applyFormatFilter(query, v)
	case domain.LehrmittelFilter:
		return query.Where(
			"id IN (SELECT material_id FROM material_lehrmittel WHERE lehrmittel_id = ?)",
			v.ID,
		)
	default:
		return query
	}
}

// applyFormatFilter matches file extensions against the stored file path.
// Buckets combine by union; the synthetic "other" bucket is the conjunction
// of not-ends-with over every known extension.
func applyFormatFilter(query *gorm.DB, f domain.FormatFilter) *gorm.DB {
	var conds []string
	var args []interface{}

	for _, bucket := range f.Buckets {
		if bucket == domain.FormatOther {
			var nots []string
			for _, ext := range domain.KnownExtensions() {
				nots = append(nots, "file_url NOT ILIKE ?")
				args = append(args, "%"+ext)
			}
			conds = append(conds, "("+strings.Join(nots, " AND ")+")")
			continue
		}
		var ors []string
		for _, ext := range bucket.Extensions() {
			ors = append(ors, "file_url ILIKE ?")
			args = append(args, "%"+ext)
		}
		if len(ors) > 0 {
			conds = append(conds, "("+strings.Join(ors, " OR ")+")")
		}
	}

	if len(conds) == 0 {
		return query
	}
	return query.Where("("+strings.Join(conds, " OR ")+")", args...)
}

// orderClause builds ORDER BY from the sort mode. Relevance orders by
// created_at in the database; the service re-sorts the fetched page
// in-memory using the retained rank scores.
func orderClause(sort domain.SortMode) string {
	switch sort {
	case domain.SortPriceLow:
		return "price ASC, created_at DESC"
	case domain.SortPriceHigh:
		return "price DESC, created_at DESC"
	default:
		return "created_at DESC"
	}
}

// GetByID retrieves one published+public material with its relations.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Material, error) {
	var model MaterialModel
	err := r.db.WithContext(ctx).
		Preload("Seller").
		Preload("Reviews").
		Preload("Competencies").
		Preload("Transversals").
		Preload("BneThemes").
		Where("id = ? AND is_published = ? AND is_public = ?", id, true, true).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("getting material by id: %w", err)
	}

	return model.ToDomain(), nil
}

// SetPublished flips the moderation state of a material.
func (r *Repository) SetPublished(ctx context.Context, id string, published bool) error {
	result := r.db.WithContext(ctx).
		Model(&MaterialModel{}).
		Where("id = ?", id).
		Update("is_published", published)
	if result.Error != nil {
		return fmt.Errorf("updating publication state: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// Count returns the number of visible materials.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&MaterialModel{}).
		Where("is_published = ? AND is_public = ?", true, true).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting materials: %w", err)
	}

	return count, nil
}

// CountsBySubject returns visible material counts per subject code.
func (r *Repository) CountsBySubject(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Subject string
		Count   int64
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT unnest(subjects) AS subject, COUNT(*) AS count
		FROM materials
		WHERE is_published AND is_public
		GROUP BY 1
		ORDER BY 2 DESC`,
	).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("counting materials by subject: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Subject] = row.Count
	}

	return counts, nil
}
