// Package service provides application use cases.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"lehrmarkt-service/internal/domain"
)

// similarityThreshold is the minimum trigram similarity for fuzzy matches.
const similarityThreshold = 0.15

// similarityLimit caps the fuzzy-match result set.
const similarityLimit = 50

// MaterialService runs the materials search pipeline:
// normalize → structured filters → text search → final fetch → assemble.
// Every step that resolves to zero candidates short-circuits to an empty
// page; the main query never runs for a guaranteed-empty request.
type MaterialService struct {
	repo     domain.MaterialRepository
	cache    domain.Cache // nil disables caching
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewMaterialService creates a new MaterialService.
func NewMaterialService(repo domain.MaterialRepository, cache domain.Cache, cacheTTL time.Duration, logger *zap.Logger) *MaterialService {
	return &MaterialService{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Search resolves the filter request into a paginated result page.
func (s *MaterialService) Search(ctx context.Context, params domain.SearchParams) (*domain.SearchResult, error) {
	params.Normalize()

	if cached := s.cachedResult(ctx, &params); cached != nil {
		return cached, nil
	}

	s.logger.Debug("searching materials",
		zap.String("search", params.Search),
		zap.String("sort", string(params.Sort)),
		zap.Int("page", params.Page),
		zap.Int("limit", params.Limit),
	)

	candidates := domain.NewCandidates()

	// Taxonomy filters resolve codes to material IDs through lookup
	// queries; an unrecognized code means no material can match.
	taxonomyFilters := []struct {
		kind domain.TaxonomyKind
		code string
	}{
		{domain.TaxonomyCompetency, params.Competency},
		{domain.TaxonomyTransversal, params.Transversal},
		{domain.TaxonomyBne, params.Bne},
	}
	for _, tf := range taxonomyFilters {
		if tf.code == "" {
			continue
		}
		ids, err := s.repo.MaterialIDsByTaxonomy(ctx, tf.kind, tf.code)
		if err != nil {
			return nil, err
		}
		candidates.Narrow(ids)
		if candidates.Exhausted() {
			s.logger.Debug("taxonomy filter matched nothing",
				zap.String("kind", string(tf.kind)),
				zap.String("code", tf.code),
			)
			return domain.EmptySearchResult(params), nil
		}
	}

	// Canton filter narrows by seller, not by material ID.
	var sellerIDs []string
	if len(params.Cantons) > 0 {
		ids, err := s.repo.SellerIDsByCantons(ctx, params.Cantons)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			s.logger.Debug("no sellers in requested cantons", zap.Strings("cantons", params.Cantons))
			return domain.EmptySearchResult(params), nil
		}
		sellerIDs = ids
	}

	// Text search: code-like terms get a plain substring match, everything
	// else goes through ranked full-text with a trigram fallback.
	substring := ""
	var ranks map[string]float64
	if params.Search != "" {
		if domain.LooksLikeTaxonomyCode(params.Search) {
			substring = params.Search
		} else {
			hits, err := s.resolveTextSearch(ctx, params.Search)
			if err != nil {
				return nil, err
			}
			if len(hits) == 0 {
				return domain.EmptySearchResult(params), nil
			}
			ids := make([]string, len(hits))
			ranks = make(map[string]float64, len(hits))
			for i, h := range hits {
				ids[i] = h.ID
				ranks[h.ID] = h.Rank
			}
			candidates.Narrow(ids)
			if candidates.Exhausted() {
				return domain.EmptySearchResult(params), nil
			}
		}
	}

	materials, total, err := s.repo.FetchPage(ctx, domain.MaterialQuery{
		Filters:   params.StructuredFilters(),
		IDs:       candidates.IDs(),
		SellerIDs: sellerIDs,
		Substring: substring,
		Sort:      params.Sort,
		Offset:    params.Offset(),
		Limit:     params.Limit,
	})
	if err != nil {
		return nil, err
	}

	// Relevance ranking is applied to the fetched page only; the database
	// orders by created_at and the retained scores re-sort in memory.
	if ranks != nil && params.Sort == domain.SortRelevance {
		domain.ResortByRank(materials, ranks)
	}

	result := domain.NewSearchResult(materials, total, params)
	s.storeResult(ctx, &params, result)

	s.logger.Debug("search completed",
		zap.Int64("total", result.Total),
		zap.Int("count", len(result.Materials)),
	)

	return result, nil
}

// resolveTextSearch tries ranked full-text search first and falls back to
// trigram similarity on zero hits. A missing pg_trgm extension degrades to
// an empty result, logged server-side only.
func (s *MaterialService) resolveTextSearch(ctx context.Context, query string) ([]domain.RankedID, error) {
	hits, err := s.repo.SearchFullText(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(hits) > 0 {
		return hits, nil
	}

	hits, err = s.repo.SearchSimilar(ctx, query, similarityThreshold, similarityLimit)
	if err != nil {
		if errors.Is(err, domain.ErrSimilarityUnavailable) {
			s.logger.Warn("similarity search unavailable, returning empty result",
				zap.String("search", query),
			)
			return nil, nil
		}
		return nil, err
	}

	return hits, nil
}

// GetByID retrieves a single visible material.
func (s *MaterialService) GetByID(ctx context.Context, id string) (*domain.Material, error) {
	material, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("get material failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return material, nil
}

// SetPublished flips the moderation state and invalidates cached search
// pages, since visibility changed.
func (s *MaterialService) SetPublished(ctx context.Context, id string, published bool) error {
	if err := s.repo.SetPublished(ctx, id, published); err != nil {
		return err
	}

	s.logger.Info("publication state changed",
		zap.String("id", id),
		zap.Bool("published", published),
	)

	if s.cache != nil {
		if err := s.cache.Clear(ctx); err != nil {
			s.logger.Warn("search cache invalidation failed", zap.Error(err))
		}
	}

	return nil
}

// Count returns the number of visible materials.
func (s *MaterialService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

// CountsBySubject returns visible material counts per subject code.
func (s *MaterialService) CountsBySubject(ctx context.Context) (map[string]int64, error) {
	return s.repo.CountsBySubject(ctx)
}

// cachedResult returns a cached page for the normalized params, or nil.
// Cache failures never fail the request.
func (s *MaterialService) cachedResult(ctx context.Context, params *domain.SearchParams) *domain.SearchResult {
	if s.cache == nil {
		return nil
	}

	data, err := s.cache.Get(ctx, params.CacheKey())
	if err != nil || data == nil {
		return nil
	}

	var result domain.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		s.logger.Warn("corrupt cached search result", zap.Error(err))
		return nil
	}

	return &result
}

func (s *MaterialService) storeResult(ctx context.Context, params *domain.SearchParams, result *domain.SearchResult) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, params.CacheKey(), data, s.cacheTTL); err != nil {
		s.logger.Warn("caching search result failed", zap.Error(err))
	}
}
