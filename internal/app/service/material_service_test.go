package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lehrmarkt-service/internal/domain"
)

// fakeRepo is a scriptable in-memory MaterialRepository.
type fakeRepo struct {
	taxonomyIDs   map[domain.TaxonomyKind][]string
	sellerIDs     []string
	ftsHits       []domain.RankedID
	similarHits   []domain.RankedID
	similarErr    error
	fetched       []*domain.Material
	total         int64
	lastQuery     *domain.MaterialQuery
	fetchCalled   bool
	similarCalled bool
}

func (f *fakeRepo) MaterialIDsByTaxonomy(_ context.Context, kind domain.TaxonomyKind, _ string) ([]string, error) {
	return f.taxonomyIDs[kind], nil
}

func (f *fakeRepo) SellerIDsByCantons(context.Context, []string) ([]string, error) {
	return f.sellerIDs, nil
}

func (f *fakeRepo) SearchFullText(context.Context, string) ([]domain.RankedID, error) {
	return f.ftsHits, nil
}

func (f *fakeRepo) SearchSimilar(context.Context, string, float64, int) ([]domain.RankedID, error) {
	f.similarCalled = true
	return f.similarHits, f.similarErr
}

func (f *fakeRepo) FetchPage(_ context.Context, q domain.MaterialQuery) ([]*domain.Material, int64, error) {
	f.fetchCalled = true
	f.lastQuery = &q
	return f.fetched, f.total, nil
}

func (f *fakeRepo) GetByID(context.Context, string) (*domain.Material, error) { return nil, nil }
func (f *fakeRepo) SetPublished(context.Context, string, bool) error          { return nil }
func (f *fakeRepo) Count(context.Context) (int64, error)                      { return f.total, nil }
func (f *fakeRepo) CountsBySubject(context.Context) (map[string]int64, error) { return nil, nil }

// memCache is a map-backed domain.Cache for exercising the cache path.
type memCache struct {
	store map[string][]byte
}

func newMemCache() *memCache { return &memCache{store: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) { return c.store[key], nil }

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.store[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	delete(c.store, key)
	return nil
}

func (c *memCache) Clear(context.Context) error {
	c.store = map[string][]byte{}
	return nil
}

func newTestService(repo *fakeRepo) *MaterialService {
	return NewMaterialService(repo, nil, 0, zap.NewNop())
}

func TestSearch_UnknownTaxonomyCodeShortCircuits(t *testing.T) {
	repo := &fakeRepo{taxonomyIDs: map[domain.TaxonomyKind][]string{}}
	svc := newTestService(repo)

	result, err := svc.Search(context.Background(), domain.SearchParams{
		Page: 1, Limit: 20, Competency: "XX.999.ZZZ",
	})
	require.NoError(t, err)

	assert.Empty(t, result.Materials)
	assert.Equal(t, int64(0), result.Total)
	assert.Equal(t, 0, result.TotalPages)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 20, result.Limit)
	assert.False(t, repo.fetchCalled, "guaranteed-empty queries must never execute")
}

func TestSearch_NoSellersInCantonShortCircuits(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo)

	result, err := svc.Search(context.Background(), domain.SearchParams{
		Cantons: []string{"TI"},
	})
	require.NoError(t, err)

	assert.Empty(t, result.Materials)
	assert.False(t, repo.fetchCalled)
}

func TestSearch_CantonRestrictsSellers(t *testing.T) {
	repo := &fakeRepo{sellerIDs: []string{"s1", "s2"}}
	svc := newTestService(repo)

	_, err := svc.Search(context.Background(), domain.SearchParams{
		Cantons: []string{"ZH"},
	})
	require.NoError(t, err)

	require.NotNil(t, repo.lastQuery)
	assert.Equal(t, []string{"s1", "s2"}, repo.lastQuery.SellerIDs)
	assert.Nil(t, repo.lastQuery.IDs, "no ID constraint without taxonomy or text search")
}

func TestSearch_FuzzyFallbackOnZeroFullTextHits(t *testing.T) {
	repo := &fakeRepo{
		similarHits: []domain.RankedID{{ID: "m1", Rank: 0.4}},
		fetched:     []*domain.Material{{ID: "m1"}},
		total:       1,
	}
	svc := newTestService(repo)

	result, err := svc.Search(context.Background(), domain.SearchParams{
		Search: "Bruchrechnung",
	})
	require.NoError(t, err)

	assert.True(t, repo.similarCalled)
	require.Len(t, result.Materials, 1)
	assert.Equal(t, "m1", result.Materials[0].ID)
	assert.Equal(t, []string{"m1"}, repo.lastQuery.IDs)
}

func TestSearch_SimilarityUnavailableYieldsEmpty(t *testing.T) {
	repo := &fakeRepo{similarErr: domain.ErrSimilarityUnavailable}
	svc := newTestService(repo)

	result, err := svc.Search(context.Background(), domain.SearchParams{
		Search: "Bruchrechnen",
	})
	require.NoError(t, err, "a degraded search subsystem is not a request failure")

	assert.Empty(t, result.Materials)
	assert.False(t, repo.fetchCalled)
}

func TestSearch_NoHitsAtAllYieldsEmpty(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo)

	result, err := svc.Search(context.Background(), domain.SearchParams{
		Search: "Quantenphysik",
	})
	require.NoError(t, err)

	assert.Empty(t, result.Materials)
	assert.False(t, repo.fetchCalled)
}

func TestSearch_CodeLikeTermUsesSubstringMatch(t *testing.T) {
	repo := &fakeRepo{fetched: []*domain.Material{}, total: 0}
	svc := newTestService(repo)

	_, err := svc.Search(context.Background(), domain.SearchParams{
		Search: "MA.1.A.2",
	})
	require.NoError(t, err)

	require.NotNil(t, repo.lastQuery)
	assert.NotEmpty(t, repo.lastQuery.Substring, "code-like terms skip full-text search")
	assert.False(t, repo.similarCalled)
}

func TestSearch_TaxonomyAndTextIntersect(t *testing.T) {
	repo := &fakeRepo{
		taxonomyIDs: map[domain.TaxonomyKind][]string{
			domain.TaxonomyCompetency: {"m1", "m2"},
		},
		ftsHits: []domain.RankedID{{ID: "m2", Rank: 0.8}, {ID: "m3", Rank: 0.5}},
		fetched: []*domain.Material{{ID: "m2"}},
		total:   1,
	}
	svc := newTestService(repo)

	_, err := svc.Search(context.Background(), domain.SearchParams{
		Competency: "MA.1.A.2",
		Search:     "Brüche addieren",
	})
	require.NoError(t, err)

	require.NotNil(t, repo.lastQuery)
	assert.Equal(t, []string{"m2"}, repo.lastQuery.IDs, "candidate sets intersect")
}

func TestSearch_DisjointTaxonomyAndTextShortCircuits(t *testing.T) {
	repo := &fakeRepo{
		taxonomyIDs: map[domain.TaxonomyKind][]string{
			domain.TaxonomyCompetency: {"m1"},
		},
		ftsHits: []domain.RankedID{{ID: "m9", Rank: 0.8}},
	}
	svc := newTestService(repo)

	result, err := svc.Search(context.Background(), domain.SearchParams{
		Competency: "MA.1.A.2",
		Search:     "Brüche",
	})
	require.NoError(t, err)

	assert.Empty(t, result.Materials)
	assert.False(t, repo.fetchCalled)
}

func TestSearch_RelevanceResortsFetchedPage(t *testing.T) {
	repo := &fakeRepo{
		ftsHits: []domain.RankedID{
			{ID: "m1", Rank: 0.2},
			{ID: "m2", Rank: 0.9},
		},
		// repo returns newest-first; relevance must reorder
		fetched: []*domain.Material{{ID: "m1"}, {ID: "m2"}},
		total:   2,
	}
	svc := newTestService(repo)

	result, err := svc.Search(context.Background(), domain.SearchParams{
		Search: "Brüche",
		// Sort unset: defaults to relevance when searching
	})
	require.NoError(t, err)

	require.Len(t, result.Materials, 2)
	assert.Equal(t, "m2", result.Materials[0].ID)
	assert.Equal(t, "m1", result.Materials[1].ID)
}

func TestSearch_ExplicitSortSkipsResort(t *testing.T) {
	repo := &fakeRepo{
		ftsHits: []domain.RankedID{
			{ID: "m1", Rank: 0.2},
			{ID: "m2", Rank: 0.9},
		},
		fetched: []*domain.Material{{ID: "m1", Price: 0}, {ID: "m2", Price: 500}},
		total:   2,
	}
	svc := newTestService(repo)

	result, err := svc.Search(context.Background(), domain.SearchParams{
		Search: "Brüche",
		Sort:   domain.SortPriceLow,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.SortPriceLow, repo.lastQuery.Sort)
	assert.Equal(t, "m1", result.Materials[0].ID, "explicit price sort is kept")
}

func TestSearch_StructuredFiltersReachRepository(t *testing.T) {
	repo := &fakeRepo{fetched: []*domain.Material{}, total: 0}
	svc := newTestService(repo)

	zero := 0
	_, err := svc.Search(context.Background(), domain.SearchParams{
		Subject:  "MA",
		MaxPrice: &zero,
	})
	require.NoError(t, err)

	require.NotNil(t, repo.lastQuery)
	assert.Len(t, repo.lastQuery.Filters, 2)
}

// TestSearch_CacheHitKeepsRatings verifies a cached page serves the same
// review aggregates as the page it was built from.
func TestSearch_CacheHitKeepsRatings(t *testing.T) {
	repo := &fakeRepo{
		fetched: []*domain.Material{{ID: "m1", Ratings: []int{5, 4}}},
		total:   1,
	}
	svc := NewMaterialService(repo, newMemCache(), time.Minute, zap.NewNop())
	params := domain.SearchParams{Subject: "MA"}

	first, err := svc.Search(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, first.Materials, 1)
	assert.Equal(t, 4.5, first.Materials[0].AverageRating())

	repo.fetchCalled = false
	second, err := svc.Search(context.Background(), params)
	require.NoError(t, err)
	assert.False(t, repo.fetchCalled, "second page must come from the cache")
	require.Len(t, second.Materials, 1)
	assert.Equal(t, 4.5, second.Materials[0].AverageRating())
	assert.Equal(t, 2, second.Materials[0].ReviewCount())
}

func TestSetPublished_InvalidatesCache(t *testing.T) {
	repo := &fakeRepo{fetched: []*domain.Material{{ID: "m1"}}, total: 1}
	cache := newMemCache()
	svc := NewMaterialService(repo, cache, time.Minute, zap.NewNop())

	_, err := svc.Search(context.Background(), domain.SearchParams{})
	require.NoError(t, err)
	require.NotEmpty(t, cache.store)

	require.NoError(t, svc.SetPublished(context.Background(), "m1", false))
	assert.Empty(t, cache.store)
}
