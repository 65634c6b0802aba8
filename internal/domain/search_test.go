package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestSearchParams_Normalize_Pagination verifies page/limit clamping.
func TestSearchParams_Normalize_Pagination(t *testing.T) {
	tests := []struct {
		name      string
		page      int
		limit     int
		wantPage  int
		wantLimit int
	}{
		{name: "defaults", page: 0, limit: 0, wantPage: 1, wantLimit: 20},
		{name: "negative page", page: -3, limit: 10, wantPage: 1, wantLimit: 10},
		{name: "limit above max", page: 2, limit: 1000, wantPage: 2, wantLimit: 100},
		{name: "limit at max", page: 1, limit: 100, wantPage: 1, wantLimit: 100},
		{name: "negative limit", page: 1, limit: -5, wantPage: 1, wantLimit: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := SearchParams{Page: tt.page, Limit: tt.limit}
			p.Normalize()
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantLimit, p.Limit)
		})
	}
}

// TestSearchParams_Normalize_Sort verifies sort resolution, including the
// relevance default when a search term is present.
func TestSearchParams_Normalize_Sort(t *testing.T) {
	tests := []struct {
		name   string
		sort   SortMode
		search string
		want   SortMode
	}{
		{name: "unset without search", sort: "", search: "", want: SortNewest},
		{name: "unset with search", sort: "", search: "bruchrechnen", want: SortRelevance},
		{name: "explicit survives search", sort: SortPriceLow, search: "bruchrechnen", want: SortPriceLow},
		{name: "explicit newest", sort: SortNewest, search: "", want: SortNewest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := SearchParams{Sort: tt.sort, Search: tt.search}
			p.Normalize()
			assert.Equal(t, tt.want, p.Sort)
		})
	}
}

func TestParseSortMode(t *testing.T) {
	assert.Equal(t, SortPriceHigh, ParseSortMode("price-high"))
	assert.Equal(t, SortMode(""), ParseSortMode("cheapest"))
	assert.Equal(t, SortMode(""), ParseSortMode(""))
}

func TestSanitizeSearch(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Bruchrechnen", "Bruchrechnen"},
		{"  l'école!  ", "l école"},
		{"Mathe & Deutsch", "Mathe Deutsch"},
		{"   \t ", ""},
		{"Frühling-Werkstatt", "Frühling-Werkstatt"},
		{"a;DROP TABLE materials;--", "a DROP TABLE materials --"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeSearch(tt.in), "input %q", tt.in)
	}
}

func TestLooksLikeTaxonomyCode(t *testing.T) {
	codes := []string{"MA.1.A.2", "D 3 B", "NMG.2.6", "MI1", "ma.1.a.2"}
	for _, c := range codes {
		assert.True(t, LooksLikeTaxonomyCode(c), "expected code: %q", c)
	}

	words := []string{"Bruchrechnen", "Mathe Zyklus", "", "lesen lernen 1"}
	for _, w := range words {
		assert.False(t, LooksLikeTaxonomyCode(w), "expected non-code: %q", w)
	}
}

func TestNormalizeTaxonomyCode(t *testing.T) {
	assert.Equal(t, "MA1A2", NormalizeTaxonomyCode("ma.1.a 2"))
	assert.Equal(t, "NMG26", NormalizeTaxonomyCode("NMG.2.6"))
	assert.Equal(t, "", NormalizeTaxonomyCode(" . "))
}

// TestSearchParams_StructuredFilters verifies the filter variant translation,
// in particular the CHF to centimes conversion and maxPrice=0.
func TestSearchParams_StructuredFilters(t *testing.T) {
	zero := 0
	five := 5
	p := SearchParams{
		Subject:      "MA",
		Cycle:        "Zyklus 2",
		Dialect:      DialectSwiss,
		MIIntegrated: true,
		MinPrice:     &zero,
		MaxPrice:     &five,
		Formats:      []FormatBucket{FormatWord},
		LehrmittelID: "lm-1",
	}

	filters := p.StructuredFilters()
	assert.Len(t, filters, 7)

	var pr PriceRangeFilter
	found := false
	for _, f := range filters {
		if v, ok := f.(PriceRangeFilter); ok {
			pr, found = v, true
		}
	}
	assert.True(t, found, "expected a PriceRangeFilter")
	assert.Equal(t, 0, *pr.Min)
	assert.Equal(t, 500, *pr.Max)
}

func TestSearchParams_StructuredFilters_MaxPriceZero(t *testing.T) {
	zero := 0
	p := SearchParams{MaxPrice: &zero}

	filters := p.StructuredFilters()
	assert.Len(t, filters, 1)

	pr, ok := filters[0].(PriceRangeFilter)
	assert.True(t, ok)
	assert.Nil(t, pr.Min)
	assert.Equal(t, 0, *pr.Max, "maxPrice=0 must survive as a free-only bound")
}

func TestSearchParams_StructuredFilters_Empty(t *testing.T) {
	p := SearchParams{}
	assert.Empty(t, p.StructuredFilters())
}

// TestSearchParams_CacheKey_FieldBoundaries verifies that a separator
// inside one field cannot make two distinct filter sets share a key.
func TestSearchParams_CacheKey_FieldBoundaries(t *testing.T) {
	a := SearchParams{Subject: "a", Cycle: "b:c"}
	b := SearchParams{Subject: "a:b", Cycle: "c"}
	a.Normalize()
	b.Normalize()
	assert.NotEqual(t, a.CacheKey(), b.CacheKey())

	a = SearchParams{Cantons: []string{"ZH+X"}}
	b = SearchParams{Cantons: []string{"ZH", "X"}}
	a.Normalize()
	b.Normalize()
	assert.NotEqual(t, a.CacheKey(), b.CacheKey())
}

func TestSearchParams_CacheKey_Stable(t *testing.T) {
	zero := 0
	a := SearchParams{Search: "Brüche", MaxPrice: &zero, Cantons: []string{"ZH"}}
	b := SearchParams{Search: "Brüche", MaxPrice: &zero, Cantons: []string{"ZH"}}
	a.Normalize()
	b.Normalize()
	assert.Equal(t, a.CacheKey(), b.CacheKey())

	b.MaxPrice = nil
	assert.NotEqual(t, a.CacheKey(), b.CacheKey(), "free-only bound must key differently from no bound")
}

func TestCandidates_Narrow(t *testing.T) {
	c := NewCandidates()
	assert.Nil(t, c.IDs(), "unconstrained set has no IDs")
	assert.False(t, c.Exhausted())

	c.Narrow([]string{"a", "b", "c"})
	assert.ElementsMatch(t, []string{"a", "b", "c"}, c.IDs())

	c.Narrow([]string{"b", "c", "d"})
	assert.ElementsMatch(t, []string{"b", "c"}, c.IDs())
	assert.False(t, c.Exhausted())

	c.Narrow([]string{"x"})
	assert.True(t, c.Exhausted())
	assert.Empty(t, c.IDs())
}

func TestCandidates_NarrowToEmpty(t *testing.T) {
	c := NewCandidates()
	c.Narrow(nil)
	assert.True(t, c.Exhausted(), "narrowing to zero IDs exhausts the set")
}

func TestNewSearchResult_Pagination(t *testing.T) {
	params := SearchParams{Page: 2, Limit: 20}
	params.Normalize()

	result := NewSearchResult(nil, 41, params)
	assert.Equal(t, int64(41), result.Total)
	assert.Equal(t, 3, result.TotalPages)
	assert.Equal(t, 2, result.Page)

	result = NewSearchResult(nil, 40, params)
	assert.Equal(t, 2, result.TotalPages)
}

func TestEmptySearchResult(t *testing.T) {
	params := SearchParams{Page: 3, Limit: 10}
	params.Normalize()

	result := EmptySearchResult(params)
	assert.NotNil(t, result.Materials)
	assert.Empty(t, result.Materials)
	assert.Equal(t, int64(0), result.Total)
	assert.Equal(t, 0, result.TotalPages)
	assert.Equal(t, 3, result.Page)
	assert.Equal(t, 10, result.Limit)
}

func TestResortByRank(t *testing.T) {
	now := time.Now()
	materials := []*Material{
		{ID: "a", CreatedAt: now},
		{ID: "b", CreatedAt: now},
		{ID: "c", CreatedAt: now},
	}
	ranks := map[string]float64{"a": 0.2, "b": 0.9, "c": 0.5}

	ResortByRank(materials, ranks)

	assert.Equal(t, "b", materials[0].ID)
	assert.Equal(t, "c", materials[1].ID)
	assert.Equal(t, "a", materials[2].ID)
}

func TestResortByRank_UnrankedSinkStable(t *testing.T) {
	materials := []*Material{{ID: "x"}, {ID: "y"}, {ID: "z"}}
	ranks := map[string]float64{"z": 0.4}

	ResortByRank(materials, ranks)

	assert.Equal(t, "z", materials[0].ID)
	assert.Equal(t, "x", materials[1].ID, "unranked rows keep fetch order")
	assert.Equal(t, "y", materials[2].ID)
}
