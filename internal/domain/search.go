package domain

import (
	"sort"
	"strconv"
	"strings"
)

// SortMode represents the requested result ordering.
type SortMode string

const (
	SortNewest    SortMode = "newest"
	SortPriceLow  SortMode = "price-low"
	SortPriceHigh SortMode = "price-high"
	SortRelevance SortMode = "relevance"
)

// ParseSortMode matches a raw sort value against the allowed set.
// Unrecognized values fall back to "" (resolved during Normalize), per the
// lenient parsing policy: a bad filter value never fails the request.
func ParseSortMode(s string) SortMode {
	switch SortMode(s) {
	case SortNewest, SortPriceLow, SortPriceHigh, SortRelevance:
		return SortMode(s)
	default:
		return ""
	}
}

// SearchParams holds the validated filter request for the materials listing.
// Construct from raw query parameters, then call Normalize before use.
type SearchParams struct {
	// Pagination
	Page  int
	Limit int

	// Free text, sanitized. Empty means no search.
	Search string
	Sort   SortMode

	// Structured filters. Zero values mean "not present".
	Subject      string
	Cycle        string
	Competency   string
	Transversal  string
	Bne          string
	MIIntegrated bool
	LehrmittelID string
	Dialect      Dialect
	MinPrice     *int // whole CHF
	MaxPrice     *int // whole CHF; 0 requests free-only
	Formats      []FormatBucket
	Cantons      []string
}

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Normalize degrades invalid input to safe defaults. It never fails:
// bad page/limit values clamp, the search string is sanitized, and an
// unset sort resolves to newest, or relevance when searching.
func (p *SearchParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	p.Search = SanitizeSearch(p.Search)
	if p.Sort == "" {
		if p.Search != "" {
			p.Sort = SortRelevance
		} else {
			p.Sort = SortNewest
		}
	}
}

// Offset calculates the database offset for pagination.
func (p *SearchParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// StructuredFilters translates the present selections into filter variants.
// Taxonomy codes and cantons are absent here: they resolve through lookup
// queries into candidate ID sets instead of predicates.
func (p *SearchParams) StructuredFilters() []Filter {
	var filters []Filter
	if p.Subject != "" {
		filters = append(filters, SubjectFilter{Code: p.Subject})
	}
	if p.Cycle != "" {
		filters = append(filters, CycleFilter{Label: p.Cycle})
	}
	if p.Dialect != "" {
		filters = append(filters, DialectFilter{Dialect: p.Dialect})
	}
	if p.MIIntegrated {
		filters = append(filters, MIIntegratedFilter{})
	}
	if p.MinPrice != nil || p.MaxPrice != nil {
		// Prices arrive in whole CHF and are stored in centimes.
		pr := PriceRangeFilter{}
		if p.MinPrice != nil {
			v := *p.MinPrice * 100
			pr.Min = &v
		}
		if p.MaxPrice != nil {
			v := *p.MaxPrice * 100
			pr.Max = &v
		}
		filters = append(filters, pr)
	}
	if len(p.Formats) > 0 {
		filters = append(filters, FormatFilter{Buckets: p.Formats})
	}
	if p.LehrmittelID != "" {
		filters = append(filters, LehrmittelFilter{ID: p.LehrmittelID})
	}
	return filters
}

// CacheKey returns a stable key for caching normalized search responses.
// User-supplied fields are quoted so a value containing the separator
// cannot collide with a neighboring field.
func (p *SearchParams) CacheKey() string {
	min, max := "", ""
	if p.MinPrice != nil {
		min = strconv.Itoa(*p.MinPrice)
	}
	if p.MaxPrice != nil {
		max = strconv.Itoa(*p.MaxPrice)
	}
	formats := make([]string, len(p.Formats))
	for i, f := range p.Formats {
		formats[i] = string(f)
	}
	cantons := make([]string, len(p.Cantons))
	for i, c := range p.Cantons {
		cantons[i] = strconv.Quote(c)
	}
	return strings.Join([]string{
		"materials",
		strconv.Itoa(p.Page), strconv.Itoa(p.Limit),
		strconv.Quote(p.Search), string(p.Sort),
		strconv.Quote(p.Subject), strconv.Quote(p.Cycle),
		strconv.Quote(p.Competency), strconv.Quote(p.Transversal), strconv.Quote(p.Bne),
		strconv.FormatBool(p.MIIntegrated), strconv.Quote(p.LehrmittelID), string(p.Dialect),
		min, max,
		strings.Join(formats, "+"),
		strings.Join(cantons, "+"),
	}, ":")
}

// Candidates accumulates material IDs across filter-resolution steps.
// It starts unconstrained; each Narrow intersects a resolved ID set into it.
// Exhausted reports the short-circuit condition: some filter matched nothing,
// so the main query is guaranteed empty and must not run.
type Candidates struct {
	constrained bool
	ids         map[string]struct{}
}

// NewCandidates returns an unconstrained candidate set.
func NewCandidates() *Candidates {
	return &Candidates{}
}

// Narrow intersects the given IDs into the candidate set.
func (c *Candidates) Narrow(ids []string) {
	if !c.constrained {
		c.constrained = true
		c.ids = make(map[string]struct{}, len(ids))
		for _, id := range ids {
			c.ids[id] = struct{}{}
		}
		return
	}
	next := make(map[string]struct{}, len(c.ids))
	for _, id := range ids {
		if _, ok := c.ids[id]; ok {
			next[id] = struct{}{}
		}
	}
	c.ids = next
}

// Exhausted reports whether narrowing eliminated every candidate.
func (c *Candidates) Exhausted() bool {
	return c.constrained && len(c.ids) == 0
}

// IDs returns the candidate IDs, or nil when unconstrained.
func (c *Candidates) IDs() []string {
	if !c.constrained {
		return nil
	}
	ids := make([]string, 0, len(c.ids))
	for id := range c.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RankedID is a material ID with its text-search rank or similarity score.
type RankedID struct {
	ID   string
	Rank float64
}

// SearchResult holds one page of materials with pagination metadata.
type SearchResult struct {
	Materials  []*Material
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// NewSearchResult assembles a result page with calculated pagination.
func NewSearchResult(materials []*Material, total int64, params SearchParams) *SearchResult {
	totalPages := int(total) / params.Limit
	if int(total)%params.Limit > 0 {
		totalPages++
	}
	return &SearchResult{
		Materials:  materials,
		Total:      total,
		Page:       params.Page,
		Limit:      params.Limit,
		TotalPages: totalPages,
	}
}

// EmptySearchResult is the short-circuit response shape: same structure,
// zero rows, zero pages.
func EmptySearchResult(params SearchParams) *SearchResult {
	return &SearchResult{
		Materials:  []*Material{},
		Total:      0,
		Page:       params.Page,
		Limit:      params.Limit,
		TotalPages: 0,
	}
}

// ResortByRank re-orders a fetched page in place by descending text-search
// rank. Ranking is approximate within the page, not globally exact; rows
// without a rank sink to the end, keeping their fetch order.
func ResortByRank(materials []*Material, ranks map[string]float64) {
	sort.SliceStable(materials, func(i, j int) bool {
		return ranks[materials[i].ID] > ranks[materials[j].ID]
	})
}
