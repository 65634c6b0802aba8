// Package dto provides Data Transfer Objects for HTTP requests and responses.
package dto

import (
	"strconv"
	"strings"

	"lehrmarkt-service/internal/domain"
)

// ListMaterialsRequest carries the raw query parameters of the public
// materials listing. Every field is a string on purpose: the listing
// endpoint never rejects a request over a malformed filter value, so
// parsing happens leniently in ToSearchParams instead of failing in
// the query parser.
type ListMaterialsRequest struct {
	Page  string `query:"page"`
	Limit string `query:"limit"`

	Search string `query:"search"`
	Sort   string `query:"sort"`

	Subject      string `query:"subject"`
	Cycle        string `query:"cycle"`
	Competency   string `query:"competency"`
	Transversal  string `query:"transversal"`
	Bne          string `query:"bne"`
	MIIntegrated string `query:"mi_integrated"`
	Lehrmittel   string `query:"lehrmittel"`
	Dialect      string `query:"dialect"`
	MinPrice     string `query:"minPrice"`
	MaxPrice     string `query:"maxPrice"`
	Formats      string `query:"formats"`
	Cantons      string `query:"cantons"`
}

// ToSearchParams converts the raw request into domain.SearchParams.
// Non-numeric page/limit values fall back to their defaults, unknown
// enum values drop the filter, and Normalize clamps the rest.
func (r *ListMaterialsRequest) ToSearchParams() domain.SearchParams {
	params := domain.SearchParams{
		Page:         atoiOr(r.Page, 1),
		Limit:        atoiOr(r.Limit, domain.DefaultLimit),
		Search:       r.Search,
		Sort:         domain.ParseSortMode(r.Sort),
		Subject:      r.Subject,
		Cycle:        r.Cycle,
		Competency:   r.Competency,
		Transversal:  r.Transversal,
		Bne:          r.Bne,
		MIIntegrated: r.MIIntegrated == "true",
		LehrmittelID: r.Lehrmittel,
		Dialect:      domain.ParseDialect(r.Dialect),
		MinPrice:     atoiPtr(r.MinPrice),
		MaxPrice:     atoiPtr(r.MaxPrice),
		Formats:      domain.ParseFormatBuckets(r.Formats),
		Cantons:      splitCSV(r.Cantons),
	}
	params.Normalize()

	return params
}

// atoiOr parses an int, falling back on empty or malformed input.
func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}

	return n
}

// atoiPtr parses an optional int. Malformed input means "not present",
// so "maxPrice=abc" drops the bound while "maxPrice=0" keeps it.
func atoiPtr(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil
	}

	return &n
}

// splitCSV splits a comma-separated value, dropping empty segments.
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
