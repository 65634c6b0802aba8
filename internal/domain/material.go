// Package domain contains the core business logic and entities.
// This package has no external dependencies (only stdlib).
package domain

import (
	"fmt"
	"math"
	"time"
)

// Dialect is the language variant of a material.
type Dialect string

const (
	DialectSwiss    Dialect = "SWISS"
	DialectStandard Dialect = "STANDARD"
	// DialectBoth marks materials usable with either variant. It is stored
	// on materials but never requested directly; a dialect filter always
	// matches BOTH in addition to the requested variant.
	DialectBoth Dialect = "BOTH"
)

// ParseDialect validates a requested dialect filter value.
// Unrecognized values (including "BOTH") yield "", meaning no filter.
func ParseDialect(s string) Dialect {
	switch Dialect(s) {
	case DialectSwiss, DialectStandard:
		return Dialect(s)
	default:
		return ""
	}
}

// Material is a published educational resource as served by the public API.
// Only rows with IsPublished && IsPublic are ever visible through search.
type Material struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`

	// Price in centimes (Rappen). 0 means free.
	Price int `json:"price"`

	Subjects     []string `json:"subjects"`
	Cycles       []string `json:"cycles"`
	Dialect      Dialect  `json:"dialect"`
	MIIntegrated bool     `json:"mi_integrated"`

	FileURL    string `json:"file_url"`
	PreviewURL string `json:"preview_url,omitempty"`

	IsPublished bool `json:"is_published"`
	IsPublic    bool `json:"is_public"`

	Seller  Seller `json:"seller"`
	Ratings []int  `json:"ratings,omitempty"` // review ratings, aggregated per query

	Competencies []Badge `json:"competencies,omitempty"`
	Transversals []Badge `json:"transversals,omitempty"`
	BneThemes    []Badge `json:"bne_themes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Seller is the material owner, referenced read-only.
type Seller struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Verified    bool     `json:"verified"`
	Cantons     []string `json:"cantons,omitempty"`
}

// Badge is a flattened curriculum tag (LP21 competency, transversal
// competency or BNE theme) rendered on material cards.
type Badge struct {
	Code  string `json:"code"`
	Title string `json:"title,omitempty"`
}

// IsFree reports whether the material costs nothing.
func (m *Material) IsFree() bool {
	return m.Price == 0
}

// AverageRating returns the mean review rating rounded to one decimal.
// Materials without reviews rate 0.
func (m *Material) AverageRating() float64 {
	if len(m.Ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range m.Ratings {
		sum += r
	}
	avg := float64(sum) / float64(len(m.Ratings))
	return math.Round(avg*10) / 10
}

// ReviewCount returns the number of reviews.
func (m *Material) ReviewCount() int {
	return len(m.Ratings)
}

// FormattedPrice renders the price for display: "Gratis" for free
// materials, otherwise CHF with two decimals.
func (m *Material) FormattedPrice() string {
	if m.Price == 0 {
		return "Gratis"
	}
	return fmt.Sprintf("CHF %d.%02d", m.Price/100, m.Price%100)
}
