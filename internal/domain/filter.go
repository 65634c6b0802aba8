package domain

import (
	"regexp"
	"strings"
)

// Filter is a structured search predicate. Each variant narrows the result
// set independently; variants are combined by intersection. The repository's
// query builder interprets the variants, so illegal combinations are
// unrepresentable by construction.
type Filter interface {
	filter()
}

// SubjectFilter matches materials whose subjects array contains the code.
type SubjectFilter struct {
	Code string
}

// CycleFilter matches materials whose cycles array contains the label.
type CycleFilter struct {
	Label string
}

// DialectFilter matches the requested dialect or BOTH.
type DialectFilter struct {
	Dialect Dialect
}

// MIIntegratedFilter matches materials with Medien & Informatik integration.
type MIIntegratedFilter struct{}

// PriceRangeFilter bounds the price in centimes. A nil bound is open.
// Max pointing at 0 is the well-defined way to request free-only results.
type PriceRangeFilter struct {
	Min *int
	Max *int
}

// FormatFilter matches the file extension buckets. Buckets combine by union.
type FormatFilter struct {
	Buckets []FormatBucket
}

// LehrmittelFilter restricts to materials linked to one Lehrmittel reference.
type LehrmittelFilter struct {
	ID string
}

func (SubjectFilter) filter()      {}
func (CycleFilter) filter()        {}
func (DialectFilter) filter()      {}
func (MIIntegratedFilter) filter() {}
func (PriceRangeFilter) filter()   {}
func (FormatFilter) filter()       {}
func (LehrmittelFilter) filter()   {}

// FormatBucket is a user-facing file format group.
type FormatBucket string

const (
	FormatPDF        FormatBucket = "pdf"
	FormatWord       FormatBucket = "word"
	FormatExcel      FormatBucket = "excel"
	FormatPowerPoint FormatBucket = "powerpoint"
	FormatImage      FormatBucket = "image"
	// FormatOther matches any file whose extension is in no known bucket.
	FormatOther FormatBucket = "other"
)

var bucketExtensions = map[FormatBucket][]string{
	FormatPDF:        {".pdf"},
	FormatWord:       {".doc", ".docx"},
	FormatExcel:      {".xls", ".xlsx"},
	FormatPowerPoint: {".ppt", ".pptx"},
	FormatImage:      {".png", ".jpg", ".jpeg"},
}

// Extensions returns the file extensions of a bucket. FormatOther has none;
// it is evaluated as "extension in no known bucket".
func (b FormatBucket) Extensions() []string {
	return bucketExtensions[b]
}

// KnownExtensions returns every extension covered by a named bucket,
// used to evaluate the synthetic "other" bucket.
func KnownExtensions() []string {
	var exts []string
	for _, b := range []FormatBucket{FormatPDF, FormatWord, FormatExcel, FormatPowerPoint, FormatImage} {
		exts = append(exts, bucketExtensions[b]...)
	}
	return exts
}

// ParseFormatBuckets parses a comma-separated bucket list. Unknown ids are
// dropped rather than rejected.
func ParseFormatBuckets(csv string) []FormatBucket {
	var buckets []FormatBucket
	for _, part := range strings.Split(csv, ",") {
		b := FormatBucket(strings.ToLower(strings.TrimSpace(part)))
		switch b {
		case FormatPDF, FormatWord, FormatExcel, FormatPowerPoint, FormatImage, FormatOther:
			buckets = append(buckets, b)
		}
	}
	return buckets
}

// TaxonomyKind identifies one of the curriculum taxonomies.
type TaxonomyKind string

const (
	TaxonomyCompetency  TaxonomyKind = "competency"  // LP21 curriculum competencies
	TaxonomyTransversal TaxonomyKind = "transversal" // transversal competencies
	TaxonomyBne         TaxonomyKind = "bne"         // BNE themes
)

// NormalizeTaxonomyCode canonicalizes a taxonomy code for the fuzzy second
// lookup pass: spaces and dots stripped, uppercased ("ma.1.a 2" -> "MA1A2").
func NormalizeTaxonomyCode(code string) string {
	code = strings.ReplaceAll(code, " ", "")
	code = strings.ReplaceAll(code, ".", "")
	return strings.ToUpper(code)
}

// taxonomyCodePattern is a lightweight check for LP21-style codes such as
// "MA.1.A.2" or "D 3 B": a short letter prefix followed by dotted or spaced
// digit groups.
var taxonomyCodePattern = regexp.MustCompile(`^[A-Za-zÄÖÜäöü]{1,4}[.\s]?\d([.\s]?[A-Za-z0-9])*$`)

// LooksLikeTaxonomyCode reports whether a search term resembles a curriculum
// code. Code-like terms skip full-text search in favor of a plain substring
// match, since stemming mangles codes.
func LooksLikeTaxonomyCode(s string) bool {
	return taxonomyCodePattern.MatchString(strings.TrimSpace(s))
}

var searchUnsafe = regexp.MustCompile(`[^\pL\pN\s\-]`)

// SanitizeSearch strips characters that are unsafe for the text-search
// engine, keeping letters (including umlauts), digits, whitespace and
// hyphens. Whitespace-only input collapses to "".
func SanitizeSearch(s string) string {
	s = searchUnsafe.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}
