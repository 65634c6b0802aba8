package domain

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by write operations targeting a missing row.
var ErrNotFound = errors.New("not found")

// ErrSimilarityUnavailable is returned by SearchSimilar when the database
// lacks trigram support (pg_trgm not installed). Callers treat it as an
// empty result, not a failure.
var ErrSimilarityUnavailable = errors.New("similarity search unavailable")

// MaterialQuery is the fully resolved query executed by FetchPage. The
// structured filter variants plus any pre-resolved ID constraints combine
// by intersection on top of the published+public base predicate.
type MaterialQuery struct {
	Filters []Filter

	// IDs restricts to pre-resolved candidates. nil means unconstrained;
	// callers short-circuit before FetchPage when a constraint is empty.
	IDs []string

	// SellerIDs restricts to materials of the given sellers (canton filter).
	SellerIDs []string

	// Substring is a plain title/description contains-match, used instead
	// of full-text search for code-like terms.
	Substring string

	Sort   SortMode
	Offset int
	Limit  int
}

// MaterialRepository defines materials persistence operations.
// Implementation: internal/infra/postgres/repository.go
type MaterialRepository interface {
	// MaterialIDsByTaxonomy resolves a taxonomy code to linked material IDs.
	// It tries an exact substring match on the code first and retries with
	// the normalized form (spaces/dots stripped, uppercased) when the first
	// pass matches nothing. Zero IDs is a valid outcome.
	MaterialIDsByTaxonomy(ctx context.Context, kind TaxonomyKind, code string) ([]string, error)

	// SellerIDsByCantons finds sellers offering in any of the given cantons.
	SellerIDsByCantons(ctx context.Context, cantons []string) ([]string, error)

	// SearchFullText runs ranked full-text search over published+public
	// materials, returning IDs with their rank scores, best first.
	SearchFullText(ctx context.Context, query string) ([]RankedID, error)

	// SearchSimilar runs trigram similarity matching against title and
	// description, keeping results above threshold, capped at limit,
	// ranked by similarity descending. Returns ErrSimilarityUnavailable
	// when the extension is not installed.
	SearchSimilar(ctx context.Context, query string, threshold float64, limit int) ([]RankedID, error)

	// FetchPage executes the final filtered fetch with seller, review and
	// curriculum relations, plus a COUNT under the same WHERE clause.
	FetchPage(ctx context.Context, q MaterialQuery) ([]*Material, int64, error)

	// GetByID retrieves one published+public material with its relations.
	// Returns nil, nil when not visible.
	GetByID(ctx context.Context, id string) (*Material, error)

	// SetPublished flips the moderation state. Returns ErrNotFound for
	// unknown IDs.
	SetPublished(ctx context.Context, id string, published bool) error

	// Count returns the number of visible materials.
	Count(ctx context.Context) (int64, error)

	// CountsBySubject returns visible material counts per subject code.
	CountsBySubject(ctx context.Context) (map[string]int64, error)
}

// LehrmittelRepository defines persistence for the external catalog.
type LehrmittelRepository interface {
	// BulkUpsert creates or updates catalog entries in batches.
	// Uses publisher + external_id as the unique key.
	BulkUpsert(ctx context.Context, items []*Lehrmittel) error

	// Count returns the total number of catalog entries.
	Count(ctx context.Context) (int64, error)
}

// CatalogProvider defines an external Lehrmittel publisher catalog.
// Implementations: internal/infra/catalog/
type CatalogProvider interface {
	// Name returns the unique publisher identifier.
	Name() string

	// Fetch retrieves the full catalog from the publisher.
	Fetch(ctx context.Context) ([]*Lehrmittel, error)

	// HealthCheck verifies the publisher API is accessible.
	HealthCheck(ctx context.Context) error
}

// Cache defines the interface for caching operations.
// Implementation: internal/infra/redis/cache.go
type Cache interface {
	// Get retrieves a value by key. Returns nil if not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error

	// Clear removes all cached values.
	Clear(ctx context.Context) error
}
