// Package locker provides distributed locking for coordinating jobs across
// service instances.
package locker

import (
	"context"
	"time"
)

// DistributedLocker provides cross-instance mutual exclusion.
// Implementations must be safe for concurrent use.
type DistributedLocker interface {
	// Acquire attempts to take the lock identified by key. Returns true if
	// acquired, false if another instance holds it. The lock expires after
	// ttl if not released; pick ttl per purpose (operation timeout for
	// mutual exclusion, cooldown period for dedup).
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release releases the lock identified by key. Calling without owning
	// the lock is a no-op.
	Release(ctx context.Context, key string) error
}
