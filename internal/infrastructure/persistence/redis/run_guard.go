package redis

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// RUN GUARD
// SetNX lock keyed by calendar date. The maintenance engines are idempotent,
// so the guard is not a correctness requirement; it keeps a re-triggered run
// from sweeping every user a second time.
// ══════════════════════════════════════════════════════════════════════════════

// RunGuard marks named runs as done for a calendar day.
type RunGuard struct {
	cache *Cache
	ttl   time.Duration
}

// NewRunGuard creates a run guard with the default TTL.
func NewRunGuard(cache *Cache) *RunGuard {
	return &RunGuard{
		cache: cache,
		ttl:   TTLMaintenanceGuard,
	}
}

// TryAcquire claims the run for the given day. Returns true when this caller
// owns the run, false when another run already claimed it.
func (g *RunGuard) TryAcquire(ctx context.Context, name string, day time.Time) (bool, error) {
	key := g.key(name, day)
	return g.cache.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), g.ttl)
}

// Release drops the claim, letting the run be retried the same day.
// Used when a run fails before doing any work.
func (g *RunGuard) Release(ctx context.Context, name string, day time.Time) error {
	return g.cache.Delete(ctx, g.key(name, day))
}

func (g *RunGuard) key(name string, day time.Time) string {
	return LockKey(name + ":" + day.UTC().Format("2006-01-02"))
}
