package fx

import (
	"context"
	"time"

	"github.com/Srinuas/Foodapp/internal/domain"
	"github.com/Srinuas/Foodapp/internal/storage"
)

// snapshotVersion is the schema version of the persisted rate snapshot.
const snapshotVersion = 1

// Cache persists the last fetched RateSnapshot and decides freshness.
type Cache struct {
	store     storage.KeyValueStore
	freshness time.Duration
}

func NewCache(store storage.KeyValueStore, freshness time.Duration) *Cache {
	return &Cache{store: store, freshness: freshness}
}

// Freshness is how long a captured snapshot may be reused.
func (c *Cache) Freshness() time.Duration { return c.freshness }

// Load returns the stored snapshot. Missing or corrupted entries report false.
func (c *Cache) Load(ctx context.Context) (domain.RateSnapshot, bool) {
	var snap domain.RateSnapshot
	if !storage.Load(ctx, c.store, storage.KeyRates, snapshotVersion, &snap) {
		return domain.RateSnapshot{}, false
	}
	if snap.Base == "" || snap.CapturedAt.IsZero() || snap.Rates == nil {
		return domain.RateSnapshot{}, false
	}
	return snap, true
}

// Store overwrites the cached snapshot.
func (c *Cache) Store(ctx context.Context, snap domain.RateSnapshot) error {
	return storage.Save(ctx, c.store, storage.KeyRates, snapshotVersion, snap)
}

// IsFresh reports whether snap was captured for base less than the
// freshness window before now. A capture time in the future is not fresh.
func (c *Cache) IsFresh(snap domain.RateSnapshot, base string, now time.Time) bool {
	if snap.Base != base {
		return false
	}
	age := now.Sub(snap.CapturedAt)
	return age >= 0 && age < c.freshness
}
