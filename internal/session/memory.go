package session

import (
    "context"
    "time"

    "github.com/jellydator/ttlcache/v3"
)

// MemoryCache keeps refresh tokens in process memory.  It is live (reuse
// detection works) but not shared between processes; meant for single
// instance deployments and tests.
type MemoryCache struct {
    cache *ttlcache.Cache[uint64, string]
}

// NewMemoryCache creates the cache and starts its expiry loop.
func NewMemoryCache() *MemoryCache {
    c := ttlcache.New[uint64, string](
        ttlcache.WithDisableTouchOnHit[uint64, string](),
    )
    go c.Start()
    return &MemoryCache{cache: c}
}

func (c *MemoryCache) Put(_ context.Context, accountID uint64, refreshToken string, ttl time.Duration) error {
    c.cache.Set(accountID, refreshToken, ttl)
    return nil
}

func (c *MemoryCache) Get(_ context.Context, accountID uint64) (string, bool, error) {
    item := c.cache.Get(accountID)
    if item == nil || item.IsExpired() {
        return "", false, nil
    }
    return item.Value(), true, nil
}

func (c *MemoryCache) Delete(_ context.Context, accountID uint64) error {
    c.cache.Delete(accountID)
    return nil
}

func (c *MemoryCache) Live() bool   { return true }
func (c *MemoryCache) Mode() string { return ModeMemory }

// Close stops the expiry loop.
func (c *MemoryCache) Close() { c.cache.Stop() }
