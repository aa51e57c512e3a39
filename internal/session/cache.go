// Package session mirrors the single live refresh token of every account so
// that a stale refresh token (after logout, rotation or a later login on
// another device) can be rejected even though its signature still verifies.
package session

import (
    "context"
    "strconv"
    "time"

    "github.com/redis/go-redis/v9"
    "github.com/rs/zerolog"

    "github.com/iliyamo/portfolio-blog/internal/metrics"
)

// Cache maps an account id to its current refresh token.  Put overwrites
// any previous entry, which implicitly invalidates the older token.
type Cache interface {
    Put(ctx context.Context, accountID uint64, refreshToken string, ttl time.Duration) error
    // Get returns the cached token; found is false when no entry exists.
    Get(ctx context.Context, accountID uint64) (token string, found bool, err error)
    Delete(ctx context.Context, accountID uint64) error
    // Live reports whether Get reflects real state.  The null cache returns
    // false, and callers must then skip the reuse comparison.
    Live() bool
    // Mode names the implementation for logs.
    Mode() string
}

// Key is the storage key of an account's refresh token.
func Key(accountID uint64) string {
    return "refresh_token:" + strconv.FormatUint(accountID, 10)
}

// Modes accepted by Select.
const (
    ModeRedis  = "redis"
    ModeMemory = "memory"
    ModeNull   = "null"
)

// Select picks the implementation at startup.  In redis mode a nil client
// (redis unreachable) degrades to NullCache: refresh-token reuse detection
// falls back to trusting the signature.  The choice is logged and exported
// as a gauge so the degradation is never silent.
func Select(mode string, rdb *redis.Client, log zerolog.Logger, m *metrics.Metrics) Cache {
    var c Cache
    switch mode {
    case ModeMemory:
        c = NewMemoryCache()
    case ModeNull:
        c = NullCache{}
    default:
        if rdb != nil {
            c = NewLiveCache(rdb)
        } else {
            c = NullCache{}
        }
    }
    m.SetSessionCacheLive(c.Live())
    if c.Live() {
        log.Info().Str("session_cache", c.Mode()).Msg("session cache selected")
    } else {
        log.Warn().Str("session_cache", c.Mode()).Str("requested", mode).
            Msg("session cache degraded: refresh token reuse detection disabled")
    }
    return c
}
