package config

import (
    "strings"
    "time"
)

// CacheConfig configures the redis response cache placed in front of the
// public post and project listings.
type CacheConfig struct {
    Enabled      bool
    Methods      map[string]bool // upper-cased HTTP methods eligible for caching
    TTL          time.Duration
    KeyStrategy  string // route, method_route, method_route_query or route_query
    Prefix       string
    MaxBodyBytes int // larger responses are served but not stored
}

func LoadCacheConfig() CacheConfig {
    methods := map[string]bool{}
    for _, m := range envList("CACHE_METHODS", "GET") {
        methods[strings.ToUpper(m)] = true
    }
    return CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        Methods:      methods,
        TTL:          envDur("CACHE_TTL", 30*time.Second),
        KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
        Prefix:       envStr("CACHE_PREFIX", "portfolio:cache"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
}
