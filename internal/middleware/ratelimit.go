package middleware

import (
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/rs/zerolog"

    "github.com/iliyamo/portfolio-blog/internal/config"
)

// tokenBucket keeps {n, ts} in a hash: n tokens available as of ts (unix
// ms).  ARGV = now, capacity, refill, interval, ttl.  Replies
// {allowed, remaining, retry_after_ms}.
var tokenBucket = redis.NewScript(`
local now, cap, refill, every, ttl =
    tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])
local n = tonumber(redis.call('HGET', KEYS[1], 'n') or cap)
local ts = tonumber(redis.call('HGET', KEYS[1], 'ts') or now)

local steps = 0
if every > 0 then
    steps = math.floor((now - ts) / every)
end
if steps > 0 then
    n = math.min(cap, n + steps * refill)
    ts = ts + steps * every
end

local ok, wait = 0, 0
if n >= 1 then
    ok, n = 1, n - 1
else
    wait = every - (now - ts)
end

redis.call('HSET', KEYS[1], 'n', n, 'ts', ts)
redis.call('EXPIRE', KEYS[1], ttl)
return {ok, n, wait}
`)

// NewTokenBucket limits requests per key (see buildRateKey) with a redis
// token bucket.  It is a pass-through when disabled or without redis, and
// fails open when redis errors.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log zerolog.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    ttl := int64(cfg.TTL / time.Second)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)
            res, err := tokenBucket.Run(c.Request().Context(), rdb, []string{key},
                time.Now().UnixMilli(), cfg.Capacity, cfg.RefillTokens,
                cfg.RefillInterval.Milliseconds(), ttl).Int64Slice()
            if err != nil || len(res) < 3 {
                log.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable, allowing request")
                return next(c)
            }
            allowed, remaining, retryMs := res[0] == 1, res[1], res[2]

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
            if cfg.Debug {
                h.Set("X-RateLimit-Key", key)
            }
            if !allowed {
                secs := int(math.Ceil(float64(retryMs) / 1000))
                h.Set("Retry-After", strconv.Itoa(secs))
                log.Debug().Str("key", key).Int64("retry_ms", retryMs).Msg("rate limited")
                return c.JSON(http.StatusTooManyRequests, echo.Map{
                    "error":       "too many requests",
                    "retry_after": secs,
                })
            }
            return next(c)
        }
    }
}

// rateKeyParts lists which request attributes each strategy keys on.
var rateKeyParts = map[string][]string{
    "ip":         {"ip"},
    "user":       {"user"},
    "route":      {"route"},
    "ip_user":    {"ip", "user"},
    "ip_route":   {"ip", "route"},
    "user_route": {"user", "route"},
}

// buildRateKey renders prefix:name:value pairs for the configured strategy,
// falling back to ip, user and route together.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    names, ok := rateKeyParts[strings.ToLower(cfg.KeyStrategy)]
    if !ok {
        names = []string{"ip", "user", "route"}
    }
    var b strings.Builder
    b.WriteString(cfg.Prefix)
    for _, name := range names {
        var v string
        switch name {
        case "ip":
            if v = c.RealIP(); v == "" {
                v = "unknown"
            }
        case "user":
            v = currentUserID(c)
        case "route":
            v = c.Request().Method + " " + c.Path()
        }
        b.WriteString(":" + name + ":" + v)
    }
    return b.String()
}
