package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/json"
    "fmt"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/rs/zerolog"

    "github.com/iliyamo/portfolio-blog/internal/config"
)

// ResponseCache stores successful public responses in redis, grouped by
// resource ("posts", "projects") so writes can purge a whole group.  A
// cache built without redis or with caching disabled does nothing.
type ResponseCache struct {
    cfg config.CacheConfig
    rdb *redis.Client
    log zerolog.Logger
}

// NewResponseCache returns a cache; rdb may be nil.
func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client, log zerolog.Logger) *ResponseCache {
    if cfg.TTL <= 0 {
        cfg.TTL = 5 * time.Minute
    }
    return &ResponseCache{cfg: cfg, rdb: rdb, log: log}
}

func (rc *ResponseCache) enabled() bool { return rc != nil && rc.cfg.Enabled && rc.rdb != nil }

// Middleware caches 200 responses of the configured methods under group.
// Bodies larger than MaxBodyBytes are served but not stored.
func (rc *ResponseCache) Middleware(group string) echo.MiddlewareFunc {
    if !rc.enabled() {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !rc.cfg.Methods[strings.ToUpper(c.Request().Method)] {
                return next(c)
            }
            ctx := c.Request().Context()
            key := rc.key(group, c)

            if hit, ok := rc.load(ctx, key); ok {
                return hit.replay(c)
            }

            tee := &teeWriter{ResponseWriter: c.Response().Writer, code: http.StatusOK, max: rc.cfg.MaxBodyBytes}
            c.Response().Writer = tee
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }
            if tee.code != http.StatusOK || tee.tooBig {
                return nil
            }
            // the request context may already be cancelled once the response is written
            rc.store(context.WithoutCancel(ctx), key, group, cachedResponse{
                Status: tee.code,
                Header: c.Response().Header().Clone(),
                Body:   tee.body.String(),
            })
            return nil
        }
    }
}

// cachedResponse is kept as a redis hash: status, header (JSON) and body.
type cachedResponse struct {
    Status int
    Header http.Header
    Body   string
}

func (rc *ResponseCache) load(ctx context.Context, key string) (cachedResponse, bool) {
    fields, err := rc.rdb.HGetAll(ctx, key).Result()
    if err != nil || len(fields) == 0 {
        return cachedResponse{}, false
    }
    status, err := strconv.Atoi(fields["status"])
    if err != nil {
        return cachedResponse{}, false
    }
    var hdr http.Header
    if err := json.Unmarshal([]byte(fields["header"]), &hdr); err != nil {
        return cachedResponse{}, false
    }
    return cachedResponse{Status: status, Header: hdr, Body: fields["body"]}, true
}

func (rc *ResponseCache) store(ctx context.Context, key, group string, resp cachedResponse) {
    resp.Header.Del("X-Cache")
    resp.Header.Del(echo.HeaderContentLength)
    hdr, err := json.Marshal(resp.Header)
    if err != nil {
        return
    }
    _, err = rc.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
        p.HSet(ctx, key, "status", resp.Status, "header", string(hdr), "body", resp.Body)
        p.Expire(ctx, key, rc.cfg.TTL)
        return nil
    })
    if err != nil {
        rc.log.Warn().Err(err).Str("group", group).Msg("response cache store failed")
    }
}

func (r cachedResponse) replay(c echo.Context) error {
    h := c.Response().Header()
    for k, vals := range r.Header {
        h[k] = append([]string(nil), vals...)
    }
    h.Set("X-Cache", "HIT")
    return c.Blob(r.Status, h.Get(echo.HeaderContentType), []byte(r.Body))
}

// Invalidate drops every cached response of group.
func (rc *ResponseCache) Invalidate(ctx context.Context, group string) {
    if !rc.enabled() {
        return
    }
    iter := rc.rdb.Scan(ctx, 0, rc.cfg.Prefix+":"+group+":*", 100).Iterator()
    var keys []string
    for iter.Next(ctx) {
        keys = append(keys, iter.Val())
    }
    if err := iter.Err(); err != nil {
        rc.log.Warn().Err(err).Str("group", group).Msg("response cache scan failed")
        return
    }
    if len(keys) > 0 {
        if err := rc.rdb.Del(ctx, keys...).Err(); err != nil {
            rc.log.Warn().Err(err).Str("group", group).Msg("response cache purge failed")
        }
    }
}

// key is <prefix>:<group>:<sha1 of the strategy parts>.
func (rc *ResponseCache) key(group string, c echo.Context) string {
    r := c.Request()
    var parts []string
    switch strings.ToLower(rc.cfg.KeyStrategy) {
    case "route":
        parts = []string{"route", c.Path()}
    case "method_route":
        parts = []string{"method", r.Method, "route", c.Path()}
    case "method_route_query":
        parts = []string{"method", r.Method, "route", c.Path(), "q", r.URL.RawQuery}
    default: // route_query
        parts = []string{"route", c.Path(), "q", r.URL.RawQuery}
    }
    sum := sha1.Sum([]byte(strings.Join(parts, ":")))
    return fmt.Sprintf("%s:%s:%x", rc.cfg.Prefix, group, sum[:])
}

// teeWriter copies the body into a buffer while forwarding it, giving up on
// the copy once it exceeds max bytes (max <= 0 means unbounded).
type teeWriter struct {
    http.ResponseWriter
    code   int
    body   bytes.Buffer
    max    int
    tooBig bool
}

func (w *teeWriter) WriteHeader(code int) {
    w.code = code
    w.ResponseWriter.WriteHeader(code)
}

func (w *teeWriter) Write(b []byte) (int, error) {
    switch {
    case w.tooBig:
    case w.max > 0 && w.body.Len()+len(b) > w.max:
        w.tooBig = true
        w.body = bytes.Buffer{}
    default:
        w.body.Write(b)
    }
    return w.ResponseWriter.Write(b)
}
