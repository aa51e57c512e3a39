package middleware

import (
    "context"
    "fmt"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/portfolio-blog/internal/apperr"
    "github.com/iliyamo/portfolio-blog/internal/config"
    "github.com/iliyamo/portfolio-blog/internal/model"
    "github.com/iliyamo/portfolio-blog/internal/token"
)

type fakeAuth struct {
    accounts map[string]*model.Account
    errs     map[string]error
}

func (f fakeAuth) Authenticate(_ context.Context, raw string) (*model.Account, error) {
    if err, ok := f.errs[raw]; ok {
        return nil, err
    }
    if a, ok := f.accounts[raw]; ok {
        return a, nil
    }
    return nil, fmt.Errorf("%w: %w", apperr.ErrUnauthorized, token.ErrInvalidToken)
}

var (
    alice = &model.Account{ID: 7, Username: "alice", Role: model.Role{ID: 2, Name: model.RoleUser}}
    root  = &model.Account{ID: 1, Username: "root", Role: model.Role{ID: 1, Name: model.RoleAdmin}}
)

func newAuth() fakeAuth {
    until := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
    return fakeAuth{
        accounts: map[string]*model.Account{"alice": alice, "root": root},
        errs: map[string]error{
            "expired": fmt.Errorf("%w: %w", apperr.ErrUnauthorized, token.ErrTokenExpired),
            "blocked": &apperr.BlockedError{Until: &until},
            "broken":  fmt.Errorf("db down"),
        },
    }
}

func serve(e *echo.Echo, method, path, access string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(method, path, nil)
    if access != "" {
        req.AddCookie(&http.Cookie{Name: AccessCookie, Value: access})
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func whoami(c echo.Context) error {
    a := CurrentAccount(c)
    if a == nil {
        return c.String(http.StatusOK, "anonymous")
    }
    return c.String(http.StatusOK, a.Username)
}

func TestAuthenticate(t *testing.T) {
    e := echo.New()
    e.GET("/me", whoami, Authenticate(newAuth(), CookieConfig{}, zerolog.Nop()))

    t.Run("no cookie", func(t *testing.T) {
        rec := serve(e, http.MethodGet, "/me", "")
        assert.Equal(t, http.StatusUnauthorized, rec.Code)
        assert.Contains(t, rec.Body.String(), "authentication required")
    })
    t.Run("valid", func(t *testing.T) {
        rec := serve(e, http.MethodGet, "/me", "alice")
        assert.Equal(t, http.StatusOK, rec.Code)
        assert.Equal(t, "alice", rec.Body.String())
    })
    t.Run("forged", func(t *testing.T) {
        rec := serve(e, http.MethodGet, "/me", "garbage")
        assert.Equal(t, http.StatusUnauthorized, rec.Code)
        assert.Contains(t, rec.Body.String(), "invalid token")
    })
    t.Run("expired", func(t *testing.T) {
        rec := serve(e, http.MethodGet, "/me", "expired")
        assert.Equal(t, http.StatusUnauthorized, rec.Code)
        assert.Contains(t, rec.Body.String(), "token expired")
    })
    t.Run("blocked clears cookies", func(t *testing.T) {
        rec := serve(e, http.MethodGet, "/me", "blocked")
        assert.Equal(t, http.StatusForbidden, rec.Code)
        assert.Contains(t, rec.Body.String(), `"forceLogout":true`)
        assert.Contains(t, rec.Body.String(), `"blocked_until":"2030-01-01T00:00:00Z"`)
        cleared := map[string]bool{}
        for _, ck := range rec.Result().Cookies() {
            if ck.MaxAge < 0 && ck.Value == "" {
                cleared[ck.Name] = true
            }
        }
        assert.True(t, cleared[AccessCookie])
        assert.True(t, cleared[RefreshCookie])
    })
    t.Run("store failure", func(t *testing.T) {
        rec := serve(e, http.MethodGet, "/me", "broken")
        assert.Equal(t, http.StatusInternalServerError, rec.Code)
    })
}

func TestOptionalAuthenticate(t *testing.T) {
    e := echo.New()
    e.GET("/who", whoami, OptionalAuthenticate(newAuth()))

    assert.Equal(t, "anonymous", serve(e, http.MethodGet, "/who", "").Body.String())
    assert.Equal(t, "anonymous", serve(e, http.MethodGet, "/who", "expired").Body.String())
    assert.Equal(t, "alice", serve(e, http.MethodGet, "/who", "alice").Body.String())
}

func TestRequireAdmin(t *testing.T) {
    e := echo.New()
    e.GET("/admin", whoami, Authenticate(newAuth(), CookieConfig{}, zerolog.Nop()), RequireAdmin())
    e.GET("/bare", whoami, RequireAdmin())

    assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/admin", "alice").Code)
    assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/admin", "root").Code)
    assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/bare", "").Code)
}

func TestCookieAttributes(t *testing.T) {
    e := echo.New()
    rec := httptest.NewRecorder()
    c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)

    exp := time.Now().Add(15 * time.Minute)
    CookieConfig{Secure: true, Domain: "example.com"}.SetSession(c,
        token.Issued{Token: "a", ExpiresAt: exp},
        token.Issued{Token: "r", ExpiresAt: exp.Add(time.Hour)})

    cookies := rec.Result().Cookies()
    require.Len(t, cookies, 2)
    for _, ck := range cookies {
        assert.True(t, ck.HttpOnly)
        assert.True(t, ck.Secure)
        assert.Equal(t, http.SameSiteStrictMode, ck.SameSite)
        assert.Equal(t, "/", ck.Path)
    }
    assert.Equal(t, AccessCookie, cookies[0].Name)
    assert.Equal(t, RefreshCookie, cookies[1].Name)
}

func TestAccountFromContext(t *testing.T) {
    _, ok := AccountFrom(context.Background())
    assert.False(t, ok)

    a, ok := AccountFrom(WithAccount(context.Background(), alice))
    require.True(t, ok)
    assert.Equal(t, uint64(7), a.ID)

    _, ok = AccountFrom(WithAccount(context.Background(), nil))
    assert.False(t, ok)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
    t.Helper()
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { _ = rdb.Close() })
    return mr, rdb
}

func TestTokenBucket(t *testing.T) {
    _, rdb := newRedis(t)
    cfg := config.RateLimitConfig{
        Enabled:        true,
        Capacity:       2,
        RefillTokens:   1,
        RefillInterval: time.Hour,
        TTL:            time.Hour,
        KeyStrategy:    "ip_route",
        Prefix:         "rl",
    }
    e := echo.New()
    e.POST("/auth/login", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
        NewTokenBucket(cfg, rdb, zerolog.Nop()))

    assert.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/auth/login", "").Code)
    rec := serve(e, http.MethodPost, "/auth/login", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

    rec = serve(e, http.MethodPost, "/auth/login", "")
    assert.Equal(t, http.StatusTooManyRequests, rec.Code)
    assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestTokenBucketFailsOpen(t *testing.T) {
    mr, rdb := newRedis(t)
    mr.Close()
    cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1,
        RefillInterval: time.Second, TTL: time.Minute, Prefix: "rl"}
    e := echo.New()
    e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
        NewTokenBucket(cfg, rdb, zerolog.Nop()))

    for i := 0; i < 3; i++ {
        assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/x", "").Code)
    }
}

func TestBuildRateKey(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/posts", nil)
    req.RemoteAddr = "10.0.0.1:1234"
    c := e.NewContext(req, httptest.NewRecorder())
    c.SetPath("/posts")

    assert.Equal(t, "rl:ip:10.0.0.1", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip"}, c))
    assert.Equal(t, "rl:user:anon", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}, c))

    attach(c, alice)
    assert.Equal(t, "rl:ip:10.0.0.1:user:7:route:GET /posts", buildRateKey(config.RateLimitConfig{Prefix: "rl"}, c))
}

func TestResponseCache(t *testing.T) {
    _, rdb := newRedis(t)
    rc := NewResponseCache(config.CacheConfig{
        Enabled:      true,
        Methods:      map[string]bool{http.MethodGet: true},
        TTL:          time.Minute,
        KeyStrategy:  "route_query",
        Prefix:       "cache",
        MaxBodyBytes: 1 << 20,
    }, rdb, zerolog.Nop())

    calls := 0
    e := echo.New()
    e.GET("/posts", func(c echo.Context) error {
        calls++
        return c.JSON(http.StatusOK, echo.Map{"calls": calls})
    }, rc.Middleware("posts"))

    first := serve(e, http.MethodGet, "/posts", "")
    assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

    second := serve(e, http.MethodGet, "/posts", "")
    assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
    assert.Equal(t, first.Body.String(), second.Body.String())
    assert.Equal(t, echo.MIMEApplicationJSON, second.Header().Get(echo.HeaderContentType))
    assert.Equal(t, 1, calls)

    rc.Invalidate(context.Background(), "posts")
    third := serve(e, http.MethodGet, "/posts", "")
    assert.Equal(t, "MISS", third.Header().Get("X-Cache"))
    assert.Equal(t, 2, calls)
}

func TestResponseCacheSkipsErrorsAndOversizedBodies(t *testing.T) {
    _, rdb := newRedis(t)
    rc := NewResponseCache(config.CacheConfig{
        Enabled:      true,
        Methods:      map[string]bool{http.MethodGet: true},
        TTL:          time.Minute,
        Prefix:       "cache",
        MaxBodyBytes: 8,
    }, rdb, zerolog.Nop())

    e := echo.New()
    e.GET("/big", func(c echo.Context) error { return c.String(http.StatusOK, "a body longer than eight bytes") },
        rc.Middleware("posts"))
    e.GET("/fail", func(c echo.Context) error { return c.NoContent(http.StatusNotFound) },
        rc.Middleware("posts"))

    serve(e, http.MethodGet, "/big", "")
    assert.Equal(t, "MISS", serve(e, http.MethodGet, "/big", "").Header().Get("X-Cache"))
    serve(e, http.MethodGet, "/fail", "")
    assert.Equal(t, "MISS", serve(e, http.MethodGet, "/fail", "").Header().Get("X-Cache"))
}

func TestResponseCacheDisabledIsPassThrough(t *testing.T) {
    rc := NewResponseCache(config.CacheConfig{Enabled: true}, nil, zerolog.Nop())
    e := echo.New()
    e.GET("/p", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, rc.Middleware("posts"))

    rec := serve(e, http.MethodGet, "/p", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Empty(t, rec.Header().Get("X-Cache"))
    rc.Invalidate(context.Background(), "posts")
}

func TestResponseCacheIgnoresCorruptEntries(t *testing.T) {
    mr, rdb := newRedis(t)
    rc := NewResponseCache(config.CacheConfig{
        Enabled: true,
        Methods: map[string]bool{http.MethodGet: true},
        TTL:     time.Minute,
        Prefix:  "c",
    }, rdb, zerolog.Nop())

    e := echo.New()
    e.GET("/p", func(c echo.Context) error { return c.String(http.StatusOK, "fresh") }, rc.Middleware("posts"))
    c := e.NewContext(httptest.NewRequest(http.MethodGet, "/p", nil), httptest.NewRecorder())
    c.SetPath("/p")
    key := rc.key("posts", c)
    mr.HSet(key, "status", "not-a-number", "body", "stale")

    rec := serve(e, http.MethodGet, "/p", "")
    assert.Equal(t, "fresh", rec.Body.String())
    assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
}
