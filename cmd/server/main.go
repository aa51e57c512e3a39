package main

import (
    "context"
    "errors"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/portfolio-blog/internal/account"
    "github.com/iliyamo/portfolio-blog/internal/config"
    "github.com/iliyamo/portfolio-blog/internal/database"
    "github.com/iliyamo/portfolio-blog/internal/handler"
    "github.com/iliyamo/portfolio-blog/internal/logger"
    "github.com/iliyamo/portfolio-blog/internal/metrics"
    "github.com/iliyamo/portfolio-blog/internal/middleware"
    "github.com/iliyamo/portfolio-blog/internal/oauth"
    "github.com/iliyamo/portfolio-blog/internal/queue"
    "github.com/iliyamo/portfolio-blog/internal/repository"
    "github.com/iliyamo/portfolio-blog/internal/router"
    "github.com/iliyamo/portfolio-blog/internal/session"
    "github.com/iliyamo/portfolio-blog/internal/token"
)

func main() {
    cfg := config.Load()
    log := logger.New(cfg.Production(), cfg.LogLevel)

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    db, err := database.Open(ctx, cfg)
    if err != nil {
        log.Fatal().Err(err).Msg("connect database")
    }
    defer db.Close()

    rateCfg := config.LoadRateLimitConfig()
    cacheCfg := config.LoadCacheConfig()

    // redis is optional: without it the session cache degrades and the
    // rate limiter and response cache pass requests through
    var rdb *redis.Client
    if cfg.SessionCache == session.ModeRedis || rateCfg.Enabled || cacheCfg.Enabled {
        rdb, err = config.LoadRedisConfig().Connect(ctx)
        if err != nil {
            log.Warn().Err(err).Msg("redis unavailable")
        } else {
            defer rdb.Close()
        }
    }

    m := metrics.New()
    sessions := session.Select(cfg.SessionCache, rdb, log, m)
    if mc, ok := sessions.(*session.MemoryCache); ok {
        defer mc.Close()
    }

    var events queue.Publisher = queue.NopPublisher{}
    if cfg.AMQPEnabled {
        events = queue.NewAMQPPublisher(cfg.AMQPURL)
        log.Info().Str("queue", queue.AccountEventsQueue).Msg("publishing account events")
    }

    tokens := token.NewService(token.Config{
        AccessSecret:  cfg.AccessSecret,
        RefreshSecret: cfg.RefreshSecret,
        AccessTTL:     cfg.AccessTTL,
        RefreshTTL:    cfg.RefreshTTL,
    })
    accounts := account.NewService(account.Deps{
        Accounts:   repository.NewAccountRepo(db),
        Roles:      repository.NewRoleRepo(db),
        Tokens:     tokens,
        Sessions:   sessions,
        Events:     events,
        Metrics:    m,
        Log:        log,
        BcryptCost: cfg.BcryptCost,
    })

    cookies := middleware.CookieConfig{Secure: cfg.Production(), Domain: cfg.CookieDomain}
    resp := handler.Responder{Production: cfg.Production(), Cookies: cookies, Log: log}
    cache := middleware.NewResponseCache(cacheCfg, rdb, log)
    posts := repository.NewPostRepo(db)

    providers := oauth.NewRegistry(cfg.OAuth)
    log.Info().Strs("providers", providers.Names()).Msg("oauth providers registered")

    h := router.Handlers{
        Auth:     handler.NewAuthHandler(accounts, resp),
        Users:    handler.NewUserHandler(accounts, resp),
        Posts:    handler.NewPostHandler(posts, cache, resp),
        Projects: handler.NewProjectHandler(repository.NewProjectRepo(db), cache, resp),
        Comments: handler.NewCommentHandler(repository.NewCommentRepo(db), posts, resp),
        Contacts: handler.NewContactHandler(repository.NewContactRepo(db), resp),
        OAuth:    handler.NewOAuthHandler(accounts, providers, cfg.FrontendURL, resp),
    }
    g := router.Guards{
        Accounts:  accounts,
        Cookies:   cookies,
        Log:       log,
        RateLimit: middleware.NewTokenBucket(rateCfg, rdb, log),
        Cache:     cache,
    }

    e := echo.New()
    e.HideBanner = true
    e.HidePort = true
    e.Validator = handler.NewValidator()
    e.Use(echomw.RequestID())
    e.Use(middleware.RequestLogger(log))
    e.Use(echomw.Recover())
    e.Use(middleware.Metrics(m))
    e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
        AllowOrigins:     []string{cfg.FrontendURL},
        AllowCredentials: true,
    }))

    router.RegisterRoutes(e, m)
    router.RegisterAuth(e, h, g)
    router.RegisterUsers(e, h, g)
    router.RegisterContent(e, h, g)

    addr := ":" + cfg.Port
    go func() {
        log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
        if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
            log.Fatal().Err(err).Msg("server stopped")
        }
    }()

    <-ctx.Done()
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    if err := e.Shutdown(shutdownCtx); err != nil {
        log.Error().Err(err).Msg("graceful shutdown failed")
    }
    log.Info().Msg("server stopped")
}
