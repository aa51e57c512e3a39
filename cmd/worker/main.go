// Command worker consumes account events and appends them to the audit
// log.
package main

import (
    "context"
    "errors"
    "os"
    "os/signal"
    "syscall"

    "github.com/joho/godotenv"

    "github.com/iliyamo/portfolio-blog/internal/config"
    "github.com/iliyamo/portfolio-blog/internal/logger"
    "github.com/iliyamo/portfolio-blog/internal/queue"
)

func main() {
    _ = godotenv.Load()
    log := logger.New(config.IsProduction(os.Getenv("APP_ENV")), os.Getenv("LOG_LEVEL"))

    logDir := os.Getenv("AUDIT_LOG_DIR")
    if logDir == "" {
        logDir = "logs"
    }
    if err := os.MkdirAll(logDir, 0o755); err != nil {
        log.Fatal().Err(err).Str("dir", logDir).Msg("create audit log dir")
    }

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    consumer := queue.NewAuditConsumer(config.AMQPURL(), logDir, log)
    log.Info().Str("queue", queue.AccountEventsQueue).Str("dir", logDir).Msg("audit worker started")
    if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
        log.Fatal().Err(err).Msg("audit worker")
    }
    log.Info().Msg("audit worker stopped")
}
