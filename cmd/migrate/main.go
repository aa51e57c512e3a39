// Command migrate creates or updates the schema and seeds the roles.
package main

import (
    "context"

    "github.com/iliyamo/portfolio-blog/internal/config"
    "github.com/iliyamo/portfolio-blog/internal/database"
    "github.com/iliyamo/portfolio-blog/internal/logger"
)

func main() {
    cfg := config.Load()
    log := logger.New(cfg.Production(), cfg.LogLevel)

    db, err := database.Open(context.Background(), cfg)
    if err != nil {
        log.Fatal().Err(err).Msg("connect database")
    }
    defer db.Close()

    if err := database.Migrate(db, log); err != nil {
        log.Fatal().Err(err).Msg("migrate")
    }
    log.Info().Str("database", cfg.DBName).Msg("schema up to date")
}
