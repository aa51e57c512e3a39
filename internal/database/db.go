package database

import (
    "context"
    "database/sql"
    "net"
    "time"

    "github.com/go-sql-driver/mysql"

    "github.com/iliyamo/portfolio-blog/internal/config"
)

// DSN builds the driver connection string from the application config.
// Times are parsed into time.Time in UTC and affected-row counts report
// matched rows, so an update that changes nothing is not mistaken for a
// missing row.
func DSN(cfg config.Config) string {
    mc := mysql.NewConfig()
    mc.User = cfg.DBUser
    mc.Passwd = cfg.DBPass
    mc.Net = "tcp"
    mc.Addr = net.JoinHostPort(cfg.DBHost, cfg.DBPort)
    mc.DBName = cfg.DBName
    mc.ParseTime = true
    mc.Loc = time.UTC
    mc.ClientFoundRows = true
    mc.Params = map[string]string{"charset": "utf8mb4"}
    return mc.FormatDSN()
}

// Open connects to MySQL and verifies the connection.
func Open(ctx context.Context, cfg config.Config) (*sql.DB, error) {
    db, err := sql.Open("mysql", DSN(cfg))
    if err != nil {
        return nil, err
    }

    db.SetMaxOpenConns(25)
    db.SetMaxIdleConns(25)
    db.SetConnMaxLifetime(30 * time.Minute)

    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    if err := db.PingContext(ctx); err != nil {
        db.Close()
        return nil, err
    }
    return db, nil
}
