package database

import (
    "database/sql"
    "fmt"

    "github.com/rs/zerolog"
    "gorm.io/driver/mysql"
    "gorm.io/gorm"
    "gorm.io/gorm/clause"
    gormlogger "gorm.io/gorm/logger"

    "github.com/iliyamo/portfolio-blog/internal/model"
)

// Migrate creates or alters the schema over an existing pool and seeds the
// fixed role set.  Running it repeatedly is safe.
func Migrate(db *sql.DB, log zerolog.Logger) error {
    gdb, err := gorm.Open(mysql.New(mysql.Config{Conn: db}), &gorm.Config{
        Logger: gormlogger.Default.LogMode(gormlogger.Silent),
    })
    if err != nil {
        return fmt.Errorf("open gorm: %w", err)
    }

    if err := gdb.AutoMigrate(&roleRow{}, &userRow{}, &postRow{}, &projectRow{}, &commentRow{}, &contactRow{}); err != nil {
        return fmt.Errorf("auto migrate: %w", err)
    }
    log.Info().Msg("schema migrated")

    if err := SeedRoles(gdb); err != nil {
        return err
    }
    log.Info().Strs("roles", []string{string(model.RoleAdmin), string(model.RoleUser)}).Msg("roles seeded")
    return nil
}

// SeedRoles inserts ADMIN and USER if they are missing.  ADMIN is inserted
// first so that on an empty table it receives id 1.
func SeedRoles(gdb *gorm.DB) error {
    for _, name := range []model.RoleName{model.RoleAdmin, model.RoleUser} {
        err := gdb.Clauses(clause.OnConflict{DoNothing: true}).
            Create(&roleRow{Name: string(name)}).Error
        if err != nil {
            return fmt.Errorf("seed role %s: %w", name, err)
        }
    }
    return nil
}
