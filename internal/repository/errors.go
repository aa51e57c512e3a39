// Package repository holds the database/sql data access layer.  Every
// repository returns the sentinel values below so that services can tell
// an absent row or a unique-key collision apart from a driver failure
// without importing the driver themselves.
package repository

import (
    "database/sql"
    "errors"

    "github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup or a targeted update/delete matches
// no row.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when an insert or update violates a unique key
// (username, email or the federated identity pair).
var ErrDuplicate = errors.New("duplicate record")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// mapErr converts driver errors into the package sentinels and passes
// everything else through unchanged.
func mapErr(err error) error {
    if err == nil {
        return nil
    }
    if errors.Is(err, sql.ErrNoRows) {
        return ErrNotFound
    }
    var me *mysql.MySQLError
    if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
        return ErrDuplicate
    }
    return err
}

// expectAffected turns a zero-row update or delete into ErrNotFound.  The
// connection is opened with clientFoundRows so matched rows count even when
// no column value changed.
func expectAffected(res sql.Result) error {
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrNotFound
    }
    return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
    Scan(dest ...any) error
}

func nullString(s string) sql.NullString {
    return sql.NullString{String: s, Valid: s != ""}
}
