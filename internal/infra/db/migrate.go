package db

import (
	"database/sql"
	"fmt"
)

// Dialect selects the SQL flavour used by the migrations.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

var createWatermarks = map[Dialect]string{
	DialectPostgres: `
CREATE TABLE IF NOT EXISTS watermarks (
    feed_key         TEXT PRIMARY KEY,
    last_checked_at  TIMESTAMPTZ NOT NULL,
    last_entry_id    TEXT NOT NULL DEFAULT '',
    last_entry_title TEXT NOT NULL DEFAULT '',
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	DialectSQLite: `
CREATE TABLE IF NOT EXISTS watermarks (
    feed_key         TEXT PRIMARY KEY,
    last_checked_at  TIMESTAMP NOT NULL,
    last_entry_id    TEXT NOT NULL DEFAULT '',
    last_entry_title TEXT NOT NULL DEFAULT '',
    updated_at       TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
}

// MigrateUp creates the watermark schema. It is safe to run repeatedly.
func MigrateUp(db *sql.DB, dialect Dialect) error {
	stmt, ok := createWatermarks[dialect]
	if !ok {
		return fmt.Errorf("MigrateUp: unsupported dialect %q", dialect)
	}
	if _, err := db.Exec(stmt); err != nil {
		return err
	}
	return nil
}

// MigrateDown drops the watermark schema.
func MigrateDown(db *sql.DB) error {
	if _, err := db.Exec(`DROP TABLE IF EXISTS watermarks`); err != nil {
		return err
	}
	return nil
}
