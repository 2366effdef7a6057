// Package storage persists users, flashcards, review history, quizzes and deck
// sources in SQLite or Postgres.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// DB wraps the database handle. All queries are written with '?' placeholders
// and rebound for the active driver.
type DB struct {
	conn   *sqlx.DB
	driver string
}

// Open connects to the database and applies the schema for the driver.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	var ddl string
	switch driver {
	case DriverSQLite:
		dsn = sqliteDSN(dsn)
		ddl = sqliteSchema
	case DriverPostgres:
		ddl = postgresSchema
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	conn, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if driver == DriverSQLite {
		// One writer at a time; avoids SQLITE_BUSY on lock upgrades.
		conn.SetMaxOpenConns(1)
	}

	if _, err := conn.ExecContext(ctx, ddl); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: conn, driver: driver}, nil
}

// sqliteDSN adds the foreign_keys and busy_timeout pragmas unless the DSN
// already sets them. Other pragmas in the DSN are kept.
func sqliteDSN(dsn string) string {
	for _, pragma := range []string{"foreign_keys(1)", "busy_timeout(5000)"} {
		name, _, _ := strings.Cut(pragma, "(")
		if strings.Contains(dsn, "_pragma="+name+"(") {
			continue
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=" + pragma
	}
	return dsn
}

// SetMaxOpenConns limits the connection pool. It is ignored for SQLite.
func (db *DB) SetMaxOpenConns(n int) {
	if db.driver == DriverSQLite || n <= 0 {
		return
	}
	db.conn.SetMaxOpenConns(n)
}

// Driver returns the name of the driver in use.
func (db *DB) Driver() string {
	return db.driver
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) rebind(query string) string {
	return db.conn.Rebind(query)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(liteErr.Error(), "UNIQUE")
		}
	}
	return false
}
