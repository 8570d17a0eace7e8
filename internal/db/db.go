package db

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DB wraps a database connection together with its dialect.
type DB struct {
	*sql.DB
	Driver string
	log    zerolog.Logger
}

// Open creates or opens the database described by driver and dsn and runs
// all pending migrations.
func Open(driver, dsn string, log zerolog.Logger) (*DB, error) {
	var sqlDriver string
	switch driver {
	case DriverSQLite:
		sqlDriver = "sqlite"
	case DriverPostgres:
		sqlDriver = "pgx"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	sqlDB, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", driver, err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database %s: %w", driver, err)
	}

	db := &DB{DB: sqlDB, Driver: driver, log: log.With().Str("component", "db").Logger()}

	if driver == DriverSQLite {
		// In-memory and some bind-mounted databases refuse WAL; keep going with
		// the default journal in that case.
		if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.log.Warn().Err(err).Msg("failed to enable WAL mode; continuing without WAL")
		}
		if _, err := sqlDB.Exec("PRAGMA foreign_keys=ON"); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
		_, _ = sqlDB.Exec("PRAGMA busy_timeout = 5000")
		// A single connection keeps ":memory:" databases coherent and avoids
		// SQLITE_BUSY between writers.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Rebind rewrites "?" placeholders into the dialect's form.
func (db *DB) Rebind(query string) string {
	if db.Driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// migrate runs all database migrations.
func (db *DB) migrate() error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	for i, m := range migrations {
		version := i + 1
		var count int
		if err := db.QueryRow(db.Rebind("SELECT COUNT(*) FROM schema_migrations WHERE version = ?"), version).Scan(&count); err != nil {
			return fmt.Errorf("check migration %d: %w", version, err)
		}
		if count > 0 {
			continue
		}

		db.log.Info().Int("version", version).Str("name", m.name).Msg("running migration")
		for _, stmt := range m.statements(db.Driver) {
			if _, err := db.Exec(stmt); err != nil {
				return fmt.Errorf("migration %d (%s): %w", version, m.name, err)
			}
		}
		if _, err := db.Exec(db.Rebind("INSERT INTO schema_migrations (version) VALUES (?)"), version); err != nil {
			return fmt.Errorf("record migration %d: %w", version, err)
		}
	}

	return nil
}
