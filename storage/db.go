package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/migrate"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
	_ "modernc.org/sqlite"             // pure-Go sqlite driver

	"github.com/open-rails/vipgate/storage/migrations"
)

// Driver identifies the backing engine selected from the connection string.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// Open connects to the database named by databaseURL. Postgres URLs go
// through the pgx stdlib driver; everything else is treated as SQLite, with
// an empty URL defaulting to a local file, mirroring the original deployment
// fallback.
func Open(databaseURL string) (*bun.DB, Driver, error) {
	driver, dsn := parseDSN(databaseURL)

	var (
		sqldb *sql.DB
		err   error
		db    *bun.DB
	)
	switch driver {
	case DriverPostgres:
		sqldb, err = sql.Open("pgx", dsn)
		if err != nil {
			return nil, driver, fmt.Errorf("open postgres: %w", err)
		}
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		sqldb, err = sql.Open("sqlite", dsn)
		if err != nil {
			return nil, driver, fmt.Errorf("open sqlite: %w", err)
		}
		// Single writer; also keeps :memory: databases on one connection.
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, driver, fmt.Errorf("ping database: %w", err)
	}
	return db, driver, nil
}

// Migrate applies the embedded SQL migrations.
func Migrate(ctx context.Context, db *bun.DB) error {
	m := migrate.NewMigrator(db, migrations.Migrations)
	if err := m.Init(ctx); err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	if _, err := m.Migrate(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// parseDSN maps a DATABASE_URL to a driver and driver-specific DSN.
// Accepted forms: postgres://... or postgresql://... for pgx; sqlite://path,
// a bare file path, or ":memory:" for sqlite; empty falls back to a local
// sqlite file.
func parseDSN(databaseURL string) (Driver, string) {
	u := strings.TrimSpace(databaseURL)
	switch {
	case u == "":
		return DriverSQLite, "file:vipgate.db?_pragma=busy_timeout(5000)"
	case strings.HasPrefix(u, "postgres://") || strings.HasPrefix(u, "postgresql://"):
		return DriverPostgres, u
	case strings.HasPrefix(u, "sqlite://"):
		path := strings.TrimPrefix(u, "sqlite://")
		path = strings.TrimPrefix(path, "/")
		if path == ":memory:" {
			return DriverSQLite, ":memory:"
		}
		return DriverSQLite, fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	case u == ":memory:":
		return DriverSQLite, ":memory:"
	default:
		return DriverSQLite, fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", u)
	}
}
