package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/mkoziy/sparkify/loader/internal/config"
)

// Open connects to the configured backend. The handle holds a single
// connection for the lifetime of the run.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*bun.DB, error) {
	var (
		db  *bun.DB
		err error
	)
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err = NewDB(cfg.DSN, cfg.Debug)
	case config.DriverPostgres:
		db = NewPostgresDB(cfg.DSN, cfg.Debug)
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect %s: %w", cfg.Driver, err)
	}
	return db, nil
}

// NewDB opens a SQLite database with sane defaults and optional debug logging.
func NewDB(dsn string, debug bool) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	addDebugHook(db, debug)

	// Apply recommended pragmas for write-ahead logging and performance.
	if _, err := db.Exec(`
        PRAGMA journal_mode = WAL;
        PRAGMA synchronous = NORMAL;
        PRAGMA foreign_keys = ON;
        PRAGMA cache_size = -64000;
    `); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// NewPostgresDB opens a PostgreSQL database. The connection is established
// lazily, on first use.
func NewPostgresDB(dsn string, debug bool) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, pgdialect.New())
	addDebugHook(db, debug)
	return db
}

func addDebugHook(db *bun.DB, debug bool) {
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
}
