// Package database provides the statement executors the import engine runs
// against: pgx for PostgreSQL and database/sql for lib/pq, MySQL and SQLite.
//
// An import run owns its executor for the whole run. Executors are cheap;
// take a new one from Handle.Executor for every run.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/csvimp/internal/config"
	"github.com/JonMunkholm/csvimp/internal/core"
)

// Handle is an open connection pool.
type Handle struct {
	dialect core.Dialect
	pool    *pgxpool.Pool // driver pgx
	db      *sql.DB       // every other driver
}

// Open connects to the database described by cfg and verifies the
// connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Handle, error) {
	dialect, err := core.DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	var h *Handle
	if strings.EqualFold(cfg.Driver, "pgx") {
		h, err = openPgx(ctx, cfg)
	} else {
		h, err = openSQL(cfg)
	}
	if err != nil {
		return nil, err
	}
	h.dialect = dialect

	if err := h.Ping(ctx); err != nil {
		h.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("connected to database", "driver", cfg.Driver, "name", databaseName(cfg.URL))
	return h, nil
}

func openPgx(ctx context.Context, cfg config.DatabaseConfig) (*Handle, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	// Parameters travel as untyped literals so the server infers their types
	// from the target columns, including in INSERT ... SELECT. It also lets
	// pre and post SQL hold several statements.
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return &Handle{pool: pool}, nil
}

func openSQL(cfg config.DatabaseConfig) (*Handle, error) {
	name := sqlDriverName(cfg.Driver)
	db, err := sql.Open(name, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MinConns)
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)
	return &Handle{db: db}, nil
}

// sqlDriverName maps a configured driver to its database/sql registration.
func sqlDriverName(driver string) string {
	switch strings.ToLower(driver) {
	case "postgres", "postgresql":
		return "postgres"
	case "mysql", "mariadb":
		return "mysql"
	default:
		return "sqlite"
	}
}

// databaseName extracts the database name from a URL for logging, never the
// credentials.
func databaseName(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return ""
	}
	if u.Opaque != "" {
		return u.Opaque
	}
	return strings.TrimPrefix(u.Path, "/")
}

// Executor returns a fresh executor for one import run.
func (h *Handle) Executor() core.Executor {
	if h.pool != nil {
		return NewPgExecutor(h.pool)
	}
	return NewSQLExecutor(h.db, h.dialect)
}

func (h *Handle) Dialect() core.Dialect {
	return h.dialect
}

func (h *Handle) Ping(ctx context.Context) error {
	if h.pool != nil {
		return h.pool.Ping(ctx)
	}
	return h.db.PingContext(ctx)
}

func (h *Handle) Close() {
	if h.pool != nil {
		h.pool.Close()
	}
	if h.db != nil {
		h.db.Close()
	}
}
