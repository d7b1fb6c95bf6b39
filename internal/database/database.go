// Package database owns the process-wide storage handle. It opens the
// configured backend lazily, enforces referential integrity, carries atomic
// units of work on the context and classifies driver failures.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	pq "github.com/lib/pq"
	_ "modernc.org/sqlite"

	apperrors "github.com/julianstephens/sqirvy-health/internal/errors"
	"github.com/julianstephens/sqirvy-health/internal/migration"
	"github.com/julianstephens/sqirvy-health/migrations"
)

// PostgresSchema is the schema created and placed on search_path for PostgreSQL
const PostgresSchema = "sqirvy"

// Options selects and addresses a backend
type Options struct {
	Driver Driver
	// DSN is a file path for SQLite or a connection string for PostgreSQL
	DSN string
}

// DB is the storage handle shared by every store. The zero handle is not
// usable; construct it with Open.
type DB struct {
	opts Options

	mu  sync.Mutex
	sql *sql.DB
}

// Open validates the options and returns a handle. No connection is made
// until the first Acquire.
func Open(opts Options) (*DB, error) {
	switch opts.Driver {
	case SQLite:
		if strings.TrimSpace(opts.DSN) == "" {
			return nil, fmt.Errorf("%w: sqlite database path is empty", apperrors.ErrStorageUnavailable)
		}
	case Postgres:
		if _, err := ValidateConnString(opts.DSN); err != nil {
			return nil, err
		}
		opts.DSN = ensureSearchPath(opts.DSN, PostgresSchema)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
	return &DB{opts: opts}, nil
}

// Driver returns the backend this handle talks to
func (d *DB) Driver() Driver {
	return d.opts.Driver
}

// Path returns the SQLite database file, or "" for PostgreSQL
func (d *DB) Path() string {
	if d.opts.Driver != SQLite {
		return ""
	}
	return d.opts.DSN
}

// Acquire returns the open connection pool, opening and configuring it on the
// first call. Later calls return the same pool.
func (d *DB) Acquire(ctx context.Context) (*sql.DB, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.sql != nil {
		return d.sql, nil
	}

	var (
		db  *sql.DB
		err error
	)
	switch d.opts.Driver {
	case SQLite:
		db, err = openSQLite(ctx, d.opts.DSN)
	case Postgres:
		db, err = openPostgres(ctx, d.opts.DSN)
	default:
		err = fmt.Errorf("unsupported database driver %q", d.opts.Driver)
	}
	if err != nil {
		return nil, err
	}

	d.sql = db
	return d.sql, nil
}

// Release closes the pool. A later Acquire reopens it.
func (d *DB) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.sql == nil {
		return nil
	}
	err := d.sql.Close()
	d.sql = nil
	return err
}

func openSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		dir := filepath.Dir(path)
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("%w: database directory %s: %w", apperrors.ErrStorageUnavailable, dir, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%w: %s is not a directory", apperrors.ErrStorageUnavailable, dir)
		}
	}

	// Pragmas go in the DSN so every pooled connection gets them
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	dsn := path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", apperrors.ErrStorageUnavailable, err)
	}
	// Single logical writer
	db.SetMaxOpenConns(1)

	var fk int
	if err := db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to open database: %w", apperrors.ErrStorageUnavailable, err)
	}
	if fk != 1 {
		db.Close()
		return nil, fmt.Errorf("%w: foreign key enforcement could not be enabled", apperrors.ErrStorageUnavailable)
	}
	return db, nil
}

func openPostgres(ctx context.Context, connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", apperrors.ErrStorageUnavailable, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		if strings.Contains(err.Error(), "SSL is not enabled on the server") && !hasSSLMode(connStr) {
			return nil, fmt.Errorf("%w: failed to connect to database: %w (hint: try adding ?sslmode=disable to your connection string)", apperrors.ErrStorageUnavailable, err)
		}
		return nil, fmt.Errorf("%w: failed to connect to database: %w", apperrors.ErrStorageUnavailable, err)
	}

	if _, err := db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+pq.QuoteIdentifier(PostgresSchema)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", Classify(err))
	}
	return db, nil
}

func (d *DB) runner(ctx context.Context) (*migration.Runner, error) {
	db, err := d.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	sub, err := fs.Sub(migrations.FS, string(d.opts.Driver))
	if err != nil {
		return nil, err
	}
	return migration.NewRunner(db, sub, migration.WithRebind(d.opts.Driver.Rebind)), nil
}

// Migrate applies the embedded migrations for the active driver
func (d *DB) Migrate(ctx context.Context, logFn func(string)) (int, error) {
	r, err := d.runner(ctx)
	if err != nil {
		return 0, err
	}
	n, err := r.ApplyMigrations(ctx, logFn)
	if err != nil {
		return n, Classify(err)
	}
	return n, nil
}

// SchemaVersion reports the stored and the latest embedded schema versions
func (d *DB) SchemaVersion(ctx context.Context) (current, latest int, err error) {
	r, err := d.runner(ctx)
	if err != nil {
		return 0, 0, err
	}
	if current, err = r.GetCurrentVersion(ctx); err != nil {
		return 0, 0, Classify(err)
	}
	if latest, err = r.GetLatestVersion(); err != nil {
		return 0, 0, err
	}
	return current, latest, nil
}

// ValidateSchema fails unless the stored schema matches the embedded one
func (d *DB) ValidateSchema(ctx context.Context) error {
	r, err := d.runner(ctx)
	if err != nil {
		return err
	}
	return r.ValidateVersion(ctx)
}
