// Package sqlite stores subscribers in SQLite, one row per subscription.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"sort"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

//go:embed migration/*.sql
var migrationFS embed.FS

const dsnOptions = "?_journal_mode=WAL&_busy_timeout=5000"

// DB owns the SQLite handle and the context bound to its lifetime.
type DB struct {
	sqlDB  *sql.DB
	ctx    context.Context
	cancel func()
	logger zerolog.Logger

	path string
}

// NewDB returns an unopened database at path.
func NewDB(path string, logger zerolog.Logger) *DB {
	ctx, cancel := context.WithCancel(context.Background())
	return &DB{
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
		path:   path,
	}
}

// Open opens the database and applies pending migrations.
func (db *DB) Open() error {
	if db.path == "" {
		return errors.New("path required")
	}
	if db.sqlDB != nil {
		return nil
	}

	sqlDB, err := sql.Open("sqlite3", db.path+dsnOptions)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", db.path)
	}
	if err := sqlDB.PingContext(db.ctx); err != nil {
		_ = sqlDB.Close()
		return errors.Wrapf(err, "failed to open %s", db.path)
	}
	db.sqlDB = sqlDB

	return errors.Wrap(db.migrate(), "migrate")
}

func (db *DB) migrate() error {
	if _, err := db.sqlDB.ExecContext(db.ctx,
		`CREATE TABLE IF NOT EXISTS migrations (name TEXT PRIMARY KEY, applied_at TEXT NOT NULL);`); err != nil {
		return errors.Wrap(err, "cannot create migrations table")
	}

	applied, err := db.appliedMigrations()
	if err != nil {
		return err
	}

	names, err := fs.Glob(migrationFS, "migration/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	for _, name := range names {
		if applied[name] {
			continue
		}
		if err := db.apply(name); err != nil {
			return errors.Wrapf(err, "migration %s", name)
		}
		db.logger.Info().Str("migration", name).Msg("applied")
	}

	return nil
}

func (db *DB) appliedMigrations() (map[string]bool, error) {
	rows, err := sq.Select("name").
		From("migrations").
		RunWith(db.sqlDB).
		QueryContext(db.ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

// apply runs one migration file and records it in the same transaction.
func (db *DB) apply(name string) error {
	buf, err := fs.ReadFile(migrationFS, name)
	if err != nil {
		return err
	}

	tx, err := db.sqlDB.BeginTx(db.ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(db.ctx, string(buf)); err != nil {
		return err
	}

	if _, err := sq.Insert("migrations").
		Columns("name", "applied_at").
		Values(name, time.Now().UTC().Format(time.RFC3339)).
		RunWith(tx).
		ExecContext(db.ctx); err != nil {
		return err
	}

	return tx.Commit()
}

// Close cancels in-flight queries and closes the handle.
func (db *DB) Close() error {
	db.cancel()
	if db.sqlDB == nil {
		return nil
	}
	return errors.Wrap(db.sqlDB.Close(), "failed to close database")
}
