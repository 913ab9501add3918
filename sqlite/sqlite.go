// Package sqlite persists crawls and their documents in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Memory is the path of a private in-memory database.
const Memory = ":memory:"

// migrations are applied in order. The database's user_version records how
// many have run; append new statements, never edit old ones.
var migrations = []string{
	`CREATE TABLE crawls (
		id TEXT PRIMARY KEY,
		harvester TEXT NOT NULL,
		seed_url TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE documents (
		id TEXT PRIMARY KEY,
		crawl_id TEXT NOT NULL REFERENCES crawls(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		content_type TEXT NOT NULL DEFAULT '',
		size INTEGER NOT NULL DEFAULT 0,
		fields TEXT NOT NULL DEFAULT '{}',
		content TEXT NOT NULL DEFAULT '[]',
		content_hash TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX idx_documents_crawl_id ON documents(crawl_id);`,

	`CREATE INDEX idx_documents_content_hash ON documents(content_hash);`,
}

// DB wraps a single SQLite connection.
type DB struct {
	db   *sql.DB
	path string
}

// NewDB returns a DB for path. Use Memory for an in-memory database.
func NewDB(path string) *DB {
	return &DB{path: path}
}

// Open connects and migrates the schema to the latest version.
func (db *DB) Open() error {
	conn, err := sql.Open("sqlite3", db.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time.
	conn.SetMaxOpenConns(1)

	pragmas := []string{"busy_timeout = 5000", "foreign_keys = ON"}
	if db.path != Memory {
		pragmas = append(pragmas, "journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := conn.Exec("PRAGMA " + p); err != nil {
			conn.Close()
			return fmt.Errorf("failed to set %s: %w", p, err)
		}
	}

	db.db = conn
	if err := db.migrate(context.Background()); err != nil {
		conn.Close()
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close closes the connection.
func (db *DB) Close() error {
	if db.db != nil {
		return db.db.Close()
	}
	return nil
}

// Version returns the number of migrations applied.
func (db *DB) Version(ctx context.Context) (int, error) {
	var v int
	err := db.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v)
	return v, err
}

func (db *DB) migrate(ctx context.Context) error {
	v, err := db.Version(ctx)
	if err != nil {
		return err
	}
	for i := v; i < len(migrations); i++ {
		tx, err := db.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		// PRAGMA does not take bind parameters.
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.db.QueryRowContext(ctx, query, args...)
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

// BeginTx starts a transaction.
func (db *DB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return db.db.BeginTx(ctx, nil)
}
