// Package sqlite implements a SQLite-backed template source using
// database/sql and the pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"clonegen/internal/storage"
	"clonegen/pkg/records"

	_ "modernc.org/sqlite"
)

// Repository reads template tables from a SQLite database.
type Repository struct {
	db *sql.DB
}

// Open opens a SQLite database. DSN is passed to the driver as-is, e.g.
// "world.db" or "file:world.db?mode=ro".
func Open(dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// :memory: databases are per connection.
	db.SetMaxOpenConns(1)
	return db, nil
}

// New wraps an open handle.
func New(db *sql.DB) *Repository { return &Repository{db: db} }

// NewRepository opens dsn, pings it, and returns a Repository plus a Close
// function for cleanup.
func NewRepository(ctx context.Context, dsn string) (*Repository, func(), error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return New(db), func() { db.Close() }, nil
}

// Exec executes an arbitrary statement.
func (r *Repository) Exec(ctx context.Context, stmt string) error {
	if strings.TrimSpace(stmt) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

// Columns lists table's columns via PRAGMA table_info, ordered by cid.
func (r *Repository) Columns(ctx context.Context, table string) ([]string, error) {
	_, name := storage.SplitTable(table)
	cols, err := storage.QueryStrings(ctx, r.db, "SELECT name FROM pragma_table_info(?) ORDER BY cid", name)
	if err != nil {
		return nil, fmt.Errorf("sqlite: columns of %s: %w", table, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("sqlite: %s: %w", table, storage.ErrTableNotFound)
	}
	return cols, nil
}

// Rows reads every row of table projected onto columns.
func (r *Repository) Rows(ctx context.Context, table string, columns []string, orderBy string) ([]records.Row, error) {
	rows, err := storage.QueryRows(ctx, r.db, storage.SelectSQL(quoteIdent, table, columns, orderBy))
	if err != nil {
		return nil, fmt.Errorf("sqlite: rows of %s: %w", table, err)
	}
	return rows, nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
