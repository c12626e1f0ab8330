// Package mysql implements a MySQL-backed template source. Column order is
// read from information_schema so rows line up with the dump layout of the
// same table.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"clonegen/internal/ddl"
	"clonegen/internal/storage"
	"clonegen/pkg/records"

	driver "github.com/go-sql-driver/mysql"
)

const columnsQuery = `SELECT COLUMN_NAME FROM information_schema.COLUMNS
WHERE TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE()) AND TABLE_NAME = ?
ORDER BY ORDINAL_POSITION`

// Repository reads template tables from MySQL.
type Repository struct {
	db *sql.DB
}

// NewRepository validates dsn, opens a pool, and pings it.
func NewRepository(ctx context.Context, dsn string) (*Repository, func(), error) {
	cfg, err := driver.ParseDSN(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql dsn: %w", err)
	}
	connector, err := driver.NewConnector(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetConnMaxLifetime(3 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	return &Repository{db: db}, func() { _ = db.Close() }, nil
}

// Columns lists table's columns by ordinal position. An unqualified name is
// resolved in the connection's default database.
func (r *Repository) Columns(ctx context.Context, table string) ([]string, error) {
	schema, name := storage.SplitTable(table)
	cols, err := storage.QueryStrings(ctx, r.db, columnsQuery, schema, name)
	if err != nil {
		return nil, fmt.Errorf("mysql: columns of %s: %w", table, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("mysql: %s: %w", table, storage.ErrTableNotFound)
	}
	return cols, nil
}

// Rows reads every row of table projected onto columns.
func (r *Repository) Rows(ctx context.Context, table string, columns []string, orderBy string) ([]records.Row, error) {
	rows, err := storage.QueryRows(ctx, r.db, storage.SelectSQL(ddl.QuoteIdent, table, columns, orderBy))
	if err != nil {
		return nil, fmt.Errorf("mysql: rows of %s: %w", table, err)
	}
	return rows, nil
}
