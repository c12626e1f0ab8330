// Package mssql implements a Microsoft SQL Server template source using
// go-mssqldb.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"clonegen/internal/storage"
	"clonegen/pkg/records"

	_ "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"
)

const columnsQuery = `SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_SCHEMA = COALESCE(NULLIF(@p1, ''), SCHEMA_NAME()) AND TABLE_NAME = @p2
ORDER BY ORDINAL_POSITION`

// Repository reads template tables from SQL Server.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, dsn string) (*Repository, func(), error) {
	// Validate DSN early to fail fast on obvious mistakes.
	if _, err := msdsn.Parse(dsn); err != nil {
		return nil, nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	return &Repository{db: db}, func() { _ = db.Close() }, nil
}

// Columns lists table's columns by ordinal position. An unqualified name is
// resolved in the caller's default schema.
func (r *Repository) Columns(ctx context.Context, table string) ([]string, error) {
	schema, name := storage.SplitTable(table)
	cols, err := storage.QueryStrings(ctx, r.db, columnsQuery, schema, name)
	if err != nil {
		return nil, fmt.Errorf("mssql: columns of %s: %w", table, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("mssql: %s: %w", table, storage.ErrTableNotFound)
	}
	return cols, nil
}

// Rows reads every row of table projected onto columns.
func (r *Repository) Rows(ctx context.Context, table string, columns []string, orderBy string) ([]records.Row, error) {
	rows, err := storage.QueryRows(ctx, r.db, storage.SelectSQL(msIdent, table, columns, orderBy))
	if err != nil {
		return nil, fmt.Errorf("mssql: rows of %s: %w", table, err)
	}
	return rows, nil
}

func msIdent(s string) string {
	return "[" + strings.ReplaceAll(s, "]", "]]") + "]"
}
