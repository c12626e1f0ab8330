// Package postgres implements a Postgres-backed template source using pgx v5.
package postgres

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"clonegen/internal/storage"
	"clonegen/pkg/records"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const columnsQuery = `SELECT column_name FROM information_schema.columns
WHERE table_schema = COALESCE(NULLIF($1, ''), current_schema()) AND table_name = $2
ORDER BY ordinal_position`

// Repository reads template tables from Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, dsn string) (*Repository, func(), error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	return &Repository{pool: pool}, func() { pool.Close() }, nil
}

// Columns lists table's columns by ordinal position. An unqualified name is
// resolved in current_schema().
func (r *Repository) Columns(ctx context.Context, table string) ([]string, error) {
	schema, name := storage.SplitTable(table)
	rows, err := r.pool.Query(ctx, columnsQuery, schema, name)
	if err != nil {
		return nil, fmt.Errorf("postgres: columns of %s: %w", table, err)
	}
	cols, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("postgres: columns of %s: %w", table, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("postgres: %s: %w", table, storage.ErrTableNotFound)
	}
	return cols, nil
}

// Rows reads every row of table projected onto columns.
func (r *Repository) Rows(ctx context.Context, table string, columns []string, orderBy string) ([]records.Row, error) {
	rows, err := r.pool.Query(ctx, storage.SelectSQL(pgIdent, table, columns, orderBy))
	if err != nil {
		return nil, fmt.Errorf("postgres: rows of %s: %w", table, err)
	}
	defer rows.Close()

	var out []records.Row
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("postgres: row %d: %w", len(out)+1, err)
		}
		row := make(records.Row, len(vals))
		for i, v := range vals {
			row[i] = fromPG(v)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows of %s: %w", table, err)
	}
	return out, nil
}

// fromPG handles the pgx-specific decodings before deferring to
// storage.FromDriver.
func fromPG(v any) records.Value {
	switch x := v.(type) {
	case pgtype.Numeric:
		return numeric(x)
	case *big.Int:
		if x.IsInt64() {
			return records.IntValue(x.Int64())
		}
		return records.StringValue(x.String())
	}
	return storage.FromDriver(v, "")
}

func numeric(n pgtype.Numeric) records.Value {
	if !n.Valid || n.NaN {
		return records.NullValue()
	}
	if n.Exp >= 0 {
		if i, err := n.Int64Value(); err == nil && i.Valid {
			return records.IntValue(i.Int64)
		}
	}
	f, err := n.Float64Value()
	if err != nil || !f.Valid {
		return records.NullValue()
	}
	return records.FloatValue(f.Float64)
}

func pgIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
