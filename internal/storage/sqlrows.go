package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"clonegen/pkg/records"
)

// progressEvery controls how often long reads log a progress line.
const progressEvery = 50_000

// QueryStrings runs query and returns the first column of every row.
func QueryStrings(ctx context.Context, db *sql.DB, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// QueryRows runs query and converts every result row to a records.Row using
// the driver-reported column types.
func QueryRows(ctx context.Context, db *sql.DB, query string, args ...any) ([]records.Row, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("column types: %w", err)
	}
	names := make([]string, len(types))
	for i, ct := range types {
		names[i] = ct.DatabaseTypeName()
	}

	var (
		out   []records.Row
		start = time.Now()
		raw   = make([]any, len(types))
		dest  = make([]any, len(types))
	)
	for i := range raw {
		dest[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(out)+1, err)
		}
		row := make(records.Row, len(raw))
		for i, v := range raw {
			row[i] = FromDriver(v, names[i])
		}
		out = append(out, row)
		if len(out)%progressEvery == 0 {
			log.Printf("storage: read rows=%d elapsed=%s", len(out), time.Since(start).Truncate(time.Millisecond))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// FromDriver converts a value produced by a database driver into a typed
// cell. typeName is the column's database type name and decides how textual
// payloads ([]byte, string) are interpreted.
func FromDriver(v any, typeName string) records.Value {
	switch x := v.(type) {
	case nil:
		return records.NullValue()
	case int64:
		return records.IntValue(x)
	case int32:
		return records.IntValue(int64(x))
	case int16:
		return records.IntValue(int64(x))
	case int8:
		return records.IntValue(int64(x))
	case int:
		return records.IntValue(int64(x))
	case uint64:
		return records.IntValue(int64(x))
	case uint32:
		return records.IntValue(int64(x))
	case uint16:
		return records.IntValue(int64(x))
	case uint8:
		return records.IntValue(int64(x))
	case float64:
		return records.FloatValue(x)
	case float32:
		return records.FloatValue(float64(x))
	case bool:
		if x {
			return records.IntValue(1)
		}
		return records.IntValue(0)
	case []byte:
		return fromText(string(x), typeName)
	case string:
		return fromText(x, typeName)
	case time.Time:
		return records.StringValue(x.Format("2006-01-02 15:04:05"))
	default:
		return records.StringValue(fmt.Sprint(x))
	}
}

func fromText(s, typeName string) records.Value {
	switch classify(typeName) {
	case classInt:
		if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return records.IntValue(i)
		}
	case classFloat:
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return records.FloatValue(f)
		}
	}
	return records.StringValue(s)
}

type typeClass int

const (
	classText typeClass = iota
	classInt
	classFloat
)

func classify(typeName string) typeClass {
	t := strings.ToUpper(strings.TrimSpace(typeName))
	t = strings.TrimPrefix(t, "UNSIGNED ")
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = t[:i]
	}
	switch t {
	case "INT", "INTEGER", "TINYINT", "SMALLINT", "MEDIUMINT", "BIGINT",
		"INT2", "INT4", "INT8", "YEAR", "BIT":
		return classInt
	case "FLOAT", "DOUBLE", "REAL", "DECIMAL", "NUMERIC",
		"FLOAT4", "FLOAT8", "MONEY", "SMALLMONEY":
		return classFloat
	}
	return classText
}
