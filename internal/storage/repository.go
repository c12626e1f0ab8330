// Package storage defines the backend-agnostic contract for reading item
// templates straight from a database, plus the registry that backends plug
// into at init time.
//
// Importing clonegen/internal/storage/all enables every built-in backend.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"clonegen/pkg/records"
)

// ErrTableNotFound is returned by Columns when the catalog has no columns for
// the requested table.
var ErrTableNotFound = errors.New("storage: table not found")

// Config selects a backend and carries its connection string.
type Config struct {
	Kind string
	DSN  string
}

// Repository reads a template table in physical column order.
type Repository interface {
	// Columns returns the table's column names ordered by ordinal position.
	Columns(ctx context.Context, table string) ([]string, error)
	// Rows returns every row of table projected onto columns, ordered by
	// orderBy ascending when it is not empty.
	Rows(ctx context.Context, table string, columns []string, orderBy string) ([]records.Row, error)
	Close()
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds in sorted order.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// SelectSQL builds "SELECT cols FROM table [ORDER BY col]" with every
// identifier passed through quote. A dotted table name is quoted per part.
func SelectSQL(quote func(string) string, table string, columns []string, orderBy string) string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	for i, c := range columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(quote(c))
	}
	sb.WriteString(" FROM ")
	for i, part := range strings.Split(table, ".") {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(quote(part))
	}
	if orderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(quote(orderBy))
	}
	return sb.String()
}

// SplitTable splits "schema.table" into its parts; schema is empty when the
// name is unqualified.
func SplitTable(table string) (schema, name string) {
	if i := strings.LastIndexByte(table, '.'); i >= 0 {
		return table[:i], table[i+1:]
	}
	return "", table
}
