// Package schema resolves the ordered column list of a table from its
// CREATE TABLE text, without a database connection.
//
// The resulting Definition is used purely for positional alignment of
// template rows: column names locate well-known fields (entry, ItemLevel,
// description, ...) but never drive type inference.
package schema

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var (
	// ErrSchemaNotFound is returned when the named CREATE TABLE never starts.
	ErrSchemaNotFound = errors.New("schema: table definition not found")
	// ErrEmptyColumnList is returned when the definition yields zero columns.
	ErrEmptyColumnList = errors.New("schema: empty column list")
)

// Definition is an immutable, ordered column list for one table.
type Definition struct {
	table   string
	columns []string
	index   map[string]int
}

// FromColumns builds a Definition from an already-known column order (for
// example a database catalog). Duplicate names keep their first position.
func FromColumns(table string, columns []string) (*Definition, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyColumnList, table)
	}
	cols := make([]string, len(columns))
	copy(cols, columns)
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		if _, dup := idx[c]; !dup {
			idx[c] = i
		}
	}
	return &Definition{table: table, columns: cols, index: idx}, nil
}

// Table returns the table name the definition was resolved for.
func (d *Definition) Table() string { return d.table }

// Len returns the number of columns.
func (d *Definition) Len() int { return len(d.columns) }

// Column returns the name of the column at position i.
func (d *Definition) Column(i int) string { return d.columns[i] }

// Columns returns a copy of the ordered column names.
func (d *Definition) Columns() []string {
	out := make([]string, len(d.columns))
	copy(out, d.columns)
	return out
}

// Index returns the position of the named column.
func (d *Definition) Index(name string) (int, bool) {
	i, ok := d.index[name]
	return i, ok
}

// Has reports whether the named column exists.
func (d *Definition) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

var (
	quotedColumnRe = regexp.MustCompile("^[`\"]([^`\"]+)[`\"]\\s+\\S")
	bareColumnRe   = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_$]*)\s+\S`)
)

// constraint keywords that open non-column lines inside a definition.
var constraintWords = map[string]struct{}{
	"PRIMARY": {}, "KEY": {}, "UNIQUE": {}, "INDEX": {}, "CONSTRAINT": {},
	"FULLTEXT": {}, "SPATIAL": {}, "FOREIGN": {}, "CHECK": {},
}

// Resolve scans r for the CREATE TABLE block of table and returns its column
// names in source order. Column lines follow the start line; the block ends
// at the first line beginning with ")". Key and constraint lines are skipped.
//
// Errors: ErrSchemaNotFound when the block never starts, ErrEmptyColumnList
// when it yields no columns.
func Resolve(r io.Reader, table string) (*Definition, error) {
	start := createTableRe(table)
	br := bufio.NewReaderSize(r, 64*1024)

	var (
		cols    []string
		inTable bool
	)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			trimmed := strings.TrimSpace(line)
			switch {
			case !inTable:
				if start.MatchString(trimmed) {
					inTable = true
				}
			case strings.HasPrefix(trimmed, ")"):
				return finish(table, cols)
			default:
				if name, ok := columnName(trimmed); ok {
					cols = append(cols, name)
				}
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("schema: read: %w", err)
		}
	}
	if !inTable {
		return nil, fmt.Errorf("%w: %s", ErrSchemaNotFound, table)
	}
	return finish(table, cols)
}

func finish(table string, cols []string) (*Definition, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyColumnList, table)
	}
	return FromColumns(table, cols)
}

func createTableRe(table string) *regexp.Regexp {
	q := "[`\"]?"
	return regexp.MustCompile(
		`(?i)^CREATE\s+(?:TEMPORARY\s+)?TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?` +
			`(?:` + q + `[A-Za-z0-9_$]+` + q + `\.)?` +
			q + regexp.QuoteMeta(table) + q + `(?:\s|\(|$)`,
	)
}

func columnName(line string) (string, bool) {
	if m := quotedColumnRe.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	m := bareColumnRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	if _, isConstraint := constraintWords[strings.ToUpper(m[1])]; isConstraint {
		return "", false
	}
	return m[1], true
}
