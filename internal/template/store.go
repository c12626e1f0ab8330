// Package template holds the authored base rows of the template table,
// keyed by their integer id.
package template

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"clonegen/internal/parser/sqldump"
	"clonegen/internal/schema"
	"clonegen/pkg/records"
)

// ErrRowArityMismatch is wrapped by every ArityError.
var ErrRowArityMismatch = errors.New("template: row arity mismatch")

// ArityError reports a tuple whose value count differs from the schema.
// ID is set when the first value parsed as an integer; otherwise Position
// holds the 1-based index of the tuple among the table's tuples.
type ArityError struct {
	Table    string
	ID       int64
	HasID    bool
	Position int
	Got      int
	Want     int
}

func (e *ArityError) Error() string {
	if e.HasID {
		return fmt.Sprintf("%s: row id %d has %d values, schema has %d columns", e.Table, e.ID, e.Got, e.Want)
	}
	return fmt.Sprintf("%s: tuple #%d has %d values, schema has %d columns", e.Table, e.Position, e.Got, e.Want)
}

func (e *ArityError) Unwrap() error { return ErrRowArityMismatch }

// ErrInvalidID is returned when a row's first value is not an integer.
var ErrInvalidID = errors.New("template: row id is not an integer")

// Store is an in-memory id -> row map. Rows handed out are copies.
type Store struct {
	def  *schema.Definition
	rows map[int64]records.Row
	// Replaced counts rows overwritten by a later row with the same id.
	Replaced int
}

// New returns an empty store for def.
func New(def *schema.Definition) *Store {
	return &Store{def: def, rows: make(map[int64]records.Row)}
}

// Definition returns the schema the rows are aligned to.
func (s *Store) Definition() *schema.Definition { return s.def }

// Len returns the number of distinct ids.
func (s *Store) Len() int { return len(s.rows) }

// Get returns a copy of the row for id.
func (s *Store) Get(id int64) (records.Row, bool) {
	r, ok := s.rows[id]
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

// IDs returns every id in ascending order.
func (s *Store) IDs() []int64 {
	ids := make([]int64, 0, len(s.rows))
	for id := range s.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Put stores row under its first value. A repeated id replaces the earlier
// row.
func (s *Store) Put(row records.Row) error {
	if len(row) != s.def.Len() {
		return &ArityError{Table: s.def.Table(), Got: len(row), Want: s.def.Len(), Position: s.Len() + 1}
	}
	if row[0].Kind != records.Int {
		return fmt.Errorf("%w: %s", ErrInvalidID, row[0])
	}
	id := row[0].I
	if _, dup := s.rows[id]; dup {
		s.Replaced++
	}
	s.rows[id] = row.Clone()
	return nil
}

// Load reads a SQL dump and collects every insert tuple for the table the
// definition describes. Statements for other tables are ignored.
func Load(r io.Reader, def *schema.Definition) (*Store, error) {
	if def == nil {
		return nil, errors.New("template: nil schema definition")
	}
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("template: read dump: %w", err)
	}

	s := New(def)
	pos := 0
	for _, stmt := range sqldump.Statements(string(src)) {
		ins, ok, err := sqldump.ParseInsert(stmt)
		if !ok {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("template: %w", err)
		}
		if ins.Table != def.Table() {
			continue
		}
		tuples, err := sqldump.SplitTuples(ins.Payload)
		if err != nil {
			return nil, fmt.Errorf("template: %s: %w", def.Table(), err)
		}
		for _, tuple := range tuples {
			pos++
			row, err := parseRow(def, tuple, pos)
			if err != nil {
				return nil, err
			}
			if err := s.Put(row); err != nil {
				return nil, fmt.Errorf("template: tuple #%d: %w", pos, err)
			}
		}
	}
	return s, nil
}

// FromRows builds a store from already-typed rows, such as those read from
// a database. Arity and last-write rules match Load.
func FromRows(def *schema.Definition, rows []records.Row) (*Store, error) {
	if def == nil {
		return nil, errors.New("template: nil schema definition")
	}
	s := New(def)
	for i, row := range rows {
		if len(row) != def.Len() {
			ae := &ArityError{Table: def.Table(), Position: i + 1, Got: len(row), Want: def.Len()}
			if len(row) > 0 && row[0].Kind == records.Int {
				ae.ID, ae.HasID = row[0].I, true
			}
			return nil, ae
		}
		if err := s.Put(row); err != nil {
			return nil, fmt.Errorf("template: row #%d: %w", i+1, err)
		}
	}
	return s, nil
}

func parseRow(def *schema.Definition, tuple string, pos int) (records.Row, error) {
	toks, err := sqldump.SplitFields(tuple)
	if err != nil {
		return nil, fmt.Errorf("template: tuple #%d: %w", pos, err)
	}
	if len(toks) != def.Len() {
		ae := &ArityError{Table: def.Table(), Position: pos, Got: len(toks), Want: def.Len()}
		if len(toks) > 0 {
			if v, err := sqldump.ParseLiteral(toks[0]); err == nil && v.Kind == records.Int {
				ae.ID, ae.HasID = v.I, true
			}
		}
		return nil, ae
	}
	row := make(records.Row, len(toks))
	for i, tok := range toks {
		v, err := sqldump.ParseLiteral(tok)
		if err != nil {
			return nil, fmt.Errorf("template: tuple #%d column %s: %w", pos, def.Column(i), err)
		}
		row[i] = v
	}
	return row, nil
}
