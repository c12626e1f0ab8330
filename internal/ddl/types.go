package ddl

// ColumnDef describes a single column of a table definition.
//
// Fields:
//   - Name: column name (unquoted; quoting happens at render time)
//   - SQLType: MySQL column type (e.g., INT UNSIGNED, TINYINT UNSIGNED, FLOAT)
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
//   - Default: raw default expression (e.g., '0', CURRENT_TIMESTAMP)
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// KeyKind selects the secondary index flavor.
type KeyKind int

const (
	// Index is a plain, non-unique KEY.
	Index KeyKind = iota
	// Unique is a UNIQUE KEY.
	Unique
)

// KeyDef is a named secondary index.
type KeyDef struct {
	Kind    KeyKind
	Name    string
	Columns []string
}

// TableOptions are the trailing MySQL table options. Empty fields are omitted.
type TableOptions struct {
	Engine  string
	Charset string
	Collate string
	Comment string
}

// TableDef holds the table name, its ordered columns, and its secondary keys.
type TableDef struct {
	Name        string
	IfNotExists bool
	Columns     []ColumnDef
	Keys        []KeyDef
	Options     TableOptions
}

// ColumnNames returns the column names in definition order.
func (t TableDef) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}
