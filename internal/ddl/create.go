// Package ddl models a table definition and renders it as a MySQL
// CREATE TABLE statement.
//
// Identifiers are quoted with backticks; ColumnDef.Default is emitted as raw
// SQL (the caller is responsible for its correctness).
package ddl

import (
	"fmt"
	"strings"
)

// QuoteIdent wraps name in backticks, doubling embedded backticks.
func QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// QuoteIdents quotes every name and joins them with sep.
func QuoteIdents(names []string, sep string) string {
	q := make([]string, len(names))
	for i, n := range names {
		q[i] = QuoteIdent(n)
	}
	return strings.Join(q, sep)
}

// BuildCreateTableSQL renders t as:
//
//	CREATE TABLE [IF NOT EXISTS] `name` (
//	  `col` TYPE [NOT NULL] [DEFAULT expr],
//	  ...,
//	  [PRIMARY KEY (`pk`, ...),]
//	  [UNIQUE KEY `name` (`col`, ...),]
//	  [KEY `name` (`col`, ...)]
//	) [ENGINE=..] [DEFAULT CHARSET=..] [COLLATE=..] [COMMENT='..'];
func BuildCreateTableSQL(t TableDef) (string, error) {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return "", fmt.Errorf("ddl: table name must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}

	known := make(map[string]struct{}, len(t.Columns))
	lines := make([]string, 0, len(t.Columns)+len(t.Keys)+1)
	pks := make([]string, 0, 2)

	for _, c := range t.Columns {
		cn := strings.TrimSpace(c.Name)
		if cn == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", name)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s missing SQLType", cn)
		}
		known[cn] = struct{}{}

		var sb strings.Builder
		sb.WriteString(QuoteIdent(cn))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		lines = append(lines, sb.String())

		if c.PrimaryKey {
			pks = append(pks, cn)
		}
	}

	if len(pks) > 0 {
		lines = append(lines, fmt.Sprintf("PRIMARY KEY (%s)", QuoteIdents(pks, ", ")))
	}

	for _, k := range t.Keys {
		if strings.TrimSpace(k.Name) == "" {
			return "", fmt.Errorf("ddl: key with empty name in table %s", name)
		}
		if len(k.Columns) == 0 {
			return "", fmt.Errorf("ddl: key %s has no columns", k.Name)
		}
		for _, c := range k.Columns {
			if _, ok := known[c]; !ok {
				return "", fmt.Errorf("ddl: key %s references unknown column %s", k.Name, c)
			}
		}
		kw := "KEY"
		if k.Kind == Unique {
			kw = "UNIQUE KEY"
		}
		lines = append(lines, fmt.Sprintf("%s %s (%s)", kw, QuoteIdent(k.Name), QuoteIdents(k.Columns, ", ")))
	}

	var head strings.Builder
	head.WriteString("CREATE TABLE ")
	if t.IfNotExists {
		head.WriteString("IF NOT EXISTS ")
	}
	head.WriteString(QuoteIdent(name))

	return fmt.Sprintf("%s (\n  %s\n)%s;", head.String(), strings.Join(lines, ",\n  "), renderOptions(t.Options)), nil
}

func renderOptions(o TableOptions) string {
	var parts []string
	if o.Engine != "" {
		parts = append(parts, "ENGINE="+o.Engine)
	}
	if o.Charset != "" {
		parts = append(parts, "DEFAULT CHARSET="+o.Charset)
	}
	if o.Collate != "" {
		parts = append(parts, "COLLATE="+o.Collate)
	}
	if o.Comment != "" {
		parts = append(parts, "COMMENT='"+strings.ReplaceAll(o.Comment, "'", "''")+"'")
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, " ")
}
