package ddl

import (
	"strconv"
	"strings"
	"testing"
)

// TestBuildCreateTableSQL checks rendering and validation errors.
func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		def         TableDef
		wantSQL     string
		wantErr     bool
		errContains string
	}{
		{
			name:        "empty name returns error",
			def:         TableDef{Columns: []ColumnDef{{Name: "id", SQLType: "INT"}}},
			wantErr:     true,
			errContains: "table name must not be empty",
		},
		{
			name:        "no columns returns error",
			def:         TableDef{Name: "t"},
			wantErr:     true,
			errContains: "at least one column is required",
		},
		{
			name:        "column with empty name returns error",
			def:         TableDef{Name: "t", Columns: []ColumnDef{{Name: "", SQLType: "INT"}}},
			wantErr:     true,
			errContains: "column with empty name",
		},
		{
			name:        "column with empty type returns error",
			def:         TableDef{Name: "t", Columns: []ColumnDef{{Name: "id"}}},
			wantErr:     true,
			errContains: "missing SQLType",
		},
		{
			name: "key on unknown column returns error",
			def: TableDef{
				Name:    "t",
				Columns: []ColumnDef{{Name: "id", SQLType: "INT"}},
				Keys:    []KeyDef{{Name: "k", Columns: []string{"nope"}}},
			},
			wantErr:     true,
			errContains: "unknown column nope",
		},
		{
			name:    "nullable column",
			def:     TableDef{Name: "t", Columns: []ColumnDef{{Name: "id", SQLType: "INT", Nullable: true}}},
			wantSQL: "CREATE TABLE `t` (\n  `id` INT\n);",
		},
		{
			name: "default expression",
			def: TableDef{Name: "t", Columns: []ColumnDef{
				{Name: "season", SQLType: "INT UNSIGNED", Default: "'1'"},
			}},
			wantSQL: "CREATE TABLE `t` (\n  `season` INT UNSIGNED NOT NULL DEFAULT '1'\n);",
		},
		{
			name: "mapping table with keys and options",
			def: TableDef{
				Name:        "dc_item_upgrade_clones",
				IfNotExists: true,
				Columns: []ColumnDef{
					{Name: "base_item_id", SQLType: "INT UNSIGNED", PrimaryKey: true},
					{Name: "tier_id", SQLType: "TINYINT UNSIGNED"},
					{Name: "upgrade_level", SQLType: "TINYINT UNSIGNED", PrimaryKey: true},
					{Name: "clone_item_id", SQLType: "INT UNSIGNED"},
				},
				Keys: []KeyDef{
					{Kind: Unique, Name: "idx_clone_item", Columns: []string{"clone_item_id"}},
					{Kind: Index, Name: "idx_tier_level", Columns: []string{"tier_id", "upgrade_level"}},
				},
				Options: TableOptions{Engine: "InnoDB", Charset: "utf8mb4", Comment: "it's generated"},
			},
			wantSQL: "CREATE TABLE IF NOT EXISTS `dc_item_upgrade_clones` (\n" +
				"  `base_item_id` INT UNSIGNED NOT NULL,\n" +
				"  `tier_id` TINYINT UNSIGNED NOT NULL,\n" +
				"  `upgrade_level` TINYINT UNSIGNED NOT NULL,\n" +
				"  `clone_item_id` INT UNSIGNED NOT NULL,\n" +
				"  PRIMARY KEY (`base_item_id`, `upgrade_level`),\n" +
				"  UNIQUE KEY `idx_clone_item` (`clone_item_id`),\n" +
				"  KEY `idx_tier_level` (`tier_id`, `upgrade_level`)\n" +
				") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COMMENT='it''s generated';",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gotSQL, err := BuildCreateTableSQL(tt.def)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("BuildCreateTableSQL() error = nil, want non-nil")
				}
				if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Fatalf("BuildCreateTableSQL() error = %q, want substring %q", err.Error(), tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildCreateTableSQL() unexpected error = %v", err)
			}
			if gotSQL != tt.wantSQL {
				t.Fatalf("BuildCreateTableSQL() =\n%s\nwant:\n%s", gotSQL, tt.wantSQL)
			}
		})
	}
}

func TestQuoteIdent(t *testing.T) {
	t.Parallel()

	if got := QuoteIdent("we`ird"); got != "`we``ird`" {
		t.Fatalf("QuoteIdent = %q", got)
	}
	if got := QuoteIdents([]string{"a", "b"}, ","); got != "`a`,`b`" {
		t.Fatalf("QuoteIdents = %q", got)
	}
}

var benchmarkSink string

// BenchmarkBuildCreateTableSQL_WideTable renders a template-sized table.
func BenchmarkBuildCreateTableSQL_WideTable(b *testing.B) {
	cols := make([]ColumnDef, 0, 140)
	for i := 0; i < 140; i++ {
		cols = append(cols, ColumnDef{Name: "col_" + strconv.Itoa(i), SQLType: "INT", Nullable: true})
	}
	def := TableDef{Name: "item_template", Columns: cols}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sql, err := BuildCreateTableSQL(def)
		if err != nil {
			b.Fatalf("BuildCreateTableSQL() error = %v", err)
		}
		benchmarkSink = sql
	}
}
