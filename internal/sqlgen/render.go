// Package sqlgen renders the transactional SQL script that replaces every
// derived row in the managed id span.
package sqlgen

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"clonegen/internal/clone"
	"clonegen/internal/ddl"
	"clonegen/pkg/records"
)

// Default batch sizes.
const (
	DefaultTemplateBatch = 100
	DefaultMappingBatch  = 200
	DefaultMetadataBatch = 200
)

// Options names the target tables and controls batching.
type Options struct {
	Tool          string
	TemplateTable string
	IDColumn      string
	MappingTable  string
	MetadataTable string
	// DropColumns are omitted from the derived-row inserts. Names that are not
	// in the schema are ignored.
	DropColumns   []string
	TemplateBatch int
	MappingBatch  int
	MetadataBatch int
}

// DefaultOptions returns the production table names and batch sizes.
func DefaultOptions() Options {
	return Options{
		Tool:          "clonegen",
		TemplateTable: "item_template",
		IDColumn:      "entry",
		MappingTable:  "dc_item_upgrade_clones",
		MetadataTable: "dc_item_templates_upgrade",
		TemplateBatch: DefaultTemplateBatch,
		MappingBatch:  DefaultMappingBatch,
		MetadataBatch: DefaultMetadataBatch,
	}
}

// MappingTableDef is the provenance table created when absent.
func MappingTableDef(name string) ddl.TableDef {
	return ddl.TableDef{
		Name:        name,
		IfNotExists: true,
		Columns: []ddl.ColumnDef{
			{Name: "base_item_id", SQLType: "INT UNSIGNED", PrimaryKey: true},
			{Name: "tier_id", SQLType: "TINYINT UNSIGNED"},
			{Name: "upgrade_level", SQLType: "TINYINT UNSIGNED", PrimaryKey: true},
			{Name: "clone_item_id", SQLType: "INT UNSIGNED"},
			{Name: "stat_multiplier", SQLType: "FLOAT"},
		},
		Keys: []ddl.KeyDef{
			{Kind: ddl.Unique, Name: "idx_clone_item", Columns: []string{"clone_item_id"}},
			{Kind: ddl.Index, Name: "idx_tier_level", Columns: []string{"tier_id", "upgrade_level"}},
		},
		Options: ddl.TableOptions{
			Engine:  "InnoDB",
			Charset: "utf8mb4",
			Collate: "utf8mb4_unicode_ci",
			Comment: "Generated item clone mapping",
		},
	}
}

// Document is a fully resolved script ready to render.
type Document struct {
	Options Options
	SpanLo  int64
	SpanHi  int64

	Columns  []string
	Rows     []records.Row
	Mappings []records.Row
	Metadata []records.Row

	// Omitted lists the dropped columns that were present in the schema.
	Omitted []string
	Summary map[int]*clone.TierSummary
}

// FromResult builds a Document from a generation result, applying
// DropColumns to the derived rows.
func FromResult(res *clone.Result, opts Options) Document {
	cols := res.Definition.Columns()
	keep, omitted := pruneColumns(cols, opts.DropColumns)

	doc := Document{
		Options: opts,
		SpanLo:  res.SpanLo,
		SpanHi:  res.SpanHi,
		Omitted: omitted,
		Summary: res.Summary,
	}
	doc.Columns = make([]string, len(keep))
	for i, k := range keep {
		doc.Columns[i] = cols[k]
	}
	doc.Rows = make([]records.Row, len(res.Rows))
	for i, r := range res.Rows {
		if len(keep) == len(cols) {
			doc.Rows[i] = r
			continue
		}
		pr := make(records.Row, len(keep))
		for j, k := range keep {
			pr[j] = r[k]
		}
		doc.Rows[i] = pr
	}
	doc.Mappings = make([]records.Row, len(res.Specs))
	for i, s := range res.Specs {
		doc.Mappings[i] = s.Row()
	}
	doc.Metadata = make([]records.Row, len(res.Metadata))
	for i, m := range res.Metadata {
		doc.Metadata[i] = m.Row()
	}
	return doc
}

func pruneColumns(cols, drop []string) (keep []int, omitted []string) {
	dropSet := make(map[string]struct{}, len(drop))
	for _, d := range drop {
		dropSet[d] = struct{}{}
	}
	for i, c := range cols {
		if _, ok := dropSet[c]; ok {
			omitted = append(omitted, c)
			continue
		}
		keep = append(keep, i)
	}
	sort.Strings(omitted)
	return keep, omitted
}

// Render writes the script. Output depends only on doc, so identical inputs
// produce identical bytes.
func Render(w io.Writer, doc Document) error {
	o := doc.Options
	bw := bufio.NewWriterSize(w, 256*1024)

	fmt.Fprintf(bw, "-- Generated by %s. Do not edit; rerun the generator instead.\n", o.Tool)
	fmt.Fprintf(bw, "-- Managed id span: %d..%d\n", doc.SpanLo, doc.SpanHi)
	for _, t := range []int{1, 2} {
		if s, ok := doc.Summary[t]; ok && s != nil {
			fmt.Fprintf(bw, "-- Tier %d: bases=%d clones=%d missing=%d skipped=%d\n", t, s.Bases, s.Clones, s.Missing, s.Skipped)
		}
	}
	if len(doc.Omitted) > 0 {
		fmt.Fprintf(bw, "-- Omitted columns: %s\n", strings.Join(doc.Omitted, ", "))
	}
	bw.WriteString("\nSTART TRANSACTION;\n\n")

	deletes := [][2]string{
		{o.TemplateTable, o.IDColumn},
		{o.MappingTable, "clone_item_id"},
		{o.MetadataTable, "item_id"},
	}
	for _, d := range deletes {
		fmt.Fprintf(bw, "DELETE FROM %s WHERE %s BETWEEN %d AND %d;\n",
			ddl.QuoteIdent(d[0]), ddl.QuoteIdent(d[1]), doc.SpanLo, doc.SpanHi)
	}
	bw.WriteString("\n")

	create, err := ddl.BuildCreateTableSQL(MappingTableDef(o.MappingTable))
	if err != nil {
		return fmt.Errorf("sqlgen: mapping table: %w", err)
	}
	bw.WriteString(create)
	bw.WriteString("\n\n")

	writeInserts(bw, o.TemplateTable, doc.Columns, doc.Rows, batchOr(o.TemplateBatch, DefaultTemplateBatch))
	writeInserts(bw, o.MappingTable, MappingTableDef(o.MappingTable).ColumnNames(), doc.Mappings, batchOr(o.MappingBatch, DefaultMappingBatch))
	writeInserts(bw, o.MetadataTable, clone.MetadataColumns, doc.Metadata, batchOr(o.MetadataBatch, DefaultMetadataBatch))

	bw.WriteString("COMMIT;\n")
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("sqlgen: write: %w", err)
	}
	return nil
}

func writeInserts(bw *bufio.Writer, table string, cols []string, rows []records.Row, batch int) {
	if len(rows) == 0 {
		return
	}
	header := "INSERT INTO " + ddl.QuoteIdent(table) + " (" + ddl.QuoteIdents(cols, ",") + ") VALUES\n"
	for start := 0; start < len(rows); start += batch {
		end := start + batch
		if end > len(rows) {
			end = len(rows)
		}
		bw.WriteString(header)
		for i, r := range rows[start:end] {
			if i > 0 {
				bw.WriteString(",\n")
			}
			bw.WriteString(Tuple(r))
		}
		bw.WriteString(";\n\n")
	}
}

func batchOr(n, def int) int {
	if n > 0 {
		return n
	}
	return def
}
