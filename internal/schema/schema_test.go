package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const itemTemplateDDL = "DROP TABLE IF EXISTS `item_template`;\n" +
	"/*!40101 SET @saved_cs_client     = @@character_set_client */;\n" +
	"CREATE TABLE `item_template` (\n" +
	"  `entry` int unsigned NOT NULL DEFAULT '0',\n" +
	"  `class` tinyint unsigned NOT NULL DEFAULT '0',\n" +
	"  `name` varchar(255) NOT NULL DEFAULT '',\n" +
	"  `ItemLevel` smallint unsigned NOT NULL DEFAULT '0',\n" +
	"  `description` varchar(255) NOT NULL DEFAULT '',\n" +
	"  PRIMARY KEY (`entry`),\n" +
	"  KEY `idx_name` (`name`(250))\n" +
	") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COMMENT='Item System';\n" +
	"INSERT INTO `item_template` VALUES (1,2,'x',3,'');\n"

func TestResolve_ColumnOrder(t *testing.T) {
	t.Parallel()

	def, err := Resolve(strings.NewReader(itemTemplateDDL), "item_template")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := []string{"entry", "class", "name", "ItemLevel", "description"}
	if diff := cmp.Diff(want, def.Columns()); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
	if i, ok := def.Index("ItemLevel"); !ok || i != 3 {
		t.Fatalf("Index(ItemLevel) = %d,%v, want 3,true", i, ok)
	}
	if def.Table() != "item_template" || def.Len() != 5 {
		t.Fatalf("table=%q len=%d", def.Table(), def.Len())
	}
}

func TestResolve_IfNotExistsAndBareNames(t *testing.T) {
	t.Parallel()

	src := "create table if not exists world.item_template (\n" +
		"  entry INT NOT NULL,\n" +
		"  \"name\" TEXT,\n" +
		"  CONSTRAINT pk PRIMARY KEY (entry)\n" +
		");\n"
	def, err := Resolve(strings.NewReader(src), "item_template")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if diff := cmp.Diff([]string{"entry", "name"}, def.Columns()); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_DoesNotMatchPrefixTables(t *testing.T) {
	t.Parallel()

	src := "CREATE TABLE `item_template_locale` (\n  `ID` int NOT NULL\n) ENGINE=InnoDB;\n"
	_, err := Resolve(strings.NewReader(src), "item_template")
	if !errors.Is(err, ErrSchemaNotFound) {
		t.Fatalf("err = %v, want ErrSchemaNotFound", err)
	}
}

func TestResolve_EmptyColumnList(t *testing.T) {
	t.Parallel()

	src := "CREATE TABLE `item_template` (\n  PRIMARY KEY (`entry`)\n) ENGINE=InnoDB;\n"
	_, err := Resolve(strings.NewReader(src), "item_template")
	if !errors.Is(err, ErrEmptyColumnList) {
		t.Fatalf("err = %v, want ErrEmptyColumnList", err)
	}
}

func TestFromColumns_CopiesInput(t *testing.T) {
	t.Parallel()

	in := []string{"entry", "name"}
	def, err := FromColumns("item_template", in)
	if err != nil {
		t.Fatalf("FromColumns: %v", err)
	}
	in[0] = "mutated"
	if def.Column(0) != "entry" {
		t.Fatalf("definition shares caller slice: %v", def.Columns())
	}
	if _, err := FromColumns("t", nil); !errors.Is(err, ErrEmptyColumnList) {
		t.Fatalf("FromColumns(nil) err = %v, want ErrEmptyColumnList", err)
	}
}
