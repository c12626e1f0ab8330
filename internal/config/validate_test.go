package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Default()
	cfg.Source.Templates = "item_template.sql"
	cfg.Tiers.Tier1 = "T1.txt"
	cfg.Tiers.Tier2 = "T2.txt"
	cfg.Outputs.SQL = "out/clones.sql"
	cfg.Outputs.Extract = "dbc/Item.csv"
	return cfg
}

func TestValidate_ValidConfigHasNoIssues(t *testing.T) {
	t.Parallel()

	if issues := Validate(validConfig()); len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(*Config)
		path     string
		severity IssueSeverity
		contains string
	}{
		{"empty job", func(c *Config) { c.Job = " " }, "job", SeverityError, "must not be empty"},
		{"unknown source", func(c *Config) { c.Source.Kind = "oracle" }, "source.kind", SeverityError, "oracle"},
		{"dump without templates", func(c *Config) { c.Source.Templates = "" }, "source.templates", SeverityError, "templates path"},
		{"database without dsn", func(c *Config) { c.Source.Kind = "postgres"; c.Source.Templates = "" }, "source.dsn", SeverityError, "requires a dsn"},
		{"dsn ignored for dump", func(c *Config) { c.Source.DSN = "x" }, "source.dsn", SeverityWarning, "ignored"},
		{"no tier lists", func(c *Config) { c.Tiers.Tier1, c.Tiers.Tier2 = "", "" }, "tiers", SeverityError, "at least one"},
		{"long delimiter", func(c *Config) { c.Tiers.Delimiter = ";;" }, "tiers.delimiter", SeverityError, "single character"},
		{"no sql output", func(c *Config) { c.Outputs.SQL = "" }, "outputs.sql", SeverityError, "must not be empty"},
		{"no extract", func(c *Config) { c.Outputs.Extract = "" }, "outputs.extract", SeverityError, "must not be empty"},
		{"outputs collide", func(c *Config) { c.Outputs.ExtractOut = c.Outputs.SQL }, "outputs.sql", SeverityError, "must differ"},
		{"tier levels", func(c *Config) { c.Generator.Tier2Levels = 6 }, "generator.tier2_levels", SeverityError, "must exceed"},
		{"id column required", func(c *Config) { c.Generator.Columns.ID = "" }, "generator.columns.id", SeverityError, "must be set"},
		{"extract projection", func(c *Config) { c.Generator.ExtractColumns = []string{"class"} }, "generator.extract_columns", SeverityWarning, "first cell"},
		{"batch size", func(c *Config) { c.SQL.MappingBatch = 0 }, "sql.mapping_batch", SeverityError, "> 0"},
		{"drop id", func(c *Config) { c.SQL.DropColumns = []string{"entry"} }, "sql.drop_columns", SeverityError, "cannot be dropped"},
		{"pushgateway url", func(c *Config) { c.Metrics.Backend = "pushgateway" }, "metrics.pushgateway_url", SeverityError, "requires a url"},
		{"statsd addr", func(c *Config) { c.Metrics.Backend = "datadog" }, "metrics.statsd_addr", SeverityWarning, "default"},
		{"remote sql output", func(c *Config) { c.Outputs.SQL = "https://cdn/clones.sql" }, "outputs.sql", SeverityError, "local paths"},
		{"remote extract in place", func(c *Config) { c.Outputs.Extract = "https://cdn/Item.csv" }, "outputs.extract_out", SeverityError, "in place"},
		{"negative retries", func(c *Config) { c.Fetch.Retries = -1 }, "fetch.retries", SeverityError, ">= 0"},
		{"insecure fetch", func(c *Config) { c.Fetch.InsecureSkipVerify = true }, "fetch.insecure_skip_verify", SeverityWarning, "disabled"},
		{"unknown backend", func(c *Config) { c.Metrics.Backend = "graphite" }, "metrics.backend", SeverityError, "graphite"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			issues := Validate(cfg)

			var found *Issue
			for i := range issues {
				if issues[i].Path == tt.path {
					found = &issues[i]
					break
				}
			}
			if found == nil {
				t.Fatalf("no issue at %q; got %v", tt.path, issues)
			}
			if found.Severity != tt.severity {
				t.Fatalf("severity = %s, want %s (%v)", found.Severity, tt.severity, found)
			}
			if !strings.Contains(found.Message, tt.contains) {
				t.Fatalf("message %q does not contain %q", found.Message, tt.contains)
			}
			if HasErrors(issues) != (tt.severity == SeverityError) {
				t.Fatalf("HasErrors = %v for %v", HasErrors(issues), issues)
			}
		})
	}
}
