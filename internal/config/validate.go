package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"clonegen/internal/clone"
	"clonegen/internal/datasource"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced but does not block.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding. Path is a dotted path into
// the config (e.g. "source.dsn", "generator.tier2_levels").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Source kinds understood by the pipeline.
var sourceKinds = map[string]struct{}{
	"dump": {}, "mysql": {}, "postgres": {}, "sqlserver": {}, "sqlite": {},
}

// Validate performs static checks over cfg without touching the filesystem.
func Validate(cfg Config) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(cfg.Job) == "" {
		add(SeverityError, "job", "job must not be empty; it labels metrics and log lines")
	}

	// Source.
	kind := strings.TrimSpace(cfg.Source.Kind)
	if _, ok := sourceKinds[kind]; !ok {
		add(SeverityError, "source.kind", "unknown source kind %q (want dump, mysql, postgres, sqlserver, or sqlite)", kind)
	}
	if strings.TrimSpace(cfg.Source.Table) == "" {
		add(SeverityError, "source.table", "template table name must not be empty")
	}
	switch kind {
	case "dump":
		if strings.TrimSpace(cfg.Source.Templates) == "" {
			add(SeverityError, "source.templates", "dump source requires a templates path")
		}
		if cfg.Source.DSN != "" {
			add(SeverityWarning, "source.dsn", "dsn is ignored for the dump source")
		}
	case "mysql", "postgres", "sqlserver", "sqlite":
		if strings.TrimSpace(cfg.Source.DSN) == "" {
			add(SeverityError, "source.dsn", "%s source requires a dsn", kind)
		}
		if cfg.Source.Templates != "" || cfg.Source.Schema != "" {
			add(SeverityWarning, "source.templates", "file paths are ignored for the %s source", kind)
		}
	}

	// Tiers.
	if cfg.Tiers.Tier1 == "" && cfg.Tiers.Tier2 == "" {
		add(SeverityError, "tiers", "at least one of tier1 or tier2 must be set")
	}
	if n := utf8.RuneCountInString(cfg.Tiers.Delimiter); n != 1 {
		add(SeverityError, "tiers.delimiter", "delimiter must be a single character, got %q", cfg.Tiers.Delimiter)
	}

	// Outputs.
	if strings.TrimSpace(cfg.Outputs.SQL) == "" {
		add(SeverityError, "outputs.sql", "sql output path must not be empty")
	}
	if strings.TrimSpace(cfg.Outputs.Extract) == "" {
		add(SeverityError, "outputs.extract", "extract path must not be empty")
	}
	if cfg.Outputs.SQL != "" && cfg.Outputs.SQL == cfg.Outputs.ExtractTarget() {
		add(SeverityError, "outputs.sql", "sql output and extract target must differ")
	}
	for name, loc := range map[string]string{
		"outputs.sql":         cfg.Outputs.SQL,
		"outputs.extract_out": cfg.Outputs.ExtractOut,
		"outputs.skip_log":    cfg.Outputs.SkipLog,
	} {
		if datasource.IsRemote(loc) {
			add(SeverityError, name, "outputs must be local paths, got %q", loc)
		}
	}
	if datasource.IsRemote(cfg.Outputs.Extract) && cfg.Outputs.ExtractOut == "" {
		add(SeverityError, "outputs.extract_out", "a remote extract cannot be rewritten in place; set extract_out")
	}

	// Fetch.
	if cfg.Fetch.TimeoutSeconds < 0 {
		add(SeverityError, "fetch.timeout_seconds", "must be >= 0, got %d", cfg.Fetch.TimeoutSeconds)
	}
	if cfg.Fetch.Retries < 0 {
		add(SeverityError, "fetch.retries", "must be >= 0, got %d", cfg.Fetch.Retries)
	}
	if cfg.Fetch.InsecureSkipVerify {
		add(SeverityWarning, "fetch.insecure_skip_verify", "TLS certificate verification is disabled for remote inputs")
	}

	// Generator.
	if err := cfg.CloneConfig().Validate(); err != nil {
		var ce *clone.ConfigError
		path := "generator"
		if errors.As(err, &ce) {
			path = "generator." + snake(ce.Field)
		}
		add(SeverityError, path, "%v", err)
	}
	if len(cfg.Generator.ExtractColumns) == 0 {
		add(SeverityError, "generator.extract_columns", "extract projection must name at least one column")
	} else if cfg.Generator.ExtractColumns[0] != cfg.Generator.Columns.ID {
		add(SeverityWarning, "generator.extract_columns", "first extract column %q is not the id column %q; sync matches rows by the first cell", cfg.Generator.ExtractColumns[0], cfg.Generator.Columns.ID)
	}

	// SQL.
	for name, n := range map[string]int{
		"sql.template_batch": cfg.SQL.TemplateBatch,
		"sql.mapping_batch":  cfg.SQL.MappingBatch,
		"sql.metadata_batch": cfg.SQL.MetadataBatch,
	} {
		if n <= 0 {
			add(SeverityError, name, "batch size must be > 0, got %d", n)
		}
	}
	for _, c := range cfg.SQL.DropColumns {
		if c == cfg.Generator.Columns.ID {
			add(SeverityError, "sql.drop_columns", "the id column %q cannot be dropped", c)
		}
	}

	// Metrics.
	switch cfg.Metrics.Backend {
	case "", "none":
	case "pushgateway":
		if strings.TrimSpace(cfg.Metrics.PushgatewayURL) == "" {
			add(SeverityError, "metrics.pushgateway_url", "pushgateway backend requires a url")
		}
	case "datadog":
		if strings.TrimSpace(cfg.Metrics.StatsdAddr) == "" {
			add(SeverityWarning, "metrics.statsd_addr", "statsd address not set; the client default is used")
		}
	default:
		add(SeverityError, "metrics.backend", "unknown metrics backend %q (want none, pushgateway, or datadog)", cfg.Metrics.Backend)
	}

	sortIssues(issues)
	return issues
}

// sortIssues orders by path so output is stable across map iteration.
func sortIssues(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Path < issues[j].Path })
}

// snake converts a Go field name such as "Tier2Levels" to "tier2_levels".
func snake(s string) string {
	if strings.Contains(s, ".") {
		return strings.ToLower(s)
	}
	var sb strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				sb.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
