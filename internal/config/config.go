// Package config defines the run configuration for clonegen: where the
// template rows come from, the tier lists, the outputs, the generator
// constants, and the metrics backend.
//
// A run starts from Default, overlays an optional JSON or YAML file (Load),
// then CLONEGEN_* environment values (ApplyEnv), then CLI flags.
//
// Example (YAML, trimmed):
//
//	job: item-upgrades
//	source:
//	  kind: dump
//	  templates: data/item_template.sql
//	tiers:
//	  tier1: data/T1.txt
//	  tier2: data/T2.txt
//	outputs:
//	  sql: out/item_upgrade_clones.sql
//	  extract: dbc/Item.csv
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"net/http"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"clonegen/internal/clone"
	"clonegen/internal/datasource/httpds"
	"clonegen/internal/sqlgen"
)

// Config is the top-level configuration object.
type Config struct {
	// Job labels metrics and log lines.
	Job       string    `json:"job" yaml:"job"`
	Source    Source    `json:"source" yaml:"source"`
	Tiers     Tiers     `json:"tiers" yaml:"tiers"`
	Outputs   Outputs   `json:"outputs" yaml:"outputs"`
	Generator Generator `json:"generator" yaml:"generator"`
	SQL       SQL       `json:"sql" yaml:"sql"`
	Metrics   Metrics   `json:"metrics" yaml:"metrics"`
	Fetch     Fetch     `json:"fetch" yaml:"fetch"`
	Verbose   bool      `json:"verbose" yaml:"verbose"`
}

// Source selects where base rows are read from.
type Source struct {
	// Kind is "dump" (SQL text) or a database kind: mysql, postgres,
	// sqlserver, sqlite.
	Kind string `json:"kind" yaml:"kind"`
	// Table is the template table name.
	Table string `json:"table" yaml:"table"`
	// Templates is the SQL dump holding the insert statements (dump kind).
	Templates string `json:"templates" yaml:"templates"`
	// Schema holds the CREATE TABLE text. Empty means Templates.
	Schema string `json:"schema" yaml:"schema"`
	// DSN is the connection string for database kinds.
	DSN string `json:"dsn" yaml:"dsn"`
}

// Tiers names the per-tier id lists. Either may be empty, not both.
type Tiers struct {
	Tier1     string `json:"tier1" yaml:"tier1"`
	Tier2     string `json:"tier2" yaml:"tier2"`
	Delimiter string `json:"delimiter" yaml:"delimiter"`
}

// Outputs names the generated artifacts.
type Outputs struct {
	SQL string `json:"sql" yaml:"sql"`
	// Extract is read and, unless ExtractOut is set, rewritten in place.
	Extract    string `json:"extract" yaml:"extract"`
	ExtractOut string `json:"extract_out" yaml:"extract_out"`
	// SkipLog, when set, receives one CSV row per missing or skipped base.
	SkipLog string `json:"skip_log" yaml:"skip_log"`
}

// ExtractTarget returns the path the synchronized extract is written to.
func (o Outputs) ExtractTarget() string {
	if o.ExtractOut != "" {
		return o.ExtractOut
	}
	return o.Extract
}

// Generator carries the clone constants.
type Generator struct {
	Tier1Start        int64    `json:"tier1_start" yaml:"tier1_start"`
	Tier2Start        int64    `json:"tier2_start" yaml:"tier2_start"`
	RangeEnd          int64    `json:"range_end" yaml:"range_end"`
	Tier1Levels       int      `json:"tier1_levels" yaml:"tier1_levels"`
	Tier2Levels       int      `json:"tier2_levels" yaml:"tier2_levels"`
	LevelIncrement    float64  `json:"level_increment" yaml:"level_increment"`
	Tier2Threshold    int64    `json:"tier2_threshold" yaml:"tier2_threshold"`
	ExcludedSlots     []int64  `json:"excluded_slots" yaml:"excluded_slots"`
	ExcludedClasses   []int64  `json:"excluded_classes" yaml:"excluded_classes"`
	DescriptionMaxLen int      `json:"description_max_len" yaml:"description_max_len"`
	ScaledInts        []string `json:"scaled_ints" yaml:"scaled_ints"`
	ScaledPrefixes    []string `json:"scaled_prefixes" yaml:"scaled_prefixes"`
	ScaledFloats      []string `json:"scaled_floats" yaml:"scaled_floats"`
	FloatPrecision    int      `json:"float_precision" yaml:"float_precision"`
	ExtractColumns    []string `json:"extract_columns" yaml:"extract_columns"`
	Columns           Columns  `json:"columns" yaml:"columns"`
}

// Columns maps roles to template column names.
type Columns struct {
	ID             string `json:"id" yaml:"id"`
	Classification string `json:"classification" yaml:"classification"`
	Slot           string `json:"slot" yaml:"slot"`
	Class          string `json:"class" yaml:"class"`
	Subclass       string `json:"subclass" yaml:"subclass"`
	Quality        string `json:"quality" yaml:"quality"`
	Name           string `json:"name" yaml:"name"`
	Description    string `json:"description" yaml:"description"`
	Comment        string `json:"comment" yaml:"comment"`
}

// SQL controls the emitted script.
type SQL struct {
	MappingTable  string   `json:"mapping_table" yaml:"mapping_table"`
	MetadataTable string   `json:"metadata_table" yaml:"metadata_table"`
	DropColumns   []string `json:"drop_columns" yaml:"drop_columns"`
	TemplateBatch int      `json:"template_batch" yaml:"template_batch"`
	MappingBatch  int      `json:"mapping_batch" yaml:"mapping_batch"`
	MetadataBatch int      `json:"metadata_batch" yaml:"metadata_batch"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend is "none", "pushgateway", or "datadog".
	Backend        string `json:"backend" yaml:"backend"`
	PushgatewayURL string `json:"pushgateway_url" yaml:"pushgateway_url"`
	StatsdAddr     string `json:"statsd_addr" yaml:"statsd_addr"`
}

// Fetch configures inputs given as http(s) URLs.
type Fetch struct {
	TimeoutSeconds     int    `json:"timeout_seconds" yaml:"timeout_seconds"`
	Retries            int    `json:"retries" yaml:"retries"`
	InsecureSkipVerify bool   `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	BearerToken        string `json:"bearer_token" yaml:"bearer_token"`
}

// Default returns the production configuration without any paths.
func Default() Config {
	g := clone.DefaultConfig()
	s := sqlgen.DefaultOptions()
	return Config{
		Job:    "clonegen",
		Source: Source{Kind: "dump", Table: s.TemplateTable},
		Tiers:  Tiers{Delimiter: ";"},
		Generator: Generator{
			Tier1Start:        g.Tier1Start,
			Tier2Start:        g.Tier2Start,
			RangeEnd:          g.RangeEnd,
			Tier1Levels:       g.Tier1Levels,
			Tier2Levels:       g.Tier2Levels,
			LevelIncrement:    g.LevelIncrement,
			Tier2Threshold:    g.Tier2Threshold,
			ExcludedSlots:     g.ExcludedSlots,
			ExcludedClasses:   g.ExcludedClasses,
			DescriptionMaxLen: g.DescriptionMaxLen,
			ScaledInts:        g.ScaledIntColumns,
			ScaledPrefixes:    g.ScaledIntPrefixes,
			ScaledFloats:      g.ScaledFloatColumns,
			FloatPrecision:    g.FloatPrecision,
			ExtractColumns:    g.ExtractColumns,
			Columns:           Columns(g.Columns),
		},
		SQL: SQL{
			MappingTable:  s.MappingTable,
			MetadataTable: s.MetadataTable,
			TemplateBatch: s.TemplateBatch,
			MappingBatch:  s.MappingBatch,
			MetadataBatch: s.MetadataBatch,
		},
		Metrics: Metrics{Backend: "none"},
		Fetch:   Fetch{TimeoutSeconds: 30, Retries: 3},
	}
}

// Load reads path over Default. Files ending in .yaml or .yml are decoded as
// YAML, everything else as JSON. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("config: decode yaml %s: %w", path, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("config: decode json %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Environment variable names read by ApplyEnv.
const (
	EnvJob            = "CLONEGEN_JOB"
	EnvSourceKind     = "CLONEGEN_SOURCE_KIND"
	EnvSourceDSN      = "CLONEGEN_SOURCE_DSN"
	EnvSchema         = "CLONEGEN_SCHEMA"
	EnvTemplates      = "CLONEGEN_TEMPLATES"
	EnvTier1          = "CLONEGEN_TIER1"
	EnvTier2          = "CLONEGEN_TIER2"
	EnvExtract        = "CLONEGEN_EXTRACT"
	EnvOutSQL         = "CLONEGEN_OUT_SQL"
	EnvOutExtract     = "CLONEGEN_OUT_EXTRACT"
	EnvSkipLog        = "CLONEGEN_SKIP_LOG"
	EnvMetricsBackend = "CLONEGEN_METRICS_BACKEND"
	EnvPushgatewayURL = "CLONEGEN_PUSHGATEWAY_URL"
	EnvStatsdAddr     = "CLONEGEN_STATSD_ADDR"
	EnvVerbose        = "CLONEGEN_VERBOSE"
	EnvFetchToken     = "CLONEGEN_FETCH_TOKEN"
)

// ApplyEnv overlays non-empty environment values onto cfg. getenv is
// usually os.Getenv; tests pass a map lookup.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&cfg.Job, EnvJob)
	set(&cfg.Source.Kind, EnvSourceKind)
	set(&cfg.Source.DSN, EnvSourceDSN)
	set(&cfg.Source.Schema, EnvSchema)
	set(&cfg.Source.Templates, EnvTemplates)
	set(&cfg.Tiers.Tier1, EnvTier1)
	set(&cfg.Tiers.Tier2, EnvTier2)
	set(&cfg.Outputs.Extract, EnvExtract)
	set(&cfg.Outputs.SQL, EnvOutSQL)
	set(&cfg.Outputs.ExtractOut, EnvOutExtract)
	set(&cfg.Outputs.SkipLog, EnvSkipLog)
	set(&cfg.Metrics.Backend, EnvMetricsBackend)
	set(&cfg.Metrics.PushgatewayURL, EnvPushgatewayURL)
	set(&cfg.Metrics.StatsdAddr, EnvStatsdAddr)
	set(&cfg.Fetch.BearerToken, EnvFetchToken)
	if v := getenv(EnvVerbose); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Verbose = b
		}
	}
}

// CloneConfig maps the generator section to clone.Config.
func (c Config) CloneConfig() clone.Config {
	g := c.Generator
	return clone.Config{
		Tier1Start:         g.Tier1Start,
		Tier2Start:         g.Tier2Start,
		RangeEnd:           g.RangeEnd,
		Tier1Levels:        g.Tier1Levels,
		Tier2Levels:        g.Tier2Levels,
		LevelIncrement:     g.LevelIncrement,
		Tier2Threshold:     g.Tier2Threshold,
		ExcludedSlots:      g.ExcludedSlots,
		ExcludedClasses:    g.ExcludedClasses,
		Columns:            clone.Columns(g.Columns),
		DescriptionMaxLen:  g.DescriptionMaxLen,
		ScaledIntColumns:   g.ScaledInts,
		ScaledIntPrefixes:  g.ScaledPrefixes,
		ScaledFloatColumns: g.ScaledFloats,
		FloatPrecision:     g.FloatPrecision,
		ExtractColumns:     g.ExtractColumns,
	}
}

// SQLOptions maps the sql section to sqlgen.Options.
func (c Config) SQLOptions() sqlgen.Options {
	o := sqlgen.DefaultOptions()
	o.TemplateTable = c.Source.Table
	o.IDColumn = c.Generator.Columns.ID
	o.MappingTable = c.SQL.MappingTable
	o.MetadataTable = c.SQL.MetadataTable
	o.DropColumns = append([]string(nil), c.SQL.DropColumns...)
	o.TemplateBatch = c.SQL.TemplateBatch
	o.MappingBatch = c.SQL.MappingBatch
	o.MetadataBatch = c.SQL.MetadataBatch
	return o
}

// HTTPConfig maps the fetch section to httpds.Config.
func (c Config) HTTPConfig() httpds.Config {
	hc := httpds.Config{
		Timeout:            time.Duration(c.Fetch.TimeoutSeconds) * time.Second,
		MaxRetries:         c.Fetch.Retries,
		InsecureSkipVerify: c.Fetch.InsecureSkipVerify,
	}
	if c.Fetch.BearerToken != "" {
		hc.Headers = http.Header{"Authorization": {"Bearer " + c.Fetch.BearerToken}}
	}
	return hc
}

// TierComma returns the tier list delimiter as a rune.
func (c Config) TierComma() rune {
	for _, r := range c.Tiers.Delimiter {
		return r
	}
	return ';'
}
