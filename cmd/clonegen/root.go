package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"clonegen/internal/config"
)

// options holds the persistent flags. Only flags the user actually set
// override the file and environment values.
type options struct {
	configPath     string
	job            string
	schema         string
	templates      string
	tier1          string
	tier2          string
	extract        string
	outSQL         string
	outExtract     string
	skipLog        string
	dropColumns    []string
	sourceKind     string
	sourceDSN      string
	sourceTable    string
	metricsBackend string
	pushgatewayURL string
	statsdAddr     string
	verbose        bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "clonegen [command]",
		Short:         "Generate tiered upgrade clones of item templates",
		Long:          `Read an item template table and tier lists, derive scaled upgrade clones for every listed base item, emit them as an SQL script, and synchronize the client item extract.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	opts.bind(root)
	root.AddCommand(newGenerateCmd(opts), newCheckCmd(opts), newColumnsCmd(opts))
	return root
}

// bind registers the persistent flags on cmd.
func (opts *options) bind(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&opts.configPath, "config", "", "config file (.json, .yaml or .yml)")
	f.StringVar(&opts.job, "job", "", "job name used in logs and metrics")
	f.StringVar(&opts.schema, "schema", "", "SQL file holding the CREATE TABLE (defaults to --templates)")
	f.StringVar(&opts.templates, "templates", "", "SQL dump holding the template inserts")
	f.StringVar(&opts.tier1, "tier1", "", "tier 1 id list")
	f.StringVar(&opts.tier2, "tier2", "", "tier 2 id list")
	f.StringVar(&opts.extract, "extract", "", "client item extract (CSV)")
	f.StringVar(&opts.outSQL, "out-sql", "", "generated SQL script path")
	f.StringVar(&opts.outExtract, "out-extract", "", "write the synchronized extract here instead of in place")
	f.StringVar(&opts.skipLog, "skip-log", "", "CSV file listing missing and skipped bases")
	f.StringArrayVar(&opts.dropColumns, "drop-column", nil, "omit a column from the template inserts (repeatable)")
	f.StringVar(&opts.sourceKind, "source-kind", "", "template source: dump, mysql, postgres, sqlserver, sqlite")
	f.StringVar(&opts.sourceDSN, "source-dsn", "", "connection string for database sources")
	f.StringVar(&opts.sourceTable, "source-table", "", "template table name")
	f.StringVar(&opts.metricsBackend, "metrics-backend", "", "metrics backend: none, pushgateway, datadog")
	f.StringVar(&opts.pushgatewayURL, "pushgateway-url", "", "Pushgateway base URL")
	f.StringVar(&opts.statsdAddr, "statsd-addr", "", "DogStatsD address")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logs")
}

// resolveConfig builds the effective configuration: defaults, then the
// config file, then CLONEGEN_* variables, then explicitly set flags.
func resolveConfig(cmd *cobra.Command, opts *options, getenv func(string) string) (config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return cfg, err
		}
	}
	config.ApplyEnv(&cfg, getenv)

	flags := cmd.Flags()
	set := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	set("job", &cfg.Job, opts.job)
	set("schema", &cfg.Source.Schema, opts.schema)
	set("templates", &cfg.Source.Templates, opts.templates)
	set("tier1", &cfg.Tiers.Tier1, opts.tier1)
	set("tier2", &cfg.Tiers.Tier2, opts.tier2)
	set("extract", &cfg.Outputs.Extract, opts.extract)
	set("out-sql", &cfg.Outputs.SQL, opts.outSQL)
	set("out-extract", &cfg.Outputs.ExtractOut, opts.outExtract)
	set("skip-log", &cfg.Outputs.SkipLog, opts.skipLog)
	set("source-kind", &cfg.Source.Kind, opts.sourceKind)
	set("source-dsn", &cfg.Source.DSN, opts.sourceDSN)
	set("source-table", &cfg.Source.Table, opts.sourceTable)
	set("metrics-backend", &cfg.Metrics.Backend, opts.metricsBackend)
	set("pushgateway-url", &cfg.Metrics.PushgatewayURL, opts.pushgatewayURL)
	set("statsd-addr", &cfg.Metrics.StatsdAddr, opts.statsdAddr)
	if flags.Changed("drop-column") {
		cfg.SQL.DropColumns = append(cfg.SQL.DropColumns, opts.dropColumns...)
	}
	if flags.Changed("verbose") {
		cfg.Verbose = opts.verbose
	}
	return cfg, nil
}

// validate prints every issue to stderr and fails on blocking ones.
func validate(cmd *cobra.Command, cfg config.Config) error {
	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return fmt.Errorf("configuration is invalid")
	}
	return nil
}

func loadConfig(cmd *cobra.Command, opts *options) (config.Config, error) {
	return resolveConfig(cmd, opts, os.Getenv)
}
