package main

import (
	"log"

	"github.com/spf13/cobra"

	"clonegen/internal/pipeline"
)

func newGenerateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate the clone SQL script and synchronize the extract",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if err := validate(cmd, cfg); err != nil {
				return err
			}

			flush := setupMetrics(cfg)
			defer flush()

			if cfg.Verbose {
				log.Printf("pipeline: job=%s source=%s table=%s sql=%s extract=%s",
					cfg.Job, cfg.Source.Kind, cfg.Source.Table, cfg.Outputs.SQL, cfg.Outputs.ExtractTarget())
			}

			rep, runErr := pipeline.Run(cmd.Context(), cfg)
			printReport(cmd.OutOrStdout(), rep)
			return runErr
		},
	}
}
