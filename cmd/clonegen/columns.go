package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clonegen/internal/pipeline"
)

func newColumnsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "columns",
		Short: "Print the template table's columns in physical order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			def, err := pipeline.ResolveSchema(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, c := range def.Columns() {
				fmt.Fprintf(out, "%3d  %s\n", i, c)
			}
			return nil
		},
	}
}
