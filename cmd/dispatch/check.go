package main

import (
	"github.com/spf13/cobra"
)

func checkCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the route manifest",
		Long: `Load the route manifest, build the route table and prepare every
route's pipeline. Problems are reported as diagnostics with a code and
a suggestion.

Examples:
  dispatch check
  dispatch check --manifest=routes.next.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			app, err := loadApp(cfg)
			if err != nil {
				return diagnose(err).WithFile(cfg.ManifestPath())
			}
			success(cmd.OutOrStdout(), "%s: %d routes OK", cfg.ManifestPath(), app.Stats().Total)
			return nil
		},
	}
}
