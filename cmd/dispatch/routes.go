package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func routesCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the route table",
		Long: `Load the route manifest and print every route in registration order,
followed by the static/dynamic split of the table.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			app, err := loadApp(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPATTERN\tKIND\tMETHODS")
			for _, r := range app.Routes() {
				methods := "*"
				if len(r.Methods) > 0 {
					methods = strings.Join(r.Methods, ",")
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Pattern, r.Kind, methods)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			stats := app.Stats()
			fmt.Fprintln(out)
			info(out, "%d routes (%d static, %d dynamic)", stats.Total, stats.Static, stats.Dynamic)
			return nil
		},
	}
}
