package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	derrors "github.com/vango-dev/dispatch/internal/errors"
	"github.com/vango-dev/dispatch/pkg/routepath"
)

func matchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "match <path>",
		Short: "Show which route a path matches",
		Long: `Match a request path against the route table and print the route
and its decoded parameters. The path is matched as sent on the wire, so
percent-encoding is significant.

Examples:
  dispatch match /users/42
  dispatch match '/files/a/b.txt?download=1'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			app, err := loadApp(cfg)
			if err != nil {
				return err
			}

			path, query := routepath.SplitPathAndQuery(args[0])
			res, ok := app.Router().Match(path)
			if !ok {
				return derrors.Newf(derrors.CategoryCLI, "no route matches %s", path)
			}

			out := cmd.OutOrStdout()
			success(out, "%s matches %s", path, res.Route.ID)
			info(out, "pattern: %s", res.Route.Pattern)
			if res.Route.Kind != "" {
				info(out, "kind:    %s", res.Route.Kind)
			}
			if query != "" {
				info(out, "query:   %s", query)
			}

			keys := make([]string, 0, len(res.Params))
			for k := range res.Params {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "    %s = %q\n", k, res.Params[k])
			}
			return nil
		},
	}
}
