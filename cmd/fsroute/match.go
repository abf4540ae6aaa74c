package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/fsroute/internal/dev"
	"github.com/vango-dev/fsroute/internal/errors"
	"github.com/vango-dev/fsroute/pkg/routepath"
	"github.com/vango-dev/fsroute/pkg/router"
)

func matchCmd(opts *globalOptions) *cobra.Command {
	var (
		target string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "match <path>",
		Short: "Show which route a path resolves to",
		Long: `Match a URL path against the project's routes and print the
matched file, parameters, layouts, middleware and rendering mode.

Examples:
  fsroute match /blog/hello-world
  fsroute match /api/users/42 --target any --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := router.ParseTarget(target)
			if err != nil {
				return errors.New("F203").WithDetail(err.Error())
			}
			n, err := routepath.Normalize(args[0])
			if err != nil {
				return errors.New("F203").Wrap(err).WithDetail(args[0] + ": " + err.Error())
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			tree, err := buildTree(cfg, cmd.ErrOrStderr(), opts)
			if err != nil {
				return err
			}
			m, err := tree.Match(n.Decoded, t)
			if err != nil {
				return errors.FromRouteError(err).WithDetail("Nothing matches " + n.Decoded)
			}

			report := dev.NewMatchReport(n.Decoded, m)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			fmt.Fprintf(out, "  Route:      %s\n", report.Route)
			fmt.Fprintf(out, "  File:       %s\n", report.File)
			fmt.Fprintf(out, "  Mode:       %s (loader %s)\n", report.Mode, report.Loader)
			if report.NotFoundFallback {
				fmt.Fprintln(out, "  Not found:  yes")
			}
			for _, k := range m.Leaf.Params {
				if v, ok := report.Params[k]; ok {
					fmt.Fprintf(out, "  Param:      %s=%s\n", k, v)
				}
			}
			if len(report.Layouts) > 0 {
				fmt.Fprintf(out, "  Layouts:    %s\n", strings.Join(report.Layouts, " > "))
			}
			if len(report.Middleware) > 0 {
				fmt.Fprintf(out, "  Middleware: %s\n", strings.Join(report.Middleware, " > "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "page", "Match target: page or any")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the match as JSON")

	return cmd
}
