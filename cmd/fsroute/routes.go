package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/fsroute/pkg/manifest"
	"github.com/vango-dev/fsroute/pkg/router"
)

func routesCmd(opts *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the routes of the project",
		Long: `Scan the routes directory, validate it, and print every route.

Examples:
  fsroute routes
  fsroute routes --json
  fsroute routes -C ./site`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			tree, err := buildTree(cfg, cmd.ErrOrStderr(), opts)
			if err != nil {
				return err
			}
			if asJSON {
				return manifest.Build(tree).Encode(cmd.OutOrStdout())
			}
			return printRoutes(cmd, tree)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the routes manifest as JSON")

	return cmd
}

func printRoutes(cmd *cobra.Command, tree *router.Tree) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODE\tROUTE\tFILE\tLAYOUTS")
	for _, leaf := range tree.Leaves() {
		var layouts []string
		for _, l := range router.ComposeLayouts(leaf) {
			layouts = append(layouts, l.ModulePath)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", leaf.Mode, leaf.Pattern, leaf.ModulePath, strings.Join(layouts, ", "))
	}
	for _, leaf := range tree.NotFounds() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", "404", leaf.Pattern, leaf.ModulePath)
	}
	return tw.Flush()
}
