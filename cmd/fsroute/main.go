package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/fsroute/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	dir        string
	verbose    bool
	jsonErrors bool
}

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		reportError(cmd, os.Stderr, err)
		os.Exit(1)
	}
}

// reportError writes err to w, as JSON when --json-errors is set.
func reportError(cmd *cobra.Command, w io.Writer, err error) {
	if asJSON, _ := cmd.PersistentFlags().GetBool("json-errors"); asJSON {
		errors.FprintJSON(w, err)
		return
	}
	errors.Fprint(w, err)
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "fsroute",
		Short: "File-based routing for Go servers",
		Long: `fsroute turns a directory of route files into a route tree.

Features include:

  • Dynamic, catch-all and optional catch-all segments
  • Groups, layouts, middleware and not-found fallbacks
  • Per-route rendering modes (ssr, ssg, spa, api)
  • Routes manifest publishing to disk or S3
  • Dev server with route rebuilds and loader data reload`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.dir, "dir", "C", "", "Project directory (default: nearest directory with fsroute.json)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&opts.jsonErrors, "json-errors", false, "Print errors as a single line of JSON")

	rootCmd.AddCommand(
		routesCmd(opts),
		matchCmd(opts),
		manifestCmd(opts),
		devCmd(opts),
		versionCmd(),
	)
	return rootCmd
}

// logger returns the CLI logger writing to w.
func (o *globalOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}
