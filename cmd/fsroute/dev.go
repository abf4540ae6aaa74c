package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/fsroute/internal/dev"
	"github.com/vango-dev/fsroute/internal/errors"
)

func devCmd(opts *globalOptions) *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Start the development server",
		Long: `Start the development server.

The dev server watches the routes directory, rebuilds the route tree
when route files are added, removed or renamed, and notifies connected
browsers over a WebSocket.

Endpoints:
  /_fsroute/routes    Routes manifest of the published tree
  /_fsroute/match     Match a path: ?path=/blog/x&target=page
  /_fsroute/metrics   Prometheus metrics
  /_fsroute/reload    Reload WebSocket

Examples:
  fsroute dev
  fsroute dev --port=8080
  fsroute dev --host=0.0.0.0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			// Apply command-line overrides
			if port > 0 {
				cfg.Dev.Port = port
			}
			if host != "" {
				cfg.Dev.Host = host
			}

			server, err := dev.NewServer(dev.ServerOptions{
				Config: cfg,
				Logger: opts.logger(cmd.ErrOrStderr()),
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "\n  fsroute dev  %s\n\n", cfg.DevURL())
			if err := server.Start(ctx); err != nil {
				return errors.New("F201").Wrap(err).WithDetail(err.Error())
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run on (default from fsroute.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from fsroute.json)")

	return cmd
}
