package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/fsroute/internal/errors"
	"github.com/vango-dev/fsroute/pkg/manifest"
)

func manifestCmd(opts *globalOptions) *cobra.Command {
	var (
		out    string
		stdout bool
		bucket string
		prefix string
	)

	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Write the routes manifest",
		Long: `Build the routes manifest and publish it to a file or an S3 bucket.

The manifest lists page, API and not-found routes with their named
regular expressions so that non-Go servers and CDNs can route requests.

Examples:
  fsroute manifest
  fsroute manifest --out dist/routes.json
  fsroute manifest --bucket my-site --prefix releases/42
  fsroute manifest --stdout`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if out != "" {
				cfg.Manifest.Output = out
			}
			if bucket != "" {
				cfg.Manifest.Bucket = bucket
			}
			if prefix != "" {
				cfg.Manifest.Prefix = prefix
			}

			tree, err := buildTree(cfg, cmd.ErrOrStderr(), opts)
			if err != nil {
				return err
			}
			m := manifest.Build(tree)

			if stdout {
				return m.Encode(cmd.OutOrStdout())
			}

			var (
				store manifest.Store
				name  = filepath.Base(cfg.ManifestPath())
				where string
			)
			if cfg.Manifest.Bucket != "" {
				client, err := manifest.NewS3Client(manifest.S3Config{
					Region:    cfg.Manifest.Region,
					Endpoint:  cfg.Manifest.Endpoint,
					PathStyle: cfg.Manifest.PathStyle,
				})
				if err != nil {
					return errors.New("F202").Wrap(err).WithDetail(err.Error()).
						WithSuggestion("Set AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY")
				}
				store = manifest.NewS3Store(client, cfg.Manifest.Bucket, cfg.Manifest.Prefix)
				where = "s3://" + cfg.Manifest.Bucket + "/" + filepath.ToSlash(filepath.Join(cfg.Manifest.Prefix, name))
			} else {
				store = manifest.FileStore{Dir: filepath.Dir(cfg.ManifestPath())}
				where = cfg.ManifestPath()
			}

			if err := manifest.Publish(cmd.Context(), store, name, m); err != nil {
				return errors.New("F202").Wrap(err).WithDetail(err.Error())
			}
			success(cmd.OutOrStdout(), "Wrote %d routes to %s", len(m.PageRoutes)+len(m.APIRoutes), where)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default from fsroute.json)")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "Print the manifest instead of publishing it")
	cmd.Flags().StringVar(&bucket, "bucket", "", "Publish to this S3 bucket")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Key prefix inside the S3 bucket")

	return cmd
}
