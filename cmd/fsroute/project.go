package main

import (
	"io"
	"os"

	"github.com/vango-dev/fsroute/internal/config"
	"github.com/vango-dev/fsroute/internal/errors"
	"github.com/vango-dev/fsroute/pkg/router"
)

// loadConfig loads and validates the project configuration.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.dir != "" {
		root, ferr := config.FindProjectRoot(o.dir)
		if ferr != nil {
			return nil, ferr
		}
		cfg, err = config.Load(root)
	} else {
		cfg, err = config.LoadFromWorkingDir()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildTree scans the routes directory and builds a tree from it.
func buildTree(cfg *config.Config, logOut io.Writer, o *globalOptions) (*router.Tree, error) {
	routesDir := cfg.RoutesPath()
	if info, err := os.Stat(routesDir); err != nil || !info.IsDir() {
		return nil, errors.New("F105").
			WithDetail(routesDir + " does not exist or is not a directory").
			WithSuggestion("Create it or set routesDir in fsroute.json")
	}

	entries, err := router.NewScanner(os.DirFS(routesDir), ".", cfg.Ignore...).Scan()
	if err != nil {
		return nil, errors.New("F304").Wrap(err).WithDetail(err.Error())
	}

	opts := cfg.RouterOptions()
	opts.Logger = o.logger(logOut)
	builder, err := router.NewBuilder(opts)
	if err != nil {
		return nil, errors.FromError(err, "F100")
	}
	tree, err := router.NewStore(builder, opts.Logger).Rebuild(entries)
	if err != nil {
		return nil, errors.FromRouteError(err)
	}
	return tree, nil
}
