package dev

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/vango-dev/fsroute/pkg/loader"
	"github.com/vango-dev/fsroute/pkg/router"
)

// Purger drops cached modules. module.CachedLoader implements it.
type Purger interface {
	Purge()
}

// ReloaderConfig configures a Reloader.
type ReloaderConfig struct {
	// RoutesDir is the absolute routes directory.
	RoutesDir string

	// Scanner lists the entries below RoutesDir.
	Scanner *router.Scanner

	// Store receives rebuilt trees.
	Store *router.Store

	// Dependencies maps loader dependencies to the paths that read them.
	// Optional.
	Dependencies *loader.Registry

	// Modules is purged when a route file is edited. Optional.
	Modules Purger

	// Notifier receives outcomes. Optional.
	Notifier Notifier

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Reloader turns file changes into route rebuilds and loader data
// notifications. Adding, removing or renaming anything below the routes
// directory rebuilds the whole tree; writing a file a loader read notifies
// the paths that depend on it.
type Reloader struct {
	cfg    ReloaderConfig
	logger *slog.Logger
}

// NewReloader creates a reloader.
func NewReloader(cfg ReloaderConfig) *Reloader {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default().With("component", "reloader")
	}
	if cfg.Notifier == nil {
		cfg.Notifier = nopNotifier{}
	}
	return &Reloader{cfg: cfg, logger: logger}
}

// Rebuild rescans the routes directory and publishes a new tree. On
// failure the previous tree stays active and clients see the error.
func (r *Reloader) Rebuild() (*router.Tree, error) {
	entries, err := r.cfg.Scanner.Scan()
	if err != nil {
		r.cfg.Notifier.NotifyError(err.Error())
		return nil, err
	}
	tree, err := r.cfg.Store.Rebuild(entries)
	if err != nil {
		r.cfg.Notifier.NotifyError(strings.TrimSpace(router.FormatValidationError(err)))
		return nil, err
	}
	r.cfg.Notifier.ClearError()
	r.cfg.Notifier.NotifyRoutes(tree.Generation())
	return tree, nil
}

// HandleChanges applies one debounced batch of changes.
func (r *Reloader) HandleChanges(changes []Change) {
	rebuild, routeEdit := false, false
	for _, c := range changes {
		r.logger.Debug("file changed", "path", c.Path, "op", c.Op.String())
		if !r.inRoutes(c.Path) {
			continue
		}
		if c.Op.Structural() {
			rebuild = true
		} else {
			routeEdit = true
		}
	}

	if routeEdit && r.cfg.Modules != nil {
		r.cfg.Modules.Purge()
	}
	if rebuild {
		// A rebuild reloads every client, which covers data updates too.
		_, _ = r.Rebuild()
		return
	}

	if r.cfg.Dependencies == nil {
		return
	}
	for _, c := range changes {
		if c.Op != OpWrite {
			continue
		}
		paths := r.cfg.Dependencies.Affected(loader.FileKey(c.Path))
		if len(paths) == 0 {
			continue
		}
		r.logger.Info("loader data changed", "file", c.Path, "paths", paths)
		r.cfg.Notifier.NotifyData(paths, c.Path)
	}
}

func (r *Reloader) inRoutes(path string) bool {
	if r.cfg.RoutesDir == "" {
		return false
	}
	rel, err := filepath.Rel(r.cfg.RoutesDir, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	return rel != ".." && !strings.HasPrefix(rel, "../")
}

type nopNotifier struct{}

func (nopNotifier) NotifyRoutes(uint64) {}
func (nopNotifier) NotifyData([]string, string) {}
func (nopNotifier) NotifyError(string) {}
func (nopNotifier) ClearError() {}
