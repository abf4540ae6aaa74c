package dev

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/fsroute/internal/config"
	"github.com/vango-dev/fsroute/pkg/handler"
	"github.com/vango-dev/fsroute/pkg/loader"
	"github.com/vango-dev/fsroute/pkg/manifest"
	"github.com/vango-dev/fsroute/pkg/middleware"
	"github.com/vango-dev/fsroute/pkg/module"
	"github.com/vango-dev/fsroute/pkg/routepath"
	"github.com/vango-dev/fsroute/pkg/router"
)

// Inspector endpoints.
const (
	RoutesPath  = "/_fsroute/routes"
	MatchPath   = "/_fsroute/match"
	MetricsPath = "/_fsroute/metrics"
)

// ServerOptions configures the development server.
type ServerOptions struct {
	// Config is the project configuration.
	Config *config.Config

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Modules serves the routes through a dispatcher when set. Without it
	// only the inspector endpoints are mounted.
	Modules module.Loader

	// Renderer renders pages for the dispatcher.
	Renderer handler.Renderer

	// Registry collects metrics. Default: a new registry.
	Registry *prometheus.Registry
}

// Server is the development server: it keeps the route tree in sync with
// the routes directory and notifies browsers over the reload socket.
type Server struct {
	config       *config.Config
	options      ServerOptions
	logger       *slog.Logger
	store        *router.Store
	deps         *loader.Registry
	registry     *prometheus.Registry
	metrics      *middleware.Metrics
	watcher      *Watcher
	reloadServer *ReloadServer
	reloader     *Reloader
	httpServer   *http.Server
	mu           sync.Mutex
	running      bool
}

// NewServer creates a new development server.
func NewServer(options ServerOptions) (*Server, error) {
	cfg := options.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := cfg.RouterOptions()
	opts.Logger = logger.With("component", "router")
	builder, err := router.NewBuilder(opts)
	if err != nil {
		return nil, err
	}
	store := router.NewStore(builder, logger.With("component", "route-store"))

	registry := options.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	metrics := middleware.NewMetrics(
		middleware.WithNamespace(cfg.Metrics.Namespace),
		middleware.WithRegistry(registry),
	)
	store.OnRebuild(metrics.ObserveRebuild)

	s := &Server{
		config:   cfg,
		options:  options,
		logger:   logger,
		store:    store,
		deps:     loader.NewRegistry(),
		registry: registry,
		metrics:  metrics,
	}

	var notifier Notifier
	if cfg.HotReload() {
		s.reloadServer = NewReloadServer(logger.With("component", "reload"))
		notifier = s.reloadServer
	}
	var purger Purger
	if p, ok := options.Modules.(Purger); ok {
		purger = p
	}

	routesDir := cfg.RoutesPath()
	s.reloader = NewReloader(ReloaderConfig{
		RoutesDir:    routesDir,
		Scanner:      router.NewScanner(os.DirFS(routesDir), ".", cfg.Ignore...),
		Store:        store,
		Dependencies: s.deps,
		Modules:      purger,
		Notifier:     notifier,
		Logger:       logger.With("component", "reloader"),
	})

	debounce, _ := cfg.DebounceDuration()
	s.watcher = NewWatcher(WatcherConfig{
		Paths:    CollectWatchPaths(cfg),
		Ignore:   append(append([]string(nil), DefaultIgnore...), cfg.Dev.Ignore...),
		Debounce: debounce,
		Logger:   logger.With("component", "watcher"),
	})
	s.watcher.OnChange(s.reloader.HandleChanges)

	return s, nil
}

// Store returns the route store.
func (s *Server) Store() *router.Store { return s.store }

// Handler returns the dev server's HTTP handler.
func (s *Server) Handler() (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.OpenTelemetry(middleware.WithTracerName("fsroute-dev")))
	r.Use(s.metrics.Handler)

	r.Get(RoutesPath, s.handleRoutes)
	r.Get(MatchPath, s.handleMatch)
	r.Handle(MetricsPath, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	if s.reloadServer != nil {
		r.Get(ReloadPath, s.reloadServer.HandleWebSocket)
	}

	if s.options.Modules != nil {
		d, err := handler.New(handler.Config{
			Store:        s.store,
			Modules:      s.options.Modules,
			Renderer:     s.options.Renderer,
			Dependencies: s.deps,
			Coalescer:    &loader.Coalescer{},
			Observer:     s.metrics,
			Logger:       s.logger.With("component", "dispatcher"),
			Fresh:        true,
		})
		if err != nil {
			return nil, err
		}
		r.Handle("/*", d)
	}
	return r, nil
}

// Start builds the route tree, starts watching and serves until ctx is
// done. A failing initial build is reported but does not stop the server.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	if tree, err := s.reloader.Rebuild(); err != nil {
		s.logger.Error("initial route build failed", "error", err)
	} else {
		s.logger.Info("routes built", "routes", len(tree.Leaves()), "nodes", tree.NodeCount())
	}

	h, err := s.Handler()
	if err != nil {
		return err
	}

	go func() {
		if err := s.watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("watcher stopped", "error", err)
		}
	}()

	s.mu.Lock()
	s.httpServer = &http.Server{
		Addr:              s.config.DevAddress(),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("dev server running", "url", s.config.DevURL())

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.Stop()
		return nil
	case err := <-errCh:
		s.Stop()
		return err
	}
}

// Stop stops the development server.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.running = false
	s.watcher.Stop()
	if s.reloadServer != nil {
		s.reloadServer.Close()
	}

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(ctx)
	}
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	tree := s.store.Current()
	if tree == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no route tree published"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := manifest.Build(tree).Encode(w); err != nil {
		s.logger.Error("routes encode failed", "error", err)
	}
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	target, err := router.ParseTarget(r.URL.Query().Get("target"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	n, err := routepath.Normalize(r.URL.Query().Get("path"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	m, err := s.store.Match(n.Decoded, target)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error(), "path": n.Decoded})
		return
	}
	writeJSON(w, http.StatusOK, NewMatchReport(n.Decoded, m))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
