package handler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/fsroute/pkg/loader"
	"github.com/vango-dev/fsroute/pkg/module"
	"github.com/vango-dev/fsroute/pkg/routepath"
	"github.com/vango-dev/fsroute/pkg/router"
)

const defaultTracerName = "fsroute"

// Config configures a Dispatcher.
type Config struct {
	// Store holds the published route tree. Required.
	Store *router.Store

	// Modules loads route modules. Required.
	Modules module.Loader

	// Renderer renders pages. Required unless the tree only has API routes.
	Renderer Renderer

	// Artifacts serves prebuilt ssg pages. Optional.
	Artifacts ArtifactSource

	// Dependencies records loader dependencies per request path. Optional.
	Dependencies *loader.Registry

	// Coalescer shares in-flight loader runs between identical requests
	// without cookies or an Authorization header. Optional.
	Coalescer *loader.Coalescer

	// Observer receives match and loader measurements. Optional.
	Observer Observer

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Fresh loads modules with LoadFresh so that edits are picked up.
	Fresh bool

	// TracerName is the OpenTelemetry tracer name (default: "fsroute").
	TracerName string
}

// Dispatcher is an http.Handler serving a route tree.
type Dispatcher struct {
	cfg    Config
	logger *slog.Logger
	tracer trace.Tracer
}

// New creates a dispatcher.
func New(cfg Config) (*Dispatcher, error) {
	if cfg.Store == nil {
		return nil, errors.New("handler: Store is required")
	}
	if cfg.Modules == nil {
		return nil, errors.New("handler: Modules is required")
	}
	if cfg.TracerName == "" {
		cfg.TracerName = defaultTracerName
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default().With("component", "dispatcher")
	}
	return &Dispatcher{
		cfg:    cfg,
		logger: logger,
		tracer: otel.Tracer(cfg.TracerName),
	}, nil
}

// ServeHTTP implements http.Handler.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := d.tracer.Start(r.Context(), "fsroute.dispatch",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("fsroute.path", r.URL.Path),
		))
	defer span.End()
	r = r.WithContext(ctx)

	n, err := routepath.Normalize(r.URL.EscapedPath())
	if err != nil {
		span.RecordError(err)
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}
	if n.Changed {
		target := n.Path
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, http.StatusPermanentRedirect)
		return
	}

	start := time.Now()
	m, err := d.cfg.Store.Match(n.Decoded, router.TargetAny)
	d.observeMatch(m, time.Since(start))
	if err != nil {
		if !errors.Is(err, router.ErrNoRouteMatched) {
			d.fail(w, span, "route match failed", err)
			return
		}
		span.SetAttributes(attribute.Bool("fsroute.matched", false))
		d.notFound(w, r)
		return
	}

	span.SetAttributes(
		attribute.Bool("fsroute.matched", true),
		attribute.String("fsroute.route", m.Leaf.Pattern),
		attribute.String("fsroute.mode", string(m.Mode)),
		attribute.Bool("fsroute.not_found", m.IsNotFoundFallback),
		attribute.Int64("fsroute.generation", int64(m.Generation)),
	)
	r = r.WithContext(withMatch(ctx, m))

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Leaf.IsAPI {
			d.serveAPI(w, r, m)
			return
		}
		d.servePage(w, r, n, m)
	})

	h, err := d.chain(r.Context(), m, final)
	if err != nil {
		d.fail(w, span, "middleware load failed", err)
		return
	}
	h.ServeHTTP(w, r)
}

// chain wraps h in the match's middleware, the root folder outermost.
func (d *Dispatcher) chain(ctx context.Context, m *router.RouteMatch, h http.Handler) (http.Handler, error) {
	for i := len(m.Middleware) - 1; i >= 0; i-- {
		mod, err := d.load(ctx, m.Middleware[i].ModulePath)
		if err != nil {
			return nil, err
		}
		for j := len(mod.Middleware) - 1; j >= 0; j-- {
			h = mod.Middleware[j](h)
		}
	}
	return h, nil
}

func (d *Dispatcher) serveAPI(w http.ResponseWriter, r *http.Request, m *router.RouteMatch) {
	span := trace.SpanFromContext(r.Context())

	mod, err := d.load(r.Context(), m.Leaf.ModulePath)
	if err != nil {
		d.fail(w, span, "api module load failed", err)
		return
	}
	h, ok := mod.Handler(r.Method)
	if !ok {
		w.Header().Set("Allow", allowHeader(mod.Methods()))
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	h.ServeHTTP(w, r)
}

func (d *Dispatcher) servePage(w http.ResponseWriter, r *http.Request, n routepath.Normalized, m *router.RouteMatch) {
	ctx := r.Context()
	span := trace.SpanFromContext(ctx)

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	status := http.StatusOK
	if m.IsNotFoundFallback {
		status = http.StatusNotFound
	}

	if m.Mode == router.ModeSSG && d.cfg.Artifacts != nil && !m.IsNotFoundFallback {
		body, err := d.cfg.Artifacts.Artifact(ctx, n.Decoded)
		switch {
		case err == nil:
			span.SetAttributes(attribute.Bool("fsroute.artifact", true))
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(status)
			if r.Method != http.MethodHead {
				_, _ = w.Write(body)
			}
			return
		case !errors.Is(err, fs.ErrNotExist):
			d.logger.Warn("artifact read failed, rendering instead",
				"path", n.Decoded,
				"error", err)
		}
	}

	if d.cfg.Renderer == nil {
		d.fail(w, span, "no renderer configured", fmt.Errorf("handler: cannot render %s", m.Leaf.Pattern))
		return
	}

	page := &Page{
		Path:   n.Decoded,
		Match:  m,
		Shell:  m.Mode == router.ModeSPA,
		Status: status,
	}

	mod, err := d.load(ctx, m.Leaf.ModulePath)
	if err != nil {
		d.fail(w, span, "page module load failed", err)
		return
	}
	page.Module = mod

	for _, l := range m.Layouts {
		layout, err := d.load(ctx, l.ModulePath)
		if err != nil {
			d.fail(w, span, "layout module load failed", err)
			return
		}
		page.Layouts = append(page.Layouts, layout)
	}

	if !page.Shell && mod.Loader != nil {
		res, err := d.runLoader(r, n, m, mod.Loader)
		if errors.Is(err, loader.ErrDiscarded) && ctx.Err() != nil {
			d.logger.Debug("loader discarded", "path", n.Decoded, "error", err)
			return
		}
		if err != nil {
			d.fail(w, span, "loader failed", err)
			return
		}
		page.Data = res.Value
		page.Dependencies = res.Dependencies
	}

	if err := d.cfg.Renderer.RenderPage(w, r, page); err != nil {
		d.fail(w, span, "render failed", err)
	}
}

func (d *Dispatcher) runLoader(r *http.Request, n routepath.Normalized, m *router.RouteMatch, fn module.LoaderFunc) (*loader.Result, error) {
	props := module.LoaderProps{
		Path:    n.Decoded,
		Params:  m.Params,
		Request: r,
	}
	body := func(ctx context.Context) (any, error) {
		return fn(ctx, props)
	}

	start := time.Now()
	var (
		res *loader.Result
		err error
	)
	if d.cfg.Coalescer != nil && coalescable(r) {
		key := n.Path
		if r.URL.RawQuery != "" {
			key += "?" + r.URL.RawQuery
		}
		res, _, err = d.cfg.Coalescer.Track(r.Context(), key, body)
	} else {
		res, err = loader.Track(r.Context(), body)
	}
	if d.cfg.Observer != nil {
		deps := 0
		if res != nil {
			deps = len(res.Dependencies)
		}
		d.cfg.Observer.ObserveLoader(m.Leaf.Pattern, deps, err, time.Since(start))
	}
	if err != nil {
		return nil, err
	}

	if d.cfg.Dependencies != nil {
		d.cfg.Dependencies.Record(n.Decoded, res.Dependencies)
	}
	return res, nil
}

func (d *Dispatcher) load(ctx context.Context, path string) (*module.Module, error) {
	if d.cfg.Fresh {
		return d.cfg.Modules.LoadFresh(ctx, path)
	}
	return d.cfg.Modules.Load(ctx, path)
}

func (d *Dispatcher) notFound(w http.ResponseWriter, r *http.Request) {
	if nf, ok := d.cfg.Renderer.(NotFoundRenderer); ok {
		err := nf.RenderNotFound(w, r)
		if err == nil {
			return
		}
		d.logger.Error("not-found render failed", "path", r.URL.Path, "error", err)
	}
	http.NotFound(w, r)
}

func (d *Dispatcher) fail(w http.ResponseWriter, span trace.Span, msg string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	d.logger.Error(msg, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func (d *Dispatcher) observeMatch(m *router.RouteMatch, elapsed time.Duration) {
	if d.cfg.Observer == nil {
		return
	}
	switch {
	case m == nil:
		d.cfg.Observer.ObserveMatch("", OutcomeNoMatch, elapsed)
	case m.IsNotFoundFallback:
		d.cfg.Observer.ObserveMatch(m.Leaf.Pattern, OutcomeFallback, elapsed)
	default:
		d.cfg.Observer.ObserveMatch(m.Leaf.Pattern, OutcomeMatched, elapsed)
	}
}

// coalescable reports whether r may share a loader run with identical
// requests. Requests carrying credentials never do: the shared run sees
// only the first caller's request.
func coalescable(r *http.Request) bool {
	return r.Header.Get("Cookie") == "" && r.Header.Get("Authorization") == ""
}

// allowHeader lists methods for an Allow header, adding HEAD when GET is
// served.
func allowHeader(methods []string) string {
	hasGet, hasHead := false, false
	for _, m := range methods {
		hasGet = hasGet || m == http.MethodGet
		hasHead = hasHead || m == http.MethodHead
	}
	if hasGet && !hasHead {
		methods = append(methods, http.MethodHead)
	}
	return strings.Join(methods, ", ")
}
