package handler

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/vango-dev/fsroute/pkg/module"
	"github.com/vango-dev/fsroute/pkg/router"
)

// Renderer turns a resolved page into a response. Implementations write
// Page.Status.
type Renderer interface {
	RenderPage(w http.ResponseWriter, r *http.Request, page *Page) error
}

// NotFoundRenderer is implemented by renderers that produce their own
// response when no route matches at all.
type NotFoundRenderer interface {
	RenderNotFound(w http.ResponseWriter, r *http.Request) error
}

// ArtifactSource serves prebuilt ssg output. Artifact returns an error
// matching fs.ErrNotExist when path was not generated.
type ArtifactSource interface {
	Artifact(ctx context.Context, path string) ([]byte, error)
}

// Match outcomes reported to an Observer.
const (
	OutcomeMatched  = "matched"
	OutcomeFallback = "not_found_fallback"
	OutcomeNoMatch  = "no_match"
)

// Observer receives dispatch measurements.
type Observer interface {
	ObserveMatch(route, outcome string, elapsed time.Duration)
	ObserveLoader(route string, deps int, err error, elapsed time.Duration)
}

// Page is everything a Renderer needs to produce a page response.
type Page struct {
	// Path is the normalized, decoded request path.
	Path string

	// Match is the route match the page was resolved from.
	Match *router.RouteMatch

	// Module is the page module.
	Module *module.Module

	// Layouts are the loaded layout modules, root first.
	Layouts []*module.Module

	// Data is the loader payload. Nil for spa shells and pages without a loader.
	Data any

	// Dependencies are the keys the loader read.
	Dependencies []string

	// Shell is set for spa pages: render a shell, the client loads data.
	Shell bool

	// Status is the response status: 200, or 404 for not-found fallbacks.
	Status int
}

// Props returns the render props for the page.
func (p *Page) Props(r *http.Request) module.Props {
	return module.Props{
		Path:    p.Path,
		Params:  p.Match.Params,
		Data:    p.Data,
		Request: r,
	}
}

// Render renders the page module and wraps it in its layouts, innermost
// first.
func (p *Page) Render(ctx context.Context, r *http.Request) (module.Component, error) {
	if p.Module == nil || p.Module.Page == nil || p.Module.Page.Render == nil {
		return nil, errors.New("handler: page module has no render function")
	}
	props := p.Props(r)
	out, err := p.Module.Page.Render(ctx, props)
	if err != nil {
		return nil, err
	}
	for i := len(p.Layouts) - 1; i >= 0; i-- {
		layout := p.Layouts[i]
		if layout == nil || layout.Layout == nil {
			continue
		}
		if out, err = layout.Layout(ctx, props, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Head returns the page's head metadata, or the zero value when the page
// declares none.
func (p *Page) Head(ctx context.Context, r *http.Request) module.HeadDescriptor {
	if p.Module == nil || p.Module.Page == nil || p.Module.Page.Head == nil {
		return module.HeadDescriptor{}
	}
	return p.Module.Page.Head(ctx, p.Props(r))
}

// FSArtifacts serves ssg output written as <path>/index.html below an fs.FS.
type FSArtifacts struct {
	FS fs.FS
}

// Artifact implements ArtifactSource.
func (a FSArtifacts) Artifact(_ context.Context, urlPath string) ([]byte, error) {
	return fs.ReadFile(a.FS, ArtifactName(urlPath))
}

// ArtifactName maps a URL path to the file an ssg build writes for it.
func ArtifactName(urlPath string) string {
	p := strings.Trim(path.Clean("/"+urlPath), "/")
	if p == "" {
		return "index.html"
	}
	return p + "/index.html"
}

type matchKey struct{}

func withMatch(ctx context.Context, m *router.RouteMatch) context.Context {
	return context.WithValue(ctx, matchKey{}, m)
}

// MatchFromContext returns the route match of the request being
// dispatched, or nil outside a dispatch.
func MatchFromContext(ctx context.Context) *router.RouteMatch {
	m, _ := ctx.Value(matchKey{}).(*router.RouteMatch)
	return m
}

// Param returns the named route parameter of r, or "".
func Param(r *http.Request, name string) string {
	if m := MatchFromContext(r.Context()); m != nil {
		return m.Params[name]
	}
	return ""
}
