// Package module describes route modules and how they are imported.
//
// A route file resolves to a Module through an Importer. The Loader
// capability sits in front of the importer: FreshLoader re-imports a
// module on every LoadFresh call by appending a uniqueness token to the
// import key, while CachedLoader serves the already-loaded instance on
// platforms that cannot re-import.
package module

import (
	"context"
	"net/http"
	"sort"
	"strings"
)

// Component is an opaque renderable value produced by a route module.
type Component any

// Props are handed to page and layout render functions.
type Props struct {
	// Path is the normalized request path.
	Path string

	// Params are the captured route parameters.
	Params map[string]string

	// Data is the loader payload, nil when no loader ran.
	Data any

	// Request is nil during build-time rendering.
	Request *http.Request
}

// RenderFunc renders a page.
type RenderFunc func(ctx context.Context, props Props) (Component, error)

// HeadFunc computes document head metadata for a page.
type HeadFunc func(ctx context.Context, props Props) HeadDescriptor

// HeadDescriptor contains page metadata for SEO.
type HeadDescriptor struct {
	Title       string
	Description string
	Keywords    []string
	OGImage     string
	OGTitle     string
	OGDesc      string
	Canonical   string
	Robots      string
}

// Page pairs a render function with its head metadata.
type Page struct {
	Render RenderFunc
	Head   HeadFunc
}

// LayoutFunc wraps already rendered child content.
type LayoutFunc func(ctx context.Context, props Props, child Component) (Component, error)

// LoaderProps are handed to a route's data loader.
type LoaderProps struct {
	Path    string
	Params  map[string]string
	Request *http.Request
}

// LoaderFunc loads the data a page renders.
type LoaderFunc func(ctx context.Context, props LoaderProps) (any, error)

// StaticParamsFunc enumerates the parameter sets a statically generated
// page is built for.
type StaticParamsFunc func(ctx context.Context) ([]map[string]string, error)

// Module is the loaded form of one route file. Which fields are set
// depends on the file's role: pages set Page (and optionally Loader and
// StaticParams), layouts set Layout, API routes set Handlers and
// _middleware files set Middleware.
type Module struct {
	// Path is the import key without uniqueness token.
	Path string

	Page         *Page
	Layout       LayoutFunc
	Loader       LoaderFunc
	StaticParams StaticParamsFunc

	// Handlers maps HTTP methods to handlers for API routes.
	Handlers map[string]http.Handler

	// Middleware wraps the handling of every route below the declaring folder.
	Middleware []func(http.Handler) http.Handler
}

// Methods returns the HTTP methods with a handler, sorted.
func (m *Module) Methods() []string {
	methods := make([]string, 0, len(m.Handlers))
	for method := range m.Handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return methods
}

// Handler returns the handler for method. HEAD falls back to GET.
func (m *Module) Handler(method string) (http.Handler, bool) {
	method = strings.ToUpper(method)
	if h, ok := m.Handlers[method]; ok {
		return h, true
	}
	if method == http.MethodHead {
		h, ok := m.Handlers[http.MethodGet]
		return h, ok
	}
	return nil, false
}
