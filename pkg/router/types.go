package router

// Leaf is a routable module attached to a URL node: a page, an API
// handler, or a not-found fallback.
type Leaf struct {
	// ModulePath is the source entry path relative to the routes root.
	ModulePath string

	// Pattern is the URL pattern with groups removed (e.g. "/blog/[slug]").
	Pattern string

	// Mode is the effective rendering mode resolved at build time against
	// the builder's default mode.
	Mode Mode

	// Suffix is the explicit +mode on the leaf file, or "".
	Suffix Mode

	// DirMode is the innermost directory +mode on the leaf's folder chain, or "".
	DirMode Mode

	// IsAPI marks request/response handler leaves.
	IsAPI bool

	// IsNotFound marks +not-found descriptors.
	IsNotFound bool

	// LoaderRef is the module key whose loader feeds this leaf. Empty for
	// API leaves.
	LoaderRef string

	// Params are the parameter names captured along the pattern, in order.
	Params []string

	// Platform is the platform extension the leaf was selected with, or "".
	Platform string

	// Dir is the declaring directory.
	Dir *Directory

	node *RouteNode
}

// Node returns the URL node the leaf is attached to.
func (l *Leaf) Node() *RouteNode { return l.node }

// Directory is one folder of the route file tree, groups included. Layout
// and middleware descriptors hang off directories rather than URL nodes so
// that group folders can contribute them.
type Directory struct {
	// Path is the folder path relative to the routes root ("" for the root).
	Path string

	// Parent is nil for the root directory.
	Parent *Directory

	// Layout is the _layout declared in this folder, if any.
	Layout *LayoutDescriptor

	// Middleware is the _middleware declared in this folder, if any.
	Middleware *MiddlewareDescriptor

	// Mode is the +mode suffix on this folder's name, or "".
	Mode Mode

	node *RouteNode
}

// Node returns the URL node this directory maps to.
func (d *Directory) Node() *RouteNode { return d.node }

// LayoutDescriptor references a layout module.
type LayoutDescriptor struct {
	ModulePath string
	Directory  string
}

// MiddlewareDescriptor references a middleware module.
type MiddlewareDescriptor struct {
	ModulePath string
	Directory  string
}

// RouteMatch is the result of matching a path against a tree.
type RouteMatch struct {
	// Leaf is the matched page, API or not-found leaf.
	Leaf *Leaf

	// Params are the captured parameters. Keys are unique.
	Params map[string]string

	// Layouts are the layout descriptors from root to leaf.
	Layouts []LayoutDescriptor

	// Middleware are the middleware descriptors from root to leaf.
	Middleware []MiddlewareDescriptor

	// Mode is the resolved rendering mode.
	Mode Mode

	// IsNotFoundFallback is set when Leaf is an inherited +not-found.
	IsNotFoundFallback bool

	// Generation is the snapshot generation the match was computed against.
	Generation uint64
}

// Clone returns a copy whose maps and slices can be modified freely.
func (m *RouteMatch) Clone() *RouteMatch {
	if m == nil {
		return nil
	}
	c := *m
	c.Params = make(map[string]string, len(m.Params))
	for k, v := range m.Params {
		c.Params[k] = v
	}
	c.Layouts = append([]LayoutDescriptor(nil), m.Layouts...)
	c.Middleware = append([]MiddlewareDescriptor(nil), m.Middleware...)
	return &c
}
