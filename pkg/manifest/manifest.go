// Package manifest serializes a route tree for consumers that do not link
// the router: edge servers, static hosts and client bundles.
//
// Every page, API and not-found route is described with a named regular
// expression and a key table mapping regex group names back to parameter
// names:
//
//	{
//	  "file": "blog/[slug].tsx",
//	  "pattern": "/blog/[slug]",
//	  "type": "ssr",
//	  "namedRegex": "^/blog/(?P<slug>[^/]+?)(?:/)?$",
//	  "urlPath": "/blog/:slug",
//	  "routeKeys": {"slug": "slug"}
//	}
package manifest

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/vango-dev/fsroute/pkg/router"
)

// Version is the manifest format version.
const Version = 1

// Route describes one routable leaf.
type Route struct {
	File        string            `json:"file"`
	Pattern     string            `json:"pattern"`
	Type        string            `json:"type"`
	NamedRegex  string            `json:"namedRegex"`
	URLPath     string            `json:"urlPath"`
	RouteKeys   map[string]string `json:"routeKeys"`
	Layouts     []string          `json:"layouts,omitempty"`
	Middlewares []string          `json:"middlewares,omitempty"`
	Platform    string            `json:"platform,omitempty"`
	IsNotFound  bool              `json:"isNotFound,omitempty"`
}

// StaticPath is one concrete path an ssg route is generated for.
type StaticPath struct {
	Pattern string            `json:"pattern"`
	Path    string            `json:"path"`
	Params  map[string]string `json:"params,omitempty"`
}

// Manifest is the serialized form of a route tree.
type Manifest struct {
	Version        int          `json:"version"`
	Generation     uint64       `json:"generation"`
	PageRoutes     []Route      `json:"pageRoutes"`
	APIRoutes      []Route      `json:"apiRoutes"`
	NotFoundRoutes []Route      `json:"notFoundRoutes"`
	StaticPaths    []StaticPath `json:"staticPaths,omitempty"`
}

// Build describes every leaf of t.
func Build(t *router.Tree) *Manifest {
	m := &Manifest{
		Version:        Version,
		Generation:     t.Generation(),
		PageRoutes:     []Route{},
		APIRoutes:      []Route{},
		NotFoundRoutes: []Route{},
	}
	for _, leaf := range t.Leaves() {
		r := describe(leaf)
		if leaf.IsAPI {
			m.APIRoutes = append(m.APIRoutes, r)
		} else {
			m.PageRoutes = append(m.PageRoutes, r)
		}
	}
	for _, leaf := range t.NotFounds() {
		m.NotFoundRoutes = append(m.NotFoundRoutes, describe(leaf))
	}
	return m
}

// Decode reads a manifest.
func Decode(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("manifest: decode: %w", err)
	}
	if m.Version != Version {
		return nil, fmt.Errorf("manifest: unsupported version %d", m.Version)
	}
	return &m, nil
}

// Encode writes m as indented JSON.
func (m *Manifest) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

// Compile compiles the route's named regex.
func (r Route) Compile() (*regexp.Regexp, error) {
	return regexp.Compile(r.NamedRegex)
}

// Params matches a decoded path against the route and returns the captured
// parameters by their original names.
func (r Route) Params(path string) (map[string]string, bool) {
	re, err := r.Compile()
	if err != nil {
		return nil, false
	}
	sub := re.FindStringSubmatch(path)
	if sub == nil {
		return nil, false
	}
	params := make(map[string]string, len(r.RouteKeys))
	for i, group := range re.SubexpNames() {
		if group == "" || sub[i] == "" {
			continue
		}
		if name, ok := r.RouteKeys[group]; ok {
			params[name] = sub[i]
		}
	}
	return params, true
}

func describe(leaf *router.Leaf) Route {
	typ := string(leaf.Mode)
	if leaf.IsAPI {
		typ = "api"
	}
	r := Route{
		File:       leaf.ModulePath,
		Pattern:    leaf.Pattern,
		Type:       typ,
		RouteKeys:  map[string]string{},
		Platform:   leaf.Platform,
		IsNotFound: leaf.IsNotFound,
	}
	for _, l := range router.ComposeLayouts(leaf) {
		r.Layouts = append(r.Layouts, l.ModulePath)
	}
	for _, mw := range router.ComposeMiddleware(leaf) {
		r.Middlewares = append(r.Middlewares, mw.ModulePath)
	}

	keys := &keyAllocator{used: r.RouteKeys}
	var re, url strings.Builder
	for _, n := range chain(leaf.Node()) {
		switch n.Kind() {
		case router.KindStatic:
			re.WriteString("/" + regexp.QuoteMeta(n.Segment()))
			url.WriteString("/" + n.Segment())
		case router.KindDynamic:
			fmt.Fprintf(&re, "/(?P<%s>[^/]+?)", keys.key(n.Param()))
			url.WriteString("/:" + n.Param())
		case router.KindCatchAll:
			fmt.Fprintf(&re, "/(?P<%s>.+?)", keys.key(n.Param()))
			url.WriteString("/*")
		case router.KindOptionalCatchAll:
			fmt.Fprintf(&re, "(?:/(?P<%s>.+?))?", keys.key(n.Param()))
			url.WriteString("/*")
		}
	}
	if leaf.IsNotFound {
		fmt.Fprintf(&re, "(?:/(?P<%s>.+?))?", keys.key("not-found"))
		url.WriteString("/*")
	}

	r.NamedRegex = "^" + re.String() + "(?:/)?$"
	r.URLPath = url.String()
	if r.URLPath == "" {
		r.URLPath = "/"
	}
	return r
}

// chain returns the nodes from below the root down to n.
func chain(n *router.RouteNode) []*router.RouteNode {
	var out []*router.RouteNode
	for ; n != nil && n.Parent() != nil; n = n.Parent() {
		out = append(out, n)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

var nonWord = regexp.MustCompile(`\W`)

// keyAllocator turns parameter names into regex group names. Names that
// are empty after cleaning, too long, start with a digit or collide get a
// generated key: a, b, ... z, aa, ab, ...
type keyAllocator struct {
	used map[string]string
	next int
}

func (k *keyAllocator) key(name string) string {
	key := nonWord.ReplaceAllString(name, "")
	_, taken := k.used[key]
	if key == "" || len(key) > 30 || (key[0] >= '0' && key[0] <= '9') || taken {
		key = k.generate()
	}
	k.used[key] = name
	return key
}

func (k *keyAllocator) generate() string {
	for {
		n := k.next
		k.next++
		var b []byte
		for {
			b = append([]byte{byte('a' + n%26)}, b...)
			n = n/26 - 1
			if n < 0 {
				break
			}
		}
		if _, taken := k.used[string(b)]; !taken {
			return string(b)
		}
	}
}
