package manifest

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/vango-dev/fsroute/pkg/router"
)

func buildTree(t *testing.T, entries ...string) *router.Tree {
	t.Helper()
	b, err := router.NewBuilder(router.Options{})
	if err != nil {
		t.Fatal(err)
	}
	tree, err := b.Build(entries)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return tree
}

func findRoute(routes []Route, pattern string) (Route, bool) {
	for _, r := range routes {
		if r.Pattern == pattern {
			return r, true
		}
	}
	return Route{}, false
}

func TestBuildDescribesRoutes(t *testing.T) {
	tree := buildTree(t,
		"_layout.tsx",
		"index.tsx",
		"blog/[slug].tsx",
		"blog/+not-found.tsx",
		"docs/[[...path]]+ssg.tsx",
		"files/[...rest].tsx",
		"api/_middleware.go",
		"api/users/[id]+api.go",
	)
	m := Build(tree)

	if m.Version != Version {
		t.Errorf("Version = %d, want %d", m.Version, Version)
	}
	if len(m.PageRoutes) != 4 || len(m.APIRoutes) != 1 || len(m.NotFoundRoutes) != 1 {
		t.Fatalf("routes = %d/%d/%d, want 4/1/1", len(m.PageRoutes), len(m.APIRoutes), len(m.NotFoundRoutes))
	}

	tests := []struct {
		routes  []Route
		pattern string
		typ     string
		regex   string
		urlPath string
		keys    map[string]string
	}{
		{m.PageRoutes, "/", "ssr", "^(?:/)?$", "/", map[string]string{}},
		{m.PageRoutes, "/blog/[slug]", "ssr", "^/blog/(?P<slug>[^/]+?)(?:/)?$", "/blog/:slug", map[string]string{"slug": "slug"}},
		{m.PageRoutes, "/docs/[[...path]]", "ssg", "^/docs(?:/(?P<path>.+?))?(?:/)?$", "/docs/*", map[string]string{"path": "path"}},
		{m.PageRoutes, "/files/[...rest]", "ssr", "^/files/(?P<rest>.+?)(?:/)?$", "/files/*", map[string]string{"rest": "rest"}},
		{m.APIRoutes, "/api/users/[id]", "api", "^/api/users/(?P<id>[^/]+?)(?:/)?$", "/api/users/:id", map[string]string{"id": "id"}},
		{m.NotFoundRoutes, "/blog", "ssr", "^/blog(?:/(?P<notfound>.+?))?(?:/)?$", "/blog/*", map[string]string{"notfound": "not-found"}},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			r, ok := findRoute(tt.routes, tt.pattern)
			if !ok {
				t.Fatalf("route %s missing", tt.pattern)
			}
			if r.Type != tt.typ {
				t.Errorf("Type = %q, want %q", r.Type, tt.typ)
			}
			if r.NamedRegex != tt.regex {
				t.Errorf("NamedRegex = %q, want %q", r.NamedRegex, tt.regex)
			}
			if r.URLPath != tt.urlPath {
				t.Errorf("URLPath = %q, want %q", r.URLPath, tt.urlPath)
			}
			if !reflect.DeepEqual(r.RouteKeys, tt.keys) {
				t.Errorf("RouteKeys = %v, want %v", r.RouteKeys, tt.keys)
			}
			if _, err := r.Compile(); err != nil {
				t.Errorf("Compile() error = %v", err)
			}
		})
	}

	api, _ := findRoute(m.APIRoutes, "/api/users/[id]")
	if !reflect.DeepEqual(api.Middlewares, []string{"api/_middleware.go"}) {
		t.Errorf("Middlewares = %v", api.Middlewares)
	}
	if len(api.Layouts) != 0 {
		t.Errorf("API Layouts = %v, want none", api.Layouts)
	}
	blog, _ := findRoute(m.PageRoutes, "/blog/[slug]")
	if !reflect.DeepEqual(blog.Layouts, []string{"_layout.tsx"}) {
		t.Errorf("Layouts = %v", blog.Layouts)
	}
}

func TestRouteParams(t *testing.T) {
	m := Build(buildTree(t, "shop/[category]/[...rest].tsx", "docs/[[...path]].tsx"))

	shop, _ := findRoute(m.PageRoutes, "/shop/[category]/[...rest]")
	params, ok := shop.Params("/shop/shoes/a/b")
	if !ok {
		t.Fatal("Params() did not match")
	}
	want := map[string]string{"category": "shoes", "rest": "a/b"}
	if !reflect.DeepEqual(params, want) {
		t.Errorf("Params() = %v, want %v", params, want)
	}
	if _, ok := shop.Params("/shop/shoes"); ok {
		t.Error("catch-all matched without a value")
	}

	docs, _ := findRoute(m.PageRoutes, "/docs/[[...path]]")
	if params, ok := docs.Params("/docs"); !ok || len(params) != 0 {
		t.Errorf("Params(/docs) = %v, %v; want empty match", params, ok)
	}
}

func TestKeyAllocator(t *testing.T) {
	k := &keyAllocator{used: map[string]string{}}

	tests := []struct {
		name string
		want string
	}{
		{"slug", "slug"},
		{"post-id", "postid"},
		{"1st", "a"},
		{"slug", "b"},
		{"---", "c"},
		{strings.Repeat("x", 31), "d"},
	}
	for _, tt := range tests {
		if got := k.key(tt.name); got != tt.want {
			t.Errorf("key(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
	if k.used["postid"] != "post-id" {
		t.Errorf("used[postid] = %q", k.used["postid"])
	}
}

func TestKeyAllocatorGenerateSequence(t *testing.T) {
	k := &keyAllocator{used: map[string]string{}}
	var got []string
	for i := 0; i < 28; i++ {
		got = append(got, k.generate())
	}
	if got[0] != "a" || got[25] != "z" || got[26] != "aa" || got[27] != "ab" {
		t.Errorf("generate() sequence = %v", got)
	}
}

func TestEncodeDecode(t *testing.T) {
	m := Build(buildTree(t, "index.tsx", "about+ssg.tsx"))

	var buf bytes.Buffer
	if err := m.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(got.PageRoutes) != 2 {
		t.Errorf("PageRoutes = %v", got.PageRoutes)
	}

	if _, err := Decode(strings.NewReader(`{"version": 99}`)); err == nil {
		t.Error("Decode() accepted an unknown version")
	}
}
