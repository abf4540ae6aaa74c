package router

import (
	"errors"
	"reflect"
	"testing"
)

func TestMatchSpecificityOrder(t *testing.T) {
	tree := buildTree(t, Options{},
		"a/b.tsx",
		"a/[id].tsx",
		"a/[...rest].tsx",
	)

	tests := []struct {
		path   string
		module string
		params map[string]string
	}{
		{"/a/b", "a/b.tsx", map[string]string{}},
		{"/a/x", "a/[id].tsx", map[string]string{"id": "x"}},
		{"/a/x/y", "a/[...rest].tsx", map[string]string{"rest": "x/y"}},
		{"/a/b/c", "a/[...rest].tsx", map[string]string{"rest": "b/c"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			m, err := tree.Match(tt.path, TargetAny)
			if err != nil {
				t.Fatalf("Match(%q) error = %v", tt.path, err)
			}
			if m.Leaf.ModulePath != tt.module {
				t.Errorf("Leaf = %q, want %q", m.Leaf.ModulePath, tt.module)
			}
			if !reflect.DeepEqual(m.Params, tt.params) {
				t.Errorf("Params = %v, want %v", m.Params, tt.params)
			}
			if m.IsNotFoundFallback {
				t.Error("IsNotFoundFallback = true")
			}
		})
	}
}

func TestMatchCatchAllRequiresNonEmptySuffix(t *testing.T) {
	tree := buildTree(t, Options{}, "docs/[...rest].tsx")

	if _, err := tree.Match("/docs", TargetAny); !errors.Is(err, ErrNoRouteMatched) {
		t.Errorf("Match(/docs) error = %v, want ErrNoRouteMatched", err)
	}
}

func TestMatchOptionalCatchAll(t *testing.T) {
	tree := buildTree(t, Options{}, "docs/[[...slug]].tsx")

	tests := []struct {
		path   string
		params map[string]string
	}{
		{"/docs", map[string]string{}},
		{"/docs/a", map[string]string{"slug": "a"}},
		{"/docs/a/b/c", map[string]string{"slug": "a/b/c"}},
	}
	for _, tt := range tests {
		m, err := tree.Match(tt.path, TargetPage)
		if err != nil {
			t.Fatalf("Match(%q) error = %v", tt.path, err)
		}
		if !reflect.DeepEqual(m.Params, tt.params) {
			t.Errorf("Match(%q).Params = %v, want %v", tt.path, m.Params, tt.params)
		}
	}
}

func TestMatchIndexBeatsOptionalCatchAll(t *testing.T) {
	tree := buildTree(t, Options{}, "docs/index.tsx", "docs/[[...slug]].tsx")

	m, err := tree.Match("/docs", TargetPage)
	if err != nil {
		t.Fatal(err)
	}
	if m.Leaf.ModulePath != "docs/index.tsx" {
		t.Errorf("Leaf = %q, want docs/index.tsx", m.Leaf.ModulePath)
	}
}

func TestMatchBacktracking(t *testing.T) {
	tree := buildTree(t, Options{},
		// static branch that dead-ends two levels down
		"shop/sale/items/special.tsx",
		// dynamic sibling that succeeds
		"shop/[category]/items/[item].tsx",
		// catch-all sibling reachable only after both fail
		"shop/[...path].tsx",
		// deep mixed siblings
		"x/[a]/y/z.tsx",
		"x/lit/[b]/w.tsx",
		"x/lit/y/c.tsx",
	)

	tests := []struct {
		path   string
		module string
		params map[string]string
	}{
		{"/shop/sale/items/special", "shop/sale/items/special.tsx", map[string]string{}},
		{"/shop/sale/items/42", "shop/[category]/items/[item].tsx", map[string]string{"category": "sale", "item": "42"}},
		{"/shop/toys/items/7", "shop/[category]/items/[item].tsx", map[string]string{"category": "toys", "item": "7"}},
		{"/shop/sale/other", "shop/[...path].tsx", map[string]string{"path": "sale/other"}},
		{"/shop/sale/items/42/more", "shop/[...path].tsx", map[string]string{"path": "sale/items/42/more"}},
		{"/x/lit/y/c", "x/lit/y/c.tsx", map[string]string{}},
		{"/x/lit/q/w", "x/lit/[b]/w.tsx", map[string]string{"b": "q"}},
		{"/x/lit/y/w", "x/lit/[b]/w.tsx", map[string]string{"b": "y"}},
		// static lit and dynamic [b] both fail at the last level
		{"/x/lit/y/z", "x/[a]/y/z.tsx", map[string]string{"a": "lit"}},
		{"/x/other/y/z", "x/[a]/y/z.tsx", map[string]string{"a": "other"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			m, err := tree.Match(tt.path, TargetPage)
			if err != nil {
				t.Fatalf("Match(%q) error = %v", tt.path, err)
			}
			if m.Leaf.ModulePath != tt.module {
				t.Errorf("Leaf = %q, want %q", m.Leaf.ModulePath, tt.module)
			}
			if !reflect.DeepEqual(m.Params, tt.params) {
				t.Errorf("Params = %v, want %v", m.Params, tt.params)
			}
		})
	}
}

func TestMatchBacktrackingAcrossDynamicSiblings(t *testing.T) {
	tree := buildTree(t, Options{},
		"[a]/one.tsx",
		"[b]/two.tsx",
		"[c]/[d]/three.tsx",
	)

	tests := []struct {
		path   string
		module string
		params map[string]string
	}{
		{"/v/one", "[a]/one.tsx", map[string]string{"a": "v"}},
		{"/v/two", "[b]/two.tsx", map[string]string{"b": "v"}},
		{"/v/w/three", "[c]/[d]/three.tsx", map[string]string{"c": "v", "d": "w"}},
	}
	for _, tt := range tests {
		m, err := tree.Match(tt.path, TargetPage)
		if err != nil {
			t.Fatalf("Match(%q) error = %v", tt.path, err)
		}
		if m.Leaf.ModulePath != tt.module {
			t.Errorf("Match(%q).Leaf = %q, want %q", tt.path, m.Leaf.ModulePath, tt.module)
		}
		if !reflect.DeepEqual(m.Params, tt.params) {
			t.Errorf("Match(%q).Params = %v, want %v (no leaked params)", tt.path, m.Params, tt.params)
		}
	}
}

func TestMatchGroupsTransparent(t *testing.T) {
	grouped := buildTree(t, Options{},
		"(marketing)/_layout.tsx",
		"(marketing)/about.tsx",
	)
	plain := buildTree(t, Options{},
		"(marketing)/_layout.tsx",
		"about.tsx",
	)

	g, err := grouped.Match("/about", TargetPage)
	if err != nil {
		t.Fatal(err)
	}
	p, err := plain.Match("/about", TargetPage)
	if err != nil {
		t.Fatal(err)
	}

	if len(g.Params) != 0 || len(p.Params) != 0 {
		t.Errorf("Params = %v / %v, want empty", g.Params, p.Params)
	}
	if g.Leaf.Pattern != "/about" || p.Leaf.Pattern != "/about" {
		t.Errorf("Pattern = %q / %q, want /about", g.Leaf.Pattern, p.Leaf.Pattern)
	}
	want := []LayoutDescriptor{{ModulePath: "(marketing)/_layout.tsx", Directory: "(marketing)"}}
	if !reflect.DeepEqual(g.Layouts, want) {
		t.Errorf("grouped Layouts = %v, want %v", g.Layouts, want)
	}
	if len(p.Layouts) != 0 {
		t.Errorf("plain Layouts = %v, want none", p.Layouts)
	}
}

func TestMatchNotFoundInheritance(t *testing.T) {
	tree := buildTree(t, Options{},
		"docs/index.tsx",
		"docs/+not-found.tsx",
		"docs/a/+not-found.tsx",
		"docs/a/page.tsx",
	)

	tests := []struct {
		path     string
		notFound string
	}{
		{"/docs/missing", "docs/+not-found.tsx"},
		{"/docs/b/c/missing", "docs/+not-found.tsx"},
		{"/docs/a/missing", "docs/a/+not-found.tsx"},
		{"/docs/a/x/y/z", "docs/a/+not-found.tsx"},
		{"/docs/a", "docs/a/+not-found.tsx"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			m, err := tree.Match(tt.path, TargetPage)
			if err != nil {
				t.Fatalf("Match(%q) error = %v", tt.path, err)
			}
			if !m.IsNotFoundFallback {
				t.Error("IsNotFoundFallback = false")
			}
			if m.Leaf.ModulePath != tt.notFound {
				t.Errorf("Leaf = %q, want %q", m.Leaf.ModulePath, tt.notFound)
			}
		})
	}

	if _, err := tree.Match("/elsewhere", TargetPage); !errors.Is(err, ErrNoRouteMatched) {
		t.Errorf("Match(/elsewhere) error = %v, want ErrNoRouteMatched", err)
	}
}

func TestMatchNotFoundFollowsMostSpecificBranch(t *testing.T) {
	tree := buildTree(t, Options{},
		"+not-found.tsx",
		"[lang]/+not-found.tsx",
		"[lang]/home.tsx",
		"blog/+not-found.tsx",
		"blog/[slug]/comments.tsx",
	)

	tests := []struct {
		path     string
		notFound string
		params   map[string]string
	}{
		// the static blog branch fails first, below blog/
		{"/blog/hello/missing", "blog/+not-found.tsx", map[string]string{}},
		{"/en/missing", "[lang]/+not-found.tsx", map[string]string{"lang": "en"}},
		{"/", "+not-found.tsx", map[string]string{}},
	}

	for _, tt := range tests {
		m, err := tree.Match(tt.path, TargetPage)
		if err != nil {
			t.Fatalf("Match(%q) error = %v", tt.path, err)
		}
		if m.Leaf.ModulePath != tt.notFound {
			t.Errorf("Match(%q).Leaf = %q, want %q", tt.path, m.Leaf.ModulePath, tt.notFound)
		}
		if !reflect.DeepEqual(m.Params, tt.params) {
			t.Errorf("Match(%q).Params = %v, want %v", tt.path, m.Params, tt.params)
		}
	}
}

func TestMatchNotFoundIgnoresFailedDynamicSibling(t *testing.T) {
	tree := buildTree(t, Options{},
		"docs/index.tsx",
		"docs/+not-found.tsx",
		"[lang]/a/b/page.tsx",
	)

	for _, path := range []string{"/docs/missing", "/docs/a/missing", "/docs/a/b/missing"} {
		m, err := tree.Match(path, TargetPage)
		if err != nil {
			t.Fatalf("Match(%q) error = %v", path, err)
		}
		if !m.IsNotFoundFallback || m.Leaf.ModulePath != "docs/+not-found.tsx" {
			t.Errorf("Match(%q) = %q (fallback %v), want docs/+not-found.tsx", path, m.Leaf.ModulePath, m.IsNotFoundFallback)
		}
		if len(m.Params) != 0 {
			t.Errorf("Match(%q).Params = %v, want none", path, m.Params)
		}
	}

	m, err := tree.Match("/docs/a/b/page", TargetPage)
	if err != nil {
		t.Fatal(err)
	}
	if m.IsNotFoundFallback || m.Params["lang"] != "docs" {
		t.Errorf("Match(/docs/a/b/page) = %q %v, want the [lang] page", m.Leaf.ModulePath, m.Params)
	}
}

func TestMatchNotFoundGetsDeclaringLayouts(t *testing.T) {
	tree := buildTree(t, Options{},
		"_layout.tsx",
		"docs/_layout.tsx",
		"docs/+not-found.tsx",
		"docs/guide/_layout.tsx",
		"docs/guide/intro.tsx",
	)

	m, err := tree.Match("/docs/guide/missing", TargetPage)
	if err != nil {
		t.Fatal(err)
	}
	want := []LayoutDescriptor{
		{ModulePath: "_layout.tsx", Directory: ""},
		{ModulePath: "docs/_layout.tsx", Directory: "docs"},
	}
	if !reflect.DeepEqual(m.Layouts, want) {
		t.Errorf("Layouts = %v, want %v", m.Layouts, want)
	}
}

func TestMatchTargets(t *testing.T) {
	tree := buildTree(t, Options{},
		"users/[id].tsx",
		"users/[id]+api.go",
		"health+api.go",
	)

	m, err := tree.Match("/users/1", TargetAny)
	if err != nil {
		t.Fatal(err)
	}
	if !m.Leaf.IsAPI || m.Mode != ModeAPI {
		t.Errorf("TargetAny matched %q (mode %q), want API leaf", m.Leaf.ModulePath, m.Mode)
	}

	m, err = tree.Match("/users/1", TargetPage)
	if err != nil {
		t.Fatal(err)
	}
	if m.Leaf.IsAPI || m.Mode != ModeSSR {
		t.Errorf("TargetPage matched %q (mode %q), want page leaf", m.Leaf.ModulePath, m.Mode)
	}

	if _, err := tree.Match("/health", TargetPage); !errors.Is(err, ErrNoRouteMatched) {
		t.Errorf("TargetPage Match(/health) error = %v, want ErrNoRouteMatched", err)
	}
	if _, err := tree.Match("/health", TargetAny); err != nil {
		t.Errorf("TargetAny Match(/health) error = %v", err)
	}
}

func TestMatchIsPure(t *testing.T) {
	tree := buildTree(t, Options{MatchCacheSize: 16}, "a/[id].tsx", "a/[...rest].tsx")

	first, err := tree.Match("/a/x", TargetAny)
	if err != nil {
		t.Fatal(err)
	}
	first.Params["id"] = "mutated"
	first.Layouts = append(first.Layouts, LayoutDescriptor{ModulePath: "bogus"})

	for i := 0; i < 3; i++ {
		m, err := tree.Match("/a/x", TargetAny)
		if err != nil {
			t.Fatal(err)
		}
		if m.Params["id"] != "x" || len(m.Layouts) != 0 {
			t.Fatalf("repeat %d: Match() = %+v, cache returned shared state", i, m)
		}
	}

	for i := 0; i < 2; i++ {
		if _, err := tree.Match("/b", TargetAny); !errors.Is(err, ErrNoRouteMatched) {
			t.Errorf("cached miss error = %v, want ErrNoRouteMatched", err)
		}
	}
}

func TestMatchSegmentsDecoded(t *testing.T) {
	tree := buildTree(t, Options{}, "files/[name].tsx")

	m, err := tree.MatchSegments([]string{"files", "hello world"}, TargetPage)
	if err != nil {
		t.Fatal(err)
	}
	if m.Params["name"] != "hello world" {
		t.Errorf("Params[name] = %q", m.Params["name"])
	}
}

func TestParseTarget(t *testing.T) {
	for in, want := range map[string]Target{"": TargetAny, "any": TargetAny, "page": TargetPage} {
		got, err := ParseTarget(in)
		if err != nil || got != want {
			t.Errorf("ParseTarget(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseTarget("api"); err == nil {
		t.Error("ParseTarget(api) error = nil")
	}
}
