package router

import (
	"errors"
	"testing"
)

func TestParseLeafKinds(t *testing.T) {
	p := NewParser(nil)

	tests := []struct {
		entry     string
		kind      SegmentKind
		param     string
		mode      Mode
		marker    Marker
		platform  string
		urlLength int
	}{
		{"index.tsx", KindIndex, "", "", MarkerNone, "", 0},
		{"about.tsx", KindStatic, "", "", MarkerNone, "", 1},
		{"blog/[slug].tsx", KindDynamic, "slug", "", MarkerNone, "", 2},
		{"docs/[...rest].tsx", KindCatchAll, "rest", "", MarkerNone, "", 2},
		{"docs/[[...rest]].tsx", KindOptionalCatchAll, "rest", "", MarkerNone, "", 2},
		{"page+ssg.tsx", KindStatic, "", ModeSSG, MarkerNone, "", 1},
		{"index+spa.tsx", KindIndex, "", ModeSPA, MarkerNone, "", 0},
		{"users/[id]+api.go", KindDynamic, "id", ModeAPI, MarkerNone, "", 2},
		{"+not-found.tsx", KindIndex, "", "", MarkerNotFound, "", 0},
		{"docs/_layout.tsx", KindIndex, "", "", MarkerLayout, "", 1},
		{"api/_middleware.go", KindIndex, "", "", MarkerMiddleware, "", 1},
		{"(marketing)/about.tsx", KindStatic, "", "", MarkerNone, "", 1},
		{"home.native.tsx", KindStatic, "", "", MarkerNone, "native", 1},
		{"home+ssr.web.tsx", KindStatic, "", ModeSSR, MarkerNone, "web", 1},
		{"+health+api.go", KindStatic, "", ModeAPI, MarkerNone, "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.entry, func(t *testing.T) {
			pe, err := p.Parse(tt.entry)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.entry, err)
			}
			if pe == nil {
				t.Fatalf("Parse(%q) = nil, want entry", tt.entry)
			}
			if pe.Leaf.Kind != tt.kind {
				t.Errorf("Kind = %s, want %s", pe.Leaf.Kind, tt.kind)
			}
			if pe.Leaf.Param != tt.param {
				t.Errorf("Param = %q, want %q", pe.Leaf.Param, tt.param)
			}
			if pe.Leaf.Mode != tt.mode {
				t.Errorf("Mode = %q, want %q", pe.Leaf.Mode, tt.mode)
			}
			if pe.Leaf.Marker != tt.marker {
				t.Errorf("Marker = %v, want %v", pe.Leaf.Marker, tt.marker)
			}
			if pe.Platform != tt.platform {
				t.Errorf("Platform = %q, want %q", pe.Platform, tt.platform)
			}
			if got := len(pe.URLSegments()); got != tt.urlLength {
				t.Errorf("len(URLSegments()) = %d, want %d", got, tt.urlLength)
			}
		})
	}
}

func TestParseDirectories(t *testing.T) {
	p := NewParser(nil)

	pe, err := p.Parse("(shop)/blog+ssg/[year]/(feed)/index.tsx")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []struct {
		raw  string
		kind SegmentKind
		mode Mode
	}{
		{"(shop)", KindGroup, ""},
		{"blog", KindStatic, ModeSSG},
		{"[year]", KindDynamic, ""},
		{"(feed)", KindGroup, ""},
	}
	if len(pe.Dirs) != len(want) {
		t.Fatalf("len(Dirs) = %d, want %d", len(pe.Dirs), len(want))
	}
	for i, w := range want {
		d := pe.Dirs[i]
		if d.Raw != w.raw || d.Kind != w.kind || d.Mode != w.mode {
			t.Errorf("Dirs[%d] = {%q %s %q}, want {%q %s %q}", i, d.Raw, d.Kind, d.Mode, w.raw, w.kind, w.mode)
		}
	}
	if got := pe.dirMode(); got != ModeSSG {
		t.Errorf("dirMode() = %q, want %q", got, ModeSSG)
	}
	if got := pattern(pe.URLSegments()); got != "/blog/[year]" {
		t.Errorf("pattern = %q, want %q", got, "/blog/[year]")
	}
}

func TestParseInnerDirectoryModeWins(t *testing.T) {
	pe, err := NewParser(nil).Parse("app+ssr/docs+ssg/page.tsx")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := pe.dirMode(); got != ModeSSG {
		t.Errorf("dirMode() = %q, want %q", got, ModeSSG)
	}
}

func TestParseIgnored(t *testing.T) {
	p := NewParser(nil)

	for _, entry := range []string{
		"+html.tsx",
		"types.d.ts",
		"page_test.go",
		".hidden/page.tsx",
		"blog/.draft.tsx",
		"README.md",
		"styles.css",
		".tsx",
	} {
		pe, err := p.Parse(entry)
		if err != nil {
			t.Errorf("Parse(%q) error = %v, want ignored", entry, err)
		}
		if pe != nil {
			t.Errorf("Parse(%q) = %+v, want nil", entry, pe)
		}
	}
}

func TestParseCustomExtensions(t *testing.T) {
	p := NewParser([]string{"templ"})

	if pe, _ := p.Parse("about.templ"); pe == nil {
		t.Error("Parse(about.templ) = nil, want entry")
	}
	if pe, _ := p.Parse("about.tsx"); pe != nil {
		t.Error("Parse(about.tsx) should be ignored with custom extensions")
	}
}

func TestParseGrammarErrors(t *testing.T) {
	p := NewParser(nil)

	tests := []struct {
		entry     string
		component string
	}{
		{"[...a][b].tsx", "[...a][b]"},
		{"[a][...b].tsx", "[a][...b]"},
		{"post-[id].tsx", "post-[id]"},
		{"[id]x/page.tsx", "[id]x"},
		{"[...rest]/page.tsx", "[...rest]"},
		{"[[...rest]]/edit.tsx", "[[...rest]]"},
		{"page+ssg+spa.tsx", "page+ssg+spa"},
		{"page+csr.tsx", "page+csr"},
		{"[].tsx", "[]"},
		{"[...].tsx", "[...]"},
		{"[id]/[id].tsx", "[id]"},
		{"(marketing).tsx", "(marketing)"},
		{"+special.tsx", "+special"},
		{"health+api.web.go", "health+api.web.go"},
	}

	for _, tt := range tests {
		t.Run(tt.entry, func(t *testing.T) {
			_, err := p.Parse(tt.entry)
			var ge *GrammarError
			if !errors.As(err, &ge) {
				t.Fatalf("Parse(%q) error = %v, want *GrammarError", tt.entry, err)
			}
			if ge.Entry != tt.entry {
				t.Errorf("Entry = %q, want %q", ge.Entry, tt.entry)
			}
			if ge.Component != tt.component {
				t.Errorf("Component = %q, want %q", ge.Component, tt.component)
			}
			if ge.Reason == "" {
				t.Error("Reason is empty")
			}
		})
	}
}

func TestParseNormalizesSeparators(t *testing.T) {
	pe, err := NewParser(nil).Parse(`./blog\[slug].tsx`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if pe.Source != "blog/[slug].tsx" {
		t.Errorf("Source = %q, want %q", pe.Source, "blog/[slug].tsx")
	}
}

func TestParseAllExpandsArrayGroups(t *testing.T) {
	entries, err := NewParser(nil).ParseAll("(a,b)/(c, d)/page.tsx")
	if err != nil {
		t.Fatalf("ParseAll() error = %v", err)
	}
	want := []string{"(a)/(c)", "(a)/(d)", "(b)/(c)", "(b)/(d)"}
	if len(entries) != len(want) {
		t.Fatalf("len(entries) = %d, want %d", len(entries), len(want))
	}
	for i, pe := range entries {
		if got := dirPath(pe.Dirs); got != want[i] {
			t.Errorf("entries[%d] dirs = %q, want %q", i, got, want[i])
		}
		if pe.Source != "(a,b)/(c, d)/page.tsx" {
			t.Errorf("entries[%d].Source = %q", i, pe.Source)
		}
		if pe.expansion != i {
			t.Errorf("entries[%d].expansion = %d", i, pe.expansion)
		}
	}

	single, err := NewParser(nil).ParseAll("(a)/page.tsx")
	if err != nil || len(single) != 1 {
		t.Errorf("ParseAll((a)/page.tsx) = %d entries, err %v", len(single), err)
	}
	ignored, err := NewParser(nil).ParseAll("README.md")
	if err != nil || ignored != nil {
		t.Errorf("ParseAll(README.md) = %v, %v", ignored, err)
	}
}

func TestParseArrayGroupErrors(t *testing.T) {
	for _, entry := range []string{"(a,a)/page.tsx", "(a,)/page.tsx", "(a, b ,a)/x/page.tsx"} {
		_, err := NewParser(nil).Parse(entry)
		var ge *GrammarError
		if !errors.As(err, &ge) {
			t.Errorf("Parse(%q) error = %v, want *GrammarError", entry, err)
		}
	}
}
