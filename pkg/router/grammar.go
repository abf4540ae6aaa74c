package router

import (
	"path"
	"regexp"
	"slices"
	"strings"
)

// SegmentKind classifies one component of a route entry.
type SegmentKind uint8

const (
	// KindStatic matches its literal text.
	KindStatic SegmentKind = iota

	// KindDynamic is [name]: captures exactly one path component.
	KindDynamic

	// KindCatchAll is [...name]: captures one or more trailing components.
	KindCatchAll

	// KindOptionalCatchAll is [[...name]]: the non-greedy form, which may
	// capture an empty suffix.
	KindOptionalCatchAll

	// KindGroup is (name): nests layouts, contributes nothing to the URL.
	KindGroup

	// KindIndex is the default leaf of its directory. Special files
	// (_layout, _middleware, +not-found) are also index-positioned.
	KindIndex
)

func (k SegmentKind) String() string {
	switch k {
	case KindStatic:
		return "static"
	case KindDynamic:
		return "dynamic"
	case KindCatchAll:
		return "catch-all"
	case KindOptionalCatchAll:
		return "optional-catch-all"
	case KindGroup:
		return "group"
	case KindIndex:
		return "index"
	default:
		return "unknown"
	}
}

// contributesURL reports whether a segment of this kind occupies a URL position.
func (k SegmentKind) contributesURL() bool {
	return k != KindGroup && k != KindIndex
}

// Marker tags special files that attach descriptors to their directory.
type Marker uint8

const (
	MarkerNone Marker = iota
	MarkerLayout
	MarkerNotFound
	MarkerMiddleware
)

func (m Marker) String() string {
	switch m {
	case MarkerLayout:
		return "layout"
	case MarkerNotFound:
		return "not-found"
	case MarkerMiddleware:
		return "middleware"
	default:
		return ""
	}
}

// Segment is one component of a route entry as declared in the file tree.
type Segment struct {
	// Raw is the component with extension, platform tag and mode suffix removed.
	Raw string

	// Kind is the single kind tag of this segment.
	Kind SegmentKind

	// Param is the captured parameter name for dynamic and catch-all segments.
	Param string

	// Mode is the rendering-mode suffix ("" when absent).
	Mode Mode

	// Marker is set on special files only.
	Marker Marker
}

// ParsedEntry is a route file entry split into typed segments.
type ParsedEntry struct {
	// Source is the entry path as scanned, relative to the routes root.
	Source string

	// Dirs are the directory components, outermost first.
	Dirs []Segment

	// Leaf is the final (file) component.
	Leaf Segment

	// Platform is the platform extension ("web", "native", ...) or "".
	Platform string

	// expansion is the position of this entry among the expansions of
	// its array groups, in declaration order.
	expansion int
}

// URLSegments returns the segments that occupy URL positions, in order.
func (e *ParsedEntry) URLSegments() []Segment {
	var out []Segment
	for _, s := range e.Dirs {
		if s.Kind.contributesURL() {
			out = append(out, s)
		}
	}
	if e.Leaf.Kind.contributesURL() {
		out = append(out, e.Leaf)
	}
	return out
}

// Expand returns one entry per combination of array group names:
// "(a,b)/(c,d)/page" yields (a)/(c), (a)/(d), (b)/(c) and (b)/(d), in that
// order. Entries without array groups expand to themselves.
func (e *ParsedEntry) Expand() []*ParsedEntry {
	out := []*ParsedEntry{e}
	for i, d := range e.Dirs {
		names := groupNames(d)
		if len(names) < 2 {
			continue
		}
		next := make([]*ParsedEntry, 0, len(out)*len(names))
		for _, pe := range out {
			for _, name := range names {
				c := *pe
				c.Dirs = slices.Clone(pe.Dirs)
				c.Dirs[i].Raw = "(" + name + ")"
				next = append(next, &c)
			}
		}
		out = next
	}
	for i, pe := range out {
		pe.expansion = i
	}
	return out
}

// groupNames splits a group segment into its comma separated names.
func groupNames(s Segment) []string {
	if s.Kind != KindGroup {
		return nil
	}
	names := strings.Split(s.Raw[1:len(s.Raw)-1], ",")
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}
	return names
}

// DefaultExtensions are the route file extensions recognised by default.
var DefaultExtensions = []string{".go", ".tsx", ".ts", ".jsx", ".js"}

// validPlatforms are the recognised platform extensions.
var validPlatforms = map[string]bool{
	"web":     true,
	"native":  true,
	"ios":     true,
	"android": true,
}

var (
	optionalCatchAllRe = regexp.MustCompile(`^\[\[\.\.\.([^\[\]]*)\]\]$`)
	catchAllRe         = regexp.MustCompile(`^\[\.\.\.([^\[\]]*)\]$`)
	dynamicRe          = regexp.MustCompile(`^\[([^\[\]]*)\]$`)
	groupRe            = regexp.MustCompile(`^\(([^()/]+)\)$`)
	directoryModeRe    = regexp.MustCompile(`^(.+)\+(api|ssg|ssr|spa)$`)
)

// Parser turns entry paths into ParsedEntry values.
type Parser struct {
	extensions []string
}

// NewParser creates a parser recognising the given file extensions.
// An empty list selects DefaultExtensions.
func NewParser(extensions []string) *Parser {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	exts := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	return &Parser{extensions: exts}
}

// ParseAll parses one entry path and expands its array groups.
func (p *Parser) ParseAll(entry string) ([]*ParsedEntry, error) {
	pe, err := p.Parse(entry)
	if pe == nil || err != nil {
		return nil, err
	}
	return pe.Expand(), nil
}

// Parse parses one entry path. It returns (nil, nil) for entries that are
// not route files (unknown extension, type declarations, tests, dot-files,
// the root +html document).
func (p *Parser) Parse(entry string) (*ParsedEntry, error) {
	source := strings.TrimPrefix(path.Clean(strings.ReplaceAll(entry, "\\", "/")), "./")
	parts := strings.Split(source, "/")
	for _, part := range parts {
		if strings.HasPrefix(part, ".") {
			return nil, nil
		}
	}

	file := parts[len(parts)-1]
	name, ok := p.stripExtension(file)
	if !ok {
		return nil, nil
	}
	if len(parts) == 1 && (name == "+html" || strings.HasPrefix(name, "+html.")) {
		return nil, nil
	}

	pe := &ParsedEntry{Source: source}
	for _, dir := range parts[:len(parts)-1] {
		seg, err := parseDirectory(source, dir)
		if err != nil {
			return nil, err
		}
		pe.Dirs = append(pe.Dirs, seg)
	}

	if i := strings.LastIndex(name, "."); i > 0 && validPlatforms[name[i+1:]] {
		pe.Platform = name[i+1:]
		name = name[:i]
	}

	leaf, err := parseLeaf(source, name)
	if err != nil {
		return nil, err
	}
	pe.Leaf = leaf

	if pe.Platform != "" && pe.isAPI() {
		return nil, grammarErr(source, file, "API routes cannot have platform extensions")
	}
	if err := pe.validate(); err != nil {
		return nil, err
	}
	return pe, nil
}

func (p *Parser) stripExtension(file string) (string, bool) {
	if strings.HasSuffix(file, ".d.ts") || strings.HasSuffix(file, "_test.go") {
		return "", false
	}
	best := ""
	for _, ext := range p.extensions {
		if strings.HasSuffix(file, ext) && len(ext) > len(best) {
			best = ext
		}
	}
	if best == "" || len(file) == len(best) {
		return "", false
	}
	return strings.TrimSuffix(file, best), true
}

// parseDirectory classifies a directory component. A trailing +mode on a
// directory applies to every leaf below it; other '+' text stays literal.
func parseDirectory(entry, component string) (Segment, error) {
	var mode Mode
	name := component
	if m := directoryModeRe.FindStringSubmatch(component); m != nil {
		name, mode = m[1], Mode(m[2])
	}
	seg, err := classify(entry, name)
	if err != nil {
		return Segment{}, err
	}
	seg.Mode = mode
	return seg, nil
}

// parseLeaf classifies the final component after extension and platform
// removal. Marker files take precedence over the positional grammar.
func parseLeaf(entry, name string) (Segment, error) {
	lead := ""
	rest := name
	if strings.HasPrefix(rest, "+") {
		lead, rest = "+", rest[1:]
	}
	parts := strings.Split(rest, "+")
	base := lead + parts[0]
	suffixes := parts[1:]

	var mode Mode
	switch len(suffixes) {
	case 0:
	case 1:
		mode = Mode(suffixes[0])
		if !mode.Valid() {
			return Segment{}, grammarErr(entry, name, "unknown rendering-mode suffix +"+suffixes[0])
		}
	default:
		return Segment{}, grammarErr(entry, name, "a leaf may declare at most one rendering-mode suffix")
	}

	switch {
	case base == "+not-found":
		return Segment{Raw: base, Kind: KindIndex, Mode: mode, Marker: MarkerNotFound}, nil
	case strings.HasPrefix(base, "_layout"):
		return Segment{Raw: base, Kind: KindIndex, Mode: mode, Marker: MarkerLayout}, nil
	case strings.HasPrefix(base, "_middleware"):
		return Segment{Raw: base, Kind: KindIndex, Mode: mode, Marker: MarkerMiddleware}, nil
	case strings.HasPrefix(base, "+") && mode != ModeAPI:
		return Segment{}, grammarErr(entry, name, "route files cannot start with '+'")
	case base == "index":
		return Segment{Raw: base, Kind: KindIndex, Mode: mode}, nil
	}

	seg, err := classify(entry, base)
	if err != nil {
		return Segment{}, err
	}
	if seg.Kind == KindGroup {
		return Segment{}, grammarErr(entry, name, "routes cannot end with a (group)")
	}
	seg.Mode = mode
	return seg, nil
}

// classify applies the bracket and group grammar to one component.
func classify(entry, c string) (Segment, error) {
	if c == "" {
		return Segment{}, grammarErr(entry, c, "empty path component")
	}
	if groupRe.MatchString(c) {
		seg := Segment{Raw: c, Kind: KindGroup}
		seen := make(map[string]bool)
		for _, name := range groupNames(seg) {
			if name == "" {
				return Segment{}, grammarErr(entry, c, "empty group name")
			}
			if seen[name] {
				return Segment{}, grammarErr(entry, c, "duplicate group name "+name)
			}
			seen[name] = true
		}
		return seg, nil
	}
	if !strings.ContainsAny(c, "[]") {
		return Segment{Raw: c, Kind: KindStatic}, nil
	}

	var (
		kind  SegmentKind
		param string
	)
	switch {
	case optionalCatchAllRe.MatchString(c):
		kind, param = KindOptionalCatchAll, optionalCatchAllRe.FindStringSubmatch(c)[1]
	case catchAllRe.MatchString(c):
		kind, param = KindCatchAll, catchAllRe.FindStringSubmatch(c)[1]
	case dynamicRe.MatchString(c):
		kind, param = KindDynamic, dynamicRe.FindStringSubmatch(c)[1]
		if strings.HasPrefix(param, "...") {
			return Segment{}, grammarErr(entry, c, "catch-all requires a parameter name")
		}
	default:
		return Segment{}, grammarErr(entry, c, "a component may hold exactly one dynamic or catch-all marker and no other text")
	}
	if param == "" {
		return Segment{}, grammarErr(entry, c, "empty parameter name")
	}
	return Segment{Raw: c, Kind: kind, Param: param}, nil
}

// validate enforces entry-level rules: catch-alls are final and parameter
// names are unique.
func (e *ParsedEntry) validate() error {
	url := e.URLSegments()
	seen := make(map[string]bool)
	for i, s := range url {
		switch s.Kind {
		case KindCatchAll, KindOptionalCatchAll:
			if i != len(url)-1 {
				return grammarErr(e.Source, s.Raw, "a catch-all must be the final path component")
			}
		}
		if s.Param == "" {
			continue
		}
		if seen[s.Param] {
			return grammarErr(e.Source, s.Raw, "duplicate parameter name "+s.Param)
		}
		seen[s.Param] = true
	}
	return nil
}

// dirMode returns the innermost directory rendering-mode suffix.
func (e *ParsedEntry) dirMode() Mode {
	var mode Mode
	for _, s := range e.Dirs {
		if s.Mode != "" {
			mode = s.Mode
		}
	}
	return mode
}

func (e *ParsedEntry) isAPI() bool {
	if e.Leaf.Marker != MarkerNone {
		return false
	}
	if e.Leaf.Mode != "" {
		return e.Leaf.Mode == ModeAPI
	}
	return e.dirMode() == ModeAPI
}
