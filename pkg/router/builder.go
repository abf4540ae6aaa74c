package router

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Options configures a Builder.
type Options struct {
	// DefaultMode is the ambient rendering mode for leaves without an
	// explicit or directory suffix. Empty means ModeSSR.
	DefaultMode Mode

	// Platform selects platform-extension variants: "web" (default),
	// "server", "native", "ios" or "android".
	Platform string

	// Extensions are the recognised route file extensions.
	// Empty selects DefaultExtensions.
	Extensions []string

	// MatchCacheSize bounds the per-tree match cache. Zero disables it.
	MatchCacheSize int

	// Logger receives build diagnostics.
	Logger *slog.Logger
}

// Builder turns entry sets into route trees. It owns the node ID counter,
// so IDs never repeat across the trees one builder produces.
type Builder struct {
	opts   Options
	parser *Parser
	logger *slog.Logger

	mu     sync.Mutex
	nextID int
}

// NewBuilder creates a builder.
func NewBuilder(opts Options) (*Builder, error) {
	if opts.DefaultMode == "" {
		opts.DefaultMode = ModeSSR
	}
	if !opts.DefaultMode.IsPage() {
		return nil, fmt.Errorf("router: default mode must be ssr, ssg or spa, got %q", opts.DefaultMode)
	}
	switch normalizePlatform(opts.Platform) {
	case "web", "native", "ios", "android":
	default:
		return nil, fmt.Errorf("router: unknown platform %q", opts.Platform)
	}
	if opts.MatchCacheSize < 0 {
		return nil, fmt.Errorf("router: negative match cache size %d", opts.MatchCacheSize)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "router")
	}
	return &Builder{
		opts:   opts,
		parser: NewParser(opts.Extensions),
		logger: logger,
	}, nil
}

// Parser returns the builder's entry parser.
func (b *Builder) Parser() *Parser { return b.parser }

// Build parses every entry and assembles a tree. Entry order is not
// significant. Every grammar error and conflict is reported together in a
// *MultiValidationError and no tree is returned.
func (b *Builder) Build(entries []string) (*Tree, error) {
	sorted := append([]string(nil), entries...)
	sort.Strings(sorted)
	sorted = slices.Compact(sorted)

	var errs []error
	v := NewValidator(b.opts.Platform)
	for _, entry := range sorted {
		expanded, err := b.parser.ParseAll(entry)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, pe := range expanded {
			v.Add(pe)
		}
	}
	winners, conflicts := v.Resolve()
	errs = append(errs, conflicts...)
	if len(errs) > 0 {
		return nil, &MultiValidationError{Errors: errs}
	}

	root := newRouteNode(nil, Segment{Kind: KindIndex})
	t := &Tree{
		root:        root,
		rootDir:     &Directory{node: root},
		dirs:        make(map[string]*Directory),
		defaultMode: b.opts.DefaultMode,
	}
	t.dirs[""] = t.rootDir

	for _, c := range winners {
		b.attach(t, c)
	}

	b.mu.Lock()
	root.freeze(func() int {
		b.nextID++
		return b.nextID
	})
	b.mu.Unlock()

	t.Walk(func(*RouteNode) bool {
		t.nodeCount++
		return true
	})
	sortLeaves(t.leaves)
	sortLeaves(t.notFounds)

	if b.opts.MatchCacheSize > 0 {
		cache, err := lru.New[matchKey, *RouteMatch](b.opts.MatchCacheSize)
		if err != nil {
			return nil, fmt.Errorf("router: match cache: %w", err)
		}
		t.cache = cache
	}

	b.logger.Debug("route tree built",
		"entries", len(sorted),
		"routes", len(t.leaves),
		"nodes", t.nodeCount)
	return t, nil
}

// attach places a winning candidate into the tree.
func (b *Builder) attach(t *Tree, c candidate) {
	pe := c.entry
	dir := t.directory(pe.Dirs)

	switch c.kind {
	case ConflictLayout:
		dir.Layout = &LayoutDescriptor{ModulePath: pe.Source, Directory: dir.Path}
	case ConflictMiddleware:
		dir.Middleware = &MiddlewareDescriptor{ModulePath: pe.Source, Directory: dir.Path}
	case ConflictNotFound:
		leaf := b.newLeaf(pe, dir, dir.node)
		leaf.IsNotFound = true
		dir.node.notFound = leaf
		t.notFounds = append(t.notFounds, leaf)
	case ConflictAPI:
		node := dir.node.insert([]Segment{pe.Leaf})
		leaf := b.newLeaf(pe, dir, node)
		leaf.IsAPI = true
		leaf.LoaderRef = ""
		leaf.Mode = ModeAPI
		node.api = leaf
		t.leaves = append(t.leaves, leaf)
	case ConflictPage:
		node := dir.node.insert([]Segment{pe.Leaf})
		leaf := b.newLeaf(pe, dir, node)
		node.page = leaf
		t.leaves = append(t.leaves, leaf)
	}
}

func (b *Builder) newLeaf(pe *ParsedEntry, dir *Directory, node *RouteNode) *Leaf {
	leaf := &Leaf{
		ModulePath: pe.Source,
		Pattern:    node.Pattern(),
		Suffix:     pe.Leaf.Mode,
		DirMode:    pe.dirMode(),
		LoaderRef:  pe.Source,
		Platform:   pe.Platform,
		Dir:        dir,
		node:       node,
	}
	for n := node; n != nil; n = n.parent {
		if n.param != "" {
			leaf.Params = append([]string{n.param}, leaf.Params...)
		}
	}
	leaf.Mode = ResolveMode(leaf, b.opts.DefaultMode)
	return leaf
}

// directory returns or creates the Directory chain for dirs.
func (t *Tree) directory(dirs []Segment) *Directory {
	d := t.rootDir
	for i := range dirs {
		p := dirPath(dirs[:i+1])
		next, ok := t.dirs[p]
		if !ok {
			next = &Directory{
				Path:   p,
				Parent: d,
				Mode:   dirs[i].Mode,
				node:   d.node.insert(dirs[i : i+1]),
			}
			t.dirs[p] = next
		}
		d = next
	}
	return d
}

func sortLeaves(leaves []*Leaf) {
	sort.Slice(leaves, func(i, j int) bool {
		if leaves[i].Pattern != leaves[j].Pattern {
			return leaves[i].Pattern < leaves[j].Pattern
		}
		return leaves[i].ModulePath < leaves[j].ModulePath
	})
}
