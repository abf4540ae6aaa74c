package router

import (
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// RouteNode is one URL position in the route tree.
type RouteNode struct {
	id      int
	segment string
	kind    SegmentKind
	param   string
	parent  *RouteNode
	depth   int

	page     *Leaf
	api      *Leaf
	notFound *Leaf

	// static children are keyed by literal
	static map[string]*RouteNode

	// dynamic, catchAll and optional are sorted by parameter name on freeze
	dynamic  []*RouteNode
	catchAll []*RouteNode
	optional []*RouteNode

	// inserted keeps insertion order for diagnostics only
	inserted []*RouteNode
}

func newRouteNode(parent *RouteNode, seg Segment) *RouteNode {
	n := &RouteNode{
		segment: seg.Raw,
		kind:    seg.Kind,
		param:   seg.Param,
		parent:  parent,
	}
	if parent != nil {
		n.depth = parent.depth + 1
	}
	return n
}

// ID returns the node's builder-assigned identifier.
func (n *RouteNode) ID() int { return n.id }

// Segment returns the raw segment ("" for the root).
func (n *RouteNode) Segment() string { return n.segment }

// Kind returns the segment kind. The root reports KindIndex.
func (n *RouteNode) Kind() SegmentKind { return n.kind }

// Param returns the captured parameter name, if any.
func (n *RouteNode) Param() string { return n.param }

// Parent returns nil for the root.
func (n *RouteNode) Parent() *RouteNode { return n.parent }

// Depth is the number of URL components between the root and n.
func (n *RouteNode) Depth() int { return n.depth }

// Page returns the page leaf attached to n, if any.
func (n *RouteNode) Page() *Leaf { return n.page }

// API returns the API leaf attached to n, if any.
func (n *RouteNode) API() *Leaf { return n.api }

// NotFound returns the not-found descriptor declared exactly at n, if any.
func (n *RouteNode) NotFound() *Leaf { return n.notFound }

// Pattern returns the URL pattern of n, e.g. "/blog/[slug]".
func (n *RouteNode) Pattern() string {
	if n.parent == nil {
		return "/"
	}
	parts := make([]string, n.depth)
	for c := n; c.parent != nil; c = c.parent {
		parts[c.depth-1] = c.segment
	}
	return "/" + strings.Join(parts, "/")
}

// Children returns the children in matching order: static by literal,
// then dynamic, catch-all and optional catch-all by parameter name.
func (n *RouteNode) Children() []*RouteNode {
	keys := make([]string, 0, len(n.static))
	for k := range n.static {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*RouteNode, 0, len(n.inserted))
	for _, k := range keys {
		out = append(out, n.static[k])
	}
	out = append(out, n.dynamic...)
	out = append(out, n.catchAll...)
	out = append(out, n.optional...)
	return out
}

// InsertionOrder returns the children in the order the builder created them.
func (n *RouteNode) InsertionOrder() []*RouteNode {
	return append([]*RouteNode(nil), n.inserted...)
}

// child returns or creates the child for seg.
func (n *RouteNode) child(seg Segment) *RouteNode {
	switch seg.Kind {
	case KindStatic:
		if c, ok := n.static[seg.Raw]; ok {
			return c
		}
		if n.static == nil {
			n.static = make(map[string]*RouteNode)
		}
		c := newRouteNode(n, seg)
		n.static[seg.Raw] = c
		n.inserted = append(n.inserted, c)
		return c
	case KindDynamic:
		return n.paramChild(&n.dynamic, seg)
	case KindCatchAll:
		return n.paramChild(&n.catchAll, seg)
	case KindOptionalCatchAll:
		return n.paramChild(&n.optional, seg)
	}
	return n
}

func (n *RouteNode) paramChild(list *[]*RouteNode, seg Segment) *RouteNode {
	for _, c := range *list {
		if c.param == seg.Param {
			return c
		}
	}
	c := newRouteNode(n, seg)
	*list = append(*list, c)
	n.inserted = append(n.inserted, c)
	return c
}

// insert walks or creates the nodes for segs, returning the terminal node.
func (n *RouteNode) insert(segs []Segment) *RouteNode {
	cur := n
	for _, s := range segs {
		if s.Kind.contributesURL() {
			cur = cur.child(s)
		}
	}
	return cur
}

// freeze sorts parameter children and assigns IDs depth first in matching
// order. next is advanced for every node.
func (n *RouteNode) freeze(next func() int) {
	n.id = next()
	byParam := func(list []*RouteNode) {
		sort.Slice(list, func(i, j int) bool { return list[i].param < list[j].param })
	}
	byParam(n.dynamic)
	byParam(n.catchAll)
	byParam(n.optional)
	for _, c := range n.Children() {
		c.freeze(next)
	}
}

func (n *RouteNode) leafFor(target Target) *Leaf {
	if target == TargetAny && n.api != nil {
		return n.api
	}
	return n.page
}

// Tree is an immutable route tree snapshot.
type Tree struct {
	root        *RouteNode
	rootDir     *Directory
	dirs        map[string]*Directory
	leaves      []*Leaf
	notFounds   []*Leaf
	nodeCount   int
	defaultMode Mode
	generation  uint64

	cache *lru.Cache[matchKey, *RouteMatch]
}

type matchKey struct {
	target Target
	path   string
}

// Root returns the root URL node.
func (t *Tree) Root() *RouteNode { return t.root }

// RootDirectory returns the directory of the routes root.
func (t *Tree) RootDirectory() *Directory { return t.rootDir }

// Directory returns the directory at path relative to the routes root.
func (t *Tree) Directory(path string) (*Directory, bool) {
	d, ok := t.dirs[path]
	return d, ok
}

// Leaves returns every page and API leaf, sorted by pattern then module path.
func (t *Tree) Leaves() []*Leaf {
	return append([]*Leaf(nil), t.leaves...)
}

// NotFounds returns every not-found descriptor, sorted by pattern.
func (t *Tree) NotFounds() []*Leaf {
	return append([]*Leaf(nil), t.notFounds...)
}

// NodeCount returns the number of URL nodes, root included.
func (t *Tree) NodeCount() int { return t.nodeCount }

// DefaultMode returns the ambient rendering mode the tree was built with.
func (t *Tree) DefaultMode() Mode { return t.defaultMode }

// Generation returns the snapshot generation assigned by the Store, or 0
// for trees that were never published.
func (t *Tree) Generation() uint64 { return t.generation }

// Walk visits every node depth first in matching order. Returning false
// from fn skips the node's subtree.
func (t *Tree) Walk(fn func(*RouteNode) bool) {
	var walk func(*RouteNode)
	walk = func(n *RouteNode) {
		if !fn(n) {
			return
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(t.root)
}

// splitPath splits a normalized path into components.
func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
