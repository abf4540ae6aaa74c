package router

import (
	"errors"
	"fmt"
	"strings"
)

// Target selects which leaves a match considers.
type Target uint8

const (
	// TargetAny serves HTTP requests: an API leaf is preferred over a page
	// leaf on the same node.
	TargetAny Target = iota

	// TargetPage serves navigation and page rendering: API leaves are ignored.
	TargetPage
)

func (t Target) String() string {
	if t == TargetPage {
		return "page"
	}
	return "any"
}

// ParseTarget parses "any" (or "") and "page".
func ParseTarget(s string) (Target, error) {
	switch s {
	case "", "any":
		return TargetAny, nil
	case "page":
		return TargetPage, nil
	}
	return 0, fmt.Errorf("router: unknown match target %q", s)
}

// Match resolves a normalized path (no trailing slash except root,
// percent-decoded). It returns the most specific leaf, trying static
// children before dynamic, catch-all and optional catch-all children at
// every level and backtracking across levels. When no leaf matches, the
// not-found descriptor nearest to the first dead end of the most specific
// branch is returned with IsNotFoundFallback set. ErrNoRouteMatched is
// returned otherwise.
func (t *Tree) Match(path string, target Target) (*RouteMatch, error) {
	if t.cache != nil {
		key := matchKey{target: target, path: path}
		if m, ok := t.cache.Get(key); ok {
			if m == nil {
				return nil, ErrNoRouteMatched
			}
			return m.Clone(), nil
		}
		m, err := t.MatchSegments(splitPath(path), target)
		if err == nil || errors.Is(err, ErrNoRouteMatched) {
			t.cache.Add(key, m)
		}
		return m.Clone(), err
	}
	return t.MatchSegments(splitPath(path), target)
}

// MatchSegments is Match over already split, decoded path components.
func (t *Tree) MatchSegments(segs []string, target Target) (*RouteMatch, error) {
	s := &matchState{
		segs:   segs,
		target: target,
		params: make(map[string]string),
	}
	if leaf := s.walk(t.root, 0); leaf != nil {
		return t.newMatch(leaf, s.params, false), nil
	}
	if n := s.fallback; n != nil {
		return t.newMatch(n.notFound, capturedAlong(n, segs), true), nil
	}
	return nil, ErrNoRouteMatched
}

type matchState struct {
	segs   []string
	target Target
	params map[string]string

	// fallback is the not-found bearing node nearest to the first dead
	// end in traversal order. Later branches never replace it.
	fallback *RouteNode
}

// deadEnd records the nearest not-found above n, n included.
func (s *matchState) deadEnd(n *RouteNode) {
	if s.fallback != nil {
		return
	}
	for ; n != nil; n = n.parent {
		if n.notFound != nil {
			s.fallback = n
			return
		}
	}
}

func (s *matchState) walk(n *RouteNode, i int) *Leaf {
	if leaf := s.descend(n, i); leaf != nil {
		return leaf
	}
	s.deadEnd(n)
	return nil
}

func (s *matchState) descend(n *RouteNode, i int) *Leaf {
	if i == len(s.segs) {
		if leaf := n.leafFor(s.target); leaf != nil {
			return leaf
		}
		// An optional catch-all matches the empty suffix.
		for _, c := range n.optional {
			if leaf := c.leafFor(s.target); leaf != nil {
				return leaf
			}
		}
		return nil
	}

	seg := s.segs[i]
	if c, ok := n.static[seg]; ok {
		if leaf := s.walk(c, i+1); leaf != nil {
			return leaf
		}
	}
	for _, c := range n.dynamic {
		s.params[c.param] = seg
		if leaf := s.walk(c, i+1); leaf != nil {
			return leaf
		}
		delete(s.params, c.param)
	}

	rest := strings.Join(s.segs[i:], "/")
	for _, list := range [][]*RouteNode{n.catchAll, n.optional} {
		for _, c := range list {
			if leaf := c.leafFor(s.target); leaf != nil {
				s.params[c.param] = rest
				return leaf
			}
		}
	}
	return nil
}

// capturedAlong rebuilds the parameters captured on the way to n.
func capturedAlong(n *RouteNode, segs []string) map[string]string {
	params := make(map[string]string)
	for c := n; c.parent != nil; c = c.parent {
		idx := c.depth - 1
		if idx >= len(segs) {
			continue
		}
		switch c.kind {
		case KindDynamic:
			params[c.param] = segs[idx]
		case KindCatchAll, KindOptionalCatchAll:
			params[c.param] = strings.Join(segs[idx:], "/")
		}
	}
	return params
}

func (t *Tree) newMatch(leaf *Leaf, params map[string]string, fallback bool) *RouteMatch {
	return &RouteMatch{
		Leaf:               leaf,
		Params:             params,
		Layouts:            ComposeLayouts(leaf),
		Middleware:         ComposeMiddleware(leaf),
		Mode:               ResolveMode(leaf, t.defaultMode),
		IsNotFoundFallback: fallback,
		Generation:         t.generation,
	}
}
