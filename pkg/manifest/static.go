package manifest

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/fsroute/pkg/module"
	"github.com/vango-dev/fsroute/pkg/router"
)

// DefaultConcurrency bounds EnumerateStatic when no limit is given.
const DefaultConcurrency = 8

// EnumerateStatic lists the concrete paths of every ssg page in t.
// Parameterless routes contribute their pattern; parameterized routes
// contribute one path per StaticParams entry of their module. Every path
// is matched back against t and must resolve to the route that produced it.
func EnumerateStatic(ctx context.Context, t *router.Tree, modules module.Loader, concurrency int) ([]StaticPath, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var (
		mu  sync.Mutex
		out []StaticPath
	)
	for _, leaf := range t.Leaves() {
		if leaf.IsAPI || leaf.Mode != router.ModeSSG {
			continue
		}
		g.Go(func() error {
			paths, err := expand(ctx, t, leaf, modules)
			if err != nil {
				return err
			}
			mu.Lock()
			out = append(out, paths...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func expand(ctx context.Context, t *router.Tree, leaf *router.Leaf, modules module.Loader) ([]StaticPath, error) {
	if len(leaf.Params) == 0 {
		return []StaticPath{{Pattern: leaf.Pattern, Path: leaf.Pattern}}, nil
	}

	mod, err := modules.Load(ctx, leaf.ModulePath)
	if err != nil {
		return nil, fmt.Errorf("manifest: loading %s: %w", leaf.ModulePath, err)
	}
	if mod.StaticParams == nil {
		return nil, fmt.Errorf("manifest: %s has parameters but no static params", leaf.ModulePath)
	}
	sets, err := mod.StaticParams(ctx)
	if err != nil {
		return nil, fmt.Errorf("manifest: static params for %s: %w", leaf.ModulePath, err)
	}

	out := make([]StaticPath, 0, len(sets))
	for _, params := range sets {
		encoded, decoded, err := fill(leaf, params)
		if err != nil {
			return nil, err
		}
		m, err := t.Match(decoded, router.TargetPage)
		if err != nil || m.IsNotFoundFallback || m.Leaf != leaf {
			return nil, fmt.Errorf("manifest: static path %s does not resolve to %s", decoded, leaf.ModulePath)
		}
		out = append(out, StaticPath{Pattern: leaf.Pattern, Path: encoded, Params: m.Params})
	}
	return out, nil
}

// fill substitutes params into the leaf's pattern, returning the escaped
// URL path and the decoded path used for matching.
func fill(leaf *router.Leaf, params map[string]string) (encoded, decoded string, err error) {
	var enc, dec []string
	for _, n := range chain(leaf.Node()) {
		switch n.Kind() {
		case router.KindStatic:
			enc = append(enc, url.PathEscape(n.Segment()))
			dec = append(dec, n.Segment())
		case router.KindDynamic:
			v := params[n.Param()]
			if v == "" || strings.Contains(v, "/") {
				return "", "", fmt.Errorf("manifest: %s: invalid value %q for [%s]", leaf.ModulePath, v, n.Param())
			}
			enc = append(enc, url.PathEscape(v))
			dec = append(dec, v)
		case router.KindCatchAll, router.KindOptionalCatchAll:
			v := strings.Trim(params[n.Param()], "/")
			if v == "" {
				if n.Kind() == router.KindCatchAll {
					return "", "", fmt.Errorf("manifest: %s: missing value for [...%s]", leaf.ModulePath, n.Param())
				}
				continue
			}
			for _, part := range strings.Split(v, "/") {
				enc = append(enc, url.PathEscape(part))
				dec = append(dec, part)
			}
		}
	}
	return "/" + strings.Join(enc, "/"), "/" + strings.Join(dec, "/"), nil
}
