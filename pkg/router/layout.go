package router

import "slices"

// ComposeLayouts returns the layouts wrapping leaf, outermost first: one per
// directory on the chain from the routes root to the leaf's declaring
// folder that has a _layout, group folders included. API leaves get none.
func ComposeLayouts(leaf *Leaf) []LayoutDescriptor {
	if leaf == nil || leaf.IsAPI {
		return nil
	}
	var out []LayoutDescriptor
	for d := leaf.Dir; d != nil; d = d.Parent {
		if d.Layout != nil {
			out = append(out, *d.Layout)
		}
	}
	slices.Reverse(out)
	return out
}

// ComposeMiddleware returns the middleware applying to leaf, outermost
// first. Unlike layouts, middleware applies to API leaves too.
func ComposeMiddleware(leaf *Leaf) []MiddlewareDescriptor {
	if leaf == nil {
		return nil
	}
	var out []MiddlewareDescriptor
	for d := leaf.Dir; d != nil; d = d.Parent {
		if d.Middleware != nil {
			out = append(out, *d.Middleware)
		}
	}
	slices.Reverse(out)
	return out
}
