// Package router implements file-based route resolution.
//
// A routes directory is scanned into entry paths, each entry is parsed
// into typed segments, and the full entry set is assembled into an
// immutable tree that matches request paths to a leaf, its layout chain
// and its rendering mode.
//
// # File Structure Convention
//
//	routes/
//	├── _layout.tsx            → layout wrapping every page
//	├── index.tsx              → /
//	├── +not-found.tsx         → fallback for unmatched paths
//	├── (marketing)/
//	│   ├── _layout.tsx        → layout for the group, no URL impact
//	│   └── about+ssg.tsx      → /about, statically generated
//	├── blog/
//	│   ├── index.tsx          → /blog
//	│   ├── [slug].tsx         → /blog/:slug
//	│   └── +not-found.tsx     → fallback below /blog
//	├── docs/
//	│   └── [[...path]].tsx    → /docs and everything below it
//	├── dashboard+spa/
//	│   └── index.tsx          → /dashboard, client rendered
//	└── api/
//	    ├── _middleware.go     → middleware for /api/*
//	    └── users/[id]+api.go  → API handler
//
// # Matching
//
// At every level a static child is tried before dynamic children, which
// are tried before catch-all and optional catch-all children. The search
// backtracks across levels, so a static branch failing deeper does not
// hide a dynamic sibling that succeeds. When nothing matches, the nearest
// +not-found above the first dead end of the most specific branch is
// returned as a fallback.
//
// # Usage
//
//	b, err := router.NewBuilder(router.Options{DefaultMode: router.ModeSSR})
//	store := router.NewStore(b, logger)
//
//	entries, err := router.NewScanner(os.DirFS("app"), "routes").Scan()
//	if _, err := store.Rebuild(entries); err != nil {
//	    fmt.Print(router.FormatValidationError(err))
//	}
//
//	m, err := store.Match("/blog/hello", router.TargetPage)
//	// m.Params["slug"] == "hello", m.Layouts, m.Mode
package router
