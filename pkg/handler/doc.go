// Package handler maps HTTP requests onto a published route tree.
//
// A Dispatcher normalizes the request path, matches it against the
// current router.Store snapshot and then either dispatches an API
// module's method handler or prepares a Page for the configured Renderer:
//
//	d, err := handler.New(handler.Config{
//	    Store:    store,
//	    Modules:  modules,
//	    Renderer: myRenderer,
//	})
//	http.ListenAndServe(":3000", d)
//
// Page loaders run through the dependency tracker; the keys they read are
// recorded in a loader.Registry so that a change to one of them can be
// mapped back to the request paths that must be refreshed.
package handler
