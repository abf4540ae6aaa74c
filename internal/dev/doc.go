// Package dev provides the development server and hot reload functionality.
//
// This package implements:
//   - File watching of the routes directory and loader data files
//   - Route tree rebuilds when route files are added, removed or renamed
//   - Loader data notifications for paths whose dependencies changed
//   - An inspector for the published tree
//
// # Architecture
//
//   - Watcher: Monitors the file system and debounces bursts of events
//   - Reloader: Rebuilds the route store and resolves affected paths
//   - ReloadServer: Notifies browsers of changes via WebSocket
//   - Server: Serves the inspector, metrics and, when modules are
//     supplied, the routes themselves
//
// # Usage
//
//	srv, err := dev.NewServer(dev.ServerOptions{Config: cfg})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Configuration
//
// Hot reload can be disabled via fsroute.json (dev.hotReload=false).
// Watch paths are the routes directory plus any entries in dev.watch.
//
// # Hot Reload Protocol
//
// The browser connects to /_fsroute/reload via WebSocket.
// Messages are JSON-encoded:
//
//	{"type": "routes-rebuilt", "generation": 4}                   // Route tree republished
//	{"type": "loader-data-update", "routePaths": ["/blog/a"]}     // Loader inputs changed
//	{"type": "error", "error": "..."}                             // Shows error overlay
//	{"type": "clear"}                                             // Clears error overlay
package dev
