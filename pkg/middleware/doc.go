// Package middleware provides observability for fsroute servers.
//
// This package includes:
//   - Prometheus metrics for route matching, loader runs, rebuilds and
//     HTTP responses
//   - OpenTelemetry HTTP tracing middleware
//
// # Prometheus Metrics
//
// Metrics implements handler.Observer and can subscribe to a route store:
//
//	m := middleware.NewMetrics(middleware.WithNamespace("myapp"))
//	store.OnRebuild(m.ObserveRebuild)
//
//	d, _ := handler.New(handler.Config{Store: store, Modules: modules, Observer: m})
//	http.Handle("/", m.Handler(d))
//	http.Handle("/metrics", promhttp.Handler())
//
// # OpenTelemetry Middleware
//
// OpenTelemetry starts a server span per request and stores it in the
// request context, so the dispatcher's spans and any loader calls become
// children of it:
//
//	http.Handle("/", middleware.OpenTelemetry(
//	    middleware.WithTracerName("my-app"),
//	)(d))
package middleware
