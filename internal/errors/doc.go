// Package errors provides structured, actionable error messages for the
// fsroute CLI.
//
// # Error Categories
//
// Errors are organized into categories:
//   - config: fsroute.json / fsroute.yaml and environment problems
//   - cli: command usage and dev server failures
//   - routes: route file grammar, conflicts and matching
//
// # Error Codes
//
// Each error has a unique code (e.g., "F301") that maps to:
//   - A short message describing the error
//   - A detailed explanation
//   - A documentation URL
//
// # Usage
//
//	if _, err := store.Rebuild(entries); err != nil {
//	    errors.PrintError(errors.FromRouteError(err))
//	}
//	// Output:
//	// ERROR F302: Conflicting routes
//	//
//	//   ERROR: duplicate page at /blog/:
//	//     blog/[id].tsx
//	//     blog/[slug].tsx
//	//
//	//   Hint: Remove or rename one of: blog/[id].tsx, blog/[slug].tsx
//	//
//	//   Learn more: https://fsroute.dev/docs/errors/F302
package errors
