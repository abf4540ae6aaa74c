package router

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoRouteMatched is returned when neither a leaf nor an inherited
// not-found descriptor matches a path.
var ErrNoRouteMatched = errors.New("router: no route matched")

// GrammarError reports a malformed route entry.
type GrammarError struct {
	// Entry is the offending entry path.
	Entry string

	// Component is the path component that failed to parse.
	Component string

	// Reason is the human-readable cause.
	Reason string
}

func (e *GrammarError) Error() string {
	if e.Component == "" {
		return fmt.Sprintf("router: %s: %s", e.Entry, e.Reason)
	}
	return fmt.Sprintf("router: %s: %q: %s", e.Entry, e.Component, e.Reason)
}

func grammarErr(entry, component, reason string) error {
	return &GrammarError{Entry: entry, Component: component, Reason: reason}
}

// ConflictKind identifies what two conflicting entries compete for.
type ConflictKind string

const (
	ConflictPage       ConflictKind = "page"
	ConflictAPI        ConflictKind = "api"
	ConflictLayout     ConflictKind = "layout"
	ConflictMiddleware ConflictKind = "middleware"
	ConflictNotFound   ConflictKind = "not-found"
)

// RouteConflictError reports entries resolving to the same slot at equal
// specificity.
type RouteConflictError struct {
	// Pattern is the shared URL shape or directory.
	Pattern string

	// Kind is the contested slot.
	Kind ConflictKind

	// Entries are the competing source entries, sorted.
	Entries []string
}

func (e *RouteConflictError) Error() string {
	return fmt.Sprintf("router: duplicate %s at %s: %s", e.Kind, e.Pattern, strings.Join(e.Entries, ", "))
}

// MultiValidationError collects every error found while building a tree.
type MultiValidationError struct {
	Errors []error
}

func (e *MultiValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d route validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e *MultiValidationError) Unwrap() []error {
	return e.Errors
}

// FormatValidationError formats a build error for terminal display:
//
//	ERROR: duplicate page at /a/:
//	  a/[id].tsx
//	  a/[slug].tsx
func FormatValidationError(err error) string {
	var sb strings.Builder
	var multi *MultiValidationError
	if errors.As(err, &multi) {
		for _, e := range multi.Errors {
			sb.WriteString(FormatValidationError(e))
		}
		return sb.String()
	}

	var conflict *RouteConflictError
	var grammar *GrammarError
	switch {
	case errors.As(err, &conflict):
		sb.WriteString(fmt.Sprintf("ERROR: duplicate %s at %s\n", conflict.Kind, conflict.Pattern))
		for _, entry := range conflict.Entries {
			sb.WriteString(fmt.Sprintf("  %s\n", entry))
		}
	case errors.As(err, &grammar):
		sb.WriteString(fmt.Sprintf("ERROR: %s\n", grammar.Reason))
		sb.WriteString(fmt.Sprintf("  %s", grammar.Entry))
		if grammar.Component != "" {
			sb.WriteString(fmt.Sprintf(" (component %q)", grammar.Component))
		}
		sb.WriteString("\n")
	default:
		sb.WriteString(fmt.Sprintf("ERROR: %s\n", err))
	}
	return sb.String()
}
