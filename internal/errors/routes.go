package errors

import (
	stderrors "errors"
	"strings"

	"github.com/vango-dev/fsroute/pkg/router"
)

// FromRouteError converts a route build or match error into an Error with
// the matching F3xx code. A build that failed for several reasons becomes
// a single F300 listing all of them.
func FromRouteError(err error) *Error {
	if err == nil {
		return nil
	}

	var multi *router.MultiValidationError
	if stderrors.As(err, &multi) {
		if len(multi.Errors) != 1 {
			return New("F300").Wrap(err).
				WithDetail(strings.TrimSpace(router.FormatValidationError(multi)))
		}
	}
	cause := err
	if multi != nil {
		cause = multi.Errors[0]
	}

	var (
		grammar  *router.GrammarError
		conflict *router.RouteConflictError
	)
	switch {
	case stderrors.As(cause, &grammar):
		return New("F301").Wrap(err).
			WithLocation(grammar.Entry, 0, 0).
			WithDetail(grammar.Reason + ".").
			WithSuggestion("Rename " + grammar.Component + " to follow the routing grammar.")
	case stderrors.As(cause, &conflict):
		return New("F302").Wrap(err).
			WithDetail(strings.TrimSpace(router.FormatValidationError(conflict))).
			WithSuggestion("Remove or rename one of: " + strings.Join(conflict.Entries, ", "))
	case stderrors.Is(cause, router.ErrNoRouteMatched):
		return New("F303").Wrap(err)
	}
	return New("F300").Wrap(err)
}
