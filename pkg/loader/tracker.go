// Package loader runs route data loaders while recording the external
// resources they read.
//
// Every Track call opens a fresh scope carried in the context. Reads
// recorded with Use (or ReadFile) are attributed to that scope only, so
// concurrent invocations never share dependency sets. Asynchronous work
// started with Go belongs to the window, which closes once the loader and
// all such work have returned.
package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrDiscarded is returned when the invocation's context ends before the
// window closes.
var ErrDiscarded = errors.New("loader: invocation discarded")

// LoaderExecutionError wraps the failure of a loader or of work it started.
type LoaderExecutionError struct {
	Err error
}

func (e *LoaderExecutionError) Error() string {
	return "loader: execution failed: " + e.Err.Error()
}

// Unwrap returns the loader's error unmodified.
func (e *LoaderExecutionError) Unwrap() error {
	return e.Err
}

// Result is a loader payload with the dependency keys observed while
// producing it.
type Result struct {
	Value        any
	Dependencies []string
}

// Func is a tracked loader body.
type Func func(ctx context.Context) (any, error)

type scopeKey struct{}

type scope struct {
	mu     sync.Mutex
	deps   map[string]struct{}
	closed bool
	group  *errgroup.Group
	ctx    context.Context
}

func (s *scope) record(keys []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for _, k := range keys {
		s.deps[k] = struct{}{}
	}
}

func (s *scope) close() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	deps := make([]string, 0, len(s.deps))
	for k := range s.deps {
		deps = append(deps, k)
	}
	sort.Strings(deps)
	return deps
}

// Track runs fn once inside a new dependency scope. On success the result
// carries exactly the keys recorded during the window, sorted. When fn or
// any work started with Go fails (or panics), the error is a
// *LoaderExecutionError and no dependencies are reported. When ctx ends
// first, the invocation is discarded and the error matches both
// ErrDiscarded and the context's error.
func Track(ctx context.Context, fn Func) (*Result, error) {
	g, gctx := errgroup.WithContext(ctx)
	s := &scope{deps: make(map[string]struct{}), group: g}
	s.ctx = context.WithValue(gctx, scopeKey{}, s)

	var value any
	g.Go(func() (err error) {
		defer recoverTo(&err)
		value, err = fn(s.ctx)
		return err
	})
	err := g.Wait()
	deps := s.close()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrDiscarded, ctxErr)
	}
	if err != nil {
		return nil, &LoaderExecutionError{Err: err}
	}
	return &Result{Value: value, Dependencies: deps}, nil
}

// Use records dependency keys on the scope carried by ctx. It is a no-op
// outside a scope or after the window closed.
func Use(ctx context.Context, keys ...string) {
	if s, ok := ctx.Value(scopeKey{}).(*scope); ok {
		s.record(keys)
	}
}

// Go starts fn as part of the window of the scope carried by ctx. The
// window stays open until fn returns, and an error from fn fails the
// invocation. Go must be called from the loader or from work it started.
// Outside a scope fn runs untracked and its error is dropped.
func Go(ctx context.Context, fn func(ctx context.Context) error) {
	s, ok := ctx.Value(scopeKey{}).(*scope)
	if ok {
		s.mu.Lock()
		if !s.closed {
			s.group.Go(func() (err error) {
				defer recoverTo(&err)
				return fn(s.ctx)
			})
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
	}
	go func() { _ = fn(ctx) }()
}

// Scoped reports whether ctx carries an open dependency scope.
func Scoped(ctx context.Context) bool {
	s, ok := ctx.Value(scopeKey{}).(*scope)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// ReadFile reads a file and records its absolute path as a dependency.
func ReadFile(ctx context.Context, name string) ([]byte, error) {
	Use(ctx, FileKey(name))
	return os.ReadFile(name)
}

// FileKey returns the dependency key ReadFile records for name.
func FileKey(name string) string {
	if abs, err := filepath.Abs(name); err == nil {
		return abs
	}
	return filepath.Clean(name)
}

func recoverTo(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("loader panic: %v", r)
	}
}
