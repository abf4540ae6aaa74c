package router

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// RebuildEvent describes one Store.Rebuild call.
type RebuildEvent struct {
	// Generation is the published generation, or the still-active one on failure.
	Generation uint64

	// Routes is the number of page and API leaves in the published tree.
	Routes int

	// Duration is the build time.
	Duration time.Duration

	// Err is the build error. The previous tree stays active when set.
	Err error
}

// Store publishes route tree snapshots. Readers take the current tree with
// Current and keep it for the duration of a request; rebuilds never mutate
// a published tree.
type Store struct {
	builder *Builder
	logger  *slog.Logger

	current atomic.Pointer[Tree]

	mu         sync.Mutex
	generation uint64
	entries    []string
	hooks      []func(RebuildEvent)
}

// NewStore creates a store with no published tree.
func NewStore(builder *Builder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default().With("component", "route-store")
	}
	return &Store{builder: builder, logger: logger}
}

// OnRebuild registers fn to be called after every rebuild attempt.
func (s *Store) OnRebuild(fn func(RebuildEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Rebuild builds a tree from the full entry set and publishes it. On
// failure the previously published tree stays active and the error is
// returned.
func (s *Store) Rebuild(entries []string) (*Tree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	tree, err := s.builder.Build(entries)
	ev := RebuildEvent{Duration: time.Since(start), Err: err}

	if err != nil {
		ev.Generation = s.generation
		s.logger.Error("route rebuild failed",
			"error", err,
			"generation", s.generation)
	} else {
		s.generation++
		tree.generation = s.generation
		s.current.Store(tree)
		s.entries = append([]string(nil), entries...)
		ev.Generation = s.generation
		ev.Routes = len(tree.leaves)
		s.logger.Info("routes published",
			"generation", s.generation,
			"routes", ev.Routes,
			"duration", ev.Duration)
	}

	for _, fn := range s.hooks {
		fn(ev)
	}
	if err != nil {
		return nil, err
	}
	return tree, nil
}

// Current returns the published tree, or nil before the first successful
// rebuild.
func (s *Store) Current() *Tree {
	return s.current.Load()
}

// Entries returns the entry set of the published tree.
func (s *Store) Entries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.entries...)
}

// Match matches path against the current tree.
func (s *Store) Match(path string, target Target) (*RouteMatch, error) {
	t := s.Current()
	if t == nil {
		return nil, ErrNoRouteMatched
	}
	return t.Match(path, target)
}
