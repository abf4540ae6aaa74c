package module

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Platform names accepted by NewLoader.
const (
	PlatformWeb     = "web"
	PlatformServer  = "server"
	PlatformNative  = "native"
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
)

// DefaultCacheSize bounds CachedLoader when NewLoader is given no size.
const DefaultCacheSize = 512

// Loader loads route modules.
type Loader interface {
	// Load returns the module for path.
	Load(ctx context.Context, path string) (*Module, error)

	// LoadFresh returns a module instance that reflects the current
	// source. Degraded implementations may return a cached instance.
	LoadFresh(ctx context.Context, path string) (*Module, error)
}

// FreshLoader re-imports on every LoadFresh by appending a "?t=<n>" token
// to the import key. The counter belongs to the loader.
type FreshLoader struct {
	importer Importer
	counter  atomic.Uint64
}

// NewFreshLoader creates a fresh loader over importer.
func NewFreshLoader(importer Importer) *FreshLoader {
	return &FreshLoader{importer: importer}
}

// Load implements Loader.
func (l *FreshLoader) Load(ctx context.Context, path string) (*Module, error) {
	return l.importer.Import(ctx, path)
}

// LoadFresh implements Loader.
func (l *FreshLoader) LoadFresh(ctx context.Context, path string) (*Module, error) {
	n := l.counter.Add(1)
	return l.importer.Import(ctx, path+"?t="+strconv.FormatUint(n, 10))
}

// CachedLoader keeps loaded modules in an LRU cache and never re-imports a
// cached path. LoadFresh is Load: callers must tolerate stale modules.
type CachedLoader struct {
	importer Importer
	cache    *lru.Cache[string, *Module]
	group    singleflight.Group
}

// NewCachedLoader creates a cached loader holding up to size modules.
func NewCachedLoader(importer Importer, size int) (*CachedLoader, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *Module](size)
	if err != nil {
		return nil, err
	}
	return &CachedLoader{importer: importer, cache: cache}, nil
}

// Load implements Loader.
func (l *CachedLoader) Load(ctx context.Context, path string) (*Module, error) {
	if m, ok := l.cache.Get(path); ok {
		return m, nil
	}
	v, err, _ := l.group.Do(path, func() (any, error) {
		if m, ok := l.cache.Get(path); ok {
			return m, nil
		}
		m, err := l.importer.Import(ctx, path)
		if err != nil {
			return nil, err
		}
		l.cache.Add(path, m)
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Module), nil
}

// LoadFresh implements Loader.
func (l *CachedLoader) LoadFresh(ctx context.Context, path string) (*Module, error) {
	return l.Load(ctx, path)
}

// Purge drops every cached module.
func (l *CachedLoader) Purge() { l.cache.Purge() }

// NewLoader selects the loader variant for platform: web and server
// re-import fresh, native, ios and android use the cached variant.
func NewLoader(platform string, importer Importer, cacheSize int) (Loader, error) {
	switch platform {
	case PlatformWeb, PlatformServer, "":
		return NewFreshLoader(importer), nil
	case PlatformNative, PlatformIOS, PlatformAndroid:
		return NewCachedLoader(importer, cacheSize)
	default:
		return nil, fmt.Errorf("module: unknown platform %q", platform)
	}
}
