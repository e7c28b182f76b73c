// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about normalization, union layout builds, cache operations,
// and outgoing HTTP calls.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetLayoutHooks(&myLayoutHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Layout().OnBuildStart(ctx, len(indices))
//	// ... build union layout ...
//	observability.Layout().OnBuildComplete(ctx, buildID, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Normalize Hooks
// =============================================================================

// NormalizeHooks receives events from frame normalization.
type NormalizeHooks interface {
	// OnFrameNormalized records one raw frame becoming a normalized graph.
	OnFrameNormalized(ctx context.Context, frameIndex, entityCount, edgeCount int)

	// OnDeadlockDetected records a frame containing at least one needs-cycle.
	OnDeadlockDetected(ctx context.Context, frameIndex, entitiesInCycle int)
}

// =============================================================================
// Layout Hooks
// =============================================================================

// LayoutHooks receives events from union layout builds.
type LayoutHooks interface {
	// OnBuildStart records the start of a union layout build.
	OnBuildStart(ctx context.Context, processedFrames int)

	// OnGeometryComputed records the single geometry call of a build.
	OnGeometryComputed(ctx context.Context, entityCount, edgeCount int, duration time.Duration, err error)

	// OnBuildComplete records the end of a build, successful or not.
	OnBuildComplete(ctx context.Context, buildID string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopNormalizeHooks is a no-op implementation of NormalizeHooks.
type NoopNormalizeHooks struct{}

func (NoopNormalizeHooks) OnFrameNormalized(context.Context, int, int, int) {}
func (NoopNormalizeHooks) OnDeadlockDetected(context.Context, int, int)     {}

// NoopLayoutHooks is a no-op implementation of LayoutHooks.
type NoopLayoutHooks struct{}

func (NoopLayoutHooks) OnBuildStart(context.Context, int)                                 {}
func (NoopLayoutHooks) OnGeometryComputed(context.Context, int, int, time.Duration, error) {
}
func (NoopLayoutHooks) OnBuildComplete(context.Context, string, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	normalizeHooks NormalizeHooks = NoopNormalizeHooks{}
	layoutHooks    LayoutHooks    = NoopLayoutHooks{}
	cacheHooks     CacheHooks     = NoopCacheHooks{}
	httpHooks      HTTPHooks      = NoopHTTPHooks{}
	hooksMu        sync.RWMutex
)

// SetNormalizeHooks registers custom normalization hooks.
// This should be called once at application startup.
func SetNormalizeHooks(h NormalizeHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		normalizeHooks = h
	}
}

// SetLayoutHooks registers custom layout hooks.
// This should be called once at application startup before any builds.
func SetLayoutHooks(h LayoutHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		layoutHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Normalize returns the registered normalization hooks.
func Normalize() NormalizeHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return normalizeHooks
}

// Layout returns the registered layout hooks.
func Layout() LayoutHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return layoutHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	normalizeHooks = NoopNormalizeHooks{}
	layoutHooks = NoopLayoutHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
