package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation.
// This is useful when one cache backend serves several recordings or users
// and their keys must not collide.
//
// Example usage:
//
//	// User-specific keys for private recordings
//	userKeyer := NewScopedKeyer(NewDefaultKeyer(), "user:abc123:")
//
//	// Global keys for shared recordings
//	globalKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// FrameKey generates a prefixed key for normalized frame caching.
func (k *ScopedKeyer) FrameKey(recording string, index int) string {
	return k.prefix + k.inner.FrameKey(recording, index)
}

// UnionKey generates a prefixed key for union layout caching.
func (k *ScopedKeyer) UnionKey(recordingHash string, opts UnionKeyOpts) string {
	return k.prefix + k.inner.UnionKey(recordingHash, opts)
}

// RenderKey generates a prefixed key for rendered frame caching.
func (k *ScopedKeyer) RenderKey(buildID string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(buildID, opts)
}
