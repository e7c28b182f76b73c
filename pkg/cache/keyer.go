package cache

import "fmt"

// UnionKeyOpts are the parameters that make union layouts distinct for the
// same recording.
type UnionKeyOpts struct {
	Interval int    `json:"interval"`
	Provider string `json:"provider,omitempty"`
}

// RenderKeyOpts are the parameters that make rendered frames distinct for
// the same union layout.
type RenderKeyOpts struct {
	Index      int    `json:"index"`
	FilterHash string `json:"filter_hash,omitempty"`
	FocusID    string `json:"focus_id,omitempty"`
	Ghost      bool   `json:"ghost,omitempty"`
}

// Keyer derives cache keys. Implementations must be deterministic: equal
// inputs always yield equal keys.
type Keyer interface {
	// HTTPKey generates a key for HTTP response caching.
	HTTPKey(namespace, key string) string

	// FrameKey generates a key for one normalized frame of a recording.
	FrameKey(recording string, index int) string

	// UnionKey generates a key for a union layout over a recording.
	UnionKey(recordingHash string, opts UnionKeyOpts) string

	// RenderKey generates a key for one rendered frame of a union layout.
	RenderKey(buildID string, opts RenderKeyOpts) string
}

// DefaultKeyer is the standard key derivation: readable prefixes with
// hashed parameters.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// HTTPKey generates a key for HTTP response caching.
func (k *DefaultKeyer) HTTPKey(namespace, key string) string {
	return fmt.Sprintf("http:%s:%s", namespace, key)
}

// FrameKey generates a key for one normalized frame.
func (k *DefaultKeyer) FrameKey(recording string, index int) string {
	return hashKey("frame", recording, index)
}

// UnionKey generates a key for a union layout.
func (k *DefaultKeyer) UnionKey(recordingHash string, opts UnionKeyOpts) string {
	return hashKey("union", recordingHash, opts)
}

// RenderKey generates a key for a rendered frame.
func (k *DefaultKeyer) RenderKey(buildID string, opts RenderKeyOpts) string {
	return hashKey("render", buildID, opts)
}
