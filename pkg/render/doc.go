// Package render projects one frame of a recording onto the union layout,
// producing a render-ready node/edge list. Rendering is a pure function of
// its arguments, so it can run on every scrub tick.
package render
