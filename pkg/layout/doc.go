// Package layout builds the union layout for a recording: one geometry
// computation over the union of all processed frames, so that an entity's
// screen position never changes as the user scrubs between frames.
//
// Layout algorithms are not stable under small input deltas, so computing a
// fresh geometry per frame would make nodes jump around during scrubbing.
// The union layout amortizes one geometry call across the whole recording
// and trades frame-accuracy for speed via downsampling.
package layout
