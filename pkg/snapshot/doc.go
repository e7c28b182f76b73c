// Package snapshot defines the data model for point-in-time captures of a
// live system's concurrency state: entities (tasks, locks, channels, RPCs,
// sockets), the directed edges between them, and the frames that group one
// capture across all connected processes.
//
// Everything in this package is plain data. Entities carry a closed tagged
// union ([Body]) describing resource-specific state; presentation summaries
// ([Status], stat lines) are derived deterministically from the body and
// never stored upstream. Normalization and analysis live in pkg/graph.
//
// # Identity
//
// There is no global id authority. An [EntityID] is the composite
// "{processID}/{localID}" and is the only thing coupling entities captured
// by independent processes. Beyond the separator the string is opaque.
package snapshot
