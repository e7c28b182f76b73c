// Package graph turns raw per-process snapshot captures into the unified,
// deduplicated concurrency graph: composite identity assignment, derived
// status fields, channel/RPC pairing merges, and wait-for cycle detection.
//
// The package also provides [Graph], the arena used by every downstream
// algorithm: entities addressed by id in a map, edges as plain
// (from, to, kind) records. Entities never embed pointers to their
// neighbors — the graph is possibly cyclic and the arena owns all lookups.
package graph
