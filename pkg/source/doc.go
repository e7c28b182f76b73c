// Package source provides recording frame sources: a directory of JSON
// frame files, a recorder HTTP endpoint, and a MongoDB collection. All of
// them satisfy layout.FrameSource.
package source
