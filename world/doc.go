// Package world holds the value types shared by every save format: namespaced
// identifiers and block states. Chunk storage lives in world/chunk and the
// region containers in world/region.
package world
