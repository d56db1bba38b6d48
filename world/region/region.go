// Package region implements the three region container formats: a 32x32 grid
// of chunks persisted as a single compressed NBT blob (Legacy), as a zip
// archive with one entry per chunk (Standard) or as a sector addressed anvil
// file (Anvil).
package region

import (
	"errors"
	"log/slog"
	"math/bits"
	"time"

	"github.com/mckt-minecraft/worldtools/world"
	"github.com/mckt-minecraft/worldtools/world/chunk"
)

const (
	// Size is the number of chunks along each horizontal axis of a region.
	Size = 32
	// ChunkCount is the number of chunk slots in a region.
	ChunkCount = Size * Size
)

var (
	// ErrUnsupportedCompression is returned when an anvil chunk uses a
	// compression tag other than 1, 2 or 3.
	ErrUnsupportedCompression = errors.New("unsupported chunk compression")
	// ErrUnknownFormat is returned for a format name that is not known.
	ErrUnknownFormat = errors.New("unknown region format")
	// ErrChunkTooLarge is returned when an encoded anvil chunk needs more
	// sectors than a location entry can address.
	ErrChunkTooLarge = errors.New("chunk too large for anvil sector table")
)

// Region is a 32x32 grid of chunks backed by a file.
type Region interface {
	// Load reads the backing file into the grid.
	Load() error
	// Save writes the grid to the backing file.
	Save() error
	// Chunk returns the chunk at x, z (0-31), or nil if the slot is empty.
	Chunk(x, z int) *chunk.Chunk
	// SetChunk stores c at x, z (0-31). A nil chunk empties the slot.
	SetChunk(x, z int, c *chunk.Chunk)
	// Pos returns the region coordinates of the grid.
	Pos() (x, z int32)
}

// Config holds the settings of a Region.
type Config struct {
	// Log is the logger progress and corrupt data are reported to. If nil,
	// slog.Default() is used.
	Log *slog.Logger
	// Air is the state empty blocks of loaded chunks hold. If left as the
	// zero value, world.Air is used.
	Air world.BlockState
	// ProgressInterval is the minimum time between two progress lines of a
	// load or save. If zero, one second is used.
	ProgressInterval time.Duration
}

func (conf Config) withDefaults() Config {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.Air.ID() == (world.Identifier{}) {
		conf.Air = world.Air
	}
	if conf.ProgressInterval <= 0 {
		conf.ProgressInterval = time.Second
	}
	return conf
}

// Index returns the slot index of the chunk at x, z (0-31) in a region.
func Index(x, z int) int {
	return x<<5 | z
}

// Grid holds the chunk slots of a region at region coordinates x, z.
type Grid struct {
	x, z   int32
	chunks [ChunkCount]*chunk.Chunk
}

// Pos returns the region coordinates of the grid.
func (g *Grid) Pos() (x, z int32) { return g.x, g.z }

// Chunk returns the chunk at x, z (0-31), or nil if the slot is empty.
func (g *Grid) Chunk(x, z int) *chunk.Chunk { return g.chunks[Index(x, z)] }

// SetChunk stores c at x, z (0-31).
func (g *Grid) SetChunk(x, z int, c *chunk.Chunk) { g.chunks[Index(x, z)] = c }

// Len returns the number of non-empty slots.
func (g *Grid) Len() int {
	n := 0
	for _, c := range g.chunks {
		if c != nil {
			n++
		}
	}
	return n
}

// newChunk returns an empty chunk for slot x, z. Its world coordinates are
// the region origin in chunks plus x, z.
func (g *Grid) newChunk(conf chunk.Config, x, z int) *chunk.Chunk {
	return conf.New(g.x<<5+int32(x), g.z<<5+int32(z), x, z)
}

// DirtyGrid is a Grid that tracks which slots were set since they were last
// loaded, so that saves can be limited to them.
type DirtyGrid struct {
	Grid
	dirty [ChunkCount / 64]uint64
}

// SetChunk stores c at x, z (0-31) and marks the slot dirty.
func (g *DirtyGrid) SetChunk(x, z int, c *chunk.Chunk) {
	g.Grid.SetChunk(x, z, c)
	i := Index(x, z)
	g.dirty[i>>6] |= 1 << (i & 63)
}

// Dirty reports if the slot at x, z was set since it was last loaded.
func (g *DirtyGrid) Dirty(x, z int) bool {
	i := Index(x, z)
	return g.dirty[i>>6]&(1<<(i&63)) != 0
}

// ClearDirty marks the slot at x, z as clean.
func (g *DirtyGrid) ClearDirty(x, z int) {
	i := Index(x, z)
	g.dirty[i>>6] &^= 1 << (i & 63)
}

// DirtyIndices returns the slot indices of all dirty slots in ascending
// order.
func (g *DirtyGrid) DirtyIndices() []int {
	var out []int
	for w, word := range g.dirty {
		for word != 0 {
			out = append(out, w<<6|bits.TrailingZeros64(word))
			word &= word - 1
		}
	}
	return out
}

// slotPos returns the x, z of slot index i.
func slotPos(i int) (x, z int) {
	return i >> 5, i & 31
}

func (conf Config) chunkConfig() chunk.Config {
	return chunk.Config{Log: conf.Log, Air: conf.Air}
}
