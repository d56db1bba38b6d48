// Package chunk implements the in-memory representation of a chunk column: up
// to 254 paletted 16x16x16 block sections plus block entity data, and its
// encoding in the native and the vanilla NBT dialects.
package chunk

import (
	"cmp"
	"log/slog"
	"maps"
	"slices"

	"github.com/mckt-minecraft/worldtools/world"
)

const (
	// SectionCount is the number of section slots in a chunk.
	SectionCount = 254
	// MinSection is the section Y of the lowest slot. Slot i holds section
	// Y i+MinSection.
	MinSection = -127
	// MaxSection is the section Y of the highest slot.
	MaxSection = MinSection + SectionCount - 1
	// SectionVolume is the number of blocks in a section.
	SectionVolume = 16 * 16 * 16
)

// Pos is a block position relative to the block space origin of a chunk:
// X and Z are in the range 0-15, Y is an absolute block height.
type Pos [3]int32

// Config holds the settings shared by all chunks of a region.
type Config struct {
	// Log is the logger that corrupt data is reported to. If nil,
	// slog.Default() is used.
	Log *slog.Logger
	// Air is the state that empty sections are filled with. Blocks with the
	// identifier of Air are not counted as blocks. If left as the zero
	// value, world.Air is used.
	Air world.BlockState
}

func (conf Config) withDefaults() Config {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.Air.ID() == (world.Identifier{}) {
		conf.Air = world.Air
	}
	return conf
}

// Chunk is a vertical column of sections at a chunk coordinate in the world.
type Chunk struct {
	conf Config

	absX, absZ           int32
	xInRegion, zInRegion int

	sections      [SectionCount]*Section
	blockEntities map[Pos]map[string]any
}

// BlockEntity is the NBT data of a block entity together with its chunk-local
// position.
type BlockEntity struct {
	Pos  Pos
	Data map[string]any
}

// New returns an empty chunk at world chunk coordinates absX, absZ, which is
// stored at xInRegion, zInRegion (0-31) in its region.
func (conf Config) New(absX, absZ int32, xInRegion, zInRegion int) *Chunk {
	return &Chunk{
		conf:          conf.withDefaults(),
		absX:          absX,
		absZ:          absZ,
		xInRegion:     xInRegion,
		zInRegion:     zInRegion,
		blockEntities: make(map[Pos]map[string]any),
	}
}

// Pos returns the world chunk coordinates of the chunk.
func (c *Chunk) Pos() (x, z int32) { return c.absX, c.absZ }

// RegionPos returns the position of the chunk inside its region.
func (c *Chunk) RegionPos() (x, z int) { return c.xInRegion, c.zInRegion }

// Air returns the state that empty blocks of the chunk hold.
func (c *Chunk) Air() world.BlockState { return c.conf.Air }

// Section returns the section with section Y y, or nil if the chunk has no
// section there.
func (c *Chunk) Section(y int) *Section {
	if y < MinSection || y > MaxSection {
		return nil
	}
	return c.sections[y-MinSection]
}

// SetSection replaces the section with section Y y. A nil section removes it.
func (c *Chunk) SetSection(y int, s *Section) {
	c.sections[y-MinSection] = s
}

// EnsureSection returns the section with section Y y, creating an empty one
// if it does not exist yet.
func (c *Chunk) EnsureSection(y int) *Section {
	if s := c.Section(y); s != nil {
		return s
	}
	s := c.newSection(y)
	c.sections[y-MinSection] = s
	return s
}

// Sections returns all section slots of the chunk from the lowest to the
// highest. Absent sections are nil.
func (c *Chunk) Sections() []*Section { return slices.Clone(c.sections[:]) }

// Block returns the block at the chunk-local x, z (0-15) and absolute y.
func (c *Chunk) Block(x, y, z int) world.BlockState {
	s := c.Section(y >> 4)
	if s == nil {
		return c.conf.Air
	}
	return s.Block(x, y&15, z)
}

// SetBlock sets the block at the chunk-local x, z (0-15) and absolute y,
// creating the section if needed.
func (c *Chunk) SetBlock(x, y, z int, state world.BlockState) {
	c.EnsureSection(y>>4).SetBlock(x, y&15, z, state)
}

// BlockEntity returns the block entity data at pos.
func (c *Chunk) BlockEntity(pos Pos) (map[string]any, bool) {
	data, ok := c.blockEntities[pos]
	return data, ok
}

// SetBlockEntity stores block entity data at pos. Passing nil removes the
// block entity.
func (c *Chunk) SetBlockEntity(pos Pos, data map[string]any) {
	if data == nil {
		delete(c.blockEntities, pos)
		return
	}
	c.blockEntities[pos] = data
}

// BlockEntities returns all block entities of the chunk ordered by Y, then Z,
// then X.
func (c *Chunk) BlockEntities() []BlockEntity {
	out := make([]BlockEntity, 0, len(c.blockEntities))
	for _, pos := range slices.SortedFunc(maps.Keys(c.blockEntities), comparePos) {
		out = append(out, BlockEntity{Pos: pos, Data: c.blockEntities[pos]})
	}
	return out
}

// origin returns the position of the chunk's block space origin.
func (c *Chunk) origin() Pos {
	return Pos{c.absX << 4, 0, c.absZ << 4}
}

func comparePos(a, b Pos) int {
	return cmp.Or(cmp.Compare(a[1], b[1]), cmp.Compare(a[2], b[2]), cmp.Compare(a[0], b[0]))
}
