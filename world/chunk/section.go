package chunk

import (
	"github.com/mckt-minecraft/worldtools/world"
)

// Section is a 16x16x16 cube of block states inside a Chunk.
type Section struct {
	y          int
	air        world.Identifier
	data       *PalettedStorage[world.BlockState]
	blockCount int
}

func (c *Chunk) newSection(y int) *Section {
	return &Section{
		y:    y,
		air:  c.conf.Air.ID(),
		data: NewPalettedStorage(SectionVolume, c.conf.Air).WithLogger(c.conf.Log),
	}
}

// Y returns the section Y of the section.
func (s *Section) Y() int { return s.y }

// BlockCount returns the number of blocks in the section that are not air.
func (s *Section) BlockCount() int { return s.blockCount }

// Storage returns the paletted storage holding the blocks of the section,
// indexed by (y<<8)|(z<<4)|x.
func (s *Section) Storage() *PalettedStorage[world.BlockState] { return s.data }

// Block returns the block at the section-local x, y, z (0-15).
func (s *Section) Block(x, y, z int) world.BlockState {
	return s.data.Get(index(x, y, z))
}

// SetBlock sets the block at the section-local x, y, z (0-15) and updates the
// block count.
func (s *Section) SetBlock(x, y, z int, state world.BlockState) {
	i := index(x, y, z)
	if s.data.Get(i).ID() != s.air {
		s.blockCount--
	}
	s.data.Set(i, state)
	if state.ID() != s.air {
		s.blockCount++
	}
}

// Recount recomputes the block count by scanning every block of the section.
func (s *Section) Recount() {
	s.blockCount = 0
	for i := 0; i < SectionVolume; i++ {
		if s.data.Get(i).ID() != s.air {
			s.blockCount++
		}
	}
}

func index(x, y, z int) int {
	return (y&15)<<8 | (z&15)<<4 | x&15
}
