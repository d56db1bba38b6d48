package chunk

import (
	"fmt"
	"maps"
	"slices"

	"github.com/mckt-minecraft/worldtools/internal/nbtconv"
	"github.com/mckt-minecraft/worldtools/world"
)

// EncodeNative encodes the chunk in the native dialect. Only sections holding
// at least one non-air block are written; SectionsPresent flags which slots
// they belong to.
func (c *Chunk) EncodeNative() map[string]any {
	var present [(SectionCount + 63) / 64]uint64
	sections := make([]map[string]any, 0, 8)
	for i, s := range c.sections {
		if s == nil || s.blockCount == 0 {
			continue
		}
		present[i>>6] |= 1 << (i & 63)
		sections = append(sections, s.encodeNative())
	}
	return map[string]any{
		"SectionsPresent": nbtconv.LongArray(nbtconv.BitSetWords(present[:])),
		"Sections":        sections,
		"BlockEntities":   c.encodeBlockEntities(),
	}
}

// DecodeNative replaces the contents of the chunk with the native dialect
// compound m.
func (c *Chunk) DecodeNative(m map[string]any) error {
	present, ok, err := nbtconv.Uint64s(m, "SectionsPresent")
	if err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w: %q", nbtconv.ErrMissingField, "SectionsPresent")
	}
	sections, err := nbtconv.Compounds(m, "Sections")
	if err != nil {
		return err
	}
	next := 0
	for i := range c.sections {
		c.sections[i] = nil
		if i>>6 >= len(present) || present[i>>6]&(1<<(i&63)) == 0 {
			continue
		}
		if next >= len(sections) {
			return fmt.Errorf("decode native chunk: section slot %d flagged present but only %d sections stored", i, len(sections))
		}
		s := c.newSection(i + MinSection)
		if err := s.decodeNative(sections[next]); err != nil {
			return fmt.Errorf("decode native section %d: %w", i+MinSection, err)
		}
		c.sections[i] = s
		next++
	}
	entities, err := nbtconv.Compounds(m, "BlockEntities")
	if err != nil {
		return err
	}
	return c.decodeBlockEntities(entities)
}

func (s *Section) encodeNative() map[string]any {
	s.data.Compact()
	palette := make([]string, 0, s.data.PaletteSize())
	for _, state := range s.data.PaletteItems() {
		palette = append(palette, state.String())
	}
	storage := s.data.Storage()
	return map[string]any{
		"BlockCount": int32(s.blockCount),
		"Palette":    palette,
		"Blocks": map[string]any{
			"bits": int32(storage.Bits()),
			"data": nbtconv.LongArray(storage.Words()),
		},
	}
}

func (s *Section) decodeNative(m map[string]any) error {
	count, err := nbtconv.Int32(m, "BlockCount")
	if err != nil {
		return err
	}
	entries, err := nbtconv.Slice(m, "Palette")
	if err != nil {
		return err
	}
	palette := make([]world.BlockState, 0, len(entries))
	for i, e := range entries {
		state, err := nativePaletteEntry(e)
		if err != nil {
			return fmt.Errorf("palette entry %d: %w", i, err)
		}
		palette = append(palette, state)
	}
	blocks, err := nbtconv.Map(m, "Blocks")
	if err != nil {
		return err
	}
	bits, err := nbtconv.Int32(blocks, "bits")
	if err != nil {
		return err
	}
	words, ok, err := nbtconv.Uint64s(blocks, "data")
	if err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w: %q", nbtconv.ErrMissingField, "data")
	}
	storage, err := BitStorageFrom(int(bits), SectionVolume, words)
	if err != nil {
		return err
	}
	s.data.SetPaletteItems(palette)
	if err := s.data.SetStorage(storage); err != nil {
		return err
	}
	s.blockCount = int(count)
	return nil
}

// nativePaletteEntry decodes a palette entry that is either a canonical block
// state string or a legacy compound of a blockId and its properties.
func nativePaletteEntry(e any) (world.BlockState, error) {
	switch v := e.(type) {
	case string:
		return world.ParseBlockState(v)
	case map[string]any:
		props := make(map[string]string, len(v))
		for k, raw := range v {
			str, ok := raw.(string)
			if !ok {
				return world.BlockState{}, fmt.Errorf("%w: property %q has type %T", world.ErrInvalidBlockState, k, raw)
			}
			props[k] = str
		}
		return world.BlockStateFromMap(slices.Sorted(maps.Keys(props)), props)
	}
	return world.BlockState{}, fmt.Errorf("%w: palette entry has type %T", world.ErrInvalidBlockState, e)
}

// encodeBlockEntities returns the block entity compounds of the chunk with
// their x, y and z fields set to absolute world coordinates.
func (c *Chunk) encodeBlockEntities() []map[string]any {
	origin := c.origin()
	out := make([]map[string]any, 0, len(c.blockEntities))
	for _, be := range c.BlockEntities() {
		data := maps.Clone(be.Data)
		data["x"] = be.Pos[0] + origin[0]
		data["y"] = be.Pos[1] + origin[1]
		data["z"] = be.Pos[2] + origin[2]
		out = append(out, data)
	}
	return out
}

// decodeBlockEntities replaces the block entities of the chunk, keying each by
// its absolute position minus the chunk origin.
func (c *Chunk) decodeBlockEntities(entities []map[string]any) error {
	clear(c.blockEntities)
	origin := c.origin()
	for i, data := range entities {
		var pos Pos
		for axis, key := range [3]string{"x", "y", "z"} {
			v, err := nbtconv.Int32(data, key)
			if err != nil {
				return fmt.Errorf("block entity %d: %w", i, err)
			}
			pos[axis] = v - origin[axis]
		}
		c.blockEntities[pos] = data
	}
	return nil
}
