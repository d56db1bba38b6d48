package chunk

import (
	"fmt"
	"maps"
	"slices"

	"github.com/mckt-minecraft/worldtools/internal/nbtconv"
	"github.com/mckt-minecraft/worldtools/world"
)

// DataVersion is the data version written to vanilla dialect chunks.
const DataVersion = 3120

const plainsBiome = "minecraft:plains"

// EncodeVanilla encodes the chunk in the vanilla dialect. All 254 section
// slots are written; slots without a section get an air placeholder. Light
// and heightmap data are zero filled.
func (c *Chunk) EncodeVanilla() map[string]any {
	sections := make([]map[string]any, 0, SectionCount)
	for i, s := range c.sections {
		if s != nil {
			sections = append(sections, s.encodeVanilla())
			continue
		}
		sections = append(sections, c.placeholderSection(i+MinSection))
	}
	return map[string]any{
		"DataVersion":    int32(DataVersion),
		"xPos":           c.absX,
		"zPos":           c.absZ,
		"yPos":           int32(MinSection),
		"Status":         "full",
		"LastUpdate":     int64(0),
		"sections":       sections,
		"block_entities": c.encodeBlockEntities(),
		"Heightmaps": map[string]any{
			"MOTION_BLOCKING": [52]int64{},
		},
		"fluid_ticks":   []map[string]any{},
		"block_ticks":   []map[string]any{},
		"InhabitedTime": int64(0),
		"structures": map[string]any{
			"References": map[string]any{},
			"starts":     map[string]any{},
		},
	}
}

// DecodeVanilla replaces the contents of the chunk with the vanilla dialect
// compound m. Block counts are derived by scanning every block.
func (c *Chunk) DecodeVanilla(m map[string]any) error {
	sections, err := nbtconv.Compounds(m, "sections")
	if err != nil {
		return err
	}
	clear(c.sections[:])
	for _, data := range sections {
		y, err := nbtconv.Int8(data, "Y")
		if err != nil {
			return err
		}
		if int(y) < MinSection || int(y) > MaxSection {
			return fmt.Errorf("decode vanilla chunk: section Y %d out of range", y)
		}
		s := c.newSection(int(y))
		if err := s.decodeVanilla(data); err != nil {
			return fmt.Errorf("decode vanilla section %d: %w", y, err)
		}
		c.sections[int(y)-MinSection] = s
	}
	var entities []map[string]any
	if _, ok := m["block_entities"]; ok {
		if entities, err = nbtconv.Compounds(m, "block_entities"); err != nil {
			return err
		}
	}
	return c.decodeBlockEntities(entities)
}

func (s *Section) encodeVanilla() map[string]any {
	s.data.Compact()
	items := s.data.PaletteItems()
	palette := make([]map[string]any, 0, len(items))
	for _, state := range items {
		palette = append(palette, vanillaState(state))
	}
	states := map[string]any{"palette": palette}
	if len(items) > 1 {
		// Readers derive the width from the palette size, so the words are
		// written at exactly that width.
		storage := s.data.Storage()
		if width := WidthForCount(len(items)); storage.Bits() != width {
			storage = storage.Resize(width)
		}
		states["data"] = nbtconv.LongArray(storage.Words())
	}
	return vanillaSection(s.y, states)
}

func (c *Chunk) placeholderSection(y int) map[string]any {
	return vanillaSection(y, map[string]any{
		"palette": []map[string]any{vanillaState(c.conf.Air)},
	})
}

func vanillaSection(y int, states map[string]any) map[string]any {
	return map[string]any{
		"Y":            uint8(int8(y)),
		"block_states": states,
		"biomes": map[string]any{
			"palette": []string{plainsBiome},
		},
		"BlockLight": [2048]byte{},
		"SkyLight":   [2048]byte{},
	}
}

func vanillaState(state world.BlockState) map[string]any {
	props := make(map[string]any)
	for _, p := range state.Properties() {
		props[p.Key] = p.Value
	}
	return map[string]any{
		"Name":       state.ID().String(),
		"Properties": props,
	}
}

func (s *Section) decodeVanilla(m map[string]any) error {
	states, err := nbtconv.Map(m, "block_states")
	if err != nil {
		return err
	}
	entries, err := nbtconv.Compounds(states, "palette")
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("%w: empty block state palette", nbtconv.ErrMissingField)
	}
	palette := make([]world.BlockState, 0, len(entries))
	for i, e := range entries {
		state, err := stateFromVanilla(e)
		if err != nil {
			return fmt.Errorf("palette entry %d: %w", i, err)
		}
		palette = append(palette, state)
	}
	s.data.SetPaletteItems(palette)

	words, ok, err := nbtconv.Uint64s(states, "data")
	if err != nil {
		return err
	}
	if ok {
		storage, err := BitStorageFrom(WidthForCount(len(palette)), SectionVolume, words)
		if err != nil {
			return err
		}
		if err := s.data.SetStorage(storage); err != nil {
			return err
		}
	}
	s.Recount()
	return nil
}

// stateFromVanilla decodes a {Name, Properties} compound. NBT compounds carry
// no key order, so properties are ordered by key.
func stateFromVanilla(m map[string]any) (world.BlockState, error) {
	name, err := nbtconv.String(m, "Name")
	if err != nil {
		return world.BlockState{}, err
	}
	id, err := world.ParseIdentifier(name)
	if err != nil {
		return world.BlockState{}, err
	}
	raw, err := nbtconv.OptionalMap(m, "Properties")
	if err != nil {
		return world.BlockState{}, err
	}
	props := make([]world.Property, 0, len(raw))
	for _, k := range slices.Sorted(maps.Keys(raw)) {
		v, err := nbtconv.String(raw, k)
		if err != nil {
			return world.BlockState{}, err
		}
		props = append(props, world.Property{Key: k, Value: v})
	}
	return world.NewBlockState(id, props...), nil
}
