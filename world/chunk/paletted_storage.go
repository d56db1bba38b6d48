package chunk

import (
	"fmt"
	"log/slog"
	"math/bits"
	"slices"

	"github.com/brentp/intintmap"
)

const (
	// minBits is the width every PalettedStorage starts out with.
	minBits = 4
	// linearLimit is the palette size up to which ids are looked up by a
	// linear scan. Larger palettes are indexed by hash.
	linearLimit = 16
)

// PaletteValue is implemented by values that may be stored in a
// PalettedStorage.
type PaletteValue[V any] interface {
	Equal(V) bool
	Hash() uint64
}

// PalettedStorage maps each index of a fixed size array to a value of type V.
// Distinct values are kept in a palette and the array itself only stores
// small palette ids in a BitStorage. Palette id 0 always starts out as the
// default value passed to NewPalettedStorage.
type PalettedStorage[V PaletteValue[V]] struct {
	size    int
	def     V
	values  []V
	index   *intintmap.Map
	storage *BitStorage
	log     *slog.Logger
}

// NewPalettedStorage returns a PalettedStorage of size entries, all set to
// def, using 4 bits per entry.
func NewPalettedStorage[V PaletteValue[V]](size int, def V) *PalettedStorage[V] {
	return &PalettedStorage[V]{
		size:    size,
		def:     def,
		values:  []V{def},
		storage: NewBitStorage(minBits, size),
	}
}

// WithLogger sets the logger that corrupt palette references are reported to.
func (p *PalettedStorage[V]) WithLogger(log *slog.Logger) *PalettedStorage[V] {
	p.log = log
	return p
}

// WidthForCount returns the bit width used to store n distinct palette values:
// the bit length of n, but never less than 4.
func WidthForCount(n int) int {
	return max(minBits, bits.Len(uint(n)))
}

// Size returns the number of entries in the storage.
func (p *PalettedStorage[V]) Size() int { return p.size }

// Get returns the value at index i. If the palette id stored at i has no
// palette entry, the default value is returned and a warning is logged.
func (p *PalettedStorage[V]) Get(i int) V {
	id := p.storage.Get(i)
	if int(id) >= len(p.values) {
		p.logger().Warn("Paletted item is not in the palette.", "index", i, "id", id, "palette_size", len(p.values))
		return p.def
	}
	return p.values[id]
}

// Set stores v at index i, adding v to the palette if it is not yet part of
// it. If the palette outgrows the current bit width, the storage is widened
// by one bit.
func (p *PalettedStorage[V]) Set(i int, v V) {
	if id, ok := p.lookup(v); ok {
		p.storage.Set(i, uint32(id))
		return
	}
	id := len(p.values)
	for id >= 1<<p.storage.Bits() {
		p.storage = p.storage.Resize(p.storage.Bits() + 1)
	}
	p.add(v)
	p.storage.Set(i, uint32(id))
}

// Compact rebuilds the storage from scratch, dropping palette entries that are
// no longer referenced and renumbering the rest in index order. The storage is
// only replaced if the rebuilt palette is of a different size.
func (p *PalettedStorage[V]) Compact() {
	n := NewPalettedStorage(p.size, p.def)
	n.log = p.log
	for i := 0; i < p.size; i++ {
		n.Set(i, p.Get(i))
	}
	if len(n.values) != len(p.values) {
		p.values, p.index, p.storage = n.values, n.index, n.storage
	}
}

// PaletteItems returns a copy of the palette, ordered by palette id.
func (p *PalettedStorage[V]) PaletteItems() []V { return slices.Clone(p.values) }

// PaletteSize returns the number of palette entries.
func (p *PalettedStorage[V]) PaletteSize() int { return len(p.values) }

// SetPaletteItems replaces the palette so that id k maps to items[k]. The bit
// storage is left untouched and is expected to be replaced through SetStorage.
func (p *PalettedStorage[V]) SetPaletteItems(items []V) {
	p.values, p.index = nil, nil
	for _, v := range items {
		p.add(v)
	}
}

// Storage returns the BitStorage holding the palette ids.
func (p *PalettedStorage[V]) Storage() *BitStorage { return p.storage }

// SetStorage replaces the BitStorage holding the palette ids. It must hold
// exactly Size entries.
func (p *PalettedStorage[V]) SetStorage(s *BitStorage) error {
	if s.Len() != p.size {
		return fmt.Errorf("%w: storage of %d entries for palette of size %d", ErrInvalidStorage, s.Len(), p.size)
	}
	p.storage = s
	return nil
}

// lookup finds the palette id of v.
func (p *PalettedStorage[V]) lookup(v V) (int, bool) {
	if p.index != nil {
		if id, ok := p.index.Get(int64(v.Hash())); ok && p.values[id].Equal(v) {
			return int(id), true
		} else if !ok {
			return 0, false
		}
		// Hash collision with a different value: fall back to scanning.
	}
	for id, e := range p.values {
		if e.Equal(v) {
			return id, true
		}
	}
	return 0, false
}

// add appends v to the palette, switching to a hash index once the palette
// grows past linearLimit entries.
func (p *PalettedStorage[V]) add(v V) {
	p.values = append(p.values, v)
	switch {
	case p.index != nil:
		p.indexValue(len(p.values)-1, v)
	case len(p.values) > linearLimit:
		p.index = intintmap.New(len(p.values)*2, 0.6)
		for id, e := range p.values {
			p.indexValue(id, e)
		}
	}
}

func (p *PalettedStorage[V]) indexValue(id int, v V) {
	h := int64(v.Hash())
	if _, ok := p.index.Get(h); !ok {
		p.index.Put(h, int64(id))
	}
}

func (p *PalettedStorage[V]) logger() *slog.Logger {
	if p.log == nil {
		return slog.Default()
	}
	return p.log
}
