package chunk

import (
	"errors"
	"fmt"
)

// ErrInvalidStorage is returned when raw storage words do not match the bit
// width and length they are decoded with.
var ErrInvalidStorage = errors.New("invalid bit storage")

// BitStorage is a fixed length array of unsigned integers that each occupy
// the same number of bits, packed into 64-bit words. An entry never spans two
// words: each word holds 64/bits entries and any remaining high bits are
// unused. Entry i lives in word i/valuesPerWord at bit offset
// (i%valuesPerWord)*bits.
type BitStorage struct {
	words         []uint64
	mask          uint64
	bits, length  int
	valuesPerWord int
}

// NewBitStorage returns a zeroed BitStorage of length entries of bits each.
// It panics if bits is not in the range 1-32.
func NewBitStorage(bits, length int) *BitStorage {
	if bits < 1 || bits > 32 {
		panic(fmt.Sprintf("bit storage: bits per entry %d out of range 1-32", bits))
	}
	vpw := 64 / bits
	return &BitStorage{
		words:         make([]uint64, (length+vpw-1)/vpw),
		mask:          1<<bits - 1,
		bits:          bits,
		length:        length,
		valuesPerWord: vpw,
	}
}

// BitStorageFrom wraps existing words in a BitStorage. An error is returned if
// bits is out of range or if the number of words is not exactly the number
// needed to hold length entries.
func BitStorageFrom(bits, length int, words []uint64) (*BitStorage, error) {
	if bits < 1 || bits > 32 {
		return nil, fmt.Errorf("%w: bits per entry %d out of range 1-32", ErrInvalidStorage, bits)
	}
	if want := storageSize(bits, length); len(words) != want {
		return nil, fmt.Errorf("%w: got %d words for %d entries of %d bits, expected %d", ErrInvalidStorage, len(words), length, bits, want)
	}
	s := NewBitStorage(bits, length)
	copy(s.words, words)
	return s, nil
}

// storageSize returns the number of words needed for length entries of bits.
func storageSize(bits, length int) int {
	vpw := 64 / bits
	return (length + vpw - 1) / vpw
}

// Get returns the entry at index i.
func (s *BitStorage) Get(i int) uint32 {
	w, off := s.locate(i)
	return uint32(s.words[w] >> off & s.mask)
}

// Set stores v at index i. Bits of v above the entry width are discarded.
func (s *BitStorage) Set(i int, v uint32) {
	w, off := s.locate(i)
	s.words[w] = s.words[w]&^(s.mask<<off) | (uint64(v)&s.mask)<<off
}

// Resize returns a new BitStorage with the same entries stored at a different
// width. Entries that do not fit the new width are truncated.
func (s *BitStorage) Resize(bits int) *BitStorage {
	n := NewBitStorage(bits, s.length)
	for i := 0; i < s.length; i++ {
		n.Set(i, s.Get(i))
	}
	return n
}

// Bits returns the number of bits used per entry.
func (s *BitStorage) Bits() int { return s.bits }

// Len returns the number of entries.
func (s *BitStorage) Len() int { return s.length }

// Words returns the underlying words. The slice is shared with the storage.
func (s *BitStorage) Words() []uint64 { return s.words }

func (s *BitStorage) locate(i int) (word int, offset uint) {
	if i < 0 || i >= s.length {
		panic(fmt.Sprintf("bit storage: index %d out of range [0, %d)", i, s.length))
	}
	word = i / s.valuesPerWord
	return word, uint((i - word*s.valuesPerWord) * s.bits)
}
