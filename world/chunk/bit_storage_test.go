package chunk

import (
	"errors"
	"math/rand"
	"testing"
)

func TestBitStorageRoundTripAllWidths(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for bits := 1; bits <= 32; bits++ {
		for _, n := range []int{1, 63, 64, 65, 4096} {
			s := NewBitStorage(bits, n)
			want := make([]uint32, n)
			limit := uint64(1) << bits
			for i := range want {
				want[i] = uint32(r.Uint64() % limit)
				s.Set(i, want[i])
			}
			for i := range want {
				if got := s.Get(i); got != want[i] {
					t.Fatalf("bits=%d n=%d: entry %d = %d, want %d", bits, n, i, got, want[i])
				}
			}
			vpw := 64 / bits
			if len(s.Words()) != (n+vpw-1)/vpw {
				t.Fatalf("bits=%d n=%d: %d words, want %d", bits, n, len(s.Words()), (n+vpw-1)/vpw)
			}
		}
	}
}

func TestBitStorageNeighboursIsolated(t *testing.T) {
	for bits := 1; bits <= 32; bits++ {
		s := NewBitStorage(bits, 200)
		full := uint32(uint64(1)<<bits - 1)
		for i := 0; i < 200; i++ {
			s.Set(i, full)
		}
		s.Set(100, 0)
		if s.Get(99) != full || s.Get(101) != full || s.Get(100) != 0 {
			t.Fatalf("bits=%d: clearing entry 100 affected neighbours", bits)
		}
	}
}

func TestBitStorageLayout(t *testing.T) {
	// 5 bits per entry gives 12 entries per word with the top 4 bits unused.
	s := NewBitStorage(5, 13)
	s.Set(0, 1)
	s.Set(11, 31)
	s.Set(12, 3)
	if s.Words()[0] != 1|31<<55 {
		t.Fatalf("word 0 = %x", s.Words()[0])
	}
	if s.Words()[1] != 3 {
		t.Fatalf("word 1 = %x, entry 12 must start a new word", s.Words()[1])
	}
}

func TestBitStorageSetTruncates(t *testing.T) {
	s := NewBitStorage(4, 2)
	s.Set(0, 0x1f)
	if s.Get(0) != 0xf || s.Get(1) != 0 {
		t.Fatalf("overflowing value leaked: %d %d", s.Get(0), s.Get(1))
	}
}

func TestBitStorageResize(t *testing.T) {
	s := NewBitStorage(4, 4096)
	for i := 0; i < 4096; i++ {
		s.Set(i, uint32(i%16))
	}
	wide := s.Resize(7)
	if wide.Bits() != 7 || wide.Len() != 4096 {
		t.Fatalf("unexpected resized storage: bits=%d len=%d", wide.Bits(), wide.Len())
	}
	for i := 0; i < 4096; i++ {
		if wide.Get(i) != uint32(i%16) {
			t.Fatalf("entry %d changed by resize", i)
		}
	}
}

func TestBitStorageFromValidatesLength(t *testing.T) {
	if _, err := BitStorageFrom(4, 4096, make([]uint64, 255)); !errors.Is(err, ErrInvalidStorage) {
		t.Fatalf("expected ErrInvalidStorage, got %v", err)
	}
	if _, err := BitStorageFrom(0, 4096, nil); !errors.Is(err, ErrInvalidStorage) {
		t.Fatalf("expected ErrInvalidStorage for zero bits, got %v", err)
	}
	s, err := BitStorageFrom(4, 4096, make([]uint64, 256))
	if err != nil {
		t.Fatalf("from words: %v", err)
	}
	if s.Len() != 4096 {
		t.Fatalf("len = %d", s.Len())
	}
}
