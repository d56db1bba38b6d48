package nbtconv

import (
	"errors"
	"testing"

	"github.com/sandertv/gophertunnel/minecraft/nbt"
)

func TestLongArrayRoundTrip(t *testing.T) {
	words := []uint64{0, 1, 1 << 63, 0xdeadbeefcafebabe, 0x1111111111111111, 0x2222222222222222, 0x0102030405060708}
	data, err := nbt.MarshalEncoding(map[string]any{"data": LongArray(words)}, nbt.BigEndian)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	m, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got, ok, err := Uint64s(m, "data")
	if err != nil || !ok {
		t.Fatalf("read long array: ok=%v err=%v", ok, err)
	}
	assertWords(t, got, words)
}

func TestDecodeNestedLongs(t *testing.T) {
	words := []uint64{0x1111111111111111, 0x2222222222222222, 0x0102030405060708}
	longs := make([]int64, len(words))
	for i, w := range words {
		longs[i] = int64(w)
	}
	data, err := nbt.MarshalEncoding(map[string]any{
		"sections": []map[string]any{{"data": LongArray(words)}},
		"inner":    map[string]any{"list": longs, "single": int64(7)},
	}, nbt.BigEndian)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	m, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	sections, err := Compounds(m, "sections")
	if err != nil || len(sections) != 1 {
		t.Fatalf("sections: %v", err)
	}
	got, _, err := Uint64s(sections[0], "data")
	if err != nil {
		t.Fatalf("read long array: %v", err)
	}
	assertWords(t, got, words)

	inner, err := Map(m, "inner")
	if err != nil {
		t.Fatalf("inner: %v", err)
	}
	list, _, err := Uint64s(inner, "list")
	if err != nil {
		t.Fatalf("read long list: %v", err)
	}
	assertWords(t, list, words)
	if inner["single"] != int64(7) {
		t.Fatalf("single long = %v, want 7", inner["single"])
	}
}

func TestUnscrambleInvertsStrideBug(t *testing.T) {
	words := []uint64{0x1111111111111111, 0x2222222222222222, 0x0102030405060708}
	// Words as read back by a decoder that swaps bytes at a stride of 4.
	got := []uint64{0x2222222211111111, 0x1111111122222222, 0x0807060504030201}
	unscramble(got)
	assertWords(t, got, words)
}

func assertWords(t *testing.T, got, want []uint64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d words, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("word %d = %x, want %x", i, got[i], want[i])
		}
	}
}

func TestAccessorsReportMissingFields(t *testing.T) {
	m := map[string]any{"x": int32(3), "name": "a", "y": uint8(0xff)}
	if v, err := Int32(m, "x"); err != nil || v != 3 {
		t.Fatalf("Int32 = %v, %v", v, err)
	}
	if v, err := Int8(m, "y"); err != nil || v != -1 {
		t.Fatalf("Int8 = %v, %v", v, err)
	}
	if _, err := Int32(m, "z"); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
	if _, err := String(m, "x"); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField for wrong type, got %v", err)
	}
	if _, err := Compounds(m, "list"); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField for absent list, got %v", err)
	}
	if _, ok, err := Uint64s(m, "data"); ok || err != nil {
		t.Fatalf("absent long array: ok=%v err=%v", ok, err)
	}
}

func TestBitSetWords(t *testing.T) {
	if got := BitSetWords([]uint64{1, 0, 4, 0, 0}); len(got) != 3 {
		t.Fatalf("trimmed length = %d, want 3", len(got))
	}
	if got := BitSetWords([]uint64{0, 0}); len(got) != 0 {
		t.Fatalf("trimmed length = %d, want 0", len(got))
	}
}
