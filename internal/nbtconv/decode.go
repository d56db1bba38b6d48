package nbtconv

import (
	"bytes"
	"encoding/binary"
	"io"
	"reflect"

	"github.com/sandertv/gophertunnel/minecraft/nbt"
)

// Decode reads one big endian NBT compound from r. Every region format reads
// its NBT through Decode, so that long arrays come out with their words
// intact.
func Decode(r io.Reader) (map[string]any, error) {
	var m map[string]any
	if err := nbt.NewDecoderWithEncoding(r, nbt.BigEndian).Decode(&m); err != nil {
		return nil, err
	}
	if longsScrambled {
		repairCompound(m)
	}
	return m, nil
}

// Unmarshal decodes a big endian NBT compound held in b.
func Unmarshal(b []byte) (map[string]any, error) {
	return Decode(bytes.NewReader(b))
}

// longsScrambled is true when the nbt decoder mangles big endian long arrays:
// gophertunnel v1.50.0 reverses the bytes of each long at a stride of four
// bytes instead of eight before reinterpreting the buffer in native order.
var longsScrambled = detectScrambledLongs()

func detectScrambledLongs() bool {
	want := []uint64{0x0102030405060708, 0x1112131415161718}
	b, err := nbt.MarshalEncoding(map[string]any{"a": LongArray(want)}, nbt.BigEndian)
	if err != nil {
		return false
	}
	var m map[string]any
	if err := nbt.UnmarshalEncoding(b, &m, nbt.BigEndian); err != nil {
		return false
	}
	got, _, err := Uint64s(m, "a")
	if err != nil || len(got) != len(want) {
		return false
	}
	return got[0] != want[0] || got[1] != want[1]
}

func repairCompound(m map[string]any) {
	for k, v := range m {
		m[k] = repair(v)
	}
}

func repair(v any) any {
	switch v := v.(type) {
	case map[string]any:
		repairCompound(v)
		return v
	case []any:
		for i, e := range v {
			v[i] = repair(e)
		}
		return v
	case []map[string]any:
		for _, e := range v {
			repairCompound(e)
		}
		return v
	case []int64:
		// A TAG_List of TAG_Long goes through the same decoding path.
		words := make([]uint64, len(v))
		for i, w := range v {
			words[i] = uint64(w)
		}
		unscramble(words)
		for i, w := range words {
			v[i] = int64(w)
		}
		return v
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Array || rv.Type().Elem().Kind() != reflect.Int64 {
		return v
	}
	words := make([]uint64, rv.Len())
	for i := range words {
		words[i] = uint64(rv.Index(i).Int())
	}
	unscramble(words)
	return LongArray(words)
}

// unscramble restores words decoded by a scrambling decoder: it rebuilds the
// buffer the decoder reinterpreted, undoes its swaps in reverse order and
// reads the original big endian longs back.
func unscramble(words []uint64) {
	b := make([]byte, len(words)*8)
	for i, w := range words {
		binary.NativeEndian.PutUint64(b[i*8:], w)
	}
	for i := len(words) - 1; i >= 0; i-- {
		off := i * 4
		for k := 0; k < 4; k++ {
			b[off+k], b[off+7-k] = b[off+7-k], b[off+k]
		}
	}
	for i := range words {
		words[i] = binary.BigEndian.Uint64(b[i*8:])
	}
}
