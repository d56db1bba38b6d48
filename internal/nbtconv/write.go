package nbtconv

import (
	"reflect"
)

var int64Type = reflect.TypeOf(int64(0))

// LongArray returns a value that the nbt encoder writes as a TAG_Long_Array
// holding words. The encoder only writes fixed size arrays as array tags, so
// the array type is built to match the length of words.
func LongArray(words []uint64) any {
	arr := reflect.New(reflect.ArrayOf(len(words), int64Type)).Elem()
	for i, w := range words {
		arr.Index(i).SetInt(int64(w))
	}
	return arr.Interface()
}

// BitSetWords returns the words of a bit set in the layout of
// java.util.BitSet#toLongArray: trailing zero words are dropped.
func BitSetWords(words []uint64) []uint64 {
	n := len(words)
	for n > 0 && words[n-1] == 0 {
		n--
	}
	return words[:n]
}
