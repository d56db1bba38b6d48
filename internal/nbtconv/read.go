// Package nbtconv implements helpers to read values out of NBT compounds
// decoded into map[string]any by the gophertunnel nbt package, and to build
// array tags that the encoder writes as TAG_Long_Array or TAG_Byte_Array.
package nbtconv

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrMissingField is returned when a required field is absent from a compound
// or holds a value of an unexpected tag type.
var ErrMissingField = errors.New("missing or malformed NBT field")

func missing(key string, v any) error {
	if v == nil {
		return fmt.Errorf("%w: %q", ErrMissingField, key)
	}
	return fmt.Errorf("%w: %q has type %T", ErrMissingField, key, v)
}

// Int32 reads an integer field of any integral tag type from m.
func Int32(m map[string]any, key string) (int32, error) {
	v := m[key]
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		return int32(rv.Int()), nil
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		return int32(rv.Uint()), nil
	}
	return 0, missing(key, v)
}

// Int8 reads a TAG_Byte field from m as a signed value.
func Int8(m map[string]any, key string) (int8, error) {
	switch v := m[key].(type) {
	case uint8:
		return int8(v), nil
	case int8:
		return v, nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	}
	n, err := Int32(m, key)
	return int8(n), err
}

// String reads a TAG_String field from m.
func String(m map[string]any, key string) (string, error) {
	if s, ok := m[key].(string); ok {
		return s, nil
	}
	return "", missing(key, m[key])
}

// Map reads a TAG_Compound field from m. A missing compound is an error.
func Map(m map[string]any, key string) (map[string]any, error) {
	if c, ok := m[key].(map[string]any); ok {
		return c, nil
	}
	return nil, missing(key, m[key])
}

// OptionalMap reads a TAG_Compound field from m, returning an empty map if the
// field is absent.
func OptionalMap(m map[string]any, key string) (map[string]any, error) {
	if _, ok := m[key]; !ok {
		return map[string]any{}, nil
	}
	return Map(m, key)
}

// Slice reads a TAG_List field from m, returning its elements.
func Slice(m map[string]any, key string) ([]any, error) {
	v, ok := m[key]
	if !ok {
		return nil, missing(key, nil)
	}
	if s, ok := v.([]any); ok {
		return s, nil
	} else if v == nil {
		// Empty lists may decode without an element type.
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, missing(key, v)
	}
	s := make([]any, rv.Len())
	for i := range s {
		s[i] = rv.Index(i).Interface()
	}
	return s, nil
}

// Compounds reads a TAG_List of TAG_Compound from m.
func Compounds(m map[string]any, key string) ([]map[string]any, error) {
	list, err := Slice(m, key)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(list))
	for i, e := range list {
		c, ok := e.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %q[%d] has type %T", ErrMissingField, key, i, e)
		}
		out = append(out, c)
	}
	return out, nil
}

// Uint64s reads a TAG_Long_Array field from m, reinterpreting each long as an
// unsigned word. The second return value is false if the field is absent.
func Uint64s(m map[string]any, key string) ([]uint64, bool, error) {
	v, ok := m[key]
	if !ok {
		return nil, false, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Array && rv.Kind() != reflect.Slice {
		return nil, true, missing(key, v)
	}
	words := make([]uint64, rv.Len())
	for i := range words {
		e := rv.Index(i)
		if e.Kind() == reflect.Interface {
			e = e.Elem()
		}
		switch e.Kind() {
		case reflect.Int64, reflect.Int32, reflect.Int:
			words[i] = uint64(e.Int())
		case reflect.Uint64:
			words[i] = e.Uint()
		default:
			return nil, true, missing(key, v)
		}
	}
	return words, true, nil
}
