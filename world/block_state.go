package world

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ErrInvalidBlockState is returned when a textual block state is malformed.
var ErrInvalidBlockState = errors.New("invalid block state")

// Air is the state of minecraft:air without properties. It is the default
// value of every block storage unless configured otherwise.
var Air = BlockState{id: MustIdentifier("air")}

// Property is a single key=value pair of a BlockState.
type Property struct {
	Key, Value string
}

// BlockState is a block Identifier combined with a list of properties. The
// order in which properties were added is kept in the canonical string form,
// but two states with the same properties in a different order are equal.
// BlockState values are immutable.
type BlockState struct {
	id    Identifier
	props []Property
}

// NewBlockState returns a BlockState with the identifier and properties
// passed. A property key that occurs more than once keeps its first position
// and its last value.
func NewBlockState(id Identifier, props ...Property) BlockState {
	s := BlockState{id: id}
	for _, p := range props {
		s.props = setProperty(s.props, p.Key, p.Value)
	}
	return s
}

// ParseBlockState parses the canonical form of a block state, for example
// minecraft:oak_log[axis=y] or stone.
func ParseBlockState(s string) (BlockState, error) {
	bracket := strings.IndexByte(s, '[')
	if bracket == -1 {
		id, err := ParseIdentifier(s)
		if err != nil {
			return BlockState{}, err
		}
		return BlockState{id: id}, nil
	}
	id, err := ParseIdentifier(s[:bracket])
	if err != nil {
		return BlockState{}, err
	}
	if s[len(s)-1] != ']' {
		return BlockState{}, fmt.Errorf("%w: mismatched [ in %q", ErrInvalidBlockState, s)
	}
	state := BlockState{id: id}
	for _, prop := range strings.Split(s[bracket+1:len(s)-1], ",") {
		k, v, ok := strings.Cut(prop, "=")
		if !ok {
			return BlockState{}, fmt.Errorf("%w: missing \"=\": %s", ErrInvalidBlockState, prop)
		}
		state.props = setProperty(state.props, k, v)
	}
	return state, nil
}

// BlockStateFromMap decodes the legacy compound representation of a block
// state: a "blockId" entry holding the identifier and one entry per property.
// keys holds the order in which the properties should be kept.
func BlockStateFromMap(keys []string, m map[string]string) (BlockState, error) {
	raw, ok := m["blockId"]
	if !ok {
		return BlockState{}, fmt.Errorf("%w: missing blockId field from block state data", ErrInvalidBlockState)
	}
	id, err := ParseIdentifier(raw)
	if err != nil {
		return BlockState{}, err
	}
	state := BlockState{id: id}
	for _, k := range keys {
		if k == "blockId" {
			continue
		}
		if v, ok := m[k]; ok {
			state.props = setProperty(state.props, k, v)
		}
	}
	return state, nil
}

// ID returns the block identifier of the state.
func (s BlockState) ID() Identifier { return s.id }

// Properties returns a copy of the properties of the state in order.
func (s BlockState) Properties() []Property { return slices.Clone(s.props) }

// Property looks up the value of a property by its key.
func (s BlockState) Property(key string) (string, bool) {
	for _, p := range s.props {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Equal reports if two states have the same identifier and the same set of
// properties, in any order.
func (s BlockState) Equal(o BlockState) bool {
	if s.id != o.id || len(s.props) != len(o.props) {
		return false
	}
	for _, p := range s.props {
		if v, ok := o.Property(p.Key); !ok || v != p.Value {
			return false
		}
	}
	return true
}

// Hash returns a 64-bit hash of the identifier and the properties of the
// state sorted by key. Equal states always produce equal hashes.
func (s BlockState) Hash() uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(s.id.namespace)
	_, _ = d.WriteString(":")
	_, _ = d.WriteString(s.id.value)
	props := s.props
	if !slices.IsSortedFunc(props, compareKeys) {
		props = slices.SortedFunc(slices.Values(props), compareKeys)
	}
	for _, p := range props {
		_, _ = d.WriteString("\x00")
		_, _ = d.WriteString(p.Key)
		_, _ = d.WriteString("=")
		_, _ = d.WriteString(p.Value)
	}
	return d.Sum64()
}

// String returns the canonical form of the state: the identifier followed by
// [k1=v1,k2=v2] if the state has any properties.
func (s BlockState) String() string {
	if len(s.props) == 0 {
		return s.id.String()
	}
	var b strings.Builder
	b.WriteString(s.id.String())
	b.WriteByte('[')
	for i, p := range s.props {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(p.Value)
	}
	b.WriteByte(']')
	return b.String()
}

func compareKeys(a, b Property) int { return strings.Compare(a.Key, b.Key) }

func setProperty(props []Property, k, v string) []Property {
	for i, p := range props {
		if p.Key == k {
			props[i].Value = v
			return props
		}
	}
	return append(props, Property{Key: k, Value: v})
}
