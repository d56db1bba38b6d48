package world

import (
	"errors"
	"testing"
)

func TestIdentifierRoundTrip(t *testing.T) {
	for _, tc := range []struct{ ns, v string }{
		{"minecraft", "stone"},
		{"minecraft", "block/oak_log"},
		{"my_mod", "fancy.block-1"},
		{"a.b-c_9", ""},
	} {
		id, err := NewIdentifier(tc.ns, tc.v)
		if err != nil {
			t.Fatalf("new identifier %v:%v: %v", tc.ns, tc.v, err)
		}
		parsed, err := ParseIdentifier(id.String())
		if err != nil {
			t.Fatalf("parse %v: %v", id, err)
		}
		if parsed != id {
			t.Fatalf("round trip mismatch: got %v, want %v", parsed, id)
		}
	}
}

func TestParseIdentifierDefaultNamespace(t *testing.T) {
	id, err := ParseIdentifier("dirt")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id.Namespace() != "minecraft" || id.Value() != "dirt" {
		t.Fatalf("unexpected identifier %v", id)
	}
	if id.ShortString() != "dirt" {
		t.Fatalf("short string = %q, want dirt", id.ShortString())
	}
	other := MustIdentifier("mod:dirt")
	if other.ShortString() != "mod:dirt" {
		t.Fatalf("short string = %q, want mod:dirt", other.ShortString())
	}
}

func TestIdentifierValidation(t *testing.T) {
	for _, s := range []string{"Minecraft:stone", "minecraft:Stone", "mod/x:stone", "minecraft:sto ne"} {
		if _, err := ParseIdentifier(s); !errors.Is(err, ErrInvalidIdentifier) {
			t.Fatalf("parse %q: expected ErrInvalidIdentifier, got %v", s, err)
		}
	}
}

func TestBlockStateRoundTrip(t *testing.T) {
	for _, s := range []string{
		"minecraft:stone",
		"minecraft:stone[a=1,b=2]",
		"minecraft:oak_log[axis=y]",
		"mod:thing[z=last,a=first]",
	} {
		state, err := ParseBlockState(s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		if state.String() != s {
			t.Fatalf("canonical form = %q, want %q", state.String(), s)
		}
		again, err := ParseBlockState(state.String())
		if err != nil {
			t.Fatalf("reparse %q: %v", s, err)
		}
		if !again.Equal(state) || again.Hash() != state.Hash() {
			t.Fatalf("round trip mismatch for %q", s)
		}
	}
}

func TestBlockStatePropertyOrder(t *testing.T) {
	state, err := ParseBlockState("minecraft:stone[a=1,b=2]")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	props := state.Properties()
	if len(props) != 2 || props[0] != (Property{"a", "1"}) || props[1] != (Property{"b", "2"}) {
		t.Fatalf("unexpected properties %v", props)
	}
	if v, ok := state.Property("b"); !ok || v != "2" {
		t.Fatalf("property b = %q, %v", v, ok)
	}
	swapped := NewBlockState(state.ID(), Property{"b", "2"}, Property{"a", "1"})
	if !swapped.Equal(state) || !state.Equal(swapped) {
		t.Fatalf("states with the same properties in a different order must be equal")
	}
	if swapped.Hash() != state.Hash() {
		t.Fatalf("hash depends on property order")
	}
	if swapped.String() != "minecraft:stone[b=2,a=1]" {
		t.Fatalf("canonical form = %q, must keep insertion order", swapped.String())
	}
	for _, other := range []BlockState{
		NewBlockState(state.ID(), Property{"a", "1"}),
		NewBlockState(state.ID(), Property{"a", "1"}, Property{"b", "3"}),
		NewBlockState(state.ID(), Property{"a", "1"}, Property{"c", "2"}),
		NewBlockState(MustIdentifier("dirt"), Property{"a", "1"}, Property{"b", "2"}),
	} {
		if other.Equal(state) || state.Equal(other) {
			t.Fatalf("%v must not equal %v", other, state)
		}
	}
}

func TestParseBlockStateErrors(t *testing.T) {
	for _, s := range []string{"minecraft:stone[a=1", "minecraft:stone[a]", "minecraft:stone[a=1,b]"} {
		if _, err := ParseBlockState(s); !errors.Is(err, ErrInvalidBlockState) {
			t.Fatalf("parse %q: expected ErrInvalidBlockState, got %v", s, err)
		}
	}
}

func TestBlockStateFromMap(t *testing.T) {
	state, err := BlockStateFromMap([]string{"blockId", "facing", "half"}, map[string]string{
		"blockId": "minecraft:oak_stairs",
		"facing":  "north",
		"half":    "top",
	})
	if err != nil {
		t.Fatalf("from map: %v", err)
	}
	if state.String() != "minecraft:oak_stairs[facing=north,half=top]" {
		t.Fatalf("unexpected state %v", state)
	}
	if _, err := BlockStateFromMap(nil, map[string]string{"facing": "north"}); !errors.Is(err, ErrInvalidBlockState) {
		t.Fatalf("expected ErrInvalidBlockState for missing blockId, got %v", err)
	}
}
