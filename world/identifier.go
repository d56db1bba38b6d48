package world

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultNamespace is the namespace implied by identifiers that carry no
// explicit namespace, such as "stone".
const DefaultNamespace = "minecraft"

// ErrInvalidIdentifier is returned when a namespace or value contains
// characters outside the permitted set.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// Identifier is a namespaced name such as minecraft:stone. The zero value is
// the empty identifier ":". Identifiers are comparable and may be used as map
// keys.
type Identifier struct {
	namespace, value string
}

// NewIdentifier returns an Identifier with the namespace and value passed. The
// namespace must either be "minecraft" or consist of [a-z0-9._-], and the value
// must consist of [a-z0-9._-/].
func NewIdentifier(namespace, value string) (Identifier, error) {
	if namespace != DefaultNamespace {
		for _, c := range namespace {
			if !baseValid(c) {
				return Identifier{}, fmt.Errorf("%w: namespace %q", ErrInvalidIdentifier, namespace)
			}
		}
	}
	for _, c := range value {
		if !baseValid(c) && c != '/' {
			return Identifier{}, fmt.Errorf("%w: value %q", ErrInvalidIdentifier, value)
		}
	}
	return Identifier{namespace: namespace, value: value}, nil
}

// MustIdentifier is like ParseIdentifier but panics if s is not a valid
// identifier. It is intended for package level constants.
func MustIdentifier(s string) Identifier {
	id, err := ParseIdentifier(s)
	if err != nil {
		panic(err)
	}
	return id
}

// ParseIdentifier parses an identifier in the form namespace:value, splitting
// on the first colon. If s has no colon, the namespace is "minecraft".
func ParseIdentifier(s string) (Identifier, error) {
	namespace, value, ok := strings.Cut(s, ":")
	if !ok {
		return NewIdentifier(DefaultNamespace, s)
	}
	return NewIdentifier(namespace, value)
}

// Namespace returns the namespace of the identifier.
func (id Identifier) Namespace() string { return id.namespace }

// Value returns the part of the identifier after the namespace.
func (id Identifier) Value() string { return id.value }

// String returns the identifier as namespace:value.
func (id Identifier) String() string {
	return id.namespace + ":" + id.value
}

// ShortString returns the identifier without its namespace if the namespace
// is "minecraft", or the full form otherwise.
func (id Identifier) ShortString() string {
	if id.namespace == DefaultNamespace {
		return id.value
	}
	return id.String()
}

func baseValid(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '_'
}
