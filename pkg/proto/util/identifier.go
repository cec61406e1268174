package util

import (
	"fmt"
	"io"
	"strings"
)

// Identifier is a namespaced resource location like "minecraft:brand".
type Identifier struct {
	namespace string
	key       string
}

// DefaultNamespace is assumed when an identifier carries no explicit namespace.
const DefaultNamespace = "minecraft"

// NewIdentifier validates and returns an identifier.
func NewIdentifier(s string) (Identifier, error) {
	namespace, key := DefaultNamespace, s
	if i := strings.IndexByte(s, ':'); i != -1 {
		namespace, key = s[:i], s[i+1:]
	}
	if !validNamespace(namespace) {
		return Identifier{}, fmt.Errorf("invalid identifier namespace %q", namespace)
	}
	if !validKey(key) {
		return Identifier{}, fmt.Errorf("invalid identifier key %q", key)
	}
	return Identifier{namespace: namespace, key: key}, nil
}

func (i Identifier) Namespace() string { return i.namespace }
func (i Identifier) Key() string       { return i.key }

func (i Identifier) String() string {
	return i.namespace + ":" + i.key
}

func validNamespace(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '.' || c == '-' || c == '_') {
			return false
		}
	}
	return true
}

func validKey(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '.' || c == '-' || c == '_' || c == '/') {
			return false
		}
	}
	return true
}

// ReadIdentifier reads and validates a string-encoded identifier.
func ReadIdentifier(rd io.Reader) (Identifier, error) {
	s, err := ReadStringMax(rd, 256)
	if err != nil {
		return Identifier{}, err
	}
	return NewIdentifier(s)
}

// WriteIdentifier writes an identifier in its string encoding.
func WriteIdentifier(wr io.Writer, id Identifier) error {
	return WriteString(wr, id.String())
}
