package post

import (
	"encoding/json"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindUnset Kind = iota
	KindString
	KindBool
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	default:
		return "unset"
	}
}

// Value is a front-matter value that may be a string, a boolean, or a
// list of strings. The zero Value is unset.
type Value struct {
	kind Kind
	str  string
	b    bool
	list []string

	// numeric holds the YAML tag of an unquoted number or date, which
	// is written back unquoted so the renderer sees the same type.
	numeric string
}

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// scalarValue keeps the resolved YAML tag of a plain number or date.
func scalarValue(text, tag string) Value {
	v := String(text)
	switch tag {
	case "!!int", "!!float", "!!timestamp":
		v.numeric = tag
	}
	return v
}

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// List returns a list Value. A nil items slice is stored as empty so
// that "[]" and an absent key stay distinguishable.
func List(items ...string) Value {
	if items == nil {
		items = []string{}
	}
	return Value{kind: KindList, list: items}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsSet reports whether v holds any variant.
func (v Value) IsSet() bool { return v.kind != KindUnset }

// Str returns the string variant and whether v holds one.
func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// Bool returns the boolean variant and whether v holds one.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// List returns the list variant and whether v holds one.
func (v Value) List() ([]string, bool) { return v.list, v.kind == KindList }

// Truthy reports whether v is Bool(true). Renderers that only care
// about on/off use it; string and list variants are not true.
func (v Value) Truthy() bool { return v.kind == KindBool && v.b }

// Interface returns the held value as nil, string, bool or []string.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindBool:
		return v.b
	case KindList:
		return v.list
	default:
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func containsFold(items []string, want string) bool {
	for _, item := range items {
		if strings.EqualFold(item, want) {
			return true
		}
	}
	return false
}
