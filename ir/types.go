// Package ir is the instruction model the analyzers and the code generator
// work on: a per-script arena of typed instructions kept in a doubly linked
// order, with the control-flow markers that delimit branches and loops.
package ir

import (
	"strings"

	"github.com/chazu/blockjit/value"
)

// Type is a set of value kinds. The zero Type is Void: no value yet.
type Type uint8

const (
	Void   Type = 0
	Number Type = 1 << (iota - 1)
	Bool
	String

	// Unknown holds every kind and must be boxed at runtime.
	Unknown = Number | Bool | String
)

// Union returns the set of kinds held by either type.
func (t Type) Union(o Type) Type { return (t | o) & Unknown }

// Contains reports whether every kind of sub is also a kind of t.
func (t Type) Contains(sub Type) bool { return sub&^t == 0 }

// IsConcrete reports whether t holds exactly one kind.
func (t Type) IsConcrete() bool { return t == Number || t == Bool || t == String }

// IsUnknown reports whether t holds every kind.
func (t Type) IsUnknown() bool { return t&Unknown == Unknown }

func (t Type) String() string {
	switch t & Unknown {
	case Void:
		return "Void"
	case Unknown:
		return "Unknown"
	}
	var parts []string
	if t&Number != 0 {
		parts = append(parts, "Number")
	}
	if t&Bool != 0 {
		parts = append(parts, "Bool")
	}
	if t&String != 0 {
		parts = append(parts, "String")
	}
	return strings.Join(parts, "|")
}

// ParseType is the inverse of Type.String.
func ParseType(s string) (Type, bool) {
	switch s {
	case "Void", "":
		return Void, true
	case "Unknown":
		return Unknown, true
	}
	var t Type
	for _, part := range strings.Split(s, "|") {
		switch strings.TrimSpace(part) {
		case "Number":
			t |= Number
		case "Bool":
			t |= Bool
		case "String":
			t |= String
		default:
			return Unknown, false
		}
	}
	return t, true
}

// TypeOf returns the kind a runtime value holds.
func TypeOf(v value.Value) Type {
	switch v.Kind() {
	case value.KindNumber:
		return Number
	case value.KindBool:
		return Bool
	default:
		return String
	}
}

// ConstType is the static type of a constant. With fold set, a string that
// is a canonical numeral is typed Number since converting it is lossless.
func ConstType(v value.Value, fold bool) Type {
	if fold && v.IsString() && value.IsCanonicalNumber(v.Str()) {
		return Number
	}
	return TypeOf(v)
}
