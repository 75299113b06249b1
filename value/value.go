// Package value implements the boxed runtime value shared by the reference
// executor and by generated code.
package value

import (
	"fmt"
	"math"
	"strings"
)

// Kind identifies which representation a Value holds.
type Kind uint8

const (
	KindNumber Kind = iota
	KindBool
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a dynamically typed block value. The zero Value is the number 0.
type Value struct {
	kind Kind
	num  float64
	str  string
	b    bool
}

// FromNumber boxes a float64.
func FromNumber(f float64) Value { return Value{kind: KindNumber, num: f} }

// FromBool boxes a bool.
func FromBool(b bool) Value { return Value{kind: KindBool, b: b} }

// FromString boxes a string.
func FromString(s string) Value { return Value{kind: KindString, str: s} }

// Kind returns the representation currently held.
func (v Value) Kind() Kind { return v.kind }

// IsNumber, IsBool and IsString report the held representation.
func (v Value) IsNumber() bool { return v.kind == KindNumber }
func (v Value) IsBool() bool   { return v.kind == KindBool }
func (v Value) IsString() bool { return v.kind == KindString }

// Number is the fast-path accessor used by specialized code: it returns the
// held float without parsing when the value is a number.
func (v Value) Number() float64 {
	if v.kind == KindNumber {
		return v.num
	}
	return v.ToNumber()
}

// Bool is the fast-path accessor for bool values.
func (v Value) Bool() bool {
	if v.kind == KindBool {
		return v.b
	}
	return v.ToBool()
}

// Str is the fast-path accessor for string values.
func (v Value) Str() string {
	if v.kind == KindString {
		return v.str
	}
	return v.ToString()
}

// ToNumber converts using block semantics: unparsable strings and NaN are 0,
// true is 1.
func (v Value) ToNumber() float64 {
	switch v.kind {
	case KindNumber:
		if math.IsNaN(v.num) {
			return 0
		}
		return v.num
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	default:
		f, ok := ParseNumber(v.str)
		if !ok {
			return 0
		}
		return f
	}
}

// ToBool converts using block semantics: "", "0" and "false" are false.
func (v Value) ToBool() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.num != 0 && !math.IsNaN(v.num)
	default:
		switch strings.ToLower(v.str) {
		case "", "0", "false":
			return false
		}
		return true
	}
}

// ToString converts using block semantics.
func (v Value) ToString() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	default:
		return FormatNumber(v.num)
	}
}

func (v Value) String() string { return v.ToString() }

// Equal compares two values the way the equals block does.
func Equal(a, b Value) bool { return Compare(a, b) == 0 }

// Compare orders two values: numerically when both sides look like numbers,
// otherwise by case-insensitive string comparison.
func Compare(a, b Value) int {
	an, aok := a.numeric()
	bn, bok := b.numeric()
	if aok && bok {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		case an == bn:
			return 0
		}
		// NaN on one side falls through to string comparison.
	}
	as := strings.ToLower(a.ToString())
	bs := strings.ToLower(b.ToString())
	return strings.Compare(as, bs)
}

// CompareNumbers is Compare for two numbers, without boxing.
func CompareNumbers(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	case a == b:
		return 0
	}
	return strings.Compare(strings.ToLower(FormatNumber(a)), strings.ToLower(FormatNumber(b)))
}

func (v Value) numeric() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, !math.IsNaN(v.num)
	case KindBool:
		return 0, false
	default:
		if strings.TrimSpace(v.str) == "" {
			return 0, false
		}
		return ParseNumber(v.str)
	}
}
