package ir

import (
	"testing"

	"github.com/chazu/blockjit/value"
)

var allTypes = []Type{
	Void, Number, Bool, String,
	Number | Bool, Number | String, Bool | String,
	Unknown,
}

func TestUnionLaws(t *testing.T) {
	for _, a := range allTypes {
		if a.Union(a) != a {
			t.Errorf("%s | %s = %s, want idempotent", a, a, a.Union(a))
		}
		if a.Union(Unknown) != Unknown {
			t.Errorf("%s | Unknown = %s", a, a.Union(Unknown))
		}
		if a.Union(Void) != a {
			t.Errorf("%s | Void = %s", a, a.Union(Void))
		}
		for _, b := range allTypes {
			if a.Union(b) != b.Union(a) {
				t.Errorf("union of %s and %s is not commutative", a, b)
			}
			if !a.Union(b).Contains(a) || !a.Union(b).Contains(b) {
				t.Errorf("%s | %s does not contain its operands", a, b)
			}
			for _, c := range allTypes {
				if a.Union(b).Union(c) != a.Union(b.Union(c)) {
					t.Errorf("union of %s, %s, %s is not associative", a, b, c)
				}
			}
		}
	}
}

func TestTypeString(t *testing.T) {
	tests := map[Type]string{
		Void:              "Void",
		Number:            "Number",
		Number | String:   "Number|String",
		Bool | String:     "Bool|String",
		Unknown:           "Unknown",
		Number | Bool:     "Number|Bool",
		String:            "String",
	}
	for typ, want := range tests {
		if got := typ.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
		back, ok := ParseType(want)
		if !ok || back != typ {
			t.Errorf("ParseType(%q) = %s, %v", want, back, ok)
		}
	}
	if _, ok := ParseType("Integer"); ok {
		t.Error("ParseType should reject unknown kinds")
	}
}

func TestIsConcrete(t *testing.T) {
	for _, typ := range allTypes {
		want := typ == Number || typ == Bool || typ == String
		if typ.IsConcrete() != want {
			t.Errorf("%s.IsConcrete() = %v", typ, typ.IsConcrete())
		}
	}
}

func TestConstTypeFolding(t *testing.T) {
	if got := ConstType(value.FromString("3.14"), true); got != Number {
		t.Errorf("\"3.14\" folds to %s, want Number", got)
	}
	if got := ConstType(value.FromString("1.0"), true); got != String {
		t.Errorf("\"1.0\" folds to %s, want String", got)
	}
	if got := ConstType(value.FromString("3.14"), false); got != String {
		t.Errorf("\"3.14\" without folding is %s, want String", got)
	}
	if got := ConstType(value.FromBool(true), true); got != Bool {
		t.Errorf("true is %s", got)
	}
}
