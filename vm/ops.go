package vm

import (
	"fmt"

	"github.com/chazu/blockjit/ir"
	"github.com/chazu/blockjit/value"
)

// Convert coerces v to a concrete type. Non-concrete types leave v as is.
func Convert(v value.Value, t ir.Type) value.Value {
	switch t {
	case ir.Number:
		if v.IsNumber() {
			return v
		}
		return value.FromNumber(v.ToNumber())
	case ir.Bool:
		if v.IsBool() {
			return v
		}
		return value.FromBool(v.ToBool())
	case ir.String:
		if v.IsString() {
			return v
		}
		return value.FromString(v.ToString())
	}
	return v
}

// Apply evaluates an operator. Operands are expected to be converted to the
// operator's operand type already.
func Apply(k ir.Kind, args ...value.Value) (value.Value, error) {
	arity := 2
	if k == ir.Not {
		arity = 1
	}
	if len(args) != arity {
		return value.Value{}, fmt.Errorf("%s: want %d operands, got %d", k, arity, len(args))
	}
	switch k {
	case ir.Add:
		return value.FromNumber(args[0].Number() + args[1].Number()), nil
	case ir.Subtract:
		return value.FromNumber(args[0].Number() - args[1].Number()), nil
	case ir.Multiply:
		return value.FromNumber(args[0].Number() * args[1].Number()), nil
	case ir.Divide:
		return value.FromNumber(args[0].Number() / args[1].Number()), nil
	case ir.Join:
		return value.FromString(args[0].Str() + args[1].Str()), nil
	case ir.Equals:
		return value.FromBool(value.Compare(args[0], args[1]) == 0), nil
	case ir.LessThan:
		return value.FromBool(value.Compare(args[0], args[1]) < 0), nil
	case ir.GreaterThan:
		return value.FromBool(value.Compare(args[0], args[1]) > 0), nil
	case ir.And:
		return value.FromBool(args[0].Bool() && args[1].Bool()), nil
	case ir.Or:
		return value.FromBool(args[0].Bool() || args[1].Bool()), nil
	case ir.Not:
		return value.FromBool(!args[0].Bool()), nil
	}
	return value.Value{}, fmt.Errorf("%s is not an operator", k)
}
