package loader

import (
	"fmt"

	"github.com/chazu/blockjit/ir"
)

// arity is the operand count each kind takes.
var arity = map[ir.Kind]int{
	ir.Add: 2, ir.Subtract: 2, ir.Multiply: 2, ir.Divide: 2, ir.Join: 2,
	ir.Equals: 2, ir.LessThan: 2, ir.GreaterThan: 2, ir.And: 2, ir.Or: 2, ir.Not: 1,
	ir.ReadVariable: 0, ir.WriteVariable: 1,
	ir.ClearList: 0, ir.RemoveListItem: 1, ir.AppendToList: 1, ir.InsertToList: 2,
	ir.ListReplace: 2, ir.GetListItem: 1, ir.GetListSize: 0,
	ir.BeginIf: 1, ir.BeginElse: 0, ir.EndIf: 0,
	ir.BeginRepeatLoop: 1, ir.BeginWhileLoop: 1, ir.BeginRepeatUntilLoop: 1,
	ir.BeginLoopCondition: 0, ir.EndLoop: 0, ir.CallProcedure: 0,
}

type builder struct {
	b     *ir.Builder
	vars  map[string]*ir.Variable
	lists map[string]*ir.List
	regs  map[string]ir.RegID
	out   *Script
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidDocument, fmt.Sprintf(format, args...))
}

// Build turns a decoded script description into a script.
func Build(sd ScriptDoc) (*Script, error) {
	bl := &builder{
		b:     ir.NewBuilder(sd.Name),
		vars:  make(map[string]*ir.Variable),
		lists: make(map[string]*ir.List),
		regs:  make(map[string]ir.RegID),
	}
	bl.out = &Script{Script: bl.b.Script(), Warp: sd.Warp}
	for _, e := range sd.Variables {
		if _, dup := bl.vars[e.Name]; dup {
			return nil, invalid("script %q: variable %q declared twice", sd.Name, e.Name)
		}
		v := ir.NewVariable(e.ID, e.Name)
		bl.vars[e.Name] = v
		bl.out.Variables = append(bl.out.Variables, v)
	}
	for _, e := range sd.Lists {
		if _, dup := bl.lists[e.Name]; dup {
			return nil, invalid("script %q: list %q declared twice", sd.Name, e.Name)
		}
		l := ir.NewList(e.ID, e.Name)
		bl.lists[e.Name] = l
		bl.out.Lists = append(bl.out.Lists, l)
	}

	for i, in := range sd.Code {
		if err := bl.instr(in); err != nil {
			return nil, invalid("script %q, instruction %d (%s): %v", sd.Name, i, in.Op, err)
		}
	}
	if _, err := bl.out.Structure(); err != nil {
		return nil, fmt.Errorf("%w: script %q: %w", ErrInvalidDocument, sd.Name, err)
	}
	return bl.out, nil
}

func (bl *builder) operand(op Operand) (ir.RegID, error) {
	switch {
	case op.Reg != nil:
		r, ok := bl.regs[*op.Reg]
		if !ok {
			return ir.NoReg, fmt.Errorf("register %q used before it is defined", *op.Reg)
		}
		return r, nil
	case op.Number != nil:
		return bl.b.Number(*op.Number), nil
	case op.Text != nil:
		return bl.b.Text(*op.Text), nil
	case op.Bool != nil:
		return bl.b.Bool(*op.Bool), nil
	}
	return ir.NoReg, fmt.Errorf("empty operand")
}

func (bl *builder) instr(in Instr) error {
	kind, ok := ir.ParseKind(in.Op)
	if !ok {
		return fmt.Errorf("unknown op")
	}
	if n, fixed := arity[kind]; fixed && len(in.Args) != n {
		return fmt.Errorf("takes %d operands, got %d", n, len(in.Args))
	}
	args := make([]ir.RegID, len(in.Args))
	for i, op := range in.Args {
		r, err := bl.operand(op)
		if err != nil {
			return err
		}
		args[i] = r
	}

	var v *ir.Variable
	if kind == ir.ReadVariable || kind == ir.WriteVariable {
		if v, ok = bl.vars[in.Var]; !ok {
			return fmt.Errorf("undeclared variable %q", in.Var)
		}
	}
	var l *ir.List
	switch kind {
	case ir.ClearList, ir.RemoveListItem, ir.AppendToList, ir.InsertToList,
		ir.ListReplace, ir.GetListItem, ir.GetListSize:
		if l, ok = bl.lists[in.List]; !ok {
			return fmt.Errorf("undeclared list %q", in.List)
		}
	}

	b := bl.b
	var out *ir.Instruction
	switch kind {
	case ir.FunctionCall:
		returns := ir.Unknown
		if in.Returns != "" {
			if returns, ok = ir.ParseType(in.Returns); !ok {
				return fmt.Errorf("bad return type %q", in.Returns)
			}
		}
		out = b.Call(in.Name, returns, args...)
	case ir.ReadVariable:
		out = b.ReadVariable(v)
	case ir.WriteVariable:
		out = b.WriteVariable(v, args[0])
	case ir.ClearList:
		out = b.ClearList(l)
	case ir.RemoveListItem:
		out = b.RemoveListItem(l, args[0])
	case ir.AppendToList:
		out = b.AppendToList(l, args[0])
	case ir.InsertToList:
		out = b.InsertToList(l, args[0], args[1])
	case ir.ListReplace:
		out = b.ListReplace(l, args[0], args[1])
	case ir.GetListItem:
		out = b.GetListItem(l, args[0])
	case ir.GetListSize:
		out = b.GetListSize(l)
	case ir.BeginIf:
		out = b.BeginIf(args[0])
	case ir.BeginElse:
		out = b.BeginElse()
	case ir.EndIf:
		out = b.EndIf()
	case ir.BeginRepeatLoop:
		out = b.BeginRepeatLoop(args[0])
	case ir.BeginWhileLoop:
		out = b.BeginWhileLoop(args[0])
	case ir.BeginRepeatUntilLoop:
		out = b.BeginRepeatUntilLoop(args[0])
	case ir.BeginLoopCondition:
		out = b.BeginLoopCondition()
	case ir.EndLoop:
		out = b.EndLoop()
	case ir.CallProcedure:
		out = b.CallProcedure(in.Name)
	default:
		out = b.Op(kind, args...)
	}

	if in.Out != "" {
		if out.Result == ir.NoReg {
			return fmt.Errorf("%s has no result to bind to %q", kind, in.Out)
		}
		if _, dup := bl.regs[in.Out]; dup {
			return fmt.Errorf("register %q defined twice", in.Out)
		}
		bl.regs[in.Out] = out.Result
	}
	return nil
}
