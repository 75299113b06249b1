package hash

import (
	"github.com/chazu/blockjit/ir"
	"github.com/chazu/blockjit/value"
)

// normalizer numbers entities and registers as the walk meets them.
type normalizer struct {
	script *ir.Script
	vars   map[*ir.Variable]int
	lists  map[*ir.List]int
	regs   map[ir.RegID]int
	out    *Normal
}

// Normalize produces the name-independent form of a script.
func Normalize(script *ir.Script) *Normal {
	n := &normalizer{
		script: script,
		vars:   make(map[*ir.Variable]int),
		lists:  make(map[*ir.List]int),
		regs:   make(map[ir.RegID]int),
		out:    &Normal{Version: HashVersion},
	}
	for in := range script.Walk() {
		n.out.instrs = append(n.out.instrs, in.ID)
		n.out.Instrs = append(n.out.Instrs, n.instr(in))
	}
	return n.out
}

func (n *normalizer) instr(in *ir.Instruction) NInstr {
	ni := NInstr{
		Kind:    uint8(in.Kind),
		Name:    in.Name,
		Returns: uint8(in.Returns),
	}
	if in.Var != nil {
		ni.Var = n.variable(in.Var)
	}
	if in.List != nil {
		ni.List = n.list(in.List)
	}
	for _, a := range in.Args {
		ni.Args = append(ni.Args, NArg{Type: uint8(a.Type), Reg: n.reg(a.Reg)})
	}
	if in.Result != ir.NoReg {
		ni.Result = n.reg(in.Result)
	}
	return ni
}

func (n *normalizer) variable(v *ir.Variable) int {
	if i, ok := n.vars[v]; ok {
		return i
	}
	n.vars[v] = len(n.vars) + 1
	return n.vars[v]
}

func (n *normalizer) list(l *ir.List) int {
	if i, ok := n.lists[l]; ok {
		return i
	}
	n.lists[l] = len(n.lists) + 1
	return n.lists[l]
}

func (n *normalizer) reg(id ir.RegID) int {
	if i, ok := n.regs[id]; ok {
		return i
	}
	r := n.script.Reg(id)
	if r == nil {
		return NoRef
	}
	n.out.regs = append(n.out.regs, id)
	n.out.Regs = append(n.out.Regs, normalReg(r))
	n.regs[id] = len(n.out.Regs)
	return n.regs[id]
}

func normalReg(r *ir.Register) NReg {
	if !r.IsConst {
		return NReg{Tag: TagComputed, Declared: uint8(r.Declared)}
	}
	switch r.Const.Kind() {
	case value.KindNumber:
		return NReg{Tag: TagNumber, Num: r.Const.Number()}
	case value.KindBool:
		return NReg{Tag: TagBool, Bool: r.Const.Bool()}
	}
	return NReg{Tag: TagString, Str: r.Const.Str()}
}
