package ir

import "github.com/chazu/blockjit/value"

// Builder appends instructions to a script in execution order.
type Builder struct {
	s *Script
}

// NewBuilder starts a new script.
func NewBuilder(name string) *Builder {
	return &Builder{s: NewScript(name)}
}

// Script returns the script being built.
func (b *Builder) Script() *Script { return b.s }

// Const allocates a constant register.
func (b *Builder) Const(v value.Value) RegID {
	return b.s.newRegister(Register{
		Const:    v,
		IsConst:  true,
		Producer: NoInstr,
		Declared: TypeOf(v),
	}).ID
}

func (b *Builder) Number(f float64) RegID { return b.Const(value.FromNumber(f)) }
func (b *Builder) Text(s string) RegID { return b.Const(value.FromString(s)) }
func (b *Builder) Bool(v bool) RegID { return b.Const(value.FromBool(v)) }

// Emit appends a raw instruction. When result is true a computed register is
// allocated with the given declared type.
func (b *Builder) Emit(in *Instruction, result bool, declared Type) *Instruction {
	in.Result = NoReg
	b.s.append(in)
	if result {
		in.Result = b.s.newRegister(Register{Producer: in.ID, Declared: declared}).ID
	}
	return in
}

func args(t Type, regs ...RegID) []Arg {
	out := make([]Arg, len(regs))
	for i, r := range regs {
		out[i] = Arg{Type: t, Reg: r}
	}
	return out
}

// Op appends an operator; its operands are converted to the operator's
// operand type.
func (b *Builder) Op(kind Kind, operands ...RegID) *Instruction {
	t, _ := kind.ResultType()
	return b.Emit(&Instruction{Kind: kind, Args: args(kind.OperandType(), operands...)}, true, t)
}

// Call appends a function call with a declared return type. Arguments are
// passed boxed.
func (b *Builder) Call(name string, returns Type, operands ...RegID) *Instruction {
	return b.Emit(&Instruction{
		Kind:    FunctionCall,
		Name:    name,
		Returns: returns,
		Args:    args(Unknown, operands...),
	}, true, returns)
}

func (b *Builder) ReadVariable(v *Variable) *Instruction {
	return b.Emit(&Instruction{Kind: ReadVariable, Var: v}, true, Unknown)
}

func (b *Builder) WriteVariable(v *Variable, r RegID) *Instruction {
	return b.Emit(&Instruction{Kind: WriteVariable, Var: v, Args: args(Unknown, r)}, false, Void)
}

func (b *Builder) ClearList(l *List) *Instruction {
	return b.Emit(&Instruction{Kind: ClearList, List: l}, false, Void)
}

func (b *Builder) RemoveListItem(l *List, index RegID) *Instruction {
	return b.Emit(&Instruction{Kind: RemoveListItem, List: l, Args: args(Number, index)}, false, Void)
}

func (b *Builder) AppendToList(l *List, r RegID) *Instruction {
	return b.Emit(&Instruction{Kind: AppendToList, List: l, Args: args(Unknown, r)}, false, Void)
}

func (b *Builder) InsertToList(l *List, index, r RegID) *Instruction {
	return b.Emit(&Instruction{
		Kind: InsertToList,
		List: l,
		Args: []Arg{{Type: Number, Reg: index}, {Type: Unknown, Reg: r}},
	}, false, Void)
}

func (b *Builder) ListReplace(l *List, index, r RegID) *Instruction {
	return b.Emit(&Instruction{
		Kind: ListReplace,
		List: l,
		Args: []Arg{{Type: Number, Reg: index}, {Type: Unknown, Reg: r}},
	}, false, Void)
}

func (b *Builder) GetListItem(l *List, index RegID) *Instruction {
	return b.Emit(&Instruction{Kind: GetListItem, List: l, Args: args(Number, index)}, true, Unknown)
}

func (b *Builder) GetListSize(l *List) *Instruction {
	return b.Emit(&Instruction{Kind: GetListSize, List: l}, true, Number)
}

func (b *Builder) BeginIf(cond RegID) *Instruction {
	return b.Emit(&Instruction{Kind: BeginIf, Args: args(Bool, cond)}, false, Void)
}

func (b *Builder) BeginElse() *Instruction {
	return b.Emit(&Instruction{Kind: BeginElse}, false, Void)
}

func (b *Builder) EndIf() *Instruction {
	return b.Emit(&Instruction{Kind: EndIf}, false, Void)
}

func (b *Builder) BeginRepeatLoop(count RegID) *Instruction {
	return b.Emit(&Instruction{Kind: BeginRepeatLoop, Args: args(Number, count)}, false, Void)
}

// BeginLoopCondition opens the condition block of a while or repeat-until
// loop. The condition instructions follow it, then BeginWhileLoop or
// BeginRepeatUntilLoop consumes the condition register.
func (b *Builder) BeginLoopCondition() *Instruction {
	return b.Emit(&Instruction{Kind: BeginLoopCondition}, false, Void)
}

func (b *Builder) BeginWhileLoop(cond RegID) *Instruction {
	return b.Emit(&Instruction{Kind: BeginWhileLoop, Args: args(Bool, cond)}, false, Void)
}

func (b *Builder) BeginRepeatUntilLoop(cond RegID) *Instruction {
	return b.Emit(&Instruction{Kind: BeginRepeatUntilLoop, Args: args(Bool, cond)}, false, Void)
}

func (b *Builder) EndLoop() *Instruction {
	return b.Emit(&Instruction{Kind: EndLoop}, false, Void)
}

func (b *Builder) CallProcedure(name string) *Instruction {
	return b.Emit(&Instruction{Kind: CallProcedure, Name: name}, false, Void)
}
