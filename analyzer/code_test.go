package analyzer

import (
	"testing"

	"github.com/chazu/blockjit/ir"
)

func analyze(b *ir.Builder) *Annotations {
	return NewCodeAnalyzer(DefaultOptions()).AnalyzeScript(b.Script())
}

func expectTarget(t *testing.T, ann *Annotations, in *ir.Instruction, want ir.Type) {
	t.Helper()
	if got := ann.TargetType(in.ID); got != want {
		t.Errorf("target of %s = %s, want %s", in, got, want)
	}
}

func expectReg(t *testing.T, ann *Annotations, in *ir.Instruction, want ir.Type) {
	t.Helper()
	if got := ann.RegisterType(in.Result); got != want {
		t.Errorf("result of %s = %s, want %s", in, got, want)
	}
}

func TestSingleWriteAfterClear(t *testing.T) {
	b := ir.NewBuilder("single")
	l := ir.NewList("", "L")
	b.ClearList(l)
	a := b.AppendToList(l, b.Number(42))

	expectTarget(t, analyze(b), a, ir.Void)
}

func TestMixedWritesAfterClear(t *testing.T) {
	b := ir.NewBuilder("mixed")
	l := ir.NewList("", "L")
	b.ClearList(l)
	a1 := b.AppendToList(l, b.Number(42))
	a2 := b.AppendToList(l, b.Text("hi"))
	a3 := b.AppendToList(l, b.Bool(true))

	ann := analyze(b)
	expectTarget(t, ann, a1, ir.Void)
	expectTarget(t, ann, a2, ir.Number)
	expectTarget(t, ann, a3, ir.Number|ir.String)
}

func TestNumericStringFolding(t *testing.T) {
	tests := []struct {
		literal string
		want    ir.Type
	}{
		{"3.14", ir.Number},
		{"1.0", ir.String},
		{"42", ir.Number},
		{"abc", ir.String},
	}
	for _, tt := range tests {
		b := ir.NewBuilder("fold")
		l := ir.NewList("", "L")
		b.ClearList(l)
		b.AppendToList(l, b.Text(tt.literal))
		second := b.AppendToList(l, b.Bool(true))
		if got := analyze(b).TargetType(second.ID); got != tt.want {
			t.Errorf("after appending %q: target = %s, want %s", tt.literal, got, tt.want)
		}
	}
}

func TestFoldingCanBeDisabled(t *testing.T) {
	b := ir.NewBuilder("nofold")
	l := ir.NewList("", "L")
	b.ClearList(l)
	b.AppendToList(l, b.Text("3.14"))
	second := b.AppendToList(l, b.Bool(true))

	opts := DefaultOptions()
	opts.FoldNumericStrings = false
	ann := NewCodeAnalyzer(opts).AnalyzeScript(b.Script())
	expectTarget(t, ann, second, ir.String)
}

func TestProcedureCallInvalidates(t *testing.T) {
	b := ir.NewBuilder("call")
	l := ir.NewList("", "L")
	v := ir.NewVariable("", "v")
	b.WriteVariable(v, b.Number(1))
	b.ClearList(l)
	a1 := b.AppendToList(l, b.Text("x"))
	b.CallProcedure("mutate")
	a2 := b.AppendToList(l, b.Number(5))
	r := b.ReadVariable(v)

	ann := analyze(b)
	expectTarget(t, ann, a1, ir.Void)
	expectTarget(t, ann, a2, ir.Unknown)
	expectReg(t, ann, r, ir.Unknown)
}

func TestCrossEntityChain(t *testing.T) {
	b := ir.NewBuilder("chain")
	v := ir.NewVariable("", "v")
	l := ir.NewList("", "L")
	b.WriteVariable(v, b.Number(3.14))
	b.ClearList(l)
	a := b.AppendToList(l, b.ReadVariable(v).Result)
	get := b.GetListItem(l, b.Number(0))

	ann := analyze(b)
	expectTarget(t, ann, a, ir.Void)
	expectTarget(t, ann, get, ir.Number)
	expectReg(t, ann, get, ir.Number)

	b.AppendToList(l, b.Text("x"))
	get2 := b.GetListItem(l, b.Number(1))
	ann = analyze(b)
	expectTarget(t, ann, get2, ir.Number|ir.String)
	expectReg(t, ann, get2, ir.Unknown)
}

func TestListToListChain(t *testing.T) {
	b := ir.NewBuilder("list-to-list")
	src := ir.NewList("", "src")
	dst := ir.NewList("", "dst")
	w := ir.NewVariable("", "w")
	b.ClearList(src)
	b.AppendToList(src, b.Bool(true))
	b.ClearList(dst)
	b.AppendToList(dst, b.GetListItem(src, b.Number(1)).Result)
	last := b.AppendToList(dst, b.Bool(false))
	b.WriteVariable(w, b.GetListItem(dst, b.Number(1)).Result)
	r := b.ReadVariable(w)

	ann := analyze(b)
	expectTarget(t, ann, last, ir.Bool)
	expectReg(t, ann, r, ir.Bool)
}

func TestReadOfEmptyAndUnclearedList(t *testing.T) {
	b := ir.NewBuilder("reads")
	l := ir.NewList("", "L")
	m := ir.NewList("", "M")
	b.ClearList(l)
	empty := b.GetListItem(l, b.Number(1))
	unknown := b.GetListItem(m, b.Number(1))
	size := b.GetListSize(m)

	ann := analyze(b)
	expectReg(t, ann, empty, ir.String)
	expectTarget(t, ann, unknown, ir.Unknown)
	expectReg(t, ann, unknown, ir.Unknown)
	expectReg(t, ann, size, ir.Number)
}

func TestClearResetsState(t *testing.T) {
	b := ir.NewBuilder("reset")
	l := ir.NewList("", "L")
	before := b.AppendToList(l, b.Text("a"))
	b.ClearList(l)
	b.AppendToList(l, b.Text("a"))
	b.ClearList(l)
	after := b.AppendToList(l, b.Number(1))

	ann := analyze(b)
	expectTarget(t, ann, before, ir.Unknown)
	expectTarget(t, ann, after, ir.Void)
}

func TestIfWithoutElse(t *testing.T) {
	b := ir.NewBuilder("if")
	l := ir.NewList("", "L")
	b.ClearList(l)
	b.BeginIf(b.Bool(true))
	inside := b.AppendToList(l, b.Number(1))
	b.EndIf()
	after := b.AppendToList(l, b.Text("s"))
	read := b.GetListItem(l, b.Number(1))

	ann := analyze(b)
	expectTarget(t, ann, inside, ir.Void)
	expectTarget(t, ann, after, ir.Number)
	expectTarget(t, ann, read, ir.Number|ir.String)
	expectReg(t, ann, read, ir.Unknown)
}

func TestIfElse(t *testing.T) {
	b := ir.NewBuilder("if-else")
	l := ir.NewList("", "L")
	v := ir.NewVariable("", "v")
	b.WriteVariable(v, b.Text("start"))
	b.ClearList(l)
	b.BeginIf(b.Bool(true))
	b.AppendToList(l, b.Number(1))
	b.WriteVariable(v, b.Number(1))
	b.BeginElse()
	b.AppendToList(l, b.Number(2))
	b.WriteVariable(v, b.Number(2))
	b.EndIf()
	after := b.AppendToList(l, b.Bool(true))
	r := b.ReadVariable(v)

	ann := analyze(b)
	expectTarget(t, ann, after, ir.Number)
	expectReg(t, ann, r, ir.Number)
}

func TestRepeatLoopIncludesZeroIterations(t *testing.T) {
	b := ir.NewBuilder("repeat")
	v := ir.NewVariable("", "v")
	l := ir.NewList("", "L")
	b.WriteVariable(v, b.Bool(true))
	b.ClearList(l)
	b.BeginRepeatLoop(b.Number(3))
	b.WriteVariable(v, b.Number(5))
	in := b.AppendToList(l, b.Number(1))
	b.EndLoop()
	r := b.ReadVariable(v)
	get := b.GetListItem(l, b.Number(1))

	ann := analyze(b)
	expectReg(t, ann, r, ir.Number|ir.Bool)
	// Later iterations see the numbers appended by earlier ones.
	expectTarget(t, ann, in, ir.Number)
	expectReg(t, ann, get, ir.Number)
}

func TestConditionLoopPrecision(t *testing.T) {
	for _, kind := range []ir.Kind{ir.BeginWhileLoop, ir.BeginRepeatUntilLoop} {
		b := ir.NewBuilder("cond")
		v := ir.NewVariable("", "v")
		b.WriteVariable(v, b.Bool(false))
		b.BeginLoopCondition()
		condRead := b.ReadVariable(v)
		c := b.Op(ir.Equals, condRead.Result, b.Number(5))
		if kind == ir.BeginWhileLoop {
			b.BeginWhileLoop(c.Result)
		} else {
			b.BeginRepeatUntilLoop(c.Result)
		}
		b.WriteVariable(v, b.Number(5))
		b.EndLoop()
		after := b.ReadVariable(v)

		ann := analyze(b)
		expectReg(t, ann, condRead, ir.Number|ir.Bool)
		expectReg(t, ann, after, ir.Number|ir.Bool)
	}
}

func TestConditionBlockWriteExcludesEntryType(t *testing.T) {
	b := ir.NewBuilder("cond-write")
	v := ir.NewVariable("", "v")
	b.WriteVariable(v, b.Bool(false))
	b.BeginLoopCondition()
	b.WriteVariable(v, b.Text("checked"))
	c := b.Call("ready", ir.Bool)
	b.BeginWhileLoop(c.Result)
	b.WriteVariable(v, b.Number(1))
	b.EndLoop()
	after := b.ReadVariable(v)

	// The loop is only left right after the condition block ran.
	expectReg(t, analyze(b), after, ir.String)
}

func TestLoopCarriedChainConverges(t *testing.T) {
	b := ir.NewBuilder("chain-loop")
	x := ir.NewVariable("", "x")
	y := ir.NewVariable("", "y")
	z := ir.NewVariable("", "z")
	for _, v := range []*ir.Variable{x, y, z} {
		b.WriteVariable(v, b.Number(1))
	}
	b.BeginRepeatLoop(b.Number(10))
	b.WriteVariable(x, b.ReadVariable(y).Result)
	b.WriteVariable(y, b.ReadVariable(z).Result)
	b.WriteVariable(z, b.Text("s"))
	b.EndLoop()
	after := b.ReadVariable(x)

	expectReg(t, analyze(b), after, ir.Number|ir.String)

	opts := DefaultOptions()
	opts.MaxLoopPasses = 1
	ann := NewCodeAnalyzer(opts).AnalyzeScript(b.Script())
	expectReg(t, ann, after, ir.Unknown)
}

func TestListVariableCycleInLoop(t *testing.T) {
	b := ir.NewBuilder("cycle")
	v := ir.NewVariable("", "v")
	l := ir.NewList("", "L")
	b.ClearList(l)
	b.AppendToList(l, b.Number(1))
	b.BeginRepeatLoop(b.Number(4))
	get := b.GetListItem(l, b.Number(1))
	b.WriteVariable(v, get.Result)
	app := b.AppendToList(l, b.ReadVariable(v).Result)
	b.EndLoop()

	ann := analyze(b)
	expectTarget(t, ann, get, ir.Number)
	expectTarget(t, ann, app, ir.Number)
	expectReg(t, ann, get, ir.Number)

	// Feeding a string back in breaks the cycle's precision.
	b = ir.NewBuilder("cycle-join")
	b.ClearList(l)
	b.AppendToList(l, b.Number(1))
	b.BeginRepeatLoop(b.Number(4))
	get = b.GetListItem(l, b.Number(1))
	b.WriteVariable(v, get.Result)
	joined := b.Op(ir.Join, b.ReadVariable(v).Result, b.Text("x"))
	app = b.AppendToList(l, joined.Result)
	b.EndLoop()

	ann = analyze(b)
	expectTarget(t, ann, get, ir.Number|ir.String)
	expectReg(t, ann, get, ir.Unknown)
	expectTarget(t, ann, app, ir.Number|ir.String)
}

func TestRegisterTypes(t *testing.T) {
	b := ir.NewBuilder("regs")
	sum := b.Op(ir.Add, b.Text("1"), b.Number(2))
	join := b.Op(ir.Join, b.Number(1), b.Number(2))
	cmp := b.Op(ir.LessThan, sum.Result, b.Number(3))
	call := b.Call("costume", ir.String)
	void := b.Call("tick", ir.Void)
	c := b.Text("3.14")

	ann := analyze(b)
	expectReg(t, ann, sum, ir.Number)
	expectReg(t, ann, join, ir.String)
	expectReg(t, ann, cmp, ir.Bool)
	expectReg(t, ann, call, ir.String)
	expectReg(t, ann, void, ir.Unknown)
	if got := ann.RegisterType(c); got != ir.Number {
		t.Errorf("constant \"3.14\" = %s, want Number", got)
	}
}

func TestMalformedScriptIsUnknown(t *testing.T) {
	b := ir.NewBuilder("broken")
	l := ir.NewList("", "L")
	b.ClearList(l)
	b.BeginIf(b.Bool(true))
	a := b.AppendToList(l, b.Number(1))

	ann := analyze(b)
	if ann.Valid {
		t.Error("unbalanced script reported valid")
	}
	expectTarget(t, ann, a, ir.Unknown)
}

func TestMonotonicConservatism(t *testing.T) {
	// Adding a path can only widen what a later write sees.
	build := func(extra bool) (*ir.Builder, *ir.Instruction) {
		b := ir.NewBuilder("mono")
		l := ir.NewList("l", "L")
		b.ClearList(l)
		b.AppendToList(l, b.Number(1))
		b.BeginIf(b.Bool(true))
		b.AppendToList(l, b.Number(2))
		if extra {
			b.BeginElse()
			b.AppendToList(l, b.Text("s"))
		}
		b.EndIf()
		return b, b.AppendToList(l, b.Number(3))
	}
	narrow, n := build(false)
	wide, w := build(true)
	tn := analyze(narrow).TargetType(n.ID)
	tw := analyze(wide).TargetType(w.ID)
	if !tw.Contains(tn) {
		t.Errorf("extra path narrowed %s to %s", tn, tw)
	}
	if tn != ir.Number || tw != ir.Number|ir.String {
		t.Errorf("targets = %s, %s", tn, tw)
	}
}

func TestEmptyReadsIncludeString(t *testing.T) {
	b := ir.NewBuilder("empty-reads")
	l := ir.NewList("", "L")
	v := ir.NewVariable("", "v")
	b.ClearList(l)
	b.AppendToList(l, b.Number(1))
	get := b.GetListItem(l, b.Number(5))
	b.WriteVariable(v, get.Result)
	r := b.ReadVariable(v)
	b.ClearList(l)
	empty := b.GetListItem(l, b.Number(1))

	ann := analyze(b)
	expectReg(t, ann, get, ir.Number)
	if ann.EmptyReads {
		t.Error("default options report EmptyReads")
	}

	opts := DefaultOptions()
	opts.EmptyReads = true
	ann = NewCodeAnalyzer(opts).AnalyzeScript(b.Script())
	if !ann.EmptyReads {
		t.Error("annotations do not record EmptyReads")
	}
	expectTarget(t, ann, get, ir.Number)
	expectReg(t, ann, get, ir.Number|ir.String)
	expectReg(t, ann, r, ir.Number|ir.String)
	expectReg(t, ann, empty, ir.String)
}
