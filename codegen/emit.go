package codegen

import (
	"bytes"
	"fmt"
	"math"

	"github.com/dave/jennifer/jen"

	"github.com/chazu/blockjit/ir"
	"github.com/chazu/blockjit/value"
	"github.com/chazu/blockjit/vm"
)

const (
	irPath    = "github.com/chazu/blockjit/ir"
	valuePath = "github.com/chazu/blockjit/value"
	vmPath    = "github.com/chazu/blockjit/vm"
)

// EmitGo renders the plan as a Go source file in package pkg holding one
// function `func <funcName>(env *vm.Env)`.
func (p *Plan) EmitGo(pkg, funcName string) ([]byte, error) {
	st, err := p.Script.Structure()
	if err != nil {
		return nil, fmt.Errorf("emit %q: %w", p.Script.Name, err)
	}
	e := &emitter{plan: p, st: st, active: make(map[*ir.Variable]local)}

	var body []jen.Code
	body = append(body, e.declarations()...)
	body = append(body, e.block(p.Script.First, ir.NoInstr)...)

	f := jen.NewFile(pkg)
	f.HeaderComment("Code generated by blockjit. DO NOT EDIT.")
	f.Commentf("%s runs script %q.", funcName, p.Script.Name)
	f.Func().Id(funcName).Params(jen.Id("env").Op("*").Qual(vmPath, "Env")).Block(body...)

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("emit %q: %w", p.Script.Name, err)
	}
	return buf.Bytes(), nil
}

type local struct {
	name string
	repr Repr
}

type emitter struct {
	plan   *Plan
	st     *ir.Structure
	active map[*ir.Variable]local
	// order lists the keys of active in the order they were carried.
	order []*ir.Variable
	loops int
}

func regName(id ir.RegID) string { return fmt.Sprintf("r%d", id) }

// declarations declares every computed register up front, so registers
// assigned inside a block stay visible after it.
func (e *emitter) declarations() []jen.Code {
	used := make(map[ir.RegID]bool)
	for in := range e.plan.Script.Walk() {
		for _, a := range in.Args {
			used[a.Reg] = true
		}
	}
	var decls, blanks []jen.Code
	for in := range e.plan.Script.Walk() {
		if in.Result == ir.NoReg {
			continue
		}
		name := regName(in.Result)
		decls = append(decls, jen.Var().Id(name).Add(goType(e.plan.Regs[in.Result])))
		if !used[in.Result] {
			blanks = append(blanks, jen.Id("_").Op("=").Id(name))
		}
	}
	return append(decls, blanks...)
}

func goType(r Repr) jen.Code {
	switch r {
	case ReprNumber:
		return jen.Float64()
	case ReprBool:
		return jen.Bool()
	case ReprString:
		return jen.String()
	}
	return jen.Qual(valuePath, "Value")
}

// ---------------------------------------------------------------------------
// Values and conversions
// ---------------------------------------------------------------------------

// coerce converts expr held in from to the representation to, with the same
// semantics as vm.Convert.
func coerce(expr *jen.Statement, from, to Repr) *jen.Statement {
	if from == to {
		return expr
	}
	if from != ReprBoxed {
		expr = box(expr, from)
	}
	switch to {
	case ReprNumber:
		return expr.Dot("Number").Call()
	case ReprBool:
		return expr.Dot("Bool").Call()
	case ReprString:
		return expr.Dot("Str").Call()
	}
	return expr
}

func box(expr *jen.Statement, from Repr) *jen.Statement {
	switch from {
	case ReprNumber:
		return jen.Qual(valuePath, "FromNumber").Call(expr)
	case ReprBool:
		return jen.Qual(valuePath, "FromBool").Call(expr)
	case ReprString:
		return jen.Qual(valuePath, "FromString").Call(expr)
	}
	return expr
}

func numberLit(f float64) *jen.Statement {
	switch {
	case math.IsNaN(f):
		return jen.Qual("math", "NaN").Call()
	case math.IsInf(f, 1):
		return jen.Qual("math", "Inf").Call(jen.Lit(1))
	case math.IsInf(f, -1):
		return jen.Qual("math", "Inf").Call(jen.Lit(-1))
	}
	return jen.Lit(f)
}

// constant renders a literal value in the requested representation.
func constant(v value.Value, want Repr) *jen.Statement {
	switch want {
	case ReprNumber:
		return numberLit(vm.Convert(v, ir.Number).Number())
	case ReprBool:
		return jen.Lit(v.ToBool())
	case ReprString:
		return jen.Lit(v.ToString())
	}
	switch v.Kind() {
	case value.KindNumber:
		return box(numberLit(v.Number()), ReprNumber)
	case value.KindBool:
		return box(jen.Lit(v.Bool()), ReprBool)
	}
	return box(jen.Lit(v.Str()), ReprString)
}

// arg renders an argument, after its declared conversion, in want.
func (e *emitter) arg(a ir.Arg, want Repr) *jen.Statement {
	reg := e.plan.Script.Reg(a.Reg)
	if reg == nil {
		return constant(value.Value{}, want)
	}
	if reg.IsConst {
		v := reg.Const
		if a.Type.IsConcrete() {
			v = vm.Convert(v, a.Type)
		}
		return constant(v, want)
	}
	expr := jen.Id(regName(a.Reg))
	from := e.plan.Regs[a.Reg]
	if a.Type.IsConcrete() {
		expr = coerce(expr, from, ReprOf(a.Type))
		from = ReprOf(a.Type)
	}
	return coerce(expr, from, want)
}

// assign stores expr, held in from, into the instruction's result register.
func (e *emitter) assign(in *ir.Instruction, expr *jen.Statement, from Repr) jen.Code {
	if in.Result == ir.NoReg {
		return jen.Id("_").Op("=").Add(expr)
	}
	return jen.Id(regName(in.Result)).Op("=").Add(coerce(expr, from, e.plan.Regs[in.Result]))
}

func typeLit(t ir.Type) jen.Code {
	switch t {
	case ir.Void, ir.Number, ir.Bool, ir.String, ir.Unknown:
		return jen.Qual(irPath, t.String())
	}
	return jen.Qual(irPath, "Type").Call(jen.Lit(int(t)))
}

func (e *emitter) list(in *ir.Instruction) *jen.Statement {
	return jen.Id("env").Dot("List").Call(jen.Lit(in.List.ID()))
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// block renders instructions from `from` up to, not including, `to`.
func (e *emitter) block(from, to ir.InstrID) []jen.Code {
	var out []jen.Code
	for id := from; id != to && id != ir.NoInstr; {
		in := e.plan.Script.At(id)
		switch {
		case in.Kind == ir.BeginIf:
			out = append(out, e.branch(in))
			id = e.plan.Script.At(e.st.End[in.ID]).Next
		case in.Kind == ir.BeginLoopCondition || in.Kind.IsLoopBegin():
			loop, _ := e.st.LoopOf(in.ID)
			out = append(out, e.loop(loop)...)
			id = e.plan.Script.At(e.st.LoopEnd[loop]).Next
		default:
			if s := e.statement(in); s != nil {
				out = append(out, s)
			}
			id = in.Next
		}
	}
	return out
}

func (e *emitter) branch(in *ir.Instruction) jen.Code {
	end := e.st.End[in.ID]
	cond := e.arg(in.Args[0], ReprBool)
	els, hasElse := e.st.Else[in.ID]
	if !hasElse {
		return jen.If(cond).Block(e.block(in.Next, end)...)
	}
	then := e.block(in.Next, els)
	other := e.block(e.plan.Script.At(els).Next, end)
	return jen.If(cond).Block(then...).Else().Block(other...)
}

// loop renders a loop. Variables the plan carries are loaded into locals
// before it and stored back after it.
func (e *emitter) loop(loop ir.InstrID) []jen.Code {
	begin := e.plan.Script.At(loop)
	end := e.st.LoopEnd[loop]
	e.loops++
	n := e.loops

	var pre, post []jen.Code
	var mine []*ir.Variable
	for i, c := range e.plan.Carried[loop] {
		if _, ok := e.active[c.Var]; ok {
			continue
		}
		l := local{name: fmt.Sprintf("carried%d_%d", n, i), repr: ReprOf(c.Type)}
		pre = append(pre, jen.Id(l.name).Op(":=").Add(e.load(c.Var, l)))
		post = append(post, e.store(c.Var, l))
		e.active[c.Var] = l
		e.order = append(e.order, c.Var)
		mine = append(mine, c.Var)
	}

	body := e.block(begin.Next, end)
	if !e.plan.Opts.Warp {
		body = append(body, e.flush()...)
		body = append(body, jen.Id("env").Dot("Yield").Call())
		body = append(body, e.reload()...)
	}

	var stmt jen.Code
	if begin.Kind == ir.BeginRepeatLoop {
		counter := fmt.Sprintf("n%d", n)
		count := jen.Qual("math", "Floor").Call(e.arg(begin.Args[0], ReprNumber).Op("+").Lit(0.5))
		stmt = jen.For(
			jen.Id(counter).Op(":=").Add(count),
			jen.Id(counter).Op(">=").Lit(1),
			jen.Id(counter).Op("--"),
		).Block(body...)
	} else {
		var head []jen.Code
		if cond, ok := e.st.Condition[loop]; ok {
			head = e.block(e.plan.Script.At(cond).Next, loop)
		}
		test := e.arg(begin.Args[0], ReprBool)
		if begin.Kind == ir.BeginWhileLoop {
			test = jen.Op("!").Parens(test)
		}
		head = append(head, jen.If(test).Block(jen.Break()))
		stmt = jen.For().Block(append(head, body...)...)
	}

	for _, v := range mine {
		delete(e.active, v)
	}
	e.order = e.order[:len(e.order)-len(mine)]
	if len(pre) == 0 {
		return []jen.Code{stmt}
	}
	return []jen.Code{jen.Block(append(append(pre, stmt), post...)...)}
}

func (e *emitter) store(v *ir.Variable, l local) jen.Code {
	return jen.Id("env").Dot("SetVar").Call(jen.Lit(v.ID()), box(jen.Id(l.name), l.repr))
}

func (e *emitter) load(v *ir.Variable, l local) *jen.Statement {
	return coerce(jen.Id("env").Dot("Var").Call(jen.Lit(v.ID())), ReprBoxed, l.repr)
}

// reload refreshes every carried local once a yield returns. Other scripts
// may write the variable while this one is suspended.
func (e *emitter) reload() []jen.Code {
	var out []jen.Code
	for _, v := range e.order {
		l := e.active[v]
		out = append(out, jen.Id(l.name).Op("=").Add(e.load(v, l)))
	}
	return out
}

// flush writes every carried local back before control yields.
func (e *emitter) flush() []jen.Code {
	var out []jen.Code
	for _, v := range e.order {
		out = append(out, e.store(v, e.active[v]))
	}
	return out
}

func (e *emitter) statement(in *ir.Instruction) jen.Code {
	env := jen.Id("env")
	switch in.Kind {
	case ir.Add, ir.Subtract, ir.Multiply, ir.Divide:
		op := map[ir.Kind]string{ir.Add: "+", ir.Subtract: "-", ir.Multiply: "*", ir.Divide: "/"}[in.Kind]
		expr := e.arg(in.Args[0], ReprNumber).Op(op).Add(e.arg(in.Args[1], ReprNumber))
		return e.assign(in, expr, ReprNumber)

	case ir.Join:
		return e.assign(in, e.arg(in.Args[0], ReprString).Op("+").Add(e.arg(in.Args[1], ReprString)), ReprString)

	case ir.And, ir.Or:
		op := "&&"
		if in.Kind == ir.Or {
			op = "||"
		}
		return e.assign(in, e.arg(in.Args[0], ReprBool).Op(op).Add(e.arg(in.Args[1], ReprBool)), ReprBool)

	case ir.Not:
		return e.assign(in, jen.Op("!").Add(e.arg(in.Args[0], ReprBool)), ReprBool)

	case ir.Equals, ir.LessThan, ir.GreaterThan:
		op := map[ir.Kind]string{ir.Equals: "==", ir.LessThan: "<", ir.GreaterThan: ">"}[in.Kind]
		var cmp *jen.Statement
		if e.plan.Lower[in.ID] == Specialized {
			cmp = jen.Qual(valuePath, "CompareNumbers").Call(e.arg(in.Args[0], ReprNumber), e.arg(in.Args[1], ReprNumber))
		} else {
			cmp = jen.Qual(valuePath, "Compare").Call(e.arg(in.Args[0], ReprBoxed), e.arg(in.Args[1], ReprBoxed))
		}
		return e.assign(in, cmp.Op(op).Lit(0), ReprBool)

	case ir.ReadVariable:
		if l, ok := e.active[in.Var]; ok {
			return e.assign(in, jen.Id(l.name), l.repr)
		}
		return e.assign(in, env.Dot("Var").Call(jen.Lit(in.Var.ID())), ReprBoxed)

	case ir.WriteVariable:
		a := in.Args[0]
		if l, ok := e.active[in.Var]; ok {
			return jen.Id(l.name).Op("=").Add(e.arg(a, l.repr))
		}
		return env.Dot("SetVar").Call(jen.Lit(in.Var.ID()), e.arg(a, ReprBoxed))

	case ir.ClearList:
		return e.list(in).Dot("Clear").Call()

	case ir.RemoveListItem:
		return e.list(in).Dot("Remove").Call(e.arg(in.Args[0], ReprNumber))

	case ir.AppendToList:
		return e.list(in).Dot("Append").Call(e.arg(in.Args[0], ReprBoxed))

	case ir.InsertToList, ir.ListReplace:
		method := "Insert"
		if in.Kind == ir.ListReplace {
			method = "Replace"
		}
		return e.list(in).Dot(method).Call(e.arg(in.Args[0], ReprNumber), e.arg(in.Args[1], ReprBoxed))

	case ir.GetListItem:
		return e.assign(in, e.list(in).Dot("Item").Call(e.arg(in.Args[0], ReprNumber)), ReprBoxed)

	case ir.GetListSize:
		return e.assign(in, jen.Float64().Call(e.list(in).Dot("Len").Call()), ReprNumber)

	case ir.FunctionCall:
		args := []jen.Code{jen.Lit(in.Name), typeLit(in.Returns)}
		for _, a := range in.Args {
			args = append(args, e.arg(a, ReprBoxed))
		}
		call := env.Dot("Call").Call(args...)
		if in.Result == ir.NoReg {
			return call
		}
		return e.assign(in, call, ReprBoxed)

	case ir.CallProcedure:
		return env.Dot("CallProcedure").Call(jen.Lit(in.Name))
	}
	return nil
}
