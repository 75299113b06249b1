// Package codegen lowers analyzed scripts to specialized Go.
//
// A Plan decides, from the analyzer's annotations, how every register is
// represented and how every value instruction is lowered. EmitGo renders
// the plan as a Go function over a vm.Env.
package codegen

import (
	"fmt"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/chazu/blockjit/analyzer"
	"github.com/chazu/blockjit/ir"
)

var log = commonlog.GetLogger("blockjit.codegen")

// Repr is how generated code holds a register.
type Repr uint8

const (
	ReprBoxed Repr = iota
	ReprNumber
	ReprBool
	ReprString
)

var reprNames = [...]string{"boxed", "float64", "bool", "string"}

func (r Repr) String() string { return reprNames[r] }

// ReprOf picks the native representation of a concrete type, boxed
// otherwise.
func ReprOf(t ir.Type) Repr {
	switch t {
	case ir.Number:
		return ReprNumber
	case ir.Bool:
		return ReprBool
	case ir.String:
		return ReprString
	}
	return ReprBoxed
}

// Lowering is how an instruction is compiled.
type Lowering uint8

const (
	// Generic goes through boxed values and runtime conversions.
	Generic Lowering = iota
	// Specialized works on native Go values.
	Specialized
)

func (l Lowering) String() string {
	if l == Specialized {
		return "specialized"
	}
	return "generic"
}

// Options controls planning and emission.
type Options struct {
	// Warp suppresses the per-iteration yield in loops.
	Warp bool
	// NoUnbox disables keeping loop-carried variables in native locals.
	NoUnbox bool
	// Analysis configures the loop queries made while planning. The zero
	// value means analyzer.DefaultOptions.
	Analysis analyzer.Options
}

// Carried is a variable kept in a native local across a loop.
type Carried struct {
	Var  *ir.Variable
	Type ir.Type
}

// Plan is the lowering decision for one script.
type Plan struct {
	Script *ir.Script
	Ann    *analyzer.Annotations
	Opts   Options

	Regs  map[ir.RegID]Repr
	Lower map[ir.InstrID]Lowering
	// Carried lists, per loop begin, the variables unboxed across the loop.
	Carried map[ir.InstrID][]Carried
}

// NewPlan decides representations and lowerings for script. Generated code
// must observe the empty string an out-of-range list read yields, so
// annotations computed without EmptyReads are recomputed with it.
func NewPlan(script *ir.Script, ann *analyzer.Annotations, opts Options) *Plan {
	if opts.Analysis == (analyzer.Options{}) {
		opts.Analysis = analyzer.DefaultOptions()
	}
	opts.Analysis.EmptyReads = true
	if ann.Valid && !ann.EmptyReads {
		log.Debugf("script %q: reanalyzing with empty list reads", script.Name)
		ann = analyzer.NewCodeAnalyzer(opts.Analysis).AnalyzeScript(script)
	}
	p := &Plan{
		Script:  script,
		Ann:     ann,
		Opts:    opts,
		Regs:    make(map[ir.RegID]Repr),
		Lower:   make(map[ir.InstrID]Lowering),
		Carried: make(map[ir.InstrID][]Carried),
	}
	for _, reg := range script.Regs {
		p.Regs[reg.ID] = ReprOf(ann.RegisterType(reg.ID))
	}
	if ann.Valid && !opts.NoUnbox {
		p.planCarried()
	}
	for in := range script.Walk() {
		if l, ok := p.lowering(in); ok {
			p.Lower[in.ID] = l
		}
	}
	return p
}

// natural is the representation an argument arrives in after its declared
// conversion.
func (p *Plan) natural(a ir.Arg) Repr {
	if a.Type.IsConcrete() {
		return ReprOf(a.Type)
	}
	return p.Regs[a.Reg]
}

// written is the type a write stores, as the analyzer computes it.
func (p *Plan) written(a ir.Arg) ir.Type {
	if a.Type.IsConcrete() {
		return a.Type
	}
	return p.Ann.RegisterType(a.Reg)
}

func (p *Plan) allNatural(in *ir.Instruction, want Repr) bool {
	for _, a := range in.Args {
		if p.natural(a) != want {
			return false
		}
	}
	return true
}

func (p *Plan) lowering(in *ir.Instruction) (Lowering, bool) {
	spec := func(ok bool) (Lowering, bool) {
		if ok {
			return Specialized, true
		}
		return Generic, true
	}
	switch in.Kind {
	case ir.Add, ir.Subtract, ir.Multiply, ir.Divide:
		return spec(p.allNatural(in, ReprNumber))
	case ir.Join:
		return spec(p.allNatural(in, ReprString))
	case ir.And, ir.Or, ir.Not:
		return spec(p.allNatural(in, ReprBool))
	case ir.Equals, ir.LessThan, ir.GreaterThan:
		return spec(p.allNatural(in, ReprNumber))
	case ir.ReadVariable:
		return spec(p.carriedIn(in) || p.Regs[in.Result] != ReprBoxed)
	case ir.WriteVariable:
		arg, _ := in.Value()
		return spec(p.carriedIn(in) || p.natural(arg) != ReprBoxed)
	case ir.AppendToList, ir.InsertToList, ir.ListReplace:
		arg, _ := in.Value()
		return spec(p.Ann.TargetType(in.ID).Union(p.written(arg)).IsConcrete())
	case ir.GetListItem:
		return spec(p.Regs[in.Result] != ReprBoxed)
	case ir.GetListSize:
		return Specialized, true
	case ir.FunctionCall:
		return Generic, true
	}
	return Generic, false
}

// ---------------------------------------------------------------------------
// Loop-carried unboxing
// ---------------------------------------------------------------------------

// planCarried finds, per loop, the variables that enter it with one concrete
// type and keep that type through every write inside it.
func (p *Plan) planCarried() {
	st, err := p.Script.Structure()
	if err != nil {
		return
	}
	mixed := analyzer.NewMixedAnalyzerWithOptions(p.Script, p.Opts.Analysis)
	for loop := range st.LoopEnd {
		writes := make(map[*ir.Variable][]*ir.Instruction)
		var order []*ir.Variable
		calls := false
		for in := range p.Script.LoopRange(loop) {
			switch in.Kind {
			case ir.WriteVariable:
				if _, seen := writes[in.Var]; !seen {
					order = append(order, in.Var)
				}
				writes[in.Var] = append(writes[in.Var], in)
			case ir.CallProcedure:
				calls = true
			}
		}
		if calls {
			continue
		}
		for _, v := range order {
			t := mixed.TypeBeforeLoop(v, loop, ir.Unknown)
			if !t.IsConcrete() || mixed.VariableTypeChanges(v, loop, t) {
				continue
			}
			exact := true
			for _, w := range writes[v] {
				if arg, _ := w.Value(); p.written(arg) != t {
					exact = false
					break
				}
			}
			if exact {
				p.Carried[loop] = append(p.Carried[loop], Carried{Var: v, Type: t})
			}
		}
		if n := len(p.Carried[loop]); n > 0 {
			log.Debugf("script %q: loop at %d carries %d variable(s) unboxed", p.Script.Name, loop, n)
		}
	}
}

// carriedIn reports whether a variable access sits inside a loop that
// carries its variable.
func (p *Plan) carriedIn(in *ir.Instruction) bool {
	for loop, cs := range p.Carried {
		for _, c := range cs {
			if c.Var != in.Var {
				continue
			}
			for x := range p.Script.LoopRange(loop) {
				if x == in {
					return true
				}
			}
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Reporting
// ---------------------------------------------------------------------------

// Stats counts lowerings.
type Stats struct {
	Specialized int
	Generic     int
	Carried     int
}

func (p *Plan) Stats() Stats {
	var s Stats
	for _, l := range p.Lower {
		if l == Specialized {
			s.Specialized++
		} else {
			s.Generic++
		}
	}
	for _, cs := range p.Carried {
		s.Carried += len(cs)
	}
	return s
}

// String renders the plan as an annotated listing.
func (p *Plan) String() string {
	var sb strings.Builder
	for in := range p.Script.Walk() {
		sb.WriteString(in.String())
		if l, ok := p.Lower[in.ID]; ok {
			fmt.Fprintf(&sb, "  [%s", l)
			if in.Result != ir.NoReg {
				fmt.Fprintf(&sb, " %s", p.Regs[in.Result])
			}
			sb.WriteString("]")
		}
		if cs := p.Carried[in.ID]; len(cs) > 0 {
			names := make([]string, len(cs))
			for i, c := range cs {
				names[i] = fmt.Sprintf("%s:%s", c.Var.Name(), c.Type)
			}
			fmt.Fprintf(&sb, "  carries %s", strings.Join(names, ", "))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
