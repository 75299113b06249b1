package vm

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/chazu/blockjit/ir"
	"github.com/chazu/blockjit/value"
)

// ErrStepLimit is returned when a run executes more instructions than the
// interpreter's MaxSteps.
var ErrStepLimit = errors.New("step limit exceeded")

// Event describes one observed value: the result of a value-producing
// instruction or the value stored by a write.
type Event struct {
	Instr *ir.Instruction
	Value value.Value
	// InRange is false for a list read outside the list.
	InRange bool
}

// ---------------------------------------------------------------------------
// Interpreter: boxed execution of an instruction stream
// ---------------------------------------------------------------------------

// Interpreter executes a script with every value boxed. It is the semantic
// reference generated code is checked against.
type Interpreter struct {
	script *ir.Script
	st     *ir.Structure

	// MaxSteps bounds the instructions one Run may execute; 0 is unbounded.
	MaxSteps int
	// Warp suppresses Env.Yield at loop back edges.
	Warp bool
	// Trace, when set, observes every produced or stored value.
	Trace func(Event)
}

// NewInterpreter prepares a script for execution. Scripts with malformed
// control flow are rejected.
func NewInterpreter(script *ir.Script) (*Interpreter, error) {
	st, err := script.Structure()
	if err != nil {
		return nil, fmt.Errorf("script %q: %w", script.Name, err)
	}
	return &Interpreter{script: script, st: st}, nil
}

// run is the per-call execution state.
type run struct {
	*Interpreter
	env      *Env
	regs     []value.Value
	counters map[ir.InstrID]float64
}

// Run executes the script once against env. It stops early when ctx is done
// or the step limit is reached.
func (it *Interpreter) Run(ctx context.Context, env *Env) error {
	r := &run{
		Interpreter: it,
		env:         env,
		regs:        make([]value.Value, len(it.script.Regs)),
		counters:    make(map[ir.InstrID]float64),
	}
	for _, reg := range it.script.Regs {
		if reg.IsConst {
			r.regs[reg.ID] = reg.Const
		}
	}

	steps := 0
	for id := it.script.First; id != ir.NoInstr; {
		steps++
		if it.MaxSteps > 0 && steps > it.MaxSteps {
			return fmt.Errorf("script %q: %w after %d steps", it.script.Name, ErrStepLimit, it.MaxSteps)
		}
		in := it.script.At(id)
		next, err := r.step(in)
		if err != nil {
			return fmt.Errorf("script %q at %d (%s): %w", it.script.Name, in.ID, in.Kind, err)
		}
		if in.Kind == ir.EndLoop {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		id = next
	}
	return nil
}

func (r *run) operand(in *ir.Instruction, i int) value.Value {
	if i >= len(in.Args) {
		return value.Value{}
	}
	a := in.Args[i]
	if a.Reg < 0 || int(a.Reg) >= len(r.regs) {
		return value.Value{}
	}
	return Convert(r.regs[a.Reg], a.Type)
}

func (r *run) operands(in *ir.Instruction) []value.Value {
	out := make([]value.Value, len(in.Args))
	for i := range in.Args {
		out[i] = r.operand(in, i)
	}
	return out
}

func (r *run) emit(in *ir.Instruction, v value.Value, inRange bool) {
	if r.Trace != nil {
		r.Trace(Event{Instr: in, Value: v, InRange: inRange})
	}
}

func (r *run) result(in *ir.Instruction, v value.Value) {
	if in.Result != ir.NoReg {
		r.regs[in.Result] = v
	}
	r.emit(in, v, true)
}

// after returns the instruction following the one that closes id.
func (r *run) after(id ir.InstrID) ir.InstrID {
	return r.script.At(r.st.End[id]).Next
}

func (r *run) step(in *ir.Instruction) (ir.InstrID, error) {
	switch in.Kind {
	case ir.FunctionCall:
		r.result(in, r.env.Call(in.Name, in.Returns, r.operands(in)...))

	case ir.ReadVariable:
		r.result(in, r.env.Var(in.Var.ID()))

	case ir.WriteVariable:
		v := r.operand(in, 0)
		r.env.SetVar(in.Var.ID(), v)
		r.emit(in, v, true)

	case ir.ClearList:
		r.env.List(in.List.ID()).Clear()

	case ir.RemoveListItem:
		r.env.List(in.List.ID()).Remove(r.operand(in, 0).Number())

	case ir.AppendToList:
		v := r.operand(in, 0)
		r.env.List(in.List.ID()).Append(v)
		r.emit(in, v, true)

	case ir.InsertToList:
		v := r.operand(in, 1)
		r.env.List(in.List.ID()).Insert(r.operand(in, 0).Number(), v)
		r.emit(in, v, true)

	case ir.ListReplace:
		v := r.operand(in, 1)
		r.env.List(in.List.ID()).Replace(r.operand(in, 0).Number(), v)
		r.emit(in, v, true)

	case ir.GetListItem:
		v, ok := r.env.List(in.List.ID()).Lookup(r.operand(in, 0).Number())
		if in.Result != ir.NoReg {
			r.regs[in.Result] = v
		}
		r.emit(in, v, ok)

	case ir.GetListSize:
		r.result(in, value.FromNumber(float64(r.env.List(in.List.ID()).Len())))

	case ir.BeginIf:
		if r.operand(in, 0).Bool() {
			return in.Next, nil
		}
		if els, ok := r.st.Else[in.ID]; ok {
			return r.script.At(els).Next, nil
		}
		return r.after(in.ID), nil

	case ir.BeginElse:
		return r.after(in.ID), nil

	case ir.EndIf, ir.BeginLoopCondition:

	case ir.BeginRepeatLoop:
		n := math.Floor(r.operand(in, 0).Number() + 0.5)
		if !(n >= 1) {
			return r.loopExit(in.ID), nil
		}
		r.counters[in.ID] = n

	case ir.BeginWhileLoop:
		if !r.operand(in, 0).Bool() {
			return r.loopExit(in.ID), nil
		}

	case ir.BeginRepeatUntilLoop:
		if r.operand(in, 0).Bool() {
			return r.loopExit(in.ID), nil
		}

	case ir.EndLoop:
		return r.backEdge(in), nil

	case ir.CallProcedure:
		r.env.CallProcedure(in.Name)

	default:
		v, err := Apply(in.Kind, r.operands(in)...)
		if err != nil {
			return ir.NoInstr, err
		}
		r.result(in, v)
	}
	return in.Next, nil
}

func (r *run) loopExit(loop ir.InstrID) ir.InstrID {
	return r.script.At(r.st.LoopEnd[loop]).Next
}

// backEdge decides where control goes at the end of a loop body. Repeat
// loops count down without re-entering their begin; condition loops jump
// back to their header to re-evaluate.
func (r *run) backEdge(end *ir.Instruction) ir.InstrID {
	loop := r.st.Begin[end.ID]
	if !r.Warp {
		r.env.Yield()
	}
	begin := r.script.At(loop)
	if begin.Kind == ir.BeginRepeatLoop {
		r.counters[loop]--
		if r.counters[loop] >= 1 {
			return begin.Next
		}
		return end.Next
	}
	return r.st.Header(loop)
}
