package analyzer

import (
	"github.com/chazu/blockjit/ir"
)

// ---------------------------------------------------------------------------
// engine: forward walk over the structured instruction stream
// ---------------------------------------------------------------------------

// override pins an entity's type at the entry of one loop, so a query can
// ask how the loop treats a given incoming type.
type override struct {
	loop ir.InstrID
	v    *ir.Variable
	l    *ir.List
	t    ir.Type
}

// engine runs one analysis over a script. Results recorded during a loop
// traversal are overwritten by later traversals, so the values left behind
// come from the converged pass.
type engine struct {
	script *ir.Script
	st     *ir.Structure
	opts   Options

	regs    map[ir.RegID]ir.Type
	targets map[ir.InstrID]ir.Type

	// watch holds the state seen immediately before each watched instruction.
	watch map[ir.InstrID]*state
	// entries and exits hold, per loop begin, the state on reaching the loop
	// from outside and the state at the end of its body.
	entries map[ir.InstrID]*state
	exits   map[ir.InstrID]*state
	passes  map[ir.InstrID]int

	pin *override
}

func newEngine(script *ir.Script, opts Options) (*engine, error) {
	st, err := script.Structure()
	if err != nil {
		return nil, err
	}
	return &engine{
		script:  script,
		st:      st,
		opts:    opts,
		regs:    make(map[ir.RegID]ir.Type),
		targets: make(map[ir.InstrID]ir.Type),
		entries: make(map[ir.InstrID]*state),
		exits:   make(map[ir.InstrID]*state),
		passes:  make(map[ir.InstrID]int),
	}, nil
}

// watchAt asks the engine to snapshot the state before id.
func (e *engine) watchAt(id ir.InstrID) {
	if e.watch == nil {
		e.watch = make(map[ir.InstrID]*state)
	}
	e.watch[id] = nil
}

func (e *engine) snapshot(id ir.InstrID) (*state, bool) {
	s, ok := e.watch[id]
	return s, ok && s != nil
}

func (e *engine) capture(id ir.InstrID, s *state) {
	if _, ok := e.watch[id]; ok {
		e.watch[id] = s.clone()
	}
}

// run analyzes the whole script from the given entry state.
func (e *engine) run(entry *state) *state {
	return e.block(e.script.First, ir.NoInstr, entry)
}

// block analyzes instructions from `from` up to, not including, `to`.
func (e *engine) block(from, to ir.InstrID, s *state) *state {
	for id := from; id != to && id != ir.NoInstr; {
		in := e.script.At(id)
		switch {
		case in.Kind == ir.BeginIf:
			s, id = e.branch(in, s)
		case in.Kind == ir.BeginLoopCondition || in.Kind.IsLoopBegin():
			s, id = e.loop(in, s)
		default:
			e.capture(in.ID, s)
			e.transfer(in, s)
			id = in.Next
		}
	}
	return s
}

// branch handles BeginIf ... [BeginElse ...] EndIf. Without an else the
// untaken path carries the entry state to the merge.
func (e *engine) branch(in *ir.Instruction, s *state) (*state, ir.InstrID) {
	e.capture(in.ID, s)
	end := e.st.End[in.ID]
	thenEnd := end
	els, hasElse := e.st.Else[in.ID]
	if hasElse {
		thenEnd = els
	}

	out := e.block(in.Next, thenEnd, s.clone())
	if hasElse {
		e.capture(els, out)
		elseOut := e.block(e.script.At(els).Next, end, s.clone())
		out = out.join(elseOut)
	} else {
		out = out.join(s)
	}
	e.capture(end, out)
	return out, e.script.At(end).Next
}

// loop iterates a loop to a fixed point. A repeat loop may run zero times,
// so its exit state is the converged header state. A condition loop always
// evaluates its condition at least once and exits right after it, so its
// exit state is the converged condition-exit state.
func (e *engine) loop(in *ir.Instruction, s *state) (*state, ir.InstrID) {
	loopID, _ := e.st.LoopOf(in.ID)
	begin := e.script.At(loopID)
	end := e.st.LoopEnd[loopID]
	cond, hasCond := e.st.Condition[loopID]

	e.entries[loopID] = s.clone()
	head := s.clone()
	if p := e.pin; p != nil && p.loop == loopID {
		if p.v != nil {
			head.vars[p.v] = p.t
		}
		if p.l != nil {
			head.lists[p.l] = p.t
		}
	}

	var exit, bodyOut *state
	widened := false
	for pass := 1; ; pass++ {
		cur := head.clone()
		if hasCond {
			e.capture(cond, cur)
			cur = e.block(e.script.At(cond).Next, loopID, cur)
			exit = cur.clone()
		}
		e.capture(loopID, cur)
		e.transfer(begin, cur)
		bodyOut = e.block(begin.Next, end, cur)
		e.capture(end, bodyOut)

		next := head.join(bodyOut)
		e.passes[loopID] = pass
		if next.equal(head) || widened {
			break
		}
		if pass >= e.opts.maxPasses() {
			log.Debugf("script %q: loop at %d did not converge in %d passes, widening",
				e.script.Name, loopID, pass)
			next = e.widen(next, loopID)
			widened = true
		}
		head = next
	}
	e.exits[loopID] = bodyOut.clone()

	if hasCond {
		return exit, e.script.At(end).Next
	}
	return head, e.script.At(end).Next
}

// widen sets every entity written inside the loop to Unknown.
func (e *engine) widen(s *state, loop ir.InstrID) *state {
	for in := range e.script.LoopRange(loop) {
		switch {
		case in.Kind == ir.WriteVariable:
			s.vars[in.Var] = ir.Unknown
		case in.Kind == ir.ClearList || in.Kind.IsListWrite():
			s.lists[in.List] = ir.Unknown
		case in.Kind == ir.CallProcedure:
			s.invalidate()
		}
	}
	return s
}

// ---------------------------------------------------------------------------
// Transfer functions
// ---------------------------------------------------------------------------

func (e *engine) transfer(in *ir.Instruction, s *state) {
	switch in.Kind {
	case ir.ReadVariable:
		t := ir.Unknown
		if e.opts.Variables {
			t = s.variable(in.Var)
		}
		e.setReg(in.Result, t)

	case ir.WriteVariable:
		if e.opts.Variables {
			if arg, ok := in.Value(); ok {
				s.vars[in.Var] = e.written(arg)
			}
		}

	case ir.ClearList:
		if e.opts.Lists {
			s.lists[in.List] = ir.Void
		}

	case ir.AppendToList, ir.InsertToList, ir.ListReplace:
		prev := ir.Unknown
		if e.opts.Lists {
			prev = s.list(in.List)
		}
		e.targets[in.ID] = prev
		if e.opts.Lists {
			if arg, ok := in.Value(); ok {
				s.lists[in.List] = prev.Union(e.written(arg))
			}
		}

	case ir.GetListItem:
		t := ir.Unknown
		if e.opts.Lists {
			t = s.list(in.List)
		}
		e.targets[in.ID] = t
		read := ReadType(t)
		if e.opts.EmptyReads {
			read = read.Union(ir.String)
		}
		e.setReg(in.Result, read)

	case ir.FunctionCall:
		e.setReg(in.Result, in.Returns)

	case ir.CallProcedure:
		s.invalidate()

	default:
		if t, ok := in.Kind.ResultType(); ok {
			e.setReg(in.Result, t)
		}
	}
}

func (e *engine) setReg(id ir.RegID, t ir.Type) {
	if id == ir.NoReg {
		return
	}
	if t == ir.Void {
		t = ir.Unknown
	}
	e.regs[id] = t
}

// regType is the type a register holds at its use.
func (e *engine) regType(id ir.RegID) ir.Type {
	reg := e.script.Reg(id)
	if reg == nil {
		return ir.Unknown
	}
	if reg.IsConst {
		return ir.ConstType(reg.Const, e.opts.FoldNumericStrings)
	}
	if t, ok := e.regs[id]; ok {
		return t
	}
	if reg.Declared == ir.Void {
		return ir.Unknown
	}
	return reg.Declared
}

// written is the type stored by a write: the argument's declared type when
// the value is converted to it, the register's type otherwise.
func (e *engine) written(arg ir.Arg) ir.Type {
	if arg.Type.IsConcrete() {
		return arg.Type
	}
	return e.regType(arg.Reg)
}

// ReadType is the type an item read observes on a list whose written kinds
// are t. An empty list yields the empty string; a list holding several kinds
// reads as Unknown since any item may come back stringified.
func ReadType(t ir.Type) ir.Type {
	switch {
	case t == ir.Void:
		return ir.String
	case t.IsConcrete():
		return t
	default:
		return ir.Unknown
	}
}
