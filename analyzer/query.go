package analyzer

import (
	"github.com/chazu/blockjit/ir"
)

// base answers point and loop queries with a fresh engine per query. The
// analyzers are cheap to construct and hold no state between queries.
type base struct {
	script *ir.Script
	opts   Options
}

func (a base) engine() (*engine, bool) {
	e, err := newEngine(a.script, a.opts)
	if err != nil {
		log.Warningf("script %q: %v; falling back to Unknown", a.script.Name, err)
		return nil, false
	}
	return e, true
}

// pointState runs the analysis from the script start with seed applied and
// returns the state immediately before at.
func (a base) pointState(at ir.InstrID, seed func(*state)) (*state, bool) {
	if a.script.At(at) == nil {
		return nil, false
	}
	e, ok := a.engine()
	if !ok {
		return nil, false
	}
	e.watchAt(at)
	entry := newState()
	seed(entry)
	e.run(entry)
	return e.snapshot(at)
}

// loopRun runs the analysis with an entity pinned at the entry of the loop
// that loopStart opens, and returns the loop begin and its engine.
func (a base) loopRun(loopStart ir.InstrID, pin override, seed func(*state)) (*engine, ir.InstrID, bool) {
	e, ok := a.engine()
	if !ok {
		return nil, ir.NoInstr, false
	}
	loop, ok := e.st.LoopOf(loopStart)
	if !ok {
		return nil, ir.NoInstr, false
	}
	if pin.v != nil || pin.l != nil {
		pin.loop = loop
		e.pin = &pin
	}
	entry := newState()
	if seed != nil {
		seed(entry)
	}
	e.run(entry)
	if _, ok := e.exits[loop]; !ok {
		return nil, ir.NoInstr, false
	}
	return e, loop, true
}

func (a base) variableType(v *ir.Variable, at ir.InstrID, fallback ir.Type) ir.Type {
	s, ok := a.pointState(at, func(s *state) { s.vars[v] = fallback })
	if !ok {
		return ir.Unknown
	}
	return s.variable(v)
}

func (a base) variableTypeChanges(v *ir.Variable, loopStart ir.InstrID, before ir.Type) bool {
	if before.IsUnknown() {
		return true
	}
	e, loop, ok := a.loopRun(loopStart, override{v: v, t: before}, nil)
	if !ok {
		return true
	}
	return changed(before, e.exits[loop].variable(v))
}

func (a base) loopEntryVariable(v *ir.Variable, loopStart ir.InstrID, fallback ir.Type) ir.Type {
	e, loop, ok := a.loopRun(loopStart, override{}, func(s *state) { s.vars[v] = fallback })
	if !ok {
		return ir.Unknown
	}
	return e.entries[loop].variable(v)
}

func (a base) listType(l *ir.List, at ir.InstrID, fallback ir.Type, appendContext bool) ir.Type {
	s, ok := a.pointState(at, func(s *state) { s.lists[l] = fallback })
	if !ok {
		return ir.Unknown
	}
	if appendContext {
		return s.list(l)
	}
	return ReadType(s.list(l))
}

func (a base) listTypeChanges(l *ir.List, loopStart ir.InstrID, before ir.Type) bool {
	if before.IsUnknown() {
		return true
	}
	e, loop, ok := a.loopRun(loopStart, override{l: l, t: before}, nil)
	if !ok {
		return true
	}
	return changed(before, e.exits[loop].list(l))
}

func (a base) loopEntryList(l *ir.List, loopStart ir.InstrID, fallback ir.Type) ir.Type {
	e, loop, ok := a.loopRun(loopStart, override{}, func(s *state) { s.lists[l] = fallback })
	if !ok {
		return ir.Unknown
	}
	return e.entries[loop].list(l)
}

// changed reports whether the type at the end of an iteration escapes the
// type the loop was entered with.
func changed(before, after ir.Type) bool {
	return after.IsUnknown() || !before.Contains(after)
}
