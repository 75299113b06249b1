package ir

import (
	"errors"
	"fmt"
	"iter"
)

// ErrUnbalanced reports malformed control-flow nesting.
var ErrUnbalanced = errors.New("unbalanced control flow")

// Structure records, for every control delimiter, the delimiters it pairs
// with. It is computed once per script by Script.Structure.
type Structure struct {
	// Else maps BeginIf to its BeginElse, if any.
	Else map[InstrID]InstrID
	// End maps BeginIf and BeginElse to EndIf, and loop begins to EndLoop.
	End map[InstrID]InstrID
	// Loop maps BeginLoopCondition to the loop begin it guards.
	Loop map[InstrID]InstrID
	// Condition maps a loop begin to its BeginLoopCondition, if any.
	Condition map[InstrID]InstrID
	// Begin maps EndLoop to its loop begin and EndIf to its BeginIf.
	Begin map[InstrID]InstrID
	// LoopEnd maps loop begins, and only loop begins, to their EndLoop.
	LoopEnd map[InstrID]InstrID
}

// LoopOf resolves a loop begin or its BeginLoopCondition to the loop begin.
func (st *Structure) LoopOf(id InstrID) (InstrID, bool) {
	if loop, ok := st.Loop[id]; ok {
		return loop, true
	}
	if _, ok := st.LoopEnd[id]; ok {
		return id, true
	}
	return NoInstr, false
}

// Header returns the instruction a loop iteration starts at: the
// BeginLoopCondition for condition loops, the loop begin otherwise.
func (st *Structure) Header(loop InstrID) InstrID {
	if cond, ok := st.Condition[loop]; ok {
		return cond
	}
	return loop
}

type frame struct {
	id    InstrID
	kind  Kind
	begin InstrID
}

// Structure matches the script's control delimiters. The result is cached
// until the script is modified.
func (s *Script) Structure() (*Structure, error) {
	if s.structure != nil || s.structErr != nil {
		return s.structure, s.structErr
	}
	s.structure, s.structErr = s.buildStructure()
	return s.structure, s.structErr
}

func (s *Script) buildStructure() (*Structure, error) {
	st := &Structure{
		Else:      make(map[InstrID]InstrID),
		End:       make(map[InstrID]InstrID),
		Loop:      make(map[InstrID]InstrID),
		Condition: make(map[InstrID]InstrID),
		Begin:     make(map[InstrID]InstrID),
		LoopEnd:   make(map[InstrID]InstrID),
	}
	var stack []frame
	top := func() (frame, bool) {
		if len(stack) == 0 {
			return frame{}, false
		}
		return stack[len(stack)-1], true
	}

	for in := range s.Walk() {
		switch in.Kind {
		case BeginIf:
			stack = append(stack, frame{in.ID, BeginIf, in.ID})

		case BeginElse:
			f, ok := top()
			if !ok || f.kind != BeginIf {
				return nil, fmt.Errorf("%w: BeginElse at %d without BeginIf", ErrUnbalanced, in.ID)
			}
			st.Else[f.id] = in.ID
			stack[len(stack)-1] = frame{in.ID, BeginElse, f.begin}

		case EndIf:
			f, ok := top()
			if !ok || (f.kind != BeginIf && f.kind != BeginElse) {
				return nil, fmt.Errorf("%w: EndIf at %d without BeginIf", ErrUnbalanced, in.ID)
			}
			stack = stack[:len(stack)-1]
			st.End[f.id] = in.ID
			st.End[f.begin] = in.ID
			st.Begin[in.ID] = f.begin

		case BeginLoopCondition:
			stack = append(stack, frame{in.ID, BeginLoopCondition, in.ID})

		case BeginWhileLoop, BeginRepeatUntilLoop:
			if f, ok := top(); ok && f.kind == BeginLoopCondition {
				stack[len(stack)-1] = frame{in.ID, in.Kind, in.ID}
				st.Loop[f.id] = in.ID
				st.Condition[in.ID] = f.id
			} else {
				stack = append(stack, frame{in.ID, in.Kind, in.ID})
			}

		case BeginRepeatLoop:
			stack = append(stack, frame{in.ID, BeginRepeatLoop, in.ID})

		case EndLoop:
			f, ok := top()
			if !ok || !f.kind.IsLoopBegin() {
				return nil, fmt.Errorf("%w: EndLoop at %d without loop begin", ErrUnbalanced, in.ID)
			}
			stack = stack[:len(stack)-1]
			st.End[f.id] = in.ID
			st.LoopEnd[f.id] = in.ID
			st.Begin[in.ID] = f.id
		}
	}
	if f, ok := top(); ok {
		return nil, fmt.Errorf("%w: %s at %d is never closed", ErrUnbalanced, f.kind, f.id)
	}
	return st, nil
}

// Range iterates instructions from `from` up to, but not including, `to`.
func (s *Script) Range(from, to InstrID) iter.Seq[*Instruction] {
	return func(yield func(*Instruction) bool) {
		for id := from; id != to && id != NoInstr; {
			in := s.Instrs[id]
			if !yield(in) {
				return
			}
			id = in.Next
		}
	}
}

// LoopRange returns the instructions making up one iteration of a loop: the
// condition block (if any) and the body, ending at the EndLoop.
func (s *Script) LoopRange(loop InstrID) iter.Seq[*Instruction] {
	st, err := s.Structure()
	if err != nil {
		return func(func(*Instruction) bool) {}
	}
	end, ok := st.End[loop]
	if !ok {
		return func(func(*Instruction) bool) {}
	}
	return s.Range(st.Header(loop), end)
}
