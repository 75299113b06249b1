package ir

import "iter"

// Script is the arena holding one script's instructions and registers.
// Instructions keep their arena index for life; the linked Prev/Next order
// is the execution order.
type Script struct {
	Name string

	Instrs []*Instruction
	Regs   []*Register

	First InstrID
	Last  InstrID

	structure *Structure
	structErr error
}

// NewScript creates an empty script.
func NewScript(name string) *Script {
	return &Script{Name: name, First: NoInstr, Last: NoInstr}
}

// At returns the instruction with the given id, or nil.
func (s *Script) At(id InstrID) *Instruction {
	if id < 0 || int(id) >= len(s.Instrs) {
		return nil
	}
	return s.Instrs[id]
}

// Reg returns the register with the given id, or nil.
func (s *Script) Reg(id RegID) *Register {
	if id < 0 || int(id) >= len(s.Regs) {
		return nil
	}
	return s.Regs[id]
}

// Len returns the number of linked instructions.
func (s *Script) Len() int {
	n := 0
	for range s.Walk() {
		n++
	}
	return n
}

// Walk iterates instructions in execution order.
func (s *Script) Walk() iter.Seq[*Instruction] {
	return func(yield func(*Instruction) bool) {
		for id := s.First; id != NoInstr; {
			in := s.Instrs[id]
			if !yield(in) {
				return
			}
			id = in.Next
		}
	}
}

// Variables returns the distinct variables referenced, in first-use order.
func (s *Script) Variables() []*Variable {
	var out []*Variable
	seen := make(map[*Variable]bool)
	for in := range s.Walk() {
		if in.Var != nil && !seen[in.Var] {
			seen[in.Var] = true
			out = append(out, in.Var)
		}
	}
	return out
}

// Lists returns the distinct lists referenced, in first-use order.
func (s *Script) Lists() []*List {
	var out []*List
	seen := make(map[*List]bool)
	for in := range s.Walk() {
		if in.List != nil && !seen[in.List] {
			seen[in.List] = true
			out = append(out, in.List)
		}
	}
	return out
}

// newRegister allocates a register in the arena.
func (s *Script) newRegister(r Register) *Register {
	r.ID = RegID(len(s.Regs))
	reg := &r
	s.Regs = append(s.Regs, reg)
	return reg
}

// append links a new instruction at the end of the script.
func (s *Script) append(in *Instruction) *Instruction {
	in.ID = InstrID(len(s.Instrs))
	in.Prev = s.Last
	in.Next = NoInstr
	if s.Last != NoInstr {
		s.Instrs[s.Last].Next = in.ID
	} else {
		s.First = in.ID
	}
	s.Last = in.ID
	s.Instrs = append(s.Instrs, in)
	s.structure, s.structErr = nil, nil
	return in
}

// Unlink removes an instruction from the execution order. Its arena slot
// and any registers it produced remain valid.
func (s *Script) Unlink(id InstrID) {
	in := s.At(id)
	if in == nil {
		return
	}
	if in.Prev != NoInstr {
		s.Instrs[in.Prev].Next = in.Next
	} else if s.First == id {
		s.First = in.Next
	}
	if in.Next != NoInstr {
		s.Instrs[in.Next].Prev = in.Prev
	} else if s.Last == id {
		s.Last = in.Prev
	}
	in.Prev, in.Next = NoInstr, NoInstr
	s.structure, s.structErr = nil, nil
}
