package hash

import "github.com/chazu/blockjit/ir"

// ---------------------------------------------------------------------------
// Normalized script form.
//
// Instructions appear in execution order with arena ids dropped. Variables,
// lists and registers are numbered by first appearance, so two scripts that
// differ only in entity names, entity ids or arena layout normalize to the
// same form.
// ---------------------------------------------------------------------------

// NArg is a normalized argument slot.
type NArg struct {
	Type uint8 `cbor:"1,keyasint"`
	Reg  int   `cbor:"2,keyasint"`
}

// NInstr is a normalized instruction.
type NInstr struct {
	Kind    uint8  `cbor:"1,keyasint"`
	Var     int    `cbor:"2,keyasint,omitempty"`
	List    int    `cbor:"3,keyasint,omitempty"`
	Args    []NArg `cbor:"4,keyasint,omitempty"`
	Result  int    `cbor:"5,keyasint,omitempty"`
	Name    string `cbor:"6,keyasint,omitempty"`
	Returns uint8  `cbor:"7,keyasint,omitempty"`
}

// NReg is a normalized register: a literal, or a computed value with its
// declared type.
type NReg struct {
	Tag      byte    `cbor:"1,keyasint"`
	Num      float64 `cbor:"2,keyasint,omitempty"`
	Str      string  `cbor:"3,keyasint,omitempty"`
	Bool     bool    `cbor:"4,keyasint,omitempty"`
	Declared uint8   `cbor:"5,keyasint,omitempty"`
}

// Normal is a normalized script together with the mapping back to the
// arena it came from.
type Normal struct {
	Version byte     `cbor:"1,keyasint"`
	Instrs  []NInstr `cbor:"2,keyasint"`
	Regs    []NReg   `cbor:"3,keyasint"`

	instrs []ir.InstrID
	regs   []ir.RegID
}

// InstrAt returns the arena id of the instruction at a normalized position.
func (n *Normal) InstrAt(pos int) (ir.InstrID, bool) {
	if pos < 0 || pos >= len(n.instrs) {
		return ir.NoInstr, false
	}
	return n.instrs[pos], true
}

// RegAt returns the arena id of the register at a normalized position.
func (n *Normal) RegAt(pos int) (ir.RegID, bool) {
	if pos < 0 || pos >= len(n.regs) {
		return ir.NoReg, false
	}
	return n.regs[pos], true
}

// InstrPositions maps arena ids to normalized positions.
func (n *Normal) InstrPositions() map[ir.InstrID]int {
	out := make(map[ir.InstrID]int, len(n.instrs))
	for pos, id := range n.instrs {
		out[id] = pos
	}
	return out
}

// RegPositions maps register ids to normalized positions.
func (n *Normal) RegPositions() map[ir.RegID]int {
	out := make(map[ir.RegID]int, len(n.regs))
	for pos, id := range n.regs {
		out[id] = pos
	}
	return out
}
