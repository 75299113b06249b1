package ir

import (
	"fmt"

	"github.com/chazu/blockjit/value"
)

// RegID indexes a register in its script's arena.
type RegID int

// NoReg marks an instruction without a result.
const NoReg RegID = -1

// Register is either a constant holding a literal, or a computed value
// produced by an instruction.
type Register struct {
	ID RegID

	// Const is set for constant registers.
	Const    value.Value
	IsConst  bool
	Producer InstrID

	// Declared is the static type known before analysis: the literal type of
	// a constant, the declared result of the producing instruction otherwise.
	Declared Type
}

func (r *Register) String() string {
	if r.IsConst {
		return fmt.Sprintf("r%d = const %s %q", r.ID, TypeOf(r.Const), r.Const.ToString())
	}
	return fmt.Sprintf("r%d <- %d", r.ID, r.Producer)
}
