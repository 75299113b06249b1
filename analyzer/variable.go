package analyzer

import "github.com/chazu/blockjit/ir"

// VariableAnalyzer answers type queries about variables. Lists are not
// tracked, so values read from lists are Unknown to it; MixedAnalyzer
// resolves those chains.
type VariableAnalyzer struct {
	base
}

// NewVariableAnalyzer creates a scalar analyzer for script.
func NewVariableAnalyzer(script *ir.Script) *VariableAnalyzer {
	opts := DefaultOptions()
	opts.Lists = false
	return &VariableAnalyzer{base{script: script, opts: opts}}
}

// VariableType returns the kinds v may hold immediately before at. Paths
// from the script start that never write v contribute fallback.
func (a *VariableAnalyzer) VariableType(v *ir.Variable, at ir.InstrID, fallback ir.Type) ir.Type {
	return a.variableType(v, at, fallback)
}

// VariableTypeChanges reports whether one iteration of the loop opened at
// loopStart (a loop begin or its BeginLoopCondition) can leave v holding a
// kind outside before. It is conservative: Unknown on either side, or a
// loopStart that does not open a loop, reports true.
func (a *VariableAnalyzer) VariableTypeChanges(v *ir.Variable, loopStart ir.InstrID, before ir.Type) bool {
	return a.variableTypeChanges(v, loopStart, before)
}

// VariableTypeChangesInLoop is VariableTypeChanges with the type before the
// loop computed from the script, fallback being v's type at script start.
func (a *VariableAnalyzer) VariableTypeChangesInLoop(v *ir.Variable, loopStart ir.InstrID, fallback ir.Type) bool {
	return a.variableTypeChanges(v, loopStart, a.loopEntryVariable(v, loopStart, fallback))
}

// TypeBeforeLoop returns the kinds v may hold when control reaches the loop
// opened at loopStart from outside it.
func (a *VariableAnalyzer) TypeBeforeLoop(v *ir.Variable, loopStart ir.InstrID, fallback ir.Type) ir.Type {
	return a.loopEntryVariable(v, loopStart, fallback)
}
