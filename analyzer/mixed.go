package analyzer

import "github.com/chazu/blockjit/ir"

// MixedAnalyzer tracks variables and lists together, so a value flowing
// from a variable into a list and back keeps its type. A cycle through both
// can only close over a loop back edge; it resolves through the loop's
// bounded fixed point and widens to Unknown if that does not settle.
type MixedAnalyzer struct {
	base
}

// NewMixedAnalyzer creates an analyzer tracking every entity.
func NewMixedAnalyzer(script *ir.Script) *MixedAnalyzer {
	return NewMixedAnalyzerWithOptions(script, DefaultOptions())
}

// NewMixedAnalyzerWithOptions creates an analyzer with explicit options.
func NewMixedAnalyzerWithOptions(script *ir.Script, opts Options) *MixedAnalyzer {
	return &MixedAnalyzer{base{script: script, opts: opts}}
}

func (a *MixedAnalyzer) VariableType(v *ir.Variable, at ir.InstrID, fallback ir.Type) ir.Type {
	return a.variableType(v, at, fallback)
}

func (a *MixedAnalyzer) ListType(l *ir.List, at ir.InstrID, fallback ir.Type, appendContext bool) ir.Type {
	return a.listType(l, at, fallback, appendContext)
}

func (a *MixedAnalyzer) VariableTypeChanges(v *ir.Variable, loopStart ir.InstrID, before ir.Type) bool {
	return a.variableTypeChanges(v, loopStart, before)
}

func (a *MixedAnalyzer) VariableTypeChangesInLoop(v *ir.Variable, loopStart ir.InstrID, fallback ir.Type) bool {
	return a.variableTypeChanges(v, loopStart, a.loopEntryVariable(v, loopStart, fallback))
}

func (a *MixedAnalyzer) TypeBeforeLoop(v *ir.Variable, loopStart ir.InstrID, fallback ir.Type) ir.Type {
	return a.loopEntryVariable(v, loopStart, fallback)
}

func (a *MixedAnalyzer) ListTypeChanges(l *ir.List, loopStart ir.InstrID, before ir.Type) bool {
	return a.listTypeChanges(l, loopStart, before)
}

func (a *MixedAnalyzer) ListTypeBeforeLoop(l *ir.List, loopStart ir.InstrID, fallback ir.Type) ir.Type {
	return a.loopEntryList(l, loopStart, fallback)
}
