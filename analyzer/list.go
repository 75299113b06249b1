package analyzer

import "github.com/chazu/blockjit/ir"

// ListAnalyzer answers type queries about lists. Variables are not tracked.
type ListAnalyzer struct {
	base
}

// NewListAnalyzer creates a collection analyzer for script.
func NewListAnalyzer(script *ir.Script) *ListAnalyzer {
	opts := DefaultOptions()
	opts.Variables = false
	return &ListAnalyzer{base{script: script, opts: opts}}
}

// ListType returns what is known about l immediately before at, with
// fallback as its state at script start (ir.Unknown when nothing is known,
// ir.Void for a list known to be empty). In append context the raw union of
// written kinds is returned, which is what a write records; otherwise the
// kind an item read observes.
func (a *ListAnalyzer) ListType(l *ir.List, at ir.InstrID, fallback ir.Type, appendContext bool) ir.Type {
	return a.listType(l, at, fallback, appendContext)
}

// ListTypeChanges reports whether one iteration of the loop opened at
// loopStart can add kinds to l beyond before.
func (a *ListAnalyzer) ListTypeChanges(l *ir.List, loopStart ir.InstrID, before ir.Type) bool {
	return a.listTypeChanges(l, loopStart, before)
}
