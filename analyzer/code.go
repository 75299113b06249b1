package analyzer

import (
	"github.com/chazu/blockjit/ir"
)

// Annotations is the output of AnalyzeScript. Instructions are never
// mutated; consumers look types up here.
type Annotations struct {
	// Targets holds, for AppendToList, InsertToList, ListReplace and
	// GetListItem, the kinds the list held immediately before the
	// instruction.
	Targets map[ir.InstrID]ir.Type
	// Registers holds the resolved type of every register.
	Registers map[ir.RegID]ir.Type
	// Valid is false when the script could not be analyzed and every
	// annotation is Unknown.
	Valid bool
	// EmptyReads records that list item reads were typed with the empty
	// string of an out-of-range index included.
	EmptyReads bool
}

// TargetType returns the recorded target type of id, Unknown if none.
func (a *Annotations) TargetType(id ir.InstrID) ir.Type {
	if t, ok := a.Targets[id]; ok {
		return t
	}
	return ir.Unknown
}

// RegisterType returns the resolved type of a register, Unknown if none.
func (a *Annotations) RegisterType(id ir.RegID) ir.Type {
	if t, ok := a.Registers[id]; ok {
		return t
	}
	return ir.Unknown
}

// CodeAnalyzer annotates whole scripts for the code generator.
type CodeAnalyzer struct {
	opts Options
}

// NewCodeAnalyzer creates a code analyzer; the zero Options value is
// replaced by DefaultOptions.
func NewCodeAnalyzer(opts Options) *CodeAnalyzer {
	if opts == (Options{}) {
		opts = DefaultOptions()
	}
	return &CodeAnalyzer{opts: opts}
}

// Options returns the analyzer's options.
func (c *CodeAnalyzer) Options() Options { return c.opts }

// AnalyzeScript walks script once, iterating loops to a fixed point, and
// records the target type of every list access and the type of every
// register. A script with malformed control flow gets Unknown everywhere.
func (c *CodeAnalyzer) AnalyzeScript(script *ir.Script) *Annotations {
	ann := &Annotations{
		Targets:    make(map[ir.InstrID]ir.Type),
		Registers:  make(map[ir.RegID]ir.Type),
		EmptyReads: c.opts.EmptyReads,
	}

	e, err := newEngine(script, c.opts)
	if err != nil {
		log.Warningf("script %q: %v; every site stays Unknown", script.Name, err)
		for in := range script.Walk() {
			if in.Kind.IsListWrite() || in.Kind == ir.GetListItem {
				ann.Targets[in.ID] = ir.Unknown
			}
		}
		for _, reg := range script.Regs {
			ann.Registers[reg.ID] = ir.Unknown
		}
		return ann
	}

	e.run(newState())
	ann.Valid = true
	for id, t := range e.targets {
		ann.Targets[id] = t
	}
	for _, reg := range script.Regs {
		ann.Registers[reg.ID] = e.regType(reg.ID)
	}
	for loop, n := range e.passes {
		if n > 2 {
			log.Debugf("script %q: loop at %d took %d passes", script.Name, loop, n)
		}
	}
	return ann
}
