package compiler

import (
	"github.com/chazu/blockjit/analyzer"
	"github.com/chazu/blockjit/cache"
	"github.com/chazu/blockjit/compiler/hash"
	"github.com/chazu/blockjit/ir"
)

// toEntry converts annotations to their position-indexed cache form.
func toEntry(key hash.Sum, n *hash.Normal, ann *analyzer.Annotations) *cache.Entry {
	e := &cache.Entry{
		Key:       key,
		Version:   hash.HashVersion,
		Valid:     ann.Valid,
		Targets:   make(map[int]uint8),
		Registers: make([]uint8, len(n.Regs)),
	}
	for id, pos := range n.InstrPositions() {
		if t, ok := ann.Targets[id]; ok {
			e.Targets[pos] = uint8(t)
		}
	}
	for pos := range n.Regs {
		id, _ := n.RegAt(pos)
		e.Registers[pos] = uint8(ann.RegisterType(id))
	}
	return e
}

// fromEntry maps a cache entry back onto the arena of the script n was
// normalized from. It fails if the entry does not fit the script.
func fromEntry(e *cache.Entry, n *hash.Normal, emptyReads bool) (*analyzer.Annotations, bool) {
	if len(e.Registers) != len(n.Regs) {
		return nil, false
	}
	ann := &analyzer.Annotations{
		Targets:    make(map[ir.InstrID]ir.Type),
		Registers:  make(map[ir.RegID]ir.Type),
		Valid:      e.Valid,
		EmptyReads: emptyReads,
	}
	for pos, t := range e.Targets {
		id, ok := n.InstrAt(pos)
		if !ok {
			return nil, false
		}
		ann.Targets[id] = ir.Type(t)
	}
	for pos, t := range e.Registers {
		id, _ := n.RegAt(pos)
		ann.Registers[id] = ir.Type(t)
	}
	return ann, true
}
