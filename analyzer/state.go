package analyzer

import "github.com/chazu/blockjit/ir"

// state is what the analysis knows about every entity at one program point.
// A missing entry is NoInfo, which reads as Unknown.
type state struct {
	vars  map[*ir.Variable]ir.Type
	lists map[*ir.List]ir.Type
}

func newState() *state {
	return &state{
		vars:  make(map[*ir.Variable]ir.Type),
		lists: make(map[*ir.List]ir.Type),
	}
}

func (s *state) clone() *state {
	c := &state{
		vars:  make(map[*ir.Variable]ir.Type, len(s.vars)),
		lists: make(map[*ir.List]ir.Type, len(s.lists)),
	}
	for k, v := range s.vars {
		c.vars[k] = v
	}
	for k, v := range s.lists {
		c.lists[k] = v
	}
	return c
}

func (s *state) variable(v *ir.Variable) ir.Type {
	if t, ok := s.vars[v]; ok {
		return t
	}
	return ir.Unknown
}

func (s *state) list(l *ir.List) ir.Type {
	if t, ok := s.lists[l]; ok {
		return t
	}
	return ir.Unknown
}

// invalidate forgets everything; a called procedure may touch any entity.
func (s *state) invalidate() {
	clear(s.vars)
	clear(s.lists)
}

// join merges two control-flow paths.
func (s *state) join(o *state) *state {
	out := newState()
	for v := range s.vars {
		out.vars[v] = s.variable(v).Union(o.variable(v))
	}
	for v := range o.vars {
		out.vars[v] = s.variable(v).Union(o.variable(v))
	}
	for l := range s.lists {
		out.lists[l] = s.list(l).Union(o.list(l))
	}
	for l := range o.lists {
		out.lists[l] = s.list(l).Union(o.list(l))
	}
	return out
}

func (s *state) equal(o *state) bool {
	for v := range s.vars {
		if s.variable(v) != o.variable(v) {
			return false
		}
	}
	for v := range o.vars {
		if s.variable(v) != o.variable(v) {
			return false
		}
	}
	for l := range s.lists {
		if s.list(l) != o.list(l) {
			return false
		}
	}
	for l := range o.lists {
		if s.list(l) != o.list(l) {
			return false
		}
	}
	return true
}
