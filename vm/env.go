package vm

import (
	"github.com/tliron/commonlog"

	"github.com/chazu/blockjit/ir"
	"github.com/chazu/blockjit/value"
)

var log = commonlog.GetLogger("blockjit.vm")

// Function implements a FunctionCall. It receives boxed arguments.
type Function func(args []value.Value) value.Value

// Procedure implements a CallProcedure. It may read and write any entity.
type Procedure func(env *Env)

// ---------------------------------------------------------------------------
// Env: runtime state shared by interpreted and generated code
// ---------------------------------------------------------------------------

// Env holds the state a script runs against. Variables and lists are keyed
// by entity id. An Env is not safe for concurrent use.
type Env struct {
	vars  map[string]value.Value
	lists map[string]*List

	Functions  map[string]Function
	Procedures map[string]Procedure

	// OnYield is called at every loop back edge of non-warp code.
	OnYield func()
	yields  int
}

// NewEnv creates an empty environment.
func NewEnv() *Env {
	return &Env{
		vars:       make(map[string]value.Value),
		lists:      make(map[string]*List),
		Functions:  make(map[string]Function),
		Procedures: make(map[string]Procedure),
	}
}

// Var returns a variable's value. Unset variables hold 0.
func (e *Env) Var(id string) value.Value {
	return e.vars[id]
}

// SetVar stores a variable's value.
func (e *Env) SetVar(id string, v value.Value) {
	e.vars[id] = v
}

// List returns the list with the given id, creating it empty.
func (e *Env) List(id string) *List {
	l, ok := e.lists[id]
	if !ok {
		l = &List{}
		e.lists[id] = l
	}
	return l
}

// Call invokes a registered function and converts its result to the
// declared return type. An unregistered function returns the empty string.
func (e *Env) Call(name string, returns ir.Type, args ...value.Value) value.Value {
	fn, ok := e.Functions[name]
	if !ok {
		log.Debugf("call to unregistered function %q", name)
		return Convert(value.FromString(""), returns)
	}
	return Convert(fn(args), returns)
}

// CallProcedure runs a registered procedure. Unregistered procedures do
// nothing.
func (e *Env) CallProcedure(name string) {
	p, ok := e.Procedures[name]
	if !ok {
		log.Debugf("call to unregistered procedure %q", name)
		return
	}
	p(e)
}

// Yield marks a loop iteration boundary.
func (e *Env) Yield() {
	e.yields++
	if e.OnYield != nil {
		e.OnYield()
	}
}

// Yields returns how many times Yield was called.
func (e *Env) Yields() int { return e.yields }
