package ir

import "github.com/google/uuid"

// Variable is a scalar entity. Analyzers use the pointer as its identity.
type Variable struct {
	id   string
	name string
}

// NewVariable creates a variable; an empty id is replaced by a fresh UUID.
func NewVariable(id, name string) *Variable {
	if id == "" {
		id = uuid.NewString()
	}
	return &Variable{id: id, name: name}
}

func (v *Variable) ID() string   { return v.id }
func (v *Variable) Name() string { return v.name }

func (v *Variable) String() string { return "var " + v.name }

// List is a collection entity. Analyzers use the pointer as its identity.
type List struct {
	id   string
	name string
}

// NewList creates a list; an empty id is replaced by a fresh UUID.
func NewList(id, name string) *List {
	if id == "" {
		id = uuid.NewString()
	}
	return &List{id: id, name: name}
}

func (l *List) ID() string   { return l.id }
func (l *List) Name() string { return l.name }

func (l *List) String() string { return "list " + l.name }
