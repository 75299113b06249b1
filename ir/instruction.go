package ir

import (
	"fmt"
	"strings"
)

// Kind is the operation an instruction performs.
type Kind uint8

const (
	FunctionCall Kind = iota

	// Value-producing primitives with fixed result types.
	Add
	Subtract
	Multiply
	Divide
	Join
	Equals
	LessThan
	GreaterThan
	And
	Or
	Not

	ReadVariable
	WriteVariable

	ClearList
	RemoveListItem
	AppendToList
	InsertToList
	ListReplace
	GetListItem
	GetListSize

	BeginIf
	BeginElse
	EndIf
	BeginRepeatLoop
	BeginWhileLoop
	BeginRepeatUntilLoop
	BeginLoopCondition
	EndLoop

	CallProcedure

	numKinds
)

var kindNames = [numKinds]string{
	FunctionCall:         "FunctionCall",
	Add:                  "Add",
	Subtract:             "Subtract",
	Multiply:             "Multiply",
	Divide:               "Divide",
	Join:                 "Join",
	Equals:               "Equals",
	LessThan:             "LessThan",
	GreaterThan:          "GreaterThan",
	And:                  "And",
	Or:                   "Or",
	Not:                  "Not",
	ReadVariable:         "ReadVariable",
	WriteVariable:        "WriteVariable",
	ClearList:            "ClearList",
	RemoveListItem:       "RemoveListItem",
	AppendToList:         "AppendToList",
	InsertToList:         "InsertToList",
	ListReplace:          "ListReplace",
	GetListItem:          "GetListItem",
	GetListSize:          "GetListSize",
	BeginIf:              "BeginIf",
	BeginElse:            "BeginElse",
	EndIf:                "EndIf",
	BeginRepeatLoop:      "BeginRepeatLoop",
	BeginWhileLoop:       "BeginWhileLoop",
	BeginRepeatUntilLoop: "BeginRepeatUntilLoop",
	BeginLoopCondition:   "BeginLoopCondition",
	EndLoop:              "EndLoop",
	CallProcedure:        "CallProcedure",
}

func (k Kind) String() string {
	if k < numKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind looks a kind up by its name.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}

// ResultType is the fixed result type of a value-producing kind. The second
// return is false for kinds whose result depends on analysis or on a declared
// return type.
func (k Kind) ResultType() (Type, bool) {
	switch k {
	case Add, Subtract, Multiply, Divide, GetListSize:
		return Number, true
	case Join:
		return String, true
	case Equals, LessThan, GreaterThan, And, Or, Not:
		return Bool, true
	}
	return Unknown, false
}

// OperandType is the type operators convert their operands to.
func (k Kind) OperandType() Type {
	switch k {
	case Add, Subtract, Multiply, Divide:
		return Number
	case Join:
		return String
	case And, Or, Not:
		return Bool
	}
	return Unknown
}

// IsLoopBegin reports whether k opens a loop body.
func (k Kind) IsLoopBegin() bool {
	return k == BeginRepeatLoop || k == BeginWhileLoop || k == BeginRepeatUntilLoop
}

// IsListWrite reports whether k adds or replaces a list element.
func (k Kind) IsListWrite() bool {
	return k == AppendToList || k == InsertToList || k == ListReplace
}

// IsControl reports whether k is a control-flow delimiter.
func (k Kind) IsControl() bool {
	switch k {
	case BeginIf, BeginElse, EndIf, BeginRepeatLoop, BeginWhileLoop,
		BeginRepeatUntilLoop, BeginLoopCondition, EndLoop:
		return true
	}
	return false
}

// InstrID indexes an instruction in its script's arena.
type InstrID int

// NoInstr marks the absence of an instruction.
const NoInstr InstrID = -1

// Arg is an argument slot: the type the operation expects plus the register
// providing the value. A concrete Type means the value is converted to it
// before use.
type Arg struct {
	Type Type
	Reg  RegID
}

// Instruction is one compiled operation.
type Instruction struct {
	ID   InstrID
	Prev InstrID
	Next InstrID
	Kind Kind

	Var  *Variable
	List *List

	Args   []Arg
	Result RegID

	// Name is the function or procedure called.
	Name string
	// Returns is the declared result type of a FunctionCall.
	Returns Type
}

// Value reports the argument holding the written value of a variable or
// list write.
func (in *Instruction) Value() (Arg, bool) {
	switch in.Kind {
	case WriteVariable, AppendToList:
		if len(in.Args) > 0 {
			return in.Args[0], true
		}
	case InsertToList, ListReplace:
		if len(in.Args) > 1 {
			return in.Args[1], true
		}
	}
	return Arg{}, false
}

func (in *Instruction) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d: ", in.ID)
	if in.Result != NoReg {
		fmt.Fprintf(&sb, "r%d = ", in.Result)
	}
	sb.WriteString(in.Kind.String())
	if in.Name != "" {
		fmt.Fprintf(&sb, " %q", in.Name)
	}
	if in.Var != nil {
		fmt.Fprintf(&sb, " %s", in.Var.Name())
	}
	if in.List != nil {
		fmt.Fprintf(&sb, " %s", in.List.Name())
	}
	for _, a := range in.Args {
		fmt.Fprintf(&sb, " r%d", a.Reg)
		if a.Type != Unknown {
			fmt.Fprintf(&sb, ":%s", a.Type)
		}
	}
	return sb.String()
}
