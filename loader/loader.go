// Package loader reads block scripts from CUE or JSON documents.
//
// A document is validated against an embedded CUE schema before it is
// decoded, then every script is built into an ir.Script through ir.Builder.
package loader

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/chazu/blockjit/ir"
)

// ErrInvalidDocument is returned for documents that fail the schema or
// describe an ill-formed script.
var ErrInvalidDocument = errors.New("invalid script document")

//go:embed schema.cue
var schemaSrc string

// Document is the decoded form of a script document.
type Document struct {
	Scripts []ScriptDoc `json:"scripts"`
}

// ScriptDoc describes one script.
type ScriptDoc struct {
	Name      string   `json:"name"`
	Warp      bool     `json:"warp,omitempty"`
	Variables []Entity `json:"variables,omitempty"`
	Lists     []Entity `json:"lists,omitempty"`
	Code      []Instr  `json:"code"`
}

// Entity declares a variable or list. An empty ID gets a fresh one.
type Entity struct {
	Name string `json:"name"`
	ID   string `json:"id,omitempty"`
}

// Instr is one instruction. Args are register references or literals; Out
// names the result register.
type Instr struct {
	Op      string    `json:"op"`
	Var     string    `json:"var,omitempty"`
	List    string    `json:"list,omitempty"`
	Args    []Operand `json:"args,omitempty"`
	Out     string    `json:"out,omitempty"`
	Name    string    `json:"name,omitempty"`
	Returns string    `json:"returns,omitempty"`
}

// Operand is exactly one of a register reference or a literal.
type Operand struct {
	Reg    *string  `json:"reg,omitempty"`
	Number *float64 `json:"number,omitempty"`
	Text   *string  `json:"text,omitempty"`
	Bool   *bool    `json:"bool,omitempty"`
}

// Script is a loaded script with its document-level settings.
type Script struct {
	*ir.Script
	Warp      bool
	Variables []*ir.Variable
	Lists     []*ir.List
}

// Decode validates data against the schema and decodes it.
func Decode(data []byte, filename string) (*Document, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString("close({" + schemaSrc + "})")
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDocument, cueerrors.Details(err, nil))
	}
	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDocument, cueerrors.Details(err, nil))
	}

	var doc Document
	if err := unified.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDocument, filename, err)
	}
	return &doc, nil
}

// Parse decodes a document and builds its scripts.
func Parse(data []byte, filename string) ([]*Script, error) {
	doc, err := Decode(data, filename)
	if err != nil {
		return nil, err
	}
	out := make([]*Script, 0, len(doc.Scripts))
	for _, sd := range doc.Scripts {
		s, err := Build(sd)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// LoadFile reads and parses a document file.
func LoadFile(path string) ([]*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(data, path)
}

// LoadFiles loads every document in order.
func LoadFiles(paths []string) ([]*Script, error) {
	var out []*Script
	for _, p := range paths {
		scripts, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, scripts...)
	}
	return out, nil
}
