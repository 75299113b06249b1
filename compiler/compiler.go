// Package compiler runs the compile pipeline for block scripts: structure
// validation, type analysis, lowering and Go emission, with analysis
// results cached by script content hash.
package compiler

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/tliron/commonlog"

	"github.com/chazu/blockjit/analyzer"
	"github.com/chazu/blockjit/cache"
	"github.com/chazu/blockjit/codegen"
	"github.com/chazu/blockjit/compiler/hash"
	"github.com/chazu/blockjit/ir"
)

var log = commonlog.GetLogger("blockjit.compiler")

// Options controls a compile.
type Options struct {
	Analysis analyzer.Options
	Codegen  codegen.Options
	// Package is the package clause of emitted Go.
	Package string
}

// DefaultOptions returns the settings used when no configuration is given.
func DefaultOptions() Options {
	return Options{
		Analysis: analyzer.DefaultOptions(),
		Codegen:  codegen.Options{Analysis: analyzer.DefaultOptions()},
		Package:  "scripts",
	}
}

// Result is one compiled script.
type Result struct {
	Script      *ir.Script
	Hash        hash.Sum
	Annotations *analyzer.Annotations
	Plan        *codegen.Plan
	// Cached reports that the annotations came from the cache.
	Cached bool

	pkg string
}

// EmitGo renders the compiled script as Go.
func (r *Result) EmitGo() ([]byte, error) {
	return r.Plan.EmitGo(r.pkg, FuncName(r.Script.Name))
}

// ---------------------------------------------------------------------------
// Compiler
// ---------------------------------------------------------------------------

// Compiler compiles scripts. It is safe for concurrent use when its cache is.
type Compiler struct {
	opts  Options
	cache *cache.Cache
	code  *analyzer.CodeAnalyzer
}

// New creates a compiler. c may be nil to disable caching.
func New(opts Options, c *cache.Cache) *Compiler {
	if opts.Analysis == (analyzer.Options{}) {
		opts.Analysis = analyzer.DefaultOptions()
	}
	opts.Analysis.EmptyReads = true
	opts.Codegen.Analysis = opts.Analysis
	if opts.Package == "" {
		opts.Package = "scripts"
	}
	return &Compiler{opts: opts, cache: c, code: analyzer.NewCodeAnalyzer(opts.Analysis)}
}

// settings are the options a cached analysis depends on.
type settings struct {
	Fold      bool `cbor:"1,keyasint"`
	MaxPasses int  `cbor:"2,keyasint"`
	Variables bool `cbor:"3,keyasint"`
	Lists     bool `cbor:"4,keyasint"`
	Empty     bool `cbor:"5,keyasint"`
}

// Compile validates, analyzes and plans one script.
func (c *Compiler) Compile(script *ir.Script) (*Result, error) {
	return c.compile(script, c.opts.Codegen)
}

// CompileWarp is Compile with warp forced on when warp is set, for scripts
// that declare themselves warp.
func (c *Compiler) CompileWarp(script *ir.Script, warp bool) (*Result, error) {
	opts := c.opts.Codegen
	opts.Warp = opts.Warp || warp
	return c.compile(script, opts)
}

func (c *Compiler) compile(script *ir.Script, opts codegen.Options) (*Result, error) {
	if _, err := script.Structure(); err != nil {
		return nil, fmt.Errorf("compiling %q: %w", script.Name, err)
	}

	sum, normal, err := hash.HashScript(script)
	if err != nil {
		return nil, fmt.Errorf("compiling %q: %w", script.Name, err)
	}
	res := &Result{Script: script, Hash: sum, pkg: c.opts.Package}

	key, err := hash.Key(sum, settings{
		Fold:      c.opts.Analysis.FoldNumericStrings,
		MaxPasses: c.opts.Analysis.MaxLoopPasses,
		Variables: c.opts.Analysis.Variables,
		Lists:     c.opts.Analysis.Lists,
		Empty:     c.opts.Analysis.EmptyReads,
	})
	if err != nil {
		return nil, fmt.Errorf("compiling %q: %w", script.Name, err)
	}

	if c.cache != nil {
		if e, ok := c.cache.Get(key); ok {
			if ann, ok := fromEntry(e, normal, c.opts.Analysis.EmptyReads); ok {
				res.Annotations, res.Cached = ann, true
				log.Debugf("script %q: cached analysis %s", script.Name, sum)
			}
		}
	}
	if res.Annotations == nil {
		res.Annotations = c.code.AnalyzeScript(script)
		if c.cache != nil {
			if err := c.cache.Put(toEntry(key, normal, res.Annotations)); err != nil {
				log.Warningf("script %q: caching analysis: %v", script.Name, err)
			}
		}
	}

	res.Plan = codegen.NewPlan(script, res.Annotations, opts)
	s := res.Plan.Stats()
	log.Infof("script %q: %d specialized, %d generic, %d carried", script.Name, s.Specialized, s.Generic, s.Carried)
	return res, nil
}

// CompileAll compiles scripts in order, stopping at the first error.
func (c *Compiler) CompileAll(scripts []*ir.Script) ([]*Result, error) {
	out := make([]*Result, 0, len(scripts))
	for _, s := range scripts {
		r, err := c.Compile(s)
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
	return out, nil
}

// FuncName turns a script name into an exported Go identifier.
func FuncName(name string) string {
	var sb strings.Builder
	upper := true
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		sb.WriteRune(r)
	}
	out := sb.String()
	if out == "" || !unicode.IsLetter([]rune(out)[0]) {
		out = "Script" + out
	}
	return out
}
