// Package manifest handles blockjit.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/chazu/blockjit/analyzer"
	"github.com/chazu/blockjit/codegen"
	"github.com/chazu/blockjit/compiler"
)

// FileName is the manifest file looked for in a project directory.
const FileName = "blockjit.toml"

// Manifest represents a blockjit.toml project configuration.
type Manifest struct {
	Project  Project  `toml:"project"`
	Analysis Analysis `toml:"analysis"`
	Codegen  Codegen  `toml:"codegen"`
	Cache    Cache    `toml:"cache"`
	Log      Log      `toml:"log"`

	// Dir is the directory containing the blockjit.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project names the project and its script documents.
type Project struct {
	Name string `toml:"name"`
	// Scripts are glob patterns relative to Dir.
	Scripts []string `toml:"scripts"`
}

// Analysis configures type analysis.
type Analysis struct {
	FoldNumericStrings bool `toml:"fold-numeric-strings"`
	MaxLoopPasses      int  `toml:"max-loop-passes"`
}

// Codegen configures Go emission.
type Codegen struct {
	Package string `toml:"package"`
	Warp    bool   `toml:"warp"`
	Unbox   bool   `toml:"unbox"`
	Output  string `toml:"output"`
}

// Cache configures the analysis cache.
type Cache struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Log configures logging.
type Log struct {
	Verbosity int `toml:"verbosity"`
}

// Default returns the configuration used when no manifest exists.
func Default(dir string) *Manifest {
	return &Manifest{
		Project: Project{Scripts: []string{"scripts/*.cue", "scripts/*.json"}},
		Analysis: Analysis{
			FoldNumericStrings: true,
			MaxLoopPasses:      analyzer.DefaultMaxLoopPasses,
		},
		Codegen: Codegen{Package: "scripts", Unbox: true, Output: "gen"},
		Cache:   Cache{Enabled: true, Path: filepath.Join(".blockjit", "cache.db")},
		Dir:     dir,
	}
}

// Load parses a blockjit.toml file from the given directory. Keys the file
// leaves out keep their Default values.
func Load(dir string) (*Manifest, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	path := filepath.Join(abs, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m := Default(abs)
	md, err := toml.Decode(string(data), m)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	if m.Analysis.MaxLoopPasses <= 0 {
		return nil, fmt.Errorf("%s: analysis.max-loop-passes must be positive", path)
	}
	if m.Codegen.Package == "" {
		m.Codegen.Package = "scripts"
	}
	return m, nil
}

// FindAndLoad walks up from startDir to find a blockjit.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return Load(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// ScriptPaths expands the script globs, sorted and without duplicates.
func (m *Manifest) ScriptPaths() ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range m.Project.Scripts {
		matches, err := filepath.Glob(m.resolve(pattern))
		if err != nil {
			return nil, fmt.Errorf("bad script pattern %q: %w", pattern, err)
		}
		for _, p := range matches {
			if !seen[p] {
				seen[p] = true
				paths = append(paths, p)
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// CachePath is the absolute path of the cache database, or "" when caching
// is disabled.
func (m *Manifest) CachePath() string {
	if !m.Cache.Enabled || m.Cache.Path == "" {
		return ""
	}
	return m.resolve(m.Cache.Path)
}

// OutputDir is the absolute directory emitted Go files are written to.
func (m *Manifest) OutputDir() string {
	return m.resolve(m.Codegen.Output)
}

// CompilerOptions maps the manifest onto compiler settings.
func (m *Manifest) CompilerOptions() compiler.Options {
	a := analyzer.DefaultOptions()
	a.FoldNumericStrings = m.Analysis.FoldNumericStrings
	a.MaxLoopPasses = m.Analysis.MaxLoopPasses
	return compiler.Options{
		Analysis: a,
		Codegen: codegen.Options{
			Warp:     m.Codegen.Warp,
			NoUnbox:  !m.Codegen.Unbox,
			Analysis: a,
		},
		Package: m.Codegen.Package,
	}
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}
