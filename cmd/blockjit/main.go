// blockjit compiles block scripts: it analyzes their types, plans unboxed
// code, emits Go and can run scripts on the reference interpreter.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/blockjit/cache"
	"github.com/chazu/blockjit/compiler"
	"github.com/chazu/blockjit/loader"
	"github.com/chazu/blockjit/manifest"
	"github.com/chazu/blockjit/vm"
)

type config struct {
	dir       string
	verbosity int
	plan      bool
	emit      bool
	out       string
	run       bool
	noCache   bool
	purge     bool
	maxSteps  int
	paths     []string
}

func main() {
	cfg, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	if err := run(cfg, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags reads the command line into a config. Usage and flag errors
// go to stderr.
func parseFlags(args []string, stderr io.Writer) (config, error) {
	var cfg config
	fs := flag.NewFlagSet("blockjit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.dir, "config", ".", "Project directory to search for blockjit.toml")
	fs.IntVar(&cfg.verbosity, "v", -1, "Log verbosity (overrides [log] verbosity)")
	fs.BoolVar(&cfg.plan, "plan", false, "Print each script's lowering plan")
	fs.BoolVar(&cfg.emit, "emit", false, "Write generated Go for each script")
	fs.StringVar(&cfg.out, "o", "", "Output directory for -emit (overrides [codegen] output)")
	fs.BoolVar(&cfg.run, "run", false, "Run each script on the interpreter and print its state")
	fs.BoolVar(&cfg.noCache, "no-cache", false, "Do not read or write the analysis cache")
	fs.BoolVar(&cfg.purge, "purge-cache", false, "Empty the analysis cache before compiling")
	fs.IntVar(&cfg.maxSteps, "max-steps", 10_000_000, "Instruction limit per -run (0 is unbounded)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: blockjit [options] [script files...]\n\n")
		fmt.Fprintf(stderr, "Compiles block scripts. Without files, the scripts globs of blockjit.toml are used.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  blockjit -plan game.cue       # Show what gets specialized\n")
		fmt.Fprintf(stderr, "  blockjit -emit -o gen         # Emit Go for every project script\n")
		fmt.Fprintf(stderr, "  blockjit -run -v 2 game.cue   # Interpret with debug logging\n")
	}
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	cfg.paths = fs.Args()
	return cfg, nil
}

func run(cfg config, stdout io.Writer) error {
	m, err := manifest.FindAndLoad(cfg.dir)
	if err != nil {
		return err
	}
	if m == nil {
		dir, err := filepath.Abs(cfg.dir)
		if err != nil {
			return err
		}
		m = manifest.Default(dir)
	}

	verbosity := m.Log.Verbosity
	if cfg.verbosity >= 0 {
		verbosity = cfg.verbosity
	}
	commonlog.Configure(verbosity, nil)

	paths := cfg.paths
	if len(paths) == 0 {
		if paths, err = m.ScriptPaths(); err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("no script files given and none match %v in %s", m.Project.Scripts, m.Dir)
		}
	}

	scripts, err := loader.LoadFiles(paths)
	if err != nil {
		return err
	}

	c, closeCache, err := openCache(m, cfg, stdout)
	if err != nil {
		return err
	}
	defer closeCache()

	comp := compiler.New(m.CompilerOptions(), c)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	outDir := m.OutputDir()
	if cfg.out != "" {
		outDir = cfg.out
	}

	for _, s := range scripts {
		res, err := comp.CompileWarp(s.Script, s.Warp)
		if err != nil {
			return err
		}
		st := res.Plan.Stats()
		cached := ""
		if res.Cached {
			cached = " (cached)"
		}
		fmt.Fprintf(stdout, "%s %s: %d specialized, %d generic, %d carried%s\n",
			res.Hash.String()[:12], s.Name, st.Specialized, st.Generic, st.Carried, cached)

		if cfg.plan {
			fmt.Fprint(stdout, res.Plan.String())
		}
		if cfg.emit {
			if err := emit(res, outDir, stdout); err != nil {
				return err
			}
		}
		if cfg.run {
			if err := interpret(ctx, s, cfg.maxSteps, stdout); err != nil {
				return err
			}
		}
	}

	if c != nil {
		hits, misses := c.Stats()
		commonlog.GetLogger("blockjit").Infof("analysis cache: %d hits, %d misses", hits, misses)
	}
	return nil
}

func openCache(m *manifest.Manifest, cfg config, stdout io.Writer) (*cache.Cache, func(), error) {
	path := m.CachePath()
	if cfg.noCache || path == "" {
		return nil, func() {}, nil
	}
	store, err := cache.OpenSQLite(path)
	if err != nil {
		return nil, nil, err
	}
	if cfg.purge {
		n, err := store.Purge()
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		fmt.Fprintf(stdout, "purged %d cache entries\n", n)
	}
	return cache.New(store), func() { store.Close() }, nil
}

func emit(res *compiler.Result, dir string, stdout io.Writer) error {
	src, err := res.EmitGo()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	name := strings.ToLower(compiler.FuncName(res.Script.Name)) + ".go"
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, src, 0644); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "  wrote %s\n", path)
	return nil
}

func interpret(ctx context.Context, s *loader.Script, maxSteps int, stdout io.Writer) error {
	it, err := vm.NewInterpreter(s.Script)
	if err != nil {
		return err
	}
	it.Warp = s.Warp
	it.MaxSteps = maxSteps

	env := vm.NewEnv()
	if err := it.Run(ctx, env); err != nil {
		return err
	}
	for _, v := range s.Variables {
		fmt.Fprintf(stdout, "  %s = %s\n", v.Name(), env.Var(v.ID()).ToString())
	}
	for _, l := range s.Lists {
		fmt.Fprintf(stdout, "  %s = %s\n", l.Name(), env.List(l.ID()))
	}
	fmt.Fprintf(stdout, "  %d yields\n", env.Yields())
	return nil
}
