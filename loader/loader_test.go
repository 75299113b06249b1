package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/chazu/blockjit/ir"
	"github.com/chazu/blockjit/vm"
)

func fixtures(t *testing.T) *txtar.Archive {
	t.Helper()
	ar, err := txtar.ParseFile(filepath.Join("testdata", "scripts.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	return ar
}

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	for _, f := range fixtures(t).Files {
		if f.Name == name {
			return f.Data
		}
	}
	t.Fatalf("no fixture %s", name)
	return nil
}

func TestFixtures(t *testing.T) {
	for _, f := range fixtures(t).Files {
		t.Run(f.Name, func(t *testing.T) {
			scripts, err := Parse(f.Data, f.Name)
			switch {
			case strings.HasPrefix(f.Name, "ok/"):
				if err != nil {
					t.Fatalf("Parse: %v", err)
				}
				if len(scripts) == 0 {
					t.Fatal("no scripts")
				}
			case strings.HasPrefix(f.Name, "err/"):
				want := strings.TrimSpace(strings.TrimPrefix(strings.SplitN(string(f.Data), "\n", 2)[0], "//"))
				if err == nil {
					t.Fatalf("Parse succeeded, want error containing %q", want)
				}
				if !errors.Is(err, ErrInvalidDocument) {
					t.Errorf("error %v does not wrap ErrInvalidDocument", err)
				}
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error %q does not mention %q", err, want)
				}
			}
		})
	}
}

func TestUnbalancedWrapsStructureError(t *testing.T) {
	_, err := Parse(fixture(t, "err/unbalanced.cue"), "unbalanced.cue")
	if !errors.Is(err, ir.ErrUnbalanced) {
		t.Errorf("err = %v, want ir.ErrUnbalanced", err)
	}
}

func TestSumRuns(t *testing.T) {
	scripts, err := Parse(fixture(t, "ok/sum.cue"), "sum.cue")
	if err != nil {
		t.Fatal(err)
	}
	s := scripts[0]
	if s.Name != "sum" || len(s.Variables) != 2 {
		t.Fatalf("got script %q with %d variables", s.Name, len(s.Variables))
	}
	if s.Variables[0].ID() != "v-sum" {
		t.Errorf("sum id = %q", s.Variables[0].ID())
	}

	it, err := vm.NewInterpreter(s.Script)
	if err != nil {
		t.Fatal(err)
	}
	env := vm.NewEnv()
	if err := it.Run(context.Background(), env); err != nil {
		t.Fatal(err)
	}
	if got := env.Var("v-sum").ToNumber(); got != 55 {
		t.Errorf("sum = %v, want 55", got)
	}
	if env.Yields() != 10 {
		t.Errorf("yields = %d, want 10", env.Yields())
	}
}

func TestJSONDocument(t *testing.T) {
	scripts, err := Parse(fixture(t, "ok/json.json"), "json.json")
	if err != nil {
		t.Fatal(err)
	}
	s := scripts[0]
	if !s.Warp {
		t.Error("warp not decoded")
	}
	if len(s.Lists) != 1 || s.Lists[0].ID() == "" {
		t.Fatalf("lists = %v", s.Lists)
	}

	var call *ir.Instruction
	for in := range s.Walk() {
		if in.Kind == ir.FunctionCall {
			call = in
		}
	}
	if call == nil || call.Name != "username" || call.Returns != ir.String {
		t.Fatalf("call = %v", call)
	}

	it, err := vm.NewInterpreter(s.Script)
	if err != nil {
		t.Fatal(err)
	}
	it.Warp = true
	env := vm.NewEnv()
	if err := it.Run(context.Background(), env); err != nil {
		t.Fatal(err)
	}
	items := env.List(s.Lists[0].ID())
	if items.Len() != 4 {
		t.Errorf("log = %v, want 4 items", items)
	}
	if got := items.Item(1).ToString(); got != "hi " {
		t.Errorf("first item = %q", got)
	}
	if env.Yields() != 0 {
		t.Errorf("warp run yielded %d times", env.Yields())
	}
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"ok/sum.cue", "ok/json.json"} {
		p := filepath.Join(dir, filepath.Base(name))
		if err := os.WriteFile(p, fixture(t, name), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	scripts, err := LoadFiles(paths)
	if err != nil {
		t.Fatal(err)
	}
	if len(scripts) != 2 || scripts[0].Name != "sum" || scripts[1].Name != "greet" {
		t.Errorf("loaded %d scripts", len(scripts))
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.cue")); err == nil {
		t.Error("LoadFile of a missing file succeeded")
	}
}
