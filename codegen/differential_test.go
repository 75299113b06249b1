package codegen

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/chazu/blockjit/analyzer"
	"github.com/chazu/blockjit/ir"
	"github.com/chazu/blockjit/value"
	"github.com/chazu/blockjit/vm"
)

// runCase is one script executed both by the interpreter and as generated
// Go. When hook is set, every yield sets that variable to 100.
type runCase struct {
	name  string
	warp  bool
	hook  *ir.Variable
	vars  []*ir.Variable
	lists []*ir.List
	b     *ir.Builder
}

// describe renders a value so that values every conversion treats alike
// compare equal: canonical numeric strings read as numbers.
func describe(v value.Value) string {
	s := v.ToString()
	if v.IsString() && !value.IsCanonicalNumber(s) {
		return strconv.Quote(s)
	}
	return s
}

func snapshot(env *vm.Env, c runCase) string {
	var parts []string
	for _, v := range c.vars {
		parts = append(parts, v.ID()+"="+describe(env.Var(v.ID())))
	}
	for _, l := range c.lists {
		var items []string
		for _, it := range env.List(l.ID()).Items() {
			items = append(items, describe(it))
		}
		parts = append(parts, l.ID()+"=["+strings.Join(items, ",")+"]")
	}
	parts = append(parts, fmt.Sprintf("yields=%d", env.Yields()))
	return strings.Join(parts, " ")
}

// mainSrc drives the generated functions and prints snapshot lines in the
// same format as snapshot.
const mainSrc = `package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/blockjit/value"
	"github.com/chazu/blockjit/vm"
)

func describe(v value.Value) string {
	s := v.ToString()
	if v.IsString() && !value.IsCanonicalNumber(s) {
		return strconv.Quote(s)
	}
	return s
}

func run(name string, f func(*vm.Env), hook string, vars, lists []string) {
	env := vm.NewEnv()
	if hook != "" {
		env.OnYield = func() { env.SetVar(hook, value.FromNumber(100)) }
	}
	f(env)
	var parts []string
	for _, id := range vars {
		parts = append(parts, id+"="+describe(env.Var(id)))
	}
	for _, id := range lists {
		var items []string
		for _, it := range env.List(id).Items() {
			items = append(items, describe(it))
		}
		parts = append(parts, id+"=["+strings.Join(items, ",")+"]")
	}
	parts = append(parts, fmt.Sprintf("yields=%d", env.Yields()))
	fmt.Println(name + " " + strings.Join(parts, " "))
}

func main() {
%s}
`

func runCases() []runCase {
	var cases []runCase

	// A read past the end of a numeric list yields "".
	{
		b := ir.NewBuilder("oor")
		l := ir.NewList("L", "L")
		v := ir.NewVariable("v", "v")
		w := ir.NewVariable("w", "w")
		m := ir.NewVariable("m", "m")
		b.ClearList(l)
		b.AppendToList(l, b.Number(1))
		get := b.GetListItem(l, b.Number(5))
		b.WriteVariable(v, b.Op(ir.Join, get.Result, b.Text("x")).Result)
		b.WriteVariable(w, get.Result)
		first := b.GetListItem(l, b.Number(1))
		b.WriteVariable(m, b.Op(ir.Add, first.Result, b.Number(1)).Result)
		b.AppendToList(l, get.Result)
		cases = append(cases, runCase{name: "oor", b: b, vars: []*ir.Variable{v, w, m}, lists: []*ir.List{l}})
	}

	// Out-of-range reads feeding a loop variable.
	{
		b := ir.NewBuilder("oor-loop")
		l := ir.NewList("L", "L")
		w := ir.NewVariable("w", "w")
		x := ir.NewVariable("x", "x")
		b.ClearList(l)
		b.AppendToList(l, b.Number(2))
		b.WriteVariable(w, b.Number(0))
		b.BeginRepeatLoop(b.Number(3))
		b.WriteVariable(w, b.GetListItem(l, b.Op(ir.Add, b.GetListSize(l).Result, b.Number(1)).Result).Result)
		b.AppendToList(l, b.Number(3))
		b.EndLoop()
		b.WriteVariable(x, b.Op(ir.Join, b.ReadVariable(w).Result, b.Text("y")).Result)
		cases = append(cases, runCase{name: "oorloop", b: b, vars: []*ir.Variable{w, x}, lists: []*ir.List{l}})
	}

	// A carried variable written by another script during a yield.
	{
		b := ir.NewBuilder("yield-hook")
		w := ir.NewVariable("w", "w")
		b.WriteVariable(w, b.Number(0))
		b.BeginRepeatLoop(b.Number(3))
		b.WriteVariable(w, b.Op(ir.Add, b.ReadVariable(w).Result, b.Number(1)).Result)
		b.EndLoop()
		cases = append(cases, runCase{name: "hook", b: b, hook: w, vars: []*ir.Variable{w}})
	}

	// Nested loops with carried counters, a hook on the inner one's
	// variable and a condition loop.
	sum := func(name string, warp bool) runCase {
		b := ir.NewBuilder(name)
		s := ir.NewVariable("s", "s")
		i := ir.NewVariable("i", "i")
		n := ir.NewVariable("n", "n")
		l := ir.NewList("sq", "sq")
		b.ClearList(l)
		b.WriteVariable(s, b.Number(0))
		b.WriteVariable(i, b.Number(0))
		b.BeginRepeatLoop(b.Number(4.5))
		b.WriteVariable(i, b.Op(ir.Add, b.ReadVariable(i).Result, b.Number(1)).Result)
		b.WriteVariable(n, b.Number(0))
		b.BeginLoopCondition()
		c := b.Op(ir.LessThan, b.ReadVariable(n).Result, b.ReadVariable(i).Result)
		b.BeginWhileLoop(c.Result)
		b.WriteVariable(n, b.Op(ir.Add, b.ReadVariable(n).Result, b.Number(1)).Result)
		b.WriteVariable(s, b.Op(ir.Add, b.ReadVariable(s).Result, b.ReadVariable(n).Result).Result)
		b.EndLoop()
		ri := b.ReadVariable(i).Result
		b.AppendToList(l, b.Op(ir.Multiply, ri, ri).Result)
		b.EndLoop()
		return runCase{name: strings.ReplaceAll(name, "-", ""), warp: warp, b: b, hook: n,
			vars: []*ir.Variable{s, i, n}, lists: []*ir.List{l}}
	}
	cases = append(cases, sum("sum", false), sum("sum-warp", true))

	// Strings, folding, comparisons and every list mutation.
	{
		b := ir.NewBuilder("strings")
		v := ir.NewVariable("v", "v")
		t := ir.NewVariable("t", "t")
		f := ir.NewVariable("f", "f")
		l := ir.NewList("L", "L")
		b.WriteVariable(v, b.Text("3.14"))
		b.WriteVariable(v, b.Op(ir.Add, b.ReadVariable(v).Result, b.Number(1)).Result)
		b.WriteVariable(t, b.Op(ir.GreaterThan, b.Text("10"), b.Number(9)).Result)
		b.ClearList(l)
		b.AppendToList(l, b.Text("a"))
		b.AppendToList(l, b.Bool(true))
		b.InsertToList(l, b.Number(1), b.Text("1.0"))
		b.ListReplace(l, b.Number(3), b.Number(7))
		b.BeginLoopCondition()
		full := b.Op(ir.GreaterThan, b.GetListSize(l).Result, b.Number(5))
		b.BeginRepeatUntilLoop(full.Result)
		b.AppendToList(l, b.Op(ir.Join, b.GetListItem(l, b.Number(1)).Result, b.ReadVariable(v).Result).Result)
		b.EndLoop()
		b.RemoveListItem(l, b.Number(2))
		eq := b.Op(ir.Equals, b.GetListItem(l, b.Number(1)).Result, b.Text("1.0"))
		b.BeginIf(eq.Result)
		b.WriteVariable(f, b.Call("missing", ir.Number).Result)
		b.BeginElse()
		b.WriteVariable(f, b.Text("else"))
		b.EndIf()
		cases = append(cases, runCase{name: "strings", b: b, vars: []*ir.Variable{v, t, f}, lists: []*ir.List{l}})
	}
	return cases
}

func interpretCase(t *testing.T, c runCase) string {
	t.Helper()
	it, err := vm.NewInterpreter(c.b.Script())
	if err != nil {
		t.Fatal(err)
	}
	it.Warp = c.warp
	env := vm.NewEnv()
	if c.hook != nil {
		id := c.hook.ID()
		env.OnYield = func() { env.SetVar(id, value.FromNumber(100)) }
	}
	if err := it.Run(context.Background(), env); err != nil {
		t.Fatal(err)
	}
	return snapshot(env, c)
}

func TestGeneratedCodeMatchesInterpreter(t *testing.T) {
	if testing.Short() {
		t.Skip("builds and runs generated code")
	}
	goBin, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go tool not found")
	}

	// The package lives inside this module so it builds against the
	// module's own requirements.
	dir, err := os.MkdirTemp(".", "generated")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	cases := runCases()
	want := make(map[string]string)
	var calls strings.Builder
	for i, c := range cases {
		want[c.name] = interpretCase(t, c)

		ann := analyzer.NewCodeAnalyzer(analyzer.DefaultOptions()).AnalyzeScript(c.b.Script())
		fn := fmt.Sprintf("Case%d", i)
		src, err := NewPlan(c.b.Script(), ann, Options{Warp: c.warp}).EmitGo("main", fn)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, strings.ToLower(fn)+".go"), src, 0644); err != nil {
			t.Fatal(err)
		}

		hook := ""
		if c.hook != nil {
			hook = c.hook.ID()
		}
		var vars, lists []string
		for _, v := range c.vars {
			vars = append(vars, strconv.Quote(v.ID()))
		}
		for _, l := range c.lists {
			lists = append(lists, strconv.Quote(l.ID()))
		}
		fmt.Fprintf(&calls, "\trun(%q, %s, %q, []string{%s}, []string{%s})\n",
			c.name, fn, hook, strings.Join(vars, ", "), strings.Join(lists, ", "))
	}
	main := fmt.Sprintf(mainSrc, calls.String())
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte(main), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := exec.Command(goBin, "run", "./"+filepath.Base(dir))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("running generated code: %v\n%s", err, stderr.String())
	}

	got := make(map[string]string)
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		name, rest, _ := strings.Cut(sc.Text(), " ")
		got[name] = rest
	}
	for _, c := range cases {
		if got[c.name] != want[c.name] {
			t.Errorf("%s:\n  generated   %s\n  interpreted %s", c.name, got[c.name], want[c.name])
		}
	}
}
