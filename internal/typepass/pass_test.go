package typepass_test

import (
	"strings"
	"testing"

	"keel/internal/testkit"
	"keel/internal/typecheck"
	"keel/internal/typepass"
)

func pass(t *testing.T, src string) (*typepass.Program, typepass.StructBuilders) {
	t.Helper()
	return typepass.Pass(testkit.Typed(t, src))
}

func function(t *testing.T, prog *typepass.Program, name string) *typepass.Function {
	t.Helper()
	for _, fn := range prog.Functions {
		if fn.Name.Name == name {
			return fn
		}
	}
	t.Fatalf("function %s not found", name)
	return nil
}

func argSummary(fn *typepass.Function) string {
	parts := make([]string, len(fn.Arguments))
	for i, a := range fn.Arguments {
		parts[i] = a.Convention.String() + " " + a.Name.Name + ": " + a.Type.String()
	}
	return strings.Join(parts, ", ")
}

func TestGenericFunctionArguments(t *testing.T) {
	prog, _ := pass(t, "func id[t](x: t): t = x")
	fn := function(t, prog, "id")
	if got, want := argSummary(fn), "out _result: t, in x: t, in t: Type"; got != want {
		t.Fatalf("arguments = %q, want %q", got, want)
	}
	if fn.Body.Kind != typepass.ExprVariable {
		t.Fatalf("body = %s", fn.Body.Kind)
	}
}

func TestCallAppendsWitnesses(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		witness string
	}{
		{"named", "func id[t](x: t): t = x\nfunc g(): F64 = id(1)", "F64()"},
		{"application", "struct Box[a] { v: a }\nfunc id[t](x: t): t = x\nfunc g(): Box[Bool] = id(Box { v: True })", "Box(Bool())"},
		{"function", "func id[t](x: t): t = x\nfunc g(): (F64) -> Bool = id(|y: F64| y < 1)", "1function(F64(), Bool())"},
		{"generic", "func id[t](x: t): t = x\nfunc g[u](y: u): u = id(y)", "u"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, _ := pass(t, tt.src)
			call, ok := function(t, prog, "g").Body.Data.(typepass.CallDirectData)
			if !ok || len(call.Args) != 2 {
				t.Fatalf("body is not a two-argument call")
			}
			w := call.Args[1]
			if w.Type.String() != "Type" {
				t.Fatalf("witness type = %s", w.Type)
			}
			if got := witnessString(w); got != tt.witness {
				t.Fatalf("witness = %s, want %s", got, tt.witness)
			}
		})
	}
}

func witnessString(e *typepass.Expr) string {
	switch d := e.Data.(type) {
	case typepass.VariableData:
		return d.Name.Name
	case typepass.CallDirectData:
		args := make([]string, len(d.Args))
		for i, a := range d.Args {
			args[i] = witnessString(a)
		}
		return d.Function.Name + "(" + strings.Join(args, ", ") + ")"
	}
	return "?"
}

func TestStructBuilders(t *testing.T) {
	prog, builders := pass(t, "struct Pair[a] { x: a, y: F64 }")
	if len(prog.Structs) != 1 {
		t.Fatalf("structs = %d", len(prog.Structs))
	}
	b := builders[prog.Structs[0].Name.Tag]
	if b == nil {
		t.Fatal("no builder registered")
	}
	if len(b.Arguments) != 1 || b.Arguments[0].Name != "a" {
		t.Fatalf("builder arguments = %v", b.Arguments)
	}
	if got := witnessString(b.Fields[0]) + " " + witnessString(b.Fields[1]); got != "a F64()" {
		t.Fatalf("field witnesses = %s", got)
	}
}

func TestStructPatternsBecomeUnpacks(t *testing.T) {
	prog, _ := pass(t, `
struct P { a: F64, b: F64 }
struct Q { p: P }
func f(P { a, b: q }: P): F64 = a + q
func g(x: Q): F64 = { let Q { p: P { a, b } } = x; b }
`)
	f := function(t, prog, "f")
	if got := argSummary(f); got != "out _result: F64, in _p0: P" {
		t.Fatalf("arguments = %q", got)
	}
	block := f.Body.Data.(typepass.BlockData)
	if len(block.Lets) != 2 || block.Lets[1].Name.Name != "q" {
		t.Fatalf("lets = %d", len(block.Lets))
	}
	un := block.Lets[1].Value.Data.(typepass.UnpackData)
	if un.Field != "b" {
		t.Fatalf("q unpacks %s", un.Field)
	}

	g := function(t, prog, "g").Body.Data.(typepass.BlockData)
	var names []string
	for _, l := range g.Lets {
		names = append(names, l.Name.Name+":"+l.Type.String())
	}
	if got := strings.Join(names, " "); got != "_p1:Q _p2:P a:F64 b:F64" {
		t.Fatalf("lets = %s", got)
	}
}

func TestClosureEnvironment(t *testing.T) {
	prog, builders := pass(t, "func f[t](x: t, k: F64): (F64) -> t = |y: F64| { let z = y + k; x }")
	body := function(t, prog, "f").Body
	c, ok := body.Data.(typepass.ClosureData)
	if !ok {
		t.Fatalf("body = %s", body.Kind)
	}
	if len(c.TypeCaptures) != 1 || c.TypeCaptures[0].Name != "t" {
		t.Fatalf("type captures = %v", c.TypeCaptures)
	}
	if len(c.Captures) != 2 || c.Captures[0].Name.Name != "k" || c.Captures[1].Name.Name != "x" {
		t.Fatalf("captures = %v", c.Captures)
	}
	if c.Result.String() != "t" {
		t.Fatalf("result = %s", c.Result)
	}
	env := c.Env
	if len(env.Fields) != 3 || env.Fields[0].Type.String() != "Type" || env.Fields[2].Type.Kind != typecheck.TypeGeneric {
		t.Fatalf("env fields = %v", env.Fields)
	}
	if builders[env.Name.Tag] == nil || prog.Structs[len(prog.Structs)-1] != env {
		t.Fatal("environment struct not registered")
	}
}

func TestDump(t *testing.T) {
	prog, builders := pass(t, "struct B[a] { v: a }\nfunc id[t](x: t): t = x\nfunc g(): F64 = id(1)")
	var sb strings.Builder
	if err := typepass.Dump(&sb, prog, builders); err != nil {
		t.Fatal(err)
	}
	out := sb.String()
	for _, want := range []string{"builder(a_", "out _result: t", "CallDirect F64 : Type"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}
