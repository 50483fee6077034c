package typecheck

import (
	"errors"
	"strings"
	"testing"

	"keel/internal/ast"
	"keel/internal/parser"
	"keel/internal/qualify"
	"keel/internal/source"
	"keel/internal/symbols"
)

func checkSource(t *testing.T, src string) (*Program, error) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.kl", []byte(src))
	b := ast.NewBuilder(ast.Hints{})
	table := symbols.NewTable(symbols.Hints{}, nil)
	file, err := parser.ParseFile(fs.Get(id), b, table.Strings, parser.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q, err := qualify.File(b, file, table, symbols.NewTagSource(1))
	if err != nil {
		t.Fatalf("qualify: %v", err)
	}
	return Check(q)
}

func mustCheck(t *testing.T, src string) *Program {
	t.Helper()
	prog, err := checkSource(t, src)
	if err != nil {
		t.Fatalf("typecheck: %v", err)
	}
	return prog
}

func wantError(t *testing.T, src string, kind ErrorKind) *Error {
	t.Helper()
	prog, err := checkSource(t, src)
	if prog != nil {
		t.Fatalf("expected no typed output on failure")
	}
	var te *Error
	if !errors.As(err, &te) {
		t.Fatalf("expected *typecheck.Error, got %v", err)
	}
	if te.Kind != kind {
		t.Fatalf("kind = %s, want %s (%v)", te.Kind, kind, te)
	}
	return te
}

func function(t *testing.T, prog *Program, name string) *Function {
	t.Helper()
	for _, fn := range prog.Functions {
		if fn.Name.Name == name {
			return fn
		}
	}
	t.Fatalf("function %s not found", name)
	return nil
}

func TestLiteralFunction(t *testing.T) {
	prog := mustCheck(t, "func literal(): F64 = 3")
	body := function(t, prog, "literal").Body
	if body.Kind != ExprLiteral || body.Type.String() != "F64" {
		t.Fatalf("body = %s : %s", body.Kind, body.Type)
	}
}

func TestArrowTypes(t *testing.T) {
	prog := mustCheck(t, "func adder(k: F64): (F64) -> F64 = |y: F64| y + k")
	fn := function(t, prog, "adder")
	if got := fn.Body.Type.String(); got != "(F64) -> F64" {
		t.Fatalf("closure type = %s", got)
	}
	if got := Arrow([]*Type{F64(), Bool()}, F64()).String(); got != "(F64, Bool) -> F64" {
		t.Fatalf("arrow = %s", got)
	}
}

func TestTypeMismatch(t *testing.T) {
	te := wantError(t, `
func f(x: F64): F64 = x
func g(): F64 = f(True)
`, ErrTypeMismatch)
	if te.Expected.String() != "F64" || te.Found.String() != "Bool" {
		t.Fatalf("mismatch = %s/%s, want F64/Bool", te.Expected, te.Found)
	}
	if te.Definition != "g" {
		t.Fatalf("definition = %q", te.Definition)
	}
}

func TestMismatchCases(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected string
		found    string
	}{
		{"if predicate", "func g(): F64 = if 1 then 2 else 3", "Bool", "F64"},
		{"if branches", "func g(): F64 = if True then 2 else False", "F64", "Bool"},
		{"operation operand", "func g(): F64 = 1 + True", "F64", "Bool"},
		{"comparison result", "func g(): F64 = 1 < 2", "F64", "Bool"},
		{"annotation", "func g(): F64 = (True : F64)", "F64", "Bool"},
		{"struct field", "struct P { a: F64 }\nfunc g(): P = P { a: False }", "F64", "Bool"},
		{"closure argument", "func g(): F64 = { let k = |x: F64| x; k(True) }", "F64", "Bool"},
		{"case arms", "struct P { a: F64, b: Bool }\nfunc f(p: P): F64 = case p of { P { a, b } => a; P { a, b } => b }", "F64", "Bool"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := wantError(t, tt.src, ErrTypeMismatch)
			if te.Expected.String() != tt.expected || te.Found.String() != tt.found {
				t.Fatalf("mismatch = %s/%s, want %s/%s", te.Expected, te.Found, tt.expected, tt.found)
			}
		})
	}
}

func TestGenericTypeMismatch(t *testing.T) {
	te := wantError(t, `
func pick[a](x: a, y: a): a = x
func g(): F64 = pick(1, True)
`, ErrGenericTypeMismatch)
	if te.Name != "a" || te.First.String() != "F64" || te.Second.String() != "Bool" {
		t.Fatalf("got %s: %s vs %s", te.Name, te.First, te.Second)
	}
}

func TestUnspecifiedGeneric(t *testing.T) {
	te := wantError(t, `
func ignore[a](x: F64): F64 = x
func g(): F64 = ignore(1)
`, ErrUnspecifiedGeneric)
	if te.Name != "a" || te.Definition != "g" {
		t.Fatalf("got %q in %q", te.Name, te.Definition)
	}
}

func TestUnknownAndArity(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind ErrorKind
	}{
		{"function as value", "func h(): F64 = 1\nfunc g(): F64 = { let k = h; 1 }", ErrUnknownVariable},
		{"call a number", "func g(x: F64): F64 = x(1)", ErrUnknownFunction},
		{"direct arity", "func f(x: F64): F64 = x\nfunc g(): F64 = f(1, 2)", ErrArityMismatch},
		{"closure arity", "func g(): F64 = { let k = |x: F64| x; k() }", ErrArityMismatch},
		{"struct arity", "struct Box[t] { v: t }\nfunc g(b: Box): F64 = 1", ErrArityMismatch},
		{"primitive arity", "func g(b: F64[Bool]): F64 = 1", ErrArityMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantError(t, tt.src, tt.kind)
		})
	}
}

func TestGenericInstantiation(t *testing.T) {
	prog := mustCheck(t, `
struct Box[t] { v: t }
func id[t](x: t): t = x
func g(): Box[F64] = Box { v: id(2) }
`)
	body := function(t, prog, "g").Body
	lit, ok := body.Data.(StructLiteralData)
	if !ok {
		t.Fatalf("body = %s", body.Kind)
	}
	if body.Type.String() != "Box[F64]" || len(lit.Args) != 1 || lit.Args[0].String() != "F64" {
		t.Fatalf("literal type = %s", body.Type)
	}
	call := lit.Fields[0].Value.Data.(CallDirectData)
	if len(call.Generics) != 1 || call.Generics[0].Kind != TypeNamed {
		t.Fatalf("generics = %v", call.Generics)
	}
	assertZonked(t, prog)
}

func TestStructLiteralDeclarationOrder(t *testing.T) {
	prog := mustCheck(t, `
struct P { a: F64, b: Bool }
func g(): P = P { b: True, a: 1 }
`)
	lit := function(t, prog, "g").Body.Data.(StructLiteralData)
	if lit.Fields[0].Name != "a" || lit.Fields[1].Name != "b" {
		t.Fatalf("fields = %s, %s", lit.Fields[0].Name, lit.Fields[1].Name)
	}
}

func TestClosureCaptures(t *testing.T) {
	prog := mustCheck(t, `
func f(y: F64, z: F64): F64 = {
  let k = |x: F64| { let w = x + z; let g = |u: F64| u * z + y; w + y + g(1) };
  k(1)
}
`)
	block := function(t, prog, "f").Body.Data.(BlockData)
	closure := block.Lets[0].Value
	if closure.Type.String() != "(F64) -> F64" {
		t.Fatalf("closure type = %s", closure.Type)
	}
	caps := closure.Data.(ClosureData).Captures
	var names []string
	for _, c := range caps {
		names = append(names, c.Name.Name)
	}
	if got := strings.Join(names, ","); got != "z,y" {
		t.Fatalf("captures = %s, want z,y", got)
	}
	if block.Result.Kind != ExprCallClosure {
		t.Fatalf("result = %s", block.Result.Kind)
	}
}

func TestCaseBindsFirstArm(t *testing.T) {
	prog := mustCheck(t, `
struct P { a: F64, b: Bool }
func f(p: P): F64 = case p of { P { a, b } => a; P { a: x, b: y } => x }
`)
	body := function(t, prog, "f").Body
	block, ok := body.Data.(BlockData)
	if !ok || len(block.Lets) != 1 {
		t.Fatalf("case not rewritten: %s", body.Kind)
	}
	pat := block.Lets[0].Pattern
	if pat.Kind != PatternStruct || len(pat.Fields) != 2 || pat.Fields[1].Pattern.Type.String() != "Bool" {
		t.Fatalf("pattern = %s", PatternString(pat))
	}
	if v := block.Result.Data.(VariableData); v.Name.Name != "a" {
		t.Fatalf("result reads %s", v.Name.Name)
	}
}

func TestAnnotationErased(t *testing.T) {
	prog := mustCheck(t, "func g(): F64 = (1 : F64)")
	if k := function(t, prog, "g").Body.Kind; k != ExprLiteral {
		t.Fatalf("body = %s", k)
	}
}

func TestDump(t *testing.T) {
	prog := mustCheck(t, "func id[t](x: t): t = x\nfunc g(): F64 = id(1)")
	var sb strings.Builder
	if err := Dump(&sb, prog); err != nil {
		t.Fatal(err)
	}
	out := sb.String()
	for _, want := range []string{"func id[t](x_", "CallDirect id[F64] : F64", "Literal 1 : F64"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}

func assertZonked(t *testing.T, prog *Program) {
	t.Helper()
	var typ func(ty *Type)
	typ = func(ty *Type) {
		if ty == nil {
			return
		}
		if ty.Kind == TypeUnification {
			t.Fatalf("cell survived: %s", ty)
		}
		for _, a := range ty.Args {
			typ(a)
		}
		typ(ty.Result)
	}
	var expr func(e *Expr)
	expr = func(e *Expr) {
		typ(e.Type)
		switch d := e.Data.(type) {
		case CallDirectData:
			for _, g := range d.Generics {
				typ(g)
			}
			for _, a := range d.Args {
				expr(a)
			}
		case StructLiteralData:
			for _, a := range d.Args {
				typ(a)
			}
			for _, f := range d.Fields {
				expr(f.Value)
			}
		}
	}
	for _, fn := range prog.Functions {
		expr(fn.Body)
	}
}
