package refcount_test

import (
	"errors"
	"strings"
	"testing"

	"keel/internal/lower"
	"keel/internal/refcount"
	"keel/internal/sizer"
	"keel/internal/testkit"
	"keel/internal/typepass"
)

func counted(t *testing.T, src, name string) *lower.Function {
	t.Helper()
	prog := testkit.Lowered(t, src)
	for _, fn := range prog.Functions {
		if fn.Name != name {
			continue
		}
		out, err := refcount.Function(fn)
		if err != nil {
			t.Fatalf("refcount %s: %v", name, err)
		}
		if err := testkit.CheckDestroys(out); err != nil {
			t.Fatal(err)
		}
		return out
	}
	t.Fatalf("function %s not found", name)
	return nil
}

func kinds(b lower.Block) string {
	parts := make([]string, len(b.Instrs))
	for i, in := range b.Instrs {
		parts[i] = in.Kind.String()
	}
	return strings.Join(parts, " ")
}

func TestNothingToDestroy(t *testing.T) {
	tests := []struct {
		name string
		src  string
		fn   string
		want string
	}{
		{"literal", "func literal(): F64 = 3", "literal", "Set"},
		{"identity", "func id[t](x: t): t = x", "id", "Copy"},
		{"trivial let", "func f(x: F64): F64 = { let y = x + 1; y }", "f", "Set Primitive Move"},
		{"trivial if", "func f(c: Bool, x: F64): F64 = if c then x else 2", "f", "If"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := counted(t, tt.src, tt.fn)
			if got := kinds(fn.Body); got != tt.want {
				t.Fatalf("body = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestValueBeforeWitness(t *testing.T) {
	fn := counted(t, `struct Box[a] { v: a }
func unbox[t](b: Box[t]): t = { let Box { v } = b; v }`, "unbox")
	if got := kinds(fn.Body); got != "CallDirect Copy Unpack Destroy Destroy Move" {
		t.Fatalf("body = %s", got)
	}
	value, witness := fn.Body.Instrs[3].Destroy.Var, fn.Body.Instrs[4].Destroy.Var
	if value.Witness.Location != witness {
		t.Fatalf("destroyed %s then %s", value.Name, witness.Name)
	}
}

func TestDeadWrite(t *testing.T) {
	fn := counted(t, "func f[t](x: t): F64 = { let a = x; 1 }", "f")
	if got := kinds(fn.Body); got != "Copy Destroy Set" {
		t.Fatalf("body = %s", got)
	}
	if d := fn.Body.Instrs[1].Destroy.Var; !strings.HasPrefix(d.Name, "a_") {
		t.Fatalf("destroyed %s, want a", d.Name)
	}
}

func TestHandedToBranches(t *testing.T) {
	fn := counted(t, "func pick[t](c: Bool, x: t, y: t): t = { let a = x; let b = y; if c then a else b }", "pick")
	if got := kinds(fn.Body); got != "Copy Copy If" {
		t.Fatalf("body = %s", got)
	}
	in := fn.Body.Instrs[2].If
	if kinds(in.Then) != "Destroy Move" || kinds(in.Else) != "Destroy Move" {
		t.Fatalf("branches = %q / %q", kinds(in.Then), kinds(in.Else))
	}
	if d := in.Then.Instrs[0].Destroy.Var; !strings.HasPrefix(d.Name, "b_") {
		t.Fatalf("then destroys %s, want b", d.Name)
	}
	if d := in.Else.Instrs[0].Destroy.Var; !strings.HasPrefix(d.Name, "a_") {
		t.Fatalf("else destroys %s, want a", d.Name)
	}
}

func TestClosureWitnessTemporaries(t *testing.T) {
	src := "func adder(k: F64): (F64) -> F64 = |y: F64| y + k"
	fn := counted(t, src, "adder")
	if got := kinds(fn.Body); got != "CallDirect CallDirect CallDirect Destroy Destroy Pack MakeClosure Destroy" {
		t.Fatalf("adder body = %s", got)
	}
	if last := fn.Body.Instrs[len(fn.Body.Instrs)-1].Destroy.Var; fn.Arguments[0].Var.Witness.Location != last {
		t.Fatalf("last destroy %s is not the result witness", last.Name)
	}
	lifted := counted(t, src, "_closure_0")
	if got := kinds(lifted.Body); got != "Unpack Primitive" {
		t.Fatalf("lifted body = %s", got)
	}
}

func TestCapturedWitnessOutlivesValue(t *testing.T) {
	fn := counted(t, "func konst[t](x: t): (F64) -> t = |y: F64| x", "_closure_0")
	if got := kinds(fn.Body); got != "Unpack Unpack Move Destroy" {
		t.Fatalf("lifted body = %s", got)
	}
	if fn.Body.Instrs[3].Destroy.Var != fn.Body.Instrs[0].Unpack.Dst {
		t.Fatalf("destroyed %s", fn.Body.Instrs[3].Destroy.Var.Name)
	}
	counted(t, "func konst[t](x: t): (F64) -> t = |y: F64| x", "konst")
}

func TestProgramKeepsInput(t *testing.T) {
	prog := testkit.Lowered(t, "func f[t](x: t): F64 = { let a = x; 1 }")
	before := kinds(prog.Functions[0].Body)
	out, err := refcount.Program(prog)
	if err != nil {
		t.Fatalf("Program: %v", err)
	}
	if kinds(prog.Functions[0].Body) != before {
		t.Fatalf("input body changed to %s", kinds(prog.Functions[0].Body))
	}
	if kinds(out.Functions[0].Body) == before {
		t.Fatalf("output body has no destroys")
	}
	if err := lower.Validate(out); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func trivial(name string) *lower.Variable {
	return &lower.Variable{
		Name:    name,
		Witness: lower.Witness{Kind: sizer.WitnessTrivial, Size: 8},
		Size:    lower.Size{Static: 8},
	}
}

func set(v *lower.Variable) lower.Instr {
	return lower.Instr{Kind: lower.InstrSet, Set: lower.SetInstr{Dst: v}}
}

func move(dst, src *lower.Variable) lower.Instr {
	return lower.Instr{Kind: lower.InstrMove, Move: lower.MoveInstr{Dst: dst, Src: src}}
}

func TestPreconditionErrors(t *testing.T) {
	result, a, b := trivial("_result"), trivial("a"), trivial("b")
	tests := []struct {
		name string
		body []lower.Instr
		want refcount.ErrorKind
		v    string
	}{
		{"write twice", []lower.Instr{set(result), set(result)}, refcount.ErrWriteTwice, "_result"},
		{"read before write", []lower.Instr{move(result, a)}, refcount.ErrReadBeforeWrite, "a"},
		{"use after move", []lower.Instr{set(a), move(b, a), move(result, a)}, refcount.ErrUseAfterMove, "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := &lower.Function{
				Name:      "f",
				Arguments: []lower.Argument{{Var: result, Convention: typepass.Out}},
				Body:      lower.Block{Instrs: tt.body},
			}
			_, err := refcount.Function(fn)
			var rerr *refcount.Error
			if !errors.As(err, &rerr) {
				t.Fatalf("err = %v, want *refcount.Error", err)
			}
			if rerr.Kind != tt.want || rerr.Variable != tt.v {
				t.Fatalf("got %s on %s, want %s on %s", rerr.Kind, rerr.Variable, tt.want, tt.v)
			}
		})
	}
}
