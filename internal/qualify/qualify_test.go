package qualify

import (
	"errors"
	"testing"

	"keel/internal/ast"
	"keel/internal/parser"
	"keel/internal/source"
	"keel/internal/symbols"
)

func qualifySource(t *testing.T, src string) (*Program, *symbols.Table, error) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.kl", []byte(src))
	b := ast.NewBuilder(ast.Hints{})
	table := symbols.NewTable(symbols.Hints{}, nil)
	file, err := parser.ParseFile(fs.Get(id), b, table.Strings, parser.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	prog, err := File(b, file, table, symbols.NewTagSource(1))
	return prog, table, err
}

func mustQualify(t *testing.T, src string) (*Program, *symbols.Table) {
	t.Helper()
	prog, table, err := qualifySource(t, src)
	if err != nil {
		t.Fatalf("qualify: %v", err)
	}
	if err := table.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	return prog, table
}

func wantKind(t *testing.T, err error, kind ErrorKind) *Error {
	t.Helper()
	var qe *Error
	if !errors.As(err, &qe) {
		t.Fatalf("expected *qualify.Error, got %v", err)
	}
	if qe.Kind != kind {
		t.Fatalf("kind = %s, want %s (%v)", qe.Kind, kind, qe)
	}
	return qe
}

// declaredTags collects the tags of every declaration in prog.
func declaredTags(prog *Program) []symbols.Tag {
	var tags []symbols.Tag
	var pattern func(p *Pattern)
	pattern = func(p *Pattern) {
		if p.Kind == PatternVariable {
			tags = append(tags, p.Name.Tag)
			return
		}
		for _, f := range p.Fields {
			pattern(f.Pattern)
		}
	}
	var expr func(e *Expr)
	expr = func(e *Expr) {
		switch d := e.Data.(type) {
		case CallData:
			expr(d.Callee)
			for _, a := range d.Args {
				expr(a)
			}
		case OperationData:
			expr(d.Left)
			expr(d.Right)
		case StructLiteralData:
			for _, f := range d.Fields {
				expr(f.Value)
			}
		case BlockData:
			for _, l := range d.Lets {
				pattern(l.Pattern)
				expr(l.Value)
			}
			expr(d.Result)
		case AnnotatedData:
			expr(d.Value)
		case CaseData:
			expr(d.Scrutinee)
			for _, a := range d.Arms {
				pattern(a.Pattern)
				expr(a.Body)
			}
		case IfData:
			expr(d.Cond)
			expr(d.Then)
			expr(d.Else)
		case ClosureData:
			for _, p := range d.Params {
				pattern(p.Pattern)
			}
			expr(d.Body)
		}
	}
	for _, s := range prog.Structs {
		tags = append(tags, s.Name.Tag)
		for _, g := range s.Generics {
			tags = append(tags, g.Tag)
		}
		for _, f := range s.Fields {
			tags = append(tags, f.Name.Tag)
		}
	}
	for _, fn := range prog.Functions {
		tags = append(tags, fn.Name.Tag)
		for _, g := range fn.Generics {
			tags = append(tags, g.Tag)
		}
		for _, p := range fn.Params {
			pattern(p.Pattern)
		}
		expr(fn.Body)
	}
	return tags
}

func TestTagUniqueness(t *testing.T) {
	src := `
struct Pair[a] { x: a, y: a }
func swap[a](p: Pair[a]): Pair[a] = case p of { Pair { x, y } => Pair { x: y, y: x } }
func id[a](x: a): a = x
func main(): F64 = { let x = 1; let x = x + 1; let f = |y: F64| y * x; f(x) }
`
	prog, _ := mustQualify(t, src)
	seen := map[symbols.Tag]bool{}
	for _, tag := range declaredTags(prog) {
		if seen[tag] {
			t.Fatalf("tag %s assigned twice", tag)
		}
		if tag.IsBuiltin() {
			t.Fatalf("user declaration got built-in tag %s", tag)
		}
		seen[tag] = true
	}
	if len(seen) < 14 {
		t.Fatalf("expected at least 14 declarations, got %d", len(seen))
	}
}

func TestStructLiteralExactness(t *testing.T) {
	const decl = "struct Point { x: F64, y: F64 }\n"
	tests := []struct {
		name    string
		body    string
		wantErr ErrorKind
	}{
		{name: "exact", body: "Point { x: 1, y: 2 }"},
		{name: "exact reordered", body: "Point { y: 2, x: 1 }"},
		{name: "missing", body: "Point { x: 1 }", wantErr: ErrMissingField},
		{name: "extra", body: "Point { x: 1, y: 2, z: 3 }", wantErr: ErrExtraField},
		{name: "unknown struct", body: "Pointy { x: 1 }", wantErr: ErrUndefinedStruct},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := qualifySource(t, decl+"func f(): Point = "+tt.body)
			if tt.wantErr == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			qe := wantKind(t, err, tt.wantErr)
			if tt.wantErr != ErrUndefinedStruct && len(qe.Fields) != 2 {
				t.Errorf("error must carry the declared field list, got %v", qe.Fields)
			}
		})
	}
}

func TestStructPatternExactness(t *testing.T) {
	const decl = "struct Point { x: F64, y: F64 }\n"
	_, _, err := qualifySource(t, decl+"func f(p: Point): F64 = case p of { Point { x } => x }")
	qe := wantKind(t, err, ErrPatternMissingField)
	if qe.Name != "y" {
		t.Errorf("missing field = %q, want y", qe.Name)
	}
	_, _, err = qualifySource(t, decl+"func f(Point { x, y, w }: Point): F64 = x")
	wantKind(t, err, ErrExtraField)
}

func TestUndefinedNames(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind ErrorKind
		what string
	}{
		{"variable", "func f(): F64 = z", ErrUndefinedVariable, "z"},
		{"type", "func f(x: Float): F64 = 1", ErrUndefinedType, "Float"},
		{"generic out of scope", "func f[a](x: a): b = x", ErrUndefinedType, "b"},
		{"let not visible in own value", "func f(): F64 = { let q = q; q }", ErrUndefinedVariable, "q"},
		{"arm binding not visible after case", "func f(p: F64): F64 = (case p of { v => v }) + v", ErrUndefinedVariable, "v"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := qualifySource(t, tt.src)
			qe := wantKind(t, err, tt.kind)
			if qe.Name != tt.what {
				t.Errorf("name = %q, want %q", qe.Name, tt.what)
			}
		})
	}
}

func TestDuplicateDefinitions(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"functions", "func f(): F64 = 1\nfunc f(): F64 = 2"},
		{"structs", "struct S { a: F64 }\nstruct S { b: F64 }"},
		{"fields", "struct S { a: F64, a: Bool }"},
		{"generics", "func f[a, a](x: a): a = x"},
		{"params", "func f(x: F64, x: F64): F64 = x"},
		{"literal field", "struct S { a: F64 }\nfunc f(): S = S { a: 1, a: 2 }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := qualifySource(t, tt.src)
			wantKind(t, err, ErrDuplicateDefinition)
		})
	}
}

func TestForwardReferenceAndShadowing(t *testing.T) {
	prog, _ := mustQualify(t, `
func f(): F64 = g()
func g(): F64 = { let x = 1; let x = x + 1; x }
`)
	call := prog.Functions[0].Body.Data.(CallData)
	callee := call.Callee.Data.(VariableData).Name
	if callee.Name != "g" || callee.Tag != prog.Functions[1].Name.Tag || callee.Mangle() != "g" {
		t.Fatalf("forward reference resolved to %+v", callee)
	}

	blk := prog.Functions[1].Body.Data.(BlockData)
	first := blk.Lets[0].Pattern.Name.Tag
	second := blk.Lets[1].Pattern.Name.Tag
	inner := blk.Lets[1].Value.Data.(OperationData).Left.Data.(VariableData).Name.Tag
	result := blk.Result.Data.(VariableData).Name.Tag
	if inner != first {
		t.Errorf("right-hand side must see the first x")
	}
	if result != second || first == second {
		t.Errorf("block result must see the second x")
	}
}

func TestTypeKinds(t *testing.T) {
	prog, _ := mustQualify(t, "struct Box[t] { v: t }\nfunc f[a](b: Box[a], g: (a) -> F64): Bool = True")
	params := prog.Functions[0].Params
	box := params[0].Type
	if box.Kind != TypeNamed || box.Name.Name != "Box" || len(box.Args) != 1 || box.Args[0].Kind != TypeGeneric {
		t.Fatalf("unexpected Box[a]: %s", TypeString(box))
	}
	fn := params[1].Type
	if fn.Kind != TypeFunction || fn.Result.Name.Tag != symbols.TagF64 {
		t.Fatalf("unexpected function type: %s", TypeString(fn))
	}
	if res := prog.Functions[0].Result; res.Name.Tag != symbols.TagBool {
		t.Fatalf("Bool must resolve to the built-in tag, got %s", res.Name.Tag)
	}
}
