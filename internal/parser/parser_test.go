package parser

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"keel/internal/ast"
	"keel/internal/diag"
)

func TestParseFunc_Signatures(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantName     string
		wantGenerics int
		wantParams   int
	}{
		{name: "literal", input: "func literal(): F64 = 3", wantName: "literal"},
		{name: "identity", input: "func id[t](x: t): t = x", wantName: "id", wantGenerics: 1, wantParams: 1},
		{name: "trailing comma", input: "func f(a: F64, b: F64,): F64 = a", wantName: "f", wantParams: 2},
		{name: "function type", input: "func ap[a, b](f: (a) -> b, x: a): b = f(x)", wantName: "ap", wantGenerics: 2, wantParams: 2},
		{name: "unicode name", input: "func café(): F64 = 1", wantName: "café"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustParse(t, tt.input)
			items := res.items()
			if len(items) != 1 {
				t.Fatalf("expected 1 item, got %d", len(items))
			}
			fn, ok := res.builder.Items.Func(items[0])
			if !ok {
				t.Fatalf("item is not a function")
			}
			if got := res.strings.MustLookup(fn.Name); got != tt.wantName {
				t.Errorf("name = %q, want %q", got, tt.wantName)
			}
			if len(fn.Generics) != tt.wantGenerics {
				t.Errorf("generics = %d, want %d", len(fn.Generics), tt.wantGenerics)
			}
			if len(fn.Params) != tt.wantParams {
				t.Errorf("params = %d, want %d", len(fn.Params), tt.wantParams)
			}
		})
	}
}

func TestParseStruct(t *testing.T) {
	res := mustParse(t, "struct Pair[t] { a: t, b: F64 }")
	st, ok := res.builder.Items.Struct(res.items()[0])
	if !ok {
		t.Fatalf("item is not a struct")
	}
	if len(st.Generics) != 1 || len(st.Fields) != 2 {
		t.Fatalf("generics=%d fields=%d", len(st.Generics), len(st.Fields))
	}
	typ := res.builder.Types.Get(st.Fields[0].Type)
	if typ.Kind != ast.TypeNamed || res.strings.MustLookup(typ.Name) != "t" {
		t.Errorf("unexpected first field type %+v", typ)
	}
}

func TestParseExpr_Shapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "precedence",
			input: "func f(a: F64): Bool = a + 2 * a < 1",
			want:  "Operation <\n    Operation +\n      Variable a\n      Operation *\n        Literal 2\n        Variable a\n    Literal 1\n",
		},
		{
			name:  "struct literal versus block",
			input: "func f(): F64 = { let b = Box { x: 1 }; b }",
			want:  "Block\n    let b =\n      StructLiteral Box\n        x:\n          Literal 1\n    Variable b\n",
		},
		{
			name:  "annotated group",
			input: "func f(): F64 = (3 : F64)",
			want:  "Annotated F64\n    Literal 3\n",
		},
		{
			name:  "case with shorthand pattern",
			input: "func f(p: Pair): F64 = case p of { Pair { a, b: c } => a; }",
			want:  "Case\n    Variable p\n    Pair { a: a, b: c } =>\n      Variable a\n",
		},
		{
			name:  "closure call",
			input: "func f(): F64 = (|x: F64| x)(1)",
			want:  "Call\n    Closure\n      param x: F64\n      Variable x\n    Literal 1\n",
		},
		{
			name:  "if",
			input: "func f(c: Bool): F64 = if c then 1 else 2",
			want:  "If\n    Variable c\n    Literal 1\n    Literal 2\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustParse(t, tt.input)
			out := res.dump(t)
			// тело функции идёт после заголовка и параметров
			idx := strings.Index(out, "  "+strings.SplitN(tt.want, "\n", 2)[0]+"\n")
			if idx < 0 {
				t.Fatalf("body not found in dump:\n%s", out)
			}
			if got := out[idx+2:]; got != tt.want {
				t.Errorf("dump mismatch\n got:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestParseErrors_Context(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantCode    diag.Code
		wantContext []string
	}{
		{
			name:        "missing return type",
			input:       "func f() = 3",
			wantCode:    diag.SynUnexpectedToken,
			wantContext: []string{"function definition"},
		},
		{
			name:        "bad let",
			input:       "func f(): F64 = { let = 3; 1 }",
			wantCode:    diag.SynExpectPattern,
			wantContext: []string{"function definition", "function body", "block", "let binding"},
		},
		{
			name:        "unclosed args",
			input:       "func f(): F64 = g(1 2)",
			wantCode:    diag.SynUnclosedDelimiter,
			wantContext: []string{"function definition", "function body", "call arguments"},
		},
		{
			name:        "top level junk",
			input:       "let x = 1",
			wantCode:    diag.SynExpectDefinition,
			wantContext: []string{"program"},
		},
		{
			name:        "bad field type",
			input:       "struct S { a: 3 }",
			wantCode:    diag.SynExpectType,
			wantContext: []string{"struct definition", "field list", "field"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseSource(t, tt.input)
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("expected *SyntaxError, got %v", err)
			}
			if se.Code != tt.wantCode {
				t.Errorf("code = %s, want %s (%v)", se.Code.ID(), tt.wantCode.ID(), se)
			}
			if !slices.Equal(se.Context, tt.wantContext) {
				t.Errorf("context = %v, want %v", se.Context, tt.wantContext)
			}
		})
	}
}

func TestParse_KeepsItemsBeforeError(t *testing.T) {
	res, err := parseSource(t, "func a(): F64 = 1\nfunc b(: F64 = 2")
	if err == nil {
		t.Fatal("expected error")
	}
	if len(res.items()) != 1 {
		t.Fatalf("expected first definition to survive, got %d items", len(res.items()))
	}
}
