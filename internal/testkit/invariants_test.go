package testkit

import (
	"strings"
	"testing"

	"keel/internal/ast"
	"keel/internal/parser"
	"keel/internal/source"
	"keel/internal/symbols"
)

const spanSource = `struct Box[a] { v: a }
func wrap[t](x: t): Box[t] = { let y = x; Box { v: y } }
func pick(c: Bool, p: Box[F64]): F64 = case p of { Box { v: w } => if c then w else 1 }
func adder(k: F64): (F64) -> F64 = |y: F64| y + k
`

func parsed(t *testing.T) (*ast.Builder, ast.FileID, *source.File) {
	t.Helper()
	fs := source.NewFileSet()
	sf := fs.Get(fs.AddVirtual("spans.kl", []byte(spanSource)))
	b := ast.NewBuilder(ast.Hints{})
	table := symbols.NewTable(symbols.Hints{}, nil)
	file, err := parser.ParseFile(sf, b, table.Strings, parser.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return b, file, sf
}

func body(b *ast.Builder, file ast.FileID, n int) (*ast.Item, *ast.FuncData) {
	id := b.Files.Get(file).Items[n]
	fn, _ := b.Items.Func(id)
	return b.Items.Get(id), fn
}

func TestSpanInvariantsHold(t *testing.T) {
	b, file, sf := parsed(t)
	if err := CheckSpanInvariants(b, file, sf); err != nil {
		t.Fatalf("spans: %v", err)
	}
}

func TestSpanInvariantsCatchEscapes(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b *ast.Builder, file ast.FileID)
		want   string
	}{
		{"body past its function", func(b *ast.Builder, file ast.FileID) {
			item, fn := body(b, file, 1)
			b.Exprs.Get(fn.Body).Span.End = item.Span.End + 1
		}, "expression Block"},
		{"struct literal field", func(b *ast.Builder, file ast.FileID) {
			_, fn := body(b, file, 1)
			blk, _ := b.Exprs.Block(fn.Body)
			lit, _ := b.Exprs.StructLiteral(blk.Result)
			lit.Fields[0].Span.Start = 0
		}, "field initializer"},
		{"case arm pattern", func(b *ast.Builder, file ast.FileID) {
			_, fn := body(b, file, 2)
			c, _ := b.Exprs.Case(fn.Body)
			b.Patterns.Get(c.Arms[0].Pattern).Span.End = c.Arms[0].Span.End + 1
		}, "pattern"},
		{"closure param", func(b *ast.Builder, file ast.FileID) {
			_, fn := body(b, file, 3)
			cl, _ := b.Exprs.Closure(fn.Body)
			cl.Params[0].Span = source.Span{}
		}, "param"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, file, sf := parsed(t)
			tt.mutate(b, file)
			err := CheckSpanInvariants(b, file, sf)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}
