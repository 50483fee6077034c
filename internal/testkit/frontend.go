package testkit

import (
	"testing"

	"keel/internal/ast"
	"keel/internal/layout"
	"keel/internal/lower"
	"keel/internal/parser"
	"keel/internal/qualify"
	"keel/internal/sizer"
	"keel/internal/source"
	"keel/internal/symbols"
	"keel/internal/typecheck"
	"keel/internal/typepass"
)

// Typed parses, qualifies and type-checks src, failing tb on any error.
// Span invariants of the parsed file are checked on the way.
func Typed(tb testing.TB, src string) *typecheck.Program {
	tb.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.kl", []byte(src))
	b := ast.NewBuilder(ast.Hints{})
	table := symbols.NewTable(symbols.Hints{}, nil)
	file, err := parser.ParseFile(fs.Get(id), b, table.Strings, parser.Options{})
	if err != nil {
		tb.Fatalf("parse: %v", err)
	}
	if err := CheckSpanInvariants(b, file, fs.Get(id)); err != nil {
		tb.Fatalf("spans: %v", err)
	}
	q, err := qualify.File(b, file, table, symbols.NewTagSource(1))
	if err != nil {
		tb.Fatalf("qualify: %v", err)
	}
	if err := table.Validate(); err != nil {
		tb.Fatalf("symbols: %v", err)
	}
	prog, err := typecheck.Check(q)
	if err != nil {
		tb.Fatalf("typecheck: %v", err)
	}
	return prog
}

// Sized runs Typed, type passing and the sizer for the 64-bit target.
func Sized(tb testing.TB, src string) *sizer.Program {
	tb.Helper()
	tp, builders := typepass.Pass(Typed(tb, src))
	prog, err := sizer.Measure(tp, builders, layout.X86_64LinuxGNU())
	if err != nil {
		tb.Fatalf("sizer: %v", err)
	}
	return prog
}

// Lowered runs Sized and lowering; the result is validated.
func Lowered(tb testing.TB, src string) *lower.Program {
	tb.Helper()
	prog, err := lower.Lower(Sized(tb, src))
	if err != nil {
		tb.Fatalf("lower: %v", err)
	}
	if err := lower.Validate(prog); err != nil {
		tb.Fatalf("validate: %v", err)
	}
	return prog
}
