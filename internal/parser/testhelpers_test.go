package parser

import (
	"fmt"
	"strings"
	"testing"

	"keel/internal/ast"
	"keel/internal/diag"
	"keel/internal/source"
)

type parsed struct {
	builder *ast.Builder
	strings *source.Interner
	file    ast.FileID
	bag     *diag.Bag
}

func parseSource(t *testing.T, src string) (parsed, error) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.kl", []byte(src))
	bag := diag.NewBag(16)
	res := parsed{builder: ast.NewBuilder(ast.Hints{}), strings: source.NewInterner(), bag: bag}
	file, err := ParseFile(fs.Get(id), res.builder, res.strings, Options{Reporter: &diag.BagReporter{Bag: bag}})
	res.file = file
	return res, err
}

func mustParse(t *testing.T, src string) parsed {
	t.Helper()
	res, err := parseSource(t, src)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if res.bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(res.bag))
	}
	return res
}

func (r parsed) items() []ast.ItemID {
	return r.builder.Files.Get(r.file).Items
}

func (r parsed) dump(t *testing.T) string {
	t.Helper()
	var sb strings.Builder
	if err := ast.Dump(&sb, r.builder, r.file, r.strings); err != nil {
		t.Fatalf("dump: %v", err)
	}
	return sb.String()
}

func diagnosticsSummary(bag *diag.Bag) string {
	if bag == nil {
		return "<nil bag>"
	}
	diags := bag.Items()
	if len(diags) == 0 {
		return "<none>"
	}
	lines := make([]string, len(diags))
	for i, d := range diags {
		lines[i] = fmt.Sprintf("[%s] %s", d.Code.ID(), d.Message)
	}
	return strings.Join(lines, "; ")
}
