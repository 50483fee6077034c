package symbols

import (
	"testing"

	"keel/internal/source"
)

func TestPreludeIsBuiltin(t *testing.T) {
	table := NewTable(Hints{}, nil)
	res := NewResolver(table, NewTagSource(1), source.Span{})
	for _, name := range []string{"F64", "Bool"} {
		id, ok := res.LookupType(table.Strings.Intern(name))
		if !ok {
			t.Fatalf("%s is not visible", name)
		}
		if ident := table.Identifier(id); !ident.Tag.IsBuiltin() || ident.Mangle() != name {
			t.Errorf("%s: identifier %+v", name, ident)
		}
	}
	if _, ok := res.LookupType(table.Strings.Intern("Type")); ok {
		t.Errorf("Type must not be visible to user code")
	}
}

func TestResolverLifecycle(t *testing.T) {
	table := NewTable(Hints{}, nil)
	res := NewResolver(table, NewTagSource(1), source.Span{})
	scope := res.Enter(ScopeFunction, source.Span{})

	name := table.Strings.Intern("value")
	if _, ok := res.DefineVariable(name, source.Span{}, SymbolParam); !ok {
		t.Fatalf("declare returned false")
	}
	if _, ok := res.DefineVariable(name, source.Span{}, SymbolParam); ok {
		t.Fatalf("duplicate parameter accepted")
	}
	if err := table.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	res.Leave(scope)
	if _, ok := res.LookupVariable(name); ok {
		t.Fatalf("parameter visible after leaving its scope")
	}
}

func TestShadowingAndNamespaces(t *testing.T) {
	table := NewTable(Hints{}, nil)
	res := NewResolver(table, NewTagSource(1), source.Span{})
	x := table.Strings.Intern("x")

	outer, _ := res.DefineVariable(x, source.Span{}, SymbolLet)
	block := res.Enter(ScopeBlock, source.Span{})
	inner, _ := res.DefineVariable(x, source.Span{}, SymbolLet)
	if got, _ := res.LookupVariable(x); got != inner {
		t.Fatalf("inner binding must shadow outer")
	}
	again, ok := res.DefineVariable(x, source.Span{}, SymbolLet)
	if !ok {
		t.Fatalf("let rebinding rejected")
	}
	if got, _ := res.LookupVariable(x); got != again {
		t.Fatalf("latest let must win")
	}
	res.Leave(block)
	if got, _ := res.LookupVariable(x); got != outer {
		t.Fatalf("outer binding lost")
	}

	// имя типа и имя переменной не конфликтуют
	if _, ok := res.DefineType(x, source.Span{}); !ok {
		t.Fatalf("generic named like a variable rejected")
	}
	if err := table.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestMangle(t *testing.T) {
	tests := []struct {
		id   Identifier
		want string
	}{
		{Identifier{Tag: Tag{Module: 1, Key: 7}, Name: "x"}, "x_7"},
		{Identifier{Tag: Tag{Module: 1, Key: 3}, Name: "main", Global: true}, "main"},
		{Identifier{Tag: TagF64, Name: "F64"}, "F64"},
	}
	for _, tt := range tests {
		if got := tt.id.Mangle(); got != tt.want {
			t.Errorf("Mangle(%+v) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestTagSourceUnique(t *testing.T) {
	src := NewTagSource(2)
	seen := map[Tag]bool{}
	for range 100 {
		tag := src.Fresh()
		if seen[tag] || tag.Module != 2 {
			t.Fatalf("bad tag %v", tag)
		}
		seen[tag] = true
	}
}
