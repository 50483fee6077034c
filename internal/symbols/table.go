package symbols

import (
	"fmt"

	"fortio.org/safecast"

	"keel/internal/source"
)

// Hints provide optional capacity suggestions for the symbol table arenas.
type Hints struct{ Scopes, Symbols uint }

// Table aggregates the scope and symbol arenas of one compilation unit.
// The global scope with built-ins is created eagerly.
type Table struct {
	Scopes  *Scopes
	Symbols *Symbols
	Strings *source.Interner
	Global  ScopeID
}

// NewTable builds a fresh table. If strings is nil, a fresh interner is allocated.
func NewTable(h Hints, strings *source.Interner) *Table {
	scopeCap, err := safecast.Conv[uint32](h.Scopes)
	if err != nil {
		panic(fmt.Errorf("scope capacity overflow: %w", err))
	}
	symCap, err := safecast.Conv[uint32](h.Symbols)
	if err != nil {
		panic(fmt.Errorf("symbol capacity overflow: %w", err))
	}
	if strings == nil {
		strings = source.NewInterner()
	}
	t := &Table{
		Scopes:  NewScopes(scopeCap),
		Symbols: NewSymbols(symCap),
		Strings: strings,
	}
	t.Global = t.Scopes.New(ScopeGlobal, NoScopeID, source.Span{})
	t.installPrelude()
	return t
}

// Identifier returns the tagged name of a symbol.
func (t *Table) Identifier(id SymbolID) Identifier {
	sym := t.Symbols.Get(id)
	if sym == nil {
		panic(fmt.Sprintf("symbols: unknown symbol %d", id))
	}
	return Identifier{Tag: sym.Tag, Name: t.Strings.MustLookup(sym.Name), Global: sym.IsGlobal()}
}

func (t *Table) add(scopeID ScopeID, sym Symbol) SymbolID {
	sym.Scope = scopeID
	id := t.Symbols.New(&sym)
	if scope := t.Scopes.Get(scopeID); scope != nil {
		scope.Symbols = append(scope.Symbols, id)
		scope.NameIndex[sym.Name] = append(scope.NameIndex[sym.Name], id)
	}
	return id
}
