package symbols

import (
	"fmt"

	"keel/internal/source"
)

// Resolver drives scope management and declaration/lookup routines for one module.
type Resolver struct {
	table *Table
	tags  *TagSource
	stack []ScopeID
}

// NewResolver opens the module scope under the global scope.
func NewResolver(table *Table, tags *TagSource, span source.Span) *Resolver {
	r := &Resolver{
		table: table,
		tags:  tags,
		stack: make([]ScopeID, 0, 8),
	}
	r.stack = append(r.stack, table.Global)
	r.Enter(ScopeModule, span)
	return r
}

func (r *Resolver) Table() *Table { return r.table }

// CurrentScope returns the scope at the top of the stack.
func (r *Resolver) CurrentScope() ScopeID {
	if len(r.stack) == 0 {
		return NoScopeID
	}
	return r.stack[len(r.stack)-1]
}

// Enter creates a child scope, pushes it onto the stack, and returns its ID.
func (r *Resolver) Enter(kind ScopeKind, span source.Span) ScopeID {
	scope := r.table.Scopes.New(kind, r.CurrentScope(), span)
	r.stack = append(r.stack, scope)
	return scope
}

// Leave pops the current scope. Закрытие чужой области: ошибка программиста.
func (r *Resolver) Leave(expected ScopeID) {
	if len(r.stack) == 0 {
		panic("symbols: Leave on empty scope stack")
	}
	top := r.stack[len(r.stack)-1]
	if expected.IsValid() && top != expected {
		panic(fmt.Sprintf("symbols: scope stack mismatch: closing %d while expecting %d", top, expected))
	}
	r.stack = r.stack[:len(r.stack)-1]
}

// Declare mints a fresh tag and installs a symbol into the current scope.
// On a conflicting name in the same scope and namespace it returns the
// previous symbol and false. `let` bindings may rebind a name.
func (r *Resolver) Declare(name source.StringID, span source.Span, kind SymbolKind) (SymbolID, bool) {
	scopeID := r.CurrentScope()
	scope := r.table.Scopes.Get(scopeID)
	if scope == nil {
		return NoSymbolID, false
	}
	if kind != SymbolLet {
		ns := namespaceOf(kind)
		for _, prev := range scope.NameIndex[name] {
			if sym := r.table.Symbols.Get(prev); sym != nil && matchKind(ns, sym.Kind) {
				return prev, false
			}
		}
	}
	id := r.table.add(scopeID, Symbol{Name: name, Kind: kind, Span: span, Tag: r.tags.Fresh()})
	return id, true
}

// DefineVariable declares a function, parameter or let binding.
func (r *Resolver) DefineVariable(name source.StringID, span source.Span, kind SymbolKind) (SymbolID, bool) {
	if !matchKind(MaskVariable, kind) {
		panic(fmt.Sprintf("symbols: %s is not a variable kind", kind))
	}
	return r.Declare(name, span, kind)
}

// DefineType declares a generic parameter.
func (r *Resolver) DefineType(name source.StringID, span source.Span) (SymbolID, bool) {
	return r.Declare(name, span, SymbolGeneric)
}

// DefineStruct declares a struct with its field names in declaration order.
func (r *Resolver) DefineStruct(name source.StringID, span source.Span, fields []source.StringID) (SymbolID, bool) {
	id, ok := r.Declare(name, span, SymbolStruct)
	if ok {
		r.table.Symbols.Get(id).Fields = fields
	}
	return id, ok
}

func (r *Resolver) LookupVariable(name source.StringID) (SymbolID, bool) {
	return r.LookupOne(name, MaskVariable)
}

func (r *Resolver) LookupType(name source.StringID) (SymbolID, bool) {
	return r.LookupOne(name, MaskType)
}

func (r *Resolver) LookupStruct(name source.StringID) (SymbolID, bool) {
	return r.LookupOne(name, MaskStruct)
}

// LookupOne finds the most recent symbol with matching name and kind mask,
// walking from the current scope to the global one.
func (r *Resolver) LookupOne(name source.StringID, mask KindMask) (SymbolID, bool) {
	if mask == KindMaskNone {
		return NoSymbolID, false
	}
	scopeID := r.CurrentScope()
	for scopeID.IsValid() {
		scope := r.table.Scopes.Get(scopeID)
		if scope == nil {
			break
		}
		ids := scope.NameIndex[name]
		for i := len(ids) - 1; i >= 0; i-- {
			if sym := r.table.Symbols.Get(ids[i]); sym != nil && matchKind(mask, sym.Kind) {
				return ids[i], true
			}
		}
		scopeID = scope.Parent
	}
	return NoSymbolID, false
}
