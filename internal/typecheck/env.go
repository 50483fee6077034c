package typecheck

import (
	"keel/internal/symbols"
)

// Scheme is the signature of a top-level function.
type Scheme struct {
	Name     symbols.Identifier
	Generics []symbols.Identifier
	Params   []*Type
	Result   *Type
}

// StructScheme describes a struct declaration.
type StructScheme struct {
	Name     symbols.Identifier
	Generics []symbols.Identifier
	Fields   []Field
}

// FieldType returns the declared type of the named field.
func (s *StructScheme) FieldType(name string) (*Type, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return nil, false
}

// Env holds everything visible while checking one definition. Locals are
// keyed by tag; tags never repeat, so no scope chain is needed.
type Env struct {
	vars     map[symbols.Tag]*Type
	funcs    map[symbols.Tag]*Scheme
	structs  map[symbols.Tag]*StructScheme
	generics map[symbols.Tag]bool
	nextCell int
	cells    []*Cell
}

func NewEnv() *Env {
	return &Env{
		vars:     make(map[symbols.Tag]*Type),
		funcs:    make(map[symbols.Tag]*Scheme),
		structs:  make(map[symbols.Tag]*StructScheme),
		generics: make(map[symbols.Tag]bool),
	}
}

func (e *Env) BindVariable(name symbols.Identifier, t *Type) {
	e.vars[name.Tag] = t
}

func (e *Env) Variable(name symbols.Identifier) (*Type, bool) {
	t, ok := e.vars[name.Tag]
	return t, ok
}

func (e *Env) Function(name symbols.Identifier) (*Scheme, bool) {
	s, ok := e.funcs[name.Tag]
	return s, ok
}

func (e *Env) Struct(name symbols.Identifier) (*StructScheme, bool) {
	s, ok := e.structs[name.Tag]
	return s, ok
}

// enterDefinition resets per-definition state: active generics and cells.
func (e *Env) enterDefinition(generics []symbols.Identifier) {
	clear(e.generics)
	for _, g := range generics {
		e.generics[g.Tag] = true
	}
	e.cells = e.cells[:0]
}

// fresh mints an unbound cell instantiating generic g.
func (e *Env) fresh(g symbols.Identifier) *Type {
	e.nextCell++
	c := &Cell{ID: e.nextCell, Generic: g}
	e.cells = append(e.cells, c)
	return &Type{Kind: TypeUnification, Cell: c}
}

// instantiate replaces generics with fresh cells and returns the substitution
// together with the cells in declaration order.
func (e *Env) instantiate(generics []symbols.Identifier) (map[symbols.Tag]*Type, []*Type) {
	if len(generics) == 0 {
		return nil, nil
	}
	sub := make(map[symbols.Tag]*Type, len(generics))
	args := make([]*Type, len(generics))
	for i, g := range generics {
		args[i] = e.fresh(g)
		sub[g.Tag] = args[i]
	}
	return sub, args
}
