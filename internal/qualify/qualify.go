package qualify

import (
	"slices"

	"keel/internal/ast"
	"keel/internal/source"
	"keel/internal/symbols"
)

// Qualifier resolves the names of one source file. It stops at the first error.
type Qualifier struct {
	b     *ast.Builder
	table *symbols.Table
	tags  *symbols.TagSource
	res   *symbols.Resolver
	// top-level declarations, filled before bodies are walked
	funcs   map[ast.ItemID]symbols.SymbolID
	structs map[ast.ItemID]symbols.SymbolID
}

// File qualifies file. The table's interner must be the one the parser used.
func File(b *ast.Builder, file ast.FileID, table *symbols.Table, tags *symbols.TagSource) (*Program, error) {
	f := b.Files.Get(file)
	if f == nil {
		panic("qualify: unknown file")
	}
	q := &Qualifier{
		b:       b,
		table:   table,
		tags:    tags,
		res:     symbols.NewResolver(table, tags, f.Span),
		funcs:   make(map[ast.ItemID]symbols.SymbolID),
		structs: make(map[ast.ItemID]symbols.SymbolID),
	}
	if err := q.declareItems(f.Items); err != nil {
		return nil, err
	}
	prog := &Program{Module: tags.Module()}
	for _, id := range f.Items {
		if st, ok := b.Items.Struct(id); ok {
			s, err := q.structDef(id, st)
			if err != nil {
				return nil, err
			}
			prog.Structs = append(prog.Structs, s)
		}
	}
	for _, id := range f.Items {
		if fn, ok := b.Items.Func(id); ok {
			out, err := q.function(id, fn)
			if err != nil {
				return nil, err
			}
			prog.Functions = append(prog.Functions, out)
		}
	}
	return prog, nil
}

func (q *Qualifier) name(id source.StringID) string {
	return q.table.Strings.MustLookup(id)
}

func (q *Qualifier) duplicate(name source.StringID, span source.Span, prev symbols.SymbolID) error {
	e := &Error{Kind: ErrDuplicateDefinition, Name: q.name(name), Span: span}
	if sym := q.table.Symbols.Get(prev); sym != nil {
		e.Previous = sym.Span
	}
	return e
}

// declareItems declares every top-level name before any body is walked,
// so forward references and recursion resolve.
func (q *Qualifier) declareItems(items []ast.ItemID) error {
	for _, id := range items {
		if st, ok := q.b.Items.Struct(id); ok {
			fields := make([]source.StringID, 0, len(st.Fields))
			for _, f := range st.Fields {
				if slices.Contains(fields, f.Name) {
					return &Error{Kind: ErrDuplicateDefinition, Name: q.name(f.Name), Span: f.Span}
				}
				fields = append(fields, f.Name)
			}
			sym, ok := q.res.DefineStruct(st.Name, st.NameSpan, fields)
			if !ok {
				return q.duplicate(st.Name, st.NameSpan, sym)
			}
			q.structs[id] = sym
		}
		if fn, ok := q.b.Items.Func(id); ok {
			sym, ok := q.res.DefineVariable(fn.Name, fn.NameSpan, symbols.SymbolFunction)
			if !ok {
				return q.duplicate(fn.Name, fn.NameSpan, sym)
			}
			q.funcs[id] = sym
		}
	}
	return nil
}

func (q *Qualifier) generics(gs []ast.Generic) ([]symbols.Identifier, error) {
	out := make([]symbols.Identifier, 0, len(gs))
	for _, g := range gs {
		sym, ok := q.res.DefineType(g.Name, g.Span)
		if !ok {
			return nil, q.duplicate(g.Name, g.Span, sym)
		}
		out = append(out, q.table.Identifier(sym))
	}
	return out, nil
}

func (q *Qualifier) structDef(id ast.ItemID, st *ast.StructData) (*Struct, error) {
	item := q.b.Items.Get(id)
	scope := q.res.Enter(symbols.ScopeFunction, item.Span)
	defer q.res.Leave(scope)

	generics, err := q.generics(st.Generics)
	if err != nil {
		return nil, err
	}
	out := &Struct{
		Name:     q.table.Identifier(q.structs[id]),
		Generics: generics,
		Fields:   make([]Field, 0, len(st.Fields)),
		Span:     item.Span,
	}
	for _, f := range st.Fields {
		typ, err := q.typ(f.Type)
		if err != nil {
			return nil, err
		}
		out.Fields = append(out.Fields, Field{
			Name: symbols.Identifier{Tag: q.tags.Fresh(), Name: q.name(f.Name)},
			Type: typ,
			Span: f.Span,
		})
	}
	return out, nil
}

func (q *Qualifier) function(id ast.ItemID, fn *ast.FuncData) (*Function, error) {
	item := q.b.Items.Get(id)
	scope := q.res.Enter(symbols.ScopeFunction, item.Span)
	defer q.res.Leave(scope)

	generics, err := q.generics(fn.Generics)
	if err != nil {
		return nil, err
	}
	params, err := q.params(fn.Params)
	if err != nil {
		return nil, err
	}
	result, err := q.typ(fn.Result)
	if err != nil {
		return nil, err
	}
	body, err := q.expr(fn.Body)
	if err != nil {
		return nil, err
	}
	return &Function{
		Name:     q.table.Identifier(q.funcs[id]),
		Generics: generics,
		Params:   params,
		Result:   result,
		Body:     body,
		Span:     item.Span,
	}, nil
}

func (q *Qualifier) params(ps []ast.Param) ([]Param, error) {
	out := make([]Param, 0, len(ps))
	for _, p := range ps {
		typ, err := q.typ(p.Type)
		if err != nil {
			return nil, err
		}
		pat, err := q.pattern(p.Pattern, symbols.SymbolParam)
		if err != nil {
			return nil, err
		}
		out = append(out, Param{Pattern: pat, Type: typ, Span: p.Span})
	}
	return out, nil
}

func (q *Qualifier) typ(id ast.TypeID) (*Type, error) {
	t := q.b.Types.Get(id)
	if t == nil {
		panic("qualify: missing type node")
	}
	switch t.Kind {
	case ast.TypeFunction:
		args, err := q.types(t.Args)
		if err != nil {
			return nil, err
		}
		result, err := q.typ(t.Result)
		if err != nil {
			return nil, err
		}
		return &Type{Kind: TypeFunction, Args: args, Result: result, Span: t.Span}, nil
	default:
		sym, ok := q.res.LookupType(t.Name)
		if !ok {
			return nil, &Error{Kind: ErrUndefinedType, Name: q.name(t.Name), Span: t.Span}
		}
		args, err := q.types(t.Args)
		if err != nil {
			return nil, err
		}
		kind := TypeNamed
		if q.table.Symbols.Get(sym).Kind == symbols.SymbolGeneric {
			kind = TypeGeneric
		}
		return &Type{Kind: kind, Name: q.table.Identifier(sym), Args: args, Span: t.Span}, nil
	}
}

func (q *Qualifier) types(ids []ast.TypeID) ([]*Type, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	out := make([]*Type, 0, len(ids))
	for _, id := range ids {
		t, err := q.typ(id)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// pattern declares the bound variables in the current scope with kind.
func (q *Qualifier) pattern(id ast.PatternID, kind symbols.SymbolKind) (*Pattern, error) {
	p := q.b.Patterns.Get(id)
	if p == nil {
		panic("qualify: missing pattern node")
	}
	if p.Kind == ast.PatVariable {
		sym, ok := q.res.DefineVariable(p.Name, p.Span, kind)
		if !ok {
			return nil, q.duplicate(p.Name, p.Span, sym)
		}
		return &Pattern{Kind: PatternVariable, Name: q.table.Identifier(sym), Span: p.Span}, nil
	}
	symID, ok := q.res.LookupStruct(p.Name)
	if !ok {
		return nil, &Error{Kind: ErrUndefinedStruct, Name: q.name(p.Name), Span: p.Span}
	}
	sym := q.table.Symbols.Get(symID)
	given := make([]source.StringID, len(p.Fields))
	spans := make([]source.Span, len(p.Fields))
	for i, f := range p.Fields {
		given[i], spans[i] = f.Name, f.Span
	}
	if err := q.exactFields(sym.Fields, given, spans, ErrPatternMissingField, p.Span); err != nil {
		return nil, err
	}
	out := &Pattern{Kind: PatternStruct, Name: q.table.Identifier(symID), Span: p.Span}
	for _, f := range p.Fields {
		sub, err := q.pattern(f.Pattern, kind)
		if err != nil {
			return nil, err
		}
		out.Fields = append(out.Fields, PatternField{Name: q.name(f.Name), Pattern: sub, Span: f.Span})
	}
	return out, nil
}

// exactFields checks that the written fields match the declared set.
func (q *Qualifier) exactFields(declared, given []source.StringID, spans []source.Span, missing ErrorKind, whole source.Span) error {
	names := make([]string, len(declared))
	for i, d := range declared {
		names[i] = q.name(d)
	}
	for i, g := range given {
		sp := spans[i]
		if !slices.Contains(declared, g) {
			return &Error{Kind: ErrExtraField, Name: q.name(g), Fields: names, Span: sp}
		}
		if slices.Index(given, g) != i {
			return &Error{Kind: ErrDuplicateDefinition, Name: q.name(g), Span: sp}
		}
	}
	for _, d := range declared {
		if !slices.Contains(given, d) {
			return &Error{Kind: missing, Name: q.name(d), Fields: names, Span: whole}
		}
	}
	return nil
}
