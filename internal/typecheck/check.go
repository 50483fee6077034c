package typecheck

import (
	"keel/internal/qualify"
	"keel/internal/symbols"
)

// Check type-checks a qualified program. The first error aborts it.
func Check(q *qualify.Program) (*Program, error) {
	env := NewEnv()
	c := &checker{env: env}

	for _, s := range q.Structs {
		env.structs[s.Name.Tag] = &StructScheme{Name: s.Name, Generics: s.Generics}
	}
	for _, s := range q.Structs {
		scheme := env.structs[s.Name.Tag]
		for _, f := range s.Fields {
			t, err := c.typ(f.Type)
			if err != nil {
				return nil, inDefinition(err, s.Name)
			}
			scheme.Fields = append(scheme.Fields, Field{Name: f.Name.Name, Type: t})
		}
	}
	for _, fn := range q.Functions {
		scheme := &Scheme{Name: fn.Name, Generics: fn.Generics}
		for _, p := range fn.Params {
			t, err := c.typ(p.Type)
			if err != nil {
				return nil, inDefinition(err, fn.Name)
			}
			scheme.Params = append(scheme.Params, t)
		}
		result, err := c.typ(fn.Result)
		if err != nil {
			return nil, inDefinition(err, fn.Name)
		}
		scheme.Result = result
		env.funcs[fn.Name.Tag] = scheme
	}

	out := &Program{Module: q.Module}
	for _, s := range q.Structs {
		scheme := env.structs[s.Name.Tag]
		out.Structs = append(out.Structs, &Struct{
			Name:     s.Name,
			Generics: s.Generics,
			Fields:   scheme.Fields,
			Span:     s.Span,
		})
	}
	for _, fn := range q.Functions {
		typed, err := c.function(fn)
		if err != nil {
			return nil, inDefinition(err, fn.Name)
		}
		out.Functions = append(out.Functions, typed)
	}
	return out, nil
}

func inDefinition(err error, name symbols.Identifier) error {
	if te, ok := err.(*Error); ok && te.Definition == "" {
		te.Definition = name.Name
	}
	return err
}

type checker struct {
	env *Env
}

func (c *checker) function(fn *qualify.Function) (*Function, error) {
	c.env.enterDefinition(fn.Generics)
	scheme := c.env.funcs[fn.Name.Tag]

	params := make([]Param, len(fn.Params))
	for i, p := range fn.Params {
		pat, err := c.bindPattern(p.Pattern, scheme.Params[i])
		if err != nil {
			return nil, err
		}
		params[i] = Param{Pattern: pat, Type: scheme.Params[i]}
	}
	body, err := c.check(fn.Body, scheme.Result)
	if err != nil {
		return nil, err
	}
	out := &Function{
		Name:     fn.Name,
		Generics: fn.Generics,
		Params:   params,
		Result:   scheme.Result,
		Body:     body,
		Span:     fn.Span,
	}
	z := &zonker{}
	for _, p := range out.Params {
		z.pattern(p.Pattern)
	}
	z.expr(out.Body)
	if z.open != nil {
		return nil, &Error{Kind: ErrUnspecifiedGeneric, Name: z.open.Generic.Name, Span: fn.Span}
	}
	return out, nil
}

// typ converts a qualified type, checking type-application arity.
func (c *checker) typ(t *qualify.Type) (*Type, error) {
	switch t.Kind {
	case qualify.TypeGeneric:
		return Generic(t.Name), nil
	case qualify.TypeFunction:
		args, err := c.typs(t.Args)
		if err != nil {
			return nil, err
		}
		result, err := c.typ(t.Result)
		if err != nil {
			return nil, err
		}
		return Arrow(args, result), nil
	}
	want := 0
	if !t.Name.Tag.IsBuiltin() {
		scheme, ok := c.env.Struct(t.Name)
		if !ok {
			return nil, &Error{Kind: ErrUnknownStruct, Name: t.Name.Name, Span: t.Span}
		}
		want = len(scheme.Generics)
	}
	if len(t.Args) != want {
		return nil, &Error{Kind: ErrArityMismatch, Name: t.Name.Name, Want: want, Got: len(t.Args), Span: t.Span}
	}
	args, err := c.typs(t.Args)
	if err != nil {
		return nil, err
	}
	return Named(t.Name, args...), nil
}

func (c *checker) typs(ts []*qualify.Type) ([]*Type, error) {
	if len(ts) == 0 {
		return nil, nil
	}
	out := make([]*Type, len(ts))
	for i, t := range ts {
		var err error
		if out[i], err = c.typ(t); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// bindPattern binds the pattern variables to the matching parts of t.
func (c *checker) bindPattern(p *qualify.Pattern, t *Type) (*Pattern, error) {
	if p.Kind == qualify.PatternVariable {
		c.env.BindVariable(p.Name, t)
		return &Pattern{Kind: PatternVariable, Name: p.Name, Type: t, Span: p.Span}, nil
	}
	scheme, ok := c.env.Struct(p.Name)
	if !ok {
		return nil, &Error{Kind: ErrUnknownStruct, Name: p.Name.Name, Span: p.Span}
	}
	sub, args := c.env.instantiate(scheme.Generics)
	if err := unify(Named(p.Name, args...), t, p.Span); err != nil {
		return nil, err
	}
	out := &Pattern{Kind: PatternStruct, Name: p.Name, Type: t, Span: p.Span}
	for _, decl := range scheme.Fields {
		field := findPatternField(p.Fields, decl.Name)
		if field == nil {
			panic("typecheck: pattern field " + decl.Name + " survived qualification unchecked")
		}
		fp, err := c.bindPattern(field.Pattern, Substitute(decl.Type, sub))
		if err != nil {
			return nil, err
		}
		out.Fields = append(out.Fields, PatternField{Name: decl.Name, Pattern: fp})
	}
	return out, nil
}

func findPatternField(fields []qualify.PatternField, name string) *qualify.PatternField {
	for i := range fields {
		if fields[i].Name == name {
			return &fields[i]
		}
	}
	return nil
}

func (c *checker) check(e *qualify.Expr, expected *Type) (*Expr, error) {
	out, err := c.infer(e)
	if err != nil {
		return nil, err
	}
	if err := unify(expected, out.Type, e.Span); err != nil {
		return nil, err
	}
	return out, nil
}
