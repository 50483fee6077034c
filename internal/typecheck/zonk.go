package typecheck

// zonkLoose replaces bound cells by their values, leaving unbound ones.
func zonkLoose(t *Type) *Type {
	z, _ := zonk(t)
	return z
}

// zonk returns t without bound cells and the first unbound cell met, if any.
func zonk(t *Type) (*Type, *Cell) {
	t = Resolve(t)
	switch t.Kind {
	case TypeUnification:
		return t, t.Cell
	case TypeNamed:
		if len(t.Args) == 0 {
			return t, nil
		}
		args, open := zonkAll(t.Args)
		return &Type{Kind: TypeNamed, Name: t.Name, Args: args}, open
	case TypeFunction:
		args, open := zonkAll(t.Args)
		result, openResult := zonk(t.Result)
		if open == nil {
			open = openResult
		}
		return &Type{Kind: TypeFunction, Args: args, Result: result}, open
	}
	return t, nil
}

func zonkAll(ts []*Type) ([]*Type, *Cell) {
	out := make([]*Type, len(ts))
	var open *Cell
	for i, t := range ts {
		var c *Cell
		out[i], c = zonk(t)
		if open == nil {
			open = c
		}
	}
	return out, open
}

// zonker rewrites a finished definition so that no cell survives.
type zonker struct {
	open *Cell
}

func (z *zonker) typ(t *Type) *Type {
	out, open := zonk(t)
	if z.open == nil {
		z.open = open
	}
	return out
}

func (z *zonker) types(ts []*Type) []*Type {
	for i, t := range ts {
		ts[i] = z.typ(t)
	}
	return ts
}

func (z *zonker) pattern(p *Pattern) {
	p.Type = z.typ(p.Type)
	for _, f := range p.Fields {
		z.pattern(f.Pattern)
	}
}

func (z *zonker) expr(e *Expr) {
	e.Type = z.typ(e.Type)
	switch d := e.Data.(type) {
	case CallDirectData:
		z.types(d.Generics)
		for _, a := range d.Args {
			z.expr(a)
		}
	case CallClosureData:
		z.expr(d.Callee)
		for _, a := range d.Args {
			z.expr(a)
		}
	case OperationData:
		z.expr(d.Left)
		z.expr(d.Right)
	case StructLiteralData:
		z.types(d.Args)
		for _, f := range d.Fields {
			z.expr(f.Value)
		}
	case BlockData:
		for _, l := range d.Lets {
			z.pattern(l.Pattern)
			z.expr(l.Value)
		}
		z.expr(d.Result)
	case IfData:
		z.expr(d.Cond)
		z.expr(d.Then)
		z.expr(d.Else)
	case ClosureData:
		for i := range d.Params {
			d.Params[i].Type = z.typ(d.Params[i].Type)
			z.pattern(d.Params[i].Pattern)
		}
		for i := range d.Captures {
			d.Captures[i].Type = z.typ(d.Captures[i].Type)
		}
		z.expr(d.Body)
	}
}
