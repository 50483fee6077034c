package qualify

import (
	"keel/internal/ast"
	"keel/internal/source"
	"keel/internal/symbols"
)

func (q *Qualifier) expr(id ast.ExprID) (*Expr, error) {
	e := q.b.Exprs.Get(id)
	if e == nil {
		panic("qualify: missing expression node")
	}
	switch e.Kind {
	case ast.ExprLiteral:
		lit, _ := q.b.Exprs.Literal(id)
		return &Expr{Kind: ExprLiteral, Span: e.Span, Data: LiteralData{
			Kind:   lit.Kind,
			Text:   lit.Text,
			Number: lit.Number,
			Bool:   lit.Bool,
		}}, nil

	case ast.ExprVariable:
		v, _ := q.b.Exprs.Variable(id)
		sym, ok := q.res.LookupVariable(v.Name)
		if !ok {
			return nil, &Error{Kind: ErrUndefinedVariable, Name: q.name(v.Name), Span: e.Span}
		}
		return &Expr{Kind: ExprVariable, Span: e.Span, Data: VariableData{Name: q.table.Identifier(sym)}}, nil

	case ast.ExprCall:
		call, _ := q.b.Exprs.Call(id)
		callee, err := q.expr(call.Callee)
		if err != nil {
			return nil, err
		}
		args, err := q.exprs(call.Args)
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprCall, Span: e.Span, Data: CallData{Callee: callee, Args: args}}, nil

	case ast.ExprOperation:
		op, _ := q.b.Exprs.Operation(id)
		left, err := q.expr(op.Left)
		if err != nil {
			return nil, err
		}
		right, err := q.expr(op.Right)
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprOperation, Span: e.Span, Data: OperationData{Op: op.Op, Left: left, Right: right}}, nil

	case ast.ExprStructLiteral:
		lit, _ := q.b.Exprs.StructLiteral(id)
		return q.structLiteral(e.Span, lit)

	case ast.ExprBlock:
		blk, _ := q.b.Exprs.Block(id)
		return q.block(e.Span, blk)

	case ast.ExprAnnotated:
		ann, _ := q.b.Exprs.Annotated(id)
		value, err := q.expr(ann.Value)
		if err != nil {
			return nil, err
		}
		typ, err := q.typ(ann.Type)
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprAnnotated, Span: e.Span, Data: AnnotatedData{Value: value, Type: typ}}, nil

	case ast.ExprCase:
		cs, _ := q.b.Exprs.Case(id)
		return q.caseExpr(e.Span, cs)

	case ast.ExprIf:
		ifd, _ := q.b.Exprs.If(id)
		cond, err := q.expr(ifd.Cond)
		if err != nil {
			return nil, err
		}
		then, err := q.expr(ifd.Then)
		if err != nil {
			return nil, err
		}
		els, err := q.expr(ifd.Else)
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprIf, Span: e.Span, Data: IfData{Cond: cond, Then: then, Else: els}}, nil

	case ast.ExprClosure:
		cl, _ := q.b.Exprs.Closure(id)
		scope := q.res.Enter(symbols.ScopeClosure, e.Span)
		defer q.res.Leave(scope)
		params, err := q.params(cl.Params)
		if err != nil {
			return nil, err
		}
		body, err := q.expr(cl.Body)
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprClosure, Span: e.Span, Data: ClosureData{Params: params, Body: body}}, nil
	}
	panic("qualify: unknown expression kind " + e.Kind.String())
}

func (q *Qualifier) exprs(ids []ast.ExprID) ([]*Expr, error) {
	out := make([]*Expr, 0, len(ids))
	for _, id := range ids {
		e, err := q.expr(id)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (q *Qualifier) structLiteral(span source.Span, lit *ast.ExprStructLiteralData) (*Expr, error) {
	symID, ok := q.res.LookupStruct(lit.Name)
	if !ok {
		return nil, &Error{Kind: ErrUndefinedStruct, Name: q.name(lit.Name), Span: lit.NameSpan}
	}
	sym := q.table.Symbols.Get(symID)
	given := make([]source.StringID, len(lit.Fields))
	spans := make([]source.Span, len(lit.Fields))
	for i, f := range lit.Fields {
		given[i], spans[i] = f.Name, f.Span
	}
	if err := q.exactFields(sym.Fields, given, spans, ErrMissingField, span); err != nil {
		return nil, err
	}
	fields := make([]FieldInit, 0, len(lit.Fields))
	for _, f := range lit.Fields {
		value, err := q.expr(f.Value)
		if err != nil {
			return nil, err
		}
		fields = append(fields, FieldInit{Name: q.name(f.Name), Value: value, Span: f.Span})
	}
	return &Expr{Kind: ExprStructLiteral, Span: span, Data: StructLiteralData{
		Struct: q.table.Identifier(symID),
		Fields: fields,
	}}, nil
}

// block: the right side of a let sees only the earlier bindings.
func (q *Qualifier) block(span source.Span, blk *ast.ExprBlockData) (*Expr, error) {
	scope := q.res.Enter(symbols.ScopeBlock, span)
	defer q.res.Leave(scope)
	lets := make([]Let, 0, len(blk.Lets))
	for _, let := range blk.Lets {
		value, err := q.expr(let.Value)
		if err != nil {
			return nil, err
		}
		pat, err := q.pattern(let.Pattern, symbols.SymbolLet)
		if err != nil {
			return nil, err
		}
		lets = append(lets, Let{Pattern: pat, Value: value, Span: let.Span})
	}
	result, err := q.expr(blk.Result)
	if err != nil {
		return nil, err
	}
	return &Expr{Kind: ExprBlock, Span: span, Data: BlockData{Lets: lets, Result: result}}, nil
}

func (q *Qualifier) caseExpr(span source.Span, cs *ast.ExprCaseData) (*Expr, error) {
	scrutinee, err := q.expr(cs.Scrutinee)
	if err != nil {
		return nil, err
	}
	arms := make([]Arm, 0, len(cs.Arms))
	for _, arm := range cs.Arms {
		out, err := q.arm(arm)
		if err != nil {
			return nil, err
		}
		arms = append(arms, out)
	}
	return &Expr{Kind: ExprCase, Span: span, Data: CaseData{Scrutinee: scrutinee, Arms: arms}}, nil
}

func (q *Qualifier) arm(arm ast.CaseArm) (Arm, error) {
	scope := q.res.Enter(symbols.ScopeArm, arm.Span)
	defer q.res.Leave(scope)
	pat, err := q.pattern(arm.Pattern, symbols.SymbolLet)
	if err != nil {
		return Arm{}, err
	}
	body, err := q.expr(arm.Body)
	if err != nil {
		return Arm{}, err
	}
	return Arm{Pattern: pat, Body: body, Span: arm.Span}, nil
}
