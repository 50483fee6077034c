package typecheck

import (
	"fmt"

	"keel/internal/ast"
	"keel/internal/qualify"
	"keel/internal/symbols"
)

func (c *checker) infer(e *qualify.Expr) (*Expr, error) {
	switch d := e.Data.(type) {
	case qualify.LiteralData:
		t := F64()
		if d.Kind == ast.LitBool {
			t = Bool()
		}
		return &Expr{Kind: ExprLiteral, Type: t, Span: e.Span, Data: LiteralData(d)}, nil
	case qualify.VariableData:
		return c.variable(e, d)
	case qualify.CallData:
		return c.call(e, d)
	case qualify.OperationData:
		return c.operation(e, d)
	case qualify.StructLiteralData:
		return c.structLiteral(e, d)
	case qualify.BlockData:
		return c.block(e, d)
	case qualify.AnnotatedData:
		t, err := c.typ(d.Type)
		if err != nil {
			return nil, err
		}
		return c.check(d.Value, t)
	case qualify.CaseData:
		return c.caseExpr(e, d)
	case qualify.IfData:
		return c.ifExpr(e, d)
	case qualify.ClosureData:
		return c.closure(e, d)
	}
	panic(fmt.Sprintf("typecheck: unexpected expression kind %s", e.Kind))
}

func (c *checker) variable(e *qualify.Expr, d qualify.VariableData) (*Expr, error) {
	t, ok := c.env.Variable(d.Name)
	if !ok {
		// functions are not values
		return nil, &Error{Kind: ErrUnknownVariable, Name: d.Name.Name, Span: e.Span}
	}
	return &Expr{Kind: ExprVariable, Type: t, Span: e.Span, Data: VariableData{Name: d.Name}}, nil
}

func (c *checker) call(e *qualify.Expr, d qualify.CallData) (*Expr, error) {
	if v, ok := d.Callee.Data.(qualify.VariableData); ok {
		if _, local := c.env.Variable(v.Name); !local {
			scheme, ok := c.env.Function(v.Name)
			if !ok {
				return nil, &Error{Kind: ErrUnknownFunction, Name: v.Name.Name, Span: d.Callee.Span}
			}
			return c.callDirect(e, d, scheme)
		}
	}

	callee, err := c.infer(d.Callee)
	if err != nil {
		return nil, err
	}
	fn := Resolve(callee.Type)
	if fn.Kind != TypeFunction {
		name := fn.String()
		if v, ok := callee.Data.(VariableData); ok {
			name = v.Name.Name
		}
		return nil, &Error{Kind: ErrUnknownFunction, Name: name, Span: d.Callee.Span}
	}
	if len(fn.Args) != len(d.Args) {
		return nil, &Error{Kind: ErrArityMismatch, Name: fn.String(), Want: len(fn.Args), Got: len(d.Args), Span: e.Span}
	}
	args, err := c.checkArgs(d.Args, fn.Args)
	if err != nil {
		return nil, err
	}
	return &Expr{
		Kind: ExprCallClosure,
		Type: fn.Result,
		Span: e.Span,
		Data: CallClosureData{Callee: callee, Args: args},
	}, nil
}

func (c *checker) callDirect(e *qualify.Expr, d qualify.CallData, scheme *Scheme) (*Expr, error) {
	if len(scheme.Params) != len(d.Args) {
		return nil, &Error{Kind: ErrArityMismatch, Name: scheme.Name.Name, Want: len(scheme.Params), Got: len(d.Args), Span: e.Span}
	}
	sub, generics := c.env.instantiate(scheme.Generics)
	args, err := c.checkArgs(d.Args, substituteAll(scheme.Params, sub))
	if err != nil {
		return nil, err
	}
	return &Expr{
		Kind: ExprCallDirect,
		Type: Substitute(scheme.Result, sub),
		Span: e.Span,
		Data: CallDirectData{Function: scheme.Name, Generics: generics, Args: args},
	}, nil
}

func (c *checker) checkArgs(args []*qualify.Expr, params []*Type) ([]*Expr, error) {
	out := make([]*Expr, len(args))
	for i, a := range args {
		var err error
		if out[i], err = c.check(a, params[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *checker) operation(e *qualify.Expr, d qualify.OperationData) (*Expr, error) {
	left, err := c.check(d.Left, F64())
	if err != nil {
		return nil, err
	}
	right, err := c.check(d.Right, F64())
	if err != nil {
		return nil, err
	}
	t := F64()
	if d.Op == ast.OpLess {
		t = Bool()
	}
	return &Expr{Kind: ExprOperation, Type: t, Span: e.Span, Data: OperationData{Op: d.Op, Left: left, Right: right}}, nil
}

func (c *checker) structLiteral(e *qualify.Expr, d qualify.StructLiteralData) (*Expr, error) {
	scheme, ok := c.env.Struct(d.Struct)
	if !ok {
		return nil, &Error{Kind: ErrUnknownStruct, Name: d.Struct.Name, Span: e.Span}
	}
	sub, args := c.env.instantiate(scheme.Generics)
	fields := make([]FieldInit, 0, len(scheme.Fields))
	for _, decl := range scheme.Fields {
		fi := findFieldInit(d.Fields, decl.Name)
		if fi == nil {
			panic("typecheck: struct literal field " + decl.Name + " survived qualification unchecked")
		}
		value, err := c.check(fi.Value, Substitute(decl.Type, sub))
		if err != nil {
			return nil, err
		}
		fields = append(fields, FieldInit{Name: decl.Name, Value: value})
	}
	return &Expr{
		Kind: ExprStructLiteral,
		Type: Named(scheme.Name, args...),
		Span: e.Span,
		Data: StructLiteralData{Struct: scheme.Name, Args: args, Fields: fields},
	}, nil
}

func findFieldInit(fields []qualify.FieldInit, name string) *qualify.FieldInit {
	for i := range fields {
		if fields[i].Name == name {
			return &fields[i]
		}
	}
	return nil
}

func (c *checker) block(e *qualify.Expr, d qualify.BlockData) (*Expr, error) {
	lets := make([]Let, len(d.Lets))
	for i, l := range d.Lets {
		value, err := c.infer(l.Value)
		if err != nil {
			return nil, err
		}
		pat, err := c.bindPattern(l.Pattern, value.Type)
		if err != nil {
			return nil, err
		}
		lets[i] = Let{Pattern: pat, Value: value}
	}
	result, err := c.infer(d.Result)
	if err != nil {
		return nil, err
	}
	return &Expr{Kind: ExprBlock, Type: result.Type, Span: e.Span, Data: BlockData{Lets: lets, Result: result}}, nil
}

// caseExpr checks every arm but keeps only the first. Patterns are
// irrefutable, so the first arm always runs.
func (c *checker) caseExpr(e *qualify.Expr, d qualify.CaseData) (*Expr, error) {
	if len(d.Arms) == 0 {
		panic("typecheck: case without arms")
	}
	scrutinee, err := c.infer(d.Scrutinee)
	if err != nil {
		return nil, err
	}
	var (
		firstPattern *Pattern
		firstBody    *Expr
	)
	for i, arm := range d.Arms {
		pat, err := c.bindPattern(arm.Pattern, scrutinee.Type)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			firstPattern = pat
			if firstBody, err = c.infer(arm.Body); err != nil {
				return nil, err
			}
			continue
		}
		if _, err := c.check(arm.Body, firstBody.Type); err != nil {
			return nil, err
		}
	}
	return &Expr{
		Kind: ExprBlock,
		Type: firstBody.Type,
		Span: e.Span,
		Data: BlockData{
			Lets:   []Let{{Pattern: firstPattern, Value: scrutinee}},
			Result: firstBody,
		},
	}, nil
}

func (c *checker) ifExpr(e *qualify.Expr, d qualify.IfData) (*Expr, error) {
	cond, err := c.check(d.Cond, Bool())
	if err != nil {
		return nil, err
	}
	then, err := c.infer(d.Then)
	if err != nil {
		return nil, err
	}
	els, err := c.check(d.Else, then.Type)
	if err != nil {
		return nil, err
	}
	return &Expr{Kind: ExprIf, Type: then.Type, Span: e.Span, Data: IfData{Cond: cond, Then: then, Else: els}}, nil
}

func (c *checker) closure(e *qualify.Expr, d qualify.ClosureData) (*Expr, error) {
	params := make([]Param, len(d.Params))
	paramTypes := make([]*Type, len(d.Params))
	for i, p := range d.Params {
		t, err := c.typ(p.Type)
		if err != nil {
			return nil, err
		}
		pat, err := c.bindPattern(p.Pattern, t)
		if err != nil {
			return nil, err
		}
		params[i] = Param{Pattern: pat, Type: t}
		paramTypes[i] = t
	}
	body, err := c.infer(d.Body)
	if err != nil {
		return nil, err
	}
	return &Expr{
		Kind: ExprClosure,
		Type: Arrow(paramTypes, body.Type),
		Span: e.Span,
		Data: ClosureData{Params: params, Body: body, Captures: captures(params, body)},
	}, nil
}

// captures returns the locals body reads that the closure does not bind
// itself, in first-occurrence order.
func captures(params []Param, body *Expr) []Capture {
	bound := make(map[symbols.Tag]bool)
	for _, p := range params {
		bindTags(p.Pattern, bound)
	}
	collectLets(body, bound)

	var out []Capture
	seen := make(map[symbols.Tag]bool)
	add := func(name symbols.Identifier, t *Type) {
		if bound[name.Tag] || seen[name.Tag] {
			return
		}
		seen[name.Tag] = true
		out = append(out, Capture{Name: name, Type: t})
	}
	walkFree(body, add)
	return out
}

func bindTags(p *Pattern, into map[symbols.Tag]bool) {
	if p.Kind == PatternVariable {
		into[p.Name.Tag] = true
		return
	}
	for _, f := range p.Fields {
		bindTags(f.Pattern, into)
	}
}

// collectLets gathers let-bound tags of e without entering nested closures.
func collectLets(e *Expr, into map[symbols.Tag]bool) {
	switch d := e.Data.(type) {
	case CallDirectData:
		for _, a := range d.Args {
			collectLets(a, into)
		}
	case CallClosureData:
		collectLets(d.Callee, into)
		for _, a := range d.Args {
			collectLets(a, into)
		}
	case OperationData:
		collectLets(d.Left, into)
		collectLets(d.Right, into)
	case StructLiteralData:
		for _, f := range d.Fields {
			collectLets(f.Value, into)
		}
	case BlockData:
		for _, l := range d.Lets {
			bindTags(l.Pattern, into)
			collectLets(l.Value, into)
		}
		collectLets(d.Result, into)
	case IfData:
		collectLets(d.Cond, into)
		collectLets(d.Then, into)
		collectLets(d.Else, into)
	}
}

// walkFree reports variable reads in evaluation order. A nested closure
// contributes its own captures.
func walkFree(e *Expr, add func(symbols.Identifier, *Type)) {
	switch d := e.Data.(type) {
	case VariableData:
		add(d.Name, e.Type)
	case CallDirectData:
		for _, a := range d.Args {
			walkFree(a, add)
		}
	case CallClosureData:
		walkFree(d.Callee, add)
		for _, a := range d.Args {
			walkFree(a, add)
		}
	case OperationData:
		walkFree(d.Left, add)
		walkFree(d.Right, add)
	case StructLiteralData:
		for _, f := range d.Fields {
			walkFree(f.Value, add)
		}
	case BlockData:
		for _, l := range d.Lets {
			walkFree(l.Value, add)
		}
		walkFree(d.Result, add)
	case IfData:
		walkFree(d.Cond, add)
		walkFree(d.Then, add)
		walkFree(d.Else, add)
	case ClosureData:
		for _, cp := range d.Captures {
			add(cp.Name, cp.Type)
		}
	}
}
