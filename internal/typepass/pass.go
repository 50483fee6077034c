package typepass

import (
	"fmt"

	"fortio.org/safecast"

	"keel/internal/symbols"
	"keel/internal/typecheck"
)

// Pass performs type passing. Struct builders are registered before any
// function body is rewritten; closure environments are appended to the
// struct list as they are met.
func Pass(prog *typecheck.Program) (*Program, StructBuilders) {
	p := &passer{
		tags:     symbols.NewTagSource(symbols.SyntheticModule),
		builders: make(StructBuilders, len(prog.Structs)),
		out:      &Program{Module: prog.Module},
	}
	for _, s := range prog.Structs {
		fields := make([]Field, len(s.Fields))
		for i, f := range s.Fields {
			fields[i] = Field{Name: f.Name, Type: f.Type}
		}
		p.addStruct(&Struct{Name: s.Name, Generics: s.Generics, Fields: fields, Span: s.Span})
	}
	for _, fn := range prog.Functions {
		p.out.Functions = append(p.out.Functions, p.function(fn))
	}
	return p.out, p.builders
}

type passer struct {
	tags     *symbols.TagSource
	builders StructBuilders
	out      *Program
	temps    int
	envs     int
}

func (p *passer) addStruct(s *Struct) {
	b := &StructBuilder{Name: s.Name, Arguments: s.Generics, Fields: make([]*Expr, len(s.Fields))}
	for i, f := range s.Fields {
		b.Fields[i] = TypeExpr(f.Type)
	}
	p.out.Structs = append(p.out.Structs, s)
	p.builders[s.Name.Tag] = b
}

func (p *passer) function(fn *typecheck.Function) *Function {
	args := make([]Argument, 0, len(fn.Params)+len(fn.Generics)+1)
	args = append(args, Argument{Name: p.tags.Synthetic("_result"), Type: fn.Result, Convention: Out})
	var prefix []Let
	for _, param := range fn.Params {
		name, lets := p.bindParam(param.Pattern)
		args = append(args, Argument{Name: name, Type: param.Type, Convention: In})
		prefix = append(prefix, lets...)
	}
	for _, g := range fn.Generics {
		args = append(args, Argument{Name: g, Type: typecheck.TypeType(), Convention: In})
	}
	return &Function{
		Name:      fn.Name,
		Arguments: args,
		Result:    fn.Result,
		Body:      wrap(prefix, p.expr(fn.Body)),
		Span:      fn.Span,
	}
}

// TypeExpr builds the expression that evaluates to the witness of t.
func TypeExpr(t *typecheck.Type) *Expr {
	t = typecheck.Resolve(t)
	switch t.Kind {
	case typecheck.TypeGeneric:
		return &Expr{Kind: ExprVariable, Type: typecheck.TypeType(), Data: VariableData{Name: t.Name}}
	case typecheck.TypeFunction:
		args := make([]*Expr, 0, len(t.Args)+1)
		for _, a := range t.Args {
			args = append(args, TypeExpr(a))
		}
		args = append(args, TypeExpr(t.Result))
		return &Expr{
			Kind: ExprCallDirect,
			Type: typecheck.TypeType(),
			Data: CallDirectData{Function: FunctionWitness(len(t.Args)), Args: args},
		}
	case typecheck.TypeNamed:
		args := make([]*Expr, len(t.Args))
		for i, a := range t.Args {
			args[i] = TypeExpr(a)
		}
		return &Expr{
			Kind: ExprCallDirect,
			Type: typecheck.TypeType(),
			Data: CallDirectData{Function: t.Name, Args: args},
		}
	}
	panic("typepass: witness of unresolved type " + t.String())
}

const functionWitnessKey = 1 << 16

// FunctionWitness names the witness combinator for closures of the given
// arity, e.g. `2function`.
func FunctionWitness(arity int) symbols.Identifier {
	key, err := safecast.Conv[uint32](arity)
	if err != nil {
		panic(fmt.Sprintf("typepass: closure arity %d: %v", arity, err))
	}
	return symbols.Identifier{
		Tag:    symbols.Tag{Module: symbols.BuiltinModule, Key: functionWitnessKey + key},
		Name:   fmt.Sprintf("%dfunction", arity),
		Global: true,
	}
}

func (p *passer) temp() symbols.Identifier {
	id := p.tags.Synthetic(fmt.Sprintf("_p%d", p.temps))
	p.temps++
	return id
}

// bindParam names a parameter; a struct pattern gets a temporary argument
// and is unpacked at the start of the body.
func (p *passer) bindParam(pat *typecheck.Pattern) (symbols.Identifier, []Let) {
	if pat.Kind == typecheck.PatternVariable {
		return pat.Name, nil
	}
	tmp := p.temp()
	return tmp, p.unpack(pat, tmp)
}

// bind turns `let pat = value` into plain lets.
func (p *passer) bind(pat *typecheck.Pattern, value *Expr) []Let {
	if pat.Kind == typecheck.PatternVariable {
		return []Let{{Name: pat.Name, Type: pat.Type, Value: value}}
	}
	tmp := p.temp()
	return append([]Let{{Name: tmp, Type: pat.Type, Value: value}}, p.unpack(pat, tmp)...)
}

func (p *passer) unpack(pat *typecheck.Pattern, src symbols.Identifier) []Let {
	var lets []Let
	for _, f := range pat.Fields {
		value := &Expr{
			Kind: ExprUnpack,
			Type: f.Pattern.Type,
			Span: f.Pattern.Span,
			Data: UnpackData{
				Value: &Expr{Kind: ExprVariable, Type: pat.Type, Span: pat.Span, Data: VariableData{Name: src}},
				Field: f.Name,
			},
		}
		lets = append(lets, p.bind(f.Pattern, value)...)
	}
	return lets
}

func wrap(prefix []Let, body *Expr) *Expr {
	if len(prefix) == 0 {
		return body
	}
	return &Expr{Kind: ExprBlock, Type: body.Type, Span: body.Span, Data: BlockData{Lets: prefix, Result: body}}
}

func (p *passer) exprs(es []*typecheck.Expr) []*Expr {
	out := make([]*Expr, len(es))
	for i, e := range es {
		out[i] = p.expr(e)
	}
	return out
}

func (p *passer) expr(e *typecheck.Expr) *Expr {
	out := &Expr{Type: e.Type, Span: e.Span}
	switch d := e.Data.(type) {
	case typecheck.LiteralData:
		out.Kind, out.Data = ExprLiteral, LiteralData(d)
	case typecheck.VariableData:
		out.Kind, out.Data = ExprVariable, VariableData(d)
	case typecheck.CallDirectData:
		args := p.exprs(d.Args)
		for _, g := range d.Generics {
			args = append(args, TypeExpr(g))
		}
		out.Kind, out.Data = ExprCallDirect, CallDirectData{Function: d.Function, Args: args}
	case typecheck.CallClosureData:
		out.Kind, out.Data = ExprCallClosure, CallClosureData{Callee: p.expr(d.Callee), Args: p.exprs(d.Args)}
	case typecheck.OperationData:
		out.Kind, out.Data = ExprPrimitive, PrimitiveData{Op: d.Op, Left: p.expr(d.Left), Right: p.expr(d.Right)}
	case typecheck.StructLiteralData:
		fields := make([]PackField, len(d.Fields))
		for i, f := range d.Fields {
			fields[i] = PackField{Name: f.Name, Value: p.expr(f.Value)}
		}
		out.Kind, out.Data = ExprPack, PackData{Struct: d.Struct, Args: d.Args, Fields: fields}
	case typecheck.BlockData:
		var lets []Let
		for _, l := range d.Lets {
			lets = append(lets, p.bind(l.Pattern, p.expr(l.Value))...)
		}
		out.Kind, out.Data = ExprBlock, BlockData{Lets: lets, Result: p.expr(d.Result)}
	case typecheck.IfData:
		out.Kind, out.Data = ExprIf, IfData{Cond: p.expr(d.Cond), Then: p.expr(d.Then), Else: p.expr(d.Else)}
	case typecheck.ClosureData:
		out.Kind, out.Data = ExprClosure, p.closure(e, d)
	default:
		panic(fmt.Sprintf("typepass: unexpected expression kind %s", e.Kind))
	}
	return out
}

func (p *passer) closure(e *typecheck.Expr, d typecheck.ClosureData) ClosureData {
	params := make([]Argument, len(d.Params))
	var prefix []Let
	for i, param := range d.Params {
		name, lets := p.bindParam(param.Pattern)
		params[i] = Argument{Name: name, Type: param.Type, Convention: In}
		prefix = append(prefix, lets...)
	}
	captures := make([]Capture, len(d.Captures))
	for i, c := range d.Captures {
		captures[i] = Capture{Name: c.Name, Type: c.Type}
	}
	typeCaptures := closureGenerics(e, d)

	env := &Struct{
		Name:     p.tags.Synthetic(fmt.Sprintf("_Env%d", p.envs)),
		Generics: typeCaptures,
		Span:     e.Span,
	}
	p.envs++
	for _, g := range typeCaptures {
		env.Fields = append(env.Fields, Field{Name: g.Mangle(), Type: typecheck.TypeType()})
	}
	for _, c := range captures {
		env.Fields = append(env.Fields, Field{Name: c.Name.Mangle(), Type: c.Type})
	}
	p.addStruct(env)

	return ClosureData{
		Params:       params,
		Body:         wrap(prefix, p.expr(d.Body)),
		Result:       d.Body.Type,
		Captures:     captures,
		TypeCaptures: typeCaptures,
		Env:          env,
	}
}

// closureGenerics lists the generics a closure body depends on: those in
// its captures, parameters and result first, then any other met inside.
func closureGenerics(e *typecheck.Expr, d typecheck.ClosureData) []symbols.Identifier {
	var gs []symbols.Identifier
	for _, c := range d.Captures {
		gs = typecheck.Generics(c.Type, gs)
	}
	gs = typecheck.Generics(e.Type, gs)
	var walk func(x *typecheck.Expr)
	walk = func(x *typecheck.Expr) {
		gs = typecheck.Generics(x.Type, gs)
		switch xd := x.Data.(type) {
		case typecheck.CallDirectData:
			for _, g := range xd.Generics {
				gs = typecheck.Generics(g, gs)
			}
			for _, a := range xd.Args {
				walk(a)
			}
		case typecheck.CallClosureData:
			walk(xd.Callee)
			for _, a := range xd.Args {
				walk(a)
			}
		case typecheck.OperationData:
			walk(xd.Left)
			walk(xd.Right)
		case typecheck.StructLiteralData:
			for _, f := range xd.Fields {
				walk(f.Value)
			}
		case typecheck.BlockData:
			for _, l := range xd.Lets {
				walk(l.Value)
			}
			walk(xd.Result)
		case typecheck.IfData:
			walk(xd.Cond)
			walk(xd.Then)
			walk(xd.Else)
		case typecheck.ClosureData:
			walk(xd.Body)
		}
	}
	walk(d.Body)
	return gs
}
