package sizer

import (
	"errors"
	"fmt"

	"keel/internal/layout"
	"keel/internal/source"
	"keel/internal/symbols"
	"keel/internal/typecheck"
	"keel/internal/typepass"
)

// Measure computes struct metadata, then sizes every function body.
// Every expression result gets exactly one witness.
func Measure(prog *typepass.Program, builders typepass.StructBuilders, target layout.Target) (*Program, error) {
	s := &sizer{
		target:  target,
		decls:   make(map[symbols.Tag]*typepass.Struct, len(prog.Structs)),
		metas:   make(map[symbols.Tag]*Struct, len(prog.Structs)),
		vars:    make(map[symbols.Tag]*Variable, 64),
		cache:   make(map[string]entry, 64),
		onStack: make(map[string]int, 8),
		out:     &Program{Module: prog.Module, Target: target},
	}
	for _, st := range prog.Structs {
		s.decls[st.Name.Tag] = st
	}
	for _, st := range prog.Structs {
		meta, err := s.structMeta(st, builders[st.Name.Tag])
		if err != nil {
			return nil, inDefinition(err, st.Name)
		}
		s.metas[st.Name.Tag] = meta
		s.out.Structs = append(s.out.Structs, meta)
	}
	for _, fn := range prog.Functions {
		sf, err := s.function(fn)
		if err != nil {
			return nil, inDefinition(err, fn.Name)
		}
		s.out.Functions = append(s.out.Functions, sf)
	}
	return s.out, nil
}

func inDefinition(err error, name symbols.Identifier) error {
	var se *Error
	if errors.As(err, &se) && se.Definition == "" {
		se.Definition = name.Name
	}
	return err
}

func at(err error, span source.Span) error {
	var se *Error
	if errors.As(err, &se) && se.Span == (source.Span{}) {
		se.Span = span
	}
	return err
}

type entry struct {
	witness Witness
	size    Size
}

type sizer struct {
	target layout.Target
	decls  map[symbols.Tag]*typepass.Struct
	metas  map[symbols.Tag]*Struct
	// vars is flat: tags are unique per run, and a lifted closure scope
	// sees the same declarations as its parent.
	vars map[symbols.Tag]*Variable

	cache   map[string]entry
	stack   []string
	onStack map[string]int

	out *Program
}

func (s *sizer) structMeta(st *typepass.Struct, b *typepass.StructBuilder) (*Struct, error) {
	if b == nil {
		panic(fmt.Sprintf("sizer: struct %s has no builder", st.Name.Mangle()))
	}
	if len(b.Fields) != len(st.Fields) {
		panic(fmt.Sprintf("sizer: builder of %s has %d fields, struct has %d", st.Name.Mangle(), len(b.Fields), len(st.Fields)))
	}
	meta := &Struct{Name: st.Name, Span: st.Span}
	for _, a := range b.Arguments {
		v, err := s.define(a, typecheck.TypeType())
		if err != nil {
			return nil, err
		}
		meta.Arguments = append(meta.Arguments, v)
	}
	meta.Fields = make([]FieldMeta, len(st.Fields))
	for i, f := range st.Fields {
		w, sz, err := s.layoutOf(f.Type)
		if err != nil {
			return nil, at(err, st.Span)
		}
		meta.Fields[i] = FieldMeta{Name: f.Name, Type: f.Type, Witness: w, Size: sz}
	}
	return meta, nil
}

// define binds a variable. A tag seen before keeps its variable.
func (s *sizer) define(name symbols.Identifier, t *typecheck.Type) (*Variable, error) {
	if v, ok := s.vars[name.Tag]; ok {
		return v, nil
	}
	w, sz, err := s.layoutOf(t)
	if err != nil {
		return nil, err
	}
	v := &Variable{Name: name, Type: t, Witness: w, Size: sz}
	s.vars[name.Tag] = v
	return v, nil
}

func (s *sizer) lookup(name symbols.Identifier) *Variable {
	v, ok := s.vars[name.Tag]
	if !ok {
		panic(fmt.Sprintf("sizer: variable %s not in scope", name.Mangle()))
	}
	return v
}

func (s *sizer) function(fn *typepass.Function) (*Function, error) {
	out := &Function{Name: fn.Name, Result: fn.Result, Span: fn.Span}
	vars := make([]*Variable, len(fn.Arguments))
	// witness arguments first: other argument layouts refer to them
	for pass := 0; pass < 2; pass++ {
		for i, a := range fn.Arguments {
			if isType(a.Type) != (pass == 0) {
				continue
			}
			v, err := s.define(a.Name, a.Type)
			if err != nil {
				return nil, at(err, fn.Span)
			}
			vars[i] = v
		}
	}
	out.Arguments = make([]Argument, len(fn.Arguments))
	for i, a := range fn.Arguments {
		out.Arguments[i] = Argument{Var: vars[i], Convention: a.Convention}
	}
	body, err := s.expr(fn.Body)
	if err != nil {
		return nil, err
	}
	out.Body = body
	return out, nil
}

func isType(t *typecheck.Type) bool {
	t = typecheck.Resolve(t)
	return t.Kind == typecheck.TypeNamed && t.Name.Tag == symbols.TagType
}

// layoutOf returns the witness and size of t, memoized by the canonical
// type key.
func (s *sizer) layoutOf(t *typecheck.Type) (Witness, Size, error) {
	t = typecheck.Resolve(t)
	key := t.Key()
	if e, ok := s.cache[key]; ok {
		return e.witness, e.size, nil
	}
	if idx, ok := s.onStack[key]; ok {
		cycle := append(append([]string(nil), s.stack[idx:]...), t.String())
		return Witness{}, Size{}, &Error{Kind: ErrRecursiveUnsized, Type: t.String(), Cycle: cycle}
	}
	s.onStack[key] = len(s.stack)
	s.stack = append(s.stack, t.String())
	w, sz, err := s.computeLayout(t, key)
	s.stack = s.stack[:len(s.stack)-1]
	delete(s.onStack, key)
	if err != nil {
		return Witness{}, Size{}, err
	}
	s.cache[key] = entry{witness: w, size: sz}
	return w, sz, nil
}

func (s *sizer) computeLayout(t *typecheck.Type, key string) (Witness, Size, error) {
	switch t.Kind {
	case typecheck.TypeNamed:
		switch t.Name.Tag {
		case symbols.TagF64, symbols.TagBool:
			return Witness{Kind: WitnessTrivial, Size: 8, Key: key}, Size{Static: 8}, nil
		case symbols.TagType:
			return Witness{Kind: WitnessType, Key: key}, Size{Static: s.target.TypeWitnessSize()}, nil
		}
		return s.structLayout(t, key)
	case typecheck.TypeGeneric:
		v := s.lookup(t.Name)
		value := &Expr{
			Kind:    typepass.ExprVariable,
			Type:    v.Type,
			Witness: v.Witness,
			Size:    v.Size,
			Data:    VariableData{Var: v},
		}
		return Witness{Kind: WitnessDynamic, Value: value, Key: key}, Size{Dynamic: []*Variable{v}}, nil
	case typecheck.TypeFunction:
		value, err := s.expr(typepass.TypeExpr(t))
		if err != nil {
			return Witness{}, Size{}, err
		}
		return Witness{Kind: WitnessDynamic, Value: value, Key: key}, Size{Static: s.target.ClosureSize()}, nil
	}
	panic("sizer: layout of unresolved type " + t.String())
}

func (s *sizer) structLayout(t *typecheck.Type, key string) (Witness, Size, error) {
	decl, ok := s.decls[t.Name.Tag]
	if !ok {
		return Witness{}, Size{}, &Error{Kind: ErrUnknownStruct, Type: t.String()}
	}
	if len(decl.Generics) != len(t.Args) {
		panic(fmt.Sprintf("sizer: %s applied to %d arguments", decl.Name.Mangle(), len(t.Args)))
	}
	sub := make(map[symbols.Tag]*typecheck.Type, len(decl.Generics))
	for i, g := range decl.Generics {
		sub[g.Tag] = t.Args[i]
	}
	var size Size
	trivial := true
	for _, f := range decl.Fields {
		fw, fs, err := s.layoutOf(typecheck.Substitute(f.Type, sub))
		if err != nil {
			return Witness{}, Size{}, err
		}
		size = size.Add(fs)
		trivial = trivial && fw.IsTrivial()
	}
	var w Witness
	if trivial {
		w = Witness{Kind: WitnessTrivial, Size: size.Static, Key: key}
	} else {
		value, err := s.expr(typepass.TypeExpr(t))
		if err != nil {
			return Witness{}, Size{}, err
		}
		w = Witness{Kind: WitnessDynamic, Value: value, Key: key}
	}
	s.out.Instances = append(s.out.Instances, Instance{Struct: decl.Name, Args: t.Args, Witness: w, Size: size})
	return w, size, nil
}

func (s *sizer) exprs(es []*typepass.Expr) ([]*Expr, error) {
	out := make([]*Expr, len(es))
	for i, e := range es {
		se, err := s.expr(e)
		if err != nil {
			return nil, err
		}
		out[i] = se
	}
	return out, nil
}

func (s *sizer) expr(e *typepass.Expr) (*Expr, error) {
	w, sz, err := s.layoutOf(e.Type)
	if err != nil {
		return nil, at(err, e.Span)
	}
	out := &Expr{Kind: e.Kind, Type: e.Type, Witness: w, Size: sz, Span: e.Span}
	switch d := e.Data.(type) {
	case typepass.VariableData:
		out.Data = VariableData{Var: s.lookup(d.Name)}
	case typepass.LiteralData:
		out.Data = LiteralData(d)
	case typepass.CallDirectData:
		args, err := s.exprs(d.Args)
		if err != nil {
			return nil, err
		}
		out.Data = CallDirectData{Function: d.Function, Args: args}
	case typepass.CallClosureData:
		callee, err := s.expr(d.Callee)
		if err != nil {
			return nil, err
		}
		args, err := s.exprs(d.Args)
		if err != nil {
			return nil, err
		}
		out.Data = CallClosureData{Callee: callee, Args: args}
	case typepass.PrimitiveData:
		l, err := s.expr(d.Left)
		if err != nil {
			return nil, err
		}
		r, err := s.expr(d.Right)
		if err != nil {
			return nil, err
		}
		out.Data = PrimitiveData{Op: d.Op, Left: l, Right: r}
	case typepass.BlockData:
		lets := make([]Let, len(d.Lets))
		for i, l := range d.Lets {
			value, err := s.expr(l.Value)
			if err != nil {
				return nil, err
			}
			v, err := s.define(l.Name, l.Type)
			if err != nil {
				return nil, at(err, l.Value.Span)
			}
			lets[i] = Let{Var: v, Value: value}
		}
		result, err := s.expr(d.Result)
		if err != nil {
			return nil, err
		}
		out.Data = BlockData{Lets: lets, Result: result}
	case typepass.PackData:
		fields := make([]PackField, len(d.Fields))
		for i, f := range d.Fields {
			value, err := s.expr(f.Value)
			if err != nil {
				return nil, err
			}
			fields[i] = PackField{Name: f.Name, Value: value}
		}
		out.Data = PackData{Struct: d.Struct, Fields: fields}
	case typepass.UnpackData:
		value, err := s.expr(d.Value)
		if err != nil {
			return nil, err
		}
		out.Data = UnpackData{Value: value, Field: d.Field}
	case typepass.IfData:
		cond, err := s.expr(d.Cond)
		if err != nil {
			return nil, err
		}
		then, err := s.expr(d.Then)
		if err != nil {
			return nil, err
		}
		els, err := s.expr(d.Else)
		if err != nil {
			return nil, err
		}
		// both branches share a type; the then branch supplies it
		out.Witness, out.Size = then.Witness, then.Size
		out.Data = IfData{Cond: cond, Then: then, Else: els}
	case typepass.ClosureData:
		cd, err := s.closure(d)
		if err != nil {
			return nil, err
		}
		out.Data = cd
	default:
		panic(fmt.Sprintf("sizer: unexpected expression kind %s", e.Kind))
	}
	return out, nil
}

func (s *sizer) closure(d typepass.ClosureData) (ClosureData, error) {
	out := ClosureData{Result: d.Result}
	for _, tc := range d.TypeCaptures {
		out.TypeCaptures = append(out.TypeCaptures, s.lookup(tc))
	}
	for _, c := range d.Captures {
		out.Captures = append(out.Captures, s.lookup(c.Name))
	}
	for _, p := range d.Params {
		v, err := s.define(p.Name, p.Type)
		if err != nil {
			return ClosureData{}, err
		}
		out.Params = append(out.Params, v)
	}
	env, ok := s.metas[d.Env.Name.Tag]
	if !ok {
		return ClosureData{}, &Error{Kind: ErrUnknownStruct, Type: d.Env.Name.Mangle()}
	}
	out.Env = env
	args := make([]*typecheck.Type, len(d.TypeCaptures))
	for i, tc := range d.TypeCaptures {
		args[i] = typecheck.Generic(tc)
	}
	w, sz, err := s.layoutOf(typecheck.Named(d.Env.Name, args...))
	if err != nil {
		return ClosureData{}, err
	}
	out.EnvWitness, out.EnvSize = w, sz
	body, err := s.expr(d.Body)
	if err != nil {
		return ClosureData{}, err
	}
	out.Body = body
	return out, nil
}
