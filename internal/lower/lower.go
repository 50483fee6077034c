package lower

import (
	"fmt"

	"keel/internal/layout"
	"keel/internal/sizer"
	"keel/internal/symbols"
	"keel/internal/typecheck"
	"keel/internal/typepass"
)

// Lower lowers struct builders, then functions. A lifted closure is
// placed right after the function that creates it.
func Lower(prog *sizer.Program) (*Program, error) {
	l := &lowerer{
		target: prog.Target,
		engine: layout.New(prog.Target),
		out:    &Program{Module: prog.Module, Target: prog.Target},
	}
	for _, s := range prog.Structs {
		st, err := l.strukt(s)
		if err != nil {
			return nil, err
		}
		l.out.Structs = append(l.out.Structs, st)
	}
	for _, fn := range prog.Functions {
		lf, err := l.function(fn)
		if err != nil {
			return nil, err
		}
		l.out.Functions = append(l.out.Functions, lf)
		l.out.Functions = append(l.out.Functions, l.pending...)
		l.pending = l.pending[:0]
	}
	return l.out, nil
}

type lowerer struct {
	target   layout.Target
	engine   *layout.LayoutEngine
	out      *Program
	pending  []*Function
	closures int
	// err is the first failure of a lifted closure.
	err error
}

// fn is the state of one function being lowered.
type fn struct {
	l     *lowerer
	names NameSource
	// vars maps declaration tags to this function's variables.
	vars   map[symbols.Tag]*Variable
	locals []*Variable
	// owned locals may be moved out in tail position.
	owned map[*Variable]bool
}

func (l *lowerer) newFn() *fn {
	return &fn{
		l:     l,
		vars:  make(map[symbols.Tag]*Variable, 16),
		owned: make(map[*Variable]bool, 16),
	}
}

// block collects instructions. Witnesses computed in a block are visible
// to nested blocks and never to siblings.
type block struct {
	instrs    []Instr
	witnesses map[string]*Variable
	parent    *block
}

func (b *block) emit(in Instr) { b.instrs = append(b.instrs, in) }

func (b *block) child() *block { return &block{parent: b} }

func (b *block) cached(key string) (*Variable, bool) {
	for x := b; x != nil; x = x.parent {
		if v, ok := x.witnesses[key]; ok {
			return v, true
		}
	}
	return nil, false
}

func (b *block) remember(key string, v *Variable) {
	if b.witnesses == nil {
		b.witnesses = make(map[string]*Variable, 4)
	}
	b.witnesses[key] = v
}

func (b *block) build() Block { return Block{Instrs: b.instrs} }

func (f *fn) lookup(id symbols.Identifier) *Variable {
	v, ok := f.vars[id.Tag]
	if !ok {
		panic(fmt.Sprintf("lower: variable %s not in scope", id.Mangle()))
	}
	return v
}

// witness lowers w, emitting its computation into b unless an enclosing
// block already has it.
func (f *fn) witness(w sizer.Witness, b *block) Witness {
	switch w.Kind {
	case sizer.WitnessTrivial:
		return Witness{Kind: w.Kind, Size: w.Size}
	case sizer.WitnessType:
		return Witness{Kind: w.Kind}
	}
	if v, ok := b.cached(w.Key); ok {
		return Witness{Kind: sizer.WitnessDynamic, Location: v}
	}
	loc := f.operand(w.Value, b)
	b.remember(w.Key, loc)
	return Witness{Kind: sizer.WitnessDynamic, Location: loc}
}

func (f *fn) size(s sizer.Size) Size {
	out := Size{Static: s.Static}
	for _, v := range s.Dynamic {
		out.Dynamic = append(out.Dynamic, f.lookup(v.Name))
	}
	return out
}

func (f *fn) newVar(name string, t *typecheck.Type, w sizer.Witness, s sizer.Size, b *block) *Variable {
	return &Variable{Name: name, Type: t, Witness: f.witness(w, b), Size: f.size(s)}
}

// local registers an owned variable of the frame.
func (f *fn) local(v *Variable) *Variable {
	f.locals = append(f.locals, v)
	f.owned[v] = true
	return v
}

func (f *fn) define(v *sizer.Variable, b *block) *Variable {
	lv := f.newVar(v.Name.Mangle(), v.Type, v.Witness, v.Size, b)
	f.vars[v.Name.Tag] = lv
	return lv
}

func (f *fn) temp(e *sizer.Expr, b *block) *Variable {
	return f.local(f.newVar(f.names.Fresh(), e.Type, e.Witness, e.Size, b))
}

// operand returns a variable holding e. Named values are borrowed.
func (f *fn) operand(e *sizer.Expr, b *block) *Variable {
	if d, ok := e.Data.(sizer.VariableData); ok {
		return f.lookup(d.Var.Name)
	}
	tmp := f.temp(e, b)
	f.into(e, tmp, b, false)
	return tmp
}

func (f *fn) callArgs(dst *Variable, args []*sizer.Expr, b *block) []CallArg {
	out := make([]CallArg, 0, len(args)+1)
	out = append(out, CallArg{Value: Value{Kind: ValueCopy, Var: dst}, Convention: typepass.Out})
	for _, a := range args {
		out = append(out, CallArg{Value: Value{Kind: ValueCopy, Var: f.operand(a, b)}, Convention: typepass.In})
	}
	return out
}

// into writes the value of e into dst. In tail position an owned local
// is moved instead of copied.
func (f *fn) into(e *sizer.Expr, dst *Variable, b *block, tail bool) {
	switch d := e.Data.(type) {
	case sizer.VariableData:
		src := f.lookup(d.Var.Name)
		if tail && f.owned[src] {
			b.emit(Instr{Kind: InstrMove, Move: MoveInstr{Dst: dst, Src: src}})
			return
		}
		b.emit(Instr{Kind: InstrCopy, Copy: CopyInstr{Dst: dst, Src: src}})
	case sizer.LiteralData:
		b.emit(Instr{Kind: InstrSet, Set: SetInstr{Dst: dst, Value: Literal(d)}})
	case sizer.PrimitiveData:
		left := f.operand(d.Left, b)
		right := f.operand(d.Right, b)
		b.emit(Instr{Kind: InstrPrimitive, Primitive: PrimitiveInstr{Dst: dst, Op: d.Op, Left: left, Right: right}})
	case sizer.CallDirectData:
		args := f.callArgs(dst, d.Args, b)
		b.emit(Instr{Kind: InstrCallDirect, CallDirect: CallDirectInstr{Function: d.Function.Mangle(), Args: args}})
	case sizer.CallClosureData:
		callee := f.operand(d.Callee, b)
		args := f.callArgs(dst, d.Args, b)
		b.emit(Instr{Kind: InstrCallClosure, CallClosure: CallClosureInstr{Closure: callee, Args: args}})
	case sizer.BlockData:
		for _, l := range d.Lets {
			lv := f.local(f.define(l.Var, b))
			f.into(l.Value, lv, b, false)
		}
		f.into(d.Result, dst, b, tail)
	case sizer.PackData:
		fields := make([]PackField, len(d.Fields))
		for i, fd := range d.Fields {
			if vd, ok := fd.Value.Data.(sizer.VariableData); ok {
				fields[i] = PackField{Name: fd.Name, Value: Value{Kind: ValueCopy, Var: f.lookup(vd.Var.Name)}}
				continue
			}
			tmp := f.temp(fd.Value, b)
			f.into(fd.Value, tmp, b, false)
			fields[i] = PackField{Name: fd.Name, Value: Value{Kind: ValueMove, Var: tmp}}
		}
		b.emit(Instr{Kind: InstrPack, Pack: PackInstr{Dst: dst, Struct: d.Struct.Mangle(), Fields: fields}})
	case sizer.UnpackData:
		src := f.operand(d.Value, b)
		b.emit(Instr{Kind: InstrUnpack, Unpack: UnpackInstr{Dst: dst, Src: src, Field: d.Field}})
	case sizer.IfData:
		cond := f.operand(d.Cond, b)
		then, els := b.child(), b.child()
		f.into(d.Then, dst, then, tail)
		f.into(d.Else, dst, els, tail)
		b.emit(Instr{Kind: InstrIf, If: IfInstr{Dst: dst, Cond: cond, Then: then.build(), Else: els.build()}})
	case sizer.ClosureData:
		f.closure(d, dst, b)
	default:
		panic(fmt.Sprintf("lower: unexpected expression kind %s", e.Kind))
	}
}

func isType(v *sizer.Variable) bool { return v.Witness.Kind == sizer.WitnessType }

func (l *lowerer) function(sf *sizer.Function) (*Function, error) {
	f := l.newFn()
	top := &block{}
	args := make([]Argument, len(sf.Arguments))
	// witness arguments first: the others' witnesses are built from them
	for pass := 0; pass < 2; pass++ {
		for i, a := range sf.Arguments {
			if isType(a.Var) != (pass == 0) {
				continue
			}
			args[i] = Argument{Var: f.define(a.Var, top), Convention: a.Convention}
		}
	}
	f.into(sf.Body, args[0].Var, top, true)
	if l.err != nil {
		return nil, l.err
	}
	return l.finish(f, &Function{
		Name:      sf.Name.Mangle(),
		Arguments: args,
		Body:      top.build(),
		Span:      sf.Span,
	})
}

func (l *lowerer) finish(f *fn, out *Function) (*Function, error) {
	out.Locals = f.locals
	out.Names = f.names
	slots := make([]layout.Slot, len(f.locals))
	for i, v := range f.locals {
		slots[i] = slot(v.Name, v.Size)
	}
	frame, err := l.engine.Frame(out.Name, slots)
	if err != nil {
		return nil, &Error{Kind: ErrLayout, Function: out.Name, Err: err}
	}
	out.Frame = frame
	return out, nil
}

func slot(name string, s Size) layout.Slot {
	sl := layout.Slot{Name: name, Static: s.Static}
	for _, d := range s.Dynamic {
		sl.Dynamic = append(sl.Dynamic, d.Name)
	}
	return sl
}

// strukt lowers the witness builder of a struct.
func (l *lowerer) strukt(s *sizer.Struct) (*Struct, error) {
	f := l.newFn()
	top := &block{}
	result := &Variable{
		Name:    "_result",
		Type:    typecheck.TypeType(),
		Witness: Witness{Kind: sizer.WitnessType},
		Size:    Size{Static: l.target.TypeWitnessSize()},
	}
	args := []Argument{{Var: result, Convention: typepass.Out}}
	for _, a := range s.Arguments {
		args = append(args, Argument{Var: f.define(a, top), Convention: typepass.In})
	}
	fields := make([]Field, len(s.Fields))
	slots := make([]layout.Slot, len(s.Fields))
	for i, fm := range s.Fields {
		fields[i] = Field{Name: fm.Name, Type: fm.Type, Witness: f.witness(fm.Witness, top), Size: f.size(fm.Size)}
		slots[i] = slot(fm.Name, fields[i].Size)
	}
	name := s.Name.Mangle()
	frame, err := l.engine.Struct(name, slots)
	if err != nil {
		return nil, &Error{Kind: ErrLayout, Function: name, Err: err}
	}
	return &Struct{
		Name:      name,
		Arguments: args,
		Body:      top.build(),
		Fields:    fields,
		Layout:    frame,
		Names:     f.names,
	}, nil
}
