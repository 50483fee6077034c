package lower

import (
	"fmt"

	"keel/internal/sizer"
	"keel/internal/typecheck"
	"keel/internal/typepass"
)

// closure lifts the body into `_closure_N(_result, params..., _env)` and
// builds the closure value in dst: the environment is packed (type
// captures first, then value captures) and moved into MakeClosure.
func (f *fn) closure(d sizer.ClosureData, dst *Variable, b *block) {
	l := f.l
	name := fmt.Sprintf("_closure_%d", l.closures)
	l.closures++

	generics := make([]*typecheck.Type, len(d.TypeCaptures))
	for i, tc := range d.TypeCaptures {
		generics[i] = typecheck.Generic(tc.Name)
	}
	envType := typecheck.Named(d.Env.Name, generics...)

	lifted, err := l.lift(name, d, envType)
	if err != nil {
		if l.err == nil {
			l.err = err
		}
		return
	}
	l.pending = append(l.pending, lifted)

	env := f.local(&Variable{
		Name:    f.names.Fresh(),
		Type:    envType,
		Witness: f.witness(d.EnvWitness, b),
		Size:    f.size(d.EnvSize),
	})
	fields := make([]PackField, 0, len(d.Env.Fields))
	for _, v := range d.TypeCaptures {
		fields = append(fields, PackField{Name: v.Name.Mangle(), Value: Value{Kind: ValueCopy, Var: f.lookup(v.Name)}})
	}
	for _, v := range d.Captures {
		fields = append(fields, PackField{Name: v.Name.Mangle(), Value: Value{Kind: ValueCopy, Var: f.lookup(v.Name)}})
	}
	b.emit(Instr{Kind: InstrPack, Pack: PackInstr{Dst: env, Struct: d.Env.Name.Mangle(), Fields: fields}})
	b.emit(Instr{Kind: InstrMakeClosure, MakeClosure: MakeClosureInstr{
		Dst:      dst,
		Function: name,
		Env:      Value{Kind: ValueMove, Var: env},
	}})
}

// lift builds the function behind a closure. `_env` is passed by
// reference; its fields are unpacked into owned locals before the body.
func (l *lowerer) lift(name string, d sizer.ClosureData, envType *typecheck.Type) (*Function, error) {
	g := l.newFn()
	top := &block{}
	env := &Variable{
		Name:    "_env",
		Type:    envType,
		Witness: Witness{Kind: sizer.WitnessTrivial, Size: l.target.PtrSize},
		Size:    Size{Static: l.target.PtrSize},
	}
	for _, v := range d.TypeCaptures {
		tv := g.local(g.define(v, top))
		top.emit(Instr{Kind: InstrUnpack, Unpack: UnpackInstr{Dst: tv, Src: env, Field: v.Name.Mangle()}})
	}
	result := &Variable{
		Name:    "_result",
		Type:    d.Result,
		Witness: g.witness(d.Body.Witness, top),
		Size:    g.size(d.Body.Size),
	}
	args := make([]Argument, 0, len(d.Params)+2)
	args = append(args, Argument{Var: result, Convention: typepass.Out})
	for _, p := range d.Params {
		args = append(args, Argument{Var: g.define(p, top), Convention: typepass.In})
	}
	args = append(args, Argument{Var: env, Convention: typepass.In})
	for _, v := range d.Captures {
		cv := g.local(g.define(v, top))
		top.emit(Instr{Kind: InstrUnpack, Unpack: UnpackInstr{Dst: cv, Src: env, Field: v.Name.Mangle()}})
	}
	g.into(d.Body, result, top, true)
	if l.err != nil {
		return nil, l.err
	}
	return l.finish(g, &Function{
		Name:      name,
		Arguments: args,
		Body:      top.build(),
		Closure:   true,
	})
}
