package lower

import (
	"errors"
	"fmt"

	"keel/internal/sizer"
	"keel/internal/typepass"
)

// Validate checks IR invariants of every function.
// Returns error if any invariant is violated.
func Validate(prog *Program) error {
	if prog == nil {
		return nil
	}
	var errs []error
	seen := make(map[string]bool, len(prog.Functions))
	for _, fn := range prog.Functions {
		if seen[fn.Name] {
			errs = append(errs, fmt.Errorf("function %s defined twice", fn.Name))
		}
		seen[fn.Name] = true
		if err := ValidateFunction(fn); err != nil {
			errs = append(errs, &Error{Kind: ErrInvalid, Function: fn.Name, Err: err})
		}
	}
	return errors.Join(errs...)
}

// ValidateFunction checks one function.
func ValidateFunction(fn *Function) error {
	var errs []error
	if len(fn.Arguments) == 0 || fn.Arguments[0].Convention != typepass.Out {
		errs = append(errs, errors.New("first argument must be the out result"))
	}
	names := make(map[string]bool, len(fn.Arguments)+len(fn.Locals))
	for _, a := range fn.Arguments {
		if names[a.Var.Name] {
			errs = append(errs, fmt.Errorf("duplicate variable %s", a.Var.Name))
		}
		names[a.Var.Name] = true
	}
	for _, v := range fn.Locals {
		if names[v.Name] {
			errs = append(errs, fmt.Errorf("duplicate variable %s", v.Name))
		}
		names[v.Name] = true
		if _, ok := fn.Frame.Lookup(v.Name); !ok {
			errs = append(errs, fmt.Errorf("local %s has no frame slot", v.Name))
		}
	}
	Walk(fn.Body, func(in *Instr) {
		if err := validateInstr(in); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", in.Kind, err))
		}
	})
	return errors.Join(errs...)
}

func validateInstr(in *Instr) error {
	var errs []error
	for _, v := range Operands(in) {
		if v == nil {
			errs = append(errs, errors.New("nil operand"))
			continue
		}
		if v.Witness.Kind == sizer.WitnessDynamic && v.Witness.Location == nil {
			errs = append(errs, fmt.Errorf("%s: dynamic witness without location", v.Name))
		}
	}
	switch in.Kind {
	case InstrCallDirect:
		errs = append(errs, validateCallArgs(in.CallDirect.Args))
	case InstrCallClosure:
		errs = append(errs, validateCallArgs(in.CallClosure.Args))
	case InstrDestroy:
		if in.Destroy.Var != nil && in.Destroy.Var.Witness.IsTrivial() {
			errs = append(errs, fmt.Errorf("destroy of trivial %s", in.Destroy.Var.Name))
		}
	}
	return errors.Join(errs...)
}

func validateCallArgs(args []CallArg) error {
	if len(args) == 0 || args[0].Convention != typepass.Out {
		return errors.New("call without out result")
	}
	for _, a := range args[1:] {
		if a.Convention == typepass.Out {
			return errors.New("more than one out argument")
		}
	}
	return nil
}

// Walk visits instructions in order, descending into If branches after
// the If itself.
func Walk(b Block, visit func(*Instr)) {
	for i := range b.Instrs {
		in := &b.Instrs[i]
		visit(in)
		if in.Kind == InstrIf {
			Walk(in.If.Then, visit)
			Walk(in.If.Else, visit)
		}
	}
}

// Operands lists every variable an instruction mentions, branches excluded.
func Operands(in *Instr) []*Variable {
	switch in.Kind {
	case InstrSet:
		return []*Variable{in.Set.Dst}
	case InstrCopy:
		return []*Variable{in.Copy.Dst, in.Copy.Src}
	case InstrMove:
		return []*Variable{in.Move.Dst, in.Move.Src}
	case InstrDestroy:
		return []*Variable{in.Destroy.Var}
	case InstrPrimitive:
		return []*Variable{in.Primitive.Dst, in.Primitive.Left, in.Primitive.Right}
	case InstrCallDirect:
		return argVars(in.CallDirect.Args)
	case InstrCallClosure:
		return append(argVars(in.CallClosure.Args), in.CallClosure.Closure)
	case InstrPack:
		out := []*Variable{in.Pack.Dst}
		for _, f := range in.Pack.Fields {
			out = append(out, f.Value.Var)
		}
		return out
	case InstrUnpack:
		return []*Variable{in.Unpack.Dst, in.Unpack.Src}
	case InstrMakeClosure:
		return []*Variable{in.MakeClosure.Dst, in.MakeClosure.Env.Var}
	case InstrIf:
		return []*Variable{in.If.Dst, in.If.Cond}
	}
	return nil
}

func argVars(args []CallArg) []*Variable {
	out := make([]*Variable, len(args))
	for i, a := range args {
		out[i] = a.Value.Var
	}
	return out
}
