package testkit

import (
	"fmt"

	"keel/internal/lower"
	"keel/internal/typepass"
)

// CheckDestroys walks every path through fn and verifies that each local
// with a non-trivial witness is consumed (moved or destroyed) exactly once
// and never mentioned afterwards, and that no argument is destroyed.
func CheckDestroys(fn *lower.Function) error {
	args := make(map[*lower.Variable]bool, len(fn.Arguments))
	for _, a := range fn.Arguments {
		args[a.Var] = true
	}
	for _, path := range paths(fn.Body.Instrs) {
		if err := checkPath(fn, path, args); err != nil {
			return err
		}
	}
	return nil
}

func paths(instrs []lower.Instr) [][]lower.Instr {
	out := [][]lower.Instr{nil}
	for _, in := range instrs {
		if in.Kind != lower.InstrIf {
			for i := range out {
				out[i] = append(out[i], in)
			}
			continue
		}
		var next [][]lower.Instr
		for _, branch := range [][]lower.Instr{in.If.Then.Instrs, in.If.Else.Instrs} {
			for _, tail := range paths(branch) {
				for _, head := range out {
					p := append(append([]lower.Instr(nil), head...), tail...)
					next = append(next, p)
				}
			}
		}
		out = next
	}
	return out
}

func consumed(in *lower.Instr) []*lower.Variable {
	var out []*lower.Variable
	values := func(vs ...lower.Value) {
		for _, v := range vs {
			if v.Kind == lower.ValueMove {
				out = append(out, v.Var)
			}
		}
	}
	switch in.Kind {
	case lower.InstrMove:
		out = append(out, in.Move.Src)
	case lower.InstrDestroy:
		out = append(out, in.Destroy.Var)
	case lower.InstrPack:
		for _, f := range in.Pack.Fields {
			values(f.Value)
		}
	case lower.InstrMakeClosure:
		values(in.MakeClosure.Env)
	case lower.InstrCallDirect:
		for _, a := range in.CallDirect.Args {
			if a.Convention != typepass.Out {
				values(a.Value)
			}
		}
	case lower.InstrCallClosure:
		for _, a := range in.CallClosure.Args {
			if a.Convention != typepass.Out {
				values(a.Value)
			}
		}
	}
	return out
}

func checkPath(fn *lower.Function, path []lower.Instr, args map[*lower.Variable]bool) error {
	count := make(map[*lower.Variable]int)
	mentioned := make(map[*lower.Variable]bool)
	for i := range path {
		in := &path[i]
		for _, v := range lower.Operands(in) {
			if count[v] > 0 {
				return fmt.Errorf("%s: %s used after it was consumed", fn.Name, v.Name)
			}
			mentioned[v] = true
			if w := v.Witness.Location; w != nil && count[w] > 0 {
				return fmt.Errorf("%s: witness %s of %s already destroyed", fn.Name, w.Name, v.Name)
			}
		}
		for _, v := range consumed(in) {
			if in.Kind == lower.InstrDestroy && args[v] {
				return fmt.Errorf("%s: argument %s destroyed", fn.Name, v.Name)
			}
			count[v]++
		}
	}
	for _, v := range fn.Locals {
		if !mentioned[v] || v.Witness.IsTrivial() {
			continue
		}
		if count[v] != 1 {
			return fmt.Errorf("%s: %s consumed %d times on a path", fn.Name, v.Name, count[v])
		}
	}
	return nil
}
