package refcount

import (
	"keel/internal/lower"
	"keel/internal/sizer"
	"keel/internal/typepass"
)

// usage is what one instruction does to variables, If branches excluded.
// Reads include the witness locations of every dynamic operand.
type usage struct {
	reads  []*lower.Variable
	writes []*lower.Variable
	moves  []*lower.Variable
}

func witnessOf(v *lower.Variable) *lower.Variable {
	if v.Witness.Kind == sizer.WitnessDynamic {
		return v.Witness.Location
	}
	return nil
}

func (u *usage) value(v lower.Value) {
	if v.Kind == lower.ValueMove {
		u.moves = append(u.moves, v.Var)
		return
	}
	u.reads = append(u.reads, v.Var)
}

func (u *usage) call(args []lower.CallArg) {
	for _, a := range args {
		if a.Convention == typepass.Out {
			u.writes = append(u.writes, a.Value.Var)
			continue
		}
		u.value(a.Value)
	}
}

func usageOf(in *lower.Instr) usage {
	var u usage
	switch in.Kind {
	case lower.InstrSet:
		u.writes = append(u.writes, in.Set.Dst)
	case lower.InstrCopy:
		u.writes = append(u.writes, in.Copy.Dst)
		u.reads = append(u.reads, in.Copy.Src)
	case lower.InstrMove:
		u.writes = append(u.writes, in.Move.Dst)
		u.moves = append(u.moves, in.Move.Src)
	case lower.InstrDestroy:
		u.moves = append(u.moves, in.Destroy.Var)
	case lower.InstrPrimitive:
		u.writes = append(u.writes, in.Primitive.Dst)
		u.reads = append(u.reads, in.Primitive.Left, in.Primitive.Right)
	case lower.InstrCallDirect:
		u.call(in.CallDirect.Args)
	case lower.InstrCallClosure:
		u.reads = append(u.reads, in.CallClosure.Closure)
		u.call(in.CallClosure.Args)
	case lower.InstrPack:
		u.writes = append(u.writes, in.Pack.Dst)
		for _, f := range in.Pack.Fields {
			u.value(f.Value)
		}
	case lower.InstrUnpack:
		u.writes = append(u.writes, in.Unpack.Dst)
		u.reads = append(u.reads, in.Unpack.Src)
	case lower.InstrMakeClosure:
		u.writes = append(u.writes, in.MakeClosure.Dst)
		u.value(in.MakeClosure.Env)
	case lower.InstrIf:
		u.writes = append(u.writes, in.If.Dst)
		u.reads = append(u.reads, in.If.Cond)
	}
	var wit []*lower.Variable
	for _, group := range [][]*lower.Variable{u.writes, u.reads, u.moves} {
		for _, v := range group {
			if w := witnessOf(v); w != nil {
				wit = append(wit, w)
			}
		}
	}
	u.reads = append(u.reads, wit...)
	return u
}

// free lists the variables a block uses but does not write, at any depth,
// in first-use order, and those among them it moves.
func free(b lower.Block) (uses, moves []*lower.Variable) {
	written := make(map[*lower.Variable]bool)
	seen := make(map[*lower.Variable]bool)
	movedSeen := make(map[*lower.Variable]bool)
	lower.Walk(b, func(in *lower.Instr) {
		u := usageOf(in)
		for _, v := range u.writes {
			written[v] = true
		}
		for _, v := range u.reads {
			if !seen[v] {
				seen[v] = true
				uses = append(uses, v)
			}
		}
		for _, v := range u.moves {
			if !seen[v] {
				seen[v] = true
				uses = append(uses, v)
			}
			if !movedSeen[v] {
				movedSeen[v] = true
				moves = append(moves, v)
			}
		}
	})
	return without(uses, written), without(moves, written)
}

func without(vs []*lower.Variable, drop map[*lower.Variable]bool) []*lower.Variable {
	out := vs[:0]
	for _, v := range vs {
		if !drop[v] {
			out = append(out, v)
		}
	}
	return out
}

func contains(vs []*lower.Variable, v *lower.Variable) bool {
	for _, x := range vs {
		if x == v {
			return true
		}
	}
	return false
}
