// Package refcount inserts Destroy instructions into lowered functions.
//
// Every owned value with a non-trivial witness is destroyed exactly once on
// each path: right after its last use, at the start of a branch that never
// reads it, or right after a write nobody reads. Out arguments, borrowed In
// arguments and values consumed by Move are left alone. Witness variables
// outlive the values they describe.
package refcount

import (
	"keel/internal/lower"
	"keel/internal/sizer"
	"keel/internal/typepass"
)

// Function returns a copy of fn whose body carries Destroy instructions.
// Bodies that write a variable twice, read it before it is written or use
// it after a move are rejected with *Error.
func Function(fn *lower.Function) (*lower.Function, error) {
	avail := varSet{}
	keep := varSet{}
	for _, a := range fn.Arguments {
		if a.Convention == typepass.Out {
			keep[a.Var] = true
			continue
		}
		avail[a.Var] = true
	}
	c := &counter{fn: fn.Name}
	body, err := c.block(fn.Body, avail, keep, nil)
	if err != nil {
		return nil, err
	}
	out := *fn
	out.Body = body
	return &out, nil
}

// Program runs Function over every function of prog in order.
func Program(prog *lower.Program) (*lower.Program, error) {
	out := *prog
	out.Functions = make([]*lower.Function, len(prog.Functions))
	for i, fn := range prog.Functions {
		counted, err := Function(fn)
		if err != nil {
			return nil, err
		}
		out.Functions[i] = counted
	}
	return &out, nil
}

type varSet map[*lower.Variable]bool

func (s varSet) clone() varSet {
	out := make(varSet, len(s))
	for v := range s {
		out[v] = true
	}
	return out
}

type counter struct {
	fn string
}

func (c *counter) fail(kind ErrorKind, v *lower.Variable) error {
	return &Error{Kind: kind, Function: c.fn, Variable: v.Name}
}

// step is one instruction's usage; branch lists outer variables used
// inside an If.
type step struct {
	usage
	branch []*lower.Variable
}

func (s *step) uses() []*lower.Variable {
	out := make([]*lower.Variable, 0, len(s.reads)+len(s.moves)+len(s.branch))
	out = append(out, s.reads...)
	out = append(out, s.moves...)
	return append(out, s.branch...)
}

func isWitness(v *lower.Variable) bool { return v.Witness.Kind == sizer.WitnessType }

// block counts b. avail holds variables readable on entry, keep those the
// block must not destroy, handed those it owns on entry.
func (c *counter) block(b lower.Block, avail, keep varSet, handed []*lower.Variable) (lower.Block, error) {
	n := len(b.Instrs)
	steps := make([]step, n)
	live := avail.clone()
	for _, v := range handed {
		live[v] = true
	}
	moved := varSet{}
	movedHere := varSet{}
	written := make(map[*lower.Variable]int)
	var order []*lower.Variable
	entry := make(map[int]varSet)

	use := func(v *lower.Variable) error {
		if moved[v] {
			return c.fail(ErrUseAfterMove, v)
		}
		if !live[v] {
			return c.fail(ErrReadBeforeWrite, v)
		}
		return nil
	}

	for i := range b.Instrs {
		in := &b.Instrs[i]
		s := step{usage: usageOf(in)}
		var branchMoves []*lower.Variable
		if in.Kind == lower.InstrIf {
			entry[i] = live.clone()
			tu, tm := free(in.If.Then)
			eu, em := free(in.If.Else)
			s.branch = union(tu, eu)
			branchMoves = union(tm, em)
		}
		for _, v := range s.reads {
			if err := use(v); err != nil {
				return lower.Block{}, err
			}
		}
		for _, v := range s.branch {
			if err := use(v); err != nil {
				return lower.Block{}, err
			}
		}
		for _, v := range s.moves {
			if err := use(v); err != nil {
				return lower.Block{}, err
			}
			moved[v] = true
			movedHere[v] = true
			delete(live, v)
		}
		for _, v := range branchMoves {
			moved[v] = true
			delete(live, v)
		}
		for _, v := range s.writes {
			if live[v] || moved[v] {
				return lower.Block{}, c.fail(ErrWriteTwice, v)
			}
			live[v] = true
			written[v] = i
			order = append(order, v)
		}
		steps[i] = s
	}

	last := make(map[*lower.Variable]int)
	for i := range steps {
		for _, v := range steps[i].uses() {
			last[v] = i
		}
	}

	var owned []*lower.Variable
	for _, v := range append(append([]*lower.Variable(nil), handed...), order...) {
		if keep[v] || movedHere[v] || v.Witness.IsTrivial() {
			continue
		}
		owned = append(owned, v)
	}

	// at[k] is destroyed right before original instruction k.
	at := make([][]*lower.Variable, n+1)
	hand := make(map[int][]*lower.Variable)
	destroyedAt := make(map[*lower.Variable]int)
	place := func(v *lower.Variable, k int) {
		at[k] = append(at[k], v)
		destroyedAt[v] = k
	}
	// deadAt is where an unused variable dies: after its write, or on entry.
	deadAt := func(v *lower.Variable) int {
		if w, ok := written[v]; ok {
			return w + 1
		}
		return 0
	}
	handable := func(v *lower.Variable, i int) bool {
		return b.Instrs[i].Kind == lower.InstrIf && contains(steps[i].branch, v)
	}

	for _, v := range owned {
		if isWitness(v) {
			continue
		}
		i, used := last[v]
		switch {
		case !used:
			place(v, deadAt(v))
		case handable(v, i):
			hand[i] = append(hand[i], v)
		default:
			place(v, i+1)
		}
	}

	// witnesses wait for every value they describe
	for _, v := range owned {
		if !isWitness(v) {
			continue
		}
		i, used := last[v]
		k := deadAt(v)
		if used {
			k = i + 1
		}
		latest := -1
		for d, dk := range destroyedAt {
			if witnessOf(d) == v && dk > latest {
				latest = dk
			}
		}
		if used && handable(v, i) && latest <= i && witnessOf(b.Instrs[i].If.Dst) != v {
			hand[i] = append(hand[i], v)
			continue
		}
		if latest > k {
			k = latest
		}
		place(v, k)
	}

	total := n
	for _, vs := range at {
		total += len(vs)
	}
	out := make([]lower.Instr, 0, total)
	for k := 0; k <= n; k++ {
		for _, v := range at[k] {
			out = append(out, lower.Instr{Kind: lower.InstrDestroy, Destroy: lower.DestroyInstr{Var: v}})
		}
		if k == n {
			break
		}
		in := b.Instrs[k]
		if in.Kind == lower.InstrIf {
			branchKeep := keep.clone()
			branchKeep[in.If.Dst] = true
			then, err := c.block(in.If.Then, entry[k], branchKeep, hand[k])
			if err != nil {
				return lower.Block{}, err
			}
			els, err := c.block(in.If.Else, entry[k], branchKeep, hand[k])
			if err != nil {
				return lower.Block{}, err
			}
			in.If.Then, in.If.Else = then, els
		}
		out = append(out, in)
	}
	return lower.Block{Instrs: out}, nil
}

func union(a, b []*lower.Variable) []*lower.Variable {
	out := append([]*lower.Variable(nil), a...)
	for _, v := range b {
		if !contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
