package ast

import (
	"testing"

	"keel/internal/source"
)

func TestArenaOneBased(t *testing.T) {
	a := NewArena[int](0)
	if a.Get(0) != nil {
		t.Fatal("index 0 must be absent")
	}
	first := a.Allocate(10)
	second := a.Allocate(20)
	if first != 1 || second != 2 {
		t.Fatalf("ids = %d, %d", first, second)
	}
	if *a.Get(second) != 20 {
		t.Fatalf("get = %d", *a.Get(second))
	}
	if a.Get(3) != nil {
		t.Fatal("out of range index returned a value")
	}
}

func TestExprAccessorsCheckKind(t *testing.T) {
	b := NewBuilder(Hints{})
	num := b.Exprs.NewNumber(source.Span{}, "3", 3)
	if _, ok := b.Exprs.Call(num); ok {
		t.Fatal("Call accessor accepted a literal")
	}
	lit, ok := b.Exprs.Literal(num)
	if !ok || lit.Number != 3 || lit.Kind != LitNumber {
		t.Fatalf("literal = %+v, %v", lit, ok)
	}
	call := b.Exprs.NewCall(source.Span{}, num, []ExprID{num})
	data, ok := b.Exprs.Call(call)
	if !ok || data.Callee != num || len(data.Args) != 1 {
		t.Fatalf("call = %+v, %v", data, ok)
	}
}
