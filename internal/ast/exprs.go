package ast

import "keel/internal/source"

// Exprs manages allocation of expressions and their per-kind payloads.
type Exprs struct {
	Arena          *Arena[Expr]
	Literals       *Arena[ExprLiteralData]
	Variables      *Arena[ExprVariableData]
	Calls          *Arena[ExprCallData]
	Operations     *Arena[ExprOperationData]
	StructLiterals *Arena[ExprStructLiteralData]
	Blocks         *Arena[ExprBlockData]
	Annotateds     *Arena[ExprAnnotatedData]
	Cases          *Arena[ExprCaseData]
	Ifs            *Arena[ExprIfData]
	Closures       *Arena[ExprClosureData]
}

func NewExprs(capHint uint) *Exprs {
	if capHint == 0 {
		capHint = 1 << 8
	}
	return &Exprs{
		Arena:          NewArena[Expr](capHint),
		Literals:       NewArena[ExprLiteralData](capHint),
		Variables:      NewArena[ExprVariableData](capHint),
		Calls:          NewArena[ExprCallData](capHint),
		Operations:     NewArena[ExprOperationData](capHint),
		StructLiterals: NewArena[ExprStructLiteralData](capHint),
		Blocks:         NewArena[ExprBlockData](capHint),
		Annotateds:     NewArena[ExprAnnotatedData](capHint),
		Cases:          NewArena[ExprCaseData](capHint),
		Ifs:            NewArena[ExprIfData](capHint),
		Closures:       NewArena[ExprClosureData](capHint),
	}
}

func (e *Exprs) new(kind ExprKind, span source.Span, payload PayloadID) ExprID {
	return ExprID(e.Arena.Allocate(Expr{Kind: kind, Span: span, Payload: payload}))
}

func (e *Exprs) Get(id ExprID) *Expr {
	return e.Arena.Get(uint32(id))
}

func (e *Exprs) NewNumber(sp source.Span, text string, value float64) ExprID {
	payload := PayloadID(e.Literals.Allocate(ExprLiteralData{Kind: LitNumber, Number: value, Text: text}))
	return e.new(ExprLiteral, sp, payload)
}

func (e *Exprs) NewBool(sp source.Span, value bool) ExprID {
	text := "False"
	if value {
		text = "True"
	}
	payload := PayloadID(e.Literals.Allocate(ExprLiteralData{Kind: LitBool, Bool: value, Text: text}))
	return e.new(ExprLiteral, sp, payload)
}

func (e *Exprs) NewVariable(sp source.Span, name source.StringID) ExprID {
	payload := PayloadID(e.Variables.Allocate(ExprVariableData{Name: name}))
	return e.new(ExprVariable, sp, payload)
}

func (e *Exprs) NewCall(sp source.Span, callee ExprID, args []ExprID) ExprID {
	payload := PayloadID(e.Calls.Allocate(ExprCallData{Callee: callee, Args: args}))
	return e.new(ExprCall, sp, payload)
}

func (e *Exprs) NewOperation(sp source.Span, op Operator, left, right ExprID) ExprID {
	payload := PayloadID(e.Operations.Allocate(ExprOperationData{Op: op, Left: left, Right: right}))
	return e.new(ExprOperation, sp, payload)
}

func (e *Exprs) NewStructLiteral(sp source.Span, data ExprStructLiteralData) ExprID {
	payload := PayloadID(e.StructLiterals.Allocate(data))
	return e.new(ExprStructLiteral, sp, payload)
}

func (e *Exprs) NewBlock(sp source.Span, lets []LetBinding, result ExprID) ExprID {
	payload := PayloadID(e.Blocks.Allocate(ExprBlockData{Lets: lets, Result: result}))
	return e.new(ExprBlock, sp, payload)
}

func (e *Exprs) NewAnnotated(sp source.Span, value ExprID, typ TypeID) ExprID {
	payload := PayloadID(e.Annotateds.Allocate(ExprAnnotatedData{Value: value, Type: typ}))
	return e.new(ExprAnnotated, sp, payload)
}

func (e *Exprs) NewCase(sp source.Span, scrutinee ExprID, arms []CaseArm) ExprID {
	payload := PayloadID(e.Cases.Allocate(ExprCaseData{Scrutinee: scrutinee, Arms: arms}))
	return e.new(ExprCase, sp, payload)
}

func (e *Exprs) NewIf(sp source.Span, cond, then, els ExprID) ExprID {
	payload := PayloadID(e.Ifs.Allocate(ExprIfData{Cond: cond, Then: then, Else: els}))
	return e.new(ExprIf, sp, payload)
}

func (e *Exprs) NewClosure(sp source.Span, params []Param, body ExprID) ExprID {
	payload := PayloadID(e.Closures.Allocate(ExprClosureData{Params: params, Body: body}))
	return e.new(ExprClosure, sp, payload)
}

func (e *Exprs) Literal(id ExprID) (*ExprLiteralData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprLiteral {
		return nil, false
	}
	return e.Literals.Get(uint32(expr.Payload)), true
}

func (e *Exprs) Variable(id ExprID) (*ExprVariableData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprVariable {
		return nil, false
	}
	return e.Variables.Get(uint32(expr.Payload)), true
}

func (e *Exprs) Call(id ExprID) (*ExprCallData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprCall {
		return nil, false
	}
	return e.Calls.Get(uint32(expr.Payload)), true
}

func (e *Exprs) Operation(id ExprID) (*ExprOperationData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprOperation {
		return nil, false
	}
	return e.Operations.Get(uint32(expr.Payload)), true
}

func (e *Exprs) StructLiteral(id ExprID) (*ExprStructLiteralData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprStructLiteral {
		return nil, false
	}
	return e.StructLiterals.Get(uint32(expr.Payload)), true
}

func (e *Exprs) Block(id ExprID) (*ExprBlockData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprBlock {
		return nil, false
	}
	return e.Blocks.Get(uint32(expr.Payload)), true
}

func (e *Exprs) Annotated(id ExprID) (*ExprAnnotatedData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprAnnotated {
		return nil, false
	}
	return e.Annotateds.Get(uint32(expr.Payload)), true
}

func (e *Exprs) Case(id ExprID) (*ExprCaseData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprCase {
		return nil, false
	}
	return e.Cases.Get(uint32(expr.Payload)), true
}

func (e *Exprs) If(id ExprID) (*ExprIfData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprIf {
		return nil, false
	}
	return e.Ifs.Get(uint32(expr.Payload)), true
}

func (e *Exprs) Closure(id ExprID) (*ExprClosureData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprClosure {
		return nil, false
	}
	return e.Closures.Get(uint32(expr.Payload)), true
}
