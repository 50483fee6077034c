package ast

import "keel/internal/source"

type ExprKind uint8

const (
	ExprLiteral ExprKind = iota + 1
	ExprVariable
	ExprCall
	ExprOperation
	ExprStructLiteral
	ExprBlock
	ExprAnnotated
	ExprCase
	ExprIf
	ExprClosure
)

func (k ExprKind) String() string {
	switch k {
	case ExprLiteral:
		return "Literal"
	case ExprVariable:
		return "Variable"
	case ExprCall:
		return "Call"
	case ExprOperation:
		return "Operation"
	case ExprStructLiteral:
		return "StructLiteral"
	case ExprBlock:
		return "Block"
	case ExprAnnotated:
		return "Annotated"
	case ExprCase:
		return "Case"
	case ExprIf:
		return "If"
	case ExprClosure:
		return "Closure"
	default:
		return "Unknown"
	}
}

type Expr struct {
	Kind    ExprKind
	Span    source.Span
	Payload PayloadID
}

type LiteralKind uint8

const (
	LitNumber LiteralKind = iota + 1
	LitBool
)

type ExprLiteralData struct {
	Kind   LiteralKind
	Number float64
	Bool   bool
	Text   string
}

type ExprVariableData struct {
	Name source.StringID
}

type ExprCallData struct {
	Callee ExprID
	Args   []ExprID
}

// Operator is a built-in binary operator.
type Operator uint8

const (
	OpAdd Operator = iota + 1
	OpSub
	OpMul
	OpLess
)

func (op Operator) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpLess:
		return "<"
	default:
		return "?"
	}
}

type ExprOperationData struct {
	Op    Operator
	Left  ExprID
	Right ExprID
}

type FieldInit struct {
	Name  source.StringID
	Span  source.Span
	Value ExprID
}

type ExprStructLiteralData struct {
	Name     source.StringID
	NameSpan source.Span
	Fields   []FieldInit
}

// LetBinding is `let pattern = value;` inside a block.
type LetBinding struct {
	Pattern PatternID
	Value   ExprID
	Span    source.Span
}

type ExprBlockData struct {
	Lets   []LetBinding
	Result ExprID
}

type ExprAnnotatedData struct {
	Value ExprID
	Type  TypeID
}

type CaseArm struct {
	Pattern PatternID
	Body    ExprID
	Span    source.Span
}

type ExprCaseData struct {
	Scrutinee ExprID
	Arms      []CaseArm
}

type ExprIfData struct {
	Cond ExprID
	Then ExprID
	Else ExprID
}

type ExprClosureData struct {
	Params []Param
	Body   ExprID
}
