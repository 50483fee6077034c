package typecheck

import (
	"keel/internal/ast"
	"keel/internal/source"
	"keel/internal/symbols"
)

// Program is the typed tree. Every Type in it is free of unification cells.
type Program struct {
	Module    uint32
	Structs   []*Struct
	Functions []*Function
}

type Struct struct {
	Name     symbols.Identifier
	Generics []symbols.Identifier
	Fields   []Field
	Span     source.Span
}

type Field struct {
	Name string
	Type *Type
}

type Function struct {
	Name     symbols.Identifier
	Generics []symbols.Identifier
	Params   []Param
	Result   *Type
	Body     *Expr
	Span     source.Span
}

type Param struct {
	Pattern *Pattern
	Type    *Type
}

type PatternKind uint8

const (
	PatternVariable PatternKind = iota + 1
	PatternStruct
)

type Pattern struct {
	Kind   PatternKind
	Name   symbols.Identifier // variable or struct
	Type   *Type
	Fields []PatternField // declaration order
	Span   source.Span
}

type PatternField struct {
	Name    string
	Pattern *Pattern
}

type ExprKind uint8

const (
	ExprLiteral ExprKind = iota
	ExprVariable
	// ExprCallDirect calls a top-level function by name.
	ExprCallDirect
	// ExprCallClosure calls a function-typed value.
	ExprCallClosure
	ExprOperation
	ExprStructLiteral
	ExprBlock
	ExprIf
	ExprClosure
)

func (k ExprKind) String() string {
	switch k {
	case ExprLiteral:
		return "Literal"
	case ExprVariable:
		return "Variable"
	case ExprCallDirect:
		return "CallDirect"
	case ExprCallClosure:
		return "CallClosure"
	case ExprOperation:
		return "Operation"
	case ExprStructLiteral:
		return "StructLiteral"
	case ExprBlock:
		return "Block"
	case ExprIf:
		return "If"
	case ExprClosure:
		return "Closure"
	default:
		return "Unknown"
	}
}

// Expr is a typed expression. Annotations are erased and `case` is
// rewritten into a block binding its first arm.
type Expr struct {
	Kind ExprKind
	Type *Type
	Span source.Span
	Data ExprData
}

type ExprData interface {
	exprData()
}

type LiteralData struct {
	Kind   ast.LiteralKind
	Text   string
	Number float64
	Bool   bool
}

func (LiteralData) exprData() {}

type VariableData struct {
	Name symbols.Identifier
}

func (VariableData) exprData() {}

type CallDirectData struct {
	Function symbols.Identifier
	// Generics instantiate the callee's generic parameters in declaration order.
	Generics []*Type
	Args     []*Expr
}

func (CallDirectData) exprData() {}

type CallClosureData struct {
	Callee *Expr
	Args   []*Expr
}

func (CallClosureData) exprData() {}

type OperationData struct {
	Op    ast.Operator
	Left  *Expr
	Right *Expr
}

func (OperationData) exprData() {}

type FieldInit struct {
	Name  string
	Value *Expr
}

// StructLiteralData lists fields in declaration order.
type StructLiteralData struct {
	Struct symbols.Identifier
	Args   []*Type
	Fields []FieldInit
}

func (StructLiteralData) exprData() {}

type Let struct {
	Pattern *Pattern
	Value   *Expr
}

type BlockData struct {
	Lets   []Let
	Result *Expr
}

func (BlockData) exprData() {}

type IfData struct {
	Cond *Expr
	Then *Expr
	Else *Expr
}

func (IfData) exprData() {}

// Capture is a local of an enclosing scope referenced inside a closure.
type Capture struct {
	Name symbols.Identifier
	Type *Type
}

type ClosureData struct {
	Params   []Param
	Body     *Expr
	Captures []Capture // first-occurrence order
}

func (ClosureData) exprData() {}
