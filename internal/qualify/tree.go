package qualify

import (
	"keel/internal/ast"
	"keel/internal/source"
	"keel/internal/symbols"
)

// Program is the qualified form of one source file: every name occurrence
// carries the tag of its declaration.
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
	Name symbols.Identifier
	Type *Type
	Span source.Span
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
	Span    source.Span
}

// TypeKind enumerates qualified type shapes.
type TypeKind uint8

const (
	// TypeNamed is a built-in or a struct, possibly applied to arguments.
	TypeNamed TypeKind = iota + 1
	// TypeGeneric references a generic parameter in scope.
	TypeGeneric
	TypeFunction
)

type Type struct {
	Kind   TypeKind
	Name   symbols.Identifier // Named, Generic
	Args   []*Type            // Named arguments or Function parameters
	Result *Type              // Function only
	Span   source.Span
}

type PatternKind uint8

const (
	PatternVariable PatternKind = iota + 1
	PatternStruct
)

type Pattern struct {
	Kind   PatternKind
	Name   symbols.Identifier // bound variable or struct
	Fields []PatternField
	Span   source.Span
}

type PatternField struct {
	Name    string
	Pattern *Pattern
	Span    source.Span
}

// ExprKind enumerates qualified expression kinds. They mirror the source tree.
type ExprKind uint8

const (
	ExprLiteral ExprKind = iota
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
	Kind ExprKind
	Span source.Span
	Data ExprData
}

// ExprData is the interface for expression-specific data.
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

type CallData struct {
	Callee *Expr
	Args   []*Expr
}

func (CallData) exprData() {}

type OperationData struct {
	Op    ast.Operator
	Left  *Expr
	Right *Expr
}

func (OperationData) exprData() {}

type FieldInit struct {
	Name  string
	Value *Expr
	Span  source.Span
}

type StructLiteralData struct {
	Struct symbols.Identifier
	Fields []FieldInit
}

func (StructLiteralData) exprData() {}

type Let struct {
	Pattern *Pattern
	Value   *Expr
	Span    source.Span
}

type BlockData struct {
	Lets   []Let
	Result *Expr
}

func (BlockData) exprData() {}

type AnnotatedData struct {
	Value *Expr
	Type  *Type
}

func (AnnotatedData) exprData() {}

type Arm struct {
	Pattern *Pattern
	Body    *Expr
	Span    source.Span
}

type CaseData struct {
	Scrutinee *Expr
	Arms      []Arm
}

func (CaseData) exprData() {}

type IfData struct {
	Cond *Expr
	Then *Expr
	Else *Expr
}

func (IfData) exprData() {}

type ClosureData struct {
	Params []Param
	Body   *Expr
}

func (ClosureData) exprData() {}
