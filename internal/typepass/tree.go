package typepass

import (
	"keel/internal/ast"
	"keel/internal/source"
	"keel/internal/symbols"
	"keel/internal/typecheck"
)

// Program is the type-passed tree: generics are ordinary Type-valued
// arguments and struct patterns are gone.
type Program struct {
	Module    uint32
	Structs   []*Struct
	Functions []*Function
}

// Struct is a declaration or a synthesized closure environment.
type Struct struct {
	Name     symbols.Identifier
	Generics []symbols.Identifier
	Fields   []Field
	Span     source.Span
}

type Field struct {
	Name string
	Type *typecheck.Type
}

// StructBuilder describes how to build a struct witness: one witness
// expression per field, written in terms of Arguments.
type StructBuilder struct {
	Name      symbols.Identifier
	Arguments []symbols.Identifier
	Fields    []*Expr
}

// StructBuilders is keyed by struct tag.
type StructBuilders map[symbols.Tag]*StructBuilder

// Convention is how an argument is passed.
type Convention uint8

const (
	In Convention = iota
	Inout
	Out
)

func (c Convention) String() string {
	switch c {
	case In:
		return "in"
	case Inout:
		return "inout"
	case Out:
		return "out"
	default:
		return "?"
	}
}

type Argument struct {
	Name       symbols.Identifier
	Type       *typecheck.Type
	Convention Convention
}

// Function arguments are `_result`, the declared parameters, then one
// Type-valued witness argument per generic.
type Function struct {
	Name      symbols.Identifier
	Arguments []Argument
	Result    *typecheck.Type
	Body      *Expr
	Span      source.Span
}

type ExprKind uint8

const (
	ExprVariable ExprKind = iota
	ExprLiteral
	ExprCallDirect
	ExprCallClosure
	ExprPrimitive
	ExprBlock
	ExprPack
	ExprUnpack
	ExprIf
	ExprClosure
)

func (k ExprKind) String() string {
	switch k {
	case ExprVariable:
		return "Variable"
	case ExprLiteral:
		return "Literal"
	case ExprCallDirect:
		return "CallDirect"
	case ExprCallClosure:
		return "CallClosure"
	case ExprPrimitive:
		return "Primitive"
	case ExprBlock:
		return "Block"
	case ExprPack:
		return "Pack"
	case ExprUnpack:
		return "Unpack"
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
	Type *typecheck.Type
	Span source.Span
	Data ExprData
}

type ExprData interface {
	exprData()
}

type VariableData struct {
	Name symbols.Identifier
}

func (VariableData) exprData() {}

type LiteralData struct {
	Kind   ast.LiteralKind
	Text   string
	Number float64
	Bool   bool
}

func (LiteralData) exprData() {}

// CallDirectData calls a function or a witness constructor by name.
// Witness arguments follow the value arguments.
type CallDirectData struct {
	Function symbols.Identifier
	Args     []*Expr
}

func (CallDirectData) exprData() {}

type CallClosureData struct {
	Callee *Expr
	Args   []*Expr
}

func (CallClosureData) exprData() {}

type PrimitiveData struct {
	Op    ast.Operator
	Left  *Expr
	Right *Expr
}

func (PrimitiveData) exprData() {}

type Let struct {
	Name  symbols.Identifier
	Type  *typecheck.Type
	Value *Expr
}

type BlockData struct {
	Lets   []Let
	Result *Expr
}

func (BlockData) exprData() {}

type PackField struct {
	Name  string
	Value *Expr
}

// PackData builds a struct value; fields are in declaration order.
type PackData struct {
	Struct symbols.Identifier
	Args   []*typecheck.Type
	Fields []PackField
}

func (PackData) exprData() {}

// UnpackData projects one field out of a struct value.
type UnpackData struct {
	Value *Expr
	Field string
}

func (UnpackData) exprData() {}

type IfData struct {
	Cond *Expr
	Then *Expr
	Else *Expr
}

func (IfData) exprData() {}

type Capture struct {
	Name symbols.Identifier
	Type *typecheck.Type
}

// ClosureData keeps everything needed to lift the closure later.
// Env stores TypeCaptures first, then Captures.
type ClosureData struct {
	Params       []Argument
	Body         *Expr
	Result       *typecheck.Type
	Captures     []Capture
	TypeCaptures []symbols.Identifier
	Env          *Struct
}

func (ClosureData) exprData() {}
