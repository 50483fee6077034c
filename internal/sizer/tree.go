package sizer

import (
	"strconv"
	"strings"

	"keel/internal/ast"
	"keel/internal/layout"
	"keel/internal/source"
	"keel/internal/symbols"
	"keel/internal/typecheck"
	"keel/internal/typepass"
)

// WitnessKind says how a value of some type is copied and destroyed.
type WitnessKind uint8

const (
	// WitnessTrivial values are plain bytes of a known size.
	WitnessTrivial WitnessKind = iota + 1
	// WitnessDynamic values need a witness computed at runtime.
	WitnessDynamic
	// WitnessType is the witness of witness values themselves.
	WitnessType
)

func (k WitnessKind) String() string {
	switch k {
	case WitnessTrivial:
		return "Trivial"
	case WitnessDynamic:
		return "Dynamic"
	case WitnessType:
		return "Type"
	default:
		return "?"
	}
}

type Witness struct {
	Kind WitnessKind
	// Size is set for Trivial witnesses.
	Size int
	// Value computes a Dynamic witness.
	Value *Expr
	// Key is the canonical key of the described type.
	Key string
}

func (w Witness) IsTrivial() bool { return w.Kind == WitnessTrivial }

func (w Witness) String() string {
	switch w.Kind {
	case WitnessTrivial:
		return "Trivial(" + strconv.Itoa(w.Size) + ")"
	case WitnessDynamic:
		return "Dynamic(" + ExprString(w.Value) + ")"
	case WitnessType:
		return "Type"
	default:
		return "?"
	}
}

// Size is Static bytes plus the runtime sizes of the Dynamic witness
// variables. Every Dynamic entry is a Type-valued variable.
type Size struct {
	Static  int
	Dynamic []*Variable
}

func (s Size) Add(o Size) Size {
	out := Size{Static: s.Static + o.Static}
	if len(s.Dynamic)+len(o.Dynamic) > 0 {
		out.Dynamic = make([]*Variable, 0, len(s.Dynamic)+len(o.Dynamic))
		out.Dynamic = append(out.Dynamic, s.Dynamic...)
		out.Dynamic = append(out.Dynamic, o.Dynamic...)
	}
	return out
}

func (s Size) IsStatic() bool { return len(s.Dynamic) == 0 }

// DynamicNames returns the mangled names of the dynamic parts.
func (s Size) DynamicNames() []string {
	if len(s.Dynamic) == 0 {
		return nil
	}
	out := make([]string, len(s.Dynamic))
	for i, v := range s.Dynamic {
		out[i] = v.Name.Mangle()
	}
	return out
}

func (s Size) String() string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(s.Static))
	for _, v := range s.Dynamic {
		sb.WriteString(" + ")
		sb.WriteString(v.Name.Mangle())
	}
	return sb.String()
}

// Program is the sized tree: every expression and variable carries a
// witness and a size.
type Program struct {
	Module    uint32
	Target    layout.Target
	Structs   []*Struct
	Functions []*Function
	// Instances lists struct instantiations in first-use order.
	Instances []Instance
}

// Variable is one named value with its layout.
type Variable struct {
	Name    symbols.Identifier
	Type    *typecheck.Type
	Witness Witness
	Size    Size
}

// Struct is the StructMeta of one declaration: witness arguments and the
// layout of every field in terms of them.
type Struct struct {
	Name      symbols.Identifier
	Arguments []*Variable
	Fields    []FieldMeta
	Span      source.Span
}

type FieldMeta struct {
	Name    string
	Type    *typecheck.Type
	Witness Witness
	Size    Size
}

// Instance is a struct applied to concrete or generic arguments.
type Instance struct {
	Struct  symbols.Identifier
	Args    []*typecheck.Type
	Witness Witness
	Size    Size
}

type Argument struct {
	Var        *Variable
	Convention typepass.Convention
}

type Function struct {
	Name      symbols.Identifier
	Arguments []Argument
	Result    *typecheck.Type
	Body      *Expr
	Span      source.Span
}

type Expr struct {
	Kind    typepass.ExprKind
	Type    *typecheck.Type
	Witness Witness
	Size    Size
	Span    source.Span
	Data    ExprData
}

type ExprData interface {
	exprData()
}

type VariableData struct {
	Var *Variable
}

func (VariableData) exprData() {}

type LiteralData struct {
	Kind   ast.LiteralKind
	Text   string
	Number float64
	Bool   bool
}

func (LiteralData) exprData() {}

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
	Var   *Variable
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

type PackData struct {
	Struct symbols.Identifier
	Fields []PackField
}

func (PackData) exprData() {}

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

// ClosureData: Captures and TypeCaptures are the outer variables stored
// in Env, type captures first.
type ClosureData struct {
	Params       []*Variable
	Body         *Expr
	Result       *typecheck.Type
	Captures     []*Variable
	TypeCaptures []*Variable
	Env          *Struct
	// EnvWitness is the witness of the environment struct instance.
	EnvWitness Witness
	EnvSize    Size
}

func (ClosureData) exprData() {}
