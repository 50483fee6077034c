package lower

import (
	"keel/internal/ast"
	"keel/internal/layout"
	"keel/internal/sizer"
	"keel/internal/source"
	"keel/internal/typecheck"
	"keel/internal/typepass"
)

// Program is the lowered IR.
type Program struct {
	Module    uint32
	Target    layout.Target
	Structs   []*Struct
	Functions []*Function
}

// Struct carries the witness builder of a declaration. Arguments are
// `_result` (out) and one witness argument per generic; after Body runs,
// Fields hold the field witnesses the runtime assembles into `_result`.
type Struct struct {
	Name      string
	Arguments []Argument
	Body      Block
	Fields    []Field
	Layout    layout.Frame
	Names     NameSource
}

type Field struct {
	Name    string
	Type    *typecheck.Type
	Witness Witness
	Size    Size
}

type Function struct {
	Name      string
	Arguments []Argument
	Body      Block
	// Frame places every local that is not an argument.
	Frame  layout.Frame
	Locals []*Variable
	Names  NameSource
	Span   source.Span
	// Closure marks lifted closures; their last argument is `_env`.
	Closure bool
}

// Convention mirrors the type-passed argument conventions.
type Convention = typepass.Convention

type Argument struct {
	Var        *Variable
	Convention Convention
}

// Witness of a lowered variable. Dynamic witnesses live in Location.
type Witness struct {
	Kind     sizer.WitnessKind
	Size     int
	Location *Variable
}

func (w Witness) IsTrivial() bool { return w.Kind == sizer.WitnessTrivial }

// Size is Static bytes plus the runtime sizes held by Dynamic witnesses.
type Size struct {
	Static  int
	Dynamic []*Variable
}

// Variable names are unique within a function.
type Variable struct {
	Name    string
	Type    *typecheck.Type
	Witness Witness
	Size    Size
}

type Block struct {
	Instrs []Instr
}

// InstrKind enumerates instruction kinds of the lowered IR.
type InstrKind uint8

const (
	// InstrSet writes a literal.
	InstrSet InstrKind = iota
	// InstrCopy duplicates a value through its witness.
	InstrCopy
	// InstrMove transfers ownership; the source is dead afterwards.
	InstrMove
	// InstrDestroy releases a value through its witness.
	InstrDestroy
	// InstrPrimitive applies an arithmetic or comparison operator.
	InstrPrimitive
	// InstrCallDirect calls a named function or witness constructor.
	InstrCallDirect
	// InstrCallClosure calls a closure value.
	InstrCallClosure
	// InstrPack builds a struct value.
	InstrPack
	// InstrUnpack copies one field out of a struct value.
	InstrUnpack
	// InstrMakeClosure pairs a lifted function with its environment.
	InstrMakeClosure
	// InstrIf runs one of two blocks; both initialise Dst.
	InstrIf
)

func (k InstrKind) String() string {
	switch k {
	case InstrSet:
		return "Set"
	case InstrCopy:
		return "Copy"
	case InstrMove:
		return "Move"
	case InstrDestroy:
		return "Destroy"
	case InstrPrimitive:
		return "Primitive"
	case InstrCallDirect:
		return "CallDirect"
	case InstrCallClosure:
		return "CallClosure"
	case InstrPack:
		return "Pack"
	case InstrUnpack:
		return "Unpack"
	case InstrMakeClosure:
		return "MakeClosure"
	case InstrIf:
		return "If"
	default:
		return "?"
	}
}

// Instr represents a lowered instruction; only the payload for Kind is set.
type Instr struct {
	Kind InstrKind

	Set         SetInstr
	Copy        CopyInstr
	Move        MoveInstr
	Destroy     DestroyInstr
	Primitive   PrimitiveInstr
	CallDirect  CallDirectInstr
	CallClosure CallClosureInstr
	Pack        PackInstr
	Unpack      UnpackInstr
	MakeClosure MakeClosureInstr
	If          IfInstr
}

type Literal struct {
	Kind   ast.LiteralKind
	Text   string
	Number float64
	Bool   bool
}

type SetInstr struct {
	Dst   *Variable
	Value Literal
}

type CopyInstr struct {
	Dst *Variable
	Src *Variable
}

type MoveInstr struct {
	Dst *Variable
	Src *Variable
}

type DestroyInstr struct {
	Var *Variable
}

// PrimitiveInstr operands are always trivially copyable.
type PrimitiveInstr struct {
	Dst   *Variable
	Op    ast.Operator
	Left  *Variable
	Right *Variable
}

// ValueKind says whether an operand is borrowed or consumed.
type ValueKind uint8

const (
	ValueCopy ValueKind = iota
	ValueMove
)

func (k ValueKind) String() string {
	if k == ValueMove {
		return "move"
	}
	return "copy"
}

type Value struct {
	Kind ValueKind
	Var  *Variable
}

type CallArg struct {
	Value      Value
	Convention Convention
}

// CallDirectInstr: Args[0] is the out result.
type CallDirectInstr struct {
	Function string
	Args     []CallArg
}

// CallClosureInstr: Args[0] is the out result.
type CallClosureInstr struct {
	Closure *Variable
	Args    []CallArg
}

type PackField struct {
	Name  string
	Value Value
}

type PackInstr struct {
	Dst    *Variable
	Struct string
	Fields []PackField
}

type UnpackInstr struct {
	Dst   *Variable
	Src   *Variable
	Field string
}

type MakeClosureInstr struct {
	Dst      *Variable
	Function string
	Env      Value
}

type IfInstr struct {
	Dst  *Variable
	Cond *Variable
	Then Block
	Else Block
}
