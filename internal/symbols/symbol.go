package symbols

import (
	"keel/internal/source"
)

// SymbolKind classifies the semantic meaning of a symbol.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolFunction
	SymbolLet
	SymbolParam
	SymbolType    // built-in type
	SymbolGeneric // generic parameter
	SymbolStruct
)

// SymbolFlags encode misc attributes for quick checks.
type SymbolFlags uint8

const (
	SymbolFlagBuiltin SymbolFlags = 1 << iota
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolFunction:
		return "function"
	case SymbolLet:
		return "let"
	case SymbolParam:
		return "param"
	case SymbolType:
		return "type"
	case SymbolGeneric:
		return "generic"
	case SymbolStruct:
		return "struct"
	default:
		return "invalid"
	}
}

// Symbol describes a named entity available in a scope.
type Symbol struct {
	Name  source.StringID
	Kind  SymbolKind
	Scope ScopeID
	Span  source.Span
	Flags SymbolFlags
	Tag   Tag
	// Fields: объявленные поля структуры в порядке объявления.
	Fields []source.StringID
}

// IsGlobal reports whether the symbol keeps its display name after mangling.
func (s *Symbol) IsGlobal() bool {
	switch s.Kind {
	case SymbolFunction, SymbolStruct, SymbolType:
		return true
	default:
		return false
	}
}

// KindMask restricts lookup to specific symbol kinds.
type KindMask uint32

const (
	KindMaskNone KindMask = 0
	KindMaskAny  KindMask = ^KindMask(0)
)

// Mask converts a symbol kind into a KindMask bit.
func (k SymbolKind) Mask() KindMask {
	return KindMask(1 << uint(k))
}

// Namespaces: functions live with variables; structs are types too.
var (
	MaskVariable = SymbolFunction.Mask() | SymbolLet.Mask() | SymbolParam.Mask()
	MaskType     = SymbolType.Mask() | SymbolGeneric.Mask() | SymbolStruct.Mask()
	MaskStruct   = SymbolStruct.Mask()
)

func matchKind(mask KindMask, kind SymbolKind) bool {
	return mask == KindMaskAny || mask&kind.Mask() != 0
}

func namespaceOf(kind SymbolKind) KindMask {
	if matchKind(MaskVariable, kind) {
		return MaskVariable
	}
	return MaskType
}
