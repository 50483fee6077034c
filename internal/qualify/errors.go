package qualify

import (
	"fmt"
	"strings"

	"keel/internal/diag"
	"keel/internal/source"
)

// ErrorKind enumerates qualification failures.
type ErrorKind uint8

const (
	ErrUndefinedVariable ErrorKind = iota + 1
	ErrUndefinedType
	ErrUndefinedStruct
	// ErrExtraField is StructLiteralContainsExtraField; also used for patterns.
	ErrExtraField
	// ErrMissingField is StructLiteralMissingField.
	ErrMissingField
	ErrPatternMissingField
	ErrDuplicateDefinition
)

func (k ErrorKind) String() string {
	switch k {
	case ErrUndefinedVariable:
		return "UndefinedVariable"
	case ErrUndefinedType:
		return "UndefinedType"
	case ErrUndefinedStruct:
		return "UndefinedStruct"
	case ErrExtraField:
		return "StructLiteralContainsExtraField"
	case ErrMissingField:
		return "StructLiteralMissingField"
	case ErrPatternMissingField:
		return "StructPatternMissingField"
	case ErrDuplicateDefinition:
		return "DuplicateDefinition"
	default:
		return "Unknown"
	}
}

// Error describes the first qualification failure of a program.
type Error struct {
	Kind ErrorKind
	Name string
	// Fields lists the declared struct fields, for field errors.
	Fields   []string
	Span     source.Span
	Previous source.Span // DuplicateDefinition only
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrUndefinedVariable:
		return fmt.Sprintf("undefined variable %q", e.Name)
	case ErrUndefinedType:
		return fmt.Sprintf("undefined type %q", e.Name)
	case ErrUndefinedStruct:
		return fmt.Sprintf("undefined struct %q", e.Name)
	case ErrExtraField:
		return fmt.Sprintf("struct has no field %q (fields: %s)", e.Name, strings.Join(e.Fields, ", "))
	case ErrMissingField:
		return fmt.Sprintf("struct literal is missing field %q (fields: %s)", e.Name, strings.Join(e.Fields, ", "))
	case ErrPatternMissingField:
		return fmt.Sprintf("struct pattern is missing field %q (fields: %s)", e.Name, strings.Join(e.Fields, ", "))
	case ErrDuplicateDefinition:
		return fmt.Sprintf("%q is already defined", e.Name)
	default:
		return "qualification error"
	}
}

// Code maps the error onto its diagnostic code.
func (e *Error) Code() diag.Code {
	switch e.Kind {
	case ErrUndefinedVariable:
		return diag.QualUndefinedVariable
	case ErrUndefinedType:
		return diag.QualUndefinedType
	case ErrUndefinedStruct:
		return diag.QualUndefinedStruct
	case ErrExtraField:
		return diag.QualExtraField
	case ErrMissingField:
		return diag.QualMissingField
	case ErrPatternMissingField:
		return diag.QualPatternMissingField
	default:
		return diag.QualDuplicateDefinition
	}
}
