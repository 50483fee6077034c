package typecheck

import (
	"fmt"

	"keel/internal/diag"
	"keel/internal/source"
)

type ErrorKind uint8

const (
	ErrTypeMismatch ErrorKind = iota + 1
	ErrGenericTypeMismatch
	ErrUnspecifiedGeneric
	ErrUnknownVariable
	ErrUnknownFunction
	ErrUnknownStruct
	ErrArityMismatch
)

func (k ErrorKind) String() string {
	switch k {
	case ErrTypeMismatch:
		return "TypeMismatch"
	case ErrGenericTypeMismatch:
		return "GenericTypeMismatch"
	case ErrUnspecifiedGeneric:
		return "UnspecifiedGeneric"
	case ErrUnknownVariable:
		return "UnknownVariable"
	case ErrUnknownFunction:
		return "UnknownFunction"
	case ErrUnknownStruct:
		return "UnknownStruct"
	case ErrArityMismatch:
		return "ArityMismatch"
	default:
		return "Unknown"
	}
}

// Error is the first type error of a definition.
type Error struct {
	Kind ErrorKind
	// TypeMismatch
	Expected *Type
	Found    *Type
	// GenericTypeMismatch: the generic and both conflicting bindings
	Name   string
	First  *Type
	Second *Type
	// ArityMismatch
	Want, Got int
	Span      source.Span
	// Definition is the enclosing function or struct.
	Definition string
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case ErrTypeMismatch:
		msg = fmt.Sprintf("type mismatch: expected %s, found %s", e.Expected, e.Found)
	case ErrGenericTypeMismatch:
		msg = fmt.Sprintf("generic %s bound to both %s and %s", e.Name, e.First, e.Second)
	case ErrUnspecifiedGeneric:
		msg = fmt.Sprintf("cannot infer generic %s", e.Name)
	case ErrUnknownVariable:
		msg = fmt.Sprintf("unknown variable %q", e.Name)
	case ErrUnknownFunction:
		msg = fmt.Sprintf("unknown function %q", e.Name)
	case ErrUnknownStruct:
		msg = fmt.Sprintf("unknown struct %q", e.Name)
	case ErrArityMismatch:
		msg = fmt.Sprintf("%s expects %d arguments, got %d", e.Name, e.Want, e.Got)
	default:
		msg = "type error"
	}
	if e.Definition != "" {
		return fmt.Sprintf("in %s: %s", e.Definition, msg)
	}
	return msg
}

func (e *Error) Code() diag.Code {
	switch e.Kind {
	case ErrTypeMismatch:
		return diag.TypMismatch
	case ErrGenericTypeMismatch:
		return diag.TypGenericMismatch
	case ErrUnspecifiedGeneric:
		return diag.TypUnspecifiedGeneric
	case ErrUnknownVariable:
		return diag.TypUnknownVariable
	case ErrUnknownFunction:
		return diag.TypUnknownFunction
	case ErrUnknownStruct:
		return diag.TypUnknownStruct
	default:
		return diag.TypArityMismatch
	}
}
