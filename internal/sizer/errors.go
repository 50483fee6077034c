package sizer

import (
	"fmt"
	"strings"

	"keel/internal/diag"
	"keel/internal/source"
)

type ErrorKind uint8

const (
	// ErrUnknownStruct: a named type has no struct metadata.
	ErrUnknownStruct ErrorKind = iota + 1
	// ErrRecursiveUnsized: a struct contains itself by value.
	ErrRecursiveUnsized
)

func (k ErrorKind) String() string {
	switch k {
	case ErrUnknownStruct:
		return "UnknownStruct"
	case ErrRecursiveUnsized:
		return "RecursiveUnsized"
	default:
		return "Unknown"
	}
}

type Error struct {
	Kind  ErrorKind
	Type  string
	Cycle []string // for ErrRecursiveUnsized
	Span  source.Span
	// Definition is the function or struct being sized.
	Definition string
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case ErrUnknownStruct:
		msg = fmt.Sprintf("no metadata for struct %s", e.Type)
	case ErrRecursiveUnsized:
		if len(e.Cycle) == 0 {
			msg = fmt.Sprintf("recursive value type has infinite size (%s)", e.Type)
		} else {
			msg = fmt.Sprintf("recursive value type has infinite size (cycle: %s)", strings.Join(e.Cycle, " -> "))
		}
	default:
		msg = fmt.Sprintf("sizer error kind=%d", e.Kind)
	}
	if e.Definition != "" {
		return fmt.Sprintf("in %s: %s", e.Definition, msg)
	}
	return msg
}

func (e *Error) Code() diag.Code {
	if e.Kind == ErrRecursiveUnsized {
		return diag.SizRecursiveUnsized
	}
	return diag.SizUnknownStruct
}
