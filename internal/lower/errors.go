package lower

import (
	"fmt"

	"keel/internal/diag"
)

type ErrorKind uint8

const (
	// ErrLayout wraps a frame or struct layout failure.
	ErrLayout ErrorKind = iota + 1
	// ErrInvalid is an IR invariant reported by Validate.
	ErrInvalid
)

type Error struct {
	Kind     ErrorKind
	Function string
	Err      error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrLayout:
		return fmt.Sprintf("layout of %s: %v", e.Function, e.Err)
	default:
		return fmt.Sprintf("invalid IR in %s: %v", e.Function, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Code() diag.Code { return diag.LowInternal }
