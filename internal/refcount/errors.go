package refcount

import (
	"fmt"

	"keel/internal/diag"
)

type ErrorKind uint8

const (
	ErrWriteTwice ErrorKind = iota + 1
	ErrReadBeforeWrite
	ErrUseAfterMove
)

func (k ErrorKind) String() string {
	switch k {
	case ErrWriteTwice:
		return "WriteTwice"
	case ErrReadBeforeWrite:
		return "ReadBeforeWrite"
	case ErrUseAfterMove:
		return "UseAfterMove"
	default:
		return "Unknown"
	}
}

// Error reports lowered code that breaks the ownership discipline.
type Error struct {
	Kind     ErrorKind
	Function string
	Variable string
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrWriteTwice:
		return fmt.Sprintf("%s: %s written twice", e.Function, e.Variable)
	case ErrReadBeforeWrite:
		return fmt.Sprintf("%s: %s read before it is written", e.Function, e.Variable)
	case ErrUseAfterMove:
		return fmt.Sprintf("%s: %s used after move", e.Function, e.Variable)
	default:
		return fmt.Sprintf("%s: refcount error on %s", e.Function, e.Variable)
	}
}

func (e *Error) Code() diag.Code {
	switch e.Kind {
	case ErrWriteTwice:
		return diag.RcWriteTwice
	case ErrReadBeforeWrite:
		return diag.RcReadBeforeWrite
	default:
		return diag.RcUseAfterMove
	}
}
