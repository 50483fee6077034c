package layout

import "fmt"

// LayoutErrorKind enumerates types of layout calculation errors.
type LayoutErrorKind uint8

const (
	// LayoutErrDuplicateSlot means two slots of one frame share a name.
	LayoutErrDuplicateSlot LayoutErrorKind = iota + 1
	LayoutErrNegativeSize
	// LayoutErrSizeOverflow means the static part no longer fits in 32 bits.
	LayoutErrSizeOverflow
)

// LayoutError represents an error during frame layout calculation.
type LayoutError struct {
	Kind  LayoutErrorKind
	Frame string
	Slot  string
	Value int   // for LayoutErrNegativeSize
	Err   error // for LayoutErrSizeOverflow
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case LayoutErrDuplicateSlot:
		return fmt.Sprintf("%s: duplicate slot %q", e.Frame, e.Slot)
	case LayoutErrNegativeSize:
		return fmt.Sprintf("%s: slot %q has negative size %d", e.Frame, e.Slot, e.Value)
	case LayoutErrSizeOverflow:
		if e.Err != nil {
			return fmt.Sprintf("%s: frame too large at slot %q: %v", e.Frame, e.Slot, e.Err)
		}
		return fmt.Sprintf("%s: frame too large at slot %q", e.Frame, e.Slot)
	default:
		return fmt.Sprintf("layout error kind=%d in %s", e.Kind, e.Frame)
	}
}

func (e *LayoutError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
