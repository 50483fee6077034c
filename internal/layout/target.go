package layout

import "fmt"

// Target describes the ABI target triple and its pointer properties.
type Target struct {
	Triple   string // e.g. "x86_64-linux-gnu"
	PtrSize  int    // bytes
	PtrAlign int    // bytes
}

func X86_64LinuxGNU() Target {
	return Target{
		Triple:   "x86_64-linux-gnu",
		PtrSize:  8,
		PtrAlign: 8,
	}
}

func I386LinuxGNU() Target {
	return Target{
		Triple:   "i386-linux-gnu",
		PtrSize:  4,
		PtrAlign: 4,
	}
}

// ForPtrSize picks a target by pointer width (manifest `ptr_size`).
// Zero means the default 64-bit target.
func ForPtrSize(n int) (Target, error) {
	switch n {
	case 0, 8:
		return X86_64LinuxGNU(), nil
	case 4:
		return I386LinuxGNU(), nil
	default:
		return Target{}, fmt.Errorf("unsupported pointer size %d (want 4 or 8)", n)
	}
}

// TypeWitnessSize is the static size of a runtime type descriptor:
// size, copy, move and destroy entries plus the argument pointer.
func (t Target) TypeWitnessSize() int { return 5 * t.PtrSize }

// ClosureSize is code pointer plus environment pointer.
func (t Target) ClosureSize() int { return 2 * t.PtrSize }
