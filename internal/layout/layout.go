package layout

import (
	"strconv"
	"strings"

	"fortio.org/safecast"
)

// Slot is one value to place. Dynamic lists the witness variables whose
// runtime sizes add to Static.
type Slot struct {
	Name    string
	Static  int
	Dynamic []string
}

// IsStatic reports whether the slot size is known at compile time.
func (s Slot) IsStatic() bool { return len(s.Dynamic) == 0 }

// Offset is `Static + align(size(Dynamic[0]), Align) + ...`. Every runtime
// size is rounded up to Align on its own, so Static stays aligned and the
// sum is aligned whatever the witnesses report.
type Offset struct {
	Static  int
	Dynamic []string
	Align   int
}

func (o Offset) IsStatic() bool { return len(o.Dynamic) == 0 }

func (o Offset) String() string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(o.Static))
	for _, d := range o.Dynamic {
		if o.Align > 1 {
			sb.WriteString(" + align(size(" + d + "), " + strconv.Itoa(o.Align) + ")")
			continue
		}
		sb.WriteString(" + size(" + d + ")")
	}
	return sb.String()
}

// Eval computes the offset once the witness sizes are known.
func (o Offset) Eval(size func(witness string) int) int {
	off := o.Static
	for _, d := range o.Dynamic {
		off += roundUpInt(size(d), o.Align)
	}
	return off
}

// Placed is a slot with its offset inside the frame.
type Placed struct {
	Slot
	Offset Offset
}

// Frame is the layout of a function frame or a struct body.
type Frame struct {
	Name  string
	Slots []Placed
	Size  Offset
}

// Lookup returns the offset of a slot by name.
func (f Frame) Lookup(name string) (Offset, bool) {
	for _, p := range f.Slots {
		if p.Name == name {
			return p.Offset, true
		}
	}
	return Offset{}, false
}

// LayoutEngine computes frames for one target and caches struct bodies.
type LayoutEngine struct {
	Target Target

	cache *cache
}

// New creates a new LayoutEngine for the specified target.
func New(target Target) *LayoutEngine {
	return &LayoutEngine{Target: target, cache: newCache()}
}

// Struct lays out a struct body once per name.
func (e *LayoutEngine) Struct(name string, fields []Slot) (Frame, error) {
	if f, ok := e.cache.get(name); ok {
		return f, nil
	}
	f, err := Compute(name, fields, e.Target)
	if err != nil {
		return Frame{}, err
	}
	e.cache.put(name, f)
	return f, nil
}

// Frame lays out function locals. Frames are not cached: names of
// locals repeat across functions.
func (e *LayoutEngine) Frame(name string, locals []Slot) (Frame, error) {
	return Compute(name, locals, e.Target)
}

// Compute places statically sized slots first, in order, each aligned to
// the target pointer alignment; dynamically sized slots follow in order
// with symbolic offsets over the preceding dynamic slots, each witness
// size padded to the same alignment.
func Compute(name string, slots []Slot, target Target) (Frame, error) {
	align := target.PtrAlign
	if align <= 0 {
		align = 1
	}
	seen := make(map[string]struct{}, len(slots))
	frame := Frame{Name: name, Slots: make([]Placed, 0, len(slots))}
	for _, s := range slots {
		if _, dup := seen[s.Name]; dup {
			return Frame{}, &LayoutError{Kind: LayoutErrDuplicateSlot, Frame: name, Slot: s.Name}
		}
		seen[s.Name] = struct{}{}
		if s.Static < 0 {
			return Frame{}, &LayoutError{Kind: LayoutErrNegativeSize, Frame: name, Slot: s.Name, Value: s.Static}
		}
	}

	static := 0
	for _, s := range slots {
		if !s.IsStatic() {
			continue
		}
		frame.Slots = append(frame.Slots, Placed{Slot: s, Offset: Offset{Static: static, Align: align}})
		next, err := advance(static, s.Static, align)
		if err != nil {
			return Frame{}, &LayoutError{Kind: LayoutErrSizeOverflow, Frame: name, Slot: s.Name, Err: err}
		}
		static = next
	}

	var dynamic []string
	for _, s := range slots {
		if s.IsStatic() {
			continue
		}
		off := Offset{Static: static, Dynamic: append([]string(nil), dynamic...), Align: align}
		frame.Slots = append(frame.Slots, Placed{Slot: s, Offset: off})
		next, err := advance(static, s.Static, align)
		if err != nil {
			return Frame{}, &LayoutError{Kind: LayoutErrSizeOverflow, Frame: name, Slot: s.Name, Err: err}
		}
		static = next
		dynamic = append(dynamic, s.Dynamic...)
	}
	frame.Size = Offset{Static: static, Dynamic: dynamic, Align: align}
	return frame, nil
}

// advance returns the offset after a slot of the given size, rounded up to
// align, and checks that it stays addressable.
func advance(off, size, align int) (int, error) {
	next := roundUpInt(off+size, align)
	if _, err := safecast.Conv[uint32](next); err != nil {
		return 0, err
	}
	return next, nil
}

func roundUpInt(n, align int) int {
	if align <= 1 {
		return n
	}
	rem := n % align
	if rem == 0 {
		return n
	}
	return n + (align - rem)
}
