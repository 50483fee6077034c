package layout_test

import (
	"errors"
	"testing"

	"keel/internal/layout"
)

func TestComputeStaticFirst(t *testing.T) {
	slots := []layout.Slot{
		{Name: "a", Static: 8},
		{Name: "x", Static: 0, Dynamic: []string{"t_1"}},
		{Name: "b", Static: 16},
		{Name: "y", Static: 8, Dynamic: []string{"u_2"}},
		{Name: "c", Static: 4},
	}
	f, err := layout.Compute("f", slots, layout.X86_64LinuxGNU())
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	want := []struct {
		name string
		off  string
	}{
		{"a", "0"},
		{"b", "8"},
		{"c", "24"},
		{"x", "32"},
		{"y", "32 + align(size(t_1), 8)"},
	}
	if len(f.Slots) != len(want) {
		t.Fatalf("got %d slots, want %d", len(f.Slots), len(want))
	}
	for i, w := range want {
		got := f.Slots[i]
		if got.Name != w.name || got.Offset.String() != w.off {
			t.Errorf("slot %d: got %s@%s, want %s@%s", i, got.Name, got.Offset, w.name, w.off)
		}
	}
	if got := f.Size.String(); got != "40 + align(size(t_1), 8) + align(size(u_2), 8)" {
		t.Errorf("frame size = %s", got)
	}
	if off, ok := f.Lookup("y"); !ok || off.IsStatic() {
		t.Errorf("Lookup(y) = %v, %v", off, ok)
	}
}

func TestDynamicOffsetsStayAligned(t *testing.T) {
	slots := []layout.Slot{
		{Name: "a", Static: 8},
		{Name: "x", Dynamic: []string{"t_1"}},
		{Name: "y", Static: 8, Dynamic: []string{"u_2"}},
		{Name: "z", Dynamic: []string{"t_1"}},
	}
	sizes := map[string]int{"t_1": 3, "u_2": 12}
	size := func(w string) int { return sizes[w] }
	tests := []struct {
		target layout.Target
		y, z   int
		total  int
	}{
		{layout.X86_64LinuxGNU(), 8 + 8, 8 + 8 + 8 + 16, 8 + 8 + 8 + 16 + 8},
		{layout.I386LinuxGNU(), 8 + 4, 8 + 4 + 8 + 12, 8 + 4 + 8 + 12 + 4},
	}
	for _, tt := range tests {
		t.Run(tt.target.Triple, func(t *testing.T) {
			f, err := layout.Compute("f", slots, tt.target)
			if err != nil {
				t.Fatalf("Compute: %v", err)
			}
			y, _ := f.Lookup("y")
			z, _ := f.Lookup("z")
			if got := y.Eval(size); got != tt.y {
				t.Errorf("y = %d, want %d (%s)", got, tt.y, y)
			}
			if got := z.Eval(size); got != tt.z {
				t.Errorf("z = %d, want %d (%s)", got, tt.z, z)
			}
			if got := f.Size.Eval(size); got != tt.total || got%tt.target.PtrAlign != 0 {
				t.Errorf("size = %d, want %d (%s)", got, tt.total, f.Size)
			}
		})
	}
}

func TestComputeAlignment(t *testing.T) {
	tests := []struct {
		name   string
		target layout.Target
		sizes  []int
		want   []int
		total  int
	}{
		{"x86_64", layout.X86_64LinuxGNU(), []int{4, 8, 1}, []int{0, 8, 16}, 24},
		{"i386", layout.I386LinuxGNU(), []int{4, 8, 1}, []int{0, 4, 12}, 16},
		{"empty", layout.X86_64LinuxGNU(), nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots := make([]layout.Slot, len(tt.sizes))
			for i, s := range tt.sizes {
				slots[i] = layout.Slot{Name: string(rune('a' + i)), Static: s}
			}
			f, err := layout.Compute(tt.name, slots, tt.target)
			if err != nil {
				t.Fatalf("Compute: %v", err)
			}
			for i, w := range tt.want {
				if f.Slots[i].Offset.Static != w {
					t.Errorf("slot %d offset = %d, want %d", i, f.Slots[i].Offset.Static, w)
				}
			}
			if !f.Size.IsStatic() || f.Size.Static != tt.total {
				t.Errorf("size = %s, want %d", f.Size, tt.total)
			}
		})
	}
}

func TestComputeErrors(t *testing.T) {
	tests := []struct {
		name  string
		slots []layout.Slot
		kind  layout.LayoutErrorKind
	}{
		{"duplicate", []layout.Slot{{Name: "a", Static: 8}, {Name: "a", Static: 8}}, layout.LayoutErrDuplicateSlot},
		{"negative", []layout.Slot{{Name: "a", Static: -8}}, layout.LayoutErrNegativeSize},
		{"overflow", []layout.Slot{{Name: "a", Static: 1 << 40}}, layout.LayoutErrSizeOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := layout.Compute("f", tt.slots, layout.X86_64LinuxGNU())
			var le *layout.LayoutError
			if !errors.As(err, &le) {
				t.Fatalf("expected *LayoutError, got %v", err)
			}
			if le.Kind != tt.kind {
				t.Fatalf("kind = %d, want %d (%v)", le.Kind, tt.kind, err)
			}
		})
	}
}

func TestEngineCachesStructs(t *testing.T) {
	e := layout.New(layout.X86_64LinuxGNU())
	first, err := e.Struct("Pair", []layout.Slot{{Name: "a", Static: 8}, {Name: "b", Static: 8}})
	if err != nil {
		t.Fatalf("Struct: %v", err)
	}
	// second call with different slots hits the cache
	second, err := e.Struct("Pair", nil)
	if err != nil {
		t.Fatalf("Struct: %v", err)
	}
	if first.Size.Static != 16 || second.Size.Static != 16 || len(second.Slots) != 2 {
		t.Fatalf("cache miss: %+v vs %+v", first, second)
	}
}

func TestForPtrSize(t *testing.T) {
	for _, n := range []int{0, 4, 8} {
		tg, err := layout.ForPtrSize(n)
		if err != nil {
			t.Fatalf("ForPtrSize(%d): %v", n, err)
		}
		if n != 0 && tg.PtrSize != n {
			t.Errorf("ForPtrSize(%d).PtrSize = %d", n, tg.PtrSize)
		}
	}
	if _, err := layout.ForPtrSize(2); err == nil {
		t.Fatal("expected error for ptr size 2")
	}
	if got := layout.X86_64LinuxGNU().TypeWitnessSize(); got != 40 {
		t.Errorf("TypeWitnessSize = %d", got)
	}
}
