package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetVersions(t *testing.T) {
	fs := NewFileSet()
	first := fs.Add("main.kl", []byte("func a(): F64 = 1"), 0)
	second := fs.Add("main.kl", []byte("func b(): F64 = 2"), 0)
	if first == second {
		t.Fatalf("expected distinct ids, got %d twice", first)
	}
	latest, ok := fs.GetLatest("main.kl")
	if !ok || latest != second {
		t.Fatalf("GetLatest = %d, %v; want %d", latest, ok, second)
	}
	if got := string(fs.Get(first).Content); got != "func a(): F64 = 1" {
		t.Fatalf("old version content changed: %q", got)
	}
}

func TestResolvePositions(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("pos.kl", []byte("ab\ncde\n\nf"))
	tests := []struct {
		off  uint32
		line uint32
		col  uint32
	}{
		{0, 1, 1},
		{1, 1, 2},
		{2, 1, 3},
		{3, 2, 1},
		{5, 2, 3},
		{7, 3, 1},
		{8, 4, 1},
	}
	for _, tt := range tests {
		start, _ := fs.Resolve(Span{File: id, Start: tt.off, End: tt.off})
		if start.Line != tt.line || start.Col != tt.col {
			t.Errorf("offset %d: got %d:%d, want %d:%d", tt.off, start.Line, start.Col, tt.line, tt.col)
		}
	}
	f := fs.Get(id)
	if got := f.Line(2); got != "cde" {
		t.Errorf("Line(2) = %q", got)
	}
	if got := f.Line(3); got != "" {
		t.Errorf("Line(3) = %q", got)
	}
	if got := f.Line(4); got != "f" {
		t.Errorf("Line(4) = %q", got)
	}
}

func TestLoadNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crlf.kl")
	if err := os.WriteFile(path, []byte("\xEF\xBB\xBFa\r\nb\r\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != "a\nb\n" {
		t.Fatalf("content = %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Fatalf("flags = %b", f.Flags)
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 6}
	b := Span{File: 1, Start: 2, End: 5}
	if got := a.Cover(b); got.Start != 2 || got.End != 6 {
		t.Fatalf("cover = %v", got)
	}
	if got := a.Cover(Span{File: 2, Start: 0, End: 10}); got != a {
		t.Fatalf("cross-file cover changed span: %v", got)
	}
}
