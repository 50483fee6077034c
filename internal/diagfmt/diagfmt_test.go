package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"keel/internal/diag"
	"keel/internal/source"
	"keel/internal/token"
)

func sample(t *testing.T) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("/home/user/project/src/test.kl", []byte("func f(): F64 =\n\tzed + 1\n"))
	bag := diag.NewBag(10)
	d := diag.NewError(diag.QualUndefinedVariable, source.Span{File: id, Start: 17, End: 20}, "undefined variable zed").
		WithNote(source.Span{File: id, Start: 5, End: 6}, "in function f")
	bag.Add(d)
	return bag, fs
}

func TestPrettyPaths(t *testing.T) {
	bag, fs := sample(t)
	tests := []struct {
		name string
		mode PathMode
		want string
	}{
		{"absolute", PathModeAbsolute, "/home/user/project/src/test.kl:2:2"},
		{"relative", PathModeRelative, "src/test.kl:2:2"},
		{"basename", PathModeBasename, "test.kl:2:2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := Pretty(&buf, bag, fs, PrettyOpts{Context: 1, PathMode: tt.mode, BaseDir: "/home/user/project"})
			if err != nil {
				t.Fatal(err)
			}
			out := buf.String()
			for _, want := range []string{tt.want, "ERROR", "QUA3001", "undefined variable zed"} {
				if !strings.Contains(out, want) {
					t.Fatalf("missing %q in:\n%s", want, out)
				}
			}
		})
	}
}

func TestPrettySnippet(t *testing.T) {
	bag, fs := sample(t)
	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{Context: 1, ShowNotes: true}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(buf.String(), "\n")
	want := []string{
		"1 | func f(): F64 =",
		"2 |     zed + 1",
		"  |     ^~~",
	}
	joined := strings.Join(lines, "\n")
	for _, w := range want {
		if !strings.Contains(joined, w) {
			t.Fatalf("missing %q in:\n%s", w, joined)
		}
	}
	if !strings.Contains(joined, "note:") || !strings.Contains(joined, "in function f") {
		t.Fatalf("note missing:\n%s", joined)
	}
	if strings.Contains(joined, "\x1b[") {
		t.Fatalf("colour escapes with Color off")
	}
}

func TestPrettyColor(t *testing.T) {
	bag, fs := sample(t)
	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{Color: true}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("no colour escapes:\n%q", buf.String())
	}
}

func TestShort(t *testing.T) {
	bag, fs := sample(t)
	var buf bytes.Buffer
	if err := Short(&buf, bag, fs, PathModeBasename, ""); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "test.kl:2:2: ERROR QUA3001: undefined variable zed\n" {
		t.Fatalf("short = %q", got)
	}
}

func TestJSON(t *testing.T) {
	bag, fs := sample(t)
	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, IncludeNotes: true}); err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 1 || len(out.Diagnostics[0].Notes) != 1 {
		t.Fatalf("output = %+v", out)
	}
	loc := out.Diagnostics[0].Location
	if loc.StartLine != 2 || loc.StartCol != 2 || loc.EndCol != 5 {
		t.Fatalf("location = %+v", loc)
	}
}

func TestJSONMax(t *testing.T) {
	bag, fs := sample(t)
	bag.Add(diag.NewError(diag.TypMismatch, source.Span{}, "second"))
	if got := BuildDiagnosticsOutput(bag, fs, JSONOpts{Max: 1}).Count; got != 1 {
		t.Fatalf("count = %d", got)
	}
}

func TestParseStyle(t *testing.T) {
	if st, err := ParseStyle(""); err != nil || st != StylePretty {
		t.Fatalf("default = %s, %v", st, err)
	}
	if _, err := ParseStyle("sarif"); err == nil {
		t.Fatalf("sarif accepted")
	}
}

func TestTokens(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("t.kl", []byte("let"))
	toks := []token.Token{
		{Kind: token.KwLet, Span: source.Span{File: id, Start: 0, End: 3}, Text: "let"},
		{Kind: token.EOF, Span: source.Span{File: id, Start: 3, End: 3}},
	}
	var buf bytes.Buffer
	if err := FormatTokensPretty(&buf, toks, fs); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"let" at 1:1-1:4`) {
		t.Fatalf("pretty = %s", buf.String())
	}
	buf.Reset()
	if err := FormatTokensJSON(&buf, toks); err != nil {
		t.Fatal(err)
	}
	var out []TokenOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil || len(out) != 2 {
		t.Fatalf("json = %s (%v)", buf.String(), err)
	}
}

func TestColorEnabled(t *testing.T) {
	var buf bytes.Buffer
	tests := []struct {
		mode string
		want bool
	}{
		{"on", true},
		{"off", false},
		{"auto", false},
	}
	for _, tt := range tests {
		if got := ColorEnabled(tt.mode, &buf); got != tt.want {
			t.Errorf("ColorEnabled(%q) = %v", tt.mode, got)
		}
	}
}
