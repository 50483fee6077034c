package driver

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"keel/internal/buildpipeline"
	"keel/internal/diag"
	"keel/internal/layout"
	"keel/internal/lower"
	"keel/internal/observ"
	"keel/internal/refcount"
)

const goodSource = `struct Box[a] { v: a }
func unbox[t](b: Box[t]): t = { let Box { v } = b; v }
func pick[t](c: Bool, x: t, y: t): t = { let a = x; let b = y; if c then a else b }
func adder(k: F64): (F64) -> F64 = |y: F64| y + k
`

func TestCompileWholePipeline(t *testing.T) {
	timer := observ.NewTimer()
	res := CompileSource(context.Background(), "good.kl", []byte(goodSource), Options{Timer: timer})
	if res.Failed() {
		t.Fatalf("diagnostics: %+v", res.Bag.Items())
	}
	if res.Reached != buildpipeline.StageRefcount || res.Counted == nil {
		t.Fatalf("reached %s", res.Reached)
	}
	if len(res.Counted.Functions) != len(res.Lowered.Functions) {
		t.Fatalf("counted %d of %d functions", len(res.Counted.Functions), len(res.Lowered.Functions))
	}
	if got := len(timer.Report().Phases); got != len(buildpipeline.Stages) {
		t.Fatalf("timed %d phases", got)
	}
	if res.Session == "" {
		t.Fatalf("no session id")
	}
}

func TestStopAfter(t *testing.T) {
	tests := []struct {
		stage buildpipeline.Stage
		built func(*Result) bool
		next  func(*Result) bool
	}{
		{buildpipeline.StageParse, func(r *Result) bool { return r.Builder != nil }, func(r *Result) bool { return r.Qualified != nil }},
		{buildpipeline.StageQualify, func(r *Result) bool { return r.Qualified != nil }, func(r *Result) bool { return r.Typed != nil }},
		{buildpipeline.StageTypecheck, func(r *Result) bool { return r.Typed != nil }, func(r *Result) bool { return r.TypePassed != nil }},
		{buildpipeline.StageSizer, func(r *Result) bool { return r.Sized != nil }, func(r *Result) bool { return r.Lowered != nil }},
		{buildpipeline.StageLower, func(r *Result) bool { return r.Lowered != nil }, func(r *Result) bool { return r.Counted != nil }},
	}
	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			res := CompileSource(context.Background(), "good.kl", []byte(goodSource), Options{StopAfter: tt.stage})
			if res.Reached != tt.stage || !tt.built(res) || tt.next(res) {
				t.Fatalf("reached %s", res.Reached)
			}
		})
	}
}

func TestStageErrorsBecomeDiagnostics(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		code    diag.Code
		reached buildpipeline.Stage
	}{
		{"syntax", "let x = 1", diag.SynExpectDefinition, ""},
		{"undefined variable", "func f(): F64 = z", diag.QualUndefinedVariable, buildpipeline.StageParse},
		{"type mismatch", "func f(x: F64): F64 = x\nfunc g(): F64 = f(True)", diag.TypMismatch, buildpipeline.StageQualify},
		{"generic mismatch", "func pick[a](x: a, y: a): a = x\nfunc g(): F64 = pick(1, True)", diag.TypGenericMismatch, buildpipeline.StageQualify},
		{"recursive struct", "struct List { next: List }\nfunc f(l: List): List = l", diag.SizRecursiveUnsized, buildpipeline.StageTypepass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := CompileSource(context.Background(), "bad.kl", []byte(tt.src), Options{})
			if !res.Failed() {
				t.Fatalf("no error")
			}
			d := res.Bag.Items()[0]
			if d.Code != tt.code {
				t.Fatalf("code = %s, want %s (%s)", d.Code.ID(), tt.code.ID(), d.Message)
			}
			if res.Reached != tt.reached {
				t.Fatalf("reached %q, want %q", res.Reached, tt.reached)
			}
		})
	}
}

func TestDiagnosticSpans(t *testing.T) {
	res := CompileSource(context.Background(), "bad.kl", []byte("func f(): F64 = z"), Options{})
	d := res.Bag.Items()[0]
	if d.Primary.Empty() || string(res.File.Content[d.Primary.Start:d.Primary.End]) != "z" {
		t.Fatalf("span = %s", d.Primary)
	}
	res = CompileSource(context.Background(), "dup.kl", []byte("func f(): F64 = 1\nfunc f(): F64 = 2"), Options{})
	if d := res.Bag.Items()[0]; d.Code != diag.QualDuplicateDefinition || len(d.Notes) != 1 {
		t.Fatalf("duplicate = %+v", d)
	}
}

func TestEmit(t *testing.T) {
	res := CompileSource(context.Background(), "good.kl", []byte(goodSource), Options{})
	for _, st := range buildpipeline.Stages {
		var buf bytes.Buffer
		if err := res.Emit(&buf, st, FormatText); err != nil {
			t.Fatalf("emit %s: %v", st, err)
		}
		if !strings.Contains(buf.String(), "unbox") {
			t.Fatalf("emit %s:\n%s", st, buf.String())
		}
	}
	var buf bytes.Buffer
	if err := res.Emit(&buf, buildpipeline.StageRefcount, FormatYAML); err != nil || !strings.Contains(buf.String(), "op: Destroy") {
		t.Fatalf("yaml: %v\n%s", err, buf.String())
	}
	if err := res.Emit(&buf, buildpipeline.StageTypecheck, FormatYAML); err == nil {
		t.Fatalf("yaml for typed tree accepted")
	}

	partial := CompileSource(context.Background(), "bad.kl", []byte("func f(): F64 = z"), Options{})
	if err := partial.Emit(&buf, buildpipeline.StageTypecheck, FormatText); !errors.Is(err, ErrNotBuilt) {
		t.Fatalf("err = %v, want ErrNotBuilt", err)
	}
	if st, ok := partial.LastBuilt(); !ok || st != buildpipeline.StageParse {
		t.Fatalf("last built = %s %v", st, ok)
	}
}

func TestParseEmitAndFormat(t *testing.T) {
	if st, err := ParseEmit("typed"); err != nil || st != buildpipeline.StageTypecheck {
		t.Fatalf("typed = %s, %v", st, err)
	}
	if st, err := ParseEmit("sizer"); err != nil || st != buildpipeline.StageSizer {
		t.Fatalf("sizer = %s, %v", st, err)
	}
	if _, err := ParseEmit("assembly"); err == nil {
		t.Fatalf("unknown emit accepted")
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatalf("unknown format accepted")
	}
}

func TestConcurrentRefcountMatchesSequential(t *testing.T) {
	res := CompileSource(context.Background(), "good.kl", []byte(goodSource), Options{Jobs: 4})
	seq, err := refcount.Program(res.Lowered)
	if err != nil {
		t.Fatalf("refcount: %v", err)
	}
	for i, fn := range seq.Functions {
		var a, b bytes.Buffer
		if err := lower.DumpFunction(&a, fn); err != nil {
			t.Fatal(err)
		}
		if err := lower.DumpFunction(&b, res.Counted.Functions[i]); err != nil {
			t.Fatal(err)
		}
		if a.String() != b.String() {
			t.Fatalf("%s differs:\n%s\nvs\n%s", fn.Name, a.String(), b.String())
		}
	}
}

func TestTargetChangesFrames(t *testing.T) {
	src := []byte("struct P { a: F64, b: Bool }\nfunc f(p: P): P = p")
	wide := CompileSource(context.Background(), "p.kl", src, Options{})
	narrow := CompileSource(context.Background(), "p.kl", src, Options{Target: layout.I386LinuxGNU()})
	if wide.Sized.Target.PtrSize != 8 || narrow.Sized.Target.PtrSize != 4 {
		t.Fatalf("targets = %d/%d", wide.Sized.Target.PtrSize, narrow.Sized.Target.PtrSize)
	}
}

type recordSink struct {
	mu     sync.Mutex
	events []buildpipeline.Event
}

func (s *recordSink) OnEvent(ev buildpipeline.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestCompileDirWithCache(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.kl":        goodSource,
		"nested/b.kl": "func f(): F64 = z",
		"notes.txt":   "not source",
	})
	cache, err := NewDiskCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	sink := &recordSink{}
	units, err := CompileDir(context.Background(), dir, Options{Jobs: 2, Sink: sink}, cache)
	if err != nil {
		t.Fatalf("CompileDir: %v", err)
	}
	if len(units) != 2 || units[0].Cached || units[1].Cached {
		t.Fatalf("units = %+v", units)
	}
	if units[0].Summary.Failed || !units[1].Summary.Failed {
		t.Fatalf("failed flags = %v/%v", units[0].Summary.Failed, units[1].Summary.Failed)
	}
	finished := 0
	for _, ev := range sink.events {
		if ev.Status == buildpipeline.StatusDone || ev.Status == buildpipeline.StatusError {
			if ev.Elapsed <= 0 {
				t.Fatalf("final event for %s has no elapsed time", ev.File)
			}
			finished++
		}
	}
	if finished != 2 {
		t.Fatalf("%d final events, want 2", finished)
	}

	again, err := CompileDir(context.Background(), dir, Options{Jobs: 2}, cache)
	if err != nil {
		t.Fatalf("CompileDir: %v", err)
	}
	for i, u := range again {
		if !u.Cached || u.Result != nil {
			t.Fatalf("unit %s not cached", u.Path)
		}
		if len(u.Summary.Functions) != len(units[i].Summary.Functions) || len(u.Summary.Diagnostics) != len(units[i].Summary.Diagnostics) {
			t.Fatalf("summary %s changed: %+v", u.Path, u.Summary)
		}
	}

	if err := cache.DropAll(); err != nil {
		t.Fatal(err)
	}
	third, err := CompileDir(context.Background(), dir, Options{}, cache)
	if err != nil || third[0].Cached {
		t.Fatalf("after DropAll: cached=%v err=%v", third[0].Cached, err)
	}
}

func TestCacheKeyDependsOnOptions(t *testing.T) {
	src := []byte("func f(): F64 = 1")
	a := cacheKey(src, Options{StopAfter: buildpipeline.StageLower}.withDefaults())
	b := cacheKey(src, Options{StopAfter: buildpipeline.StageRefcount}.withDefaults())
	c := cacheKey(src, Options{Target: layout.I386LinuxGNU()}.withDefaults())
	if a == b || b == c {
		t.Fatalf("keys collide")
	}
}

func TestSummarize(t *testing.T) {
	res := CompileSource(context.Background(), "good.kl", []byte(goodSource), Options{})
	sum := Summarize(res)
	destroys := 0
	for _, fn := range sum.Functions {
		destroys += fn.Destroys
	}
	if destroys == 0 || len(sum.Structs) == 0 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestTokenize(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.kl": "func f(): F64 = 1 $"})
	res, err := Tokenize(filepath.Join(dir, "a.kl"), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Tokens) < 8 || !res.Bag.HasErrors() {
		t.Fatalf("tokens = %d, errors = %v", len(res.Tokens), res.Bag.HasErrors())
	}
	if _, err := Tokenize(filepath.Join(dir, "missing.kl"), 10); err == nil {
		t.Fatalf("missing file accepted")
	}
}
