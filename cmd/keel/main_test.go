package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"keel/internal/driver"
)

const sample = `struct Box[a] { v: a }
func unbox[t](b: Box[t]): t = { let Box { v } = b; v }
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append([]string{"--quiet", "--color", "off"}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	traceCleanup()
	return out.String(), err
}

func sampleFile(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.kl")
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCheckEmit(t *testing.T) {
	path := sampleFile(t, sample)
	out, err := execute(t, "check", "--emit", "counted", "--format", "yaml", path)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out, "op: Destroy") {
		t.Fatalf("output:\n%s", out)
	}
}

func TestCheckEmitNeedsStage(t *testing.T) {
	path := sampleFile(t, sample)
	_, err := execute(t, "check", "--stop-after", "qualify", "--emit", "typed", "--format", "text", path)
	if err == nil || !strings.Contains(err.Error(), "--stop-after") {
		t.Fatalf("err = %v", err)
	}
}

func TestCheckEmitOnError(t *testing.T) {
	path := sampleFile(t, "func f(x: F64): F64 = x\nfunc g(): F64 = f(True)\n")
	out, err := execute(t, "check", "--stop-after", "refcount", "--emit", "", "--format", "text", "--emit-on-error", path)
	if !errors.Is(err, errFailed) {
		t.Fatalf("err = %v, want errFailed", err)
	}
	if !strings.Contains(out, "f") || out == "" {
		t.Fatalf("no partial tree printed")
	}
}

func TestBuildWritesIR(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.kl"), []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(t.TempDir(), "out")
	if _, err := execute(t, "build", "--ui", "off", "--disk-cache=false", "--format", "text", "-o", outDir, dir); err != nil {
		t.Fatalf("build: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(outDir, "a.ir"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "unbox") {
		t.Fatalf("ir:\n%s", data)
	}
}

func TestVersionJSON(t *testing.T) {
	out, err := execute(t, "version", "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"tool": "keel"`) {
		t.Fatalf("version = %s", out)
	}
	versionFormat = "pretty"
}

func TestReadUIMode(t *testing.T) {
	if m, err := readUIMode(""); err != nil || m != uiModeAuto {
		t.Fatalf("default = %s, %v", m, err)
	}
	if _, err := readUIMode("maybe"); err == nil {
		t.Fatalf("bad mode accepted")
	}
	if !shouldUseTUI(uiModeOn) || shouldUseTUI(uiModeOff) {
		t.Fatalf("explicit modes ignored")
	}
}

func TestIRName(t *testing.T) {
	if got := irName("nested/a.kl", driver.FormatYAML); got != "nested/a.yaml" {
		t.Fatalf("yaml name = %s", got)
	}
	if got := irName("a.kl", driver.FormatText); got != "a.ir" {
		t.Fatalf("text name = %s", got)
	}
}
