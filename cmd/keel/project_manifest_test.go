package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, manifestName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadProjectConfig(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"complete", "[package]\nname = \"demo\"\n[build]\nmain = \"src\"\nstop_after = \"lower\"\njobs = 2\nptr_size = 4\ncache = true\n", ""},
		{"missing package", "[build]\nmain = \"src\"\n", "missing [package]"},
		{"empty name", "[package]\nname = \" \"\n[build]\nmain = \"src\"\n", "missing [package].name"},
		{"missing build", "[package]\nname = \"demo\"\n", "missing [build]"},
		{"missing main", "[package]\nname = \"demo\"\n[build]\njobs = 1\n", "missing [build].main"},
		{"bad stage", "[package]\nname = \"demo\"\n[build]\nmain = \"a.kl\"\nstop_after = \"codegen\"\n", "stop_after"},
		{"bad ptr size", "[package]\nname = \"demo\"\n[build]\nmain = \"a.kl\"\nptr_size = 2\n", "ptr_size"},
		{"unknown key", "[package]\nname = \"demo\"\nedition = 2\n[build]\nmain = \"a.kl\"\n", "unknown key"},
		{"bad toml", "[package\n", "failed to parse TOML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, t.TempDir(), tt.body)
			cfg, err := loadProjectConfig(path)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if cfg.Build.PtrSize != 4 || cfg.Build.Jobs != 2 || !cfg.Build.Cache || cfg.Build.StopAfter != "lower" {
					t.Fatalf("config = %+v", cfg)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestFindManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[package]\nname = \"demo\"\n[build]\nmain = \"main.kl\"\n")
	if err := os.WriteFile(filepath.Join(root, "main.kl"), []byte("func f(): F64 = 1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	m, found, err := loadProjectManifest(nested)
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	entry, err := m.mainPath()
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(entry) != "main.kl" {
		t.Fatalf("main = %s", entry)
	}
}

func TestMainPathRejectsOtherExtensions(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[package]\nname = \"demo\"\n[build]\nmain = \"main.txt\"\n")
	if err := os.WriteFile(filepath.Join(root, "main.txt"), nil, 0o600); err != nil {
		t.Fatal(err)
	}
	m, _, err := loadProjectManifest(root)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.mainPath(); err == nil {
		t.Fatalf("main.txt accepted")
	}
}
