package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"keel/internal/buildpipeline"
	"keel/internal/driver"
	"keel/internal/layout"
)

const manifestName = "keel.toml"

const noManifestMessage = "no keel.toml found\nplease specify the input explicitly, e.g.:\n  keel build path/to/file.kl"

type projectManifest struct {
	Path   string
	Root   string
	Config projectConfig
}

type projectConfig struct {
	Package packageConfig `toml:"package"`
	Build   buildConfig   `toml:"build"`
}

type packageConfig struct {
	Name string `toml:"name"`
}

type buildConfig struct {
	Main      string `toml:"main"`
	StopAfter string `toml:"stop_after"`
	Jobs      int    `toml:"jobs"`
	PtrSize   int    `toml:"ptr_size"`
	Cache     bool   `toml:"cache"`
}

func findManifest(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, manifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadProjectManifest(startDir string) (*projectManifest, bool, error) {
	path, ok, err := findManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := loadProjectConfig(path)
	if err != nil {
		return nil, true, err
	}
	return &projectManifest{Path: path, Root: filepath.Dir(path), Config: cfg}, true, nil
}

func loadProjectConfig(path string) (projectConfig, error) {
	var cfg projectConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return projectConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return projectConfig{}, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	if !meta.IsDefined("package") {
		return projectConfig{}, fmt.Errorf("%s: missing [package]", path)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return projectConfig{}, fmt.Errorf("%s: missing [package].name", path)
	}
	if !meta.IsDefined("build") {
		return projectConfig{}, fmt.Errorf("%s: missing [build]", path)
	}
	if !meta.IsDefined("build", "main") || strings.TrimSpace(cfg.Build.Main) == "" {
		return projectConfig{}, fmt.Errorf("%s: missing [build].main", path)
	}
	if meta.IsDefined("build", "stop_after") {
		if _, err := buildpipeline.ParseStage(cfg.Build.StopAfter); err != nil {
			return projectConfig{}, fmt.Errorf("%s: [build].stop_after: %w", path, err)
		}
	}
	if meta.IsDefined("build", "ptr_size") {
		if _, err := layout.ForPtrSize(cfg.Build.PtrSize); err != nil {
			return projectConfig{}, fmt.Errorf("%s: [build].ptr_size: %w", path, err)
		}
	}
	if cfg.Build.Jobs < 0 {
		return projectConfig{}, fmt.Errorf("%s: [build].jobs must not be negative", path)
	}
	return cfg, nil
}

// mainPath resolves [build].main against the manifest directory.
func (m *projectManifest) mainPath() (string, error) {
	p := filepath.Join(m.Root, filepath.FromSlash(strings.TrimSpace(m.Config.Build.Main)))
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s: [build].main path does not exist: %s", m.Path, p)
		}
		return "", fmt.Errorf("%s: failed to stat [build].main: %w", m.Path, err)
	}
	if !info.IsDir() && filepath.Ext(p) != driver.SourceExt {
		return "", fmt.Errorf("%s: [build].main must be a %s file or directory", m.Path, driver.SourceExt)
	}
	return p, nil
}
