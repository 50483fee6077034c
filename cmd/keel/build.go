package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"keel/internal/buildpipeline"
	"keel/internal/diag"
	"keel/internal/driver"
	"keel/internal/layout"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] [file.kl|dir]",
	Short: "Compile a file or every file of a directory to refcounted IR",
	Long: `Build runs the whole pipeline. Without an argument it reads keel.toml
from the current directory or its parents and builds [build].main.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	buildCmd.Flags().String("ui", "auto", "user interface (auto|on|off)")
	buildCmd.Flags().Bool("disk-cache", false, "reuse results of unchanged files across runs")
	buildCmd.Flags().String("format", "text", "IR format for -o (text|yaml)")
	buildCmd.Flags().StringP("output", "o", "", "write the IR to this file (a directory for directory builds)")
	buildCmd.Flags().String("stop-after", "", "last stage to run")
	buildCmd.Flags().Int("ptr-size", 0, "target pointer size in bytes (4|8)")
}

type buildRequest struct {
	input   string
	root    string
	name    string
	stop    buildpipeline.Stage
	jobs    int
	ptrSize int
	cache   bool
	ui      uiMode
	format  driver.Format
	output  string
}

func targetFor(ptrSize int) (layout.Target, error) {
	return layout.ForPtrSize(ptrSize)
}

// readBuildRequest merges flags over keel.toml; explicit flags win.
func readBuildRequest(cmd *cobra.Command, args []string) (buildRequest, error) {
	var req buildRequest
	flags := cmd.Flags()

	manifest, found, err := loadProjectManifest(".")
	if err != nil {
		return req, err
	}
	switch {
	case len(args) == 1:
		req.input = args[0]
	case found:
		if req.input, err = manifest.mainPath(); err != nil {
			return req, err
		}
		req.root = manifest.Root
	default:
		return req, errors.New(noManifestMessage)
	}
	stopStr := ""
	if found {
		req.name = manifest.Config.Package.Name
		stopStr = manifest.Config.Build.StopAfter
		req.jobs = manifest.Config.Build.Jobs
		req.ptrSize = manifest.Config.Build.PtrSize
		req.cache = manifest.Config.Build.Cache
	}

	if flags.Changed("stop-after") {
		if stopStr, err = flags.GetString("stop-after"); err != nil {
			return req, fmt.Errorf("failed to get stop-after flag: %w", err)
		}
	}
	if flags.Changed("jobs") {
		if req.jobs, err = flags.GetInt("jobs"); err != nil {
			return req, fmt.Errorf("failed to get jobs flag: %w", err)
		}
	}
	if flags.Changed("ptr-size") {
		if req.ptrSize, err = flags.GetInt("ptr-size"); err != nil {
			return req, fmt.Errorf("failed to get ptr-size flag: %w", err)
		}
	}
	if flags.Changed("disk-cache") {
		if req.cache, err = flags.GetBool("disk-cache"); err != nil {
			return req, fmt.Errorf("failed to get disk-cache flag: %w", err)
		}
	}
	uiStr, err := flags.GetString("ui")
	if err != nil {
		return req, fmt.Errorf("failed to get ui flag: %w", err)
	}
	formatStr, err := flags.GetString("format")
	if err != nil {
		return req, fmt.Errorf("failed to get format flag: %w", err)
	}
	if req.output, err = flags.GetString("output"); err != nil {
		return req, fmt.Errorf("failed to get output flag: %w", err)
	}

	if req.stop, err = buildpipeline.ParseStage(stopStr); err != nil {
		return req, err
	}
	if req.ui, err = readUIMode(uiStr); err != nil {
		return req, err
	}
	if req.format, err = driver.ParseFormat(formatStr); err != nil {
		return req, err
	}
	if req.output != "" && req.stop.Index() < buildpipeline.StageLower.Index() {
		return req, fmt.Errorf("-o needs the lowered program; --stop-after %s ends before lowering", req.stop)
	}
	return req, nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	out, err := readOutputSettings(cmd)
	if err != nil {
		return err
	}
	req, err := readBuildRequest(cmd, args)
	if err != nil {
		return err
	}
	target, err := targetFor(req.ptrSize)
	if err != nil {
		return err
	}
	timer := out.timer()
	opts := driver.Options{
		StopAfter:      req.stop,
		Target:         target,
		Jobs:           req.jobs,
		MaxDiagnostics: out.maxDiagnostics,
		Timer:          timer,
		Session:        session,
	}
	defer printStageTimings(os.Stderr, timer)

	info, err := os.Stat(req.input)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", req.input, err)
	}
	if !info.IsDir() {
		return buildFile(cmd, out, req, opts)
	}
	return buildDir(cmd, out, req, opts)
}

func buildFile(cmd *cobra.Command, out outputSettings, req buildRequest, opts driver.Options) error {
	res, err := driver.Compile(cmd.Context(), req.input, opts)
	if err != nil {
		return err
	}
	if err := out.diagnostics(os.Stderr, res.Bag, res.FileSet); err != nil {
		return err
	}
	if res.Failed() {
		return errFailed
	}
	if req.output != "" {
		if err := writeIR(req.output, res, req); err != nil {
			return err
		}
	}
	out.status("built %s (%s)", displayName(req), res.Reached)
	return nil
}

func buildDir(cmd *cobra.Command, out outputSettings, req buildRequest, opts driver.Options) error {
	var cache *driver.DiskCache
	// с -o нужны деревья, а кэш хранит только сводки
	if req.cache && req.output == "" {
		c, err := driver.OpenDiskCache("keel")
		if err != nil {
			return fmt.Errorf("disk cache: %w", err)
		}
		cache = c
	}
	files, err := driver.ListFiles(req.input)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no %s files under %s", driver.SourceExt, req.input)
	}

	var units []driver.Unit
	if shouldUseTUI(req.ui) {
		units, err = runDirWithUI(cmd.Context(), "keel build "+displayName(req), req.input, files, opts, cache)
	} else {
		units, err = driver.CompileDir(cmd.Context(), req.input, opts, cache)
	}
	if err != nil {
		return err
	}

	failed := 0
	for _, u := range units {
		if u.Summary.Failed {
			failed++
		}
		if err := reportUnit(out, u); err != nil {
			return err
		}
		if req.output != "" && u.Result != nil && !u.Summary.Failed {
			rel, err := filepath.Rel(req.input, u.Path)
			if err != nil {
				return err
			}
			if err := writeIR(filepath.Join(req.output, irName(rel, req.format)), u.Result, req); err != nil {
				return err
			}
		}
	}
	if failed > 0 {
		out.status("%d of %d files failed", failed, len(units))
		return errFailed
	}
	out.status("built %d files", len(units))
	return nil
}

// reportUnit prints a unit's diagnostics. Cached units only carry the
// summary, so their diagnostics are printed from it in short form.
func reportUnit(out outputSettings, u driver.Unit) error {
	if u.Result != nil {
		return out.diagnostics(os.Stderr, u.Result.Bag, u.Result.FileSet)
	}
	for _, d := range u.Summary.Diagnostics {
		fmt.Fprintf(os.Stderr, "%s: %s: %s (cached)\n", u.Path, diag.Code(d.Code).ID(), d.Message)
	}
	if len(u.Summary.Diagnostics) == 0 {
		out.status("cached %s", u.Path)
	}
	return nil
}

func writeIR(path string, res *driver.Result, req buildRequest) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := res.Emit(f, req.stop, req.format); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func irName(rel string, format driver.Format) string {
	base := strings.TrimSuffix(rel, driver.SourceExt)
	if format == driver.FormatYAML {
		return base + ".yaml"
	}
	return base + ".ir"
}

func displayName(req buildRequest) string {
	if req.name != "" {
		return req.name
	}
	return filepath.ToSlash(filepath.Clean(req.input))
}
