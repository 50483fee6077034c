package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"keel/internal/diag"
	"keel/internal/diagfmt"
	"keel/internal/observ"
	"keel/internal/source"
)

// outputSettings collects the persistent flags that shape what a command
// prints.
type outputSettings struct {
	style          diagfmt.Style
	color          bool
	notes          bool
	quiet          bool
	timings        bool
	maxDiagnostics int
}

func readOutputSettings(cmd *cobra.Command) (outputSettings, error) {
	flags := cmd.Root().PersistentFlags()
	var s outputSettings

	colorMode, err := flags.GetString("color")
	if err != nil {
		return s, fmt.Errorf("failed to get color flag: %w", err)
	}
	styleStr, err := flags.GetString("diagnostics")
	if err != nil {
		return s, fmt.Errorf("failed to get diagnostics flag: %w", err)
	}
	if s.style, err = diagfmt.ParseStyle(styleStr); err != nil {
		return s, err
	}
	if s.notes, err = flags.GetBool("with-notes"); err != nil {
		return s, fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	if s.quiet, err = flags.GetBool("quiet"); err != nil {
		return s, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if s.timings, err = flags.GetBool("timings"); err != nil {
		return s, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if s.maxDiagnostics, err = flags.GetInt("max-diagnostics"); err != nil {
		return s, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	switch colorMode {
	case "auto", "on", "off":
	default:
		return s, fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorMode)
	}
	s.color = diagfmt.ColorEnabled(colorMode, os.Stderr)
	return s, nil
}

// timer returns a timer when --timings is on; nil timers are no-ops.
func (s outputSettings) timer() *observ.Timer {
	if !s.timings {
		return nil
	}
	return observ.NewTimer()
}

// diagnostics renders bag to w in the selected style.
func (s outputSettings) diagnostics(w io.Writer, bag *diag.Bag, fs *source.FileSet) error {
	if bag == nil || bag.Len() == 0 {
		return nil
	}
	bag.Sort()
	switch s.style {
	case diagfmt.StyleJSON:
		return diagfmt.JSON(w, bag, fs, diagfmt.JSONOpts{IncludePositions: true, IncludeNotes: s.notes})
	case diagfmt.StyleShort:
		return diagfmt.Short(w, bag, fs, diagfmt.PathModeAuto, "")
	default:
		return diagfmt.Pretty(w, bag, fs, diagfmt.PrettyOpts{Color: s.color, Context: 1, ShowNotes: s.notes})
	}
}

// status prints a progress line unless --quiet.
func (s outputSettings) status(format string, args ...any) {
	if s.quiet {
		return
	}
	fmt.Fprintf(os.Stdout, format+"\n", args...)
}
