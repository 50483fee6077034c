package driver

import (
	"errors"
	"fmt"
	"io"

	"keel/internal/ast"
	"keel/internal/buildpipeline"
	"keel/internal/lower"
	"keel/internal/qualify"
	"keel/internal/sizer"
	"keel/internal/typecheck"
	"keel/internal/typepass"
)

// emitNames maps --emit values onto the stage that produces the tree.
var emitNames = map[string]buildpipeline.Stage{
	"parsed":     buildpipeline.StageParse,
	"qualified":  buildpipeline.StageQualify,
	"typed":      buildpipeline.StageTypecheck,
	"typepassed": buildpipeline.StageTypepass,
	"sized":      buildpipeline.StageSizer,
	"lowered":    buildpipeline.StageLower,
	"counted":    buildpipeline.StageRefcount,
}

// ParseEmit resolves an --emit value; a bare stage name is accepted too.
func ParseEmit(s string) (buildpipeline.Stage, error) {
	if st, ok := emitNames[s]; ok {
		return st, nil
	}
	if st := buildpipeline.Stage(s); st.Index() >= 0 {
		return st, nil
	}
	return "", fmt.Errorf("unknown --emit value %q (expected parsed|qualified|typed|typepassed|sized|lowered|counted)", s)
}

// Format of a tree dump.
type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatYAML:
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q (expected text|yaml)", s)
	}
}

// ErrNotBuilt is returned by Emit when the requested tree does not exist.
var ErrNotBuilt = errors.New("tree was not built")

// Emit writes the tree produced by stage. YAML is available for the
// lowered program only.
func (r *Result) Emit(w io.Writer, stage buildpipeline.Stage, format Format) error {
	if format == FormatYAML {
		prog := r.Counted
		if stage == buildpipeline.StageLower {
			prog = r.Lowered
		}
		if stage.Index() < buildpipeline.StageLower.Index() {
			return fmt.Errorf("yaml output is only available for lowered programs, not %s", stage)
		}
		if prog == nil {
			return fmt.Errorf("%s: %w", stage, ErrNotBuilt)
		}
		return lower.EncodeYAML(w, prog)
	}

	var err error
	switch stage {
	case buildpipeline.StageParse:
		if r.Builder == nil {
			return fmt.Errorf("%s: %w", stage, ErrNotBuilt)
		}
		err = ast.Dump(w, r.Builder, r.FileID, r.Table.Strings)
	case buildpipeline.StageQualify:
		err = dumpIf(r.Qualified != nil, stage, func() error { return qualify.Dump(w, r.Qualified) })
	case buildpipeline.StageTypecheck:
		err = dumpIf(r.Typed != nil, stage, func() error { return typecheck.Dump(w, r.Typed) })
	case buildpipeline.StageTypepass:
		err = dumpIf(r.TypePassed != nil, stage, func() error { return typepass.Dump(w, r.TypePassed, r.Builders) })
	case buildpipeline.StageSizer:
		err = dumpIf(r.Sized != nil, stage, func() error { return sizer.Dump(w, r.Sized) })
	case buildpipeline.StageLower:
		err = dumpIf(r.Lowered != nil, stage, func() error { return lower.Dump(w, r.Lowered) })
	case buildpipeline.StageRefcount:
		err = dumpIf(r.Counted != nil, stage, func() error { return lower.Dump(w, r.Counted) })
	default:
		err = fmt.Errorf("unknown stage %q", stage)
	}
	return err
}

func dumpIf(built bool, stage buildpipeline.Stage, dump func() error) error {
	if !built {
		return fmt.Errorf("%s: %w", stage, ErrNotBuilt)
	}
	return dump()
}

// LastBuilt is the latest stage whose tree exists, for --emit-on-error.
func (r *Result) LastBuilt() (buildpipeline.Stage, bool) {
	if r.Reached == "" {
		return "", false
	}
	return r.Reached, true
}
