package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"keel/internal/diag"
	"keel/internal/source"
)

type palette struct {
	err, warn, info, code, path, gutter, caret, note *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		err:    mk(color.FgRed, color.Bold),
		warn:   mk(color.FgYellow, color.Bold),
		info:   mk(color.FgCyan, color.Bold),
		code:   mk(color.Bold),
		path:   mk(color.FgWhite, color.Bold),
		gutter: mk(color.FgBlue),
		caret:  mk(color.FgRed),
		note:   mk(color.FgGreen),
	}
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.info
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	pal := newPalette(opts.Color)
	for i, d := range bag.Items() {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := prettyOne(w, d, fs, opts, pal); err != nil {
			return err
		}
	}
	return nil
}

func prettyOne(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, pal palette) error {
	f := fileOf(fs, d.Primary.File)
	start, _ := fs.Resolve(d.Primary)
	if _, err := fmt.Fprintf(w, "%s: %s %s: %s\n",
		pal.path.Sprintf("%s:%d:%d", displayPath(f, opts.PathMode, opts.BaseDir), start.Line, start.Col),
		pal.severity(d.Severity).Sprint(d.Severity.String()),
		pal.code.Sprint(d.Code.ID()),
		d.Message,
	); err != nil {
		return err
	}
	if f != nil {
		if err := snippet(w, f, d.Primary, int(opts.Context), pal); err != nil {
			return err
		}
	}
	if !opts.ShowNotes {
		return nil
	}
	for _, n := range d.Notes {
		nf := fileOf(fs, n.Span.File)
		pos, _ := fs.Resolve(n.Span)
		if _, err := fmt.Fprintf(w, "  %s %s:%d:%d: %s\n",
			pal.note.Sprint("note:"),
			displayPath(nf, opts.PathMode, opts.BaseDir), pos.Line, pos.Col, n.Msg,
		); err != nil {
			return err
		}
		if nf != nil && !n.Span.Empty() {
			if err := snippet(w, nf, n.Span, 0, pal); err != nil {
				return err
			}
		}
	}
	return nil
}

// snippet prints the primary line with up to ctx lines around it and
// underlines span on the first line.
func snippet(w io.Writer, f *source.File, span source.Span, ctx int, pal palette) error {
	start, end := f.Position(span.Start), f.Position(span.End)
	total := uint32(len(f.LineIdx) + 1)
	first := start.Line - min(start.Line-1, uint32(max(ctx, 0)))
	last := min(start.Line+uint32(max(ctx, 0)), total)
	width := len(fmt.Sprint(last))
	for ln := first; ln <= last; ln++ {
		text := strings.ReplaceAll(f.Line(ln), "\t", "    ")
		if _, err := fmt.Fprintf(w, "%s %s\n", pal.gutter.Sprintf("%*d |", width, ln), text); err != nil {
			return err
		}
		if ln != start.Line {
			continue
		}
		raw := f.Line(ln)
		from := int(start.Col) - 1
		to := len(raw)
		if end.Line == start.Line {
			to = int(end.Col) - 1
		}
		from, to = min(from, len(raw)), min(max(to, from), len(raw))
		pad := runewidth.StringWidth(strings.ReplaceAll(raw[:from], "\t", "    "))
		marks := max(runewidth.StringWidth(raw[from:to]), 1)
		if _, err := fmt.Fprintf(w, "%s %s%s\n",
			pal.gutter.Sprintf("%*s |", width, ""),
			strings.Repeat(" ", pad),
			pal.caret.Sprint("^"+strings.Repeat("~", marks-1)),
		); err != nil {
			return err
		}
	}
	return nil
}

// Short prints one line per diagnostic: path:line:col: SEV CODE: message.
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet, mode PathMode, base string) error {
	for _, d := range bag.Items() {
		pos, _ := fs.Resolve(d.Primary)
		if _, err := fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n",
			displayPath(fileOf(fs, d.Primary.File), mode, base), pos.Line, pos.Col,
			d.Severity, d.Code.ID(), d.Message,
		); err != nil {
			return err
		}
	}
	return nil
}
