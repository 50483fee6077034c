package driver

import (
	"keel/internal/buildpipeline"
	"keel/internal/lower"
)

// Summary is the cacheable outcome of compiling one file.
type Summary struct {
	Path        string
	Reached     buildpipeline.Stage
	Failed      bool
	Structs     []StructSummary
	Functions   []FunctionSummary
	Diagnostics []DiagnosticSummary
}

type StructSummary struct {
	Name string
	Size string
}

type FunctionSummary struct {
	Name     string
	Closure  bool
	Frame    string
	Instrs   int
	Destroys int
}

type DiagnosticSummary struct {
	Code    uint16
	Message string
	Start   uint32
	End     uint32
}

// Summarize captures r without its trees.
func Summarize(r *Result) Summary {
	s := Summary{Path: r.Path, Reached: r.Reached, Failed: r.Failed()}
	prog := r.Counted
	if prog == nil {
		prog = r.Lowered
	}
	if prog != nil {
		for _, st := range prog.Structs {
			s.Structs = append(s.Structs, StructSummary{Name: st.Name, Size: st.Layout.Size.String()})
		}
		for _, fn := range prog.Functions {
			fs := FunctionSummary{Name: fn.Name, Closure: fn.Closure, Frame: fn.Frame.Size.String()}
			lower.Walk(fn.Body, func(in *lower.Instr) {
				fs.Instrs++
				if in.Kind == lower.InstrDestroy {
					fs.Destroys++
				}
			})
			s.Functions = append(s.Functions, fs)
		}
	}
	for _, d := range r.Bag.Items() {
		s.Diagnostics = append(s.Diagnostics, DiagnosticSummary{
			Code:    uint16(d.Code),
			Message: d.Message,
			Start:   d.Primary.Start,
			End:     d.Primary.End,
		})
	}
	return s
}
