package driver

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/google/uuid"

	"keel/internal/ast"
	"keel/internal/buildpipeline"
	"keel/internal/diag"
	"keel/internal/layout"
	"keel/internal/lower"
	"keel/internal/observ"
	"keel/internal/parser"
	"keel/internal/qualify"
	"keel/internal/sizer"
	"keel/internal/source"
	"keel/internal/symbols"
	"keel/internal/trace"
	"keel/internal/typecheck"
	"keel/internal/typepass"
)

// Options configure one compilation unit.
type Options struct {
	// StopAfter is the last stage to run; zero value runs the whole pipeline.
	StopAfter      buildpipeline.Stage
	Target         layout.Target
	Jobs           int
	MaxDiagnostics int
	// Module numbers the tag space of the unit; 1 when zero.
	Module uint32
	Timer  *observ.Timer
	Sink   buildpipeline.ProgressSink
	// Session tags trace events and cache entries; generated when empty.
	Session string
}

func (o Options) withDefaults() Options {
	if o.StopAfter == "" {
		o.StopAfter = buildpipeline.StageRefcount
	}
	if o.Target.PtrSize == 0 {
		o.Target = layout.X86_64LinuxGNU()
	}
	if o.Jobs <= 0 {
		o.Jobs = runtime.GOMAXPROCS(0)
	}
	if o.Module == 0 {
		o.Module = 1
	}
	if o.Session == "" {
		o.Session = uuid.NewString()
	}
	return o
}

// Result holds every tree built for one file. Trees of stages that did
// not run are nil; Reached names the last stage that succeeded.
type Result struct {
	Path    string
	FileSet *source.FileSet
	File    *source.File
	Builder *ast.Builder
	FileID  ast.FileID
	Table   *symbols.Table

	Qualified  *qualify.Program
	Typed      *typecheck.Program
	TypePassed *typepass.Program
	Builders   typepass.StructBuilders
	Sized      *sizer.Program
	Lowered    *lower.Program
	Counted    *lower.Program

	Reached buildpipeline.Stage
	Bag     *diag.Bag
	Session string
}

// Failed reports whether any stage produced an error.
func (r *Result) Failed() bool { return r.Bag.HasErrors() }

// Compile loads path and runs the pipeline over it. The returned error is
// for I/O only; stage failures land in Result.Bag.
func Compile(ctx context.Context, path string, opts Options) (*Result, error) {
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return compileFile(ctx, fs, fs.Get(id), opts), nil
}

// CompileSource runs the pipeline over an in-memory file.
func CompileSource(ctx context.Context, name string, src []byte, opts Options) *Result {
	fs := source.NewFileSet()
	id := fs.AddVirtual(name, src)
	return compileFile(ctx, fs, fs.Get(id), opts)
}

// errReported: the stage already put its diagnostics into the bag.
var errReported = errors.New("diagnostics reported")

type pipeline struct {
	ctx  context.Context
	opts Options
	res  *Result
}

type stageFunc func(*pipeline) error

var stageFuncs = map[buildpipeline.Stage]stageFunc{
	buildpipeline.StageParse:     (*pipeline).parse,
	buildpipeline.StageQualify:   (*pipeline).qualify,
	buildpipeline.StageTypecheck: (*pipeline).typecheck,
	buildpipeline.StageTypepass:  (*pipeline).typepass,
	buildpipeline.StageSizer:     (*pipeline).sizer,
	buildpipeline.StageLower:     (*pipeline).lower,
	buildpipeline.StageRefcount:  (*pipeline).refcount,
}

func compileFile(ctx context.Context, fs *source.FileSet, file *source.File, opts Options) *Result {
	start := time.Now()
	opts = opts.withDefaults()
	res := &Result{
		Path:    file.Path,
		FileSet: fs,
		File:    file,
		Bag:     diag.NewBag(opts.MaxDiagnostics),
		Session: opts.Session,
	}
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "compile:"+file.Path)
	p := &pipeline{ctx: ctx, opts: opts, res: res}
	for _, st := range buildpipeline.Stages {
		if err := p.ctx.Err(); err != nil {
			p.report(err)
			break
		}
		if !p.run(st) {
			break
		}
		res.Reached = st
		if st == opts.StopAfter {
			break
		}
	}
	status := buildpipeline.StatusDone
	if res.Failed() {
		status = buildpipeline.StatusError
	}
	buildpipeline.Notify(opts.Sink, buildpipeline.Event{
		File:    file.Path,
		Stage:   res.Reached,
		Status:  status,
		Elapsed: time.Since(start),
	})
	span.WithExtra("reached", string(res.Reached)).
		WithExtra("diagnostics", strconv.Itoa(res.Bag.Len())).
		End(string(status))
	return res
}

func (p *pipeline) run(st buildpipeline.Stage) bool {
	buildpipeline.Notify(p.opts.Sink, buildpipeline.Event{File: p.res.Path, Stage: st, Status: buildpipeline.StatusWorking})
	done := p.opts.Timer.Track(string(st))
	ctx, span := trace.Start(p.ctx, trace.ScopeStage, string(st))
	prev := p.ctx
	p.ctx = ctx
	err := stageFuncs[st](p)
	p.ctx = prev
	if err != nil {
		span.End("error")
		done(p.res.Path + ": failed")
		p.report(err)
		return false
	}
	span.End("ok")
	done(p.res.Path)
	return true
}

func (p *pipeline) report(err error) {
	if errors.Is(err, errReported) {
		return
	}
	d := diagnostic(err)
	if d.Primary == (source.Span{}) {
		d.Primary = p.functionSpan(err)
	}
	p.res.Bag.Add(d)
}

func (p *pipeline) parse() error {
	r := p.res
	r.Builder = ast.NewBuilder(ast.Hints{})
	r.Table = symbols.NewTable(symbols.Hints{}, nil)
	id, err := parser.ParseFile(r.File, r.Builder, r.Table.Strings, parser.Options{
		Reporter: diag.BagReporter{Bag: r.Bag},
	})
	r.FileID = id
	if err != nil {
		return err
	}
	if r.Bag.HasErrors() {
		return errReported
	}
	return nil
}

func (p *pipeline) qualify() error {
	q, err := qualify.File(p.res.Builder, p.res.FileID, p.res.Table, symbols.NewTagSource(p.opts.Module))
	if err != nil {
		return err
	}
	p.res.Qualified = q
	return nil
}

func (p *pipeline) typecheck() error {
	prog, err := typecheck.Check(p.res.Qualified)
	if err != nil {
		return err
	}
	p.res.Typed = prog
	return nil
}

func (p *pipeline) typepass() error {
	p.res.TypePassed, p.res.Builders = typepass.Pass(p.res.Typed)
	return nil
}

func (p *pipeline) sizer() error {
	prog, err := sizer.Measure(p.res.TypePassed, p.res.Builders, p.opts.Target)
	if err != nil {
		return err
	}
	p.res.Sized = prog
	return nil
}

func (p *pipeline) lower() error {
	prog, err := lower.Lower(p.res.Sized)
	if err != nil {
		return err
	}
	if err := lower.Validate(prog); err != nil {
		return err
	}
	p.res.Lowered = prog
	return nil
}

func (p *pipeline) refcount() error {
	prog, err := countFunctions(p.ctx, p.res.Lowered, p.opts.Jobs)
	if err != nil {
		return err
	}
	p.res.Counted = prog
	return nil
}
