package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"keel/internal/buildpipeline"
	"keel/internal/diag"
	"keel/internal/source"
	"keel/internal/trace"
)

// SourceExt is the extension of keel source files.
const SourceExt = ".kl"

// Unit is the outcome of one file of a directory build.
type Unit struct {
	Path string
	// Result is nil when the unit came from the cache.
	Result  *Result
	Summary Summary
	Cached  bool
}

// ListFiles returns every source file under dir, sorted.
func ListFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, SourceExt) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// CompileDir compiles every source file under dir, up to opts.Jobs at a
// time. Each file is its own unit with its own tag space. With a cache,
// files whose content and options are unchanged are answered from disk.
func CompileDir(ctx context.Context, dir string, opts Options, cache *DiskCache) ([]Unit, error) {
	files, err := ListFiles(dir)
	if err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "build:"+dir)
	defer span.End("")

	units := make([]Unit, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(opts.Jobs, max(len(files), 1)))
	for i, path := range files {
		buildpipeline.Notify(opts.Sink, buildpipeline.Event{File: path, Status: buildpipeline.StatusQueued})
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			units[i] = compileUnit(gctx, path, opts, cache)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return units, err
	}
	return units, nil
}

func compileUnit(ctx context.Context, path string, opts Options, cache *DiskCache) Unit {
	start := time.Now()
	fset := source.NewFileSet()
	id, err := fset.Load(path)
	if err != nil {
		return loadFailure(path, err, opts)
	}
	file := fset.Get(id)
	key := cacheKey(file.Content, opts)
	var payload CachePayload
	if hit, err := cache.Get(key, &payload); err == nil && hit {
		trace.Point(trace.FromContext(ctx), trace.ScopeStage, "cache-hit", path, 0)
		buildpipeline.Notify(opts.Sink, buildpipeline.Event{
			File:    path,
			Stage:   payload.Summary.Reached,
			Status:  buildpipeline.StatusCached,
			Elapsed: time.Since(start),
		})
		return Unit{Path: path, Summary: payload.Summary, Cached: true}
	}

	res := compileFile(ctx, fset, file, opts)
	sum := Summarize(res)
	if err := cache.Put(key, &CachePayload{
		Schema:  cacheSchema,
		Session: opts.Session,
		Created: time.Now(),
		Summary: sum,
	}); err != nil {
		trace.Point(trace.FromContext(ctx), trace.ScopeStage, "cache-write-failed", err.Error(), 0)
	}
	return Unit{Path: path, Result: res, Summary: sum}
}

func loadFailure(path string, err error, opts Options) Unit {
	bag := diag.NewBag(opts.MaxDiagnostics)
	bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{}, "failed to load file: "+err.Error()))
	res := &Result{Path: path, FileSet: source.NewFileSet(), Bag: bag, Session: opts.Session}
	buildpipeline.Notify(opts.Sink, buildpipeline.Event{File: path, Status: buildpipeline.StatusError, Err: err})
	return Unit{Path: path, Result: res, Summary: Summarize(res)}
}
