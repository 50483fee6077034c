package driver

import (
	"context"

	"golang.org/x/sync/errgroup"

	"keel/internal/lower"
	"keel/internal/refcount"
	"keel/internal/trace"
)

// countFunctions inserts destroys into every function, up to jobs at a
// time. Functions are independent after lowering. The error reported is
// the one of the first failing function in program order.
func countFunctions(ctx context.Context, prog *lower.Program, jobs int) (*lower.Program, error) {
	out := *prog
	out.Functions = make([]*lower.Function, len(prog.Functions))
	errs := make([]error, len(prog.Functions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(jobs, 1))
	for i, fn := range prog.Functions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, span := trace.Start(gctx, trace.ScopeFunction, "refcount:"+fn.Name)
			counted, err := refcount.Function(fn)
			if err != nil {
				span.End("error")
				errs[i] = err
				return nil
			}
			span.End("")
			out.Functions[i] = counted
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return &out, nil
}
