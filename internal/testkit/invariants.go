package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"keel/internal/ast"
	"keel/internal/source"
)

// CheckSpanInvariants verifies the span tree of a parsed file: the file
// span fits the content, every node lies in sf and nests inside its
// parent, and named parts (struct literal fields, pattern fields, let
// bindings, case arms, params) are covered by the node that owns them.
func CheckSpanInvariants(b *ast.Builder, fileID ast.FileID, sf *source.File) error {
	if b == nil || sf == nil {
		return fmt.Errorf("nil builder or file")
	}
	f := b.Files.Get(fileID)
	if f == nil {
		return fmt.Errorf("file node %d not found", fileID)
	}
	size, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("content length: %w", err)
	}
	if f.Span.File != sf.ID || f.Span.End > size {
		return fmt.Errorf("file span %v outside %s (%d bytes)", f.Span, sf.Path, size)
	}
	w := spanWalker{b: b, file: sf.ID}
	for _, id := range f.Items {
		item := b.Items.Get(id)
		if item == nil {
			return fmt.Errorf("item %d not found", id)
		}
		if err := w.nested("item", item.Span, f.Span); err != nil {
			return err
		}
		if err := w.item(id, item.Span); err != nil {
			return err
		}
	}
	return nil
}

type spanWalker struct {
	b    *ast.Builder
	file source.FileID
}

func (w *spanWalker) nested(what string, sp, parent source.Span) error {
	if sp.Empty() {
		return fmt.Errorf("%s has empty span %v", what, sp)
	}
	if sp.File != w.file {
		return fmt.Errorf("%s span %v belongs to file %d", what, sp, sp.File)
	}
	if sp.Start < parent.Start || sp.End > parent.End {
		return fmt.Errorf("%s span %v escapes %v", what, sp, parent)
	}
	return nil
}

func (w *spanWalker) item(id ast.ItemID, sp source.Span) error {
	if fn, ok := w.b.Items.Func(id); ok {
		if err := w.nested("function name", fn.NameSpan, sp); err != nil {
			return err
		}
		for _, g := range fn.Generics {
			if err := w.nested("generic", g.Span, sp); err != nil {
				return err
			}
		}
		if err := w.params(fn.Params, sp); err != nil {
			return err
		}
		if err := w.typ(fn.Result, sp); err != nil {
			return err
		}
		return w.expr(fn.Body, sp)
	}
	st, ok := w.b.Items.Struct(id)
	if !ok {
		return fmt.Errorf("item %d has no payload", id)
	}
	if err := w.nested("struct name", st.NameSpan, sp); err != nil {
		return err
	}
	for _, f := range st.Fields {
		if err := w.nested("field", f.Span, sp); err != nil {
			return err
		}
		if err := w.typ(f.Type, sp); err != nil {
			return err
		}
	}
	return nil
}

func (w *spanWalker) params(ps []ast.Param, parent source.Span) error {
	for _, p := range ps {
		if err := w.nested("param", p.Span, parent); err != nil {
			return err
		}
		if err := w.pattern(p.Pattern, p.Span); err != nil {
			return err
		}
		if err := w.typ(p.Type, p.Span); err != nil {
			return err
		}
	}
	return nil
}

func (w *spanWalker) typ(id ast.TypeID, parent source.Span) error {
	if !id.IsValid() {
		return nil
	}
	t := w.b.Types.Get(id)
	if err := w.nested("type", t.Span, parent); err != nil {
		return err
	}
	for _, a := range t.Args {
		if err := w.typ(a, t.Span); err != nil {
			return err
		}
	}
	return w.typ(t.Result, t.Span)
}

func (w *spanWalker) pattern(id ast.PatternID, parent source.Span) error {
	if !id.IsValid() {
		return nil
	}
	p := w.b.Patterns.Get(id)
	if err := w.nested("pattern", p.Span, parent); err != nil {
		return err
	}
	for _, f := range p.Fields {
		if err := w.nested("pattern field", f.Span, p.Span); err != nil {
			return err
		}
		if err := w.pattern(f.Pattern, f.Span); err != nil {
			return err
		}
	}
	return nil
}

func (w *spanWalker) expr(id ast.ExprID, parent source.Span) error {
	if !id.IsValid() {
		return nil
	}
	e := w.b.Exprs.Get(id)
	what := "expression " + e.Kind.String()
	if err := w.nested(what, e.Span, parent); err != nil {
		return err
	}
	sp := e.Span
	exprs := w.b.Exprs
	switch e.Kind {
	case ast.ExprCall:
		d, _ := exprs.Call(id)
		if err := w.expr(d.Callee, sp); err != nil {
			return err
		}
		return w.exprList(d.Args, sp)
	case ast.ExprOperation:
		d, _ := exprs.Operation(id)
		return w.exprList([]ast.ExprID{d.Left, d.Right}, sp)
	case ast.ExprStructLiteral:
		d, _ := exprs.StructLiteral(id)
		if err := w.nested("struct name", d.NameSpan, sp); err != nil {
			return err
		}
		for _, f := range d.Fields {
			if err := w.nested("field initializer", f.Span, sp); err != nil {
				return err
			}
			if err := w.expr(f.Value, sp); err != nil {
				return err
			}
		}
	case ast.ExprBlock:
		d, _ := exprs.Block(id)
		for _, let := range d.Lets {
			if err := w.nested("let", let.Span, sp); err != nil {
				return err
			}
			if err := w.pattern(let.Pattern, let.Span); err != nil {
				return err
			}
			if err := w.expr(let.Value, let.Span); err != nil {
				return err
			}
		}
		return w.expr(d.Result, sp)
	case ast.ExprAnnotated:
		d, _ := exprs.Annotated(id)
		if err := w.expr(d.Value, sp); err != nil {
			return err
		}
		return w.typ(d.Type, sp)
	case ast.ExprCase:
		d, _ := exprs.Case(id)
		if err := w.expr(d.Scrutinee, sp); err != nil {
			return err
		}
		for _, arm := range d.Arms {
			if err := w.nested("case arm", arm.Span, sp); err != nil {
				return err
			}
			if err := w.pattern(arm.Pattern, arm.Span); err != nil {
				return err
			}
			if err := w.expr(arm.Body, arm.Span); err != nil {
				return err
			}
		}
	case ast.ExprIf:
		d, _ := exprs.If(id)
		return w.exprList([]ast.ExprID{d.Cond, d.Then, d.Else}, sp)
	case ast.ExprClosure:
		d, _ := exprs.Closure(id)
		if err := w.params(d.Params, sp); err != nil {
			return err
		}
		return w.expr(d.Body, sp)
	}
	return nil
}

func (w *spanWalker) exprList(ids []ast.ExprID, parent source.Span) error {
	for _, id := range ids {
		if err := w.expr(id, parent); err != nil {
			return err
		}
	}
	return nil
}
