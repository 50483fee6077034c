package ast

import (
	"fmt"
	"io"
	"strings"

	"keel/internal/source"
)

// Dump writes an indented tree of file to w.
func Dump(w io.Writer, b *Builder, file FileID, strs *source.Interner) error {
	p := printer{b: b, strs: strs}
	f := b.Files.Get(file)
	if f == nil {
		return fmt.Errorf("unknown file %d", file)
	}
	for _, id := range f.Items {
		p.item(id)
	}
	_, err := io.WriteString(w, p.out.String())
	return err
}

type printer struct {
	b      *Builder
	strs   *source.Interner
	out    strings.Builder
	indent int
}

func (p *printer) line(format string, args ...any) {
	p.out.WriteString(strings.Repeat("  ", p.indent))
	fmt.Fprintf(&p.out, format, args...)
	p.out.WriteByte('\n')
}

func (p *printer) name(id source.StringID) string {
	s, _ := p.strs.Lookup(id)
	return s
}

func (p *printer) item(id ItemID) {
	if fn, ok := p.b.Items.Func(id); ok {
		p.line("func %s%s: %s", p.name(fn.Name), p.generics(fn.Generics), p.typ(fn.Result))
		p.indent++
		for _, param := range fn.Params {
			p.line("param %s: %s", p.pattern(param.Pattern), p.typ(param.Type))
		}
		p.expr(fn.Body)
		p.indent--
		return
	}
	if st, ok := p.b.Items.Struct(id); ok {
		p.line("struct %s%s", p.name(st.Name), p.generics(st.Generics))
		p.indent++
		for _, f := range st.Fields {
			p.line("field %s: %s", p.name(f.Name), p.typ(f.Type))
		}
		p.indent--
	}
}

func (p *printer) generics(gs []Generic) string {
	if len(gs) == 0 {
		return ""
	}
	names := make([]string, len(gs))
	for i, g := range gs {
		names[i] = p.name(g.Name)
	}
	return "[" + strings.Join(names, ", ") + "]"
}

func (p *printer) typ(id TypeID) string {
	t := p.b.Types.Get(id)
	if t == nil {
		return "?"
	}
	switch t.Kind {
	case TypeNamed:
		return p.name(t.Name)
	case TypeApplication:
		args := make([]string, len(t.Args))
		for i, a := range t.Args {
			args[i] = p.typ(a)
		}
		return p.name(t.Name) + "[" + strings.Join(args, ", ") + "]"
	case TypeFunction:
		args := make([]string, len(t.Args))
		for i, a := range t.Args {
			args[i] = p.typ(a)
		}
		return "(" + strings.Join(args, ", ") + ") -> " + p.typ(t.Result)
	}
	return "?"
}

func (p *printer) pattern(id PatternID) string {
	pat := p.b.Patterns.Get(id)
	if pat == nil {
		return "?"
	}
	if pat.Kind == PatVariable {
		return p.name(pat.Name)
	}
	fields := make([]string, len(pat.Fields))
	for i, f := range pat.Fields {
		fields[i] = p.name(f.Name) + ": " + p.pattern(f.Pattern)
	}
	return p.name(pat.Name) + " { " + strings.Join(fields, ", ") + " }"
}

func (p *printer) expr(id ExprID) {
	e := p.b.Exprs.Get(id)
	if e == nil {
		p.line("<missing>")
		return
	}
	switch e.Kind {
	case ExprLiteral:
		lit, _ := p.b.Exprs.Literal(id)
		p.line("Literal %s", lit.Text)
	case ExprVariable:
		v, _ := p.b.Exprs.Variable(id)
		p.line("Variable %s", p.name(v.Name))
	case ExprCall:
		call, _ := p.b.Exprs.Call(id)
		p.line("Call")
		p.indent++
		p.expr(call.Callee)
		for _, a := range call.Args {
			p.expr(a)
		}
		p.indent--
	case ExprOperation:
		op, _ := p.b.Exprs.Operation(id)
		p.line("Operation %s", op.Op)
		p.indent++
		p.expr(op.Left)
		p.expr(op.Right)
		p.indent--
	case ExprStructLiteral:
		lit, _ := p.b.Exprs.StructLiteral(id)
		p.line("StructLiteral %s", p.name(lit.Name))
		p.indent++
		for _, f := range lit.Fields {
			p.line("%s:", p.name(f.Name))
			p.indent++
			p.expr(f.Value)
			p.indent--
		}
		p.indent--
	case ExprBlock:
		blk, _ := p.b.Exprs.Block(id)
		p.line("Block")
		p.indent++
		for _, let := range blk.Lets {
			p.line("let %s =", p.pattern(let.Pattern))
			p.indent++
			p.expr(let.Value)
			p.indent--
		}
		p.expr(blk.Result)
		p.indent--
	case ExprAnnotated:
		ann, _ := p.b.Exprs.Annotated(id)
		p.line("Annotated %s", p.typ(ann.Type))
		p.indent++
		p.expr(ann.Value)
		p.indent--
	case ExprCase:
		cs, _ := p.b.Exprs.Case(id)
		p.line("Case")
		p.indent++
		p.expr(cs.Scrutinee)
		for _, arm := range cs.Arms {
			p.line("%s =>", p.pattern(arm.Pattern))
			p.indent++
			p.expr(arm.Body)
			p.indent--
		}
		p.indent--
	case ExprIf:
		ifd, _ := p.b.Exprs.If(id)
		p.line("If")
		p.indent++
		p.expr(ifd.Cond)
		p.expr(ifd.Then)
		p.expr(ifd.Else)
		p.indent--
	case ExprClosure:
		cl, _ := p.b.Exprs.Closure(id)
		p.line("Closure")
		p.indent++
		for _, param := range cl.Params {
			p.line("param %s: %s", p.pattern(param.Pattern), p.typ(param.Type))
		}
		p.expr(cl.Body)
		p.indent--
	}
}
