package typepass

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes structs with their builders, then functions.
func Dump(w io.Writer, prog *Program, builders StructBuilders) error {
	p := &printer{w: w}
	for _, s := range prog.Structs {
		fields := make([]string, len(s.Fields))
		for i, f := range s.Fields {
			fields[i] = f.Name + ": " + f.Type.String()
		}
		p.printf("struct %s { %s }\n", s.Name.Mangle(), strings.Join(fields, ", "))
		b := builders[s.Name.Tag]
		if b == nil {
			continue
		}
		args := make([]string, len(b.Arguments))
		for i, a := range b.Arguments {
			args[i] = a.Mangle()
		}
		p.printf("  builder(%s)\n", strings.Join(args, ", "))
		p.indent = 2
		for _, f := range b.Fields {
			p.expr(f)
		}
		p.indent = 0
	}
	for _, fn := range prog.Functions {
		args := make([]string, len(fn.Arguments))
		for i, a := range fn.Arguments {
			args[i] = fmt.Sprintf("%s %s: %s", a.Convention, a.Name.Mangle(), a.Type)
		}
		p.printf("func %s(%s) =\n", fn.Name.Mangle(), strings.Join(args, ", "))
		p.indent = 1
		p.expr(fn.Body)
		p.indent = 0
	}
	return p.err
}

type printer struct {
	w      io.Writer
	indent int
	err    error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) line(format string, args ...any) {
	p.printf("%s", strings.Repeat("  ", p.indent))
	p.printf(format, args...)
	p.printf("\n")
}

func (p *printer) nested(f func()) {
	p.indent++
	f()
	p.indent--
}

func (p *printer) expr(e *Expr) {
	switch d := e.Data.(type) {
	case VariableData:
		p.line("Variable %s : %s", d.Name.Mangle(), e.Type)
	case LiteralData:
		p.line("Literal %s", d.Text)
	case CallDirectData:
		p.line("CallDirect %s : %s", d.Function.Mangle(), e.Type)
		p.nested(func() {
			for _, a := range d.Args {
				p.expr(a)
			}
		})
	case CallClosureData:
		p.line("CallClosure : %s", e.Type)
		p.nested(func() {
			p.expr(d.Callee)
			for _, a := range d.Args {
				p.expr(a)
			}
		})
	case PrimitiveData:
		p.line("Primitive %s", d.Op)
		p.nested(func() {
			p.expr(d.Left)
			p.expr(d.Right)
		})
	case BlockData:
		p.line("Block")
		p.nested(func() {
			for _, l := range d.Lets {
				p.line("let %s: %s =", l.Name.Mangle(), l.Type)
				p.nested(func() { p.expr(l.Value) })
			}
			p.expr(d.Result)
		})
	case PackData:
		p.line("Pack %s", e.Type)
		p.nested(func() {
			for _, f := range d.Fields {
				p.line("%s:", f.Name)
				p.nested(func() { p.expr(f.Value) })
			}
		})
	case UnpackData:
		p.line("Unpack .%s : %s", d.Field, e.Type)
		p.nested(func() { p.expr(d.Value) })
	case IfData:
		p.line("If")
		p.nested(func() {
			p.expr(d.Cond)
			p.expr(d.Then)
			p.expr(d.Else)
		})
	case ClosureData:
		params := make([]string, len(d.Params))
		for i, a := range d.Params {
			params[i] = a.Name.Mangle() + ": " + a.Type.String()
		}
		caps := make([]string, 0, len(d.TypeCaptures)+len(d.Captures))
		for _, g := range d.TypeCaptures {
			caps = append(caps, g.Mangle())
		}
		for _, c := range d.Captures {
			caps = append(caps, c.Name.Mangle())
		}
		p.line("Closure |%s| env %s [%s]", strings.Join(params, ", "), d.Env.Name.Mangle(), strings.Join(caps, ", "))
		p.nested(func() { p.expr(d.Body) })
	}
}
