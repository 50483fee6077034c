package sizer

import (
	"fmt"
	"io"
	"strings"
)

// ExprString renders a witness expression compactly: `Box(t_3)`, `F64()`.
func ExprString(e *Expr) string {
	if e == nil {
		return "<nil>"
	}
	switch d := e.Data.(type) {
	case VariableData:
		return d.Var.Name.Mangle()
	case CallDirectData:
		args := make([]string, len(d.Args))
		for i, a := range d.Args {
			args[i] = ExprString(a)
		}
		return d.Function.Mangle() + "(" + strings.Join(args, ", ") + ")"
	default:
		return e.Kind.String()
	}
}

func varString(v *Variable) string {
	return fmt.Sprintf("%s: %s [%s; %s]", v.Name.Mangle(), v.Type, v.Witness, v.Size)
}

// Dump writes struct metadata and functions; every line carries the
// witness and size of what it describes.
func Dump(w io.Writer, prog *Program) error {
	p := &printer{w: w}
	for _, s := range prog.Structs {
		args := make([]string, len(s.Arguments))
		for i, a := range s.Arguments {
			args[i] = a.Name.Mangle()
		}
		p.printf("struct %s(%s)\n", s.Name.Mangle(), strings.Join(args, ", "))
		for _, f := range s.Fields {
			p.printf("  %s: %s [%s; %s]\n", f.Name, f.Type, f.Witness, f.Size)
		}
	}
	for _, fn := range prog.Functions {
		args := make([]string, len(fn.Arguments))
		for i, a := range fn.Arguments {
			args[i] = a.Convention.String() + " " + varString(a.Var)
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

func (p *printer) line(e *Expr, format string, args ...any) {
	p.printf("%s", strings.Repeat("  ", p.indent))
	p.printf(format, args...)
	p.printf(" [%s; %s]\n", e.Witness, e.Size)
}

func (p *printer) nested(f func()) {
	p.indent++
	f()
	p.indent--
}

func (p *printer) expr(e *Expr) {
	switch d := e.Data.(type) {
	case VariableData:
		p.line(e, "Variable %s", d.Var.Name.Mangle())
	case LiteralData:
		p.line(e, "Literal %s", d.Text)
	case CallDirectData:
		p.line(e, "CallDirect %s", d.Function.Mangle())
		p.nested(func() {
			for _, a := range d.Args {
				p.expr(a)
			}
		})
	case CallClosureData:
		p.line(e, "CallClosure")
		p.nested(func() {
			p.expr(d.Callee)
			for _, a := range d.Args {
				p.expr(a)
			}
		})
	case PrimitiveData:
		p.line(e, "Primitive %s", d.Op)
		p.nested(func() {
			p.expr(d.Left)
			p.expr(d.Right)
		})
	case BlockData:
		p.line(e, "Block")
		p.nested(func() {
			for _, l := range d.Lets {
				p.printf("%slet %s =\n", strings.Repeat("  ", p.indent), varString(l.Var))
				p.nested(func() { p.expr(l.Value) })
			}
			p.expr(d.Result)
		})
	case PackData:
		p.line(e, "Pack %s", d.Struct.Mangle())
		p.nested(func() {
			for _, f := range d.Fields {
				p.printf("%s%s:\n", strings.Repeat("  ", p.indent), f.Name)
				p.nested(func() { p.expr(f.Value) })
			}
		})
	case UnpackData:
		p.line(e, "Unpack .%s", d.Field)
		p.nested(func() { p.expr(d.Value) })
	case IfData:
		p.line(e, "If")
		p.nested(func() {
			p.expr(d.Cond)
			p.expr(d.Then)
			p.expr(d.Else)
		})
	case ClosureData:
		caps := make([]string, 0, len(d.TypeCaptures)+len(d.Captures))
		for _, v := range d.TypeCaptures {
			caps = append(caps, v.Name.Mangle())
		}
		for _, v := range d.Captures {
			caps = append(caps, v.Name.Mangle())
		}
		p.line(e, "Closure env %s [%s]", d.Env.Name.Mangle(), strings.Join(caps, ", "))
		p.nested(func() { p.expr(d.Body) })
	}
}
