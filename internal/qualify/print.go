package qualify

import (
	"fmt"
	"io"
	"strings"

	"keel/internal/symbols"
)

// Dump writes the qualified program in a readable indented form.
// Locals are printed mangled so that shadowed names stay distinguishable.
func Dump(w io.Writer, prog *Program) error {
	p := &printer{w: w}
	for _, s := range prog.Structs {
		p.printf("struct %s%s {\n", s.Name.Mangle(), identList(s.Generics))
		for _, f := range s.Fields {
			p.printf("  %s: %s\n", f.Name.Name, TypeString(f.Type))
		}
		p.printf("}\n")
	}
	for _, fn := range prog.Functions {
		params := make([]string, len(fn.Params))
		for i, param := range fn.Params {
			params[i] = PatternString(param.Pattern) + ": " + TypeString(param.Type)
		}
		p.printf("func %s%s(%s): %s =\n", fn.Name.Mangle(), identList(fn.Generics), strings.Join(params, ", "), TypeString(fn.Result))
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
	switch data := e.Data.(type) {
	case LiteralData:
		p.line("Literal %s", data.Text)
	case VariableData:
		p.line("Variable %s", data.Name.Mangle())
	case CallData:
		p.line("Call")
		p.nested(func() {
			p.expr(data.Callee)
			for _, a := range data.Args {
				p.expr(a)
			}
		})
	case OperationData:
		p.line("Operation %s", data.Op)
		p.nested(func() {
			p.expr(data.Left)
			p.expr(data.Right)
		})
	case StructLiteralData:
		p.line("StructLiteral %s", data.Struct.Mangle())
		p.nested(func() {
			for _, f := range data.Fields {
				p.line("%s:", f.Name)
				p.nested(func() { p.expr(f.Value) })
			}
		})
	case BlockData:
		p.line("Block")
		p.nested(func() {
			for _, let := range data.Lets {
				p.line("let %s =", PatternString(let.Pattern))
				p.nested(func() { p.expr(let.Value) })
			}
			p.expr(data.Result)
		})
	case AnnotatedData:
		p.line("Annotated %s", TypeString(data.Type))
		p.nested(func() { p.expr(data.Value) })
	case CaseData:
		p.line("Case")
		p.nested(func() {
			p.expr(data.Scrutinee)
			for _, arm := range data.Arms {
				p.line("%s =>", PatternString(arm.Pattern))
				p.nested(func() { p.expr(arm.Body) })
			}
		})
	case IfData:
		p.line("If")
		p.nested(func() {
			p.expr(data.Cond)
			p.expr(data.Then)
			p.expr(data.Else)
		})
	case ClosureData:
		params := make([]string, len(data.Params))
		for i, param := range data.Params {
			params[i] = PatternString(param.Pattern) + ": " + TypeString(param.Type)
		}
		p.line("Closure |%s|", strings.Join(params, ", "))
		p.nested(func() { p.expr(data.Body) })
	}
}

// TypeString renders a qualified type in surface syntax.
func TypeString(t *Type) string {
	switch t.Kind {
	case TypeFunction:
		args := make([]string, len(t.Args))
		for i, a := range t.Args {
			args[i] = TypeString(a)
		}
		return "(" + strings.Join(args, ", ") + ") -> " + TypeString(t.Result)
	default:
		if len(t.Args) == 0 {
			return t.Name.Mangle()
		}
		args := make([]string, len(t.Args))
		for i, a := range t.Args {
			args[i] = TypeString(a)
		}
		return t.Name.Mangle() + "[" + strings.Join(args, ", ") + "]"
	}
}

func PatternString(pat *Pattern) string {
	if pat.Kind == PatternVariable {
		return pat.Name.Mangle()
	}
	fields := make([]string, len(pat.Fields))
	for i, f := range pat.Fields {
		fields[i] = f.Name + ": " + PatternString(f.Pattern)
	}
	return pat.Name.Mangle() + " { " + strings.Join(fields, ", ") + " }"
}

func identList(ids []symbols.Identifier) string {
	if len(ids) == 0 {
		return ""
	}
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.Mangle()
	}
	return "[" + strings.Join(names, ", ") + "]"
}
