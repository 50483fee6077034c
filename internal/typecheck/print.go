package typecheck

import (
	"fmt"
	"io"
	"strings"

	"keel/internal/symbols"
)

// Dump writes the typed program; every expression line ends with its type.
func Dump(w io.Writer, prog *Program) error {
	p := &printer{w: w}
	for _, s := range prog.Structs {
		p.printf("struct %s%s {\n", s.Name.Mangle(), genericList(s.Generics))
		for _, f := range s.Fields {
			p.printf("  %s: %s\n", f.Name, f.Type)
		}
		p.printf("}\n")
	}
	for _, fn := range prog.Functions {
		params := make([]string, len(fn.Params))
		for i, param := range fn.Params {
			params[i] = PatternString(param.Pattern) + ": " + param.Type.String()
		}
		p.printf("func %s%s(%s): %s =\n", fn.Name.Mangle(), genericList(fn.Generics), strings.Join(params, ", "), fn.Result)
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
	p.printf(" : %s\n", e.Type)
}

func (p *printer) nested(f func()) {
	p.indent++
	f()
	p.indent--
}

func (p *printer) expr(e *Expr) {
	switch data := e.Data.(type) {
	case LiteralData:
		p.line(e, "Literal %s", data.Text)
	case VariableData:
		p.line(e, "Variable %s", data.Name.Mangle())
	case CallDirectData:
		p.line(e, "CallDirect %s%s", data.Function.Name, typeList(data.Generics))
		p.nested(func() {
			for _, a := range data.Args {
				p.expr(a)
			}
		})
	case CallClosureData:
		p.line(e, "CallClosure")
		p.nested(func() {
			p.expr(data.Callee)
			for _, a := range data.Args {
				p.expr(a)
			}
		})
	case OperationData:
		p.line(e, "Operation %s", data.Op)
		p.nested(func() {
			p.expr(data.Left)
			p.expr(data.Right)
		})
	case StructLiteralData:
		p.line(e, "StructLiteral %s%s", data.Struct.Name, typeList(data.Args))
		p.nested(func() {
			for _, f := range data.Fields {
				p.printf("%s%s:\n", strings.Repeat("  ", p.indent), f.Name)
				p.nested(func() { p.expr(f.Value) })
			}
		})
	case BlockData:
		p.line(e, "Block")
		p.nested(func() {
			for _, let := range data.Lets {
				p.printf("%slet %s =\n", strings.Repeat("  ", p.indent), PatternString(let.Pattern))
				p.nested(func() { p.expr(let.Value) })
			}
			p.expr(data.Result)
		})
	case IfData:
		p.line(e, "If")
		p.nested(func() {
			p.expr(data.Cond)
			p.expr(data.Then)
			p.expr(data.Else)
		})
	case ClosureData:
		caps := make([]string, len(data.Captures))
		for i, c := range data.Captures {
			caps[i] = c.Name.Mangle()
		}
		p.line(e, "Closure [%s]", strings.Join(caps, ", "))
		p.nested(func() { p.expr(data.Body) })
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
	return pat.Name.Name + " { " + strings.Join(fields, ", ") + " }"
}

func typeList(ts []*Type) string {
	if len(ts) == 0 {
		return ""
	}
	return "[" + joinTypes(ts, (*Type).String) + "]"
}

func genericList(ids []symbols.Identifier) string {
	if len(ids) == 0 {
		return ""
	}
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.Name
	}
	return "[" + strings.Join(names, ", ") + "]"
}
