package lower

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"keel/internal/sizer"
	"keel/internal/typepass"
)

func (w Witness) String() string {
	switch w.Kind {
	case sizer.WitnessTrivial:
		return "Trivial(" + strconv.Itoa(w.Size) + ")"
	case sizer.WitnessType:
		return "Type"
	case sizer.WitnessDynamic:
		if w.Location == nil {
			return "Dynamic(?)"
		}
		return "Dynamic(" + w.Location.Name + ")"
	default:
		return "?"
	}
}

func (v *Variable) String() string {
	if v == nil {
		return "<nil>"
	}
	return v.Name
}

func (v Value) String() string { return v.Kind.String() + " " + v.Var.String() }

func declString(v *Variable) string {
	return fmt.Sprintf("%s: %s [%s]", v.Name, v.Type, v.Witness)
}

func argsString(args []Argument) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Convention.String() + " " + declString(a.Var)
	}
	return strings.Join(parts, ", ")
}

// Dump writes a human-readable listing of the program.
func Dump(w io.Writer, prog *Program) error {
	p := &printer{w: w}
	for _, s := range prog.Structs {
		p.printf("struct %s(%s) {\n", s.Name, argsString(s.Arguments))
		p.indent = 1
		p.block(s.Body)
		for i, f := range s.Fields {
			p.line("field %s: %s [%s] @%s", f.Name, f.Type, f.Witness, s.Layout.Slots[i].Offset)
		}
		p.indent = 0
		p.printf("}\n")
	}
	for _, fn := range prog.Functions {
		p.Function(fn)
	}
	return p.err
}

// DumpFunction writes one function.
func DumpFunction(w io.Writer, fn *Function) error {
	p := &printer{w: w}
	p.Function(fn)
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

func (p *printer) Function(fn *Function) {
	p.printf("func %s(%s) {\n", fn.Name, argsString(fn.Arguments))
	p.indent = 1
	for _, s := range fn.Frame.Slots {
		p.line("local %s @%s", s.Name, s.Offset)
	}
	p.block(fn.Body)
	p.indent = 0
	p.printf("}\n")
}

func (p *printer) block(b Block) {
	for i := range b.Instrs {
		p.instr(&b.Instrs[i])
	}
}

func callArgsString(args []CallArg) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if a.Convention == typepass.Out {
			parts[i] = "out " + a.Value.Var.String()
			continue
		}
		parts[i] = a.Convention.String() + " " + a.Value.String()
	}
	return strings.Join(parts, ", ")
}

func (p *printer) instr(in *Instr) {
	switch in.Kind {
	case InstrSet:
		p.line("%s = %s", in.Set.Dst, in.Set.Value.Text)
	case InstrCopy:
		p.line("%s = copy %s", in.Copy.Dst, in.Copy.Src)
	case InstrMove:
		p.line("%s = move %s", in.Move.Dst, in.Move.Src)
	case InstrDestroy:
		p.line("destroy %s", in.Destroy.Var)
	case InstrPrimitive:
		p.line("%s = %s %s %s", in.Primitive.Dst, in.Primitive.Left, in.Primitive.Op, in.Primitive.Right)
	case InstrCallDirect:
		p.line("%s(%s)", in.CallDirect.Function, callArgsString(in.CallDirect.Args))
	case InstrCallClosure:
		p.line("call %s(%s)", in.CallClosure.Closure, callArgsString(in.CallClosure.Args))
	case InstrPack:
		fields := make([]string, len(in.Pack.Fields))
		for i, f := range in.Pack.Fields {
			fields[i] = f.Name + ": " + f.Value.String()
		}
		p.line("%s = %s { %s }", in.Pack.Dst, in.Pack.Struct, strings.Join(fields, ", "))
	case InstrUnpack:
		p.line("%s = %s.%s", in.Unpack.Dst, in.Unpack.Src, in.Unpack.Field)
	case InstrMakeClosure:
		p.line("%s = closure %s(%s)", in.MakeClosure.Dst, in.MakeClosure.Function, in.MakeClosure.Env)
	case InstrIf:
		p.line("%s = if %s {", in.If.Dst, in.If.Cond)
		p.indent++
		p.block(in.If.Then)
		p.indent--
		p.line("} else {")
		p.indent++
		p.block(in.If.Else)
		p.indent--
		p.line("}")
	}
}
