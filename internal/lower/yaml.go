package lower

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type yamlProgram struct {
	Target    string         `yaml:"target"`
	Structs   []yamlStruct   `yaml:"structs,omitempty"`
	Functions []yamlFunction `yaml:"functions"`
}

type yamlStruct struct {
	Name      string      `yaml:"name"`
	Arguments []string    `yaml:"arguments"`
	Body      []yamlInstr `yaml:"body,omitempty"`
	Fields    []yamlSlot  `yaml:"fields"`
	Size      string      `yaml:"size"`
}

type yamlFunction struct {
	Name      string      `yaml:"name"`
	Closure   bool        `yaml:"closure,omitempty"`
	Arguments []string    `yaml:"arguments"`
	Frame     []yamlSlot  `yaml:"frame,omitempty"`
	FrameSize string      `yaml:"frame_size"`
	Body      []yamlInstr `yaml:"body"`
}

type yamlSlot struct {
	Name    string `yaml:"name"`
	Witness string `yaml:"witness,omitempty"`
	Offset  string `yaml:"offset"`
}

type yamlInstr struct {
	Op   string      `yaml:"op"`
	Dst  string      `yaml:"dst,omitempty"`
	Args []string    `yaml:"args,omitempty"`
	Then []yamlInstr `yaml:"then,omitempty"`
	Else []yamlInstr `yaml:"else,omitempty"`
}

// EncodeYAML writes the program as a YAML document.
func EncodeYAML(w io.Writer, prog *Program) error {
	doc := yamlProgram{Target: prog.Target.Triple}
	for _, s := range prog.Structs {
		ys := yamlStruct{
			Name:      s.Name,
			Arguments: argStrings(s.Arguments),
			Body:      yamlBlock(s.Body),
			Size:      s.Layout.Size.String(),
		}
		for i, f := range s.Fields {
			ys.Fields = append(ys.Fields, yamlSlot{Name: f.Name, Witness: f.Witness.String(), Offset: s.Layout.Slots[i].Offset.String()})
		}
		doc.Structs = append(doc.Structs, ys)
	}
	for _, fn := range prog.Functions {
		yf := yamlFunction{
			Name:      fn.Name,
			Closure:   fn.Closure,
			Arguments: argStrings(fn.Arguments),
			FrameSize: fn.Frame.Size.String(),
			Body:      yamlBlock(fn.Body),
		}
		for _, s := range fn.Frame.Slots {
			yf.Frame = append(yf.Frame, yamlSlot{Name: s.Name, Offset: s.Offset.String()})
		}
		doc.Functions = append(doc.Functions, yf)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

func argStrings(args []Argument) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = a.Convention.String() + " " + declString(a.Var)
	}
	return out
}

func yamlBlock(b Block) []yamlInstr {
	out := make([]yamlInstr, 0, len(b.Instrs))
	for i := range b.Instrs {
		out = append(out, yamlOne(&b.Instrs[i]))
	}
	return out
}

func yamlOne(in *Instr) yamlInstr {
	y := yamlInstr{Op: in.Kind.String()}
	switch in.Kind {
	case InstrSet:
		y.Dst, y.Args = in.Set.Dst.Name, []string{in.Set.Value.Text}
	case InstrCopy:
		y.Dst, y.Args = in.Copy.Dst.Name, []string{in.Copy.Src.Name}
	case InstrMove:
		y.Dst, y.Args = in.Move.Dst.Name, []string{in.Move.Src.Name}
	case InstrDestroy:
		y.Args = []string{in.Destroy.Var.Name}
	case InstrPrimitive:
		y.Dst = in.Primitive.Dst.Name
		y.Args = []string{in.Primitive.Op.String(), in.Primitive.Left.Name, in.Primitive.Right.Name}
	case InstrCallDirect:
		y.Args = append([]string{in.CallDirect.Function}, callArgStrings(in.CallDirect.Args)...)
	case InstrCallClosure:
		y.Args = append([]string{in.CallClosure.Closure.Name}, callArgStrings(in.CallClosure.Args)...)
	case InstrPack:
		y.Dst = in.Pack.Dst.Name
		y.Args = []string{in.Pack.Struct}
		for _, f := range in.Pack.Fields {
			y.Args = append(y.Args, f.Name+": "+f.Value.String())
		}
	case InstrUnpack:
		y.Dst, y.Args = in.Unpack.Dst.Name, []string{in.Unpack.Src.Name, in.Unpack.Field}
	case InstrMakeClosure:
		y.Dst, y.Args = in.MakeClosure.Dst.Name, []string{in.MakeClosure.Function, in.MakeClosure.Env.String()}
	case InstrIf:
		y.Dst, y.Args = in.If.Dst.Name, []string{in.If.Cond.Name}
		y.Then, y.Else = yamlBlock(in.If.Then), yamlBlock(in.If.Else)
	}
	return y
}

func callArgStrings(args []CallArg) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = a.Convention.String() + " " + a.Value.Var.Name
	}
	return out
}
