package typecheck

import (
	"fmt"
	"strings"

	"keel/internal/symbols"
)

// TypeKind enumerates the shapes of inferred types.
type TypeKind uint8

const (
	// TypeNamed is a built-in or struct type; Args make it an application.
	TypeNamed TypeKind = iota + 1
	TypeGeneric
	TypeFunction
	// TypeUnification is an instantiation variable backed by a write-once Cell.
	TypeUnification
)

type Type struct {
	Kind   TypeKind
	Name   symbols.Identifier // Named, Generic
	Args   []*Type            // Named arguments or Function parameters
	Result *Type              // Function only
	Cell   *Cell              // Unification only
}

// Cell is a unification variable. It is written at most once.
type Cell struct {
	ID      int
	Generic symbols.Identifier // generic parameter this cell instantiates
	Value   *Type
}

// Bind stores t once. A second bind reports false.
func (c *Cell) Bind(t *Type) bool {
	if c.Value != nil {
		return false
	}
	c.Value = t
	return true
}

var (
	f64Ident  = symbols.Identifier{Tag: symbols.TagF64, Name: "F64", Global: true}
	boolIdent = symbols.Identifier{Tag: symbols.TagBool, Name: "Bool", Global: true}
	typeIdent = symbols.Identifier{Tag: symbols.TagType, Name: "Type", Global: true}
)

func F64() *Type  { return &Type{Kind: TypeNamed, Name: f64Ident} }
func Bool() *Type { return &Type{Kind: TypeNamed, Name: boolIdent} }

// TypeType is the type of witness values introduced by type passing.
func TypeType() *Type { return &Type{Kind: TypeNamed, Name: typeIdent} }

func Named(name symbols.Identifier, args ...*Type) *Type {
	return &Type{Kind: TypeNamed, Name: name, Args: args}
}

func Generic(name symbols.Identifier) *Type {
	return &Type{Kind: TypeGeneric, Name: name}
}

func Arrow(params []*Type, result *Type) *Type {
	return &Type{Kind: TypeFunction, Args: params, Result: result}
}

// IsPrimitive reports whether t is F64, Bool or Type.
func (t *Type) IsPrimitive() bool {
	return t.Kind == TypeNamed && t.Name.Tag.IsBuiltin()
}

// Resolve follows bound unification cells at the top level.
func Resolve(t *Type) *Type {
	for t != nil && t.Kind == TypeUnification && t.Cell.Value != nil {
		t = t.Cell.Value
	}
	return t
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case TypeNamed:
		if len(t.Args) == 0 {
			return t.Name.Name
		}
		return t.Name.Name + "[" + joinTypes(t.Args, (*Type).String) + "]"
	case TypeGeneric:
		return t.Name.Name
	case TypeFunction:
		return "(" + joinTypes(t.Args, (*Type).String) + ") -> " + t.Result.String()
	case TypeUnification:
		if t.Cell.Value != nil {
			return t.Cell.Value.String()
		}
		return fmt.Sprintf("?%s%d", t.Cell.Generic.Name, t.Cell.ID)
	default:
		return "<invalid>"
	}
}

// Key is a canonical, tag-based spelling used as a cache key.
// Bound cells are transparent; an unbound cell panics.
func (t *Type) Key() string {
	t = Resolve(t)
	switch t.Kind {
	case TypeNamed:
		if len(t.Args) == 0 {
			return "N" + t.Name.Tag.String()
		}
		return "N" + t.Name.Tag.String() + "[" + joinTypes(t.Args, (*Type).Key) + "]"
	case TypeGeneric:
		return "G" + t.Name.Tag.String()
	case TypeFunction:
		return "F(" + joinTypes(t.Args, (*Type).Key) + ")" + t.Result.Key()
	default:
		panic("typecheck: Key of unresolved type " + t.String())
	}
}

func joinTypes(ts []*Type, f func(*Type) string) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = f(t)
	}
	return strings.Join(parts, ", ")
}

// Substitute replaces generic parameters by tag.
func Substitute(t *Type, sub map[symbols.Tag]*Type) *Type {
	if len(sub) == 0 || t == nil {
		return t
	}
	switch t.Kind {
	case TypeGeneric:
		if r, ok := sub[t.Name.Tag]; ok {
			return r
		}
		return t
	case TypeNamed:
		if len(t.Args) == 0 {
			return t
		}
		return &Type{Kind: TypeNamed, Name: t.Name, Args: substituteAll(t.Args, sub)}
	case TypeFunction:
		return &Type{Kind: TypeFunction, Args: substituteAll(t.Args, sub), Result: Substitute(t.Result, sub)}
	case TypeUnification:
		if t.Cell.Value != nil {
			return Substitute(t.Cell.Value, sub)
		}
		return t
	}
	return t
}

func substituteAll(ts []*Type, sub map[symbols.Tag]*Type) []*Type {
	out := make([]*Type, len(ts))
	for i, t := range ts {
		out[i] = Substitute(t, sub)
	}
	return out
}

// Generics collects generic parameters occurring in t, first occurrence first.
func Generics(t *Type, into []symbols.Identifier) []symbols.Identifier {
	t = Resolve(t)
	switch t.Kind {
	case TypeGeneric:
		for _, g := range into {
			if g.Tag == t.Name.Tag {
				return into
			}
		}
		return append(into, t.Name)
	case TypeNamed, TypeFunction:
		for _, a := range t.Args {
			into = Generics(a, into)
		}
		if t.Result != nil {
			into = Generics(t.Result, into)
		}
	}
	return into
}
