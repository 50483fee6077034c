package ast

import "keel/internal/source"

type TypeKind uint8

const (
	// TypeNamed is `F64`, `t`, `Box`.
	TypeNamed TypeKind = iota + 1
	// TypeApplication is `Box[F64]`.
	TypeApplication
	// TypeFunction is `(a, b) -> c`.
	TypeFunction
)

// TypeExpr is a type as written in source.
type TypeExpr struct {
	Kind   TypeKind
	Span   source.Span
	Name   source.StringID // Named, Application
	Args   []TypeID        // Application arguments or Function parameters
	Result TypeID          // Function only
}

type Types struct {
	Arena *Arena[TypeExpr]
}

func NewTypes(capHint uint) *Types {
	return &Types{Arena: NewArena[TypeExpr](capHint)}
}

func (t *Types) NewNamed(sp source.Span, name source.StringID) TypeID {
	return TypeID(t.Arena.Allocate(TypeExpr{Kind: TypeNamed, Span: sp, Name: name}))
}

func (t *Types) NewApplication(sp source.Span, name source.StringID, args []TypeID) TypeID {
	return TypeID(t.Arena.Allocate(TypeExpr{Kind: TypeApplication, Span: sp, Name: name, Args: args}))
}

func (t *Types) NewFunction(sp source.Span, params []TypeID, result TypeID) TypeID {
	return TypeID(t.Arena.Allocate(TypeExpr{Kind: TypeFunction, Span: sp, Args: params, Result: result}))
}

func (t *Types) Get(id TypeID) *TypeExpr {
	return t.Arena.Get(uint32(id))
}
