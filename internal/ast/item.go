package ast

import "keel/internal/source"

type ItemKind uint8

const (
	ItemFunc ItemKind = iota + 1
	ItemStruct
)

func (k ItemKind) String() string {
	switch k {
	case ItemFunc:
		return "func"
	case ItemStruct:
		return "struct"
	default:
		return "invalid"
	}
}

type Item struct {
	Kind    ItemKind
	Span    source.Span
	Payload PayloadID
}

// Generic is one declared type parameter.
type Generic struct {
	Name source.StringID
	Span source.Span
}

// Param is `pattern: Type` in a function or closure header.
type Param struct {
	Pattern PatternID
	Type    TypeID
	Span    source.Span
}

type FuncData struct {
	Name     source.StringID
	NameSpan source.Span
	Generics []Generic
	Params   []Param
	Result   TypeID
	Body     ExprID
}

type FieldDecl struct {
	Name source.StringID
	Span source.Span
	Type TypeID
}

type StructData struct {
	Name     source.StringID
	NameSpan source.Span
	Generics []Generic
	Fields   []FieldDecl
}

type Items struct {
	Arena   *Arena[Item]
	Funcs   *Arena[FuncData]
	Structs *Arena[StructData]
}

func NewItems(capHint uint) *Items {
	return &Items{
		Arena:   NewArena[Item](capHint),
		Funcs:   NewArena[FuncData](capHint),
		Structs: NewArena[StructData](capHint),
	}
}

func (i *Items) Get(id ItemID) *Item {
	return i.Arena.Get(uint32(id))
}

func (i *Items) NewFunc(sp source.Span, data FuncData) ItemID {
	payload := PayloadID(i.Funcs.Allocate(data))
	return ItemID(i.Arena.Allocate(Item{Kind: ItemFunc, Span: sp, Payload: payload}))
}

func (i *Items) NewStruct(sp source.Span, data StructData) ItemID {
	payload := PayloadID(i.Structs.Allocate(data))
	return ItemID(i.Arena.Allocate(Item{Kind: ItemStruct, Span: sp, Payload: payload}))
}

func (i *Items) Func(id ItemID) (*FuncData, bool) {
	item := i.Get(id)
	if item == nil || item.Kind != ItemFunc {
		return nil, false
	}
	return i.Funcs.Get(uint32(item.Payload)), true
}

func (i *Items) Struct(id ItemID) (*StructData, bool) {
	item := i.Get(id)
	if item == nil || item.Kind != ItemStruct {
		return nil, false
	}
	return i.Structs.Get(uint32(item.Payload)), true
}
