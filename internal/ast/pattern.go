package ast

import "keel/internal/source"

type PatternKind uint8

const (
	PatVariable PatternKind = iota + 1
	PatStruct
)

type PatternField struct {
	Name    source.StringID
	Span    source.Span
	Pattern PatternID
}

// Pattern is an irrefutable binding form: `x` or `Box { x: p }`.
type Pattern struct {
	Kind   PatternKind
	Span   source.Span
	Name   source.StringID // variable name or struct name
	Fields []PatternField
}

type Patterns struct {
	Arena *Arena[Pattern]
}

func NewPatterns(capHint uint) *Patterns {
	return &Patterns{Arena: NewArena[Pattern](capHint)}
}

func (p *Patterns) NewVariable(sp source.Span, name source.StringID) PatternID {
	return PatternID(p.Arena.Allocate(Pattern{Kind: PatVariable, Span: sp, Name: name}))
}

func (p *Patterns) NewStruct(sp source.Span, name source.StringID, fields []PatternField) PatternID {
	return PatternID(p.Arena.Allocate(Pattern{Kind: PatStruct, Span: sp, Name: name, Fields: fields}))
}

func (p *Patterns) Get(id PatternID) *Pattern {
	return p.Arena.Get(uint32(id))
}
