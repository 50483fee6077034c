package parser

import (
	"keel/internal/ast"
	"keel/internal/diag"
	"keel/internal/token"
)

// parsePattern: `x`, `Box { x, y: Pair { a, b } }`.
// Поле без `: pattern` связывает переменную с именем поля.
func (p *Parser) parsePattern() (ast.PatternID, error) {
	if !p.at(token.Ident) {
		return ast.NoPatternID, &noMatchError{what: "pattern", code: diag.SynExpectPattern, found: p.peek()}
	}
	name, sp, _ := p.ident()
	if !p.at(token.LBrace) {
		return p.arenas.Patterns.NewVariable(sp, name), nil
	}
	fields, fieldsSpan, err := parseList(p, token.LBrace, token.RBrace, "struct pattern", p.parsePatternField)
	if err != nil {
		return ast.NoPatternID, err
	}
	return p.arenas.Patterns.NewStruct(sp.Cover(fieldsSpan), name, fields), nil
}

func (p *Parser) parsePatternField() (ast.PatternField, error) {
	name, sp, err := p.ident()
	if err != nil {
		return ast.PatternField{}, err
	}
	if !p.at(token.Colon) {
		return ast.PatternField{Name: name, Span: sp, Pattern: p.arenas.Patterns.NewVariable(sp, name)}, nil
	}
	p.advance()
	sub, err := p.parsePattern()
	if err != nil {
		return ast.PatternField{}, within("field pattern", err)
	}
	return ast.PatternField{Name: name, Span: sp.Cover(p.prev().Span), Pattern: sub}, nil
}
