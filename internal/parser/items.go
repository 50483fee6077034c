package parser

import (
	"keel/internal/ast"
	"keel/internal/token"
)

// parseDefinition выбирает распознаватель по первому токену.
func (p *Parser) parseDefinition() (ast.ItemID, error) {
	switch p.peek().Kind {
	case token.KwFunc:
		id, err := p.parseFunc()
		return id, within("function definition", err)
	case token.KwStruct:
		id, err := p.parseStruct()
		return id, within("struct definition", err)
	default:
		return ast.NoItemID, errNoMatch
	}
}

func (p *Parser) parseFunc() (ast.ItemID, error) {
	start := p.advance()
	name, nameSpan, err := p.ident()
	if err != nil {
		return ast.NoItemID, err
	}
	generics, err := p.parseGenerics()
	if err != nil {
		return ast.NoItemID, err
	}
	params, _, err := parseList(p, token.LParen, token.RParen, "parameters", p.parseParam)
	if err != nil {
		return ast.NoItemID, err
	}
	if _, err = p.expect(token.Colon); err != nil {
		return ast.NoItemID, err
	}
	result, err := p.parseType()
	if err != nil {
		return ast.NoItemID, within("return type", err)
	}
	if _, err = p.expect(token.Assign); err != nil {
		return ast.NoItemID, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return ast.NoItemID, within("function body", err)
	}
	sp := start.Span.Cover(p.prev().Span)
	return p.arenas.Items.NewFunc(sp, ast.FuncData{
		Name:     name,
		NameSpan: nameSpan,
		Generics: generics,
		Params:   params,
		Result:   result,
		Body:     body,
	}), nil
}

func (p *Parser) parseStruct() (ast.ItemID, error) {
	start := p.advance()
	name, nameSpan, err := p.ident()
	if err != nil {
		return ast.NoItemID, err
	}
	generics, err := p.parseGenerics()
	if err != nil {
		return ast.NoItemID, err
	}
	fields, _, err := parseList(p, token.LBrace, token.RBrace, "field list", p.parseFieldDecl)
	if err != nil {
		return ast.NoItemID, err
	}
	sp := start.Span.Cover(p.prev().Span)
	return p.arenas.Items.NewStruct(sp, ast.StructData{
		Name:     name,
		NameSpan: nameSpan,
		Generics: generics,
		Fields:   fields,
	}), nil
}

// parseGenerics: `[a, b]` или ничего.
func (p *Parser) parseGenerics() ([]ast.Generic, error) {
	if !p.at(token.LBracket) {
		return nil, nil
	}
	gs, _, err := parseList(p, token.LBracket, token.RBracket, "generics", func() (ast.Generic, error) {
		name, sp, err := p.ident()
		return ast.Generic{Name: name, Span: sp}, err
	})
	return gs, err
}

func (p *Parser) parseParam() (ast.Param, error) {
	pat, err := p.parsePattern()
	if err != nil {
		return ast.Param{}, err
	}
	start := p.arenas.Patterns.Get(pat).Span
	if _, err = p.expect(token.Colon); err != nil {
		return ast.Param{}, within("parameter", err)
	}
	typ, err := p.parseType()
	if err != nil {
		return ast.Param{}, within("parameter", err)
	}
	return ast.Param{Pattern: pat, Type: typ, Span: start.Cover(p.prev().Span)}, nil
}

func (p *Parser) parseFieldDecl() (ast.FieldDecl, error) {
	name, sp, err := p.ident()
	if err != nil {
		return ast.FieldDecl{}, err
	}
	if _, err = p.expect(token.Colon); err != nil {
		return ast.FieldDecl{}, within("field", err)
	}
	typ, err := p.parseType()
	if err != nil {
		return ast.FieldDecl{}, within("field", err)
	}
	return ast.FieldDecl{Name: name, Span: sp, Type: typ}, nil
}
