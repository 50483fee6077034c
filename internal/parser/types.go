package parser

import (
	"keel/internal/ast"
	"keel/internal/diag"
	"keel/internal/token"
)

// parseType:
//
//	F64 | Box[F64] | (a, b) -> c
func (p *Parser) parseType() (ast.TypeID, error) {
	switch p.peek().Kind {
	case token.Ident:
		name, sp, _ := p.ident()
		if !p.at(token.LBracket) {
			return p.arenas.Types.NewNamed(sp, name), nil
		}
		args, argsSpan, err := parseList(p, token.LBracket, token.RBracket, "type arguments", p.parseType)
		if err != nil {
			return ast.NoTypeID, err
		}
		return p.arenas.Types.NewApplication(sp.Cover(argsSpan), name, args), nil
	case token.LParen:
		params, sp, err := parseList(p, token.LParen, token.RParen, "function type", p.parseType)
		if err != nil {
			return ast.NoTypeID, err
		}
		if _, err = p.expect(token.Arrow); err != nil {
			return ast.NoTypeID, within("function type", err)
		}
		result, err := p.parseType()
		if err != nil {
			return ast.NoTypeID, within("function type", err)
		}
		return p.arenas.Types.NewFunction(sp.Cover(p.prev().Span), params, result), nil
	default:
		return ast.NoTypeID, &noMatchError{what: "type", code: diag.SynExpectType, found: p.peek()}
	}
}
