package parser

import (
	"strconv"

	"keel/internal/ast"
	"keel/internal/diag"
	"keel/internal/token"
)

func (p *Parser) parseExpr() (ast.ExprID, error) {
	switch p.peek().Kind {
	case token.KwIf:
		id, err := p.parseIf()
		return id, within("if expression", err)
	case token.KwCase:
		id, err := p.parseCase()
		return id, within("case expression", err)
	case token.Pipe:
		id, err := p.parseClosure()
		return id, within("closure", err)
	default:
		return p.parseCompare()
	}
}

func (p *Parser) parseIf() (ast.ExprID, error) {
	start := p.advance()
	cond, err := p.parseExpr()
	if err != nil {
		return ast.NoExprID, err
	}
	if _, err = p.expect(token.KwThen); err != nil {
		return ast.NoExprID, err
	}
	then, err := p.parseExpr()
	if err != nil {
		return ast.NoExprID, err
	}
	if _, err = p.expect(token.KwElse); err != nil {
		return ast.NoExprID, err
	}
	els, err := p.parseExpr()
	if err != nil {
		return ast.NoExprID, err
	}
	return p.arenas.Exprs.NewIf(start.Span.Cover(p.prev().Span), cond, then, els), nil
}

// parseCase: `case e of { pat => e; pat => e }`, последняя `;` необязательна.
func (p *Parser) parseCase() (ast.ExprID, error) {
	start := p.advance()
	scrutinee, err := p.parseExpr()
	if err != nil {
		return ast.NoExprID, err
	}
	if _, err = p.expect(token.KwOf); err != nil {
		return ast.NoExprID, err
	}
	if _, err = p.expect(token.LBrace); err != nil {
		return ast.NoExprID, err
	}
	var arms []ast.CaseArm
	for !p.at(token.RBrace) {
		arm, err := p.parseArm()
		if err != nil {
			return ast.NoExprID, within("case arm", err)
		}
		arms = append(arms, arm)
		if _, err := p.expect(token.Semicolon); err != nil {
			break
		}
	}
	if len(arms) == 0 {
		return ast.NoExprID, &noMatchError{what: "pattern", code: diag.SynExpectPattern, found: p.peek()}
	}
	if _, err = p.expect(token.RBrace); err != nil {
		return ast.NoExprID, err
	}
	return p.arenas.Exprs.NewCase(start.Span.Cover(p.prev().Span), scrutinee, arms), nil
}

func (p *Parser) parseArm() (ast.CaseArm, error) {
	pat, err := p.parsePattern()
	if err != nil {
		return ast.CaseArm{}, err
	}
	start := p.arenas.Patterns.Get(pat).Span
	if _, err = p.expect(token.FatArrow); err != nil {
		return ast.CaseArm{}, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return ast.CaseArm{}, err
	}
	return ast.CaseArm{Pattern: pat, Body: body, Span: start.Cover(p.prev().Span)}, nil
}

func (p *Parser) parseClosure() (ast.ExprID, error) {
	start := p.peek()
	params, _, err := parseList(p, token.Pipe, token.Pipe, "closure parameters", p.parseParam)
	if err != nil {
		return ast.NoExprID, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return ast.NoExprID, err
	}
	return p.arenas.Exprs.NewClosure(start.Span.Cover(p.prev().Span), params, body), nil
}

func (p *Parser) parseCompare() (ast.ExprID, error) {
	left, err := p.parseSum()
	if err != nil || !p.at(token.Lt) {
		return left, err
	}
	p.advance()
	right, err := p.parseSum()
	if err != nil {
		return ast.NoExprID, within("comparison", err)
	}
	return p.binary(ast.OpLess, left, right), nil
}

func (p *Parser) parseSum() (ast.ExprID, error) {
	left, err := p.parseProduct()
	if err != nil {
		return ast.NoExprID, err
	}
	for p.atOr(token.Plus, token.Minus) {
		op := ast.OpAdd
		if p.advance().Kind == token.Minus {
			op = ast.OpSub
		}
		right, err := p.parseProduct()
		if err != nil {
			return ast.NoExprID, within("binary operation", err)
		}
		left = p.binary(op, left, right)
	}
	return left, nil
}

func (p *Parser) parseProduct() (ast.ExprID, error) {
	left, err := p.parsePostfix()
	if err != nil {
		return ast.NoExprID, err
	}
	for p.at(token.Star) {
		p.advance()
		right, err := p.parsePostfix()
		if err != nil {
			return ast.NoExprID, within("binary operation", err)
		}
		left = p.binary(ast.OpMul, left, right)
	}
	return left, nil
}

func (p *Parser) binary(op ast.Operator, left, right ast.ExprID) ast.ExprID {
	sp := p.arenas.Exprs.Get(left).Span.Cover(p.arenas.Exprs.Get(right).Span)
	return p.arenas.Exprs.NewOperation(sp, op, left, right)
}

func (p *Parser) parsePostfix() (ast.ExprID, error) {
	callee, err := p.parseAtom()
	if err != nil {
		return ast.NoExprID, err
	}
	for p.at(token.LParen) {
		args, sp, err := parseList(p, token.LParen, token.RParen, "call arguments", p.parseExpr)
		if err != nil {
			return ast.NoExprID, err
		}
		callee = p.arenas.Exprs.NewCall(p.arenas.Exprs.Get(callee).Span.Cover(sp), callee, args)
	}
	return callee, nil
}

func (p *Parser) parseAtom() (ast.ExprID, error) {
	tok := p.peek()
	switch tok.Kind {
	case token.Number:
		p.advance()
		v, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return ast.NoExprID, &SyntaxError{Code: diag.SynUnexpectedToken, Span: tok.Span, Message: err.Error()}
		}
		return p.arenas.Exprs.NewNumber(tok.Span, tok.Text, v), nil
	case token.KwTrue, token.KwFalse:
		p.advance()
		return p.arenas.Exprs.NewBool(tok.Span, tok.Kind == token.KwTrue), nil
	case token.Ident:
		if id, err := p.tryStructLiteral(); err == nil {
			return id, nil
		} else if !isNoMatch(err) {
			return ast.NoExprID, within("struct literal", err)
		}
		name, sp, _ := p.ident()
		return p.arenas.Exprs.NewVariable(sp, name), nil
	case token.LBrace:
		id, err := p.parseBlock()
		return id, within("block", err)
	case token.LParen:
		id, err := p.parseGroup()
		return id, within("parenthesized expression", err)
	default:
		return ast.NoExprID, &noMatchError{what: "expression", code: diag.SynExpectExpression, found: tok}
	}
}

// tryStructLiteral распознаёт `Name { field: e, ... }` и `Name {}`.
// Если после `{` не идёт `ident :` или `}`, позиция откатывается.
func (p *Parser) tryStructLiteral() (ast.ExprID, error) {
	next := p.peekAt(1)
	if next.Kind != token.LBrace {
		return ast.NoExprID, errNoMatch
	}
	after := p.peekAt(2)
	if after.Kind != token.RBrace && (after.Kind != token.Ident || p.peekAt(3).Kind != token.Colon) {
		return ast.NoExprID, errNoMatch
	}
	name, nameSpan, _ := p.ident()
	fields, sp, err := parseList(p, token.LBrace, token.RBrace, "field initializers", p.parseFieldInit)
	if err != nil {
		return ast.NoExprID, err
	}
	return p.arenas.Exprs.NewStructLiteral(nameSpan.Cover(sp), ast.ExprStructLiteralData{
		Name:     name,
		NameSpan: nameSpan,
		Fields:   fields,
	}), nil
}

func (p *Parser) parseFieldInit() (ast.FieldInit, error) {
	name, sp, err := p.ident()
	if err != nil {
		return ast.FieldInit{}, err
	}
	if _, err = p.expect(token.Colon); err != nil {
		return ast.FieldInit{}, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return ast.FieldInit{}, within("field initializer", err)
	}
	return ast.FieldInit{Name: name, Span: sp, Value: value}, nil
}

// parseBlock: `{ let p = e; ... e }`.
func (p *Parser) parseBlock() (ast.ExprID, error) {
	start := p.advance()
	var lets []ast.LetBinding
	for p.at(token.KwLet) {
		let, err := p.parseLet()
		if err != nil {
			return ast.NoExprID, within("let binding", err)
		}
		lets = append(lets, let)
	}
	result, err := p.parseExpr()
	if err != nil {
		return ast.NoExprID, err
	}
	if _, err = p.expect(token.RBrace); err != nil {
		return ast.NoExprID, err
	}
	return p.arenas.Exprs.NewBlock(start.Span.Cover(p.prev().Span), lets, result), nil
}

func (p *Parser) parseLet() (ast.LetBinding, error) {
	start := p.advance()
	pat, err := p.parsePattern()
	if err != nil {
		return ast.LetBinding{}, err
	}
	if _, err = p.expect(token.Assign); err != nil {
		return ast.LetBinding{}, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return ast.LetBinding{}, err
	}
	if _, err = p.expect(token.Semicolon); err != nil {
		return ast.LetBinding{}, err
	}
	return ast.LetBinding{Pattern: pat, Value: value, Span: start.Span.Cover(p.prev().Span)}, nil
}

// parseGroup: `(e)` или `(e : T)`.
func (p *Parser) parseGroup() (ast.ExprID, error) {
	start := p.advance()
	inner, err := p.parseExpr()
	if err != nil {
		return ast.NoExprID, err
	}
	if p.at(token.Colon) {
		p.advance()
		typ, err := p.parseType()
		if err != nil {
			return ast.NoExprID, within("type annotation", err)
		}
		if _, err = p.expect(token.RParen); err != nil {
			return ast.NoExprID, err
		}
		return p.arenas.Exprs.NewAnnotated(start.Span.Cover(p.prev().Span), inner, typ), nil
	}
	if _, err = p.expect(token.RParen); err != nil {
		return ast.NoExprID, err
	}
	return inner, nil
}
