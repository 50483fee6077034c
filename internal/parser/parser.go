package parser

import (
	"errors"
	"slices"

	"keel/internal/ast"
	"keel/internal/diag"
	"keel/internal/lexer"
	"keel/internal/source"
	"keel/internal/token"
)

type Options struct {
	Reporter diag.Reporter // лексические диагностики; может быть nil
}

// Parser: состояние парсера на один файл.
type Parser struct {
	toks    []token.Token
	pos     int
	arenas  *ast.Builder
	strings *source.Interner
	file    ast.FileID
}

// ParseFile разбирает файл целиком. Первая фатальная ошибка прерывает разбор,
// но уже добавленные определения остаются в файле.
func ParseFile(file *source.File, arenas *ast.Builder, strs *source.Interner, opts Options) (ast.FileID, error) {
	p := &Parser{
		toks:    lexer.Tokenize(file, lexer.Options{Reporter: opts.Reporter}),
		arenas:  arenas,
		strings: strs,
	}
	p.file = arenas.Files.New(source.Span{File: file.ID})
	err := p.parseProgram()
	f := arenas.Files.Get(p.file)
	f.Span = source.Span{File: file.ID, End: uint32(len(file.Content))}
	return p.file, err
}

func (p *Parser) parseProgram() error {
	for !p.at(token.EOF) {
		item, err := p.parseDefinition()
		if err != nil {
			if errors.Is(err, errNoMatch) {
				err = within("program", &noMatchError{
					what:  "'func' or 'struct'",
					code:  diag.SynExpectDefinition,
					found: p.peek(),
				})
			}
			return err
		}
		p.arenas.PushItem(p.file, item)
	}
	return nil
}

func (p *Parser) peek() token.Token {
	return p.toks[p.pos]
}

func (p *Parser) peekAt(n int) token.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *Parser) at(k token.Kind) bool {
	return p.peek().Kind == k
}

func (p *Parser) atOr(kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.peek().Kind)
}

func (p *Parser) advance() token.Token {
	tok := p.toks[p.pos]
	if tok.Kind != token.EOF {
		p.pos++
	}
	return tok
}

// prev: последний съеденный токен.
func (p *Parser) prev() token.Token {
	if p.pos == 0 {
		return p.toks[0]
	}
	return p.toks[p.pos-1]
}

// expect съедает токен нужного вида или возвращает errNoMatch.
func (p *Parser) expect(k token.Kind) (token.Token, error) {
	if p.at(k) {
		return p.advance(), nil
	}
	return token.Token{}, &noMatchError{code: codeFor([]token.Kind{k}), expected: []token.Kind{k}, found: p.peek()}
}

func (p *Parser) ident() (source.StringID, source.Span, error) {
	tok, err := p.expect(token.Ident)
	if err != nil {
		return source.NoStringID, source.Span{}, err
	}
	return p.strings.Intern(tok.Text), tok.Span, nil
}

// list разбирает `open elem (',' elem)* ','? close`.
// Отсутствие open: errNoMatch, всё остальное фатально.
func parseList[T any](p *Parser, open, close token.Kind, ctx string, elem func() (T, error)) ([]T, source.Span, error) {
	start, err := p.expect(open)
	if err != nil {
		return nil, source.Span{}, err
	}
	var out []T
	for {
		if end, err := p.expect(close); err == nil {
			return out, start.Span.Cover(end.Span), nil
		}
		v, err := elem()
		if err != nil {
			return nil, source.Span{}, within(ctx, err)
		}
		out = append(out, v)
		if _, err := p.expect(token.Comma); err != nil {
			end, err := p.expect(close)
			if err != nil {
				return nil, source.Span{}, within(ctx, &noMatchError{
					code:     diag.SynUnclosedDelimiter,
					expected: []token.Kind{token.Comma, close},
					found:    p.peek(),
				})
			}
			return out, start.Span.Cover(end.Span), nil
		}
	}
}
