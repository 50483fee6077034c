package lexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"keel/internal/diag"
	"keel/internal/source"
	"keel/internal/token"
)

type Options struct {
	Reporter diag.Reporter // может быть nil: тогда ошибки молча пропускаются
}

type Lexer struct {
	file   *source.File
	cursor Cursor
	opts   Options
	look   *token.Token
}

func New(file *source.File, opts Options) *Lexer {
	return &Lexer{file: file, cursor: NewCursor(file), opts: opts}
}

// Tokenize returns every token of the file, EOF included.
func Tokenize(file *source.File, opts Options) []token.Token {
	lx := New(file, opts)
	out := make([]token.Token, 0, len(file.Content)/3+1)
	for {
		tok := lx.Next()
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out
		}
	}
}

// Peek returns the next token without consuming it.
func (lx *Lexer) Peek() token.Token {
	if lx.look == nil {
		tok := lx.scan()
		lx.look = &tok
	}
	return *lx.look
}

// Next возвращает следующий значимый токен. После EOF всегда EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}
	return lx.scan()
}

func (lx *Lexer) scan() token.Token {
	for {
		lx.skipTrivia()
		if lx.cursor.EOF() {
			return token.Token{Kind: token.EOF, Span: lx.cursor.SpanFrom(lx.cursor.Off)}
		}
		ch := lx.cursor.Peek()
		switch {
		case isIdentStart(ch):
			return lx.scanIdent()
		case ch >= utf8.RuneSelf:
			if r, _ := lx.cursor.PeekRune(); unicode.IsLetter(r) {
				return lx.scanIdent()
			}
			lx.unknown()
		case isDigit(ch):
			return lx.scanNumber()
		default:
			if tok, ok := lx.scanPunct(); ok {
				return tok
			}
			lx.unknown()
		}
	}
}

func (lx *Lexer) skipTrivia() {
	for !lx.cursor.EOF() {
		ch := lx.cursor.Peek()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			lx.cursor.Bump()
		case ch == '/' && lx.cursor.PeekAt(1) == '/':
			for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
				lx.cursor.Bump()
			}
		default:
			return
		}
	}
}

func (lx *Lexer) unknown() {
	start := lx.cursor.Off
	r, size := lx.cursor.PeekRune()
	if size == 0 {
		size = 1
	}
	lx.cursor.Advance(size)
	lx.report(diag.LexUnknownChar, lx.cursor.SpanFrom(start), fmt.Sprintf("unknown character %q", r))
}

func (lx *Lexer) scanIdent() token.Token {
	start := lx.cursor.Off
	for !lx.cursor.EOF() {
		ch := lx.cursor.Peek()
		if isIdentStart(ch) || isDigit(ch) {
			lx.cursor.Bump()
			continue
		}
		if ch >= utf8.RuneSelf {
			r, size := lx.cursor.PeekRune()
			if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) {
				lx.cursor.Advance(size)
				continue
			}
		}
		break
	}
	sp := lx.cursor.SpanFrom(start)
	// одна и та же буква в разных нормальных формах: одно имя
	text := norm.NFC.String(string(lx.file.Content[sp.Start:sp.End]))
	return token.Token{Kind: token.LookupKeyword(text), Span: sp, Text: text}
}

func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Off
	for isDigit(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	if lx.cursor.Peek() == '.' && isDigit(lx.cursor.PeekAt(1)) {
		lx.cursor.Bump()
		for isDigit(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
	}
	bad := false
	for isIdentStart(lx.cursor.Peek()) || isDigit(lx.cursor.Peek()) {
		lx.cursor.Bump()
		bad = true
	}
	sp := lx.cursor.SpanFrom(start)
	text := string(lx.file.Content[sp.Start:sp.End])
	if bad {
		lx.report(diag.LexBadNumber, sp, fmt.Sprintf("malformed number %q", text))
		return token.Token{Kind: token.Invalid, Span: sp, Text: text}
	}
	return token.Token{Kind: token.Number, Span: sp, Text: text}
}

func (lx *Lexer) scanPunct() (token.Token, bool) {
	start := lx.cursor.Off
	ch := lx.cursor.Peek()
	next := lx.cursor.PeekAt(1)
	kind := token.Invalid
	width := uint32(1)
	switch ch {
	case '(':
		kind = token.LParen
	case ')':
		kind = token.RParen
	case '{':
		kind = token.LBrace
	case '}':
		kind = token.RBrace
	case '[':
		kind = token.LBracket
	case ']':
		kind = token.RBracket
	case ',':
		kind = token.Comma
	case ':':
		kind = token.Colon
	case ';':
		kind = token.Semicolon
	case '|':
		kind = token.Pipe
	case '+':
		kind = token.Plus
	case '*':
		kind = token.Star
	case '<':
		kind = token.Lt
	case '=':
		kind = token.Assign
		if next == '>' {
			kind, width = token.FatArrow, 2
		}
	case '-':
		kind = token.Minus
		if next == '>' {
			kind, width = token.Arrow, 2
		}
	default:
		return token.Token{}, false
	}
	lx.cursor.Advance(width)
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: kind, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}, true
}

func (lx *Lexer) report(code diag.Code, sp source.Span, msg string) {
	if lx.opts.Reporter != nil {
		lx.opts.Reporter.Report(code, diag.SevError, sp, msg, nil)
	}
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
