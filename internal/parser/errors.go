package parser

import (
	"errors"
	"fmt"
	"strings"

	"keel/internal/diag"
	"keel/internal/source"
	"keel/internal/token"
)

// errNoMatch помечает восстановимую неудачу: продукция не подошла,
// можно пробовать альтернативу.
var errNoMatch = errors.New("no match")

type noMatchError struct {
	what     string
	code     diag.Code
	expected []token.Kind
	found    token.Token
}

func (e *noMatchError) Error() string {
	return fmt.Sprintf("expected %s, found %s", e.describe(), foundText(e.found))
}

func (e *noMatchError) Is(target error) bool { return target == errNoMatch }

func (e *noMatchError) describe() string {
	if e.what != "" {
		return e.what
	}
	names := make([]string, len(e.expected))
	for i, k := range e.expected {
		names[i] = "'" + k.String() + "'"
	}
	return strings.Join(names, " or ")
}

func foundText(tok token.Token) string {
	if tok.Kind == token.EOF {
		return "end of file"
	}
	return fmt.Sprintf("%q", tok.Text)
}

// SyntaxError is an irrecoverable parse failure. Context lists the
// constructs being parsed, outermost first.
type SyntaxError struct {
	Code    diag.Code
	Span    source.Span
	Message string
	Context []string
}

func (e *SyntaxError) Error() string {
	if len(e.Context) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (while parsing %s)", e.Message, strings.Join(e.Context, " > "))
}

// within превращает восстановимую ошибку в фатальную и дописывает контекст.
func within(ctx string, err error) error {
	if err == nil {
		return nil
	}
	var nm *noMatchError
	if errors.As(err, &nm) {
		return &SyntaxError{
			Code:    nm.code,
			Span:    nm.found.Span,
			Message: nm.Error(),
			Context: []string{ctx},
		}
	}
	var se *SyntaxError
	if errors.As(err, &se) {
		se.Context = append([]string{ctx}, se.Context...)
		return se
	}
	return err
}

func codeFor(kinds []token.Kind) diag.Code {
	if len(kinds) != 1 {
		return diag.SynUnexpectedToken
	}
	switch kinds[0] {
	case token.Ident:
		return diag.SynExpectIdentifier
	case token.RParen, token.RBrace, token.RBracket:
		return diag.SynUnclosedDelimiter
	default:
		return diag.SynUnexpectedToken
	}
}

func isNoMatch(err error) bool {
	return errors.Is(err, errNoMatch)
}
