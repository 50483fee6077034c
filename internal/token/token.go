package token

import (
	"keel/internal/source"
)

// Token is a single lexeme with its location.
type Token struct {
	Kind Kind
	Span source.Span
	Text string
}

// IsKeyword reports whether the token is a reserved word.
func (t Token) IsKeyword() bool {
	return t.Kind >= KwFunc && t.Kind <= KwFalse
}
