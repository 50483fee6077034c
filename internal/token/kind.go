package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	Ident
	Number

	KwFunc   // func
	KwStruct // struct
	KwLet    // let
	KwIf     // if
	KwThen   // then
	KwElse   // else
	KwCase   // case
	KwOf     // of
	KwTrue   // True
	KwFalse  // False

	LParen    // (
	RParen    // )
	LBrace    // {
	RBrace    // }
	LBracket  // [
	RBracket  // ]
	Comma     // ,
	Colon     // :
	Semicolon // ;
	Assign    // =
	FatArrow  // =>
	Arrow     // ->
	Pipe      // |
	Plus      // +
	Minus     // -
	Star      // *
	Lt        // <
)

var kindNames = [...]string{
	Invalid:   "invalid",
	EOF:       "end of file",
	Ident:     "identifier",
	Number:    "number",
	KwFunc:    "'func'",
	KwStruct:  "'struct'",
	KwLet:     "'let'",
	KwIf:      "'if'",
	KwThen:    "'then'",
	KwElse:    "'else'",
	KwCase:    "'case'",
	KwOf:      "'of'",
	KwTrue:    "'True'",
	KwFalse:   "'False'",
	LParen:    "'('",
	RParen:    "')'",
	LBrace:    "'{'",
	RBrace:    "'}'",
	LBracket:  "'['",
	RBracket:  "']'",
	Comma:     "','",
	Colon:     "':'",
	Semicolon: "';'",
	Assign:    "'='",
	FatArrow:  "'=>'",
	Arrow:     "'->'",
	Pipe:      "'|'",
	Plus:      "'+'",
	Minus:     "'-'",
	Star:      "'*'",
	Lt:        "'<'",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

var keywords = map[string]Kind{
	"func":   KwFunc,
	"struct": KwStruct,
	"let":    KwLet,
	"if":     KwIf,
	"then":   KwThen,
	"else":   KwElse,
	"case":   KwCase,
	"of":     KwOf,
	"True":   KwTrue,
	"False":  KwFalse,
}

// LookupKeyword returns the keyword kind for ident, or Ident.
func LookupKeyword(ident string) Kind {
	if k, ok := keywords[ident]; ok {
		return k
	}
	return Ident
}
