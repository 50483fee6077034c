package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Лексические
	LexUnknownChar Code = 1001
	LexBadNumber   Code = 1002

	// Парсерные
	SynUnexpectedToken   Code = 2001
	SynExpectIdentifier  Code = 2002
	SynExpectType        Code = 2003
	SynExpectExpression  Code = 2004
	SynExpectPattern     Code = 2005
	SynUnclosedDelimiter Code = 2006
	SynExpectDefinition  Code = 2007

	// Квалификация имён
	QualUndefinedVariable   Code = 3001
	QualUndefinedType       Code = 3002
	QualUndefinedStruct     Code = 3003
	QualExtraField          Code = 3004
	QualMissingField        Code = 3005
	QualPatternMissingField Code = 3006
	QualDuplicateDefinition Code = 3007

	// Типы
	TypMismatch           Code = 4001
	TypGenericMismatch    Code = 4002
	TypUnspecifiedGeneric Code = 4003
	TypUnknownVariable    Code = 4004
	TypUnknownFunction    Code = 4005
	TypUnknownStruct      Code = 4006
	TypArityMismatch      Code = 4007

	// Размеры / witness
	SizUnknownStruct    Code = 5001
	SizRecursiveUnsized Code = 5002

	// Lowering / refcount
	LowInternal       Code = 6001
	RcWriteTwice      Code = 6101
	RcReadBeforeWrite Code = 6102
	RcUseAfterMove    Code = 6103

	// I/O
	IOLoadFileError Code = 9001
)

var codeDescription = map[Code]string{
	UnknownCode: "Unknown error",

	LexUnknownChar: "Unknown character",
	LexBadNumber:   "Malformed number literal",

	SynUnexpectedToken:   "Unexpected token",
	SynExpectIdentifier:  "Expected identifier",
	SynExpectType:        "Expected type",
	SynExpectExpression:  "Expected expression",
	SynExpectPattern:     "Expected pattern",
	SynUnclosedDelimiter: "Unclosed delimiter",
	SynExpectDefinition:  "Expected 'func' or 'struct'",

	QualUndefinedVariable:   "Undefined variable",
	QualUndefinedType:       "Undefined type",
	QualUndefinedStruct:     "Undefined struct",
	QualExtraField:          "Struct literal contains extra field",
	QualMissingField:        "Struct literal is missing a field",
	QualPatternMissingField: "Struct pattern is missing a field",
	QualDuplicateDefinition: "Duplicate definition",

	TypMismatch:           "Type mismatch",
	TypGenericMismatch:    "Generic bound to two different types",
	TypUnspecifiedGeneric: "Generic parameter never resolved",
	TypUnknownVariable:    "Unknown variable",
	TypUnknownFunction:    "Unknown function",
	TypUnknownStruct:      "Unknown struct",
	TypArityMismatch:      "Wrong number of arguments",

	SizUnknownStruct:    "Struct metadata missing",
	SizRecursiveUnsized: "Recursive value type has infinite size",

	LowInternal:       "Lowering failed",
	RcWriteTwice:      "Variable written twice",
	RcReadBeforeWrite: "Variable read before write",
	RcUseAfterMove:    "Variable used after move",

	IOLoadFileError: "Failed to load file",
}

// ID возвращает стабильный строковый код вида SYN2001.
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("QUA%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("TYP%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("SIZ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("LOW%04d", ic)
	case ic >= 9000 && ic < 10000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	if desc, ok := codeDescription[c]; ok {
		return desc
	}
	return codeDescription[UnknownCode]
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
