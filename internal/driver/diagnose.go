package driver

import (
	"errors"
	"strings"

	"keel/internal/diag"
	"keel/internal/lower"
	"keel/internal/parser"
	"keel/internal/qualify"
	"keel/internal/refcount"
	"keel/internal/sizer"
	"keel/internal/source"
	"keel/internal/typecheck"
)

// coded is implemented by the error types of every stage after parsing.
type coded interface {
	error
	Code() diag.Code
}

// diagnostic converts a stage error into a user-facing diagnostic.
func diagnostic(err error) diag.Diagnostic {
	var syn *parser.SyntaxError
	if errors.As(err, &syn) {
		d := diag.NewError(syn.Code, syn.Span, syn.Message)
		if len(syn.Context) > 0 {
			d = d.WithNote(syn.Span, "while parsing "+strings.Join(syn.Context, " > "))
		}
		return d
	}

	code := diag.UnknownCode
	var c coded
	if errors.As(err, &c) {
		code = c.Code()
	}
	d := diag.NewError(code, errorSpan(err), err.Error())

	var q *qualify.Error
	if errors.As(err, &q) && q.Kind == qualify.ErrDuplicateDefinition {
		d = d.WithNote(q.Previous, "previous definition here")
	}
	var te *typecheck.Error
	if errors.As(err, &te) && te.Kind == typecheck.ErrGenericTypeMismatch {
		d = d.WithNote(te.Span, "generic "+te.Name+" was bound to "+te.First.String()+" first")
	}
	return d
}

func errorSpan(err error) source.Span {
	var q *qualify.Error
	if errors.As(err, &q) {
		return q.Span
	}
	var t *typecheck.Error
	if errors.As(err, &t) {
		return t.Span
	}
	var s *sizer.Error
	if errors.As(err, &s) {
		return s.Span
	}
	return source.Span{}
}

// functionSpan locates lowering and refcount errors by function name.
func (p *pipeline) functionSpan(err error) source.Span {
	var name string
	var le *lower.Error
	var re *refcount.Error
	switch {
	case errors.As(err, &re):
		name = re.Function
	case errors.As(err, &le):
		name = le.Function
	default:
		return source.Span{}
	}
	if p.res.Lowered == nil {
		return source.Span{}
	}
	for _, fn := range p.res.Lowered.Functions {
		if fn.Name == name {
			return fn.Span
		}
	}
	return source.Span{}
}
