package typecheck

import (
	"errors"

	"keel/internal/source"
)

var errMismatch = errors.New("structural mismatch")

// unify requires found to match expected. A structural difference is
// reported as a top-level TypeMismatch, and rebinding a bound cell as
// GenericTypeMismatch. The first conflict wins.
func unify(expected, found *Type, span source.Span) error {
	err := unifyInner(expected, found)
	if err == nil {
		return nil
	}
	if errors.Is(err, errMismatch) {
		return &Error{Kind: ErrTypeMismatch, Expected: zonkLoose(expected), Found: zonkLoose(found), Span: span}
	}
	var te *Error
	if errors.As(err, &te) && te.Span == (source.Span{}) {
		te.Span = span
	}
	return err
}

func unifyInner(a, b *Type) error {
	if a == b {
		return nil
	}
	if a.Kind == TypeUnification {
		return unifyCell(a.Cell, b)
	}
	if b.Kind == TypeUnification {
		return unifyCell(b.Cell, a)
	}
	if a.Kind != b.Kind {
		return errMismatch
	}
	switch a.Kind {
	case TypeNamed:
		if a.Name.Tag != b.Name.Tag || len(a.Args) != len(b.Args) {
			return errMismatch
		}
		return unifyAll(a.Args, b.Args)
	case TypeGeneric:
		if a.Name.Tag != b.Name.Tag {
			return errMismatch
		}
		return nil
	case TypeFunction:
		if len(a.Args) != len(b.Args) {
			return errMismatch
		}
		if err := unifyAll(a.Args, b.Args); err != nil {
			return err
		}
		return unifyInner(a.Result, b.Result)
	}
	return errMismatch
}

func unifyAll(as, bs []*Type) error {
	for i := range as {
		if err := unifyInner(as[i], bs[i]); err != nil {
			return err
		}
	}
	return nil
}

func unifyCell(c *Cell, other *Type) error {
	if other.Kind == TypeUnification && other.Cell == c {
		return nil
	}
	if c.Value == nil {
		if other.Kind == TypeUnification && other.Cell.Value != nil {
			other = Resolve(other)
		}
		if occurs(c, other) {
			return errMismatch
		}
		c.Bind(other)
		return nil
	}
	err := unifyInner(c.Value, other)
	if errors.Is(err, errMismatch) {
		return &Error{
			Kind:   ErrGenericTypeMismatch,
			Name:   c.Generic.Name,
			First:  zonkLoose(c.Value),
			Second: zonkLoose(other),
		}
	}
	return err
}

func occurs(c *Cell, t *Type) bool {
	t = Resolve(t)
	switch t.Kind {
	case TypeUnification:
		return t.Cell == c
	case TypeNamed, TypeFunction:
		for _, a := range t.Args {
			if occurs(c, a) {
				return true
			}
		}
		return t.Result != nil && occurs(c, t.Result)
	}
	return false
}
