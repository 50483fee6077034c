package ast

type Hints struct{ Files, Items, Exprs uint }

// Builder owns every arena of one parse session.
type Builder struct {
	Files    *Files
	Items    *Items
	Exprs    *Exprs
	Types    *Types
	Patterns *Patterns
}

func NewBuilder(hints Hints) *Builder {
	if hints.Files == 0 {
		hints.Files = 1 << 3
	}
	if hints.Items == 0 {
		hints.Items = 1 << 6
	}
	if hints.Exprs == 0 {
		hints.Exprs = 1 << 8
	}
	return &Builder{
		Files:    NewFiles(hints.Files),
		Items:    NewItems(hints.Items),
		Exprs:    NewExprs(hints.Exprs),
		Types:    NewTypes(hints.Exprs / 2),
		Patterns: NewPatterns(hints.Exprs / 4),
	}
}

func (b *Builder) PushItem(file FileID, item ItemID) {
	f := b.Files.Get(file)
	f.Items = append(f.Items, item)
}
