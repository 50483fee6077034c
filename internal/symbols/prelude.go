package symbols

// PreludeEntry describes a built-in installed into the global scope.
type PreludeEntry struct {
	Name string
	Tag  Tag
}

// Prelude lists the user-visible primitives. `Type` is deliberately absent.
func Prelude() []PreludeEntry {
	return []PreludeEntry{
		{Name: "F64", Tag: TagF64},
		{Name: "Bool", Tag: TagBool},
	}
}

func (t *Table) installPrelude() {
	for _, entry := range Prelude() {
		t.add(t.Global, Symbol{
			Name:  t.Strings.Intern(entry.Name),
			Kind:  SymbolType,
			Flags: SymbolFlagBuiltin,
			Tag:   entry.Tag,
		})
	}
}
