package source

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// StringID is a handle to an interned string.
type StringID uint32

// NoStringID is the empty string and the zero handle.
const NoStringID StringID = 0

// Interner deduplicates strings of one kind (identifiers, generated names)
// and hands out dense integer handles. Not safe for concurrent use.
type Interner struct {
	byID  []string
	index map[string]StringID
}

func NewInterner() *Interner {
	return &Interner{
		byID:  []string{""},
		index: map[string]StringID{"": NoStringID},
	}
}

// Intern returns the handle of s, storing a private copy on first sight.
func (i *Interner) Intern(s string) StringID {
	if id, ok := i.index[s]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(i.byID))
	if err != nil {
		panic(fmt.Errorf("interner overflow: %w", err))
	}
	cpy := string([]byte(s))
	id := StringID(n)
	i.byID = append(i.byID, cpy)
	i.index[cpy] = id
	return id
}

// Lookup returns the string behind id.
func (i *Interner) Lookup(id StringID) (string, bool) {
	if int(id) >= len(i.byID) {
		return "", false
	}
	return i.byID[id], true
}

// MustLookup is Lookup that panics on a foreign handle.
func (i *Interner) MustLookup(id StringID) string {
	s, ok := i.Lookup(id)
	if !ok {
		panic(fmt.Sprintf("interner: unknown string id %d", id))
	}
	return s
}

// Len counts stored strings including the empty one.
func (i *Interner) Len() int {
	return len(i.byID)
}

// Snapshot copies all strings in handle order.
func (i *Interner) Snapshot() []string {
	return slices.Clone(i.byID)
}
