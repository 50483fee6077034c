package symbols

import "fmt"

// BuiltinModule is the module id reserved for primitives.
const BuiltinModule uint32 = 0

// SyntheticModule namespaces names introduced by later passes
// (`_result`, environment structs, pattern temporaries).
const SyntheticModule uint32 = ^uint32(0)

// Tag: уникальная в пределах запуска идентичность объявленного имени.
type Tag struct {
	Module uint32
	Key    uint32
}

func (t Tag) String() string {
	return fmt.Sprintf("%d.%d", t.Module, t.Key)
}

// IsBuiltin reports whether the tag belongs to the built-in module.
func (t Tag) IsBuiltin() bool { return t.Module == BuiltinModule }

var (
	TagF64  = Tag{Module: BuiltinModule, Key: 0}
	TagBool = Tag{Module: BuiltinModule, Key: 1}
	// TagType is the witness descriptor type; it has no surface spelling.
	TagType = Tag{Module: BuiltinModule, Key: 2}
)

// TagSource mints tags for one module. It is not safe for concurrent use;
// parallel builds give every unit its own source.
type TagSource struct {
	module uint32
	next   uint32
}

// NewTagSource panics on the built-in module id.
func NewTagSource(module uint32) *TagSource {
	if module == BuiltinModule {
		panic("symbols: module 0 is reserved for built-ins")
	}
	return &TagSource{module: module}
}

func (s *TagSource) Fresh() Tag {
	t := Tag{Module: s.module, Key: s.next}
	s.next++
	return t
}

// Module returns the module id tags are minted for.
func (s *TagSource) Module() uint32 { return s.module }

// Synthetic mints a compiler-introduced identifier. Its name is used
// verbatim by Mangle, so callers keep names unique within a function.
func (s *TagSource) Synthetic(name string) Identifier {
	return Identifier{Tag: s.Fresh(), Name: name, Global: true}
}

// Identifier pairs a tag with the name it was declared under.
type Identifier struct {
	Tag    Tag
	Name   string
	Global bool
}

// Mangle возвращает стабильное имя для бэкенда: глобальные имена
// остаются как есть, локальные получают ключ тега.
func (id Identifier) Mangle() string {
	if id.Global || id.Tag.IsBuiltin() {
		return id.Name
	}
	return fmt.Sprintf("%s_%d", id.Name, id.Tag.Key)
}

func (id Identifier) String() string {
	return id.Name
}
