package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	// KindPoint is an instant event.
	KindPoint
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	default:
		return "unknown"
	}
}

// Scope is the granularity of an event; lower values are coarser.
type Scope uint8

const (
	// ScopeDriver covers whole commands and compilation units.
	ScopeDriver Scope = iota + 1
	// ScopeStage covers one pipeline stage (parse, qualify, typecheck, ...).
	ScopeStage
	// ScopeFunction covers per-function work after type passing.
	ScopeFunction
	// ScopeDetail is for anything finer.
	ScopeDetail
)

func (s Scope) String() string {
	switch s {
	case ScopeDriver:
		return "driver"
	case ScopeStage:
		return "stage"
	case ScopeFunction:
		return "function"
	case ScopeDetail:
		return "detail"
	default:
		return "unknown"
	}
}

// Event represents a single trace event.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for roots
	GID      uint64
	// Session identifies one compiler invocation.
	Session string
	Name    string // "typecheck", "refcount:main", ...
	Detail  string
	Extra   map[string]string
}
