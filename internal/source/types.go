package source

type (
	// FileID identifies a file inside a FileSet.
	FileID uint32
	// FileFlags carries metadata about how a file was obtained.
	FileFlags uint8
)

const (
	// FileVirtual marks files added from memory (tests, stdin, REPL line).
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
)

// File holds the content of one source file together with its line index.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32 // offsets of '\n'
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol is a 1-based human-readable position.
type LineCol struct {
	Line uint32
	Col  uint32
}
