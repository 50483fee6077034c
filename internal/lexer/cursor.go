package lexer

import (
	"fmt"
	"unicode/utf8"

	"fortio.org/safecast"

	"keel/internal/source"
)

// Cursor: позиция внутри файла.
type Cursor struct {
	File  *source.File
	Off   uint32
	Limit uint32
}

func NewCursor(f *source.File) Cursor {
	limit, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("len file content overflow: %w", err))
	}
	return Cursor{File: f, Limit: limit}
}

func (c *Cursor) EOF() bool {
	return c.Off >= c.Limit
}

// Peek возвращает текущий байт или 0 на EOF.
func (c *Cursor) Peek() byte {
	if c.EOF() {
		return 0
	}
	return c.File.Content[c.Off]
}

// PeekAt смотрит на n байт вперёд.
func (c *Cursor) PeekAt(n uint32) byte {
	if c.Off+n >= c.Limit {
		return 0
	}
	return c.File.Content[c.Off+n]
}

// PeekRune декодирует руну в текущей позиции.
func (c *Cursor) PeekRune() (rune, uint32) {
	if c.EOF() {
		return utf8.RuneError, 0
	}
	r, size := utf8.DecodeRune(c.File.Content[c.Off:c.Limit])
	return r, uint32(size)
}

func (c *Cursor) Bump() byte {
	b := c.Peek()
	if !c.EOF() {
		c.Off++
	}
	return b
}

func (c *Cursor) Advance(n uint32) {
	c.Off = min(c.Off+n, c.Limit)
}

func (c *Cursor) SpanFrom(start uint32) source.Span {
	return source.Span{File: c.File.ID, Start: start, End: c.Off}
}
