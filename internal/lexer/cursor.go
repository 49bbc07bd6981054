package lexer

// Cursor walks a source buffer one byte at a time, tracking absolute offset,
// 1-based line, and 1-based column (column resets on newline).
type Cursor struct {
	src    string
	offset int
	line   int
	column int
}

// NewCursor returns a Cursor positioned at the start of src.
func NewCursor(src string) *Cursor {
	return &Cursor{src: src, offset: 0, line: 1, column: 1}
}

// Offset returns the current absolute byte offset.
func (c *Cursor) Offset() int { return c.offset }

// Line returns the current 1-based line number.
func (c *Cursor) Line() int { return c.line }

// Column returns the current 1-based column number.
func (c *Cursor) Column() int { return c.column }

// AtEOF reports whether the cursor has consumed the whole source.
func (c *Cursor) AtEOF() bool { return c.offset >= len(c.src) }

// CurrentChar returns the byte at the cursor, or 0 at end of input.
func (c *Cursor) CurrentChar() byte {
	if c.AtEOF() {
		return 0
	}
	return c.src[c.offset]
}

// Peek returns the byte `offset` positions ahead of the cursor without
// consuming it. When skipWhitespace is true, whitespace bytes are skipped
// before counting offset positions (used by the numeric rule's "- .5" check).
func (c *Cursor) Peek(offset int, skipWhitespace bool) byte {
	_, b := c.PeekWithIndex(offset, skipWhitespace)
	return b
}

// PeekWithIndex is like Peek but also returns the absolute index the byte
// was found at, or -1 if past end of input.
func (c *Cursor) PeekWithIndex(offset int, skipWhitespace bool) (int, byte) {
	idx := c.offset
	remaining := offset
	for {
		if idx >= len(c.src) {
			return -1, 0
		}
		if skipWhitespace {
			for idx < len(c.src) && isWhitespace(c.src[idx]) {
				idx++
			}
			if idx >= len(c.src) {
				return -1, 0
			}
		}
		if remaining == 0 {
			return idx, c.src[idx]
		}
		idx++
		remaining--
	}
}

// Advance consumes n bytes, updating line/column as it crosses newlines. If
// skipWhitespace is true, leading whitespace is consumed first (not counted
// against n).
func (c *Cursor) Advance(n int, skipWhitespace bool) {
	if skipWhitespace {
		for !c.AtEOF() && isWhitespace(c.CurrentChar()) {
			c.step()
		}
	}
	for i := 0; i < n && !c.AtEOF(); i++ {
		c.step()
	}
}

// Read returns the current byte then advances the cursor by one.
func (c *Cursor) Read() byte {
	ch := c.CurrentChar()
	if !c.AtEOF() {
		c.step()
	}
	return ch
}

func (c *Cursor) step() {
	if c.src[c.offset] == '\n' {
		c.line++
		c.column = 1
	} else {
		c.column++
	}
	c.offset++
}

// SkipWhitespace consumes whitespace bytes at the cursor.
func (c *Cursor) SkipWhitespace() {
	for !c.AtEOF() && isWhitespace(c.CurrentChar()) {
		c.step()
	}
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isIdentChar(b byte) bool {
	return isIdentStart(b) || isDigit(b) || b == '-'
}
