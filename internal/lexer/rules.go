package lexer

import (
	"strconv"
	"strings"

	"github.com/ymir-lang/ymir/internal/source"
	"github.com/ymir-lang/ymir/internal/token"
)

// Rule is a single lexing rule tried in priority order by the Lexer.
type Rule interface {
	Matches(c *Cursor) bool
	Consume(c *Cursor) token.Token
}

// defaultRules returns the rule catalogue in priority order, per spec §4.1:
// numeric, string, boolean, comment, path, keywords, punctuation, identifier.
func defaultRules() []Rule {
	rules := []Rule{
		numberRule{},
		stringRule{},
		boolRule{},
		commentRule{},
		pathRule{},
	}
	for text, kind := range token.Keywords {
		rules = append(rules, keywordRule{text: text, kind: kind})
	}
	rules = append(rules, punctuationRule{}, identifierRule{})
	return rules
}

func startToken(c *Cursor) (offset, line, col int) {
	return c.Offset(), c.Line(), c.Column()
}

func makeToken(c *Cursor, kind token.Kind, text string, startOffset, startLine, startCol int, file string) token.Token {
	return token.Token{
		Kind: kind,
		Text: text,
		Line: startLine,
		Position: source.Position{
			File:      file,
			LineStart: startLine,
			LineEnd:   c.Line(),
			ColStart:  startCol,
			ColEnd:    c.Column(),
			Offset:    startOffset,
			Length:    c.Offset() - startOffset,
		},
	}
}

// ---- numeric literal ----

type numberRule struct{}

func (numberRule) Matches(c *Cursor) bool {
	ch := c.CurrentChar()
	if isDigit(ch) {
		return true
	}
	if ch == '-' {
		nxt := c.Peek(1, false)
		return isDigit(nxt) || nxt == '.'
	}
	if ch == '.' {
		return isDigit(c.Peek(1, false))
	}
	return false
}

// Consume reads an optional leading '-', digits, and an optional '.digits'
// fraction. Per the Open Question decision documented in DESIGN.md, no
// whitespace is permitted between the sign and the digits/dot: "- .5" does
// not lex as one numeric token.
func (numberRule) Consume(c *Cursor) token.Token {
	off, line, col := startToken(c)
	var b strings.Builder
	if c.CurrentChar() == '-' {
		b.WriteByte(c.Read())
	}
	for isDigit(c.CurrentChar()) {
		b.WriteByte(c.Read())
	}
	if c.CurrentChar() == '.' && isDigit(c.Peek(1, false)) {
		b.WriteByte(c.Read())
		for isDigit(c.CurrentChar()) {
			b.WriteByte(c.Read())
		}
	}
	text := b.String()
	tok := makeToken(c, token.Number, text, off, line, col, "")
	if v, err := strconv.ParseFloat(text, 64); err == nil {
		tok.NumberValue = v
	}
	return tok
}

// ---- string literal ----

type stringRule struct{}

func (stringRule) Matches(c *Cursor) bool {
	ch := c.CurrentChar()
	return ch == '"' || ch == '\''
}

func (stringRule) Consume(c *Cursor) token.Token {
	off, line, col := startToken(c)
	quote := c.Read()
	var raw strings.Builder
	var decoded strings.Builder
	terminated := false
	for !c.AtEOF() {
		ch := c.CurrentChar()
		if ch == quote {
			c.Read()
			terminated = true
			break
		}
		if ch == '\n' {
			break // unterminated: strings don't span lines
		}
		if ch == '\\' {
			raw.WriteByte(c.Read())
			if c.AtEOF() {
				break
			}
			esc := c.Read()
			raw.WriteByte(esc)
			decoded.WriteByte(decodeEscape(esc))
			continue
		}
		raw.WriteByte(ch)
		decoded.WriteByte(ch)
		c.Read()
	}
	text := string(quote) + raw.String() + string(quote)
	if !terminated {
		return makeToken(c, token.Bad, text, off, line, col, "")
	}
	tok := makeToken(c, token.String, text, off, line, col, "")
	tok.StringValue = decoded.String()
	return tok
}

func decodeEscape(esc byte) byte {
	switch esc {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '\\':
		return '\\'
	case '\'':
		return '\''
	case '"':
		return '"'
	default:
		return esc
	}
}

// ---- boolean literal ----

type boolRule struct{}

func (boolRule) Matches(c *Cursor) bool {
	return matchesKeyword(c, "true") || matchesKeyword(c, "false")
}

func (boolRule) Consume(c *Cursor) token.Token {
	off, line, col := startToken(c)
	var text string
	if matchesKeyword(c, "true") {
		text = "true"
	} else {
		text = "false"
	}
	c.Advance(len(text), false)
	tok := makeToken(c, token.Bool, text, off, line, col, "")
	tok.BooleanValue = text == "true"
	return tok
}

// ---- single-line comment ----

type commentRule struct{}

func (commentRule) Matches(c *Cursor) bool {
	return c.CurrentChar() == '/' && c.Peek(1, false) == '/'
}

func (commentRule) Consume(c *Cursor) token.Token {
	off, line, col := startToken(c)
	var b strings.Builder
	for !c.AtEOF() && c.CurrentChar() != '\n' {
		b.WriteByte(c.Read())
	}
	return makeToken(c, token.Comment, b.String(), off, line, col, "")
}

// ---- path literal ----

// pathRule greedily consumes a path-with-query string as a single token,
// e.g. "/users/:id?active=bool&sort=string". Query parameters are split out
// of the token text by the parser, not here.
type pathRule struct{}

func (pathRule) Matches(c *Cursor) bool {
	return c.CurrentChar() == '/'
}

func (pathRule) Consume(c *Cursor) token.Token {
	off, line, col := startToken(c)
	var b strings.Builder
	for !c.AtEOF() {
		ch := c.CurrentChar()
		if ch == '\\' {
			nxt := c.Peek(1, false)
			if nxt == '?' || nxt == ';' || nxt == ' ' {
				b.WriteByte(nxt)
				c.Advance(2, false)
				continue
			}
		}
		if isWhitespace(ch) || ch == ';' || ch == ',' || ch == ')' {
			break
		}
		b.WriteByte(c.Read())
	}
	return makeToken(c, token.Path, b.String(), off, line, col, "")
}

// ---- keywords ----

type keywordRule struct {
	text string
	kind token.Kind
}

func (r keywordRule) Matches(c *Cursor) bool {
	return matchesKeyword(c, r.text)
}

func (r keywordRule) Consume(c *Cursor) token.Token {
	off, line, col := startToken(c)
	c.Advance(len(r.text), false)
	return makeToken(c, r.kind, r.text, off, line, col, "")
}

// matchesKeyword reports whether the cursor is positioned at exactly `word`
// followed by a non-identifier character (whitespace, EOF, or punctuation) —
// the disambiguation rule from spec §4.1 so "targetFoo" is one identifier,
// not the keyword "target" plus "Foo".
func matchesKeyword(c *Cursor, word string) bool {
	for i := 0; i < len(word); i++ {
		if c.Peek(i, false) != word[i] {
			return false
		}
	}
	after := c.Peek(len(word), false)
	if after == 0 {
		return true
	}
	return !isIdentChar(after)
}

// ---- punctuation ----

type punctuationRule struct{}

func (punctuationRule) Matches(c *Cursor) bool {
	_, ok := token.Punctuation[c.CurrentChar()]
	return ok
}

func (punctuationRule) Consume(c *Cursor) token.Token {
	off, line, col := startToken(c)
	ch := c.Read()
	kind := token.Punctuation[ch]
	return makeToken(c, kind, string(ch), off, line, col, "")
}

// ---- identifier fallback ----

type identifierRule struct{}

func (identifierRule) Matches(c *Cursor) bool {
	return isIdentStart(c.CurrentChar())
}

func (identifierRule) Consume(c *Cursor) token.Token {
	off, line, col := startToken(c)
	var b strings.Builder
	b.WriteByte(c.Read())
	for isIdentChar(c.CurrentChar()) {
		b.WriteByte(c.Read())
	}
	return makeToken(c, token.Ident, b.String(), off, line, col, "")
}
