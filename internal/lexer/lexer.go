package lexer

import (
	"github.com/ymir-lang/ymir/internal/token"
)

// Lexer drives a Cursor through the rule catalogue, producing a token
// stream and a side-channel map of single-line comments keyed by line
// number, used later to associate a route with the comment immediately
// preceding it.
type Lexer struct {
	file     string
	cursor   *Cursor
	rules    []Rule
	comments map[int]string
}

// New returns a Lexer over src, attributing positions to file.
func New(file, src string) *Lexer {
	return &Lexer{
		file:     file,
		cursor:   NewCursor(src),
		rules:    defaultRules(),
		comments: map[int]string{},
	}
}

// Tokenize runs the lexer to completion, returning the token stream
// (terminated by an EOF token) and the comment map.
func (l *Lexer) Tokenize() ([]token.Token, map[int]string) {
	var tokens []token.Token
	for {
		tok, ok := l.next()
		if !ok {
			continue
		}
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return tokens, l.comments
}

// next produces the next token, or (zero, false) when whitespace was
// skipped and the caller should retry.
func (l *Lexer) next() (token.Token, bool) {
	if l.cursor.AtEOF() {
		off, line, col := l.cursor.Offset(), l.cursor.Line(), l.cursor.Column()
		return makeToken(l.cursor, token.EOF, "", off, line, col, l.file), true
	}

	for _, r := range l.rules {
		if r.Matches(l.cursor) {
			tok := r.Consume(l.cursor)
			tok.Position.File = l.file
			if tok.Kind == token.Comment {
				l.comments[tok.Line] = tok.Text
				return token.Token{}, false
			}
			return tok, true
		}
	}

	if isWhitespace(l.cursor.CurrentChar()) {
		l.cursor.SkipWhitespace()
		return token.Token{}, false
	}

	// Error recovery: emit a bad-token for the single offending character
	// and advance past it so the lexer always makes progress.
	off, line, col := l.cursor.Offset(), l.cursor.Line(), l.cursor.Column()
	ch := l.cursor.Read()
	return makeToken(l.cursor, token.Bad, string(ch), off, line, col, l.file), true
}
