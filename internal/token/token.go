// Package token defines the lexical tokens produced by internal/lexer and
// consumed by internal/parser.
package token

import "github.com/ymir-lang/ymir/internal/source"

// Kind enumerates every token kind the lexer can produce.
type Kind int

const (
	Bad Kind = iota
	EOF

	// Literals
	Ident
	Number
	String
	Bool
	Path // e.g. /users/:id?sort=string

	// Keywords
	KwTarget
	KwUse
	KwRouter
	KwInclude
	KwWith
	KwBody
	KwHeader
	KwQuery
	KwGet
	KwPost
	KwPut
	KwDelete
	KwPatch
	KwHead
	KwOptions
	KwAs
	KwAny
	KwString
	KwFloat
	KwInt
	KwBoolean
	KwDatetime
	KwDate
	KwTime
	KwPublic
	KwAuthenticated
	KwAuthenticate
	KwAuth
	KwResponse
	KwResponses
	KwRender
	KwTable
	KwList
	KwDetail
	KwForm

	// Punctuation
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Dot
	Comma
	Colon
	Semicolon
	Question
	Assign
	Bang
	Lt
	Gt
	Plus
	Minus
	Star
	Slash
	Percent
	Amp
	Pipe
	Caret
	Tilde
	At
	Hash

	Comment
)

var kindNames = map[Kind]string{
	Bad: "bad-token", EOF: "eof",
	Ident: "identifier", Number: "number", String: "string", Bool: "bool", Path: "path",
	KwTarget: "target", KwUse: "use", KwRouter: "router", KwInclude: "include", KwWith: "with",
	KwBody: "body", KwHeader: "header", KwQuery: "query",
	KwGet: "GET", KwPost: "POST", KwPut: "PUT", KwDelete: "DELETE", KwPatch: "PATCH", KwHead: "HEAD", KwOptions: "OPTIONS",
	KwAs: "as", KwAny: "any", KwString: "string-type", KwFloat: "float", KwInt: "int", KwBoolean: "boolean",
	KwDatetime: "datetime", KwDate: "date", KwTime: "time",
	KwPublic: "public", KwAuthenticated: "authenticated", KwAuthenticate: "authenticate", KwAuth: "auth",
	KwResponse: "response", KwResponses: "responses", KwRender: "render",
	KwTable: "table", KwList: "list", KwDetail: "detail", KwForm: "form",
	LParen: "(", RParen: ")", LBrace: "{", RBrace: "}", LBracket: "[", RBracket: "]",
	Dot: ".", Comma: ",", Colon: ":", Semicolon: ";", Question: "?", Assign: "=", Bang: "!",
	Lt: "<", Gt: ">", Plus: "+", Minus: "-", Star: "*", Slash: "/", Percent: "%",
	Amp: "&", Pipe: "|", Caret: "^", Tilde: "~", At: "@", Hash: "#",
	Comment: "comment",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Keywords maps literal keyword text to its Kind. Matching requires the
// keyword be followed by a non-identifier character (see lexer.Cursor).
var Keywords = map[string]Kind{
	"target": KwTarget, "use": KwUse, "router": KwRouter, "include": KwInclude, "with": KwWith,
	"body": KwBody, "header": KwHeader, "query": KwQuery,
	"GET": KwGet, "POST": KwPost, "PUT": KwPut, "DELETE": KwDelete, "PATCH": KwPatch, "HEAD": KwHead, "OPTIONS": KwOptions,
	"as": KwAs, "any": KwAny, "string": KwString, "float": KwFloat, "int": KwInt, "boolean": KwBoolean,
	"datetime": KwDatetime, "date": KwDate, "time": KwTime,
	"public": KwPublic, "authenticated": KwAuthenticated, "authenticate": KwAuthenticate, "auth": KwAuth,
	"response": KwResponse, "responses": KwResponses, "render": KwRender,
	"table": KwTable, "list": KwList, "detail": KwDetail, "form": KwForm,
}

// Punctuation maps single-character punctuation to its Kind.
var Punctuation = map[byte]Kind{
	'(': LParen, ')': RParen, '{': LBrace, '}': RBrace, '[': LBracket, ']': RBracket,
	'.': Dot, ',': Comma, ':': Colon, ';': Semicolon, '?': Question, '=': Assign, '!': Bang,
	'<': Lt, '>': Gt, '+': Plus, '-': Minus, '*': Star, '/': Slash, '%': Percent,
	'&': Amp, '|': Pipe, '^': Caret, '~': Tilde, '@': At, '#': Hash,
}

// Token is a single lexical token with its source position and decoded
// payload (for literals).
type Token struct {
	Kind     Kind
	Text     string
	Position source.Position
	Line     int

	NumberValue  float64
	StringValue  string
	BooleanValue bool
}

func (t Token) String() string {
	if t.Text == "" {
		return t.Kind.String()
	}
	return t.Kind.String() + "(" + t.Text + ")"
}
