package ast

import (
	"strings"

	"github.com/ymir-lang/ymir/internal/source"
)

// Method is an HTTP method a route can bind to.
type Method int

const (
	GET Method = iota
	POST
	PUT
	DELETE
	PATCH
	HEAD
	OPTIONS
)

var methodNames = map[Method]string{
	GET: "GET", POST: "POST", PUT: "PUT", DELETE: "DELETE",
	PATCH: "PATCH", HEAD: "HEAD", OPTIONS: "OPTIONS",
}

func (m Method) String() string { return methodNames[m] }

// ParamType is a query parameter's declared type.
type ParamType int

const (
	TypeAny ParamType = iota
	TypeString
	TypeInt
	TypeFloat
	TypeBool
	TypeDate
	TypeDatetime
	TypeTime
)

var paramTypeNames = map[ParamType]string{
	TypeAny: "any", TypeString: "string", TypeInt: "int", TypeFloat: "float",
	TypeBool: "bool", TypeDate: "date", TypeDatetime: "datetime", TypeTime: "time",
}

func (t ParamType) String() string { return paramTypeNames[t] }

// QueryParameter is one `name=type` pair in a path's query string.
type QueryParameter struct {
	Name     string
	Type     ParamType
	Position source.Position
}

// Path holds a route or router's raw path, its optional alias, and the
// query parameters parsed out of its `?a=type&b=type` suffix.
type Path struct {
	Raw         string
	Alias       string
	QueryParams []QueryParameter
	Position    source.Position
}

// Name returns the alias if present, else an alphanumerics-only form of Raw.
func (p Path) Name() string {
	if p.Alias != "" {
		return p.Alias
	}
	var b strings.Builder
	for _, r := range p.Raw {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Segments splits Raw on "/" discarding empty segments.
func (p Path) Segments() []string {
	parts := strings.Split(p.Raw, "/")
	out := make([]string, 0, len(parts))
	for _, s := range parts {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Variables returns the `:name` path-variable names found in Raw, in order.
func (p Path) Variables() []string {
	var out []string
	for _, seg := range p.Segments() {
		if strings.HasPrefix(seg, ":") {
			out = append(out, seg[1:])
		}
	}
	return out
}

// SanitizeIdent turns s into a valid cross-language identifier: characters
// outside [A-Za-z0-9_] become '_', and a leading digit is prefixed with '_'.
func SanitizeIdent(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "" {
		return "_"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	return out
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// AuthType is the authentication mechanism an AuthBlock describes.
type AuthType int

const (
	APIKey AuthType = iota
	Bearer
)

func (t AuthType) String() string {
	if t == APIKey {
		return "API-Key"
	}
	return "Bearer"
}

// BearerMode is the Bearer sub-mode: None (pass-through JWT), Basic
// (login/logout endpoints, subclass-supplied validation), or Full (the
// emitter generates JWT sign/verify itself).
type BearerMode int

const (
	BearerNone BearerMode = iota
	BearerBasic
	BearerFull
)

func (m BearerMode) String() string {
	switch m {
	case BearerBasic:
		return "BASIC"
	case BearerFull:
		return "FULL"
	default:
		return "NONE"
	}
}

// AuthSource is where an auth block's credential is read from.
type AuthSource int

const (
	SourceHeader AuthSource = iota
	SourceBody
	SourceQuery
)

func (s AuthSource) String() string {
	switch s {
	case SourceBody:
		return "body"
	case SourceQuery:
		return "query"
	default:
		return "header"
	}
}

// DefaultAccess is the optional `defaultAccess` option on an auth block.
type DefaultAccess int

const (
	AccessUnset DefaultAccess = iota
	AccessPublic
	AccessAuthenticated
)

// AuthBlock is a named, project-scoped authentication scheme.
type AuthBlock struct {
	Type                AuthType
	Source              AuthSource
	Field               string
	Alias               string
	DefaultAccess       DefaultAccess
	Options             *OrderedMap
	AuthorizationInUse  bool
	Position            source.Position
}

// Identity is the alias if present, else the auth-type string.
func (b *AuthBlock) Identity() string {
	if b.Alias != "" {
		return b.Alias
	}
	return b.Type.String()
}

// DisplayName is the identifier-sanitized identity, first letter capitalized.
func (b *AuthBlock) DisplayName() string {
	return Capitalize(SanitizeIdent(b.Identity()))
}

// AuthenticateClause references an AuthBlock by identity and optionally
// names required roles.
type AuthenticateClause struct {
	BlockIdentity string
	Roles         []string
	Position      source.Position
}

// Middleware is a project-scope `use` directive.
type Middleware struct {
	Name     string
	Options  *OrderedMap
	Position source.Position
}

// RenderType selects a frontend template for a route.
type RenderType int

const (
	RenderList RenderType = iota
	RenderTable
	RenderDetail
	RenderForm
)

func (t RenderType) String() string {
	switch t {
	case RenderTable:
		return "table"
	case RenderDetail:
		return "detail"
	case RenderForm:
		return "form"
	default:
		return "list"
	}
}

// RenderBlock is a `render list|table|detail|form (...)` directive.
type RenderBlock struct {
	Type     RenderType
	Options  *OrderedMap
	Position source.Position
}

// Route is a single METHOD path { ... } ; leaf.
type Route struct {
	Method           Method
	Path             Path
	Header           *OrderedMap
	Body             *OrderedMap
	Responses        *OrderedMap
	IsResponsePlural bool
	Authenticate     *AuthenticateClause
	Description      string
	Render           *RenderBlock
	Position         source.Position
}

// Router is a `router path { ... }` node: a path prefix with child routers
// and routes, plus inheritable header/body/authenticate state.
type Router struct {
	Path         Path
	Routers      []*Router
	Routes       []*Route
	Header       *OrderedMap
	Body         *OrderedMap
	Authenticate *AuthenticateClause
	Position     source.Position
}

// Project is the root node: a Router plus project-only state (target name,
// middlewares, auth-block registry).
type Project struct {
	Router

	Target         string
	Middlewares    []*Middleware
	AuthBlocks     map[string]*AuthBlock
	AuthBlockOrder []string
	Position       source.Position
}

// LookupAuthBlock resolves an AuthenticateClause's BlockIdentity, or the
// project's sole default block when identity is empty.
func (p *Project) LookupAuthBlock(identity string) (*AuthBlock, bool) {
	if identity == "" {
		return p.DefaultAuthBlock()
	}
	b, ok := p.AuthBlocks[identity]
	return b, ok
}

// DefaultAuthBlock returns the auth block with DefaultAccess ==
// AccessAuthenticated, if any.
func (p *Project) DefaultAuthBlock() (*AuthBlock, bool) {
	for _, id := range p.AuthBlockOrder {
		if b := p.AuthBlocks[id]; b.DefaultAccess == AccessAuthenticated {
			return b, true
		}
	}
	return nil, false
}

// SoleAuthBlock returns the project's only auth block, if it has exactly one.
// Used to resolve a bare `authenticate;` clause (no identifier) per spec.md
// §4.2's "legal only if the project has exactly one auth block" rule.
func (p *Project) SoleAuthBlock() (*AuthBlock, bool) {
	if len(p.AuthBlockOrder) != 1 {
		return nil, false
	}
	return p.AuthBlocks[p.AuthBlockOrder[0]], true
}

// FindRouteByAlias recursively searches router for a route whose Path.Alias
// matches alias, returning the route and its fully-qualified parent path
// (ancestor path segments joined with "/", collapsed).
func FindRouteByAlias(r *Router, alias, prefix string) (*Route, string, bool) {
	base := joinPath(prefix, r.Path.Raw)
	for _, route := range r.Routes {
		if route.Path.Alias == alias {
			return route, base, true
		}
	}
	for _, child := range r.Routers {
		if route, parent, ok := FindRouteByAlias(child, alias, base); ok {
			return route, parent, true
		}
	}
	return nil, "", false
}

func joinPath(a, b string) string {
	joined := strings.TrimRight(a, "/") + "/" + strings.TrimLeft(b, "/")
	for strings.Contains(joined, "//") {
		joined = strings.ReplaceAll(joined, "//", "/")
	}
	if joined == "" {
		return "/"
	}
	return joined
}

// EffectivePath returns the fully-qualified path of r under prefix (see
// FindRouteByAlias's joinPath discipline).
func (r *Router) EffectivePath(prefix string) string {
	return joinPath(prefix, r.Path.Raw)
}
