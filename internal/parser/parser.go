// Package parser implements the recursive-descent parser that builds an
// ast.Project from a token stream, resolving include directives and
// enforcing the semantic rules spec.md §4.2 ties to parse time.
package parser

import (
	"fmt"
	"strings"

	"github.com/ymir-lang/ymir/internal/ast"
	"github.com/ymir-lang/ymir/internal/diag"
	"github.com/ymir-lang/ymir/internal/lexer"
	"github.com/ymir-lang/ymir/internal/source"
	"github.com/ymir-lang/ymir/internal/token"
)

// Parser owns a cursor over a token stream for one file, plus the state
// shared across a whole compile: the diagnostic sink, the file provider
// used to resolve includes, and the include file stack for cycle detection.
type Parser struct {
	tokens   []token.Token
	pos      int
	file     string
	diag     *diag.Sink
	comments map[int]string

	provider  FileProvider
	fileStack []string
	policy    Policy
}

// ParseFile reads entryFile via provider, lexes it, and parses a Project.
// Under CancelOnFirstError, if the sink recorded any error, ParseFile
// returns (nil, nil) — diagnostics, not a Go error, carry the failure.
func ParseFile(provider FileProvider, entryFile string, policy Policy, sink *diag.Sink) (*ast.Project, error) {
	src, err := provider.ReadFile(entryFile)
	if err != nil {
		return nil, fmt.Errorf("reading entry file %s: %w", entryFile, err)
	}
	toks, comments := lexer.New(entryFile, src).Tokenize()
	p := &Parser{
		tokens:    toks,
		file:      entryFile,
		diag:      sink,
		comments:  comments,
		provider:  provider,
		fileStack: []string{entryFile},
		policy:    policy,
	}
	project := p.parseProject()
	if policy == CancelOnFirstError && sink.HasErrors() {
		return nil, nil
	}
	return project, nil
}

// New constructs a Parser directly over an already-lexed token stream, for
// callers (tests, single-file compiles) that don't need include resolution.
func New(file string, tokens []token.Token, comments map[int]string, sink *diag.Sink, provider FileProvider) *Parser {
	return &Parser{
		tokens:    tokens,
		file:      file,
		diag:      sink,
		comments:  comments,
		provider:  provider,
		fileStack: []string{file},
	}
}

// Parse runs parseProject, honoring policy as ParseFile does.
func (p *Parser) Parse(policy Policy) *ast.Project {
	p.policy = policy
	project := p.parseProject()
	if policy == CancelOnFirstError && p.diag.HasErrors() {
		return nil
	}
	return project
}

// ---- token cursor ----

func (p *Parser) peek() token.Token { return p.tokens[p.pos] }

func (p *Parser) at(k token.Kind) bool { return p.peek().Kind == k }

func (p *Parser) advance() token.Token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) atEOF() bool { return p.at(token.EOF) }

func (p *Parser) atRBraceOrEOF() bool { return p.at(token.RBrace) || p.at(token.EOF) }

// match consumes the current token if it has kind k. Otherwise it emits a
// ParseError diagnostic (unless optional) and returns a synthetic token of
// kind k at the current position without consuming anything, so the
// mismatched token remains available to whichever recovery point regains
// control.
func (p *Parser) match(k token.Kind, optional bool, hint string) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	if optional {
		return token.Token{}, false
	}
	cur := p.peek()
	msg := fmt.Sprintf("expected %s but found %s", k, cur.Kind)
	if hint != "" {
		p.diag.Error(diag.KindParse, cur.Position, msg, hint)
	} else {
		p.diag.Error(diag.KindParse, cur.Position, msg)
	}
	return token.Token{Kind: k, Position: cur.Position}, false
}

// optionalSemicolon consumes a trailing ';' if present. Missing semicolons
// at statement ends are recovered silently, without a diagnostic.
func (p *Parser) optionalSemicolon() {
	if p.at(token.Semicolon) {
		p.advance()
	}
}

func (p *Parser) lastPosition() source.Position {
	if p.pos == 0 {
		return p.tokens[0].Position
	}
	return p.tokens[p.pos-1].Position
}

// ---- project / block items ----

func (p *Parser) parseProject() *ast.Project {
	project := &ast.Project{AuthBlocks: map[string]*ast.AuthBlock{}}

	targetTok, _ := p.match(token.KwTarget, false, "a Ymir script must begin with 'target <name>;'")
	identTok, _ := p.match(token.Ident, false, "expected a target name identifier")
	project.Target = identTok.Text
	p.optionalSemicolon()

	p.parseBlockItems(p.atEOF, &project.Router, project, true)

	project.Position = targetTok.Position.Span(p.lastPosition())
	return project
}

// parseBlockItems parses project_item / router-child productions until
// `until` reports true, dispatching on the next token's kind. atProjectScope
// gates whether 'use'/'auth' are legal here.
func (p *Parser) parseBlockItems(until func() bool, router *ast.Router, project *ast.Project, atProjectScope bool) {
	for !until() {
		before := p.pos

		switch {
		case p.at(token.KwUse):
			m := p.parseMiddleware()
			if atProjectScope {
				project.Middlewares = append(project.Middlewares, m)
			} else {
				p.diag.Error(diag.KindSemantic, m.Position, "'use' is only legal inside the project node")
			}

		case p.at(token.KwAuth):
			p.parseAuthBlock(project, atProjectScope)

		case p.at(token.KwInclude):
			p.parseInclude(router, project, atProjectScope)

		case p.at(token.KwRouter):
			child := p.parseRouter(project)
			router.Routers = append(router.Routers, child)

		case isMethodKind(p.peek().Kind):
			route := p.parseRoute(project)
			router.Routes = append(router.Routes, route)

		default:
			tok := p.peek()
			if tok.Kind == token.EOF {
				return
			}
			p.diag.Error(diag.KindParse, tok.Position, "unexpected "+tok.Kind.String()+" in this position")
			p.advance()
		}

		if p.pos == before {
			p.advance() // guarantee forward progress
		}
	}
}

func isMethodKind(k token.Kind) bool {
	switch k {
	case token.KwGet, token.KwPost, token.KwPut, token.KwDelete, token.KwPatch, token.KwHead, token.KwOptions:
		return true
	default:
		return false
	}
}

func methodFromKind(k token.Kind) ast.Method {
	switch k {
	case token.KwGet:
		return ast.GET
	case token.KwPost:
		return ast.POST
	case token.KwPut:
		return ast.PUT
	case token.KwDelete:
		return ast.DELETE
	case token.KwPatch:
		return ast.PATCH
	case token.KwHead:
		return ast.HEAD
	default:
		return ast.OPTIONS
	}
}

// ---- middleware ----

func (p *Parser) parseMiddleware() *ast.Middleware {
	kw := p.advance() // 'use'
	nameTok, _ := p.match(token.Ident, false, "expected a middleware name after 'use'")
	m := &ast.Middleware{Name: nameTok.Text, Options: ast.NewOrderedMap(), Position: kw.Position.Span(nameTok.Position)}
	if p.at(token.LParen) {
		p.advance()
		m.Options = p.parseOptionArgs()
		p.match(token.RParen, false, "expected ')'")
	}
	p.optionalSemicolon()
	return m
}

// ---- auth block ----

func (p *Parser) parseAuthBlock(project *ast.Project, atProjectScope bool) {
	kw := p.advance() // 'auth'
	typeTok, _ := p.match(token.Ident, false, "expected an auth type (e.g. Bearer, API-Key)")
	block := &ast.AuthBlock{
		Type:     parseAuthType(typeTok.Text),
		Options:  ast.NewOrderedMap(),
		Position: kw.Position.Span(typeTok.Position),
	}

	// options and the "as alias" clause may appear in either order.
	for i := 0; i < 2; i++ {
		switch {
		case p.at(token.LParen):
			p.advance()
			block.Options = p.parseOptionArgs()
			p.match(token.RParen, false, "expected ')'")
		case p.at(token.KwAs):
			p.advance()
			aliasTok, _ := p.match(token.Ident, false, "expected an alias identifier after 'as'")
			block.Alias = aliasTok.Text
		default:
			i = 2 // stop the loop
		}
	}
	p.optionalSemicolon()

	if !atProjectScope {
		p.diag.Error(diag.KindSemantic, block.Position, "'auth' is only legal inside the project node")
		return
	}

	applyAuthBlockOptions(block, p.diag)

	identity := block.Identity()
	if _, exists := project.AuthBlocks[identity]; exists {
		p.diag.Error(diag.KindSemantic, block.Position, "duplicate auth-block identity: "+identity)
		return
	}
	if block.DefaultAccess == ast.AccessAuthenticated {
		if _, ok := project.DefaultAuthBlock(); ok {
			p.diag.Error(diag.KindSemantic, block.Position, "Only one default authentication block can be defined")
			return
		}
	}

	project.AuthBlocks[identity] = block
	project.AuthBlockOrder = append(project.AuthBlockOrder, identity)
}

func parseAuthType(text string) ast.AuthType {
	normalized := strings.ToLower(strings.ReplaceAll(text, "-", ""))
	if normalized == "apikey" {
		return ast.APIKey
	}
	return ast.Bearer
}

func applyAuthBlockOptions(block *ast.AuthBlock, sink *diag.Sink) {
	sourceVal, hasSource := block.Options.Get("source")
	if !hasSource {
		sink.Error(diag.KindSemantic, block.Position, "auth block requires a 'source' option")
	} else if s, ok := sourceVal.AsString(); ok {
		switch s {
		case "header":
			block.Source = ast.SourceHeader
		case "body":
			block.Source = ast.SourceBody
		case "query":
			block.Source = ast.SourceQuery
		default:
			sink.Error(diag.KindSemantic, block.Position, "invalid 'source' value: "+s)
		}
	}

	fieldVal, hasField := block.Options.Get("field")
	if !hasField {
		sink.Error(diag.KindSemantic, block.Position, "auth block requires a 'field' option")
	} else if f, ok := fieldVal.AsString(); ok {
		block.Field = f
	}

	if daVal, ok := block.Options.Get("defaultAccess"); ok {
		if da, ok := daVal.AsString(); ok {
			switch da {
			case "public":
				block.DefaultAccess = ast.AccessPublic
			case "authenticated":
				block.DefaultAccess = ast.AccessAuthenticated
			default:
				sink.Error(diag.KindSemantic, block.Position, "invalid defaultAccess value: "+da)
			}
		}
	}
}

// ---- router ----

func (p *Parser) parseRouter(project *ast.Project) *ast.Router {
	kw := p.advance() // 'router'
	path := p.parsePath()
	router := &ast.Router{Path: path, Position: kw.Position.Span(path.Position)}

	for {
		switch {
		case p.at(token.KwHeader):
			router.Header = p.parseHeaderOrBody(token.KwHeader)
		case p.at(token.KwBody):
			router.Body = p.parseHeaderOrBody(token.KwBody)
		case p.at(token.KwAuthenticate):
			router.Authenticate = p.parseAuthenticateClause(project)
		default:
			goto bodyStart
		}
	}
bodyStart:
	p.match(token.LBrace, false, "expected '{' to start router body")
	p.parseBlockItems(p.atRBraceOrEOF, router, project, false)
	p.match(token.RBrace, false, "expected '}' to close router body")
	return router
}

// ---- route ----

func (p *Parser) parseRoute(project *ast.Project) *ast.Route {
	methodTok := p.advance()
	path := p.parsePath()
	route := &ast.Route{Method: methodFromKind(methodTok.Kind), Path: path, Position: methodTok.Position.Span(path.Position)}

loop:
	for {
		switch {
		case p.at(token.KwHeader):
			route.Header = p.parseHeaderOrBody(token.KwHeader)
		case p.at(token.KwBody):
			route.Body = p.parseHeaderOrBody(token.KwBody)
		case p.at(token.KwAuthenticate):
			route.Authenticate = p.parseAuthenticateClause(project)
		case p.at(token.KwResponse):
			route.Responses = p.parseResponses(token.KwResponse)
			route.IsResponsePlural = false
		case p.at(token.KwResponses):
			route.Responses = p.parseResponses(token.KwResponses)
			route.IsResponsePlural = true
		case p.at(token.KwRender):
			route.Render = p.parseRenderBlock()
		default:
			break loop
		}
	}

	if c, ok := p.comments[route.Position.LineStart-1]; ok {
		route.Description = strings.TrimSpace(strings.TrimPrefix(c, "//"))
	}

	p.optionalSemicolon()
	return route
}

func (p *Parser) parseHeaderOrBody(kw token.Kind) *ast.OrderedMap {
	p.advance() // 'header' | 'body'
	p.match(token.LParen, false, "expected '(' after "+kw.String())
	m := p.parseOptionArgs()
	p.match(token.RParen, false, "expected ')'")
	return m
}

func (p *Parser) parseResponses(kw token.Kind) *ast.OrderedMap {
	p.advance() // 'response' | 'responses'
	p.match(token.LParen, false, "expected '(' after "+kw.String())
	m := p.parseOptionArgs()
	p.match(token.RParen, false, "expected ')'")
	return m
}

func (p *Parser) parseRenderBlock() *ast.RenderBlock {
	p.advance() // 'render'
	typeTok := p.peek()
	var rt ast.RenderType
	switch typeTok.Kind {
	case token.KwTable:
		rt = ast.RenderTable
	case token.KwDetail:
		rt = ast.RenderDetail
	case token.KwForm:
		rt = ast.RenderForm
	case token.KwList:
		rt = ast.RenderList
	default:
		p.diag.Error(diag.KindParse, typeTok.Position, "expected render type (list, table, detail, form)")
	}
	if typeTok.Kind == token.KwTable || typeTok.Kind == token.KwDetail || typeTok.Kind == token.KwForm || typeTok.Kind == token.KwList {
		p.advance()
	}
	rb := &ast.RenderBlock{Type: rt, Options: ast.NewOrderedMap(), Position: typeTok.Position}
	if p.at(token.LParen) {
		p.advance()
		rb.Options = p.parseOptionArgs()
		p.match(token.RParen, false, "expected ')'")
	}
	return rb
}

// ---- authenticate clause ----

func (p *Parser) parseAuthenticateClause(project *ast.Project) *ast.AuthenticateClause {
	kw := p.advance() // 'authenticate'
	clause := &ast.AuthenticateClause{Position: kw.Position}

	if p.at(token.Ident) {
		idTok := p.advance()
		clause.BlockIdentity = idTok.Text
	}

	if p.at(token.KwWith) {
		p.advance()
		if p.at(token.LBracket) {
			p.advance()
			for !p.at(token.RBracket) && !p.atEOF() {
				strTok, _ := p.match(token.String, false, "expected a quoted role name")
				clause.Roles = append(clause.Roles, strTok.StringValue)
				if p.at(token.Comma) {
					p.advance()
					continue
				}
				break
			}
			p.match(token.RBracket, false, "expected ']'")
		} else {
			strTok, _ := p.match(token.String, false, "expected a quoted role name")
			clause.Roles = append(clause.Roles, strTok.StringValue)
		}
	}

	if clause.BlockIdentity == "" {
		if sole, ok := project.SoleAuthBlock(); ok {
			clause.BlockIdentity = sole.Identity()
		} else {
			p.diag.Error(diag.KindSemantic, clause.Position,
				"'authenticate' without an identifier requires exactly one auth block to be defined")
		}
	} else if _, ok := project.AuthBlocks[clause.BlockIdentity]; !ok {
		p.diag.Error(diag.KindSemantic, clause.Position, "unknown auth-block reference: "+clause.BlockIdentity)
	}

	if len(clause.Roles) > 0 {
		if block, ok := project.AuthBlocks[clause.BlockIdentity]; ok {
			block.AuthorizationInUse = true
		}
	}

	return clause
}

// ---- path ----

func (p *Parser) parsePath() ast.Path {
	tok, _ := p.match(token.Path, false, "expected a path literal beginning with '/'")
	raw, query := splitPathText(tok.Text)
	path := ast.Path{Raw: raw, Position: tok.Position}

	if query != "" {
		path.QueryParams = p.parseQueryParams(query, tok.Position)
	}

	if p.at(token.KwAs) {
		p.advance()
		aliasTok, _ := p.match(token.Ident, false, "expected an alias identifier after 'as'")
		path.Alias = aliasTok.Text
	}
	return path
}

func splitPathText(text string) (raw, query string) {
	if i := strings.IndexByte(text, '?'); i >= 0 {
		return text[:i], text[i+1:]
	}
	return text, ""
}

func (p *Parser) parseQueryParams(query string, pos source.Position) []ast.QueryParameter {
	seen := map[string]bool{}
	var params []ast.QueryParameter
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		name, typeStr, ok := strings.Cut(pair, "=")
		if !ok {
			p.diag.Error(diag.KindParse, pos, "malformed query parameter: "+pair)
			continue
		}
		if seen[name] {
			p.diag.Error(diag.KindSemantic, pos, "duplicate query parameter name: "+name)
			continue
		}
		seen[name] = true

		pt, ok := parseParamType(typeStr)
		if !ok {
			p.diag.Error(diag.KindSemantic, pos, "unknown query-parameter type: "+typeStr)
			pt = ast.TypeAny
		}
		params = append(params, ast.QueryParameter{Name: name, Type: pt, Position: pos})
	}
	return params
}

func parseParamType(s string) (ast.ParamType, bool) {
	switch s {
	case "any":
		return ast.TypeAny, true
	case "string":
		return ast.TypeString, true
	case "int":
		return ast.TypeInt, true
	case "float":
		return ast.TypeFloat, true
	case "boolean", "bool":
		return ast.TypeBool, true
	case "date":
		return ast.TypeDate, true
	case "datetime":
		return ast.TypeDatetime, true
	case "time":
		return ast.TypeTime, true
	default:
		return ast.TypeAny, false
	}
}

// ---- options ----

func (p *Parser) parseOptionArgs() *ast.OrderedMap {
	m := ast.NewOrderedMap()
	if p.at(token.RParen) {
		return m
	}
	for {
		keyTok, _ := p.match(token.Ident, false, "expected an option name")
		p.match(token.Colon, false, "expected ':' after option name")
		val := p.parseOptionValue()
		m.Set(keyTok.Text, val)
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	return m
}

func (p *Parser) parseOptionValue() ast.OptionValue {
	tok := p.peek()
	switch tok.Kind {
	case token.String:
		p.advance()
		return ast.OptionValue{Kind: ast.KindString, Str: tok.StringValue, Position: tok.Position}
	case token.Number:
		p.advance()
		return ast.OptionValue{Kind: ast.KindNumber, Num: tok.NumberValue, Position: tok.Position}
	case token.Bool:
		p.advance()
		return ast.OptionValue{Kind: ast.KindBool, Bool: tok.BooleanValue, Position: tok.Position}
	case token.KwAny, token.KwString, token.KwFloat, token.KwInt, token.KwBoolean, token.KwDatetime, token.KwDate, token.KwTime,
		token.KwPublic, token.KwAuthenticated:
		p.advance()
		return ast.OptionValue{Kind: ast.KindString, Str: tok.Text, Position: tok.Position}
	case token.At:
		return p.parseGlobalVariable()
	case token.LBrace:
		p.advance()
		m := p.parseOptionArgs()
		p.match(token.RBrace, false, "expected '}'")
		return ast.OptionValue{Kind: ast.KindMap, Map: m, Position: tok.Position}
	case token.LBracket:
		p.advance()
		seq := p.parseOptionSequence()
		p.match(token.RBracket, false, "expected ']'")
		return ast.OptionValue{Kind: ast.KindSequence, Seq: seq, Position: tok.Position}
	default:
		p.diag.Error(diag.KindParse, tok.Position, "expected an option value")
		p.advance()
		return ast.OptionValue{Kind: ast.KindString, Position: tok.Position}
	}
}

func (p *Parser) parseGlobalVariable() ast.OptionValue {
	at := p.advance() // '@'
	nameTok, _ := p.match(token.Ident, false, "expected an identifier after '@'")
	g := ast.GlobalVariable{Name: nameTok.Text}
	for p.at(token.Dot) {
		p.advance()
		partTok, _ := p.match(token.Ident, false, "expected an identifier after '.'")
		g.Path = append(g.Path, partTok.Text)
	}
	return ast.OptionValue{Kind: ast.KindGlobalVariable, Global: g, Position: at.Position}
}

func (p *Parser) parseOptionSequence() []ast.OptionValue {
	var seq []ast.OptionValue
	if p.at(token.RBracket) {
		return seq
	}
	for {
		seq = append(seq, p.parseOptionValue())
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	return seq
}
