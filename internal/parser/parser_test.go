package parser

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ymir-lang/ymir/internal/ast"
	"github.com/ymir-lang/ymir/internal/diag"
	"github.com/ymir-lang/ymir/internal/lexer"
)

type mapProvider map[string]string

func (m mapProvider) ReadFile(path string) (string, error) {
	src, ok := m[path]
	if !ok {
		return "", fmt.Errorf("no such file: %s", path)
	}
	return src, nil
}

func parseSrc(t *testing.T, src string) (*ast.Project, *diag.Sink) {
	t.Helper()
	sink := diag.NewSink()
	toks, comments := lexer.New("main.ymr", src).Tokenize()
	p := New("main.ymr", toks, comments, sink, nil)
	project := p.Parse(IgnoreErrors)
	return project, sink
}

func TestParser_EmptyRouter(t *testing.T) {
	project, sink := parseSrc(t, `
target JavaScript_ExpressJS;
router /api {}
`)
	require.Zero(t, sink.ErrorCount())
	assert.Equal(t, "JavaScript_ExpressJS", project.Target)
	require.Len(t, project.Routers, 1)
	r := project.Routers[0]
	assert.Equal(t, "/api", r.Path.Raw)
	assert.Empty(t, r.Routes)
	assert.Empty(t, r.Routers)
}

func TestParser_SingleGetWithQuery(t *testing.T) {
	project, sink := parseSrc(t, `
target JavaScript_ExpressJS;
use json;
router /api { GET /hello?name=string as Hello; }
`)
	require.Zero(t, sink.ErrorCount())
	require.Len(t, project.Middlewares, 1)
	assert.Equal(t, "json", project.Middlewares[0].Name)

	require.Len(t, project.Routers, 1)
	require.Len(t, project.Routers[0].Routes, 1)
	route := project.Routers[0].Routes[0]
	assert.Equal(t, ast.GET, route.Method)
	assert.Equal(t, "/hello", route.Path.Raw)
	assert.Equal(t, "Hello", route.Path.Alias)
	require.Len(t, route.Path.QueryParams, 1)
	assert.Equal(t, "name", route.Path.QueryParams[0].Name)
	assert.Equal(t, ast.TypeString, route.Path.QueryParams[0].Type)
}

func TestParser_BearerFullWithLogout(t *testing.T) {
	project, sink := parseSrc(t, `
target JavaScript_ExpressJS;
auth Bearer as apiKey (source: header, field: "Authorization", defaultAccess: authenticated, mode: "FULL", withLogout: true);
router /api { GET /me as Me; }
`)
	require.Zero(t, sink.ErrorCount())
	require.Contains(t, project.AuthBlocks, "apiKey")
	block := project.AuthBlocks["apiKey"]
	assert.Equal(t, ast.Bearer, block.Type)
	assert.Equal(t, ast.SourceHeader, block.Source)
	assert.Equal(t, "Authorization", block.Field)
	assert.Equal(t, ast.AccessAuthenticated, block.DefaultAccess)

	modeVal, ok := block.Options.Get("mode")
	require.True(t, ok)
	assert.Equal(t, "FULL", modeVal.Str)

	withLogoutVal, ok := block.Options.Get("withLogout")
	require.True(t, ok)
	assert.True(t, withLogoutVal.Bool)
}

func TestParser_Include(t *testing.T) {
	sink := diag.NewSink()
	provider := mapProvider{
		"main.ymr": `target T; router /api { include "sub.ymr"; }`,
		"sub.ymr":  `GET /x as X;`,
	}
	project, err := ParseFile(provider, "main.ymr", IgnoreErrors, sink)
	require.NoError(t, err)
	require.Zero(t, sink.ErrorCount())
	require.Len(t, project.Routers, 1)
	apiRouter := project.Routers[0]
	require.Len(t, apiRouter.Routes, 1)
	assert.Equal(t, "X", apiRouter.Routes[0].Path.Alias)
	assert.Equal(t, "/x", apiRouter.Routes[0].Path.Raw)
}

func TestParser_IncludeCycle(t *testing.T) {
	sink := diag.NewSink()
	provider := mapProvider{
		"a.ymr": `target T; include "b.ymr";`,
		"b.ymr": `include "a.ymr";`,
	}
	_, err := ParseFile(provider, "a.ymr", IgnoreErrors, sink)
	require.NoError(t, err)
	require.True(t, sink.HasErrors())
	found := false
	for _, d := range sink.Diagnostics() {
		if d.Kind == diag.KindInclude {
			found = true
		}
	}
	assert.True(t, found, "expected an IncludeError diagnostic for the include cycle")
}

func TestParser_DuplicateDefaultAccess(t *testing.T) {
	sink := diag.NewSink()
	toks, comments := lexer.New("main.ymr", `
target T;
auth Bearer as a (source: header, field: "Authorization", defaultAccess: authenticated);
auth Bearer as b (source: header, field: "Authorization", defaultAccess: authenticated);
`).Tokenize()
	p := New("main.ymr", toks, comments, sink, nil)
	project := p.Parse(CancelOnFirstError)

	assert.Nil(t, project)
	require.Equal(t, 1, sink.ErrorCount())
	assert.Equal(t, "Only one default authentication block can be defined", sink.Diagnostics()[0].Message)
}

func TestParser_AuthorizeWithRolesSetsAuthorizationInUse(t *testing.T) {
	project, sink := parseSrc(t, `
target T;
auth Bearer as apiKey (source: header, field: "Authorization");
router /api { GET /admin authenticate apiKey with ["admin"]; }
`)
	require.Zero(t, sink.ErrorCount())
	assert.True(t, project.AuthBlocks["apiKey"].AuthorizationInUse)
}

func TestParser_AuthenticateWithoutIdentifier_RequiresExactlyOneBlock(t *testing.T) {
	sink := diag.NewSink()
	toks, comments := lexer.New("main.ymr", `
target T;
auth Bearer as a (source: header, field: "Authorization");
auth Bearer as b (source: header, field: "Authorization");
router /api { GET /x authenticate; }
`).Tokenize()
	p := New("main.ymr", toks, comments, sink, nil)
	p.Parse(IgnoreErrors)
	require.True(t, sink.HasErrors())
}

func TestParser_DuplicateQueryParamName(t *testing.T) {
	_, sink := parseSrc(t, `target T; router /api { GET /x?a=string&a=int as X; }`)
	require.True(t, sink.HasErrors())
}

func TestParser_UnknownQueryParamType(t *testing.T) {
	_, sink := parseSrc(t, `target T; router /api { GET /x?a=bogus as X; }`)
	require.True(t, sink.HasErrors())
}

func TestParser_RouteDescriptionFromPrecedingComment(t *testing.T) {
	project, sink := parseSrc(t, `
target T;
router /api {
  // fetches a widget by id
  GET /widgets/:id as GetWidget;
}
`)
	require.Zero(t, sink.ErrorCount())
	route := project.Routers[0].Routes[0]
	assert.Equal(t, "fetches a widget by id", route.Description)
}

func TestParser_UseOutsideProjectScopeIsRejected(t *testing.T) {
	_, sink := parseSrc(t, `
target T;
router /api { use json; GET /x as X; }
`)
	require.True(t, sink.HasErrors())
}

func TestParser_EffectivePathConcatenation(t *testing.T) {
	project, sink := parseSrc(t, `
target T;
router /api {
  router /v1 {
    GET /widgets as Widgets;
  }
}
`)
	require.Zero(t, sink.ErrorCount())
	apiRouter := project.Routers[0]
	v1 := apiRouter.Routers[0]
	assert.Equal(t, "/api/v1", v1.EffectivePath(apiRouter.Path.Raw))
}
