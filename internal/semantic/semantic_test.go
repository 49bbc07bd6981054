package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ymir-lang/ymir/internal/ast"
)

func optMap(pairs ...interface{}) *ast.OrderedMap {
	m := ast.NewOrderedMap()
	for i := 0; i < len(pairs); i += 2 {
		m.Set(pairs[i].(string), pairs[i+1].(ast.OptionValue))
	}
	return m
}

func TestEffectiveHeader_DescendantWins(t *testing.T) {
	root := &ast.Router{Header: optMap("auth", ast.StringValue("root"), "shared", ast.StringValue("root"))}
	child := &ast.Router{Header: optMap("shared", ast.StringValue("child"))}

	eff := EffectiveHeader(Chain{root, child}, nil)
	authVal, ok := eff.Get("auth")
	require.True(t, ok)
	assert.Equal(t, "root", authVal.Str)

	sharedVal, ok := eff.Get("shared")
	require.True(t, ok)
	assert.Equal(t, "child", sharedVal.Str)
}

func TestEffectiveHeader_OwnOverridesChain(t *testing.T) {
	root := &ast.Router{Header: optMap("x", ast.StringValue("root"))}
	own := optMap("x", ast.StringValue("route"))

	eff := EffectiveHeader(Chain{root}, own)
	v, _ := eff.Get("x")
	assert.Equal(t, "route", v.Str)
}

func TestEffectiveAuthenticate_FallsBackToProjectDefault(t *testing.T) {
	project := &ast.Project{
		AuthBlocks:     map[string]*ast.AuthBlock{"a": {Alias: "a", DefaultAccess: ast.AccessAuthenticated}},
		AuthBlockOrder: []string{"a"},
	}
	clause := EffectiveAuthenticate(Chain{&project.Router}, nil, project)
	require.NotNil(t, clause)
	assert.Equal(t, "a", clause.BlockIdentity)
}

func TestEffectiveAuthenticate_ExplicitWins(t *testing.T) {
	project := &ast.Project{AuthBlocks: map[string]*ast.AuthBlock{}}
	explicit := &ast.AuthenticateClause{BlockIdentity: "explicit"}
	clause := EffectiveAuthenticate(Chain{&project.Router}, explicit, project)
	assert.Same(t, explicit, clause)
}

func TestEffectiveAuthenticate_InheritedFromNearestAncestor(t *testing.T) {
	project := &ast.Project{AuthBlocks: map[string]*ast.AuthBlock{}}
	far := &ast.Router{Authenticate: &ast.AuthenticateClause{BlockIdentity: "far"}}
	near := &ast.Router{Authenticate: &ast.AuthenticateClause{BlockIdentity: "near"}}

	clause := EffectiveAuthenticate(Chain{far, near}, nil, project)
	require.NotNil(t, clause)
	assert.Equal(t, "near", clause.BlockIdentity)
}

func TestOptionHash_StableUnderKeyReordering(t *testing.T) {
	a := optMap("a", ast.NumberValue(1), "b", ast.NumberValue(2))
	b := optMap("b", ast.NumberValue(2), "a", ast.NumberValue(1))
	assert.Equal(t, OptionHash(a), OptionHash(b))
}

func TestOptionHash_DiffersOnValueChange(t *testing.T) {
	a := optMap("a", ast.NumberValue(1))
	b := optMap("a", ast.NumberValue(2))
	assert.NotEqual(t, OptionHash(a), OptionHash(b))
}

func TestOptionHash_NestedMapsAndSequences(t *testing.T) {
	inner := optMap("nested", ast.BoolValue(true))
	m := optMap("map", ast.MapValue(inner), "seq", ast.SequenceValue([]ast.OptionValue{ast.StringValue("x"), ast.NumberValue(1)}))
	assert.NotPanics(t, func() { OptionHash(m) })
}

func TestWalkRoutes_VisitsWithFullAncestorChain(t *testing.T) {
	leaf := &ast.Route{Path: ast.Path{Raw: "/x"}}
	child := &ast.Router{Path: ast.Path{Raw: "/sub"}, Routes: []*ast.Route{leaf}}
	project := &ast.Project{}
	project.Path = ast.Path{Raw: "/api"}
	project.Routers = []*ast.Router{child}

	var gotChainLen int
	WalkRoutes(project, func(chain Chain, route *ast.Route) {
		if route == leaf {
			gotChainLen = len(chain)
		}
	})
	assert.Equal(t, 2, gotChainLen) // project root + /sub
}

func TestFindAlias(t *testing.T) {
	leaf := &ast.Route{Path: ast.Path{Raw: "/x", Alias: "X"}}
	child := &ast.Router{Path: ast.Path{Raw: "/sub"}, Routes: []*ast.Route{leaf}}
	project := &ast.Project{}
	project.Path = ast.Path{Raw: "/api"}
	project.Routers = []*ast.Router{child}

	route, parent, ok := FindAlias(project, "X")
	require.True(t, ok)
	assert.Same(t, leaf, route)
	assert.Equal(t, "/api/sub", parent)
}
