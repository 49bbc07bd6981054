package semantic

import "github.com/ymir-lang/ymir/internal/ast"

// WalkRoutes visits every route in project's router tree, invoking fn with
// the ancestor chain (project root router through the route's direct
// parent, inclusive) needed by EffectiveHeader/EffectiveBody/
// EffectiveAuthenticate.
func WalkRoutes(project *ast.Project, fn func(chain Chain, route *ast.Route)) {
	var walk func(r *ast.Router, chain Chain)
	walk = func(r *ast.Router, chain Chain) {
		full := append(append(Chain{}, chain...), r)
		for _, route := range r.Routes {
			fn(full, route)
		}
		for _, child := range r.Routers {
			walk(child, full)
		}
	}
	walk(&project.Router, nil)
}

// FindAlias resolves a route by its Path.Alias, returning the route and its
// fully-qualified parent path (ancestor path segments concatenated with
// "/", collapsed).
func FindAlias(project *ast.Project, alias string) (*ast.Route, string, bool) {
	return ast.FindRouteByAlias(&project.Router, alias, "")
}
