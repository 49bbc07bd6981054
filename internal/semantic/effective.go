// Package semantic computes the derived views spec.md §4.4 describes: the
// effective header/body/authenticate a route sees after inheritance,
// alias-based route lookup, and the middleware-option deterministic hash.
package semantic

import "github.com/ymir-lang/ymir/internal/ast"

// Chain is the list of routers from the project root down to (but not
// including) the node whose effective view is being computed, outermost
// first.
type Chain []*ast.Router

// EffectiveHeader merges header maps along chain, then r's own header,
// descendant keys winning at each step.
func EffectiveHeader(chain Chain, own *ast.OrderedMap) *ast.OrderedMap {
	return mergeChain(chain, own, func(r *ast.Router) *ast.OrderedMap { return r.Header })
}

// EffectiveBody merges body maps the same way EffectiveHeader merges headers.
func EffectiveBody(chain Chain, own *ast.OrderedMap) *ast.OrderedMap {
	return mergeChain(chain, own, func(r *ast.Router) *ast.OrderedMap { return r.Body })
}

func mergeChain(chain Chain, own *ast.OrderedMap, pick func(*ast.Router) *ast.OrderedMap) *ast.OrderedMap {
	merged := ast.NewOrderedMap()
	for _, r := range chain {
		overlay(merged, pick(r))
	}
	overlay(merged, own)
	return merged
}

// overlay Sets every key of src into dst, in src's order, so existing keys
// keep their position in dst while their value is replaced — exactly
// spec.md §3's "descendant maps are shallow-merged over ancestor maps,
// descendant keys winning".
func overlay(dst, src *ast.OrderedMap) {
	for _, k := range src.Keys() {
		v, _ := src.Get(k)
		dst.Set(k, v)
	}
}

// EffectiveAuthenticate resolves spec.md §4.4's "explicit clause, else
// inherited clause, else the project's default (if any)".
func EffectiveAuthenticate(chain Chain, own *ast.AuthenticateClause, project *ast.Project) *ast.AuthenticateClause {
	if own != nil {
		return own
	}
	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i].Authenticate != nil {
			return chain[i].Authenticate
		}
	}
	if def, ok := project.DefaultAuthBlock(); ok {
		return &ast.AuthenticateClause{BlockIdentity: def.Identity()}
	}
	return nil
}
