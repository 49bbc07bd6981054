// Package goserver implements spec.md SUPPLEMENTED FEATURES #1: a third,
// supplemental backend target structurally parallel to the Express and Java
// targets — request/response structs, a Handlers interface with one method
// per route, and a Mount function wiring a chi.Router to it.
package goserver

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ymir-lang/ymir/internal/ast"
	"github.com/ymir-lang/ymir/internal/config"
	"github.com/ymir-lang/ymir/internal/emit"
	"github.com/ymir-lang/ymir/internal/semantic"
)

// Emitter lowers a parsed project into a go-chi handler scaffold.
type Emitter struct{}

func (e *Emitter) Name() string      { return "go-chi" }
func (e *Emitter) Language() string  { return "go" }
func (e *Emitter) Framework() string { return "chi" }

func (e *Emitter) Emit(project *ast.Project, cfg *config.ProjectConfig) ([]emit.GeneratedFile, error) {
	for _, id := range project.AuthBlockOrder {
		block := project.AuthBlocks[id]
		if block.Type == ast.Bearer && block.Source == ast.SourceBody {
			return nil, &emit.AbortError{
				Target: e.Name(),
				Reason: fmt.Sprintf("bearer auth block %q cannot source its token from body", block.Identity()),
			}
		}
	}

	g := &generator{project: project, cfg: cfg, dedup: map[string]string{}}

	var types strings.Builder
	types.WriteString("// Code generated by ymir. DO NOT EDIT.\n\npackage server\n\n")

	var handlers strings.Builder
	handlers.WriteString("// Code generated by ymir. DO NOT EDIT.\n\npackage server\n\n")
	handlers.WriteString("// Handlers is implemented by application code; Mount wires each method\n")
	handlers.WriteString("// to its route.\ntype Handlers interface {\n")

	var transport strings.Builder
	transport.WriteString("// Code generated by ymir. DO NOT EDIT.\n\npackage server\n\n")
	transport.WriteString("import (\n\t\"encoding/json\"\n\t\"net/http\"\n\n\t\"github.com/go-chi/chi/v5\"\n)\n\n")

	semantic.WalkRoutes(project, func(chain semantic.Chain, route *ast.Route) {
		g.emitRoute(&types, &handlers, &transport, chain, route)
	})

	handlers.WriteString("}\n")

	g.emitMount(&transport, project)

	files := []emit.GeneratedFile{
		{Path: "types.go", Content: []byte(types.String())},
		{Path: "handlers.go", Content: []byte(handlers.String())},
		{Path: "transport.go", Content: []byte(transport.String())},
	}

	compose, err := dockerComposeFile(project)
	if err != nil {
		return nil, err
	}
	files = append(files, compose)

	return files, nil
}

type generator struct {
	project *ast.Project
	cfg     *config.ProjectConfig
	dedup   map[string]string
}

// handlerName mirrors the Express emitter's on<RouterChain><RouteName>
// naming discipline, swapping the "on" prefix for none (Go method names are
// already capitalized per the chain).
func handlerName(chain semantic.Chain, route *ast.Route) string {
	var b strings.Builder
	for _, r := range chain {
		if r.Path.Name() == "" {
			continue
		}
		b.WriteString(ast.Capitalize(ast.SanitizeIdent(r.Path.Name())))
	}
	b.WriteString(ast.Capitalize(ast.SanitizeIdent(route.Path.Name())))
	return b.String()
}

func (g *generator) emitRoute(types, handlers, transport *strings.Builder, chain semantic.Chain, route *ast.Route) {
	name := handlerName(chain, route)
	header := semantic.EffectiveHeader(chain, route.Header)
	body := semantic.EffectiveBody(chain, route.Body)
	auth := semantic.EffectiveAuthenticate(chain, route.Authenticate, g.project)

	var reqType, respType string
	if body.Len() > 0 {
		reqType = g.structFor(types, name+"Request", body)
	}
	if route.Responses != nil && route.Responses.Len() > 0 {
		respType = g.structFor(types, name+"Response", route.Responses)
		if route.IsResponsePlural {
			respType = "[]" + respType
		}
	}

	params := []string{"w http.ResponseWriter", "r *http.Request"}
	for _, v := range route.Path.Variables() {
		params = append(params, fmt.Sprintf("%s string", ast.SanitizeIdent(v)))
	}
	for _, qp := range route.Path.QueryParams {
		params = append(params, fmt.Sprintf("%s %s", ast.SanitizeIdent(qp.Name), goTypeForParam(qp.Type)))
	}
	for _, k := range header.Keys() {
		params = append(params, fmt.Sprintf("%s string", ast.SanitizeIdent(k)))
	}
	if reqType != "" {
		params = append(params, fmt.Sprintf("body %s", reqType))
	}

	returnType := "error"
	if respType != "" {
		returnType = fmt.Sprintf("(%s, error)", respType)
	}

	fmt.Fprintf(handlers, "\t%s(%s) %s\n", name, strings.Join(params, ", "), returnType)

	g.emitTransportFunc(transport, chain, route, name, header, reqType, respType, auth)
}

func (g *generator) structFor(types *strings.Builder, preferredName string, schema *ast.OrderedMap) string {
	hash := semantic.OptionHash(schema)
	if existing, ok := g.dedup[hash]; ok {
		return existing
	}
	g.dedup[hash] = preferredName
	fmt.Fprintf(types, "type %s struct {\n", preferredName)
	for _, k := range schema.Keys() {
		v, _ := schema.Get(k)
		fieldName := ast.Capitalize(ast.SanitizeIdent(k))
		goType := goTypeForKeyword(v)
		fmt.Fprintf(types, "\t%s %s `json:%q`\n", fieldName, goType, k)
	}
	types.WriteString("}\n\n")
	return preferredName
}

func (g *generator) emitTransportFunc(transport *strings.Builder, chain semantic.Chain, route *ast.Route, name string, header *ast.OrderedMap, reqType, respType string, auth *ast.AuthenticateClause) {
	fmt.Fprintf(transport, "func wrap%s(h Handlers) http.HandlerFunc {\n", name)
	transport.WriteString("\treturn func(w http.ResponseWriter, r *http.Request) {\n")

	if auth != nil {
		if block, ok := g.project.LookupAuthBlock(auth.BlockIdentity); ok {
			transport.WriteString(authGuardLines(block))
		}
	}

	for _, v := range route.Path.Variables() {
		id := ast.SanitizeIdent(v)
		fmt.Fprintf(transport, "\t\t%s := chi.URLParam(r, %q)\n", id, v)
	}
	for _, qp := range route.Path.QueryParams {
		id := ast.SanitizeIdent(qp.Name)
		fmt.Fprintf(transport, "\t\t%s := r.URL.Query().Get(%q)\n", id, qp.Name)
	}
	for _, k := range header.Keys() {
		id := ast.SanitizeIdent(k)
		fmt.Fprintf(transport, "\t\t%s := r.Header.Get(%q)\n", id, k)
	}
	if reqType != "" {
		transport.WriteString("\t\tvar body " + reqType + "\n")
		transport.WriteString("\t\tif err := json.NewDecoder(r.Body).Decode(&body); err != nil {\n")
		transport.WriteString("\t\t\thttp.Error(w, \"invalid request body\", http.StatusBadRequest)\n\t\t\treturn\n\t\t}\n")
	}

	args := []string{"w", "r"}
	for _, v := range route.Path.Variables() {
		args = append(args, ast.SanitizeIdent(v))
	}
	for _, qp := range route.Path.QueryParams {
		args = append(args, ast.SanitizeIdent(qp.Name))
	}
	for _, k := range header.Keys() {
		args = append(args, ast.SanitizeIdent(k))
	}
	if reqType != "" {
		args = append(args, "body")
	}

	if respType != "" {
		fmt.Fprintf(transport, "\t\tresp, err := h.%s(%s)\n", name, strings.Join(args, ", "))
		transport.WriteString("\t\tif err != nil {\n\t\t\thttp.Error(w, err.Error(), http.StatusInternalServerError)\n\t\t\treturn\n\t\t}\n")
		transport.WriteString("\t\tw.Header().Set(\"Content-Type\", \"application/json\")\n")
		transport.WriteString("\t\tjson.NewEncoder(w).Encode(resp)\n")
	} else {
		fmt.Fprintf(transport, "\t\tif err := h.%s(%s); err != nil {\n", name, strings.Join(args, ", "))
		transport.WriteString("\t\t\thttp.Error(w, err.Error(), http.StatusInternalServerError)\n\t\t\treturn\n\t\t}\n")
		transport.WriteString("\t\tw.WriteHeader(http.StatusNoContent)\n")
	}

	transport.WriteString("\t}\n}\n\n")
}

func authGuardLines(block *ast.AuthBlock) string {
	var extract string
	switch block.Source {
	case ast.SourceQuery:
		extract = fmt.Sprintf("r.URL.Query().Get(%q)", block.Field)
	case ast.SourceBody:
		extract = "\"\" // API-key-from-body credentials are read after decode in the handler"
	default:
		extract = fmt.Sprintf("r.Header.Get(%q)", block.Field)
	}
	return fmt.Sprintf("\t\tcred := %s\n\t\tif cred == \"\" {\n\t\t\thttp.Error(w, \"unauthorized\", http.StatusUnauthorized)\n\t\t\treturn\n\t\t}\n", extract)
}

// emitMount writes the Mount(r chi.Router, h Handlers) function that
// registers every route's wrapped handler at its fully-qualified path.
func (g *generator) emitMount(transport *strings.Builder, project *ast.Project) {
	transport.WriteString("// Mount registers every route h implements onto r.\n")
	transport.WriteString("func Mount(r chi.Router, h Handlers) {\n")
	var walk func(router *ast.Router, prefix string, ancestors []*ast.Router)
	walk = func(router *ast.Router, prefix string, ancestors []*ast.Router) {
		full := joinPath(prefix, router.Path.Raw)
		chain := append(append([]*ast.Router{}, ancestors...), router)
		for _, route := range router.Routes {
			name := handlerName(semantic.Chain(chain), route)
			routePath := joinPath(full, route.Path.Raw)
			fmt.Fprintf(transport, "\tr.Method(%q, %q, wrap%s(h))\n", route.Method.String(), routePath, name)
		}
		for _, child := range router.Routers {
			walk(child, full, chain)
		}
	}
	walk(&project.Router, "", nil)
	transport.WriteString("}\n")
}

func joinPath(a, b string) string {
	a = strings.TrimRight(a, "/")
	b = strings.TrimLeft(b, "/")
	switch {
	case a == "" && b == "":
		return "/"
	case a == "":
		return "/" + b
	case b == "":
		return a
	default:
		return a + "/" + b
	}
}

func goTypeForParam(t ast.ParamType) string {
	switch t {
	case ast.TypeInt:
		return "int64"
	case ast.TypeFloat:
		return "float64"
	case ast.TypeBool:
		return "bool"
	default:
		return "string"
	}
}

func goTypeForKeyword(v ast.OptionValue) string {
	s, ok := v.AsString()
	if !ok {
		return "any"
	}
	switch s {
	case "int":
		return "int64"
	case "float":
		return "float64"
	case "bool", "boolean":
		return "bool"
	case "date", "datetime", "time":
		return "string"
	default:
		return "string"
	}
}

type composeService struct {
	Build string         `yaml:"build"`
	Ports []string       `yaml:"ports"`
	Env   map[string]string `yaml:"environment,omitempty"`
}

type composeFile struct {
	Version  string                     `yaml:"version"`
	Services map[string]composeService `yaml:"services"`
}

// dockerComposeFile renders a dev-stub docker-compose.yml for the generated
// go-chi server, via gopkg.in/yaml.v3 (the same library the Java target uses
// for application.yml).
func dockerComposeFile(project *ast.Project) (emit.GeneratedFile, error) {
	name := project.Target
	if name == "" {
		name = "ymir-app"
	}
	cf := composeFile{
		Version: "3.9",
		Services: map[string]composeService{
			name: {Build: ".", Ports: []string{"8080:8080"}},
		},
	}
	data, err := yaml.Marshal(cf)
	if err != nil {
		return emit.GeneratedFile{}, err
	}
	return emit.GeneratedFile{Path: "docker-compose.yml", Content: data}, nil
}
