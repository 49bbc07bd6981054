package goserver

import (
	"strings"
	"testing"

	"github.com/ymir-lang/ymir/internal/ast"
	"github.com/ymir-lang/ymir/internal/config"
	"github.com/ymir-lang/ymir/internal/emit"
)

func optMap(pairs ...string) *ast.OrderedMap {
	m := ast.NewOrderedMap()
	for i := 0; i < len(pairs); i += 2 {
		m.Set(pairs[i], ast.StringValue(pairs[i+1]))
	}
	return m
}

func widgetsProject() *ast.Project {
	route := &ast.Route{
		Method: ast.POST,
		Path:   ast.Path{Raw: "/", Alias: "Create"},
		Body:   optMap("name", "string", "count", "int"),
	}
	router := &ast.Router{Path: ast.Path{Raw: "/widgets"}, Routes: []*ast.Route{route}}
	return &ast.Project{Router: ast.Router{Path: ast.Path{Raw: "/"}, Routers: []*ast.Router{router}}}
}

func contentFor(t *testing.T, files []emit.GeneratedFile, path string) string {
	t.Helper()
	for _, f := range files {
		if f.Path == path {
			return string(f.Content)
		}
	}
	t.Fatalf("missing file %q", path)
	return ""
}

func TestEmit_GeneratesTypesHandlersTransport(t *testing.T) {
	e := &Emitter{}
	files, err := e.Emit(widgetsProject(), config.DefaultProjectConfig())
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}

	types := contentFor(t, files, "types.go")
	if !strings.Contains(types, "type WidgetsCreateRequest struct {") {
		t.Errorf("missing request struct, got:\n%s", types)
	}
	if !strings.Contains(types, "Name string `json:\"name\"`") {
		t.Errorf("missing name field, got:\n%s", types)
	}

	handlers := contentFor(t, files, "handlers.go")
	if !strings.Contains(handlers, "WidgetsCreate(w http.ResponseWriter, r *http.Request, body WidgetsCreateRequest) error") {
		t.Errorf("missing handler method, got:\n%s", handlers)
	}

	transport := contentFor(t, files, "transport.go")
	if !strings.Contains(transport, "func wrapWidgetsCreate(h Handlers) http.HandlerFunc {") {
		t.Errorf("missing wrapper func, got:\n%s", transport)
	}
	if !strings.Contains(transport, `r.Method("POST", "/widgets", wrapWidgetsCreate(h))`) {
		t.Errorf("missing mount registration, got:\n%s", transport)
	}
}

func TestEmit_DockerComposeIncludesTargetName(t *testing.T) {
	p := widgetsProject()
	p.Target = "widget-service"
	e := &Emitter{}
	files, err := e.Emit(p, config.DefaultProjectConfig())
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	compose := contentFor(t, files, "docker-compose.yml")
	if !strings.Contains(compose, "widget-service") {
		t.Errorf("missing service name, got:\n%s", compose)
	}
}

func TestEmit_BearerBodySourceAborts(t *testing.T) {
	block := &ast.AuthBlock{Type: ast.Bearer, Source: ast.SourceBody, Field: "token", Alias: "Session", Options: ast.NewOrderedMap()}
	p := &ast.Project{
		AuthBlocks:     map[string]*ast.AuthBlock{"Session": block},
		AuthBlockOrder: []string{"Session"},
	}
	e := &Emitter{}
	_, err := e.Emit(p, config.DefaultProjectConfig())
	if err == nil || !strings.Contains(err.Error(), "body") {
		t.Fatalf("expected body-source abort error, got %v", err)
	}
}

func TestHandlerName_NestedRouters(t *testing.T) {
	v1 := &ast.Router{Path: ast.Path{Raw: "/v1"}}
	route := &ast.Route{Path: ast.Path{Raw: "/", Alias: "List"}}
	if got := handlerName([]*ast.Router{v1}, route); got != "V1List" {
		t.Errorf("handlerName = %q", got)
	}
}
