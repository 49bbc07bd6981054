package java

import (
	"strings"
	"testing"

	"github.com/ymir-lang/ymir/internal/ast"
	"github.com/ymir-lang/ymir/internal/config"
	"github.com/ymir-lang/ymir/internal/emit"
)

func optMap(pairs ...interface{}) *ast.OrderedMap {
	m := ast.NewOrderedMap()
	for i := 0; i < len(pairs); i += 2 {
		key := pairs[i].(string)
		switch v := pairs[i+1].(type) {
		case string:
			m.Set(key, ast.StringValue(v))
		case *ast.OrderedMap:
			m.Set(key, ast.MapValue(v))
		case ast.OptionValue:
			m.Set(key, v)
		}
	}
	return m
}

func widgetsProject() *ast.Project {
	route := &ast.Route{
		Method: ast.POST,
		Path:   ast.Path{Raw: "/", Alias: "CreateWidget"},
		Body:   optMap("name", "string", "count", "int"),
	}
	router := &ast.Router{
		Path:   ast.Path{Raw: "/widgets"},
		Routes: []*ast.Route{route},
	}
	return &ast.Project{Router: ast.Router{Path: ast.Path{Raw: "/"}, Routers: []*ast.Router{router}}}
}

func contentFor(t *testing.T, files []emit.GeneratedFile, suffix string) string {
	t.Helper()
	for _, f := range files {
		if strings.HasSuffix(f.Path, suffix) {
			return string(f.Content)
		}
	}
	t.Fatalf("no generated file with suffix %q among %d files", suffix, len(files))
	return ""
}

func TestEmit_ControllerAndHandlerGenerated(t *testing.T) {
	e := &Emitter{}
	files, err := e.Emit(widgetsProject(), config.DefaultProjectConfig())
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}

	controller := contentFor(t, files, "WidgetsController.java")
	if !strings.Contains(controller, "@RequestMapping(\"/widgets\")") {
		t.Errorf("missing base path mapping, got:\n%s", controller)
	}
	if !strings.Contains(controller, "@PostMapping(\"/\")") {
		t.Errorf("missing method mapping, got:\n%s", controller)
	}
	if !strings.Contains(controller, "return handler.postWidgetsCreateWidget(body);") {
		t.Errorf("missing delegation call, got:\n%s", controller)
	}

	handler := contentFor(t, files, "WidgetsControllerHandler.java")
	if !strings.Contains(handler, "public interface WidgetsControllerHandler") {
		t.Errorf("missing interface declaration, got:\n%s", handler)
	}
}

func TestEmit_DTOGeneratedForBodySchema(t *testing.T) {
	e := &Emitter{}
	files, err := e.Emit(widgetsProject(), config.DefaultProjectConfig())
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	dto := contentFor(t, files, "CreateWidget.java")
	if !strings.Contains(dto, "public String name;") {
		t.Errorf("missing name field, got:\n%s", dto)
	}
	if !strings.Contains(dto, "public long count;") {
		t.Errorf("missing count field, got:\n%s", dto)
	}
}

func TestEmit_DTODeduplicatedAcrossRoutes(t *testing.T) {
	schema := optMap("name", "string")
	a := &ast.Route{Method: ast.POST, Path: ast.Path{Raw: "/", Alias: "Create"}, Body: schema}
	b := &ast.Route{Method: ast.PUT, Path: ast.Path{Raw: "/:id", Alias: "Update"}, Body: schema}
	router := &ast.Router{Path: ast.Path{Raw: "/widgets"}, Routes: []*ast.Route{a, b}}
	p := &ast.Project{Router: ast.Router{Path: ast.Path{Raw: "/"}, Routers: []*ast.Router{router}}}

	e := &Emitter{}
	files, err := e.Emit(p, config.DefaultProjectConfig())
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	count := 0
	for _, f := range files {
		if strings.HasSuffix(f.Path, "Request.java") {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected one deduplicated DTO, got %d", count)
	}
}

func TestEmit_APIKeyAuthGuardAndAuthenticatorInterface(t *testing.T) {
	block := &ast.AuthBlock{
		Type:    ast.APIKey,
		Source:  ast.SourceHeader,
		Field:   "x-api-key",
		Alias:   "Service",
		Options: ast.NewOrderedMap(),
	}
	clause := &ast.AuthenticateClause{BlockIdentity: "Service"}
	route := &ast.Route{Method: ast.GET, Path: ast.Path{Raw: "/", Alias: "List"}, Authenticate: clause}
	router := &ast.Router{Path: ast.Path{Raw: "/widgets"}, Routes: []*ast.Route{route}}
	p := &ast.Project{
		Router:         ast.Router{Path: ast.Path{Raw: "/"}, Routers: []*ast.Router{router}},
		AuthBlocks:     map[string]*ast.AuthBlock{"Service": block},
		AuthBlockOrder: []string{"Service"},
	}

	e := &Emitter{}
	files, err := e.Emit(p, config.DefaultProjectConfig())
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}

	controller := contentFor(t, files, "WidgetsController.java")
	if !strings.Contains(controller, "if (!authService.authenticate(credService)) {") {
		t.Errorf("missing auth guard, got:\n%s", controller)
	}

	iface := contentFor(t, files, "ServiceAuthenticator.java")
	if !strings.Contains(iface, "boolean authenticate(String apiKey);") {
		t.Errorf("missing authenticator stub, got:\n%s", iface)
	}
}

func TestEmit_BearerFullGeneratesAuthUtilAndController(t *testing.T) {
	block := &ast.AuthBlock{
		Type:    ast.Bearer,
		Source:  ast.SourceHeader,
		Field:   "authorization",
		Alias:   "Session",
		Options: optMap("loginPath", "/login", "secret", "dev-secret"),
	}
	route := &ast.Route{Method: ast.GET, Path: ast.Path{Raw: "/", Alias: "List"},
		Authenticate: &ast.AuthenticateClause{BlockIdentity: "Session"}}
	router := &ast.Router{Path: ast.Path{Raw: "/widgets"}, Routes: []*ast.Route{route}}
	p := &ast.Project{
		Router:         ast.Router{Path: ast.Path{Raw: "/"}, Routers: []*ast.Router{router}},
		AuthBlocks:     map[string]*ast.AuthBlock{"Session": block},
		AuthBlockOrder: []string{"Session"},
	}
	cfg := config.DefaultProjectConfig()
	cfg.GenerateBearerAuth = config.BearerAuthFull

	e := &Emitter{}
	files, err := e.Emit(p, cfg)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}

	util := contentFor(t, files, "SessionAuthUtil.java")
	if !strings.Contains(util, "\"dev-secret\"") {
		t.Errorf("missing secret literal, got:\n%s", util)
	}
	controllerAuth := contentFor(t, files, "SessionAuthController.java")
	if !strings.Contains(controllerAuth, "@PostMapping(\"/login\")") {
		t.Errorf("missing login mapping, got:\n%s", controllerAuth)
	}
	if !strings.Contains(controllerAuth, "HttpServletRequest request") {
		t.Errorf("login method must declare an HttpServletRequest parameter, got:\n%s", controllerAuth)
	}
	if !strings.Contains(controllerAuth, "authenticator.getJwtPayload(request)") {
		t.Errorf("login method must call getJwtPayload(request), got:\n%s", controllerAuth)
	}
	if strings.Contains(controllerAuth, "getJwtPayload(null)") {
		t.Errorf("login method must not pass a literal null to getJwtPayload, got:\n%s", controllerAuth)
	}
	if strings.Contains(controllerAuth, "@PostMapping(\"/logout\")") {
		t.Errorf("logout mapping must not be generated without withLogout, got:\n%s", controllerAuth)
	}
}

func TestEmit_BearerFullWithLogoutGeneratesLogoutMethod(t *testing.T) {
	block := &ast.AuthBlock{
		Type:    ast.Bearer,
		Source:  ast.SourceHeader,
		Field:   "authorization",
		Alias:   "Session",
		Options: optMap("loginPath", "/login", "secret", "dev-secret", "withLogout", ast.BoolValue(true)),
	}
	route := &ast.Route{Method: ast.GET, Path: ast.Path{Raw: "/", Alias: "List"},
		Authenticate: &ast.AuthenticateClause{BlockIdentity: "Session"}}
	router := &ast.Router{Path: ast.Path{Raw: "/widgets"}, Routes: []*ast.Route{route}}
	p := &ast.Project{
		Router:         ast.Router{Path: ast.Path{Raw: "/"}, Routers: []*ast.Router{router}},
		AuthBlocks:     map[string]*ast.AuthBlock{"Session": block},
		AuthBlockOrder: []string{"Session"},
	}
	cfg := config.DefaultProjectConfig()
	cfg.GenerateBearerAuth = config.BearerAuthFull

	e := &Emitter{}
	files, err := e.Emit(p, cfg)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}

	iface := contentFor(t, files, "SessionAuthenticator.java")
	if !strings.Contains(iface, "void logout(java.util.Map<String, Object> payload);") {
		t.Errorf("missing Full-mode logout method on the authenticator interface, got:\n%s", iface)
	}
	controllerAuth := contentFor(t, files, "SessionAuthController.java")
	if !strings.Contains(controllerAuth, "@PostMapping(\"/logout\")") {
		t.Errorf("missing logout mapping for Bearer/Full with withLogout: true, got:\n%s", controllerAuth)
	}
	if !strings.Contains(controllerAuth, "authenticator.logout(payload);") {
		t.Errorf("logout method must call authenticator.logout(payload), got:\n%s", controllerAuth)
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

func TestEmit_ApplicationYAMLIncludesTargetName(t *testing.T) {
	p := widgetsProject()
	p.Target = "widget-service"
	e := &Emitter{}
	files, err := e.Emit(p, config.DefaultProjectConfig())
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	yml := contentFor(t, files, "application.yml")
	if !strings.Contains(yml, "widget-service") {
		t.Errorf("missing application name, got:\n%s", yml)
	}
}

func TestJavaPackagePath(t *testing.T) {
	if got := javaPackagePath("com.example.dto"); got != "src/main/java/com/example/dto" {
		t.Errorf("javaPackagePath = %q", got)
	}
}
