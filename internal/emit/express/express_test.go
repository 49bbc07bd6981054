package express

import (
	"strings"
	"testing"

	"github.com/ymir-lang/ymir/internal/ast"
	"github.com/ymir-lang/ymir/internal/config"
)

func optMap(pairs ...interface{}) *ast.OrderedMap {
	m := ast.NewOrderedMap()
	for i := 0; i+1 < len(pairs); i += 2 {
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

func helloProject() *ast.Project {
	p := &ast.Project{Target: "JavaScript_ExpressJS"}
	apiRouter := &ast.Router{Path: ast.Path{Raw: "/api"}}
	apiRouter.Routes = append(apiRouter.Routes, &ast.Route{
		Method: ast.GET,
		Path:   ast.Path{Raw: "/hello", Alias: "Hello"},
	})
	p.Routers = append(p.Routers, apiRouter)
	return p
}

func TestEmit_EmptyRouterProducesBuildMethod(t *testing.T) {
	p := &ast.Project{Target: "JavaScript_ExpressJS"}
	p.Routers = append(p.Routers, &ast.Router{Path: ast.Path{Raw: "/api"}})

	e := &Emitter{}
	files, err := e.Emit(p, config.DefaultProjectConfig())
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(files) != 1 || files[0].Path != "YmirRestBase.js" {
		t.Fatalf("unexpected output files: %+v", files)
	}
	src := string(files[0].Content)
	if !strings.Contains(src, "class YmirRestBase") {
		t.Error("missing class declaration")
	}
	if !strings.Contains(src, "build(app)") {
		t.Error("missing build(app) method")
	}
	if !strings.Contains(src, `app.use("/api", r0);`) {
		t.Errorf("expected /api router mount, got:\n%s", src)
	}
}

func TestEmit_RouteHandlerNaming(t *testing.T) {
	e := &Emitter{}
	files, err := e.Emit(helloProject(), config.DefaultProjectConfig())
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	src := string(files[0].Content)
	if !strings.Contains(src, "async onApiHello(req, res)") {
		t.Errorf("expected onApiHello handler, got:\n%s", src)
	}
	if !strings.Contains(src, `r0.get("/hello", this.onApiHello.bind(this));`) {
		t.Error("expected /hello route mounted on router r0")
	}
}

func TestEmit_HeaderAndBodyValidation(t *testing.T) {
	p := helloProject()
	route := p.Routers[0].Routes[0]
	route.Header = optMap("x-request-id", "string")
	route.Body = optMap("title", "string", "count", "int")

	e := &Emitter{}
	files, err := e.Emit(p, config.DefaultProjectConfig())
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	src := string(files[0].Content)
	if !strings.Contains(src, `getHeader(req.headers, "x-request-id")`) {
		t.Error("missing header extraction")
	}
	if !strings.Contains(src, `{ name: "title", type: "string" }`) {
		t.Error("missing body field schema")
	}
	if !strings.Contains(src, "const bodyError = validateSchema(req.body,") {
		t.Error("missing body validation call")
	}
}

func TestEmit_NestedBodySchema(t *testing.T) {
	p := helloProject()
	route := p.Routers[0].Routes[0]
	nested := optMap("street", "string")
	route.Body = optMap("address", nested)

	e := &Emitter{}
	files, err := e.Emit(p, config.DefaultProjectConfig())
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	src := string(files[0].Content)
	if !strings.Contains(src, `{ name: "address", nested: [{ name: "street", type: "string" }] }`) {
		t.Errorf("expected nested schema literal, got:\n%s", src)
	}
}

func TestEmit_APIKeyAuthentication(t *testing.T) {
	p := helloProject()
	block := &ast.AuthBlock{Type: ast.APIKey, Source: ast.SourceHeader, Field: "x-api-key", Alias: "Service"}
	p.AuthBlocks = map[string]*ast.AuthBlock{"Service": block}
	p.AuthBlockOrder = []string{"Service"}
	p.Routers[0].Routes[0].Authenticate = &ast.AuthenticateClause{BlockIdentity: "Service"}

	e := &Emitter{}
	files, err := e.Emit(p, config.DefaultProjectConfig())
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	src := string(files[0].Content)
	if !strings.Contains(src, "async #handleServiceAuthentication(req, res)") {
		t.Errorf("missing API-Key auth method, got:\n%s", src)
	}
	if !strings.Contains(src, `getHeader(req.headers, "x-api-key")`) {
		t.Error("missing API key extraction")
	}
	if !strings.Contains(src, "await this.#handleServiceAuthentication(req, res)") {
		t.Error("route handler does not call the auth method")
	}
}

func TestEmit_AuthorizeWithRoles(t *testing.T) {
	p := helloProject()
	block := &ast.AuthBlock{Type: ast.APIKey, Source: ast.SourceHeader, Field: "x-api-key", Alias: "Service"}
	p.AuthBlocks = map[string]*ast.AuthBlock{"Service": block}
	p.AuthBlockOrder = []string{"Service"}
	p.Routers[0].Routes[0].Authenticate = &ast.AuthenticateClause{BlockIdentity: "Service", Roles: []string{"admin"}}

	e := &Emitter{}
	files, err := e.Emit(p, config.DefaultProjectConfig())
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	src := string(files[0].Content)
	if !strings.Contains(src, `await this.authorizeService(req.ymirPrincipal, ["admin"])`) {
		t.Errorf("expected authorize call, got:\n%s", src)
	}
}

func TestEmit_BearerFullGeneratesSecretsAndJWTRoutes(t *testing.T) {
	p := helloProject()
	block := &ast.AuthBlock{Type: ast.Bearer, Source: ast.SourceHeader, Field: "authorization", Alias: "App"}
	block.Options = optMap("secret", "super-secret", "loginPath", "/auth/login")
	p.AuthBlocks = map[string]*ast.AuthBlock{"App": block}
	p.AuthBlockOrder = []string{"App"}

	cfg := config.DefaultProjectConfig()
	cfg.GenerateBearerAuth = config.BearerAuthFull

	e := &Emitter{}
	files, err := e.Emit(p, cfg)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	src := string(files[0].Content)
	if !strings.Contains(src, `const jwt = require('jsonwebtoken');`) {
		t.Error("missing jsonwebtoken import")
	}
	if !strings.Contains(src, `const SECRET_App = "super-secret";`) {
		t.Error("missing secret constant")
	}
	if !strings.Contains(src, `app.post("/auth/login", async (req, res) => {`) {
		t.Error("missing login route")
	}
	if !strings.Contains(src, `const username = req.body && req.body["username"];`) {
		t.Error("missing username extraction")
	}
	if !strings.Contains(src, `const password = req.body && req.body["password"];`) {
		t.Error("missing password extraction")
	}
	if !strings.Contains(src, "const payload = await this.getJwtPayloadForApp(username, password);") {
		t.Error("login handler must call getJwtPayloadFor<Name> with extracted username/password, not the raw request")
	}
	if strings.Contains(src, "getJwtPayloadForApp(req)") {
		t.Error("login handler must not pass the raw request object to getJwtPayloadFor<Name>")
	}
	if !strings.Contains(src, "jwt.sign(payload, SECRET_App, { expiresIn: EXPIRATION_App })") {
		t.Error("missing jwt.sign call")
	}
	if strings.Contains(src, `app.post("/logout"`) {
		t.Error("logout route must not be generated without withLogout")
	}
}

func TestEmit_BearerFullWithLogoutGeneratesLogoutRoute(t *testing.T) {
	p := helloProject()
	block := &ast.AuthBlock{Type: ast.Bearer, Source: ast.SourceHeader, Field: "authorization", Alias: "App"}
	block.Options = optMap("secret", "super-secret", "loginPath", "/auth/login", "withLogout", ast.BoolValue(true))
	p.AuthBlocks = map[string]*ast.AuthBlock{"App": block}
	p.AuthBlockOrder = []string{"App"}

	cfg := config.DefaultProjectConfig()
	cfg.GenerateBearerAuth = config.BearerAuthFull

	e := &Emitter{}
	files, err := e.Emit(p, cfg)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	src := string(files[0].Content)
	if !strings.Contains(src, `app.post("/logout", async (req, res) => {`) {
		t.Error("missing logout route for Bearer/Full with withLogout: true")
	}
	if !strings.Contains(src, "await this.logoutApp(payload);") {
		t.Error("logout route must call logout<Name>(payload)")
	}
}

func TestEmit_BearerBodySourceAborts(t *testing.T) {
	p := helloProject()
	block := &ast.AuthBlock{Type: ast.Bearer, Source: ast.SourceBody, Field: "token", Alias: "App"}
	p.AuthBlocks = map[string]*ast.AuthBlock{"App": block}
	p.AuthBlockOrder = []string{"App"}

	e := &Emitter{}
	_, err := e.Emit(p, config.DefaultProjectConfig())
	if err == nil {
		t.Fatal("expected an abort error")
	}
	if !strings.Contains(err.Error(), "aborting") {
		t.Errorf("expected an abort error message, got: %v", err)
	}
}

func TestEmit_CORSMiddlewareWithEnvOrigin(t *testing.T) {
	p := helloProject()
	p.Middlewares = append(p.Middlewares, &ast.Middleware{
		Name:    "cors",
		Options: optMap("origin", ast.GlobalVariableValue(ast.GlobalVariable{Name: "env", Path: []string{"ORIGIN"}})),
	})

	e := &Emitter{}
	files, err := e.Emit(p, config.DefaultProjectConfig())
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	src := string(files[0].Content)
	if !strings.Contains(src, "app.use(cors({ origin: process.env.ORIGIN }));") {
		t.Errorf("expected env-backed CORS origin, got:\n%s", src)
	}
}

func TestHandlerName_NestedRouters(t *testing.T) {
	v1 := &ast.Router{Path: ast.Path{Raw: "/v1"}}
	api := &ast.Router{Path: ast.Path{Raw: "/api"}}
	route := &ast.Route{Path: ast.Path{Raw: "/widgets", Alias: "Widgets"}}
	name := handlerName([]*ast.Router{api, v1}, route)
	if name != "onApiV1Widgets" {
		t.Errorf("expected onApiV1Widgets, got %s", name)
	}
}
