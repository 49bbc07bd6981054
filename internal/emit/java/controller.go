package java

import (
	"fmt"
	"path"
	"strings"

	"github.com/ymir-lang/ymir/internal/ast"
	"github.com/ymir-lang/ymir/internal/config"
	"github.com/ymir-lang/ymir/internal/emit"
	"github.com/ymir-lang/ymir/internal/emit/java/classgen"
	"github.com/ymir-lang/ymir/internal/semantic"
)

// controllerBuilder accumulates the controller/handler-interface pair for
// every router in the project, per spec.md §4.6.
type controllerBuilder struct {
	project       *ast.Project
	cfg           *config.ProjectConfig
	controllerPkg string
	authPkg       string
	dto           *dtoRegistry
	fingerprint   func(string) string
	files         []emit.GeneratedFile
}

func buildControllers(project *ast.Project, cfg *config.ProjectConfig, dto *dtoRegistry, fingerprint func(string) string) []emit.GeneratedFile {
	b := &controllerBuilder{
		project:       project,
		cfg:           cfg,
		controllerPkg: packageOrDefault(cfg.Target.Packages.Controller, "controller"),
		authPkg:       packageOrDefault(cfg.Target.Packages.Auth, "auth"),
		dto:           dto,
		fingerprint:   fingerprint,
	}
	b.walk(&project.Router, nil, "")
	return b.files
}

// walk visits router and its descendants, emitting a controller pair for
// every router that owns at least one direct route.
func (b *controllerBuilder) walk(router *ast.Router, ancestors []*ast.Router, parentFullPath string) {
	fullPath := path.Join(parentFullPath, router.Path.Raw)
	if fullPath == "" {
		fullPath = "/"
	}
	chain := append(append([]*ast.Router{}, ancestors...), router)

	if len(router.Routes) > 0 {
		b.emitController(chain, fullPath)
	}
	for _, child := range router.Routers {
		b.walk(child, chain, fullPath)
	}
}

func routerChainName(chain []*ast.Router) string {
	var parts []string
	for _, r := range chain {
		if r.Path.Name() == "" {
			continue
		}
		parts = append(parts, ast.Capitalize(ast.SanitizeIdent(r.Path.Name())))
	}
	if len(parts) == 0 {
		return "Root"
	}
	return strings.Join(parts, "")
}

// methodNameFor builds spec.md §4.6's "<method><RouterChain><RouteName>"
// controller/handler method name.
func methodNameFor(chain []*ast.Router, route *ast.Route) string {
	verb := strings.ToLower(route.Method.String())
	return verb + routerChainName(chain) + ast.Capitalize(ast.SanitizeIdent(route.Path.Name()))
}

func pathVariables(chain []*ast.Router, route *ast.Route) []string {
	var out []string
	for _, r := range chain {
		out = append(out, r.Path.Variables()...)
	}
	out = append(out, route.Path.Variables()...)
	return out
}

func (b *controllerBuilder) emitController(chain []*ast.Router, fullPath string) {
	name := routerChainName(chain)
	router := chain[len(chain)-1]

	controller := classgen.NewClass(b.controllerPkg, name+"Controller")
	controller.Annotate("@RestController")
	controller.Annotate(fmt.Sprintf("@RequestMapping(%q)", springPath(fullPath)))
	controller.Import("org.springframework.web.bind.annotation.RestController")
	controller.Import("org.springframework.web.bind.annotation.RequestMapping")
	controller.Import("org.springframework.http.ResponseEntity")
	controller.Import("org.springframework.beans.factory.annotation.Autowired")

	handler := classgen.NewInterface(b.controllerPkg, name+"ControllerHandler")
	handler.Import("org.springframework.http.ResponseEntity")

	handlerField := classgen.NewField(name+"ControllerHandler", "handler").Annotate("@Autowired")
	controller.AddField(handlerField)

	wiredAuthFields := map[string]bool{}

	for _, route := range router.Routes {
		methodName := methodNameFor(chain, route)
		header := semantic.EffectiveHeader(chain, route.Header)
		body := semantic.EffectiveBody(chain, route.Body)
		auth := semantic.EffectiveAuthenticate(chain, route.Authenticate, b.project)

		var block *ast.AuthBlock
		if auth != nil {
			block, _ = b.project.LookupAuthBlock(auth.BlockIdentity)
		}

		sig := b.buildMethodSignature(chain, route, methodName, header, body, block)
		controller.Import(springMethodImport(route.Method))

		delegate := classgen.NewMethod("public", sig.returnType, methodName)
		delegate.Annotate(fmt.Sprintf("%s(%q)", springMethodAnnotation(route.Method), springPath(route.Path.Raw)))
		for _, p := range sig.params {
			delegate.Param(p.Type, p.Name, p.Annotations...)
		}

		stub := classgen.NewMethod("", sig.returnType, methodName)
		for _, p := range sig.params {
			stub.Param(p.Type, p.Name, p.Annotations...)
		}
		handler.AddMethod(stub)

		if block != nil {
			if !wiredAuthFields[block.DisplayName()] {
				wiredAuthFields[block.DisplayName()] = true
				controller.Import(javaAuthImport(b.authPkg, block.DisplayName()+"Authenticator"))
				controller.AddField(classgen.NewField(block.DisplayName()+"Authenticator", "auth"+block.DisplayName()).Annotate("@Autowired"))
				if block.Type == ast.Bearer && b.cfg.GenerateBearerAuth == config.BearerAuthFull {
					controller.Import(javaAuthImport(b.authPkg, block.DisplayName()+"AuthUtil"))
					controller.AddField(classgen.NewField(block.DisplayName()+"AuthUtil", "authUtil"+block.DisplayName()).Annotate("@Autowired"))
				}
			}
			emitAuthGuard(delegate, block, b.cfg, auth, sig)
		}

		delegate.Line(delegateCallLine(sig, methodName))
		controller.AddMethod(delegate)
	}

	b.files = append(b.files, emit.GeneratedFile{
		Path:    javaPackagePath(b.controllerPkg) + "/" + name + "Controller.java",
		Content: []byte(controller.Render(b.fingerprint(name + "Controller"))),
	})
	b.files = append(b.files, emit.GeneratedFile{
		Path:    javaPackagePath(b.controllerPkg) + "/" + name + "ControllerHandler.java",
		Content: []byte(handler.Render(b.fingerprint(name + "ControllerHandler"))),
	})
}

// methodSignature describes one controller method's generated parameters,
// return type, and the variable names an auth guard reads credentials from.
type methodSignature struct {
	params     []classgen.Parameter
	returnType string
	bodyVar    string
	credVar    string
}

func (b *controllerBuilder) buildMethodSignature(chain []*ast.Router, route *ast.Route, methodName string, header, body *ast.OrderedMap, block *ast.AuthBlock) methodSignature {
	var sig methodSignature

	for _, v := range pathVariables(chain, route) {
		sig.params = append(sig.params, classgen.Parameter{
			Type: "String", Name: ast.SanitizeIdent(v),
			Annotations: []string{fmt.Sprintf("@PathVariable(%q)", v)},
		})
	}
	for _, qp := range route.Path.QueryParams {
		sig.params = append(sig.params, classgen.Parameter{
			Type: javaTypeForParam(qp.Type), Name: ast.SanitizeIdent(qp.Name),
			Annotations: []string{fmt.Sprintf("@RequestParam(value = %q, required = false)", qp.Name)},
		})
	}
	for _, k := range header.Keys() {
		v, _ := header.Get(k)
		sig.params = append(sig.params, classgen.Parameter{
			Type: javaTypeForKeyword(valueKeyword(v)), Name: ast.SanitizeIdent(k),
			Annotations: []string{fmt.Sprintf("@RequestHeader(value = %q, required = false)", k)},
		})
	}

	needsRawBody := block != nil && block.Source == ast.SourceBody && body.Len() == 0
	if body.Len() > 0 {
		dtoName := b.dto.getOrCreate(body, methodName+"Request")
		sig.bodyVar = "body"
		sig.params = append(sig.params, classgen.Parameter{
			Type: dtoName, Name: sig.bodyVar, Annotations: []string{"@RequestBody"},
		})
	} else if needsRawBody {
		sig.bodyVar = "authBody"
		sig.params = append(sig.params, classgen.Parameter{
			Type: "java.util.Map<String, Object>", Name: sig.bodyVar, Annotations: []string{"@RequestBody"},
		})
	}

	if block != nil {
		switch block.Source {
		case ast.SourceHeader:
			sig.credVar = "cred" + block.DisplayName()
			sig.params = append(sig.params, classgen.Parameter{
				Type: "String", Name: sig.credVar,
				Annotations: []string{fmt.Sprintf("@RequestHeader(value = %q, required = false)", block.Field)},
			})
		case ast.SourceQuery:
			sig.credVar = "cred" + block.DisplayName()
			sig.params = append(sig.params, classgen.Parameter{
				Type: "String", Name: sig.credVar,
				Annotations: []string{fmt.Sprintf("@RequestParam(value = %q, required = false)", block.Field)},
			})
		case ast.SourceBody:
			if sig.bodyVar == "authBody" {
				sig.credVar = fmt.Sprintf("String.valueOf(%s.get(%q))", sig.bodyVar, block.Field)
			} else {
				sig.credVar = fmt.Sprintf("%s.%s", sig.bodyVar, ast.SanitizeIdent(block.Field))
			}
		}
	}

	if route.Responses != nil && route.Responses.Len() > 0 {
		respName := b.dto.getOrCreate(route.Responses, methodName+"Response")
		if route.IsResponsePlural {
			sig.returnType = fmt.Sprintf("ResponseEntity<java.util.List<%s>>", respName)
		} else {
			sig.returnType = fmt.Sprintf("ResponseEntity<%s>", respName)
		}
	} else {
		sig.returnType = "ResponseEntity<?>"
	}
	return sig
}

func valueKeyword(v ast.OptionValue) string {
	if s, ok := v.AsString(); ok {
		return s
	}
	return "any"
}

func delegateCallLine(sig methodSignature, methodName string) string {
	names := make([]string, len(sig.params))
	for i, p := range sig.params {
		names[i] = p.Name
	}
	return fmt.Sprintf("return handler.%s(%s);", methodName, strings.Join(names, ", "))
}

func emitAuthGuard(m *classgen.MethodBuilder, block *ast.AuthBlock, cfg *config.ProjectConfig, auth *ast.AuthenticateClause, sig methodSignature) {
	cred := sig.credVar
	field := "auth" + block.DisplayName()

	switch {
	case block.Type == ast.APIKey:
		m.Line(fmt.Sprintf("if (!%s.authenticate(%s)) {", field, cred))
		m.Line("    return ResponseEntity.status(401).build();")
		m.Line("}")
	case cfg.GenerateBearerAuth == config.BearerAuthFull:
		utilField := "authUtil" + block.DisplayName()
		jwtVar := "jwt" + block.DisplayName()
		payloadVar := "payload" + block.DisplayName()
		m.Line(fmt.Sprintf("String %s = %s != null && %s.startsWith(\"Bearer \") ? %s.substring(7) : null;", jwtVar, cred, cred, cred))
		m.Line(fmt.Sprintf("java.util.Map<String, Object> %s;", payloadVar))
		m.Line("try {")
		m.Line(fmt.Sprintf("    %s = %s.verify(%s);", payloadVar, utilField, jwtVar))
		m.Line("} catch (Exception e) {")
		m.Line("    return ResponseEntity.status(401).build();")
		m.Line("}")
		m.Line(fmt.Sprintf("if (!%s.validateJwtPayload(%s)) {", field, payloadVar))
		m.Line("    return ResponseEntity.status(401).build();")
		m.Line("}")
	case cfg.GenerateBearerAuth == config.BearerAuthBasic:
		jwtVar := "jwt" + block.DisplayName()
		m.Line(fmt.Sprintf("String %s = %s != null && %s.startsWith(\"Bearer \") ? %s.substring(7) : null;", jwtVar, cred, cred, cred))
		m.Line(fmt.Sprintf("if (%s == null || !%s.validateJwt(%s)) {", jwtVar, field, jwtVar))
		m.Line("    return ResponseEntity.status(401).build();")
		m.Line("}")
	default:
		m.Line(fmt.Sprintf("if (!%s.authenticate(%s)) {", field, cred))
		m.Line("    return ResponseEntity.status(401).build();")
		m.Line("}")
	}

	if len(auth.Roles) > 0 {
		roles := make([]string, len(auth.Roles))
		for i, r := range auth.Roles {
			roles[i] = fmt.Sprintf("%q", r)
		}
		m.Line(fmt.Sprintf("if (!%s.authorize(%s, java.util.List.of(%s))) {", field, cred, strings.Join(roles, ", ")))
		m.Line("    return ResponseEntity.status(403).build();")
		m.Line("}")
	}
}

func javaAuthImport(authPkg, className string) string {
	return authPkg + "." + className
}

func packageOrDefault(pkg, def string) string {
	if pkg == "" {
		return def
	}
	return pkg
}
