// Package express implements spec.md §4.5's JavaScript/Express target: a
// single output file declaring validation helpers, a YmirRestBase class
// with one handler per route and one auth method per auth block, and a
// build(app) method that wires routers and routes onto an Express app.
package express

import (
	"fmt"
	"strings"

	"github.com/ymir-lang/ymir/internal/ast"
	"github.com/ymir-lang/ymir/internal/config"
	"github.com/ymir-lang/ymir/internal/emit"
	"github.com/ymir-lang/ymir/internal/semantic"
)

// Emitter produces YmirRestBase.js.
type Emitter struct{}

func (e *Emitter) Name() string      { return "express" }
func (e *Emitter) Language() string  { return "javascript" }
func (e *Emitter) Framework() string { return "express" }

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

	var sb strings.Builder
	sb.WriteString("// Code generated by ymir. DO NOT EDIT.\n\n")
	emitImports(&sb, project, cfg)
	sb.WriteString("\n")
	emitValidationHelpers(&sb)
	sb.WriteString("\n")
	emitMessages(&sb)
	sb.WriteString("\n")
	emitBearerFullConstants(&sb, project, cfg)
	emitClass(&sb, project, cfg)
	emitStartServer(&sb)

	return []emit.GeneratedFile{
		{Path: "YmirRestBase.js", Content: []byte(sb.String())},
	}, nil
}

func emitImports(sb *strings.Builder, project *ast.Project, cfg *config.ProjectConfig) {
	for _, mw := range project.Middlewares {
		if mw.Name == "env" {
			sb.WriteString("require('dotenv').config();\n")
			break
		}
	}
	sb.WriteString("const express = require('express');\n")
	sb.WriteString("const cors = require('cors');\n")
	if hasFullBearer(project, cfg) {
		sb.WriteString("const jwt = require('jsonwebtoken');\n")
	}
}

func hasFullBearer(project *ast.Project, cfg *config.ProjectConfig) bool {
	if cfg.GenerateBearerAuth != config.BearerAuthFull {
		return false
	}
	for _, id := range project.AuthBlockOrder {
		if project.AuthBlocks[id].Type == ast.Bearer {
			return true
		}
	}
	return false
}

func emitValidationHelpers(sb *strings.Builder) {
	sb.WriteString(`function isInt(v) { return Number.isInteger(Number(v)) && v !== true && v !== false; }
function isFloat(v) { return v !== '' && v !== null && v !== undefined && !Number.isNaN(Number(v)); }
function isBoolean(v) { return v === true || v === false || v === 'true' || v === 'false'; }
function isDate(v) { return typeof v === 'string' && !Number.isNaN(Date.parse(v)); }
function isDatetime(v) { return typeof v === 'string' && !Number.isNaN(Date.parse(v)); }
function isTime(v) { return typeof v === 'string' && /^\d{2}:\d{2}(:\d{2})?$/.test(v); }
function isString(v) { return typeof v === 'string'; }

function getHeader(headers, name) {
  if (!headers) return undefined;
  const key = Object.keys(headers).find((k) => k.toLowerCase() === name.toLowerCase());
  return key ? headers[key] : undefined;
}

const typeValidators = {
  int: isInt, float: isFloat, boolean: isBoolean, date: isDate,
  datetime: isDatetime, time: isTime, string: isString, any: () => true,
};

function validateSchema(obj, schema, label) {
  for (const field of schema) {
    const value = obj ? obj[field.name] : undefined;
    if (value === undefined || value === null) {
      return label + '.' + field.name + ' is required';
    }
    if (field.nested) {
      const nestedError = validateSchema(value, field.nested, label + '.' + field.name);
      if (nestedError) return nestedError;
      continue;
    }
    const validator = typeValidators[field.type] || typeValidators.any;
    if (!validator(value)) {
      return label + '.' + field.name + ' must be a valid ' + field.type;
    }
  }
  return null;
}
`)
}

func emitMessages(sb *strings.Builder) {
	sb.WriteString(`const Messages = {
  _400: 'Bad Request',
  _401: 'Unauthorized',
  _403: 'Forbidden',
  _404: 'Not Found',
  _500: 'Internal Server Error',
  Started: (port) => 'Ymir server listening on port ' + port,
};
`)
}

func emitBearerFullConstants(sb *strings.Builder, project *ast.Project, cfg *config.ProjectConfig) {
	if cfg.GenerateBearerAuth != config.BearerAuthFull {
		return
	}
	wrote := false
	for _, id := range project.AuthBlockOrder {
		block := project.AuthBlocks[id]
		if block.Type != ast.Bearer {
			continue
		}
		name := block.DisplayName()
		secret := "'change-me'"
		if v, ok := block.Options.Get("secret"); ok {
			secret = jsGlobalOrLiteral(v)
		}
		expiration := "'1h'"
		if v, ok := block.Options.Get("expiration"); ok {
			expiration = jsGlobalOrLiteral(v)
		}
		fmt.Fprintf(sb, "const SECRET_%s = %s;\n", name, secret)
		fmt.Fprintf(sb, "const EXPIRATION_%s = %s;\n", name, expiration)
		wrote = true
	}
	if wrote {
		sb.WriteString("\n")
	}
}

func jsGlobalOrLiteral(v ast.OptionValue) string {
	switch v.Kind {
	case ast.KindGlobalVariable:
		if v.Global.Name == "env" && len(v.Global.Path) > 0 {
			return "process.env." + v.Global.Path[len(v.Global.Path)-1]
		}
		return "undefined"
	case ast.KindString:
		return fmt.Sprintf("%q", v.Str)
	case ast.KindNumber:
		return fmt.Sprintf("%g", v.Num)
	default:
		return "undefined"
	}
}

func emitClass(sb *strings.Builder, project *ast.Project, cfg *config.ProjectConfig) {
	sb.WriteString("class YmirRestBase {\n")

	semantic.WalkRoutes(project, func(chain semantic.Chain, route *ast.Route) {
		emitRouteHandler(sb, project, chain, route)
	})

	for _, id := range project.AuthBlockOrder {
		emitAuthMethod(sb, project.AuthBlocks[id], cfg)
	}

	emitBuildMethod(sb, project, cfg)

	sb.WriteString("}\n\n")
}

// handlerName implements spec.md §4.5's `on<RouterChain><RouteName>`
// contract: chain is the ancestor routers through route's direct parent,
// inclusive, exactly what semantic.WalkRoutes hands its callback.
func handlerName(chain semantic.Chain, route *ast.Route) string {
	var b strings.Builder
	b.WriteString("on")
	for _, r := range chain {
		if name := r.Path.Name(); name != "" {
			b.WriteString(ast.Capitalize(ast.SanitizeIdent(name)))
		}
	}
	b.WriteString(ast.Capitalize(ast.SanitizeIdent(route.Path.Name())))
	return b.String()
}

func emitRouteHandler(sb *strings.Builder, project *ast.Project, chain semantic.Chain, route *ast.Route) {
	name := handlerName(chain, route)
	header := semantic.EffectiveHeader(chain, route.Header)
	body := semantic.EffectiveBody(chain, route.Body)
	auth := semantic.EffectiveAuthenticate(chain, route.Authenticate, project)

	if route.Description != "" {
		fmt.Fprintf(sb, "  // %s\n", route.Description)
	}
	fmt.Fprintf(sb, "  async %s(req, res) {\n", name)

	if header.Len() > 0 {
		fmt.Fprintf(sb, "    const headerValues = %s;\n", headerCollectorLiteral(header))
		fmt.Fprintf(sb, "    const headerError = validateSchema(headerValues, %s, 'header');\n", schemaLiteral(header))
		sb.WriteString("    if (headerError) {\n      res.status(400).json({ message: Messages._400, detail: headerError });\n      return false;\n    }\n")
	}
	if len(route.Path.QueryParams) > 0 {
		fmt.Fprintf(sb, "    const queryError = validateSchema(req.query, %s, 'query');\n", queryParamSchemaLiteral(route.Path.QueryParams))
		sb.WriteString("    if (queryError) {\n      res.status(400).json({ message: Messages._400, detail: queryError });\n      return false;\n    }\n")
	}
	if body.Len() > 0 {
		fmt.Fprintf(sb, "    const bodyError = validateSchema(req.body, %s, 'body');\n", schemaLiteral(body))
		sb.WriteString("    if (bodyError) {\n      res.status(400).json({ message: Messages._400, detail: bodyError });\n      return false;\n    }\n")
	}

	if auth != nil {
		if block, ok := project.LookupAuthBlock(auth.BlockIdentity); ok {
			fmt.Fprintf(sb, "    if (!(await this.#handle%sAuthentication(req, res))) {\n      return false;\n    }\n", block.DisplayName())
			if len(auth.Roles) > 0 {
				fmt.Fprintf(sb, "    if (!(await this.authorize%s(req.ymirPrincipal, %s))) {\n      res.status(403).json({ message: Messages._403 });\n      return false;\n    }\n", block.DisplayName(), rolesLiteral(auth.Roles))
			}
		}
	}

	sb.WriteString("    return true;\n  }\n\n")
}

func headerCollectorLiteral(m *ast.OrderedMap) string {
	parts := make([]string, 0, m.Len())
	for _, k := range m.Keys() {
		parts = append(parts, fmt.Sprintf("%q: getHeader(req.headers, %q)", k, k))
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

func schemaLiteral(m *ast.OrderedMap) string {
	if m == nil || m.Len() == 0 {
		return "[]"
	}
	parts := make([]string, 0, m.Len())
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		switch v.Kind {
		case ast.KindMap:
			parts = append(parts, fmt.Sprintf("{ name: %q, nested: %s }", k, schemaLiteral(v.Map)))
		case ast.KindString:
			parts = append(parts, fmt.Sprintf("{ name: %q, type: %q }", k, v.Str))
		default:
			parts = append(parts, fmt.Sprintf("{ name: %q, type: 'any' }", k))
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func queryParamSchemaLiteral(params []ast.QueryParameter) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, fmt.Sprintf("{ name: %q, type: %q }", p.Name, p.Type.String()))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func rolesLiteral(roles []string) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = fmt.Sprintf("%q", r)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func extractCredential(block *ast.AuthBlock) string {
	switch block.Source {
	case ast.SourceBody:
		return fmt.Sprintf("req.body && req.body[%q]", block.Field)
	case ast.SourceQuery:
		return fmt.Sprintf("req.query[%q]", block.Field)
	default:
		return fmt.Sprintf("getHeader(req.headers, %q)", block.Field)
	}
}

func fieldExtractor(source ast.AuthSource, field string) string {
	switch source {
	case ast.SourceQuery:
		return fmt.Sprintf("req.query[%q]", field)
	case ast.SourceHeader:
		return fmt.Sprintf("getHeader(req.headers, %q)", field)
	default:
		return fmt.Sprintf("req.body && req.body[%q]", field)
	}
}

func stringOption(m *ast.OrderedMap, key string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m.Get(key)
	if !ok {
		return "", false
	}
	return v.AsString()
}

func optionalString(m *ast.OrderedMap, key, fallback string) string {
	if s, ok := stringOption(m, key); ok {
		return s
	}
	return fallback
}

func boolOption(m *ast.OrderedMap, key string) bool {
	if m == nil {
		return false
	}
	v, ok := m.Get(key)
	if !ok {
		return false
	}
	b, _ := v.AsBool()
	return b
}

// emitAuthMethod lowers one auth block per spec.md §4.5's per-mode contract.
func emitAuthMethod(sb *strings.Builder, block *ast.AuthBlock, cfg *config.ProjectConfig) {
	name := block.DisplayName()

	if block.Type == ast.APIKey {
		credential := extractCredential(block)
		fmt.Fprintf(sb, "  async #handle%sAuthentication(req, res) {\n", name)
		fmt.Fprintf(sb, "    const credential = %s;\n", credential)
		fmt.Fprintf(sb, "    if (!credential || !(await this.authenticate%s(credential))) {\n      res.status(401).json({ message: Messages._401 });\n      return false;\n    }\n", name)
		sb.WriteString("    req.ymirPrincipal = credential;\n    return true;\n  }\n\n")
		return
	}

	switch cfg.GenerateBearerAuth {
	case config.BearerAuthBasic:
		emitBearerBasicAuth(sb, name)
	case config.BearerAuthFull:
		emitBearerFullAuth(sb, name)
	default:
		emitBearerNoneAuth(sb, name)
	}
}

func emitBearerNoneAuth(sb *strings.Builder, name string) {
	fmt.Fprintf(sb, "  async #handle%sAuthentication(req, res) {\n", name)
	sb.WriteString("    const header = getHeader(req.headers, 'authorization');\n")
	sb.WriteString("    const jwt = header && header.startsWith('Bearer ') ? header.slice(7) : undefined;\n")
	fmt.Fprintf(sb, "    if (!jwt || !(await this.authenticate%s(jwt))) {\n      res.status(401).json({ message: Messages._401 });\n      return false;\n    }\n", name)
	sb.WriteString("    req.ymirPrincipal = jwt;\n    return true;\n  }\n\n")
}

func emitBearerBasicAuth(sb *strings.Builder, name string) {
	fmt.Fprintf(sb, "  async #handle%sAuthentication(req, res) {\n", name)
	sb.WriteString("    const header = getHeader(req.headers, 'authorization');\n")
	sb.WriteString("    const jwt = header && header.startsWith('Bearer ') ? header.slice(7) : undefined;\n")
	fmt.Fprintf(sb, "    if (!jwt || !(await this.validateJwtFor%s(jwt))) {\n      res.status(401).json({ message: Messages._401 });\n      return false;\n    }\n", name)
	sb.WriteString("    req.ymirPrincipal = jwt;\n    return true;\n  }\n\n")
}

func emitBearerFullAuth(sb *strings.Builder, name string) {
	fmt.Fprintf(sb, "  async #handle%sAuthentication(req, res) {\n", name)
	sb.WriteString("    const header = getHeader(req.headers, 'authorization');\n")
	sb.WriteString("    const token = header && header.startsWith('Bearer ') ? header.slice(7) : undefined;\n")
	sb.WriteString("    let payload;\n")
	sb.WriteString("    try {\n")
	fmt.Fprintf(sb, "      payload = jwt.verify(token, SECRET_%s);\n", name)
	sb.WriteString("    } catch (err) {\n      res.status(401).json({ message: Messages._401 });\n      return false;\n    }\n")
	fmt.Fprintf(sb, "    if (!(await this.validateJwtPayloadFor%s(payload))) {\n      res.status(401).json({ message: Messages._401 });\n      return false;\n    }\n", name)
	sb.WriteString("    req.ymirPrincipal = payload;\n    return true;\n  }\n\n")
}

func emitMiddlewareUse(sb *strings.Builder, mw *ast.Middleware) {
	switch mw.Name {
	case "json":
		sb.WriteString("    app.use(express.json());\n")
	case "cors":
		origin := "'*'"
		if mw.Options != nil {
			if v, ok := mw.Options.Get("origin"); ok {
				origin = jsGlobalOrLiteral(v)
			}
		}
		fmt.Fprintf(sb, "    app.use(cors({ origin: %s }));\n", origin)
	case "env":
		// handled by the dotenv import emitted at module scope.
	default:
		fmt.Fprintf(sb, "    // unrecognized middleware %q skipped\n", mw.Name)
	}
}

func emitBuildMethod(sb *strings.Builder, project *ast.Project, cfg *config.ProjectConfig) {
	sb.WriteString("  build(app) {\n")
	for _, mw := range project.Middlewares {
		emitMiddlewareUse(sb, mw)
	}

	varCounter := 0
	var mount func(router *ast.Router, ancestors semantic.Chain, parentVar string)
	mount = func(router *ast.Router, ancestors semantic.Chain, parentVar string) {
		varName := fmt.Sprintf("r%d", varCounter)
		varCounter++
		fmt.Fprintf(sb, "    const %s = express.Router();\n", varName)

		header := semantic.EffectiveHeader(ancestors, router.Header)
		if header.Len() > 0 {
			fmt.Fprintf(sb, "    %s.use((req, res, next) => {\n", varName)
			fmt.Fprintf(sb, "      const headerValues = %s;\n", headerCollectorLiteral(header))
			fmt.Fprintf(sb, "      const headerError = validateSchema(headerValues, %s, 'header');\n", schemaLiteral(header))
			sb.WriteString("      if (headerError) {\n        res.status(400).json({ message: Messages._400, detail: headerError });\n        return;\n      }\n      next();\n    });\n")
		}

		fullChain := append(append(semantic.Chain{}, ancestors...), router)
		auth := semantic.EffectiveAuthenticate(ancestors, router.Authenticate, project)
		if auth != nil {
			if block, ok := project.LookupAuthBlock(auth.BlockIdentity); ok {
				fmt.Fprintf(sb, "    %s.use(async (req, res, next) => {\n      if (!(await this.#handle%sAuthentication(req, res))) return;\n      next();\n    });\n", varName, block.DisplayName())
			}
		}

		for _, route := range router.Routes {
			name := handlerName(fullChain, route)
			fmt.Fprintf(sb, "    %s.%s(%q, this.%s.bind(this));\n", varName, strings.ToLower(route.Method.String()), route.Path.Raw, name)
		}

		fmt.Fprintf(sb, "    %s.use(%q, %s);\n\n", parentVar, router.Path.Raw, varName)

		for _, child := range router.Routers {
			mount(child, fullChain, varName)
		}
	}

	rootChain := semantic.Chain{&project.Router}
	for _, route := range project.Routes {
		name := handlerName(rootChain, route)
		fmt.Fprintf(sb, "    app.%s(%q, this.%s.bind(this));\n", strings.ToLower(route.Method.String()), route.Path.Raw, name)
	}
	for _, child := range project.Routers {
		mount(child, rootChain, "app")
	}

	emitBearerLoginRoutes(sb, project, cfg)

	sb.WriteString("    return app;\n  }\n")
}

func emitBearerLoginRoutes(sb *strings.Builder, project *ast.Project, cfg *config.ProjectConfig) {
	for _, id := range project.AuthBlockOrder {
		block := project.AuthBlocks[id]
		if block.Type != ast.Bearer {
			continue
		}
		name := block.DisplayName()
		switch cfg.GenerateBearerAuth {
		case config.BearerAuthBasic:
			emitBearerBasicRoutes(sb, block, name)
		case config.BearerAuthFull:
			emitBearerFullRoutes(sb, block, name)
		}
	}
}

func emitBearerBasicRoutes(sb *strings.Builder, block *ast.AuthBlock, name string) {
	loginPath := optionalString(block.Options, "loginPath", "/login")
	usernameField := optionalString(block.Options, "usernameField", "username")
	passwordField := optionalString(block.Options, "passwordField", "password")

	fmt.Fprintf(sb, "    app.post(%q, async (req, res) => {\n", loginPath)
	fmt.Fprintf(sb, "      const username = %s;\n", fieldExtractor(block.Source, usernameField))
	fmt.Fprintf(sb, "      const password = %s;\n", fieldExtractor(block.Source, passwordField))
	fmt.Fprintf(sb, "      const token = await this.generateJwtFor%s(username, password);\n", name)
	sb.WriteString("      if (!token) {\n        res.status(401).json({ message: Messages._401 });\n        return;\n      }\n      res.json({ token });\n    });\n")

	if logoutPath, ok := stringOption(block.Options, "logoutPath"); ok {
		fmt.Fprintf(sb, "    app.post(%q, async (req, res) => {\n", logoutPath)
		sb.WriteString("      const header = getHeader(req.headers, 'authorization');\n")
		sb.WriteString("      const jwt = header && header.startsWith('Bearer ') ? header.slice(7) : undefined;\n")
		fmt.Fprintf(sb, "      await this.logout%s(jwt);\n", name)
		sb.WriteString("      res.json({ ok: true });\n    });\n")
	}
	sb.WriteString("\n")
}

func emitBearerFullRoutes(sb *strings.Builder, block *ast.AuthBlock, name string) {
	loginPath := optionalString(block.Options, "loginPath", "/login")
	usernameField := optionalString(block.Options, "usernameField", "username")
	passwordField := optionalString(block.Options, "passwordField", "password")

	fmt.Fprintf(sb, "    app.post(%q, async (req, res) => {\n", loginPath)
	fmt.Fprintf(sb, "      const username = %s;\n", fieldExtractor(block.Source, usernameField))
	fmt.Fprintf(sb, "      const password = %s;\n", fieldExtractor(block.Source, passwordField))
	fmt.Fprintf(sb, "      const payload = await this.getJwtPayloadFor%s(username, password);\n", name)
	sb.WriteString("      if (!payload) {\n        res.status(401).json({ message: Messages._401 });\n        return;\n      }\n")
	fmt.Fprintf(sb, "      const token = jwt.sign(payload, SECRET_%s, { expiresIn: EXPIRATION_%s });\n", name, name)
	sb.WriteString("      res.json({ token });\n    });\n")

	if boolOption(block.Options, "withLogout") {
		logoutPath := optionalString(block.Options, "logoutPath", "/logout")
		fmt.Fprintf(sb, "    app.post(%q, async (req, res) => {\n", logoutPath)
		sb.WriteString("      const header = getHeader(req.headers, 'authorization');\n")
		sb.WriteString("      const token = header && header.startsWith('Bearer ') ? header.slice(7) : undefined;\n")
		fmt.Fprintf(sb, "      let payload;\n      try {\n        payload = jwt.verify(token, SECRET_%s);\n      } catch (err) {\n        payload = undefined;\n      }\n", name)
		fmt.Fprintf(sb, "      await this.logout%s(payload);\n", name)
		sb.WriteString("      res.json({ ok: true });\n    });\n")
	}
	sb.WriteString("\n")
}

func emitStartServer(sb *strings.Builder) {
	sb.WriteString(`function startServer(instance, port) {
  const app = express();
  instance.build(app);
  return app.listen(port, () => {
    console.log(Messages.Started(port));
  });
}

module.exports = { YmirRestBase, startServer };
`)
}
