package java

import (
	"fmt"

	"github.com/ymir-lang/ymir/internal/ast"
	"github.com/ymir-lang/ymir/internal/config"
	"github.com/ymir-lang/ymir/internal/emit"
	"github.com/ymir-lang/ymir/internal/emit/java/classgen"
)

// authArtifacts builds spec.md §4.6's authentication lowering for one auth
// block: an <Name>Authenticator interface always, plus (Bearer/Full only)
// an <Name>AuthUtil and an <Name>AuthController.
func authArtifacts(block *ast.AuthBlock, cfg *config.ProjectConfig, pkg string, fingerprint func(string) string) []emit.GeneratedFile {
	name := block.DisplayName()
	var files []emit.GeneratedFile

	iface := classgen.NewInterface(pkg, name+"Authenticator")
	switch block.Type {
	case ast.APIKey:
		iface.AddMethod(classgen.NewMethod("", "boolean", "authenticate").Param("String", "apiKey"))
	case ast.Bearer:
		switch cfg.GenerateBearerAuth {
		case config.BearerAuthBasic:
			iface.AddMethod(classgen.NewMethod("", "boolean", "validateJwt").Param("String", "jwt"))
			iface.AddMethod(classgen.NewMethod("", "String", "generateJwt").
				Param("String", "username").Param("String", "password"))
			if _, ok := stringOption(block.Options, "logoutPath"); ok {
				iface.AddMethod(classgen.NewMethod("", "void", "logout").Param("String", "jwt"))
			}
		case config.BearerAuthFull:
			iface.Import("jakarta.servlet.http.HttpServletRequest")
			iface.AddMethod(classgen.NewMethod("", "java.util.Map<String, Object>", "getJwtPayload").
				Param("HttpServletRequest", "request"))
			iface.AddMethod(classgen.NewMethod("", "boolean", "validateJwtPayload").
				Param("java.util.Map<String, Object>", "payload"))
			if boolOption(block.Options, "withLogout") {
				iface.AddMethod(classgen.NewMethod("", "void", "logout").
					Param("java.util.Map<String, Object>", "payload"))
			}
		default:
			iface.AddMethod(classgen.NewMethod("", "boolean", "authenticate").Param("String", "jwt"))
		}
	}
	if block.AuthorizationInUse {
		iface.Import("java.util.List")
		iface.AddMethod(classgen.NewMethod("", "boolean", "authorize").
			Param("String", "credential").Param("List<String>", "roles"))
	}
	files = append(files, emit.GeneratedFile{
		Path:    javaPackagePath(pkg) + "/" + name + "Authenticator.java",
		Content: []byte(iface.Render(fingerprint(name + "Authenticator"))),
	})

	if block.Type == ast.Bearer && cfg.GenerateBearerAuth == config.BearerAuthFull {
		files = append(files, authUtilFile(block, name, pkg, fingerprint))
		files = append(files, authControllerFile(block, name, pkg, cfg, fingerprint))
	} else if block.Type == ast.Bearer && cfg.GenerateBearerAuth == config.BearerAuthBasic {
		files = append(files, authControllerFile(block, name, pkg, cfg, fingerprint))
	}

	return files
}

func authUtilFile(block *ast.AuthBlock, name, pkg string, fingerprint func(string) string) emit.GeneratedFile {
	c := classgen.NewClass(pkg, name+"AuthUtil")
	c.Import("io.jsonwebtoken.Jwts")
	c.Import("io.jsonwebtoken.SignatureAlgorithm")
	c.Import("java.util.Map")

	secret := "System.getenv(\"YMIR_JWT_SECRET\")"
	if v, ok := block.Options.Get("secret"); ok {
		secret = javaSecretExpr(v)
	}
	expiration := "3600000L"
	if v, ok := block.Options.Get("expiration"); ok {
		if s, ok := v.AsString(); ok {
			expiration = fmt.Sprintf("%q", s)
		}
	}

	c.AddField(classgen.NewField("String", "ALGORITHM").Init("SignatureAlgorithm.HS256.getValue()"))
	c.AddField(classgen.NewField("String", "SECRET").Init(secret))
	c.AddField(classgen.NewField("long", "EXPIRATION_MS").Init(expiration))

	sign := classgen.NewMethod("public", "String", "sign").Param("Map<String, Object>", "payload")
	sign.Line("return Jwts.builder()")
	sign.Line("    .setClaims(payload)")
	sign.Line("    .setExpiration(new java.util.Date(System.currentTimeMillis() + EXPIRATION_MS))")
	sign.Line("    .signWith(SignatureAlgorithm.HS256, SECRET)")
	sign.Line("    .compact();")
	c.AddMethod(sign)

	verify := classgen.NewMethod("public", "Map<String, Object>", "verify").Param("String", "token")
	verify.Line("return (Map<String, Object>) (Map<?, ?>) Jwts.parser().setSigningKey(SECRET).parseClaimsJws(token).getBody();")
	c.AddMethod(verify)

	return emit.GeneratedFile{
		Path:    javaPackagePath(pkg) + "/" + name + "AuthUtil.java",
		Content: []byte(c.Render(fingerprint(name + "AuthUtil"))),
	}
}

func authControllerFile(block *ast.AuthBlock, name, pkg string, cfg *config.ProjectConfig, fingerprint func(string) string) emit.GeneratedFile {
	c := classgen.NewClass(pkg, name+"AuthController")
	c.Annotate("@RestController")
	c.Import("org.springframework.web.bind.annotation.RestController")
	c.Import("org.springframework.web.bind.annotation.PostMapping")
	c.Import("org.springframework.web.bind.annotation.RequestBody")
	c.Import("org.springframework.beans.factory.annotation.Autowired")
	c.Import("org.springframework.http.ResponseEntity")

	authField := classgen.NewField(name+"Authenticator", "authenticator").Annotate("@Autowired")
	c.AddField(authField)

	loginPath := optionalString(block.Options, "loginPath", "/login")

	login := classgen.NewMethod("public", "ResponseEntity<?>", "login").
		Param("java.util.Map<String, String>", "credentials", "@RequestBody")
	login.Annotate(fmt.Sprintf("@PostMapping(%q)", loginPath))

	switch cfg.GenerateBearerAuth {
	case config.BearerAuthFull:
		c.Import("io.jsonwebtoken.SignatureAlgorithm")
		c.Import("jakarta.servlet.http.HttpServletRequest")
		authUtilField := classgen.NewField(name+"AuthUtil", "authUtil").Annotate("@Autowired")
		c.AddField(authUtilField)
		login.Param("HttpServletRequest", "request")
		login.Line("var payload = authenticator.getJwtPayload(request);")
		login.Line("if (payload == null || !authenticator.validateJwtPayload(payload)) {")
		login.Line("    return ResponseEntity.status(401).build();")
		login.Line("}")
		login.Line("return ResponseEntity.ok(java.util.Map.of(\"token\", authUtil.sign(payload)));")
	default:
		usernameField := optionalString(block.Options, "usernameField", "username")
		passwordField := optionalString(block.Options, "passwordField", "password")
		login.Line(fmt.Sprintf("String username = credentials.get(%q);", usernameField))
		login.Line(fmt.Sprintf("String password = credentials.get(%q);", passwordField))
		login.Line("String token = authenticator.generateJwt(username, password);")
		login.Line("if (token == null) {")
		login.Line("    return ResponseEntity.status(401).build();")
		login.Line("}")
		login.Line("return ResponseEntity.ok(java.util.Map.of(\"token\", token));")
	}
	c.AddMethod(login)

	if logoutPath, ok := stringOption(block.Options, "logoutPath"); ok && cfg.GenerateBearerAuth == config.BearerAuthBasic {
		c.Import("org.springframework.web.bind.annotation.RequestHeader")
		logout := classgen.NewMethod("public", "ResponseEntity<?>", "logout").
			Param("String", "authorization", "@RequestHeader(\"Authorization\")")
		logout.Annotate(fmt.Sprintf("@PostMapping(%q)", logoutPath))
		logout.Line("String jwt = authorization != null && authorization.startsWith(\"Bearer \") ? authorization.substring(7) : null;")
		logout.Line("authenticator.logout(jwt);")
		logout.Line("return ResponseEntity.ok().build();")
		c.AddMethod(logout)
	} else if cfg.GenerateBearerAuth == config.BearerAuthFull {
		if boolOption(block.Options, "withLogout") {
			c.Import("org.springframework.web.bind.annotation.RequestHeader")
			logoutPath := optionalString(block.Options, "logoutPath", "/logout")
			logout := classgen.NewMethod("public", "ResponseEntity<?>", "logout").
				Param("String", "authorization", "@RequestHeader(\"Authorization\")")
			logout.Annotate(fmt.Sprintf("@PostMapping(%q)", logoutPath))
			logout.Line("String jwt = authorization != null && authorization.startsWith(\"Bearer \") ? authorization.substring(7) : null;")
			logout.Line("var payload = jwt != null ? authUtil.verify(jwt) : null;")
			logout.Line("authenticator.logout(payload);")
			logout.Line("return ResponseEntity.ok().build();")
			c.AddMethod(logout)
		}
	}

	return emit.GeneratedFile{
		Path:    javaPackagePath(pkg) + "/" + name + "AuthController.java",
		Content: []byte(c.Render(fingerprint(name + "AuthController"))),
	}
}

func javaSecretExpr(v ast.OptionValue) string {
	if v.Kind == ast.KindGlobalVariable && v.Global.Name == "env" && len(v.Global.Path) > 0 {
		return fmt.Sprintf("System.getenv(%q)", v.Global.Path[len(v.Global.Path)-1])
	}
	if s, ok := v.AsString(); ok {
		return fmt.Sprintf("%q", s)
	}
	return "System.getenv(\"YMIR_JWT_SECRET\")"
}
