// Package java implements spec.md §4.6's Java/Spring-Boot target: one
// @RestController plus handler interface per router, DTOs for declared body
// and response schemas, authentication lowering, CORS configuration, and an
// application.yml.
package java

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ymir-lang/ymir/internal/ast"
	"github.com/ymir-lang/ymir/internal/config"
	"github.com/ymir-lang/ymir/internal/emit"
)

// Emitter lowers a parsed project into a Maven-style Java source tree.
type Emitter struct{}

func (e *Emitter) Name() string      { return "java" }
func (e *Emitter) Language() string  { return "java" }
func (e *Emitter) Framework() string { return "spring-boot" }

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

	fingerprint := fileFingerprint(project.Target)

	dtoPkg := packageOrDefault(cfg.Target.Packages.DTO, "dto")
	dto := newDTORegistry(dtoPkg, fingerprint)

	var files []emit.GeneratedFile
	files = append(files, buildControllers(project, cfg, dto, fingerprint)...)
	files = append(files, dto.generatedFiles()...)

	authPkg := packageOrDefault(cfg.Target.Packages.Auth, "auth")
	for _, id := range project.AuthBlockOrder {
		block := project.AuthBlocks[id]
		files = append(files, authArtifacts(block, cfg, authPkg, fingerprint)...)
	}

	configPkg := packageOrDefault(cfg.Target.Packages.Config, "config")
	if mw := findMiddleware(project, "cors"); mw != nil {
		origin := "*"
		if v, ok := mw.Options.Get("origin"); ok {
			origin = javaGlobalOrLiteral(v)
		}
		files = append(files, corsConfigFiles(origin, cfg, configPkg, fingerprint)...)
	}

	yamlFile, err := applicationYAMLFile(project, cfg)
	if err != nil {
		return nil, err
	}
	files = append(files, yamlFile)

	return files, nil
}

// fileFingerprint returns a per-project, per-file deterministic fingerprint
// generator: a version-5 (SHA-1) UUID namespaced by the project's target
// name, so regenerating from the same source always reproduces the same
// "DO NOT EDIT" header and a different project never collides with another.
func fileFingerprint(target string) func(string) string {
	namespace := uuid.NewSHA1(uuid.NameSpaceOID, []byte("ymir:"+target))
	return func(name string) string {
		return uuid.NewSHA1(namespace, []byte(name)).String()
	}
}

// javaPackagePath converts a dotted Java package name into its Maven
// source directory, e.g. "com.example.dto" -> "src/main/java/com/example/dto".
func javaPackagePath(pkg string) string {
	path := "src/main/java"
	for _, seg := range splitPath(dotsToSlashes(pkg)) {
		path += "/" + seg
	}
	return path
}

func dotsToSlashes(pkg string) string {
	out := make([]byte, len(pkg))
	for i := 0; i < len(pkg); i++ {
		if pkg[i] == '.' {
			out[i] = '/'
		} else {
			out[i] = pkg[i]
		}
	}
	return string(out)
}

func findMiddleware(project *ast.Project, name string) *ast.Middleware {
	for _, mw := range project.Middlewares {
		if mw.Name == name {
			return mw
		}
	}
	return nil
}

// javaGlobalOrLiteral renders v as a Java expression: a `@env.NAME` global
// becomes a System.getenv call, anything else a quoted string literal.
func javaGlobalOrLiteral(v ast.OptionValue) string {
	if v.Kind == ast.KindGlobalVariable && v.Global.Name == "env" && len(v.Global.Path) > 0 {
		return fmt.Sprintf("System.getenv(%q)", v.Global.Path[len(v.Global.Path)-1])
	}
	if s, ok := v.AsString(); ok {
		return fmt.Sprintf("%q", s)
	}
	return `"*"`
}

func stringOption(m *ast.OrderedMap, key string) (string, bool) {
	v, ok := m.Get(key)
	if !ok {
		return "", false
	}
	return v.AsString()
}

func optionalString(m *ast.OrderedMap, key, def string) string {
	if s, ok := stringOption(m, key); ok {
		return s
	}
	return def
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
