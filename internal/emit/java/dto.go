package java

import (
	"fmt"

	"github.com/ymir-lang/ymir/internal/ast"
	"github.com/ymir-lang/ymir/internal/emit"
	"github.com/ymir-lang/ymir/internal/emit/java/classgen"
	"github.com/ymir-lang/ymir/internal/semantic"
)

// dtoRegistry generates DTO classes in the dto package, deduplicating by
// spec.md §4.4's middleware-option hash so two routes with identical body
// shapes share a single generated class.
type dtoRegistry struct {
	pkg         string
	fingerprint func(name string) string
	byHash      map[string]string
	usedNames   map[string]bool
	files       map[string]string
	order       []string
}

func newDTORegistry(pkg string, fingerprint func(name string) string) *dtoRegistry {
	return &dtoRegistry{
		pkg:         pkg,
		fingerprint: fingerprint,
		byHash:      map[string]string{},
		usedNames:   map[string]bool{},
		files:       map[string]string{},
	}
}

// getOrCreate returns the class name of the DTO for schema, generating one
// (and its file) the first time a given option-hash is seen.
func (r *dtoRegistry) getOrCreate(schema *ast.OrderedMap, preferredName string) string {
	hash := semantic.OptionHash(schema)
	if name, ok := r.byHash[hash]; ok {
		return name
	}
	name := r.uniqueName(preferredName)
	class := r.buildClass(name, schema)
	r.byHash[hash] = name
	r.files[name] = class.Render(r.fingerprint(name))
	r.order = append(r.order, name)
	return name
}

func (r *dtoRegistry) uniqueName(preferred string) string {
	name := preferred
	for i := 2; r.usedNames[name]; i++ {
		name = fmt.Sprintf("%s%d", preferred, i)
	}
	r.usedNames[name] = true
	return name
}

func (r *dtoRegistry) buildClass(name string, schema *ast.OrderedMap) *classgen.ClassBuilder {
	c := classgen.NewClass(r.pkg, name)
	for _, k := range schema.Keys() {
		v, _ := schema.Get(k)
		fieldName := ast.SanitizeIdent(k)
		switch v.Kind {
		case ast.KindMap:
			innerName := ast.Capitalize(fieldName)
			c.AddInner(r.buildClass(innerName, v.Map))
			c.AddField(classgen.NewField(innerName, fieldName).Public())
		case ast.KindString:
			c.AddField(classgen.NewField(javaTypeForKeyword(v.Str), fieldName).Public())
		default:
			c.AddField(classgen.NewField("Object", fieldName).Public())
		}
	}
	return c
}

func (r *dtoRegistry) generatedFiles() []emit.GeneratedFile {
	out := make([]emit.GeneratedFile, 0, len(r.order))
	pkgPath := javaPackagePath(r.pkg)
	for _, name := range r.order {
		out = append(out, emit.GeneratedFile{
			Path:    pkgPath + "/" + name + ".java",
			Content: []byte(r.files[name]),
		})
	}
	return out
}
