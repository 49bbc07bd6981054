// Package classgen implements spec.md §4.6's class/method/field builder
// IR: ClassBuilder, MethodBuilder, and FieldBuilder render a Java source
// file (or, for inner classes, a nested block within one).
package classgen

import (
	"fmt"
	"strings"
)

// Parameter is one method parameter, optionally annotated (e.g. @PathVariable).
type Parameter struct {
	Annotations []string
	Type        string
	Name        string
}

// MethodBuilder accumulates a single method's signature and body.
type MethodBuilder struct {
	Access      string
	ReturnType  string
	Name        string
	Params      []Parameter
	Annotations []string
	Throws      []string
	Comment     []string
	Body        []string
}

// NewMethod starts a method with the given access modifier ("public",
// "private", "" for an interface stub), return type, and name.
func NewMethod(access, returnType, name string) *MethodBuilder {
	return &MethodBuilder{Access: access, ReturnType: returnType, Name: name}
}

func (m *MethodBuilder) Param(typ, name string, annotations ...string) *MethodBuilder {
	m.Params = append(m.Params, Parameter{Type: typ, Name: name, Annotations: annotations})
	return m
}

func (m *MethodBuilder) Annotate(a string) *MethodBuilder {
	m.Annotations = append(m.Annotations, a)
	return m
}

func (m *MethodBuilder) Throw(t string) *MethodBuilder {
	m.Throws = append(m.Throws, t)
	return m
}

func (m *MethodBuilder) Line(l string) *MethodBuilder {
	m.Body = append(m.Body, l)
	return m
}

func (m *MethodBuilder) signature() string {
	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		prefix := ""
		if len(p.Annotations) > 0 {
			prefix = strings.Join(p.Annotations, " ") + " "
		}
		params[i] = fmt.Sprintf("%s%s %s", prefix, p.Type, p.Name)
	}
	throws := ""
	if len(m.Throws) > 0 {
		throws = " throws " + strings.Join(m.Throws, ", ")
	}
	return fmt.Sprintf("%s %s(%s)%s", m.ReturnType, m.Name, strings.Join(params, ", "), throws)
}

func (m *MethodBuilder) renderStub(sb *strings.Builder, indent string) {
	for _, c := range m.Comment {
		fmt.Fprintf(sb, "%s// %s\n", indent, c)
	}
	for _, a := range m.Annotations {
		fmt.Fprintf(sb, "%s%s\n", indent, a)
	}
	fmt.Fprintf(sb, "%s%s;\n\n", indent, m.signature())
}

func (m *MethodBuilder) renderBody(sb *strings.Builder, indent string) {
	for _, c := range m.Comment {
		fmt.Fprintf(sb, "%s// %s\n", indent, c)
	}
	for _, a := range m.Annotations {
		fmt.Fprintf(sb, "%s%s\n", indent, a)
	}
	access := m.Access
	if access != "" {
		access += " "
	}
	fmt.Fprintf(sb, "%s%s%s {\n", indent, access, m.signature())
	for _, l := range m.Body {
		fmt.Fprintf(sb, "%s    %s\n", indent, l)
	}
	fmt.Fprintf(sb, "%s}\n\n", indent)
}

// FieldBuilder accumulates a single field declaration.
type FieldBuilder struct {
	Access      string
	Type        string
	Name        string
	Annotations []string
	Initializer string
}

// NewField marks itself private, per spec.md §4.6's field-builder contract.
func NewField(typ, name string) *FieldBuilder {
	return &FieldBuilder{Access: "private", Type: typ, Name: name}
}

func (f *FieldBuilder) Annotate(a string) *FieldBuilder {
	f.Annotations = append(f.Annotations, a)
	return f
}

// Public overrides the default private access for DTO-style fields Jackson
// can bind without generated getters/setters.
func (f *FieldBuilder) Public() *FieldBuilder {
	f.Access = "public"
	return f
}

func (f *FieldBuilder) Init(expr string) *FieldBuilder {
	f.Initializer = expr
	return f
}

func (f *FieldBuilder) render(sb *strings.Builder, indent string) {
	for _, a := range f.Annotations {
		fmt.Fprintf(sb, "%s%s\n", indent, a)
	}
	if f.Initializer != "" {
		fmt.Fprintf(sb, "%s%s %s %s = %s;\n\n", indent, f.Access, f.Type, f.Name, f.Initializer)
		return
	}
	fmt.Fprintf(sb, "%s%s %s %s;\n\n", indent, f.Access, f.Type, f.Name)
}

// ClassBuilder accumulates a Java class or interface: package, deduplicated
// imports (order preserved), annotations, deduplicated-by-name fields,
// methods, inner classes, and an implements/extends list.
type ClassBuilder struct {
	Package     string
	Name        string
	IsInterface bool
	Imports     []string
	Annotations []string
	Fields      []*FieldBuilder
	Methods     []*MethodBuilder
	Inner       []*ClassBuilder
	Implements  []string
	Comment     string

	importSet map[string]bool
	fieldSet  map[string]bool
}

func NewClass(pkg, name string) *ClassBuilder {
	return &ClassBuilder{Package: pkg, Name: name, importSet: map[string]bool{}, fieldSet: map[string]bool{}}
}

func NewInterface(pkg, name string) *ClassBuilder {
	c := NewClass(pkg, name)
	c.IsInterface = true
	return c
}

func (c *ClassBuilder) Import(path string) *ClassBuilder {
	if c.importSet == nil {
		c.importSet = map[string]bool{}
	}
	if !c.importSet[path] {
		c.importSet[path] = true
		c.Imports = append(c.Imports, path)
	}
	return c
}

func (c *ClassBuilder) Annotate(a string) *ClassBuilder {
	c.Annotations = append(c.Annotations, a)
	return c
}

func (c *ClassBuilder) Implement(name string) *ClassBuilder {
	c.Implements = append(c.Implements, name)
	return c
}

// AddField adds f, deduplicated by name; a no-op on an interface (fields
// have no place in an interface stub here).
func (c *ClassBuilder) AddField(f *FieldBuilder) *ClassBuilder {
	if c.IsInterface {
		return c
	}
	if c.fieldSet == nil {
		c.fieldSet = map[string]bool{}
	}
	if c.fieldSet[f.Name] {
		return c
	}
	c.fieldSet[f.Name] = true
	c.Fields = append(c.Fields, f)
	return c
}

func (c *ClassBuilder) AddMethod(m *MethodBuilder) *ClassBuilder {
	c.Methods = append(c.Methods, m)
	return c
}

// AddInner adds a nested static class; rejected on an interface.
func (c *ClassBuilder) AddInner(inner *ClassBuilder) *ClassBuilder {
	if c.IsInterface {
		return c
	}
	c.Inner = append(c.Inner, inner)
	return c
}

// Render produces the complete Java source file for this class or
// interface. fingerprint is embedded in the leading auto-generated comment.
func (c *ClassBuilder) Render(fingerprint string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "// Code generated by ymir (%s). DO NOT EDIT.\n", fingerprint)
	if c.Comment != "" {
		fmt.Fprintf(&sb, "// %s\n", c.Comment)
	}
	fmt.Fprintf(&sb, "package %s;\n\n", c.Package)
	for _, imp := range c.Imports {
		fmt.Fprintf(&sb, "import %s;\n", imp)
	}
	if len(c.Imports) > 0 {
		sb.WriteString("\n")
	}
	for _, a := range c.Annotations {
		fmt.Fprintf(&sb, "%s\n", a)
	}

	kind := "class"
	if c.IsInterface {
		kind = "interface"
	}
	header := fmt.Sprintf("public %s %s", kind, c.Name)
	if len(c.Implements) > 0 {
		verb := "implements"
		if c.IsInterface {
			verb = "extends"
		}
		header += " " + verb + " " + strings.Join(c.Implements, ", ")
	}
	fmt.Fprintf(&sb, "%s {\n\n", header)

	for _, f := range c.Fields {
		f.render(&sb, "    ")
	}
	for _, m := range c.Methods {
		if c.IsInterface {
			m.renderStub(&sb, "    ")
		} else {
			m.renderBody(&sb, "    ")
		}
	}
	for _, inner := range c.Inner {
		inner.renderInner(&sb, "    ")
	}

	sb.WriteString("}\n")
	return sb.String()
}

func (c *ClassBuilder) renderInner(sb *strings.Builder, indent string) {
	header := fmt.Sprintf("%spublic static class %s", indent, c.Name)
	if len(c.Implements) > 0 {
		header += " implements " + strings.Join(c.Implements, ", ")
	}
	fmt.Fprintf(sb, "%s {\n\n", header)
	for _, f := range c.Fields {
		f.render(sb, indent+"    ")
	}
	for _, m := range c.Methods {
		m.renderBody(sb, indent+"    ")
	}
	for _, inner := range c.Inner {
		inner.renderInner(sb, indent+"    ")
	}
	fmt.Fprintf(sb, "%s}\n\n", indent)
}
