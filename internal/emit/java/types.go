package java

import "github.com/ymir-lang/ymir/internal/ast"

// javaTypeForParam maps spec.md §3's ParamType enum to the Java type
// spec.md §4.6 names for @RequestParam/@PathVariable translation.
func javaTypeForParam(t ast.ParamType) string {
	switch t {
	case ast.TypeString:
		return "String"
	case ast.TypeInt:
		return "long"
	case ast.TypeFloat:
		return "double"
	case ast.TypeBool:
		return "boolean"
	case ast.TypeDate:
		return "java.time.LocalDate"
	case ast.TypeDatetime:
		return "java.time.LocalDateTime"
	case ast.TypeTime:
		return "java.time.LocalTime"
	default:
		return "Object"
	}
}

// javaTypeForKeyword maps a header/body schema field's type keyword (stored
// as an ast.OptionValue string, per the parser's "type keywords parse as
// string options" rule) to the same Java type mapping javaTypeForParam uses.
func javaTypeForKeyword(kw string) string {
	switch kw {
	case "string":
		return "String"
	case "int":
		return "long"
	case "float":
		return "double"
	case "bool", "boolean":
		return "boolean"
	case "date":
		return "java.time.LocalDate"
	case "datetime":
		return "java.time.LocalDateTime"
	case "time":
		return "java.time.LocalTime"
	default:
		return "Object"
	}
}

func springMethodAnnotation(m ast.Method) string {
	switch m {
	case ast.GET:
		return "@GetMapping"
	case ast.POST:
		return "@PostMapping"
	case ast.PUT:
		return "@PutMapping"
	case ast.DELETE:
		return "@DeleteMapping"
	case ast.PATCH:
		return "@PatchMapping"
	default:
		return "@RequestMapping"
	}
}

func springMethodImport(m ast.Method) string {
	switch m {
	case ast.GET:
		return "org.springframework.web.bind.annotation.GetMapping"
	case ast.POST:
		return "org.springframework.web.bind.annotation.PostMapping"
	case ast.PUT:
		return "org.springframework.web.bind.annotation.PutMapping"
	case ast.DELETE:
		return "org.springframework.web.bind.annotation.DeleteMapping"
	case ast.PATCH:
		return "org.springframework.web.bind.annotation.PatchMapping"
	default:
		return "org.springframework.web.bind.annotation.RequestMapping"
	}
}

// springPath translates `:name` path variables to Spring's `{name}` form.
func springPath(raw string) string {
	segs := splitPath(raw)
	for i, s := range segs {
		if len(s) > 0 && s[0] == ':' {
			segs[i] = "{" + s[1:] + "}"
		}
	}
	joined := "/"
	for i, s := range segs {
		if i > 0 {
			joined += "/"
		}
		joined += s
	}
	return joined
}

func splitPath(raw string) []string {
	var segs []string
	start := 0
	for i := 0; i < len(raw); i++ {
		if raw[i] == '/' {
			if i > start {
				segs = append(segs, raw[start:i])
			}
			start = i + 1
		}
	}
	if start < len(raw) {
		segs = append(segs, raw[start:])
	}
	return segs
}
