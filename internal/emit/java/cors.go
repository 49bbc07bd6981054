package java

import (
	"fmt"

	"github.com/ymir-lang/ymir/internal/config"
	"github.com/ymir-lang/ymir/internal/emit"
	"github.com/ymir-lang/ymir/internal/emit/java/classgen"
)

// corsConfigFiles emits the Spring MVC CorsConfiguration bean a project's
// `use cors(...)` middleware lowers to, plus a Spring-Security variant when
// cfg.Target.UseSpringSecurity requests it.
func corsConfigFiles(origin string, cfg *config.ProjectConfig, pkg string, fingerprint func(string) string) []emit.GeneratedFile {
	var files []emit.GeneratedFile

	mvc := classgen.NewClass(pkg, "CorsConfigurationMVC")
	mvc.Annotate("@Configuration")
	mvc.Import("org.springframework.context.annotation.Configuration")
	mvc.Import("org.springframework.web.servlet.config.annotation.CorsRegistry")
	mvc.Import("org.springframework.web.servlet.config.annotation.WebMvcConfigurer")
	mvc.Implement("WebMvcConfigurer")

	addCors := classgen.NewMethod("public", "void", "addCorsMappings").
		Param("CorsRegistry", "registry").Annotate("@Override")
	addCors.Line(fmt.Sprintf("registry.addMapping(\"/**\").allowedOrigins(%s);", origin))
	mvc.AddMethod(addCors)

	files = append(files, emit.GeneratedFile{
		Path:    javaPackagePath(pkg) + "/CorsConfigurationMVC.java",
		Content: []byte(mvc.Render(fingerprint("CorsConfigurationMVC"))),
	})

	if !cfg.Target.UseSpringSecurity {
		return files
	}

	sec := classgen.NewClass(pkg, "CorsConfiguration")
	sec.Annotate("@Configuration")
	sec.Import("org.springframework.context.annotation.Bean")
	sec.Import("org.springframework.context.annotation.Configuration")
	sec.Import("org.springframework.web.cors.CorsConfigurationSource")
	sec.Import("org.springframework.web.cors.UrlBasedCorsConfigurationSource")

	bean := classgen.NewMethod("public", "CorsConfigurationSource", "corsConfigurationSource")
	bean.Annotate("@Bean")
	bean.Line("var configuration = new org.springframework.web.cors.CorsConfiguration();")
	bean.Line(fmt.Sprintf("configuration.setAllowedOrigins(java.util.List.of(%s));", origin))
	bean.Line("configuration.setAllowedMethods(java.util.List.of(\"GET\", \"POST\", \"PUT\", \"DELETE\", \"PATCH\", \"OPTIONS\"));")
	bean.Line("configuration.setAllowedHeaders(java.util.List.of(\"*\"));")
	bean.Line("var source = new UrlBasedCorsConfigurationSource();")
	bean.Line("source.registerCorsConfiguration(\"/**\", configuration);")
	bean.Line("return source;")
	sec.AddMethod(bean)

	files = append(files, emit.GeneratedFile{
		Path:    javaPackagePath(pkg) + "/CorsConfiguration.java",
		Content: []byte(sec.Render(fingerprint("CorsConfiguration"))),
	})

	return files
}
