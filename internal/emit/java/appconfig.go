package java

import (
	"gopkg.in/yaml.v3"

	"github.com/ymir-lang/ymir/internal/ast"
	"github.com/ymir-lang/ymir/internal/config"
	"github.com/ymir-lang/ymir/internal/emit"
)

type yamlServerConfig struct {
	Port int `yaml:"port"`
}

type yamlApplicationConfig struct {
	Name string `yaml:"name"`
}

type yamlSpringConfig struct {
	Application yamlApplicationConfig `yaml:"application"`
}

type yamlRootConfig struct {
	Server yamlServerConfig `yaml:"server"`
	Spring yamlSpringConfig `yaml:"spring"`
}

// applicationYAMLFile renders src/main/resources/application.yml via
// gopkg.in/yaml.v3, the port and application name spec.md §6's project
// config (or its "8080"/"ymir-app" defaults) supplies.
func applicationYAMLFile(project *ast.Project, cfg *config.ProjectConfig) (emit.GeneratedFile, error) {
	name := project.Target
	if name == "" {
		name = "ymir-app"
	}
	root := yamlRootConfig{
		Server: yamlServerConfig{Port: 8080},
		Spring: yamlSpringConfig{Application: yamlApplicationConfig{Name: name}},
	}
	data, err := yaml.Marshal(root)
	if err != nil {
		return emit.GeneratedFile{}, err
	}
	return emit.GeneratedFile{
		Path:    "src/main/resources/application.yml",
		Content: data,
	}, nil
}
