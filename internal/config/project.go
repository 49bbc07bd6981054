// Package config loads ymir.json, the project configuration file spec.md
// §6 describes, beside a script's entry file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"dario.cat/mergo"
)

// BearerAuthMode mirrors spec.md §6's generateBearerAuth enum.
type BearerAuthMode string

const (
	BearerAuthNone  BearerAuthMode = "NONE"
	BearerAuthBasic BearerAuthMode = "BASIC"
	BearerAuthFull  BearerAuthMode = "FULL"
)

// JavaPackages names the package for each generated Java source group.
type JavaPackages struct {
	Main       string `json:"main,omitempty"`
	DTO        string `json:"dto,omitempty"`
	Config     string `json:"config,omitempty"`
	Controller string `json:"controller,omitempty"`
	Auth       string `json:"auth,omitempty"`
}

// TargetConfig is target-specific configuration (currently Java/Spring).
type TargetConfig struct {
	Packages          JavaPackages `json:"packages,omitempty"`
	UseSpringSecurity bool         `json:"useSpringSecurity,omitempty"`
	AppendRequest     bool         `json:"appendRequest,omitempty"`
}

// FrontendConfig controls the optional static-HTML frontend emitter.
type FrontendConfig struct {
	Mode   string `json:"mode,omitempty"`
	Output string `json:"output,omitempty"`
}

// ProjectConfig is the parsed shape of ymir.json. All fields are optional.
type ProjectConfig struct {
	Output             string          `json:"output,omitempty"`
	Debug              bool            `json:"debug,omitempty"`
	DetailedErrors     bool            `json:"detailedErrors,omitempty"`
	Target             TargetConfig    `json:"target,omitempty"`
	GenerateBearerAuth BearerAuthMode  `json:"generateBearerAuth,omitempty"`
	Frontend           *FrontendConfig `json:"frontend,omitempty"`
}

// DefaultProjectConfig returns the defaults spec.md §6 names.
func DefaultProjectConfig() *ProjectConfig {
	return &ProjectConfig{
		Output:             "build",
		Debug:              false,
		DetailedErrors:     false,
		GenerateBearerAuth: BearerAuthNone,
	}
}

// Load reads ymir.json from dir, merging it over DefaultProjectConfig with
// user values taking precedence (dario.cat/mergo, mergo.WithOverride). A
// missing file is not an error — the defaults are returned as-is.
func Load(dir string) (*ProjectConfig, error) {
	path := filepath.Join(dir, "ymir.json")
	cfg := DefaultProjectConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var overrides ProjectConfig
	if err := json.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := mergo.Merge(cfg, overrides, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("merging %s over defaults: %w", path, err)
	}
	return cfg, nil
}

// Valid reports whether GenerateBearerAuth holds a recognized value.
func (c *ProjectConfig) Valid() error {
	switch c.GenerateBearerAuth {
	case BearerAuthNone, BearerAuthBasic, BearerAuthFull, "":
		return nil
	default:
		return fmt.Errorf("generateBearerAuth: invalid value %q", c.GenerateBearerAuth)
	}
}
