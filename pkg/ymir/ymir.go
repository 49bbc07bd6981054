// Package ymir is the compiler's public entry point: load ymir.json, parse
// and resolve includes, validate the project, and dispatch to the
// requested emission targets. Grounded on
// xxxbrian-openapi-rpc-codegen/pkg/codegen/generate.go's
// load → normalize → emit.Dispatch shape, generalized from a single
// OpenAPI-to-IR pass to Ymir's lex → parse → semantic-walk → emit pipeline.
package ymir

import (
	"fmt"
	"os"

	"github.com/ymir-lang/ymir/internal/ast"
	"github.com/ymir-lang/ymir/internal/config"
	"github.com/ymir-lang/ymir/internal/diag"
	"github.com/ymir-lang/ymir/internal/emit"
	"github.com/ymir-lang/ymir/internal/emit/common"
	"github.com/ymir-lang/ymir/internal/emit/express"
	"github.com/ymir-lang/ymir/internal/emit/frontend"
	"github.com/ymir-lang/ymir/internal/emit/goserver"
	"github.com/ymir-lang/ymir/internal/emit/java"
	"github.com/ymir-lang/ymir/internal/parser"
)

// Options configures a Compile call.
type Options struct {
	// EntryFile is the root .ymr script to parse.
	EntryFile string
	// ProjectDir is the directory ymir.json is read from. Defaults to
	// EntryFile's directory when empty.
	ProjectDir string
	// Targets lists the emission targets to run (e.g. "express", "java",
	// "go-chi", "frontend"). Empty means every registered target.
	Targets []string
	// OutDir overrides config.ProjectConfig.Output when non-empty.
	OutDir string
	// Check, when true, reports which files would change without writing
	// them.
	Check bool
	// Write, when true, persists generated files under OutDir. When
	// false, Compile only returns them in Result.Files.
	Write bool
}

// Result is everything a compile produced.
type Result struct {
	Project     *ast.Project
	Diagnostics []diag.Diagnostic
	Files       map[string][]emit.GeneratedFile
	Changed     []string
}

// osFileProvider resolves include paths against the local filesystem, the
// only FileProvider implementation the core parser needs outside of tests.
type osFileProvider struct{}

func (osFileProvider) ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DefaultRegistry returns a Registry with every built-in emitter
// registered: the Express/Node and Java/Spring targets spec.md §4 names,
// plus the go-chi and static-HTML targets this compiler supplements.
func DefaultRegistry() *emit.Registry {
	r := emit.NewRegistry()
	r.Register(&express.Emitter{})
	r.Register(&java.Emitter{})
	r.Register(&goserver.Emitter{})
	r.Register(&frontend.Emitter{})
	return r
}

// Compile runs the full pipeline: parse opts.EntryFile (resolving includes
// against the local filesystem), load and merge ymir.json from
// opts.ProjectDir, then dispatch to opts.Targets (or every registered
// target, if empty).
func Compile(opts Options) (*Result, error) {
	if opts.EntryFile == "" {
		return nil, fmt.Errorf("entry file is required")
	}

	sink := diag.NewSink()
	project, err := parser.ParseFile(osFileProvider{}, opts.EntryFile, parser.CancelOnFirstError, sink)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", opts.EntryFile, err)
	}
	result := &Result{Diagnostics: sink.Diagnostics()}
	if project == nil {
		return result, fmt.Errorf("parsing %s: %d error(s)", opts.EntryFile, sink.ErrorCount())
	}
	result.Project = project

	projectDir := opts.ProjectDir
	if projectDir == "" {
		projectDir = dirOf(opts.EntryFile)
	}
	cfg, err := config.Load(projectDir)
	if err != nil {
		return result, fmt.Errorf("loading ymir.json: %w", err)
	}
	if err := cfg.Valid(); err != nil {
		return result, fmt.Errorf("invalid ymir.json: %w", err)
	}
	if opts.OutDir != "" {
		cfg.Output = opts.OutDir
	}

	registry := DefaultRegistry()
	targets := opts.Targets
	if len(targets) == 0 {
		targets = registry.List()
	}

	files, err := emit.Dispatch(project, emit.Options{Targets: targets, Config: cfg}, registry)
	if err != nil {
		return result, err
	}
	result.Files = files

	if opts.Write {
		for target, tfiles := range files {
			changed, err := common.WriteAll(targetOutDir(cfg.Output, target), tfiles, common.WriteOptions{Check: opts.Check})
			if err != nil {
				return result, fmt.Errorf("writing %s output: %w", target, err)
			}
			result.Changed = append(result.Changed, changed...)
		}
	}

	return result, nil
}

func targetOutDir(base, target string) string {
	if base == "" {
		base = "build"
	}
	return base + "/" + target
}

func dirOf(file string) string {
	for i := len(file) - 1; i >= 0; i-- {
		if file[i] == '/' {
			return file[:i]
		}
	}
	return "."
}
