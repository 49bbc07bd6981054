// Package emit defines the emitter contract every backend/frontend target
// implements and the dispatcher that runs the targets a compile requested.
package emit

import (
	"fmt"

	"github.com/ymir-lang/ymir/internal/ast"
	"github.com/ymir-lang/ymir/internal/config"
)

// GeneratedFile is one output file, path relative to the target's output
// directory.
type GeneratedFile struct {
	Path    string
	Content []byte
}

// Emitter is a per-target code generator. Grounded on the teacher's
// internal/emitter.Emitter interface, generalized from one-file-per-spec
// output to Ymir's multi-file-per-target output.
type Emitter interface {
	Name() string
	Language() string
	Framework() string
	Emit(project *ast.Project, cfg *config.ProjectConfig) ([]GeneratedFile, error)
}

// AbortError unwinds an emitter on an unsupported construct (spec.md §7:
// "Emitters may abort on the first unsupported construct by raising a
// distinguished abort signal").
type AbortError struct {
	Target string
	Reason string
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("%s: aborting: %s", e.Target, e.Reason)
}

// Registry maps target names to the Emitter that handles them.
type Registry struct {
	emitters map[string]Emitter
	order    []string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{emitters: map[string]Emitter{}}
}

// Register adds e under e.Name(), replacing any existing emitter for that name.
func (r *Registry) Register(e Emitter) {
	if _, exists := r.emitters[e.Name()]; !exists {
		r.order = append(r.order, e.Name())
	}
	r.emitters[e.Name()] = e
}

// Get looks up an emitter by name.
func (r *Registry) Get(name string) (Emitter, bool) {
	e, ok := r.emitters[name]
	return e, ok
}

// List returns registered target names in registration order.
func (r *Registry) List() []string {
	return r.order
}

// Options configures a Dispatch call: which targets to run and the
// effective project config each emitter consults.
type Options struct {
	Targets []string
	Config  *config.ProjectConfig
}

// Dispatch runs every requested target against project, returning each
// target's generated files keyed by target name. It stops at the first
// emitter error (including an *AbortError).
func Dispatch(project *ast.Project, opts Options, registry *Registry) (map[string][]GeneratedFile, error) {
	out := make(map[string][]GeneratedFile, len(opts.Targets))
	for _, name := range opts.Targets {
		e, ok := registry.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown emission target: %s", name)
		}
		files, err := e.Emit(project, opts.Config)
		if err != nil {
			return nil, fmt.Errorf("emitting %s: %w", name, err)
		}
		out[name] = files
	}
	return out, nil
}
