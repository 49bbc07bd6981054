// Package diag accumulates lex/parse/semantic diagnostics for a single
// compile. It is the core's only channel for errors meant to be read by the
// Ymir script author, as opposed to Go errors returned to the caller.
package diag

import (
	"fmt"

	"github.com/ymir-lang/ymir/internal/source"
)

// Severity classifies a Diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Kind names the category of a diagnostic, used by callers that need to
// branch on the error family (e.g. IncludeError cycle detection).
type Kind string

const (
	KindLex      Kind = "LexError"
	KindParse    Kind = "ParseError"
	KindSemantic Kind = "SemanticError"
	KindInclude  Kind = "IncludeError"
	KindEmission Kind = "EmissionError"
	KindConfig   Kind = "ConfigError"
)

// Diagnostic is a single accumulated error or warning.
type Diagnostic struct {
	Severity Severity
	Kind     Kind
	Position source.Position
	Message  string
	Hint     string
}

func (d Diagnostic) String() string {
	if d.Hint != "" {
		return fmt.Sprintf("%s: %s: %s (hint: %s)", d.Position, d.Severity, d.Message, d.Hint)
	}
	return fmt.Sprintf("%s: %s: %s", d.Position, d.Severity, d.Message)
}

// Sink records diagnostics in insertion order for a single compile.
type Sink struct {
	diagnostics []Diagnostic
	errors      int
	warnings    int
}

// NewSink returns an empty Sink.
func NewSink() *Sink {
	return &Sink{}
}

// Error records an error-severity diagnostic.
func (s *Sink) Error(kind Kind, pos source.Position, message string, hint ...string) {
	s.add(Diagnostic{Severity: SeverityError, Kind: kind, Position: pos, Message: message, Hint: firstHint(hint)})
}

// Warning records a warning-severity diagnostic.
func (s *Sink) Warning(kind Kind, pos source.Position, message string, hint ...string) {
	s.add(Diagnostic{Severity: SeverityWarning, Kind: kind, Position: pos, Message: message, Hint: firstHint(hint)})
}

func firstHint(hint []string) string {
	if len(hint) == 0 {
		return ""
	}
	return hint[0]
}

func (s *Sink) add(d Diagnostic) {
	s.diagnostics = append(s.diagnostics, d)
	if d.Severity == SeverityError {
		s.errors++
	} else {
		s.warnings++
	}
}

// Diagnostics returns all recorded diagnostics in insertion order.
func (s *Sink) Diagnostics() []Diagnostic {
	return s.diagnostics
}

// ErrorCount returns the number of error-severity diagnostics.
func (s *Sink) ErrorCount() int {
	return s.errors
}

// WarningCount returns the number of warning-severity diagnostics.
func (s *Sink) WarningCount() int {
	return s.warnings
}

// HasErrors reports whether any error-severity diagnostic was recorded.
func (s *Sink) HasErrors() bool {
	return s.errors > 0
}
