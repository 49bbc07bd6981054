package diag

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ymir-lang/ymir/internal/source"
)

type mapLoader map[string]string

func (m mapLoader) ReadFile(path string) (string, error) {
	if text, ok := m[path]; ok {
		return text, nil
	}
	return "", &fileNotFoundError{path}
}

type fileNotFoundError struct{ path string }

func (e *fileNotFoundError) Error() string { return "no such file: " + e.path }

const sampleSource = "target T;\nrouter /api {\n  GET /x as X;\n  GET /y as Y;\n}\n"

func TestRenderer_Render_UnderlinesSpan(t *testing.T) {
	loader := mapLoader{"main.ymr": sampleSource}
	r := NewRenderer(loader)

	d := Diagnostic{
		Severity: SeverityError,
		Kind:     KindParse,
		Position: source.Position{File: "main.ymr", LineStart: 3, LineEnd: 3, ColStart: 3, ColEnd: 6},
		Message:  "unexpected token",
	}

	var buf bytes.Buffer
	if err := r.Render(&buf, d); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "unexpected token") {
		t.Errorf("missing summary line, got:\n%s", out)
	}
	if !strings.Contains(out, "GET /x as X;") {
		t.Errorf("missing offending line, got:\n%s", out)
	}
	if !strings.Contains(out, "^^^") {
		t.Errorf("missing caret underline, got:\n%s", out)
	}
}

func TestRenderer_Render_ClampsLeadingContext(t *testing.T) {
	loader := mapLoader{"main.ymr": sampleSource}
	r := NewRenderer(loader)

	d := Diagnostic{
		Position: source.Position{File: "main.ymr", LineStart: 1, LineEnd: 1, ColStart: 1, ColEnd: 7},
		Message:  "bad target",
	}

	var buf bytes.Buffer
	if err := r.Render(&buf, d); err != nil {
		t.Fatalf("Render: %v", err)
	}
	lineCount := strings.Count(buf.String(), "\n")
	if lineCount > 4 {
		t.Errorf("expected at most a handful of lines with no source above line 1, got %d:\n%s", lineCount, buf.String())
	}
}

func TestRenderer_Render_FallsBackWithoutFile(t *testing.T) {
	r := NewRenderer(mapLoader{})

	d := Diagnostic{Message: "synthetic error"}
	var buf bytes.Buffer
	if err := r.Render(&buf, d); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(buf.String(), "synthetic error") {
		t.Errorf("expected summary-only fallback, got:\n%s", buf.String())
	}
}

func TestRenderer_Render_UnreadableFileFallsBack(t *testing.T) {
	r := NewRenderer(mapLoader{})

	d := Diagnostic{
		Position: source.Position{File: "missing.ymr", LineStart: 1, ColStart: 1},
		Message:  "cannot reload",
	}
	var buf bytes.Buffer
	if err := r.Render(&buf, d); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(buf.String(), "cannot reload") {
		t.Errorf("expected summary fallback, got:\n%s", buf.String())
	}
}

func TestRenderer_RenderAll_SeparatesWithBlankLine(t *testing.T) {
	loader := mapLoader{"main.ymr": sampleSource}
	r := NewRenderer(loader)

	s := NewSink()
	s.Error(KindParse, source.Position{File: "main.ymr", LineStart: 3, ColStart: 3}, "first")
	s.Error(KindParse, source.Position{File: "main.ymr", LineStart: 4, ColStart: 3}, "second")

	var buf bytes.Buffer
	if err := r.RenderAll(&buf, s); err != nil {
		t.Fatalf("RenderAll: %v", err)
	}
	if !strings.Contains(buf.String(), "\n\n") {
		t.Errorf("expected a blank separator between diagnostics, got:\n%s", buf.String())
	}
}
