package diag

import (
	"fmt"
	"io"
	"strings"
)

// SourceLoader reloads a file's text by name, for Renderer to pull context
// lines from. A driver backs this with os.ReadFile; tests back it with an
// in-memory map.
type SourceLoader interface {
	ReadFile(path string) (string, error)
}

// Renderer formats diagnostics with surrounding source context: ~5 lines
// before the span, the span itself underlined, and 1 line after. It lives
// outside internal/diag's core (which only records and queries
// diagnostics) because rendering needs to reload source text, a
// driver-level concern spec.md §4.3 does not ask the core to own.
type Renderer struct {
	loader SourceLoader
	cache  map[string][]string
}

// NewRenderer returns a Renderer that reloads source files via loader.
func NewRenderer(loader SourceLoader) *Renderer {
	return &Renderer{loader: loader, cache: map[string][]string{}}
}

const (
	linesBefore = 5
	linesAfter  = 1
)

// Render writes d to w: its one-line summary, then up to linesBefore lines
// of context, the offending line with a caret span underneath it, then up
// to linesAfter lines of trailing context. If d's position carries no file
// or the file cannot be reloaded, Render falls back to the summary line
// alone.
func (r *Renderer) Render(w io.Writer, d Diagnostic) error {
	if _, err := fmt.Fprintln(w, d.String()); err != nil {
		return err
	}
	if d.Position.File == "" || !d.Position.Valid() {
		return nil
	}

	lines, err := r.linesOf(d.Position.File)
	if err != nil {
		return nil
	}

	target := d.Position.LineStart
	start := target - linesBefore
	if start < 1 {
		start = 1
	}
	end := d.Position.LineEnd
	if end < target {
		end = target
	}
	end += linesAfter
	if end > len(lines) {
		end = len(lines)
	}

	gutterWidth := len(fmt.Sprintf("%d", end))
	for n := start; n <= end; n++ {
		text := lines[n-1]
		if _, err := fmt.Fprintf(w, "%*d | %s\n", gutterWidth, n, text); err != nil {
			return err
		}
		if n == target {
			underline := caretLine(text, d.Position.ColStart, d.Position.ColEnd)
			if _, err := fmt.Fprintf(w, "%s | %s\n", strings.Repeat(" ", gutterWidth), underline); err != nil {
				return err
			}
		}
	}
	return nil
}

// RenderAll renders every diagnostic in s, separated by a blank line.
func (r *Renderer) RenderAll(w io.Writer, s *Sink) error {
	for i, d := range s.Diagnostics() {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := r.Render(w, d); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) linesOf(file string) ([]string, error) {
	if lines, ok := r.cache[file]; ok {
		return lines, nil
	}
	text, err := r.loader.ReadFile(file)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(text, "\n")
	r.cache[file] = lines
	return lines, nil
}

// caretLine builds a "    ^^^^" underline beneath text spanning
// [colStart, colEnd), clamped to text's length. Columns are 1-based, the
// same convention source.Position uses.
func caretLine(text string, colStart, colEnd int) string {
	if colStart < 1 {
		colStart = 1
	}
	if colEnd <= colStart {
		colEnd = colStart + 1
	}
	width := colEnd - colStart
	if width < 1 {
		width = 1
	}
	lead := colStart - 1
	if lead > len(text) {
		lead = len(text)
	}
	return strings.Repeat(" ", lead) + strings.Repeat("^", width)
}
