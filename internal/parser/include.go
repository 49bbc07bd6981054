package parser

import (
	"path/filepath"

	"github.com/ymir-lang/ymir/internal/ast"
	"github.com/ymir-lang/ymir/internal/diag"
	"github.com/ymir-lang/ymir/internal/lexer"
	"github.com/ymir-lang/ymir/internal/token"
)

// FileProvider resolves an include path to source text. The core parser
// never touches a filesystem directly; the driver supplies an
// implementation backed by os.ReadFile.
type FileProvider interface {
	ReadFile(path string) (string, error)
}

// resolveIncludePath joins rel against the directory of the file that
// contains the include directive.
func resolveIncludePath(currentFile, rel string) string {
	return filepath.Join(filepath.Dir(currentFile), rel)
}

// parseInclude handles `include STRING ";"`, lexing and parsing the target
// file as a sibling body of router: its routers, routes, and nested
// includes are appended directly; use/auth inside it are still validated
// against atProjectScope, same as the including file.
func (p *Parser) parseInclude(router *ast.Router, project *ast.Project, atProjectScope bool) {
	kw := p.advance() // 'include'
	pathTok, ok := p.match(token.String, false, "expected a quoted include path")
	p.optionalSemicolon()
	if !ok {
		return
	}

	resolved := resolveIncludePath(p.file, pathTok.StringValue)

	for _, f := range p.fileStack {
		if f == resolved {
			p.diag.Error(diag.KindInclude, pathTok.Position, "include cycle detected: "+resolved)
			return
		}
	}

	if p.provider == nil {
		p.diag.Error(diag.KindInclude, pathTok.Position, "no file provider configured for include resolution")
		return
	}

	src, err := p.provider.ReadFile(resolved)
	if err != nil {
		p.diag.Error(diag.KindInclude, pathTok.Position, "cannot read included file: "+resolved, err.Error())
		return
	}

	toks, comments := lexer.New(resolved, src).Tokenize()
	sub := &Parser{
		tokens:    toks,
		file:      resolved,
		diag:      p.diag,
		comments:  comments,
		provider:  p.provider,
		fileStack: append(append([]string{}, p.fileStack...), resolved),
		policy:    p.policy,
	}
	_ = kw
	sub.parseBlockItems(sub.atEOF, router, project, atProjectScope)
}
