package ast

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

//go:embed queries/python/tags.scm
var pythonTagsQuery []byte

// PythonParser implements Parser for Python source. Python has no
// ImportBinding extraction per §4.2 ("Imports (non-Python only)"); Python
// cross-file references are resolved purely by the fallback name-match
// semantics in graph builder Phase C.
type PythonParser struct {
	logger *slog.Logger
	lang   *sitter.Language
	query  *sitter.Query
}

// NewPythonParser compiles the Python tags query once and returns a parser
// ready for concurrent use (each Parse call owns its own *sitter.Parser and
// *sitter.Tree; the compiled Language and Query are shared, immutable
// handles per §5's "global parser cache" design note).
func NewPythonParser(opts ...ParserOption) (*PythonParser, error) {
	o := defaultParserOptions()
	for _, fn := range opts {
		fn(&o)
	}
	lang := python.GetLanguage()
	q, err := compileQuery(lang, LanguagePython, pythonTagsQuery, o.logger)
	if err != nil {
		return nil, fmt.Errorf("compile python query: %w", err)
	}
	return &PythonParser{logger: o.logger, lang: lang, query: q}, nil
}

// Language implements Parser.
func (p *PythonParser) Language() Language { return LanguagePython }

// Parse implements Parser.
func (p *PythonParser) Parse(ctx context.Context, content []byte, relPath string) (*ParseResult, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(p.lang)
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", relPath, err)
	}
	defer tree.Close()

	tags := extractTags(p.query, tree.RootNode(), content)
	return &ParseResult{Tags: tags}, nil
}
