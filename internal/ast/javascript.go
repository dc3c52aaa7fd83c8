package ast

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

//go:embed queries/javascript/tags.scm
var javascriptTagsQuery []byte

// JavaScriptParser implements Parser for JavaScript source, including tags
// and import bindings (ES imports, re-exports, and CommonJS require()).
type JavaScriptParser struct {
	logger *slog.Logger
	lang   *sitter.Language
	query  *sitter.Query
}

// NewJavaScriptParser compiles the JavaScript tags query once.
func NewJavaScriptParser(opts ...ParserOption) (*JavaScriptParser, error) {
	o := defaultParserOptions()
	for _, fn := range opts {
		fn(&o)
	}
	lang := javascript.GetLanguage()
	q, err := compileQuery(lang, LanguageJavaScript, javascriptTagsQuery, o.logger)
	if err != nil {
		return nil, fmt.Errorf("compile javascript query: %w", err)
	}
	return &JavaScriptParser{logger: o.logger, lang: lang, query: q}, nil
}

// Language implements Parser.
func (p *JavaScriptParser) Language() Language { return LanguageJavaScript }

// Parse implements Parser.
func (p *JavaScriptParser) Parse(ctx context.Context, content []byte, relPath string) (*ParseResult, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(p.lang)
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", relPath, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	tags := extractTags(p.query, root, content)
	imports := walkTopLevelImports(root, content)
	return &ParseResult{Tags: tags, Imports: imports}, nil
}
