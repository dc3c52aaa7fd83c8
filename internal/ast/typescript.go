package ast

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

//go:embed queries/typescript/tags.scm
var typescriptTagsQuery []byte

// TypeScriptParser implements Parser for TypeScript (non-JSX) source.
type TypeScriptParser struct {
	logger *slog.Logger
	lang   *sitter.Language
	query  *sitter.Query
}

// NewTypeScriptParser compiles the TypeScript tags query once.
func NewTypeScriptParser(opts ...ParserOption) (*TypeScriptParser, error) {
	o := defaultParserOptions()
	for _, fn := range opts {
		fn(&o)
	}
	lang := typescript.GetLanguage()
	q, err := compileQuery(lang, LanguageTypeScript, typescriptTagsQuery, o.logger)
	if err != nil {
		return nil, fmt.Errorf("compile typescript query: %w", err)
	}
	return &TypeScriptParser{logger: o.logger, lang: lang, query: q}, nil
}

// Language implements Parser.
func (p *TypeScriptParser) Language() Language { return LanguageTypeScript }

// Parse implements Parser.
func (p *TypeScriptParser) Parse(ctx context.Context, content []byte, relPath string) (*ParseResult, error) {
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
