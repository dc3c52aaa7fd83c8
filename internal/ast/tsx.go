package ast

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
)

//go:embed queries/tsx/tags.scm
var tsxTagsQuery []byte

// TSXParser implements Parser for TypeScript+JSX source.
type TSXParser struct {
	logger *slog.Logger
	lang   *sitter.Language
	query  *sitter.Query
}

// NewTSXParser compiles the TSX tags query once.
func NewTSXParser(opts ...ParserOption) (*TSXParser, error) {
	o := defaultParserOptions()
	for _, fn := range opts {
		fn(&o)
	}
	lang := tsx.GetLanguage()
	q, err := compileQuery(lang, LanguageTSX, tsxTagsQuery, o.logger)
	if err != nil {
		return nil, fmt.Errorf("compile tsx query: %w", err)
	}
	return &TSXParser{logger: o.logger, lang: lang, query: q}, nil
}

// Language implements Parser.
func (p *TSXParser) Language() Language { return LanguageTSX }

// Parse implements Parser.
func (p *TSXParser) Parse(ctx context.Context, content []byte, relPath string) (*ParseResult, error) {
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
