package ast

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// LanguageForPath maps a repository-relative path to a supported Language
// by extension, per §1's language list. Returns ("", false) for anything
// else, which Source Discovery (internal/discovery) uses to exclude files.
func LanguageForPath(relPath string) (Language, bool) {
	switch strings.ToLower(filepath.Ext(relPath)) {
	case ".py":
		return LanguagePython, true
	case ".js", ".jsx", ".mjs", ".cjs":
		return LanguageJavaScript, true
	case ".ts", ".mts", ".cts":
		return LanguageTypeScript, true
	case ".tsx":
		return LanguageTSX, true
	default:
		return "", false
	}
}

// Pool holds one Parser and one compiled Query per supported language,
// cached process-wide per §5's "Shared resources" note: parser handles are
// reused across files, but every Parse call gets its own *sitter.Parser /
// *sitter.Tree, so the Pool itself is safe for concurrent use from the
// bounded worker pool in internal/index (FileIndex.Build).
type Pool struct {
	parsers map[Language]Parser
}

// NewPool constructs a Pool with one parser per supported language.
func NewPool(opts ...ParserOption) (*Pool, error) {
	py, err := NewPythonParser(opts...)
	if err != nil {
		return nil, fmt.Errorf("new python parser: %w", err)
	}
	js, err := NewJavaScriptParser(opts...)
	if err != nil {
		return nil, fmt.Errorf("new javascript parser: %w", err)
	}
	ts, err := NewTypeScriptParser(opts...)
	if err != nil {
		return nil, fmt.Errorf("new typescript parser: %w", err)
	}
	tsxP, err := NewTSXParser(opts...)
	if err != nil {
		return nil, fmt.Errorf("new tsx parser: %w", err)
	}
	return &Pool{parsers: map[Language]Parser{
		LanguagePython:     py,
		LanguageJavaScript: js,
		LanguageTypeScript: ts,
		LanguageTSX:        tsxP,
	}}, nil
}

// Parse dispatches to the Parser registered for lang.
func (p *Pool) Parse(ctx context.Context, lang Language, content []byte, relPath string) (*ParseResult, error) {
	parser, ok := p.parsers[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
	}
	return parser.Parse(ctx, content, relPath)
}
