package ast

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

// fallbackQuery is the built-in minimal query used per §4.2 when a
// language's shipped query file fails to compile against the grammar the
// binary was built with. It only captures classes, functions, methods, and
// call references, using the node names the JavaScript, TypeScript and TSX
// grammars share; pythonFallbackQuery covers the same constructs for the
// Python grammar.
const fallbackQuery = `
(function_declaration name: (_) @name.definition.function) @definition.function
(class_declaration name: (_) @name.definition.class) @definition.class
(method_definition name: (_) @name.definition.method) @definition.method
(call_expression function: (_) @name.reference.call) @reference.call
`

// pythonFallbackQuery is fallbackQuery's counterpart for the Python grammar,
// where methods are function_definition nodes inside a class body.
const pythonFallbackQuery = `
(function_definition name: (_) @name.definition.function) @definition.function
(class_definition name: (_) @name.definition.class) @definition.class
(call function: (_) @name.reference.call) @reference.call
`

// fallbackWarned tracks which languages have already emitted the one
// fallback warning §4.2 calls for, so a large repository doesn't spam the
// log once per file.
var (
	fallbackWarnedMu sync.Mutex
	fallbackWarned   = map[Language]bool{}
)

// warnFallbackOnce logs the per-language fallback warning exactly once.
func warnFallbackOnce(logger *slog.Logger, lang Language, err error) {
	fallbackWarnedMu.Lock()
	defer fallbackWarnedMu.Unlock()
	if fallbackWarned[lang] {
		return
	}
	fallbackWarned[lang] = true
	logger.Warn("query compilation failed, using fallback query",
		"language", string(lang), "error", err)
}

// compileQuery compiles primary against lang, falling back to fallbackQuery
// (pythonFallbackQuery for Python, and warning once) if the primary query
// is rejected by the grammar.
func compileQuery(lang *sitter.Language, langID Language, primary []byte, logger *slog.Logger) (*sitter.Query, error) {
	q, err := sitter.NewQuery(primary, lang)
	if err == nil {
		return q, nil
	}
	warnFallbackOnce(logger, langID, err)
	fallback := fallbackQuery
	if langID == LanguagePython {
		fallback = pythonFallbackQuery
	}
	q, ferr := sitter.NewQuery([]byte(fallback), lang)
	if ferr != nil {
		return nil, fmt.Errorf("fallback query also failed to compile for %s: %w", langID, ferr)
	}
	return q, nil
}

// extractTags runs q against root and converts every capture whose name
// starts with "name.definition." or "name.reference." into a Tag, per
// §4.2's parse contract.
func extractTags(q *sitter.Query, root *sitter.Node, content []byte) []Tag {
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, root)

	var tags []Tag
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		m = qc.FilterPredicates(m, content)
		for _, c := range m.Captures {
			capName := q.CaptureNameForId(c.Index)
			var kind TagKind
			var typ string
			switch {
			case strings.HasPrefix(capName, "name.definition."):
				kind = TagKindDef
				typ = strings.TrimPrefix(capName, "name.definition.")
			case strings.HasPrefix(capName, "name.reference."):
				kind = TagKindRef
				typ = strings.TrimPrefix(capName, "name.reference.")
			default:
				continue
			}
			name := c.Node.Content(content)
			if name == "" {
				continue
			}
			tags = append(tags, Tag{
				Name: name,
				Kind: kind,
				Type: typ,
				Line: int(c.Node.StartPoint().Row) + 1,
			})
		}
	}
	return tags
}
