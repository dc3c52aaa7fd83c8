package ast

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// importTypeOnlyStatement matches a whole-statement type-only import:
// `import type { X } from 'y'`. Per-specifier type-only markers
// (`import { type X } from 'y'`) are detected inline while walking the
// named import clause.
var importTypeOnlyStatement = regexp.MustCompile(`^\s*import\s+type\b`)

// walkTopLevelImports extracts ImportBindings from every top-level
// import_statement, CommonJS require() declaration, and re-exporting
// export_statement directly under root. This implements §4.2's "non-Python
// only" import extraction plus the re-export/require supplement recorded
// in SPEC_FULL.md's Open Question decisions.
func walkTopLevelImports(root *sitter.Node, content []byte) []ImportBinding {
	var out []ImportBinding
	n := int(root.ChildCount())
	for i := 0; i < n; i++ {
		child := root.Child(i)
		switch child.Type() {
		case "import_statement":
			out = append(out, parseImportStatement(child, content)...)
		case "export_statement":
			out = append(out, parseReExportStatement(child, content)...)
		case "lexical_declaration", "variable_declaration":
			out = append(out, parseRequireDeclaration(child, content)...)
		}
	}
	return out
}

func nodeText(n *sitter.Node, content []byte) string {
	if n == nil {
		return ""
	}
	return n.Content(content)
}

// stringLiteralContent strips the surrounding quotes from a `string` node.
func stringLiteralContent(n *sitter.Node, content []byte) string {
	raw := nodeText(n, content)
	raw = strings.TrimSpace(raw)
	if len(raw) >= 2 {
		first, last := raw[0], raw[len(raw)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') || (first == '`' && last == '`') {
			return raw[1 : len(raw)-1]
		}
	}
	return raw
}

func findChildString(node *sitter.Node, content []byte) (*sitter.Node, string) {
	for i := 0; i < int(node.ChildCount()); i++ {
		c := node.Child(i)
		if c.Type() == "string" {
			return c, stringLiteralContent(c, content)
		}
	}
	return nil, ""
}

// parseImportStatement handles one `import ...` statement per §4.2.
func parseImportStatement(node *sitter.Node, content []byte) []ImportBinding {
	line := int(node.StartPoint().Row) + 1
	stmtText := nodeText(node, content)
	typeOnlyStmt := importTypeOnlyStatement.MatchString(stmtText)

	var clause *sitter.Node
	var specNode *sitter.Node
	var spec string
	for i := 0; i < int(node.ChildCount()); i++ {
		c := node.Child(i)
		switch c.Type() {
		case "import_clause":
			clause = c
		case "string":
			specNode, spec = c, stringLiteralContent(c, content)
		}
	}
	if specNode == nil {
		_, spec = findChildString(node, content)
	}
	if spec == "" {
		return nil
	}

	if clause == nil {
		// Side-effect import: `import 'x';`
		return []ImportBinding{{
			LocalName:       SideEffectLocalName(spec),
			ImportedName:    ImportedNameStar,
			ModuleSpecifier: spec,
			IsTypeOnly:      typeOnlyStmt,
			SourceKind:      SourceKindImport,
			Line:            line,
		}}
	}

	var bindings []ImportBinding
	for i := 0; i < int(clause.ChildCount()); i++ {
		c := clause.Child(i)
		switch c.Type() {
		case "identifier":
			// Default import: `import foo from 'bar'`.
			bindings = append(bindings, ImportBinding{
				LocalName:       nodeText(c, content),
				ImportedName:    ImportedNameDefault,
				ModuleSpecifier: spec,
				IsTypeOnly:      typeOnlyStmt,
				SourceKind:      SourceKindImport,
				Line:            line,
			})
		case "namespace_import":
			local := ""
			for j := 0; j < int(c.ChildCount()); j++ {
				if gc := c.Child(j); gc.Type() == "identifier" {
					local = nodeText(gc, content)
				}
			}
			bindings = append(bindings, ImportBinding{
				LocalName:       local,
				ImportedName:    ImportedNameStar,
				ModuleSpecifier: spec,
				IsTypeOnly:      typeOnlyStmt,
				SourceKind:      SourceKindImport,
				Line:            line,
			})
		case "named_imports":
			for j := 0; j < int(c.ChildCount()); j++ {
				spcNode := c.Child(j)
				if spcNode.Type() != "import_specifier" {
					continue
				}
				bindings = append(bindings, parseNamedImportSpecifier(spcNode, content, spec, typeOnlyStmt, line))
			}
		}
	}
	return bindings
}

// parseNamedImportSpecifier handles one `{a}` or `{a as b}` entry,
// optionally per-specifier type-only (`{ type a }`).
func parseNamedImportSpecifier(node *sitter.Node, content []byte, spec string, typeOnlyStmt bool, line int) ImportBinding {
	var names []string
	specTypeOnly := false
	for i := 0; i < int(node.ChildCount()); i++ {
		c := node.Child(i)
		switch c.Type() {
		case "identifier":
			names = append(names, nodeText(c, content))
		case "type":
			specTypeOnly = true
		}
	}
	importedName := ""
	localName := ""
	switch len(names) {
	case 1:
		importedName = names[0]
		localName = names[0]
	case 2:
		importedName = names[0]
		localName = names[1]
	default:
		return ImportBinding{}
	}
	return ImportBinding{
		LocalName:       localName,
		ImportedName:    importedName,
		ModuleSpecifier: spec,
		IsTypeOnly:      typeOnlyStmt || specTypeOnly,
		SourceKind:      SourceKindImport,
		Line:            line,
	}
}

// parseReExportStatement handles `export { X } from 'Y'` and
// `export * from 'Y'` / `export * as ns from 'Y'`. Plain (non-re-exporting)
// export statements have no "from" string child and are ignored here —
// their declarations are already visible to the def-tag query.
func parseReExportStatement(node *sitter.Node, content []byte) []ImportBinding {
	specNode, spec := findChildString(node, content)
	if specNode == nil || spec == "" {
		return nil
	}
	line := int(node.StartPoint().Row) + 1
	stmtText := nodeText(node, content)
	typeOnly := importTypeOnlyStatement.MatchString(stmtText) || strings.Contains(stmtText, "export type")

	var bindings []ImportBinding
	hasClause := false
	for i := 0; i < int(node.ChildCount()); i++ {
		c := node.Child(i)
		switch c.Type() {
		case "export_clause":
			hasClause = true
			for j := 0; j < int(c.ChildCount()); j++ {
				spcNode := c.Child(j)
				if spcNode.Type() != "export_specifier" {
					continue
				}
				var names []string
				for k := 0; k < int(spcNode.ChildCount()); k++ {
					if id := spcNode.Child(k); id.Type() == "identifier" {
						names = append(names, nodeText(id, content))
					}
				}
				if len(names) == 0 {
					continue
				}
				importedName := names[0]
				localName := importedName
				if len(names) == 2 {
					localName = names[1]
				}
				bindings = append(bindings, ImportBinding{
					LocalName:       localName,
					ImportedName:    importedName,
					ModuleSpecifier: spec,
					IsTypeOnly:      typeOnly,
					SourceKind:      SourceKindReExport,
					Line:            line,
				})
			}
		case "namespace_export":
			local := ImportedNameStar
			for j := 0; j < int(c.ChildCount()); j++ {
				if id := c.Child(j); id.Type() == "identifier" {
					local = nodeText(id, content)
				}
			}
			hasClause = true
			bindings = append(bindings, ImportBinding{
				LocalName:       local,
				ImportedName:    ImportedNameStar,
				ModuleSpecifier: spec,
				IsTypeOnly:      typeOnly,
				SourceKind:      SourceKindReExport,
				Line:            line,
			})
		}
	}
	if !hasClause {
		// `export * from 'Y'` with no namespace alias: a bare star re-export.
		bindings = append(bindings, ImportBinding{
			LocalName:       SideEffectLocalName(spec),
			ImportedName:    ImportedNameStar,
			ModuleSpecifier: spec,
			IsTypeOnly:      typeOnly,
			SourceKind:      SourceKindReExport,
			Line:            line,
		})
	}
	return bindings
}

// parseRequireDeclaration handles `const x = require('y')` and
// `const {a, b} = require('y')` (the CommonJS supplement recorded in
// SPEC_FULL.md).
func parseRequireDeclaration(node *sitter.Node, content []byte) []ImportBinding {
	var bindings []ImportBinding
	for i := 0; i < int(node.ChildCount()); i++ {
		declarator := node.Child(i)
		if declarator.Type() != "variable_declarator" {
			continue
		}
		var nameNode, valueNode *sitter.Node
		for j := 0; j < int(declarator.ChildCount()); j++ {
			c := declarator.Child(j)
			if nameNode == nil && (c.Type() == "identifier" || c.Type() == "object_pattern") {
				nameNode = c
				continue
			}
			if c.Type() == "call_expression" {
				valueNode = c
			}
		}
		if nameNode == nil || valueNode == nil {
			continue
		}
		spec, ok := requireCallSpecifier(valueNode, content)
		if !ok {
			continue
		}
		line := int(declarator.StartPoint().Row) + 1
		switch nameNode.Type() {
		case "identifier":
			bindings = append(bindings, ImportBinding{
				LocalName:       nodeText(nameNode, content),
				ImportedName:    ImportedNameDefault,
				ModuleSpecifier: spec,
				SourceKind:      SourceKindImport,
				Line:            line,
			})
		case "object_pattern":
			for j := 0; j < int(nameNode.ChildCount()); j++ {
				pc := nameNode.Child(j)
				switch pc.Type() {
				case "shorthand_property_identifier_pattern":
					name := nodeText(pc, content)
					bindings = append(bindings, ImportBinding{
						LocalName:       name,
						ImportedName:    name,
						ModuleSpecifier: spec,
						SourceKind:      SourceKindImport,
						Line:            line,
					})
				case "pair_pattern":
					var key, value *sitter.Node
					for k := 0; k < int(pc.ChildCount()); k++ {
						gc := pc.Child(k)
						if gc.Type() == "property_identifier" && key == nil {
							key = gc
						} else if gc.Type() == "identifier" {
							value = gc
						}
					}
					if key != nil && value != nil {
						bindings = append(bindings, ImportBinding{
							LocalName:       nodeText(value, content),
							ImportedName:    nodeText(key, content),
							ModuleSpecifier: spec,
							SourceKind:      SourceKindImport,
							Line:            line,
						})
					}
				}
			}
		}
	}
	return bindings
}

// requireCallSpecifier returns the module string if node is a call to
// `require(...)`.
func requireCallSpecifier(node *sitter.Node, content []byte) (string, bool) {
	var fn, args *sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		c := node.Child(i)
		switch c.Type() {
		case "identifier":
			fn = c
		case "arguments":
			args = c
		}
	}
	if fn == nil || args == nil || nodeText(fn, content) != "require" {
		return "", false
	}
	strNode, spec := findChildString(args, content)
	if strNode == nil {
		return "", false
	}
	return spec, true
}
