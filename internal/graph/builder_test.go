package graph

import (
	"context"
	"testing"

	"github.com/ctxspine/repomap/internal/ast"
	"github.com/ctxspine/repomap/internal/index"
)

func newRecord(lang ast.Language, tags []ast.Tag, imports []ast.ImportBinding) index.FileRecord {
	return index.FileRecord{Language: lang, Tags: tags, Imports: imports}
}

func TestBuild_DefinesEdgesFromDefTags(t *testing.T) {
	records := map[string]index.FileRecord{
		"a.py": newRecord(ast.LanguagePython, []ast.Tag{
			{Name: "foo", Kind: ast.TagKindDef, Type: "function", Line: 1},
		}, nil),
	}

	g, err := NewBuilder().Build(context.Background(), records)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	fileID := FileNodeID("a.py")
	symID := SymbolNodeID("a.py", "foo", 1)

	if _, ok := g.Node(fileID); !ok {
		t.Fatalf("expected file node %s", fileID)
	}
	if _, ok := g.Node(symID); !ok {
		t.Fatalf("expected symbol node %s", symID)
	}

	found := false
	for _, e := range g.EdgesFrom(fileID) {
		if e.Relation == RelationDefines && e.Target == symID {
			found = true
		}
	}
	if !found {
		t.Error("expected defines edge from file to symbol")
	}
}

func TestBuild_ImportBoundReferenceSuppressesFallback(t *testing.T) {
	records := map[string]index.FileRecord{
		"a.js": newRecord(ast.LanguageJavaScript,
			[]ast.Tag{{Name: "helper", Kind: ast.TagKindRef, Type: "call", Line: 5}},
			[]ast.ImportBinding{{LocalName: "helper", ImportedName: "helper", ModuleSpecifier: "./b", SourceKind: ast.SourceKindImport}},
		),
		"b.js": newRecord(ast.LanguageJavaScript,
			[]ast.Tag{{Name: "helper", Kind: ast.TagKindDef, Type: "function", Line: 1}},
			nil,
		),
		"c.js": newRecord(ast.LanguageJavaScript,
			[]ast.Tag{{Name: "helper", Kind: ast.TagKindDef, Type: "function", Line: 9}},
			nil,
		),
	}

	g, err := NewBuilder().Build(context.Background(), records)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var refTargets []string
	for _, e := range g.EdgesFrom(FileNodeID("a.js")) {
		if e.Relation == RelationReferences {
			refTargets = append(refTargets, e.Target)
		}
	}
	want := SymbolNodeID("b.js", "helper", 1)
	unwanted := SymbolNodeID("c.js", "helper", 9)
	foundWant, foundUnwanted := false, false
	for _, tgt := range refTargets {
		if tgt == want {
			foundWant = true
		}
		if tgt == unwanted {
			foundUnwanted = true
		}
	}
	if !foundWant {
		t.Errorf("expected reference to %s via import binding, got %v", want, refTargets)
	}
	if foundUnwanted {
		t.Errorf("import binding must suppress global fallback match on c.js, got %v", refTargets)
	}
}

func TestBuild_FallbackNameMatchWithoutImportBinding(t *testing.T) {
	records := map[string]index.FileRecord{
		"a.py": newRecord(ast.LanguagePython,
			[]ast.Tag{{Name: "helper", Kind: ast.TagKindRef, Type: "call", Line: 5}},
			nil,
		),
		"b.py": newRecord(ast.LanguagePython,
			[]ast.Tag{{Name: "helper", Kind: ast.TagKindDef, Type: "function", Line: 1}},
			nil,
		),
	}

	g, err := NewBuilder().Build(context.Background(), records)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var sawFallback bool
	for _, e := range g.EdgesFrom(FileNodeID("a.py")) {
		if e.Relation == RelationReferences && e.Confidence == ConfidenceFallback && e.Resolution == ResolutionNameMatch {
			sawFallback = true
		}
	}
	if !sawFallback {
		t.Error("expected fallback name_match reference edge")
	}
}

func TestBuild_DependsOnNeverSelfLoops(t *testing.T) {
	records := map[string]index.FileRecord{
		"a.py": newRecord(ast.LanguagePython,
			[]ast.Tag{
				{Name: "foo", Kind: ast.TagKindDef, Type: "function", Line: 1},
				{Name: "foo", Kind: ast.TagKindRef, Type: "call", Line: 2},
			},
			nil,
		),
	}

	g, err := NewBuilder().Build(context.Background(), records)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, e := range g.Edges() {
		if e.Relation == RelationDependsOn && e.Source == e.Target {
			t.Errorf("self-loop depends_on edge: %+v", e)
		}
	}
}

func TestBuild_TestFileEmitsTestCovers(t *testing.T) {
	records := map[string]index.FileRecord{
		"tests/test_a.py": newRecord(ast.LanguagePython,
			[]ast.Tag{{Name: "helper", Kind: ast.TagKindRef, Type: "call", Line: 3}},
			nil,
		),
		"helper.py": newRecord(ast.LanguagePython,
			[]ast.Tag{{Name: "helper", Kind: ast.TagKindDef, Type: "function", Line: 1}},
			nil,
		),
	}

	g, err := NewBuilder().Build(context.Background(), records)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	found := false
	for _, e := range g.EdgesFrom(FileNodeID("tests/test_a.py")) {
		if e.Relation == RelationTestCovers {
			found = true
		}
	}
	if !found {
		t.Error("expected test_covers edge from test file referencing helper.py")
	}
}

func TestBuild_EdgeDedup(t *testing.T) {
	records := map[string]index.FileRecord{
		"a.py": newRecord(ast.LanguagePython,
			[]ast.Tag{
				{Name: "foo", Kind: ast.TagKindDef, Type: "function", Line: 1},
				{Name: "foo", Kind: ast.TagKindDef, Type: "function", Line: 1},
			},
			nil,
		),
	}
	g, err := NewBuilder().Build(context.Background(), records)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	count := 0
	for _, e := range g.EdgesFrom(FileNodeID("a.py")) {
		if e.Relation == RelationDefines {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one deduped defines edge, got %d", count)
	}
}
