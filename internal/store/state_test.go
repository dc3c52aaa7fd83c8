package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-openapi/strfmt"

	"github.com/ctxspine/repomap/internal/ast"
	"github.com/ctxspine/repomap/internal/graph"
	"github.com/ctxspine/repomap/internal/index"
)

func TestLoadState_AbsentIsNotError(t *testing.T) {
	root := t.TempDir()
	s, err := LoadState(root)
	if err != nil {
		t.Fatalf("LoadState on absent dir returned error: %v", err)
	}
	if s != nil {
		t.Errorf("expected nil state, got %+v", s)
	}
}

func TestSaveLoadState_RoundTrips(t *testing.T) {
	root := t.TempDir()
	want := &State{
		Version:     StateSchemaVersion,
		GeneratedAt: strfmt.DateTime(time.Now().UTC()),
		RepoRoot:    root,
		Files: map[string]index.FileRecord{
			"a.py": {
				Hash:     "deadbeef",
				Language: ast.LanguagePython,
				Tags:     []ast.Tag{{Name: "foo", Kind: ast.TagKindDef, Type: "function", Line: 1}},
			},
		},
	}
	if err := SaveState(root, want); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	got, err := LoadState(root)
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if got == nil {
		t.Fatal("expected non-nil state after save")
	}
	if got.RepoRoot != want.RepoRoot {
		t.Errorf("RepoRoot = %q, want %q", got.RepoRoot, want.RepoRoot)
	}
	if len(got.Files) != 1 {
		t.Errorf("len(Files) = %d, want 1", len(got.Files))
	}
}

func TestLoadState_MalformedIsError(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(Dir(root), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(Dir(root), "state.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := LoadState(root)
	if err == nil {
		t.Fatal("expected error for malformed state.json")
	}
}

func TestSchemaOutdated(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"v0.9.0", true},
		{StateSchemaVersion, false},
		{"v2.0.0", false},
		{"not-a-version", true},
	}
	for _, tc := range tests {
		if got := SchemaOutdated(tc.version); got != tc.want {
			t.Errorf("SchemaOutdated(%q) = %v, want %v", tc.version, got, tc.want)
		}
	}
}

func TestSaveLoadGraph_RoundTrips(t *testing.T) {
	root := t.TempDir()
	g := graph.New()
	g.AddNode(graph.Node{ID: "file:a.py", Kind: graph.NodeKindFile, Path: "a.py"})
	g.AddEdge(graph.Edge{
		Relation:   graph.RelationDefines,
		Source:     "file:a.py",
		Target:     "sym:a.py:foo:1",
		Confidence: graph.ConfidenceHigh,
		Resolution: graph.ResolutionDefinition,
	})

	if err := SaveGraph(root, g); err != nil {
		t.Fatalf("SaveGraph: %v", err)
	}

	sg, err := LoadGraph(root)
	if err != nil {
		t.Fatalf("LoadGraph: %v", err)
	}
	if sg == nil {
		t.Fatal("expected non-nil serialized graph")
	}
	if len(sg.Nodes) != 1 || len(sg.Edges) != 1 {
		t.Errorf("nodes=%d edges=%d, want 1/1", len(sg.Nodes), len(sg.Edges))
	}

	rebuilt := sg.ToGraph()
	if rebuilt.NodeCount() != 1 {
		t.Errorf("rebuilt NodeCount = %d, want 1", rebuilt.NodeCount())
	}
}

func TestLoadGraph_AbsentIsNotError(t *testing.T) {
	root := t.TempDir()
	sg, err := LoadGraph(root)
	if err != nil {
		t.Fatalf("LoadGraph on absent dir returned error: %v", err)
	}
	if sg != nil {
		t.Errorf("expected nil serialized graph, got %+v", sg)
	}
}
