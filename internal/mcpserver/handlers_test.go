package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ctxspine/repomap/internal/ast"
	"github.com/ctxspine/repomap/internal/index"
	"github.com/ctxspine/repomap/internal/resolver"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	pool, err := ast.NewPool()
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	fi := index.NewFileIndex(pool)
	res := resolver.New(t.TempDir(), "")
	return NewServer(pool, fi, res, nil)
}

func writeRepoFile(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestBuildIndexHandler_RequiresRepoRoot(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.buildIndexHandler()

	_, err := handler(context.Background(), nil, &mcp.CallToolParamsFor[BuildIndexParams]{
		Arguments: BuildIndexParams{},
	})
	if err == nil {
		t.Fatal("expected error for missing repoRoot")
	}
}

func TestBuildIndexHandler_PersistsState(t *testing.T) {
	root := t.TempDir()
	writeRepoFile(t, root, "auth.py", "def login():\n    pass\n")

	srv := newTestServer(t)
	handler := srv.buildIndexHandler()

	result, err := handler(context.Background(), nil, &mcp.CallToolParamsFor[BuildIndexParams]{
		Arguments: BuildIndexParams{RepoRoot: root},
	})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if result.StructuredContent.ParsedFiles != 1 {
		t.Errorf("ParsedFiles = %d, want 1", result.StructuredContent.ParsedFiles)
	}
	if !result.StructuredContent.FullBuild {
		t.Error("expected FullBuild = true for first build")
	}

	if _, err := os.Stat(filepath.Join(root, ".repomap", "state.json")); err != nil {
		t.Errorf("state.json not persisted: %v", err)
	}
}

func TestRankContextHandler_WithoutPriorBuildErrors(t *testing.T) {
	root := t.TempDir()
	srv := newTestServer(t)
	handler := srv.rankContextHandler()

	_, err := handler(context.Background(), nil, &mcp.CallToolParamsFor[RankContextParams]{
		Arguments: RankContextParams{RepoRoot: root},
	})
	if err == nil {
		t.Fatal("expected error when no index has been built")
	}
}

func TestRankContextHandler_AfterBuildReturnsBuckets(t *testing.T) {
	root := t.TempDir()
	writeRepoFile(t, root, "auth.py", "def login():\n    pass\n")
	writeRepoFile(t, root, "util.py", "def helper():\n    pass\n")

	srv := newTestServer(t)
	buildHandler := srv.buildIndexHandler()
	if _, err := buildHandler(context.Background(), nil, &mcp.CallToolParamsFor[BuildIndexParams]{
		Arguments: BuildIndexParams{RepoRoot: root},
	}); err != nil {
		t.Fatalf("build: %v", err)
	}

	rankHandler := srv.rankContextHandler()
	result, err := rankHandler(context.Background(), nil, &mcp.CallToolParamsFor[RankContextParams]{
		Arguments: RankContextParams{RepoRoot: root, Seeds: []string{"auth.py"}, TopK: 10},
	})
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if len(result.StructuredContent.Primary) == 0 {
		t.Error("expected at least one primary entry for seeded file")
	}
}
