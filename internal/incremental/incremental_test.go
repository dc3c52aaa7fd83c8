package incremental

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctxspine/repomap/internal/ast"
	"github.com/ctxspine/repomap/internal/index"
	"github.com/ctxspine/repomap/internal/store"
)

func mustPool(t *testing.T) *ast.Pool {
	t.Helper()
	pool, err := ast.NewPool()
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	return pool
}

func TestRun_NoPriorStateFullBuilds(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.py"), []byte("def foo():\n    pass\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	pool := mustPool(t)
	fi := index.NewFileIndex(pool)
	d := NewDriver(pool, fi, nil)

	result, err := d.Run(context.Background(), root, "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.FullBuild {
		t.Error("expected FullBuild = true with no prior state")
	}
	if result.ParsedFiles != 1 {
		t.Errorf("ParsedFiles = %d, want 1", result.ParsedFiles)
	}
	if _, ok := result.Graph.Node("file:a.py"); !ok {
		t.Error("expected file:a.py node in rebuilt graph")
	}
}

func TestRun_IncrementalDropsDeletedFiles(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.py"), []byte("def foo():\n    pass\n"), 0o644); err != nil {
		t.Fatalf("write a.py: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "b.py"), []byte("def bar():\n    pass\n"), 0o644); err != nil {
		t.Fatalf("write b.py: %v", err)
	}

	pool := mustPool(t)
	fi := index.NewFileIndex(pool)
	d := NewDriver(pool, fi, nil)

	first, err := d.Run(context.Background(), root, "")
	if err != nil {
		t.Fatalf("Run (first): %v", err)
	}
	if err := store.SaveState(root, &store.State{Version: store.StateSchemaVersion, RepoRoot: root, Files: first.Files}); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	if err := os.Remove(filepath.Join(root, "b.py")); err != nil {
		t.Fatalf("remove b.py: %v", err)
	}

	second, err := d.Run(context.Background(), root, "")
	if err != nil {
		t.Fatalf("Run (second): %v", err)
	}
	if second.FullBuild {
		t.Error("expected incremental build when prior state exists")
	}
	if _, ok := second.Files["b.py"]; ok {
		t.Error("expected b.py dropped from merged index after deletion")
	}
	if _, ok := second.Graph.Node("file:b.py"); ok {
		t.Error("expected file:b.py absent from rebuilt graph")
	}
	if _, ok := second.Files["a.py"]; !ok {
		t.Error("expected a.py carried over from prior state")
	}
	if second.ParsedFiles != 0 {
		t.Errorf("ParsedFiles = %d, want 0 (a.py unchanged, b.py deleted, nothing new)", second.ParsedFiles)
	}
}
