package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_AbsentFileUsesEmbeddedDefaults(t *testing.T) {
	root := t.TempDir()
	s, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.WorkerCount != 8 {
		t.Errorf("WorkerCount = %d, want 8 (embedded default)", s.WorkerCount)
	}
	if s.CacheDir == "" {
		t.Error("expected non-empty default CacheDir")
	}
}

func TestLoad_OverridesMergeOverDefaults(t *testing.T) {
	root := t.TempDir()
	custom := "worker_count: 16\ncache_dir: .repomap/cache\n"
	if err := os.WriteFile(filepath.Join(root, "repomap.yaml"), []byte(custom), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.WorkerCount != 16 {
		t.Errorf("WorkerCount = %d, want 16 (overridden)", s.WorkerCount)
	}
}

func TestLoad_MalformedYAMLIsError(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "repomap.yaml"), []byte("not: valid: yaml: ["), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(root); err == nil {
		t.Fatal("expected error for malformed repomap.yaml")
	}
}

func TestLoad_ZeroWorkerCountFailsValidation(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "repomap.yaml"), []byte("worker_count: 0\ncache_dir: x\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(root); err == nil {
		t.Fatal("expected validation error for worker_count: 0")
	}
}
