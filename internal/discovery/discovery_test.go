package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ctxspine/repomap/internal/ast"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDiscover_FindsSupportedFilesSortedByPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.py", "pass\n")
	writeFile(t, root, "a.ts", "export {}\n")
	writeFile(t, root, "README.md", "unsupported\n")

	files, err := Discover(root, Options{})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	if len(files) != 2 {
		t.Fatalf("expected 2 discovered files, got %d: %+v", len(files), files)
	}
	if files[0].RelPath != "a.ts" || files[1].RelPath != "b.py" {
		t.Errorf("expected sorted [a.ts, b.py], got [%s, %s]", files[0].RelPath, files[1].RelPath)
	}
	if files[0].Language != ast.LanguageTypeScript {
		t.Errorf("a.ts Language = %q, want %q", files[0].Language, ast.LanguageTypeScript)
	}
	if files[1].Language != ast.LanguagePython {
		t.Errorf("b.py Language = %q, want %q", files[1].Language, ast.LanguagePython)
	}
}

func TestDiscover_SkipsDefaultIgnoredDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "node_modules/pkg/index.js", "module.exports = {};\n")
	writeFile(t, root, ".git/hooks/pre-commit.py", "pass\n")
	writeFile(t, root, "src/app.py", "pass\n")

	files, err := Discover(root, Options{})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	if len(files) != 1 || files[0].RelPath != "src/app.py" {
		t.Fatalf("expected only src/app.py, got %+v", files)
	}
}

func TestDiscover_ExtraIgnoreGlobs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/app.py", "pass\n")
	writeFile(t, root, "src/app_test.py", "pass\n")
	writeFile(t, root, "vendor_extra/thing.py", "pass\n")

	files, err := Discover(root, Options{IgnoreGlobs: []string{"*_test.py", "vendor_extra/*"}})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	if len(files) != 1 || files[0].RelPath != "src/app.py" {
		t.Fatalf("expected only src/app.py after applying extra ignore globs, got %+v", files)
	}
}

func TestDiscover_EmptyRepoReturnsNoFiles(t *testing.T) {
	root := t.TempDir()
	files, err := Discover(root, Options{})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected no files, got %d", len(files))
	}
}
