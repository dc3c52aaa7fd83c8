// Package discovery implements C1 Source Discovery: enumerating the
// supported source files under a repository root.
package discovery

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ctxspine/repomap/internal/ast"
)

// DefaultIgnoredDirs are always excluded, regardless of user-supplied
// globs, per §4.1.
var DefaultIgnoredDirs = []string{
	".git",
	".repomap",
	"node_modules",
	"__pycache__",
	".venv",
	"venv",
	"dist",
	"build",
	".next",
	".turbo",
	"vendor",
	".mypy_cache",
	".pytest_cache",
}

// File is one discovered source file.
type File struct {
	AbsPath  string
	RelPath  string // POSIX-separated, repository-relative
	Language ast.Language
}

// Options configures Discover.
type Options struct {
	// IgnoreGlobs are additional `path/filepath.Match`-style glob patterns,
	// matched against the POSIX relative path, beyond DefaultIgnoredDirs.
	IgnoreGlobs []string
}

// Discover walks rootDir and returns every regular file with a supported
// extension, sorted by relative path, per §4.1. It never follows symlinks
// outside the root and never reads file content — both explicit non-goals.
func Discover(rootDir string, opts Options) ([]File, error) {
	var files []File

	err := filepath.WalkDir(rootDir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(rootDir, p)
		if relErr != nil {
			return relErr
		}
		relPosix := filepath.ToSlash(rel)

		if d.IsDir() {
			if relPosix != "." && isIgnoredDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if matchesIgnoreGlob(relPosix, opts.IgnoreGlobs) {
			return nil
		}
		lang, ok := ast.LanguageForPath(relPosix)
		if !ok {
			return nil
		}
		files = append(files, File{
			AbsPath:  p,
			RelPath:  relPosix,
			Language: lang,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

func isIgnoredDir(name string) bool {
	for _, d := range DefaultIgnoredDirs {
		if name == d {
			return true
		}
	}
	return false
}

func matchesIgnoreGlob(relPosix string, globs []string) bool {
	base := path.Base(relPosix)
	for _, g := range globs {
		if ok, _ := path.Match(g, relPosix); ok {
			return true
		}
		if ok, _ := path.Match(g, base); ok {
			return true
		}
		if strings.Contains(relPosix, "/"+strings.TrimSuffix(g, "/")+"/") {
			return true
		}
	}
	return false
}
