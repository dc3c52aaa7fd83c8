// Package diffsource implements the "changed/deleted" collaborator
// interface described in §6: "a string-in / list-of-strings-out
// collaborator interface (changed(rootDir, range?) → paths[],
// deleted(rootDir, range?) → paths[])". The concrete implementation here
// shells out to `git diff` and parses the unified-diff output with
// sourcegraph/go-diff — a teacher dependency that was declared but never
// imported, now given a genuine home.
package diffsource

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// Source is the DiffSource collaborator interface from §6.
type Source interface {
	Changed(ctx context.Context, rootDir string, diffRange string) ([]string, error)
	Deleted(ctx context.Context, rootDir string, diffRange string) ([]string, error)
}

// GitSource implements Source via `git diff --unified=0`.
type GitSource struct{}

// NewGitSource constructs a GitSource.
func NewGitSource() *GitSource { return &GitSource{} }

// Changed returns every path with a non-deleted hunk in diffRange (e.g.
// "HEAD~1..HEAD", or "" for the working tree against the index, as plain
// `git diff` compares them).
func (s *GitSource) Changed(ctx context.Context, rootDir string, diffRange string) ([]string, error) {
	files, err := s.fileDiffs(ctx, rootDir, diffRange)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, fd := range files {
		if isDevNull(fd.NewName) {
			continue
		}
		out = append(out, trimGitPrefix(fd.NewName))
	}
	return out, nil
}

// Deleted returns every path whose new side is /dev/null in diffRange.
func (s *GitSource) Deleted(ctx context.Context, rootDir string, diffRange string) ([]string, error) {
	files, err := s.fileDiffs(ctx, rootDir, diffRange)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, fd := range files {
		if isDevNull(fd.NewName) && !isDevNull(fd.OrigName) {
			out = append(out, trimGitPrefix(fd.OrigName))
		}
	}
	return out, nil
}

func (s *GitSource) fileDiffs(ctx context.Context, rootDir string, diffRange string) ([]*diff.FileDiff, error) {
	args := []string{"diff", "--unified=0"}
	if diffRange != "" {
		args = append(args, diffRange)
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = rootDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git diff: %w: %s", err, stderr.String())
	}

	files, err := diff.ParseMultiFileDiff(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("parse git diff output: %w", err)
	}
	return files, nil
}

func isDevNull(name string) bool {
	return name == "/dev/null"
}

// trimGitPrefix strips the "a/" or "b/" prefix git diff headers carry.
func trimGitPrefix(name string) string {
	if strings.HasPrefix(name, "a/") || strings.HasPrefix(name, "b/") {
		return name[2:]
	}
	return name
}
