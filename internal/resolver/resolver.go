package resolver

import (
	"log/slog"
	"path"
	"path/filepath"
	"strings"
)

// Resolver translates a module specifier into candidate repository-relative
// POSIX paths using a single root configuration file, per §4.4. A nil (or
// zero-value) Resolver is a valid, disabled resolver: Candidates always
// returns nil, matching "the resolver is then disabled" when config
// loading fails.
type Resolver struct {
	repoRoot string
	baseDir  string // absolute
	rules    []rule
	hasBase  bool
}

// Option configures New.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger attaches a structured logger used to report (non-fatal)
// config load failures. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// New loads configPath (an absolute or repoRoot-relative tsconfig-style
// JSON file) and returns a Resolver. Per §4.4, a missing or malformed
// config is non-fatal: New returns a disabled Resolver (nil rules, no
// baseUrl) after logging the problem at Warn level.
func New(repoRoot, configPath string, opts ...Option) *Resolver {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	if configPath == "" {
		return &Resolver{repoRoot: repoRoot}
	}
	abs := configPath
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(repoRoot, configPath)
	}

	baseURL, pathMap, err := loadConfig(abs)
	if err != nil {
		o.logger.Warn("module resolver config disabled", "path", abs, "error", err)
		return &Resolver{repoRoot: repoRoot}
	}

	return &Resolver{
		repoRoot: repoRoot,
		baseDir:  baseURL,
		hasBase:  true,
		rules:    compileRules(pathMap),
	}
}

// Candidates resolves moduleSpecifier against the repository's root config, per
// §4.4's three-step algorithm. Relative specifiers (starting with ".")
// always return nil; Phase B (internal/graph) handles those directly via
// dirname-join instead of consulting the Resolver.
func (r *Resolver) Candidates(moduleSpecifier string) []string {
	if r == nil || strings.HasPrefix(moduleSpecifier, ".") {
		return nil
	}

	var out []string
	seen := map[string]bool{}
	add := func(relPosix string) {
		if relPosix == "" || seen[relPosix] {
			return
		}
		seen[relPosix] = true
		out = append(out, relPosix)
	}

	for _, rl := range r.rules {
		wildcard, ok := rl.matches(moduleSpecifier)
		if !ok {
			continue
		}
		for _, target := range rl.targets {
			expanded := target
			if rl.hasWildcard {
				expanded = strings.Replace(target, "*", wildcard, 1)
			}
			add(r.toRepoRelative(expanded))
		}
	}

	if r.hasBase {
		add(r.toRepoRelative(moduleSpecifier))
	}

	return out
}

// toRepoRelative resolves expanded (a path relative to r.baseDir) to a
// repository-relative POSIX path, normalizing `.`/`..` segments.
func (r *Resolver) toRepoRelative(expanded string) string {
	absTarget := filepath.Join(r.baseDir, filepath.FromSlash(expanded))
	rel, err := filepath.Rel(r.repoRoot, absTarget)
	if err != nil {
		return ""
	}
	return path.Clean(filepath.ToSlash(rel))
}

// Enabled reports whether r carries any usable configuration (baseUrl or
// path rules). A disabled resolver still behaves correctly — Candidates
// just always returns nil.
func (r *Resolver) Enabled() bool {
	return r != nil && (r.hasBase || len(r.rules) > 0)
}
