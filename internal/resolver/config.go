package resolver

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// rawConfig mirrors the tsconfig.json shape this resolver cares about.
// Everything else in the file (compilerOptions.target, include/exclude,
// etc.) is intentionally ignored: C4 only needs baseUrl and paths.
type rawConfig struct {
	Extends        string `json:"extends"`
	CompilerOptions struct {
		BaseURL string              `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
}

// loadConfig reads configPath and every file in its `extends` chain,
// merging baseUrl/paths with the most-derived (deepest) file winning ties,
// matching tsconfig's own override semantics.
func loadConfig(configPath string) (baseURL string, paths map[string][]string, err error) {
	paths = map[string][]string{}
	seen := map[string]bool{}

	var load func(path string) error
	load = func(path string) error {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("resolve config path %s: %w", path, err)
		}
		if seen[abs] {
			return fmt.Errorf("extends cycle detected at %s", abs)
		}
		seen[abs] = true

		data, err := os.ReadFile(abs)
		if err != nil {
			return fmt.Errorf("read config %s: %w", abs, err)
		}
		var raw rawConfig
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("parse config %s: %w", abs, err)
		}

		if raw.Extends != "" {
			parentPath := raw.Extends
			if !filepath.IsAbs(parentPath) {
				parentPath = filepath.Join(filepath.Dir(abs), parentPath)
			}
			if err := load(parentPath); err != nil {
				return err
			}
		}

		if raw.CompilerOptions.BaseURL != "" {
			if filepath.IsAbs(raw.CompilerOptions.BaseURL) {
				baseURL = raw.CompilerOptions.BaseURL
			} else {
				baseURL = filepath.Join(filepath.Dir(abs), raw.CompilerOptions.BaseURL)
			}
		}
		for pattern, targets := range raw.CompilerOptions.Paths {
			paths[pattern] = targets
		}
		return nil
	}

	if err := load(configPath); err != nil {
		return "", nil, err
	}
	if baseURL == "" {
		baseURL = filepath.Dir(configPath)
	}
	return baseURL, paths, nil
}

// compileRules turns the raw `paths` map into specificity-sorted rules,
// per §4.4's rule-compilation step: split on the lone `*`, sort by
// descending len(prefix)+len(suffix), tie-broken lexicographically by
// pattern so compilation is deterministic across runs.
func compileRules(pathMap map[string][]string) []rule {
	rules := make([]rule, 0, len(pathMap))
	for pattern, targets := range pathMap {
		r := rule{pattern: pattern, targets: targets}
		if idx := indexOfStar(pattern); idx >= 0 {
			r.hasWildcard = true
			r.prefix = pattern[:idx]
			r.suffix = pattern[idx+1:]
		}
		rules = append(rules, r)
	}
	sort.Slice(rules, func(i, j int) bool {
		si, sj := rules[i].specificity(), rules[j].specificity()
		if si != sj {
			return si > sj
		}
		return rules[i].pattern < rules[j].pattern
	})
	return rules
}

func indexOfStar(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '*' {
			return i
		}
	}
	return -1
}
