package resolver

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, rel, content string) string {
	t.Helper()
	abs := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return abs
}

func TestCandidates_RelativeSpecifierReturnsNil(t *testing.T) {
	root := t.TempDir()
	cfgPath := writeConfig(t, root, "tsconfig.json", `{"compilerOptions":{"baseUrl":".","paths":{"@app/*":["src/*"]}}}`)
	r := New(root, cfgPath)

	if got := r.Candidates("./sibling"); got != nil {
		t.Errorf("Candidates(relative) = %v, want nil", got)
	}
}

func TestCandidates_WildcardRule(t *testing.T) {
	root := t.TempDir()
	cfgPath := writeConfig(t, root, "tsconfig.json", `{
		"compilerOptions": {
			"baseUrl": ".",
			"paths": { "@app/*": ["src/*"] }
		}
	}`)
	r := New(root, cfgPath)

	got := r.Candidates("@app/widgets/button")
	want := "src/widgets/button"
	if len(got) == 0 || got[0] != want {
		t.Errorf("Candidates = %v, want first=%q", got, want)
	}
}

func TestCandidates_MostSpecificRuleWinsOrder(t *testing.T) {
	root := t.TempDir()
	cfgPath := writeConfig(t, root, "tsconfig.json", `{
		"compilerOptions": {
			"baseUrl": ".",
			"paths": {
				"*": ["src/*"],
				"@app/*": ["app/*"]
			}
		}
	}`)
	r := New(root, cfgPath)

	got := r.Candidates("@app/x")
	if len(got) < 2 {
		t.Fatalf("Candidates = %v, want at least 2 entries", got)
	}
	if got[0] != "app/x" {
		t.Errorf("most specific rule should be tried first, got %v", got)
	}
}

func TestCandidates_BaseURLFallback(t *testing.T) {
	root := t.TempDir()
	cfgPath := writeConfig(t, root, "tsconfig.json", `{"compilerOptions":{"baseUrl":"src"}}`)
	r := New(root, cfgPath)

	got := r.Candidates("utils/helpers")
	want := "src/utils/helpers"
	found := false
	for _, c := range got {
		if c == want {
			found = true
		}
	}
	if !found {
		t.Errorf("Candidates = %v, want to include %q", got, want)
	}
}

func TestNew_MissingConfigDisablesResolver(t *testing.T) {
	root := t.TempDir()
	r := New(root, filepath.Join(root, "does-not-exist.json"))
	if r.Enabled() {
		t.Error("expected disabled resolver for missing config")
	}
	if got := r.Candidates("@app/x"); got != nil {
		t.Errorf("Candidates on disabled resolver = %v, want nil", got)
	}
}

func TestNew_ExtendsChainMerges(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "base.json", `{"compilerOptions":{"baseUrl":".","paths":{"@base/*":["base/*"]}}}`)
	cfgPath := writeConfig(t, root, "tsconfig.json", `{"extends":"./base.json","compilerOptions":{"paths":{"@app/*":["app/*"]}}}`)

	r := New(root, cfgPath)
	if got := r.Candidates("@base/x"); len(got) == 0 || got[0] != "base/x" {
		t.Errorf("inherited rule Candidates = %v, want [base/x ...]", got)
	}
	if got := r.Candidates("@app/x"); len(got) == 0 || got[0] != "app/x" {
		t.Errorf("own rule Candidates = %v, want [app/x ...]", got)
	}
}

func TestCompileRules_SpecificitySort(t *testing.T) {
	rules := compileRules(map[string][]string{
		"*":          {"src/*"},
		"@app/*":     {"app/*"},
		"@app/core/*": {"core/*"},
	})
	if len(rules) != 3 {
		t.Fatalf("len(rules) = %d, want 3", len(rules))
	}
	if rules[0].pattern != "@app/core/*" {
		t.Errorf("rules[0].pattern = %q, want @app/core/*", rules[0].pattern)
	}
	if rules[len(rules)-1].pattern != "*" {
		t.Errorf("rules[last].pattern = %q, want *", rules[len(rules)-1].pattern)
	}
}
