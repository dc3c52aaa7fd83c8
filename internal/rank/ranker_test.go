package rank

import (
	"context"
	"testing"
	"time"

	"github.com/go-openapi/strfmt"

	"github.com/ctxspine/repomap/internal/ast"
	"github.com/ctxspine/repomap/internal/graph"
	"github.com/ctxspine/repomap/internal/index"
)

func buildSimpleGraph() *graph.Graph {
	g := graph.New()
	g.AddNode(graph.Node{ID: "file:auth.py", Kind: graph.NodeKindFile, Path: "auth.py"})
	g.AddNode(graph.Node{ID: "file:util.py", Kind: graph.NodeKindFile, Path: "util.py"})
	g.AddNode(graph.Node{ID: "file:tests/test_auth.py", Kind: graph.NodeKindFile, Path: "tests/test_auth.py", IsTest: true})
	g.AddEdge(graph.Edge{
		Relation: graph.RelationDependsOn, Source: "file:auth.py", Target: "file:util.py",
		Confidence: graph.ConfidenceHigh, Resolution: graph.ResolutionImport, OwnerFile: "util.py",
	})
	g.AddEdge(graph.Edge{
		Relation: graph.RelationTestCovers, Source: "file:tests/test_auth.py", Target: "file:auth.py",
		Confidence: graph.ConfidenceHigh, Resolution: graph.ResolutionImport, OwnerFile: "auth.py",
	})
	return g
}

func TestRank_RiskScoresAuthHigher(t *testing.T) {
	g := buildSimpleGraph()
	records := map[string]index.FileRecord{
		"auth.py": {Language: ast.LanguagePython},
		"util.py": {Language: ast.LanguagePython},
	}

	ranked := New().Rank(context.Background(), g, records, nil, 10)

	var authRisk, utilRisk float64
	for _, rf := range ranked {
		switch rf.Path {
		case "auth.py":
			authRisk = rf.Features.Risk
		case "util.py":
			utilRisk = rf.Features.Risk
		}
	}
	if authRisk <= utilRisk {
		t.Errorf("expected auth.py (risk path) to carry a higher risk feature than util.py: auth=%v util=%v", authRisk, utilRisk)
	}
}

func TestRank_SeedPersonalizationBoostsNeighbor(t *testing.T) {
	g := buildSimpleGraph()
	records := map[string]index.FileRecord{
		"auth.py": {Language: ast.LanguagePython},
		"util.py": {Language: ast.LanguagePython},
	}

	seeded := New().Rank(context.Background(), g, records, []string{"auth.py"}, 10)

	pprOf := func(list []RankedFile, path string) float64 {
		for _, rf := range list {
			if rf.Path == path {
				return rf.Features.PPR
			}
		}
		return -1
	}

	// util.py and tests/test_auth.py get the same 0.01 teleport weight;
	// only util.py receives rank propagated from the seed (auth.py → util.py).
	if pprOf(seeded, "util.py") <= pprOf(seeded, "tests/test_auth.py") {
		t.Error("expected seeding auth.py to lift util.py's relative ppr above tests/test_auth.py's via propagated rank")
	}
}

func TestRank_TopKTruncates(t *testing.T) {
	g := buildSimpleGraph()
	records := map[string]index.FileRecord{}
	ranked := New().Rank(context.Background(), g, records, nil, 1)
	if len(ranked) != 1 {
		t.Errorf("len(ranked) = %d, want 1", len(ranked))
	}
}

func TestRiskFor_RegexCascade(t *testing.T) {
	tests := []struct {
		path string
		want float64
	}{
		{"src/auth/login.py", 1.0},
		{"billing/invoice.ts", 0.95},
		{"db/migration_001.sql.py", 0.85},
		{"api/handler.ts", 0.7},
		{"tests/test_foo.py", 0.25},
		{"random/file.py", 0.45},
	}
	for _, tc := range tests {
		if got := riskFor(tc.path); got != tc.want {
			t.Errorf("riskFor(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestFreshnessFor(t *testing.T) {
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)

	zero := freshnessFor(index.FileRecord{}, now)
	if zero != 0 {
		t.Errorf("freshness for missing lastParsedAt = %v, want 0", zero)
	}

	recent := index.FileRecord{LastParsedAt: strfmt.DateTime(now.Add(-time.Hour))}
	if got := freshnessFor(recent, now); got <= 0.9 {
		t.Errorf("freshness for 1h-old parse = %v, want > 0.9", got)
	}

	stale := index.FileRecord{LastParsedAt: strfmt.DateTime(now.Add(-30 * 24 * time.Hour))}
	if got := freshnessFor(stale, now); got != 0 {
		t.Errorf("freshness for 30-day-old parse = %v, want 0 (clamped)", got)
	}
}

func TestMinMaxNormalizePPR_AllEqual(t *testing.T) {
	scores := map[string]float64{"a": 0.5, "b": 0.5}
	out := minMaxNormalizePPR(scores, []string{"a", "b"})
	for id, v := range out {
		if v != 0.5 {
			t.Errorf("normalized[%s] = %v, want 0.5 when all scores equal", id, v)
		}
	}
}

func TestBuildBuckets_SeedAbsentFromGraphSynthesized(t *testing.T) {
	ranked := []RankedFile{
		{Path: "api/handler.go", Score: 0.9},
		{Path: "auth/login.go", Score: 0.8},
	}
	buckets := BuildBuckets(ranked, []string{"missing.go"}, 5)
	if len(buckets.Primary) != 1 {
		t.Fatalf("len(Primary) = %d, want 1", len(buckets.Primary))
	}
	if buckets.Primary[0].Path != "missing.go" || buckets.Primary[0].Reasons[0] != ReasonSeedFile {
		t.Errorf("expected synthesized seed-file entry, got %+v", buckets.Primary[0])
	}
}

func TestBuildBuckets_ContractAndGuardrailMatchPatterns(t *testing.T) {
	ranked := []RankedFile{
		{Path: "api/handler.go", Score: 0.9},
		{Path: "auth/policy.go", Score: 0.8},
		{Path: "misc/util.go", Score: 0.7},
	}
	buckets := BuildBuckets(ranked, nil, 3)

	foundContract := false
	for _, rf := range buckets.Contract {
		if rf.Path == "api/handler.go" {
			foundContract = true
		}
	}
	if !foundContract {
		t.Errorf("expected api/handler.go in contract bucket, got %+v", buckets.Contract)
	}

	foundGuardrail := false
	for _, rf := range buckets.Guardrail {
		if rf.Path == "auth/policy.go" {
			foundGuardrail = true
		}
	}
	if !foundGuardrail {
		t.Errorf("expected auth/policy.go in guardrail bucket, got %+v", buckets.Guardrail)
	}
}
