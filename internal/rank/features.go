package rank

import (
	"regexp"
	"strings"
	"time"

	"github.com/ctxspine/repomap/internal/graph"
	"github.com/ctxspine/repomap/internal/index"
)

// riskRule is one entry of the regex cascade in §4.7's `risk` feature.
type riskRule struct {
	pattern *regexp.Regexp
	value   float64
}

var riskRules = []riskRule{
	{regexp.MustCompile(`auth|permission|acl|policy|security`), 1.0},
	{regexp.MustCompile(`payment|billing|invoice|money|wallet`), 0.95},
	{regexp.MustCompile(`migration|schema|db|database|sql|model`), 0.85},
	{regexp.MustCompile(`api|route|controller|handler`), 0.7},
	{regexp.MustCompile(`test|spec`), 0.25},
}

const riskDefault = 0.45

var testPathPattern = regexp.MustCompile(`test|spec`)

const oneWeekMillis = float64(7 * 24 * time.Hour / time.Millisecond)

// riskFor implements the first-match-wins regex cascade on the lowercased
// path.
func riskFor(path string) float64 {
	lower := strings.ToLower(path)
	for _, rule := range riskRules {
		if rule.pattern.MatchString(lower) {
			return rule.value
		}
	}
	return riskDefault
}

// boundaryImpactFor counts unique file-node neighbors reachable via any
// in- or out-edge, divided by 12, clamped to [0, 1], per §4.7.
func boundaryImpactFor(g *graph.Graph, fileID string, incoming map[string][]graph.Edge) float64 {
	neighbors := map[string]bool{}
	for _, e := range g.EdgesFrom(fileID) {
		if tgt, ok := g.Node(e.Target); ok && tgt.Kind == graph.NodeKindFile {
			neighbors[tgt.ID] = true
		}
	}
	for _, e := range incoming[fileID] {
		if src, ok := g.Node(e.Source); ok && src.Kind == graph.NodeKindFile {
			neighbors[src.ID] = true
		}
	}
	return clamp01(float64(len(neighbors)) / 12.0)
}

// testGapFor implements §4.7's three-branch rule.
func testGapFor(path string, fileID string, incoming map[string][]graph.Edge) float64 {
	if testPathPattern.MatchString(strings.ToLower(path)) {
		return 0.2
	}
	for _, e := range incoming[fileID] {
		if e.Relation == graph.RelationTestCovers {
			return 0.1
		}
	}
	return 0.9
}

// freshnessFor implements §4.7's freshness rule against now.
func freshnessFor(rec index.FileRecord, now time.Time) float64 {
	t := time.Time(rec.LastParsedAt)
	if t.IsZero() {
		return 0
	}
	ageMs := float64(now.Sub(t).Milliseconds())
	if ageMs < 0 {
		ageMs = 0
	}
	return clamp01(1 - ageMs/oneWeekMillis)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// minMaxNormalizePPR implements §4.7's ppr feature: min-max normalization
// across all file nodes; if all equal, all values become 0.5.
func minMaxNormalizePPR(scores map[string]float64, fileIDs []string) map[string]float64 {
	out := make(map[string]float64, len(fileIDs))
	if len(fileIDs) == 0 {
		return out
	}

	min, max := scores[fileIDs[0]], scores[fileIDs[0]]
	for _, id := range fileIDs {
		v := scores[id]
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	if max == min {
		for _, id := range fileIDs {
			out[id] = 0.5
		}
		return out
	}
	for _, id := range fileIDs {
		out[id] = (scores[id] - min) / (max - min)
	}
	return out
}

// buildIncomingIndex groups every edge by its Target, so per-file feature
// extraction doesn't re-scan the full edge list for each file.
func buildIncomingIndex(g *graph.Graph) map[string][]graph.Edge {
	incoming := map[string][]graph.Edge{}
	for _, e := range g.Edges() {
		incoming[e.Target] = append(incoming[e.Target], e)
	}
	return incoming
}
