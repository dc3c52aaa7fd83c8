package rank

import (
	"regexp"
	"strings"
)

// Buckets is the four-way partition of a ranked list into the context
// spine's primary/causal/contract/guardrail groups, per §4.7's final
// paragraph. This is "performed by the context assembly that uses the
// ranker" — kept as a thin function over Ranker's own output rather than
// folded into Rank itself, so callers that only want raw scores aren't
// forced to pay for bucketing.
type Buckets struct {
	Primary   []RankedFile `json:"primary"`
	Causal    []RankedFile `json:"causal"`
	Contract  []RankedFile `json:"contract"`
	Guardrail []RankedFile `json:"guardrail"`
}

var contractPattern = regexp.MustCompile(`(?i)(api|route|router|controller|handler|schema|contract|dto|migration|openapi|proto)`)
var guardrailPattern = regexp.MustCompile(`(?i)(test|spec|auth|permission|security|policy|payment|billing|migration)`)

// BuildBuckets partitions ranked (the full Top-K list from Rank) plus the
// original seed path list into the four buckets.
//
// Primary is built straight from seeds: seeds present in ranked keep
// their computed features; seeds absent from the graph entirely are
// synthesized with zeroed features and the "seed-file" reason, per §4.7.
func BuildBuckets(ranked []RankedFile, seeds []string, k int) Buckets {
	seedSet := make(map[string]bool, len(seeds))
	for _, s := range seeds {
		seedSet[s] = true
	}

	var primary []RankedFile
	seenSeed := map[string]bool{}
	for _, rf := range ranked {
		if seedSet[rf.Path] {
			primary = append(primary, rf)
			seenSeed[rf.Path] = true
		}
	}
	for _, s := range seeds {
		if !seenSeed[s] {
			primary = append(primary, RankedFile{
				Path:    s,
				IsSeed:  true,
				Reasons: []string{ReasonSeedFile},
			})
		}
	}

	var tail []RankedFile
	for _, rf := range ranked {
		if !seedSet[rf.Path] {
			tail = append(tail, rf)
		}
	}

	causal := tail
	if len(causal) > k {
		causal = causal[:k]
	}

	quota := k / 2
	if quota*2 < k {
		quota++
	}
	if quota < 5 {
		quota = 5
	}

	contract := matchQuota(tail, contractPattern, quota)
	guardrail := matchQuota(tail, guardrailPattern, quota)

	return Buckets{
		Primary:   primary,
		Causal:    append([]RankedFile{}, causal...),
		Contract:  contract,
		Guardrail: guardrail,
	}
}

func matchQuota(tail []RankedFile, pattern *regexp.Regexp, quota int) []RankedFile {
	var out []RankedFile
	for _, rf := range tail {
		if !pattern.MatchString(strings.ToLower(rf.Path)) {
			continue
		}
		out = append(out, rf)
		if len(out) >= quota {
			break
		}
	}
	return out
}
