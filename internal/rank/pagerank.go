package rank

import (
	"github.com/ctxspine/repomap/internal/graph"
)

const (
	pprAlpha     = 0.85
	pprMaxIters  = 100
	pprTolerance = 1e-6
)

// personalizedPageRank runs power iteration over g's adjacency, seeded by
// a personalization vector, per §4.7: "Implementations may use any
// standard power-iteration." gonum's network.PageRank only supports a
// uniform teleport vector, so this is a direct hand-rolled iteration
// rather than a thin wrapper.
//
// personalization maps node ID → teleport weight. Nodes absent from the
// map get weight 0. The weights are normalized here to sum to 1; if they
// sum to 0, or personalization is empty, the teleport is uniform.
func personalizedPageRank(g *graph.Graph, personalization map[string]float64) map[string]float64 {
	nodes := g.Nodes()
	n := len(nodes)
	if n == 0 {
		return map[string]float64{}
	}

	ids := make([]string, n)
	index := make(map[string]int, n)
	for i, node := range nodes {
		ids[i] = node.ID
		index[node.ID] = i
	}

	outDegree := make([]int, n)
	adjacency := make([][]int, n)
	for i, id := range ids {
		for _, e := range g.EdgesFrom(id) {
			tgt, ok := index[e.Target]
			if !ok || tgt == i {
				continue
			}
			adjacency[i] = append(adjacency[i], tgt)
			outDegree[i]++
		}
	}

	teleport := make([]float64, n)
	hasPersonalization := len(personalization) > 0
	if hasPersonalization {
		var sum float64
		for i, id := range ids {
			teleport[i] = personalization[id]
			sum += teleport[i]
		}
		if sum > 0 {
			for i := range teleport {
				teleport[i] /= sum
			}
		} else {
			hasPersonalization = false
		}
	}
	if !hasPersonalization {
		uniform := 1.0 / float64(n)
		for i := range teleport {
			teleport[i] = uniform
		}
	}

	rank := make([]float64, n)
	copy(rank, teleport)

	next := make([]float64, n)
	for iter := 0; iter < pprMaxIters; iter++ {
		for i := range next {
			next[i] = 0
		}

		var danglingMass float64
		for i, outs := range adjacency {
			if outDegree[i] == 0 {
				danglingMass += rank[i]
				continue
			}
			share := rank[i] / float64(outDegree[i])
			for _, tgt := range outs {
				next[tgt] += share
			}
		}

		var delta float64
		for i := range next {
			value := pprAlpha*(next[i]+danglingMass*teleport[i]) + (1-pprAlpha)*teleport[i]
			delta += abs(value - rank[i])
			next[i] = value
		}
		rank, next = next, rank
		if delta < pprTolerance {
			break
		}
	}

	out := make(map[string]float64, n)
	for i, id := range ids {
		out[id] = rank[i]
	}
	return out
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// buildPersonalization assigns 1.0 to file nodes whose path is a seed,
// 0.01 to every other node (symbol nodes included), per §4.7. If seeds is
// empty, returns nil so the caller uses uniform teleport.
func buildPersonalization(g *graph.Graph, seeds map[string]bool) map[string]float64 {
	if len(seeds) == 0 {
		return nil
	}
	personalization := map[string]float64{}
	for _, n := range g.Nodes() {
		if n.Kind == graph.NodeKindFile && seeds[n.Path] {
			personalization[n.ID] = 1.0
		} else {
			personalization[n.ID] = 0.01
		}
	}
	return personalization
}
