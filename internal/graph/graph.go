package graph

import (
	"sort"
	"sync"
)

// Graph is a directed multigraph of file and symbol nodes, built fresh on
// every batch or incremental run per §3's lifecycle note: "graph
// nodes/edges are rebuilt from scratch on every build or update from the
// authoritative FileRecord set." Safe for concurrent writes during Build;
// read methods assume the caller has finished building.
type Graph struct {
	mu    sync.Mutex
	nodes map[string]Node
	edges map[edgeKey]Edge
	// adjacency indices, populated lazily by edge insertion for ranker use.
	outEdges map[string][]Edge
}

// New returns an empty Graph ready for AddNode/AddEdge.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]Node),
		edges:    make(map[edgeKey]Edge),
		outEdges: make(map[string][]Edge),
	}
}

// AddNode inserts n, overwriting any existing node with the same ID. This
// is idempotent: Phase A may revisit the same file/symbol id across
// FileRecords that reference the same owner without creating duplicates.
func (g *Graph) AddNode(n Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[n.ID] = n
}

// AddEdge inserts e unless an edge with the same dedup key (§4.5) already
// exists, in which case it is silently dropped. Returns true if the edge
// was newly added.
func (g *Graph) AddEdge(e Edge) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	k := e.key()
	if _, exists := g.edges[k]; exists {
		return false
	}
	g.edges[k] = e
	g.outEdges[e.Source] = append(g.outEdges[e.Source], e)
	return true
}

// Node returns the node with id, if present.
func (g *Graph) Node(id string) (Node, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns every node in the graph, sorted by ID so the serialized
// graph is stable across runs given identical inputs (§5).
func (g *Graph) Nodes() []Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Edges returns every edge in the graph, sorted by its dedup key so the
// serialized graph is stable across runs given identical inputs (§5).
func (g *Graph) Edges() []Edge {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Edge, 0, len(g.edges))
	for _, e := range g.edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return edgeLess(out[i], out[j]) })
	return out
}

// edgeLess orders edges by the same tuple their dedup key is derived from,
// so two builds over identical inputs always emit edges in the same order.
func edgeLess(a, b Edge) bool {
	if a.Relation != b.Relation {
		return a.Relation < b.Relation
	}
	if a.Source != b.Source {
		return a.Source < b.Source
	}
	if a.Target != b.Target {
		return a.Target < b.Target
	}
	if a.Symbol != b.Symbol {
		return a.Symbol < b.Symbol
	}
	if a.LocalSymbol != b.LocalSymbol {
		return a.LocalSymbol < b.LocalSymbol
	}
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	if a.OwnerFile != b.OwnerFile {
		return a.OwnerFile < b.OwnerFile
	}
	return a.Resolution < b.Resolution
}

// EdgesFrom returns every edge whose Source is nodeID.
func (g *Graph) EdgesFrom(nodeID string) []Edge {
	g.mu.Lock()
	defer g.mu.Unlock()
	src := g.outEdges[nodeID]
	out := make([]Edge, len(src))
	copy(out, src)
	return out
}

// NodeCount and EdgeCount report the graph's current size.
func (g *Graph) NodeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.nodes)
}

func (g *Graph) EdgeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.edges)
}
