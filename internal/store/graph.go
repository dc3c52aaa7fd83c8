package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ctxspine/repomap/internal/graph"
)

// GraphSchemaVersion is the version recorded in graph.json.
const GraphSchemaVersion = "v1.0.0"

// SerializedGraph is the on-disk shape of graph.json: nodes and edges
// with their attributes, per §4.6.
type SerializedGraph struct {
	Version string       `json:"version"`
	Nodes   []graph.Node `json:"nodes"`
	Edges   []graph.Edge `json:"edges"`
}

func graphPath(repoRoot string) string {
	return filepath.Join(Dir(repoRoot), "graph.json")
}

// LoadGraph reads graph.json under repoRoot. A missing file returns a nil
// *SerializedGraph and a nil error.
func LoadGraph(repoRoot string) (*SerializedGraph, error) {
	data, err := os.ReadFile(graphPath(repoRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read graph.json: %w", err)
	}
	var sg SerializedGraph
	if err := json.Unmarshal(data, &sg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	return &sg, nil
}

// SaveGraph serializes g to graph.json under repoRoot.
func SaveGraph(repoRoot string, g *graph.Graph) error {
	if err := os.MkdirAll(Dir(repoRoot), 0o755); err != nil {
		return fmt.Errorf("create .repomap dir: %w", err)
	}
	sg := SerializedGraph{
		Version: GraphSchemaVersion,
		Nodes:   g.Nodes(),
		Edges:   g.Edges(),
	}
	data, err := json.MarshalIndent(sg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal graph.json: %w", err)
	}
	if err := os.WriteFile(graphPath(repoRoot), data, 0o644); err != nil {
		return fmt.Errorf("write graph.json: %w", err)
	}
	return nil
}

// ToGraph reconstructs a *graph.Graph from a SerializedGraph, for callers
// (e.g. the Ranker) that need the in-memory adjacency structure rather
// than the flat JSON shape.
func (sg *SerializedGraph) ToGraph() *graph.Graph {
	g := graph.New()
	if sg == nil {
		return g
	}
	for _, n := range sg.Nodes {
		g.AddNode(n)
	}
	for _, e := range sg.Edges {
		g.AddEdge(e)
	}
	return g
}
