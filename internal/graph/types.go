// Package graph implements C5 Graph Builder: reconciling FileRecords and
// an optional module resolver into the typed multi-edge directed graph of
// file and symbol nodes described in §3.
package graph

import (
	"net/url"
	"strconv"
)

// NodeKind distinguishes the two node shapes the graph holds.
type NodeKind string

const (
	NodeKindFile   NodeKind = "file"
	NodeKindSymbol NodeKind = "symbol"
)

// Relation is one of the four edge kinds §3 defines.
type Relation string

const (
	RelationDefines    Relation = "defines"
	RelationReferences Relation = "references"
	RelationDependsOn  Relation = "depends_on"
	RelationTestCovers Relation = "test_covers"
)

// Confidence classifies how an edge was established.
type Confidence string

const (
	ConfidenceHigh       Confidence = "high"
	ConfidenceImportOnly Confidence = "import_only"
	ConfidenceFallback   Confidence = "fallback"
)

// Resolution names the mechanism that produced an edge.
type Resolution string

const (
	ResolutionDefinition Resolution = "definition"
	ResolutionImport     Resolution = "import"
	ResolutionImportDecl Resolution = "import_declaration"
	ResolutionNameMatch  Resolution = "name_match"
)

// Node is one vertex in the graph — either a file or a symbol, per §3.
type Node struct {
	ID   string   `json:"id"`
	Kind NodeKind `json:"kind"`

	// File node attributes.
	Path     string `json:"path,omitempty"`
	Language string `json:"language,omitempty"`
	IsTest   bool   `json:"isTest,omitempty"`

	// Symbol node attributes.
	Name       string `json:"name,omitempty"`
	OwnerFile  string `json:"ownerFile,omitempty"`
	Line       int    `json:"line,omitempty"`
	SymbolType string `json:"symbolType,omitempty"`
}

// Edge is one directed, attributed relationship between two nodes. The
// key fields mirror §4.5's dedup tuple exactly so Graph.AddEdge can dedup
// by recomputing key().
type Edge struct {
	Relation    Relation   `json:"relation"`
	Source      string     `json:"source"`
	Target      string     `json:"target"`
	Symbol      string     `json:"symbol,omitempty"`
	LocalSymbol string     `json:"localSymbol,omitempty"`
	Line        int        `json:"line,omitempty"`
	OwnerFile   string     `json:"ownerFile,omitempty"`
	Confidence  Confidence `json:"confidence"`
	Resolution  Resolution `json:"resolution"`
}

// edgeKey is the deterministic dedup identity of an edge, per §4.5: "each
// edge is keyed by (relation, source, target, symbol, localSymbol, line,
// ownerFile, resolution)". Confidence is deliberately excluded — two
// edges agreeing on every other field are the same edge even if a caller
// somehow proposed differing confidences.
type edgeKey struct {
	relation    Relation
	source      string
	target      string
	symbol      string
	localSymbol string
	line        int
	ownerFile   string
	resolution  Resolution
}

func (e Edge) key() edgeKey {
	return edgeKey{
		relation:    e.Relation,
		source:      e.Source,
		target:      e.Target,
		symbol:      e.Symbol,
		localSymbol: e.LocalSymbol,
		line:        e.Line,
		ownerFile:   e.OwnerFile,
		resolution:  e.Resolution,
	}
}

// FileNodeID returns the stable id for a file node: `file:<relPath>`.
func FileNodeID(relPath string) string {
	return "file:" + relPath
}

// SymbolNodeID returns the stable id for a symbol node, per §3:
// `sym:<urlencoded(path)>:<urlencoded(name)>:<line>`.
func SymbolNodeID(path, name string, line int) string {
	return "sym:" + url.QueryEscape(path) + ":" + url.QueryEscape(name) + ":" + strconv.Itoa(line)
}
