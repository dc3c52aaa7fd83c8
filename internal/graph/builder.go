package graph

import (
	"context"
	"log/slog"
	"path"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ctxspine/repomap/internal/ast"
	"github.com/ctxspine/repomap/internal/index"
	"github.com/ctxspine/repomap/internal/resolver"
)

// candidateExtensions is the extension-fallback list Phase B tries, in
// order, per §4.5.
var candidateExtensions = []string{
	".ts", ".tsx", ".mts", ".cts", ".js", ".jsx", ".mjs", ".cjs", ".py", ".d.ts",
}

// testPathSegments and testFileSuffixes implement the `isTest` heuristic
// from §4.5's Phase A: a path segment literally named one of these, or a
// filename matching one of these suffixes, marks the file as a test file.
var testPathSegments = map[string]bool{
	"test": true, "tests": true, "__tests__": true,
}

var testFileSuffixes = []string{".test.", ".spec."}

// DefinitionEntry is one def tag's graph identity, indexed for Phase B/C
// lookups: "defsByName" and "defsByFileAndName" in §4.5.
type DefinitionEntry struct {
	OwnerFile  string
	Name       string
	Line       int
	SymbolType string
}

// ResolvedImportBinding is the Phase B output: a single ImportBinding
// translated into zero or more candidate owner files.
type ResolvedImportBinding struct {
	OwnerFile    string // empty when Unresolved is true
	LocalName    string
	ImportedName string
	IsTypeOnly   bool
	Unresolved   bool
	Line         int
}

// Builder constructs a Graph from a FileRecord set and an optional
// Resolver, per §4.5's three-phase algorithm.
type Builder struct {
	resolver *resolver.Resolver
	logger   *slog.Logger
	tracer   trace.Tracer
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithResolver attaches the Module Path Resolver (C4). A nil or disabled
// resolver is fine: Phase B then relies solely on relative resolution and
// the repository-relative-path fallback.
func WithResolver(r *resolver.Resolver) BuilderOption {
	return func(b *Builder) { b.resolver = r }
}

// WithLogger attaches a structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) BuilderOption {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithTracer attaches an OpenTelemetry tracer for per-phase spans.
func WithTracer(t trace.Tracer) BuilderOption {
	return func(b *Builder) {
		if t != nil {
			b.tracer = t
		}
	}
}

// NewBuilder constructs a Builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{logger: slog.Default(), tracer: trace.NewNoopTracerProvider().Tracer("graph")}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build runs Phase A (definitions), Phase B (import resolution), and
// Phase C (edge emission) over records and returns the assembled Graph.
func (b *Builder) Build(ctx context.Context, records map[string]index.FileRecord) (*Graph, error) {
	ctx, span := b.tracer.Start(ctx, "graph.Build")
	defer span.End()
	span.SetAttributes(attribute.Int("repomap.files", len(records)))

	g := New()

	defsByName := map[string][]DefinitionEntry{}
	defsByFileAndName := map[string]map[string][]DefinitionEntry{}

	b.phaseA(g, records, defsByName, defsByFileAndName)
	resolvedImports := b.phaseB(ctx, records)
	b.phaseC(g, records, resolvedImports, defsByName, defsByFileAndName)

	span.SetAttributes(
		attribute.Int("repomap.nodes", g.NodeCount()),
		attribute.Int("repomap.edges", g.EdgeCount()),
	)
	return g, nil
}

// phaseA creates file and symbol nodes, `defines` edges, and the two
// definition indices Phase C needs, per §4.5.
func (b *Builder) phaseA(
	g *Graph,
	records map[string]index.FileRecord,
	defsByName map[string][]DefinitionEntry,
	defsByFileAndName map[string]map[string][]DefinitionEntry,
) {
	paths := sortedKeys(records)
	for _, relPath := range paths {
		rec := records[relPath]
		fileID := FileNodeID(relPath)
		g.AddNode(Node{
			ID:       fileID,
			Kind:     NodeKindFile,
			Path:     relPath,
			Language: string(rec.Language),
			IsTest:   isTestPath(relPath),
		})

		byName := defsByFileAndName[relPath]
		if byName == nil {
			byName = map[string][]DefinitionEntry{}
			defsByFileAndName[relPath] = byName
		}

		for _, tag := range rec.Tags {
			if tag.Kind != ast.TagKindDef {
				continue
			}
			symID := SymbolNodeID(relPath, tag.Name, tag.Line)
			g.AddNode(Node{
				ID:         symID,
				Kind:       NodeKindSymbol,
				Name:       tag.Name,
				OwnerFile:  relPath,
				Line:       tag.Line,
				SymbolType: tag.Type,
			})
			g.AddEdge(Edge{
				Relation:   RelationDefines,
				Source:     fileID,
				Target:     symID,
				Symbol:     tag.Name,
				Line:       tag.Line,
				OwnerFile:  relPath,
				Confidence: ConfidenceHigh,
				Resolution: ResolutionDefinition,
			})

			entry := DefinitionEntry{OwnerFile: relPath, Name: tag.Name, Line: tag.Line, SymbolType: tag.Type}
			defsByName[tag.Name] = append(defsByName[tag.Name], entry)
			byName[tag.Name] = append(byName[tag.Name], entry)
		}
	}
}

// phaseB translates every ImportBinding into zero or more
// ResolvedImportBinding values per file, per §4.5.
func (b *Builder) phaseB(ctx context.Context, records map[string]index.FileRecord) map[string][]ResolvedImportBinding {
	_, span := b.tracer.Start(ctx, "graph.phaseB")
	defer span.End()

	out := make(map[string][]ResolvedImportBinding, len(records))
	for _, relPath := range sortedKeys(records) {
		rec := records[relPath]
		var resolved []ResolvedImportBinding
		for _, imp := range rec.Imports {
			candidates := b.candidatesFor(relPath, imp.ModuleSpecifier)
			hits := b.matchCandidates(candidates, records)
			if len(hits) == 0 {
				resolved = append(resolved, ResolvedImportBinding{
					LocalName:    imp.LocalName,
					ImportedName: imp.ImportedName,
					IsTypeOnly:   imp.IsTypeOnly,
					Unresolved:   true,
					Line:         imp.Line,
				})
				continue
			}
			for _, hit := range hits {
				resolved = append(resolved, ResolvedImportBinding{
					OwnerFile:    hit,
					LocalName:    imp.LocalName,
					ImportedName: imp.ImportedName,
					IsTypeOnly:   imp.IsTypeOnly,
					Line:         imp.Line,
				})
			}
		}
		if resolved != nil {
			out[relPath] = resolved
		}
	}
	return out
}

// candidatesFor builds the list of candidate repository-relative paths
// for one (sourceFile, moduleSpecifier) pair, per §4.4/§4.5: relative
// specifiers join against dirname(sourceFile); everything else consults
// the Resolver and also tries the bare specifier as a repo-relative path.
func (b *Builder) candidatesFor(sourceFile, specifier string) []string {
	if strings.HasPrefix(specifier, ".") {
		joined := path.Join(path.Dir(sourceFile), specifier)
		return []string{path.Clean(joined)}
	}

	var out []string
	seen := map[string]bool{}
	add := func(p string) {
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		out = append(out, p)
	}
	if b.resolver != nil {
		for _, c := range b.resolver.Candidates(specifier) {
			add(c)
		}
	}
	add(path.Clean(specifier))
	return out
}

// matchCandidates expands each candidate with the as-is / extension /
// index-fallback rules of §4.5 and returns every candidate that exists
// in records.
func (b *Builder) matchCandidates(candidates []string, records map[string]index.FileRecord) []string {
	var hits []string
	seen := map[string]bool{}
	addHit := func(p string) {
		if _, ok := records[p]; !ok || seen[p] {
			return
		}
		seen[p] = true
		hits = append(hits, p)
	}

	for _, c := range candidates {
		if path.Ext(c) != "" {
			addHit(c)
		}
		for _, ext := range candidateExtensions {
			addHit(c + ext)
		}
		for _, ext := range candidateExtensions {
			addHit(path.Join(c, "index"+ext))
		}
	}
	return hits
}

// phaseC emits file-level depends_on edges from resolved import bindings,
// then walks every ref tag per the import-suppresses-fallback rule of
// §4.5 and §3's invariants.
func (b *Builder) phaseC(
	g *Graph,
	records map[string]index.FileRecord,
	resolvedImports map[string][]ResolvedImportBinding,
	defsByName map[string][]DefinitionEntry,
	defsByFileAndName map[string]map[string][]DefinitionEntry,
) {
	for _, relPath := range sortedKeys(records) {
		rec := records[relPath]
		fileID := FileNodeID(relPath)
		isTest := isTestPath(relPath)

		bindings := resolvedImports[relPath]
		bindingsByLocalName := map[string][]ResolvedImportBinding{}
		for _, rb := range bindings {
			if rb.Unresolved {
				continue
			}
			if rb.OwnerFile == relPath {
				continue
			}
			g.AddEdge(Edge{
				Relation:    RelationDependsOn,
				Source:      fileID,
				Target:      FileNodeID(rb.OwnerFile),
				Symbol:      rb.ImportedName,
				LocalSymbol: rb.LocalName,
				Line:        rb.Line,
				OwnerFile:   rb.OwnerFile,
				Confidence:  ConfidenceImportOnly,
				Resolution:  ResolutionImportDecl,
			})
		}
		for _, rb := range bindings {
			bindingsByLocalName[rb.LocalName] = append(bindingsByLocalName[rb.LocalName], rb)
		}

		for _, tag := range rec.Tags {
			if tag.Kind != ast.TagKindRef {
				continue
			}
			b.emitRefEdges(g, fileID, relPath, isTest, tag, bindingsByLocalName, defsByName, defsByFileAndName)
		}
	}
}

// emitRefEdges implements §4.5's two-branch ref-tag resolution: bound
// (via an import binding keyed on localName) or fallback (global
// defsByName lookup), never both for the same tag.
func (b *Builder) emitRefEdges(
	g *Graph,
	fileID, relPath string,
	isTest bool,
	tag ast.Tag,
	bindingsByLocalName map[string][]ResolvedImportBinding,
	defsByName map[string][]DefinitionEntry,
	defsByFileAndName map[string]map[string][]DefinitionEntry,
) {
	bound, hasBinding := bindingsByLocalName[tag.Name]
	if hasBinding {
		for _, rb := range bound {
			if rb.Unresolved || rb.ImportedName == ast.ImportedNameStar {
				continue
			}
			expectedName := rb.ImportedName
			if expectedName == ast.ImportedNameDefault {
				expectedName = tag.Name
			}
			defs := defsByFileAndName[rb.OwnerFile][expectedName]
			if len(defs) == 0 {
				if rb.OwnerFile != relPath {
					g.AddEdge(Edge{
						Relation:    RelationDependsOn,
						Source:      fileID,
						Target:      FileNodeID(rb.OwnerFile),
						Symbol:      expectedName,
						LocalSymbol: tag.Name,
						Line:        tag.Line,
						OwnerFile:   rb.OwnerFile,
						Confidence:  ConfidenceImportOnly,
						Resolution:  ResolutionImport,
					})
				}
				continue
			}
			for _, def := range defs {
				symID := SymbolNodeID(def.OwnerFile, def.Name, def.Line)
				g.AddEdge(Edge{
					Relation:   RelationReferences,
					Source:     fileID,
					Target:     symID,
					Symbol:     def.Name,
					Line:       tag.Line,
					OwnerFile:  def.OwnerFile,
					Confidence: ConfidenceHigh,
					Resolution: ResolutionImport,
				})
				if def.OwnerFile != relPath {
					g.AddEdge(Edge{
						Relation:   RelationDependsOn,
						Source:     fileID,
						Target:     FileNodeID(def.OwnerFile),
						Symbol:     def.Name,
						Line:       tag.Line,
						OwnerFile:  def.OwnerFile,
						Confidence: ConfidenceHigh,
						Resolution: ResolutionImport,
					})
					if isTest {
						g.AddEdge(Edge{
							Relation:   RelationTestCovers,
							Source:     fileID,
							Target:     FileNodeID(def.OwnerFile),
							Symbol:     def.Name,
							Line:       tag.Line,
							OwnerFile:  def.OwnerFile,
							Confidence: ConfidenceHigh,
							Resolution: ResolutionImport,
						})
					}
				}
			}
		}
		return
	}

	for _, def := range defsByName[tag.Name] {
		symID := SymbolNodeID(def.OwnerFile, def.Name, def.Line)
		g.AddEdge(Edge{
			Relation:   RelationReferences,
			Source:     fileID,
			Target:     symID,
			Symbol:     def.Name,
			Line:       tag.Line,
			OwnerFile:  def.OwnerFile,
			Confidence: ConfidenceFallback,
			Resolution: ResolutionNameMatch,
		})
		if def.OwnerFile == relPath {
			continue
		}
		g.AddEdge(Edge{
			Relation:   RelationDependsOn,
			Source:     fileID,
			Target:     FileNodeID(def.OwnerFile),
			Symbol:     def.Name,
			Line:       tag.Line,
			OwnerFile:  def.OwnerFile,
			Confidence: ConfidenceFallback,
			Resolution: ResolutionNameMatch,
		})
		if isTest {
			g.AddEdge(Edge{
				Relation:   RelationTestCovers,
				Source:     fileID,
				Target:     FileNodeID(def.OwnerFile),
				Symbol:     def.Name,
				Line:       tag.Line,
				OwnerFile:  def.OwnerFile,
				Confidence: ConfidenceFallback,
				Resolution: ResolutionNameMatch,
			})
		}
	}
}

func isTestPath(relPath string) bool {
	for _, seg := range strings.Split(relPath, "/") {
		if testPathSegments[strings.ToLower(seg)] {
			return true
		}
	}
	base := strings.ToLower(path.Base(relPath))
	for _, suffix := range testFileSuffixes {
		if strings.Contains(base, suffix) {
			return true
		}
	}
	return false
}

func sortedKeys(records map[string]index.FileRecord) []string {
	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
