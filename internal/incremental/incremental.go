// Package incremental implements C8: given previous state and an
// optional diff range, re-parse only changed-or-new candidates, drop
// deleted entries, and rebuild the graph from the merged index, per
// §4.8.
package incremental

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ctxspine/repomap/internal/ast"
	"github.com/ctxspine/repomap/internal/diffsource"
	"github.com/ctxspine/repomap/internal/discovery"
	"github.com/ctxspine/repomap/internal/graph"
	"github.com/ctxspine/repomap/internal/index"
	"github.com/ctxspine/repomap/internal/resolver"
	"github.com/ctxspine/repomap/internal/store"
)

// Driver runs full or incremental rebuilds, choosing between them per
// §4.8's "if no previous state: delegate to full build" rule.
type Driver struct {
	pool         *ast.Pool
	fi           *index.FileIndex
	resolver     *resolver.Resolver
	diff         diffsource.Source
	logger       *slog.Logger
	discoverOpts discovery.Options
}

// Option configures a Driver.
type Option func(*Driver)

// WithResolver attaches the module resolver used by the Graph Builder.
func WithResolver(r *resolver.Resolver) Option {
	return func(d *Driver) { d.resolver = r }
}

// WithLogger attaches a structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithDiscoveryOptions sets the options passed to discovery.Discover on
// every Run, e.g. extra ignore globs from engine settings.
func WithDiscoveryOptions(opts discovery.Options) Option {
	return func(d *Driver) { d.discoverOpts = opts }
}

// NewDriver constructs a Driver. pool is shared with a direct (batch)
// build; fi wraps pool with a concurrency bound and cache; diffSrc may be
// nil, in which case every incremental Run degrades to discovery-only
// (no deleted-file detection beyond "missing from discovery").
func NewDriver(pool *ast.Pool, fi *index.FileIndex, diffSrc diffsource.Source, opts ...Option) *Driver {
	d := &Driver{pool: pool, fi: fi, diff: diffSrc, logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Result is the outcome of one Run.
type Result struct {
	Graph       *graph.Graph
	Files       map[string]index.FileRecord
	ParsedFiles int
	ReusedFiles int
	FullBuild   bool
}

// Run executes §4.8's algorithm against rootDir, using diffRange (may be
// empty) to scope the diff source query.
func (d *Driver) Run(ctx context.Context, rootDir string, diffRange string) (*Result, error) {
	prior, err := store.LoadState(rootDir)
	if err != nil {
		return nil, fmt.Errorf("load prior state: %w", err)
	}
	if prior == nil {
		d.logger.Info("no prior state found, running full build", "root", rootDir)
		return d.fullBuild(ctx, rootDir)
	}
	return d.incrementalBuild(ctx, rootDir, diffRange, prior)
}

func (d *Driver) fullBuild(ctx context.Context, rootDir string) (*Result, error) {
	files, err := discovery.Discover(rootDir, d.discoverOpts)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	buildResult, err := d.fi.Build(ctx, files, nil)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	return d.finish(ctx, buildResult)
}

func (d *Driver) incrementalBuild(ctx context.Context, rootDir, diffRange string, prior *store.State) (*Result, error) {
	discovered, err := discovery.Discover(rootDir, d.discoverOpts)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	discoveredSet := make(map[string]bool, len(discovered))
	for _, f := range discovered {
		discoveredSet[f.RelPath] = true
	}

	changedSet := map[string]bool{}
	deletedSet := map[string]bool{}
	if d.diff != nil {
		changed, err := d.diff.Changed(ctx, rootDir, diffRange)
		if err != nil {
			return nil, fmt.Errorf("diff source changed: %w", err)
		}
		for _, p := range changed {
			changedSet[p] = true
		}
		deleted, err := d.diff.Deleted(ctx, rootDir, diffRange)
		if err != nil {
			return nil, fmt.Errorf("diff source deleted: %w", err)
		}
		for _, p := range deleted {
			deletedSet[p] = true
		}
	}

	// Parse candidates that are changed OR newly present in discovery.
	var toParse []discovery.File
	for _, f := range discovered {
		_, inPrior := prior.Files[f.RelPath]
		if changedSet[f.RelPath] || !inPrior {
			toParse = append(toParse, f)
		}
	}

	// Seed the merged index from prior, dropping entries absent from
	// discovery or named as deleted.
	merged := make(map[string]index.FileRecord, len(prior.Files))
	for relPath, rec := range prior.Files {
		if !discoveredSet[relPath] || deletedSet[relPath] {
			continue
		}
		merged[relPath] = rec
	}

	buildResult, err := d.fi.Build(ctx, toParse, merged)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	for relPath, rec := range buildResult.Files {
		merged[relPath] = rec
	}

	result, err := d.finishFrom(ctx, merged, buildResult.ParsedFiles, buildResult.ReusedFiles)
	if err != nil {
		return nil, err
	}
	result.FullBuild = false
	return result, nil
}

func (d *Driver) finish(ctx context.Context, buildResult *index.BuildResult) (*Result, error) {
	result, err := d.finishFrom(ctx, buildResult.Files, buildResult.ParsedFiles, buildResult.ReusedFiles)
	if err != nil {
		return nil, err
	}
	result.FullBuild = true
	return result, nil
}

func (d *Driver) finishFrom(ctx context.Context, files map[string]index.FileRecord, parsed, reused int) (*Result, error) {
	builder := graph.NewBuilder(graph.WithResolver(d.resolver), graph.WithLogger(d.logger))
	g, err := builder.Build(ctx, files)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}
	return &Result{
		Graph:       g,
		Files:       files,
		ParsedFiles: parsed,
		ReusedFiles: reused,
	}, nil
}
