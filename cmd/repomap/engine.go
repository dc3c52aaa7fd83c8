package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/ctxspine/repomap/internal/ast"
	"github.com/ctxspine/repomap/internal/config"
	"github.com/ctxspine/repomap/internal/diffsource"
	"github.com/ctxspine/repomap/internal/discovery"
	"github.com/ctxspine/repomap/internal/incremental"
	"github.com/ctxspine/repomap/internal/index"
	"github.com/ctxspine/repomap/internal/rank"
	"github.com/ctxspine/repomap/internal/resolver"
)

// engine bundles the components every subcommand wires together, built
// fresh per invocation from the target repository's own settings.
type engine struct {
	pool     *ast.Pool
	fi       *index.FileIndex
	res      *resolver.Resolver
	diff     diffsource.Source
	driver   *incremental.Driver
	ranker   *rank.Ranker
	settings *config.Settings
}

// buildEngine loads repomap.yaml (or its embedded defaults) and wires
// the parser pool, content-hash cache, module resolver, git diff source,
// incremental driver, and ranker for repoRoot.
func buildEngine(repoRoot string, logger *slog.Logger) (*engine, error) {
	settings, err := config.Load(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	pool, err := ast.NewPool()
	if err != nil {
		return nil, fmt.Errorf("new parser pool: %w", err)
	}

	cacheDir := settings.CacheDir
	if !filepath.IsAbs(cacheDir) {
		cacheDir = filepath.Join(repoRoot, cacheDir)
	}
	cache, err := index.OpenHashCache(cacheDir, logger)
	if err != nil {
		return nil, fmt.Errorf("open hash cache: %w", err)
	}

	fi := index.NewFileIndex(pool,
		index.WithCache(cache),
		index.WithConcurrency(settings.WorkerCount),
		index.WithLogger(logger))

	res := resolver.New(repoRoot, filepath.Join(repoRoot, "tsconfig.json"), resolver.WithLogger(logger))
	diffSrc := diffsource.NewGitSource()

	driver := incremental.NewDriver(pool, fi, diffSrc,
		incremental.WithResolver(res), incremental.WithLogger(logger),
		incremental.WithDiscoveryOptions(discovery.Options{IgnoreGlobs: settings.ExtraIgnoreGlobs}))
	ranker := rank.New(rank.WithLogger(logger), rank.WithWeights(rank.Weights{
		PPR:            settings.RankerWeights.PPR,
		Risk:           settings.RankerWeights.Risk,
		BoundaryImpact: settings.RankerWeights.BoundaryImpact,
		TestGap:        settings.RankerWeights.TestGap,
		Freshness:      settings.RankerWeights.Freshness,
	}))

	return &engine{
		pool:     pool,
		fi:       fi,
		res:      res,
		diff:     diffSrc,
		driver:   driver,
		ranker:   ranker,
		settings: settings,
	}, nil
}
