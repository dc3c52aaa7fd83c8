package index

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/go-openapi/strfmt"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/ctxspine/repomap/internal/ast"
	"github.com/ctxspine/repomap/internal/discovery"
)

// BuildResult is C3's output contract: the path-keyed record map plus the
// reuse/reparse counters §6 requires callers to be able to report.
type BuildResult struct {
	Files       map[string]FileRecord
	ParsedFiles int
	ReusedFiles int
}

// FileIndex runs the bounded-concurrency parse pipeline described in §5:
// discovered files are hashed, checked against a prior record (by path) and
// then against the content-addressed HashCache, and only truly novel
// content is handed to the tree-sitter pool.
type FileIndex struct {
	pool        *ast.Pool
	cache       *HashCache
	concurrency int
	logger      *slog.Logger
}

// IndexOption configures a FileIndex.
type IndexOption func(*FileIndex)

// WithCache attaches a HashCache accelerant. Optional: a FileIndex with no
// cache still works, it just reparses anything prior state.json doesn't
// already cover by path.
func WithCache(c *HashCache) IndexOption {
	return func(fi *FileIndex) { fi.cache = c }
}

// WithConcurrency bounds the number of files parsed at once. Defaults to 8.
func WithConcurrency(n int) IndexOption {
	return func(fi *FileIndex) {
		if n > 0 {
			fi.concurrency = n
		}
	}
}

// WithLogger attaches a structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) IndexOption {
	return func(fi *FileIndex) {
		if l != nil {
			fi.logger = l
		}
	}
}

// NewFileIndex constructs a FileIndex around pool.
func NewFileIndex(pool *ast.Pool, opts ...IndexOption) *FileIndex {
	fi := &FileIndex{
		pool:        pool,
		concurrency: 8,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(fi)
	}
	return fi
}

// Build parses every file in files, reusing prior[relPath] (and, failing
// that, the HashCache) whenever the file's content hash is unchanged and
// the cached record is well-formed, per §4.3. Parsing fans out across
// fi.concurrency workers via a semaphore-bounded mapLimit, matching the
// worker-pool idiom in §5.
func (fi *FileIndex) Build(ctx context.Context, files []discovery.File, prior map[string]FileRecord) (*BuildResult, error) {
	sem := semaphore.NewWeighted(int64(fi.concurrency))
	var (
		mu      sync.Mutex
		g       errgroup.Group
		result  = &BuildResult{Files: make(map[string]FileRecord, len(files))}
		counter struct {
			parsed, reused, skipped int
		}
	)

	for _, f := range files {
		f := f
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("acquire parse slot for %s: %w", f.RelPath, err)
		}
		g.Go(func() error {
			defer sem.Release(1)

			rec, reused, err := fi.resolveOne(ctx, f, prior)
			if err != nil {
				fi.logger.Warn("skipping file after parse error",
					"file", f.RelPath, "language", f.Language, "error", err)
				mu.Lock()
				if p, ok := prior[f.RelPath]; ok {
					result.Files[f.RelPath] = p
				}
				counter.skipped++
				mu.Unlock()
				return nil
			}

			mu.Lock()
			result.Files[f.RelPath] = rec
			if reused {
				counter.reused++
			} else {
				counter.parsed++
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.ParsedFiles = counter.parsed
	result.ReusedFiles = counter.reused
	fi.logger.Info("file index built",
		"total", len(files), "parsed", result.ParsedFiles, "reused", result.ReusedFiles, "skipped", counter.skipped)
	return result, nil
}

// resolveOne hashes one file's content and returns either a reused record
// or a freshly parsed one, recording the latter into the HashCache.
func (fi *FileIndex) resolveOne(ctx context.Context, f discovery.File, prior map[string]FileRecord) (FileRecord, bool, error) {
	content, err := os.ReadFile(f.AbsPath)
	if err != nil {
		return FileRecord{}, false, fmt.Errorf("read: %w", err)
	}
	hash := hashContent(content)

	if p, ok := prior[f.RelPath]; ok && p.Hash == hash && p.wellFormed() {
		return p, true, nil
	}
	if fi.cache != nil {
		if cached, ok := fi.cache.Get(hash); ok {
			return cached, true, nil
		}
	}

	parsed, err := fi.pool.Parse(ctx, f.Language, content, f.RelPath)
	if err != nil {
		return FileRecord{}, false, err
	}
	rec := FileRecord{
		Hash:         hash,
		Language:     f.Language,
		Tags:         parsed.Tags,
		Imports:      parsed.Imports,
		LastParsedAt: strfmt.DateTime(time.Now().UTC()),
	}
	if fi.cache != nil {
		fi.cache.Put(hash, rec)
	}
	return rec, false, nil
}

func hashContent(content []byte) string {
	sum := sha1.Sum(content)
	return hex.EncodeToString(sum[:])
}
