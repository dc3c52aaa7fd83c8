package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-openapi/strfmt"
	"github.com/spf13/cobra"

	"github.com/ctxspine/repomap/internal/discovery"
	"github.com/ctxspine/repomap/internal/store"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [repoRoot]",
	Short: "Watch a repository and incrementally rebuild the index on change",
	Long: `Watch recursively notifies on file changes under repoRoot and triggers
an incremental rebuild (internal/incremental), debounced so a burst of
saves from an editor or formatter collapses into a single rebuild. This
supplements the git-diff DiffSource for working-tree changes that
haven't been committed yet.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "quiet period before triggering a rebuild")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	repoRoot := repoRootArg(args)
	logger := newLogger()

	eng, err := buildEngine(repoRoot, logger)
	if err != nil {
		return fmt.Errorf("wire engine: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new watcher: %w", err)
	}
	defer watcher.Close()

	if err := addDirsRecursively(watcher, repoRoot); err != nil {
		return fmt.Errorf("watch %s: %w", repoRoot, err)
	}

	ctx := cmd.Context()
	rebuild := func() {
		logger.Info("rebuilding", "root", repoRoot)
		result, err := eng.driver.Run(ctx, repoRoot, "")
		if err != nil {
			logger.Error("rebuild failed", "error", err)
			return
		}
		if err := store.SaveState(repoRoot, &store.State{
			Version:     store.StateSchemaVersion,
			GeneratedAt: strfmt.DateTime(time.Now().UTC()),
			RepoRoot:    repoRoot,
			Files:       result.Files,
		}); err != nil {
			logger.Error("save state failed", "error", err)
			return
		}
		if err := store.SaveGraph(repoRoot, result.Graph); err != nil {
			logger.Error("save graph failed", "error", err)
			return
		}
		if eng.settings.RemoteBackend.Enabled {
			if err := mirrorToRemote(ctx, repoRoot, eng.settings.RemoteBackend, logger); err != nil {
				logger.Error("mirror to remote backend failed", "error", err)
				return
			}
		}
		logger.Info("rebuilt", "parsed", result.ParsedFiles, "reused", result.ReusedFiles)
	}

	var debounceTimer *time.Timer
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
				}
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(watchDebounce, rebuild)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}

// addDirsRecursively registers every directory under root (skipping the
// same ignored directories discovery.Discover skips), since fsnotify
// watches are not recursive.
func addDirsRecursively(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if slices.Contains(discovery.DefaultIgnoredDirs, d.Name()) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
