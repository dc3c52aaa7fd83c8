package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/spf13/cobra"

	"github.com/ctxspine/repomap/internal/config"
	"github.com/ctxspine/repomap/internal/store"
)

var buildDiffRange string

var buildCmd = &cobra.Command{
	Use:   "build [repoRoot]",
	Short: "Build (or incrementally update) the index and graph for a repository",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildDiffRange, "diff-range", "", "git diff range to scope an incremental build (e.g. HEAD~1..HEAD)")
	rootCmd.AddCommand(buildCmd)

	updateCmd.Flags().StringVar(&buildDiffRange, "diff-range", "", "git diff range to scope the update")
	rootCmd.AddCommand(updateCmd)
}

// updateCmd is a thin alias for build: the Incremental Driver already
// decides full-vs-incremental on its own (§4.8), so "update" exists only
// to make the caller's intent explicit at the call site.
var updateCmd = &cobra.Command{
	Use:   "update [repoRoot]",
	Short: "Incrementally update the index and graph (alias for build)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	repoRoot := repoRootArg(args)
	logger := newLogger()

	eng, err := buildEngine(repoRoot, logger)
	if err != nil {
		return fmt.Errorf("wire engine: %w", err)
	}

	result, err := eng.driver.Run(cmd.Context(), repoRoot, buildDiffRange)
	if err != nil {
		return fmt.Errorf("run build: %w", err)
	}

	if err := store.SaveState(repoRoot, &store.State{
		Version:     store.StateSchemaVersion,
		GeneratedAt: strfmt.DateTime(time.Now().UTC()),
		RepoRoot:    repoRoot,
		Files:       result.Files,
	}); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	if err := store.SaveGraph(repoRoot, result.Graph); err != nil {
		return fmt.Errorf("save graph: %w", err)
	}

	if eng.settings.RemoteBackend.Enabled {
		if err := mirrorToRemote(cmd.Context(), repoRoot, eng.settings.RemoteBackend, logger); err != nil {
			return fmt.Errorf("mirror to remote backend: %w", err)
		}
	}

	fmt.Printf("parsed=%d reused=%d nodes=%d edges=%d fullBuild=%v\n",
		result.ParsedFiles, result.ReusedFiles, result.Graph.NodeCount(), result.Graph.EdgeCount(), result.FullBuild)
	return nil
}

// repoRootArg returns args[0] if present, else the current directory.
func repoRootArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

// mirrorToRemote uploads the just-saved state.json/graph.json to the
// configured GCS bucket, per C6's optional remote backend.
func mirrorToRemote(ctx context.Context, repoRoot string, settings config.RemoteBackendSettings, logger *slog.Logger) error {
	rb, err := store.NewRemoteBackend(ctx, settings.Bucket, settings.Prefix, store.WithRemoteLogger(logger))
	if err != nil {
		return fmt.Errorf("connect remote backend: %w", err)
	}
	defer rb.Close()

	if err := rb.UploadState(ctx, repoRoot); err != nil {
		return err
	}
	return rb.UploadGraph(ctx, repoRoot)
}
