// Command repomap builds and queries a symbol/file relevance graph for a
// source repository: a thin cobra CLI over the engine in internal/ —
// build/rank/update/watch/serve/mcp subcommands, with every algorithm
// living in the internal packages per the explicit CLI-thinness non-goal.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	// verbose enables debug-level logging across every subcommand.
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "repomap",
	Short: "Rank the files most relevant to a change, from a symbol/file graph",
	Long: `repomap builds a multigraph of files and symbols from a source tree,
then ranks files by Personalized PageRank plus risk, boundary-impact,
test-gap, and freshness signals to assemble a context spine around a
set of seed files.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command. Called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
