package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ctxspine/repomap/internal/config"
	"github.com/ctxspine/repomap/internal/rank"
	"github.com/ctxspine/repomap/internal/store"
	"github.com/ctxspine/repomap/internal/tui"
)

var (
	rankSeeds []string
	rankTopK  int
)

var rankCmd = &cobra.Command{
	Use:   "rank [repoRoot]",
	Short: "Rank files by relevance to a set of seed files",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRank,
}

func init() {
	rankCmd.Flags().StringSliceVar(&rankSeeds, "seed", nil, "seed file path, repeatable (e.g. --seed auth.py --seed util.py)")
	rankCmd.Flags().IntVar(&rankTopK, "top-k", 50, "maximum number of files to rank")
	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, args []string) error {
	repoRoot := repoRootArg(args)
	logger := newLogger()

	st, err := store.LoadState(repoRoot)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if st == nil {
		return fmt.Errorf("%w: run `repomap build` first", store.ErrIndexNotBuilt)
	}
	sg, err := store.LoadGraph(repoRoot)
	if err != nil {
		return fmt.Errorf("load graph: %w", err)
	}
	if sg == nil {
		return fmt.Errorf("%w: run `repomap build` first", store.ErrIndexNotBuilt)
	}

	settings, err := config.Load(repoRoot)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	ranker := rank.New(rank.WithLogger(logger), rank.WithWeights(rank.Weights{
		PPR:            settings.RankerWeights.PPR,
		Risk:           settings.RankerWeights.Risk,
		BoundaryImpact: settings.RankerWeights.BoundaryImpact,
		TestGap:        settings.RankerWeights.TestGap,
		Freshness:      settings.RankerWeights.Freshness,
	}))
	g := sg.ToGraph()
	ranked := ranker.Rank(cmd.Context(), g, st.Files, rankSeeds, rankTopK)
	buckets := rank.BuildBuckets(ranked, rankSeeds, rankTopK)

	selected, err := tui.Browse(os.Stdout, buckets)
	if err != nil {
		return fmt.Errorf("browse: %w", err)
	}
	if selected != "" {
		fmt.Println(selected)
	}
	return nil
}
