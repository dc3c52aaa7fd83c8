package mcpserver

import (
	"context"
	"fmt"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ctxspine/repomap/internal/rank"
	"github.com/ctxspine/repomap/internal/store"
)

func (s *Server) buildIndexHandler() mcp.ToolHandlerFor[BuildIndexParams, BuildIndexResponse] {
	return func(ctx context.Context, ss *mcp.ServerSession, params *mcp.CallToolParamsFor[BuildIndexParams]) (*mcp.CallToolResultFor[BuildIndexResponse], error) {
		args := params.Arguments
		if args.RepoRoot == "" {
			return nil, fmt.Errorf("repoRoot is required")
		}

		result, err := s.driver.Run(ctx, args.RepoRoot, args.DiffRange)
		if err != nil {
			return nil, fmt.Errorf("build index: %w", err)
		}

		if err := store.SaveState(args.RepoRoot, &store.State{
			Version:     store.StateSchemaVersion,
			GeneratedAt: strfmt.DateTime(time.Now().UTC()),
			RepoRoot:    args.RepoRoot,
			Files:       result.Files,
		}); err != nil {
			return nil, fmt.Errorf("persist state: %w", err)
		}
		if err := store.SaveGraph(args.RepoRoot, result.Graph); err != nil {
			return nil, fmt.Errorf("persist graph: %w", err)
		}

		resp := BuildIndexResponse{
			ParsedFiles: result.ParsedFiles,
			ReusedFiles: result.ReusedFiles,
			NodeCount:   result.Graph.NodeCount(),
			EdgeCount:   result.Graph.EdgeCount(),
			FullBuild:   result.FullBuild,
		}

		return &mcp.CallToolResultFor[BuildIndexResponse]{
			Content: []mcp.Content{
				&mcp.TextContent{
					Text: fmt.Sprintf("Indexed %s: %d parsed, %d reused, %d nodes, %d edges (full=%v)",
						args.RepoRoot, resp.ParsedFiles, resp.ReusedFiles, resp.NodeCount, resp.EdgeCount, resp.FullBuild),
				},
			},
			StructuredContent: resp,
		}, nil
	}
}

func (s *Server) rankContextHandler() mcp.ToolHandlerFor[RankContextParams, RankContextResponse] {
	return func(ctx context.Context, ss *mcp.ServerSession, params *mcp.CallToolParamsFor[RankContextParams]) (*mcp.CallToolResultFor[RankContextResponse], error) {
		args := params.Arguments
		if args.RepoRoot == "" {
			return nil, fmt.Errorf("repoRoot is required")
		}
		topK := args.TopK
		if topK <= 0 {
			topK = 50
		}

		st, err := store.LoadState(args.RepoRoot)
		if err != nil {
			return nil, fmt.Errorf("load state: %w", err)
		}
		if st == nil {
			return nil, fmt.Errorf("%w: call build_index first", store.ErrIndexNotBuilt)
		}
		sg, err := store.LoadGraph(args.RepoRoot)
		if err != nil {
			return nil, fmt.Errorf("load graph: %w", err)
		}
		if sg == nil {
			return nil, fmt.Errorf("%w: call build_index first", store.ErrIndexNotBuilt)
		}

		g := sg.ToGraph()
		ranked := s.ranker.Rank(ctx, g, st.Files, args.Seeds, topK)
		buckets := rank.BuildBuckets(ranked, args.Seeds, topK)

		resp := RankContextResponse{
			Primary:   toEntries(buckets.Primary),
			Causal:    toEntries(buckets.Causal),
			Contract:  toEntries(buckets.Contract),
			Guardrail: toEntries(buckets.Guardrail),
		}

		return &mcp.CallToolResultFor[RankContextResponse]{
			Content: []mcp.Content{
				&mcp.TextContent{
					Text: fmt.Sprintf("Context spine for %s: %d primary, %d causal, %d contract, %d guardrail",
						args.RepoRoot, len(resp.Primary), len(resp.Causal), len(resp.Contract), len(resp.Guardrail)),
				},
			},
			StructuredContent: resp,
		}, nil
	}
}

func toEntries(rfs []rank.RankedFile) []RankedEntry {
	entries := make([]RankedEntry, 0, len(rfs))
	for _, rf := range rfs {
		entries = append(entries, RankedEntry{
			Path:           rf.Path,
			Score:          rf.Score,
			Reasons:        rf.Reasons,
			IsSeed:         rf.IsSeed,
			PPR:            rf.Features.PPR,
			Risk:           rf.Features.Risk,
			BoundaryImpact: rf.Features.BoundaryImpact,
			TestGap:        rf.Features.TestGap,
			Freshness:      rf.Features.Freshness,
		})
	}
	return entries
}
