// Package mcpserver exposes rank_context and build_index as MCP tools,
// mirroring the teacher pack's MCP integration style (registerMCPTools +
// mcp.AddTool, stdio transport) so an editor or agent can request the
// context spine directly instead of going through the HTTP surface.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ctxspine/repomap/internal/ast"
	"github.com/ctxspine/repomap/internal/diffsource"
	"github.com/ctxspine/repomap/internal/incremental"
	"github.com/ctxspine/repomap/internal/index"
	"github.com/ctxspine/repomap/internal/rank"
	"github.com/ctxspine/repomap/internal/resolver"
)

// Server wires the engine's core packages to MCP tool handlers.
type Server struct {
	driver *incremental.Driver
	ranker *rank.Ranker
	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger attaches a structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer constructs a Server around the given resolver and diff
// source (diffSrc may be nil).
func NewServer(pool *ast.Pool, fi *index.FileIndex, res *resolver.Resolver, diffSrc diffsource.Source, opts ...Option) *Server {
	s := &Server{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.driver = incremental.NewDriver(pool, fi, diffSrc,
		incremental.WithResolver(res), incremental.WithLogger(s.logger))
	s.ranker = rank.New(rank.WithLogger(s.logger))
	return s
}

// Name and Version identify this MCP server to connecting clients.
const (
	Name    = "repomap"
	Version = "0.1.0"
)

// Serve builds an *mcp.Server with both tools registered and runs it over
// stdio until the client disconnects or ctx is canceled.
func (s *Server) Serve(ctx context.Context) error {
	impl := &mcp.Implementation{Name: Name, Version: Version}
	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rank_context",
		Description: "Rank files in a repository by relevance to one or more seed files, returning a bucketed context spine (primary/causal/contract/guardrail) suitable for assembling an LLM prompt around a change.",
	}, s.rankContextHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name:        "build_index",
		Description: "Build or incrementally update the repository's symbol/file graph index, persisting it under <repoRoot>/.repomap. Call this before rank_context if the index may be stale.",
	}, s.buildIndexHandler())

	if err := server.Run(ctx, mcp.NewStdioTransport()); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
