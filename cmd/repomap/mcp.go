package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ctxspine/repomap/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP server exposing rank_context and build_index over stdio",
	Long: `Start a Model Context Protocol server so an editor or agent can call
rank_context and build_index directly, without going through the HTTP API.

The server runs until the client disconnects.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	eng, err := buildEngine(".", logger)
	if err != nil {
		return fmt.Errorf("wire engine: %w", err)
	}

	srv := mcpserver.NewServer(eng.pool, eng.fi, eng.res, eng.diff, mcpserver.WithLogger(logger))
	if err := srv.Serve(cmd.Context()); err != nil {
		return fmt.Errorf("mcp serve: %w", err)
	}
	return nil
}
