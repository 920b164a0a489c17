package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	gfmcp "github.com/flowkit-dev/gitflow-mcp/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the gitflow-mcp MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gitflow-mcp server on stdio",
	Long: `Start the gitflow-mcp server on stdio transport.

The server exposes git/GitHub workflow tools that AI coding assistants can
call: create_branch, git_status, commit_changes, push_changes, create_pr,
get_pipeline_stats. Every result passes through the enhancement pipeline
before it is returned.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Registry == nil || Git == nil {
			return fmt.Errorf("pipeline not initialized")
		}

		// A broken pipeline configuration is fatal before serving.
		if _, err := Registry.ResolveOrder(); err != nil {
			return fmt.Errorf("refusing to serve: %w", err)
		}

		srv := gfmcp.NewServer(Git, Registry, Sessions, EventLog, MetricsCalc, SessionID, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
