// Package cli implements the gitflow-mcp command-line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "gitflow-mcp",
	Short: "MCP server exposing git/GitHub workflow tools with enriched responses",
	Long: `gitflow-mcp is an MCP (Model Context Protocol) server that exposes
git and GitHub workflow operations as tools for AI coding assistants.

Every tool result is normalized into a structured envelope and run through
an enhancement pipeline that stamps metadata, assesses risk, generates
follow-up suggestions, and attaches team-activity signals.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gitflow-mcp %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
