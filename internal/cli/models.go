package cli

import (
	"fmt"

	"github.com/akolanti/DocChat/internal/app"
	"github.com/akolanti/DocChat/internal/mcpserver"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List chat models",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStack(cmd, app.Options{}, func(a *app.App) error {
			catalogue := a.RAG.Models(cmd.Context())
			cmd.Printf("Default: %s\n", catalogue.Default)
			cmd.Println("Available:")
			for _, m := range catalogue.Available {
				cmd.Printf("  %s\n", m)
			}
			cmd.Println("Running:")
			for _, m := range catalogue.Running {
				cmd.Printf("  %s\n", m)
			}
			return nil
		})
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the document search tools over MCP on stdio",
	Long: `Starts a Model Context Protocol server on stdin/stdout with the tools
search_documents, get_context and collection_stats.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStack(cmd, app.Options{}, func(a *app.App) error {
			server, err := mcpserver.NewServer(a.RAG)
			if err != nil {
				return fmt.Errorf("mcp server: %w", err)
			}
			return server.Run(cmd.Context())
		})
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd, mcpCmd)
}
