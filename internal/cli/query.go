package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/akolanti/DocChat/internal/adapter"
	"github.com/akolanti/DocChat/internal/app"
	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/spf13/cobra"
)

const previewRunes = 200

var (
	queryK    int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Similarity search over the indexed documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

var contextCmd = &cobra.Command{
	Use:   "context [text]",
	Short: "Print the retrieval context the chat assistant would get",
	Long: `Prints the formatted context block for a question, using the configured number
of results. Retrieval is forced on for this command.`,
	Args: cobra.ExactArgs(1),
	RunE: runContext,
}

func init() {
	queryCmd.Flags().IntVarP(&queryK, "k", "k", config.DefaultNResults, "maximum number of results")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(contextCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryK < 0 {
		return fmt.Errorf("k must not be negative, got %d", queryK)
	}
	return withStack(cmd, app.Options{}, func(a *app.App) error {
		results, err := a.RAG.Query(cmd.Context(), args[0], queryK)
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}
		if queryJSON {
			data, err := json.MarshalIndent(adapter.ToQueryResponse(args[0], results), "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal results: %w", err)
			}
			cmd.Println(string(data))
			return nil
		}
		printResults(cmd, results)
		return nil
	})
}

func printResults(cmd *cobra.Command, results []commonModels.QueryResult) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}
	for i, r := range results {
		source := r.Metadata.String(commonModels.MetaSource)
		if page, ok := r.Metadata.Int(commonModels.MetaPage); ok {
			source = fmt.Sprintf("%s (Page %d)", source, page)
		}
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, source, r.Similarity)
		cmd.Printf("      %s\n\n", preview(r.Content))
	}
}

func runContext(cmd *cobra.Command, args []string) error {
	return withStack(cmd, app.Options{}, func(a *app.App) error {
		settings := a.RAG.Settings()
		settings.Enabled = true
		a.RAG.UpdateSettings(settings)

		text, found, err := a.RAG.GetContext(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("retrieval failed: %w", err)
		}
		if !found {
			cmd.Println("No relevant documents found.")
			return nil
		}
		cmd.Println(text)
		return nil
	})
}

func preview(content string) string {
	flat := strings.Join(strings.Fields(content), " ")
	runes := []rune(flat)
	if len(runes) <= previewRunes {
		return flat
	}
	return string(runes[:previewRunes]) + "..."
}
