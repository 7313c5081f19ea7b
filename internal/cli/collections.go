package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/akolanti/DocChat/internal/app"
	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/spf13/cobra"
)

var resetYes bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the number of chunks in the default collection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStack(cmd, app.Options{}, func(a *app.App) error {
			stats, err := a.RAG.Stats(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("Collection: %s\n", stats.CollectionName)
			cmd.Printf("Total documents: %d\n", stats.TotalDocuments)
			if stats.PersistDirectory != "" {
				cmd.Printf("Persist directory: %s\n", stats.PersistDirectory)
			}
			return nil
		})
	},
}

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "Collection commands",
}

var collectionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections with their metadata and counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStack(cmd, app.Options{}, func(a *app.App) error {
			cols, err := a.RAG.ListCollections(cmd.Context())
			if err != nil {
				return err
			}
			if len(cols) == 0 {
				cmd.Println("No collections.")
				return nil
			}
			for _, c := range cols {
				cmd.Printf("%s\t%d\t%s\n", c.Name, c.Count, formatMetadata(c.Metadata))
			}
			return nil
		})
	},
}

var collectionsDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a collection and everything in it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStack(cmd, app.Options{}, func(a *app.App) error {
			err := a.RAG.DeleteCollection(cmd.Context(), args[0])
			if errors.Is(err, commonModels.ErrCollectionNotFound) {
				return fmt.Errorf("collection %q not found", args[0])
			}
			if err != nil {
				return err
			}
			cmd.Printf("Deleted collection %s\n", args[0])
			return nil
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Empty the default collection",
	Long:  `Deletes the default collection and recreates it with cosine distance. Needs --yes.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !resetYes {
			return errors.New("refusing to reset without --yes")
		}
		return withStack(cmd, app.Options{}, func(a *app.App) error {
			if err := a.RAG.ResetCollection(cmd.Context()); err != nil {
				return err
			}
			stats, err := a.RAG.Stats(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("Reset %s, %d documents\n", stats.CollectionName, stats.TotalDocuments)
			return nil
		})
	},
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "confirm the reset")
	collectionsCmd.AddCommand(collectionsListCmd, collectionsDeleteCmd)
	rootCmd.AddCommand(statsCmd, collectionsCmd, resetCmd)
}

func formatMetadata(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + m[k]
	}
	return strings.Join(parts, ",")
}
