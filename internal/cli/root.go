// Package cli is the ragctl command tree: ingestion, queries and collection admin from a terminal.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/akolanti/DocChat/internal/app"
	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/pkg/logger_i"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	dataDir    string
)

// openStack builds the retrieval stack for one command. Tests swap it for a stack with a
// local embedder.
var openStack = func(cmd *cobra.Command, opts app.Options) (*app.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if dataDir != "" {
		cfg.Ingest.DataDir = dataDir
	}
	logger_i.InitWithWriter(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.JSON)
	return app.Build(cmd.Context(), cfg, opts)
}

var rootCmd = &cobra.Command{
	Use:   "ragctl",
	Short: "Manage the DocChat document index",
	Long: `ragctl loads documents from the data directory into the vector store and
inspects what is there: similarity queries, formatted retrieval context,
collection stats and maintenance.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "", "data directory (overrides config)")
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func withStack(cmd *cobra.Command, opts app.Options, fn func(a *app.App) error) error {
	a, err := openStack(cmd, opts)
	if err != nil {
		return fmt.Errorf("starting: %w", err)
	}
	defer a.Close()
	return fn(a)
}
