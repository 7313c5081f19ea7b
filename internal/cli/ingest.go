package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/akolanti/DocChat/internal/app"
	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/domain/jobModel"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	ingestWatch  bool
	ingestDryRun bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load pending documents into the vector store",
	Long: `Extracts, chunks and embeds every pending .txt, .pdf, .doc and .docx file in the
data directory. Processed files move to completed/.

With --watch the command keeps running and ingests again whenever new documents
land in the data directory. With --dry-run nothing is stored and no file moves.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "keep watching the data directory")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "extract and chunk without storing or moving files")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	return withStack(cmd, app.Options{DryRun: ingestDryRun}, func(a *app.App) error {
		if err := ingestOnce(cmd, a); err != nil {
			return err
		}
		if !ingestWatch {
			return nil
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		cmd.Printf("Watching %s (Ctrl+C to stop)\n", a.Loader.Files().InputDir())
		return a.Loader.Watch(ctx, config.WatchDebounce, func() {
			if err := ingestOnce(cmd, a); err != nil {
				cmd.PrintErrln("Ingestion failed:", err)
			}
		})
	})
}

func ingestOnce(cmd *cobra.Command, a *app.App) error {
	id := uuid.NewString()
	ctx := context.WithValue(cmd.Context(), config.TRACE_ID_KEY, id)
	job := a.RAG.IngestDocument(ctx, jobModel.Job{
		Id:          id,
		TraceId:     id,
		JobType:     jobModel.JobTypeIngest,
		CreatedTime: time.Now(),
	})
	if job.JobPayload.Ingest != nil {
		printSummary(cmd, *job.JobPayload.Ingest)
	}
	if job.Status == jobModel.JobStatusError {
		return errors.New(job.Error.Message)
	}
	if ingestDryRun {
		cmd.Println("Dry run: nothing was stored.")
	}
	return nil
}

func printSummary(cmd *cobra.Command, s jobModel.IngestSummary) {
	if s.FilesDiscovered == 0 {
		cmd.Println("No pending documents.")
		return
	}
	cmd.Printf("Files: %d found, %d processed, %d skipped, %d failed\n",
		s.FilesDiscovered, s.FilesProcessed, s.FilesSkipped, s.FilesFailed)
	cmd.Printf("Documents: %d, chunks: %d\n", s.Documents, s.Chunks)

	paths := make([]string, 0, len(s.Failures))
	for p := range s.Failures {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		cmd.Printf("  failed %s: %s\n", p, s.Failures[p])
	}
}
