package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/akolanti/DocChat/internal/api"
	"github.com/akolanti/DocChat/internal/app"
	"github.com/akolanti/DocChat/internal/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// letterEmbedder counts letters, enough for cosine ranking without a model.
type letterEmbedder struct{}

func (letterEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	v := make([]float32, 26)
	for _, r := range strings.ToLower(query) {
		if r >= 'a' && r <= 'z' {
			v[r-'a']++
		}
	}
	v[0] += 0.01
	return v, nil
}

func (e letterEmbedder) BatchEmbedding(ctx context.Context, chunks []string, _ bool) ([][]float32, error) {
	out := make([][]float32, len(chunks))
	for i, c := range chunks {
		out[i], _ = e.GetEmbedding(ctx, c)
	}
	return out, nil
}

const marinaNotes = "## Marinas\n\nHarbor Point Marina on the north shore has forty slips and a fuel dock. " +
	"Kayak rentals open at eight every morning from May to September. " +
	"The bay is shallow near the park, so larger boats should keep to the marked channel. " +
	"Guests of the lakeside resort get a discount on weekly slip rentals.\n"

// setupStack points every command at a badger index inside a temp data directory.
func setupStack(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Ingest.DataDir = dir
	cfg.Ingest.ReprocessCompleted = false

	original := openStack
	openStack = func(cmd *cobra.Command, opts app.Options) (*app.App, error) {
		opts.Embedder = letterEmbedder{}
		return app.Build(cmd.Context(), cfg, opts)
	}
	t.Cleanup(func() {
		openStack = original
		ingestDryRun, ingestWatch, queryJSON, resetYes = false, false, false, false
		queryK = config.DefaultNResults
	})
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestCommands_AreRegistered(t *testing.T) {
	for _, name := range []string{"ingest", "query", "context", "stats", "collections", "reset", "models", "mcp"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}

	flag := queryCmd.Flags().Lookup("k")
	require.NotNil(t, flag)
	assert.Equal(t, "3", flag.DefValue)
	assert.NotNil(t, ingestCmd.Flags().Lookup("watch"))
	assert.NotNil(t, ingestCmd.Flags().Lookup("dry-run"))
}

func TestQueryCmd_RequiresExactlyOneArg(t *testing.T) {
	setupStack(t)
	_, err := run(t, "query")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestIngestThenQuery(t *testing.T) {
	dir := setupStack(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marinas.txt"), []byte(marinaNotes), 0o644))

	out, err := run(t, "ingest")
	require.NoError(t, err)
	assert.Contains(t, out, "1 processed")
	assert.FileExists(t, filepath.Join(dir, config.CompletedDirName, "marinas.txt"))

	out, err = run(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Collection: documents")
	assert.NotContains(t, out, "Total documents: 0")

	out, err = run(t, "query", "kayak rentals", "--json")
	require.NoError(t, err)
	var resp api.QueryResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotEmpty(t, resp.Results)
	assert.LessOrEqual(t, len(resp.Results), 3)
	assert.Equal(t, filepath.Join(dir, "marinas.txt"), resp.Results[0].Metadata["source"])

	out, err = run(t, "context", "kayak rentals")
	require.NoError(t, err)
	assert.Contains(t, out, "RAG Context (showing top")
	assert.Contains(t, out, "Relevance Score:")

	out, err = run(t, "ingest")
	require.NoError(t, err)
	assert.Contains(t, out, "No pending documents.")
}

func TestIngest_DryRun(t *testing.T) {
	dir := setupStack(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marinas.txt"), []byte(marinaNotes), 0o644))

	out, err := run(t, "ingest", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Dry run")
	assert.FileExists(t, filepath.Join(dir, "marinas.txt"))
	assert.NoDirExists(t, filepath.Join(dir, config.PersistDirName))
}

func TestCollections_ListDeleteReset(t *testing.T) {
	setupStack(t)

	out, err := run(t, "collections", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "documents\t0\thnsw:space=cosine")

	_, err = run(t, "collections", "delete", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	_, err = run(t, "reset")
	require.Error(t, err)

	out, err = run(t, "reset", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Reset documents, 0 documents")

	out, err = run(t, "collections", "delete", "documents")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted collection documents")
}

func TestQuery_EmptyIndex(t *testing.T) {
	setupStack(t)
	out, err := run(t, "query", "anything")
	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b c", preview("a\n b\t c"))
	long := strings.Repeat("x", previewRunes+10)
	assert.Equal(t, strings.Repeat("x", previewRunes)+"...", preview(long))
}
