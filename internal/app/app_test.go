package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/rag/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// letterEmbedder counts letters a-z, enough for cosine ranking in tests.
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

func testConfig(t *testing.T) config.AppConfig {
	t.Helper()
	cfg := config.Default()
	cfg.Ingest.DataDir = t.TempDir()
	cfg.RAG.Enabled = true
	return cfg
}

func TestBuild_DryRunIngestsInMemory(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	text := strings.Repeat("The marina on the east shore rents kayaks and paddle boards every weekend. ", 20)
	path := filepath.Join(cfg.Ingest.DataDir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))

	a, err := Build(ctx, cfg, Options{DryRun: true, Embedder: letterEmbedder{}})
	require.NoError(t, err)
	defer a.Close()
	require.NotNil(t, a.Store)

	res, err := a.Loader.LoadDocuments(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Chunks)
	assert.FileExists(t, path)

	stats, err := a.RAG.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalDocuments)
	assert.NoDirExists(t, cfg.PersistPath())
}

func TestBuild_PersistentBadger(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	a, err := Build(ctx, cfg, Options{Embedder: letterEmbedder{}})
	require.NoError(t, err)
	defer a.Close()

	assert.DirExists(t, cfg.PersistPath())
	cols, err := a.RAG.ListCollections(ctx)
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, config.DefaultCollectionName, cols[0].Name)
	assert.Equal(t, config.CollectionSpaceCosine, cols[0].Metadata[config.CollectionSpaceKey])
}

func TestNewBackend_Unknown(t *testing.T) {
	cfg := testConfig(t)
	cfg.Vector.Backend = "chroma"
	_, err := NewBackend(context.Background(), cfg, false)
	assert.Error(t, err)
}

func TestNewEmbedder(t *testing.T) {
	ctx := context.Background()

	e, err := NewEmbedder(ctx, config.EmbeddingConfig{Provider: config.EmbeddingProviderOllama}, "http://localhost:11434")
	require.NoError(t, err)
	assert.NotNil(t, e)

	_, err = NewEmbedder(ctx, config.EmbeddingConfig{Provider: "word2vec"}, "")
	assert.Error(t, err)
}

func TestNewModelRegistry(t *testing.T) {
	ctx := context.Background()
	registry := NewModelRegistry(ctx, config.LLMConfig{DefaultModel: "llama3.2", OllamaHost: "http://localhost:11434"})

	p, err := registry.Provider(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "llama3.2", p.Model())

	_, err = registry.Provider(ctx, "claude-3-5-sonnet")
	assert.Error(t, err, "claude needs a key")
	assert.Equal(t, llm.KindClaude, llm.KindFor("claude-3-5-sonnet"))
}
