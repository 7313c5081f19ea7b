// Package app builds the retrieval stack from an AppConfig. The API server and the CLI share it.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/rag"
	"github.com/akolanti/DocChat/internal/rag/embedding"
	"github.com/akolanti/DocChat/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/DocChat/internal/rag/embedding/ollamaEmbedding"
	"github.com/akolanti/DocChat/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/DocChat/internal/rag/ingest"
	"github.com/akolanti/DocChat/internal/rag/llm"
	"github.com/akolanti/DocChat/internal/rag/llm/claude"
	"github.com/akolanti/DocChat/internal/rag/llm/gemini"
	"github.com/akolanti/DocChat/internal/rag/llm/ollama"
	"github.com/akolanti/DocChat/internal/rag/scraper"
	"github.com/akolanti/DocChat/internal/rag/vectorDB"
	"github.com/akolanti/DocChat/internal/rag/vectorDB/badgerDB"
	"github.com/akolanti/DocChat/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/DocChat/pkg/logger_i"
)

type App struct {
	Config config.AppConfig
	Store  *vectorDB.Store
	Loader *ingest.DocumentLoader
	Models *llm.Registry
	RAG    rag.Service
}

type Options struct {
	// DryRun opens an in-memory backend and never moves input files.
	DryRun bool
	// Embedder replaces the configured embedding provider.
	Embedder embedding.Embedder
}

// Build wires the stack. A vector store that cannot be opened leaves Store nil and the service
// degraded (no retrieval, no ingestion) rather than failing the whole process.
func Build(ctx context.Context, cfg config.AppConfig, opts Options) (*App, error) {
	log := logger_i.NewLogger("Bootstrap")
	a := &App{Config: cfg, Models: NewModelRegistry(ctx, cfg.LLM)}

	store, err := openStore(ctx, cfg, opts)
	if err != nil {
		log.Error("Vector store unavailable", "error", err, "backend", cfg.Vector.Backend)
	} else {
		a.Store = store
	}

	ingestOpts := ingest.OptionsFromConfig(cfg.Ingest)
	ingestOpts.DryRun = opts.DryRun
	var writer ingest.ChunkWriter
	if a.Store != nil {
		writer = a.Store
	}
	loader, err := ingest.NewDocumentLoader(ingestOpts, writer)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("document loader: %w", err)
	}
	a.Loader = loader

	deps := rag.Dependencies{
		Scraper:  scraper.NewScraper(),
		Models:   a.Models,
		Settings: rag.SettingsFromConfig(cfg.RAG),
	}
	// typed nils would defeat the service's nil checks
	if a.Store != nil {
		deps.Store = a.Store
		deps.Loader = a.Loader
	} else if opts.DryRun {
		deps.Loader = a.Loader
	}
	a.RAG = rag.NewService(deps)
	return a, nil
}

func (a *App) Close() {
	if a.Store != nil {
		_ = a.Store.Close()
	}
}

func openStore(ctx context.Context, cfg config.AppConfig, opts Options) (*vectorDB.Store, error) {
	embedder := opts.Embedder
	if embedder == nil {
		var err error
		embedder, err = NewEmbedder(ctx, cfg.Embedding, cfg.LLM.OllamaHost)
		if err != nil {
			return nil, err
		}
	}

	backend, err := NewBackend(ctx, cfg, opts.DryRun)
	if err != nil {
		return nil, err
	}
	store, err := vectorDB.NewStore(ctx, backend, embedder, vectorDB.StoreOptions{
		Collection: cfg.Vector.Collection,
		PersistDir: cfg.PersistPath(),
		Keywords:   cfg.Ingest.Keywords,
	})
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return store, nil
}

// NewBackend opens the configured vector backend.
func NewBackend(ctx context.Context, cfg config.AppConfig, inMemory bool) (vectorDB.Backend, error) {
	if inMemory {
		return badgerDB.OpenInMemory()
	}
	switch cfg.Vector.Backend {
	case config.VectorBackendBadger, "":
		return badgerDB.Open(cfg.PersistPath())
	case config.VectorBackendQdrant:
		return qdrantDB.GetQdrantClient(ctx, qdrantDB.Config{
			Host:      cfg.Vector.QdrantHost,
			Port:      cfg.Vector.QdrantPort,
			Dimension: uint64(cfg.Embedding.Dimension),
		})
	default:
		return nil, fmt.Errorf("unknown vector backend %q", cfg.Vector.Backend)
	}
}

func NewEmbedder(ctx context.Context, cfg config.EmbeddingConfig, ollamaHost string) (embedding.Embedder, error) {
	switch cfg.Provider {
	case config.EmbeddingProviderOllama, "":
		model := cfg.Model
		if model == "" {
			model = config.OllamaEmbeddingModel
		}
		return ollamaEmbedding.NewOllamaEmbedder(ollamaHost, model)
	case config.EmbeddingProviderGoogle:
		model := cfg.Model
		if model == "" || model == config.OllamaEmbeddingModel {
			model = config.GoogleEmbeddingModel
		}
		return googleEmbedding.GetGoogleEmbeddingClient(ctx, model, cfg.APIKey, cfg.Dimension)
	case config.EmbeddingProviderOpenAI:
		model := cfg.Model
		if model == "" || model == config.OllamaEmbeddingModel {
			model = config.OpenAIEmbeddingModel
		}
		return openaiEmbedding.NewOpenAIEmbedder(cfg.APIKey, model, cfg.Dimension)
	default:
		return nil, errors.New("unknown embedding provider " + cfg.Provider)
	}
}

// NewModelRegistry registers Ollama always, and Claude or Gemini when their keys are set.
// Listing goes through Ollama (tags and running models) and Claude.
func NewModelRegistry(ctx context.Context, cfg config.LLMConfig) *llm.Registry {
	log := logger_i.NewLogger("Bootstrap")
	registry := llm.NewRegistry(cfg.DefaultModel)

	registry.Register(llm.KindOllama, func(ctx context.Context, model string) (llm.Provider, error) {
		return ollama.NewOllamaClient(cfg.OllamaHost, model)
	})
	if lister, err := ollama.NewOllamaClient(cfg.OllamaHost, ""); err == nil {
		registry.AddLister(lister)
	} else {
		log.Warn("Ollama model listing unavailable", "error", err)
	}

	if cfg.AnthropicAPIKey != "" {
		registry.Register(llm.KindClaude, func(ctx context.Context, model string) (llm.Provider, error) {
			return claude.NewClaudeClient(cfg.AnthropicAPIKey, model)
		})
		if lister, err := claude.NewClaudeClient(cfg.AnthropicAPIKey, ""); err == nil {
			registry.AddLister(lister)
		}
	}

	if cfg.GoogleAPIKey != "" {
		registry.Register(llm.KindGemini, func(ctx context.Context, model string) (llm.Provider, error) {
			return gemini.GetGeminiClient(ctx, model, cfg.GoogleAPIKey)
		})
	}
	return registry
}
