package ollamaEmbedding

import (
	"context"
	"fmt"
	"net/url"

	"github.com/akolanti/DocChat/internal/customHttpClient"
	"github.com/akolanti/DocChat/internal/rag/embedding"
	"github.com/akolanti/DocChat/pkg/logger_i"
	"github.com/ollama/ollama/api"
)

type client struct {
	api    *api.Client
	model  string
	logger *logger_i.Logger
}

// NewOllamaEmbedder talks to the Ollama server at host, or OLLAMA_HOST when host is empty.
func NewOllamaEmbedder(host, model string) (embedding.Embedder, error) {
	var c *api.Client
	if host == "" {
		var err error
		c, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("ollama client from environment: %w", err)
		}
	} else {
		u, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
		}
		c = api.NewClient(u, customHttpClient.NewClient(0))
	}

	l := logger_i.NewLogger("ollama_embedding")
	l.Info("Ollama embedding client created", "model", model, "host", host)
	return &client{api: c, model: model, logger: l}, nil
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	vectors, err := c.embed(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("ollama returned no embedding for model %s", c.model)
	}
	return vectors[0], nil
}

// BatchEmbedding sends all chunks in one request; Ollama has no async batch mode.
func (c *client) BatchEmbedding(ctx context.Context, chunks []string, _ bool) ([][]float32, error) {
	if len(chunks) == 0 {
		return [][]float32{}, nil
	}
	return c.embed(ctx, chunks)
}

func (c *client) embed(ctx context.Context, input any) ([][]float32, error) {
	resp, err := c.api.Embed(ctx, &api.EmbedRequest{Model: c.model, Input: input})
	if err != nil {
		c.logger.WithTrace(ctx).Error("Error getting embeddings from Ollama", "model", c.model, "error", err)
		return nil, err
	}
	return resp.Embeddings, nil
}
