package openaiEmbedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/DocChat/internal/rag/embedding"
	"github.com/akolanti/DocChat/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type client struct {
	api       openai.Client
	model     string
	dimension int64
	logger    *logger_i.Logger
}

func NewOpenAIEmbedder(apiKey, model string, dimension int32) (embedding.Embedder, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	if model == "" {
		model = string(openai.EmbeddingModelTextEmbedding3Small)
	}
	l := logger_i.NewLogger("openai_embedding")
	l.Info("OpenAI embedding client created", "model", model, "dimension", dimension)
	return &client{
		api:       openai.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		dimension: int64(dimension),
		logger:    l,
	}, nil
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	vectors, err := c.BatchEmbedding(ctx, []string{query}, false)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *client) BatchEmbedding(ctx context.Context, chunks []string, _ bool) ([][]float32, error) {
	if len(chunks) == 0 {
		return [][]float32{}, nil
	}
	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: chunks},
		Model: openai.EmbeddingModel(c.model),
	}
	if c.dimension > 0 {
		params.Dimensions = openai.Int(c.dimension)
	}

	resp, err := c.api.Embeddings.New(ctx, params)
	if err != nil {
		c.logger.WithTrace(ctx).Error("Error getting embeddings from OpenAI", "error", err)
		return nil, err
	}
	if len(resp.Data) != len(chunks) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(resp.Data), len(chunks))
	}

	out := make([][]float32, len(chunks))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(out) {
			return nil, fmt.Errorf("openai embedding index %d out of range", d.Index)
		}
		out[d.Index] = toFloat32(d.Embedding)
	}
	return out, nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
