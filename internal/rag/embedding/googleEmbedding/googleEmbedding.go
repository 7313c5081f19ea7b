package googleEmbedding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/akolanti/DocChat/internal/adapter/utils"
	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/rag/embedding"
	"github.com/akolanti/DocChat/pkg/logger_i"
	"google.golang.org/genai"
)

const (
	taskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	taskRetrievalQuery    = "RETRIEVAL_QUERY"
)

var logger *logger_i.Logger
var once sync.Once
var embeddingClient *client
var initErr error

type client struct {
	genAi     *genai.Client
	model     string
	dimension int32
}

func newGoogleEmbedder(ctx context.Context, modelName string, apikey string, dimension int32) (*client, error) {
	if apikey == "" {
		return nil, errors.New("GOOGLE_API_KEY is not set")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey})
	if err != nil {
		logger.Error("Error creating Google Embedding client", "error", err)
		return nil, err
	}
	logger.Info("Google Embedding client created", "model", modelName, "dimension", dimension)
	return &client{genAi: c, model: modelName, dimension: dimension}, nil
}

// GetGoogleEmbeddingClient builds the Gemini embedder once per process.
func GetGoogleEmbeddingClient(ctx context.Context, modelName string, apikey string, dimension int32) (embedding.Embedder, error) {
	once.Do(func() {
		logger = logger_i.NewLogger("google_embedding")
		if dimension <= 0 {
			dimension = config.EmbeddingOutputDimensionality
		}
		embeddingClient, initErr = newGoogleEmbedder(ctx, modelName, apikey, dimension)
	})
	if initErr != nil {
		return nil, initErr
	}
	return embeddingClient, nil
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	log := logger.WithTrace(ctx)
	result, err := c.genAi.Models.EmbedContent(ctx, c.model, genai.Text(query), c.embedConfig(taskRetrievalQuery))
	if err != nil {
		log.Error("Error getting query embedding from Google", "error", err)
		return nil, err
	}
	if len(result.Embeddings) == 0 {
		return nil, errors.New("google returned no embedding")
	}
	return result.Embeddings[0].Values, nil
}

// BatchEmbedding embeds inline; huge data sets go through the asynchronous batch API instead.
func (c *client) BatchEmbedding(ctx context.Context, chunks []string, isLargeDataSet bool) ([][]float32, error) {
	log := logger.WithTrace(ctx)
	if len(chunks) == 0 {
		return [][]float32{}, nil
	}
	if isLargeDataSet {
		return c.batchJobEmbedding(ctx, chunks, log)
	}

	res, err := c.doCall(ctx, getContent(chunks))
	if err != nil && doRetry(err, log) {
		log.Debug("Retrying embedding call", "delay", config.EmbeddingRetryDelay)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(config.EmbeddingRetryDelay):
		}
		res, err = c.doCall(ctx, getContent(chunks))
	}
	if err != nil {
		log.Error("Error getting embeddings from Google", "error", err, "chunks", len(chunks))
		return nil, err
	}

	embeddingResults := make([][]float32, 0, len(res.Embeddings))
	for _, r := range res.Embeddings {
		embeddingResults = append(embeddingResults, r.Values)
	}
	return embeddingResults, nil
}

func (c *client) batchJobEmbedding(ctx context.Context, chunks []string, log *logger_i.Logger) ([][]float32, error) {
	src := genai.EmbeddingsBatchJobSource{InlinedRequests: c.getInlinedBatchRequests(chunks)}
	displayName := utils.GetNewUUID()
	log = log.With("batchJobName", displayName, "chunks", len(chunks))

	job, err := c.genAi.Batches.CreateEmbeddings(ctx, &c.model, &src, &genai.CreateEmbeddingsBatchJobConfig{DisplayName: displayName})
	if err != nil {
		log.Error("Error creating batch embedding job", "error", err)
		return nil, err
	}

	answer, err := c.pollForAnswer(ctx, job.Name, log)
	if err != nil {
		return nil, err
	}
	vectors, err := downloadAnswerFromClient(answer, len(chunks))
	if err != nil {
		log.Error("Batch embedding results incomplete", "error", err)
		return nil, fmt.Errorf("batch job %s: %w", job.Name, err)
	}
	return vectors, nil
}

func (c *client) doCall(ctx context.Context, content []*genai.Content) (*genai.EmbedContentResponse, error) {
	return c.genAi.Models.EmbedContent(ctx, c.model, content, c.embedConfig(taskRetrievalDocument))
}

func (c *client) embedConfig(task string) *genai.EmbedContentConfig {
	dim := c.dimension
	return &genai.EmbedContentConfig{OutputDimensionality: &dim, TaskType: task}
}
