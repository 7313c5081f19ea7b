package googleEmbedding

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/pkg/logger_i"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func getContent(chunks []string) []*genai.Content {
	contents := make([]*genai.Content, 0, len(chunks))
	for _, chunk := range chunks {
		contents = append(contents, &genai.Content{
			Parts: []*genai.Part{{Text: chunk}},
		})
	}
	return contents
}

// doRetry reports a rate limit, the only error worth one more attempt.
func doRetry(err error, log *logger_i.Logger) bool {
	if s, ok := status.FromError(err); ok && s.Code() == codes.ResourceExhausted {
		log.Warn("Rate limit hit", "error", err)
		return true
	}
	return false
}

func (c *client) getInlinedBatchRequests(chunks []string) *genai.EmbedContentBatch {
	return &genai.EmbedContentBatch{
		Config:   c.embedConfig(taskRetrievalDocument),
		Contents: getContent(chunks),
	}
}

func (c *client) pollForAnswer(ctx context.Context, batchJobName string, log *logger_i.Logger) (*genai.BatchJob, error) {
	ticker := time.NewTicker(config.EmbeddingBatchPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Error("pollForAnswer cancelled", "error", ctx.Err())
			return nil, ctx.Err()

		case <-ticker.C:
			bJob, err := c.genAi.Batches.Get(ctx, batchJobName, nil)
			if err != nil {
				log.Warn("Error getting batch job", "error", err)
				continue
			}

			//https://pkg.go.dev/google.golang.org/genai#JobState
			switch bJob.State {
			case "JOB_STATE_SUCCEEDED":
				log.Debug("batch job succeeded")
				return bJob, nil
			case "JOB_STATE_FAILED":
				msg := ""
				if bJob.Error != nil {
					msg = bJob.Error.Message
				}
				return nil, fmt.Errorf("batch job failed: %s", msg)
			case "JOB_STATE_CANCELLED", "JOB_STATE_EXPIRED", "JOB_STATE_PARTIALLY_SUCCEEDED":
				return nil, fmt.Errorf("batch job ended early: %s", bJob.State)
			}
		}
	}
}

// downloadAnswerFromClient needs one embedding per input; a single failed entry fails the batch.
func downloadAnswerFromClient(answer *genai.BatchJob, want int) ([][]float32, error) {
	if answer.Dest == nil {
		return nil, fmt.Errorf("batch job has no results")
	}
	res := answer.Dest.InlinedEmbedContentResponses
	if len(res) != want {
		return nil, fmt.Errorf("got %d results for %d inputs", len(res), want)
	}

	results := make([][]float32, 0, len(res))
	for i, r := range res {
		if r == nil || r.Error != nil || r.Response == nil || r.Response.Embedding == nil {
			return nil, fmt.Errorf("result %d failed", i)
		}
		results = append(results, r.Response.Embedding.Values)
	}
	return results, nil
}
