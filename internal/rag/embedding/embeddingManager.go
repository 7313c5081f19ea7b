package embedding

import (
	"context"
	"fmt"
)

// Embedder turns text into fixed-size vectors. BatchEmbedding returns one vector per chunk,
// in order.
type Embedder interface {
	GetEmbedding(ctx context.Context, query string) ([]float32, error)
	BatchEmbedding(ctx context.Context, chunks []string, isHugeDataSet bool) ([][]float32, error)
}

// BatchInto embeds texts in slices of at most size and fails when a slice comes back short.
func BatchInto(ctx context.Context, e Embedder, texts []string, size int, isHugeDataSet bool) ([][]float32, error) {
	if size < 1 {
		size = len(texts)
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		vectors, err := e.BatchEmbedding(ctx, texts[start:end], isHugeDataSet)
		if err != nil {
			return nil, fmt.Errorf("embedding batch %d-%d: %w", start, end, err)
		}
		if len(vectors) != end-start {
			return nil, fmt.Errorf("embedding batch %d-%d: got %d vectors", start, end, len(vectors))
		}
		for i, v := range vectors {
			if len(v) == 0 {
				return nil, fmt.Errorf("embedding batch %d-%d: empty vector at %d", start, end, start+i)
			}
		}
		out = append(out, vectors...)
	}
	return out, nil
}
