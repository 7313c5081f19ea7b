package vectorDB

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/internal/metrics"
	"github.com/akolanti/DocChat/internal/rag/embedding"
	"github.com/akolanti/DocChat/internal/rag/quality"
	"github.com/akolanti/DocChat/pkg/logger_i"
	"github.com/cespare/xxhash/v2"
)

type StoreOptions struct {
	Collection string
	PersistDir string
	Keywords   []string
}

type Stats struct {
	TotalDocuments   int    `json:"total_documents"`
	CollectionName   string `json:"collection_name"`
	PersistDirectory string `json:"persist_directory,omitempty"`
}

// Store embeds chunks into the default collection of a Backend and answers similarity queries.
type Store struct {
	backend    Backend
	embedder   embedding.Embedder
	collection string
	persistDir string
	validator  *quality.Validator
	now        func() time.Time
	logger     *logger_i.Logger
}

// NewStore makes sure the default collection exists. Any failure is ErrStorageUnavailable.
func NewStore(ctx context.Context, backend Backend, embedder embedding.Embedder, opts StoreOptions) (*Store, error) {
	if opts.Collection == "" {
		opts.Collection = config.DefaultCollectionName
	}
	s := &Store{
		backend:    backend,
		embedder:   embedder,
		collection: opts.Collection,
		persistDir: opts.PersistDir,
		validator:  quality.NewValidator(opts.Keywords),
		now:        time.Now,
		logger:     logger_i.NewLogger("Vector Store"),
	}
	if backend == nil {
		return nil, fmt.Errorf("%w: no backend", commonModels.ErrStorageUnavailable)
	}
	if err := s.ensureDefault(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", commonModels.ErrStorageUnavailable, err)
	}
	s.logger.Info("Vector store ready", "collection", s.collection, "persist_dir", s.persistDir)
	return s, nil
}

func (s *Store) Collection() string { return s.collection }

func (s *Store) Close() error { return s.backend.Close() }

// Add embeds and appends chunks. Ids are fresh on every call, so adding the same chunk twice
// stores it twice.
func (s *Store) Add(ctx context.Context, chunks []commonModels.Chunk) error {
	log := s.logger.WithTrace(ctx)
	if len(chunks) == 0 {
		log.Warn("No chunks to add")
		return nil
	}

	base := s.now().UnixNano()
	texts := make([]string, len(chunks))
	records := make([]Record, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
		records[i] = Record{
			ID:       fmt.Sprintf("doc_%d_%d", base, i),
			Content:  c.Content,
			Metadata: SanitizeMetadata(c.Metadata),
		}
	}

	vectors, err := s.executeBatchEmbeddingStep(ctx, texts)
	if err != nil {
		log.Error("Embedding chunks failed", "error", err)
		return fmt.Errorf("%w: %w", commonModels.ErrInsertionFailure, err)
	}
	for i := range records {
		records[i].Embedding = vectors[i]
	}

	if err := s.executeInsertStep(ctx, records); err != nil {
		log.Error("Inserting chunks failed", "error", err)
		return fmt.Errorf("%w: %w", commonModels.ErrInsertionFailure, err)
	}
	log.Info("Added chunks", "count", len(records), "collection", s.collection)
	return nil
}

// Query returns at most k results ranked by similarity, after removing duplicates and
// boilerplate. Documents and metadatas are returned unless fields says otherwise.
func (s *Store) Query(ctx context.Context, text string, k int, fields ...Field) ([]commonModels.QueryResult, error) {
	log := s.logger.WithTrace(ctx)
	if k <= 0 {
		return []commonModels.QueryResult{}, nil
	}
	if len(fields) == 0 {
		fields = defaultFields
	}

	vector, err := s.executeEmbeddingStep(ctx, text)
	if err != nil {
		log.Error("Embedding query failed", "error", err)
		return nil, fmt.Errorf("%w: %w", commonModels.ErrQueryFailure, err)
	}

	matches, err := s.executeSearchStep(ctx, vector, k*config.QueryOverFetchFactor, hasField(fields, FieldEmbeddings))
	if err != nil {
		log.Error("Searching vectors failed", "error", err, "collection", s.collection)
		return nil, fmt.Errorf("%w: %w", commonModels.ErrQueryFailure, err)
	}

	results := s.rank(text, matches, k, fields)
	metrics.CaptureQueryResults(len(matches), len(results))
	log.Debug("Query done", "candidates", len(matches), "returned", len(results))
	return results, nil
}

func (s *Store) rank(query string, matches []Match, k int, fields []Field) []commonModels.QueryResult {
	lowerQuery := strings.ToLower(strings.TrimSpace(query))
	seen := make(map[uint64]struct{}, len(matches))
	results := make([]commonModels.QueryResult, 0, len(matches))

	for _, m := range matches {
		h := xxhash.Sum64String(m.Content)
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}

		if quality.IsBoilerplate(m.Content) {
			continue
		}
		content := strings.TrimSpace(m.Content)
		if strings.HasPrefix(content, ".") {
			content = strings.TrimSpace(content[1:])
		}
		if !quality.MeetsMinLength(content) {
			continue
		}

		similarity := 1 - m.Distance
		if math.IsNaN(similarity) || math.IsInf(similarity, 0) {
			similarity = 0
		}
		if lowerQuery != "" && strings.Contains(strings.ToLower(content), lowerQuery) {
			similarity += config.QueryMatchBoost
		}
		if s.validator.ContainsKeyword(content) {
			similarity += config.KeywordMatchBoost
		}

		r := commonModels.QueryResult{ID: m.ID, Similarity: similarity}
		if hasField(fields, FieldDocuments) {
			r.Content = content
		}
		if hasField(fields, FieldMetadatas) {
			r.Metadata = m.Metadata
		}
		if hasField(fields, FieldEmbeddings) {
			r.Embedding = m.Embedding
		}
		results = append(results, r)
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Similarity > results[j].Similarity })
	if len(results) > k {
		results = results[:k]
	}
	return results
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	count, err := s.backend.Count(ctx, s.collection)
	if err != nil {
		s.logger.WithTrace(ctx).Error("Counting documents failed", "error", err)
		return Stats{}, err
	}
	return Stats{TotalDocuments: count, CollectionName: s.collection, PersistDirectory: s.persistDir}, nil
}

func (s *Store) ListCollections(ctx context.Context) ([]commonModels.CollectionInfo, error) {
	return s.backend.ListCollections(ctx)
}

// DeleteCollection drops name and everything in it. Deleting the default collection leaves
// the store without one until ResetCollection.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	if err := s.backend.DeleteCollection(ctx, name); err != nil {
		return err
	}
	s.logger.WithTrace(ctx).Info("Deleted collection", "collection", name)
	return nil
}

// ResetCollection empties the default collection by deleting and recreating it.
func (s *Store) ResetCollection(ctx context.Context) error {
	log := s.logger.WithTrace(ctx)
	err := s.backend.DeleteCollection(ctx, s.collection)
	if err != nil && !errors.Is(err, commonModels.ErrCollectionNotFound) {
		log.Error("Deleting collection failed", "error", err)
		return err
	}
	if err := s.ensureDefault(ctx); err != nil {
		log.Error("Recreating collection failed", "error", err)
		return fmt.Errorf("%w: %w", commonModels.ErrStorageUnavailable, err)
	}
	log.Info("Collection reset", "collection", s.collection)
	return nil
}

func (s *Store) ensureDefault(ctx context.Context) error {
	return s.backend.EnsureCollection(ctx, s.collection, map[string]string{
		config.CollectionSpaceKey: config.CollectionSpaceCosine,
	})
}

func (s *Store) executeEmbeddingStep(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()

	return s.embedder.GetEmbedding(ctx, text)
}

func (s *Store) executeBatchEmbeddingStep(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("batch_embedding", time.Since(start)) }()

	return embedding.BatchInto(ctx, s.embedder, texts, config.EmbeddingBatchSize, len(texts) >= config.HugeDataSetThreshold)
}

func (s *Store) executeInsertStep(ctx context.Context, records []Record) error {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_insert", time.Since(start)) }()

	return s.backend.Insert(ctx, s.collection, records)
}

func (s *Store) executeSearchStep(ctx context.Context, vector []float32, limit int, withVectors bool) ([]Match, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_search", time.Since(start)) }()

	return s.backend.Search(ctx, s.collection, vector, limit, withVectors)
}
