package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/internal/domain/jobModel"
	"github.com/akolanti/DocChat/internal/metrics"
	"github.com/akolanti/DocChat/internal/rag/quality"
	"github.com/akolanti/DocChat/pkg/logger_i"
)

// ChunkWriter persists validated chunks. The vector store satisfies it.
type ChunkWriter interface {
	Add(ctx context.Context, chunks []commonModels.Chunk) error
}

type Options struct {
	DataDir            string
	Workers            int
	ChunkSize          int
	ChunkOverlap       int
	ReprocessCompleted bool
	Keywords           []string
	// DryRun extracts and chunks without moving files or writing chunks.
	DryRun bool
}

// OptionsFromConfig maps the ingest section of the app config.
func OptionsFromConfig(cfg config.IngestConfig) Options {
	return Options{
		DataDir:            cfg.DataDir,
		Workers:            cfg.Workers,
		ChunkSize:          cfg.ChunkSize,
		ChunkOverlap:       cfg.ChunkOverlap,
		ReprocessCompleted: cfg.ReprocessCompleted,
		Keywords:           cfg.Keywords,
	}
}

// DocumentLoader runs ingestion over one data directory. Only one run at a time.
type DocumentLoader struct {
	files     *FileLifecycle
	loaders   *LoaderRegistry
	splitter  *TextSplitter
	validator *quality.Validator
	writer    ChunkWriter
	workers   int
	dryRun    bool
	running   atomic.Bool
	now       func() time.Time
	logger    *logger_i.Logger
}

type RunResult struct {
	Documents []commonModels.Document
	Chunks    []commonModels.Chunk
	Summary   jobModel.IngestSummary
}

type fileResult struct {
	path     string
	docs     []commonModels.Document
	chunks   []commonModels.Chunk
	rejected int
	err      error
}

// NewDocumentLoader wires the loader. writer may be nil, in which case runs only extract and chunk.
func NewDocumentLoader(opts Options, writer ChunkWriter) (*DocumentLoader, error) {
	registry := NewLoaderRegistry()
	files, err := NewFileLifecycle(opts.DataDir, registry, opts.ReprocessCompleted)
	if err != nil {
		return nil, err
	}
	if opts.Workers < 1 {
		opts.Workers = config.DefaultIngestWorkers
	}
	if opts.ChunkSize < 1 {
		opts.ChunkSize = config.DefaultChunkSize
	}

	return &DocumentLoader{
		files:     files,
		loaders:   registry,
		splitter:  NewTextSplitter(opts.ChunkSize, opts.ChunkOverlap),
		validator: quality.NewValidator(opts.Keywords),
		writer:    writer,
		workers:   opts.Workers,
		dryRun:    opts.DryRun,
		now:       time.Now,
		logger:    logger_i.NewLogger("Document Loader"),
	}, nil
}

func (l *DocumentLoader) Files() *FileLifecycle { return l.files }
func (l *DocumentLoader) Loaders() *LoaderRegistry { return l.loaders }
func (l *DocumentLoader) Running() bool { return l.running.Load() }
func (l *DocumentLoader) SetWriter(writer ChunkWriter) { l.writer = writer }

// LoadDocuments discovers pending files, processes them in parallel and hands every
// validated chunk to the writer in one call once all files are done.
func (l *DocumentLoader) LoadDocuments(ctx context.Context) (*RunResult, error) {
	if !l.running.CompareAndSwap(false, true) {
		return nil, commonModels.ErrIngestionInProgress
	}
	defer l.running.Store(false)

	log := l.logger.WithTrace(ctx)
	start := time.Now()
	defer func() { metrics.CaptureIngestRun(time.Since(start)) }()

	discover := l.files.Discover
	if l.dryRun {
		discover = l.files.Pending
	}
	files, err := discover()
	if err != nil {
		return nil, err
	}

	result := &RunResult{Summary: jobModel.IngestSummary{FilesDiscovered: len(files)}}
	if len(files) == 0 {
		log.Info("No documents found", "dir", l.files.InputDir())
		return result, nil
	}

	results := runPool(l.workers, files, l.processFile)

	rejected := 0
	for _, fr := range results {
		result.Documents = append(result.Documents, fr.docs...)
		result.Chunks = append(result.Chunks, fr.chunks...)
		rejected += fr.rejected

		switch {
		case fr.err == nil:
			result.Summary.FilesProcessed++
			metrics.CaptureIngestFile("processed")
		case errors.Is(fr.err, commonModels.ErrEmptyContent):
			result.Summary.FilesSkipped++
			metrics.CaptureIngestFile("skipped")
		default:
			result.Summary.FilesFailed++
			if result.Summary.Failures == nil {
				result.Summary.Failures = make(map[string]string)
			}
			result.Summary.Failures[fr.path] = fr.err.Error()
			metrics.CaptureIngestFile("failed")
		}
	}
	result.Summary.Documents = len(result.Documents)
	result.Summary.Chunks = len(result.Chunks)
	metrics.CaptureChunks(len(result.Chunks), rejected)

	log.Info("Loaded documents", "files", len(files), "processed", result.Summary.FilesProcessed,
		"skipped", result.Summary.FilesSkipped, "failed", result.Summary.FilesFailed,
		"chunks", len(result.Chunks), "rejected", rejected)

	if l.writer != nil && !l.dryRun && len(result.Chunks) > 0 {
		if err := l.writer.Add(ctx, result.Chunks); err != nil {
			log.Error("Storing chunks failed", "error", err)
			return result, err
		}
	}
	return result, nil
}

func (l *DocumentLoader) processFile(path string) (fr fileResult) {
	fr.path = path
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Panic while processing file", "path", path, "panic", r)
			fr = fileResult{path: path, err: fmt.Errorf("%w: %s: %v", commonModels.ErrExtractionFailure, path, r)}
		}
	}()

	docs, err := l.loaders.Load(path)
	if err != nil {
		l.logger.Error("Error processing file", "path", path, "error", err)
		fr.err = err
		return fr
	}

	for _, doc := range docs {
		enriched, chunks, rejected := l.processDocument(doc, path)
		fr.docs = append(fr.docs, enriched)
		fr.chunks = append(fr.chunks, chunks...)
		fr.rejected += rejected
	}

	if len(fr.chunks) == 0 {
		l.logger.Warn("No valid chunks, leaving file in place", "path", path)
		fr.err = fmt.Errorf("%w: %s", commonModels.ErrEmptyContent, path)
		return fr
	}

	// a failed move leaves the file eligible for the next run
	if !l.dryRun {
		_ = l.files.MarkCompleted(path)
	}
	return fr
}

func (l *DocumentLoader) processDocument(doc commonModels.Document, path string) (commonModels.Document, []commonModels.Chunk, int) {
	now := l.now()
	doc.Metadata = DocumentMetadata(doc, path, now)

	if runeLen(doc.Content) == 0 {
		l.logger.Warn("Empty content", "path", path, "page", doc.Metadata[commonModels.MetaPage])
		return doc, nil, 0
	}

	spans := l.splitter.Split(doc.Content)
	if len(spans) == 0 {
		l.logger.Warn("Document produced no chunks", "path", path)
		return doc, nil, 0
	}

	var chunks []commonModels.Chunk
	rejected := 0
	for i, sp := range spans {
		if !l.validator.IsValid(sp.Content) {
			rejected++
			continue
		}
		chunks = append(chunks, EnrichChunk(doc.Metadata, sp, i, len(spans), now))
	}

	l.logRunSummary(doc, path, chunks)
	return doc, chunks, rejected
}

func (l *DocumentLoader) logRunSummary(doc commonModels.Document, path string, chunks []commonModels.Chunk) {
	chars := runeLen(doc.Content)
	avg := 0
	if len(chunks) > 0 {
		total := 0
		for _, c := range chunks {
			total += runeLen(c.Content)
		}
		avg = total / len(chunks)
	}

	l.logger.Info("Document processed",
		"source", path,
		"char_count", chars,
		"preview", previewRunes(doc.Content, config.RunPreviewChars),
		"num_chunks", len(chunks),
		"avg_chunk_size", avg,
	)
	metrics.CaptureDocumentRun(chars, len(chunks))
}

func previewRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
