package rag

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/internal/domain/jobModel"
	"github.com/akolanti/DocChat/internal/metrics"
	"github.com/akolanti/DocChat/internal/rag/ingest"
	"github.com/akolanti/DocChat/internal/rag/llm"
	"github.com/akolanti/DocChat/internal/rag/scraper"
	"github.com/akolanti/DocChat/internal/rag/vectorDB"
	"github.com/akolanti/DocChat/pkg/logger_i"
)

// Service is everything the worker pool, the handlers and the tool server need from the
// retrieval side. The implementation stays private so callers only see behaviour.
type Service interface {
	ProcessRequest(ctx context.Context, job jobModel.Job, history []jobModel.ChatMessage) jobModel.Job
	IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job

	GetContext(ctx context.Context, query string) (string, bool, error)
	Query(ctx context.Context, query string, k int) ([]commonModels.QueryResult, error)

	Stats(ctx context.Context) (vectorDB.Stats, error)
	ListCollections(ctx context.Context) ([]commonModels.CollectionInfo, error)
	DeleteCollection(ctx context.Context, name string) error
	ResetCollection(ctx context.Context) error

	Settings() Settings
	UpdateSettings(settings Settings) Settings
	Models(ctx context.Context) ModelCatalogue
}

// Retriever is the vector store as the service uses it.
type Retriever interface {
	Query(ctx context.Context, text string, k int, fields ...vectorDB.Field) ([]commonModels.QueryResult, error)
	Stats(ctx context.Context) (vectorDB.Stats, error)
	ListCollections(ctx context.Context) ([]commonModels.CollectionInfo, error)
	DeleteCollection(ctx context.Context, name string) error
	ResetCollection(ctx context.Context) error
}

type Ingester interface {
	LoadDocuments(ctx context.Context) (*ingest.RunResult, error)
}

type PageScraper interface {
	Scrape(ctx context.Context, url string) (scraper.Page, error)
}

type ModelRegistry interface {
	Provider(ctx context.Context, model string) (llm.Provider, error)
	Available(ctx context.Context) []string
	Running(ctx context.Context) []string
	DefaultModel() string
}

type ModelCatalogue struct {
	Default   string   `json:"default"`
	Available []string `json:"available"`
	Running   []string `json:"running"`
}

type Dependencies struct {
	Store    Retriever
	Loader   Ingester
	Scraper  PageScraper
	Models   ModelRegistry
	Settings Settings
}

type service struct {
	store    Retriever
	loader   Ingester
	scraper  PageScraper
	models   ModelRegistry
	settings settingsHolder

	// one ingestion run at a time, whoever asks
	ingestMu sync.Mutex

	pages *pageCache

	logger *logger_i.Logger
}

func NewService(deps Dependencies) Service {
	s := &service{
		store:   deps.Store,
		loader:  deps.Loader,
		scraper: deps.Scraper,
		models:  deps.Models,
		pages:   newPageCache(config.RedisMessageStoreTTL, config.MaxRememberedPages),
		logger:  logger_i.NewLogger("RAG Service"),
	}
	s.settings.set(deps.Settings)
	return s
}

func (s *service) ProcessRequest(ctx context.Context, job jobModel.Job, history []jobModel.ChatMessage) jobModel.Job {
	log := s.logger.WithTrace(ctx).With("jobId", job.Id)
	question := job.JobPayload.Question

	webpage, err := s.executeWebpageStep(ctx, log, &job)
	if err != nil {
		return s.jobError(job, err, "WEBPAGE_FAILURE", http.StatusBadGateway, true)
	}

	ragContext, sources, err := s.executeRetrievalStep(ctx, log, &job)
	if err != nil {
		return s.jobError(job, err, "VECTOR_DB_FAILURE", http.StatusInternalServerError, true)
	}

	prompt := composePrompt(question, ragContext, webpage)
	answer, model, err := s.executeLLMStep(ctx, log, &job, prompt, toLLMHistory(history))
	if err != nil {
		return s.jobError(job, err, "LLM_GENERATION_FAILURE", http.StatusInternalServerError, true)
	}

	job.JobPayload.Model = model
	job.JobPayload.ContextUsed = ragContext != ""
	job.JobPayload.Sources = sources
	return returnOutput(job, answer)
}

// IngestDocument runs one ingestion over the data directory and stores the run summary on the job.
func (s *service) IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("document_ingestion", time.Since(start)) }()

	if s.loader == nil {
		return s.jobError(job, errors.New("no document loader configured"), "INGESTION_FAILURE", http.StatusServiceUnavailable, false)
	}

	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	job = logOutput(job, jobModel.IngestProcessing, s.logger.WithTrace(ctx))
	res, err := s.loader.LoadDocuments(ctx)
	if res != nil {
		summary := res.Summary
		job.JobPayload.Ingest = &summary
	}
	if errors.Is(err, commonModels.ErrIngestionInProgress) {
		return s.jobError(job, err, "INGESTION_IN_PROGRESS", http.StatusConflict, true)
	}
	if err != nil {
		return s.jobError(job, err, "INGESTION_FAILURE", http.StatusInternalServerError, true)
	}
	job.CurrentStep = jobModel.Complete
	return job
}

// GetContext formats the top results for query. It reports false when retrieval is
// disabled or nothing relevant was found.
func (s *service) GetContext(ctx context.Context, query string) (string, bool, error) {
	text, _, err := s.retrieve(ctx, query)
	if err != nil {
		return "", false, err
	}
	return text, text != "", nil
}

func (s *service) retrieve(ctx context.Context, query string) (string, []string, error) {
	settings := s.settings.get()
	if !settings.Enabled || s.store == nil {
		return "", nil, nil
	}
	results, err := s.store.Query(ctx, query, settings.NResults)
	if err != nil {
		return "", nil, err
	}
	if len(results) == 0 {
		return "", nil, nil
	}
	text, sources := formatContext(results)
	return text, sources, nil
}

func (s *service) Query(ctx context.Context, query string, k int) ([]commonModels.QueryResult, error) {
	if s.store == nil {
		return nil, commonModels.ErrStorageUnavailable
	}
	return s.store.Query(ctx, query, k)
}

func (s *service) Stats(ctx context.Context) (vectorDB.Stats, error) {
	if s.store == nil {
		return vectorDB.Stats{}, commonModels.ErrStorageUnavailable
	}
	return s.store.Stats(ctx)
}

func (s *service) ListCollections(ctx context.Context) ([]commonModels.CollectionInfo, error) {
	if s.store == nil {
		return nil, commonModels.ErrStorageUnavailable
	}
	return s.store.ListCollections(ctx)
}

func (s *service) DeleteCollection(ctx context.Context, name string) error {
	if s.store == nil {
		return commonModels.ErrStorageUnavailable
	}
	return s.store.DeleteCollection(ctx, name)
}

func (s *service) ResetCollection(ctx context.Context) error {
	if s.store == nil {
		return commonModels.ErrStorageUnavailable
	}
	return s.store.ResetCollection(ctx)
}

func (s *service) Settings() Settings { return s.settings.get() }

func (s *service) UpdateSettings(settings Settings) Settings {
	updated := s.settings.set(settings)
	s.logger.Info("RAG settings updated", "enabled", updated.Enabled, "n_results", updated.NResults)
	return updated
}

func (s *service) Models(ctx context.Context) ModelCatalogue {
	if s.models == nil {
		return ModelCatalogue{Available: []string{}, Running: []string{}}
	}
	return ModelCatalogue{
		Default:   s.models.DefaultModel(),
		Available: s.models.Available(ctx),
		Running:   s.models.Running(ctx),
	}
}

func (s *service) rememberPage(chatId, content string) { s.pages.put(chatId, content) }

func (s *service) pageFor(chatId string) string { return s.pages.get(chatId) }
