package rag_test

import (
	"context"

	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/internal/rag/ingest"
	"github.com/akolanti/DocChat/internal/rag/llm"
	"github.com/akolanti/DocChat/internal/rag/scraper"
	"github.com/akolanti/DocChat/internal/rag/vectorDB"
)

// MockRetriever implements rag.Retriever
type MockRetriever struct {
	OnQuery            func(ctx context.Context, text string, k int) ([]commonModels.QueryResult, error)
	OnStats            func(ctx context.Context) (vectorDB.Stats, error)
	OnDeleteCollection func(ctx context.Context, name string) error
	OnResetCollection  func(ctx context.Context) error
}

func (m *MockRetriever) Query(ctx context.Context, text string, k int, fields ...vectorDB.Field) ([]commonModels.QueryResult, error) {
	if m.OnQuery != nil {
		return m.OnQuery(ctx, text, k)
	}
	return nil, nil
}

func (m *MockRetriever) Stats(ctx context.Context) (vectorDB.Stats, error) {
	if m.OnStats != nil {
		return m.OnStats(ctx)
	}
	return vectorDB.Stats{}, nil
}

func (m *MockRetriever) ListCollections(ctx context.Context) ([]commonModels.CollectionInfo, error) {
	return []commonModels.CollectionInfo{{Name: "documents", Count: 1}}, nil
}

func (m *MockRetriever) DeleteCollection(ctx context.Context, name string) error {
	if m.OnDeleteCollection != nil {
		return m.OnDeleteCollection(ctx, name)
	}
	return nil
}

func (m *MockRetriever) ResetCollection(ctx context.Context) error {
	if m.OnResetCollection != nil {
		return m.OnResetCollection(ctx)
	}
	return nil
}

type MockIngester struct {
	OnLoadDocuments func(ctx context.Context) (*ingest.RunResult, error)
}

func (m *MockIngester) LoadDocuments(ctx context.Context) (*ingest.RunResult, error) {
	if m.OnLoadDocuments != nil {
		return m.OnLoadDocuments(ctx)
	}
	return &ingest.RunResult{}, nil
}

type MockScraper struct {
	OnScrape func(ctx context.Context, url string) (scraper.Page, error)
}

func (m *MockScraper) Scrape(ctx context.Context, url string) (scraper.Page, error) {
	if m.OnScrape != nil {
		return m.OnScrape(ctx, url)
	}
	return scraper.Page{URL: url}, nil
}

// MockLLM implements llm.Provider
type MockLLM struct {
	Name       string
	OnGenerate func(ctx context.Context, prompt string, history []llm.Message) (string, error)
}

func (m *MockLLM) Generate(ctx context.Context, prompt string, history []llm.Message, onToken llm.TokenFunc) (string, error) {
	if m.OnGenerate != nil {
		return m.OnGenerate(ctx, prompt, history)
	}
	return "mocked llm response", nil
}

func (m *MockLLM) Model() string {
	if m.Name == "" {
		return "mock-model"
	}
	return m.Name
}

// MockModels implements rag.ModelRegistry
type MockModels struct {
	LLM        *MockLLM
	OnProvider func(ctx context.Context, model string) (llm.Provider, error)
}

func (m *MockModels) Provider(ctx context.Context, model string) (llm.Provider, error) {
	if m.OnProvider != nil {
		return m.OnProvider(ctx, model)
	}
	return m.LLM, nil
}

func (m *MockModels) Available(ctx context.Context) []string {
	return []string{"claude-3-haiku", "llama3.2"}
}

func (m *MockModels) Running(ctx context.Context) []string {
	return []string{"llama3.2"}
}

func (m *MockModels) DefaultModel() string { return "llama3.2" }
