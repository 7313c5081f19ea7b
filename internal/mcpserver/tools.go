package mcpserver

import (
	"context"
	"fmt"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const maxSearchResults = 50

type SearchInput struct {
	Query string `json:"query" jsonschema:"the question or phrase to search the documents for"`
	K     int    `json:"k,omitempty" jsonschema:"maximum number of results (default 3)"`
}

type SearchOutput struct {
	Results []SearchResult `json:"results"`
	Count   int            `json:"count"`
}

type SearchResult struct {
	ID         string  `json:"id"`
	Source     string  `json:"source"`
	Page       int     `json:"page,omitempty"`
	Section    string  `json:"section,omitempty"`
	Similarity float64 `json:"similarity"`
	Content    string  `json:"content"`
}

type ContextInput struct {
	Query string `json:"query" jsonschema:"the question to build retrieval context for"`
}

type ContextOutput struct {
	Found   bool   `json:"found"`
	Context string `json:"context,omitempty"`
}

type StatsInput struct{}

type StatsOutput struct {
	TotalDocuments int    `json:"total_documents"`
	Collection     string `json:"collection"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_documents",
		Description: "Similarity search over the ingested documents",
	}, s.handleSearch)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_context",
		Description: "Formatted retrieval context for a question, as the chat assistant sees it",
	}, s.handleContext)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "collection_stats",
		Description: "Number of chunks in the default collection",
	}, s.handleStats)
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	if input.Query == "" {
		return nil, SearchOutput{}, fmt.Errorf("query is required")
	}
	k := input.K
	if k <= 0 {
		k = config.DefaultNResults
	}
	k = min(k, maxSearchResults)

	results, err := s.searcher.Query(ctx, input.Query, k)
	if err != nil {
		s.logger.WithTrace(ctx).Error("search_documents failed", "error", err)
		return nil, SearchOutput{}, err
	}

	out := SearchOutput{Results: make([]SearchResult, len(results)), Count: len(results)}
	for i, r := range results {
		page, _ := r.Metadata.Int(commonModels.MetaPage)
		out.Results[i] = SearchResult{
			ID:         r.ID,
			Source:     r.Metadata.String(commonModels.MetaSource),
			Page:       page,
			Section:    r.Metadata.String(commonModels.MetaSection),
			Similarity: r.Similarity,
			Content:    r.Content,
		}
	}
	return nil, out, nil
}

func (s *Server) handleContext(ctx context.Context, _ *mcp.CallToolRequest, input ContextInput) (*mcp.CallToolResult, ContextOutput, error) {
	if input.Query == "" {
		return nil, ContextOutput{}, fmt.Errorf("query is required")
	}
	text, found, err := s.searcher.GetContext(ctx, input.Query)
	if err != nil {
		return nil, ContextOutput{}, err
	}
	return nil, ContextOutput{Found: found, Context: text}, nil
}

func (s *Server) handleStats(ctx context.Context, _ *mcp.CallToolRequest, _ StatsInput) (*mcp.CallToolResult, StatsOutput, error) {
	stats, err := s.searcher.Stats(ctx)
	if err != nil {
		return nil, StatsOutput{}, err
	}
	return nil, StatsOutput{TotalDocuments: stats.TotalDocuments, Collection: stats.CollectionName}, nil
}
