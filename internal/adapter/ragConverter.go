package adapter

import (
	"github.com/akolanti/DocChat/internal/api"
	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/internal/domain/jobModel"
	"github.com/akolanti/DocChat/internal/rag"
	"github.com/akolanti/DocChat/internal/rag/vectorDB"
)

func ToHistoryResponse(chatId string, messages []jobModel.ChatMessage) api.HistoryResponse {
	out := api.HistoryResponse{ChatId: chatId, Messages: make([]api.ChatMessage, 0, len(messages))}
	for _, m := range messages {
		out.Messages = append(out.Messages, api.ChatMessage{Role: m.Role, Content: m.Content, Timestamp: m.Timestamp})
	}
	return out
}

func ToQueryResponse(query string, results []commonModels.QueryResult) api.QueryResponse {
	out := api.QueryResponse{Query: query, Results: make([]api.QueryResult, 0, len(results))}
	for _, r := range results {
		out.Results = append(out.Results, api.QueryResult{
			ID:         r.ID,
			Content:    r.Content,
			Metadata:   r.Metadata,
			Similarity: r.Similarity,
		})
	}
	return out
}

func ToCollectionsResponse(infos []commonModels.CollectionInfo) api.CollectionsResponse {
	out := api.CollectionsResponse{Collections: make([]api.Collection, 0, len(infos))}
	for _, c := range infos {
		out.Collections = append(out.Collections, api.Collection{Name: c.Name, Metadata: c.Metadata, Count: c.Count})
	}
	return out
}

func ToStatsResponse(s vectorDB.Stats) api.StatsResponse {
	return api.StatsResponse{
		TotalDocuments:   s.TotalDocuments,
		CollectionName:   s.CollectionName,
		PersistDirectory: s.PersistDirectory,
	}
}

func ToSettingsResponse(s rag.Settings) api.RAGSettings {
	return api.RAGSettings{Enabled: s.Enabled, NResults: s.NResults}
}

func FromSettingsRequest(s api.RAGSettings) rag.Settings {
	return rag.Settings{Enabled: s.Enabled, NResults: s.NResults}
}

func ToModelsResponse(c rag.ModelCatalogue) api.ModelsResponse {
	return api.ModelsResponse{Default: c.Default, Available: c.Available, Running: c.Running}
}
