package mcpserver

import (
	"context"
	"errors"
	"testing"

	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/internal/rag/vectorDB"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSearcher struct {
	results []commonModels.QueryResult
	err     error
	gotK    int
	context string
}

func (m *mockSearcher) Query(ctx context.Context, query string, k int) ([]commonModels.QueryResult, error) {
	m.gotK = k
	return m.results, m.err
}

func (m *mockSearcher) GetContext(ctx context.Context, query string) (string, bool, error) {
	return m.context, m.context != "", m.err
}

func (m *mockSearcher) Stats(ctx context.Context) (vectorDB.Stats, error) {
	return vectorDB.Stats{TotalDocuments: 12, CollectionName: "documents"}, m.err
}

func TestNewServer(t *testing.T) {
	server, err := NewServer(nil)
	assert.Nil(t, server)
	assert.ErrorIs(t, err, ErrMissingSearcher)

	server, err = NewServer(&mockSearcher{})
	require.NoError(t, err)
	assert.NotNil(t, server.Handler())
}

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("maps results", func(t *testing.T) {
		searcher := &mockSearcher{results: []commonModels.QueryResult{{
			ID:         "doc_1_0",
			Content:    "Harbor Point Marina has 40 slips.",
			Similarity: 0.91,
			Metadata: commonModels.Metadata{
				commonModels.MetaSource:  "data/notes.pdf",
				commonModels.MetaPage:    int64(3),
				commonModels.MetaSection: "## Marinas",
			},
		}}}
		server, err := NewServer(searcher)
		require.NoError(t, err)

		_, out, err := server.handleSearch(ctx, nil, SearchInput{Query: "marina", K: 5})
		require.NoError(t, err)
		assert.Equal(t, 5, searcher.gotK)
		require.Equal(t, 1, out.Count)
		assert.Equal(t, "data/notes.pdf", out.Results[0].Source)
		assert.Equal(t, 3, out.Results[0].Page)
		assert.Equal(t, "## Marinas", out.Results[0].Section)
		assert.InDelta(t, 0.91, out.Results[0].Similarity, 1e-9)
	})

	t.Run("defaults and caps k", func(t *testing.T) {
		searcher := &mockSearcher{}
		server, _ := NewServer(searcher)

		_, _, err := server.handleSearch(ctx, nil, SearchInput{Query: "q"})
		require.NoError(t, err)
		assert.Equal(t, 3, searcher.gotK)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "q", K: 1000})
		require.NoError(t, err)
		assert.Equal(t, maxSearchResults, searcher.gotK)
	})

	t.Run("empty query and store errors", func(t *testing.T) {
		server, _ := NewServer(&mockSearcher{err: commonModels.ErrQueryFailure})

		_, _, err := server.handleSearch(ctx, nil, SearchInput{})
		require.Error(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "q"})
		assert.True(t, errors.Is(err, commonModels.ErrQueryFailure))
	})
}

func TestServer_handleContextAndStats(t *testing.T) {
	ctx := context.Background()
	server, _ := NewServer(&mockSearcher{context: "RAG Context (showing top 1 relevant documents):"})

	_, out, err := server.handleContext(ctx, nil, ContextInput{Query: "q"})
	require.NoError(t, err)
	assert.True(t, out.Found)

	_, stats, err := server.handleStats(ctx, nil, StatsInput{})
	require.NoError(t, err)
	assert.Equal(t, StatsOutput{TotalDocuments: 12, Collection: "documents"}, stats)
}

func TestServer_OverInMemoryTransport(t *testing.T) {
	ctx := context.Background()
	server, err := NewServer(&mockSearcher{})
	require.NoError(t, err)

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"search_documents", "get_context", "collection_stats"}, names)

	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "collection_stats", Arguments: map[string]any{}})
	require.NoError(t, err)
	assert.False(t, res.IsError)
}
