// Package mcpserver exposes document search to MCP clients over streamable HTTP or stdio.
package mcpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/internal/rag/vectorDB"
	"github.com/akolanti/DocChat/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName = "docchat"
	Version    = "0.1.0"
)

var ErrMissingSearcher = errors.New("mcp server needs a searcher")

// Searcher is the slice of the RAG service the tools call.
type Searcher interface {
	Query(ctx context.Context, query string, k int) ([]commonModels.QueryResult, error)
	GetContext(ctx context.Context, query string) (string, bool, error)
	Stats(ctx context.Context) (vectorDB.Stats, error)
}

type Server struct {
	searcher Searcher
	server   *mcp.Server
	logger   *logger_i.Logger
}

func NewServer(searcher Searcher) (*Server, error) {
	if searcher == nil {
		return nil, ErrMissingSearcher
	}
	s := &Server{
		searcher: searcher,
		server:   mcp.NewServer(&mcp.Implementation{Name: serverName, Version: Version}, nil),
		logger:   logger_i.NewLogger("MCP Server"),
	}
	s.registerTools()
	return s, nil
}

// Handler serves the streamable HTTP transport; mount it under /mcp.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// Run serves over stdio until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Connect attaches the server to an arbitrary transport, used with in-memory transports in tests.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}
