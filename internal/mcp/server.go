package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/srijanshukla18/wiki-in-a-box/internal/config"
	"github.com/srijanshukla18/wiki-in-a-box/internal/searcher"
	"github.com/srijanshukla18/wiki-in-a-box/internal/titleindex"
)

const (
	// ServerName is the MCP server name
	ServerName = "wiki-in-a-box"
	// ServerVersion is the current server version
	ServerVersion = "0.1.0"
)

// Server wraps the MCP server with the retriever. A nil retriever means the
// archive could not be loaded; search tools then fail and get_status says so.
type Server struct {
	mcp       *server.MCPServer
	cfg       *config.Config
	retriever *searcher.Searcher
	builder   *titleindex.Builder
	logger    *slog.Logger
}

// NewServer opens the retriever described by cfg and registers the tools.
// An unusable archive is logged and leaves the server without a retriever.
func NewServer(cfg *config.Config) *Server {
	logger := slog.Default().With("component", "mcp")

	retriever, err := searcher.Open(cfg.Searcher())
	if err != nil {
		logger.Warn("retriever unavailable", "archive", cfg.ArchivePath, "err", err)
	}
	return New(cfg, retriever)
}

// New creates a server around an existing retriever, which may be nil
func New(cfg *config.Config, retriever *searcher.Searcher) *Server {
	s := &Server{
		mcp:       server.NewMCPServer(ServerName, ServerVersion),
		cfg:       cfg,
		retriever: retriever,
		builder:   titleindex.NewBuilder(),
		logger:    slog.Default().With("component", "mcp"),
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.Close() }()
	return server.ServeStdio(s.mcp)
}

// Close releases the retriever
func (s *Server) Close() error {
	if s.retriever == nil {
		return nil
	}
	return s.retriever.Close()
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(searchTool(), s.handleSearch)
	s.mcp.AddTool(searchInPathTool(), s.handleSearchInPath)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
	s.mcp.AddTool(buildTitleIndexTool(), s.handleBuildTitleIndex)
}
