package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"techdoc/internal/docgen"
	"techdoc/internal/embedder"
	"techdoc/internal/indexer"
	"techdoc/internal/storage"
	"techdoc/internal/vecindex"
)

const (
	// ServerName is the MCP server name
	ServerName = "techdoc"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Deps holds the already-wired application components the server exposes
// over MCP.
type Deps struct {
	Store   storage.Storage
	Index   *vecindex.Index
	Embed   embedder.Embedder
	Indexer *indexer.Indexer
	// Docs is nil when no LLM provider is configured; the generate_docs
	// tool then reports a configuration error instead of failing mid-run.
	Docs *docgen.Generator
	Log  zerolog.Logger
}

// Server exposes the indexing and documentation pipeline as MCP tools
// over stdio.
type Server struct {
	mcp  *server.MCPServer
	deps Deps
}

// NewServer creates an MCP server around the given components.
func NewServer(deps Deps) *Server {
	s := &Server{
		mcp:  server.NewMCPServer(ServerName, ServerVersion),
		deps: deps,
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	s.deps.Log.Info().Str("server", ServerName).Msg("serving MCP on stdio")
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(indexCodebaseTool(), s.handleIndexCodebase)
	s.mcp.AddTool(searchCodeTool(), s.handleSearchCode)
	s.mcp.AddTool(generateDocsTool(), s.handleGenerateDocs)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
	s.mcp.AddTool(addFeedbackTool(), s.handleAddFeedback)
}
