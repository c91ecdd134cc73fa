package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"techdoc/internal/docgen"
	"techdoc/internal/embedder"
	"techdoc/internal/indexer"
	"techdoc/internal/storage"
	"techdoc/internal/vecindex"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeIndexingInProgress = -32002 // Another indexing run is already active
	ErrorCodeEmptyQuery         = -32004 // Query parameter is empty
	ErrorCodeNotConfigured      = -32005 // Required provider is not configured
)

const snippetLimit = 400

// handleIndexCodebase handles the index_codebase tool invocation
func (s *Server) handleIndexCodebase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		args = map[string]interface{}{}
	}

	force := getBoolDefault(args, "force", false)

	sum, err := s.deps.Indexer.Run(ctx, indexer.Options{ForceFull: force})
	if errors.Is(err, indexer.ErrRunInProgress) {
		return nil, newMCPError(ErrorCodeIndexingInProgress, "an indexing run is already active", nil)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"files_scanned":   sum.FilesScanned,
		"files_reindexed": sum.FilesReindexed,
		"files_deleted":   sum.FilesDeleted,
		"chunks_indexed":  sum.ChunksIndexed,
		"changes":         len(sum.Changes),
		"duration_ms":     sum.Duration.Milliseconds(),
	}
	if len(sum.Errors) > 0 {
		response["error_count"] = len(sum.Errors)
		if len(sum.Errors) > 5 {
			response["errors"] = sum.Errors[:5]
		} else {
			response["errors"] = sum.Errors
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchCode handles the search_code tool invocation
func (s *Server) handleSearchCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param": "query",
		})
	}

	limit := getIntDefault(args, "limit", 10)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	mode := getStringDefault(args, "mode", "auto")
	if mode != "auto" && mode != "semantic" && mode != "keyword" {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid mode", map[string]interface{}{
			"param":   "mode",
			"value":   mode,
			"allowed": []string{"auto", "semantic", "keyword"},
		})
	}

	results, usedMode, err := s.search(ctx, query, limit, mode)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	items := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		snippet := r.Chunk.Content
		if len(snippet) > snippetLimit {
			snippet = snippet[:snippetLimit]
		}
		items = append(items, map[string]interface{}{
			"path":       r.Chunk.FilePath,
			"name":       r.Chunk.Name,
			"kind":       string(r.Chunk.Kind),
			"language":   string(r.Chunk.Language),
			"start_line": r.Chunk.StartLine,
			"end_line":   r.Chunk.EndLine,
			"score":      r.Score,
			"snippet":    snippet,
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"query":   query,
		"mode":    usedMode,
		"results": items,
	})), nil
}

// search runs the requested strategy. Auto means semantic with keyword
// fallback when the query cannot be embedded.
func (s *Server) search(ctx context.Context, query string, limit int, mode string) ([]vecindex.Result, string, error) {
	if mode == "keyword" {
		results, err := s.deps.Index.KeywordSearch(query, limit)
		return results, "keyword", err
	}

	emb, err := s.deps.Embed.GenerateEmbedding(ctx, embedder.EmbeddingRequest{
		Text: query,
		Task: embedder.TaskQuery,
	})
	if err == nil {
		results, serr := s.deps.Index.Search(emb.Vector, limit)
		if serr == nil {
			return results, "semantic", nil
		}
		err = serr
	}

	if mode == "semantic" {
		return nil, "semantic", err
	}

	s.deps.Log.Warn().Err(err).Msg("semantic search unavailable, using keyword search")
	results, kerr := s.deps.Index.KeywordSearch(query, limit)
	return results, "keyword", kerr
}

// handleGenerateDocs handles the generate_docs tool invocation
func (s *Server) handleGenerateDocs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.deps.Docs == nil {
		return nil, newMCPError(ErrorCodeNotConfigured, "no LLM provider configured for documentation generation", nil)
	}

	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	docType, ok := args["doc_type"].(string)
	if !ok || docType == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "doc_type parameter is required", map[string]interface{}{
			"param":   "doc_type",
			"allowed": docgen.DocTypes(),
		})
	}

	update := getBoolDefault(args, "update", false)
	outputPath := getStringDefault(args, "output_path", "")

	var (
		doc *storage.Document
		err error
	)
	if update {
		doc, err = s.deps.Docs.Update(ctx, docType, outputPath)
	} else {
		doc, err = s.deps.Docs.Generate(ctx, docType, outputPath)
	}
	if errors.Is(err, docgen.ErrUnknownDocType) {
		return nil, newMCPError(ErrorCodeInvalidParams, "unknown doc_type", map[string]interface{}{
			"param":   "doc_type",
			"value":   docType,
			"allowed": docgen.DocTypes(),
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "documentation generation failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"doc_type":     doc.DocType,
		"path":         doc.FilePath,
		"version_hash": doc.VersionHash,
		"bytes":        len(doc.Content),
	})), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := s.deps.Index.GetStats()

	records, err := s.deps.Store.ListFileRecords(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to read file records", map[string]interface{}{
			"error": err.Error(),
		})
	}

	changes, err := s.deps.Store.RecentChanges(ctx, 10)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to read change log", map[string]interface{}{
			"error": err.Error(),
		})
	}

	recent := make([]map[string]interface{}, 0, len(changes))
	for _, c := range changes {
		recent = append(recent, map[string]interface{}{
			"path": c.Path,
			"kind": string(c.Kind),
		})
	}

	response := map[string]interface{}{
		"indexed": len(records) > 0,
		"files":   len(records),
		"statistics": map[string]interface{}{
			"total_chunks":    stats.TotalChunks,
			"embedded_chunks": stats.Embedded,
			"languages":       stats.Languages,
			"chunk_kinds":     stats.ChunkKinds,
		},
		"recent_changes": recent,
		"embedding": map[string]interface{}{
			"provider":  s.deps.Embed.Provider(),
			"model":     s.deps.Embed.Model(),
			"dimension": s.deps.Embed.Dimension(),
		},
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleAddFeedback handles the add_feedback tool invocation
func (s *Server) handleAddFeedback(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	docType, ok := args["doc_type"].(string)
	if !ok || docType == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "doc_type parameter is required", map[string]interface{}{
			"param":   "doc_type",
			"allowed": docgen.DocTypes(),
		})
	}

	rating := getIntDefault(args, "rating", 0)
	if rating < 1 || rating > 5 {
		return nil, newMCPError(ErrorCodeInvalidParams, "rating must be between 1 and 5", map[string]interface{}{
			"param": "rating",
			"value": rating,
		})
	}

	comment := getStringDefault(args, "comment", "")

	if err := s.deps.Store.AddFeedback(ctx, &storage.Feedback{
		DocType: docType,
		Rating:  rating,
		Comment: comment,
	}); err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to store feedback", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"recorded": true,
		"doc_type": docType,
		"rating":   rating,
	})), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
