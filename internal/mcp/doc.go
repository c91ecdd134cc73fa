// Package mcp implements the Model Context Protocol (MCP) server for techdoc.
//
// The server exposes five tools to AI coding assistants:
//   - index_codebase: run an incremental indexing pass over the project
//   - search_code: search indexed code with natural language or keywords
//   - generate_docs: generate or update a documentation artifact
//   - get_status: report index statistics and recent changes
//   - add_feedback: record feedback that shapes future generations
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server is typically started via the mcp command:
//
//	techdoc mcp
//
// It then listens on stdin for protocol messages and writes responses to
// stdout; logs go to stderr since stdout is reserved for the protocol.
//
// Errors use standard JSON-RPC error responses:
//
//	{
//	  "error": {
//	    "code": -32602,
//	    "message": "Invalid params",
//	    "data": {"param": "doc_type"}
//	  }
//	}
//
// Error codes:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (database, filesystem, provider)
//   - -32002: Indexing run already in progress
//   - -32004: Empty search query
//   - -32005: Required provider not configured
package mcp
