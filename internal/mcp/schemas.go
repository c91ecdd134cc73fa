package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// indexCodebaseTool returns the tool definition for index_codebase
func indexCodebaseTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_codebase",
		Description: "Run an incremental indexing pass over the project: scan files, detect changes, and re-embed only what changed",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"force": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, re-chunk and re-embed every file regardless of content hashes",
					"default":     false,
				},
			},
		},
	}
}

// searchCodeTool returns the tool definition for search_code
func searchCodeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_code",
		Description: "Search the indexed codebase with natural language or keyword queries",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or keywords)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"mode": map[string]interface{}{
					"type":        "string",
					"description": "Search strategy: auto (semantic with keyword fallback), semantic, or keyword",
					"enum":        []string{"auto", "semantic", "keyword"},
					"default":     "auto",
				},
			},
			Required: []string{"query"},
		},
	}
}

// generateDocsTool returns the tool definition for generate_docs
func generateDocsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "generate_docs",
		Description: "Generate or update a documentation artifact from the indexed codebase",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"doc_type": map[string]interface{}{
					"type":        "string",
					"description": "Documentation type to generate",
					"enum":        []string{"readme", "api", "onboarding", "changelog", "architecture"},
				},
				"update": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, update the latest existing document in light of recent changes instead of regenerating from scratch",
					"default":     false,
				},
				"output_path": map[string]interface{}{
					"type":        "string",
					"description": "Output file path (defaults to docs/<TYPE>.md under the project root)",
				},
			},
			Required: []string{"doc_type"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report index statistics, recent changes, and embedding provider details",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// addFeedbackTool returns the tool definition for add_feedback
func addFeedbackTool() mcp.Tool {
	return mcp.Tool{
		Name:        "add_feedback",
		Description: "Record feedback about a generated document; folded into future generations of that document type",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"doc_type": map[string]interface{}{
					"type":        "string",
					"description": "Documentation type the feedback applies to",
					"enum":        []string{"readme", "api", "onboarding", "changelog", "architecture"},
				},
				"rating": map[string]interface{}{
					"type":        "integer",
					"description": "Quality rating from 1 (poor) to 5 (excellent)",
					"minimum":     1,
					"maximum":     5,
				},
				"comment": map[string]interface{}{
					"type":        "string",
					"description": "What should change in future generations",
				},
			},
			Required: []string{"doc_type", "rating"},
		},
	}
}
