package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

const maxTopK = 50

// searchTool returns the tool definition for search
func searchTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search",
		Description: "Retrieve short, cited passages from the offline encyclopedia archive for a natural-language question",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural-language question or keywords",
				},
				"top_k": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of passages to return",
					"minimum":     1,
					"maximum":     maxTopK,
				},
				"include_context": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, also return a numbered context block and citations ready for prompting",
					"default":     false,
				},
			},
			Required: []string{"query"},
		},
	}
}

// searchInPathTool returns the tool definition for search_in_path
func searchInPathTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_in_path",
		Description: "Rank the passages of a single archive page against a question",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Archive path of the page, e.g. A/French_Revolution (a leading / is ignored)",
				},
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Question to rank the page's passages against",
				},
				"top_k": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of passages to return",
					"minimum":     1,
					"maximum":     maxTopK,
				},
			},
			Required: []string{"path", "query"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report archive, title index and encoder availability plus cache and pipeline counters",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// buildTitleIndexTool returns the tool definition for build_title_index
func buildTitleIndexTool() mcp.Tool {
	return mcp.Tool{
		Name:        "build_title_index",
		Description: "Rebuild the offline title index from the archive",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"max_rows": map[string]interface{}{
					"type":        "integer",
					"description": "Stop after scanning this many entries (0 scans everything)",
					"default":     0,
					"minimum":     0,
				},
			},
		},
	}
}
