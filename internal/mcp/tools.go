package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/srijanshukla18/wiki-in-a-box/internal/archive"
	"github.com/srijanshukla18/wiki-in-a-box/internal/searcher"
	"github.com/srijanshukla18/wiki-in-a-box/internal/titleindex"
	"github.com/srijanshukla18/wiki-in-a-box/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams        = -32602 // Invalid method parameters
	ErrorCodeInternalError        = -32603 // Internal JSON-RPC error
	ErrorCodeRetrieverUnavailable = -32001 // Archive not loaded
	ErrorCodeBuildInProgress      = -32002 // Another title index build is running
	ErrorCodeArchiveUnavailable   = -32003 // Archive file cannot be opened
	ErrorCodeEmptyQuery           = -32004 // Query parameter is empty
)

// handleSearch handles the search tool invocation
func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, err := requireQuery(args)
	if err != nil {
		return nil, err
	}
	topK, err := s.topK(args)
	if err != nil {
		return nil, err
	}
	if s.retriever == nil {
		return nil, s.unavailable()
	}

	items, err := s.retriever.Search(ctx, query, topK)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"query":   query,
		"count":   len(items),
		"results": nonNil(items),
	}
	if getBoolDefault(args, "include_context", false) {
		text, citations := searcher.PackContext(items, s.cfg.MaxContextTokens, s.cfg.PublicBaseURL)
		response["context"] = text
		response["citations"] = citations
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchInPath handles the search_in_path tool invocation
func (s *Server) handleSearchInPath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path := strings.TrimLeft(getStringDefault(args, "path", ""), "/")
	if path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	query, err := requireQuery(args)
	if err != nil {
		return nil, err
	}
	topK, err := s.topK(args)
	if err != nil {
		return nil, err
	}
	if s.retriever == nil {
		return nil, s.unavailable()
	}

	items, err := s.retriever.SearchInPath(ctx, path, query, topK)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"path":    path,
		"query":   query,
		"count":   len(items),
		"results": nonNil(items),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	indexPath := ""
	if s.cfg.TitleIndexDir != "" {
		indexPath = filepath.Join(s.cfg.TitleIndexDir, titleindex.FileName)
	}
	indexLoaded := s.retriever != nil && s.retriever.TitleIndex() != nil && s.retriever.TitleIndex().Available()

	response := map[string]interface{}{
		"retriever_loaded": s.retriever != nil,
		"archive": map[string]interface{}{
			"path":    s.cfg.ArchivePath,
			"present": fileExists(s.cfg.ArchivePath),
		},
		"title_index": map[string]interface{}{
			"path":    indexPath,
			"present": fileExists(indexPath),
			"loaded":  indexLoaded,
		},
	}

	if s.retriever != nil {
		emb := s.retriever.Embedder()
		response["encoder"] = map[string]interface{}{
			"provider":  emb.Provider(),
			"model":     emb.Model(),
			"dimension": emb.Dimension(),
		}
		response["caches"] = s.retriever.CacheStats()
		response["pipeline"] = s.retriever.Stats()
	} else {
		response["message"] = "Archive not loaded. Check ARCHIVE_PATH or create one with the import command."
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleBuildTitleIndex handles the build_title_index tool invocation
func (s *Server) handleBuildTitleIndex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})

	maxRows := getIntDefault(args, "max_rows", 0)
	if maxRows < 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "max_rows must not be negative", map[string]interface{}{
			"param": "max_rows",
			"value": maxRows,
		})
	}
	if s.cfg.TitleIndexDir == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "title index directory is not configured", nil)
	}

	arc, err := archive.Open(s.cfg.ArchivePath)
	if err != nil {
		return nil, newMCPError(ErrorCodeArchiveUnavailable, "archive unavailable", map[string]interface{}{
			"path":  s.cfg.ArchivePath,
			"error": err.Error(),
		})
	}
	defer func() { _ = arc.Close() }()

	stats, err := s.builder.Build(ctx, arc, s.cfg.TitleIndexDir, titleindex.BuildOptions{
		MaxRows: maxRows,
		Progress: func(fraction float64, message string) {
			s.logger.Info("title index build", "progress", fmt.Sprintf("%.0f%%", fraction*100), "status", message)
		},
	})
	if errors.Is(err, titleindex.ErrBuildInProgress) {
		return nil, newMCPError(ErrorCodeBuildInProgress, "title index build already in progress", nil)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "title index build failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if s.retriever != nil {
		if err := s.retriever.ReloadTitleIndex(); err != nil {
			s.logger.Warn("title index reload failed", "err", err)
		}
	}

	response := map[string]interface{}{
		"built":       true,
		"path":        filepath.Join(s.cfg.TitleIndexDir, titleindex.FileName),
		"scanned":     stats.Scanned,
		"indexed":     stats.Indexed,
		"skipped":     stats.Skipped,
		"duration_ms": stats.Duration.Milliseconds(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

func requireQuery(args map[string]interface{}) (string, error) {
	query := strings.TrimSpace(getStringDefault(args, "query", ""))
	if query == "" {
		return "", newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}
	return query, nil
}

func (s *Server) topK(args map[string]interface{}) (int, error) {
	topK := getIntDefault(args, "top_k", s.cfg.TopK)
	if topK < 1 || topK > maxTopK {
		return 0, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("top_k must be between 1 and %d", maxTopK), map[string]interface{}{
			"param": "top_k",
			"value": topK,
		})
	}
	return topK, nil
}

func (s *Server) unavailable() error {
	return newMCPError(ErrorCodeRetrieverUnavailable, "retriever not loaded", map[string]interface{}{
		"archive_path": s.cfg.ArchivePath,
	})
}

func nonNil(items []types.RetrievalItem) []types.RetrievalItem {
	if items == nil {
		return []types.RetrievalItem{}
	}
	return items
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
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
