package cache

import "github.com/srijanshukla18/wiki-in-a-box/pkg/types"

// PageChunks holds a page's extracted chunks and their unit embeddings,
// index-aligned
type PageChunks struct {
	Chunks  []types.Chunk
	Vectors [][]float32
}

// LeadEntry holds a page title and its lead embedding
type LeadEntry struct {
	Title  string
	Vector []float32
}

// ChunkCache memoizes extracted chunks and embeddings by page path
type ChunkCache = LRU[string, *PageChunks]

// LeadCache memoizes lead embeddings by page path
type LeadCache = LRU[string, *LeadEntry]

// SuggestionCache memoizes candidate path lists by normalized query
type SuggestionCache = LRU[string, []string]

// NewChunkCache creates a chunk cache
func NewChunkCache(capacity int) *ChunkCache {
	return New[string, *PageChunks](capacity)
}

// NewLeadCache creates a lead cache
func NewLeadCache(capacity int) *LeadCache {
	return New[string, *LeadEntry](capacity)
}

// NewSuggestionCache creates a suggestion cache
func NewSuggestionCache(capacity int) *SuggestionCache {
	return New[string, []string](capacity)
}
