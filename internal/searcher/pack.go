package searcher

import (
	"fmt"
	"strings"

	"github.com/srijanshukla18/wiki-in-a-box/pkg/types"
)

// DefaultMaxContextTokens bounds a packed context block
const DefaultMaxContextTokens = 2700

// Citation is a numbered reference to a packed passage
type Citation struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// PackContext renders items as "[n] title — snippet" lines numbered from 1,
// stopping before the estimated size would exceed maxTokens. Tokens are
// estimated as whitespace-separated words. Citation URLs are prefixed with
// baseURL.
func PackContext(items []types.RetrievalItem, maxTokens int, baseURL string) (string, []Citation) {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxContextTokens
	}
	baseURL = strings.TrimRight(baseURL, "/")

	var b strings.Builder
	var citations []Citation
	used := 0
	for i, it := range items {
		n := i + 1
		segment := fmt.Sprintf("[%d] %s — %s\n", n, it.Title, it.Snippet)
		tokens := max(1, len(strings.Fields(segment)))
		if used+tokens > maxTokens {
			break
		}
		used += tokens
		b.WriteString(segment)
		citations = append(citations, Citation{
			ID:      n,
			Title:   it.Title,
			URL:     baseURL + it.URL,
			Snippet: it.Snippet,
		})
	}
	return b.String(), citations
}
