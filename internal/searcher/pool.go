package searcher

import (
	"sort"

	"github.com/srijanshukla18/wiki-in-a-box/internal/cache"
	"github.com/srijanshukla18/wiki-in-a-box/internal/embedder"
	"github.com/srijanshukla18/wiki-in-a-box/pkg/types"
)

// pool is the set of chunks accumulated by one stage, in extraction order
type pool struct {
	chunks  []types.Chunk
	vectors [][]float32 // nil entries were never encoded
	scores  []float64
}

func (p *pool) add(pc *cache.PageChunks, take int) {
	p.chunks = append(p.chunks, pc.Chunks[:take]...)
	for i := 0; i < take; i++ {
		var v []float32
		if pc.Vectors != nil {
			v = pc.Vectors[i]
		}
		p.vectors = append(p.vectors, v)
	}
}

// score computes every chunk's similarity to qv and returns the best. It
// reports false when ranking is impossible: no query vector, no chunks, or
// any chunk without a vector.
func (p *pool) score(qv []float32) (float64, bool) {
	if qv == nil || len(p.chunks) == 0 {
		return 0, false
	}
	for _, v := range p.vectors {
		if v == nil {
			return 0, false
		}
	}

	p.scores = make([]float64, len(p.chunks))
	best := -2.0
	for i, v := range p.vectors {
		p.scores[i] = embedder.Dot(qv, v)
		best = max(best, p.scores[i])
	}
	return best, true
}

// ranked returns the topK scored chunks, highest first; ties keep
// extraction order
func (p *pool) ranked(topK int) []types.RetrievalItem {
	order := make([]int, len(p.chunks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return p.scores[order[a]] > p.scores[order[b]]
	})

	if len(order) > topK {
		order = order[:topK]
	}
	items := make([]types.RetrievalItem, len(order))
	for i, idx := range order {
		items[i] = item(i, p.chunks[idx], p.scores[idx])
	}
	return items
}

// fallback returns the first topK chunks with the placeholder score
func (p *pool) fallback(topK int) []types.RetrievalItem {
	n := min(topK, len(p.chunks))
	items := make([]types.RetrievalItem, n)
	for i := 0; i < n; i++ {
		items[i] = item(i, p.chunks[i], types.FallbackScore)
	}
	return items
}

func item(id int, c types.Chunk, score float64) types.RetrievalItem {
	return types.RetrievalItem{
		ID:      id,
		Title:   c.Heading,
		URL:     c.URL,
		Snippet: c.Snippet,
		Score:   score,
	}
}
