// Package searcher turns a natural-language query into ranked passages from
// the offline archive.
//
// A search runs as a small state machine:
//
//	title suggestion -> page rerank -> early exit
//	                                -> full-text recall -> [widened recall] -> rank
//
// Candidate pages come from the archive's title suggestions and the offline
// title index. They are reranked by the similarity of the query to each
// page's title and lead, and the chunks of the best pages are scored. If the
// best chunk clears TitleSimExit the search ends there. Otherwise the
// archive's full-text search recalls up to RecallLimit pages whose chunks
// are scored; when the best score stays under SimThreshold, one widened
// pass with wanted and RecallLimit scaled by SecondPassFactor replaces the
// first.
//
// If the encoder is unavailable the first chunks are returned in extraction
// order with types.FallbackScore.
//
// # Usage
//
//	s, err := searcher.Open(cfg)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	items, err := s.Search(ctx, "causes of the french revolution", 6)
//	text, citations := searcher.PackContext(items, searcher.DefaultMaxContextTokens, "/kiwix")
//
// Chunks with their embeddings, lead embeddings and suggestion lists are
// memoized in bounded LRU caches. Concurrent derivation of the same page is
// collapsed into one.
package searcher
