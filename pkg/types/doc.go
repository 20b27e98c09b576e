// Package types provides shared type definitions for the wiki-in-a-box retriever.
//
// The types here are the payloads that flow between the retrieval stages and
// out to consumers:
//
//	item := types.RetrievalItem{
//	    ID:      0,
//	    Title:   "French Revolution — Causes",
//	    URL:     "/A/French_Revolution",
//	    Snippet: "The causes of the French Revolution ...",
//	    Score:   0.41,
//	}
//
// Chunk is a section-scoped passage extracted from one archive page.
//
// # Errors
//
// Sentinel errors classify failures so callers can use errors.Is:
//
//   - ErrConfiguration: the archive or a required collaborator is missing (fatal at startup)
//   - ErrNotFound: a requested archive entry does not exist
//   - ErrEncoding: the encoder could not produce vectors
package types
