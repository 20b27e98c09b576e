// Package mcp exposes the retriever as a Model Context Protocol server over
// stdio.
//
// Tools:
//   - search: ranked passages for a question, optionally packed into a
//     numbered context block with citations
//   - search_in_path: ranked passages from a single page
//   - get_status: archive, title index and encoder availability plus cache
//     and pipeline counters
//   - build_title_index: rebuild the offline title index from the archive
//
// When the archive cannot be opened the server still starts; search tools
// fail with ErrorCodeRetrieverUnavailable and get_status reports the cause.
//
// Example request:
//
//	{
//	  "name": "search",
//	  "arguments": {
//	    "query": "causes of the French Revolution",
//	    "top_k": 6,
//	    "include_context": true
//	  }
//	}
//
// Errors are returned as MCPError values carrying a JSON-RPC style code.
package mcp
