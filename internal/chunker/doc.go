// Package chunker segments archive pages into section-scoped text chunks for
// embedding and ranking.
//
// # Basic Usage
//
//	c := chunker.New(chunker.DefaultConfig())
//	chunks := c.ExtractChunks(entry.Title, entry.Path, entry.MimeType, entry.Content)
//	for _, ch := range chunks {
//	    fmt.Println(ch.Heading, ch.URL)
//	}
//
// # Extraction Strategy
//
// HTML pages are parsed into a DOM and boilerplate is removed first: nav,
// header, footer, script and style elements, and anything classed infobox,
// navbox or metadata. The remaining document is walked in order:
//   - h2 and h3 start a new section named by the heading text
//   - p and li contribute their full text to the current section
//   - text before the first subheading belongs to the "Lead" section
//
// # Windowing
//
// A section longer than twice ChunkTokens words is split into overlapping
// windows of ChunkTokens words advancing by ChunkTokens-ChunkOverlap; the last
// window may be shorter. Shorter sections become a single chunk. With the
// defaults (160/20) a 500-word section yields windows starting at words
// 0, 140, 280 and 420.
//
// Extraction stops once MaxChunks chunks exist, preserving section order and
// window order within a section. Words are whitespace-delimited tokens; no
// model tokenizer is involved.
//
// # Leads
//
// ExtractLead returns the p/li text that precedes the first subheading. The
// page reranker embeds it together with the page title.
package chunker
