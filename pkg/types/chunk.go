package types

import "strings"

// SnippetWords is the number of leading words kept as a chunk snippet
const SnippetWords = 60

// LeadSection is the section title used for text preceding the first subheading
const LeadSection = "Lead"

// Chunk represents a section-scoped passage extracted from one archive page
type Chunk struct {
	// Heading is "<page title> — <section title>"
	Heading string
	// URL is "/" + the page's archive path
	URL string
	// Snippet holds the first SnippetWords words of Text
	Snippet string
	// Text is the full passage that gets embedded
	Text string
}

// HeadingFor builds the provenance heading shared by chunks of a section
func HeadingFor(pageTitle, section string) string {
	return pageTitle + " — " + section
}

// URLFor builds the consumer-facing URL for an archive path
func URLFor(path string) string {
	return "/" + strings.TrimLeft(path, "/")
}

// Snippet returns the first n words of words joined by single spaces
func Snippet(words []string, n int) string {
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
