package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srijanshukla18/wiki-in-a-box/pkg/types"
)

// numberedWords returns "p0 p1 ... p(n-1)"
func numberedWords(prefix string, n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return strings.Join(w, " ")
}

func page(body string) []byte {
	return []byte("<html><head><title>T</title></head><body>" + body + "</body></html>")
}

func TestNew_NormalizesConfig(t *testing.T) {
	tests := []struct {
		name string
		in   Config
		want Config
	}{
		{name: "defaults", in: Config{}, want: DefaultConfig()},
		{name: "overlap equals size", in: Config{ChunkTokens: 100, ChunkOverlap: 100, MaxChunks: 5}, want: Config{ChunkTokens: 100, ChunkOverlap: 25, MaxChunks: 5}},
		{name: "negative overlap", in: Config{ChunkTokens: 10, ChunkOverlap: -1, MaxChunks: 1}, want: Config{ChunkTokens: 10, ChunkOverlap: 0, MaxChunks: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.in).Config())
		})
	}
}

func TestExtractChunks_SlidingWindows(t *testing.T) {
	c := New(DefaultConfig())
	content := page("<p>" + numberedWords("w", 500) + "</p>")

	chunks := c.ExtractChunks("Long Page", "A/Long_Page", "text/html", content)
	require.Len(t, chunks, 4)

	starts := []int{0, 140, 280, 420}
	lengths := []int{160, 160, 160, 80}
	for i, ch := range chunks {
		words := strings.Fields(ch.Text)
		assert.Len(t, words, lengths[i])
		assert.Equal(t, fmt.Sprintf("w%d", starts[i]), words[0])
		assert.Equal(t, "Long Page — Lead", ch.Heading)
		assert.Equal(t, "/A/Long_Page", ch.URL)
		assert.Len(t, strings.Fields(ch.Snippet), types.SnippetWords)
		assert.True(t, strings.HasPrefix(ch.Text, ch.Snippet))
	}

	// Adjacent windows share exactly the overlap
	for i := 0; i+1 < len(chunks); i++ {
		prev := strings.Fields(chunks[i].Text)
		next := strings.Fields(chunks[i+1].Text)
		assert.Equal(t, prev[len(prev)-DefaultChunkOverlap:], next[:DefaultChunkOverlap])
	}

	// Every word is covered
	seen := map[string]bool{}
	for _, ch := range chunks {
		for _, w := range strings.Fields(ch.Text) {
			seen[w] = true
		}
	}
	assert.Len(t, seen, 500)
}

func TestExtractChunks_ShortSectionIsSingleChunk(t *testing.T) {
	c := New(DefaultConfig())
	content := page("<p>" + numberedWords("w", 2*DefaultChunkTokens) + "</p>")

	chunks := c.ExtractChunks("P", "A/P", "text/html", content)
	require.Len(t, chunks, 1)
	assert.Len(t, strings.Fields(chunks[0].Text), 2*DefaultChunkTokens)
}

func TestExtractChunks_Sections(t *testing.T) {
	c := New(DefaultConfig())
	content := page(`
		<header><p>site header</p></header>
		<nav><ul><li>Main page</li></ul></nav>
		<p>The French Revolution was a period of upheaval.</p>
		<table class="infobox vcard"><tr><td><p>Date 1789</p></td></tr></table>
		<h2>Causes</h2>
		<p>Financial crisis and <b>Enlightenment</b> ideas.</p>
		<ul><li>Debt</li><li>Bread prices<ul><li>nested</li></ul></li></ul>
		<h2></h2>
		<p>Continues under the previous heading.</p>
		<h3>Legacy</h3>
		<div class="navbox"><p>Navigation links</p></div>
		<div class="metadata"><p>Meta</p></div>
		<p>Modern democracy.</p>
		<script>var x = "script text";</script>
		<footer><p>site footer</p></footer>`)

	chunks := c.ExtractChunks("French Revolution", "A/French_Revolution", "text/html; charset=utf-8", content)
	require.Len(t, chunks, 4)

	assert.Equal(t, "French Revolution — Lead", chunks[0].Heading)
	assert.Equal(t, "The French Revolution was a period of upheaval.", chunks[0].Text)

	assert.Equal(t, "French Revolution — Causes", chunks[1].Heading)
	assert.Equal(t, "Financial crisis and Enlightenment ideas. Debt Bread prices nested", chunks[1].Text)

	assert.Equal(t, "French Revolution — Causes", chunks[2].Heading)
	assert.Equal(t, "Continues under the previous heading.", chunks[2].Text)

	assert.Equal(t, "French Revolution — Legacy", chunks[3].Heading)
	assert.Equal(t, "Modern democracy.", chunks[3].Text)

	all := ""
	for _, ch := range chunks {
		all += ch.Text + " "
	}
	for _, boilerplate := range []string{"site header", "Main page", "1789", "Navigation", "Meta", "script text", "site footer"} {
		assert.NotContains(t, all, boilerplate)
	}
}

func TestExtractChunks_MaxChunksPreservesOrder(t *testing.T) {
	c := New(Config{ChunkTokens: 10, ChunkOverlap: 2, MaxChunks: 5})
	content := page(
		"<h2>One</h2><p>" + numberedWords("a", 50) + "</p>" +
			"<h2>Two</h2><p>" + numberedWords("b", 50) + "</p>")

	chunks := c.ExtractChunks("P", "A/P", "text/html", content)
	require.Len(t, chunks, 5)
	for _, ch := range chunks {
		assert.Equal(t, "P — One", ch.Heading)
	}
	assert.True(t, strings.HasPrefix(chunks[0].Text, "a0 "))
	assert.True(t, strings.HasPrefix(chunks[4].Text, "a32 "))
}

func TestExtractChunks_EdgeCases(t *testing.T) {
	c := New(DefaultConfig())

	t.Run("non-text mimetype", func(t *testing.T) {
		assert.Nil(t, c.ExtractChunks("Logo", "I/logo.png", "image/png", []byte("<p>x</p>")))
	})

	t.Run("empty body", func(t *testing.T) {
		assert.Empty(t, c.ExtractChunks("Empty", "A/Empty", "text/html", page("<nav><p>only nav</p></nav>")))
	})

	t.Run("title falls back to path", func(t *testing.T) {
		chunks := c.ExtractChunks("", "A/Untitled", "text/html", page("<p>body text</p>"))
		require.Len(t, chunks, 1)
		assert.Equal(t, "A/Untitled — Lead", chunks[0].Heading)
	})

	t.Run("plain text is one lead section", func(t *testing.T) {
		chunks := c.ExtractChunks("Notes", "A/Notes", "text/plain", []byte("just\nsome   plain text"))
		require.Len(t, chunks, 1)
		assert.Equal(t, "just some plain text", chunks[0].Text)
	})
}

func TestExtractLead(t *testing.T) {
	c := New(DefaultConfig())

	content := page(`<div class="infobox"><p>Box</p></div>
		<p>First paragraph.</p><ul><li>Point</li></ul>
		<h2>History</h2><p>Not part of the lead.</p>`)
	assert.Equal(t, "First paragraph. Point", c.ExtractLead("text/html", content))

	assert.Equal(t, "", c.ExtractLead("text/html", page("<h2>Start</h2><p>x</p>")))
	assert.Equal(t, "", c.ExtractLead("image/png", content))

	long := c.ExtractLead("text/html", page("<p>"+numberedWords("w", MaxLeadWords+50)+"</p>"))
	assert.Len(t, strings.Fields(long), MaxLeadWords)
}

func TestExtractLead_CapKeepsOpeningWords(t *testing.T) {
	c := New(DefaultConfig())

	// The cap is reached mid-paragraph in the second block
	html := page("<p>" + numberedWords("a", MaxLeadWords-10) + "</p><p>" + numberedWords("b", 40) + "</p>")
	lead := strings.Fields(c.ExtractLead("text/html", html))
	require.Len(t, lead, MaxLeadWords)
	assert.Equal(t, "a0", lead[0])
	assert.Equal(t, "b9", lead[len(lead)-1])

	plain := strings.Fields(c.ExtractLead("text/plain", []byte(numberedWords("p", MaxLeadWords*2))))
	require.Len(t, plain, MaxLeadWords)
	assert.Equal(t, fmt.Sprintf("p%d", MaxLeadWords-1), plain[len(plain)-1])

	short := c.ExtractLead("text/html", page("<p>"+numberedWords("s", MaxLeadWords)+"</p>"))
	assert.Len(t, strings.Fields(short), MaxLeadWords)
}

func TestPlainTextAndTitle(t *testing.T) {
	content := []byte(`<html><head><title> Paris </title></head><body>
		<nav>menu</nav><h1>Paris</h1><p>Capital of France.</p><h2>Geography</h2><p>On the Seine.</p></body></html>`)

	assert.Equal(t, "Capital of France.\nGeography\nOn the Seine.", PlainText("text/html", content))
	assert.Equal(t, "Paris", DocumentTitle(content))
	assert.Equal(t, "Heading", DocumentTitle([]byte("<h1>Heading</h1><p>x</p>")))
	assert.Equal(t, "raw text", PlainText("text/plain", []byte("raw text")))
}
