package chunker

import (
	"strings"

	"github.com/srijanshukla18/wiki-in-a-box/pkg/types"
)

const (
	// DefaultChunkTokens is the window size in words
	DefaultChunkTokens = 160

	// DefaultChunkOverlap is the number of words shared by adjacent windows
	DefaultChunkOverlap = 20

	// DefaultMaxChunks caps the chunks extracted from one page
	DefaultMaxChunks = 120

	// MaxLeadWords caps the lead text handed to the encoder. Sentence
	// encoders truncate input at a few hundred word pieces, so words past
	// this never reach the lead vector and only cost encode time.
	MaxLeadWords = 512
)

// Config controls chunk sizing
type Config struct {
	ChunkTokens  int
	ChunkOverlap int
	MaxChunks    int
}

// DefaultConfig returns the default chunk sizing
func DefaultConfig() Config {
	return Config{
		ChunkTokens:  DefaultChunkTokens,
		ChunkOverlap: DefaultChunkOverlap,
		MaxChunks:    DefaultMaxChunks,
	}
}

// Chunker extracts section-scoped chunks from archive pages
type Chunker struct {
	cfg Config
}

// New creates a Chunker. Non-positive sizes fall back to defaults, and an
// overlap that would stall the window is reduced to a quarter of the window.
func New(cfg Config) *Chunker {
	if cfg.ChunkTokens <= 0 {
		cfg.ChunkTokens = DefaultChunkTokens
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = 0
	}
	if cfg.ChunkOverlap >= cfg.ChunkTokens {
		cfg.ChunkOverlap = cfg.ChunkTokens / 4
	}
	if cfg.MaxChunks <= 0 {
		cfg.MaxChunks = DefaultMaxChunks
	}
	return &Chunker{cfg: cfg}
}

// Config returns the effective configuration
func (c *Chunker) Config() Config {
	return c.cfg
}

// section is an ordered run of text under one heading
type section struct {
	title string
	words []string
}

// ExtractChunks segments a page into chunks. Non-textual mimetypes and pages
// without body text yield nil. The page title falls back to the path.
func (c *Chunker) ExtractChunks(title, path, mimetype string, content []byte) []types.Chunk {
	if !types.IsTextMimeType(mimetype) || len(content) == 0 {
		return nil
	}
	if title == "" {
		title = path
	}
	url := types.URLFor(path)

	var chunks []types.Chunk
	for _, sec := range sections(mimetype, content) {
		heading := types.HeadingFor(title, sec.title)
		for _, w := range c.windows(sec.words) {
			chunks = append(chunks, types.Chunk{
				Heading: heading,
				URL:     url,
				Snippet: types.Snippet(w, types.SnippetWords),
				Text:    strings.Join(w, " "),
			})
			if len(chunks) >= c.cfg.MaxChunks {
				return chunks
			}
		}
	}
	return chunks
}

// ExtractLead returns the text preceding the first subheading, or "" for
// non-textual pages
func (c *Chunker) ExtractLead(mimetype string, content []byte) string {
	if !types.IsTextMimeType(mimetype) || len(content) == 0 {
		return ""
	}

	var words []string
	if isPlainText(mimetype) {
		words = strings.Fields(string(content))
	} else {
		doc, err := parseDocument(content)
		if err != nil {
			return ""
		}
		walkBlocks(doc, func(kind blockKind, text string) bool {
			if kind == blockHeading {
				return false
			}
			words = append(words, strings.Fields(text)...)
			return len(words) < MaxLeadWords
		})
	}

	if len(words) > MaxLeadWords {
		words = words[:MaxLeadWords]
	}
	return strings.Join(words, " ")
}

// windows splits words into one chunk, or overlapping windows when the
// section is longer than twice the window size
func (c *Chunker) windows(words []string) [][]string {
	n := len(words)
	if n == 0 {
		return nil
	}
	size := c.cfg.ChunkTokens
	if n <= 2*size {
		return [][]string{words}
	}

	var out [][]string
	start := 0
	for {
		end := min(n, start+size)
		out = append(out, words[start:end])
		if end == n {
			break
		}
		start = max(0, end-c.cfg.ChunkOverlap)
	}
	return out
}

// sections returns the non-empty sections of a page in document order
func sections(mimetype string, content []byte) []section {
	if isPlainText(mimetype) {
		words := strings.Fields(string(content))
		if len(words) == 0 {
			return nil
		}
		return []section{{title: types.LeadSection, words: words}}
	}

	doc, err := parseDocument(content)
	if err != nil {
		return nil
	}

	var out []section
	current := section{title: types.LeadSection}
	walkBlocks(doc, func(kind blockKind, text string) bool {
		switch kind {
		case blockHeading:
			if len(current.words) > 0 {
				out = append(out, current)
			}
			title := text
			if title == "" {
				title = current.title
			}
			current = section{title: title}
		case blockText:
			current.words = append(current.words, strings.Fields(text)...)
		}
		return true
	})
	if len(current.words) > 0 {
		out = append(out, current)
	}
	return out
}

func isPlainText(mimetype string) bool {
	return strings.HasPrefix(strings.ToLower(mimetype), "text/plain")
}
