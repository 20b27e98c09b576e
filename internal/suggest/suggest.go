// Package suggest derives candidate pages for a query from title matches.
//
// The query is normalized, tokenized and filtered of stopwords; unigrams,
// bigrams and the final token are sent to the archive's suggestion engine,
// and the tokens are OR-joined against the offline title index (the whole
// normalized query when no token survives). The merged,
// deduplicated path list is cached by normalized query.
package suggest

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/srijanshukla18/wiki-in-a-box/internal/archive"
	"github.com/srijanshukla18/wiki-in-a-box/internal/cache"
	"github.com/srijanshukla18/wiki-in-a-box/internal/titleindex"
)

// DefaultLimit caps the candidates taken from the suggestion engine
const DefaultLimit = 20

// minTitleIndexLimit is the floor for the title index query limit
const minTitleIndexLimit = 10

var tokenPattern = regexp.MustCompile(`[A-Za-z][A-Za-z\-]+`)

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "of": true,
	"to": true, "for": true, "with": true, "in": true, "on": true, "by": true,
	"at": true, "is": true, "are": true, "was": true, "were": true, "be": true,
	"been": true, "being": true, "what": true, "why": true, "how": true,
	"who": true, "when": true, "where": true, "which": true, "that": true,
	"this": true, "these": true, "those": true,
}

// Engine is the archive's title suggestion primitive
type Engine interface {
	Suggest(ctx context.Context, phrase string, limit int) (*archive.SuggestionResult, error)
}

// TitleSearcher is the offline title index; Search OR-joins the query terms
type TitleSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]titleindex.Hit, error)
}

// Option configures a Suggester
type Option func(*Suggester)

// WithTitleIndex adds the offline title index as a second candidate source
func WithTitleIndex(idx TitleSearcher) Option {
	return func(s *Suggester) { s.titles = idx }
}

// WithLimit sets the suggestion limit
func WithLimit(limit int) Option {
	return func(s *Suggester) {
		if limit > 0 {
			s.limit = limit
		}
	}
}

// WithCache sets the suggestion cache
func WithCache(c *cache.SuggestionCache) Option {
	return func(s *Suggester) { s.cache = c }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Suggester) { s.logger = logger }
}

// WithFailureHook is called whenever a collaborator failure is absorbed
func WithFailureHook(fn func(source string, err error)) Option {
	return func(s *Suggester) { s.onFailure = fn }
}

// Suggester turns queries into ordered candidate page paths
type Suggester struct {
	engine    Engine
	titles    TitleSearcher
	limit     int
	cache     *cache.SuggestionCache
	logger    *slog.Logger
	onFailure func(source string, err error)
}

// New creates a Suggester over the archive's suggestion engine
func New(engine Engine, opts ...Option) *Suggester {
	s := &Suggester{
		engine: engine,
		limit:  DefaultLimit,
		cache:  cache.NewSuggestionCache(0),
		logger: slog.Default().With("component", "suggest"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Normalize collapses whitespace, trims and lowercases a query
func Normalize(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

// Tokens extracts content words from a normalized query: letter runs of at
// least three characters that are not stopwords
func Tokens(normalized string) []string {
	var out []string
	for _, tok := range tokenPattern.FindAllString(normalized, -1) {
		if len(tok) < 3 || stopwords[tok] {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// Candidates builds the ordered phrase list: unigrams, adjacent bigrams,
// then the last token when it is not already present
func Candidates(tokens []string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, t := range tokens {
		add(t)
	}
	for i := 0; i+1 < len(tokens); i++ {
		add(tokens[i] + " " + tokens[i+1])
	}
	if len(tokens) > 0 {
		add(tokens[len(tokens)-1])
	}
	return out
}

// Suggest returns candidate page paths for a query, possibly empty. Engine
// results are capped at the limit; title index hits are appended after them
// without the cap. Collaborator failures contribute nothing.
func (s *Suggester) Suggest(ctx context.Context, query string) []string {
	key := Normalize(query)
	if cached, ok := s.cache.Get(key); ok {
		return cached
	}

	tokens := Tokens(key)
	var paths []string
	seen := make(map[string]bool)
	add := func(p string) {
		if p != "" && !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, phrase := range Candidates(tokens) {
		if len(paths) >= s.limit || ctx.Err() != nil {
			break
		}
		res, err := s.engine.Suggest(ctx, phrase, s.limit)
		if err != nil {
			s.failed("engine", err)
			continue
		}
		take := min(s.limit, res.EstimatedMatches, len(res.Paths))
		for _, p := range res.Paths[:take] {
			if len(paths) >= s.limit {
				break
			}
			add(p)
		}
	}

	// Short queries such as "AI" have no content tokens; search the title
	// index with the whole normalized query instead
	titleQuery := strings.Join(tokens, " ")
	if titleQuery == "" {
		titleQuery = key
	}
	if s.titles != nil && titleQuery != "" && ctx.Err() == nil {
		hits, err := s.titles.Search(ctx, titleQuery, max(minTitleIndexLimit, s.limit))
		if err != nil {
			s.failed("title_index", err)
		}
		for _, h := range hits {
			add(h.Path)
		}
	}

	if ctx.Err() == nil {
		s.cache.Add(key, paths)
	}
	s.logger.Debug("title suggestions", "query", key, "candidates", len(paths))
	return paths
}

func (s *Suggester) failed(source string, err error) {
	s.logger.Debug("suggestion source failed", "source", source, "err", err)
	if s.onFailure != nil {
		s.onFailure(source, err)
	}
}
