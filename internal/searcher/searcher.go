package searcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/srijanshukla18/wiki-in-a-box/internal/archive"
	"github.com/srijanshukla18/wiki-in-a-box/internal/cache"
	"github.com/srijanshukla18/wiki-in-a-box/internal/chunker"
	"github.com/srijanshukla18/wiki-in-a-box/internal/embedder"
	"github.com/srijanshukla18/wiki-in-a-box/internal/rerank"
	"github.com/srijanshukla18/wiki-in-a-box/internal/suggest"
	"github.com/srijanshukla18/wiki-in-a-box/internal/titleindex"
	"github.com/srijanshukla18/wiki-in-a-box/pkg/types"
)

const (
	DefaultMaxArticles      = 20
	DefaultRecallLimit      = 200
	DefaultSimThreshold     = 0.22
	DefaultSecondPassFactor = 2.0
	DefaultTitleSimExit     = 0.28
	DefaultTopK             = 6
	DefaultEmbedLRUSize     = 64
	DefaultSuggestLRUSize   = 128

	// minRecallWanted is the floor on full-text results requested per pass
	minRecallWanted = 200
)

// Config controls the retrieval pipeline
type Config struct {
	ArchivePath   string
	TitleIndexDir string // empty disables the offline title index

	Embedder embedder.Config
	Chunker  chunker.Config

	MaxArticles      int
	RecallLimit      int
	SecondPassEnable bool
	SimThreshold     float64
	SecondPassFactor float64
	SuggestionLimit  int
	TitleSimExit     float64
	TopPages         int
	TopK             int

	// Cache capacities; 0 disables a cache
	EmbedLRUSize   int
	SuggestLRUSize int
}

// DefaultConfig returns the default pipeline settings
func DefaultConfig() Config {
	return Config{
		Chunker:          chunker.DefaultConfig(),
		MaxArticles:      DefaultMaxArticles,
		RecallLimit:      DefaultRecallLimit,
		SecondPassEnable: true,
		SimThreshold:     DefaultSimThreshold,
		SecondPassFactor: DefaultSecondPassFactor,
		SuggestionLimit:  suggest.DefaultLimit,
		TitleSimExit:     DefaultTitleSimExit,
		TopPages:         rerank.DefaultTopPages,
		TopK:             DefaultTopK,
		EmbedLRUSize:     DefaultEmbedLRUSize,
		SuggestLRUSize:   DefaultSuggestLRUSize,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxArticles <= 0 {
		c.MaxArticles = DefaultMaxArticles
	}
	if c.RecallLimit <= 0 {
		c.RecallLimit = DefaultRecallLimit
	}
	if c.SecondPassFactor <= 0 {
		c.SecondPassFactor = DefaultSecondPassFactor
	}
	if c.SuggestionLimit <= 0 {
		c.SuggestionLimit = suggest.DefaultLimit
	}
	c.TopPages = max(1, c.TopPages)
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	c.EmbedLRUSize = max(0, c.EmbedLRUSize)
	c.SuggestLRUSize = max(0, c.SuggestLRUSize)
	return c
}

// Option configures a Searcher
type Option func(*Searcher)

// WithTitleIndex adds the offline title index to the suggestion stage
func WithTitleIndex(idx suggest.TitleSearcher) Option {
	return func(s *Searcher) { s.titles = idx }
}

// WithLogger sets the base logger; components derive scoped loggers from it
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) { s.baseLogger = logger }
}

// CacheStats reports the state of the artifact caches
type CacheStats struct {
	Chunks      cache.Stats `json:"chunks"`
	Leads       cache.Stats `json:"leads"`
	Suggestions cache.Stats `json:"suggestions"`
}

// Searcher runs the hybrid retrieval pipeline: title suggestion, page
// rerank, early exit on a strong title match, otherwise full-text recall
// with an optional widened second pass. It is safe for concurrent use.
type Searcher struct {
	cfg       Config
	archive   archive.Reader
	embedder  embedder.Embedder
	chunker   *chunker.Chunker
	suggester *suggest.Suggester
	reranker  *rerank.Reranker

	chunks      *cache.ChunkCache
	leads       *cache.LeadCache
	suggestions *cache.SuggestionCache

	titles     suggest.TitleSearcher
	titleIndex *titleindex.Index

	pages      singleflight.Group
	stats      counters
	baseLogger *slog.Logger
	logger     *slog.Logger
	closers    []io.Closer
	closeOnce  sync.Once
	closeErr   error
}

// Open opens the archive, title index and encoder named by cfg. A missing
// archive or an unusable encoder configuration fails with
// types.ErrConfiguration.
func Open(cfg Config, opts ...Option) (*Searcher, error) {
	if cfg.ArchivePath == "" {
		return nil, fmt.Errorf("%w: archive path not set", types.ErrConfiguration)
	}

	arc, err := archive.Open(cfg.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	emb, err := embedder.New(cfg.Embedder)
	if err != nil {
		_ = arc.Close()
		return nil, fmt.Errorf("%w: %v", types.ErrConfiguration, err)
	}

	var titles *titleindex.Index
	if cfg.TitleIndexDir != "" {
		titles = titleindex.Open(cfg.TitleIndexDir)
		opts = append([]Option{WithTitleIndex(titles)}, opts...)
	}

	s := New(arc, emb, cfg, opts...)
	s.titleIndex = titles
	if titles != nil {
		s.closers = append(s.closers, titles)
	}
	s.closers = append(s.closers, emb, arc)
	return s, nil
}

// New builds a Searcher over already opened collaborators
func New(arc archive.Reader, emb embedder.Embedder, cfg Config, opts ...Option) *Searcher {
	cfg = cfg.withDefaults()
	s := &Searcher{
		cfg:        cfg,
		archive:    arc,
		embedder:   emb,
		chunker:    chunker.New(cfg.Chunker),
		baseLogger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.baseLogger.With("component", "searcher")
	s.cfg.Chunker = s.chunker.Config()

	s.chunks = cache.NewChunkCache(cfg.EmbedLRUSize)
	s.leads = cache.NewLeadCache(cfg.EmbedLRUSize)
	s.suggestions = cache.NewSuggestionCache(cfg.SuggestLRUSize)

	failed := func(stage string, _ error) { s.stats.failure(stage) }

	suggestOpts := []suggest.Option{
		suggest.WithLimit(cfg.SuggestionLimit),
		suggest.WithCache(s.suggestions),
		suggest.WithLogger(s.baseLogger.With("component", "suggest")),
		suggest.WithFailureHook(failed),
	}
	if s.titles != nil {
		suggestOpts = append(suggestOpts, suggest.WithTitleIndex(s.titles))
	}
	s.suggester = suggest.New(arc, suggestOpts...)

	s.reranker = rerank.New(arc, s.chunker, emb,
		rerank.WithTopPages(cfg.TopPages),
		rerank.WithLeadCache(s.leads),
		rerank.WithLogger(s.baseLogger.With("component", "rerank")),
		rerank.WithFailureHook(failed),
	)
	return s
}

// Config returns the effective configuration
func (s *Searcher) Config() Config {
	return s.cfg
}

// Embedder returns the query and passage encoder
func (s *Searcher) Embedder() embedder.Embedder {
	return s.embedder
}

// TitleIndex returns the offline title index opened by Open, or nil
func (s *Searcher) TitleIndex() *titleindex.Index {
	return s.titleIndex
}

// ReloadTitleIndex reopens the title index after a rebuild and drops cached
// suggestions, which may predate it
func (s *Searcher) ReloadTitleIndex() error {
	if s.titleIndex == nil {
		return nil
	}
	s.suggestions.Purge()
	return s.titleIndex.Reload()
}

// Stats returns a snapshot of the pipeline counters
func (s *Searcher) Stats() Stats {
	return s.stats.snapshot()
}

// CacheStats returns the artifact cache counters
func (s *Searcher) CacheStats() CacheStats {
	return CacheStats{
		Chunks:      s.chunks.Stats(),
		Leads:       s.leads.Stats(),
		Suggestions: s.suggestions.Stats(),
	}
}

// Close releases the collaborators opened by Open. Later calls return the
// first call's result.
func (s *Searcher) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		for _, c := range s.closers {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

// Search returns up to topK passages for query, best first, with ids
// 0..n-1. A non-positive topK uses the configured default. Collaborator
// failures are absorbed and counted; only context errors are returned.
func (s *Searcher) Search(ctx context.Context, query string, topK int) ([]types.RetrievalItem, error) {
	if topK <= 0 {
		topK = s.cfg.TopK
	}
	s.stats.searches.Add(1)

	if strings.TrimSpace(query) == "" {
		s.stats.emptyResults.Add(1)
		return nil, nil
	}

	qv := s.encodeQuery(ctx, query)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items, ok := s.titleStage(ctx, query, qv, topK)
	if !ok {
		items = s.fulltextStage(ctx, query, qv, topK)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(items) == 0 {
		s.stats.emptyResults.Add(1)
	}
	return items, nil
}

// SearchInPath ranks the chunks of a single page against query, bypassing
// suggestion and recall. A missing page yields an empty result.
func (s *Searcher) SearchInPath(ctx context.Context, path, query string, topK int) ([]types.RetrievalItem, error) {
	if topK <= 0 {
		topK = s.cfg.TopK
	}
	s.stats.pageSearches.Add(1)

	path = strings.TrimLeft(path, "/")
	if path == "" {
		s.stats.emptyResults.Add(1)
		return nil, nil
	}

	pc, err := s.pageChunks(ctx, path)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil || len(pc.Chunks) == 0 {
		s.stats.emptyResults.Add(1)
		return nil, nil
	}

	p := &pool{}
	p.add(pc, len(pc.Chunks))

	var qv []float32
	if strings.TrimSpace(query) != "" {
		qv = s.encodeQuery(ctx, query)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	if _, ok := p.score(qv); !ok {
		s.stats.degenerateRankings.Add(1)
		return p.fallback(topK), nil
	}
	return p.ranked(topK), nil
}

// titleStage suggests and reranks candidate pages, then scores the chunks
// of the top pages. It reports false when the pipeline must fall through to
// full-text recall.
func (s *Searcher) titleStage(ctx context.Context, query string, qv []float32, topK int) ([]types.RetrievalItem, bool) {
	candidates := s.suggester.Suggest(ctx, query)
	if len(candidates) == 0 || qv == nil || ctx.Err() != nil {
		return nil, false
	}

	pages, err := s.reranker.RerankVector(ctx, qv, candidates)
	if err != nil || len(pages) == 0 {
		return nil, false
	}
	s.logger.Debug("page rerank", "query", query, "top", preview(pages))

	paths := make([]string, len(pages))
	for i, p := range pages {
		paths[i] = p.Path
	}
	p := s.gather(ctx, paths)

	best, ok := p.score(qv)
	if !ok {
		return nil, false
	}
	if best < s.cfg.TitleSimExit {
		s.logger.Debug("title match below exit threshold, using full-text",
			"best", best, "threshold", s.cfg.TitleSimExit)
		return nil, false
	}

	s.stats.earlyExits.Add(1)
	s.logger.Info("early exit on title match", "query", query, "best", best)
	return p.ranked(topK), true
}

// fulltextStage recalls pages with the archive's full-text search and ranks
// their chunks. Weak evidence triggers one widened pass whose results
// replace the first.
func (s *Searcher) fulltextStage(ctx context.Context, query string, qv []float32, topK int) []types.RetrievalItem {
	wanted := max(minRecallWanted, s.cfg.MaxArticles*10)
	limit := s.cfg.RecallLimit

	p := s.fulltextPass(ctx, query, wanted, limit)
	if len(p.chunks) == 0 {
		return nil
	}

	best, ok := p.score(qv)
	if !ok {
		s.stats.degenerateRankings.Add(1)
		s.logger.Warn("ranking unavailable, returning chunks in extraction order", "query", query)
		return p.fallback(topK)
	}

	if s.cfg.SecondPassEnable && best < s.cfg.SimThreshold {
		s.stats.secondPasses.Add(1)
		wanted = int(float64(wanted) * s.cfg.SecondPassFactor)
		limit = int(float64(limit) * s.cfg.SecondPassFactor)
		s.logger.Info("widening recall", "query", query, "best", best, "wanted", wanted, "limit", limit)

		p = s.fulltextPass(ctx, query, wanted, limit)
		if len(p.chunks) == 0 {
			return nil
		}
		if _, ok := p.score(qv); !ok {
			s.stats.degenerateRankings.Add(1)
			return p.fallback(topK)
		}
	}

	return p.ranked(topK)
}

func (s *Searcher) fulltextPass(ctx context.Context, query string, wanted, limit int) *pool {
	s.stats.fulltextPasses.Add(1)
	return s.gather(ctx, s.recall(ctx, query, wanted, limit))
}

// recall returns up to limit distinct paths from the first wanted full-text
// results, in result order
func (s *Searcher) recall(ctx context.Context, query string, wanted, limit int) []string {
	results, err := s.archive.Search(ctx, query, 0, wanted)
	if err != nil {
		if ctx.Err() == nil {
			s.stats.recallFailures.Add(1)
			s.logger.Warn("full-text search failed", "query", query, "err", err)
		}
		return nil
	}

	seen := make(map[string]bool, len(results))
	paths := make([]string, 0, min(len(results), limit))
	for _, p := range results {
		if len(paths) >= limit {
			break
		}
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	return paths
}

// gather accumulates chunks from paths in order until MaxChunks
func (s *Searcher) gather(ctx context.Context, paths []string) *pool {
	limit := s.cfg.Chunker.MaxChunks
	p := &pool{}
	for _, path := range paths {
		if len(p.chunks) >= limit || ctx.Err() != nil {
			break
		}
		pc, err := s.pageChunks(ctx, path)
		if err != nil || len(pc.Chunks) == 0 {
			continue
		}
		p.add(pc, min(len(pc.Chunks), limit-len(p.chunks)))
	}
	return p
}

// pageChunks returns a page's chunks and embeddings, deriving them at most
// once per path across concurrent requests
func (s *Searcher) pageChunks(ctx context.Context, path string) (*cache.PageChunks, error) {
	if pc, ok := s.chunks.Get(path); ok {
		return pc, nil
	}
	// The derivation is shared by every caller waiting on path, so one
	// caller's cancellation must not fail the others
	ch := s.pages.DoChan(path, func() (interface{}, error) {
		if pc, ok := s.chunks.Get(path); ok {
			return pc, nil
		}
		return s.derivePage(context.WithoutCancel(ctx), path)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*cache.PageChunks), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// derivePage fetches, chunks and embeds a page. A page whose chunks could
// not be encoded is returned without vectors and is not cached.
func (s *Searcher) derivePage(ctx context.Context, path string) (*cache.PageChunks, error) {
	entry, err := s.archive.Entry(ctx, path)
	if err != nil {
		if ctx.Err() == nil {
			s.stats.fetchFailures.Add(1)
			s.logger.Debug("page fetch failed", "path", path, "err", err)
		}
		return nil, err
	}

	pc := &cache.PageChunks{
		Chunks: s.chunker.ExtractChunks(entry.Title, entry.Path, entry.MimeType, entry.Content),
	}
	if len(pc.Chunks) == 0 {
		s.chunks.Add(path, pc)
		return pc, nil
	}

	texts := make([]string, len(pc.Chunks))
	for i, c := range pc.Chunks {
		texts[i] = c.Text
	}
	vecs, err := embedder.EmbedTexts(ctx, s.embedder, texts)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.stats.encodeFailures.Add(1)
		s.logger.Warn("chunk encoding failed", "path", path, "err", err)
		return pc, nil
	}

	pc.Vectors = vecs
	s.chunks.Add(path, pc)
	return pc, nil
}

// encodeQuery embeds the query once per request; nil means unavailable
func (s *Searcher) encodeQuery(ctx context.Context, query string) []float32 {
	qv, err := embedder.EmbedQuery(ctx, s.embedder, query)
	if err != nil {
		if ctx.Err() == nil {
			s.stats.encodeFailures.Add(1)
			s.logger.Warn("query encoding failed", "err", err)
		}
		return nil
	}
	return qv
}

func preview(pages []rerank.ScoredPage) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = fmt.Sprintf("%s (%.3f)", p.Title, p.Score)
	}
	return out
}
