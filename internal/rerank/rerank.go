// Package rerank scores candidate pages against a query using embeddings of
// each page's title and lead paragraph.
package rerank

import (
	"context"
	"log/slog"
	"sort"

	"github.com/srijanshukla18/wiki-in-a-box/internal/archive"
	"github.com/srijanshukla18/wiki-in-a-box/internal/cache"
	"github.com/srijanshukla18/wiki-in-a-box/internal/chunker"
	"github.com/srijanshukla18/wiki-in-a-box/internal/embedder"
)

// DefaultTopPages is the number of pages kept after re-ranking
const DefaultTopPages = 3

// PageSource fetches archive entries by path
type PageSource interface {
	Entry(ctx context.Context, path string) (*archive.Entry, error)
}

// ScoredPage is a candidate page with its lead similarity
type ScoredPage struct {
	Score float64
	Path  string
	Title string
}

// Option configures a Reranker
type Option func(*Reranker)

// WithTopPages sets how many pages are kept; values below 1 keep one
func WithTopPages(n int) Option {
	return func(r *Reranker) { r.topPages = max(1, n) }
}

// WithLeadCache sets the lead embedding cache
func WithLeadCache(c *cache.LeadCache) Option {
	return func(r *Reranker) { r.leads = c }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reranker) { r.logger = logger }
}

// WithFailureHook is called whenever a per-page failure is absorbed
func WithFailureHook(fn func(stage string, err error)) Option {
	return func(r *Reranker) { r.onFailure = fn }
}

// Reranker scores candidate pages by cosine similarity of the query to
// "title. lead"
type Reranker struct {
	pages     PageSource
	chunker   *chunker.Chunker
	embedder  embedder.Embedder
	leads     *cache.LeadCache
	topPages  int
	logger    *slog.Logger
	onFailure func(stage string, err error)
}

// New creates a Reranker
func New(pages PageSource, ch *chunker.Chunker, emb embedder.Embedder, opts ...Option) *Reranker {
	r := &Reranker{
		pages:    pages,
		chunker:  ch,
		embedder: emb,
		leads:    cache.NewLeadCache(0),
		topPages: DefaultTopPages,
		logger:   slog.Default().With("component", "rerank"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rerank embeds the query and scores the candidate pages
func (r *Reranker) Rerank(ctx context.Context, query string, paths []string) ([]ScoredPage, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	qv, err := embedder.EmbedQuery(ctx, r.embedder, query)
	if err != nil {
		return nil, err
	}
	return r.RerankVector(ctx, qv, paths)
}

// RerankVector scores candidate pages against a unit query vector and
// returns the best TopPages, highest first. Pages that cannot be fetched,
// have no lead, or fail to embed are skipped. Only context errors are
// returned.
func (r *Reranker) RerankVector(ctx context.Context, qv []float32, paths []string) ([]ScoredPage, error) {
	type pending struct {
		path  string
		title string
		text  string
	}

	var scored []ScoredPage
	var misses []pending

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if lead, ok := r.leads.Get(path); ok {
			scored = append(scored, ScoredPage{Score: embedder.Dot(qv, lead.Vector), Path: path, Title: lead.Title})
			continue
		}

		entry, err := r.pages.Entry(ctx, path)
		if err != nil {
			r.failed("fetch", err)
			continue
		}
		lead := r.chunker.ExtractLead(entry.MimeType, entry.Content)
		if lead == "" {
			continue
		}
		title := entry.Title
		if title == "" {
			title = path
		}
		misses = append(misses, pending{path: path, title: title, text: title + ". " + lead})
	}

	if len(misses) > 0 {
		texts := make([]string, len(misses))
		for i, m := range misses {
			texts[i] = m.text
		}
		vecs, err := embedder.EmbedTexts(ctx, r.embedder, texts)
		switch {
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			r.failed("encode", err)
		default:
			for i, m := range misses {
				r.leads.Add(m.path, &cache.LeadEntry{Title: m.title, Vector: vecs[i]})
				scored = append(scored, ScoredPage{Score: embedder.Dot(qv, vecs[i]), Path: m.path, Title: m.title})
			}
		}
	}

	// Restore candidate order before the stable sort so ties keep it
	order := make(map[string]int, len(paths))
	for i, p := range paths {
		if _, ok := order[p]; !ok {
			order[p] = i
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return order[scored[i].Path] < order[scored[j].Path] })
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if len(scored) > r.topPages {
		scored = scored[:r.topPages]
	}
	return scored, nil
}

func (r *Reranker) failed(stage string, err error) {
	r.logger.Debug("page skipped", "stage", stage, "err", err)
	if r.onFailure != nil {
		r.onFailure(stage, err)
	}
}
