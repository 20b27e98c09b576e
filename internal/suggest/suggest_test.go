package suggest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srijanshukla18/wiki-in-a-box/internal/archive"
	"github.com/srijanshukla18/wiki-in-a-box/internal/cache"
	"github.com/srijanshukla18/wiki-in-a-box/internal/titleindex"
)

// mockEngine returns canned suggestions per phrase and records calls
type mockEngine struct {
	results map[string]*archive.SuggestionResult
	fail    map[string]bool
	calls   []string
}

func (m *mockEngine) Suggest(ctx context.Context, phrase string, limit int) (*archive.SuggestionResult, error) {
	m.calls = append(m.calls, phrase)
	if m.fail[phrase] {
		return nil, errors.New("engine down")
	}
	if r, ok := m.results[phrase]; ok {
		return r, nil
	}
	return &archive.SuggestionResult{}, nil
}

// mockTitles returns fixed hits
type mockTitles struct {
	hits    []titleindex.Hit
	err     error
	queries []string
	limits  []int
}

func (m *mockTitles) Search(ctx context.Context, query string, limit int) ([]titleindex.Hit, error) {
	m.queries = append(m.queries, query)
	m.limits = append(m.limits, limit)
	return m.hits, m.err
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "causes of the french revolution", Normalize("  Causes   of the\tFrench Revolution "))
	assert.Equal(t, "", Normalize("   "))
}

func TestTokens(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"causes of the french revolution", []string{"causes", "french", "revolution"}},
		{"what is an x-ray", []string{"x-ray"}},
		{"who was at it", nil},
		{"ww2 d-day 1944", []string{"d-day"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokens(tt.query))
		})
	}
}

func TestCandidates(t *testing.T) {
	assert.Equal(t,
		[]string{"causes", "french", "revolution", "causes french", "french revolution"},
		Candidates([]string{"causes", "french", "revolution"}))
	assert.Equal(t, []string{"paris"}, Candidates([]string{"paris"}))
	assert.Empty(t, Candidates(nil))
}

func TestSuggest_MergesEngineAndTitleIndex(t *testing.T) {
	engine := &mockEngine{results: map[string]*archive.SuggestionResult{
		"causes":            {Paths: []string{"A/Causality"}, EstimatedMatches: 1},
		"french":            {Paths: []string{"A/France", "A/French_language"}, EstimatedMatches: 2},
		"revolution":        {Paths: []string{"A/Revolution", "A/French_Revolution"}, EstimatedMatches: 2},
		"french revolution": {Paths: []string{"A/French_Revolution", "A/French_Revolutionary_Wars"}, EstimatedMatches: 40},
		"causes french":     {},
	}}
	titles := &mockTitles{hits: []titleindex.Hit{
		{Path: "A/French_Revolution"},
		{Path: "A/Causes_of_the_French_Revolution"},
	}}
	s := New(engine, WithTitleIndex(titles))

	got := s.Suggest(context.Background(), "Causes of the French Revolution")
	assert.Equal(t, []string{
		"A/Causality",
		"A/France", "A/French_language",
		"A/Revolution", "A/French_Revolution",
		"A/French_Revolutionary_Wars",
		"A/Causes_of_the_French_Revolution",
	}, got)

	require.Len(t, titles.queries, 1)
	assert.Equal(t, "causes french revolution", titles.queries[0])
	assert.Equal(t, DefaultLimit, titles.limits[0])
}

func TestSuggest_TakeBoundedByEstimate(t *testing.T) {
	engine := &mockEngine{results: map[string]*archive.SuggestionResult{
		"paris": {Paths: []string{"A/Paris", "A/Paris_Hilton", "A/Paris_Texas"}, EstimatedMatches: 2},
	}}
	got := New(engine).Suggest(context.Background(), "paris")
	assert.Equal(t, []string{"A/Paris", "A/Paris_Hilton"}, got)
}

func TestSuggest_StopsAtLimit(t *testing.T) {
	engine := &mockEngine{results: map[string]*archive.SuggestionResult{
		"alpha": {Paths: []string{"A/1", "A/2"}, EstimatedMatches: 2},
		"beta":  {Paths: []string{"A/2", "A/3", "A/4"}, EstimatedMatches: 3},
		"gamma": {Paths: []string{"A/5"}, EstimatedMatches: 1},
	}}
	titles := &mockTitles{hits: []titleindex.Hit{{Path: "A/9"}, {Path: "A/10"}}}
	s := New(engine, WithLimit(3), WithTitleIndex(titles))

	got := s.Suggest(context.Background(), "alpha beta gamma")
	// Engine contributes up to the limit; title index hits are not capped
	assert.Equal(t, []string{"A/1", "A/2", "A/3", "A/9", "A/10"}, got)
	assert.Equal(t, []string{"alpha", "beta"}, engine.calls)
	assert.Equal(t, minTitleIndexLimit, titles.limits[0])
}

func TestSuggest_FailuresContributeNothing(t *testing.T) {
	engine := &mockEngine{
		results: map[string]*archive.SuggestionResult{"beta": {Paths: []string{"A/B"}, EstimatedMatches: 1}},
		fail:    map[string]bool{"alpha": true},
	}
	titles := &mockTitles{err: errors.New("index corrupt")}

	var failures []string
	s := New(engine, WithTitleIndex(titles), WithFailureHook(func(source string, err error) {
		failures = append(failures, source)
	}))

	got := s.Suggest(context.Background(), "alpha beta")
	assert.Equal(t, []string{"A/B"}, got)
	assert.Equal(t, []string{"engine", "title_index"}, failures)
}

func TestSuggest_NoTokensFallsBackToQuery(t *testing.T) {
	engine := &mockEngine{}
	titles := &mockTitles{}
	got := New(engine, WithTitleIndex(titles)).Suggest(context.Background(), "What  is IT")
	assert.Empty(t, got)
	assert.Empty(t, engine.calls)
	assert.Equal(t, []string{"what is it"}, titles.queries)
}

func TestSuggest_ShortQueryReachesTitleIndex(t *testing.T) {
	engine := &mockEngine{}
	titles := &mockTitles{hits: []titleindex.Hit{{Path: "A/AI", Title: "AI"}}}

	got := New(engine, WithTitleIndex(titles)).Suggest(context.Background(), "AI")
	assert.Equal(t, []string{"A/AI"}, got)
	assert.Equal(t, []string{"ai"}, titles.queries)
	assert.Empty(t, engine.calls)
}

func TestSuggest_BlankQuerySkipsTitleIndex(t *testing.T) {
	titles := &mockTitles{}
	got := New(&mockEngine{}, WithTitleIndex(titles)).Suggest(context.Background(), "   ")
	assert.Empty(t, got)
	assert.Empty(t, titles.queries)
}

func TestSuggest_CachesByNormalizedQuery(t *testing.T) {
	engine := &mockEngine{results: map[string]*archive.SuggestionResult{
		"paris": {Paths: []string{"A/Paris"}, EstimatedMatches: 1},
	}}
	c := cache.NewSuggestionCache(8)
	s := New(engine, WithCache(c))

	first := s.Suggest(context.Background(), "Paris")
	second := s.Suggest(context.Background(), "  paris ")
	assert.Equal(t, first, second)
	assert.Len(t, engine.calls, 1)
	assert.Equal(t, int64(1), c.Stats().Hits)
}

func TestSuggest_DisabledCacheRecomputes(t *testing.T) {
	engine := &mockEngine{results: map[string]*archive.SuggestionResult{
		"paris": {Paths: []string{"A/Paris"}, EstimatedMatches: 1},
	}}
	s := New(engine, WithCache(cache.NewSuggestionCache(0)))
	s.Suggest(context.Background(), "paris")
	s.Suggest(context.Background(), "paris")
	assert.Len(t, engine.calls, 2)
}
