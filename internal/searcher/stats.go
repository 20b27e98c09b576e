package searcher

import "sync/atomic"

// Stats is a point-in-time snapshot of pipeline counters
type Stats struct {
	Searches           int64 `json:"searches"`
	PageSearches       int64 `json:"page_searches"`
	EmptyResults       int64 `json:"empty_results"`
	EarlyExits         int64 `json:"early_exits"`
	FulltextPasses     int64 `json:"fulltext_passes"`
	SecondPasses       int64 `json:"second_passes"`
	DegenerateRankings int64 `json:"degenerate_rankings"`
	SuggestFailures    int64 `json:"suggest_failures"`
	FetchFailures      int64 `json:"fetch_failures"`
	RecallFailures     int64 `json:"recall_failures"`
	EncodeFailures     int64 `json:"encode_failures"`
}

type counters struct {
	searches           atomic.Int64
	pageSearches       atomic.Int64
	emptyResults       atomic.Int64
	earlyExits         atomic.Int64
	fulltextPasses     atomic.Int64
	secondPasses       atomic.Int64
	degenerateRankings atomic.Int64
	suggestFailures    atomic.Int64
	fetchFailures      atomic.Int64
	recallFailures     atomic.Int64
	encodeFailures     atomic.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Searches:           c.searches.Load(),
		PageSearches:       c.pageSearches.Load(),
		EmptyResults:       c.emptyResults.Load(),
		EarlyExits:         c.earlyExits.Load(),
		FulltextPasses:     c.fulltextPasses.Load(),
		SecondPasses:       c.secondPasses.Load(),
		DegenerateRankings: c.degenerateRankings.Load(),
		SuggestFailures:    c.suggestFailures.Load(),
		FetchFailures:      c.fetchFailures.Load(),
		RecallFailures:     c.recallFailures.Load(),
		EncodeFailures:     c.encodeFailures.Load(),
	}
}

// stage failure hook shared by the suggester and reranker
func (c *counters) failure(stage string) {
	switch stage {
	case "engine", "title_index":
		c.suggestFailures.Add(1)
	case "fetch":
		c.fetchFailures.Add(1)
	case "encode":
		c.encodeFailures.Add(1)
	}
}
