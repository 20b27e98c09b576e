package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/srijanshukla18/wiki-in-a-box/internal/searcher"
	"github.com/srijanshukla18/wiki-in-a-box/pkg/types"
)

type searchOutput struct {
	Query     string                `json:"query"`
	Path      string                `json:"path,omitempty"`
	Results   []types.RetrievalItem `json:"results"`
	Context   string                `json:"context,omitempty"`
	Citations []searcher.Citation   `json:"citations,omitempty"`
}

func newSearchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Rank passages for a query and print them as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSearch(cmd, strings.Join(args, " "))
		},
	}

	cmd.Flags().String("path", "", "search within a single page instead of the whole archive")
	cmd.Flags().Int("top-k", 0, "number of passages to return (default TOP_K)")
	cmd.Flags().Bool("context", false, "include a packed context block with citations")

	return cmd
}

func (a *app) runSearch(cmd *cobra.Command, query string) error {
	path, _ := cmd.Flags().GetString("path")
	topK, _ := cmd.Flags().GetInt("top-k")
	withContext, _ := cmd.Flags().GetBool("context")

	s, err := searcher.Open(a.cfg.Searcher(), searcher.WithLogger(slog.Default()))
	if err != nil {
		return fmt.Errorf("opening retriever: %w", err)
	}
	defer func() { _ = s.Close() }()

	var results []types.RetrievalItem
	if path != "" {
		results, err = s.SearchInPath(cmd.Context(), path, query, topK)
	} else {
		results, err = s.Search(cmd.Context(), query, topK)
	}
	if err != nil {
		return err
	}

	out := searchOutput{Query: query, Path: path, Results: nonNil(results)}
	if withContext {
		out.Context, out.Citations = searcher.PackContext(results, a.cfg.MaxContextTokens, a.cfg.PublicBaseURL)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func nonNil(items []types.RetrievalItem) []types.RetrievalItem {
	if items == nil {
		return []types.RetrievalItem{}
	}
	return items
}
