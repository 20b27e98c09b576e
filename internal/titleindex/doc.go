// Package titleindex builds and queries the offline keyword index over page
// titles.
//
// The index is a standalone SQLite file (titles.sqlite) holding one FTS5
// table, titles(title, path), tokenized with the porter stemmer. It is built
// once per archive by Builder.Build and queried at retrieval time by
// Index.Search with an OR-joined token query.
//
// # Building
//
// Build streams entry metadata out of the archive in id order on one
// goroutine and writes batches of rows in transactions on another. Only
// textual entries with a non-empty title are indexed. Progress is reported as
// (fraction, message) pairs after every batch and once more on completion:
//
//	b := titleindex.NewBuilder()
//	stats, err := b.Build(ctx, arc, "/data/title_index", titleindex.BuildOptions{
//	    Progress: func(frac float64, msg string) { log.Printf("%.1f%% %s", frac*100, msg) },
//	})
//
// The new index is written to a temporary file and renamed into place, so a
// running Index keeps serving the previous file until Reload is called.
//
// # Searching
//
// A missing index file is not an error: Search returns no hits until the
// index has been built.
package titleindex
