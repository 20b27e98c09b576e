// Package indexer builds an archive from a directory of HTML and plain-text
// files.
//
// Files are parsed concurrently and written in batched transactions:
//
//	w, err := archive.Create("wiki.sqlite")
//	if err != nil {
//	    return err
//	}
//	stats, err := indexer.New().ImportDirectory(ctx, "./pages", w, nil)
//	if err != nil {
//	    return err
//	}
//	err = w.Close()
//
// Each file becomes an entry under the "A/" prefix named after its path
// relative to the root, without extension and with spaces replaced by
// underscores. The title comes from <title>, then the first <h1>, then the
// file name. Re-importing a directory skips paths that already exist.
package indexer
