package titleindex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/srijanshukla18/wiki-in-a-box/internal/storage"
)

// Hit is a single title index match
type Hit struct {
	Path  string
	Title string
}

// Index queries a built title index. It is safe for concurrent use.
type Index struct {
	path string

	mu sync.Mutex
	db *sql.DB
}

// Open returns an Index over dir/titles.sqlite. The file does not need to
// exist yet.
func Open(dir string) *Index {
	return &Index{path: filepath.Join(dir, FileName)}
}

// Path returns the index file path
func (idx *Index) Path() string {
	return idx.path
}

// Available reports whether the index file exists
func (idx *Index) Available() bool {
	_, err := os.Stat(idx.path)
	return err == nil
}

// handle lazily opens the index file; nil means there is no index yet
func (idx *Index) handle() (*sql.DB, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.db != nil {
		return idx.db, nil
	}
	db, err := storage.OpenReadOnly(idx.path, 2)
	if errors.Is(err, storage.ErrMissingDatabase) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	idx.db = db
	return db, nil
}

// Search runs an OR query over the title and path columns
func (idx *Index) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	match := storage.SanitizeFTSQuery(query)
	if match == "" || limit <= 0 {
		return nil, nil
	}

	db, err := idx.handle()
	if err != nil || db == nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		"SELECT path, title FROM titles WHERE titles MATCH ? ORDER BY rank LIMIT ?", match, limit)
	if err != nil {
		return nil, fmt.Errorf("title search failed: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.Path, &h.Title); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// Reload drops the open handle so the next search picks up a rebuilt file
func (idx *Index) Reload() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.db == nil {
		return nil
	}
	err := idx.db.Close()
	idx.db = nil
	return err
}

// Close closes the index
func (idx *Index) Close() error {
	return idx.Reload()
}
