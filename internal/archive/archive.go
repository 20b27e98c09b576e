package archive

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/srijanshukla18/wiki-in-a-box/internal/storage"
	"github.com/srijanshukla18/wiki-in-a-box/pkg/types"
)

// readConns bounds concurrent read connections
const readConns = 4

// ErrNotFound is returned when a path does not resolve to an entry
var ErrNotFound = types.ErrNotFound

// Entry is a single archive item addressed by path
type Entry struct {
	ID       int64
	Path     string
	Title    string
	MimeType string
	Content  []byte
}

// EntryInfo is entry metadata without content, used when iterating
type EntryInfo struct {
	ID       int64
	Path     string
	Title    string
	MimeType string
}

// SuggestionResult is the outcome of a title suggestion lookup
type SuggestionResult struct {
	Paths            []string
	EstimatedMatches int
}

// Reader is the read access the retrieval pipeline needs from an archive
type Reader interface {
	// Entry fetches an entry by path; wraps ErrNotFound when absent
	Entry(ctx context.Context, path string) (*Entry, error)

	// Search runs the native full-text search and returns ranked paths
	Search(ctx context.Context, query string, offset, limit int) ([]string, error)

	// Suggest returns title suggestions for a phrase
	Suggest(ctx context.Context, phrase string, limit int) (*SuggestionResult, error)
}

// Lister iterates over archive entries in id order
type Lister interface {
	Count(ctx context.Context) (int, error)
	List(ctx context.Context, afterID int64, limit int) ([]EntryInfo, error)
}

// Archive is a read-only SQLite-backed document archive
type Archive struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens an existing archive read-only. A missing file is a
// configuration error.
func Open(path string) (*Archive, error) {
	a := &Archive{
		path:   path,
		logger: slog.Default().With("component", "archive"),
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: archive %s: %v", types.ErrConfiguration, path, err)
	}

	db, err := storage.OpenReadOnly(path, readConns)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrConfiguration, err)
	}

	version, err := storage.SchemaVersion(context.Background(), db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", types.ErrConfiguration, err)
	}
	if version.LessThan(semver.MustParse(CurrentSchemaVersion)) {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %s is not an archive (schema %s)", types.ErrConfiguration, path, version)
	}

	a.db = db
	a.logger.Debug("archive opened", "path", path, "schema", version.String())
	return a, nil
}

// Close closes the archive
func (a *Archive) Close() error {
	return a.db.Close()
}

// Entry fetches an entry by path. A leading "/" is ignored.
func (a *Archive) Entry(ctx context.Context, path string) (*Entry, error) {
	path = strings.TrimLeft(path, "/")

	e := &Entry{}
	err := a.db.QueryRowContext(ctx,
		"SELECT id, path, title, mimetype, content FROM entries WHERE path = ?", path,
	).Scan(&e.ID, &e.Path, &e.Title, &e.MimeType, &e.Content)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read entry %s: %w", path, err)
	}
	return e, nil
}

// Search runs a BM25-ranked full-text query over titles and bodies
func (a *Archive) Search(ctx context.Context, query string, offset, limit int) ([]string, error) {
	match := storage.SanitizeFTSQuery(query)
	if match == "" || limit <= 0 {
		return nil, nil
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT e.path
		FROM entries_fts
		JOIN entries e ON e.id = entries_fts.rowid
		WHERE entries_fts MATCH ?
		ORDER BY bm25(entries_fts, 5.0, 1.0)
		LIMIT ? OFFSET ?`, match, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("full-text search failed: %w", err)
	}
	defer rows.Close()

	return scanPaths(rows)
}

// Suggest matches the phrase against entry titles, treating the last word as
// a prefix. EstimatedMatches counts every matching title, not just the
// returned page.
func (a *Archive) Suggest(ctx context.Context, phrase string, limit int) (*SuggestionResult, error) {
	match := storage.MatchPrefix(storage.Terms(phrase))
	if match == "" || limit <= 0 {
		return &SuggestionResult{}, nil
	}

	result := &SuggestionResult{}
	err := a.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM entries_title_fts WHERE entries_title_fts MATCH ?", match,
	).Scan(&result.EstimatedMatches)
	if err != nil {
		return nil, fmt.Errorf("suggestion count failed: %w", err)
	}
	if result.EstimatedMatches == 0 {
		return result, nil
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT e.path
		FROM entries_title_fts
		JOIN entries e ON e.id = entries_title_fts.rowid
		WHERE entries_title_fts MATCH ?
		  AND (e.mimetype LIKE 'text/%' OR e.mimetype LIKE '%html%')
		ORDER BY bm25(entries_title_fts), length(e.title)
		LIMIT ?`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("suggestion search failed: %w", err)
	}
	defer rows.Close()

	result.Paths, err = scanPaths(rows)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Count returns the number of entries in the archive
func (a *Archive) Count(ctx context.Context) (int, error) {
	var n int
	if err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entries").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return n, nil
}

// List returns up to limit entries with id greater than afterID, in id order
func (a *Archive) List(ctx context.Context, afterID int64, limit int) ([]EntryInfo, error) {
	rows, err := a.db.QueryContext(ctx,
		"SELECT id, path, title, mimetype FROM entries WHERE id > ? ORDER BY id LIMIT ?", afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var out []EntryInfo
	for rows.Next() {
		var info EntryInfo
		if err := rows.Scan(&info.ID, &info.Path, &info.Title, &info.MimeType); err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

func scanPaths(rows *sql.Rows) ([]string, error) {
	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}
