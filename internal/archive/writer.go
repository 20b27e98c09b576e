package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/srijanshukla18/wiki-in-a-box/internal/storage"
)

// Document is an entry to be written, with the plain text that feeds the
// full-text index
type Document struct {
	Path     string
	Title    string
	MimeType string
	Content  []byte
	Body     string
}

// Writer builds an archive file. Archives are immutable once handed to the
// retriever, so the writer is only used by import tooling and tests.
type Writer struct {
	db *sql.DB
}

// Create opens (or creates) an archive file for writing
func Create(path string) (*Writer, error) {
	db, err := storage.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	if err := storage.ApplyMigrations(context.Background(), db, migrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &Writer{db: db}, nil
}

// Close finalizes the archive as a single self-contained file and closes it
func (w *Writer) Close() error {
	if _, err := w.db.Exec("PRAGMA journal_mode=DELETE"); err != nil {
		_ = w.db.Close()
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return w.db.Close()
}

// AddBatch writes documents in one transaction. Paths already present are
// skipped; the number of newly written entries is returned.
func (w *Writer) AddBatch(ctx context.Context, docs []Document) (int, error) {
	written := 0
	err := storage.WithTx(ctx, w.db, func(q storage.Querier) error {
		for i := range docs {
			ok, err := addDocument(ctx, q, &docs[i])
			if err != nil {
				return err
			}
			if ok {
				written++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

func addDocument(ctx context.Context, q storage.Querier, doc *Document) (bool, error) {
	path := strings.TrimLeft(doc.Path, "/")
	if path == "" {
		return false, errors.New("document path cannot be empty")
	}
	if doc.MimeType == "" {
		return false, fmt.Errorf("document %s: mimetype cannot be empty", path)
	}

	content := doc.Content
	if content == nil {
		content = []byte{}
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO entries (path, title, mimetype, content)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO NOTHING`, path, doc.Title, doc.MimeType, content)
	if err != nil {
		return false, fmt.Errorf("failed to insert entry %s: %w", path, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	id, err := res.LastInsertId()
	if err != nil {
		return false, err
	}

	if doc.Body != "" || doc.Title != "" {
		_, err = q.ExecContext(ctx,
			"INSERT INTO entries_fts (rowid, title, body) VALUES (?, ?, ?)", id, doc.Title, doc.Body)
		if err != nil {
			return false, fmt.Errorf("failed to index entry %s: %w", path, err)
		}
	}

	return true, nil
}
