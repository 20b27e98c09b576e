package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/srijanshukla18/wiki-in-a-box/internal/archive"
	"github.com/srijanshukla18/wiki-in-a-box/internal/chunker"
)

// DefaultBatchSize is the number of documents committed per transaction
const DefaultBatchSize = 200

// DefaultPrefix is the archive namespace for imported articles
const DefaultPrefix = "A/"

// DocumentWriter persists documents, returning how many were newly written
type DocumentWriter interface {
	AddBatch(ctx context.Context, docs []archive.Document) (int, error)
}

// Config contains configuration for an import
type Config struct {
	Workers   int    // Number of concurrent parsers (default: runtime.NumCPU())
	BatchSize int    // Documents per transaction (default: 200)
	Prefix    string // Archive path prefix (default: "A/")
}

// Statistics contains statistics about the import
type Statistics struct {
	FilesImported int
	FilesSkipped  int
	FilesFailed   int
	Duration      time.Duration
	ErrorMessages []string
}

// Indexer imports a directory of HTML and text files into an archive
type Indexer struct {
	workers int
	logger  *slog.Logger
}

// New creates a new Indexer instance
func New() *Indexer {
	return &Indexer{
		workers: runtime.NumCPU(),
		logger:  slog.Default().With("component", "indexer"),
	}
}

// ImportDirectory parses every .html, .htm and .txt file under rootPath and
// writes it to w. Paths already in the archive and files without text are
// skipped; unreadable files are counted as failed and do not stop the run.
func (idx *Indexer) ImportDirectory(ctx context.Context, rootPath string, w DocumentWriter, config *Config) (*Statistics, error) {
	if config == nil {
		config = &Config{}
	}
	workers := config.Workers
	if workers <= 0 {
		workers = idx.workers
	}
	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	prefix := config.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}

	startTime := time.Now()
	files, err := discoverFiles(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stats := &Statistics{ErrorMessages: make([]string, 0)}
	var (
		imported int32
		skipped  int32
		failed   int32
		mu       sync.Mutex // Protect stats.ErrorMessages
	)

	g, gctx := errgroup.WithContext(ctx)
	docs := make(chan archive.Document, batchSize)

	// Parsers: bounded by a semaphore
	g.Go(func() error {
		defer close(docs)
		semaphore := make(chan struct{}, workers)
		pg, pctx := errgroup.WithContext(gctx)

		for _, file := range files {
			select {
			case <-pctx.Done():
				_ = pg.Wait()
				return pctx.Err()
			case semaphore <- struct{}{}:
			}

			pg.Go(func() error {
				defer func() { <-semaphore }()

				doc, err := readDocument(rootPath, file, prefix)
				if err != nil {
					atomic.AddInt32(&failed, 1)
					mu.Lock()
					stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", file, err))
					mu.Unlock()
					return nil
				}
				if doc == nil {
					atomic.AddInt32(&skipped, 1)
					return nil
				}

				select {
				case docs <- *doc:
					return nil
				case <-pctx.Done():
					return pctx.Err()
				}
			})
		}
		return pg.Wait()
	})

	// Writer: one transaction per batch
	g.Go(func() error {
		batch := make([]archive.Document, 0, batchSize)
		flush := func() error {
			if len(batch) == 0 {
				return nil
			}
			n, err := w.AddBatch(gctx, batch)
			if err != nil {
				return fmt.Errorf("failed to write batch: %w", err)
			}
			atomic.AddInt32(&imported, int32(n))
			atomic.AddInt32(&skipped, int32(len(batch)-n))
			idx.logger.Debug("batch written", "documents", n, "total", atomic.LoadInt32(&imported))
			batch = batch[:0]
			return nil
		}

		for doc := range docs {
			batch = append(batch, doc)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
		return flush()
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.FilesImported = int(imported)
	stats.FilesSkipped = int(skipped)
	stats.FilesFailed = int(failed)
	stats.Duration = time.Since(startTime)

	idx.logger.Info("import complete",
		"root", rootPath,
		"imported", stats.FilesImported,
		"skipped", stats.FilesSkipped,
		"failed", stats.FilesFailed,
		"duration", stats.Duration)
	return stats, nil
}

// discoverFiles finds importable files, skipping hidden directories
func discoverFiles(rootPath string) ([]string, error) {
	info, err := os.Stat(rootPath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", rootPath)
	}

	var files []string
	err = filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path != rootPath && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if mimeTypeFor(path) != "" {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

// readDocument loads a file as an archive document; nil means the file has
// no text worth indexing
func readDocument(rootPath, filePath, prefix string) (*archive.Document, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	mimetype := mimeTypeFor(filePath)
	body := chunker.PlainText(mimetype, content)
	if strings.TrimSpace(body) == "" {
		return nil, nil
	}

	relPath, err := filepath.Rel(rootPath, filePath)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.ToSlash(relPath), filepath.Ext(relPath))
	name = strings.ReplaceAll(name, " ", "_")

	var title string
	if mimetype == "text/html" {
		title = chunker.DocumentTitle(content)
	}
	if title == "" {
		title = strings.ReplaceAll(filepath.Base(name), "_", " ")
	}

	return &archive.Document{
		Path:     prefix + name,
		Title:    title,
		MimeType: mimetype,
		Content:  content,
		Body:     body,
	}, nil
}

func mimeTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return "text/html"
	case ".txt":
		return "text/plain"
	default:
		return ""
	}
}
