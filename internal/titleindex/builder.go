package titleindex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/srijanshukla18/wiki-in-a-box/internal/archive"
	"github.com/srijanshukla18/wiki-in-a-box/internal/storage"
	"github.com/srijanshukla18/wiki-in-a-box/pkg/types"
)

// DefaultBatchSize is the number of rows committed per transaction
const DefaultBatchSize = 1000

// ErrBuildInProgress is returned when another build is already running
var ErrBuildInProgress = errors.New("title index build already in progress")

// ProgressFunc receives build progress as a fraction in [0,1] and a message
type ProgressFunc func(fraction float64, message string)

// BuildOptions configures a title index build
type BuildOptions struct {
	MaxRows   int          // Scan at most this many entries (0 = all)
	BatchSize int          // Rows per transaction (default: 1000)
	Progress  ProgressFunc // Optional progress callback
}

// BuildStats contains statistics about a build
type BuildStats struct {
	Scanned  int
	Indexed  int
	Skipped  int
	Duration time.Duration
}

type titleRow struct {
	title string
	path  string
}

// titleBatch carries rows plus the number of entries scanned when it was cut
type titleBatch struct {
	rows    []titleRow
	scanned int
}

// Builder builds title indexes. A Builder runs at most one build at a time.
type Builder struct {
	lock   buildLock
	logger *slog.Logger
}

// NewBuilder creates a new Builder
func NewBuilder() *Builder {
	return &Builder{logger: slog.Default().With("component", "titleindex")}
}

// Build rebuilds dir/titles.sqlite from the archive's textual entries
func (b *Builder) Build(ctx context.Context, src archive.Lister, dir string, opts BuildOptions) (*BuildStats, error) {
	if !b.lock.TryAcquire() {
		return nil, ErrBuildInProgress
	}
	defer b.lock.Release()

	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	progress := opts.Progress
	if progress == nil {
		progress = func(float64, string) {}
	}

	startTime := time.Now()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	final := filepath.Join(dir, FileName)
	tmp := final + ".tmp"
	_ = os.Remove(tmp)

	total, err := src.Count(ctx)
	if err != nil {
		return nil, err
	}
	if opts.MaxRows > 0 && opts.MaxRows < total {
		total = opts.MaxRows
	}

	db, err := storage.Open(tmp)
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}
	if err := storage.ApplyMigrations(ctx, db, migrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create titles table: %w", err)
	}

	stats := &BuildStats{}
	batches := make(chan titleBatch, 2)
	g, gctx := errgroup.WithContext(ctx)

	// Reader: page through the archive in id order
	g.Go(func() error {
		defer close(batches)
		var afterID int64
		batch := make([]titleRow, 0, opts.BatchSize)
		for stats.Scanned < total {
			page, err := src.List(gctx, afterID, min(opts.BatchSize, total-stats.Scanned))
			if err != nil {
				return err
			}
			if len(page) == 0 {
				break
			}
			for _, info := range page {
				afterID = info.ID
				stats.Scanned++
				if !types.IsTextMimeType(info.MimeType) || info.Title == "" {
					stats.Skipped++
					continue
				}
				batch = append(batch, titleRow{title: info.Title, path: info.Path})
				if len(batch) >= opts.BatchSize {
					select {
					case batches <- titleBatch{rows: batch, scanned: stats.Scanned}:
					case <-gctx.Done():
						return gctx.Err()
					}
					batch = make([]titleRow, 0, opts.BatchSize)
				}
			}
		}
		if len(batch) > 0 {
			select {
			case batches <- titleBatch{rows: batch, scanned: stats.Scanned}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	// Writer: one transaction per batch
	written := 0
	g.Go(func() error {
		for batch := range batches {
			err := storage.WithTx(gctx, db, func(q storage.Querier) error {
				for _, row := range batch.rows {
					if _, err := q.ExecContext(gctx, "INSERT INTO titles (title, path) VALUES (?, ?)", row.title, row.path); err != nil {
						return fmt.Errorf("failed to insert title %s: %w", row.path, err)
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
			written += len(batch.rows)
			progress(float64(batch.scanned)/float64(max(1, total)), fmt.Sprintf("indexed %d titles", written))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		_ = db.Close()
		_ = os.Remove(tmp)
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=DELETE"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to finalize index: %w", err)
	}
	if err := db.Close(); err != nil {
		return nil, err
	}
	if err := os.Rename(tmp, final); err != nil {
		return nil, fmt.Errorf("failed to install index: %w", err)
	}

	stats.Indexed = written
	stats.Duration = time.Since(startTime)
	progress(1.0, fmt.Sprintf("done, titles=%d", written))
	b.logger.Info("title index built",
		"path", final, "scanned", stats.Scanned, "indexed", stats.Indexed, "duration", stats.Duration)
	return stats, nil
}
