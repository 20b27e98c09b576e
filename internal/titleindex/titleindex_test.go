package titleindex

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srijanshukla18/wiki-in-a-box/internal/archive"
)

// fakeLister serves entry metadata from memory
type fakeLister struct {
	entries []archive.EntryInfo
	listErr error
}

func (f *fakeLister) Count(ctx context.Context) (int, error) {
	return len(f.entries), nil
}

func (f *fakeLister) List(ctx context.Context, afterID int64, limit int) ([]archive.EntryInfo, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []archive.EntryInfo
	for _, e := range f.entries {
		if e.ID > afterID && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func newFakeLister(n int) *fakeLister {
	f := &fakeLister{}
	for i := 1; i <= n; i++ {
		info := archive.EntryInfo{
			ID:       int64(i),
			Path:     fmt.Sprintf("A/Page_%d", i),
			Title:    fmt.Sprintf("Page %d", i),
			MimeType: "text/html",
		}
		switch {
		case i%10 == 0:
			info.MimeType = "image/png"
		case i%7 == 0:
			info.Title = ""
		}
		f.entries = append(f.entries, info)
	}
	return f
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	src := newFakeLister(25)
	src.entries = append(src.entries, archive.EntryInfo{
		ID: 26, Path: "A/French_Revolution", Title: "French Revolution", MimeType: "text/html",
	})

	var mu sync.Mutex
	var fractions []float64
	var messages []string
	stats, err := NewBuilder().Build(context.Background(), src, dir, BuildOptions{
		BatchSize: 5,
		Progress: func(frac float64, msg string) {
			mu.Lock()
			defer mu.Unlock()
			fractions = append(fractions, frac)
			messages = append(messages, msg)
		},
	})
	require.NoError(t, err)

	// 26 scanned; ids 7, 10, 14, 20, 21 skipped
	assert.Equal(t, 26, stats.Scanned)
	assert.Equal(t, 5, stats.Skipped)
	assert.Equal(t, 21, stats.Indexed)

	require.NotEmpty(t, fractions)
	assert.Equal(t, 1.0, fractions[len(fractions)-1])
	assert.Equal(t, "done, titles=21", messages[len(messages)-1])
	for i := 1; i < len(fractions); i++ {
		assert.GreaterOrEqual(t, fractions[i], fractions[i-1])
	}

	idx := Open(dir)
	defer idx.Close()
	assert.True(t, idx.Available())

	hits, err := idx.Search(context.Background(), "french revolution", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, Hit{Path: "A/French_Revolution", Title: "French Revolution"}, hits[0])
}

func TestBuild_MaxRows(t *testing.T) {
	dir := t.TempDir()
	stats, err := NewBuilder().Build(context.Background(), newFakeLister(50), dir, BuildOptions{MaxRows: 6})
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Scanned)
	assert.Equal(t, 6, stats.Indexed)
}

func TestBuild_ReplacesExistingIndex(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	b := NewBuilder()

	_, err := b.Build(ctx, &fakeLister{entries: []archive.EntryInfo{
		{ID: 1, Path: "A/Old", Title: "Obsolete Title", MimeType: "text/html"},
	}}, dir, BuildOptions{})
	require.NoError(t, err)

	_, err = b.Build(ctx, &fakeLister{entries: []archive.EntryInfo{
		{ID: 1, Path: "A/New", Title: "Fresh Title", MimeType: "text/html"},
	}}, dir, BuildOptions{})
	require.NoError(t, err)

	idx := Open(dir)
	defer idx.Close()
	hits, err := idx.Search(ctx, "obsolete", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = idx.Search(ctx, "fresh", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestBuild_ListError(t *testing.T) {
	dir := t.TempDir()
	src := newFakeLister(3)
	src.listErr = assert.AnError

	_, err := NewBuilder().Build(context.Background(), src, dir, BuildOptions{})
	require.ErrorIs(t, err, assert.AnError)
	assert.False(t, Open(dir).Available())
}

func TestBuild_RejectsConcurrentBuild(t *testing.T) {
	b := NewBuilder()
	require.True(t, b.lock.TryAcquire())
	defer b.lock.Release()

	_, err := b.Build(context.Background(), newFakeLister(1), t.TempDir(), BuildOptions{})
	assert.ErrorIs(t, err, ErrBuildInProgress)
}

func TestSearch_MissingIndex(t *testing.T) {
	idx := Open(t.TempDir())
	assert.False(t, idx.Available())

	hits, err := idx.Search(context.Background(), "anything", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearch_Reload(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	idx := Open(dir)
	defer idx.Close()

	hits, err := idx.Search(ctx, "page", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	_, err = NewBuilder().Build(ctx, newFakeLister(3), dir, BuildOptions{})
	require.NoError(t, err)
	require.NoError(t, idx.Reload())

	hits, err = idx.Search(ctx, "page", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}
