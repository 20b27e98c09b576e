package archive

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srijanshukla18/wiki-in-a-box/pkg/types"
)

func buildTestArchive(t *testing.T, docs []Document) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive.sqlite")
	w, err := Create(path)
	require.NoError(t, err)
	_, err = w.AddBatch(context.Background(), docs)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return path
}

var sampleDocs = []Document{
	{
		Path:     "A/French_Revolution",
		Title:    "French Revolution",
		MimeType: "text/html",
		Content:  []byte("<html><body><p>The French Revolution began in 1789.</p></body></html>"),
		Body:     "The French Revolution began in 1789 with the storming of the Bastille.",
	},
	{
		Path:     "A/French_Revolutionary_Wars",
		Title:    "French Revolutionary Wars",
		MimeType: "text/html",
		Content:  []byte("<p>Wars</p>"),
		Body:     "A series of military conflicts following the revolution.",
	},
	{
		Path:     "A/Photosynthesis",
		Title:    "Photosynthesis",
		MimeType: "text/html",
		Content:  []byte("<p>Plants</p>"),
		Body:     "Photosynthesis converts light energy into chemical energy in plants.",
	},
	{
		Path:     "I/logo.png",
		Title:    "French logo",
		MimeType: "image/png",
		Content:  []byte{0x89, 0x50},
	},
}

func TestOpen_MissingArchive(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.sqlite"))
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrConfiguration)
}

func TestArchive_Entry(t *testing.T) {
	a, err := Open(buildTestArchive(t, sampleDocs))
	require.NoError(t, err)
	defer a.Close()
	ctx := context.Background()

	t.Run("by path", func(t *testing.T) {
		e, err := a.Entry(ctx, "A/French_Revolution")
		require.NoError(t, err)
		assert.Equal(t, "French Revolution", e.Title)
		assert.Equal(t, "text/html", e.MimeType)
		assert.Contains(t, string(e.Content), "1789")
	})

	t.Run("leading slash ignored", func(t *testing.T) {
		e, err := a.Entry(ctx, "/A/Photosynthesis")
		require.NoError(t, err)
		assert.Equal(t, "A/Photosynthesis", e.Path)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := a.Entry(ctx, "A/Nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("binary entry is not text", func(t *testing.T) {
		e, err := a.Entry(ctx, "I/logo.png")
		require.NoError(t, err)
		assert.False(t, types.IsTextMimeType(e.MimeType))
	})
}

func TestArchive_Search(t *testing.T) {
	a, err := Open(buildTestArchive(t, sampleDocs))
	require.NoError(t, err)
	defer a.Close()
	ctx := context.Background()

	paths, err := a.Search(ctx, "bastille storming", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"A/French_Revolution"}, paths)

	paths, err = a.Search(ctx, "revolution", 0, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A/French_Revolution", "A/French_Revolutionary_Wars"}, paths)

	limited, err := a.Search(ctx, "revolution", 1, 10)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	empty, err := a.Search(ctx, "?!", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestArchive_Suggest(t *testing.T) {
	a, err := Open(buildTestArchive(t, sampleDocs))
	require.NoError(t, err)
	defer a.Close()
	ctx := context.Background()

	res, err := a.Suggest(ctx, "french revolution", 10)
	require.NoError(t, err)
	assert.Equal(t, 2, res.EstimatedMatches)
	// Shorter title ranks first on ties
	assert.Equal(t, "A/French_Revolution", res.Paths[0])

	res, err = a.Suggest(ctx, "french", 10)
	require.NoError(t, err)
	assert.Equal(t, 3, res.EstimatedMatches)
	assert.NotContains(t, res.Paths, "I/logo.png")

	res, err = a.Suggest(ctx, "photo", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"A/Photosynthesis"}, res.Paths)

	res, err = a.Suggest(ctx, "zebra", 5)
	require.NoError(t, err)
	assert.Zero(t, res.EstimatedMatches)
	assert.Empty(t, res.Paths)
}

func TestArchive_CountAndList(t *testing.T) {
	a, err := Open(buildTestArchive(t, sampleDocs))
	require.NoError(t, err)
	defer a.Close()
	ctx := context.Background()

	n, err := a.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	first, err := a.List(ctx, 0, 3)
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, "A/French_Revolution", first[0].Path)

	rest, err := a.List(ctx, first[2].ID, 3)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "I/logo.png", rest[0].Path)
}

func TestWriter_SkipsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dup.sqlite")
	w, err := Create(path)
	require.NoError(t, err)
	ctx := context.Background()

	n, err := w.AddBatch(ctx, sampleDocs[:2])
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = w.AddBatch(ctx, sampleDocs[:3])
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = w.AddBatch(ctx, []Document{{Path: "A/x"}})
	assert.Error(t, err, "mimetype is required")
	require.NoError(t, w.Close())
}
