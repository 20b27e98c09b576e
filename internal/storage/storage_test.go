package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMigrations = []Migration{
	{Version: "1.0.0", Up: `CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT NOT NULL);`},
	{Version: "1.1.0", Up: `CREATE INDEX idx_items_name ON items(name);`},
}

func newTestDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.sqlite")
}

func TestApplyMigrations(t *testing.T) {
	ctx := context.Background()
	path := newTestDB(t)

	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	v, err := SchemaVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0", v.String())

	require.NoError(t, ApplyMigrations(ctx, db, testMigrations[:1]))
	v, err = SchemaVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", v.String())

	// Re-running applies only the newer migration
	require.NoError(t, ApplyMigrations(ctx, db, testMigrations))
	require.NoError(t, ApplyMigrations(ctx, db, testMigrations))
	v, err = SchemaVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", v.String())

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&n))
	assert.Equal(t, 2, n)
}

func TestApplyMigrations_InvalidVersion(t *testing.T) {
	db, err := Open(newTestDB(t))
	require.NoError(t, err)
	defer db.Close()

	err = ApplyMigrations(context.Background(), db, []Migration{{Version: "latest", Up: "SELECT 1"}})
	assert.Error(t, err)
}

func TestApplyMigrations_FailedMigrationNotRecorded(t *testing.T) {
	ctx := context.Background()
	db, err := Open(newTestDB(t))
	require.NoError(t, err)
	defer db.Close()

	err = ApplyMigrations(ctx, db, []Migration{{Version: "1.0.0", Up: "CREATE TABLE broken ("}})
	require.Error(t, err)

	v, err := SchemaVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0", v.String())
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()
	db, err := Open(newTestDB(t))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, ApplyMigrations(ctx, db, testMigrations))

	err = WithTx(ctx, db, func(q Querier) error {
		_, err := q.ExecContext(ctx, "INSERT INTO items (name) VALUES ('kept')")
		return err
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = WithTx(ctx, db, func(q Querier) error {
		if _, err := q.ExecContext(ctx, "INSERT INTO items (name) VALUES ('discarded')"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var names []string
	rows, err := db.QueryContext(ctx, "SELECT name FROM items")
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"kept"}, names)
}

func TestOpenReadOnly(t *testing.T) {
	ctx := context.Background()

	_, err := OpenReadOnly(filepath.Join(t.TempDir(), "missing.sqlite"), 2)
	assert.ErrorIs(t, err, ErrMissingDatabase)

	path := newTestDB(t)
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, ApplyMigrations(ctx, db, testMigrations))
	_, err = db.Exec("PRAGMA journal_mode=DELETE")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	ro, err := OpenReadOnly(path, 0)
	require.NoError(t, err)
	defer ro.Close()

	v, err := SchemaVersion(ctx, ro)
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", v.String())

	_, err = ro.ExecContext(ctx, "INSERT INTO items (name) VALUES ('x')")
	assert.Error(t, err, "read-only handle must reject writes")
}

func TestOpen_PathWithURICharacters(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "wiki?lang=en#draft")
	require.NoError(t, os.Mkdir(dir, 0o755))
	path := filepath.Join(dir, "archive.sqlite")

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, ApplyMigrations(ctx, db, testMigrations))
	_, err = db.Exec("PRAGMA journal_mode=DELETE")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = os.Stat(path)
	require.NoError(t, err, "database must be created at the literal path")

	ro, err := OpenReadOnly(path, 1)
	require.NoError(t, err)
	defer ro.Close()

	v, err := SchemaVersion(ctx, ro)
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", v.String())
	_, err = ro.ExecContext(ctx, "INSERT INTO items (name) VALUES ('x')")
	assert.Error(t, err)
}

func TestFileDSN(t *testing.T) {
	dsn, err := fileDSN("/data/wiki?v=2#top.sqlite", "ro")
	require.NoError(t, err)
	assert.Equal(t, "file:///data/wiki%3Fv=2%23top.sqlite?mode=ro", dsn)
}

func TestTerms(t *testing.T) {
	assert.Equal(t, []string{"causes", "of", "the", "French", "Revolution"},
		Terms(`causes of the "French Revolution"?`))
	assert.Equal(t, []string{"Zürich", "1789"}, Terms("Zürich (1789)"))
	assert.Empty(t, Terms(`"*()-`))
}

func TestMatchExpressions(t *testing.T) {
	assert.Equal(t, `"a" OR "OR" OR "b"`, MatchAny([]string{"a", "OR", "", "b"}))
	assert.Equal(t, "", MatchAny(nil))

	assert.Equal(t, `"french" "revol"*`, MatchPrefix([]string{"french", "revol"}))
	assert.Equal(t, "", MatchPrefix([]string{""}))

	assert.Equal(t, `"say" "hi"`, QuoteTerm("say")+" "+QuoteTerm("hi"))
	assert.Equal(t, `"a""b"`, QuoteTerm(`a"b`))

	assert.Equal(t, `"NEAR" OR "x"`, SanitizeFTSQuery("NEAR(x)"))
	assert.Equal(t, "", SanitizeFTSQuery("  ?! "))
}

func TestSanitizedQueryRunsAgainstFTS(t *testing.T) {
	ctx := context.Background()
	db, err := Open(newTestDB(t))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.ExecContext(ctx, "CREATE VIRTUAL TABLE docs USING fts5(body)")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "INSERT INTO docs (body) VALUES ('the storming of the bastille'), ('plants and light')")
	require.NoError(t, err)

	var n int
	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM docs WHERE docs MATCH ?",
		SanitizeFTSQuery(`bastille AND "NOT" (light`)).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
